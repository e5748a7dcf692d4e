package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

// VolumeTier is a discount bracket keyed on monthly completed orders.
// MaxMonthlyOrders nil means the range is unbounded above.
type VolumeTier struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Color              string          `json:"color,omitempty"`
	MinMonthlyOrders   int             `json:"min_monthly_orders"`
	MaxMonthlyOrders   *int            `json:"max_monthly_orders"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// Contains reports whether the tier's inclusive range covers the count.
func (t VolumeTier) Contains(count int) bool {
	if count < t.MinMonthlyOrders {
		return false
	}
	return t.MaxMonthlyOrders == nil || count <= *t.MaxMonthlyOrders
}

// Unbounded reports whether the tier has no upper limit.
func (t VolumeTier) Unbounded() bool {
	return t.MaxMonthlyOrders == nil
}

// RelationshipTier is a manually assigned discount bracket. Benefits are
// display-only copy for the party-edit surface.
type RelationshipTier struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Color              string          `json:"color,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Benefits           []string        `json:"benefits"`
}

// TierConfig is the single global pricing configuration document.
type TierConfig struct {
	ActiveModel       enums.PricingModel `json:"active_model"`
	VolumeTiers       []VolumeTier       `json:"volume_tiers"`
	RelationshipTiers []RelationshipTier `json:"relationship_tiers"`

	// Version is the optimistic-concurrency counter of the persisted row.
	// It is not part of the document itself.
	Version int64 `json:"-"`
}

// VolumeTierByID finds a volume tier in the config.
func (c *TierConfig) VolumeTierByID(id uuid.UUID) (VolumeTier, bool) {
	for _, tier := range c.VolumeTiers {
		if tier.ID == id {
			return tier, true
		}
	}
	return VolumeTier{}, false
}

// RelationshipTierByID finds a relationship tier in the config.
func (c *TierConfig) RelationshipTierByID(id uuid.UUID) (RelationshipTier, bool) {
	for _, tier := range c.RelationshipTiers {
		if tier.ID == id {
			return tier, true
		}
	}
	return RelationshipTier{}, false
}

// PartyState is the projection of a party that tier resolution reads.
type PartyState struct {
	VolumeTierID         *uuid.UUID
	RelationshipTierID   *uuid.UUID
	HybridAutoTierID     *uuid.UUID
	HybridManualOverride bool
	HybridOverrideTierID *uuid.UUID
	MonthlyOrderCount    int
}

// EffectiveTier is the tier that actually determines a party's discount.
type EffectiveTier struct {
	Kind               enums.TierKind  `json:"tier_kind"`
	TierID             uuid.UUID       `json:"tier_id"`
	Name               string          `json:"name"`
	Color              string          `json:"color,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// Resolution is the full resolver output. HybridAutoTierID carries the tier
// computed from the current order count so callers can write it back to the
// party record; it is set whenever the active model computes a volume tier,
// even while an override is in force.
type Resolution struct {
	Effective        EffectiveTier
	HybridAutoTierID *uuid.UUID
}
