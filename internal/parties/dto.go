package parties

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/internal/pricing"
	"github.com/threadlinehq/threadline-backend/pkg/db/models"
)

// CreatePartyInput carries the fields accepted when registering a party.
type CreatePartyInput struct {
	Name      string  `json:"name" validate:"required,min=2,max=160"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	City      *string `json:"city,omitempty" validate:"omitempty,max=120"`
	GSTNumber *string `json:"gst_number,omitempty" validate:"omitempty,max=20"`
}

// ListPartiesInput configures the party list endpoint.
type ListPartiesInput struct {
	Limit  int
	Cursor string
}

// ListPartiesResult is one page of parties plus the cursor for the next one.
type ListPartiesResult struct {
	Parties    []models.Party `json:"parties"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SetRelationshipTierInput assigns a relationship tier to a party.
type SetRelationshipTierInput struct {
	TierID uuid.UUID `json:"tier_id" validate:"required"`
}

// SetVolumeTierOverrideInput pins a party to a volume tier. A nil TierID
// clears the pin and restores automatic range matching.
type SetVolumeTierOverrideInput struct {
	TierID *uuid.UUID `json:"tier_id"`
}

// SetHybridOverrideInput toggles the hybrid override. TierID is required when
// enabling and ignored when disabling.
type SetHybridOverrideInput struct {
	Override bool       `json:"override"`
	TierID   *uuid.UUID `json:"tier_id" validate:"required_if=Override true"`
}

// TierView is what pricing surfaces render for a party. When resolution fails
// the view degrades to a zero discount instead of an error so checkout and
// catalogue flows never break on pricing state.
type TierView struct {
	PartyID            uuid.UUID              `json:"party_id"`
	Resolved           bool                   `json:"resolved"`
	EffectiveTier      *pricing.EffectiveTier `json:"effective_tier,omitempty"`
	DiscountPercentage decimal.Decimal        `json:"discount_percentage"`
	FailureReason      string                 `json:"failure_reason,omitempty"`
}

func stateOf(party *models.Party) pricing.PartyState {
	return pricing.PartyState{
		VolumeTierID:         party.VolumeTierID,
		RelationshipTierID:   party.RelationshipTierID,
		HybridAutoTierID:     party.HybridAutoTierID,
		HybridManualOverride: party.HybridManualOverride,
		HybridOverrideTierID: party.HybridOverrideTierID,
		MonthlyOrderCount:    party.MonthlyOrderCount,
	}
}
