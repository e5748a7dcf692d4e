package pricing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

// ResolveEffectiveTier computes the tier that determines a party's discount
// under the config's active model. It is a pure function: no I/O, no mutation
// of cfg or state. HybridAutoTierID on the result is derived from the current
// MonthlyOrderCount; any stored auto-tier value on the party is ignored.
func ResolveEffectiveTier(cfg *TierConfig, state PartyState) (Resolution, error) {
	if cfg == nil {
		return Resolution{}, fmt.Errorf("config is required")
	}

	switch cfg.ActiveModel {
	case enums.PricingModelVolume:
		return resolveVolume(cfg, state)
	case enums.PricingModelRelationship:
		return resolveRelationship(cfg, state)
	case enums.PricingModelHybrid:
		return resolveHybrid(cfg, state)
	default:
		return Resolution{}, fmt.Errorf("unknown pricing model %q", cfg.ActiveModel)
	}
}

func resolveVolume(cfg *TierConfig, state PartyState) (Resolution, error) {
	// An administrator pin takes precedence over automatic matching.
	if state.VolumeTierID != nil {
		tier, ok := cfg.VolumeTierByID(*state.VolumeTierID)
		if !ok {
			return Resolution{}, newUnknownTierError(*state.VolumeTierID)
		}
		return Resolution{Effective: volumeEffective(tier)}, nil
	}

	tier, err := matchVolumeTier(cfg, state.MonthlyOrderCount)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Effective: volumeEffective(tier)}, nil
}

func resolveRelationship(cfg *TierConfig, state PartyState) (Resolution, error) {
	if state.RelationshipTierID == nil {
		return Resolution{}, newResolutionError(ResolutionErrUnassignedTier)
	}
	tier, ok := cfg.RelationshipTierByID(*state.RelationshipTierID)
	if !ok {
		return Resolution{}, newUnknownTierError(*state.RelationshipTierID)
	}
	return Resolution{
		Effective: EffectiveTier{
			Kind:               enums.TierKindRelationship,
			TierID:             tier.ID,
			Name:               tier.Name,
			Color:              tier.Color,
			DiscountPercentage: tier.DiscountPercentage,
		},
	}, nil
}

func resolveHybrid(cfg *TierConfig, state PartyState) (Resolution, error) {
	// The automatic tier is recomputed in both the Automatic and Overridden
	// states so that clearing an override immediately reflects current
	// standing.
	auto, autoErr := matchVolumeTier(cfg, state.MonthlyOrderCount)

	var autoID *uuid.UUID
	if autoErr == nil {
		id := auto.ID
		autoID = &id
	}

	if state.HybridManualOverride {
		if state.HybridOverrideTierID == nil {
			return Resolution{}, newResolutionError(ResolutionErrUnassignedTier)
		}
		tier, ok := cfg.VolumeTierByID(*state.HybridOverrideTierID)
		if !ok {
			// Override points at a deleted tier; surface the dangling
			// reference instead of silently falling back.
			return Resolution{}, newUnknownTierError(*state.HybridOverrideTierID)
		}
		return Resolution{Effective: volumeEffective(tier), HybridAutoTierID: autoID}, nil
	}

	if autoErr != nil {
		return Resolution{}, autoErr
	}
	return Resolution{Effective: volumeEffective(auto), HybridAutoTierID: autoID}, nil
}

// matchVolumeTier finds the tier whose range contains count. Validated configs
// have at most one match; if validation was bypassed and several ranges
// overlap, the tier with the greatest lower bound (the most specific match)
// wins.
func matchVolumeTier(cfg *TierConfig, count int) (VolumeTier, error) {
	var (
		best  VolumeTier
		found bool
	)
	for _, tier := range cfg.VolumeTiers {
		if !tier.Contains(count) {
			continue
		}
		if !found || tier.MinMonthlyOrders > best.MinMonthlyOrders {
			best = tier
			found = true
		}
	}
	if !found {
		return VolumeTier{}, newResolutionError(ResolutionErrNoMatchingTier)
	}
	return best, nil
}

func volumeEffective(tier VolumeTier) EffectiveTier {
	return EffectiveTier{
		Kind:               enums.TierKindVolume,
		TierID:             tier.ID,
		Name:               tier.Name,
		Color:              tier.Color,
		DiscountPercentage: tier.DiscountPercentage,
	}
}
