package pricing

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/threadlinehq/threadline-backend/pkg/errors"
)

var maxPercentage = decimal.NewFromInt(100)

// ValidateConfig checks a configuration before it is persisted. Every
// violation is collected so the settings surface can show them all at once;
// the returned error carries a details list and maps to a 400.
func ValidateConfig(cfg *TierConfig) error {
	if cfg == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "config is required")
	}

	var errs error

	if !cfg.ActiveModel.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("active_model %q is not one of volume, relationship, hybrid", cfg.ActiveModel))
	}

	if cfg.ActiveModel.UsesVolumeTiers() && len(cfg.VolumeTiers) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("active_model %s requires at least one volume tier", cfg.ActiveModel))
	}
	if cfg.ActiveModel.String() == "relationship" && len(cfg.RelationshipTiers) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("active_model relationship requires at least one relationship tier"))
	}

	errs = multierr.Append(errs, validateVolumeTiers(cfg.VolumeTiers))
	errs = multierr.Append(errs, validateRelationshipTiers(cfg.RelationshipTiers))

	if errs == nil {
		return nil
	}

	details := []string{}
	for _, e := range multierr.Errors(errs) {
		details = append(details, e.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing configuration").WithDetails(map[string]any{
		"violations": details,
	})
}

func validateVolumeTiers(tiers []VolumeTier) error {
	var errs error

	seen := map[uuid.UUID]struct{}{}
	unboundedCount := 0
	greatestMin := 0
	for _, tier := range tiers {
		if tier.MinMonthlyOrders > greatestMin {
			greatestMin = tier.MinMonthlyOrders
		}
	}

	for _, tier := range tiers {
		label := tierLabel(tier.Name, tier.ID)
		if tier.ID != uuid.Nil {
			if _, dup := seen[tier.ID]; dup {
				errs = multierr.Append(errs, fmt.Errorf("volume tier %s: duplicate id", label))
			}
			seen[tier.ID] = struct{}{}
		}
		if tier.MinMonthlyOrders < 0 {
			errs = multierr.Append(errs, fmt.Errorf("volume tier %s: min_monthly_orders must be >= 0", label))
		}
		if tier.MaxMonthlyOrders != nil && *tier.MaxMonthlyOrders < tier.MinMonthlyOrders {
			errs = multierr.Append(errs, fmt.Errorf("volume tier %s: max_monthly_orders is below min_monthly_orders", label))
		}
		if tier.MaxMonthlyOrders == nil {
			unboundedCount++
			if tier.MinMonthlyOrders < greatestMin {
				errs = multierr.Append(errs, fmt.Errorf("volume tier %s: unbounded tier must carry the greatest min_monthly_orders", label))
			}
		}
		errs = multierr.Append(errs, validatePercentage(tier.DiscountPercentage, label))
	}

	if unboundedCount > 1 {
		errs = multierr.Append(errs, fmt.Errorf("at most one volume tier may be unbounded"))
	}

	errs = multierr.Append(errs, validateNoOverlap(tiers))
	return errs
}

// validateNoOverlap checks that no two tier ranges intersect. Gaps between
// ranges are tolerated here; they surface as NoMatchingTier at resolution
// time rather than blocking a save.
func validateNoOverlap(tiers []VolumeTier) error {
	if len(tiers) < 2 {
		return nil
	}

	sorted := make([]VolumeTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinMonthlyOrders < sorted[j].MinMonthlyOrders
	})

	var errs error
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.MaxMonthlyOrders == nil || *prev.MaxMonthlyOrders >= cur.MinMonthlyOrders {
			errs = multierr.Append(errs, fmt.Errorf(
				"volume tiers %s and %s have overlapping ranges",
				tierLabel(prev.Name, prev.ID), tierLabel(cur.Name, cur.ID),
			))
		}
	}
	return errs
}

func validateRelationshipTiers(tiers []RelationshipTier) error {
	var errs error
	seen := map[uuid.UUID]struct{}{}
	for _, tier := range tiers {
		label := tierLabel(tier.Name, tier.ID)
		if tier.ID != uuid.Nil {
			if _, dup := seen[tier.ID]; dup {
				errs = multierr.Append(errs, fmt.Errorf("relationship tier %s: duplicate id", label))
			}
			seen[tier.ID] = struct{}{}
		}
		errs = multierr.Append(errs, validatePercentage(tier.DiscountPercentage, label))
	}
	return errs
}

func validatePercentage(pct decimal.Decimal, label string) error {
	if pct.IsNegative() || pct.GreaterThan(maxPercentage) {
		return fmt.Errorf("tier %s: discount_percentage must be between 0 and 100", label)
	}
	return nil
}

func tierLabel(name string, id uuid.UUID) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return id.String()
}
