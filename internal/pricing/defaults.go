package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/threadlinehq/threadline-backend/pkg/enums"
)

// Default tier ids are fixed so that party references stay stable across
// processes that boot before any configuration has been saved.
var (
	DefaultVolumeStarterID = uuid.MustParse("7c9a1a1e-0000-4000-8000-000000000001")
	DefaultVolumeGrowthID  = uuid.MustParse("7c9a1a1e-0000-4000-8000-000000000002")
	DefaultVolumePrimeID   = uuid.MustParse("7c9a1a1e-0000-4000-8000-000000000003")

	DefaultRelationshipNewID       = uuid.MustParse("7c9a1a1e-0000-4000-8000-000000000011")
	DefaultRelationshipPreferredID = uuid.MustParse("7c9a1a1e-0000-4000-8000-000000000012")
	DefaultRelationshipPartnerID   = uuid.MustParse("7c9a1a1e-0000-4000-8000-000000000013")
)

func intPtr(v int) *int { return &v }

// DefaultConfig returns the configuration used when nothing has been
// persisted yet: hybrid model with contiguous volume tiers covering every
// non-negative order count.
func DefaultConfig() *TierConfig {
	return &TierConfig{
		ActiveModel: enums.PricingModelHybrid,
		VolumeTiers: []VolumeTier{
			{
				ID:                 DefaultVolumeStarterID,
				Name:               "Starter",
				Description:        "Up to 4 completed orders this month",
				Color:              "#9e9e9e",
				MinMonthlyOrders:   0,
				MaxMonthlyOrders:   intPtr(4),
				DiscountPercentage: decimal.Zero,
			},
			{
				ID:                 DefaultVolumeGrowthID,
				Name:               "Growth",
				Description:        "5 to 19 completed orders this month",
				Color:              "#1e88e5",
				MinMonthlyOrders:   5,
				MaxMonthlyOrders:   intPtr(19),
				DiscountPercentage: decimal.NewFromInt(5),
			},
			{
				ID:                 DefaultVolumePrimeID,
				Name:               "Prime",
				Description:        "20 or more completed orders this month",
				Color:              "#f9a825",
				MinMonthlyOrders:   20,
				MaxMonthlyOrders:   nil,
				DiscountPercentage: decimal.NewFromInt(10),
			},
		},
		RelationshipTiers: []RelationshipTier{
			{
				ID:                 DefaultRelationshipNewID,
				Name:               "New",
				Description:        "Recently onboarded party",
				Color:              "#9e9e9e",
				DiscountPercentage: decimal.Zero,
				Benefits:           []string{"Catalogue access"},
			},
			{
				ID:                 DefaultRelationshipPreferredID,
				Name:               "Preferred",
				Description:        "Established trading relationship",
				Color:              "#1e88e5",
				DiscountPercentage: decimal.NewFromInt(5),
				Benefits:           []string{"Catalogue access", "Priority dispatch"},
			},
			{
				ID:                 DefaultRelationshipPartnerID,
				Name:               "Partner",
				Description:        "Long-standing high-trust account",
				Color:              "#f9a825",
				DiscountPercentage: decimal.NewFromInt(10),
				Benefits:           []string{"Catalogue access", "Priority dispatch", "Credit terms"},
			},
		},
	}
}
