package enums

import "fmt"

// PricingModel selects how a party's discount tier is determined.
type PricingModel string

const (
	PricingModelVolume       PricingModel = "volume"
	PricingModelRelationship PricingModel = "relationship"
	PricingModelHybrid       PricingModel = "hybrid"
)

var validPricingModels = []PricingModel{
	PricingModelVolume,
	PricingModelRelationship,
	PricingModelHybrid,
}

// String implements fmt.Stringer.
func (p PricingModel) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingModel.
func (p PricingModel) IsValid() bool {
	for _, candidate := range validPricingModels {
		if candidate == p {
			return true
		}
	}
	return false
}

// UsesVolumeTiers reports whether the model resolves tiers from order counts.
func (p PricingModel) UsesVolumeTiers() bool {
	return p == PricingModelVolume || p == PricingModelHybrid
}

// ParsePricingModel converts raw input into a PricingModel.
func ParsePricingModel(value string) (PricingModel, error) {
	for _, candidate := range validPricingModels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing model %q", value)
}
