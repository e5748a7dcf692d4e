package enums

import "fmt"

// TierKind distinguishes which tier list an effective tier came from.
type TierKind string

const (
	TierKindVolume       TierKind = "volume"
	TierKindRelationship TierKind = "relationship"
)

var validTierKinds = []TierKind{
	TierKindVolume,
	TierKindRelationship,
}

// String implements fmt.Stringer.
func (k TierKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known TierKind.
func (k TierKind) IsValid() bool {
	for _, candidate := range validTierKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTierKind converts raw input into a TierKind.
func ParseTierKind(value string) (TierKind, error) {
	for _, candidate := range validTierKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier kind %q", value)
}
