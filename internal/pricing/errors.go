package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ResolutionErrorKind enumerates the ways tier resolution can fail. None of
// them abort a caller's workflow; the contract is "fall back to zero discount
// and flag the party".
type ResolutionErrorKind string

const (
	// ResolutionErrNoMatchingTier means no volume tier range covers the
	// party's current monthly order count (a configuration gap).
	ResolutionErrNoMatchingTier ResolutionErrorKind = "no_matching_tier"
	// ResolutionErrUnassignedTier means the relationship model is active but
	// the party has no relationship tier assigned.
	ResolutionErrUnassignedTier ResolutionErrorKind = "unassigned_tier"
	// ResolutionErrUnknownTierID means the party references a tier id that no
	// longer exists in the configuration (a dangling reference).
	ResolutionErrUnknownTierID ResolutionErrorKind = "unknown_tier_id"
)

func (k ResolutionErrorKind) String() string {
	return string(k)
}

// ResolutionError is the typed failure returned by the resolver.
type ResolutionError struct {
	Kind   ResolutionErrorKind
	TierID *uuid.UUID
}

func (e *ResolutionError) Error() string {
	if e.TierID != nil {
		return fmt.Sprintf("tier resolution failed: %s (tier %s)", e.Kind, e.TierID)
	}
	return fmt.Sprintf("tier resolution failed: %s", e.Kind)
}

func newResolutionError(kind ResolutionErrorKind) *ResolutionError {
	return &ResolutionError{Kind: kind}
}

func newUnknownTierError(id uuid.UUID) *ResolutionError {
	ref := id
	return &ResolutionError{Kind: ResolutionErrUnknownTierID, TierID: &ref}
}

// AsResolutionError unwraps err into a ResolutionError if it is one.
func AsResolutionError(err error) (*ResolutionError, bool) {
	var typed *ResolutionError
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}
