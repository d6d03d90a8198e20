package domain

import "sitescope/pkg/serrors"

// The two error kinds this package can produce. Every other operation here is
// a total function returning booleans or numbers, so callers can branch on
// results without error handling on the common entitlement path.
var (
	// ErrUnknownTier is returned when a tier string is not present in the
	// catalog. Callers should treat it as a configuration or data-integrity
	// fault rather than a user error.
	ErrUnknownTier = serrors.NewKind("UNKNOWN_TIER")
	// ErrInvalidTransition is returned when a requested crawl status change
	// has no edge in the transition table.
	ErrInvalidTransition = serrors.NewKind("INVALID_TRANSITION")
)
