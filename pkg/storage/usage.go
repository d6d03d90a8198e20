package storage

import (
	"context"

	"sitescope/pkg/domain"
)

// Usage holds the metered counters of one owner for one billing period.
type Usage struct {
	// VisibilityChecks is the number of visibility checks run this period.
	VisibilityChecks int
	// Reports is the number of reports generated this period.
	Reports int
}

// UsageDelta describes increments to apply to an owner's usage counters.
type UsageDelta struct {
	VisibilityChecks int
	Reports          int
}

// UsageStorage tracks per-period usage counters that plan entitlements are
// evaluated against. Period keys are opaque to the storage layer; the service
// derives them from the clock (e.g. "2026-08" for monthly counters).
type UsageStorage interface {
	// Usage returns the counters of the owner for the period. A period with no
	// recorded usage yields zero counters, not an error.
	Usage(ctx context.Context, ownerID domain.UserID, period string) (Usage, error)
	// AddUsage atomically increments the owner's counters for the period,
	// creating the row when absent.
	AddUsage(ctx context.Context, ownerID domain.UserID, period string, delta UsageDelta) error
}

// AccountStorage tracks the crawl credit balance granted by the billing
// layer. Credits gate crawl starts; plan limits gate everything else.
type AccountStorage interface {
	// CrawlCredits returns the owner's remaining crawl credits. Unknown owners
	// have zero credits.
	CrawlCredits(ctx context.Context, ownerID domain.UserID) (int, error)
	// AddCrawlCredits adjusts the owner's credit balance by delta (negative to
	// consume), creating the account row when absent.
	AddCrawlCredits(ctx context.Context, ownerID domain.UserID, delta int) error
}
