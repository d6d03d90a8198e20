package storage

import (
	"context"
	"time"

	"sitescope/pkg/domain"
)

// CrawlUpdates describes the fields that can be applied to an existing crawl
// during an update. Status is always set; the rest only when non-nil.
type CrawlUpdates struct {
	// Status is the new status to set for the crawl.
	Status domain.CrawlStatus
	// StartedAt, when provided, stamps the moment the crawl left pending.
	StartedAt *time.Time
	// LastError, when provided, sets the last error text. An empty string
	// value indicates the error should be cleared (set to NULL).
	LastError *string
}

// CrawlStorage defines persistence operations for crawl jobs. Status updates
// are compare-and-set: the caller names the status it transitioned from, and
// the update applies only if the row is still in that status. The domain
// transition table decides which edges are legal; the guard makes sure two
// workers racing on the same row cannot both win.
type CrawlStorage interface {
	// StoreCrawl inserts a crawl and returns the stored row as it exists in
	// the database (including generated fields).
	StoreCrawl(ctx context.Context, crawl domain.CrawlJob) (*domain.CrawlJob, error)
	// CrawlByID fetches a crawl by its ID. Returns nil when not found.
	CrawlByID(ctx context.Context, id domain.CrawlID) (*domain.CrawlJob, error)
	// UpdateCrawlFromStatus applies updates to the crawl identified by id, but
	// only while its current status equals from. Returns the updated row, or
	// nil when the row does not exist or was concurrently moved out of from.
	UpdateCrawlFromStatus(ctx context.Context,
		id domain.CrawlID,
		from domain.CrawlStatus,
		updates CrawlUpdates) (*domain.CrawlJob, error)
	// ActiveCrawlsStartedBefore returns crawls in the crawling status whose
	// started_at is before the cutoff. Used by the expiry sweep.
	ActiveCrawlsStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.CrawlJob, error)
}
