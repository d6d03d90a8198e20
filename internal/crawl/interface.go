package crawl

import (
	"context"

	"sitescope/pkg/domain"
)

// Service drives the crawl lifecycle: the worker begins crawls, the agent's
// callbacks ingest pages and close them out, and the periodic sweep expires
// the ones that ran too long. All status moves go through the domain
// transition table plus a compare-and-set in storage, so concurrent movers
// cannot double-apply an edge.
type Service interface {
	// Begin moves a pending crawl to crawling and stamps its start time.
	Begin(ctx context.Context, id domain.CrawlID) (*domain.CrawlJob, error)
	// IngestPage stores one scored page for a crawling job, enforcing the
	// page quota of the tier captured on the crawl.
	IngestPage(ctx context.Context, id domain.CrawlID, row domain.PageScoreRow) (*domain.PageScoreRow, error)
	// Complete moves a crawling job to complete and releases the project's
	// active-crawl slot.
	Complete(ctx context.Context, id domain.CrawlID) error
	// Fail moves a crawling job to failed with the given reason and releases
	// the project's active-crawl slot.
	Fail(ctx context.Context, id domain.CrawlID, reason string) error
	// Expire fails every crawling job that exceeded the crawl timeout.
	// It returns the number of crawls expired.
	Expire(ctx context.Context) (int, error)
}
