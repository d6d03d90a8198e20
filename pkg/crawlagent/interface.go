// Package crawlagent defines the interface used to hand crawl work to the
// external crawling agent. The agent fetches and scores pages on its own
// schedule and reports results back through the ingestion API.
package crawlagent

import (
	"context"

	"sitescope/pkg/domain"
)

// CrawlRequest describes one crawl handed to the agent. The agent echoes the
// crawl ID back on every ingestion call so results can be matched to the job.
type CrawlRequest struct {
	// CrawlID identifies the crawl being requested.
	CrawlID domain.CrawlID
	// ProjectID identifies the project the crawl belongs to.
	ProjectID domain.ProjectID
	// Domain is the site to crawl, e.g. "example.com".
	Domain string
	// MaxPages caps how many pages the agent should visit, taken from the
	// tier snapshot on the crawl.
	MaxPages int
}

// AcceptRes represents the agent's acknowledgement of a crawl request.
type AcceptRes struct {
	// AgentRunID is the agent's own identifier for the run.
	AgentRunID string
}

// Agent is the abstraction for crawl execution backends.
type Agent interface {
	// RequestCrawl asks the agent to start crawling. It fails with
	// serrors.ErrRateLimited when the agent is at capacity; the caller is
	// expected to retry later.
	RequestCrawl(ctx context.Context, req CrawlRequest) (AcceptRes, error)
	// CancelCrawl tells the agent to stop a previously requested crawl. It
	// fails with serrors.ErrNotFound when the agent no longer knows the run.
	CancelCrawl(ctx context.Context, crawlID domain.CrawlID) error
}
