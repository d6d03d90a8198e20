package domain

import (
	"time"

	"sitescope/pkg/serrors"
)

// CrawlStatus represents the lifecycle state of a crawl job.
type CrawlStatus string

const (
	// CrawlStatusPending indicates the crawl has been created but no pages
	// have been visited yet. This is the initial state of every crawl.
	CrawlStatusPending CrawlStatus = "pending"
	// CrawlStatusCrawling indicates pages are being visited and scored.
	CrawlStatusCrawling CrawlStatus = "crawling"
	// CrawlStatusComplete indicates the crawl finished successfully. Terminal.
	CrawlStatusComplete CrawlStatus = "complete"
	// CrawlStatusFailed indicates the crawl ended with an error or expired.
	// Terminal.
	CrawlStatusFailed CrawlStatus = "failed"
)

// crawlTransitions is the allowed-edge table of the crawl state machine.
// Terminal states have no outgoing edges, and there are no self-loops even
// between active states: re-entrant work is modeled as a separate operation,
// never as a transition.
var crawlTransitions = map[CrawlStatus][]CrawlStatus{
	CrawlStatusPending:  {CrawlStatusCrawling},
	CrawlStatusCrawling: {CrawlStatusComplete, CrawlStatusFailed},
	CrawlStatusComplete: {},
	CrawlStatusFailed:   {},
}

// ParseCrawlStatus validates a raw status string coming from storage or the
// wire. Malformed strings are a boundary fault, not a domain-rule violation.
func ParseCrawlStatus(raw string) (CrawlStatus, error) {
	s := CrawlStatus(raw)
	if _, ok := crawlTransitions[s]; !ok {
		return "", serrors.With(serrors.ErrBadRequest, "unknown crawl status %q", raw)
	}

	return s, nil
}

// IsActive reports whether the status is non-terminal (pending or crawling).
func (s CrawlStatus) IsActive() bool {
	return s == CrawlStatusPending || s == CrawlStatusCrawling
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s CrawlStatus) IsTerminal() bool {
	return s == CrawlStatusComplete || s == CrawlStatusFailed
}

// CanTransitionTo reports whether the edge s -> target exists in the table.
func (s CrawlStatus) CanTransitionTo(target CrawlStatus) bool {
	for _, allowed := range crawlTransitions[s] {
		if allowed == target {
			return true
		}
	}

	return false
}

// CrawlJob is an immutable value representing one crawl of a project's pages.
// Transitions return a new CrawlJob rather than mutating the receiver; the
// caller persists the new value. The same value can therefore be held by any
// number of goroutines without coordination.
type CrawlJob struct {
	// ID is the unique identifier of the crawl.
	ID CrawlID
	// ProjectID identifies the project this crawl belongs to.
	ProjectID ProjectID
	// Tier is the owner's tier captured when the crawl was created. Page
	// ingestion is limited against this snapshot rather than live billing
	// state so a mid-crawl downgrade cannot strand the job.
	Tier Tier
	// Status is the current lifecycle state.
	Status CrawlStatus
	// StartedAt is set when the crawl leaves pending. Nil until then.
	StartedAt *time.Time
	// LastError stores the most recent failure message, if any.
	LastError string
}

// Transition returns a copy of the job in the requested status. If the edge
// from the current status does not exist, it fails with ErrInvalidTransition
// naming both states.
func (j CrawlJob) Transition(requested CrawlStatus) (CrawlJob, error) {
	if !j.Status.CanTransitionTo(requested) {
		return CrawlJob{}, serrors.With(ErrInvalidTransition,
			"illegal crawl transition %s -> %s", j.Status, requested)
	}

	next := j
	next.Status = requested

	return next, nil
}

// Start transitions the job from pending to crawling and stamps StartedAt
// with the supplied time. The clock is passed in so the rule stays pure.
func (j CrawlJob) Start(now time.Time) (CrawlJob, error) {
	next, err := j.Transition(CrawlStatusCrawling)
	if err != nil {
		return CrawlJob{}, err
	}
	next.StartedAt = &now

	return next, nil
}

// CanIngest reports whether the job may accept scored pages right now. Only a
// crawl that is actually crawling ingests; pending jobs have not started and
// terminal jobs are closed.
func (j CrawlJob) CanIngest() bool {
	return j.Status == CrawlStatusCrawling
}

// IsExpired reports whether the job has been running longer than the timeout
// as of the supplied instant. A job that never started cannot expire. The
// comparison is strict: a job at exactly the timeout boundary is not expired.
func (j CrawlJob) IsExpired(now time.Time, timeout time.Duration) bool {
	if j.StartedAt == nil {
		return false
	}

	return now.Sub(*j.StartedAt) > timeout
}
