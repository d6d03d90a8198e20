package project

import (
	"context"

	"sitescope/pkg/domain"
)

// Report is the deliverable of the report operation: an aggregate over the
// project's scored pages, stamped with the type that was requested.
type Report struct {
	// Type is the report type that was generated.
	Type domain.ReportType `json:"type"`
	// Summary is the aggregated score summary.
	Summary domain.ScoreSummary `json:"summary"`
}

// VisibilityRun records the outcome of a visibility check request: how many
// checks were accepted and how much of the period budget remains.
type VisibilityRun struct {
	// Queries are the accepted check queries.
	Queries []string `json:"queries"`
	// UsedThisPeriod is the owner's total check count after this run.
	UsedThisPeriod int `json:"usedThisPeriod"`
	// RemainingThisPeriod is the budget left for the period.
	RemainingThisPeriod int `json:"remainingThisPeriod"`
}

// Service exposes the project-facing operations. Every call takes the caller's
// user ID and raw tier (both straight from the access token); ownership and
// plan entitlements are enforced here, not in the handlers.
type Service interface {
	Create(ctx context.Context, ownerID domain.UserID, rawTier, domainName string) (*domain.Project, error)
	Project(ctx context.Context, userID domain.UserID, id domain.ProjectID) (*domain.Project, error)
	UserProjects(ctx context.Context,
		userID domain.UserID,
		cursor string,
		limit uint) ([]domain.Project, string, error)
	Delete(ctx context.Context, userID domain.UserID, id domain.ProjectID) error
	StartCrawl(ctx context.Context,
		userID domain.UserID,
		rawTier string,
		id domain.ProjectID) (*domain.CrawlJob, error)
	Report(ctx context.Context,
		userID domain.UserID,
		rawTier string,
		id domain.ProjectID,
		reportType domain.ReportType) (*Report, error)
	RunVisibilityChecks(ctx context.Context,
		userID domain.UserID,
		rawTier string,
		id domain.ProjectID,
		queries []string) (*VisibilityRun, error)
}
