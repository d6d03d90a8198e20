package project

import (
	"context"
	"fmt"
	"time"

	"sitescope/internal/clock"
	"sitescope/internal/config"
	"sitescope/pkg/domain"
	"sitescope/pkg/metrics"
	"sitescope/pkg/serrors"
	"sitescope/pkg/storage"

	"github.com/google/uuid"
)

// Options configure how crawl jobs are enqueued.
// These settings are typically derived from application configuration.
type Options struct {
	// MaxAttempts is the maximum number of attempts the background worker should
	// make when executing a crawl job before giving up.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxAttempts: cfg.Crawler.MaxAttempts,
	}
}

// service is the concrete implementation of the Service interface.
// It coordinates persistence with the storage layer, plan entitlement checks
// and job enqueueing.
type service struct {
	// options holds runtime configuration that affects enqueueing.
	options Options
	// storage is the persistence layer used to store projects and manage jobs.
	storage storage.Storage
	// clock supplies the current time for usage period derivation.
	clock clock.Clock
}

// usagePeriod derives the billing period key counters are bucketed under.
func usagePeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// Create registers a new project for the owner after checking the plan's
// project limit inside the same transaction as the insert, so two concurrent
// creates cannot both squeeze past the limit.
func (s service) Create(ctx context.Context,
	ownerID domain.UserID, rawTier, domainName string,
) (*domain.Project, error) {
	plan, err := domain.PlanFor(rawTier)
	if err != nil {
		return nil, err
	}

	domainName, err = NormalizeDomain(domainName)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid domain")
	}

	var created *domain.Project
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		count, err := tx.ProjectCountByOwner(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("could not count projects: %w", err)
		}
		if !plan.CanCreateProject(int(count)) {
			metrics.EntitlementDenied("create_project", rawTier)

			return serrors.With(serrors.ErrQuotaExceeded,
				"plan %s allows at most %d projects", plan.Tier(), plan.MaxProjects())
		}

		created, err = tx.StoreProject(ctx, domain.Project{
			OwnerID: ownerID,
			Domain:  domainName,
		})
		if err != nil {
			return fmt.Errorf("could not store project: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not create project: %w", err)
	}

	return created, nil
}

// Project fetches a single project by ID for the given user. A project owned
// by someone else reads as forbidden, not as missing, so clients can tell the
// two apart.
func (s service) Project(ctx context.Context, userID domain.UserID, id domain.ProjectID) (*domain.Project, error) {
	res, err := s.storage.ProjectByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get project: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "project not found")
	}
	if !res.IsOwnedBy(userID) {
		return nil, serrors.With(serrors.ErrForbidden, "project belongs to another user")
	}

	return res, nil
}

// UserProjects returns a page of projects for the given user. It supports
// cursor-based pagination using an RFC3339 timestamp string and returns the
// next cursor when more results are available.
func (s service) UserProjects(ctx context.Context,
	userID domain.UserID,
	cursor string,
	limit uint,
) ([]domain.Project, string, error) {
	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339, cursor)
		if err != nil {
			return nil, "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
		}
		cursorTime = t
	}

	page, err := s.storage.UserProjects(ctx, userID, cursorTime, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not get user projects: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.Format(time.RFC3339)
	}

	return page.Projects, next, nil
}

// Delete soft-deletes a project belonging to the given user. An active crawl
// is left to the expiry sweep; the agent's results for a deleted project are
// simply never read again.
func (s service) Delete(ctx context.Context, userID domain.UserID, id domain.ProjectID) error {
	if _, err := s.Project(ctx, userID, id); err != nil {
		return err
	}

	res, err := s.storage.DeleteProject(ctx, id)
	if err != nil {
		return fmt.Errorf("could not delete project: %w", err)
	}
	if res == nil {
		return serrors.With(serrors.ErrNotFound, "project not found")
	}

	return nil
}

// StartCrawl creates a pending crawl for the project and enqueues the job
// that hands it to the crawl agent. The eligibility check, the crawl insert,
// the active-crawl pointer, the credit debit and the job insert all share one
// transaction, so a failure at any step leaves no trace.
func (s service) StartCrawl(ctx context.Context,
	userID domain.UserID,
	rawTier string,
	id domain.ProjectID,
) (*domain.CrawlJob, error) {
	plan, err := domain.PlanFor(rawTier)
	if err != nil {
		return nil, err
	}

	var crawl *domain.CrawlJob
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		proj, err := tx.ProjectByID(ctx, id)
		if err != nil {
			return fmt.Errorf("could not get project: %w", err)
		}
		if proj == nil {
			return serrors.With(serrors.ErrNotFound, "project not found")
		}
		if !proj.IsOwnedBy(userID) {
			return serrors.With(serrors.ErrForbidden, "project belongs to another user")
		}

		credits, err := tx.CrawlCredits(ctx, userID)
		if err != nil {
			return fmt.Errorf("could not get crawl credits: %w", err)
		}
		if !proj.CanStartCrawl(credits) {
			if proj.ActiveCrawlID != nil {
				return serrors.With(serrors.ErrConflict, "a crawl is already active for this project")
			}
			metrics.EntitlementDenied("start_crawl", rawTier)

			return serrors.With(serrors.ErrQuotaExceeded, "no crawl credits left")
		}

		crawl, err = tx.StoreCrawl(ctx, domain.CrawlJob{
			ProjectID: proj.ID,
			Tier:      plan.Tier(),
			Status:    domain.CrawlStatusPending,
		})
		if err != nil {
			return fmt.Errorf("could not store crawl: %w", err)
		}

		if err := tx.SetActiveCrawl(ctx, proj.ID, &crawl.ID); err != nil {
			return fmt.Errorf("could not set active crawl: %w", err)
		}
		if err := tx.AddCrawlCredits(ctx, userID, -1); err != nil {
			return fmt.Errorf("could not debit crawl credit: %w", err)
		}

		if _, err := tx.AddJob(ctx, CrawlJobArgs{
			CrawlID:     uuid.UUID(crawl.ID).String(),
			maxAttempts: s.options.MaxAttempts,
		}, nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not start crawl: %w", err)
	}

	return crawl, nil
}

// Report aggregates the project's scored pages into a score summary, gated by
// the plan's report-type allowance and monthly count. Generating a report
// consumes one unit of the monthly budget.
func (s service) Report(ctx context.Context,
	userID domain.UserID,
	rawTier string,
	id domain.ProjectID,
	reportType domain.ReportType,
) (*Report, error) {
	plan, err := domain.PlanFor(rawTier)
	if err != nil {
		return nil, err
	}

	if _, err := s.Project(ctx, userID, id); err != nil {
		return nil, err
	}

	period := usagePeriod(s.clock.Now())

	var report *Report
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		usage, err := tx.Usage(ctx, userID, period)
		if err != nil {
			return fmt.Errorf("could not get usage: %w", err)
		}
		if !plan.CanGenerateReport(usage.Reports, reportType) {
			metrics.EntitlementDenied("generate_report", rawTier)

			return serrors.With(serrors.ErrQuotaExceeded,
				"plan %s does not allow another %s report this month", plan.Tier(), reportType)
		}

		rows, err := tx.PageScoresByProject(ctx, id)
		if err != nil {
			return fmt.Errorf("could not get page scores: %w", err)
		}

		if err := tx.AddUsage(ctx, userID, period, storage.UsageDelta{Reports: 1}); err != nil {
			return fmt.Errorf("could not record report usage: %w", err)
		}

		report = &Report{
			Type:    reportType,
			Summary: domain.AggregatePageScores(rows),
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not generate report: %w", err)
	}

	return report, nil
}

// RunVisibilityChecks meters a batch of visibility check queries against the
// plan's period budget. The batch is all-or-nothing: if it does not fit in
// the remaining budget, nothing is recorded.
func (s service) RunVisibilityChecks(ctx context.Context,
	userID domain.UserID,
	rawTier string,
	id domain.ProjectID,
	queries []string,
) (*VisibilityRun, error) {
	plan, err := domain.PlanFor(rawTier)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "no queries given")
	}

	if _, err := s.Project(ctx, userID, id); err != nil {
		return nil, err
	}

	period := usagePeriod(s.clock.Now())
	limit := plan.Limits().MaxVisibilityChecksPerPeriod

	var run *VisibilityRun
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		usage, err := tx.Usage(ctx, userID, period)
		if err != nil {
			return fmt.Errorf("could not get usage: %w", err)
		}
		if !plan.CanRunVisibilityChecks(len(queries), usage.VisibilityChecks) {
			metrics.EntitlementDenied("visibility_checks", rawTier)

			return serrors.With(serrors.ErrQuotaExceeded,
				"%d checks requested but only %d of %d left this period",
				len(queries), limit-usage.VisibilityChecks, limit)
		}

		if err := tx.AddUsage(ctx, userID, period,
			storage.UsageDelta{VisibilityChecks: len(queries)}); err != nil {
			return fmt.Errorf("could not record check usage: %w", err)
		}

		used := usage.VisibilityChecks + len(queries)
		run = &VisibilityRun{
			Queries:             queries,
			UsedThisPeriod:      used,
			RemainingThisPeriod: limit - used,
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not run visibility checks: %w", err)
	}

	return run, nil
}

// New creates a new Service instance backed by the provided storage and
// configured with the given options.
func New(storage storage.Storage, clk clock.Clock, options Options) Service {
	return &service{
		options: options,
		storage: storage,
		clock:   clk,
	}
}
