package crawl

import (
	"context"
	"fmt"
	"time"

	"sitescope/internal/clock"
	"sitescope/internal/config"
	"sitescope/pkg/domain"
	"sitescope/pkg/logger"
	"sitescope/pkg/metrics"
	"sitescope/pkg/serrors"
	"sitescope/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// expiredReason is the failure message stamped on crawls killed by the sweep.
const expiredReason = "crawl timed out"

// Options configure the crawl lifecycle.
// These settings are typically derived from application configuration.
type Options struct {
	// Timeout is how long a crawl may stay in the crawling status before the
	// expiry sweep fails it.
	Timeout time.Duration
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Timeout: cfg.Crawler.Timeout,
	}
}

// service is the concrete implementation of the Service interface.
type service struct {
	options Options
	storage storage.Storage
	clock   clock.Clock
}

// Begin moves a pending crawl to crawling. The domain transition validates
// the edge; the compare-and-set update makes sure only one of several racing
// workers actually applies it.
func (s service) Begin(ctx context.Context, id domain.CrawlID) (*domain.CrawlJob, error) {
	job, err := s.storage.CrawlByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get crawl: %w", err)
	}
	if job == nil {
		return nil, serrors.With(serrors.ErrNotFound, "crawl not found")
	}

	started, err := job.Start(s.clock.Now())
	if err != nil {
		return nil, err
	}

	updated, err := s.storage.UpdateCrawlFromStatus(ctx, id, job.Status, storage.CrawlUpdates{
		Status:    started.Status,
		StartedAt: started.StartedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("could not update crawl: %w", err)
	}
	if updated == nil {
		metrics.CrawlTransitionLost()

		return nil, serrors.With(serrors.ErrConflict, "crawl was moved by another worker")
	}

	return updated, nil
}

// IngestPage stores one scored page for a crawling job. The page quota comes
// from the tier snapshot on the crawl, so a mid-crawl plan change does not
// affect a run already in flight.
func (s service) IngestPage(ctx context.Context,
	id domain.CrawlID, row domain.PageScoreRow,
) (*domain.PageScoreRow, error) {
	var stored *domain.PageScoreRow
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		job, err := tx.CrawlByID(ctx, id)
		if err != nil {
			return fmt.Errorf("could not get crawl: %w", err)
		}
		if job == nil {
			return serrors.With(serrors.ErrNotFound, "crawl not found")
		}
		if !job.CanIngest() {
			return serrors.With(serrors.ErrConflict, "crawl in status %s is not accepting pages", job.Status)
		}

		plan, err := domain.PlanFor(string(job.Tier))
		if err != nil {
			return err
		}
		count, err := tx.PageCountByCrawl(ctx, id)
		if err != nil {
			return fmt.Errorf("could not count pages: %w", err)
		}
		if !plan.CanAddPage(int(count)) {
			metrics.EntitlementDenied("ingest_page", string(job.Tier))

			return serrors.With(serrors.ErrQuotaExceeded,
				"crawl reached the %d page limit of tier %s", plan.MaxPagesPerCrawl(), job.Tier)
		}

		stored, err = tx.StorePageScore(ctx, id, job.ProjectID, row)
		if err != nil {
			return fmt.Errorf("could not store page score: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not ingest page: %w", err)
	}
	metrics.PageIngested()

	return stored, nil
}

// Complete moves a crawling job to complete and clears the project's
// active-crawl pointer in the same transaction.
func (s service) Complete(ctx context.Context, id domain.CrawlID) error {
	return s.finish(ctx, id, domain.CrawlStatusComplete, "")
}

// Fail moves a crawling job to failed with the given reason and clears the
// project's active-crawl pointer in the same transaction.
func (s service) Fail(ctx context.Context, id domain.CrawlID, reason string) error {
	return s.finish(ctx, id, domain.CrawlStatusFailed, reason)
}

func (s service) finish(ctx context.Context, id domain.CrawlID, target domain.CrawlStatus, reason string) error {
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		job, err := tx.CrawlByID(ctx, id)
		if err != nil {
			return fmt.Errorf("could not get crawl: %w", err)
		}
		if job == nil {
			return serrors.With(serrors.ErrNotFound, "crawl not found")
		}

		next, err := job.Transition(target)
		if err != nil {
			return err
		}

		updates := storage.CrawlUpdates{Status: next.Status}
		if reason != "" {
			updates.LastError = &reason
		}
		updated, err := tx.UpdateCrawlFromStatus(ctx, id, job.Status, updates)
		if err != nil {
			return fmt.Errorf("could not update crawl: %w", err)
		}
		if updated == nil {
			metrics.CrawlTransitionLost()

			return serrors.With(serrors.ErrConflict, "crawl was moved by another worker")
		}

		if err := tx.SetActiveCrawl(ctx, job.ProjectID, nil); err != nil {
			return fmt.Errorf("could not clear active crawl: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("could not finish crawl: %w", err)
	}
	metrics.CrawlFinished(string(target))

	return nil
}

// Expire fails every crawling job whose start time exceeds the timeout. Each
// crawl is closed independently; one failure does not stop the sweep.
func (s service) Expire(ctx context.Context) (int, error) {
	now := s.clock.Now()
	stale, err := s.storage.ActiveCrawlsStartedBefore(ctx, now.Add(-s.options.Timeout))
	if err != nil {
		return 0, fmt.Errorf("could not list stale crawls: %w", err)
	}

	var expired int
	for _, job := range stale {
		if !job.IsExpired(now, s.options.Timeout) {
			continue
		}
		if err := s.Fail(ctx, job.ID, expiredReason); err != nil {
			logger.Get(ctx).Warn("could not expire crawl",
				zap.String("crawlId", uuid.UUID(job.ID).String()),
				zap.Error(err))

			continue
		}
		metrics.CrawlExpired()
		expired++
	}

	return expired, nil
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
