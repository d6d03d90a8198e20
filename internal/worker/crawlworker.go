package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sitescope/internal/crawl"
	"sitescope/internal/project"
	"sitescope/pkg/crawlagent"
	"sitescope/pkg/domain"
	"sitescope/pkg/logger"
	"sitescope/pkg/serrors"
	"sitescope/pkg/storage"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// CrawlWorker is a River worker that hands crawls to the external crawl
// agent. The ordering matters: the agent is asked first and the crawl only
// transitions to crawling once the agent has accepted, so a capacity snooze
// retries against a crawl that is still pending. If the transition then loses
// to a concurrent worker, the agent run is cancelled best effort and the job
// is discarded.
type CrawlWorker struct {
	river.WorkerDefaults[project.CrawlJobArgs]

	// storage resolves the crawl's project for the agent request.
	storage storage.Storage
	// crawls drives the status transition once the agent accepts.
	crawls crawl.Service
	// agent executes the crawl and reports results through the ingestion API.
	agent crawlagent.Agent
	// snoozeFor is the retry delay used when the agent is at capacity.
	snoozeFor time.Duration
}

// NewCrawlWorker constructs a CrawlWorker.
func NewCrawlWorker(store storage.Storage,
	crawls crawl.Service,
	agent crawlagent.Agent,
	snoozeFor time.Duration,
) *CrawlWorker {
	return &CrawlWorker{
		storage:   store,
		crawls:    crawls,
		agent:     agent,
		snoozeFor: snoozeFor,
	}
}

// Work executes a single crawl job: resolve the crawl and its project, ask
// the agent to run it, then mark the crawl as crawling.
func (w *CrawlWorker) Work(ctx context.Context, job *river.Job[project.CrawlJobArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.String("crawlId", job.Args.CrawlID))

	rawID, err := uuid.Parse(job.Args.CrawlID)
	if err != nil {
		return river.JobCancel(fmt.Errorf("malformed crawl id: %w", err)) //nolint: wrapcheck
	}
	crawlID := domain.CrawlID(rawID)

	crawlJob, err := w.storage.CrawlByID(ctx, crawlID)
	if err != nil {
		return fmt.Errorf("could not get crawl: %w", err)
	}
	if crawlJob == nil {
		return river.JobCancel(errors.New("crawl no longer exists")) //nolint: wrapcheck
	}
	if crawlJob.Status != domain.CrawlStatusPending {
		// Another worker already started it, or it reached a terminal state.
		return river.JobCancel(fmt.Errorf("crawl is %s, nothing to do", crawlJob.Status)) //nolint: wrapcheck
	}

	proj, err := w.storage.ProjectByID(ctx, crawlJob.ProjectID)
	if err != nil {
		return fmt.Errorf("could not get project: %w", err)
	}
	if proj == nil {
		return river.JobCancel(errors.New("project was deleted")) //nolint: wrapcheck
	}

	plan, err := domain.PlanFor(string(crawlJob.Tier))
	if err != nil {
		return river.JobCancel(err) //nolint: wrapcheck
	}

	if _, err := w.agent.RequestCrawl(ctx, crawlagent.CrawlRequest{
		CrawlID:   crawlID,
		ProjectID: proj.ID,
		Domain:    proj.Domain,
		MaxPages:  plan.MaxPagesPerCrawl(),
	}); err != nil {
		if errors.Is(err, serrors.ErrRateLimited) {
			logger.Info(ctx, "crawl agent at capacity, snoozing", zap.Duration("for", w.snoozeFor))

			return river.JobSnooze(w.snoozeFor) //nolint: wrapcheck
		}

		logger.Error(ctx, "error requesting crawl from agent", zap.Error(err))

		return fmt.Errorf("could not request crawl: %w", err)
	}

	if _, err := w.crawls.Begin(ctx, crawlID); err != nil {
		if errors.Is(err, serrors.ErrConflict) || errors.Is(err, domain.ErrInvalidTransition) {
			// lost the race after the agent accepted; stop the duplicate run
			if cancelErr := w.agent.CancelCrawl(ctx, crawlID); cancelErr != nil {
				logger.Warn(ctx, "could not cancel duplicate agent run", zap.Error(cancelErr))
			}

			return river.JobCancel(err) //nolint: wrapcheck
		}

		return fmt.Errorf("could not begin crawl: %w", err)
	}

	logger.Info(ctx, "crawl handed to agent")

	return nil
}
