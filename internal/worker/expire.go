package worker

import (
	"context"
	"fmt"

	"sitescope/internal/crawl"
	"sitescope/pkg/logger"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

// ExpireCrawlsArgs is the payload of the periodic crawl expiry sweep. It
// carries no data; uniqueness keeps overlapping sweeps from piling up when a
// run takes longer than the interval.
type ExpireCrawlsArgs struct{}

// Kind returns the River job kind used to register and dispatch the expiry worker.
func (ExpireCrawlsArgs) Kind() string { return "ExpireCrawlsJob" }

// InsertOpts keeps at most one sweep queued or running at a time.
func (ExpireCrawlsArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// ExpireWorker is a River worker that fails crawls stuck in the crawling
// status past the configured timeout.
type ExpireWorker struct {
	river.WorkerDefaults[ExpireCrawlsArgs]

	crawls crawl.Service
}

// NewExpireWorker constructs an ExpireWorker.
func NewExpireWorker(crawls crawl.Service) *ExpireWorker {
	return &ExpireWorker{crawls: crawls}
}

// Work runs one expiry sweep.
func (w *ExpireWorker) Work(ctx context.Context, job *river.Job[ExpireCrawlsArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID))

	expired, err := w.crawls.Expire(ctx)
	if err != nil {
		logger.Error(ctx, "error expiring crawls", zap.Error(err))

		return fmt.Errorf("could not expire crawls: %w", err)
	}

	if expired > 0 {
		logger.Info(ctx, "expired stale crawls", zap.Int("count", expired))
	}

	return nil
}
