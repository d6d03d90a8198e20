package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sitescope/internal/config"
	"sitescope/internal/crawl"
	"sitescope/pkg/crawlagent"
	"sitescope/pkg/logger"
	"sitescope/pkg/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap/exp/zapslog"
)

// Options configure the background worker pool.
type Options struct {
	// MaxWorkers caps concurrent jobs in the default queue.
	MaxWorkers int
	// ExpireSweepInterval is how often the crawl expiry sweep runs.
	ExpireSweepInterval time.Duration
	// SnoozeFor is how long a crawl job sleeps when the agent is at capacity.
	SnoozeFor time.Duration
}

// NewOptions constructs Options from the application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxWorkers:          cfg.Crawler.MaxWorkers,
		ExpireSweepInterval: cfg.Crawler.ExpireSweepInterval,
		SnoozeFor:           cfg.Crawler.AgentBackoff,
	}
}

// Start wires the crawl and expiry workers into a River client, registers the
// periodic expiry sweep and starts processing jobs. The returned client keeps
// running until Stop is called on it.
func Start(ctx context.Context,
	dbPool *pgxpool.Pool,
	store storage.Storage,
	crawls crawl.Service,
	agent crawlagent.Agent,
	options Options,
) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewCrawlWorker(store, crawls, agent, options.SnoozeFor))
	river.AddWorker(workers, NewExpireWorker(crawls))

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: options.MaxWorkers},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(options.ExpireSweepInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return ExpireCrawlsArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
		Logger: slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
