package project

import (
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// CrawlJobArgs contains the arguments for a crawl job submitted to River.
// The crawl ID is the unique key so a project crawl is only ever enqueued
// once, no matter how many times the insert is retried.
type CrawlJobArgs struct {
	// CrawlID is the crawl to execute. It is marked as unique so River can
	// enforce one job per crawl according to InsertOpts.UniqueOpts.
	CrawlID string `json:"crawlId" river:"unique"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the crawl worker.
func (args CrawlJobArgs) Kind() string { return "ProjectCrawlJob" }

// InsertOpts returns the River options that control how the job is enqueued,
// including the maximum retry attempts and uniqueness constraints to prevent
// duplicate jobs for the same crawl across multiple job states.
func (args CrawlJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		// make sure we only have one job per crawl in any state
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStateCompleted,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
