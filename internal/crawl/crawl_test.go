package crawl_test

import (
	"context"
	"testing"
	"time"

	"sitescope/internal/clock"
	"sitescope/internal/crawl"
	"sitescope/pkg/domain"
	"sitescope/pkg/serrors"
	"sitescope/pkg/storage/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*memory.Store, crawl.Service) {
	t.Helper()

	st := memory.New()
	svc := crawl.New(st, clock.Fixed{Instant: testNow}, crawl.Options{Timeout: time.Hour})

	return st, svc
}

func storeCrawl(t *testing.T, st *memory.Store, status domain.CrawlStatus, startedAt *time.Time) domain.CrawlJob {
	t.Helper()

	proj, err := st.StoreProject(context.Background(), domain.Project{
		OwnerID: domain.UserID(uuid.New()),
		Domain:  "example.com",
	})
	require.NoError(t, err)

	stored, err := st.StoreCrawl(context.Background(), domain.CrawlJob{
		ProjectID: proj.ID,
		Tier:      domain.TierFree,
		Status:    status,
		StartedAt: startedAt,
	})
	require.NoError(t, err)
	require.NoError(t, st.SetActiveCrawl(context.Background(), proj.ID, &stored.ID))

	return *stored
}

func TestService_Begin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("pending crawl starts", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusPending, nil)

		started, err := svc.Begin(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CrawlStatusCrawling, started.Status)
		require.NotNil(t, started.StartedAt)
		require.True(t, started.StartedAt.Equal(testNow))
	})

	t.Run("already crawling fails the transition", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &testNow)

		_, err := svc.Begin(ctx, job.ID)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown crawl", func(t *testing.T) {
		_, svc := newTestService(t)

		_, err := svc.Begin(ctx, domain.CrawlID(uuid.New()))
		require.ErrorIs(t, err, serrors.ErrNotFound)
	})
}

func TestService_IngestPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	score := func(v float64) *float64 { return &v }

	t.Run("crawling job accepts pages", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &testNow)

		stored, err := svc.IngestPage(ctx, job.ID, domain.PageScoreRow{
			URL:          "https://example.com/",
			OverallScore: score(88),
		})
		require.NoError(t, err)
		require.NotEqual(t, domain.PageID(uuid.Nil), stored.PageID)

		count, err := st.PageCountByCrawl(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})

	t.Run("pending job does not ingest", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusPending, nil)

		_, err := svc.IngestPage(ctx, job.ID, domain.PageScoreRow{URL: "https://example.com/"})
		require.ErrorIs(t, err, serrors.ErrConflict)
	})

	t.Run("terminal job does not ingest", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusComplete, &testNow)

		_, err := svc.IngestPage(ctx, job.ID, domain.PageScoreRow{URL: "https://example.com/"})
		require.ErrorIs(t, err, serrors.ErrConflict)
	})

	t.Run("tier snapshot caps pages", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &testNow)

		// the free tier allows 10 pages per crawl
		for i := 0; i < 10; i++ {
			_, err := svc.IngestPage(ctx, job.ID, domain.PageScoreRow{URL: "https://example.com/"})
			require.NoError(t, err)
		}

		_, err := svc.IngestPage(ctx, job.ID, domain.PageScoreRow{URL: "https://example.com/extra"})
		require.ErrorIs(t, err, serrors.ErrQuotaExceeded)
	})
}

func TestService_CompleteAndFail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("complete releases the project", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &testNow)

		require.NoError(t, svc.Complete(ctx, job.ID))

		got, err := st.CrawlByID(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CrawlStatusComplete, got.Status)

		proj, err := st.ProjectByID(ctx, job.ProjectID)
		require.NoError(t, err)
		require.Nil(t, proj.ActiveCrawlID)
	})

	t.Run("fail records the reason", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &testNow)

		require.NoError(t, svc.Fail(ctx, job.ID, "agent unreachable"))

		got, err := st.CrawlByID(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CrawlStatusFailed, got.Status)
		require.Equal(t, "agent unreachable", got.LastError)
	})

	t.Run("terminal crawls stay terminal", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &testNow)

		require.NoError(t, svc.Complete(ctx, job.ID))
		require.ErrorIs(t, svc.Fail(ctx, job.ID, "too late"), domain.ErrInvalidTransition)
		require.ErrorIs(t, svc.Complete(ctx, job.ID), domain.ErrInvalidTransition)
	})

	t.Run("pending crawl cannot complete directly", func(t *testing.T) {
		st, svc := newTestService(t)
		job := storeCrawl(t, st, domain.CrawlStatusPending, nil)

		require.ErrorIs(t, svc.Complete(ctx, job.ID), domain.ErrInvalidTransition)
	})
}

func TestService_Expire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stale crawls are failed", func(t *testing.T) {
		st, svc := newTestService(t)
		staleStart := testNow.Add(-2 * time.Hour)
		freshStart := testNow.Add(-time.Minute)
		stale := storeCrawl(t, st, domain.CrawlStatusCrawling, &staleStart)
		fresh := storeCrawl(t, st, domain.CrawlStatusCrawling, &freshStart)

		expired, err := svc.Expire(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, expired)

		got, err := st.CrawlByID(ctx, stale.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CrawlStatusFailed, got.Status)
		require.Equal(t, "crawl timed out", got.LastError)

		proj, err := st.ProjectByID(ctx, stale.ProjectID)
		require.NoError(t, err)
		require.Nil(t, proj.ActiveCrawlID)

		got, err = st.CrawlByID(ctx, fresh.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CrawlStatusCrawling, got.Status)
	})

	t.Run("boundary crawl survives", func(t *testing.T) {
		st, svc := newTestService(t)
		// started exactly one timeout ago: not expired, the comparison is strict
		boundaryStart := testNow.Add(-time.Hour)
		job := storeCrawl(t, st, domain.CrawlStatusCrawling, &boundaryStart)

		expired, err := svc.Expire(ctx)
		require.NoError(t, err)
		require.Zero(t, expired)

		got, err := st.CrawlByID(ctx, job.ID)
		require.NoError(t, err)
		require.Equal(t, domain.CrawlStatusCrawling, got.Status)
	})

	t.Run("nothing to expire", func(t *testing.T) {
		_, svc := newTestService(t)

		expired, err := svc.Expire(ctx)
		require.NoError(t, err)
		require.Zero(t, expired)
	})
}
