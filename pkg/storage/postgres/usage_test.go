package postgres_test

import (
	"context"
	"testing"

	"sitescope/pkg/domain"
	"sitescope/pkg/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPgSQL_Usage(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	ownerID := domain.UserID(uuid.New())
	const period = "2026-08"

	t.Run("absent row reads as zero", func(t *testing.T) {
		usage, err := pgSQL.Usage(ctx, ownerID, period)
		require.NoError(t, err)
		require.Equal(t, storage.Usage{}, usage)
	})

	t.Run("increments accumulate", func(t *testing.T) {
		require.NoError(t, pgSQL.AddUsage(ctx, ownerID, period, storage.UsageDelta{VisibilityChecks: 2}))
		require.NoError(t, pgSQL.AddUsage(ctx, ownerID, period, storage.UsageDelta{VisibilityChecks: 1, Reports: 1}))

		usage, err := pgSQL.Usage(ctx, ownerID, period)
		require.NoError(t, err)
		require.Equal(t, storage.Usage{VisibilityChecks: 3, Reports: 1}, usage)
	})

	t.Run("periods are independent", func(t *testing.T) {
		usage, err := pgSQL.Usage(ctx, ownerID, "2026-09")
		require.NoError(t, err)
		require.Equal(t, storage.Usage{}, usage)
	})
}

func TestPgSQL_CrawlCredits(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	ownerID := domain.UserID(uuid.New())

	credits, err := pgSQL.CrawlCredits(ctx, ownerID)
	require.NoError(t, err)
	require.Zero(t, credits)

	require.NoError(t, pgSQL.AddCrawlCredits(ctx, ownerID, 5))
	require.NoError(t, pgSQL.AddCrawlCredits(ctx, ownerID, -2))

	credits, err = pgSQL.CrawlCredits(ctx, ownerID)
	require.NoError(t, err)
	require.Equal(t, 3, credits)
}
