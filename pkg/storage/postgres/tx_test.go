package postgres_test

import (
	"context"
	"errors"
	"testing"

	"sitescope/pkg/domain"
	"sitescope/pkg/storage"
	"sitescope/pkg/storage/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPgSQL_Begin(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()

	t.Run("commit persists writes", func(t *testing.T) {
		tx, err := pgSQL.Begin(ctx)
		require.NoError(t, err)

		stored, err := tx.StoreProject(ctx, domain.Project{
			OwnerID: domain.UserID(uuid.New()),
			Domain:  "committed.example.com",
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())

		got, err := pgSQL.ProjectByID(ctx, stored.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := pgSQL.Begin(ctx)
		require.NoError(t, err)

		stored, err := tx.StoreProject(ctx, domain.Project{
			OwnerID: domain.UserID(uuid.New()),
			Domain:  "discarded.example.com",
		})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		got, err := pgSQL.ProjectByID(ctx, stored.ID)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("nested begin fails", func(t *testing.T) {
		tx, err := pgSQL.Begin(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = tx.Rollback() })

		_, err = tx.(*postgres.PgSQL).Begin(ctx)
		require.ErrorIs(t, err, storage.ErrAlreadyInTx)
	})

	t.Run("commit outside tx fails", func(t *testing.T) {
		require.ErrorIs(t, pgSQL.Commit(), storage.ErrNotInTx)
		require.ErrorIs(t, pgSQL.Rollback(), storage.ErrNotInTx)
	})
}

func TestPgSQL_WithTx(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	ctx := context.Background()

	t.Run("callback error rolls back", func(t *testing.T) {
		ownerID := domain.UserID(uuid.New())
		sentinel := errors.New("boom")

		err := pgSQL.WithTx(ctx, func(s storage.AllStorage) error {
			_, err := s.StoreProject(ctx, domain.Project{
				OwnerID: ownerID,
				Domain:  "rolled-back.example.com",
			})
			require.NoError(t, err)

			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		count, err := pgSQL.ProjectCountByOwner(ctx, ownerID)
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("nil callback result commits", func(t *testing.T) {
		ownerID := domain.UserID(uuid.New())

		err := pgSQL.WithTx(ctx, func(s storage.AllStorage) error {
			_, err := s.StoreProject(ctx, domain.Project{
				OwnerID: ownerID,
				Domain:  "kept.example.com",
			})

			return err
		})
		require.NoError(t, err)

		count, err := pgSQL.ProjectCountByOwner(ctx, ownerID)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)
	})
}
