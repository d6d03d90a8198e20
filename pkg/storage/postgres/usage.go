package postgres

import (
	"context"
	"fmt"

	"sitescope/pkg/domain"
	"sitescope/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	usageCountersTable = "usage_counters"
	accountsTable      = "accounts"
)

type pgUsage struct {
	OwnerID          uuid.UUID `db:"owner_id"`
	Period           string    `db:"period"`
	VisibilityChecks int       `db:"visibility_checks"`
	Reports          int       `db:"reports"`
}

// Usage returns the owner's counters for the period; absent rows read as
// zero usage.
func (p *PgSQL) Usage(ctx context.Context, ownerID domain.UserID, period string) (storage.Usage, error) {
	var row pgUsage
	found, err := p.Builder.From(usageCountersTable).
		Where(
			goqu.I("owner_id").Eq(uuid.UUID(ownerID)),
			goqu.I("period").Eq(period),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return storage.Usage{}, fmt.Errorf("could not fetch usage from pg: %w", err)
	}
	if !found {
		return storage.Usage{}, nil
	}

	return storage.Usage{
		VisibilityChecks: row.VisibilityChecks,
		Reports:          row.Reports,
	}, nil
}

// AddUsage upserts the counter row, incrementing both counters by the delta.
func (p *PgSQL) AddUsage(ctx context.Context, ownerID domain.UserID, period string, delta storage.UsageDelta) error {
	_, err := p.Builder.Insert(usageCountersTable).
		Rows(pgUsage{
			OwnerID:          uuid.UUID(ownerID),
			Period:           period,
			VisibilityChecks: delta.VisibilityChecks,
			Reports:          delta.Reports,
		}).
		OnConflict(goqu.DoUpdate("owner_id, period", goqu.Record{
			"visibility_checks": goqu.L("usage_counters.visibility_checks + ?", delta.VisibilityChecks),
			"reports":           goqu.L("usage_counters.reports + ?", delta.Reports),
			"updated_at":        goqu.L("CURRENT_TIMESTAMP"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not add usage in pg: %w", err)
	}

	return nil
}

type pgAccount struct {
	OwnerID      uuid.UUID `db:"owner_id"`
	CrawlCredits int       `db:"crawl_credits"`
}

// CrawlCredits returns the owner's remaining crawl credits; unknown owners
// have none.
func (p *PgSQL) CrawlCredits(ctx context.Context, ownerID domain.UserID) (int, error) {
	var row pgAccount
	found, err := p.Builder.From(accountsTable).
		Where(goqu.I("owner_id").Eq(uuid.UUID(ownerID))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return 0, fmt.Errorf("could not fetch account from pg: %w", err)
	}
	if !found {
		return 0, nil
	}

	return row.CrawlCredits, nil
}

// AddCrawlCredits upserts the account row, adjusting the balance by delta.
func (p *PgSQL) AddCrawlCredits(ctx context.Context, ownerID domain.UserID, delta int) error {
	_, err := p.Builder.Insert(accountsTable).
		Rows(pgAccount{
			OwnerID:      uuid.UUID(ownerID),
			CrawlCredits: delta,
		}).
		OnConflict(goqu.DoUpdate("owner_id", goqu.Record{
			"crawl_credits": goqu.L("accounts.crawl_credits + ?", delta),
			"updated_at":    goqu.L("CURRENT_TIMESTAMP"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not add crawl credits in pg: %w", err)
	}

	return nil
}
