package postgres

import (
	"context"
	"fmt"
	"time"

	"sitescope/pkg/domain"
	"sitescope/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const crawlsTable = "crawls"

func (p *PgSQL) StoreCrawl(ctx context.Context, crawl domain.CrawlJob) (*domain.CrawlJob, error) {
	var pgCrawl PgCrawl
	pgCrawl.FromDomain(crawl)

	var row PgCrawl
	found, err := p.Builder.Insert(crawlsTable).
		Rows(pgCrawl).
		Returning(&PgCrawl{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not store crawl into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("insert into %s returned no row", crawlsTable)
	}

	return row.ToDomain(), nil
}

func (p *PgSQL) CrawlByID(ctx context.Context, id domain.CrawlID) (*domain.CrawlJob, error) {
	var row PgCrawl
	found, err := p.Builder.From(crawlsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch crawl by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// UpdateCrawlFromStatus applies updates only while the row is still in the
// from status. The WHERE guard makes concurrent workers racing on the same
// transition lose cleanly: the loser sees nil and gives up.
func (p *PgSQL) UpdateCrawlFromStatus(ctx context.Context,
	id domain.CrawlID,
	from domain.CrawlStatus,
	updates storage.CrawlUpdates) (*domain.CrawlJob, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		"status":     string(updates.Status),
	}
	if updates.StartedAt != nil {
		rec["started_at"] = *updates.StartedAt
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			// set to NULL when empty string provided
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}

	var row PgCrawl
	found, err := p.Builder.Update(crawlsTable).
		Set(rec).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("status").Eq(string(from)),
	).Returning(&PgCrawl{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update crawl in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// ActiveCrawlsStartedBefore lists crawling rows whose started_at precedes the
// cutoff, oldest first, for the expiry sweep.
func (p *PgSQL) ActiveCrawlsStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.CrawlJob, error) {
	var rows []PgCrawl
	err := p.Builder.From(crawlsTable).
		Where(
			goqu.I("status").Eq(string(domain.CrawlStatusCrawling)),
			goqu.I("started_at").IsNotNull(),
			goqu.I("started_at").Lt(cutoff),
		).
		Order(goqu.I("started_at").Asc()).
		Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not fetch active crawls from pg: %w", err)
	}

	return pgCrawlsToDomain(rows), nil
}
