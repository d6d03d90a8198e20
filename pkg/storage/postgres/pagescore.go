package postgres

import (
	"context"
	"fmt"

	"sitescope/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const pageScoresTable = "page_scores"

func (p *PgSQL) StorePageScore(ctx context.Context,
	crawlID domain.CrawlID,
	projectID domain.ProjectID,
	row domain.PageScoreRow) (*domain.PageScoreRow, error) {
	var pgRow PgPageScore
	if err := pgRow.FromDomain(crawlID, projectID, row); err != nil {
		return nil, err
	}

	var stored PgPageScore
	found, err := p.Builder.Insert(pageScoresTable).
		Rows(pgRow).
		Returning(&PgPageScore{}).
		Executor().ScanStructContext(ctx, &stored)
	if err != nil {
		return nil, fmt.Errorf("could not store page score into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("insert into %s returned no row", pageScoresTable)
	}

	return stored.ToDomain()
}

func (p *PgSQL) PageScoresByProject(ctx context.Context, projectID domain.ProjectID) ([]domain.PageScoreRow, error) {
	var rows []PgPageScore
	err := p.Builder.From(pageScoresTable).
		Where(goqu.I("project_id").Eq(uuid.UUID(projectID))).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not fetch page scores by project: %w", err)
	}

	return pgPageScoresToDomain(rows)
}

func (p *PgSQL) PageScoresByCrawl(ctx context.Context, crawlID domain.CrawlID) ([]domain.PageScoreRow, error) {
	var rows []PgPageScore
	err := p.Builder.From(pageScoresTable).
		Where(goqu.I("crawl_id").Eq(uuid.UUID(crawlID))).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not fetch page scores by crawl: %w", err)
	}

	return pgPageScoresToDomain(rows)
}

func (p *PgSQL) PageCountByCrawl(ctx context.Context, crawlID domain.CrawlID) (int64, error) {
	count, err := p.Builder.From(pageScoresTable).
		Where(goqu.I("crawl_id").Eq(uuid.UUID(crawlID))).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count pages by crawl: %w", err)
	}

	return count, nil
}
