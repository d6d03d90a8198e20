package storage

import (
	"context"

	"sitescope/pkg/domain"
)

// PageScoreStorage defines persistence operations for per-page score rows
// produced by the scoring pipeline. Rows are append-only; aggregation happens
// in the domain layer at read time.
type PageScoreStorage interface {
	// StorePageScore inserts one scored page for a crawl and returns the
	// stored row.
	StorePageScore(ctx context.Context,
		crawlID domain.CrawlID,
		projectID domain.ProjectID,
		row domain.PageScoreRow) (*domain.PageScoreRow, error)
	// PageScoresByProject returns all score rows of a project across crawls,
	// newest crawl first.
	PageScoresByProject(ctx context.Context, projectID domain.ProjectID) ([]domain.PageScoreRow, error)
	// PageScoresByCrawl returns all score rows of a single crawl.
	PageScoresByCrawl(ctx context.Context, crawlID domain.CrawlID) ([]domain.PageScoreRow, error)
	// PageCountByCrawl returns how many pages a crawl has ingested so far.
	// Checked against the plan's page quota before each insert.
	PageCountByCrawl(ctx context.Context, crawlID domain.CrawlID) (int64, error)
}
