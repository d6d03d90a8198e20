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

const projectsTable = "projects"

func (p *PgSQL) StoreProject(ctx context.Context, project domain.Project) (*domain.Project, error) {
	var pgProject PgProject
	pgProject.FromDomain(project)

	var row PgProject
	found, err := p.Builder.Insert(projectsTable).
		Rows(pgProject).
		Returning(&PgProject{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not store project into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("insert into %s returned no row", projectsTable)
	}

	return row.ToDomain(), nil
}

// ProjectByID returns a project by its ID, excluding soft-deleted rows.
func (p *PgSQL) ProjectByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	var row PgProject
	found, err := p.Builder.From(projectsTable).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch project by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// UserProjects returns a page of projects for an owner, ordered by
// created_at DESC, id DESC, with an extra row fetched to detect a next page.
func (p *PgSQL) UserProjects(ctx context.Context,
	ownerID domain.UserID,
	cursor time.Time,
	limit uint) (storage.UserProjects, error) {
	w := []goqu.Expression{
		goqu.I("owner_id").Eq(uuid.UUID(ownerID)),
		goqu.I("deleted_at").IsNull(),
	}
	if !cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(cursor))
	}

	fetch := limit + 1
	ds := p.Builder.From(projectsTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(fetch)

	var rows []PgProject
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.UserProjects{}, fmt.Errorf("could not fetch user projects from pg: %w", err)
	}

	var nextCursor *time.Time
	if uint(len(rows)) > limit {
		trimmed := rows[:limit]
		nextCursor = &trimmed[len(trimmed)-1].CreatedAt
		rows = trimmed
	}

	return storage.UserProjects{
		Projects:   pgProjectsToDomain(rows),
		NextCursor: nextCursor,
	}, nil
}

// ProjectCountByOwner counts live projects of an owner. Soft-deleted rows are
// excluded so a deleted project frees its slot.
func (p *PgSQL) ProjectCountByOwner(ctx context.Context, ownerID domain.UserID) (int64, error) {
	count, err := p.Builder.From(projectsTable).
		Where(
			goqu.I("owner_id").Eq(uuid.UUID(ownerID)),
			goqu.I("deleted_at").IsNull(),
		).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count projects by owner: %w", err)
	}

	return count, nil
}

// SetActiveCrawl sets or clears the active crawl pointer of a project.
func (p *PgSQL) SetActiveCrawl(ctx context.Context, id domain.ProjectID, crawlID *domain.CrawlID) error {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
	}
	if crawlID != nil {
		rec["active_crawl_id"] = uuid.UUID(*crawlID)
	} else {
		rec["active_crawl_id"] = goqu.L("NULL")
	}

	_, err := p.Builder.Update(projectsTable).
		Set(rec).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("deleted_at").IsNull(),
	).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not set active crawl in pg: %w", err)
	}

	return nil
}

// DeleteProject performs a soft delete by setting deleted_at, returning the
// deleted record or nil when it was not found.
func (p *PgSQL) DeleteProject(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	var row PgProject
	found, err := p.Builder.Update(projectsTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgProject{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete project in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}
