package storage

import (
	"context"
	"time"

	"sitescope/pkg/domain"
)

// UserProjects groups a page of projects returned for an owner together with
// an optional NextCursor used for pagination.
type UserProjects struct {
	// Projects contains the current page of project records.
	Projects []domain.Project
	// NextCursor points to the timestamp to be used as the cursor for fetching
	// the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// ProjectStorage defines CRUD and query operations related to projects.
// Implementations should handle soft-deletes where applicable.
type ProjectStorage interface {
	// StoreProject inserts a project and returns the stored row as it exists in
	// the database (including generated fields).
	StoreProject(ctx context.Context, project domain.Project) (*domain.Project, error)
	// ProjectByID fetches a project by its ID, excluding soft-deleted records.
	// Returns nil when not found. Ownership is checked by the caller via the
	// domain rules, not the query, so a FORBIDDEN outcome can be told apart
	// from NOT_FOUND.
	ProjectByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error)
	// UserProjects returns a page of projects for an owner created before the
	// optional cursor time, limited by the given limit.
	UserProjects(ctx context.Context, ownerID domain.UserID, cursor time.Time, limit uint) (UserProjects, error)
	// ProjectCountByOwner returns the number of live (not soft-deleted)
	// projects the owner has. Used for plan entitlement checks inside the same
	// transaction as the subsequent insert.
	ProjectCountByOwner(ctx context.Context, ownerID domain.UserID) (int64, error)
	// SetActiveCrawl sets or clears (nil) the active crawl pointer of a project.
	SetActiveCrawl(ctx context.Context, id domain.ProjectID, crawlID *domain.CrawlID) error
	// DeleteProject performs a soft delete for the given project ID and returns
	// the deleted project, or nil if it was not found.
	DeleteProject(ctx context.Context, id domain.ProjectID) (*domain.Project, error)
}
