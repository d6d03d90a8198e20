// Package memory provides an in-memory implementation of storage.Storage for
// tests and local development. All data lives in maps guarded by a single
// mutex; transactions are simulated by running the callback against the same
// store, which is enough for service-level tests that assert on outcomes
// rather than isolation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"sitescope/pkg/domain"
	"sitescope/pkg/storage"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// InsertedJob records one AddJob call so tests can assert on what was
// enqueued without a running queue backend.
type InsertedJob struct {
	Args river.JobArgs
	Opts *river.InsertOpts
}

// Store is an in-memory storage.Storage.
type Store struct {
	mu sync.RWMutex

	projects   map[domain.ProjectID]projectRecord
	crawls     map[domain.CrawlID]domain.CrawlJob
	pageScores map[domain.CrawlID][]pageRecord
	usage      map[usageKey]storage.Usage
	credits    map[domain.UserID]int

	jobs []InsertedJob
	// AddJobErr, when set, is returned by AddJob. Lets tests exercise
	// enqueue-failure paths.
	AddJobErr error
}

type projectRecord struct {
	project   domain.Project
	createdAt time.Time
	deleted   bool
}

type pageRecord struct {
	projectID domain.ProjectID
	row       domain.PageScoreRow
	createdAt time.Time
}

type usageKey struct {
	ownerID domain.UserID
	period  string
}

var _ storage.Storage = (*Store)(nil)

// New constructs an empty Store.
func New() *Store {
	return &Store{
		projects:   make(map[domain.ProjectID]projectRecord),
		crawls:     make(map[domain.CrawlID]domain.CrawlJob),
		pageScores: make(map[domain.CrawlID][]pageRecord),
		usage:      make(map[usageKey]storage.Usage),
		credits:    make(map[domain.UserID]int),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Begin returns the store itself wrapped as a TxStorage. There is no real
// isolation; Commit and Rollback are no-ops.
func (s *Store) Begin(_ context.Context) (storage.TxStorage, error) {
	return &memTx{Store: s}, nil
}

// WithTx runs the callback against the store. Errors propagate but writes
// made before the error are not undone.
func (s *Store) WithTx(_ context.Context, cb func(storage storage.AllStorage) error) error {
	return cb(s)
}

type memTx struct {
	*Store
}

func (t *memTx) Commit() error   { return nil }
func (t *memTx) Rollback() error { return nil }

// StoreProject inserts a project, assigning an ID when the zero value was
// given.
func (s *Store) StoreProject(_ context.Context, project domain.Project) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID == domain.ProjectID(uuid.Nil) {
		project.ID = domain.ProjectID(uuid.New())
	}
	s.projects[project.ID] = projectRecord{project: project, createdAt: time.Now().UTC()}

	return &project, nil
}

// ProjectByID fetches a live project by ID, nil when missing or deleted.
func (s *Store) ProjectByID(_ context.Context, id domain.ProjectID) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.projects[id]
	if !ok || rec.deleted {
		return nil, nil
	}
	project := rec.project

	return &project, nil
}

// UserProjects returns a page of the owner's live projects, newest first.
func (s *Store) UserProjects(_ context.Context,
	ownerID domain.UserID, cursor time.Time, limit uint,
) (storage.UserProjects, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []projectRecord
	for _, rec := range s.projects {
		if rec.deleted || rec.project.OwnerID != ownerID {
			continue
		}
		if !cursor.IsZero() && !rec.createdAt.Before(cursor) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].createdAt.After(matched[j].createdAt)
	})

	out := storage.UserProjects{}
	for i, rec := range matched {
		if uint(i) >= limit {
			next := matched[i-1].createdAt
			out.NextCursor = &next

			break
		}
		out.Projects = append(out.Projects, rec.project)
	}

	return out, nil
}

// ProjectCountByOwner counts the owner's live projects.
func (s *Store) ProjectCountByOwner(_ context.Context, ownerID domain.UserID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.projects {
		if !rec.deleted && rec.project.OwnerID == ownerID {
			count++
		}
	}

	return count, nil
}

// SetActiveCrawl sets or clears the active crawl pointer of a project.
func (s *Store) SetActiveCrawl(_ context.Context, id domain.ProjectID, crawlID *domain.CrawlID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[id]
	if !ok || rec.deleted {
		return nil
	}
	rec.project.ActiveCrawlID = crawlID
	s.projects[id] = rec

	return nil
}

// DeleteProject soft-deletes a project, returning nil when it was already
// gone.
func (s *Store) DeleteProject(_ context.Context, id domain.ProjectID) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[id]
	if !ok || rec.deleted {
		return nil, nil
	}
	rec.deleted = true
	s.projects[id] = rec
	project := rec.project

	return &project, nil
}

// StoreCrawl inserts a crawl, assigning an ID when the zero value was given.
func (s *Store) StoreCrawl(_ context.Context, crawl domain.CrawlJob) (*domain.CrawlJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if crawl.ID == domain.CrawlID(uuid.Nil) {
		crawl.ID = domain.CrawlID(uuid.New())
	}
	s.crawls[crawl.ID] = crawl

	return &crawl, nil
}

// CrawlByID fetches a crawl by ID, nil when missing.
func (s *Store) CrawlByID(_ context.Context, id domain.CrawlID) (*domain.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	crawl, ok := s.crawls[id]
	if !ok {
		return nil, nil
	}

	return &crawl, nil
}

// UpdateCrawlFromStatus applies the updates only while the crawl is still in
// the from status, mirroring the postgres compare-and-set guard.
func (s *Store) UpdateCrawlFromStatus(_ context.Context,
	id domain.CrawlID, from domain.CrawlStatus, updates storage.CrawlUpdates,
) (*domain.CrawlJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	crawl, ok := s.crawls[id]
	if !ok || crawl.Status != from {
		return nil, nil
	}
	crawl.Status = updates.Status
	if updates.StartedAt != nil {
		startedAt := *updates.StartedAt
		crawl.StartedAt = &startedAt
	}
	if updates.LastError != nil {
		crawl.LastError = *updates.LastError
	}
	s.crawls[id] = crawl

	return &crawl, nil
}

// ActiveCrawlsStartedBefore returns crawling jobs whose StartedAt precedes
// the cutoff.
func (s *Store) ActiveCrawlsStartedBefore(_ context.Context, cutoff time.Time) ([]domain.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CrawlJob
	for _, crawl := range s.crawls {
		if crawl.Status != domain.CrawlStatusCrawling || crawl.StartedAt == nil {
			continue
		}
		if crawl.StartedAt.Before(cutoff) {
			out = append(out, crawl)
		}
	}

	return out, nil
}

// StorePageScore appends a scored page for a crawl.
func (s *Store) StorePageScore(_ context.Context,
	crawlID domain.CrawlID, projectID domain.ProjectID, row domain.PageScoreRow,
) (*domain.PageScoreRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row.PageID == domain.PageID(uuid.Nil) {
		row.PageID = domain.PageID(uuid.New())
	}
	s.pageScores[crawlID] = append(s.pageScores[crawlID], pageRecord{
		projectID: projectID,
		row:       row,
		createdAt: time.Now().UTC(),
	})

	return &row, nil
}

// PageScoresByProject returns all score rows of a project across crawls.
func (s *Store) PageScoresByProject(_ context.Context, projectID domain.ProjectID) ([]domain.PageScoreRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PageScoreRow
	for _, records := range s.pageScores {
		for _, rec := range records {
			if rec.projectID == projectID {
				out = append(out, rec.row)
			}
		}
	}

	return out, nil
}

// PageScoresByCrawl returns all score rows of one crawl.
func (s *Store) PageScoresByCrawl(_ context.Context, crawlID domain.CrawlID) ([]domain.PageScoreRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.pageScores[crawlID]
	out := make([]domain.PageScoreRow, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.row)
	}

	return out, nil
}

// PageCountByCrawl returns the number of pages a crawl has ingested.
func (s *Store) PageCountByCrawl(_ context.Context, crawlID domain.CrawlID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.pageScores[crawlID])), nil
}

// Usage returns the owner's counters for the period, zero when absent.
func (s *Store) Usage(_ context.Context, ownerID domain.UserID, period string) (storage.Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.usage[usageKey{ownerID: ownerID, period: period}], nil
}

// AddUsage increments the owner's counters for the period.
func (s *Store) AddUsage(_ context.Context, ownerID domain.UserID, period string, delta storage.UsageDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{ownerID: ownerID, period: period}
	usage := s.usage[key]
	usage.VisibilityChecks += delta.VisibilityChecks
	usage.Reports += delta.Reports
	s.usage[key] = usage

	return nil
}

// CrawlCredits returns the owner's credit balance, zero when absent.
func (s *Store) CrawlCredits(_ context.Context, ownerID domain.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.credits[ownerID], nil
}

// AddCrawlCredits adjusts the owner's credit balance by delta.
func (s *Store) AddCrawlCredits(_ context.Context, ownerID domain.UserID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credits[ownerID] += delta

	return nil
}

// AddJob records the insert so tests can assert on the enqueued args.
func (s *Store) AddJob(_ context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.AddJobErr != nil {
		return false, s.AddJobErr
	}
	s.jobs = append(s.jobs, InsertedJob{Args: args, Opts: opts})

	return true, nil
}

// InsertedJobs returns a copy of all recorded AddJob calls.
func (s *Store) InsertedJobs() []InsertedJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]InsertedJob, len(s.jobs))
	copy(out, s.jobs)

	return out
}
