package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sitescope/pkg/domain"

	"github.com/google/uuid"
)

type PgProject struct {
	ID      uuid.UUID `db:"id"       goqu:"skipinsert"`
	OwnerID uuid.UUID `db:"owner_id"`

	Domain        string        `db:"domain"`
	ActiveCrawlID uuid.NullUUID `db:"active_crawl_id" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

func (p *PgProject) ToDomain() *domain.Project {
	out := &domain.Project{
		ID:      domain.ProjectID(p.ID),
		OwnerID: domain.UserID(p.OwnerID),
		Domain:  p.Domain,
	}
	if p.ActiveCrawlID.Valid {
		id := domain.CrawlID(p.ActiveCrawlID.UUID)
		out.ActiveCrawlID = &id
	}

	return out
}

func (p *PgProject) FromDomain(project domain.Project) {
	*p = PgProject{
		ID:      uuid.UUID(project.ID),
		OwnerID: uuid.UUID(project.OwnerID),
		Domain:  project.Domain,
	}
	if project.ActiveCrawlID != nil {
		p.ActiveCrawlID = uuid.NullUUID{UUID: uuid.UUID(*project.ActiveCrawlID), Valid: true}
	}
}

func pgProjectsToDomain(rows []PgProject) []domain.Project {
	out := make([]domain.Project, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}

	return out
}

type PgCrawl struct {
	ID        uuid.UUID `db:"id"         goqu:"skipinsert"`
	ProjectID uuid.UUID `db:"project_id"`

	Tier      string         `db:"tier"`
	Status    string         `db:"status"`
	StartedAt sql.NullTime   `db:"started_at" goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
}

func (c *PgCrawl) ToDomain() *domain.CrawlJob {
	out := &domain.CrawlJob{
		ID:        domain.CrawlID(c.ID),
		ProjectID: domain.ProjectID(c.ProjectID),
		Tier:      domain.Tier(c.Tier),
		Status:    domain.CrawlStatus(c.Status),
		LastError: c.LastError.String,
	}
	if c.StartedAt.Valid {
		startedAt := c.StartedAt.Time
		out.StartedAt = &startedAt
	}

	return out
}

func (c *PgCrawl) FromDomain(crawl domain.CrawlJob) {
	*c = PgCrawl{
		ID:        uuid.UUID(crawl.ID),
		ProjectID: uuid.UUID(crawl.ProjectID),
		Tier:      string(crawl.Tier),
		Status:    string(crawl.Status),
		LastError: sql.NullString{
			String: crawl.LastError,
			Valid:  crawl.LastError != "",
		},
	}
	if crawl.StartedAt != nil {
		c.StartedAt = sql.NullTime{Time: *crawl.StartedAt, Valid: true}
	}
}

func pgCrawlsToDomain(rows []PgCrawl) []domain.CrawlJob {
	out := make([]domain.CrawlJob, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}

	return out
}

type PgPageScore struct {
	ID        uuid.UUID `db:"id"         goqu:"skipinsert"`
	CrawlID   uuid.UUID `db:"crawl_id"`
	ProjectID uuid.UUID `db:"project_id"`

	URL              string          `db:"url"`
	OverallScore     sql.NullFloat64 `db:"overall_score"`
	TechnicalScore   sql.NullFloat64 `db:"technical_score"`
	ContentScore     sql.NullFloat64 `db:"content_score"`
	AIReadinessScore sql.NullFloat64 `db:"ai_readiness_score"`
	Details          json.RawMessage `db:"details"`

	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64

	return &f
}

func ptrToNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *PgPageScore) ToDomain() (*domain.PageScoreRow, error) {
	var details map[string]any
	if len(s.Details) > 0 {
		if err := json.Unmarshal(s.Details, &details); err != nil {
			return nil, fmt.Errorf("could not unmarshal page score details: %w", err)
		}
	}

	return &domain.PageScoreRow{
		PageID:           domain.PageID(s.ID),
		URL:              s.URL,
		OverallScore:     nullToPtr(s.OverallScore),
		TechnicalScore:   nullToPtr(s.TechnicalScore),
		ContentScore:     nullToPtr(s.ContentScore),
		AIReadinessScore: nullToPtr(s.AIReadinessScore),
		Details:          details,
	}, nil
}

func (s *PgPageScore) FromDomain(crawlID domain.CrawlID, projectID domain.ProjectID, row domain.PageScoreRow) error {
	details := row.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("could not marshal page score details: %w", err)
	}

	*s = PgPageScore{
		ID:               uuid.UUID(row.PageID),
		CrawlID:          uuid.UUID(crawlID),
		ProjectID:        uuid.UUID(projectID),
		URL:              row.URL,
		OverallScore:     ptrToNull(row.OverallScore),
		TechnicalScore:   ptrToNull(row.TechnicalScore),
		ContentScore:     ptrToNull(row.ContentScore),
		AIReadinessScore: ptrToNull(row.AIReadinessScore),
		Details:          raw,
	}

	return nil
}

func pgPageScoresToDomain(rows []PgPageScore) ([]domain.PageScoreRow, error) {
	out := make([]domain.PageScoreRow, 0, len(rows))
	for i := range rows {
		d, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
