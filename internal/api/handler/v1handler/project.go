package v1handler

import (
	"net/http"
	"strconv"
	"time"

	"sitescope/pkg/domain"
	"sitescope/pkg/serrors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// projectResponse is the wire shape of a project.
type projectResponse struct {
	ID            string  `json:"id"`
	Domain        string  `json:"domain"`
	ActiveCrawlID *string `json:"activeCrawlId,omitempty"`
}

// crawlResponse is the wire shape of a crawl.
type crawlResponse struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"projectId"`
	Tier      string     `json:"tier"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

func domainProjectToV1(in *domain.Project) projectResponse {
	out := projectResponse{
		ID:     uuid.UUID(in.ID).String(),
		Domain: in.Domain,
	}
	if in.ActiveCrawlID != nil {
		id := uuid.UUID(*in.ActiveCrawlID).String()
		out.ActiveCrawlID = &id
	}

	return out
}

func domainCrawlToV1(in *domain.CrawlJob) crawlResponse {
	return crawlResponse{
		ID:        uuid.UUID(in.ID).String(),
		ProjectID: uuid.UUID(in.ProjectID).String(),
		Tier:      string(in.Tier),
		Status:    string(in.Status),
		StartedAt: in.StartedAt,
		LastError: in.LastError,
	}
}

type createProjectRequest struct {
	Domain string `json:"domain" validate:"required,min=3"`
}

type generateReportRequest struct {
	Type string `json:"type" validate:"required,oneof=summary detailed"`
}

type visibilityChecksRequest struct {
	Queries []string `json:"queries" validate:"required,min=1,dive,required,max=500"`
}

type listProjectsResponse struct {
	Projects   []projectResponse `json:"projects"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// projectID pulls the {projectID} URL parameter.
func projectID(r *http.Request) (domain.ProjectID, error) {
	raw, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		return domain.ProjectID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid project id")
	}

	return domain.ProjectID(raw), nil
}

// CreateProject registers a new project for the authenticated user.
func (h Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	proj, err := h.deps.Projects.Create(r.Context(),
		GetUserIDFromContext(r.Context()),
		GetTierFromContext(r.Context()),
		req.Domain)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, domainProjectToV1(proj))
}

// ListProjects returns a page of the user's projects.
func (h Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	limit := uint(DefaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			h.writeError(w, r, serrors.With(serrors.ErrBadRequest, "invalid limit"))

			return
		}
		limit = uint(parsed)
	}

	projects, next, err := h.deps.Projects.UserProjects(r.Context(),
		GetUserIDFromContext(r.Context()),
		r.URL.Query().Get("cursor"),
		limit)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	out := listProjectsResponse{
		Projects:   make([]projectResponse, 0, len(projects)),
		NextCursor: next,
	}
	for i := range projects {
		out.Projects = append(out.Projects, domainProjectToV1(&projects[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

// GetProject returns a single project owned by the user.
func (h Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	proj, err := h.deps.Projects.Project(r.Context(), GetUserIDFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, domainProjectToV1(proj))
}

// DeleteProject soft-deletes a project owned by the user.
func (h Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if err := h.deps.Projects.Delete(r.Context(), GetUserIDFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StartCrawl creates a pending crawl for the project and enqueues its job.
func (h Handler) StartCrawl(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	job, err := h.deps.Projects.StartCrawl(r.Context(),
		GetUserIDFromContext(r.Context()),
		GetTierFromContext(r.Context()),
		id)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusAccepted, domainCrawlToV1(job))
}

// GenerateReport aggregates the project's scores into a report.
func (h Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var req generateReportRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	report, err := h.deps.Projects.Report(r.Context(),
		GetUserIDFromContext(r.Context()),
		GetTierFromContext(r.Context()),
		id,
		domain.ReportType(req.Type))
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, report)
}

// RunVisibilityChecks meters a batch of visibility checks for the project.
func (h Handler) RunVisibilityChecks(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var req visibilityChecksRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	run, err := h.deps.Projects.RunVisibilityChecks(r.Context(),
		GetUserIDFromContext(r.Context()),
		GetTierFromContext(r.Context()),
		id,
		req.Queries)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, run)
}
