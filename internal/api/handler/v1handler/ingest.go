package v1handler

import (
	"net/http"

	"sitescope/pkg/domain"
	"sitescope/pkg/serrors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ingestPageRequest is one scored page reported by the crawl agent. Score
// fields are pointers so an uncomputed category stays absent rather than
// reading as zero.
type ingestPageRequest struct {
	URL              string         `json:"url"              validate:"required,url"`
	OverallScore     *float64       `json:"overallScore"     validate:"omitempty,gte=0,lte=100"`
	TechnicalScore   *float64       `json:"technicalScore"   validate:"omitempty,gte=0,lte=100"`
	ContentScore     *float64       `json:"contentScore"     validate:"omitempty,gte=0,lte=100"`
	AIReadinessScore *float64       `json:"aiReadinessScore" validate:"omitempty,gte=0,lte=100"`
	Details          map[string]any `json:"details"`
}

type failCrawlRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// crawlID pulls the {crawlID} URL parameter.
func crawlID(r *http.Request) (domain.CrawlID, error) {
	raw, err := uuid.Parse(chi.URLParam(r, "crawlID"))
	if err != nil {
		return domain.CrawlID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid crawl id")
	}

	return domain.CrawlID(raw), nil
}

// IngestPage stores one scored page reported by the agent.
func (h Handler) IngestPage(w http.ResponseWriter, r *http.Request) {
	id, err := crawlID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var req ingestPageRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	row, err := h.deps.Crawls.IngestPage(r.Context(), id, domain.PageScoreRow{
		URL:              req.URL,
		OverallScore:     req.OverallScore,
		TechnicalScore:   req.TechnicalScore,
		ContentScore:     req.ContentScore,
		AIReadinessScore: req.AIReadinessScore,
		Details:          req.Details,
	})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"pageId": uuid.UUID(row.PageID).String(),
	})
}

// CompleteCrawl closes a crawl after the agent finished all pages.
func (h Handler) CompleteCrawl(w http.ResponseWriter, r *http.Request) {
	id, err := crawlID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if err := h.deps.Crawls.Complete(r.Context(), id); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FailCrawl marks a crawl as failed with the agent's reason.
func (h Handler) FailCrawl(w http.ResponseWriter, r *http.Request) {
	id, err := crawlID(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var req failCrawlRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)

		return
	}

	if err := h.deps.Crawls.Fail(r.Context(), id, req.Reason); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
