// Package v1handler implements the v1 HTTP handlers: project management and
// crawl control for customers, ingestion callbacks for the crawl agent.
package v1handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sitescope/internal/crawl"
	"sitescope/internal/project"
	"sitescope/pkg/domain"
	"sitescope/pkg/logger"
	"sitescope/pkg/serrors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultLimit is the page size used when the client does not ask for one.
const DefaultLimit = 20

// Deps carries the services the handlers delegate to.
type Deps struct {
	Projects project.Service
	Crawls   crawl.Service
}

// Handler serves the v1 routes.
type Handler struct {
	deps     Deps
	validate *validator.Validate
}

// New constructs a Handler.
func New(deps Deps) *Handler {
	return &Handler{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// errorResponse is the JSON error envelope of every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps semantic error kinds to HTTP status codes. Anything without
// a mapping is an internal error; its message is not leaked to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, serrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, serrors.ErrForbidden), errors.Is(err, serrors.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, serrors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, serrors.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, serrors.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// codeFor extracts the semantic kind name for the error envelope.
func codeFor(err error) string {
	var serr *serrors.Error
	if errors.As(err, &serr) && serr.Kind() != nil {
		return serr.Kind().Error()
	}

	return serrors.ErrInternal.Error()
}

// writeError renders err as a JSON error envelope. Internal errors are logged
// with their full chain and replaced with a generic message.
func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", zap.Error(err))
		message = "internal error"
	}

	writeJSON(w, status, errorResponse{Code: codeFor(err), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody parses and validates a JSON request body into dst.
func (h Handler) decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return serrors.Wrap(serrors.ErrBadRequest, err, "invalid request")
	}

	return nil
}
