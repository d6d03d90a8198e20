package v1handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes builds the v1 router: customer routes behind JWT auth, ingestion
// routes behind the agent's shared secret.
func (h *Handler) Routes(sec *SecHandler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(sec.RequireUser)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", h.CreateProject)
			r.Get("/", h.ListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Delete("/", h.DeleteProject)
				r.Post("/crawls", h.StartCrawl)
				r.Post("/reports", h.GenerateReport)
				r.Post("/visibility-checks", h.RunVisibilityChecks)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(sec.RequireAgent)

		r.Route("/crawls/{crawlID}", func(r chi.Router) {
			r.Post("/pages", h.IngestPage)
			r.Post("/complete", h.CompleteCrawl)
			r.Post("/fail", h.FailCrawl)
		})
	})

	return r
}
