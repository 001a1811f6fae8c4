package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/failbook/internal/report"
)

// NewRouter creates a chi router with the listing, processing and JSON routes.
func NewRouter(svc *report.Service) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Browser pages.
	r.Get("/", h.Index)
	r.Get("/process/*", h.Process)
	r.Get("/view/*", h.View)

	// JSON.
	r.Get("/api/runs", h.ListRuns)
	r.Get("/api/stats/*", h.Stats)

	return r
}
