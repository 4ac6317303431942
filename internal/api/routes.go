package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/pay-records/validate", h.ValidatePayRecord)
		r.Post("/claims/process", h.ProcessClaim)
		r.Post("/claims/{claimId}/documents", func(w http.ResponseWriter, r *http.Request) {
			h.UploadSupportingDocument(w, r, chi.URLParam(r, "claimId"))
		})
		r.Get("/runs/{runId}", func(w http.ResponseWriter, r *http.Request) {
			h.GetRun(w, r, chi.URLParam(r, "runId"))
		})
	})

	return r
}
