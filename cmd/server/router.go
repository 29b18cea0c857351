package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mpetrenko/telewatch/internal/handler"
)

func setupRouter(h *handler.Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Post("/health/check", h.RunHealthCheck)
		r.Get("/diagnostics", h.GetDiagnostics)
		r.Get("/reading", h.GetReading)
		r.Post("/recovery/force", h.ForceRecovery)
		r.Post("/scheduler/start", h.StartScheduler)
		r.Post("/scheduler/stop", h.StopScheduler)
	})

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}
