package main

import (
	"log/slog"
	"net/http"

	"github.com/crucial707/birthday-service/internal/config"
	"github.com/crucial707/birthday-service/internal/handlers"
	"github.com/crucial707/birthday-service/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newRouter(svc handlers.BirthdayService, cfg config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))

	h := &handlers.RunHandler{Service: svc, Logger: logger}
	triggerLimit := middleware.TriggerRateLimiter(cfg.TriggerRatePerMin)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Legacy trigger path: open and unthrottled, it always answers {"status": true}.
	// Repeats on the same day are absorbed by the run guard and the day gate.
	r.Get("/api/run-birthday-service", h.TriggerRun)
	r.Post("/api/run-birthday-service", h.TriggerRun)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireOperator([]byte(cfg.JWTSecret)))
		r.Get("/status", h.GetStatus)
		r.With(triggerLimit.Middleware).Post("/runs", h.TriggerRun)
	})

	return r
}
