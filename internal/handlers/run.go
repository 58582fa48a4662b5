package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/crucial707/birthday-service/internal/middleware"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// BirthdayService is the part of birthday.Service the HTTP layer drives.
type BirthdayService interface {
	Trigger(ctx context.Context)
	Status() birthday.Status
	Ping(ctx context.Context) error
}

// ReadyTimeout bounds the store ping behind /ready.
const ReadyTimeout = 5 * time.Second

type RunHandler struct {
	Service BirthdayService
	Logger  *slog.Logger
}

func (h *RunHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// TriggerRun starts a scan in the background and always answers {"status": true}.
// Whether the scan actually runs is decided by the daily dedup check.
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	h.logger().InfoContext(r.Context(), "manual run requested",
		"request_id", chimw.GetReqID(r.Context()),
		"operator", middleware.Operator(r.Context()))
	h.Service.Trigger(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *RunHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Status())
}

func (h *RunHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the user store is reachable.
func (h *RunHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadyTimeout)
	defer cancel()
	if err := h.Service.Ping(ctx); err != nil {
		h.logger().WarnContext(r.Context(), "readiness check failed", "error", err)
		JSONError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
