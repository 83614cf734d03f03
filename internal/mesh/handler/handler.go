package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scrollvault/internal/mesh"
	"scrollvault/internal/platform/middleware"
	"scrollvault/pkg/platform/httputil"
)

// Service reports mesh health.
type Service interface {
	Status(ctx context.Context) (*mesh.Status, error)
	Pulse(ctx context.Context) (*mesh.Pulse, error)
}

type Handler struct {
	logger *slog.Logger
	mesh   Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{mesh: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/api/vaultmesh/status", h.HandleStatus)
		r.Get("/api/scroll/pulse", h.HandlePulse)
	})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.mesh.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "vaultmesh status failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandlePulse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pulse, err := h.mesh.Pulse(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "scroll pulse failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pulse)
}
