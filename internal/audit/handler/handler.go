package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"scrollvault/internal/platform/middleware"
	dErrors "scrollvault/pkg/domain-errors"
	audit "scrollvault/pkg/platform/audit"
	"scrollvault/pkg/platform/httputil"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Service reads back recorded audit events.
type Service interface {
	List(ctx context.Context, subject string) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// EventsResponse wraps audit events for the read API.
type EventsResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
}

type Handler struct {
	logger     *slog.Logger
	events     Service
	adminToken string
}

func New(svc Service, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{events: svc, adminToken: adminToken, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/api/audit/events", h.HandleRecent)
		r.Get("/api/audit/events/{subject}", h.HandleSubject)
	})
}

// HandleRecent returns the newest events first, at most ?limit= of them.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.events.Recent(ctx, limit)
	if err != nil {
		h.fail(w, r, "audit recent failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(events))
}

// HandleSubject returns every event recorded for one scroll or license id.
func (h *Handler) HandleSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := chi.URLParam(r, "subject")
	events, err := h.events.List(ctx, subject)
	if err != nil {
		h.fail(w, r, "audit list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(events))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}

func toResponse(events []audit.Event) EventsResponse {
	if events == nil {
		events = []audit.Event{}
	}
	return EventsResponse{Events: events, Total: len(events)}
}
