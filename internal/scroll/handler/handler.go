package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scrollvault/internal/platform/middleware"
	"scrollvault/internal/scroll/models"
	dErrors "scrollvault/pkg/domain-errors"
	"scrollvault/pkg/platform/httputil"
)

// Service defines the interface for scroll operations.
type Service interface {
	Intake(ctx context.Context, req models.IntakeRequest) (*models.IntakeResult, error)
	Validate(ctx context.Context, req models.ValidateRequest) (*models.ValidateResult, error)
	Get(ctx context.Context, scrollID string) (*models.Scroll, error)
	PublicKey(ctx context.Context) (*models.PublicKey, error)
}

// Handler handles treaty intake and scroll endpoints.
type Handler struct {
	logger  *slog.Logger
	scrolls Service
}

func New(scrolls Service, logger *slog.Logger) *Handler {
	return &Handler{scrolls: scrolls, logger: logger}
}

// Register registers the scroll routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Post("/api/treaty-sync/intake", h.HandleIntake)
		r.Post("/api/scroll/validate", h.HandleValidate)
		r.Get("/api/scroll/public-key", h.HandlePublicKey)
		r.Get("/api/scroll/{scrollID}", h.HandleGet)
	})
}

func (h *Handler) HandleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.IntakeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid treaty intake request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.scrolls.Intake(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "treaty intake failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ValidateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid scroll validation request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.scrolls.Validate(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "scroll validation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scroll, err := h.scrolls.Get(ctx, chi.URLParam(r, "scrollID"))
	if err != nil {
		h.writeServiceError(ctx, w, "scroll lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, scroll)
}

func (h *Handler) HandlePublicKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := h.scrolls.PublicKey(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "public key export failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, key)
}

// writeServiceError logs client errors at warn and everything else at error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelError
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation, dErrors.CodeNotFound:
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, err)
}
