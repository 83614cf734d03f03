package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scrollvault/internal/license/models"
	"scrollvault/internal/platform/middleware"
	dErrors "scrollvault/pkg/domain-errors"
	"scrollvault/pkg/platform/httputil"
)

// Service defines the interface for claim-root license operations.
type Service interface {
	Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerateResult, error)
	Validate(ctx context.Context, token string) (*models.ValidateResult, error)
}

type Handler struct {
	logger    *slog.Logger
	licenses  Service
	validator middleware.LicenseValidator
}

func New(licenses Service, validator middleware.LicenseValidator, logger *slog.Logger) *Handler {
	return &Handler{licenses: licenses, validator: validator, logger: logger}
}

// Register registers the claim-root routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Post("/api/claimroot/generate", h.HandleGenerate)
		r.Post("/api/claimroot/validate", h.HandleValidate)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLicense(h.validator, h.logger))
		r.Get("/api/claimroot/license", h.HandleCurrentLicense)
	})
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.GenerateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid license generate request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.licenses.Generate(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "invalid license generate request",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else {
			h.logger.ErrorContext(ctx, "failed to generate license",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ValidateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.licenses.Validate(ctx, req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "license validation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleCurrentLicense echoes the claims of the bearer token.
func (h *Handler) HandleCurrentLicense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.GetLicense(ctx)
	if claims == nil {
		h.logger.ErrorContext(ctx, "license missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"license_id":         claims.LicenseID,
		"scroll_id":          claims.ScrollID,
		"claim_root_license": claims.ClaimRoot,
		"claims":             claims.Fields,
		"expires_at":         claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
