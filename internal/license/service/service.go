package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	jwttoken "scrollvault/internal/jwt_token"
	"scrollvault/internal/license/models"
	"scrollvault/internal/platform/metrics"
	"scrollvault/pkg/domain"
	dErrors "scrollvault/pkg/domain-errors"
	audit "scrollvault/pkg/platform/audit"
	"scrollvault/pkg/requestcontext"
)

// Service issues and checks claim-root license tokens.
type Service struct {
	tokens    TokenIssuer
	positions PositionSource
	mesh      MeshSyncer
	auditor   AuditPublisher

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(tokens TokenIssuer, positions PositionSource, mesh MeshSyncer, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		tokens:    tokens,
		positions: positions,
		mesh:      mesh,
		auditor:   auditor,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    otel.Tracer("scrollvault/internal/license"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate issues a license document and the bearer token that proves it.
func (s *Service) Generate(ctx context.Context, req models.GenerateRequest) (res *models.GenerateResult, err error) {
	ctx, span := s.tracer.Start(ctx, "license.Generate")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var position int64
	if req.TreatyPosition != nil {
		position = *req.TreatyPosition
	} else {
		current, err := s.positions.CurrentPosition(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
		}
		position = current + 1
	}

	now := s.requestTime(ctx)
	licenseID := domain.NewLicenseID(now).String()
	span.SetAttributes(
		attribute.String("license.id", licenseID),
		attribute.Int64("license.treaty_position", position),
	)

	token, tokenExp, err := s.tokens.IssueWithExpiry(jwttoken.Claims{
		"license_id":      licenseID,
		"app_id":          req.AppID,
		"licensee_id":     req.LicenseeID,
		"treaty_position": position,
		"scroll_bound":    true,
	}, 0)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue license token")
	}

	license := &models.License{
		LicenseID:      licenseID,
		AppID:          req.AppID,
		LicenseeID:     req.LicenseeID,
		TreatyPosition: position,
		ScrollBound:    true,
		GeneratedAt:    now,
		ExpiresAt:      now.Add(models.LicenseValidity),
		PDFURL:         fmt.Sprintf("/licenses/%s.pdf", licenseID),
	}

	synced := s.mesh.Sync(ctx, map[string]any{
		"license_id":      licenseID,
		"treaty_position": position,
	})

	s.metrics.IncrementLicensesIssued("license")
	s.emit(ctx, audit.EventLicenseIssued, licenseID, "issued", map[string]string{
		"app_id":          req.AppID,
		"licensee_id":     req.LicenseeID,
		"treaty_position": fmt.Sprint(position),
	})
	s.logger.InfoContext(ctx, "claim-root license generated",
		"request_id", requestcontext.RequestID(ctx),
		"license_id", licenseID,
		"treaty_position", position,
	)

	return &models.GenerateResult{
		Success:       true,
		License:       license,
		Token:         token,
		TokenExpires:  tokenExp.Format(time.RFC3339),
		VaultMeshSync: synced,
	}, nil
}

// Validate checks a license token. Expired and forged tokens produce a
// result with Valid=false; only an empty token is an error.
func (s *Service) Validate(ctx context.Context, token string) (*models.ValidateResult, error) {
	_, span := s.tracer.Start(ctx, "license.Validate")
	defer span.End()

	if token == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token is required")
	}

	validated, err := s.tokens.Validate(token)
	if err != nil {
		status := models.StatusInvalidSignature
		if errors.Is(err, jwttoken.ErrExpired) {
			status = models.StatusExpired
		}
		span.SetAttributes(attribute.String("license.status", status))
		s.metrics.ObserveTokenValidation(status)
		s.emit(ctx, audit.EventTokenRejected, "anonymous", status, nil)
		s.logger.WarnContext(ctx, "license token rejected",
			"request_id", requestcontext.RequestID(ctx),
			"status", status,
		)
		return &models.ValidateResult{Valid: false, Status: status}, nil
	}

	s.metrics.ObserveTokenValidation(models.StatusValid)
	subject, _ := validated.Claims["license_id"].(string)
	if subject == "" {
		subject, _ = validated.Claims["scroll_id"].(string)
	}
	s.emit(ctx, audit.EventLicenseValidated, subject, models.StatusValid, nil)

	iat, exp := validated.IssuedAt, validated.ExpiresAt
	return &models.ValidateResult{
		Valid:     true,
		Status:    models.StatusValid,
		Claims:    validated.Claims,
		IssuedAt:  &iat,
		ExpiresAt: &exp,
	}, nil
}

func (s *Service) requestTime(ctx context.Context) time.Time {
	if t, ok := requestcontext.Time(ctx); ok {
		return t.UTC()
	}
	return s.now().UTC()
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, decision string, details map[string]string) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(action, subject)
	event.Decision = decision
	event.Details = details
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", string(action),
			"subject", subject,
			"error", err,
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
