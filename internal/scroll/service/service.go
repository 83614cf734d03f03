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
	"scrollvault/internal/platform/metrics"
	"scrollvault/internal/scroll/models"
	"scrollvault/internal/signing"
	"scrollvault/pkg/domain"
	dErrors "scrollvault/pkg/domain-errors"
	audit "scrollvault/pkg/platform/audit"
	"scrollvault/pkg/platform/sentinel"
	"scrollvault/pkg/requestcontext"
)

// DefaultMinFunding is the smallest funding declaration an intake accepts.
const DefaultMinFunding = 50000

// Service signs treaty intakes into scrolls and checks scroll signatures.
type Service struct {
	ledger   Ledger
	signer   Signer
	verifier Verifier
	tokens   TokenIssuer
	mesh     MeshSyncer
	auditor  AuditPublisher

	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
	minFunding float64
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

func WithMinFunding(amount float64) Option {
	return func(s *Service) { s.minFunding = amount }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(ledger Ledger, signer Signer, verifier Verifier, tokens TokenIssuer, mesh MeshSyncer, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		ledger:     ledger,
		signer:     signer,
		verifier:   verifier,
		tokens:     tokens,
		mesh:       mesh,
		auditor:    auditor,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer("scrollvault/internal/scroll"),
		now:        time.Now,
		minFunding: DefaultMinFunding,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Intake signs a treaty submission, records it in the ledger and issues the
// claim-root license token bound to it.
func (s *Service) Intake(ctx context.Context, req models.IntakeRequest) (res *models.IntakeResult, err error) {
	ctx, span := s.tracer.Start(ctx, "scroll.Intake")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	amount, err := ParseFunding(req.FundingDeclaration)
	if err != nil {
		return nil, err
	}
	if amount < s.minFunding {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf(
			"minimum fuel load not met: required %s, provided %s",
			FormatUSD(s.minFunding), FormatUSD(amount)))
	}

	now := s.requestTime(ctx)
	position, err := s.ledger.NextPosition(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	}

	scroll := &models.Scroll{
		ID:               domain.NewScrollID(now).String(),
		AppConcept:       req.AppConcept,
		FundingAmount:    amount,
		TreatyPosition:   position,
		ScrollCompliance: req.ScrollCompliance,
		Timestamp:        now.Format(time.RFC3339),
		CreatedAt:        now,
		Metadata:         req.Metadata,
	}
	span.SetAttributes(
		attribute.String("scroll.id", scroll.ID),
		attribute.Int64("scroll.treaty_position", position),
	)

	sig, err := s.signer.Sign(scroll.Record())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign scroll")
	}
	scroll.Signature = sig.String()
	scroll.ClaimRootLicense = domain.NewClaimID(now).String()

	token, err := s.tokens.Issue(jwttoken.Claims{
		"scroll_id":          scroll.ID,
		"claim_root_license": scroll.ClaimRootLicense,
		"treaty_position":    position,
		"funding_amount":     amount,
	}, 0)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue license token")
	}

	if err := s.ledger.Save(ctx, scroll); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	}

	synced := s.mesh.Sync(ctx, map[string]any{
		"scroll_id":        scroll.ID,
		"treaty_position":  position,
		"scroll_signature": scroll.Signature,
	})

	s.metrics.IncrementScrollsSigned()
	s.metrics.IncrementLicensesIssued("claim_root")
	s.emit(ctx, audit.EventScrollSigned, scroll.ID, "signed", map[string]string{
		"treaty_position":    fmt.Sprint(position),
		"claim_root_license": scroll.ClaimRootLicense,
	})
	s.logger.InfoContext(ctx, "treaty intake processed",
		"request_id", requestcontext.RequestID(ctx),
		"scroll_id", scroll.ID,
		"treaty_position", position,
		"vault_mesh_sync", synced,
	)

	return &models.IntakeResult{
		Success:          true,
		Message:          models.IntakeMessage,
		ScrollID:         scroll.ID,
		TreatyPosition:   position,
		ClaimRootLicense: scroll.ClaimRootLicense,
		LicenseToken:     token,
		ScrollSignature:  scroll.Signature,
		VaultMeshSync:    synced,
		PlanetaryMotion:  models.PlanetaryMotionAuthorized,
		Timestamp:        now.Format(time.RFC3339),
	}, nil
}

// Validate checks a signature over caller-supplied scroll data. A signature
// that does not verify is a normal result, not an error.
func (s *Service) Validate(ctx context.Context, req models.ValidateRequest) (res *models.ValidateResult, err error) {
	ctx, span := s.tracer.Start(ctx, "scroll.Validate")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scroll.id", req.ScrollID))

	valid, err := s.verifier.Verify(req.ScrollData, req.Signature)
	if err != nil {
		if errors.Is(err, signing.ErrSigning) {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "scroll_data must be a flat object of primitive values")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify signature")
	}
	s.metrics.ObserveSignatureCheck(valid)

	now := s.requestTime(ctx)
	synced := false
	decision := "invalid"
	if valid {
		decision = "valid"
		synced = s.mesh.Sync(ctx, map[string]any{
			"scroll_id":  req.ScrollID,
			"validation": models.ValidationConfirmed,
			"timestamp":  now.Format(time.RFC3339),
		})
	}
	s.emit(ctx, audit.EventScrollValidated, req.ScrollID, decision, nil)
	s.logger.InfoContext(ctx, "scroll validation",
		"request_id", requestcontext.RequestID(ctx),
		"scroll_id", req.ScrollID,
		"signature_valid", valid,
	)

	return &models.ValidateResult{
		ScrollID:       req.ScrollID,
		SignatureValid: valid,
		VaultMeshSync:  synced,
		Timestamp:      now.Format(time.RFC3339),
	}, nil
}

// Get returns a recorded scroll.
func (s *Service) Get(ctx context.Context, scrollID string) (*models.Scroll, error) {
	id, err := domain.ParseScrollID(scrollID)
	if err != nil {
		return nil, err
	}
	scroll, err := s.ledger.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "scroll not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	}
	return scroll, nil
}

// PublicKey exposes the verification key in PEM form.
func (s *Service) PublicKey(_ context.Context) (*models.PublicKey, error) {
	pemBytes, err := s.signer.PublicKeyPEM()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode public key")
	}
	return &models.PublicKey{
		Algorithm: "RSA-PSS-SHA256",
		KeyBits:   s.signer.KeyBits(),
		PEM:       string(pemBytes),
	}, nil
}

func (s *Service) requestTime(ctx context.Context) time.Time {
	if t, ok := requestcontext.Time(ctx); ok {
		return t.UTC()
	}
	return s.now().UTC()
}

// emit records an audit event. Audit failures are logged and never fail the
// operation that triggered them.
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
