package service

import (
	"context"
	"time"

	jwttoken "scrollvault/internal/jwt_token"
	audit "scrollvault/pkg/platform/audit"
)

type TokenIssuer interface {
	IssueWithExpiry(claims jwttoken.Claims, ttl time.Duration) (string, time.Time, error)
	Validate(token string) (*jwttoken.ValidatedToken, error)
}

// PositionSource reports the last treaty position handed out.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (int64, error)
}

type MeshSyncer interface {
	Sync(ctx context.Context, payload map[string]any) bool
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
