package service

import (
	"context"
	"time"

	jwttoken "scrollvault/internal/jwt_token"
	"scrollvault/internal/scroll/models"
	"scrollvault/internal/signing"
	audit "scrollvault/pkg/platform/audit"
)

// Ledger records signed scrolls and hands out treaty positions.
type Ledger interface {
	NextPosition(ctx context.Context) (int64, error)
	CurrentPosition(ctx context.Context) (int64, error)
	Save(ctx context.Context, scroll *models.Scroll) error
	FindByID(ctx context.Context, id string) (*models.Scroll, error)
	Count(ctx context.Context) (int64, error)
}

type Signer interface {
	Sign(record signing.Record) (signing.Signature, error)
	PublicKeyPEM() ([]byte, error)
	KeyBits() int
}

type Verifier interface {
	Verify(record signing.Record, signature string) (bool, error)
}

type TokenIssuer interface {
	Issue(claims jwttoken.Claims, ttl time.Duration) (string, error)
}

// MeshSyncer pushes a payload to the mesh and reports whether it was accepted.
type MeshSyncer interface {
	Sync(ctx context.Context, payload map[string]any) bool
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
