package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// LicenseValidator validates a bearer license token.
type LicenseValidator interface {
	ValidateToken(tokenString string) (*LicenseClaims, error)
}

// LicenseClaims is the subset of a validated license token handlers care about.
type LicenseClaims struct {
	LicenseID string
	ScrollID  string
	ClaimRoot string
	Fields    map[string]any
	ExpiresAt time.Time
}

type contextKeyLicense struct{}

// ContextKeyLicense is exported for tests that inject claims directly.
var ContextKeyLicense = contextKeyLicense{}

// GetLicense returns the claims RequireLicense stored, or nil.
func GetLicense(ctx context.Context) *LicenseClaims {
	claims, ok := ctx.Value(ContextKeyLicense).(*LicenseClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithLicense injects claims into ctx.
func WithLicense(ctx context.Context, claims *LicenseClaims) context.Context {
	return context.WithValue(ctx, ContextKeyLicense, claims)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireLicense rejects requests without a valid "Authorization: Bearer
// <license token>" header.
func RequireLicense(validator LicenseValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing license token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid license token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithLicense(ctx, claims)))
		})
	}
}
