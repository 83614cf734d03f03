package testutil

import (
	"net/http"

	"scrollvault/internal/platform/middleware"
	"scrollvault/pkg/requestcontext"
)

// WithLicense attaches license claims to the request context, the way
// RequireLicense does for a valid bearer token.
func WithLicense(req *http.Request, claims *middleware.LicenseClaims) *http.Request {
	return req.WithContext(middleware.WithLicense(req.Context(), claims))
}

// WithRequestID attaches a request id to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithBearer sets the Authorization header to a bearer token.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithAdminToken sets the operator token header for admin routes.
func WithAdminToken(req *http.Request, token string) *http.Request {
	req.Header.Set(middleware.AdminTokenHeader, token)
	return req
}
