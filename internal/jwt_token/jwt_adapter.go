package jwttoken

import (
	"scrollvault/internal/platform/middleware"
)

// ToMiddlewareClaims flattens a validated token into the shape the bearer
// middleware stores on the request context.
func ToMiddlewareClaims(token *ValidatedToken) *middleware.LicenseClaims {
	str := func(key string) string {
		v, _ := token.Claims[key].(string)
		return v
	}
	return &middleware.LicenseClaims{
		LicenseID: str("license_id"),
		ScrollID:  str("scroll_id"),
		ClaimRoot: str("claim_root_license"),
		Fields:    token.Claims,
		ExpiresAt: token.ExpiresAt,
	}
}

type IssuerAdapter struct {
	issuer *Issuer
}

func NewIssuerAdapter(issuer *Issuer) *IssuerAdapter {
	return &IssuerAdapter{issuer: issuer}
}

func (a *IssuerAdapter) ValidateToken(tokenString string) (*middleware.LicenseClaims, error) {
	token, err := a.issuer.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(token), nil
}
