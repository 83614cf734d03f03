package models

import (
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "scrollvault/pkg/domain-errors"
)

// LicenseValidity is how long a claim-root license document stays valid.
const LicenseValidity = 365 * 24 * time.Hour

// GenerateRequest asks for a claim-root license. TreatyPosition defaults to
// the next position the ledger would hand out.
type GenerateRequest struct {
	AppID          string `json:"app_id"`
	LicenseeID     string `json:"licensee_id"`
	TreatyPosition *int64 `json:"treaty_position,omitempty"`
}

func (r *GenerateRequest) Validate() error {
	if !govalidator.StringLength(r.AppID, "1", "128") || !govalidator.IsPrintableASCII(r.AppID) {
		return dErrors.New(dErrors.CodeValidation, "app_id must be 1-128 printable characters")
	}
	if !govalidator.StringLength(r.LicenseeID, "1", "128") || !govalidator.IsPrintableASCII(r.LicenseeID) {
		return dErrors.New(dErrors.CodeValidation, "licensee_id must be 1-128 printable characters")
	}
	if r.TreatyPosition != nil && *r.TreatyPosition <= 0 {
		return dErrors.New(dErrors.CodeValidation, "treaty_position must be positive")
	}
	return nil
}

type License struct {
	LicenseID      string    `json:"license_id"`
	AppID          string    `json:"app_id"`
	LicenseeID     string    `json:"licensee_id"`
	TreatyPosition int64     `json:"treaty_position"`
	ScrollBound    bool      `json:"scroll_bound"`
	GeneratedAt    time.Time `json:"generated_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	PDFURL         string    `json:"pdf_url"`
}

type GenerateResult struct {
	Success       bool     `json:"success"`
	License       *License `json:"license"`
	Token         string   `json:"token"`
	TokenExpires  string   `json:"token_expires_at"`
	VaultMeshSync bool     `json:"vault_mesh_sync"`
}

type ValidateRequest struct {
	Token string `json:"token"`
}

// Status values reported by token validation.
const (
	StatusValid            = "valid"
	StatusExpired          = "expired"
	StatusInvalidSignature = "invalid_signature"
)

// ValidateResult describes a token check. Invalid tokens are reported here
// rather than as errors so callers can tell expired from forged.
type ValidateResult struct {
	Valid     bool           `json:"valid"`
	Status    string         `json:"status"`
	Claims    map[string]any `json:"claims,omitempty"`
	IssuedAt  *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}
