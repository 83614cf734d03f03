package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"scrollvault/internal/signing"
	dErrors "scrollvault/pkg/domain-errors"
)

// Record field names. They are part of the signed payload, so renaming one
// invalidates every signature already issued.
const (
	FieldScrollID         = "scroll_id"
	FieldAppConcept       = "app_concept"
	FieldFundingAmount    = "funding_amount"
	FieldTreatyPosition   = "treaty_position"
	FieldScrollCompliance = "scroll_compliance"
	FieldTimestamp        = "timestamp"
)

const (
	PlanetaryMotionAuthorized = "AUTHORIZED"
	IntakeMessage             = "VOORWAARD MARS - Planetary motion authorized"
	ValidationConfirmed       = "CONFIRMED"
)

// Scroll is a signed treaty intake as kept in the ledger.
type Scroll struct {
	ID               string    `json:"scroll_id"`
	AppConcept       string    `json:"app_concept"`
	FundingAmount    float64   `json:"funding_amount"`
	TreatyPosition   int64     `json:"treaty_position"`
	ScrollCompliance bool      `json:"scroll_compliance"`
	Timestamp        string    `json:"timestamp"`
	Signature        string    `json:"scroll_signature"`
	ClaimRootLicense string    `json:"claim_root_license"`
	CreatedAt        time.Time `json:"created_at"`

	// Metadata travels with the scroll but is not part of the signed record.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Record returns the exact payload that was signed for s.
func (s *Scroll) Record() signing.Record {
	return signing.Record{
		FieldScrollID:         s.ID,
		FieldAppConcept:       s.AppConcept,
		FieldFundingAmount:    s.FundingAmount,
		FieldTreatyPosition:   s.TreatyPosition,
		FieldScrollCompliance: s.ScrollCompliance,
		FieldTimestamp:        s.Timestamp,
	}
}

// IntakeRequest is the treaty-sync submission.
type IntakeRequest struct {
	AppConcept         string            `json:"app_concept"`
	FundingDeclaration string            `json:"funding_declaration"`
	ScrollCompliance   bool              `json:"scroll_compliance"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

func (r *IntakeRequest) Validate() error {
	r.AppConcept = strings.TrimSpace(r.AppConcept)
	if !govalidator.StringLength(r.AppConcept, "1", "512") {
		return dErrors.New(dErrors.CodeValidation, "app_concept must be 1-512 characters")
	}
	if !govalidator.StringLength(strings.TrimSpace(r.FundingDeclaration), "1", "64") {
		return dErrors.New(dErrors.CodeValidation, "funding_declaration is required")
	}
	if len(r.Metadata) > 32 {
		return dErrors.New(dErrors.CodeValidation, "metadata may hold at most 32 entries")
	}
	return nil
}

type IntakeResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ScrollID         string `json:"scroll_id"`
	TreatyPosition   int64  `json:"treaty_position"`
	ClaimRootLicense string `json:"claim_root_license"`
	LicenseToken     string `json:"license_token"`
	ScrollSignature  string `json:"scroll_signature"`
	VaultMeshSync    bool   `json:"vault_mesh_sync"`
	PlanetaryMotion  string `json:"planetary_motion"`
	Timestamp        string `json:"timestamp"`
}

// ValidateRequest asks whether Signature was produced over ScrollData.
type ValidateRequest struct {
	ScrollID   string         `json:"scroll_id"`
	Signature  string         `json:"signature"`
	ScrollData signing.Record `json:"scroll_data"`
}

func (r *ValidateRequest) Validate() error {
	if !govalidator.StringLength(r.ScrollID, "1", "128") {
		return dErrors.New(dErrors.CodeValidation, "scroll_id is required")
	}
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	if r.ScrollData == nil {
		return dErrors.New(dErrors.CodeValidation, "scroll_data is required")
	}
	if err := signing.Validate(r.ScrollData); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "scroll_data must be a flat object of primitive values")
	}
	return nil
}

type ValidateResult struct {
	ScrollID       string `json:"scroll_id"`
	SignatureValid bool   `json:"signature_valid"`
	VaultMeshSync  bool   `json:"vault_mesh_sync"`
	Timestamp      string `json:"timestamp"`
}

// PublicKey is the verifier material clients need to check signatures offline.
type PublicKey struct {
	Algorithm string `json:"algorithm"`
	KeyBits   int    `json:"key_bits"`
	PEM       string `json:"public_key_pem"`
}
