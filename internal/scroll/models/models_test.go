package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollvault/internal/signing"
	dErrors "scrollvault/pkg/domain-errors"
)

func TestValidateRequest_Validate(t *testing.T) {
	base := func() ValidateRequest {
		return ValidateRequest{
			ScrollID:  "scroll_faa_1760778000_ab12cd34",
			Signature: "ab",
			ScrollData: signing.Record{
				FieldScrollID:       "scroll_faa_1760778000_ab12cd34",
				FieldFundingAmount:  json.Number("50000"),
				FieldTreatyPosition: json.Number("248"),
				FieldTimestamp:      "2026-10-18T09:00:00Z",
			},
		}
	}

	t.Run("flat record", func(t *testing.T) {
		req := base()
		assert.NoError(t, req.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*ValidateRequest)
	}{
		{"missing scroll id", func(r *ValidateRequest) { r.ScrollID = "" }},
		{"missing signature", func(r *ValidateRequest) { r.Signature = "" }},
		{"missing scroll data", func(r *ValidateRequest) { r.ScrollData = nil }},
		{"nested object", func(r *ValidateRequest) { r.ScrollData["metadata"] = map[string]any{"a": 1} }},
		{"array value", func(r *ValidateRequest) { r.ScrollData["positions"] = []any{1, 2} }},
		{"malformed number", func(r *ValidateRequest) { r.ScrollData[FieldFundingAmount] = json.Number("lots") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	t.Run("shape errors keep the signing cause", func(t *testing.T) {
		req := base()
		req.ScrollData["metadata"] = map[string]any{}
		assert.True(t, errors.Is(req.Validate(), signing.ErrSigning))
	})
}

func TestIntakeRequest_Validate(t *testing.T) {
	req := IntakeRequest{AppConcept: "  mesh relay  ", FundingDeclaration: "50000"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "mesh relay", req.AppConcept)

	req = IntakeRequest{AppConcept: "mesh relay"}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
}
