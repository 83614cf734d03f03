package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesCauseAndCode(t *testing.T) {
	cause := errors.New("redis: connection refused")
	err := Wrap(cause, CodeUnavailable, "ledger unavailable")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeUnavailable))
	assert.Equal(t, "ledger unavailable", MessageOf(err))
}

func TestWrap_NilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
}

func TestHasCode_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("intake: %w", New(CodeBadRequest, "minimum fuel load not met"))

	assert.True(t, Is(err, CodeBadRequest))
	assert.False(t, Is(err, CodeInternal))
	assert.Equal(t, CodeBadRequest, CodeOf(err))
	assert.ErrorIs(t, err, New(CodeBadRequest, "minimum fuel load not met"))
}

func TestCodeOf_PlainErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Empty(t, MessageOf(err))
}

func TestMessageOf_InternalIsHidden(t *testing.T) {
	assert.Empty(t, MessageOf(New(CodeInternal, "db password wrong")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("something_else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
