package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/hiveapp/hive-server/internal/errors"
	"github.com/hiveapp/hive-server/internal/store"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   domainerrors.Code
	}{
		{"validation", domainerrors.Validation("bad"), http.StatusBadRequest, domainerrors.CodeValidation},
		{"invalid progress", domainerrors.InvalidProgress("nope", nil), http.StatusUnprocessableEntity, domainerrors.CodeInvalidProgress},
		{"already member", domainerrors.AlreadyMember(), http.StatusConflict, domainerrors.CodeAlreadyMember},
		{"metadata unavailable", domainerrors.MetadataUnavailable(errors.New("timeout")), http.StatusBadGateway, domainerrors.CodeMetadataUnavailable},
		{"rate limited", domainerrors.RateLimited(3 * time.Second), http.StatusTooManyRequests, domainerrors.CodeRateLimited},
		{"wrapped domain", fmt.Errorf("admit: %w", domainerrors.NotFoundf("gone")), http.StatusNotFound, domainerrors.CodeNotFound},
		{"store not found", store.ErrNotFound.WithMessage("title not found"), http.StatusNotFound, domainerrors.CodeNotFound},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, domainerrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *APIError
			require.ErrorAs(t, toAPIError(tt.err), &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, string(tt.wantCode), apiErr.Code)
		})
	}
}

func TestToAPIError_HidesInternalDetail(t *testing.T) {
	var apiErr *APIError
	require.ErrorAs(t, toAPIError(errors.New("sqlite: database is locked")), &apiErr)
	assert.NotContains(t, apiErr.Message, "sqlite")

	require.ErrorAs(t, toAPIError(domainerrors.MetadataUnavailable(errors.New("tmdb: server error"))), &apiErr)
	assert.Equal(t, domainerrors.CodeMetadataUnavailable.Reason(), apiErr.Message)
}

func TestToAPIError_RetryAfterHeader(t *testing.T) {
	var apiErr *APIError
	require.ErrorAs(t, toAPIError(domainerrors.RateLimited(1500*time.Millisecond)), &apiErr)

	assert.Equal(t, "2", apiErr.GetHeaders().Get("Retry-After"))
	assert.Equal(t, domainerrors.RateLimitDetails{RetryAfterSeconds: 2}, apiErr.Details)
}

func TestToAPIError_Nil(t *testing.T) {
	assert.NoError(t, toAPIError(nil))
}

func TestRegisterErrorHandler(t *testing.T) {
	RegisterErrorHandler()

	err := huma.NewError(http.StatusUnprocessableEntity, "validation failed", &huma.ErrorDetail{
		Message:  "expected required property external_id to be present",
		Location: "body",
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.GetStatus())
	assert.Equal(t, string(domainerrors.CodeValidation), apiErr.Code)
	assert.Len(t, apiErr.Details, 1)

	err = huma.NewError(http.StatusInternalServerError, "wrapped", domainerrors.AlreadyMember())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.GetStatus())
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, string(domainerrors.CodeValidation), statusToCode(http.StatusBadRequest))
	assert.Equal(t, string(domainerrors.CodeUnauthorized), statusToCode(http.StatusUnauthorized))
	assert.Equal(t, string(domainerrors.CodeNotFound), statusToCode(http.StatusNotFound))
	assert.Equal(t, string(domainerrors.CodeRateLimited), statusToCode(http.StatusTooManyRequests))
	assert.Equal(t, string(domainerrors.CodeInternal), statusToCode(http.StatusTeapot))
}

func TestEnvelopeTransformer(t *testing.T) {
	data := map[string]string{"name": "Breaking Bad"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)
	envelope, ok := result.(APIEnvelope)
	require.True(t, ok)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)

	result, err = EnvelopeTransformer(nil, "409", &APIError{
		Code:    string(domainerrors.CodeAlreadyMember),
		Message: "already",
		Details: map[string]string{"title_id": "ttl-1"},
	})
	require.NoError(t, err)
	errEnvelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok)
	assert.False(t, errEnvelope.Success)
	assert.Equal(t, string(domainerrors.CodeAlreadyMember), errEnvelope.Code)
	assert.Equal(t, map[string]string{"title_id": "ttl-1"}, errEnvelope.Details)

	result, err = EnvelopeTransformer(nil, "500", errors.New("boom"))
	require.NoError(t, err)
	envelope, ok = result.(APIEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	assert.Equal(t, "boom", envelope.Error)
}
