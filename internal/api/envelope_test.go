package api

import (
	"encoding/json/v2"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{
			name:   "success response",
			status: "200",
			input:  map[string]string{"key": "value"},
		},
		{
			name:   "no content response",
			status: "204",
			input:  nil,
		},
		{
			name:   "bad request error",
			status: "400",
			input:  errors.New("invalid input"),
		},
		{
			name:   "conflict error with details",
			status: "409",
			input: &APIError{
				Code:    "CONFLICT",
				Message: "url already saved",
				Details: map[string]string{"link_id": "link_123"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			// The version field is named exactly "v"; clients key on it.
			require.Contains(t, envelope, "v")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
			assert.NotContains(t, envelope, "version")
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"name": "Test Link"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_ErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_ErrorWithDetails(t *testing.T) {
	apiErr := &APIError{
		Code:    "QUOTA_EXCEEDED",
		Message: "daily AI request limit reached (10)",
		Details: map[string]int{"limit": 10},
	}

	result, err := EnvelopeTransformer(nil, "429", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "expected APIErrorEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Equal(t, "QUOTA_EXCEEDED", envelope.Code)
	assert.Equal(t, "daily AI request limit reached (10)", envelope.Message)
	assert.Equal(t, map[string]int{"limit": 10}, envelope.Details)
}

func TestEnvelopeTransformer_SimpleAPIError(t *testing.T) {
	// An APIError without a code collapses to the plain error envelope.
	result, err := EnvelopeTransformer(nil, "404", &APIError{Message: "link not found"})
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "expected APIEnvelope type")
	assert.Equal(t, "link not found", envelope.Error)
	assert.False(t, envelope.Success)
}
