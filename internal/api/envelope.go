package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire version of the response envelope. Clients
// check this before parsing the rest of the body.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response and simple errors.
// The version field MUST serialize as "v"; clients key on it.
type APIEnvelope struct {
	Version int    `json:"v" doc:"Envelope version"`
	Success bool   `json:"success" doc:"Whether the request succeeded"`
	Data    any    `json:"data,omitempty" doc:"Response payload"`
	Error   string `json:"error,omitempty" doc:"Error message for failures"`
}

// APIErrorEnvelope wraps errors that carry a machine-readable code.
type APIErrorEnvelope struct {
	Version int    `json:"v" doc:"Envelope version"`
	Success bool   `json:"success" doc:"Always false"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// EnvelopeTransformer wraps every response body in the versioned envelope.
// Registered as a huma transformer so handlers return plain DTOs.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 500
	}
	success := code < 400

	if apiErr, ok := v.(*APIError); ok {
		if apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   apiErr.Message,
		}, nil
	}

	if respErr, ok := v.(error); ok {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   respErr.Error(),
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: success,
		Data:    v,
	}, nil
}
