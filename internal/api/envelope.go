package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped only when the envelope structure itself
// changes. Clients check it before parsing the rest.
const envelopeVersion = 1

// envelope is the wire shape of every response. Success responses carry
// data; error responses carry a flat error plus the structured fields
// from APIError.
type envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope. Registered on the huma config at server construction.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}
	return envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
