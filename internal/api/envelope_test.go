package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer_Success(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]string{"hello": "world"})
	require.NoError(t, err)

	env, ok := out.(envelope)
	require.True(t, ok)
	assert.Equal(t, envelopeVersion, env.V)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Error)
}

func TestEnvelopeTransformer_Error(t *testing.T) {
	apiErr := &APIError{
		status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "article not found",
	}

	out, err := EnvelopeTransformer(nil, "404", apiErr)
	require.NoError(t, err)

	env, ok := out.(envelope)
	require.True(t, ok)
	assert.False(t, env.Success)
	assert.Equal(t, "article not found", env.Error)
	assert.Equal(t, "article not found", env.Message)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Nil(t, env.Data)
}

// Clients key off the literal wire shape; field names are part of the
// API contract.
func TestEnvelope_WireFormat(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]int{"n": 1})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "v")
	assert.Contains(t, decoded, "success")
	assert.Contains(t, decoded, "data")
	assert.NotContains(t, decoded, "version")
	assert.NotContains(t, decoded, "error")
}
