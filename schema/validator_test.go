package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizedItem struct {
	Name  string `json:"name" jsonschema:"required"`
	Count int    `json:"count"`
}

func TestValidateJSON(t *testing.T) {
	v, err := ForType("sized-item", &sizedItem{})
	require.NoError(t, err)

	assert.NoError(t, v.ValidateJSON([]byte(`{"name":"a","count":3}`)))
	assert.NoError(t, v.ValidateJSON([]byte(`{"name":"a","count":12345678901234567890}`)))

	err = v.ValidateJSON([]byte(`{"name":"a","count":1.5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	err = v.ValidateJSON([]byte(`{"count":1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sized-item")

	err = v.ValidateJSON([]byte(`{"name":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestValidateMarshalsValues(t *testing.T) {
	v, err := ForType("sized-item", &sizedItem{})
	require.NoError(t, err)

	assert.NoError(t, v.Validate(sizedItem{Name: "a", Count: 2}))
	assert.Error(t, v.Validate(map[string]any{"count": "two"}))
}
