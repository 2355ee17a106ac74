package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSwagger(t *testing.T) {
	raw := NewSwagger().MustToJson()

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "/api", doc.BasePath)
	for _, path := range []string{
		"/selfie/analyze",
		"/selfie/event",
		"/analyze/metrics",
		"/analyze/classify",
		"/admin/users",
		"/admin/analytics",
	} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.Contains(t, doc.Paths["/selfie/analyze"], "post")
}
