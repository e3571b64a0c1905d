package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"alias maps to canonical", "tech", "technology"},
		{"display name maps through slug", "Machine Learning", "machine-learning"},
		{"ai alias", "AI", "machine-learning"},
		{"canonical passes through", "programming", "programming"},
		{"unknown category slugified", "Urban Planning", "urban-planning"},
		{"empty stays empty", "", ""},
		{"whitespace stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.input))
		})
	}
}

func TestIsDefault(t *testing.T) {
	assert.True(t, IsDefault("technology"))
	assert.False(t, IsDefault("urban-planning"))
}

func TestDefault_AllCanonical(t *testing.T) {
	// Every built-in category must survive its own canonicalization.
	for _, slug := range Default {
		assert.Equal(t, slug, Canonicalize(slug))
	}
}
