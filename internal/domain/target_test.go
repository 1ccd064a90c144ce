package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTargetURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"keeps https", "https://example.com", "https://example.com"},
		{"keeps http", "http://example.com/path", "http://example.com/path"},
		{"prepends https", "example.com", "https://example.com"},
		{"prepends https with path", "example.com/some/page?q=1", "https://example.com/some/page?q=1"},
		{"trims whitespace", "  example.com  ", "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTargetURL(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeTargetURL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no domain", "localhost"},
		{"bare word", "notaurl"},
		{"scheme only", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeTargetURL(tt.input)
			assert.ErrorIs(t, err, ErrInvalidTarget)
		})
	}
}
