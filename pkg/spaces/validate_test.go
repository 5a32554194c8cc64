package spaces

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"single char", "A", true},
		{"normal name", "Team Notes", true},
		{"100 chars", strings.Repeat("a", 100), true},
		{"101 chars", strings.Repeat("a", 101), false},
		{"empty", "", false},
		{"blank after trim", "   ", false},
		{"padded but valid", "  hello  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateName(tt.input))
		})
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"normal slug", "my-space-1", true},
		{"single segment", "notes", true},
		{"digits only", "2024", true},
		{"uppercase", "My-Space", false},
		{"leading hyphen", "-leading", false},
		{"trailing hyphen", "trailing-", false},
		{"double hyphen", "double--hyphen", false},
		{"empty", "", false},
		{"space inside", "my space", false},
		{"underscore", "my_space", false},
		{"100 chars", strings.Repeat("a", 100), true},
		{"101 chars", strings.Repeat("a", 101), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSlug(tt.input))
		})
	}
}

func TestSlugFromName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Team Notes", "team-notes"},
		{"  My  Space!  ", "my-space"},
		{"Q3 2024 / Planning", "q3-2024-planning"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		got := SlugFromName(tt.input)
		assert.Equal(t, tt.want, got)
		if tt.want != "" {
			assert.True(t, ValidateSlug(got), "derived slug %q should validate", got)
		}
	}
}
