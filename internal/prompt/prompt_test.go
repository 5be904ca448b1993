package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	text string
	err  error
}

func (s stubSource) AssistantPrompt() (string, error) { return s.text, s.err }

func TestGenerateWithFallback(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"nil source", nil, GetDefault()},
		{"custom", stubSource{text: "Be terse."}, "Be terse."},
		{"error falls back", stubSource{err: errors.New("no file")}, GetDefault()},
		{"blank falls back", stubSource{text: "  \n"}, GetDefault()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.src, zerolog.Nop())
			assert.Equal(t, tt.want, g.GenerateWithFallback())
		})
	}
}

func TestFallbackTitle(t *testing.T) {
	assert.Equal(t, "short question", FallbackTitle("  short question "))
	assert.Equal(t, "New chat", FallbackTitle("   "))

	long := strings.Repeat("a", 39) + "é" + "tail"
	assert.Equal(t, strings.Repeat("a", 39)+"é…", FallbackTitle(long))

	exact := strings.Repeat("b", 40)
	assert.Equal(t, exact, FallbackTitle(exact))
}

func TestCleanTitle(t *testing.T) {
	tests := map[string]string{
		`"Quarterly budget review"`:       "Quarterly budget review",
		"Trip planning.\nExtra line":      "Trip planning",
		"  “Fixing the login bug”  ":      "Fixing the login bug",
		strings.Repeat("x", MaxTitleLen+5): strings.Repeat("x", MaxTitleLen),
		"":                                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanTitle(in), "CleanTitle(%q)", in)
	}
}
