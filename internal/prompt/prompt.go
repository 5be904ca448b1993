// Package prompt handles assistant prompt generation and management
package prompt

import (
	"strings"

	"github.com/rs/zerolog"
)

// MaxTitleLen caps generated chat titles.
const MaxTitleLen = 60

// Source loads a custom system prompt.
type Source interface {
	AssistantPrompt() (string, error)
}

// Generator handles assistant prompt generation
type Generator struct {
	source Source
	log    zerolog.Logger
}

// NewGenerator creates a new prompt generator. A nil source means the default prompt.
func NewGenerator(src Source, log zerolog.Logger) *Generator {
	return &Generator{source: src, log: log}
}

// Generate returns the system prompt content (custom or default)
func (g *Generator) Generate() (string, error) {
	if g == nil || g.source == nil {
		return GetDefault(), nil
	}
	return g.source.AssistantPrompt()
}

// GenerateWithFallback returns the system prompt, or the default one if loading fails
func (g *Generator) GenerateWithFallback() string {
	p, err := g.Generate()
	if err != nil {
		g.log.Warn().Err(err).Msg("loading assistant prompt failed, using default")
		return GetDefault()
	}
	if strings.TrimSpace(p) == "" {
		return GetDefault()
	}
	return p
}

// CleanTitle normalizes a model-written title: first line only, surrounding quotes
// stripped, capped at MaxTitleLen runes.
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'`“”‘’ ")
	s = strings.TrimRight(s, ".")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxTitleLen {
		s = strings.TrimSpace(string(r[:MaxTitleLen]))
	}
	return s
}

// FallbackTitle is the immediate title for a new chat: the first 40 runes of the
// opening message plus an ellipsis, or the whole message when shorter.
func FallbackTitle(content string) string {
	content = strings.TrimSpace(content)
	r := []rune(content)
	if len(r) > 40 {
		return string(r[:40]) + "…"
	}
	if content == "" {
		return "New chat"
	}
	return content
}
