package routes

import (
	"html/template"
	"strings"

	"github.com/argushq/argus/internal/threads"
)

const summaryLen = 120

// FuncMap holds the helpers every page template may call.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"threadDate": threadDate,
		"truncate":   truncate,
		"summary":    func(s string) string { return truncate(summaryLen, s) },
	}
}

// ParseTemplates loads the page templates matching pattern with FuncMap installed.
func ParseTemplates(pattern string) (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseGlob(pattern)
}

// threadDate formats the date a thread is ordered by. Dates that do not parse are
// shown as Lobby sent them.
func threadDate(t threads.Thread) string {
	d, ok := threads.ParseDate(t.DateField())
	if !ok {
		return t.DateField()
	}
	return d.Format("Jan 2, 2006 15:04")
}

func truncate(n int, s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
