// Package web holds the server-rendered templates, embedded into the binary.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"nsreddit/internal/utils"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/multitemplate"
)

//go:embed templates
var templateFS embed.FS

const (
	layoutFile = "templates/layouts/base.html"
	partials   = "templates/partials/*.html"
)

// Views lists every page the handlers render, by the name they render it under.
var Views = []string{
	"auth/signin.html",
	"confirm.html",
	"error.html",
	"mod.html",
	"pages/comments-guidelines.html",
	"pages/guidelines.html",
	"profile/edit.html",
	"profile/public.html",
	"thread/detail.html",
	"thread/list.html",
	"thread/new.html",
}

// FuncMap is shared by all templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"timeAgo": func(t time.Time) string {
			return utils.TimeAgo(t)
		},
		"label": utils.AuthorLabel,
		"deref": utils.Deref,
		"excerpt": func(s string, n int) string {
			s = strings.Join(strings.Fields(s), " ")
			if utf8.RuneCountInString(s) <= n {
				return s
			}
			return string([]rune(s)[:n]) + "…"
		},
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return humanize.Comma(int64(n)) + " " + one
			}
			return humanize.Comma(int64(n)) + " " + many
		},
	}
}

// NewRenderer parses every view together with the layout and partials.
func NewRenderer() (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()
	funcs := FuncMap()

	for _, name := range Views {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, layoutFile, partials, "templates/views/"+name)
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", name, err)
		}
		r.Add(name, tmpl)
	}
	return r, nil
}
