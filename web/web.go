// Package web holds the server-rendered pages of the public website.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"date":  formatDate,
	"score": formatScore,
}

// Templates parses every embedded page. Each page is a named template
// that pulls in the shared "header" and "footer" blocks.
func Templates() (*template.Template, error) {
	return template.New("web").Funcs(funcs).ParseFS(files, "templates/*.html")
}

// MustTemplates is Templates for process startup.
func MustTemplates() *template.Template {
	t, err := Templates()
	if err != nil {
		panic(fmt.Sprintf("web: parse templates: %v", err))
	}
	return t
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("Jan 2, 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("Jan 2, 2006")
	}
	return ""
}

func formatScore(v any) string {
	switch s := v.(type) {
	case float64:
		return fmt.Sprintf("%.1f", s)
	case *float64:
		if s == nil {
			return ""
		}
		return fmt.Sprintf("%.1f", *s)
	}
	return ""
}
