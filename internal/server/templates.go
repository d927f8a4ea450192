package server

import (
	"html/template"
	"strings"
	"time"

	"painel/internal/format"
	"painel/internal/validation"
)

// templateFuncs are the helpers available to every view.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"int":       formatInt,
		"decimal":   func(f float64) string { return format.Decimal(f, 1) },
		"pct":       format.Percent,
		"timestamp": func(t time.Time) string { return format.Timestamp(t) },
		"safeURL":   validation.SafeURL,
		"withQuery": withQuery,
		"exportURL": exportURL,
		"dict":      dict,
		"add":       func(a, b int) int { return a + b },
		"join":      strings.Join,
	}
}

func formatInt(v any) string {
	switch n := v.(type) {
	case int:
		return format.Int(n)
	case int64:
		return format.Int(n)
	case int32:
		return format.Int(int64(n))
	default:
		return "-"
	}
}

// withQuery joins a path and an encoded query string. The query comes from
// url.Values.Encode, so it is marked safe to keep "=" and "&" intact.
func withQuery(path, query string) template.URL {
	if query == "" {
		return template.URL(path)
	}
	return template.URL(path + "?" + query)
}

// exportURL builds the download link of an export in the given format.
func exportURL(name, query, formato string) template.URL {
	u := "/exportar/" + name + "?formato=" + formato
	if query != "" {
		u += "&" + query
	}
	return template.URL(u)
}

// dict builds a map from alternating keys and values, for passing several
// values to a partial.
func dict(pairs ...any) map[string]any {
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			m[k] = pairs[i+1]
		}
	}
	return m
}
