package httphandler

import (
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"
)

const ellipsis = "..."

// TemplateFuncs returns the custom template functions for HTML templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate":  truncate,
		"pluralize": pluralize,
		"initials":  initials,
		"add":       func(a, b int) int { return a + b },
	}
}

// truncate shortens s to n runes, ending in "..." when cut.
// Arguments are (n int, s string) to work with template pipes: {{.Name | truncate 30}}
func truncate(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= len(ellipsis) {
		return string(runes[:n])
	}
	return string(runes[:n-len(ellipsis)]) + ellipsis
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

func initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}

	first, _ := utf8.DecodeRuneInString(parts[0])
	result := []rune{unicode.ToUpper(first)}
	if len(parts) > 1 {
		last, _ := utf8.DecodeRuneInString(parts[len(parts)-1])
		result = append(result, unicode.ToUpper(last))
	}
	return string(result)
}
