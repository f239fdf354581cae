// Package utils holds the identifier case conversions shared by the IR
// builder and the emitters.
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// RemoveAccents folds accented letters onto their base form
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Words splits s into words on separators and case boundaries. Runs of
// capitals stay together until the last one that starts a lowercase word,
// so "XMLHttpRequest" yields XML, Http, Request.
func Words(s string) []string {
	s = RemoveAccents(strings.TrimSpace(s))
	var words []string
	for _, chunk := range nonAlnum.Split(s, -1) {
		if chunk != "" {
			words = append(words, SplitCamelCase(chunk)...)
		}
	}
	return words
}

// SplitCamelCase splits a single camelCase or PascalCase token
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	start := 0
	rs := []rune(s)
	for i := 1; i < len(rs); i++ {
		if !isUpper(rs[i]) {
			continue
		}
		lowerBefore := !isUpper(rs[i-1])
		acronymEnd := i+1 < len(rs) && !isUpper(rs[i+1]) && isUpper(rs[i-1])
		if lowerBefore || acronymEnd {
			parts = append(parts, string(rs[start:i]))
			start = i
		}
	}
	return append(parts, string(rs[start:]))
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// ToPascal joins the words of s with each word capitalized and the rest of
// it lowercased: "get /users/{id}" becomes GetUsersId.
func ToPascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}
	return b.String()
}

// ToCamel is ToPascal with a lowercase first letter
func ToCamel(s string) string {
	p := ToPascal(s)
	if p == "" {
		return ""
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// ToKebab joins the lowercased words of s with hyphens
func ToKebab(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}
