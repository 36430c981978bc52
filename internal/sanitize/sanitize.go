// Package sanitize cleans untrusted text before it reaches validation or storage.
package sanitize

import (
	"html"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MaxStringLength caps any single free-text field. Field-specific limits
// (headline, primary text) are enforced by validation, not here.
const MaxStringLength = 5000

// String strips markup and control characters, HTML-escapes and trims s.
// A '<' that does not open a complete tag is kept as text.
func String(s string) string {
	if s == "" {
		return ""
	}
	s = stripMarkup(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(html.EscapeString(s))
	return truncate(s, MaxStringLength)
}

// Email lower-cases and validates an address, returning "" when it does not
// parse as a bare address.
func Email(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return ""
	}
	return truncate(addr.Address, 254)
}

// Length counts the runes of a String result as the user typed them, so
// escaped entities count as one character.
func Length(s string) int {
	return utf8.RuneCountInString(html.UnescapeString(s))
}

// URL returns the trimmed absolute http(s) address, or "" when s is not one.
// URLs are not escaped so query strings survive intact.
func URL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n<>\"'`") {
		return ""
	}
	u, err := url.ParseRequestURI(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return truncate(s, MaxStringLength)
}

// Number returns v when it is finite and within the optional bounds, else nil.
func Number(v float64, lo, hi *float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if lo != nil && v < *lo {
		return nil
	}
	if hi != nil && v > *hi {
		return nil
	}
	return &v
}

// Object applies String to every string reachable from v through maps and
// slices as produced by encoding/json. Other values are returned unchanged.
func Object(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Object(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Object(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = String(item)
		}
		return out
	default:
		return v
	}
}

// Strings applies String to each element and drops the ones left empty.
func Strings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = String(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var tagPattern = regexp.MustCompile(`<!--[\s\S]*?-->|</?[A-Za-z][^<>]*>`)

func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeBareAngles(s)))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// escapeBareAngles turns every '<' outside a complete tag into an entity so
// the HTML parser reads it as text instead of opening a tag that swallows the
// rest of the input.
func escapeBareAngles(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range tagPattern.FindAllStringIndex(s, -1) {
		b.WriteString(strings.ReplaceAll(s[last:loc[0]], "<", "&lt;"))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.ReplaceAll(s[last:], "<", "&lt;"))
	return b.String()
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
