package contact

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxInputLength caps every HTML-safe field.
	MaxInputLength = 1000
	// MaxPlainTextLength caps fields rendered into the plain-text email body.
	MaxPlainTextLength = 5000
)

// javascript: and data: URLs, and inline handlers such as onclick= or onerror=.
var dangerousPattern = regexp.MustCompile(`(?i)javascript:|data:|on\w+=`)

// Sanitize turns untrusted input into a string that is safe to interpolate
// into HTML. It is total and idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
//
// Entities are decoded before escaping so that pre-escaped input does not
// grow on every pass, and so that encoded payloads such as
// "java&#115;cript:" are caught by the pattern strip.
func Sanitize(raw string) string {
	s := html.UnescapeString(strings.TrimSpace(raw))
	s = stripDangerous(s)
	s = truncateEscaped(html.EscapeString(s), MaxInputLength)
	return strings.TrimSpace(s)
}

// SanitizeForPlainText removes angle brackets and caps the length. The result
// is meant for the text/plain part of an email where HTML entities would be
// shown literally.
func SanitizeForPlainText(raw string) string {
	s := strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(raw))
	return strings.TrimSpace(truncateRunes(s, MaxPlainTextLength))
}

func stripDangerous(s string) string {
	// Removing one match can splice together another ("jajavascript:vascript:").
	for {
		next := dangerousPattern.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// truncateEscaped never leaves half an entity such as "&am" at the end.
func truncateEscaped(s string, max int) string {
	cut := truncateRunes(s, max)
	if len(cut) == len(s) {
		return s
	}
	if amp := strings.LastIndexByte(cut, '&'); amp >= 0 && !strings.Contains(cut[amp:], ";") {
		cut = cut[:amp]
	}
	return cut
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
