package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Log field caps, in runes
const (
	MaxPathLength          = 500
	MaxIDLength            = 64
	MaxGeneralStringLength = 2000
	MaxDebugContentLength  = 10000
)

// SanitizePath cleans a URL path for logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeID cleans a client supplied identifier such as X-Request-ID.
// Anything outside [A-Za-z0-9._-] is dropped.
func SanitizeID(id string) string {
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, id)
	if len(id) > MaxIDLength {
		id = id[:MaxIDLength]
	}
	return id
}

// SanitizeString repairs UTF-8, drops control characters other than
// whitespace and truncates to maxLength runes. maxLength <= 0 means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
	if utf8.RuneCountInString(s) > maxLength {
		s = string([]rune(s)[:maxLength]) + "..."
	}
	return s
}
