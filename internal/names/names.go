// Package names holds the normalization rules shared by user and donor
// records, plus the codec for the stored alt-name representation.
package names

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyName is returned when a name is blank after trimming.
var ErrEmptyName = errors.New("name is empty")

// Normalize trims surrounding whitespace and uppercases the first letter,
// leaving the rest of the name unchanged.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyName
	}

	first, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(first)) + trimmed[size:], nil
}

// ParseAltNames splits a comma-delimited list into normalized names. Blank
// segments are dropped; an empty input yields an empty list.
func ParseAltNames(raw string) []string {
	parts := strings.Split(raw, ",")
	parsed := make([]string, 0, len(parts))
	for _, part := range parts {
		name, err := Normalize(part)
		if err != nil {
			continue
		}
		parsed = append(parsed, name)
	}
	return parsed
}

// FormatStoredAltNames renders an alt-name list in the stored form, e.g.
// {Bob,Robert}. Names must not contain commas or braces; see HasReservedChars.
func FormatStoredAltNames(altNames []string) string {
	return "{" + strings.Join(altNames, ",") + "}"
}

// ParseStoredAltNames reads the stored {A,B} form back into a list.
func ParseStoredAltNames(stored string) []string {
	stored = strings.TrimPrefix(stored, "{")
	stored = strings.TrimSuffix(stored, "}")
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, ",")
}

// HasReservedChars reports whether a name contains characters that are
// structural in the stored alt-name representation. Such names are rejected
// at input validation because the format has no escaping.
func HasReservedChars(name string) bool {
	return strings.ContainsAny(name, "{},")
}
