package markov

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lastWordPattern = regexp.MustCompile(`([\p{L}\p{N}_']+[-\p{L}\p{N}_+]*)[^\p{L}\p{N}_]*$`)

// LastWord returns the trailing word of text, or "" if it has none. When text
// ends with a newline the newline is kept on the returned word.
func LastWord(text string) string {
	m := lastWordPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	word := m[1]
	if strings.HasSuffix(text, "\n") {
		word += "\n"
	}
	return word
}

// Capitalize title-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	// Casers keep state between calls, so each call gets its own.
	return cases.Title(language.Und).String(string(r)) + s[size:]
}

// AddString appends fragment to text, capitalising it first when asked.
func AddString(text, fragment string, capitalize bool) string {
	if capitalize {
		return text + Capitalize(fragment)
	}
	return text + fragment
}
