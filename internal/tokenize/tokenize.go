package tokenize

import (
	"iter"
	"regexp"
	"strings"
)

// Punctuation lists the marks that are kept as tokens of their own.
const Punctuation = ",.!?"

// tokenPattern matches either a word (letters, digits, underscore and
// apostrophe, with hyphens and '+' allowed after the first character) or a
// single punctuation mark. Both may carry one trailing newline.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_']+[-\p{L}\p{N}_+]*\n?|[.,!?]\n?`)

// Tokens yields the raw tokens of text in order. Characters that belong to no
// token are dropped. The sequence is lazy and may be ranged over repeatedly.
func Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		pos := 0
		for pos < len(text) {
			loc := tokenPattern.FindStringIndex(text[pos:])
			if loc == nil {
				return
			}
			if !yield(text[pos+loc[0] : pos+loc[1]]) {
				return
			}
			pos += loc[1]
		}
	}
}

// Split collects Tokens(text) into a slice.
func Split(text string) []string {
	var out []string
	for tok := range Tokens(text) {
		out = append(out, tok)
	}
	return out
}

// HasNewline reports whether tok carries a newline marker.
func HasNewline(tok string) bool {
	return strings.Contains(tok, "\n")
}

// IsPunctuation reports whether tok, once newline markers are trimmed, is a
// punctuation mark or nothing at all. A bare newline therefore counts as
// punctuation.
func IsPunctuation(tok string) bool {
	return strings.Contains(Punctuation, strings.Trim(tok, "\n"))
}
