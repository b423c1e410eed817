package markov

import (
	"regexp"
	"strings"

	"github.com/ent0n29/markovchat/internal/tokenize"
)

// Prepared is the outcome of fitting a candidate token onto generated text.
type Prepared struct {
	// Token is the text to append, including any leading space. It is empty
	// when the candidate was discarded.
	Token string
	// Emitted reports whether Token should be appended at all.
	Emitted bool
	// Counted reports whether the token counts toward the requested words.
	Counted bool
}

// blankLineTail matches text that ends with a newline followed only by
// non-word characters.
var blankLineTail = regexp.MustCompile(`\n[^\p{L}\p{N}_]*$`)

// Prepare decides how tok is appended to text. Newline markers are removed
// from tok unless allowNewline is set.
func Prepare(text, tok string, allowNewline bool) Prepared {
	if bare := strings.TrimRight(tok, "\n"); bare == "i" || strings.HasPrefix(bare, "i'") {
		tok = Capitalize(tok)
	}
	if !allowNewline {
		tok = strings.Trim(tok, "\n")
	}

	punct := tokenize.IsPunctuation(tok)

	// Punctuation never opens a line.
	if punct && blankLineTail.MatchString(text) {
		return Prepared{}
	}

	if strings.HasSuffix(text, "\n") {
		return Prepared{Token: Capitalize(tok), Emitted: true, Counted: true}
	}

	if !punct {
		if text == "" {
			return Prepared{Token: tok, Emitted: true, Counted: true}
		}
		return Prepared{Token: " " + tok, Emitted: true, Counted: true}
	}

	return Prepared{Token: tok, Emitted: true}
}
