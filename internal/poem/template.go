package poem

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTemplate is a three word title followed by fifty words of text.
const DefaultTemplate = "**{.!3}**\n\n{.50}\n"

var (
	// ErrMalformedDirective is returned for directives whose count is not an
	// integer.
	ErrMalformedDirective = errors.New("malformed directive")
	// ErrUnknownBlock is returned when a directive refers to a block that has
	// not been generated yet.
	ErrUnknownBlock = errors.New("reference to unknown block")
)

var directivePattern = regexp.MustCompile(`\{[^}]+\}`)

// Directive asks for new text (Count > 0), a replay of block -Count (Count < 0)
// or a replay of the latest block (Count == 0).
type Directive struct {
	Count        int
	AllowNewline bool
	Capitalize   bool
}

// Generates reports whether the directive produces fresh text.
func (d Directive) Generates() bool { return d.Count > 0 }

// Ref returns the 1-based block a replay directive points at, or 0 for the
// latest block.
func (d Directive) Ref() int {
	if d.Count < 0 {
		return -d.Count
	}
	return 0
}

// Segment is either literal text or a directive.
type Segment struct {
	Literal   string
	Directive *Directive
}

// Template is a parsed template.
type Template struct {
	Segments []Segment
}

// Parse splits src into literal and directive segments. A directive is
// written {[!][.]N}: '!' forbids newlines, '.' capitalises the result and N
// generates N words, or replays block -N when negative and the latest block
// when zero.
func Parse(src string) (*Template, error) {
	tpl := &Template{}
	pos := 0
	for _, loc := range directivePattern.FindAllStringIndex(src, -1) {
		if loc[0] > pos {
			tpl.Segments = append(tpl.Segments, Segment{Literal: src[pos:loc[0]]})
		}
		d, err := parseDirective(src[loc[0]:loc[1]])
		if err != nil {
			return nil, err
		}
		tpl.Segments = append(tpl.Segments, Segment{Directive: &d})
		pos = loc[1]
	}
	if pos < len(src) {
		tpl.Segments = append(tpl.Segments, Segment{Literal: src[pos:]})
	}
	return tpl, nil
}

func parseDirective(raw string) (Directive, error) {
	body := strings.TrimSpace(strings.Trim(raw, "{}!."))
	n, err := strconv.Atoi(body)
	if err != nil {
		return Directive{}, fmt.Errorf("%w %q: %v", ErrMalformedDirective, raw, err)
	}
	return Directive{
		Count:        n,
		AllowNewline: !strings.Contains(raw, "!"),
		Capitalize:   strings.Contains(raw, "."),
	}, nil
}

// Words returns the number of words generated by one expansion, not counting
// replayed blocks. The sum saturates at math.MaxInt.
func (t *Template) Words() int {
	n := 0
	for _, s := range t.Segments {
		if s.Directive == nil || !s.Directive.Generates() {
			continue
		}
		if s.Directive.Count > math.MaxInt-n {
			return math.MaxInt
		}
		n += s.Directive.Count
	}
	return n
}

// Largest returns the biggest word count asked for by a single directive.
func (t *Template) Largest() int {
	n := 0
	for _, s := range t.Segments {
		if s.Directive != nil && s.Directive.Count > n {
			n = s.Directive.Count
		}
	}
	return n
}
