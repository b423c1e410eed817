package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Corpus maps a predecessor token to its successors and how often each
// successor was observed after it.
type Corpus map[string]map[string]int

// New returns an empty Corpus.
func New() Corpus {
	return make(Corpus)
}

// Add records one observation of next following prev.
func (c Corpus) Add(prev, next string) {
	succ, ok := c[prev]
	if !ok {
		succ = make(map[string]int)
		c[prev] = succ
	}
	succ[next]++
}

// Keys returns every predecessor in sorted order.
func (c Corpus) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Edges returns the number of distinct predecessor/successor pairs.
func (c Corpus) Edges() int {
	n := 0
	for _, succ := range c {
		n += len(succ)
	}
	return n
}

// Validate checks that every token is non-empty and every count is
// non-negative.
func (c Corpus) Validate() error {
	for prev, succ := range c {
		if prev == "" {
			return fmt.Errorf("corpus: empty predecessor token")
		}
		for next, n := range succ {
			if next == "" {
				return fmt.Errorf("corpus: empty successor token after %q", prev)
			}
			if n < 0 {
				return fmt.Errorf("corpus: negative count %d for %q -> %q", n, prev, next)
			}
		}
	}
	return nil
}

// Read decodes a JSON corpus document.
func Read(r io.Reader) (Corpus, error) {
	c := New()
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	if c == nil {
		c = New()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadFile reads a JSON corpus document from path.
func ReadFile(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes c as JSON with sorted keys. When pretty is set the document
// is indented with four spaces.
func Write(w io.Writer, c Corpus, pretty bool) error {
	if c == nil {
		c = New()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return nil
}

// String renders the corpus compactly, mostly for logs and test failures.
func (c Corpus) String() string {
	var b strings.Builder
	_ = Write(&b, c, false)
	return strings.TrimSpace(b.String())
}
