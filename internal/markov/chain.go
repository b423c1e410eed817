package markov

import (
	"cmp"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/ent0n29/markovchat/internal/corpus"
	"github.com/ent0n29/markovchat/internal/tokenize"
)

var (
	// ErrEmptyCorpus is returned when there is nothing to generate from.
	ErrEmptyCorpus = errors.New("markov: empty corpus")
	// ErrStalled is returned when a walk stops producing counted words.
	ErrStalled = errors.New("markov: generation stalled")
)

// maxStall bounds consecutive iterations without a counted word. Corpora made
// only of punctuation would otherwise loop forever.
const maxStall = 1000

// Chain is a read-only view of a Corpus prepared for walking. It is safe for
// concurrent use; every walk takes its own random source.
type Chain struct {
	keys  []string
	ranks map[string][]string
}

// NewChain prepares c for generation. The corpus must not be modified
// afterwards.
func NewChain(c corpus.Corpus) (*Chain, error) {
	if len(c) == 0 {
		return nil, ErrEmptyCorpus
	}
	ch := &Chain{
		keys:  c.Keys(),
		ranks: make(map[string][]string, len(c)),
	}
	for prev, succ := range c {
		ch.ranks[prev] = rank(succ)
	}
	return ch, nil
}

// rank orders successors by descending count. Ties are broken on the token so
// that the order does not depend on map iteration.
func rank(succ map[string]int) []string {
	words := make([]string, 0, len(succ))
	for w := range succ {
		words = append(words, w)
	}
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(succ[a], succ[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	slices.Reverse(words)
	return words
}

// Len returns the number of predecessor tokens.
func (c *Chain) Len() int { return len(c.keys) }

func (c *Chain) randomKey(rng *rand.Rand) string {
	return c.keys[rng.IntN(len(c.keys))]
}

// Walk generates text holding exactly words counted tokens, starting from the
// context of start. An empty start picks a random predecessor.
func (c *Chain) Walk(rng *rand.Rand, start string, allowNewline bool, words int) (string, error) {
	steps, err := c.WalkTokens(rng, start, allowNewline, words)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(s.Token)
	}
	return b.String(), nil
}

// WalkTokens is Walk returning every emitted token separately.
func (c *Chain) WalkTokens(rng *rand.Rand, start string, allowNewline bool, words int) ([]Prepared, error) {
	if c == nil || len(c.keys) == 0 {
		return nil, ErrEmptyCorpus
	}

	prev := start
	if strings.TrimSpace(prev) == "" {
		prev = c.randomKey(rng)
	}

	var (
		text  strings.Builder
		steps []Prepared
		stall int
	)
	emit := func(p Prepared) {
		if p.Emitted {
			text.WriteString(p.Token)
			steps = append(steps, p)
		}
		if p.Counted {
			words--
			stall = 0
		}
	}

	for words > 0 {
		if stall++; stall > maxStall {
			return nil, ErrStalled
		}

		if prev == "" {
			// Dead end: redraw until a predecessor survives formatting. It
			// only makes it into the text when it counts as a word.
			p := Prepare(text.String(), c.randomKey(rng), allowNewline)
			if !p.Emitted {
				continue
			}
			if p.Counted {
				emit(p)
			}
			prev = p.Token
			if words == 0 {
				break
			}
		}

		candidates, ok := c.ranks[strings.ToLower(strings.Trim(prev, " "))]
		if !ok || len(candidates) == 0 {
			prev = ""
			continue
		}

		if words == 1 && len(candidates) > 1 {
			candidates = preferLineEnds(candidates)
		}

		next := pick(rng, candidates)
		emit(Prepare(text.String(), next, allowNewline))
		prev = next
	}
	return steps, nil
}

// preferLineEnds keeps only the candidates that carry a newline marker, if
// there are any.
func preferLineEnds(candidates []string) []string {
	ends := make([]string, 0, len(candidates))
	for _, w := range candidates {
		if tokenize.HasNewline(w) {
			ends = append(ends, w)
		}
	}
	if len(ends) == 0 {
		return candidates
	}
	return ends
}

// pick draws k from [0, len); k == 0 takes the most frequent candidate,
// otherwise the choice is uniform over the k most frequent ones.
func pick(rng *rand.Rand, ranked []string) string {
	k := rng.IntN(len(ranked))
	if k == 0 {
		return ranked[0]
	}
	return ranked[rng.IntN(k)]
}
