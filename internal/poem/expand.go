package poem

import (
	"fmt"
	"math/rand/v2"

	"github.com/ent0n29/markovchat/internal/markov"
)

// Generator produces words counted words continuing from start.
type Generator interface {
	Walk(rng *rand.Rand, start string, allowNewline bool, words int) (string, error)
}

// Engine expands templates against one generator.
type Engine struct {
	gen Generator
	rng *rand.Rand
	// OnGenerate, when set, is called before each generating directive runs.
	OnGenerate func(words int)
}

// NewEngine returns an Engine drawing randomness from rng. An Engine is not
// safe for concurrent use; create one per goroutine.
func NewEngine(gen Generator, rng *rand.Rand) *Engine {
	return &Engine{gen: gen, rng: rng}
}

// Expand parses src and expands it.
func (e *Engine) Expand(src string) (string, error) {
	tpl, err := Parse(src)
	if err != nil {
		return "", err
	}
	return e.Run(tpl)
}

// Run expands a parsed template. Each generating directive continues from the
// last word of the text expanded so far. Blocks are numbered from 1 in the
// order they are produced, replays included. {0} replays the latest block.
func (e *Engine) Run(tpl *Template) (string, error) {
	var (
		text   string
		blocks []string
	)
	for _, seg := range tpl.Segments {
		d := seg.Directive
		if d == nil {
			text += seg.Literal
			continue
		}

		var block string
		if d.Generates() {
			if e.OnGenerate != nil {
				e.OnGenerate(d.Count)
			}
			out, err := e.gen.Walk(e.rng, markov.LastWord(text), d.AllowNewline, d.Count)
			if err != nil {
				return "", err
			}
			block = out
		} else {
			ref := d.Ref()
			if ref == 0 {
				ref = len(blocks)
			}
			if ref == 0 || ref > len(blocks) {
				return "", fmt.Errorf("%w: %d", ErrUnknownBlock, ref)
			}
			block = blocks[ref-1]
		}

		blocks = append(blocks, block)
		text = markov.AddString(text, block, d.Capitalize)
	}
	return text, nil
}
