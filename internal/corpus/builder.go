package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ent0n29/markovchat/internal/tokenize"
)

// DefaultSpeaker is the dialogue label used when none is given.
const DefaultSpeaker = "Jul"

// stripSet is trimmed from both ends of every token before it is recorded.
const stripSet = "\"()* \t!,."

// Stats summarises one build.
type Stats struct {
	// Lines counts recorded successors that carried a newline marker.
	Lines int
	// Words counts recorded predecessor/successor observations.
	Words int
}

// Builder turns the dialogue of one speaker into a Corpus.
type Builder struct {
	Speaker string
	// OnLine, when set, is called every time a line end is recorded.
	OnLine func()
}

// NewBuilder returns a Builder for speaker, falling back to DefaultSpeaker.
func NewBuilder(speaker string) *Builder {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		speaker = DefaultSpeaker
	}
	return &Builder{Speaker: speaker}
}

// Build reads r to the end and returns the corpus of the speaker's lines.
// Input without any matching dialogue yields an empty Corpus.
func (b *Builder) Build(r io.Reader) (Corpus, Stats, error) {
	text, err := b.Dialogue(r)
	if err != nil {
		return nil, Stats{}, err
	}
	c, stats := b.link(norm.NFC.String(text))
	return c, stats, nil
}

// Dialogue isolates the speaker's lines. A line opens a block when it starts
// with "<speaker>. " (the label is removed); following non-blank lines
// continue the block and a blank line closes it. Everything else is dropped.
func (b *Builder) Dialogue(r io.Reader) (string, error) {
	opener := b.Speaker + ". "
	br := bufio.NewReader(r)

	var out strings.Builder
	inBlock := false
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read corpus source: %w", err)
		}
		line = strings.ReplaceAll(line, "\r\n", "\n")
		line = strings.TrimLeft(line, " \t\r\n\f\v")

		switch {
		case line == "":
			inBlock = false
		case strings.HasPrefix(line, opener):
			out.WriteString(strings.TrimPrefix(line, opener))
			inBlock = true
		case inBlock:
			out.WriteString(line)
		}

		if errors.Is(err, io.EOF) {
			return out.String(), nil
		}
	}
}

func (b *Builder) link(text string) (Corpus, Stats) {
	c := New()
	var stats Stats

	prev := ""
	for raw := range tokenize.Tokens(text) {
		word := strings.Trim(strings.ToLower(raw), stripSet)
		if word == "" {
			continue
		}
		if prev == "" {
			// Nothing to link back to; a line-final token cannot start a chain.
			if !tokenize.HasNewline(word) {
				prev = word
			}
			continue
		}

		c.Add(prev, word)
		stats.Words++
		if tokenize.HasNewline(word) {
			prev = ""
			stats.Lines++
			if b.OnLine != nil {
				b.OnLine()
			}
			continue
		}
		prev = word
	}
	return c, stats
}
