package corpus

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildSingleLine(t *testing.T) {
	c, stats, err := NewBuilder("Jul").Build(strings.NewReader("Jul. Hi there.\n\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := c["hi"]["there"]; got != 1 {
		t.Fatalf("corpus[hi][there] = %d, want 1 (corpus %s)", got, c)
	}
	if got := c["there"]["\n"]; got != 1 {
		t.Fatalf("corpus[there][\\n] = %d, want 1 (corpus %s)", got, c)
	}
	if stats.Words != 2 || stats.Lines != 1 {
		t.Fatalf("stats = %+v, want words=2 lines=1", stats)
	}
}

func TestDialogueIsolatesSpeaker(t *testing.T) {
	src := strings.Join([]string{
		"ROMEO. But soft, what light",
		"  through yonder window breaks?",
		"",
		"Jul. Ay me!",
		"  O Romeo, Romeo,",
		"",
		"Narrator walks in.",
		"Jul. Good night.",
	}, "\n")
	got, err := NewBuilder("Jul").Dialogue(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Dialogue() error = %v", err)
	}
	want := "Ay me!\nO Romeo, Romeo,\nGood night."
	if got != want {
		t.Fatalf("Dialogue() = %q, want %q", got, want)
	}
}

func TestDialogueCRLF(t *testing.T) {
	got, err := NewBuilder("Jul").Dialogue(strings.NewReader("Jul. one\r\ntwo\r\n\r\nthree\r\n"))
	if err != nil {
		t.Fatalf("Dialogue() error = %v", err)
	}
	if got != "one\ntwo\n" {
		t.Fatalf("Dialogue() = %q, want %q", got, "one\ntwo\n")
	}
}

func TestBuildCutsChainAtLineEnds(t *testing.T) {
	c, _, err := NewBuilder("Jul").Build(strings.NewReader("Jul. a b\nc d\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := Corpus{
		"a": {"b\n": 1},
		"c": {"d\n": 1},
	}
	if !reflect.DeepEqual(c, want) {
		t.Fatalf("corpus = %s, want %s", c, want)
	}
	if _, ok := c["b\n"]; ok {
		t.Fatalf("line-final token must not become a predecessor")
	}
}

func TestBuildCountsRepeats(t *testing.T) {
	c, stats, err := NewBuilder("Jul").Build(strings.NewReader("Jul. I said, \"I think I think.\"\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := c["i"]["think"]; got != 2 {
		t.Fatalf("corpus[i][think] = %d, want 2 (corpus %s)", got, c)
	}
	if got := c["think"]["i"]; got != 1 {
		t.Fatalf("corpus[think][i] = %d, want 1 (corpus %s)", got, c)
	}
	if stats.Lines != 0 {
		t.Fatalf("Lines = %d, want 0: closing quote keeps the newline detached", stats.Lines)
	}
}

func TestBuildKeepsQuestionMarks(t *testing.T) {
	c, _, err := NewBuilder("Jul").Build(strings.NewReader("Jul. why? because\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := c["why"]["?"]; got != 1 {
		t.Fatalf("corpus[why][?] = %d, want 1 (corpus %s)", got, c)
	}
	if got := c["?"]["because\n"]; got != 1 {
		t.Fatalf("corpus[?][because\\n] = %d, want 1 (corpus %s)", got, c)
	}
}

func TestBuildNoDialogue(t *testing.T) {
	c, stats, err := NewBuilder("Jul").Build(strings.NewReader("ROMEO. Hello.\n\nNobody else.\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(c) != 0 || stats != (Stats{}) {
		t.Fatalf("corpus = %s stats = %+v, want empty", c, stats)
	}
}

func TestBuildDeterministic(t *testing.T) {
	src := "Jul. The cat sat on the mat.\nThe dog sat on the cat!\n\nJul. And the mat sat still.\n"
	first, _, err := NewBuilder("Jul").Build(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, _, err := NewBuilder("Jul").Build(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("builds differ:\n%s\n%s", first, second)
	}
}

func TestBuildOnLineHook(t *testing.T) {
	b := NewBuilder("")
	dots := 0
	b.OnLine = func() { dots++ }
	if _, _, err := b.Build(strings.NewReader("Jul. one two\nthree four\n")); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if dots != 2 {
		t.Fatalf("OnLine called %d times, want 2", dots)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestBuildUnreadableSource(t *testing.T) {
	if _, _, err := NewBuilder("Jul").Build(failingReader{}); err == nil {
		t.Fatalf("expected read error")
	}
}
