package corpus

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestWritePrettySorted(t *testing.T) {
	c := New()
	c.Add("world", "hello")
	c.Add("hello", "world")
	c.Add("hello", "<you>")

	var buf bytes.Buffer
	if err := Write(&buf, c, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	want := `{
    "hello": {
        "<you>": 1,
        "world": 1
    },
    "world": {
        "hello": 1
    }
}
`
	if buf.String() != want {
		t.Fatalf("Write() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestReadWriteKeepsNewlineTokens(t *testing.T) {
	c := Corpus{"there": {"\n": 3, "again\n": 1}}
	var buf bytes.Buffer
	if err := Write(&buf, c, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("Read() = %s, want %s", got, c)
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	for _, doc := range []string{
		`[1, 2]`,
		`{"": {"a": 1}}`,
		`{"a": {"": 1}}`,
		`{"a": {"b": -1}}`,
	} {
		if _, err := Read(strings.NewReader(doc)); err == nil {
			t.Fatalf("Read(%s) expected error", doc)
		}
	}
}

func TestReadNull(t *testing.T) {
	c, err := Read(strings.NewReader("null"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if c == nil || len(c) != 0 {
		t.Fatalf("Read(null) = %v, want empty corpus", c)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(`{"night": {"\n": 2}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if c["night"]["\n"] != 2 {
		t.Fatalf("ReadFile() = %s", c)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("ReadFile(missing) succeeded")
	}
}

func TestKeysAndEdges(t *testing.T) {
	c := Corpus{"b": {"x": 1, "y": 2}, "a": {"x": 1}}
	if got := c.Keys(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Keys() = %q", got)
	}
	if got := c.Edges(); got != 3 {
		t.Fatalf("Edges() = %d, want 3", got)
	}
}
