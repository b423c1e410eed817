package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ent0n29/markovchat/internal/corpus"
)

const act = `Jul. Good night, good night!
Parting is such sweet sorrow.

Rom. Sleep dwell upon thine eyes.

Jul. Good night.
`

func TestRunWritesPrettyCorpus(t *testing.T) {
	opts, err := parseFlags([]string{"-v"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), opts, strings.NewReader(act), &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if !strings.Contains(stdout.String(), "\n    \"good\": {\n        \"night\": 3\n    }") {
		t.Fatalf("stdout = %s", stdout.String())
	}
	if strings.Contains(stdout.String(), "sleep") {
		t.Fatalf("other speaker leaked into corpus: %s", stdout.String())
	}
	if stderr.String() != "...\nTotal lines found: 3\nTotal words found: 11\n" {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunOtherSpeakerToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "act.txt")
	if err := os.WriteFile(in, []byte(act), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "rom.json")

	opts, err := parseFlags([]string{"-c", "Rom", "-o", out, in}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	var stdout bytes.Buffer
	if err := run(context.Background(), opts, strings.NewReader(""), &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", stdout.String())
	}

	c, err := corpus.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if c["sleep"]["dwell"] != 1 || c["eyes"]["\n"] != 1 {
		t.Fatalf("corpus = %s", c)
	}
}

func TestParseFlagsRejectsStoreWithoutName(t *testing.T) {
	if _, err := parseFlags([]string{"-store", "postgres://x", "-name", " "}, &bytes.Buffer{}); err == nil {
		t.Fatalf("parseFlags() succeeded, want error")
	}
}

func TestRunReportsOutputFailure(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{"-o", dir}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	err = run(context.Background(), opts, strings.NewReader(act), &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "output") {
		t.Fatalf("run() error = %v, want output error", err)
	}
}

func TestWriteFileFlushesCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := writeFile(path, corpus.Corpus{"good": {"night": 3}}); err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}
	c, err := corpus.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if c["good"]["night"] != 3 {
		t.Fatalf("corpus = %s", c)
	}
	if err := writeFile(filepath.Join(path, "nested.json"), c); err == nil {
		t.Fatalf("writeFile() under a regular file succeeded")
	}
}
