package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-name", "Paul", "-words", "7", "corpus.json"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.name != "Paul" || opts.words != 7 || opts.corpusFile != "corpus.json" {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.url != "ws://127.0.0.1:1984/v1/relay/ws" {
		t.Fatalf("default url = %q", opts.url)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	cases := [][]string{
		nil,
		{"a.json", "b.json"},
		{"-words", "0", "a.json"},
		{"-url", " ", "a.json"},
		{"-retries", "-1", "a.json"},
	}
	for _, args := range cases {
		if _, err := parseFlags(args, &bytes.Buffer{}); err == nil {
			t.Fatalf("parseFlags(%q) succeeded, want error", args)
		}
	}
}

func TestRunRejectsEmptyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := run(options{url: "ws://127.0.0.1:1/", name: "John", words: 5, corpusFile: path})
	if err == nil || !strings.Contains(err.Error(), "empty corpus") {
		t.Fatalf("run() error = %v, want empty corpus", err)
	}
}
