package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/ent0n29/markovchat/internal/config"
	"github.com/ent0n29/markovchat/internal/markov"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		MetricsNamespace:      "test_app_" + time.Now().Format("150405") + "_" + strconv.FormatInt(time.Now().UnixNano(), 10),
		CorpusName:            "default",
		PeerInactivityTimeout: time.Minute,
		MaxWords:              100,
		ReplyWords:            5,
	}
}

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func TestBuildActivatesCorpusFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CorpusFile = writeCorpus(t, `{"hello": {"world": 1}, "world": {"hello": 1}}`)

	res, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	if res.Store.Mode() != "in-memory" {
		t.Fatalf("store mode = %q", res.Store.Mode())
	}
	if _, ok := res.Templates[config.DefaultPreset]; !ok {
		t.Fatalf("default preset missing")
	}

	ts := httptest.NewServer(res.API.Router())
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d, want 200", resp.StatusCode)
	}
}

func TestBuildWithoutCorpus(t *testing.T) {
	res, err := Build(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer res.Cleanup()

	ts := httptest.NewServer(res.API.Router())
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", resp.StatusCode)
	}
}

func TestBuildRejectsEmptyCorpusFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CorpusFile = writeCorpus(t, `{}`)
	_, err := Build(context.Background(), cfg)
	if !errors.Is(err, markov.ErrEmptyCorpus) {
		t.Fatalf("Build() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildRejectsBadTemplates(t *testing.T) {
	cfg := testConfig(t)
	cfg.TemplatesFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("Build() with missing templates file succeeded")
	}
}
