package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ent0n29/markovchat/internal/poem"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:1984" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.CorpusName != "default" || cfg.CorpusFile != "" {
		t.Fatalf("corpus = %q/%q, want default and no file", cfg.CorpusName, cfg.CorpusFile)
	}
	if cfg.ReplyWords != 5 || cfg.MaxWords != 2000 {
		t.Fatalf("ReplyWords/MaxWords = %d/%d", cfg.ReplyWords, cfg.MaxWords)
	}
	if cfg.PeerInactivityTimeout != 10*time.Minute {
		t.Fatalf("PeerInactivityTimeout = %s", cfg.PeerInactivityTimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("CORPUS_FILE", "  data/jul.json ")
	t.Setenv("CORPUS_NAME", "juliet")
	t.Setenv("REPLY_WORDS", "8")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "yes")
	t.Setenv("APP_PEER_INACTIVITY_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" || cfg.CorpusFile != "data/jul.json" || cfg.CorpusName != "juliet" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ReplyWords != 8 || !cfg.AllowAnyOrigin || cfg.PeerInactivityTimeout != 30*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"APP_PEER_INACTIVITY_TIMEOUT": "1s",
		"REPLY_WORDS":                 "0",
		"MAX_WORDS":                   "lots",
		"APP_ALLOW_ANY_ORIGIN":        "maybe",
		"APP_SHUTDOWN_TIMEOUT":        "soon",
	}
	for key, value := range cases {
		setCoreEnvEmpty(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Fatalf("Load() with %s=%q succeeded, want error", key, value)
		}
	}
}

func TestLoadTemplatesWithoutFile(t *testing.T) {
	got, err := LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if len(got) != 1 || got[DefaultPreset] != poem.DefaultTemplate {
		t.Fatalf("LoadTemplates() = %q", got)
	}
}

func TestLoadTemplatesFromFile(t *testing.T) {
	path := writeFile(t, "templates:\n  haiku: \"{.!5}\\n{.7}\\n{.5}\\n\"\n  echo: \"{.3}/{-1}\"\n")
	got, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if got["haiku"] != "{.!5}\n{.7}\n{.5}\n" || got["echo"] != "{.3}/{-1}" {
		t.Fatalf("LoadTemplates() = %q", got)
	}
	if got[DefaultPreset] != poem.DefaultTemplate {
		t.Fatalf("default preset missing: %q", got)
	}
}

func TestLoadTemplatesRejectsMalformed(t *testing.T) {
	path := writeFile(t, "templates:\n  broken: \"{.x}\"\n")
	_, err := LoadTemplates(path)
	if !errors.Is(err, poem.ErrMalformedDirective) {
		t.Fatalf("LoadTemplates() error = %v, want ErrMalformedDirective", err)
	}

	path = writeFile(t, "presets:\n  x: y\n")
	if _, err := LoadTemplates(path); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("LoadTemplates(unknown field) error = %v", err)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_PEER_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"CORPUS_FILE",
		"CORPUS_NAME",
		"TEMPLATES_FILE",
		"DATABASE_URL",
		"REPLY_WORDS",
		"MAX_WORDS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
