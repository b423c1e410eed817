package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the markov chat service.
type Config struct {
	BindAddr              string
	ShutdownTimeout       time.Duration
	PeerInactivityTimeout time.Duration
	MetricsNamespace      string

	AllowAnyOrigin bool

	// CorpusFile is an optional corpus JSON file loaded and activated on start.
	CorpusFile string
	// CorpusName is the name the startup corpus is stored and activated under.
	CorpusName string
	// TemplatesFile is an optional YAML file of named templates.
	TemplatesFile string

	DatabaseURL string

	ReplyWords int
	MaxWords   int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:              envOrDefault("APP_BIND_ADDR", "127.0.0.1:1984"),
		MetricsNamespace:      envOrDefault("APP_METRICS_NAMESPACE", "markovchat"),
		AllowAnyOrigin:        false,
		CorpusFile:            stringsTrimSpace("CORPUS_FILE"),
		CorpusName:            envOrDefault("CORPUS_NAME", "default"),
		TemplatesFile:         stringsTrimSpace("TEMPLATES_FILE"),
		DatabaseURL:           stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:       15 * time.Second,
		PeerInactivityTimeout: 10 * time.Minute,
		ReplyWords:            5,
		// Caps a single generate request.
		MaxWords: 2000,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PeerInactivityTimeout, err = durationFromEnv("APP_PEER_INACTIVITY_TIMEOUT", cfg.PeerInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.ReplyWords, err = intFromEnv("REPLY_WORDS", cfg.ReplyWords)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxWords, err = intFromEnv("MAX_WORDS", cfg.MaxWords)
	if err != nil {
		return Config{}, err
	}

	if cfg.PeerInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_PEER_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if strings.TrimSpace(cfg.CorpusName) == "" {
		return Config{}, fmt.Errorf("CORPUS_NAME must not be blank")
	}
	if cfg.ReplyWords <= 0 {
		return Config{}, fmt.Errorf("REPLY_WORDS must be positive")
	}
	if cfg.MaxWords <= 0 {
		return Config{}, fmt.Errorf("MAX_WORDS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
