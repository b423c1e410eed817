package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ent0n29/markovchat/internal/config"
	"github.com/ent0n29/markovchat/internal/corpus"
	"github.com/ent0n29/markovchat/internal/httpapi"
	"github.com/ent0n29/markovchat/internal/observability"
	"github.com/ent0n29/markovchat/internal/relay"
	"github.com/ent0n29/markovchat/internal/session"
	"github.com/ent0n29/markovchat/internal/store"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Store     store.Store
	Sessions  *session.Manager
	Hub       *relay.Hub
	Metrics   *observability.Metrics
	Templates map[string]string

	// Cleanup should be called on shutdown to release external resources (DB).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	templates, err := config.LoadTemplates(cfg.TemplatesFile)
	if err != nil {
		return nil, err
	}

	corpusStore, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("corpus store init failed: %w", err)
	}

	sessions := session.NewManager(cfg.PeerInactivityTimeout)
	hub := relay.NewHub(sessions, metrics)
	sessions.SetExpireHook(func(p *session.Peer) {
		metrics.PeerEvents.WithLabelValues("expired").Inc()
		metrics.ActivePeers.Set(float64(sessions.ActiveCount()))
		hub.Disconnect(p.ID)
	})

	api := httpapi.New(cfg, corpusStore, sessions, hub, metrics, templates)
	if err := activateStartupCorpus(ctx, cfg, corpusStore, api); err != nil {
		_ = corpusStore.Close()
		return nil, err
	}

	cleanup := func() error {
		var errs []string
		if err := corpusStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Store:     corpusStore,
		Sessions:  sessions,
		Hub:       hub,
		Metrics:   metrics,
		Templates: templates,
		Cleanup:   cleanup,
	}, nil
}

// activateStartupCorpus seeds the store from CORPUS_FILE when set and then
// activates CORPUS_NAME if the store has it.
func activateStartupCorpus(ctx context.Context, cfg config.Config, st store.Store, api *httpapi.Server) error {
	if cfg.CorpusFile != "" {
		c, err := corpus.ReadFile(cfg.CorpusFile)
		if err != nil {
			return fmt.Errorf("startup corpus: %w", err)
		}
		if err := st.SaveCorpus(ctx, cfg.CorpusName, c); err != nil {
			return fmt.Errorf("startup corpus: %w", err)
		}
		log.Printf("corpus %q loaded from %s", cfg.CorpusName, cfg.CorpusFile)
	}

	c, err := st.LoadCorpus(ctx, cfg.CorpusName)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("corpus %q not found; upload one with PUT /v1/corpora/{name}", cfg.CorpusName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("startup corpus: %w", err)
	}
	if err := api.Activate(cfg.CorpusName, c); err != nil {
		if cfg.CorpusFile != "" {
			return fmt.Errorf("startup corpus %s: %w", cfg.CorpusFile, err)
		}
		log.Printf("corpus %q not activated: %v", cfg.CorpusName, err)
	}
	return nil
}
