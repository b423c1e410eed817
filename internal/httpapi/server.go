package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/markovchat/internal/config"
	"github.com/ent0n29/markovchat/internal/observability"
	"github.com/ent0n29/markovchat/internal/relay"
	"github.com/ent0n29/markovchat/internal/session"
	"github.com/ent0n29/markovchat/internal/store"
)

type Server struct {
	cfg       config.Config
	store     store.Store
	sessions  *session.Manager
	hub       *relay.Hub
	metrics   *observability.Metrics
	templates map[string]string
	upgrader  websocket.Upgrader

	mu     sync.RWMutex
	active *activeCorpus
}

func New(cfg config.Config, st store.Store, sessions *session.Manager, hub *relay.Hub, metrics *observability.Metrics, templates map[string]string) *Server {
	if templates == nil {
		templates = map[string]string{}
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 2000
	}
	return &Server{
		cfg:       cfg,
		store:     st,
		sessions:  sessions,
		hub:       hub,
		metrics:   metrics,
		templates: templates,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Browsers may only join the relay from the same origin.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Bots and other non-browser clients omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/generate", s.handleGenerate)
	r.Post("/v1/expand", s.handleExpand)
	r.Get("/v1/templates", s.handleListTemplates)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Get("/v1/corpora", s.handleListCorpora)
	r.Put("/v1/corpora/{name}", s.handlePutCorpus)
	r.Get("/v1/corpora/{name}", s.handleGetCorpus)
	r.Post("/v1/corpora/{name}/activate", s.handleActivateCorpus)

	r.Get("/v1/relay/ws", s.handleRelayWS)
	r.Get("/v1/relay/peers", s.handleRelayPeers)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	name, keys := s.activeSummary()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"corpus":     name,
		"keys":       keys,
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	name, keys := s.activeSummary()
	status := "ready"
	code := http.StatusOK
	if keys == 0 {
		// The relay works without a corpus but nothing can be generated.
		status = "no_corpus"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{
		"status":     status,
		"corpus":     name,
		"keys":       keys,
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleRelayWS(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "relay not configured")
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.hub.Serve(r.Context(), conn, name)
}

func (s *Server) handleRelayPeers(w http.ResponseWriter, _ *http.Request) {
	peers := []session.PeerInfo{}
	if s.sessions != nil {
		peers = s.sessions.Active()
	}
	respondJSON(w, http.StatusOK, map[string]any{"peers": peers})
}

func (s *Server) storeMode() string {
	if s.store == nil {
		return "disabled"
	}
	return s.store.Mode()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
