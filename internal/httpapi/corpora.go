package httpapi

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/markovchat/internal/corpus"
	"github.com/ent0n29/markovchat/internal/markov"
	"github.com/ent0n29/markovchat/internal/store"
)

const maxCorpusUpload = 32 << 20

// activeCorpus is the corpus every generate and expand request walks.
type activeCorpus struct {
	name  string
	chain *markov.Chain
	edges int
}

// Activate makes c the generation corpus under name.
func (s *Server) Activate(name string, c corpus.Corpus) error {
	chain, err := markov.NewChain(c)
	if err != nil {
		return err
	}
	active := &activeCorpus{name: name, chain: chain, edges: c.Edges()}

	s.mu.Lock()
	s.active = active
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetCorpus(chain.Len(), active.edges)
	}
	log.Printf("corpus %q active: keys=%d edges=%d", name, chain.Len(), active.edges)
	return nil
}

func (s *Server) current() *activeCorpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Server) activeSummary() (string, int) {
	a := s.current()
	if a == nil {
		return "", 0
	}
	return a.name, a.chain.Len()
}

type putCorpusResponse struct {
	Name  string `json:"name"`
	Keys  int    `json:"keys"`
	Edges int    `json:"edges"`
	Lines int    `json:"lines"`
	Words int    `json:"words"`
}

// handlePutCorpus stores a corpus built from a plain-text dialogue body, or
// a prebuilt corpus when the body is JSON.
func (s *Server) handlePutCorpus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "corpus store not configured")
		return
	}
	name, ok := corpusName(w, r)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxCorpusUpload)
	defer body.Close()

	var (
		c     corpus.Corpus
		stats corpus.Stats
		err   error
	)
	start := time.Now()
	if isJSON(r.Header.Get("Content-Type")) {
		c, err = corpus.Read(body)
	} else {
		b := corpus.NewBuilder(r.URL.Query().Get("speaker"))
		c, stats, err = b.Build(body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "corpus_too_large", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_corpus", err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveGeneration("build", stats.Words, time.Since(start))
	}

	if err := s.store.SaveCorpus(r.Context(), name, c); err != nil {
		log.Printf("save corpus %q failed: %v", name, err)
		respondError(w, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}
	log.Printf("corpus %q stored: keys=%d lines=%d words=%d", name, len(c), stats.Lines, stats.Words)

	respondJSON(w, http.StatusCreated, putCorpusResponse{
		Name:  name,
		Keys:  len(c),
		Edges: c.Edges(),
		Lines: stats.Lines,
		Words: stats.Words,
	})
}

func (s *Server) handleGetCorpus(w http.ResponseWriter, r *http.Request) {
	c, name, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := corpus.Write(w, c, false); err != nil {
		log.Printf("write corpus %q failed: %v", name, err)
	}
}

func (s *Server) handleListCorpora(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondJSON(w, http.StatusOK, map[string]any{"corpora": []string{}, "active": ""})
		return
	}
	names, err := s.store.ListCorpora(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	active, _ := s.activeSummary()
	respondJSON(w, http.StatusOK, map[string]any{"corpora": names, "active": active})
}

func (s *Server) handleActivateCorpus(w http.ResponseWriter, r *http.Request) {
	c, name, ok := s.loadCorpus(w, r)
	if !ok {
		return
	}
	if err := s.Activate(name, c); err != nil {
		status, code := errorStatus(err)
		respondError(w, status, code, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"name":  name,
		"keys":  len(c),
		"edges": c.Edges(),
	})
}

func (s *Server) loadCorpus(w http.ResponseWriter, r *http.Request) (corpus.Corpus, string, bool) {
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "corpus store not configured")
		return nil, "", false
	}
	name, ok := corpusName(w, r)
	if !ok {
		return nil, "", false
	}
	c, err := s.store.LoadCorpus(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "corpus_not_found", err.Error())
		return nil, "", false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_failed", err.Error())
		return nil, "", false
	}
	return c, name, true
}

func corpusName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" || len(name) > 128 {
		respondError(w, http.StatusBadRequest, "invalid_corpus_name", "corpus name must be 1-128 characters")
		return "", false
	}
	return name, true
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
