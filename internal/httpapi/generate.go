package httpapi

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ent0n29/markovchat/internal/markov"
	"github.com/ent0n29/markovchat/internal/poem"
)

type generateRequest struct {
	Seed         string `json:"seed"`
	Words        int    `json:"words"`
	AllowNewline *bool  `json:"allow_newline,omitempty"`
	Capitalize   bool   `json:"capitalize"`
}

type generateResponse struct {
	Text   string `json:"text"`
	Seed   string `json:"seed"`
	Corpus string `json:"corpus"`
}

type expandRequest struct {
	Template string `json:"template"`
	Preset   string `json:"preset"`
}

type expandResponse struct {
	Text   string `json:"text"`
	Words  int    `json:"words"`
	Corpus string `json:"corpus"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Words < 1 || req.Words > s.cfg.MaxWords {
		respondError(w, http.StatusBadRequest, "invalid_words", fmt.Sprintf("words must be between 1 and %d", s.cfg.MaxWords))
		return
	}
	active, ok := s.requireCorpus(w)
	if !ok {
		return
	}

	allowNewline := true
	if req.AllowNewline != nil {
		allowNewline = *req.AllowNewline
	}
	seed := markov.LastWord(req.Seed)

	start := time.Now()
	text, err := active.chain.Walk(newRand(), seed, allowNewline, req.Words)
	if err != nil {
		s.failGeneration(w, "generate", err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration("generate", req.Words, time.Since(start))
	}
	if req.Capitalize {
		text = markov.Capitalize(text)
	}
	respondJSON(w, http.StatusOK, generateResponse{Text: text, Seed: seed, Corpus: active.name})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	src := req.Template
	if src == "" {
		preset := strings.TrimSpace(req.Preset)
		if preset == "" {
			preset = "default"
		}
		tpl, ok := s.templates[preset]
		if !ok {
			respondError(w, http.StatusNotFound, "unknown_preset", fmt.Sprintf("no template preset %q", preset))
			return
		}
		src = tpl
	}

	tpl, err := poem.Parse(src)
	if err != nil {
		s.failGeneration(w, "expand", err)
		return
	}
	words := tpl.Words()
	if words > s.cfg.MaxWords || tpl.Largest() > s.cfg.MaxWords {
		respondError(w, http.StatusBadRequest, "invalid_words", fmt.Sprintf("template requests %d words, limit is %d", words, s.cfg.MaxWords))
		return
	}
	active, ok := s.requireCorpus(w)
	if !ok {
		return
	}

	start := time.Now()
	text, err := poem.NewEngine(active.chain, newRand()).Run(tpl)
	if err != nil {
		s.failGeneration(w, "expand", err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration("expand", words, time.Since(start))
	}
	respondJSON(w, http.StatusOK, expandResponse{Text: text, Words: words, Corpus: active.name})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	respondJSON(w, http.StatusOK, map[string]any{"templates": names})
}

func (s *Server) requireCorpus(w http.ResponseWriter) (*activeCorpus, bool) {
	active := s.current()
	if active == nil {
		respondError(w, http.StatusConflict, "no_active_corpus", "no corpus has been activated")
		return nil, false
	}
	return active, true
}

func (s *Server) failGeneration(w http.ResponseWriter, op string, err error) {
	status, code := errorStatus(err)
	if s.metrics != nil {
		s.metrics.ObserveGenerationError(op, code)
	}
	respondError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, poem.ErrMalformedDirective):
		return http.StatusBadRequest, "malformed_directive"
	case errors.Is(err, poem.ErrUnknownBlock):
		return http.StatusBadRequest, "unknown_block"
	case errors.Is(err, markov.ErrEmptyCorpus):
		return http.StatusConflict, "empty_corpus"
	case errors.Is(err, markov.ErrStalled):
		return http.StatusUnprocessableEntity, "generation_stalled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// newRand returns a per-request source; rand.Rand is not safe for concurrent use.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
