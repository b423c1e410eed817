package store

import (
	"context"
	"slices"
	"sync"

	"github.com/ent0n29/markovchat/internal/corpus"
)

// InMemoryStore keeps corpora in process memory for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	corpora map[string]corpus.Corpus
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{corpora: make(map[string]corpus.Corpus)}
}

func (s *InMemoryStore) SaveCorpus(_ context.Context, name string, c corpus.Corpus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpora[name] = clone(c)
	return nil
}

func (s *InMemoryStore) LoadCorpus(_ context.Context, name string) (corpus.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.corpora[name]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) ListCorpora(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.corpora))
	for name := range s.corpora {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *InMemoryStore) Mode() string { return "in-memory" }

func (s *InMemoryStore) Close() error { return nil }

func clone(c corpus.Corpus) corpus.Corpus {
	out := make(corpus.Corpus, len(c))
	for prev, succ := range c {
		m := make(map[string]int, len(succ))
		for next, n := range succ {
			m[next] = n
		}
		out[prev] = m
	}
	return out
}
