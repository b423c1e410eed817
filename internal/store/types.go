package store

import (
	"context"
	"errors"

	"github.com/ent0n29/markovchat/internal/corpus"
)

var ErrNotFound = errors.New("corpus not found")

// Store persists named corpora.
type Store interface {
	SaveCorpus(ctx context.Context, name string, c corpus.Corpus) error
	LoadCorpus(ctx context.Context, name string) (corpus.Corpus, error)
	ListCorpora(ctx context.Context) ([]string, error)
	Mode() string
	Close() error
}
