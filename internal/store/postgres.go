package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ent0n29/markovchat/internal/corpus"
)

// PostgresStore persists corpora in PostgreSQL, one row per edge.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS corpora (
			name TEXT PRIMARY KEY,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS corpus_edges (
			corpus TEXT NOT NULL REFERENCES corpora(name) ON DELETE CASCADE,
			predecessor TEXT NOT NULL,
			successor TEXT NOT NULL,
			occurrences INTEGER NOT NULL,
			PRIMARY KEY (corpus, predecessor, successor)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// SaveCorpus replaces the stored corpus called name.
func (s *PostgresStore) SaveCorpus(ctx context.Context, name string, c corpus.Corpus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO corpora (name, updated_at) VALUES ($1, now())
		 ON CONFLICT (name) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
		name,
	); err != nil {
		return fmt.Errorf("save corpus %q: %w", name, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM corpus_edges WHERE corpus=$1`, name); err != nil {
		return fmt.Errorf("clear corpus %q: %w", name, err)
	}

	batch := &pgx.Batch{}
	for prev, succ := range c {
		for next, n := range succ {
			batch.Queue(
				`INSERT INTO corpus_edges (corpus, predecessor, successor, occurrences) VALUES ($1, $2, $3, $4)`,
				name, prev, next, n,
			)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save corpus %q edges: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit corpus %q: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) LoadCorpus(ctx context.Context, name string) (corpus.Corpus, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM corpora WHERE name=$1)`, name,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup corpus %q: %w", name, err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT predecessor, successor, occurrences FROM corpus_edges WHERE corpus=$1`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("query corpus %q: %w", name, err)
	}
	defer rows.Close()

	c := corpus.New()
	for rows.Next() {
		var (
			prev, next string
			n          int
		)
		if err := rows.Scan(&prev, &next, &n); err != nil {
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		if c[prev] == nil {
			c[prev] = make(map[string]int)
		}
		c[prev][next] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus rows: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCorpora(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM corpora ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}
	return names, nil
}

func (s *PostgresStore) Mode() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
