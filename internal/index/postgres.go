package index

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaLockKey serializes concurrent schema creation across processes.
const schemaLockKey = 0x5e4c5ea4c

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		url TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS terms (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		word TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS frequencies (
		document_id BIGINT NOT NULL REFERENCES documents(id),
		term_id BIGINT NOT NULL REFERENCES terms(id),
		count INTEGER NOT NULL CHECK (count > 0),
		PRIMARY KEY (document_id, term_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_frequencies_term ON frequencies(term_id)`,
}

// PostgresStore keeps the index in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// PostgresOptions configures OpenPostgres.
type PostgresOptions struct {
	// MaxConns caps the pool. Zero keeps the pgxpool default.
	MaxConns int32
	Logger   *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to connString, verifies the connection and
// creates the schema.
func OpenPostgres(ctx context.Context, connString string, opts PostgresOptions) (*PostgresStore, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, storageError("parse connection string", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, storageError("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageError("connect", err)
	}

	s := &PostgresStore{pool: pool, logger: opts.Logger}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s.logger.Debug("index opened",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
		"max_conns", cfg.MaxConns,
	)
	return s, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that the server answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageError("create schema", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(schemaLockKey)); err != nil {
		return storageError("create schema", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return storageError("create schema", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return storageError("create schema", err)
	}
	return nil
}

// AddDocument returns the id of url, inserting it on first use.
func (s *PostgresStore) AddDocument(ctx context.Context, url string) (int64, error) {
	if err := validateKey("add document", url); err != nil {
		return 0, err
	}
	return s.insertOrFetch(ctx, "add document",
		`INSERT INTO documents (url) VALUES ($1)
		ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id`, url)
}

// AddTerm returns the id of word, inserting it on first use.
func (s *PostgresStore) AddTerm(ctx context.Context, word string) (int64, error) {
	if err := validateKey("add term", word); err != nil {
		return 0, err
	}
	return s.insertOrFetch(ctx, "add term",
		`INSERT INTO terms (word) VALUES ($1)
		ON CONFLICT (word) DO UPDATE SET word = EXCLUDED.word
		RETURNING id`, word)
}

func (s *PostgresStore) insertOrFetch(ctx context.Context, op, query, key string) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, storageError(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, query, key).Scan(&id); err != nil {
		return 0, storageError(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, storageError(op, err)
	}
	return id, nil
}

// UpsertFrequency sets the count of (documentID, termID).
func (s *PostgresStore) UpsertFrequency(ctx context.Context, documentID, termID int64, count int) error {
	if err := validateCount(count); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageError("upsert frequency", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO frequencies (document_id, term_id, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, term_id) DO UPDATE SET count = EXCLUDED.count`,
		documentID, termID, count)
	if err != nil {
		return storageError("upsert frequency", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storageError("upsert frequency", err)
	}
	return nil
}

// RankedSearch returns up to MaxResults URLs whose summed count over terms
// is highest. Ties are ordered by URL.
func (s *PostgresStore) RankedSearch(ctx context.Context, terms []string) ([]string, error) {
	terms = normalizeTerms(terms)
	if len(terms) == 0 {
		return []string{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT d.url
		FROM frequencies f
		JOIN terms t ON t.id = f.term_id
		JOIN documents d ON d.id = f.document_id
		WHERE t.word = ANY($1)
		GROUP BY d.id, d.url
		ORDER BY SUM(f.count) DESC, d.url ASC
		LIMIT $2`, terms, MaxResults)
	if err != nil {
		return nil, storageError("ranked search", err)
	}

	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storageError("ranked search", err)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Stats returns the number of rows in each relation.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM terms),
			(SELECT COUNT(*) FROM frequencies)`).
		Scan(&st.Documents, &st.Terms, &st.Frequencies)
	if err != nil {
		return Stats{}, storageError("stats", err)
	}
	return st, nil
}
