package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore keeps the index in a single SQLite file.
//
// The pool is limited to one connection, so every transaction runs alone
// and the store behaves as the single writer of the index.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// SQLiteOptions configures OpenSQLite.
type SQLiteOptions struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool

	Logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the index file at path and creates the schema.
func OpenSQLite(ctx context.Context, path string, opts SQLiteOptions) (*SQLiteStore, error) {
	if path == "" {
		return nil, storageError("open sqlite", ErrEmptyKey)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(path); err != nil {
			return nil, storageError("open sqlite", fmt.Errorf("index not found at %s: %w", path, err))
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, storageError("create index directory", err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := fmt.Sprintf("file:%s?mode=%s&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path, mode)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageError("open sqlite", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, logger: opts.Logger}

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, storageError("enable wal", err)
		}
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, storageError("create schema", err)
	}

	s.logger.Debug("index opened", "path", path)
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS terms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS frequencies (
		document_id INTEGER NOT NULL REFERENCES documents(id),
		term_id INTEGER NOT NULL REFERENCES terms(id),
		count INTEGER NOT NULL CHECK (count > 0),
		PRIMARY KEY (document_id, term_id)
	);

	CREATE INDEX IF NOT EXISTS idx_frequencies_term ON frequencies(term_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// AddDocument returns the id of url, inserting it on first use.
func (s *SQLiteStore) AddDocument(ctx context.Context, url string) (int64, error) {
	if err := validateKey("add document", url); err != nil {
		return 0, err
	}
	return s.insertOrFetch(ctx, "add document",
		`INSERT INTO documents (url) VALUES (?)
		ON CONFLICT(url) DO UPDATE SET url = excluded.url
		RETURNING id`, url)
}

// AddTerm returns the id of word, inserting it on first use.
func (s *SQLiteStore) AddTerm(ctx context.Context, word string) (int64, error) {
	if err := validateKey("add term", word); err != nil {
		return 0, err
	}
	return s.insertOrFetch(ctx, "add term",
		`INSERT INTO terms (word) VALUES (?)
		ON CONFLICT(word) DO UPDATE SET word = excluded.word
		RETURNING id`, word)
}

func (s *SQLiteStore) insertOrFetch(ctx context.Context, op, query, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return 0, storageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageError(op, err)
	}
	return id, nil
}

// UpsertFrequency sets the count of (documentID, termID).
func (s *SQLiteStore) UpsertFrequency(ctx context.Context, documentID, termID int64, count int) error {
	if err := validateCount(count); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("upsert frequency", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO frequencies (document_id, term_id, count)
	VALUES (?, ?, ?)
	ON CONFLICT(document_id, term_id) DO UPDATE SET count = excluded.count
	`
	if _, err := tx.ExecContext(ctx, query, documentID, termID, count); err != nil {
		return storageError("upsert frequency", err)
	}
	if err := tx.Commit(); err != nil {
		return storageError("upsert frequency", err)
	}
	return nil
}

// RankedSearch returns up to MaxResults URLs whose summed count over terms
// is highest. Ties are ordered by URL.
func (s *SQLiteStore) RankedSearch(ctx context.Context, terms []string) ([]string, error) {
	terms = normalizeTerms(terms)
	if len(terms) == 0 {
		return []string{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(terms)), ",")
	query := fmt.Sprintf(`
	SELECT d.url, SUM(f.count) AS total
	FROM frequencies f
	JOIN terms t ON t.id = f.term_id
	JOIN documents d ON d.id = f.document_id
	WHERE t.word IN (%s)
	GROUP BY d.id, d.url
	ORDER BY total DESC, d.url ASC
	LIMIT %d
	`, placeholders, MaxResults)

	args := make([]any, 0, len(terms))
	for _, t := range terms {
		args = append(args, t)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("ranked search", err)
	}
	defer rows.Close()

	urls := make([]string, 0, MaxResults)
	for rows.Next() {
		var (
			url   string
			total int64
		)
		if err := rows.Scan(&url, &total); err != nil {
			return nil, storageError("ranked search", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("ranked search", err)
	}
	return urls, nil
}

// Stats returns the number of rows in each relation.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM documents),
		(SELECT COUNT(*) FROM terms),
		(SELECT COUNT(*) FROM frequencies)
	`).Scan(&st.Documents, &st.Terms, &st.Frequencies)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, storageError("stats", err)
	}
	return st, nil
}
