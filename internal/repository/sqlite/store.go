// Package sqlite is a backend store over SQLite FTS5. Documents live in a
// plain table mirrored into an external-content FTS5 index by triggers.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/query"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/result"
	domstore "github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// DefaultTopK is the hit limit when none is configured.
const DefaultTopK = 20

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		pk      INTEGER PRIMARY KEY,
		id      TEXT NOT NULL UNIQUE,
		title   TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		tags    TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		title,
		content,
		content='documents',
		content_rowid='pk'
	)`,
	`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
		INSERT INTO documents_fts(rowid, title, content) VALUES (new.pk, new.title, new.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES ('delete', old.pk, old.title, old.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, title, content) VALUES ('delete', old.pk, old.title, old.content);
		INSERT INTO documents_fts(rowid, title, content) VALUES (new.pk, new.title, new.content);
	END`,
}

// Title matches weigh twice as much as content matches.
const searchSQL = `
	SELECT d.id, d.title, d.content, d.tags, bm25(documents_fts, 2.0, 1.0) AS rank
	FROM documents_fts
	JOIN documents d ON d.pk = documents_fts.rowid
	WHERE documents_fts MATCH ?
	ORDER BY rank, d.id
	LIMIT ?`

const upsertSQL = `
	INSERT INTO documents (id, title, content, tags) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		tags = excluded.tags`

// Config describes one SQLite store.
type Config struct {
	Name domstore.ID
	Path string // file path or MemoryPath
	TopK int
}

// Store runs full-text queries against an FTS5 index.
type Store struct {
	db  *sql.DB
	cfg Config
}

// Open opens (creating if needed) the database at cfg.Path and applies the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	inMemory := cfg.Path == MemoryPath
	if !inMemory {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	if inMemory {
		conn.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, p := range append(pragmas, schema...) {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return &Store{db: conn, cfg: cfg}, nil
}

// Execute runs query as an FTS5 MATCH. Every term must match; rows come
// back best bm25 first.
func (s *Store) Execute(ctx context.Context, text string) ([]domstore.Row, error) {
	results, err := s.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	return result.Rows(s.cfg.Name, results), nil
}

// Search returns ranked hits for text.
func (s *Store) Search(ctx context.Context, text string) ([]result.Result, error) {
	match := matchExpr(text)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, searchSQL, match, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: fts query: %w", domain.ErrStoreFailure, err)
	}
	defer func() { _ = rows.Close() }()

	var results []result.Result
	for rows.Next() {
		var id, title, content, rawTags string
		var rank float64
		if err := rows.Scan(&id, &title, &content, &rawTags, &rank); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var tags map[string]string
		if err := json.Unmarshal([]byte(rawTags), &tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", id, err)
		}
		// bm25() is lower-is-better; flip it so higher scores rank first everywhere.
		results = append(results, result.New(id, -rank, title, content, tags))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return results, nil
}

// Index upserts documents in one transaction.
func (s *Store) Index(ctx context.Context, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range docs {
		d := &docs[i]
		tags := d.Tags()
		if tags == nil {
			tags = map[string]string{}
		}
		raw, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("encode tags of %s: %w", d.ID(), err)
		}
		if _, err := stmt.ExecContext(ctx, d.ID(), d.Title(), d.Content(), string(raw)); err != nil {
			return fmt.Errorf("upsert %s: %w", d.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck // nothing to add
}

// Name returns the store identifier.
func (s *Store) Name() domstore.ID { return s.cfg.Name }

// matchExpr quotes every term so FTS5 operators in user input stay literal.
// Space-separated phrases form an implicit AND.
func matchExpr(text string) string {
	terms := query.Terms(text)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
