// Package badger is an embedded backend store: a term index over Badger.
// A document scores one point per distinct query term it contains.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/domain"
	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/query"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/result"
	domstore "github.com/kailas-cloud/fedsearch/internal/domain/store"
)

// DefaultTopK is the hit limit when none is configured.
const DefaultTopK = 20

// Config describes one Badger store.
type Config struct {
	Name     domstore.ID
	Path     string // directory; ignored when InMemory
	InMemory bool
	TopK     int
}

// Store is a term-index search store backed by Badger.
type Store struct {
	db  *badger.DB
	cfg Config
}

// storedDoc is the JSON value under doc:<id>.
type storedDoc struct {
	ID      string            `json:"id"`
	Title   string            `json:"title,omitempty"`
	Content string            `json:"content"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// zapAdapter routes Badger's internal logging into zap.
type zapAdapter struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.log.Errorf(msg, args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.log.Warnf(msg, args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.log.Debugf(msg, args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.log.Debugf(msg, args...) }

// Open opens the store, creating the data directory when needed.
func Open(cfg Config, log *zap.Logger) (*Store, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if log == nil {
		log = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger path is required unless in_memory is set")
		}
		info, err := os.Stat(cfg.Path)
		switch {
		case os.IsNotExist(err):
			if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("stat data dir: %w", err)
		case !info.IsDir():
			return nil, fmt.Errorf("%s is not a directory", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = &zapAdapter{log: log.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

// Execute returns rows for documents matching at least one query term,
// most matched terms first.
func (s *Store) Execute(ctx context.Context, text string) ([]domstore.Row, error) {
	results, err := s.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	return result.Rows(s.cfg.Name, results), nil
}

// Search scores documents by the number of distinct query terms they contain.
// Ties break by document ID.
func (s *Store) Search(ctx context.Context, text string) ([]result.Result, error) {
	if s.db.IsClosed() {
		return nil, domain.ErrStoreClosed
	}
	terms := query.Terms(text)
	if len(terms) == 0 {
		return nil, nil
	}

	var results []result.Result
	err := s.db.View(func(txn *badger.Txn) error {
		hits, err := s.matchTerms(ctx, txn, terms)
		if err != nil {
			return err
		}
		ranked := rank(hits, s.cfg.TopK)

		results = make([]result.Result, 0, len(ranked))
		for _, h := range ranked {
			d, err := loadDoc(txn, h.id)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, result.New(d.ID, float64(h.matched), d.Title, d.Content, d.Tags))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: badger search: %w", domain.ErrStoreFailure, err)
	}
	return results, nil
}

func (s *Store) matchTerms(ctx context.Context, txn *badger.Txn, terms []string) (map[string]int, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	hits := make(map[string]int)
	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck // context error is the signal
		}
		prefix := termPrefix(term)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			hits[string(it.Item().Key()[len(prefix):])]++
		}
	}
	return hits, nil
}

type hit struct {
	id      string
	matched int
}

func rank(hits map[string]int, topK int) []hit {
	ranked := make([]hit, 0, len(hits))
	for id, n := range hits {
		ranked = append(ranked, hit{id: id, matched: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].matched != ranked[j].matched {
			return ranked[i].matched > ranked[j].matched
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func loadDoc(txn *badger.Txn, id string) (storedDoc, error) {
	var d storedDoc
	item, err := txn.Get(docKey(id))
	if err != nil {
		return d, err //nolint:wrapcheck // callers match ErrKeyNotFound
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &d)
	})
	if err != nil {
		return d, fmt.Errorf("decode document %s: %w", id, err)
	}
	return d, nil
}

// Index upserts documents. Re-indexing a document drops the terms it no
// longer contains.
func (s *Store) Index(ctx context.Context, docs []domdoc.Document) error {
	if s.db.IsClosed() {
		return domain.ErrStoreClosed
	}
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // context error is the signal
		}
		if err := s.put(&docs[i]); err != nil {
			return fmt.Errorf("index %s: %w", docs[i].ID(), err)
		}
	}
	return nil
}

func (s *Store) put(doc *domdoc.Document) error {
	value, err := json.Marshal(storedDoc{
		ID:      doc.ID(),
		Title:   doc.Title(),
		Content: doc.Content(),
		Tags:    doc.Tags(),
	})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error { //nolint:wrapcheck // wrapped by Index
		old, err := loadDoc(txn, doc.ID())
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			for _, term := range query.Terms(old.Title + "\n" + old.Content) {
				if err := txn.Delete(tokKey(term, doc.ID())); err != nil {
					return err //nolint:wrapcheck // wrapped by Index
				}
			}
		}

		if err := txn.Set(docKey(doc.ID()), value); err != nil {
			return err //nolint:wrapcheck // wrapped by Index
		}
		for _, term := range query.Terms(doc.Text()) {
			if err := txn.Set(tokKey(term, doc.ID()), nil); err != nil {
				return err //nolint:wrapcheck // wrapped by Index
			}
		}
		return nil
	})
}

// Ping reports whether the database is open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return domain.ErrStoreClosed
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck // nothing to add
}

// Name returns the store identifier.
func (s *Store) Name() domstore.ID { return s.cfg.Name }
