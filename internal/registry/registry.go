// Package registry opens the backend stores named in configuration and hands
// them out as the narrow views each use case consumes.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/config"
	dbRedis "github.com/kailas-cloud/fedsearch/internal/db/redis"
	"github.com/kailas-cloud/fedsearch/internal/domain"
	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	"github.com/kailas-cloud/fedsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/fedsearch/internal/domain/store"
	badgerrepo "github.com/kailas-cloud/fedsearch/internal/repository/badger"
	"github.com/kailas-cloud/fedsearch/internal/repository/redissearch"
	sqliterepo "github.com/kailas-cloud/fedsearch/internal/repository/sqlite"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	"github.com/kailas-cloud/fedsearch/internal/usecase/health"
	"github.com/kailas-cloud/fedsearch/internal/usecase/ingest"
)

// Handle is everything the service needs from one opened store.
type Handle interface {
	Execute(ctx context.Context, query string) ([]store.Row, error)
	Ping(ctx context.Context) error
	Index(ctx context.Context, docs []domdoc.Document) error
	Close() error
}

// Entry is one configured store.
type Entry struct {
	ID     store.ID
	Driver string
	Handle Handle
	// Err is set when the store could not be opened; Handle then fails every call with it.
	Err error
}

// Registry holds the opened stores in configuration order.
type Registry struct {
	entries []Entry
}

// Opener opens one store from its configuration.
type Opener func(ctx context.Context, sc config.StoreConfig, deps Deps) (Handle, error)

// Deps are shared collaborators handed to every opener.
type Deps struct {
	// Embedder may be nil when no embedding model is configured.
	Embedder redissearch.Embedder
	Logger   *zap.Logger
}

// DefaultOpeners maps every supported driver to its opener.
func DefaultOpeners() map[string]Opener {
	return map[string]Opener{
		config.DriverSQLite: openSQLite,
		config.DriverRedis:  openRedis,
		config.DriverBadger: openBadger,
	}
}

// Open opens every store in cfg.Stores. A store that fails to open stays in
// the registry as unavailable, so the federation still reports it as a
// failed store instead of refusing to start. An unknown driver is a
// configuration error and fails the whole call.
func Open(ctx context.Context, stores []config.StoreConfig, deps Deps, openers map[string]Opener) (*Registry, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if openers == nil {
		openers = DefaultOpeners()
	}

	r := &Registry{entries: make([]Entry, 0, len(stores))}
	for _, sc := range stores {
		open, ok := openers[sc.Driver]
		if !ok {
			_ = r.Close()
			return nil, fmt.Errorf("store %s: %w: %q", sc.Name, domain.ErrUnknownDriver, sc.Driver)
		}

		log := deps.Logger.With(zap.String("store", sc.Name), zap.String("driver", sc.Driver))
		h, err := open(ctx, sc, Deps{Embedder: deps.Embedder, Logger: log})
		if err != nil {
			log.Warn("store unavailable", zap.Error(err))
			r.entries = append(r.entries, Entry{ID: sc.ID(), Driver: sc.Driver, Handle: unavailable{err: err}, Err: err})
			continue
		}
		log.Info("store opened")
		r.entries = append(r.entries, Entry{ID: sc.ID(), Driver: sc.Driver, Handle: h})
	}
	return r, nil
}

// Entries returns the stores in configuration order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Backends returns the stores as federated search backends.
func (r *Registry) Backends() []federated.Backend {
	out := make([]federated.Backend, len(r.entries))
	for i, e := range r.entries {
		out[i] = federated.Backend{ID: e.ID, Client: e.Handle}
	}
	return out
}

// Probes returns the stores as health probes.
func (r *Registry) Probes() []health.Probe {
	out := make([]health.Probe, len(r.entries))
	for i, e := range r.entries {
		out[i] = health.Probe{ID: e.ID, Pinger: e.Handle}
	}
	return out
}

// Targets returns the opened stores as ingest targets. Unavailable stores are skipped.
func (r *Registry) Targets() []ingest.Target {
	out := make([]ingest.Target, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Err != nil {
			continue
		}
		out = append(out, ingest.Target{ID: e.ID, Indexer: e.Handle})
	}
	return out
}

// Close closes every store, joining their errors.
func (r *Registry) Close() error {
	var errs []error
	for _, e := range r.entries {
		if err := e.Handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}

// unavailable stands in for a store that could not be opened.
type unavailable struct {
	err error
}

func (u unavailable) Execute(context.Context, string) ([]store.Row, error) {
	return nil, fmt.Errorf("%w: unavailable: %w", domain.ErrStoreFailure, u.err)
}

func (u unavailable) Ping(context.Context) error {
	return fmt.Errorf("%w: unavailable: %w", domain.ErrStoreFailure, u.err)
}

func (u unavailable) Index(context.Context, []domdoc.Document) error {
	return fmt.Errorf("%w: unavailable: %w", domain.ErrStoreFailure, u.err)
}

func (unavailable) Close() error { return nil }

func openSQLite(ctx context.Context, sc config.StoreConfig, _ Deps) (Handle, error) {
	s, err := sqliterepo.Open(ctx, sqliterepo.Config{Name: sc.ID(), Path: sc.Path, TopK: sc.TopK})
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors carry context
	}
	return s, nil
}

func openBadger(_ context.Context, sc config.StoreConfig, deps Deps) (Handle, error) {
	s, err := badgerrepo.Open(badgerrepo.Config{
		Name:     sc.ID(),
		Path:     sc.Path,
		InMemory: sc.InMemory,
		TopK:     sc.TopK,
	}, deps.Logger)
	if err != nil {
		return nil, err //nolint:wrapcheck // repository errors carry context
	}
	return s, nil
}

// redisHandle owns the driver connection behind a Redis Search repo.
type redisHandle struct {
	*redissearch.Repo
	conn *dbRedis.Store
}

func (h redisHandle) Close() error {
	h.conn.Close()
	return nil
}

func openRedis(ctx context.Context, sc config.StoreConfig, deps Deps) (Handle, error) {
	conn, err := dbRedis.NewStore(dbRedis.Config{Addrs: sc.Addrs, Password: sc.Password})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	if err := conn.WaitForReady(ctx, time.Duration(sc.ReadinessTimeoutSec)*time.Second); err != nil {
		conn.Close()
		return nil, err //nolint:wrapcheck // already says what timed out
	}

	repo, err := redissearch.New(conn, deps.Embedder, redissearch.Config{
		Name:       sc.ID(),
		Index:      sc.Index,
		Prefix:     sc.Prefix,
		Mode:       mode.Mode(sc.Mode),
		TopK:       sc.TopK,
		Dimensions: dimensionsOf(deps.Embedder),
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("redis search store: %w", err)
	}

	if err := repo.EnsureIndex(ctx); err != nil {
		conn.Close()
		return nil, err //nolint:wrapcheck // repo wraps
	}
	return redisHandle{Repo: repo, conn: conn}, nil
}

// dimensioned is implemented by embedders that know their vector size.
type dimensioned interface {
	Dimensions() int
}

func dimensionsOf(e redissearch.Embedder) int {
	if d, ok := e.(dimensioned); ok {
		return d.Dimensions()
	}
	return 0
}
