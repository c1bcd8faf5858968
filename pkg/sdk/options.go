package fedsearch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fedsearch/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	stores []config.StoreConfig
	topK   int

	embedder         Embedder
	vectorDimensions int

	defaultTimeout time.Duration
	maxTimeout     time.Duration
	maxQueryLength int
	ingestPoolSize int
	batchSize      int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite adds a SQLite FTS5 store. Stores are queried in the order their
// options are given.
func WithSQLite(name, path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.stores = append(c.stores, config.StoreConfig{Name: name, Driver: config.DriverSQLite, Path: path})
	})
}

// WithBadger adds an on-disk Badger store rooted at dir.
func WithBadger(name, dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.stores = append(c.stores, config.StoreConfig{Name: name, Driver: config.DriverBadger, Path: dir})
	})
}

// WithBadgerInMemory adds a Badger store that lives only as long as the Client.
func WithBadgerInMemory(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.stores = append(c.stores, config.StoreConfig{Name: name, Driver: config.DriverBadger, InMemory: true})
	})
}

// WithRedis adds a Redis Search store. Semantic and hybrid modes need
// WithEmbedder and WithVectorDimensions.
func WithRedis(name string, addrs []string, password string, m RedisMode) Option {
	return optionFunc(func(c *clientConfig) {
		c.stores = append(c.stores, config.StoreConfig{
			Name:     name,
			Driver:   config.DriverRedis,
			Addrs:    addrs,
			Password: password,
			Mode:     string(m),
		})
	})
}

// WithTopK caps the rows each store returns. Default: 20.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithEmbedder sets the text embedding provider used by semantic and hybrid
// Redis stores.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the embedding size of the Redis vector field.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithTimeouts sets the deadline used when Search gets timeout <= 0 and the
// largest deadline a caller may ask for. Defaults: 1s and 10s.
func WithTimeouts(defaultTimeout, maxTimeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTimeout = defaultTimeout
		c.maxTimeout = maxTimeout
	})
}

// WithMaxQueryLength rejects longer queries with ErrInvalidQuery. Default: 1024.
func WithMaxQueryLength(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxQueryLength = n
	})
}

// WithIngestPool sets the worker pool size and the documents-per-call batch
// used by Index. Zero keeps the defaults.
func WithIngestPool(size, batchSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ingestPoolSize = size
		c.batchSize = batchSize
	})
}

// WithLogger enables structured logging for client operations and the stores
// beneath them. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// toConfig converts the options into the service configuration, with defaults
// applied.
func (c *clientConfig) toConfig() config.Config {
	cfg := config.Config{
		Federation: config.FederationConfig{
			DefaultTimeoutMs: int(c.defaultTimeout / time.Millisecond),
			MaxTimeoutMs:     int(c.maxTimeout / time.Millisecond),
			MaxQueryLength:   c.maxQueryLength,
			IngestPoolSize:   c.ingestPoolSize,
			IngestBatchSize:  c.batchSize,
		},
		Stores: append([]config.StoreConfig(nil), c.stores...),
	}
	if c.embedder != nil {
		// The caller owns the provider; the model name only marks embedding as enabled.
		cfg.Embedding = config.EmbeddingConfig{Provider: "external", Model: "external", Dimensions: c.vectorDimensions}
	}
	for i := range cfg.Stores {
		cfg.Stores[i].TopK = c.topK
	}
	cfg.ApplyDefaults()
	return cfg
}
