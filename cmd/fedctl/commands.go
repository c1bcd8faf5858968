package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/fedsearch/internal/config"
	"github.com/kailas-cloud/fedsearch/internal/domain"
	domdoc "github.com/kailas-cloud/fedsearch/internal/domain/document"
	logpkg "github.com/kailas-cloud/fedsearch/internal/logger"
	"github.com/kailas-cloud/fedsearch/internal/registry"
	"github.com/kailas-cloud/fedsearch/internal/repository/redissearch"
	chiTransport "github.com/kailas-cloud/fedsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/fedsearch/internal/transport/openai"
	"github.com/kailas-cloud/fedsearch/internal/usecase/federated"
	"github.com/kailas-cloud/fedsearch/internal/usecase/ingest"
)

// seedFile is the layout read by `fedctl seed`.
type seedFile struct {
	Documents []seedDocument `yaml:"documents"`
}

type seedDocument struct {
	ID      string            `yaml:"id"`
	Title   string            `yaml:"title"`
	Content string            `yaml:"content"`
	Tags    map[string]string `yaml:"tags"`
}

func queryCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	reg, err := openStores(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	svc := federated.New(reg.Backends(),
		federated.WithDefaultTimeout(cfg.Federation.DefaultTimeout()),
		federated.WithMaxTimeout(cfg.Federation.MaxTimeout()),
		federated.WithMaxQueryLength(cfg.Federation.MaxQueryLength),
		federated.WithLogger(log),
	)

	res, err := svc.Orchestrate(c.Context, text, c.Duration("timeout"))
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) || errors.Is(err, domain.ErrInvalidQuery) {
			return cli.Exit(err.Error(), 1)
		}
		return fmt.Errorf("query: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chiTransport.NewSearchResponse(res)); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	docs, err := readSeedFile(c.String("file"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	reg, err := openStores(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	targets := reg.Targets()
	if len(targets) == 0 {
		return cli.Exit("no writable store is available", 1)
	}
	svc, err := ingest.New(targets, cfg.Federation.IngestPoolSize,
		ingest.WithBatchSize(cfg.Federation.IngestBatchSize),
		ingest.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("create ingest service: %w", err)
	}
	defer svc.Release()

	results := svc.Ingest(c.Context, docs)

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = fmt.Fprintf(tw, "%s\terror\t%v\n", r.Store, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\tindexed %d\t%s\n", r.Store, r.Indexed, r.Elapsed.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if failed == len(results) {
		return cli.Exit("seed failed on every store", 1)
	}
	return nil
}

func storesCommand(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tDRIVER\tTOP_K")
	for _, s := range cfg.Stores {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Name, s.Driver, s.TopK)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write stores: %w", err)
	}
	return nil
}

// setup loads the config named by the global flags and builds the CLI logger.
func setup(c *cli.Context) (config.Config, *zap.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return config.Config{}, nil, cli.Exit(err.Error(), 1)
	}

	level := c.String("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	log, err := logpkg.NewCLILogger(level)
	if err != nil {
		return config.Config{}, nil, cli.Exit(err.Error(), 1)
	}
	return cfg, log, nil
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*registry.Registry, error) {
	var embedder redissearch.Embedder
	if cfg.Embedding.Enabled() {
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     log,
		})
	}

	reg, err := registry.Open(ctx, cfg.Stores, registry.Deps{Embedder: embedder, Logger: log}, nil)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	for _, e := range reg.Entries() {
		if e.Err != nil {
			log.Warn("store unavailable", zap.String("store", e.ID.String()), zap.Error(e.Err))
		}
	}
	return reg, nil
}

// readSeedFile parses and validates documents. A missing id gets a random UUID.
func readSeedFile(path string) ([]domdoc.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(f.Documents))
	for i, sd := range f.Documents {
		id := sd.ID
		if id == "" {
			id = uuid.NewString()
		}
		d, err := domdoc.New(id, sd.Title, sd.Content, sd.Tags)
		if err != nil {
			return nil, fmt.Errorf("documents[%d]: %w", i, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}
