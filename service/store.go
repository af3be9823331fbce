package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/viant/embedflow/vectordb"
	"github.com/viant/embedflow/vectordb/chromem"
	"github.com/viant/embedflow/vectordb/qdrant"
	"github.com/viant/embedflow/vectordb/sqlitevec"
)

// Store kinds selected from the store URL.
const (
	StoreQdrant = "qdrant"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

const (
	sqlitePrefix = "sqlite:"
	memoryURL    = "memory://"
)

// storeKind maps a store URL to a backend:
// http(s) is Qdrant, sqlite:, file:, *.sqlite and *.db are SQLite,
// memory:// is the in-process store.
func storeKind(storeURL string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(storeURL))
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return StoreQdrant, nil
	case strings.HasPrefix(lower, sqlitePrefix), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".db"):
		return StoreSQLite, nil
	case strings.HasPrefix(lower, memoryURL):
		return StoreMemory, nil
	}
	return "", fmt.Errorf("unsupported store url %q", storeURL)
}

// NewStore opens the vector store addressed by cfg.URL.
func NewStore(ctx context.Context, cfg StoreConfig) (vectordb.Store, error) {
	kind, err := storeKind(cfg.URL)
	if err != nil {
		return nil, configError(opConfig, "store.url", "%v", err)
	}
	switch kind {
	case StoreQdrant:
		store, err := qdrant.New(cfg.URL, qdrant.WithAPIKey(cfg.APIKey), qdrant.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, configError(opConfig, "store.url", "%v", err)
		}
		return store, nil
	case StoreSQLite:
		dsn := strings.TrimSpace(cfg.URL)
		if strings.HasPrefix(strings.ToLower(dsn), sqlitePrefix) {
			dsn = strings.TrimPrefix(dsn[len(sqlitePrefix):], "//")
		}
		if dsn, err = expandUserPath(dsn); err != nil {
			return nil, configError(opConfig, "store.url", "%v", err)
		}
		store, err := sqlitevec.NewStore(ctx, sqlitevec.WithDSN(dsn))
		if err != nil {
			return nil, &Error{Kind: KindStore, Op: opConfig, Err: err}
		}
		return store, nil
	}
	return chromem.New(), nil
}

// NewFromConfig resolves secrets and wires the configured embedder and store
// into a Service.
func NewFromConfig(ctx context.Context, cfg *Config, logger logr.Logger) (*Service, error) {
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return nil, err
	}
	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.V(1).Info("service configured", "provider", cfg.Embedding.Provider, "store", cfg.Store.URL)
	return NewService(
		WithEmbedder(embedder),
		WithStore(store),
		WithLogger(logger),
		WithBatchSize(cfg.BatchSize),
	)
}
