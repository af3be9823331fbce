package service

import (
	"github.com/go-logr/logr"

	"github.com/viant/embedflow/embeddings"
	"github.com/viant/embedflow/vectordb"
)

const defaultBatchSize = 64

// Option configures the Service.
type Option func(*Service)

// WithEmbedder sets the embedding provider.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(s *Service) { s.embedder = embedder }
}

// WithStore sets the vector store.
func WithStore(store vectordb.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithLogger sets the logger; the default discards.
func WithLogger(logger logr.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithBatchSize sets how many texts go into one embedding request.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// Service holds the embedder and store handles; it keeps no other state.
type Service struct {
	embedder  embeddings.Embedder
	store     vectordb.Store
	logger    logr.Logger
	batchSize int
}

// NewService creates a new Service.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{logger: logr.Discard(), batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	if s.embedder == nil {
		return nil, configError("new_service", "embedder", "embedder is required")
	}
	if s.store == nil {
		return nil, configError("new_service", "store", "vector store is required")
	}
	return s, nil
}

// Close releases the vector store.
func (s *Service) Close() error {
	return s.store.Close()
}
