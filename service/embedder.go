package service

import (
	"context"

	"github.com/viant/embedflow/embeddings"
	"github.com/viant/embedflow/embeddings/hashing"
	"github.com/viant/embedflow/embeddings/ollama"
	"github.com/viant/embedflow/embeddings/openai"
	"github.com/viant/embedflow/embeddings/vertexai"
)

// NewEmbedder builds the provider selected by cfg.Embedding.Provider.
// The hashing provider produces vectors of the collection dimension.
func NewEmbedder(ctx context.Context, cfg *Config) (embeddings.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case ProviderAzure:
		opts := []openai.ClientOption{openai.WithTimeout(e.Timeout)}
		if e.Dimensions > 0 {
			opts = append(opts, openai.WithDimensions(e.Dimensions))
		}
		return &openai.Embedder{C: openai.NewAzureClient(e.Endpoint, e.APIKey, e.Deployment, e.APIVersion, opts...)}, nil
	case ProviderOpenAI:
		opts := []openai.ClientOption{openai.WithTimeout(e.Timeout), openai.WithBaseURL(e.Endpoint)}
		if e.Dimensions > 0 {
			opts = append(opts, openai.WithDimensions(e.Dimensions))
		}
		return &openai.Embedder{C: openai.NewClient(e.APIKey, e.Model, opts...)}, nil
	case ProviderOllama:
		return &ollama.Embedder{C: ollama.NewClient(e.Model, ollama.WithBaseURL(e.Endpoint), ollama.WithTimeout(e.Timeout))}, nil
	case ProviderVertexAI:
		opts := []vertexai.ClientOption{vertexai.WithLocation(e.Location), vertexai.WithTimeout(e.Timeout)}
		if e.Endpoint != "" {
			opts = append(opts, vertexai.WithBaseURL(e.Endpoint))
		}
		if e.Dimensions > 0 {
			opts = append(opts, vertexai.WithDimensions(e.Dimensions))
		}
		return vertexai.NewEmbedder(e.Project, e.Model, opts...), nil
	case ProviderHashing:
		return hashing.New(cfg.Collection.Dimension), nil
	}
	return nil, configError(opConfig, "embedding.provider", "unsupported provider %q", e.Provider)
}
