package vertexai

import (
	"context"
	"sync"

	"github.com/viant/embedflow/embeddings"
)

// Embedder creates its client on first use so that credential lookup
// happens only when embeddings are requested.
type Embedder struct {
	projectID string
	model     string
	opts      []ClientOption

	mu      sync.Mutex
	client  *Client
	initErr error
}

func NewEmbedder(projectID, model string, opts ...ClientOption) *Embedder {
	return &Embedder{projectID: projectID, model: model, opts: opts}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	client, err := e.getClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Embed(ctx, docs)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Single(e.EmbedDocuments(ctx, []string{text}))
}

func (e *Embedder) getClient(ctx context.Context) (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil || e.initErr != nil {
		return e.client, e.initErr
	}
	e.client, e.initErr = NewClient(ctx, e.projectID, e.model, e.opts...)
	return e.client, e.initErr
}
