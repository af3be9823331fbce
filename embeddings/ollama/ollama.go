package ollama

import (
	"context"

	"github.com/viant/embedflow/embeddings"
)

type Embedder struct {
	C *Client
}

func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	vecs, _, err := e.C.Embed(ctx, docs)
	return vecs, err
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embeddings.Single(e.EmbedDocuments(ctx, []string{text}))
}
