package embeddings

import (
	"context"
	"fmt"
	"sort"
)

// Embedder is a minimal interface for computing vector embeddings
// for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// APIError is a non-success reply from an embedding provider.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s API error (%d %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Indexed is a vector tagged with the position of its input text.
type Indexed struct {
	Index  int
	Vector []float32
}

// Ordered returns vectors in input order; it fails unless every input position
// in [0, expected) is present exactly once.
func Ordered(items []Indexed, expected int) ([][]float32, error) {
	if len(items) != expected {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(items), expected)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Index < items[j].Index })
	out := make([][]float32, expected)
	for i, item := range items {
		if item.Index != i {
			return nil, fmt.Errorf("embedder returned vector for index %d at position %d", item.Index, i)
		}
		out[i] = item.Vector
	}
	return out, nil
}

// Single reduces a batch reply for one query to its vector.
func Single(vecs [][]float32, err error) ([]float32, error) {
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}
	return vecs[0], nil
}
