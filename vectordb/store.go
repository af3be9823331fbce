package vectordb

import (
	"context"

	"github.com/viant/embedflow/schema"
)

// Store persists points in named collections and answers nearest-neighbour queries.
type Store interface {
	// EnsureCollection creates the collection when absent. It returns true when
	// the collection was created and ErrSchemaMismatch when an existing
	// collection has a different dimension or distance.
	EnsureCollection(ctx context.Context, desc schema.Descriptor) (bool, error)

	// Upsert inserts or overwrites points keyed by their ID.
	Upsert(ctx context.Context, collection string, points []schema.Point) error

	// Search returns up to k points closest to vector, closest first.
	Search(ctx context.Context, collection string, vector []float32, k int) ([]schema.Result, error)

	Close() error
}
