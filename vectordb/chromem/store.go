// Package chromem implements vectordb.Store on an in-process chromem-go database.
// chromem ranks by cosine similarity only; metadata values are strings, so the
// payload is kept as a JSON document under a single metadata key.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
)

const payloadKey = "payload"

// Store is an in-memory vectordb.Store.
type Store struct {
	db *chromemgo.DB

	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	desc schema.Descriptor
	c    *chromemgo.Collection
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{db: chromemgo.NewDB(), collections: map[string]*collection{}}
}

// Close drops all collections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name := range s.collections {
		if err := s.db.DeleteCollection(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.collections = map[string]*collection{}
	return firstErr
}

// embeddingRequired is registered on collections; points always carry vectors.
func embeddingRequired(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: embedding is required")
}

// EnsureCollection creates the collection unless it already exists with the same schema.
func (s *Store) EnsureCollection(ctx context.Context, desc schema.Descriptor) (bool, error) {
	if desc.Distance != schema.Cosine {
		return false, fmt.Errorf("%w: chromem supports %s only, got %s", vectordb.ErrUnsupportedDistance, schema.Cosine, desc.Distance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.collections[desc.Name]; ok {
		return false, vectordb.CompareDescriptors(existing.desc, desc)
	}
	c, err := s.db.CreateCollection(desc.Name, map[string]string{
		"dimension": fmt.Sprint(desc.Dimension),
		"distance":  string(desc.Distance),
	}, embeddingRequired)
	if err != nil {
		return false, err
	}
	s.collections[desc.Name] = &collection{desc: desc, c: c}
	return true, nil
}

func (s *Store) collection(name string) (*collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}
	return c, nil
}

// Upsert adds points; an existing ID is replaced.
func (s *Store) Upsert(ctx context.Context, name string, points []schema.Point) error {
	c, err := s.collection(name)
	if err != nil {
		return err
	}
	docs := make([]chromemgo.Document, 0, len(points))
	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("chromem: encode payload %s: %w", p.ID, err)
		}
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		docs = append(docs, chromemgo.Document{
			ID:        p.ID,
			Content:   p.Text,
			Embedding: vec,
			Metadata:  map[string]string{payloadKey: string(payload)},
		})
	}
	for _, doc := range docs {
		if err := c.c.AddDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Search returns up to k points by cosine similarity.
func (s *Store) Search(ctx context.Context, name string, query []float32, k int) ([]schema.Result, error) {
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	count := c.c.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	vec := make([]float32, len(query))
	copy(vec, query)
	hits, err := c.c.QueryEmbedding(ctx, vec, k, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Result, 0, len(hits))
	for _, hit := range hits {
		item := schema.Result{ID: hit.ID, Text: hit.Content, Score: hit.Similarity}
		if raw := hit.Metadata[payloadKey]; raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &item.Payload); err != nil {
				return nil, fmt.Errorf("chromem: decode payload %s: %w", hit.ID, err)
			}
		}
		out = append(out, item)
	}
	return vectordb.Rank(out, k), nil
}
