package service

import (
	"context"
	"strings"

	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
)

const opSearch = "search"

// Search embeds query and returns up to topK stored points ordered by
// descending similarity. A non-positive topK is rejected before any call
// leaves the process.
func (s *Service) Search(ctx context.Context, query string, desc schema.Descriptor, topK int) ([]schema.Result, error) {
	if topK <= 0 {
		return nil, validationError(opSearch, "top_k", "must be a positive integer, got %d", topK)
	}
	if strings.TrimSpace(query) == "" {
		return nil, validationError(opSearch, "query", "query text is required")
	}
	if err := checkDescriptor(opSearch, desc); err != nil {
		return nil, err
	}
	qvec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &Error{Kind: KindProvider, Op: opSearch, Err: err}
	}
	if err := checkEmbedding(opSearch, "query", "query", qvec, desc); err != nil {
		return nil, err
	}
	results, err := s.store.Search(ctx, desc.Name, qvec, topK)
	if err != nil {
		return nil, storeError(opSearch, err)
	}
	results = vectordb.Rank(results, topK)
	s.logger.V(1).Info("search done", "collection", desc.Name, "topK", topK, "hits", len(results))
	return results, nil
}
