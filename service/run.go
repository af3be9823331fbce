package service

import (
	"context"

	"github.com/viant/embedflow/schema"
)

// Run executes the pipeline in order: ensure the collection, embed and store
// records, then search for query. A failure is wrapped in a *StageError.
func (s *Service) Run(ctx context.Context, desc schema.Descriptor, records []schema.TextRecord, query string, topK int) (*Report, error) {
	report := &Report{Collection: desc, Query: query}
	var err error
	if report.Ensured, err = s.EnsureCollection(ctx, desc); err != nil {
		return nil, &StageError{Stage: opEnsure, Err: err}
	}
	if report.Stored, err = s.EmbedAndStore(ctx, records, desc); err != nil {
		return nil, &StageError{Stage: opStore, Err: err}
	}
	if report.Results, err = s.Search(ctx, query, desc, topK); err != nil {
		return nil, &StageError{Stage: opSearch, Err: err}
	}
	return report, nil
}
