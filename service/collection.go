package service

import (
	"context"
	"errors"

	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
)

const opEnsure = "ensure_collection"

// EnsureCollection creates the collection when absent. Calling it again with
// the same descriptor is a no-op reporting Existing; a different dimension or
// distance on an existing collection is a configuration error.
func (s *Service) EnsureCollection(ctx context.Context, desc schema.Descriptor) (Ensured, error) {
	if err := checkDescriptor(opEnsure, desc); err != nil {
		return Existing, err
	}
	created, err := s.store.EnsureCollection(ctx, desc)
	if err != nil {
		return Existing, storeError(opEnsure, err)
	}
	result := Existing
	if created {
		result = Created
	}
	s.logger.Info("collection ensured", "collection", desc.Name, "dimension", desc.Dimension, "distance", desc.Distance, "result", result.String())
	return result, nil
}

func checkDescriptor(op string, desc schema.Descriptor) error {
	if err := desc.Validate(); err != nil {
		var fieldErr *schema.FieldError
		if errors.As(err, &fieldErr) {
			return &Error{Kind: KindConfiguration, Op: op, Field: "collection." + fieldErr.Field, Err: errors.New(fieldErr.Reason)}
		}
		return &Error{Kind: KindConfiguration, Op: op, Field: "collection", Err: err}
	}
	return nil
}

// storeError maps store failures; schema disagreements are configuration errors.
func storeError(op string, err error) error {
	var mismatch *vectordb.MismatchError
	switch {
	case errors.As(err, &mismatch):
		return &Error{Kind: KindConfiguration, Op: op, Field: "collection." + mismatch.Field, Err: err}
	case errors.Is(err, vectordb.ErrSchemaMismatch):
		return &Error{Kind: KindConfiguration, Op: op, Field: "collection", Err: err}
	case errors.Is(err, vectordb.ErrUnsupportedDistance):
		return &Error{Kind: KindConfiguration, Op: op, Field: "collection.distance", Err: err}
	}
	return &Error{Kind: KindStore, Op: op, Err: err}
}
