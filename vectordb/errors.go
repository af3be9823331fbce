package vectordb

import (
	"errors"
	"fmt"

	"github.com/viant/embedflow/schema"
)

var (
	// ErrSchemaMismatch indicates an existing collection differs from the requested descriptor.
	ErrSchemaMismatch = errors.New("vectordb: collection schema mismatch")
	// ErrCollectionNotFound indicates the collection does not exist.
	ErrCollectionNotFound = errors.New("vectordb: collection not found")
	// ErrUnsupportedDistance indicates the store cannot serve the requested distance.
	ErrUnsupportedDistance = errors.New("vectordb: unsupported distance")
)

// MismatchError details which descriptor field differs from the existing collection.
type MismatchError struct {
	Collection string
	Field      string
	Existing   string
	Requested  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("vectordb: collection %q %s mismatch: existing=%s requested=%s", e.Collection, e.Field, e.Existing, e.Requested)
}

func (e *MismatchError) Unwrap() error { return ErrSchemaMismatch }

// CompareDescriptors returns a *MismatchError when existing and requested disagree.
func CompareDescriptors(existing, requested schema.Descriptor) error {
	if existing.Dimension != requested.Dimension {
		return &MismatchError{
			Collection: requested.Name,
			Field:      "dimension",
			Existing:   fmt.Sprint(existing.Dimension),
			Requested:  fmt.Sprint(requested.Dimension),
		}
	}
	if existing.Distance != requested.Distance {
		return &MismatchError{
			Collection: requested.Name,
			Field:      "distance",
			Existing:   string(existing.Distance),
			Requested:  string(requested.Distance),
		}
	}
	return nil
}
