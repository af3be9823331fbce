package schema

import (
	"fmt"
	"strings"
)

// Distance identifies the similarity metric of a collection.
type Distance string

const (
	Cosine Distance = "Cosine"
	Dot    Distance = "Dot"
	Euclid Distance = "Euclid"
)

// ParseDistance resolves a distance name case-insensitively; "euclidean" and "l2" map to Euclid.
func ParseDistance(name string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cosine":
		return Cosine, nil
	case "dot", "dotproduct", "ip":
		return Dot, nil
	case "euclid", "euclidean", "l2":
		return Euclid, nil
	}
	return "", fmt.Errorf("unsupported distance %q", name)
}

// Valid reports whether d is a known distance.
func (d Distance) Valid() bool {
	switch d {
	case Cosine, Dot, Euclid:
		return true
	}
	return false
}

// Descriptor describes a vector collection.
type Descriptor struct {
	Name      string   `json:"name" yaml:"name"`
	Dimension int      `json:"dimension" yaml:"dimension"`
	Distance  Distance `json:"distance" yaml:"distance"`
}

// FieldError reports an invalid descriptor field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// Validate checks that the descriptor can be used to create a collection.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &FieldError{Field: "name", Reason: "collection name is required"}
	}
	if d.Dimension <= 0 {
		return &FieldError{Field: "dimension", Reason: fmt.Sprintf("must be positive, got %d", d.Dimension)}
	}
	if !d.Distance.Valid() {
		return &FieldError{Field: "distance", Reason: fmt.Sprintf("unsupported distance %q", d.Distance)}
	}
	return nil
}
