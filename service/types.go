package service

import "github.com/viant/embedflow/schema"

// Ensured reports what EnsureCollection did.
type Ensured int

const (
	// Existing means the collection was already present with the same schema.
	Existing Ensured = iota
	// Created means the collection was created by this call.
	Created
)

func (e Ensured) String() string {
	if e == Created {
		return "created"
	}
	return "existing"
}

// Report summarises one Run of the pipeline.
type Report struct {
	Collection schema.Descriptor
	Ensured    Ensured
	Stored     int
	Query      string
	Results    []schema.Result
}
