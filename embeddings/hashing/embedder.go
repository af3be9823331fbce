// Package hashing provides a deterministic offline embedder based on the
// hashing trick: every lower-cased word is hashed into one of Dim signed
// buckets and the result is L2 normalised. Texts sharing words therefore
// score higher under cosine similarity, which is enough for demos and tests.
package hashing

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

const DefaultDim = 256

var key = []byte("embedflow-hashing-embedder-key-0")

// Embedder computes feature-hashed vectors locally.
type Embedder struct {
	Dim int
}

// New constructs an embedder producing dim sized vectors.
func New(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Embedder{Dim: dim}
}

// EmbedDocuments embeds documents deterministically.
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(doc)
	}
	return out, nil
}

// EmbedQuery embeds a query deterministically.
func (e *Embedder) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(q), nil
}

func (e *Embedder) embed(text string) []float32 {
	dim := e.Dim
	if dim <= 0 {
		dim = DefaultDim
	}
	v := make([]float32, dim)
	for _, token := range tokenize(text) {
		h := highwayhash.Sum64([]byte(token), key)
		idx := int(h % uint64(dim))
		if h>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
