package hashing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cos(a, b []float32) float32 {
	var d float32
	for i := range a {
		d += a[i] * b[i]
	}
	return d
}

func TestEmbedder_Deterministic(t *testing.T) {
	emb := New(64)
	ctx := context.Background()
	a, err := emb.EmbedQuery(ctx, "Hello, World")
	require.NoError(t, err)
	b, err := emb.EmbedQuery(ctx, "hello world")
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, cos(a, b), 1e-5)
}

func TestEmbedder_SharedWordsScoreHigher(t *testing.T) {
	emb := New(DefaultDim)
	vecs, err := emb.EmbedDocuments(context.Background(), []string{
		"the cat sat on the mat",
		"a cat sat on a mat",
		"quarterly revenue grew sharply",
	})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Greater(t, cos(vecs[0], vecs[1]), cos(vecs[0], vecs[2]))
}

func TestEmbedder_EmptyText(t *testing.T) {
	v, err := New(8).EmbedQuery(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}
