package vectordb

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/embedflow/schema"
)

func TestScore(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 1.0, Score(schema.Cosine, a, a), 1e-6)
	assert.InDelta(t, 0.0, Score(schema.Cosine, a, b), 1e-6)
	assert.InDelta(t, 2.0, Score(schema.Dot, []float32{1, 1}, []float32{1, 1}), 1e-6)
	assert.InDelta(t, 0.0, Score(schema.Euclid, a, a), 1e-6)
	assert.Greater(t, Score(schema.Euclid, a, []float32{0.9, 0}), Score(schema.Euclid, a, b))
}

func TestRank(t *testing.T) {
	results := []schema.Result{{ID: "low", Score: 0.1}, {ID: "high", Score: 0.9}, {ID: "mid", Score: 0.5}}
	ranked := Rank(results, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].ID)
	assert.Equal(t, "mid", ranked[1].ID)
}

func TestRank_NaNLast(t *testing.T) {
	nan := float32(math.NaN())
	results := []schema.Result{{ID: "punct", Score: nan}, {ID: "b", Score: 0}, {ID: "a", Score: 0.99}, {ID: "c", Score: nan}}
	ranked := Rank(results, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "punct", ranked[2].ID)
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5.0, Norm([]float32{3, 4}), 1e-9)
	assert.Equal(t, 0.0, Norm([]float32{0, 0}))
}

func TestCompareDescriptors(t *testing.T) {
	existing := schema.Descriptor{Name: "docs", Dimension: 3, Distance: schema.Cosine}
	assert.NoError(t, CompareDescriptors(existing, existing))

	err := CompareDescriptors(existing, schema.Descriptor{Name: "docs", Dimension: 4, Distance: schema.Cosine})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "dimension", mismatch.Field)

	err = CompareDescriptors(existing, schema.Descriptor{Name: "docs", Dimension: 3, Distance: schema.Dot})
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "distance", mismatch.Field)
}
