package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/embedflow/embeddings/hashing"
	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
	"github.com/viant/embedflow/vectordb/chromem"
)

// fixedEmbedder returns preset vectors per text and counts calls.
type fixedEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	failAt  int
}

func (e *fixedEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failAt > 0 && e.calls >= e.failAt {
		return nil, errors.New("provider unavailable")
	}
	out := make([][]float32, len(docs))
	for i, doc := range docs {
		vec, ok := e.vectors[doc]
		if !ok {
			return nil, errors.New("no vector for " + doc)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// recordingStore wraps a store and counts calls.
type recordingStore struct {
	vectordb.Store
	upserts  int
	searches int
}

func (s *recordingStore) Upsert(ctx context.Context, collection string, points []schema.Point) error {
	s.upserts++
	return s.Store.Upsert(ctx, collection, points)
}

func (s *recordingStore) Search(ctx context.Context, collection string, vector []float32, k int) ([]schema.Result, error) {
	s.searches++
	return s.Store.Search(ctx, collection, vector, k)
}

func newTestService(t *testing.T, embedder *fixedEmbedder, opts ...Option) (*Service, *recordingStore) {
	t.Helper()
	store := &recordingStore{Store: chromem.New()}
	opts = append([]Option{WithEmbedder(embedder), WithStore(store)}, opts...)
	srv, err := NewService(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv, store
}

var testDesc = schema.Descriptor{Name: "docs", Dimension: 3, Distance: schema.Cosine}

func testVectors() map[string][]float32 {
	return map[string][]float32{
		"hello world": {1, 0, 0},
		"hello there": {0.9, 0.1, 0},
		"tax report":  {0, 0, 1},
		"hello":       {1, 0.05, 0},
		"goodbye":     {0, 1, 0},
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(WithStore(chromem.New()))
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewService(WithEmbedder(hashing.New(4)))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestService_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t, &fixedEmbedder{vectors: testVectors()})

	result, err := srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)
	assert.Equal(t, Created, result)

	result, err = srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)
	assert.Equal(t, Existing, result)

	mismatch := testDesc
	mismatch.Dimension = 8
	_, err = srv.EnsureCollection(ctx, mismatch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.True(t, errors.Is(err, vectordb.ErrSchemaMismatch))
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "collection.dimension", e.Field)

	_, err = srv.EnsureCollection(ctx, schema.Descriptor{Name: "", Dimension: 3, Distance: schema.Cosine})
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = srv.EnsureCollection(ctx, schema.Descriptor{Name: "x", Dimension: 0, Distance: schema.Cosine})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestService_EnsureCollection_UnsupportedDistance(t *testing.T) {
	srv, _ := newTestService(t, &fixedEmbedder{vectors: testVectors()})
	desc := testDesc
	desc.Distance = schema.Dot
	_, err := srv.EnsureCollection(context.Background(), desc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.True(t, errors.Is(err, vectordb.ErrUnsupportedDistance))
}

func TestService_EmbedAndStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t, &fixedEmbedder{vectors: testVectors()})
	_, err := srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)

	count, err := srv.EmbedAndStore(ctx, []schema.TextRecord{
		{ID: "a", Text: "hello world", Payload: map[string]interface{}{"title": "greeting"}},
	}, testDesc)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := srv.Search(ctx, "hello world", testDesc, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "hello world", results[0].Text)
	assert.Equal(t, map[string]interface{}{"title": "greeting"}, results[0].Payload)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	count, err = srv.EmbedAndStore(ctx, []schema.TextRecord{
		{ID: "a", Text: "hello world", Payload: map[string]interface{}{"title": "updated"}},
	}, testDesc)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err = srv.Search(ctx, "hello world", testDesc, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]interface{}{"title": "updated"}, results[0].Payload)
}

func TestService_Search_Ranking(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t, &fixedEmbedder{vectors: testVectors()})
	_, err := srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)
	_, err = srv.EmbedAndStore(ctx, []schema.TextRecord{
		{ID: "far", Text: "tax report"},
		{ID: "near", Text: "hello there"},
		{ID: "mid", Text: "goodbye"},
	}, testDesc)
	require.NoError(t, err)

	results, err := srv.Search(ctx, "hello", testDesc, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	results, err = srv.Search(ctx, "hello", testDesc, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestService_EmbedAndStore_DuplicateIDs(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestService(t, &fixedEmbedder{vectors: testVectors()})
	_, err := srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)

	count, err := srv.EmbedAndStore(ctx, []schema.TextRecord{
		{ID: "a", Text: "hello world", Payload: map[string]interface{}{"v": "first"}},
		{ID: "b", Text: "tax report"},
		{ID: "a", Text: "hello there", Payload: map[string]interface{}{"v": "last"}},
	}, testDesc)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := srv.Search(ctx, "hello there", testDesc, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "hello there", results[0].Text)
	assert.Equal(t, map[string]interface{}{"v": "last"}, results[0].Payload)
}

func TestService_EmbedAndStore_ProviderFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	embedder := &fixedEmbedder{vectors: testVectors(), failAt: 2}
	srv, store := newTestService(t, embedder, WithBatchSize(1))
	_, err := srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)

	_, err = srv.EmbedAndStore(ctx, []schema.TextRecord{
		{ID: "a", Text: "hello world"},
		{ID: "b", Text: "tax report"},
	}, testDesc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
	assert.Equal(t, 0, store.upserts)
	assert.Equal(t, 2, embedder.calls)
}

func TestService_EmbedAndStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	srv, store := newTestService(t, &fixedEmbedder{vectors: map[string][]float32{"short": {1, 0}}})
	_, err := srv.EnsureCollection(ctx, testDesc)
	require.NoError(t, err)

	_, err = srv.EmbedAndStore(ctx, []schema.TextRecord{{ID: "a", Text: "short"}}, testDesc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, 0, store.upserts)

	_, err = srv.Search(ctx, "short", testDesc, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, 0, store.searches)
}

func TestService_EmbedAndStore_ZeroVector(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{Store: chromem.New()}
	srv, err := NewService(WithEmbedder(hashing.New(16)), WithStore(store))
	require.NoError(t, err)
	defer srv.Close()
	desc := schema.Descriptor{Name: "notes", Dimension: 16, Distance: schema.Cosine}
	_, err = srv.EnsureCollection(ctx, desc)
	require.NoError(t, err)

	records := []schema.TextRecord{
		{ID: "punct", Text: "!!! ???"},
		{ID: "hello", Text: "hello world"},
		{ID: "tax", Text: "tax report"},
	}
	_, err = srv.EmbedAndStore(ctx, records, desc)
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, "records.text", e.Field)
	assert.Contains(t, e.Error(), "punct")
	assert.Equal(t, 0, store.upserts)

	count, err := srv.EmbedAndStore(ctx, records[1:], desc)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	results, err := srv.Search(ctx, "hello world", desc, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "hello", results[0].ID)
	for _, result := range results {
		assert.False(t, result.Score != result.Score, result.ID)
	}

	_, err = srv.Search(ctx, "!!! ???", desc, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 1, store.searches)
}

func TestService_EmbedAndStore_Validation(t *testing.T) {
	ctx := context.Background()
	embedder := &fixedEmbedder{vectors: testVectors()}
	srv, _ := newTestService(t, embedder)

	testCases := []struct {
		description string
		records     []schema.TextRecord
		field       string
	}{
		{description: "empty batch", records: nil, field: "records"},
		{description: "missing id", records: []schema.TextRecord{{Text: "hello"}}, field: "records[0].id"},
		{description: "missing text", records: []schema.TextRecord{{ID: "a"}}, field: "records[0].text"},
		{description: "reserved key", records: []schema.TextRecord{{ID: "a", Text: "hello", Payload: map[string]interface{}{"_text": "x"}}}, field: "records[0].payload._text"},
	}
	for _, testCase := range testCases {
		_, err := srv.EmbedAndStore(ctx, testCase.records, testDesc)
		require.Error(t, err, testCase.description)
		var e *Error
		require.True(t, errors.As(err, &e), testCase.description)
		assert.Equal(t, KindValidation, e.Kind, testCase.description)
		assert.Equal(t, testCase.field, e.Field, testCase.description)
	}
	assert.Equal(t, 0, embedder.calls)
}

func TestService_Search_Validation(t *testing.T) {
	ctx := context.Background()
	embedder := &fixedEmbedder{vectors: testVectors()}
	srv, store := newTestService(t, embedder)

	for _, topK := range []int{0, -1} {
		_, err := srv.Search(ctx, "hello", testDesc, topK)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}
	_, err := srv.Search(ctx, "  ", testDesc, 3)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, store.searches)
}

func TestService_Search_MissingCollection(t *testing.T) {
	srv, _ := newTestService(t, &fixedEmbedder{vectors: testVectors()})
	_, err := srv.Search(context.Background(), "hello", testDesc, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStore))
	assert.True(t, errors.Is(err, vectordb.ErrCollectionNotFound))
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	store := chromem.New()
	srv, err := NewService(WithEmbedder(hashing.New(64)), WithStore(store))
	require.NoError(t, err)
	defer srv.Close()
	desc := schema.Descriptor{Name: "demo", Dimension: 64, Distance: schema.Cosine}

	report, err := srv.Run(ctx, desc, DemoRecords(), DemoRecords()[0].Text, 3)
	require.NoError(t, err)
	assert.Equal(t, Created, report.Ensured)
	assert.Equal(t, len(DemoRecords()), report.Stored)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "1", report.Results[0].ID)

	report, err = srv.Run(ctx, desc, DemoRecords(), DemoQuery, 3)
	require.NoError(t, err)
	assert.Equal(t, Existing, report.Ensured)

	_, err = srv.Run(ctx, desc, DemoRecords(), DemoQuery, 0)
	require.Error(t, err)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "search", stageErr.Stage)
	assert.True(t, errors.Is(err, ErrValidation))
}
