// Package qdrant implements vectordb.Store over the Qdrant REST API.
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
	"github.com/viant/embedflow/vectordb/meta"
)

const defaultTimeout = 30 * time.Second

// pointNamespace seeds the UUIDv5 point IDs derived from record IDs.
var pointNamespace = uuid.MustParse("6f1c2f5e-9a57-4c39-9f3e-2d1b8f0c7a41")

// Option configures the Store.
type Option func(*Store)

// WithAPIKey sets the api-key header.
func WithAPIKey(key string) Option {
	return func(s *Store) { s.apiKey = key }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// Store is a Qdrant backed vectordb.Store.
type Store struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu        sync.RWMutex
	distances map[string]schema.Distance
}

// New creates a store for the Qdrant instance at baseURL, e.g. http://localhost:6333.
func New(baseURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("qdrant: invalid url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("qdrant: invalid url %q: expected http(s)://host[:port]", baseURL)
	}
	s := &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		distances:  map[string]schema.Distance{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (s *Store) Close() error { return nil }

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// collectionInfo keeps vectors raw: Qdrant returns either one unnamed
// vectorParams object or a map of named ones.
type collectionInfo struct {
	Config struct {
		Params struct {
			Vectors json.RawMessage `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

// unnamedVectors decodes the single unnamed vector config of a collection.
// Named vector collections are reported as a schema mismatch.
func unnamedVectors(name string, raw json.RawMessage) (vectorParams, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return vectorParams{}, fmt.Errorf("qdrant: decode vectors of collection %q: %w", name, err)
	}
	if _, ok := fields["size"]; ok {
		var params vectorParams
		if err := json.Unmarshal(raw, &params); err != nil {
			return vectorParams{}, fmt.Errorf("qdrant: decode vectors of collection %q: %w", name, err)
		}
		return params, nil
	}
	names := make([]string, 0, len(fields))
	for vectorName := range fields {
		names = append(names, vectorName)
	}
	sort.Strings(names)
	return vectorParams{}, fmt.Errorf("%w: collection %q uses named vectors [%s]; only a single unnamed vector is supported",
		vectordb.ErrSchemaMismatch, name, strings.Join(names, ", "))
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

// describe returns the descriptor of an existing collection; found is false on 404.
func (s *Store) describe(ctx context.Context, name string) (desc schema.Descriptor, found bool, err error) {
	var info collectionInfo
	if err = s.do(ctx, http.MethodGet, collectionPath(name), nil, &info); err != nil {
		var qErr *Error
		if errors.As(err, &qErr) && qErr.StatusCode == http.StatusNotFound {
			return desc, false, nil
		}
		return desc, false, err
	}
	params, err := unnamedVectors(name, info.Config.Params.Vectors)
	if err != nil {
		return desc, true, err
	}
	desc = schema.Descriptor{
		Name:      name,
		Dimension: params.Size,
		Distance:  schema.Distance(params.Distance),
	}
	s.remember(desc)
	return desc, true, nil
}

func (s *Store) remember(desc schema.Descriptor) {
	s.mu.Lock()
	s.distances[desc.Name] = desc.Distance
	s.mu.Unlock()
}

// EnsureCollection creates the collection unless it already exists with the same schema.
func (s *Store) EnsureCollection(ctx context.Context, desc schema.Descriptor) (bool, error) {
	existing, found, err := s.describe(ctx, desc.Name)
	if err != nil {
		return false, err
	}
	if found {
		return false, vectordb.CompareDescriptors(existing, desc)
	}
	body := map[string]interface{}{
		"vectors": vectorParams{Size: desc.Dimension, Distance: string(desc.Distance)},
	}
	if err = s.do(ctx, http.MethodPut, collectionPath(desc.Name), body, nil); err != nil {
		var qErr *Error
		if !errors.As(err, &qErr) || !alreadyExists(qErr) {
			return false, err
		}
		// created concurrently by another writer
		if existing, found, err = s.describe(ctx, desc.Name); err != nil {
			return false, err
		}
		if !found {
			return false, qErr
		}
		return false, vectordb.CompareDescriptors(existing, desc)
	}
	s.remember(desc)
	return true, nil
}

func alreadyExists(err *Error) bool {
	if err.StatusCode == http.StatusConflict {
		return true
	}
	return err.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(err.Message), "already exists")
}

type point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// PointID maps a record ID to its Qdrant point ID.
func PointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

// Upsert writes points and waits until Qdrant has applied them.
func (s *Store) Upsert(ctx context.Context, collection string, points []schema.Point) error {
	if len(points) == 0 {
		return nil
	}
	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, 0, len(points))}
	for _, p := range points {
		body.Points = append(body.Points, point{
			ID:      PointID(p.ID),
			Vector:  p.Vector,
			Payload: meta.Decorate(p.Payload, p.ID, p.Text),
		})
	}
	err := s.do(ctx, http.MethodPut, collectionPath(collection)+"/points?wait=true", body, nil)
	return notFound(err, collection)
}

type scoredPoint struct {
	ID      interface{}            `json:"id"`
	Score   float32                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

// Search returns up to k nearest points. Euclid distances are negated so that
// a higher score is always closer.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, k int) ([]schema.Result, error) {
	distance, err := s.distance(ctx, collection)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var hits []scoredPoint
	if err := s.do(ctx, http.MethodPost, collectionPath(collection)+"/points/search", body, &hits); err != nil {
		return nil, notFound(err, collection)
	}
	out := make([]schema.Result, 0, len(hits))
	for _, hit := range hits {
		id, text, payload := meta.Strip(hit.Payload)
		if id == "" {
			id = fmt.Sprint(hit.ID)
		}
		score := hit.Score
		if distance == schema.Euclid {
			score = -score
		}
		out = append(out, schema.Result{ID: id, Text: text, Payload: payload, Score: score})
	}
	return out, nil
}

func (s *Store) distance(ctx context.Context, collection string) (schema.Distance, error) {
	s.mu.RLock()
	distance, ok := s.distances[collection]
	s.mu.RUnlock()
	if ok {
		return distance, nil
	}
	desc, found, err := s.describe(ctx, collection)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, collection)
	}
	return desc.Distance, nil
}

func notFound(err error, collection string) error {
	var qErr *Error
	if errors.As(err, &qErr) && qErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %v", vectordb.ErrCollectionNotFound, collection, qErr)
	}
	return err
}
