// Package sqlitevec implements vectordb.Store on a local SQLite database.
// Points are kept in the shadow table of a sqlite-vec virtual table. Cosine
// collections are searched with the vec MATCH operator; Dot and Euclid
// collections are scored in process since vec ranks by cosine only.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/viant/sqlite-vec/engine"
	"github.com/viant/sqlite-vec/vec"
	"github.com/viant/sqlite-vec/vector"

	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
)

// Store is a SQLite backed vectordb.Store.
type Store struct {
	db            *sql.DB
	dsn           string
	busyTimeout   time.Duration
	openedLocally bool
}

// Option configures the sqlite store.
type Option func(*Store)

// WithDB sets an existing *sql.DB to use.
func WithDB(db *sql.DB) Option {
	return func(s *Store) { s.db = db }
}

// WithDSN sets the SQLite DSN to open (e.g. /path/to/db.sqlite).
func WithDSN(dsn string) Option {
	return func(s *Store) { s.dsn = dsn }
}

// WithBusyTimeout sets how long writers wait on a locked database file.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *Store) { s.busyTimeout = timeout }
}

// NewStore opens the database and ensures the schema.
func NewStore(ctx context.Context, opts ...Option) (*Store, error) {
	s := &Store{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.db == nil {
		if s.dsn == "" {
			return nil, fmt.Errorf("sqlitevec: dsn required")
		}
		db, err := engine.Open(withPragmas(s.dsn, s.busyTimeout))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
		s.db = db
		s.openedLocally = true
	}
	if err := vec.Register(s.db); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.ensureSchemaDDL(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying DB if Store opened it.
func (s *Store) Close() error {
	if s.openedLocally && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying sql.DB.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) describe(ctx context.Context, q sqlQueryer, name string) (schema.Descriptor, bool, error) {
	desc := schema.Descriptor{Name: name}
	var distance string
	err := q.QueryRowContext(ctx, `SELECT dimension, distance FROM `+collectionTable+` WHERE name = ?`, name).
		Scan(&desc.Dimension, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return desc, false, nil
	}
	if err != nil {
		return desc, false, err
	}
	desc.Distance = schema.Distance(distance)
	return desc, true, nil
}

// EnsureCollection registers the collection unless it already exists with the same schema.
func (s *Store) EnsureCollection(ctx context.Context, desc schema.Descriptor) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO `+collectionTable+`(name, dimension, distance) VALUES(?,?,?)
ON CONFLICT(name) DO NOTHING`, desc.Name, desc.Dimension, string(desc.Distance))
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return true, nil
	}
	existing, found, err := s.describe(ctx, s.db, desc.Name)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, desc.Name)
	}
	return false, vectordb.CompareDescriptors(existing, desc)
}

// Upsert writes all points in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, points []schema.Point) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, found, err := s.describe(ctx, tx, collection); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, collection)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+shadowTable+`(dataset_id, id, content, meta, embedding)
VALUES(?,?,?,?,?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
	content=excluded.content,
	meta=excluded.meta,
	embedding=excluded.embedding,
	updated_at=CURRENT_TIMESTAMP`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("sqlitevec: encode payload %s: %w", p.ID, err)
		}
		blob, err := vector.EncodeEmbedding(p.Vector)
		if err != nil {
			return fmt.Errorf("sqlitevec: encode embedding %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, p.ID, p.Text, string(payload), blob); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Search returns the k closest points of the collection.
func (s *Store) Search(ctx context.Context, collection string, query []float32, k int) ([]schema.Result, error) {
	desc, found, err := s.describe(ctx, s.db, collection)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, collection)
	}
	if desc.Distance == schema.Cosine {
		return s.matchSearch(ctx, collection, query, k)
	}
	return s.scanSearch(ctx, desc, query, k)
}

// matchSearch ranks through the vec virtual table; match_score is the cosine similarity.
func (s *Store) matchSearch(ctx context.Context, collection string, query []float32, k int) ([]schema.Result, error) {
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: encode query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT d.id, d.content, d.meta, v.match_score
FROM `+pointTable+` v
JOIN `+shadowTable+` d ON d.dataset_id = v.dataset_id AND d.id = v.doc_id
WHERE v.dataset_id = ?
  AND v.doc_id MATCH ?
ORDER BY v.match_score DESC
LIMIT ?`, collection, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []schema.Result
	for rows.Next() {
		var (
			item    schema.Result
			content sql.NullString
			payload sql.NullString
			score   float64
		)
		if err := rows.Scan(&item.ID, &content, &payload, &score); err != nil {
			return nil, err
		}
		item.Text = content.String
		item.Score = float32(score)
		if item.Payload, err = decodePayload(item.ID, payload); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vectordb.Rank(out, k), nil
}

// scanSearch decodes every point of the collection and scores it in process.
func (s *Store) scanSearch(ctx context.Context, desc schema.Descriptor, query []float32, k int) ([]schema.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, meta, embedding FROM `+shadowTable+` WHERE dataset_id = ?`, desc.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []schema.Result
	for rows.Next() {
		var (
			id      string
			content sql.NullString
			payload sql.NullString
			blob    []byte
		)
		if err := rows.Scan(&id, &content, &payload, &blob); err != nil {
			return nil, err
		}
		embedding, err := vector.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("sqlitevec: decode embedding %s: %w", id, err)
		}
		item := schema.Result{ID: id, Text: content.String, Score: vectordb.Score(desc.Distance, query, embedding)}
		if item.Payload, err = decodePayload(id, payload); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vectordb.Rank(out, k), nil
}

func decodePayload(id string, raw sql.NullString) (map[string]interface{}, error) {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw.String), &payload); err != nil {
		return nil, fmt.Errorf("sqlitevec: decode payload %s: %w", id, err)
	}
	return payload, nil
}
