package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	collectionTable = "embflow_collection"
	// pointTable is the vec virtual table; points live in its shadow table,
	// keyed by dataset_id (the collection name) and id.
	pointTable  = "embflow_point"
	shadowTable = "_vec_" + pointTable
)

func (s *Store) ensureSchemaDDL(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name       TEXT PRIMARY KEY,
			dimension  INTEGER NOT NULL,
			distance   TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`, collectionTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			dataset_id TEXT NOT NULL,
			id         TEXT NOT NULL,
			content    TEXT,
			meta       TEXT,
			embedding  BLOB,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(dataset_id, id)
		);`, shadowTable),
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec(doc_id);`, pointTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlitevec: ensure schema: %w", err)
		}
	}
	return nil
}

type sqlQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
