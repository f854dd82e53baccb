package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection VARCHAR(64)  NOT NULL,
    id         VARCHAR(255) NOT NULL,
    body       JSON         NOT NULL,
    updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, id)
)`

const upsertDocument = `INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
    ON DUPLICATE KEY UPDATE body = VALUES(body)`

type mysqlDocStore struct {
	db *sqlx.DB
}

func NewMySQLDocStore(db *sqlx.DB) DocStore {
	return &mysqlDocStore{db: db}
}

// MigrateDocuments creates the documents table when missing.
func MigrateDocuments(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *mysqlDocStore) Get(ctx context.Context, collection, id string, dest any) error {
	var body []byte
	err := s.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(body, dest)
}

func (s *mysqlDocStore) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertDocument, collection, id, body); err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *mysqlDocStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.UpdateInTx(ctx, collection, id, func(current json.RawMessage) (any, error) {
		merged, err := mergeFields(current, fields)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(merged), nil
	})
}

func (s *mysqlDocStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *mysqlDocStore) Query(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	var bodies [][]byte
	if err := s.db.SelectContext(ctx, &bodies, `SELECT body FROM documents WHERE collection = ?`, collection); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	raws := make([]json.RawMessage, len(bodies))
	for i, b := range bodies {
		raws[i] = b
	}
	return applyQuery(raws, q)
}

// UpdateInTx locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (s *mysqlDocStore) UpdateInTx(ctx context.Context, collection, id string, fn TxFunc) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current json.RawMessage
	var body []byte
	err = tx.GetContext(ctx, &body, `SELECT body FROM documents WHERE collection = ? AND id = ? FOR UPDATE`, collection, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return fmt.Errorf("failed to lock %s/%s: %w", collection, id, err)
	default:
		current = body
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return tx.Commit()
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	if _, err = tx.ExecContext(ctx, upsertDocument, collection, id, encoded); err != nil {
		return fmt.Errorf("failed to store %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}
