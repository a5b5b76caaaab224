package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/upb/staff-portal/repositories"
	"go.uber.org/zap"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// ErrNotObject is returned when a filter or document does not encode to a JSON object
var ErrNotObject = errors.New("document must encode to a JSON object")

// DocumentStore implements repositories.DocumentStore on a JSONB table.
// Filters use containment (body @> filter), which is an AND of field equalities.
type DocumentStore struct {
	db     *DB
	logger *zap.Logger
}

// NewDocumentStore creates a new document store
func NewDocumentStore(db *DB, logger *zap.Logger) repositories.DocumentStore {
	return &DocumentStore{
		db:     db,
		logger: logger,
	}
}

// Find returns every document in collection matching filter, oldest first
func (s *DocumentStore) Find(ctx context.Context, collection string, filter repositories.Filter) ([]json.RawMessage, error) {
	match, err := encodeFilter(filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND body @> $2::jsonb
		ORDER BY created_at, id
	`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, collection, match)
	if err != nil {
		s.logger.Error("query error in Find", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer rows.Close()

	docs := make([]json.RawMessage, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, json.RawMessage(body))
	}

	if err := rows.Err(); err != nil {
		s.logger.Error("row iteration error in Find", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// FindOne returns the oldest document matching filter
func (s *DocumentStore) FindOne(ctx context.Context, collection string, filter repositories.Filter) (json.RawMessage, error) {
	match, err := encodeFilter(filter)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND body @> $2::jsonb
		ORDER BY created_at, id
		LIMIT 1
	`

	var body []byte
	err = GetExecutor(ctx, s.db).QueryRowContext(ctx, query, collection, match).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		s.logger.Error("query error in FindOne", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return json.RawMessage(body), nil
}

// InsertOne stores doc under id in collection
func (s *DocumentStore) InsertOne(ctx context.Context, collection, id string, doc any) error {
	body, err := encodeObject(doc)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
	`

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, collection, id, body); err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		s.logger.Error("query error in InsertOne", zap.String("collection", collection), zap.Error(err))
		return fmt.Errorf("failed to insert document: %w", err)
	}

	s.logger.Debug("document inserted", zap.String("collection", collection), zap.String("id", id))
	return nil
}

// UpdateOne merges set into the oldest document matching filter and returns it
func (s *DocumentStore) UpdateOne(ctx context.Context, collection string, filter repositories.Filter, set any) (json.RawMessage, error) {
	match, err := encodeFilter(filter)
	if err != nil {
		return nil, err
	}
	patch, err := encodeObject(set)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE documents
		SET body = body || $3::jsonb,
		    updated_at = NOW()
		WHERE collection = $1 AND id = (
			SELECT id FROM documents
			WHERE collection = $1 AND body @> $2::jsonb
			ORDER BY created_at, id
			LIMIT 1
		)
		RETURNING body
	`

	var body []byte
	err = GetExecutor(ctx, s.db).QueryRowContext(ctx, query, collection, match, patch).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, repositories.ErrDuplicate
		}
		s.logger.Error("query error in UpdateOne", zap.String("collection", collection), zap.Error(err))
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	return json.RawMessage(body), nil
}

// DeleteOne removes the oldest document matching filter
func (s *DocumentStore) DeleteOne(ctx context.Context, collection string, filter repositories.Filter) (int64, error) {
	match, err := encodeFilter(filter)
	if err != nil {
		return 0, err
	}

	query := `
		DELETE FROM documents
		WHERE collection = $1 AND id = (
			SELECT id FROM documents
			WHERE collection = $1 AND body @> $2::jsonb
			ORDER BY created_at, id
			LIMIT 1
		)
	`

	result, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, collection, match)
	if err != nil {
		s.logger.Error("query error in DeleteOne", zap.String("collection", collection), zap.Error(err))
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func encodeFilter(filter repositories.Filter) (string, error) {
	if len(filter) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("failed to encode filter: %w", err)
	}
	return string(b), nil
}

func encodeObject(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	if len(b) == 0 || b[0] != '{' {
		return "", ErrNotObject
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
