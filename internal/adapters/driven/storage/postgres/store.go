// Package postgres provides PostgreSQL implementations of the document and
// chat store ports. Similarity search runs server-side with the pgvector
// cosine distance operator.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

//go:embed schema.sql
var schema string

// Store owns the connection pool and hands out the port implementations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn and applies the schema.
// The database must allow CREATE EXTENSION vector or already have it.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: database url is required", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Without arguments Exec uses the simple protocol, which accepts multiple statements.
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{pool: s.pool}
}

// ChatStore returns a ChatStore backed by this store.
func (s *Store) ChatStore() driven.ChatStore {
	return &chatStore{pool: s.pool}
}

// mapError translates pgvector dimension errors into domain.ErrDimensionMismatch.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.Contains(pgErr.Message, "different vector dimensions") {
		return fmt.Errorf("%s: %w", pgErr.Message, domain.ErrDimensionMismatch)
	}
	return err
}
