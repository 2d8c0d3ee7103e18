// Package postgres implements the voxmill store interfaces on PostgreSQL.
//
// Accounts and sessions share a single [pgxpool.Pool]. Session summaries carry
// a pgvector embedding column used for semantic search; [Migrate] installs the
// vector extension automatically via CREATE EXTENSION IF NOT EXISTS.
//
// Usage:
//
//	st, err := postgres.NewStore(ctx, dsn, 1536)
//	if err != nil { … }
//	defer st.Close()
//
//	accounts := st.Accounts()
//	sessions := st.Sessions()
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/voxmill/voxmill/internal/store"
)

// Compile-time interface checks.
var (
	_ store.AccountStore = (*AccountStoreImpl)(nil)
	_ store.SessionStore = (*SessionStoreImpl)(nil)
)

// DB is the database interface used by the store implementations. Both
// *pgxpool.Pool and *pgx.Conn satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the central PostgreSQL-backed store for voxmill. It holds a single
// [pgxpool.Pool] and exposes the two persistence layers:
//
//   - [Store.Accounts] returns an [AccountStoreImpl] implementing [store.AccountStore]
//   - [Store.Sessions] returns a [SessionStoreImpl] implementing [store.SessionStore]
//
// All operations are safe for concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	accounts *AccountStoreImpl
	sessions *SessionStoreImpl
}

// StoreOption adjusts the pool configuration before the pool is created.
type StoreOption func(*pgxpool.Config)

// WithMaxConns caps the connection pool size. Zero or negative keeps the
// pgxpool default.
func WithMaxConns(n int32) StoreOption {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// NewStore creates a new Store, establishes a connection pool to the
// PostgreSQL database at dsn, registers pgvector types on every connection,
// and runs [Migrate] to ensure all required tables and extensions exist.
//
// embeddingDimensions must match the output dimension of the embedding model
// used for summary embeddings (e.g., 1536 for OpenAI text-embedding-3-small).
// Changing this value after the first migration requires a manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int, opts ...StoreOption) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}
	for _, o := range opts {
		o(cfg)
	}

	// Register pgvector types on every new connection so that embedding
	// columns can be scanned into and inserted from pgvector.Vector values.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: %w", err)
	}

	return &Store{
		pool:     pool,
		accounts: &AccountStoreImpl{db: pool},
		sessions: &SessionStoreImpl{db: pool},
	}, nil
}

// Accounts returns the account store implementation which satisfies [store.AccountStore].
func (s *Store) Accounts() *AccountStoreImpl { return s.accounts }

// Sessions returns the session store implementation which satisfies [store.SessionStore].
func (s *Store) Sessions() *SessionStoreImpl { return s.sessions }

// Ping verifies the database is reachable. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres store: ping: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying connection pool.
// It should be called when the Store is no longer needed, typically via defer.
func (s *Store) Close() {
	s.pool.Close()
}

// isUniqueViolation checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
