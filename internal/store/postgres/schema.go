package postgres

import (
	"context"
	"fmt"
)

const ddlAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
    user_id       TEXT         PRIMARY KEY,
    password_hash BYTEA        NOT NULL,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// ddlSessions returns the sessions DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlSessions(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS sessions (
    id            UUID         PRIMARY KEY,
    user_id       TEXT         NOT NULL REFERENCES accounts (user_id) ON DELETE CASCADE,
    name          TEXT         NOT NULL,
    filename      TEXT,
    transcription TEXT,
    summary       TEXT,
    notes         TEXT         NOT NULL DEFAULT '',
    embedding     vector(%d),
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    UNIQUE (user_id, name)
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_created
    ON sessions (user_id, created_at);

CREATE INDEX IF NOT EXISTS idx_sessions_embedding
    ON sessions USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required database tables and extensions
// exist. It is idempotent (CREATE TABLE IF NOT EXISTS / CREATE INDEX IF NOT
// EXISTS) and safe to call on every application start.
//
// embeddingDimensions must match the embedding model configured for your
// deployment (e.g., 1536 for OpenAI text-embedding-3-small, 768 for
// nomic-embed-text). Changing this value after the first migration requires a
// manual schema update.
func Migrate(ctx context.Context, db DB, embeddingDimensions int) error {
	statements := []string{
		ddlAccounts,
		ddlSessions(embeddingDimensions),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
