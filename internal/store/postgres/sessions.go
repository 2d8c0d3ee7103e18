package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/voxmill/voxmill/internal/store"
)

// SessionStoreImpl is a [store.SessionStore] backed by the sessions table.
// Every query is scoped by user_id, so one user's sessions are invisible to
// another's requests.
//
// Obtain one via [Store.Sessions] rather than constructing directly, unless
// you are supplying a mock [DB] in tests.
type SessionStoreImpl struct {
	db DB
}

// NewSessionStore creates a [SessionStoreImpl] on the given database
// connection or pool. The caller is responsible for running [Migrate] before
// issuing queries.
func NewSessionStore(db DB) *SessionStoreImpl {
	return &SessionStoreImpl{db: db}
}

// Create implements [store.SessionStore].
func (s *SessionStoreImpl) Create(ctx context.Context, userID, name string) (*store.Session, error) {
	const q = `
		INSERT INTO sessions (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	sess := &store.Session{ID: uuid.New(), UserID: userID, Name: name}
	err := s.db.QueryRow(ctx, q, sess.ID, userID, name).Scan(&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("postgres: create session %q: %w", name, store.ErrDuplicateSession)
		}
		return nil, fmt.Errorf("postgres: create session: %w", err)
	}
	return sess, nil
}

// List implements [store.SessionStore]. Sessions are returned in creation
// order.
func (s *SessionStoreImpl) List(ctx context.Context, userID string) ([]store.Session, error) {
	const q = `
		SELECT id, user_id, name, filename, transcription, summary, notes, created_at, updated_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []store.Session
	for rows.Next() {
		var sess store.Session
		if err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.Name,
			&sess.Filename, &sess.Transcription, &sess.Summary, &sess.Notes,
			&sess.CreatedAt, &sess.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: list sessions scan: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	return sessions, nil
}

// Get implements [store.SessionStore].
func (s *SessionStoreImpl) Get(ctx context.Context, userID, name string) (*store.Session, error) {
	const q = `
		SELECT id, user_id, name, filename, transcription, summary, notes, created_at, updated_at
		FROM sessions
		WHERE user_id = $1 AND name = $2`

	var sess store.Session
	err := s.db.QueryRow(ctx, q, userID, name).Scan(
		&sess.ID, &sess.UserID, &sess.Name,
		&sess.Filename, &sess.Transcription, &sess.Summary, &sess.Notes,
		&sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: session %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("postgres: get session: %w", err)
	}
	return &sess, nil
}

// Rename implements [store.SessionStore].
func (s *SessionStoreImpl) Rename(ctx context.Context, userID, oldName, newName string) error {
	const q = `
		UPDATE sessions
		SET name = $3, updated_at = now()
		WHERE user_id = $1 AND name = $2`

	tag, err := s.db.Exec(ctx, q, userID, oldName, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: rename session to %q: %w", newName, store.ErrDuplicateSession)
		}
		return fmt.Errorf("postgres: rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: session %q: %w", oldName, store.ErrNotFound)
	}
	return nil
}

// Delete implements [store.SessionStore].
func (s *SessionStoreImpl) Delete(ctx context.Context, userID, name string) error {
	const q = `DELETE FROM sessions WHERE user_id = $1 AND name = $2`

	tag, err := s.db.Exec(ctx, q, userID, name)
	if err != nil {
		return fmt.Errorf("postgres: delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: session %q: %w", name, store.ErrNotFound)
	}
	return nil
}

// SetResult implements [store.SessionStore]. The UPDATE is conditioned on
// transcription IS NULL so a result can only ever be written once, and a
// result completing after the session was deleted matches no row instead of
// resurrecting it. Zero affected rows is disambiguated with a follow-up Get.
func (s *SessionStoreImpl) SetResult(ctx context.Context, userID, name, filename, transcription, summary string) error {
	const q = `
		UPDATE sessions
		SET filename = $3, transcription = $4, summary = $5, updated_at = now()
		WHERE user_id = $1 AND name = $2 AND transcription IS NULL`

	tag, err := s.db.Exec(ctx, q, userID, name, filename, transcription, summary)
	if err != nil {
		return fmt.Errorf("postgres: set result: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := s.Get(ctx, userID, name); err != nil {
		return err
	}
	return fmt.Errorf("postgres: session %q: %w", name, store.ErrConflict)
}

// SetNotes implements [store.SessionStore].
func (s *SessionStoreImpl) SetNotes(ctx context.Context, userID, name, notes string) error {
	const q = `
		UPDATE sessions
		SET notes = $3, updated_at = now()
		WHERE user_id = $1 AND name = $2`

	tag, err := s.db.Exec(ctx, q, userID, name, notes)
	if err != nil {
		return fmt.Errorf("postgres: set notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: session %q: %w", name, store.ErrNotFound)
	}
	return nil
}

// SetEmbedding implements [store.SessionStore]. The embedding is internal
// bookkeeping for search, so updated_at is left untouched.
func (s *SessionStoreImpl) SetEmbedding(ctx context.Context, userID, name string, embedding []float32) error {
	const q = `
		UPDATE sessions
		SET embedding = $3
		WHERE user_id = $1 AND name = $2`

	tag, err := s.db.Exec(ctx, q, userID, name, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("postgres: set embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: session %q: %w", name, store.ErrNotFound)
	}
	return nil
}

// SearchSummaries implements [store.SessionStore]. It finds the limit
// sessions whose summary embeddings are closest (cosine distance) to the
// query embedding, most similar first. Sessions that were never embedded are
// excluded.
func (s *SessionStoreImpl) SearchSummaries(ctx context.Context, userID string, embedding []float32, limit int) ([]store.SearchHit, error) {
	const q = `
		SELECT id, user_id, name, filename, transcription, summary, notes, created_at, updated_at,
		       embedding <=> $2 AS distance
		FROM   sessions
		WHERE  user_id = $1 AND embedding IS NOT NULL
		ORDER  BY distance
		LIMIT  $3`

	rows, err := s.db.Query(ctx, q, userID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: search summaries: %w", err)
	}
	defer rows.Close()

	var hits []store.SearchHit
	for rows.Next() {
		var hit store.SearchHit
		if err := rows.Scan(
			&hit.Session.ID, &hit.Session.UserID, &hit.Session.Name,
			&hit.Session.Filename, &hit.Session.Transcription, &hit.Session.Summary, &hit.Session.Notes,
			&hit.Session.CreatedAt, &hit.Session.UpdatedAt,
			&hit.Distance,
		); err != nil {
			return nil, fmt.Errorf("postgres: search summaries scan: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: search summaries: %w", err)
	}
	return hits, nil
}

// CountByUser implements [store.SessionStore].
func (s *SessionStoreImpl) CountByUser(ctx context.Context, userID string) (int, error) {
	const q = `SELECT count(*) FROM sessions WHERE user_id = $1`

	var n int
	if err := s.db.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count sessions: %w", err)
	}
	return n, nil
}
