// Package store defines the persistence model for voxmill: user accounts and
// audio sessions. A session starts life empty (name only) and is populated
// exactly once with the processing result (filename, transcription, summary);
// notes can be edited at any time afterwards.
//
// The canonical implementation lives in the postgres sub-package. Consumers
// depend on the [AccountStore] and [SessionStore] interfaces so tests can
// substitute mocks.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by store implementations. Callers match them with
// [errors.Is] to map persistence failures to API responses.
var (
	// ErrNotFound indicates the requested account or session does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateUser indicates an account with the same user ID already exists.
	ErrDuplicateUser = errors.New("store: user already exists")

	// ErrDuplicateSession indicates the user already has a session with that name.
	ErrDuplicateSession = errors.New("store: session name already taken")

	// ErrConflict indicates a result write was attempted against a session that
	// already holds one. Results are written exactly once.
	ErrConflict = errors.New("store: session already populated")
)

// Account is a registered user. The password is stored only as a bcrypt hash.
type Account struct {
	UserID       string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Session is one uploaded recording and everything derived from it. Filename,
// Transcription and Summary are nil until the processing pipeline completes;
// they are set together in a single write and never overwritten.
type Session struct {
	ID            uuid.UUID
	UserID        string
	Name          string
	Filename      *string
	Transcription *string
	Summary       *string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Populated reports whether the processing result has been written.
func (s *Session) Populated() bool {
	return s.Transcription != nil
}

// SearchHit is one result of a semantic search over session summaries.
// Distance is the cosine distance between the query and the stored summary
// embedding; smaller is more similar.
type SearchHit struct {
	Session  Session
	Distance float64
}

// AccountStore persists user accounts.
type AccountStore interface {
	// Create inserts a new account. Returns [ErrDuplicateUser] if the user ID
	// is taken.
	Create(ctx context.Context, account *Account) error

	// Get retrieves an account by user ID. Returns [ErrNotFound] if it does
	// not exist.
	Get(ctx context.Context, userID string) (*Account, error)

	// UpdatePassword replaces the stored password hash. Returns [ErrNotFound]
	// if the account does not exist.
	UpdatePassword(ctx context.Context, userID string, hash []byte) error
}

// SessionStore persists sessions. All operations are scoped to a user; one
// user can never read or modify another user's sessions.
type SessionStore interface {
	// Create inserts a new empty session. Returns [ErrDuplicateSession] if the
	// user already has a session with that name.
	Create(ctx context.Context, userID, name string) (*Session, error)

	// List returns all of the user's sessions in creation order.
	List(ctx context.Context, userID string) ([]Session, error)

	// Get retrieves a session by name. Returns [ErrNotFound] if it does not
	// exist.
	Get(ctx context.Context, userID, name string) (*Session, error)

	// Rename changes a session's name. Returns [ErrNotFound] if the session
	// does not exist and [ErrDuplicateSession] if the new name is taken.
	Rename(ctx context.Context, userID, oldName, newName string) error

	// Delete removes a session. Returns [ErrNotFound] if it does not exist.
	Delete(ctx context.Context, userID, name string) error

	// SetResult writes the processing result. The write applies only if the
	// session exists and has no result yet: a missing session yields
	// [ErrNotFound], an already populated one yields [ErrConflict].
	SetResult(ctx context.Context, userID, name, filename, transcription, summary string) error

	// SetNotes replaces the session's notes. Returns [ErrNotFound] if the
	// session does not exist.
	SetNotes(ctx context.Context, userID, name, notes string) error

	// SetEmbedding stores the summary embedding used by [SessionStore.SearchSummaries].
	// Returns [ErrNotFound] if the session does not exist.
	SetEmbedding(ctx context.Context, userID, name string, embedding []float32) error

	// SearchSummaries returns up to limit sessions whose summary embeddings
	// are closest to the query embedding, most similar first. Sessions without
	// an embedding are skipped.
	SearchSummaries(ctx context.Context, userID string, embedding []float32, limit int) ([]SearchHit, error)

	// CountByUser returns the number of sessions the user currently has.
	// Used to pick default session names.
	CountByUser(ctx context.Context, userID string) (int, error)
}
