// Package mock provides in-memory test doubles for the store interfaces.
//
// Each mock records every method call for assertion in tests and exposes
// exported fields that control what the mock returns. Per-method Func fields
// take precedence over the Result/Err fields when set, for tests that need
// call-dependent behaviour. All mocks are safe for concurrent use via an
// internal [sync.Mutex].
//
// Typical usage:
//
//	sessions := &mock.SessionStore{}
//	sessions.GetResult = &store.Session{UserID: "alice", Name: "Session 1"}
//
//	// inject sessions into the system under test …
//
//	if got := sessions.CallCount("Get"); got != 1 {
//	    t.Errorf("expected 1 Get call, got %d", got)
//	}
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxmill/voxmill/internal/store"
)

// Compile-time interface checks.
var (
	_ store.AccountStore = (*AccountStore)(nil)
	_ store.SessionStore = (*SessionStore)(nil)
)

// Call records the name and arguments of a single method invocation.
type Call struct {
	// Method is the name of the interface method that was called.
	Method string

	// Args holds the non-context arguments passed to the method, in order.
	Args []any
}

// ─────────────────────────────────────────────────────────────────────────────
// AccountStore mock
// ─────────────────────────────────────────────────────────────────────────────

// AccountStore is a configurable test double for [store.AccountStore].
type AccountStore struct {
	mu    sync.Mutex
	calls []Call

	// CreateErr is returned by [AccountStore.Create] when non-nil.
	CreateErr error

	// CreateFunc overrides Create entirely when set.
	CreateFunc func(ctx context.Context, account *store.Account) error

	// GetResult is returned by [AccountStore.Get]. When nil (and GetErr is
	// nil), Get returns [store.ErrNotFound], matching an empty store.
	GetResult *store.Account

	// GetErr is returned by [AccountStore.Get] when non-nil.
	GetErr error

	// GetFunc overrides Get entirely when set.
	GetFunc func(ctx context.Context, userID string) (*store.Account, error)

	// UpdatePasswordErr is returned by [AccountStore.UpdatePassword] when non-nil.
	UpdatePasswordErr error

	// UpdatePasswordFunc overrides UpdatePassword entirely when set.
	UpdatePasswordFunc func(ctx context.Context, userID string, hash []byte) error
}

// Calls returns a copy of all recorded method invocations.
func (m *AccountStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *AccountStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls without altering response configuration.
func (m *AccountStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *AccountStore) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Create implements [store.AccountStore].
func (m *AccountStore) Create(ctx context.Context, account *store.Account) error {
	m.record("Create", account)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return m.CreateErr
}

// Get implements [store.AccountStore].
func (m *AccountStore) Get(ctx context.Context, userID string) (*store.Account, error) {
	m.record("Get", userID)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.GetResult == nil {
		return nil, store.ErrNotFound
	}
	return m.GetResult, nil
}

// UpdatePassword implements [store.AccountStore].
func (m *AccountStore) UpdatePassword(ctx context.Context, userID string, hash []byte) error {
	m.record("UpdatePassword", userID, hash)
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, hash)
	}
	return m.UpdatePasswordErr
}

// ─────────────────────────────────────────────────────────────────────────────
// SessionStore mock
// ─────────────────────────────────────────────────────────────────────────────

// SessionStore is a configurable test double for [store.SessionStore].
type SessionStore struct {
	mu    sync.Mutex
	calls []Call

	// CreateResult is returned by [SessionStore.Create]. When nil (and
	// CreateErr is nil), Create synthesizes a fresh session from its
	// arguments.
	CreateResult *store.Session

	// CreateErr is returned by [SessionStore.Create] when non-nil.
	CreateErr error

	// CreateFunc overrides Create entirely when set.
	CreateFunc func(ctx context.Context, userID, name string) (*store.Session, error)

	// ListResult is returned by [SessionStore.List]. When nil, List returns
	// an empty non-nil slice.
	ListResult []store.Session

	// ListErr is returned by [SessionStore.List] when non-nil.
	ListErr error

	// ListFunc overrides List entirely when set.
	ListFunc func(ctx context.Context, userID string) ([]store.Session, error)

	// GetResult is returned by [SessionStore.Get]. When nil (and GetErr is
	// nil), Get returns [store.ErrNotFound], matching an empty store.
	GetResult *store.Session

	// GetErr is returned by [SessionStore.Get] when non-nil.
	GetErr error

	// GetFunc overrides Get entirely when set.
	GetFunc func(ctx context.Context, userID, name string) (*store.Session, error)

	// RenameErr is returned by [SessionStore.Rename] when non-nil.
	RenameErr error

	// RenameFunc overrides Rename entirely when set.
	RenameFunc func(ctx context.Context, userID, oldName, newName string) error

	// DeleteErr is returned by [SessionStore.Delete] when non-nil.
	DeleteErr error

	// DeleteFunc overrides Delete entirely when set.
	DeleteFunc func(ctx context.Context, userID, name string) error

	// SetResultErr is returned by [SessionStore.SetResult] when non-nil.
	SetResultErr error

	// SetResultFunc overrides SetResult entirely when set.
	SetResultFunc func(ctx context.Context, userID, name, filename, transcription, summary string) error

	// SetNotesErr is returned by [SessionStore.SetNotes] when non-nil.
	SetNotesErr error

	// SetNotesFunc overrides SetNotes entirely when set.
	SetNotesFunc func(ctx context.Context, userID, name, notes string) error

	// SetEmbeddingErr is returned by [SessionStore.SetEmbedding] when non-nil.
	SetEmbeddingErr error

	// SetEmbeddingFunc overrides SetEmbedding entirely when set.
	SetEmbeddingFunc func(ctx context.Context, userID, name string, embedding []float32) error

	// SearchSummariesResult is returned by [SessionStore.SearchSummaries].
	// When nil, SearchSummaries returns an empty non-nil slice.
	SearchSummariesResult []store.SearchHit

	// SearchSummariesErr is returned by [SessionStore.SearchSummaries] when non-nil.
	SearchSummariesErr error

	// SearchSummariesFunc overrides SearchSummaries entirely when set.
	SearchSummariesFunc func(ctx context.Context, userID string, embedding []float32, limit int) ([]store.SearchHit, error)

	// CountByUserResult is returned by [SessionStore.CountByUser].
	CountByUserResult int

	// CountByUserErr is returned by [SessionStore.CountByUser] when non-nil.
	CountByUserErr error

	// CountByUserFunc overrides CountByUser entirely when set.
	CountByUserFunc func(ctx context.Context, userID string) (int, error)
}

// Calls returns a copy of all recorded method invocations.
func (m *SessionStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times the named method was invoked.
func (m *SessionStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears all recorded calls without altering response configuration.
func (m *SessionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *SessionStore) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Create implements [store.SessionStore].
func (m *SessionStore) Create(ctx context.Context, userID, name string) (*store.Session, error) {
	m.record("Create", userID, name)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, name)
	}
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.CreateResult != nil {
		return m.CreateResult, nil
	}
	now := time.Now()
	return &store.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// List implements [store.SessionStore].
func (m *SessionStore) List(ctx context.Context, userID string) ([]store.Session, error) {
	m.record("List", userID)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	if m.ListResult == nil {
		return []store.Session{}, m.ListErr
	}
	out := make([]store.Session, len(m.ListResult))
	copy(out, m.ListResult)
	return out, m.ListErr
}

// Get implements [store.SessionStore].
func (m *SessionStore) Get(ctx context.Context, userID, name string) (*store.Session, error) {
	m.record("Get", userID, name)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, name)
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.GetResult == nil {
		return nil, store.ErrNotFound
	}
	return m.GetResult, nil
}

// Rename implements [store.SessionStore].
func (m *SessionStore) Rename(ctx context.Context, userID, oldName, newName string) error {
	m.record("Rename", userID, oldName, newName)
	if m.RenameFunc != nil {
		return m.RenameFunc(ctx, userID, oldName, newName)
	}
	return m.RenameErr
}

// Delete implements [store.SessionStore].
func (m *SessionStore) Delete(ctx context.Context, userID, name string) error {
	m.record("Delete", userID, name)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, name)
	}
	return m.DeleteErr
}

// SetResult implements [store.SessionStore].
func (m *SessionStore) SetResult(ctx context.Context, userID, name, filename, transcription, summary string) error {
	m.record("SetResult", userID, name, filename, transcription, summary)
	if m.SetResultFunc != nil {
		return m.SetResultFunc(ctx, userID, name, filename, transcription, summary)
	}
	return m.SetResultErr
}

// SetNotes implements [store.SessionStore].
func (m *SessionStore) SetNotes(ctx context.Context, userID, name, notes string) error {
	m.record("SetNotes", userID, name, notes)
	if m.SetNotesFunc != nil {
		return m.SetNotesFunc(ctx, userID, name, notes)
	}
	return m.SetNotesErr
}

// SetEmbedding implements [store.SessionStore].
func (m *SessionStore) SetEmbedding(ctx context.Context, userID, name string, embedding []float32) error {
	m.record("SetEmbedding", userID, name, embedding)
	if m.SetEmbeddingFunc != nil {
		return m.SetEmbeddingFunc(ctx, userID, name, embedding)
	}
	return m.SetEmbeddingErr
}

// SearchSummaries implements [store.SessionStore].
func (m *SessionStore) SearchSummaries(ctx context.Context, userID string, embedding []float32, limit int) ([]store.SearchHit, error) {
	m.record("SearchSummaries", userID, embedding, limit)
	if m.SearchSummariesFunc != nil {
		return m.SearchSummariesFunc(ctx, userID, embedding, limit)
	}
	if m.SearchSummariesResult == nil {
		return []store.SearchHit{}, m.SearchSummariesErr
	}
	out := make([]store.SearchHit, len(m.SearchSummariesResult))
	copy(out, m.SearchSummariesResult)
	return out, m.SearchSummariesErr
}

// CountByUser implements [store.SessionStore].
func (m *SessionStore) CountByUser(ctx context.Context, userID string) (int, error) {
	m.record("CountByUser", userID)
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID)
	}
	return m.CountByUserResult, m.CountByUserErr
}
