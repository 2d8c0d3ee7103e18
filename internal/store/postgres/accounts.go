package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/voxmill/voxmill/internal/store"
)

// AccountStoreImpl is a [store.AccountStore] backed by the accounts table.
//
// Obtain one via [Store.Accounts] rather than constructing directly, unless
// you are supplying a mock [DB] in tests.
type AccountStoreImpl struct {
	db DB
}

// NewAccountStore creates an [AccountStoreImpl] on the given database
// connection or pool. The caller is responsible for running [Migrate] before
// issuing queries.
func NewAccountStore(db DB) *AccountStoreImpl {
	return &AccountStoreImpl{db: db}
}

// Create implements [store.AccountStore].
func (s *AccountStoreImpl) Create(ctx context.Context, account *store.Account) error {
	const q = `
		INSERT INTO accounts (user_id, password_hash)
		VALUES ($1, $2)
		RETURNING created_at`

	err := s.db.QueryRow(ctx, q, account.UserID, account.PasswordHash).Scan(&account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: create account %q: %w", account.UserID, store.ErrDuplicateUser)
		}
		return fmt.Errorf("postgres: create account: %w", err)
	}
	return nil
}

// Get implements [store.AccountStore].
func (s *AccountStoreImpl) Get(ctx context.Context, userID string) (*store.Account, error) {
	const q = `
		SELECT user_id, password_hash, created_at
		FROM accounts
		WHERE user_id = $1`

	var acc store.Account
	err := s.db.QueryRow(ctx, q, userID).Scan(&acc.UserID, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: account %q: %w", userID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("postgres: get account: %w", err)
	}
	return &acc, nil
}

// UpdatePassword implements [store.AccountStore].
func (s *AccountStoreImpl) UpdatePassword(ctx context.Context, userID string, hash []byte) error {
	const q = `UPDATE accounts SET password_hash = $2 WHERE user_id = $1`

	tag, err := s.db.Exec(ctx, q, userID, hash)
	if err != nil {
		return fmt.Errorf("postgres: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: account %q: %w", userID, store.ErrNotFound)
	}
	return nil
}
