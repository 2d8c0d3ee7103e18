// Package auth implements account registration and credential verification on
// top of a [store.AccountStore]. Passwords are hashed with bcrypt; the plain
// text never leaves this package.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/voxmill/voxmill/internal/store"
)

// Sentinel errors returned by [Service].
var (
	// ErrUnknownUser indicates no account exists for the given user ID.
	ErrUnknownUser = errors.New("auth: unknown user")

	// ErrBadCredentials indicates the password does not match the stored hash.
	ErrBadCredentials = errors.New("auth: bad credentials")
)

// Service provides account operations. All methods are safe for concurrent
// use.
type Service struct {
	accounts store.AccountStore
}

// New creates a Service backed by the given account store.
func New(accounts store.AccountStore) *Service {
	return &Service{accounts: accounts}
}

// Register creates a new account. The password is hashed with bcrypt at
// [bcrypt.DefaultCost] before it is stored. A taken user ID surfaces as
// [store.ErrDuplicateUser].
func (s *Service) Register(ctx context.Context, userID, password string) error {
	if userID == "" {
		return errors.New("auth: user id must not be empty")
	}
	if password == "" {
		return errors.New("auth: password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	if err := s.accounts.Create(ctx, &store.Account{UserID: userID, PasswordHash: hash}); err != nil {
		return fmt.Errorf("auth: register %q: %w", userID, err)
	}
	return nil
}

// Login verifies the password against the stored hash. It returns
// [ErrUnknownUser] if no account exists and [ErrBadCredentials] if the
// password does not match.
func (s *Service) Login(ctx context.Context, userID, password string) error {
	acc, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("auth: login %q: %w", userID, ErrUnknownUser)
		}
		return fmt.Errorf("auth: login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return fmt.Errorf("auth: login %q: %w", userID, ErrBadCredentials)
	}
	return nil
}

// ResetPassword replaces the stored hash with one derived from newPassword.
// It returns [ErrUnknownUser] if no account exists. No verification of the
// old password is required.
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if newPassword == "" {
		return errors.New("auth: password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("auth: reset password %q: %w", userID, ErrUnknownUser)
		}
		return fmt.Errorf("auth: reset password: %w", err)
	}
	return nil
}
