package postgres

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/voxmill/voxmill/internal/store"
)

func TestAccountStoreCreate(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any
		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				capturedSQL = sql
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		accounts := NewAccountStore(db)
		acc := &store.Account{UserID: "alice", PasswordHash: []byte("$2a$10$hash")}
		if err := accounts.Create(context.Background(), acc); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		if !strings.Contains(capturedSQL, "INSERT INTO accounts") {
			t.Errorf("SQL should contain INSERT, got: %s", capturedSQL)
		}
		if len(capturedArgs) != 2 {
			t.Fatalf("expected 2 args, got %d", len(capturedArgs))
		}
		if capturedArgs[0] != "alice" {
			t.Errorf("first arg = %v, want 'alice'", capturedArgs[0])
		}
		if !bytes.Equal(capturedArgs[1].([]byte), []byte("$2a$10$hash")) {
			t.Errorf("second arg = %v, want password hash", capturedArgs[1])
		}
		if acc.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", acc.CreatedAt, fixedTime)
		}
	})

	t.Run("duplicate user", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return &pgconn.PgError{Code: "23505"}
					},
				}
			},
		}

		accounts := NewAccountStore(db)
		err := accounts.Create(context.Background(), &store.Account{UserID: "alice"})
		if !errors.Is(err, store.ErrDuplicateUser) {
			t.Errorf("Create() error = %v, want ErrDuplicateUser", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return errors.New("connection lost") },
				}
			},
		}

		accounts := NewAccountStore(db)
		err := accounts.Create(context.Background(), &store.Account{UserID: "alice"})
		if err == nil {
			t.Fatal("Create() expected error, got nil")
		}
		if errors.Is(err, store.ErrDuplicateUser) {
			t.Errorf("Create() error = %v, must not be ErrDuplicateUser", err)
		}
		if !strings.Contains(err.Error(), "postgres: create account:") {
			t.Errorf("error = %q, want prefix 'postgres: create account:'", err.Error())
		}
	})
}

func TestAccountStoreGet(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				if args[0] != "alice" {
					t.Errorf("Get() user = %v, want 'alice'", args[0])
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*string)) = "alice"
						*(dest[1].(*[]byte)) = []byte("$2a$10$hash")
						*(dest[2].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		accounts := NewAccountStore(db)
		acc, err := accounts.Get(context.Background(), "alice")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if acc.UserID != "alice" {
			t.Errorf("UserID = %q, want 'alice'", acc.UserID)
		}
		if !bytes.Equal(acc.PasswordHash, []byte("$2a$10$hash")) {
			t.Errorf("PasswordHash = %q, want stored hash", acc.PasswordHash)
		}
		if acc.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", acc.CreatedAt, fixedTime)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{scanFunc: func(_ ...any) error { return pgx.ErrNoRows }}
			},
		}

		accounts := NewAccountStore(db)
		_, err := accounts.Get(context.Background(), "ghost")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{scanFunc: func(_ ...any) error { return errors.New("timeout") }}
			},
		}

		accounts := NewAccountStore(db)
		_, err := accounts.Get(context.Background(), "alice")
		if err == nil {
			t.Fatal("Get() expected error, got nil")
		}
		if errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() error = %v, must not be ErrNotFound", err)
		}
	})
}

func TestAccountStoreUpdatePassword(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				capturedSQL = sql
				capturedArgs = args
				return pgconn.NewCommandTag("UPDATE 1"), nil
			},
		}

		accounts := NewAccountStore(db)
		err := accounts.UpdatePassword(context.Background(), "alice", []byte("$2a$10$newhash"))
		if err != nil {
			t.Fatalf("UpdatePassword() unexpected error: %v", err)
		}
		if !strings.Contains(capturedSQL, "UPDATE accounts SET password_hash") {
			t.Errorf("SQL = %q, want UPDATE of password_hash", capturedSQL)
		}
		if capturedArgs[0] != "alice" {
			t.Errorf("first arg = %v, want 'alice'", capturedArgs[0])
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			},
		}

		accounts := NewAccountStore(db)
		err := accounts.UpdatePassword(context.Background(), "ghost", []byte("hash"))
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("UpdatePassword() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("disk full")
			},
		}

		accounts := NewAccountStore(db)
		err := accounts.UpdatePassword(context.Background(), "alice", []byte("hash"))
		if err == nil {
			t.Fatal("UpdatePassword() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "postgres: update password:") {
			t.Errorf("error = %q, want prefix 'postgres: update password:'", err.Error())
		}
	})
}
