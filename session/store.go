package session

import (
	"context"
	"errors"
	"time"
)

// Account is the stored user record. Owned by the UserStore; the service
// never deletes accounts.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store sentinel errors. Anything else returned by a UserStore is treated as
// an opaque storage failure and surfaced to callers as a 500-class error.
var (
	// ErrNotFound means no account matches the query.
	ErrNotFound = errors.New("session: account not found")

	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("session: email already registered")
)

// UserStore is the external persistence collaborator. Implementations may
// block on network round trips; every method takes a context.
//
// Email arguments are always pre-normalized (trimmed, lowercased) by the
// service; stores match them exactly.
type UserStore interface {
	// FindByEmail returns the account with the given email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID returns the account with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Account, error)

	// Create persists a new account and returns it with id and timestamps
	// set. Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, email, passwordHash, displayName string) (*Account, error)

	// UpdateEmail changes the account's email. Returns ErrNotFound or
	// ErrDuplicateEmail as appropriate.
	UpdateEmail(ctx context.Context, id, email string) error

	// UpdatePasswordHash replaces the account's password hash.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}
