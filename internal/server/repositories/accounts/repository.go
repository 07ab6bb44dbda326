// Package accounts is the credential store: per-account password hash and
// the single current refresh token.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

// PasswordCheck inspects the currently stored hash inside ChangePasswordHash
// and aborts the change by returning an error.
type PasswordCheck func(currentHash []byte) error

// Repository defines the account operations the auth core needs.
//
// Lookups return common.ErrorNotFound when nothing matches. Writes against a
// missing account return common.ErrorNotFound too. Create returns
// common.ErrorAlreadyExists on a duplicate username or email.
//
// Concurrent SetRefreshToken/ClearRefreshToken calls on one account are
// last-write-wins.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUserName(ctx context.Context, userName string) (*models.Account, error)

	// FindByRefreshToken returns the account whose current refresh token
	// equals token exactly.
	FindByRefreshToken(ctx context.Context, token string) (*models.Account, error)

	// SetRefreshToken replaces (never appends) the stored refresh token.
	SetRefreshToken(ctx context.Context, id string, token string) error

	// ClearRefreshToken sets the stored refresh token to null.
	ClearRefreshToken(ctx context.Context, id string) error

	// ChangePasswordHash atomically runs check against the stored hash and,
	// if it passes, stores newHash.
	ChangePasswordHash(ctx context.Context, id string, check PasswordCheck, newHash []byte) error
}
