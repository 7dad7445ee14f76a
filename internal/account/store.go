package account

import (
	"context"

	"learnhub/pkg/domain"
)

// Store persists accounts. Implementations return sentinel.ErrNotFound for
// missing records and sentinel.ErrConflict when an email is already taken.
type Store interface {
	Create(ctx context.Context, a *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id domain.AccountID) (*Account, error)
	Update(ctx context.Context, a *Account) error
	// List returns every account, newest first.
	List(ctx context.Context) ([]*Account, error)
}
