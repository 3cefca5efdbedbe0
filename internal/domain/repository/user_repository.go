package repository

import (
	"context"
	"errors"

	"github.com/apidex-io/apidex/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write trips a storage-level
	// uniqueness constraint. The constraint is the authoritative guard:
	// the explicit *Taken pre-checks race with concurrent inserts.
	ErrDuplicate = errors.New("duplicate value")
)

// UserPatch is a partial update; nil fields are left untouched.
// updated_at is always set by the store as part of the same write.
type UserPatch struct {
	Username  *string
	Email     *string
	Password  *string
	AvatarURL *string
}

// UserRepository defines the interface for user-related storage operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)

	// UsernameTaken reports whether username belongs to a user other than
	// excludingID. Pass "" to check against all users.
	UsernameTaken(ctx context.Context, username, excludingID string) (bool, error)
	EmailTaken(ctx context.Context, email, excludingID string) (bool, error)

	UpdateFields(ctx context.Context, id string, patch UserPatch) error
}
