package repository

import (
	"context"

	"github.com/apidex-io/apidex/internal/domain/entity"
)

// APIPatch is a partial update for an API entry; nil fields are left untouched.
type APIPatch struct {
	Name        *string
	Description *string
	Endpoint    *string
	Method      *string
	Status      *string
}

// APIRepository defines storage operations for the API catalog.
// All lookups are scoped to the owning user.
type APIRepository interface {
	Create(ctx context.Context, a *entity.APIEntry) error
	GetByID(ctx context.Context, userID, id string) (*entity.APIEntry, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entity.APIEntry, int, error)
	UpdateFields(ctx context.Context, userID, id string, patch APIPatch) error
	Delete(ctx context.Context, userID, id string) error
}
