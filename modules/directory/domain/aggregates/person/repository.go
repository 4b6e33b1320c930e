package person

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Person, error)
	GetAll(ctx context.Context) ([]Person, error)
	Create(ctx context.Context, data Person) (Person, error)
	Update(ctx context.Context, data Person) error
	Delete(ctx context.Context, id uuid.UUID) error
}
