package organization

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Organization, error)
	GetAll(ctx context.Context) ([]Organization, error)
	// AncestorsOf returns the chain of parents, nearest first, excluding org itself.
	AncestorsOf(ctx context.Context, id uuid.UUID) ([]Organization, error)
	// SelfAndDescendantsOf returns the subtree rooted at id, including id.
	SelfAndDescendantsOf(ctx context.Context, id uuid.UUID) ([]Organization, error)
	Create(ctx context.Context, data Organization) (Organization, error)
	Update(ctx context.Context, data Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}
