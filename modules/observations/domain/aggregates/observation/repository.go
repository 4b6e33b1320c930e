package observation

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/pkg/policy"
)

// FindParams scopes a listing. When VisibleTo is set, the repository applies
// the visibility predicate as part of the query so invisible records are
// never loaded.
type FindParams struct {
	CompanyID uuid.UUID
	VisibleTo *policy.ViewerRelationships
	Limit     int
	Offset    int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Observation, error)
	GetPaginated(ctx context.Context, params FindParams) ([]Observation, error)
	Count(ctx context.Context, params FindParams) (int64, error)
	Create(ctx context.Context, data Observation) (Observation, error)
	Update(ctx context.Context, data Observation) error
	AddRating(ctx context.Context, data Rating) (Rating, error)
}
