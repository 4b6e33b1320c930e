package teammate

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Teammate, error)
	GetByPerson(ctx context.Context, personID uuid.UUID) ([]Teammate, error)
	GetByPersonAndOrganization(ctx context.Context, personID, organizationID uuid.UUID) (Teammate, error)
	GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]Teammate, error)
	Create(ctx context.Context, data Teammate) (Teammate, error)
	Update(ctx context.Context, data Teammate) error
	Delete(ctx context.Context, id uuid.UUID) error
}
