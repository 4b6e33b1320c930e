package tenure

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Tenure, error)
	GetByTeammate(ctx context.Context, teammateID uuid.UUID) ([]Tenure, error)
	// GetActiveByTeammate returns tenures active at the time of the call.
	GetActiveByTeammate(ctx context.Context, teammateID uuid.UUID) ([]Tenure, error)
	// GetActiveManagedBy returns active tenures naming the given teammate as manager.
	GetActiveManagedBy(ctx context.Context, managerTeammateID uuid.UUID) ([]Tenure, error)
	Create(ctx context.Context, data Tenure) (Tenure, error)
	Update(ctx context.Context, data Tenure) error
}
