package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

type OrganizationCreateDTO struct {
	Kind     string     `form:"kind" json:"kind"`
	Name     string     `form:"name" json:"name"`
	ParentID *uuid.UUID `form:"parent_id" json:"parent_id"`
}

func (d *OrganizationCreateDTO) Validate() error {
	if !organization.Kind(d.Kind).Valid() {
		return validationError("ORGANIZATION_KIND_INVALID", "kind must be company, department or team")
	}
	if strings.TrimSpace(d.Name) == "" {
		return validationError("ORGANIZATION_NAME_REQUIRED", "name is required")
	}
	return nil
}

type OrganizationsService struct {
	repo organization.Repository
}

func NewOrganizationsService(repo organization.Repository) *OrganizationsService {
	return &OrganizationsService{repo: repo}
}

func (s *OrganizationsService) GetByID(ctx context.Context, id uuid.UUID) (organization.Organization, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrOrganizationNotFound) {
			return organization.Organization{}, notFoundError("ORGANIZATION_NOT_FOUND", "organization not found", err)
		}
		return organization.Organization{}, err
	}
	return o, nil
}

func (s *OrganizationsService) GetAll(ctx context.Context) ([]organization.Organization, error) {
	return s.repo.GetAll(ctx)
}

func (s *OrganizationsService) AncestorsOf(ctx context.Context, id uuid.UUID) ([]organization.Organization, error) {
	return s.repo.AncestorsOf(ctx, id)
}

func (s *OrganizationsService) SelfAndDescendantsOf(ctx context.Context, id uuid.UUID) ([]organization.Organization, error) {
	return s.repo.SelfAndDescendantsOf(ctx, id)
}

func (s *OrganizationsService) Create(ctx context.Context, dto *OrganizationCreateDTO) (organization.Organization, error) {
	if dto == nil {
		return organization.Organization{}, validationError("ORGANIZATION_DTO_REQUIRED", "missing dto")
	}
	if err := dto.Validate(); err != nil {
		return organization.Organization{}, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (organization.Organization, error) {
		if dto.ParentID != nil {
			if _, err := s.repo.GetByID(txCtx, *dto.ParentID); err != nil {
				if errors.Is(err, persistence.ErrOrganizationNotFound) {
					return organization.Organization{}, validationError("ORGANIZATION_PARENT_NOT_FOUND", "parent organization does not exist")
				}
				return organization.Organization{}, err
			}
		}
		entity := organization.New(organization.Kind(dto.Kind), dto.Name, dto.ParentID)
		return s.repo.Create(txCtx, entity)
	})
}

// Rename updates the display name only; reparenting goes through Move so the
// cycle check always runs.
func (s *OrganizationsService) Rename(ctx context.Context, id uuid.UUID, name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError("ORGANIZATION_NAME_REQUIRED", "name is required")
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrOrganizationNotFound) {
				return notFoundError("ORGANIZATION_NOT_FOUND", "organization not found", err)
			}
			return err
		}
		return s.repo.Update(txCtx, organization.Hydrate(o.ID(), o.Kind(), name, o.ParentID(), o.CreatedAt(), o.UpdatedAt()))
	})
}

// Move reparents the organization. The new parent must exist and must not be
// the organization itself or any of its descendants, or the tree would cycle.
func (s *OrganizationsService) Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		o, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrOrganizationNotFound) {
				return notFoundError("ORGANIZATION_NOT_FOUND", "organization not found", err)
			}
			return err
		}
		if newParentID != nil {
			if _, err := s.repo.GetByID(txCtx, *newParentID); err != nil {
				if errors.Is(err, persistence.ErrOrganizationNotFound) {
					return validationError("ORGANIZATION_PARENT_NOT_FOUND", "parent organization does not exist")
				}
				return err
			}
			subtree, err := s.repo.SelfAndDescendantsOf(txCtx, id)
			if err != nil {
				return err
			}
			for _, node := range subtree {
				if node.ID() == *newParentID {
					return conflictError("ORGANIZATION_CYCLE", "cannot move an organization under its own subtree")
				}
			}
		}
		return s.repo.Update(txCtx, organization.Hydrate(o.ID(), o.Kind(), o.Name(), newParentID, o.CreatedAt(), o.UpdatedAt()))
	})
}

func (s *OrganizationsService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			if errors.Is(err, persistence.ErrOrganizationNotFound) {
				return notFoundError("ORGANIZATION_NOT_FOUND", "organization not found", err)
			}
			return err
		}
		return nil
	})
}
