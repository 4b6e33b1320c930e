package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

type PersonCreateDTO struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
	OgAdmin   bool   `form:"og_admin" json:"og_admin"`
}

func (d *PersonCreateDTO) Validate() error {
	if strings.TrimSpace(d.FirstName) == "" {
		return validationError("PERSON_FIRST_NAME_REQUIRED", "first name is required")
	}
	if strings.TrimSpace(d.Email) == "" {
		return validationError("PERSON_EMAIL_REQUIRED", "email is required")
	}
	return nil
}

type PeopleService struct {
	repo person.Repository
}

func NewPeopleService(repo person.Repository) *PeopleService {
	return &PeopleService{repo: repo}
}

func (s *PeopleService) GetByID(ctx context.Context, id uuid.UUID) (person.Person, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrPersonNotFound) {
			return person.Person{}, notFoundError("PERSON_NOT_FOUND", "person not found", err)
		}
		return person.Person{}, err
	}
	return p, nil
}

func (s *PeopleService) GetAll(ctx context.Context) ([]person.Person, error) {
	return s.repo.GetAll(ctx)
}

func (s *PeopleService) Create(ctx context.Context, dto *PersonCreateDTO) (person.Person, error) {
	if dto == nil {
		return person.Person{}, validationError("PERSON_DTO_REQUIRED", "missing dto")
	}
	if err := dto.Validate(); err != nil {
		return person.Person{}, err
	}
	entity := person.New(dto.FirstName, dto.LastName, dto.Email).WithOgAdmin(dto.OgAdmin)
	return composables.InTxResult(ctx, func(txCtx context.Context) (person.Person, error) {
		return s.repo.Create(txCtx, entity)
	})
}

func (s *PeopleService) Update(ctx context.Context, data person.Person) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, data); err != nil {
			if errors.Is(err, persistence.ErrPersonNotFound) {
				return notFoundError("PERSON_NOT_FOUND", "person not found", err)
			}
			return err
		}
		return nil
	})
}

func (s *PeopleService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			if errors.Is(err, persistence.ErrPersonNotFound) {
				return notFoundError("PERSON_NOT_FOUND", "person not found", err)
			}
			return err
		}
		return nil
	})
}
