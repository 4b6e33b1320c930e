package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

// DirectoryReadRepository is the engine's read-only view over the directory
// tables. Absent rows surface as policy.ErrNotFound so the engine fails
// closed instead of propagating storage sentinels.
var _ policy.DirectoryReader = (*DirectoryReadRepository)(nil)

type DirectoryReadRepository struct {
	people    person.Repository
	orgs      organization.Repository
	teammates teammate.Repository
	tenures   tenure.Repository
}

func NewDirectoryReadRepository() *DirectoryReadRepository {
	return &DirectoryReadRepository{
		people:    NewPersonRepository(),
		orgs:      NewOrganizationRepository(),
		teammates: NewTeammateRepository(),
		tenures:   NewTenureRepository(),
	}
}

func translateNotFound(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPersonNotFound),
		errors.Is(err, ErrOrganizationNotFound),
		errors.Is(err, ErrTeammateNotFound),
		errors.Is(err, ErrTenureNotFound):
		return gerrors.Wrap(policy.ErrNotFound, err.Error())
	}
	return err
}

func (r *DirectoryReadRepository) Person(ctx context.Context, personID uuid.UUID) (person.Person, error) {
	p, err := r.people.GetByID(ctx, personID)
	return p, translateNotFound(err)
}

func (r *DirectoryReadRepository) Organization(ctx context.Context, orgID uuid.UUID) (organization.Organization, error) {
	o, err := r.orgs.GetByID(ctx, orgID)
	return o, translateNotFound(err)
}

func (r *DirectoryReadRepository) AncestorsOf(ctx context.Context, orgID uuid.UUID) ([]organization.Organization, error) {
	out, err := r.orgs.AncestorsOf(ctx, orgID)
	return out, translateNotFound(err)
}

func (r *DirectoryReadRepository) SelfAndDescendantsOf(ctx context.Context, orgID uuid.UUID) ([]organization.Organization, error) {
	out, err := r.orgs.SelfAndDescendantsOf(ctx, orgID)
	return out, translateNotFound(err)
}

func (r *DirectoryReadRepository) TeammatesOf(ctx context.Context, personID uuid.UUID) ([]teammate.Teammate, error) {
	out, err := r.teammates.GetByPerson(ctx, personID)
	return out, translateNotFound(err)
}

func (r *DirectoryReadRepository) TeammateByID(ctx context.Context, teammateID uuid.UUID) (teammate.Teammate, error) {
	tm, err := r.teammates.GetByID(ctx, teammateID)
	return tm, translateNotFound(err)
}

func (r *DirectoryReadRepository) ActiveTenuresOf(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	out, err := r.tenures.GetActiveByTeammate(ctx, teammateID)
	return out, translateNotFound(err)
}

func (r *DirectoryReadRepository) TenuresOf(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	out, err := r.tenures.GetByTeammate(ctx, teammateID)
	return out, translateNotFound(err)
}

func (r *DirectoryReadRepository) ActiveTenuresManagedBy(ctx context.Context, managerTeammateID uuid.UUID) ([]tenure.Tenure, error) {
	out, err := r.tenures.GetActiveManagedBy(ctx, managerTeammateID)
	return out, translateNotFound(err)
}
