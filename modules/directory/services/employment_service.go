package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
	"github.com/iota-uz/people-sdk/modules/directory/domain/events"
	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/pkg/composables"
	"github.com/iota-uz/people-sdk/pkg/eventbus"
)

type EmployDTO struct {
	PersonID          uuid.UUID  `form:"person_id" json:"person_id"`
	OrganizationID    uuid.UUID  `form:"organization_id" json:"organization_id"`
	CompanyID         uuid.UUID  `form:"company_id" json:"company_id"`
	ManagerTeammateID *uuid.UUID `form:"manager_teammate_id" json:"manager_teammate_id"`
	Title             string     `form:"title" json:"title"`
	StartedAt         time.Time  `form:"started_at" json:"started_at"`
}

// EmploymentService owns the employment lifecycle: it creates teammate
// records, opens and closes tenures, and keeps the denormalized
// first_employed_at/last_terminated_at markers current. The policy engine
// only ever reads what this service writes.
type EmploymentService struct {
	people    *PeopleService
	orgs      *OrganizationsService
	teammates teammate.Repository
	tenures   tenure.Repository
	publisher eventbus.EventBus
}

func NewEmploymentService(
	people *PeopleService,
	orgs *OrganizationsService,
	teammates teammate.Repository,
	tenures tenure.Repository,
	publisher eventbus.EventBus,
) *EmploymentService {
	return &EmploymentService{
		people:    people,
		orgs:      orgs,
		teammates: teammates,
		tenures:   tenures,
		publisher: publisher,
	}
}

// Employ opens a tenure for the person in the company, creating the teammate
// record on first employment. The manager, when named, must be a teammate
// with an active tenure in the same company, and the new tenure must not
// overlap an existing one for the same teammate and company.
func (s *EmploymentService) Employ(ctx context.Context, dto *EmployDTO) (tenure.Tenure, error) {
	if dto == nil {
		return tenure.Tenure{}, validationError("EMPLOY_DTO_REQUIRED", "missing dto")
	}
	if dto.StartedAt.IsZero() {
		dto.StartedAt = time.Now().UTC()
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (tenure.Tenure, error) {
		if _, err := s.people.GetByID(txCtx, dto.PersonID); err != nil {
			return tenure.Tenure{}, err
		}
		if _, err := s.orgs.GetByID(txCtx, dto.OrganizationID); err != nil {
			return tenure.Tenure{}, err
		}
		if _, err := s.orgs.GetByID(txCtx, dto.CompanyID); err != nil {
			return tenure.Tenure{}, err
		}

		tm, createdTeammate, err := s.ensureTeammate(txCtx, dto.PersonID, dto.OrganizationID)
		if err != nil {
			return tenure.Tenure{}, err
		}

		if err := s.validateManager(txCtx, dto.ManagerTeammateID, dto.CompanyID); err != nil {
			return tenure.Tenure{}, err
		}

		next := tenure.New(tm.ID(), dto.CompanyID, dto.ManagerTeammateID, dto.Title, dto.StartedAt)
		if err := s.ensureNoOverlap(txCtx, tm.ID(), dto.CompanyID, next); err != nil {
			return tenure.Tenure{}, err
		}

		opened, err := s.tenures.Create(txCtx, next)
		if err != nil {
			return tenure.Tenure{}, err
		}

		if err := s.refreshMarkers(txCtx, tm); err != nil {
			return tenure.Tenure{}, err
		}

		if createdTeammate {
			s.publisher.Publish(events.NewEmploymentEvent(
				events.ChangeTeammateCreated, dto.PersonID, dto.OrganizationID, tm.ID(), nil,
			))
		}
		return opened, nil
	})
	if err != nil {
		return tenure.Tenure{}, err
	}

	tenureID := created.ID()
	s.publisher.Publish(events.NewEmploymentEvent(
		events.ChangeTenureStarted, dto.PersonID, dto.OrganizationID, created.TeammateID(), &tenureID,
	))
	return created, nil
}

// EndTenure closes an active tenure at the given time.
func (s *EmploymentService) EndTenure(ctx context.Context, tenureID uuid.UUID, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	var tm teammate.Teammate
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		t, err := s.tenures.GetByID(txCtx, tenureID)
		if err != nil {
			if errors.Is(err, persistence.ErrTenureNotFound) {
				return notFoundError("TENURE_NOT_FOUND", "employment tenure not found", err)
			}
			return err
		}
		if t.EndedAt() != nil {
			return conflictError("TENURE_ALREADY_ENDED", "tenure is already ended")
		}
		if at.Before(t.StartedAt()) {
			return validationError("TENURE_END_BEFORE_START", "end time precedes start time")
		}
		if err := s.tenures.Update(txCtx, t.Ended(at)); err != nil {
			return err
		}

		tm, err = s.teammates.GetByID(txCtx, t.TeammateID())
		if err != nil {
			return err
		}
		return s.refreshMarkers(txCtx, tm)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(events.NewEmploymentEvent(
		events.ChangeTenureEnded, tm.PersonID(), tm.OrganizationID(), tm.ID(), &tenureID,
	))
	return nil
}

// ChangeManager closes the tenure and opens a new one naming the new
// manager, preserving title and company. Tenure history stays intact.
func (s *EmploymentService) ChangeManager(ctx context.Context, tenureID uuid.UUID, newManagerTeammateID *uuid.UUID) (tenure.Tenure, error) {
	now := time.Now().UTC()
	var tm teammate.Teammate
	opened, err := composables.InTxResult(ctx, func(txCtx context.Context) (tenure.Tenure, error) {
		current, err := s.tenures.GetByID(txCtx, tenureID)
		if err != nil {
			if errors.Is(err, persistence.ErrTenureNotFound) {
				return tenure.Tenure{}, notFoundError("TENURE_NOT_FOUND", "employment tenure not found", err)
			}
			return tenure.Tenure{}, err
		}
		if !current.Active() {
			return tenure.Tenure{}, conflictError("TENURE_NOT_ACTIVE", "cannot change the manager of an inactive tenure")
		}
		if err := s.validateManager(txCtx, newManagerTeammateID, current.CompanyID()); err != nil {
			return tenure.Tenure{}, err
		}
		if newManagerTeammateID != nil && *newManagerTeammateID == current.TeammateID() {
			return tenure.Tenure{}, validationError("TENURE_SELF_MANAGED", "a teammate cannot manage their own tenure")
		}

		if err := s.tenures.Update(txCtx, current.Ended(now)); err != nil {
			return tenure.Tenure{}, err
		}
		next, err := s.tenures.Create(txCtx, tenure.New(
			current.TeammateID(), current.CompanyID(), newManagerTeammateID, current.Title(), now,
		))
		if err != nil {
			return tenure.Tenure{}, err
		}

		tm, err = s.teammates.GetByID(txCtx, current.TeammateID())
		if err != nil {
			return tenure.Tenure{}, err
		}
		return next, s.refreshMarkers(txCtx, tm)
	})
	if err != nil {
		return tenure.Tenure{}, err
	}

	openedID := opened.ID()
	s.publisher.Publish(events.NewEmploymentEvent(
		events.ChangeManagerChanged, tm.PersonID(), tm.OrganizationID(), tm.ID(), &openedID,
	))
	return opened, nil
}

// SetFlags replaces the capability flags on a teammate record.
func (s *EmploymentService) SetFlags(ctx context.Context, teammateID uuid.UUID, manageEmployment, createEmployment, manageMAAP bool) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		tm, err := s.teammates.GetByID(txCtx, teammateID)
		if err != nil {
			if errors.Is(err, persistence.ErrTeammateNotFound) {
				return notFoundError("TEAMMATE_NOT_FOUND", "teammate not found", err)
			}
			return err
		}
		return s.teammates.Update(txCtx, tm.WithFlags(manageEmployment, createEmployment, manageMAAP))
	})
}

func (s *EmploymentService) ensureTeammate(ctx context.Context, personID, organizationID uuid.UUID) (teammate.Teammate, bool, error) {
	tm, err := s.teammates.GetByPersonAndOrganization(ctx, personID, organizationID)
	if err == nil {
		return tm, false, nil
	}
	if !errors.Is(err, persistence.ErrTeammateNotFound) {
		return teammate.Teammate{}, false, err
	}
	created, err := s.teammates.Create(ctx, teammate.New(organizationID, personID))
	if err != nil {
		return teammate.Teammate{}, false, err
	}
	return created, true, nil
}

func (s *EmploymentService) validateManager(ctx context.Context, managerTeammateID *uuid.UUID, companyID uuid.UUID) error {
	if managerTeammateID == nil || *managerTeammateID == uuid.Nil {
		return nil
	}
	if _, err := s.teammates.GetByID(ctx, *managerTeammateID); err != nil {
		if errors.Is(err, persistence.ErrTeammateNotFound) {
			return validationError("MANAGER_NOT_FOUND", "manager teammate does not exist")
		}
		return err
	}
	active, err := s.tenures.GetActiveByTeammate(ctx, *managerTeammateID)
	if err != nil {
		return err
	}
	for _, t := range active {
		if t.CompanyID() == companyID {
			return nil
		}
	}
	return validationError("MANAGER_WRONG_COMPANY", "manager must hold an active tenure in the same company")
}

func (s *EmploymentService) ensureNoOverlap(ctx context.Context, teammateID, companyID uuid.UUID, next tenure.Tenure) error {
	existing, err := s.tenures.GetByTeammate(ctx, teammateID)
	if err != nil {
		return err
	}
	for _, t := range existing {
		if t.CompanyID() != companyID {
			continue
		}
		if t.Overlaps(next) {
			return conflictError("TENURE_OVERLAP", "tenures for the same teammate and company must not overlap")
		}
	}
	return nil
}

// refreshMarkers recomputes the denormalized employment markers from the
// teammate's full tenure history.
func (s *EmploymentService) refreshMarkers(ctx context.Context, tm teammate.Teammate) error {
	history, err := s.tenures.GetByTeammate(ctx, tm.ID())
	if err != nil {
		return err
	}
	var (
		first      *time.Time
		last       *time.Time
		anyOpen    bool
		anyHistory = len(history) > 0
	)
	for _, t := range history {
		startedAt := t.StartedAt()
		if first == nil || startedAt.Before(*first) {
			first = &startedAt
		}
		if t.EndedAt() == nil {
			anyOpen = true
			continue
		}
		endedAt := *t.EndedAt()
		if last == nil || endedAt.After(*last) {
			last = &endedAt
		}
	}
	if !anyHistory {
		first = nil
	}
	if anyOpen {
		last = nil
	}
	return s.teammates.Update(ctx, tm.WithEmploymentMarkers(first, last))
}
