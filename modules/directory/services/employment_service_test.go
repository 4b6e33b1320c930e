package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
	"github.com/iota-uz/people-sdk/modules/directory/domain/events"
	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

// stubTx satisfies the tx composable so InTx reuses it instead of opening a
// real transaction. The in-memory repositories never touch it.
type stubTx struct{}

func (stubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (stubTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }
func (stubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func testContext() context.Context {
	return composables.WithTx(context.Background(), stubTx{})
}

type stubPublisher struct {
	events []any
}

func (s *stubPublisher) Publish(args ...interface{}) { s.events = append(s.events, args...) }
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }

func (s *stubPublisher) changeTypes() []string {
	var out []string
	for _, e := range s.events {
		if ev, ok := e.(events.EmploymentEventV1); ok {
			out = append(out, ev.ChangeType)
		}
	}
	return out
}

type memPersonRepo struct {
	people map[uuid.UUID]person.Person
}

func (m *memPersonRepo) GetByID(_ context.Context, id uuid.UUID) (person.Person, error) {
	p, ok := m.people[id]
	if !ok {
		return person.Person{}, persistence.ErrPersonNotFound
	}
	return p, nil
}
func (m *memPersonRepo) GetAll(context.Context) ([]person.Person, error) { return nil, nil }
func (m *memPersonRepo) Create(_ context.Context, data person.Person) (person.Person, error) {
	m.people[data.ID()] = data
	return data, nil
}
func (m *memPersonRepo) Update(_ context.Context, data person.Person) error {
	m.people[data.ID()] = data
	return nil
}
func (m *memPersonRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.people, id)
	return nil
}

type memOrgRepo struct {
	orgs map[uuid.UUID]organization.Organization
}

func (m *memOrgRepo) GetByID(_ context.Context, id uuid.UUID) (organization.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return organization.Organization{}, persistence.ErrOrganizationNotFound
	}
	return o, nil
}
func (m *memOrgRepo) GetAll(context.Context) ([]organization.Organization, error) { return nil, nil }
func (m *memOrgRepo) AncestorsOf(context.Context, uuid.UUID) ([]organization.Organization, error) {
	return nil, nil
}
func (m *memOrgRepo) SelfAndDescendantsOf(_ context.Context, id uuid.UUID) ([]organization.Organization, error) {
	root, ok := m.orgs[id]
	if !ok {
		return nil, persistence.ErrOrganizationNotFound
	}
	out := []organization.Organization{root}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		parentID := queue[0]
		queue = queue[1:]
		for _, o := range m.orgs {
			if o.ParentID() != nil && *o.ParentID() == parentID {
				out = append(out, o)
				queue = append(queue, o.ID())
			}
		}
	}
	return out, nil
}
func (m *memOrgRepo) Create(_ context.Context, data organization.Organization) (organization.Organization, error) {
	m.orgs[data.ID()] = data
	return data, nil
}
func (m *memOrgRepo) Update(_ context.Context, data organization.Organization) error {
	m.orgs[data.ID()] = data
	return nil
}
func (m *memOrgRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.orgs, id)
	return nil
}

type memTeammateRepo struct {
	teammates map[uuid.UUID]teammate.Teammate
}

func (m *memTeammateRepo) GetByID(_ context.Context, id uuid.UUID) (teammate.Teammate, error) {
	tm, ok := m.teammates[id]
	if !ok {
		return teammate.Teammate{}, persistence.ErrTeammateNotFound
	}
	return tm, nil
}
func (m *memTeammateRepo) GetByPerson(_ context.Context, personID uuid.UUID) ([]teammate.Teammate, error) {
	var out []teammate.Teammate
	for _, tm := range m.teammates {
		if tm.PersonID() == personID {
			out = append(out, tm)
		}
	}
	return out, nil
}
func (m *memTeammateRepo) GetByPersonAndOrganization(_ context.Context, personID, organizationID uuid.UUID) (teammate.Teammate, error) {
	for _, tm := range m.teammates {
		if tm.PersonID() == personID && tm.OrganizationID() == organizationID {
			return tm, nil
		}
	}
	return teammate.Teammate{}, persistence.ErrTeammateNotFound
}
func (m *memTeammateRepo) GetByOrganization(_ context.Context, organizationID uuid.UUID) ([]teammate.Teammate, error) {
	var out []teammate.Teammate
	for _, tm := range m.teammates {
		if tm.OrganizationID() == organizationID {
			out = append(out, tm)
		}
	}
	return out, nil
}
func (m *memTeammateRepo) Create(_ context.Context, data teammate.Teammate) (teammate.Teammate, error) {
	m.teammates[data.ID()] = data
	return data, nil
}
func (m *memTeammateRepo) Update(_ context.Context, data teammate.Teammate) error {
	if _, ok := m.teammates[data.ID()]; !ok {
		return persistence.ErrTeammateNotFound
	}
	m.teammates[data.ID()] = data
	return nil
}
func (m *memTeammateRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.teammates, id)
	return nil
}

type memTenureRepo struct {
	tenures map[uuid.UUID]tenure.Tenure
}

func (m *memTenureRepo) GetByID(_ context.Context, id uuid.UUID) (tenure.Tenure, error) {
	t, ok := m.tenures[id]
	if !ok {
		return tenure.Tenure{}, persistence.ErrTenureNotFound
	}
	return t, nil
}
func (m *memTenureRepo) GetByTeammate(_ context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	var out []tenure.Tenure
	for _, t := range m.tenures {
		if t.TeammateID() == teammateID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTenureRepo) GetActiveByTeammate(_ context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	var out []tenure.Tenure
	for _, t := range m.tenures {
		if t.TeammateID() == teammateID && t.Active() {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTenureRepo) GetActiveManagedBy(_ context.Context, managerTeammateID uuid.UUID) ([]tenure.Tenure, error) {
	var out []tenure.Tenure
	for _, t := range m.tenures {
		if t.ManagerTeammateID() != nil && *t.ManagerTeammateID() == managerTeammateID && t.Active() {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTenureRepo) Create(_ context.Context, data tenure.Tenure) (tenure.Tenure, error) {
	m.tenures[data.ID()] = data
	return data, nil
}
func (m *memTenureRepo) Update(_ context.Context, data tenure.Tenure) error {
	if _, ok := m.tenures[data.ID()]; !ok {
		return persistence.ErrTenureNotFound
	}
	m.tenures[data.ID()] = data
	return nil
}

type employmentHarness struct {
	svc       *EmploymentService
	people    *memPersonRepo
	orgs      *memOrgRepo
	teammates *memTeammateRepo
	tenures   *memTenureRepo
	publisher *stubPublisher

	company organization.Organization
	alice   person.Person
	bob     person.Person
}

func newEmploymentHarness() *employmentHarness {
	h := &employmentHarness{
		people:    &memPersonRepo{people: map[uuid.UUID]person.Person{}},
		orgs:      &memOrgRepo{orgs: map[uuid.UUID]organization.Organization{}},
		teammates: &memTeammateRepo{teammates: map[uuid.UUID]teammate.Teammate{}},
		tenures:   &memTenureRepo{tenures: map[uuid.UUID]tenure.Tenure{}},
		publisher: &stubPublisher{},
	}
	h.svc = NewEmploymentService(
		NewPeopleService(h.people),
		NewOrganizationsService(h.orgs),
		h.teammates,
		h.tenures,
		h.publisher,
	)
	h.company = organization.New(organization.KindCompany, "Acme", nil)
	h.orgs.orgs[h.company.ID()] = h.company
	h.alice = person.New("Alice", "Tester", "alice@example.com")
	h.people.people[h.alice.ID()] = h.alice
	h.bob = person.New("Bob", "Tester", "bob@example.com")
	h.people.people[h.bob.ID()] = h.bob
	return h
}

func (h *employmentHarness) employ(t *testing.T, p person.Person, manager *uuid.UUID, startedAt time.Time) tenure.Tenure {
	t.Helper()
	opened, err := h.svc.Employ(testContext(), &EmployDTO{
		PersonID:          p.ID(),
		OrganizationID:    h.company.ID(),
		CompanyID:         h.company.ID(),
		ManagerTeammateID: manager,
		Title:             "Engineer",
		StartedAt:         startedAt,
	})
	require.NoError(t, err)
	return opened
}

func TestEmploy_CreatesTeammateAndMarkers(t *testing.T) {
	h := newEmploymentHarness()
	startedAt := time.Now().UTC().Add(-24 * time.Hour)

	opened := h.employ(t, h.alice, nil, startedAt)

	tm, err := h.teammates.GetByPersonAndOrganization(testContext(), h.alice.ID(), h.company.ID())
	require.NoError(t, err)
	require.Equal(t, tm.ID(), opened.TeammateID())
	require.NotNil(t, tm.FirstEmployedAt())
	require.True(t, tm.FirstEmployedAt().Equal(startedAt))
	require.Nil(t, tm.LastTerminatedAt(), "an open tenure clears the termination marker")

	require.Equal(t, []string{events.ChangeTeammateCreated, events.ChangeTenureStarted}, h.publisher.changeTypes())
}

func TestEmploy_RejectsUnknownPerson(t *testing.T) {
	h := newEmploymentHarness()

	_, err := h.svc.Employ(testContext(), &EmployDTO{
		PersonID:       uuid.New(),
		OrganizationID: h.company.ID(),
		CompanyID:      h.company.ID(),
	})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "PERSON_NOT_FOUND", svcErr.Code)
}

func TestEmploy_RejectsManagerWithoutActiveTenureInCompany(t *testing.T) {
	h := newEmploymentHarness()

	// Bob is a teammate but holds no active tenure.
	bobTM := teammate.New(h.company.ID(), h.bob.ID())
	h.teammates.teammates[bobTM.ID()] = bobTM

	managerID := bobTM.ID()
	_, err := h.svc.Employ(testContext(), &EmployDTO{
		PersonID:          h.alice.ID(),
		OrganizationID:    h.company.ID(),
		CompanyID:         h.company.ID(),
		ManagerTeammateID: &managerID,
		StartedAt:         time.Now().UTC(),
	})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "MANAGER_WRONG_COMPANY", svcErr.Code)
}

func TestEmploy_RejectsOverlap(t *testing.T) {
	h := newEmploymentHarness()
	h.employ(t, h.alice, nil, time.Now().UTC().Add(-24*time.Hour))

	_, err := h.svc.Employ(testContext(), &EmployDTO{
		PersonID:       h.alice.ID(),
		OrganizationID: h.company.ID(),
		CompanyID:      h.company.ID(),
		StartedAt:      time.Now().UTC().Add(-time.Hour),
	})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "TENURE_OVERLAP", svcErr.Code)
}

func TestEndTenure_SetsMarkers(t *testing.T) {
	h := newEmploymentHarness()
	startedAt := time.Now().UTC().Add(-24 * time.Hour)
	opened := h.employ(t, h.alice, nil, startedAt)

	endAt := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, h.svc.EndTenure(testContext(), opened.ID(), endAt))

	ended, err := h.tenures.GetByID(testContext(), opened.ID())
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt())

	tm, err := h.teammates.GetByID(testContext(), opened.TeammateID())
	require.NoError(t, err)
	require.NotNil(t, tm.LastTerminatedAt())
	require.True(t, tm.LastTerminatedAt().Equal(endAt))

	require.Contains(t, h.publisher.changeTypes(), events.ChangeTenureEnded)

	err = h.svc.EndTenure(testContext(), opened.ID(), time.Now().UTC())
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "TENURE_ALREADY_ENDED", svcErr.Code)
}

func TestChangeManager_RotatesTenure(t *testing.T) {
	h := newEmploymentHarness()
	startedAt := time.Now().UTC().Add(-24 * time.Hour)

	bobTenure := h.employ(t, h.bob, nil, startedAt)
	aliceTenure := h.employ(t, h.alice, nil, startedAt)

	managerID := bobTenure.TeammateID()
	opened, err := h.svc.ChangeManager(testContext(), aliceTenure.ID(), &managerID)
	require.NoError(t, err)
	require.NotEqual(t, aliceTenure.ID(), opened.ID())
	require.Equal(t, aliceTenure.TeammateID(), opened.TeammateID())
	require.Equal(t, &managerID, opened.ManagerTeammateID())

	closed, err := h.tenures.GetByID(testContext(), aliceTenure.ID())
	require.NoError(t, err)
	require.NotNil(t, closed.EndedAt())

	require.Contains(t, h.publisher.changeTypes(), events.ChangeManagerChanged)
}

func TestChangeManager_RejectsSelf(t *testing.T) {
	h := newEmploymentHarness()
	opened := h.employ(t, h.alice, nil, time.Now().UTC().Add(-24*time.Hour))

	self := opened.TeammateID()
	_, err := h.svc.ChangeManager(testContext(), opened.ID(), &self)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "TENURE_SELF_MANAGED", svcErr.Code)
}
