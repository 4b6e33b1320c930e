package policy_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

type fakeDirectory struct {
	people    map[uuid.UUID]person.Person
	orgs      map[uuid.UUID]organization.Organization
	teammates map[uuid.UUID]teammate.Teammate
	tenures   map[uuid.UUID]tenure.Tenure
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		people:    map[uuid.UUID]person.Person{},
		orgs:      map[uuid.UUID]organization.Organization{},
		teammates: map[uuid.UUID]teammate.Teammate{},
		tenures:   map[uuid.UUID]tenure.Tenure{},
	}
}

func (f *fakeDirectory) Person(_ context.Context, personID uuid.UUID) (person.Person, error) {
	p, ok := f.people[personID]
	if !ok {
		return person.Person{}, policy.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) Organization(_ context.Context, orgID uuid.UUID) (organization.Organization, error) {
	o, ok := f.orgs[orgID]
	if !ok {
		return organization.Organization{}, policy.ErrNotFound
	}
	return o, nil
}

func (f *fakeDirectory) AncestorsOf(_ context.Context, orgID uuid.UUID) ([]organization.Organization, error) {
	var out []organization.Organization
	current, ok := f.orgs[orgID]
	if !ok {
		return nil, policy.ErrNotFound
	}
	for current.ParentID() != nil {
		parent, ok := f.orgs[*current.ParentID()]
		if !ok {
			break
		}
		out = append(out, parent)
		current = parent
	}
	return out, nil
}

func (f *fakeDirectory) SelfAndDescendantsOf(_ context.Context, orgID uuid.UUID) ([]organization.Organization, error) {
	root, ok := f.orgs[orgID]
	if !ok {
		return nil, policy.ErrNotFound
	}
	out := []organization.Organization{root}
	frontier := []uuid.UUID{orgID}
	for len(frontier) > 0 {
		var next []uuid.UUID
		for _, parentID := range frontier {
			for _, o := range f.orgs {
				if o.ParentID() != nil && *o.ParentID() == parentID {
					out = append(out, o)
					next = append(next, o.ID())
				}
			}
		}
		frontier = next
	}
	return out, nil
}

func (f *fakeDirectory) TeammatesOf(_ context.Context, personID uuid.UUID) ([]teammate.Teammate, error) {
	var out []teammate.Teammate
	for _, tm := range f.teammates {
		if tm.PersonID() == personID {
			out = append(out, tm)
		}
	}
	return out, nil
}

func (f *fakeDirectory) TeammateByID(_ context.Context, teammateID uuid.UUID) (teammate.Teammate, error) {
	tm, ok := f.teammates[teammateID]
	if !ok {
		return teammate.Teammate{}, policy.ErrNotFound
	}
	return tm, nil
}

func (f *fakeDirectory) ActiveTenuresOf(_ context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	var out []tenure.Tenure
	for _, t := range f.tenures {
		if t.TeammateID() == teammateID && t.Active() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDirectory) TenuresOf(_ context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	var out []tenure.Tenure
	for _, t := range f.tenures {
		if t.TeammateID() == teammateID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDirectory) ActiveTenuresManagedBy(_ context.Context, managerTeammateID uuid.UUID) ([]tenure.Tenure, error) {
	var out []tenure.Tenure
	for _, t := range f.tenures {
		if t.ManagerTeammateID() != nil && *t.ManagerTeammateID() == managerTeammateID && t.Active() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDirectory) addPerson(name string) person.Person {
	p := person.New(name, "Tester", name+"@example.com")
	f.people[p.ID()] = p
	return p
}

func (f *fakeDirectory) addAdmin(name string) person.Person {
	p := f.addPerson(name).WithOgAdmin(true)
	f.people[p.ID()] = p
	return p
}

func (f *fakeDirectory) addOrg(kind organization.Kind, name string, parentID *uuid.UUID) organization.Organization {
	o := organization.New(kind, name, parentID)
	f.orgs[o.ID()] = o
	return o
}

func (f *fakeDirectory) addTeammate(orgID, personID uuid.UUID) teammate.Teammate {
	tm := teammate.New(orgID, personID)
	f.teammates[tm.ID()] = tm
	return tm
}

func (f *fakeDirectory) setFlags(tm teammate.Teammate, manageEmployment, createEmployment, manageMAAP bool) teammate.Teammate {
	tm = tm.WithFlags(manageEmployment, createEmployment, manageMAAP)
	f.teammates[tm.ID()] = tm
	return tm
}

func (f *fakeDirectory) addTenure(teammateID, companyID uuid.UUID, managerTeammateID *uuid.UUID, title string, startedAt time.Time) tenure.Tenure {
	t := tenure.New(teammateID, companyID, managerTeammateID, title, startedAt)
	f.tenures[t.ID()] = t
	return t
}

func (f *fakeDirectory) endTenure(t tenure.Tenure, at time.Time) {
	f.tenures[t.ID()] = t.Ended(at)
}

func ref(id uuid.UUID) *uuid.UUID { return &id }

// chainFixture builds worker -> lead -> director inside one company.
type chainFixture struct {
	dir      *fakeDirectory
	company  organization.Organization
	worker   person.Person
	lead     person.Person
	director person.Person

	workerTM   teammate.Teammate
	leadTM     teammate.Teammate
	directorTM teammate.Teammate

	workerTenure tenure.Tenure
}

func buildChain(t *testing.T) *chainFixture {
	t.Helper()
	dir := newFakeDirectory()
	started := time.Now().UTC().Add(-30 * 24 * time.Hour)

	fx := &chainFixture{dir: dir}
	fx.company = dir.addOrg(organization.KindCompany, "Acme", nil)
	fx.worker = dir.addPerson("Alice")
	fx.lead = dir.addPerson("Bob")
	fx.director = dir.addPerson("Carol")

	fx.workerTM = dir.addTeammate(fx.company.ID(), fx.worker.ID())
	fx.leadTM = dir.addTeammate(fx.company.ID(), fx.lead.ID())
	fx.directorTM = dir.addTeammate(fx.company.ID(), fx.director.ID())

	fx.workerTenure = dir.addTenure(fx.workerTM.ID(), fx.company.ID(), ref(fx.leadTM.ID()), "Engineer", started)
	dir.addTenure(fx.leadTM.ID(), fx.company.ID(), ref(fx.directorTM.ID()), "Team Lead", started)
	dir.addTenure(fx.directorTM.ID(), fx.company.ID(), nil, "Director", started)
	return fx
}

func TestManagersOf_Chain(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)

	entries, err := svc.ManagersOf(context.Background(), fx.worker.ID(), fx.company.ID())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, fx.lead.ID(), entries[0].Person.ID())
	require.Equal(t, 0, entries[0].Level)
	require.Equal(t, "Team Lead", entries[0].Title)

	require.Equal(t, fx.director.ID(), entries[1].Person.ID())
	require.Equal(t, 1, entries[1].Level)
	require.Equal(t, "Director", entries[1].Title)

	for _, e := range entries {
		require.NotEqual(t, fx.worker.ID(), e.Person.ID(), "subject must never appear in their own chain")
	}
}

func TestManagersOf_NoDuplicatePersons(t *testing.T) {
	// The same person manages through two teammate records; they must appear
	// once, at the shortest level.
	dir := newFakeDirectory()
	started := time.Now().UTC().Add(-time.Hour)
	company := dir.addOrg(organization.KindCompany, "Acme", nil)
	dept := dir.addOrg(organization.KindDepartment, "Platform", ref(company.ID()))

	worker := dir.addPerson("Alice")
	boss := dir.addPerson("Bob")

	workerTM := dir.addTeammate(company.ID(), worker.ID())
	bossCompanyTM := dir.addTeammate(company.ID(), boss.ID())
	bossDeptTM := dir.addTeammate(dept.ID(), boss.ID())

	dir.addTenure(workerTM.ID(), company.ID(), ref(bossDeptTM.ID()), "Engineer", started)
	dir.addTenure(bossDeptTM.ID(), company.ID(), ref(bossCompanyTM.ID()), "Dept Head", started)
	dir.addTenure(bossCompanyTM.ID(), company.ID(), nil, "CEO", started)

	svc := policy.NewService(dir, 0)
	entries, err := svc.ManagersOf(context.Background(), worker.ID(), company.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, boss.ID(), entries[0].Person.ID())
	require.Equal(t, 0, entries[0].Level)
}

func TestManagersOf_EndedTenureExcluded(t *testing.T) {
	fx := buildChain(t)
	fx.dir.endTenure(fx.workerTenure, time.Now().UTC().Add(-time.Minute))

	svc := policy.NewService(fx.dir, 0)
	entries, err := svc.ManagersOf(context.Background(), fx.worker.ID(), fx.company.ID())
	require.NoError(t, err)
	require.Empty(t, entries, "ended tenures must not contribute manager edges")
}

func TestManagersOf_AbsentRecords(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)

	entries, err := svc.ManagersOf(context.Background(), uuid.New(), fx.company.ID())
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = svc.ManagersOf(context.Background(), fx.worker.ID(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestManagersOf_CyclicGraphTerminates(t *testing.T) {
	dir := newFakeDirectory()
	started := time.Now().UTC().Add(-time.Hour)
	company := dir.addOrg(organization.KindCompany, "Acme", nil)

	a := dir.addPerson("Alice")
	b := dir.addPerson("Bob")
	aTM := dir.addTeammate(company.ID(), a.ID())
	bTM := dir.addTeammate(company.ID(), b.ID())

	// Invalid data: a and b manage each other.
	dir.addTenure(aTM.ID(), company.ID(), ref(bTM.ID()), "Engineer", started)
	dir.addTenure(bTM.ID(), company.ID(), ref(aTM.ID()), "Engineer", started)

	svc := policy.NewService(dir, 4)
	entries, err := svc.ManagersOf(context.Background(), a.ID(), company.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, b.ID(), entries[0].Person.ID())
}

func TestReportsOf_InverseOfManagersOf(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	reports, err := svc.ReportsOf(ctx, fx.director.ID(), fx.company.ID())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.Equal(t, fx.lead.ID(), reports[0].Person.ID())
	require.Equal(t, 0, reports[0].Level)
	require.Equal(t, fx.worker.ID(), reports[1].Person.ID())
	require.Equal(t, 1, reports[1].Level)

	managers, err := svc.ManagersOf(ctx, fx.worker.ID(), fx.company.ID())
	require.NoError(t, err)
	for _, m := range managers {
		back, err := svc.ReportsOf(ctx, m.Person.ID(), fx.company.ID())
		require.NoError(t, err)
		found := false
		for _, r := range back {
			if r.Person.ID() == fx.worker.ID() {
				found = true
			}
		}
		require.True(t, found, "every manager of the worker must see the worker among reports")
	}
}

func TestManagersOf_Idempotent(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	first, err := svc.ManagersOf(ctx, fx.worker.ID(), fx.company.ID())
	require.NoError(t, err)
	second, err := svc.ManagersOf(ctx, fx.worker.ID(), fx.company.ID())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAuthorize_AdminBypass(t *testing.T) {
	fx := buildChain(t)
	admin := fx.dir.addAdmin("Root")
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	for _, action := range policy.Actions() {
		var orgID *uuid.UUID
		if action.RequiresOrganization() {
			orgID = ref(fx.company.ID())
		}
		allowed, err := svc.Authorize(ctx, admin.ID(), fx.worker.ID(), orgID, action)
		require.NoError(t, err, "action %s", action)
		require.True(t, allowed, "admin must pass action %s", action)
	}
}

func TestAuthorize_AdminStillNeedsScope(t *testing.T) {
	fx := buildChain(t)
	admin := fx.dir.addAdmin("Root")
	svc := policy.NewService(fx.dir, 0)

	_, err := svc.Authorize(context.Background(), admin.ID(), fx.worker.ID(), nil, policy.ActionTeammate)
	require.Error(t, err)
	require.True(t, policy.IsMissingScope(err))
}

func TestAuthorize_MissingScope(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	for _, action := range []policy.Action{policy.ActionTeammate, policy.ActionAudit, policy.ActionViewCheckIns} {
		_, err := svc.Authorize(ctx, fx.lead.ID(), fx.worker.ID(), nil, action)
		require.Error(t, err, "action %s", action)
		require.True(t, policy.IsMissingScope(err), "action %s", action)
	}
}

func TestAuthorize_AbsentViewerOrSubjectDenied(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	allowed, err := svc.Authorize(ctx, uuid.New(), fx.worker.ID(), nil, policy.ActionShow)
	require.NoError(t, err)
	require.False(t, allowed)

	allowed, err = svc.Authorize(ctx, fx.lead.ID(), uuid.New(), nil, policy.ActionShow)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestAuthorize_ShowSelf(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)

	allowed, err := svc.Authorize(context.Background(), fx.worker.ID(), fx.worker.ID(), nil, policy.ActionShow)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAuthorize_ChangeEmploymentSelfDenied(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)

	allowed, err := svc.Authorize(context.Background(), fx.worker.ID(), fx.worker.ID(), nil, policy.ActionChangeEmployment)
	require.NoError(t, err)
	require.False(t, allowed, "operating on your own profile must not grant employment changes")
}

func TestAuthorize_ManagerChainGrantsEmploymentActions(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	for _, action := range []policy.Action{
		policy.ActionManager,
		policy.ActionManageAssignments,
		policy.ActionViewManageMode,
		policy.ActionViewEmploymentHistory,
		policy.ActionChangeEmployment,
	} {
		allowed, err := svc.Authorize(ctx, fx.director.ID(), fx.worker.ID(), nil, action)
		require.NoError(t, err, "action %s", action)
		require.True(t, allowed, "transitive manager must pass action %s", action)

		allowed, err = svc.Authorize(ctx, fx.worker.ID(), fx.director.ID(), nil, action)
		require.NoError(t, err, "action %s", action)
		require.False(t, allowed, "reports must not pass action %s upward", action)
	}
}

func TestAuthorize_EmploymentFlagGrantsWithoutHierarchy(t *testing.T) {
	fx := buildChain(t)
	outsider := fx.dir.addPerson("Olga")
	outsiderTM := fx.dir.addTeammate(fx.company.ID(), outsider.ID())
	fx.dir.setFlags(outsiderTM, true, false, false)
	fx.dir.addTenure(outsiderTM.ID(), fx.company.ID(), nil, "HR Manager", time.Now().UTC().Add(-time.Hour))

	svc := policy.NewService(fx.dir, 0)
	allowed, err := svc.Authorize(context.Background(), outsider.ID(), fx.worker.ID(), nil, policy.ActionChangeEmployment)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAuthorize_ManageAssignmentsNeedsBothFlagsOnSameRecord(t *testing.T) {
	dir := newFakeDirectory()
	company := dir.addOrg(organization.KindCompany, "Acme", nil)
	other := dir.addOrg(organization.KindCompany, "Globex", nil)
	subject := dir.addPerson("Alice")
	dir.addTeammate(company.ID(), subject.ID())

	started := time.Now().UTC().Add(-time.Hour)
	split := dir.addPerson("Sam")
	tmA := dir.addTeammate(company.ID(), split.ID())
	tmB := dir.addTeammate(other.ID(), split.ID())
	dir.setFlags(tmA, true, false, false)
	dir.setFlags(tmB, false, false, true)
	dir.addTenure(tmA.ID(), company.ID(), nil, "HR", started)
	dir.addTenure(tmB.ID(), other.ID(), nil, "Coach", started)

	combined := dir.addPerson("Kim")
	tmC := dir.addTeammate(company.ID(), combined.ID())
	dir.setFlags(tmC, true, false, true)
	dir.addTenure(tmC.ID(), company.ID(), nil, "HR Lead", started)

	svc := policy.NewService(dir, 0)
	ctx := context.Background()

	allowed, err := svc.Authorize(ctx, split.ID(), subject.ID(), nil, policy.ActionManageAssignments)
	require.NoError(t, err)
	require.False(t, allowed, "flags split across records must not combine")

	allowed, err = svc.Authorize(ctx, combined.ID(), subject.ID(), nil, policy.ActionManageAssignments)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAuthorize_Teammate(t *testing.T) {
	fx := buildChain(t)
	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	allowed, err := svc.Authorize(ctx, fx.lead.ID(), fx.worker.ID(), ref(fx.company.ID()), policy.ActionTeammate)
	require.NoError(t, err)
	require.True(t, allowed)

	// Subject with only an ended tenure still counts.
	fx.dir.endTenure(fx.workerTenure, time.Now().UTC().Add(-time.Minute))
	allowed, err = svc.Authorize(ctx, fx.lead.ID(), fx.worker.ID(), ref(fx.company.ID()), policy.ActionTeammate)
	require.NoError(t, err)
	require.True(t, allowed)

	// A viewer with no active tenure does not.
	allowed, err = svc.Authorize(ctx, fx.worker.ID(), fx.lead.ID(), ref(fx.company.ID()), policy.ActionTeammate)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestAuthorize_AuditScopedToOrganization(t *testing.T) {
	fx := buildChain(t)
	otherCompany := fx.dir.addOrg(organization.KindCompany, "Globex", nil)
	auditor := fx.dir.addPerson("Ada")
	auditorTM := fx.dir.addTeammate(fx.company.ID(), auditor.ID())
	fx.dir.setFlags(auditorTM, false, false, true)

	svc := policy.NewService(fx.dir, 0)
	ctx := context.Background()

	allowed, err := svc.Authorize(ctx, auditor.ID(), fx.worker.ID(), ref(fx.company.ID()), policy.ActionAudit)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Authorize(ctx, auditor.ID(), fx.worker.ID(), ref(otherCompany.ID()), policy.ActionAudit)
	require.NoError(t, err)
	require.False(t, allowed, "flags are per organization, not global")

	allowed, err = svc.Authorize(ctx, fx.lead.ID(), fx.worker.ID(), ref(fx.company.ID()), policy.ActionViewCheckIns)
	require.NoError(t, err)
	require.True(t, allowed, "direct manager passes check-in review in their own org")
}

func TestHasFlagScopesAreDistinct(t *testing.T) {
	dir := newFakeDirectory()
	company := dir.addOrg(organization.KindCompany, "Acme", nil)
	dept := dir.addOrg(organization.KindDepartment, "Platform", ref(company.ID()))
	team := dir.addOrg(organization.KindTeam, "Infra", ref(dept.ID()))

	p := dir.addPerson("Alice")
	companyTM := dir.addTeammate(company.ID(), p.ID())
	dir.addTeammate(team.ID(), p.ID())
	dir.setFlags(companyTM, true, false, false)

	ctx := context.Background()

	ok, err := policy.HasFlagAnywhere(ctx, dir, p.ID(), teammate.FlagManageEmployment)
	require.NoError(t, err)
	require.True(t, ok)

	// The flag sits on the company record, an ancestor of the team.
	ok, err = policy.HasFlagInHierarchy(ctx, dir, p.ID(), team.ID(), teammate.FlagManageEmployment)
	require.NoError(t, err)
	require.True(t, ok)

	// Sibling scope: a flag on company does not reach an unrelated tree.
	other := dir.addOrg(organization.KindCompany, "Globex", nil)
	ok, err = policy.HasFlagInHierarchy(ctx, dir, p.ID(), other.ID(), teammate.FlagManageEmployment)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveViewerRelationships(t *testing.T) {
	fx := buildChain(t)
	ctx := context.Background()

	rel, err := policy.ResolveViewerRelationships(ctx, fx.dir, fx.lead.ID())
	require.NoError(t, err)
	require.Equal(t, fx.lead.ID(), rel.ViewerID)
	require.True(t, rel.IsTeammate(fx.leadTM.ID()))
	require.True(t, rel.IsDirectReportIn(fx.company.ID(), fx.workerTM.ID()))
	require.False(t, rel.IsDirectReportIn(fx.company.ID(), fx.directorTM.ID()))
	// The report relation exists only in the company the tenure belongs to.
	require.False(t, rel.IsDirectReportIn(uuid.New(), fx.workerTM.ID()))

	rel, err = policy.ResolveViewerRelationships(ctx, fx.dir, uuid.New())
	require.NoError(t, err)
	require.Empty(t, rel.TeammateIDs)
	require.Empty(t, rel.DirectReports)
}
