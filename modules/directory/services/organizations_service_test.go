package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
)

func orgTree(t *testing.T) (*OrganizationsService, organization.Organization, organization.Organization, organization.Organization) {
	t.Helper()

	repo := &memOrgRepo{orgs: map[uuid.UUID]organization.Organization{}}
	svc := NewOrganizationsService(repo)
	ctx := testContext()

	company, err := svc.Create(ctx, &OrganizationCreateDTO{Kind: "company", Name: "Acme Corp"})
	require.NoError(t, err)

	companyID := company.ID()
	dept, err := svc.Create(ctx, &OrganizationCreateDTO{Kind: "department", Name: "Engineering", ParentID: &companyID})
	require.NoError(t, err)

	deptID := dept.ID()
	team, err := svc.Create(ctx, &OrganizationCreateDTO{Kind: "team", Name: "Platform", ParentID: &deptID})
	require.NoError(t, err)

	return svc, company, dept, team
}

func TestCreateOrganization_Validation(t *testing.T) {
	repo := &memOrgRepo{orgs: map[uuid.UUID]organization.Organization{}}
	svc := NewOrganizationsService(repo)
	ctx := testContext()

	cases := []struct {
		name string
		dto  *OrganizationCreateDTO
		code string
	}{
		{"unknown kind", &OrganizationCreateDTO{Kind: "guild", Name: "Writers"}, "ORGANIZATION_KIND_INVALID"},
		{"blank name", &OrganizationCreateDTO{Kind: "company", Name: "   "}, "ORGANIZATION_NAME_REQUIRED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.dto)
			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			require.Equal(t, tc.code, svcErr.Code)
		})
	}

	missingParent := uuid.New()
	_, err := svc.Create(ctx, &OrganizationCreateDTO{Kind: "team", Name: "Orphans", ParentID: &missingParent})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORGANIZATION_PARENT_NOT_FOUND", svcErr.Code)
}

func TestMoveOrganization_RejectsOwnSubtree(t *testing.T) {
	svc, company, dept, team := orgTree(t)
	ctx := testContext()

	teamID := team.ID()
	err := svc.Move(ctx, company.ID(), &teamID)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORGANIZATION_CYCLE", svcErr.Code)

	deptID := dept.ID()
	err = svc.Move(ctx, dept.ID(), &deptID)
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORGANIZATION_CYCLE", svcErr.Code)
}

func TestMoveOrganization_Reparents(t *testing.T) {
	svc, company, _, team := orgTree(t)
	ctx := testContext()

	companyID := company.ID()
	require.NoError(t, svc.Move(ctx, team.ID(), &companyID))

	moved, err := svc.GetByID(ctx, team.ID())
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID())
	require.Equal(t, companyID, *moved.ParentID())

	require.NoError(t, svc.Move(ctx, team.ID(), nil))
	moved, err = svc.GetByID(ctx, team.ID())
	require.NoError(t, err)
	require.Nil(t, moved.ParentID())
}

func TestRenameOrganization(t *testing.T) {
	svc, company, _, _ := orgTree(t)
	ctx := testContext()

	err := svc.Rename(ctx, company.ID(), "  ")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORGANIZATION_NAME_REQUIRED", svcErr.Code)

	err = svc.Rename(ctx, uuid.New(), "Globex")
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, "ORGANIZATION_NOT_FOUND", svcErr.Code)

	require.NoError(t, svc.Rename(ctx, company.ID(), "Globex"))
	renamed, err := svc.GetByID(ctx, company.ID())
	require.NoError(t, err)
	require.Equal(t, "Globex", renamed.Name())
}
