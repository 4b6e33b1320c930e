package policy

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
)

// ErrNotFound is returned by DirectoryReader implementations for absent
// records. The engine treats it as "no relationship" and fails closed.
var ErrNotFound = gerrors.New("directory record not found")

// DirectoryReader is the read-only snapshot of the organization/employment
// graph the engine evaluates against. Implementations must be safe for
// concurrent reads; row-level consistency is sufficient.
type DirectoryReader interface {
	Person(ctx context.Context, personID uuid.UUID) (person.Person, error)
	Organization(ctx context.Context, orgID uuid.UUID) (organization.Organization, error)
	// AncestorsOf returns parents nearest first, excluding the org itself.
	AncestorsOf(ctx context.Context, orgID uuid.UUID) ([]organization.Organization, error)
	// SelfAndDescendantsOf returns the subtree including the org itself.
	SelfAndDescendantsOf(ctx context.Context, orgID uuid.UUID) ([]organization.Organization, error)
	// TeammatesOf returns every membership of the person, across all organizations.
	TeammatesOf(ctx context.Context, personID uuid.UUID) ([]teammate.Teammate, error)
	TeammateByID(ctx context.Context, teammateID uuid.UUID) (teammate.Teammate, error)
	// ActiveTenuresOf returns the teammate's tenures active at call time.
	ActiveTenuresOf(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error)
	// TenuresOf returns all tenures of the teammate, active or ended.
	TenuresOf(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error)
	// ActiveTenuresManagedBy returns active tenures naming the teammate as manager.
	ActiveTenuresManagedBy(ctx context.Context, managerTeammateID uuid.UUID) ([]tenure.Tenure, error)
}

// cachedReader memoizes lookups for the lifetime of a single decision or
// listing call. Employment state changes between requests, so instances must
// never outlive the call they were created for.
type cachedReader struct {
	inner DirectoryReader

	people      map[uuid.UUID]personResult
	orgs        map[uuid.UUID]orgResult
	ancestors   map[uuid.UUID]orgListResult
	descendants map[uuid.UUID]orgListResult
	memberships map[uuid.UUID]teammateListResult
	teammates   map[uuid.UUID]teammateResult
	activeTen   map[uuid.UUID]tenureListResult
	allTen      map[uuid.UUID]tenureListResult
	managedTen  map[uuid.UUID]tenureListResult
}

type personResult struct {
	val person.Person
	err error
}

type orgResult struct {
	val organization.Organization
	err error
}

type orgListResult struct {
	val []organization.Organization
	err error
}

type teammateResult struct {
	val teammate.Teammate
	err error
}

type teammateListResult struct {
	val []teammate.Teammate
	err error
}

type tenureListResult struct {
	val []tenure.Tenure
	err error
}

// NewCachedReader wraps reader with a call-scoped memo. The wrapper is not
// safe for concurrent use; every decision call gets its own instance.
func NewCachedReader(reader DirectoryReader) DirectoryReader {
	return &cachedReader{
		inner:       reader,
		people:      map[uuid.UUID]personResult{},
		orgs:        map[uuid.UUID]orgResult{},
		ancestors:   map[uuid.UUID]orgListResult{},
		descendants: map[uuid.UUID]orgListResult{},
		memberships: map[uuid.UUID]teammateListResult{},
		teammates:   map[uuid.UUID]teammateResult{},
		activeTen:   map[uuid.UUID]tenureListResult{},
		allTen:      map[uuid.UUID]tenureListResult{},
		managedTen:  map[uuid.UUID]tenureListResult{},
	}
}

func (c *cachedReader) Person(ctx context.Context, personID uuid.UUID) (person.Person, error) {
	if cached, ok := c.people[personID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.Person(ctx, personID)
	c.people[personID] = personResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) Organization(ctx context.Context, orgID uuid.UUID) (organization.Organization, error) {
	if cached, ok := c.orgs[orgID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.Organization(ctx, orgID)
	c.orgs[orgID] = orgResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) AncestorsOf(ctx context.Context, orgID uuid.UUID) ([]organization.Organization, error) {
	if cached, ok := c.ancestors[orgID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.AncestorsOf(ctx, orgID)
	c.ancestors[orgID] = orgListResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) SelfAndDescendantsOf(ctx context.Context, orgID uuid.UUID) ([]organization.Organization, error) {
	if cached, ok := c.descendants[orgID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.SelfAndDescendantsOf(ctx, orgID)
	c.descendants[orgID] = orgListResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) TeammatesOf(ctx context.Context, personID uuid.UUID) ([]teammate.Teammate, error) {
	if cached, ok := c.memberships[personID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.TeammatesOf(ctx, personID)
	c.memberships[personID] = teammateListResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) TeammateByID(ctx context.Context, teammateID uuid.UUID) (teammate.Teammate, error) {
	if cached, ok := c.teammates[teammateID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.TeammateByID(ctx, teammateID)
	c.teammates[teammateID] = teammateResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) ActiveTenuresOf(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	if cached, ok := c.activeTen[teammateID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.ActiveTenuresOf(ctx, teammateID)
	c.activeTen[teammateID] = tenureListResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) TenuresOf(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	if cached, ok := c.allTen[teammateID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.TenuresOf(ctx, teammateID)
	c.allTen[teammateID] = tenureListResult{val: val, err: err}
	return val, err
}

func (c *cachedReader) ActiveTenuresManagedBy(ctx context.Context, managerTeammateID uuid.UUID) ([]tenure.Tenure, error) {
	if cached, ok := c.managedTen[managerTeammateID]; ok {
		return cached.val, cached.err
	}
	val, err := c.inner.ActiveTenuresManagedBy(ctx, managerTeammateID)
	c.managedTen[managerTeammateID] = tenureListResult{val: val, err: err}
	return val, err
}
