package teammate

import (
	"time"

	"github.com/google/uuid"
)

// Flag names a per-organization capability carried on a teammate record.
type Flag string

const (
	FlagManageEmployment Flag = "can_manage_employment"
	FlagCreateEmployment Flag = "can_create_employment"
	FlagManageMAAP       Flag = "can_manage_maap"
)

// Teammate is a person's membership in one organization. A person holds at
// most one teammate record per organization but many across the tree.
type Teammate struct {
	id                  uuid.UUID
	organizationID      uuid.UUID
	personID            uuid.UUID
	canManageEmployment bool
	canCreateEmployment bool
	canManageMAAP       bool
	firstEmployedAt     *time.Time
	lastTerminatedAt    *time.Time
	createdAt           time.Time
	updatedAt           time.Time
}

func New(organizationID, personID uuid.UUID) Teammate {
	return Teammate{
		id:             uuid.New(),
		organizationID: organizationID,
		personID:       personID,
	}
}

func Hydrate(
	id uuid.UUID,
	organizationID uuid.UUID,
	personID uuid.UUID,
	canManageEmployment bool,
	canCreateEmployment bool,
	canManageMAAP bool,
	firstEmployedAt *time.Time,
	lastTerminatedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Teammate {
	return Teammate{
		id:                  id,
		organizationID:      organizationID,
		personID:            personID,
		canManageEmployment: canManageEmployment,
		canCreateEmployment: canCreateEmployment,
		canManageMAAP:       canManageMAAP,
		firstEmployedAt:     firstEmployedAt,
		lastTerminatedAt:    lastTerminatedAt,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

func (t Teammate) ID() uuid.UUID                { return t.id }
func (t Teammate) OrganizationID() uuid.UUID    { return t.organizationID }
func (t Teammate) PersonID() uuid.UUID          { return t.personID }
func (t Teammate) CanManageEmployment() bool    { return t.canManageEmployment }
func (t Teammate) CanCreateEmployment() bool    { return t.canCreateEmployment }
func (t Teammate) CanManageMAAP() bool          { return t.canManageMAAP }
func (t Teammate) FirstEmployedAt() *time.Time  { return t.firstEmployedAt }
func (t Teammate) LastTerminatedAt() *time.Time { return t.lastTerminatedAt }
func (t Teammate) CreatedAt() time.Time         { return t.createdAt }
func (t Teammate) UpdatedAt() time.Time         { return t.updatedAt }
func (t Teammate) IsZero() bool                 { return t.id == uuid.Nil }

// HasFlag resolves a capability flag by name. Unknown flags are false.
func (t Teammate) HasFlag(flag Flag) bool {
	switch flag {
	case FlagManageEmployment:
		return t.canManageEmployment
	case FlagCreateEmployment:
		return t.canCreateEmployment
	case FlagManageMAAP:
		return t.canManageMAAP
	}
	return false
}

// WithFlags returns a copy with the capability flags replaced.
func (t Teammate) WithFlags(manageEmployment, createEmployment, manageMAAP bool) Teammate {
	t.canManageEmployment = manageEmployment
	t.canCreateEmployment = createEmployment
	t.canManageMAAP = manageMAAP
	return t
}

// WithEmploymentMarkers returns a copy with the denormalized markers replaced.
func (t Teammate) WithEmploymentMarkers(firstEmployedAt, lastTerminatedAt *time.Time) Teammate {
	t.firstEmployedAt = firstEmployedAt
	t.lastTerminatedAt = lastTerminatedAt
	return t
}
