package organization

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCompany    Kind = "company"
	KindDepartment Kind = "department"
	KindTeam       Kind = "team"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCompany, KindDepartment, KindTeam:
		return true
	}
	return false
}

// Organization is a node in the organization tree. Parent is nil for roots;
// acyclicity is an upstream invariant enforced on writes.
type Organization struct {
	id        uuid.UUID
	kind      Kind
	name      string
	parentID  *uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

func New(kind Kind, name string, parentID *uuid.UUID) Organization {
	return Organization{
		id:       uuid.New(),
		kind:     kind,
		name:     strings.TrimSpace(name),
		parentID: parentID,
	}
}

func Hydrate(
	id uuid.UUID,
	kind Kind,
	name string,
	parentID *uuid.UUID,
	createdAt time.Time,
	updatedAt time.Time,
) Organization {
	return Organization{
		id:        id,
		kind:      kind,
		name:      strings.TrimSpace(name),
		parentID:  parentID,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (o Organization) ID() uuid.UUID        { return o.id }
func (o Organization) Kind() Kind           { return o.kind }
func (o Organization) Name() string         { return o.name }
func (o Organization) ParentID() *uuid.UUID { return o.parentID }
func (o Organization) CreatedAt() time.Time { return o.createdAt }
func (o Organization) UpdatedAt() time.Time { return o.updatedAt }
func (o Organization) IsZero() bool         { return o.id == uuid.Nil }
func (o Organization) IsRoot() bool         { return o.parentID == nil }
