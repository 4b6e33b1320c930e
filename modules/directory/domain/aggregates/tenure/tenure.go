package tenure

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenure is a time-bounded employment of a teammate within a company,
// optionally naming a manager teammate in the same company. Active iff
// started_at has passed and ended_at is unset or in the future. Tenures for
// the same teammate+company must not overlap.
type Tenure struct {
	id                uuid.UUID
	teammateID        uuid.UUID
	companyID         uuid.UUID
	managerTeammateID *uuid.UUID
	title             string
	startedAt         time.Time
	endedAt           *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

func New(teammateID, companyID uuid.UUID, managerTeammateID *uuid.UUID, title string, startedAt time.Time) Tenure {
	return Tenure{
		id:                uuid.New(),
		teammateID:        teammateID,
		companyID:         companyID,
		managerTeammateID: managerTeammateID,
		title:             strings.TrimSpace(title),
		startedAt:         startedAt,
	}
}

func Hydrate(
	id uuid.UUID,
	teammateID uuid.UUID,
	companyID uuid.UUID,
	managerTeammateID *uuid.UUID,
	title string,
	startedAt time.Time,
	endedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) Tenure {
	return Tenure{
		id:                id,
		teammateID:        teammateID,
		companyID:         companyID,
		managerTeammateID: managerTeammateID,
		title:             strings.TrimSpace(title),
		startedAt:         startedAt,
		endedAt:           endedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (t Tenure) ID() uuid.UUID                 { return t.id }
func (t Tenure) TeammateID() uuid.UUID         { return t.teammateID }
func (t Tenure) CompanyID() uuid.UUID          { return t.companyID }
func (t Tenure) ManagerTeammateID() *uuid.UUID { return t.managerTeammateID }
func (t Tenure) Title() string                 { return t.title }
func (t Tenure) StartedAt() time.Time          { return t.startedAt }
func (t Tenure) EndedAt() *time.Time           { return t.endedAt }
func (t Tenure) CreatedAt() time.Time          { return t.createdAt }
func (t Tenure) UpdatedAt() time.Time          { return t.updatedAt }
func (t Tenure) IsZero() bool                  { return t.id == uuid.Nil }

func (t Tenure) ActiveAt(at time.Time) bool {
	if t.startedAt.After(at) {
		return false
	}
	return t.endedAt == nil || t.endedAt.After(at)
}

func (t Tenure) Active() bool {
	return t.ActiveAt(time.Now().UTC())
}

// Ended returns a copy closed at the given time.
func (t Tenure) Ended(at time.Time) Tenure {
	t.endedAt = &at
	return t
}

// Overlaps reports whether two tenures share any instant.
func (t Tenure) Overlaps(other Tenure) bool {
	endsAfter := other.endedAt == nil || other.endedAt.After(t.startedAt)
	startsBefore := t.endedAt == nil || other.startedAt.Before(*t.endedAt)
	return endsAfter && startsBefore
}
