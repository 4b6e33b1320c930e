package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicEmploymentChangedV1 = "directory.employment.changed.v1"
	EventVersionV1           = 1
)

// EmploymentEventV1 is published on every employment lifecycle change:
// teammate created, tenure started, tenure ended, manager changed.
type EmploymentEventV1 struct {
	EventID         uuid.UUID  `json:"event_id"`
	EventVersion    int        `json:"event_version"`
	TransactionTime time.Time  `json:"transaction_time"`
	ChangeType      string     `json:"change_type"`
	PersonID        uuid.UUID  `json:"person_id"`
	OrganizationID  uuid.UUID  `json:"organization_id"`
	TeammateID      uuid.UUID  `json:"teammate_id"`
	TenureID        *uuid.UUID `json:"tenure_id,omitempty"`
}

const (
	ChangeTeammateCreated = "teammate_created"
	ChangeTenureStarted   = "tenure_started"
	ChangeTenureEnded     = "tenure_ended"
	ChangeManagerChanged  = "manager_changed"
)

func NewEmploymentEvent(changeType string, personID, organizationID, teammateID uuid.UUID, tenureID *uuid.UUID) EmploymentEventV1 {
	return EmploymentEventV1{
		EventID:         uuid.New(),
		EventVersion:    EventVersionV1,
		TransactionTime: time.Now().UTC(),
		ChangeType:      changeType,
		PersonID:        personID,
		OrganizationID:  organizationID,
		TeammateID:      teammateID,
		TenureID:        tenureID,
	}
}
