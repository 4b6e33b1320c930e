package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicObservationChangedV1 = "observations.observation.changed.v1"
	EventVersionV1            = 1
)

const (
	ChangeDrafted   = "drafted"
	ChangePublished = "published"
	ChangeDeleted   = "deleted"
	ChangeRated     = "rated"
)

type ObservationEventV1 struct {
	EventID         uuid.UUID `json:"event_id"`
	EventVersion    int       `json:"event_version"`
	TransactionTime time.Time `json:"transaction_time"`
	ChangeType      string    `json:"change_type"`
	ObservationID   uuid.UUID `json:"observation_id"`
	ObserverID      uuid.UUID `json:"observer_id"`
	CompanyID       uuid.UUID `json:"company_id"`
}

func NewObservationEvent(changeType string, observationID, observerID, companyID uuid.UUID) ObservationEventV1 {
	return ObservationEventV1{
		EventID:         uuid.New(),
		EventVersion:    EventVersionV1,
		TransactionTime: time.Now().UTC(),
		ChangeType:      changeType,
		ObservationID:   observationID,
		ObserverID:      observerID,
		CompanyID:       companyID,
	}
}
