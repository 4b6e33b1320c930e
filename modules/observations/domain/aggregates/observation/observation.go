package observation

import (
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

// PrivacyLevel is the audience-breadth setting on an observation, ordered
// narrowest to widest.
type PrivacyLevel string

const (
	PrivacyObserverOnly        PrivacyLevel = "observer_only"
	PrivacyObservedOnly        PrivacyLevel = "observed_only"
	PrivacyManagersOnly        PrivacyLevel = "managers_only"
	PrivacyObservedAndManagers PrivacyLevel = "observed_and_managers"
	PrivacyPublicToCompany     PrivacyLevel = "public_to_company"
	PrivacyPublicToWorld       PrivacyLevel = "public_to_world"
)

func PrivacyLevels() []PrivacyLevel {
	return []PrivacyLevel{
		PrivacyObserverOnly,
		PrivacyObservedOnly,
		PrivacyManagersOnly,
		PrivacyObservedAndManagers,
		PrivacyPublicToCompany,
		PrivacyPublicToWorld,
	}
}

func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyObserverOnly, PrivacyObservedOnly, PrivacyManagersOnly,
		PrivacyObservedAndManagers, PrivacyPublicToCompany, PrivacyPublicToWorld:
		return true
	}
	return false
}

// IncludesObservees reports whether the tier grants the observees themselves.
func (p PrivacyLevel) IncludesObservees() bool {
	return p == PrivacyObservedOnly || p == PrivacyObservedAndManagers
}

// IncludesDirectManagers reports whether the tier grants the direct managers
// of observees.
func (p PrivacyLevel) IncludesDirectManagers() bool {
	return p == PrivacyManagersOnly || p == PrivacyObservedAndManagers
}

// RatingValue is a reaction attached to an observation. The two negative
// values carry a stricter visibility gate.
type RatingValue string

const (
	RatingStronglyAgree    RatingValue = "strongly_agree"
	RatingAgree            RatingValue = "agree"
	RatingNeutral          RatingValue = "neutral"
	RatingDisagree         RatingValue = "disagree"
	RatingStronglyDisagree RatingValue = "strongly_disagree"
)

func (v RatingValue) Valid() bool {
	switch v {
	case RatingStronglyAgree, RatingAgree, RatingNeutral, RatingDisagree, RatingStronglyDisagree:
		return true
	}
	return false
}

func (v RatingValue) Negative() bool {
	return v == RatingDisagree || v == RatingStronglyDisagree
}

type Rating struct {
	id            uuid.UUID
	observationID uuid.UUID
	raterID       uuid.UUID
	value         RatingValue
	createdAt     time.Time
}

func NewRating(observationID, raterID uuid.UUID, value RatingValue) Rating {
	return Rating{
		id:            uuid.New(),
		observationID: observationID,
		raterID:       raterID,
		value:         value,
	}
}

func HydrateRating(id, observationID, raterID uuid.UUID, value RatingValue, createdAt time.Time) Rating {
	return Rating{
		id:            id,
		observationID: observationID,
		raterID:       raterID,
		value:         value,
		createdAt:     createdAt,
	}
}

func (r Rating) ID() uuid.UUID            { return r.id }
func (r Rating) ObservationID() uuid.UUID { return r.observationID }
func (r Rating) RaterID() uuid.UUID       { return r.raterID }
func (r Rating) Value() RatingValue       { return r.value }
func (r Rating) CreatedAt() time.Time     { return r.createdAt }

var (
	ErrAlreadyPublished = gerrors.New("observation already published")
	ErrDeleted          = gerrors.New("observation deleted")
	ErrNoObservees      = gerrors.New("observation requires at least one observee")
)

// Observation is a piece of shared feedback about one or more teammates of a
// company. Created as a draft, published once, optionally soft-deleted.
type Observation struct {
	id          uuid.UUID
	observerID  uuid.UUID
	companyID   uuid.UUID
	privacy     PrivacyLevel
	body        string
	publishedAt *time.Time
	deletedAt   *time.Time
	observeeIDs []uuid.UUID
	ratings     []Rating
	createdAt   time.Time
	updatedAt   time.Time
}

// New creates a draft observation about the given teammates.
func New(observerID, companyID uuid.UUID, privacy PrivacyLevel, body string, observeeIDs []uuid.UUID) (Observation, error) {
	if len(observeeIDs) == 0 {
		return Observation{}, ErrNoObservees
	}
	return Observation{
		id:          uuid.New(),
		observerID:  observerID,
		companyID:   companyID,
		privacy:     privacy,
		body:        strings.TrimSpace(body),
		observeeIDs: append([]uuid.UUID(nil), observeeIDs...),
	}, nil
}

func Hydrate(
	id uuid.UUID,
	observerID uuid.UUID,
	companyID uuid.UUID,
	privacy PrivacyLevel,
	body string,
	publishedAt *time.Time,
	deletedAt *time.Time,
	observeeIDs []uuid.UUID,
	ratings []Rating,
	createdAt time.Time,
	updatedAt time.Time,
) Observation {
	return Observation{
		id:          id,
		observerID:  observerID,
		companyID:   companyID,
		privacy:     privacy,
		body:        strings.TrimSpace(body),
		publishedAt: publishedAt,
		deletedAt:   deletedAt,
		observeeIDs: observeeIDs,
		ratings:     ratings,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (o Observation) ID() uuid.UUID           { return o.id }
func (o Observation) ObserverID() uuid.UUID   { return o.observerID }
func (o Observation) CompanyID() uuid.UUID    { return o.companyID }
func (o Observation) Privacy() PrivacyLevel   { return o.privacy }
func (o Observation) Body() string            { return o.body }
func (o Observation) PublishedAt() *time.Time { return o.publishedAt }
func (o Observation) DeletedAt() *time.Time   { return o.deletedAt }
func (o Observation) ObserveeIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), o.observeeIDs...)
}
func (o Observation) Ratings() []Rating {
	return append([]Rating(nil), o.ratings...)
}
func (o Observation) CreatedAt() time.Time { return o.createdAt }
func (o Observation) UpdatedAt() time.Time { return o.updatedAt }
func (o Observation) IsZero() bool         { return o.id == uuid.Nil }

func (o Observation) Draft() bool   { return o.publishedAt == nil }
func (o Observation) Deleted() bool { return o.deletedAt != nil }

func (o Observation) HasObservee(teammateID uuid.UUID) bool {
	for _, id := range o.observeeIDs {
		if id == teammateID {
			return true
		}
	}
	return false
}

// Published returns a copy transitioned out of draft. The transition happens
// exactly once.
func (o Observation) Published(at time.Time) (Observation, error) {
	if o.deletedAt != nil {
		return o, ErrDeleted
	}
	if o.publishedAt != nil {
		return o, ErrAlreadyPublished
	}
	o.publishedAt = &at
	return o, nil
}

// SoftDeleted returns a copy marked deleted; it stays in the store.
func (o Observation) SoftDeleted(at time.Time) Observation {
	o.deletedAt = &at
	return o
}

func (o Observation) WithBody(body string) Observation {
	o.body = strings.TrimSpace(body)
	return o
}

func (o Observation) WithPrivacy(privacy PrivacyLevel) Observation {
	o.privacy = privacy
	return o
}

func (o Observation) WithRating(r Rating) Observation {
	o.ratings = append(append([]Rating(nil), o.ratings...), r)
	return o
}
