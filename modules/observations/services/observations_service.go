package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	directorypersistence "github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/modules/observations/domain/aggregates/observation"
	"github.com/iota-uz/people-sdk/modules/observations/domain/events"
	"github.com/iota-uz/people-sdk/modules/observations/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/modules/observations/visibility"
	"github.com/iota-uz/people-sdk/pkg/composables"
	"github.com/iota-uz/people-sdk/pkg/eventbus"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

type ObservationCreateDTO struct {
	ObserverID  uuid.UUID   `form:"observer_id" json:"observer_id"`
	CompanyID   uuid.UUID   `form:"company_id" json:"company_id"`
	Privacy     string      `form:"privacy" json:"privacy"`
	Body        string      `form:"body" json:"body"`
	ObserveeIDs []uuid.UUID `form:"observee_ids" json:"observee_ids"`
}

func (d *ObservationCreateDTO) Validate() error {
	if !observation.PrivacyLevel(d.Privacy).Valid() {
		return validationError("OBSERVATION_PRIVACY_INVALID", "unknown privacy level")
	}
	if strings.TrimSpace(d.Body) == "" {
		return validationError("OBSERVATION_BODY_REQUIRED", "body is required")
	}
	if len(d.ObserveeIDs) == 0 {
		return validationError("OBSERVATION_OBSERVEES_REQUIRED", "at least one observee is required")
	}
	return nil
}

// ObservationsService owns the observation lifecycle and is the only path
// collaborators use to read observations, so every read goes through the
// visibility predicate.
type ObservationsService struct {
	repo      observation.Repository
	teammates teammate.Repository
	orgs      organization.Repository
	policy    *policy.Service
	publisher eventbus.EventBus
}

func NewObservationsService(
	repo observation.Repository,
	teammates teammate.Repository,
	orgs organization.Repository,
	policySvc *policy.Service,
	publisher eventbus.EventBus,
) *ObservationsService {
	return &ObservationsService{
		repo:      repo,
		teammates: teammates,
		orgs:      orgs,
		policy:    policySvc,
		publisher: publisher,
	}
}

// CreateDraft stores a new observation in draft state. Observees must be
// teammate records of the observation's company subtree.
func (s *ObservationsService) CreateDraft(ctx context.Context, dto *ObservationCreateDTO) (observation.Observation, error) {
	if dto == nil {
		return observation.Observation{}, validationError("OBSERVATION_DTO_REQUIRED", "missing dto")
	}
	if err := dto.Validate(); err != nil {
		return observation.Observation{}, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (observation.Observation, error) {
		subtree, err := s.orgs.SelfAndDescendantsOf(txCtx, dto.CompanyID)
		if err != nil {
			if errors.Is(err, directorypersistence.ErrOrganizationNotFound) {
				return observation.Observation{}, validationError("OBSERVATION_COMPANY_NOT_FOUND", "company does not exist")
			}
			return observation.Observation{}, err
		}
		subtreeIDs := make(map[uuid.UUID]struct{}, len(subtree))
		for _, org := range subtree {
			subtreeIDs[org.ID()] = struct{}{}
		}
		for _, teammateID := range dto.ObserveeIDs {
			tm, err := s.teammates.GetByID(txCtx, teammateID)
			if err != nil {
				if errors.Is(err, directorypersistence.ErrTeammateNotFound) {
					return observation.Observation{}, validationError("OBSERVATION_OBSERVEE_NOT_FOUND", "observee teammate does not exist")
				}
				return observation.Observation{}, err
			}
			if _, ok := subtreeIDs[tm.OrganizationID()]; !ok {
				return observation.Observation{}, validationError("OBSERVATION_OBSERVEE_NOT_IN_COMPANY", "observee teammate is outside the observation's company")
			}
		}
		entity, err := observation.New(
			dto.ObserverID,
			dto.CompanyID,
			observation.PrivacyLevel(dto.Privacy),
			dto.Body,
			dto.ObserveeIDs,
		)
		if err != nil {
			return observation.Observation{}, err
		}
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return observation.Observation{}, err
	}

	s.publisher.Publish(events.NewObservationEvent(
		events.ChangeDrafted, created.ID(), created.ObserverID(), created.CompanyID(),
	))
	return created, nil
}

// Publish transitions a draft to published. Only the observer may publish,
// and the transition happens exactly once.
func (s *ObservationsService) Publish(ctx context.Context, observationID, actorID uuid.UUID) (observation.Observation, error) {
	published, err := composables.InTxResult(ctx, func(txCtx context.Context) (observation.Observation, error) {
		o, err := s.getOwned(txCtx, observationID, actorID)
		if err != nil {
			return observation.Observation{}, err
		}
		next, err := o.Published(time.Now().UTC())
		if err != nil {
			return observation.Observation{}, conflictError("OBSERVATION_ALREADY_PUBLISHED", "observation cannot be published", err)
		}
		return next, s.repo.Update(txCtx, next)
	})
	if err != nil {
		return observation.Observation{}, err
	}

	s.publisher.Publish(events.NewObservationEvent(
		events.ChangePublished, published.ID(), published.ObserverID(), published.CompanyID(),
	))
	return published, nil
}

// SoftDelete marks the observation deleted; it stays in the store and
// remains visible to its observer only.
func (s *ObservationsService) SoftDelete(ctx context.Context, observationID, actorID uuid.UUID) error {
	var deleted observation.Observation
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		o, err := s.getOwned(txCtx, observationID, actorID)
		if err != nil {
			return err
		}
		deleted = o.SoftDeleted(time.Now().UTC())
		return s.repo.Update(txCtx, deleted)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(events.NewObservationEvent(
		events.ChangeDeleted, deleted.ID(), deleted.ObserverID(), deleted.CompanyID(),
	))
	return nil
}

// AddRating attaches a rating. The rater must be able to see the record.
func (s *ObservationsService) AddRating(ctx context.Context, observationID, raterID uuid.UUID, value observation.RatingValue) (observation.Rating, error) {
	if !value.Valid() {
		return observation.Rating{}, validationError("RATING_INVALID", "unknown rating value")
	}
	rated, err := composables.InTxResult(ctx, func(txCtx context.Context) (observation.Rating, error) {
		o, err := s.repo.GetByID(txCtx, observationID)
		if err != nil {
			if errors.Is(err, persistence.ErrObservationNotFound) {
				return observation.Rating{}, notFoundError("OBSERVATION_NOT_FOUND", "observation not found", err)
			}
			return observation.Rating{}, err
		}
		rel, err := s.policy.Relationships(txCtx, raterID)
		if err != nil {
			return observation.Rating{}, err
		}
		if !visibility.Visible(rel, o) {
			return observation.Rating{}, forbiddenError("OBSERVATION_NOT_VISIBLE", "observation is not visible to the rater")
		}
		return s.repo.AddRating(txCtx, observation.NewRating(observationID, raterID, value))
	})
	if err != nil {
		return observation.Rating{}, err
	}

	o, err := s.repo.GetByID(ctx, observationID)
	if err == nil {
		s.publisher.Publish(events.NewObservationEvent(
			events.ChangeRated, o.ID(), o.ObserverID(), o.CompanyID(),
		))
	}
	return rated, nil
}

// VisibleObservations lists the observations of a company the viewer may
// see. The predicate is pushed into the query; ratings on the returned
// records are additionally trimmed by the negative-rating gate.
func (s *ObservationsService) VisibleObservations(ctx context.Context, viewerID, companyID uuid.UUID, limit, offset int) ([]observation.Observation, error) {
	rel, err := s.policy.Relationships(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.GetPaginated(ctx, observation.FindParams{
		CompanyID: companyID,
		VisibleTo: &rel,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}

	out := make([]observation.Observation, 0, len(records))
	for _, o := range records {
		out = append(out, trimRatings(rel, o))
	}
	return out, nil
}

// IsObservationVisible is the single-record form of the listing filter. An
// absent record reads as not visible.
func (s *ObservationsService) IsObservationVisible(ctx context.Context, viewerID, observationID uuid.UUID) (bool, error) {
	o, err := s.repo.GetByID(ctx, observationID)
	if err != nil {
		if errors.Is(err, persistence.ErrObservationNotFound) {
			return false, nil
		}
		return false, err
	}
	rel, err := s.policy.Relationships(ctx, viewerID)
	if err != nil {
		return false, err
	}
	return visibility.Visible(rel, o), nil
}

// CanViewNegativeRatings reports whether the viewer passes the stricter
// close-relationship gate on the record.
func (s *ObservationsService) CanViewNegativeRatings(ctx context.Context, viewerID, observationID uuid.UUID) (bool, error) {
	o, err := s.repo.GetByID(ctx, observationID)
	if err != nil {
		if errors.Is(err, persistence.ErrObservationNotFound) {
			return false, nil
		}
		return false, err
	}
	rel, err := s.policy.Relationships(ctx, viewerID)
	if err != nil {
		return false, err
	}
	return visibility.CanViewNegativeRatings(rel, o), nil
}

// GetVisibleByID loads one observation for the viewer, with ratings trimmed.
func (s *ObservationsService) GetVisibleByID(ctx context.Context, viewerID, observationID uuid.UUID) (observation.Observation, error) {
	o, err := s.repo.GetByID(ctx, observationID)
	if err != nil {
		if errors.Is(err, persistence.ErrObservationNotFound) {
			return observation.Observation{}, notFoundError("OBSERVATION_NOT_FOUND", "observation not found", err)
		}
		return observation.Observation{}, err
	}
	rel, err := s.policy.Relationships(ctx, viewerID)
	if err != nil {
		return observation.Observation{}, err
	}
	if !visibility.Visible(rel, o) {
		return observation.Observation{}, notFoundError("OBSERVATION_NOT_FOUND", "observation not found", nil)
	}
	return trimRatings(rel, o), nil
}

func (s *ObservationsService) getOwned(ctx context.Context, observationID, actorID uuid.UUID) (observation.Observation, error) {
	o, err := s.repo.GetByID(ctx, observationID)
	if err != nil {
		if errors.Is(err, persistence.ErrObservationNotFound) {
			return observation.Observation{}, notFoundError("OBSERVATION_NOT_FOUND", "observation not found", err)
		}
		return observation.Observation{}, err
	}
	if o.ObserverID() != actorID {
		return observation.Observation{}, forbiddenError("OBSERVATION_NOT_OWNED", "only the observer may modify an observation")
	}
	return o, nil
}

// trimRatings drops negative ratings for viewers outside the close
// relationships; everything else passes through.
func trimRatings(rel policy.ViewerRelationships, o observation.Observation) observation.Observation {
	if visibility.CanViewNegativeRatings(rel, o) {
		return o
	}
	kept := make([]observation.Rating, 0, len(o.Ratings()))
	for _, r := range o.Ratings() {
		if r.Value().Negative() {
			continue
		}
		kept = append(kept, r)
	}
	return observation.Hydrate(
		o.ID(), o.ObserverID(), o.CompanyID(), o.Privacy(), o.Body(),
		o.PublishedAt(), o.DeletedAt(), o.ObserveeIDs(), kept,
		o.CreatedAt(), o.UpdatedAt(),
	)
}
