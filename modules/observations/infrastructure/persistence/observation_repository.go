package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/people-sdk/modules/observations/domain/aggregates/observation"
	"github.com/iota-uz/people-sdk/modules/observations/visibility"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

var ErrObservationNotFound = gerrors.New("observation not found")

type ObservationRepository struct{}

func NewObservationRepository() observation.Repository {
	return &ObservationRepository{}
}

const selectObservations = `
SELECT o.id, o.observer_id, o.company_id, o.privacy, o.body,
       o.published_at, o.deleted_at, o.created_at, o.updated_at
FROM observations o
`

type observationRow struct {
	id          uuid.UUID
	observerID  uuid.UUID
	companyID   uuid.UUID
	privacy     string
	body        string
	publishedAt *time.Time
	deletedAt   *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

func scanObservationRow(row pgx.Row) (observationRow, error) {
	var (
		id          pgtype.UUID
		observerID  pgtype.UUID
		companyID   pgtype.UUID
		privacy     string
		body        string
		publishedAt pgtype.Timestamptz
		deletedAt   pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &observerID, &companyID, &privacy, &body,
		&publishedAt, &deletedAt, &createdAt, &updatedAt,
	); err != nil {
		return observationRow{}, err
	}
	return observationRow{
		id:          asUUID(id),
		observerID:  asUUID(observerID),
		companyID:   asUUID(companyID),
		privacy:     privacy,
		body:        body,
		publishedAt: nullableTime(publishedAt),
		deletedAt:   nullableTime(deletedAt),
		createdAt:   asTime(createdAt),
		updatedAt:   asTime(updatedAt),
	}, nil
}

func (r *ObservationRepository) GetByID(ctx context.Context, id uuid.UUID) (observation.Observation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return observation.Observation{}, err
	}
	row, err := scanObservationRow(tx.QueryRow(ctx, selectObservations+`WHERE o.id = $1`, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return observation.Observation{}, ErrObservationNotFound
		}
		return observation.Observation{}, gerrors.Wrap(err, "query observation")
	}
	return r.hydrate(ctx, row)
}

func (r *ObservationRepository) hydrate(ctx context.Context, row observationRow) (observation.Observation, error) {
	observees, err := r.observeesOf(ctx, row.id)
	if err != nil {
		return observation.Observation{}, err
	}
	ratings, err := r.ratingsOf(ctx, row.id)
	if err != nil {
		return observation.Observation{}, err
	}
	return observation.Hydrate(
		row.id,
		row.observerID,
		row.companyID,
		observation.PrivacyLevel(row.privacy),
		row.body,
		row.publishedAt,
		row.deletedAt,
		observees,
		ratings,
		row.createdAt,
		row.updatedAt,
	), nil
}

func (r *ObservationRepository) observeesOf(ctx context.Context, observationID uuid.UUID) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(
		ctx,
		`SELECT teammate_id FROM observation_observees WHERE observation_id = $1 ORDER BY teammate_id`,
		pgUUID(observationID),
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "query observees")
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id pgtype.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, asUUID(id))
	}
	return out, rows.Err()
}

func (r *ObservationRepository) ratingsOf(ctx context.Context, observationID uuid.UUID) ([]observation.Rating, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT id, observation_id, rater_id, rating, created_at
FROM observation_ratings
WHERE observation_id = $1
ORDER BY created_at, id
`, pgUUID(observationID))
	if err != nil {
		return nil, gerrors.Wrap(err, "query ratings")
	}
	defer rows.Close()

	var out []observation.Rating
	for rows.Next() {
		var (
			id        pgtype.UUID
			obsID     pgtype.UUID
			raterID   pgtype.UUID
			rating    string
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &obsID, &raterID, &rating, &createdAt); err != nil {
			return nil, err
		}
		out = append(out, observation.HydrateRating(
			asUUID(id), asUUID(obsID), asUUID(raterID),
			observation.RatingValue(rating), asTime(createdAt),
		))
	}
	return out, rows.Err()
}

// listQuery renders the WHERE clause for a listing. The visibility predicate
// compiles into the same statement so invisible records never leave the
// database.
func listQuery(params observation.FindParams) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := 1
	if params.CompanyID != uuid.Nil {
		conds = append(conds, fmt.Sprintf("o.company_id = $%d", next))
		args = append(args, pgUUID(params.CompanyID))
		next++
	}
	if params.VisibleTo != nil {
		clause, visArgs := visibility.VisibleSQL(*params.VisibleTo, "o", next)
		conds = append(conds, clause)
		args = append(args, visArgs...)
		next += len(visArgs)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *ObservationRepository) GetPaginated(ctx context.Context, params observation.FindParams) ([]observation.Observation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := listQuery(params)
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	q := fmt.Sprintf(
		"%s%s ORDER BY o.created_at DESC, o.id LIMIT %d OFFSET %d",
		selectObservations, where, limit, offset,
	)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "query observations")
	}
	raw := make([]observationRow, 0, limit)
	for rows.Next() {
		row, err := scanObservationRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		raw = append(raw, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]observation.Observation, 0, len(raw))
	for _, row := range raw {
		o, err := r.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *ObservationRepository) Count(ctx context.Context, params observation.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := listQuery(params)
	var count int64
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM observations o "+where, args...).Scan(&count); err != nil {
		return 0, gerrors.Wrap(err, "count observations")
	}
	return count, nil
}

func (r *ObservationRepository) Create(ctx context.Context, data observation.Observation) (observation.Observation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return observation.Observation{}, err
	}
	row, err := scanObservationRow(tx.QueryRow(ctx, `
INSERT INTO observations (id, observer_id, company_id, privacy, body, published_at, deleted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, observer_id, company_id, privacy, body, published_at, deleted_at, created_at, updated_at
`,
		pgUUID(data.ID()),
		pgUUID(data.ObserverID()),
		pgUUID(data.CompanyID()),
		string(data.Privacy()),
		data.Body(),
		pgNullableTime(data.PublishedAt()),
		pgNullableTime(data.DeletedAt()),
	))
	if err != nil {
		return observation.Observation{}, gerrors.Wrap(err, "insert observation")
	}
	for _, teammateID := range data.ObserveeIDs() {
		if _, err := tx.Exec(ctx, `
INSERT INTO observation_observees (observation_id, teammate_id) VALUES ($1, $2)
`, pgUUID(data.ID()), pgUUID(teammateID)); err != nil {
			return observation.Observation{}, gerrors.Wrap(err, "insert observee")
		}
	}
	return r.hydrate(ctx, row)
}

func (r *ObservationRepository) Update(ctx context.Context, data observation.Observation) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE observations
SET privacy = $2, body = $3, published_at = $4, deleted_at = $5, updated_at = now()
WHERE id = $1
`,
		pgUUID(data.ID()),
		string(data.Privacy()),
		data.Body(),
		pgNullableTime(data.PublishedAt()),
		pgNullableTime(data.DeletedAt()),
	)
	if err != nil {
		return gerrors.Wrap(err, "update observation")
	}
	if tag.RowsAffected() == 0 {
		return ErrObservationNotFound
	}
	return nil
}

func (r *ObservationRepository) AddRating(ctx context.Context, data observation.Rating) (observation.Rating, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return observation.Rating{}, err
	}
	var (
		id        pgtype.UUID
		obsID     pgtype.UUID
		raterID   pgtype.UUID
		rating    string
		createdAt pgtype.Timestamptz
	)
	if err := tx.QueryRow(ctx, `
INSERT INTO observation_ratings (id, observation_id, rater_id, rating)
VALUES ($1, $2, $3, $4)
RETURNING id, observation_id, rater_id, rating, created_at
`,
		pgUUID(data.ID()),
		pgUUID(data.ObservationID()),
		pgUUID(data.RaterID()),
		string(data.Value()),
	).Scan(&id, &obsID, &raterID, &rating, &createdAt); err != nil {
		return observation.Rating{}, gerrors.Wrap(err, "insert rating")
	}
	return observation.HydrateRating(
		asUUID(id), asUUID(obsID), asUUID(raterID),
		observation.RatingValue(rating), asTime(createdAt),
	), nil
}
