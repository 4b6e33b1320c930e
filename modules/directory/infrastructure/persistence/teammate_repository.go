package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

var ErrTeammateNotFound = gerrors.New("teammate not found")

type TeammateRepository struct{}

func NewTeammateRepository() teammate.Repository {
	return &TeammateRepository{}
}

const selectTeammates = `
SELECT id, organization_id, person_id,
       can_manage_employment, can_create_employment, can_manage_maap,
       first_employed_at, last_terminated_at, created_at, updated_at
FROM teammates
`

func scanTeammate(row pgx.Row) (teammate.Teammate, error) {
	var (
		id               pgtype.UUID
		organizationID   pgtype.UUID
		personID         pgtype.UUID
		manageEmployment bool
		createEmployment bool
		manageMAAP       bool
		firstEmployedAt  pgtype.Timestamptz
		lastTerminatedAt pgtype.Timestamptz
		createdAt        pgtype.Timestamptz
		updatedAt        pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &organizationID, &personID,
		&manageEmployment, &createEmployment, &manageMAAP,
		&firstEmployedAt, &lastTerminatedAt, &createdAt, &updatedAt,
	); err != nil {
		return teammate.Teammate{}, err
	}
	return teammate.Hydrate(
		asUUID(id),
		asUUID(organizationID),
		asUUID(personID),
		manageEmployment,
		createEmployment,
		manageMAAP,
		nullableTime(firstEmployedAt),
		nullableTime(lastTerminatedAt),
		asTime(createdAt),
		asTime(updatedAt),
	), nil
}

func scanTeammates(rows pgx.Rows) ([]teammate.Teammate, error) {
	defer rows.Close()
	var out []teammate.Teammate
	for rows.Next() {
		tm, err := scanTeammate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tm)
	}
	return out, rows.Err()
}

func (r *TeammateRepository) GetByID(ctx context.Context, id uuid.UUID) (teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	tm, err := scanTeammate(tx.QueryRow(ctx, selectTeammates+`WHERE id = $1`, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return teammate.Teammate{}, ErrTeammateNotFound
		}
		return teammate.Teammate{}, gerrors.Wrap(err, "query teammate")
	}
	return tm, nil
}

func (r *TeammateRepository) GetByPerson(ctx context.Context, personID uuid.UUID) ([]teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectTeammates+`WHERE person_id = $1 ORDER BY created_at, id`, pgUUID(personID))
	if err != nil {
		return nil, gerrors.Wrap(err, "query teammates by person")
	}
	return scanTeammates(rows)
}

func (r *TeammateRepository) GetByPersonAndOrganization(ctx context.Context, personID, organizationID uuid.UUID) (teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	tm, err := scanTeammate(tx.QueryRow(
		ctx,
		selectTeammates+`WHERE person_id = $1 AND organization_id = $2`,
		pgUUID(personID), pgUUID(organizationID),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return teammate.Teammate{}, ErrTeammateNotFound
		}
		return teammate.Teammate{}, gerrors.Wrap(err, "query teammate by person and organization")
	}
	return tm, nil
}

func (r *TeammateRepository) GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectTeammates+`WHERE organization_id = $1 ORDER BY created_at, id`, pgUUID(organizationID))
	if err != nil {
		return nil, gerrors.Wrap(err, "query teammates by organization")
	}
	return scanTeammates(rows)
}

func (r *TeammateRepository) Create(ctx context.Context, data teammate.Teammate) (teammate.Teammate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return teammate.Teammate{}, err
	}
	tm, err := scanTeammate(tx.QueryRow(ctx, `
INSERT INTO teammates (
	id, organization_id, person_id,
	can_manage_employment, can_create_employment, can_manage_maap,
	first_employed_at, last_terminated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, organization_id, person_id,
          can_manage_employment, can_create_employment, can_manage_maap,
          first_employed_at, last_terminated_at, created_at, updated_at
`,
		pgUUID(data.ID()),
		pgUUID(data.OrganizationID()),
		pgUUID(data.PersonID()),
		data.CanManageEmployment(),
		data.CanCreateEmployment(),
		data.CanManageMAAP(),
		pgNullableTime(data.FirstEmployedAt()),
		pgNullableTime(data.LastTerminatedAt()),
	))
	if err != nil {
		return teammate.Teammate{}, gerrors.Wrap(err, "insert teammate")
	}
	return tm, nil
}

func (r *TeammateRepository) Update(ctx context.Context, data teammate.Teammate) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE teammates
SET can_manage_employment = $2,
    can_create_employment = $3,
    can_manage_maap = $4,
    first_employed_at = $5,
    last_terminated_at = $6,
    updated_at = now()
WHERE id = $1
`,
		pgUUID(data.ID()),
		data.CanManageEmployment(),
		data.CanCreateEmployment(),
		data.CanManageMAAP(),
		pgNullableTime(data.FirstEmployedAt()),
		pgNullableTime(data.LastTerminatedAt()),
	)
	if err != nil {
		return gerrors.Wrap(err, "update teammate")
	}
	if tag.RowsAffected() == 0 {
		return ErrTeammateNotFound
	}
	return nil
}

func (r *TeammateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM teammates WHERE id = $1`, pgUUID(id))
	if err != nil {
		return gerrors.Wrap(err, "delete teammate")
	}
	if tag.RowsAffected() == 0 {
		return ErrTeammateNotFound
	}
	return nil
}
