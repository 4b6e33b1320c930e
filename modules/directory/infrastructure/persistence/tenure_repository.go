package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/tenure"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

var ErrTenureNotFound = gerrors.New("employment tenure not found")

type TenureRepository struct{}

func NewTenureRepository() tenure.Repository {
	return &TenureRepository{}
}

const selectTenures = `
SELECT id, teammate_id, company_id, manager_teammate_id, title, started_at, ended_at, created_at, updated_at
FROM employment_tenures
`

const tenureActiveClause = `started_at <= now() AND (ended_at IS NULL OR ended_at > now())`

func scanTenure(row pgx.Row) (tenure.Tenure, error) {
	var (
		id                pgtype.UUID
		teammateID        pgtype.UUID
		companyID         pgtype.UUID
		managerTeammateID pgtype.UUID
		title             string
		startedAt         pgtype.Timestamptz
		endedAt           pgtype.Timestamptz
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &teammateID, &companyID, &managerTeammateID,
		&title, &startedAt, &endedAt, &createdAt, &updatedAt,
	); err != nil {
		return tenure.Tenure{}, err
	}
	return tenure.Hydrate(
		asUUID(id),
		asUUID(teammateID),
		asUUID(companyID),
		nullableUUID(managerTeammateID),
		title,
		asTime(startedAt),
		nullableTime(endedAt),
		asTime(createdAt),
		asTime(updatedAt),
	), nil
}

func scanTenures(rows pgx.Rows) ([]tenure.Tenure, error) {
	defer rows.Close()
	var out []tenure.Tenure
	for rows.Next() {
		t, err := scanTenure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TenureRepository) GetByID(ctx context.Context, id uuid.UUID) (tenure.Tenure, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return tenure.Tenure{}, err
	}
	t, err := scanTenure(tx.QueryRow(ctx, selectTenures+`WHERE id = $1`, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenure.Tenure{}, ErrTenureNotFound
		}
		return tenure.Tenure{}, gerrors.Wrap(err, "query tenure")
	}
	return t, nil
}

func (r *TenureRepository) GetByTeammate(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectTenures+`WHERE teammate_id = $1 ORDER BY started_at, id`, pgUUID(teammateID))
	if err != nil {
		return nil, gerrors.Wrap(err, "query tenures by teammate")
	}
	return scanTenures(rows)
}

func (r *TenureRepository) GetActiveByTeammate(ctx context.Context, teammateID uuid.UUID) ([]tenure.Tenure, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(
		ctx,
		selectTenures+`WHERE teammate_id = $1 AND `+tenureActiveClause+` ORDER BY started_at, id`,
		pgUUID(teammateID),
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "query active tenures")
	}
	return scanTenures(rows)
}

func (r *TenureRepository) GetActiveManagedBy(ctx context.Context, managerTeammateID uuid.UUID) ([]tenure.Tenure, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(
		ctx,
		selectTenures+`WHERE manager_teammate_id = $1 AND `+tenureActiveClause+` ORDER BY started_at, id`,
		pgUUID(managerTeammateID),
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "query managed tenures")
	}
	return scanTenures(rows)
}

func (r *TenureRepository) Create(ctx context.Context, data tenure.Tenure) (tenure.Tenure, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return tenure.Tenure{}, err
	}
	t, err := scanTenure(tx.QueryRow(ctx, `
INSERT INTO employment_tenures (id, teammate_id, company_id, manager_teammate_id, title, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, teammate_id, company_id, manager_teammate_id, title, started_at, ended_at, created_at, updated_at
`,
		pgUUID(data.ID()),
		pgUUID(data.TeammateID()),
		pgUUID(data.CompanyID()),
		pgNullableUUID(data.ManagerTeammateID()),
		data.Title(),
		data.StartedAt(),
		pgNullableTime(data.EndedAt()),
	))
	if err != nil {
		return tenure.Tenure{}, gerrors.Wrap(err, "insert tenure")
	}
	return t, nil
}

func (r *TenureRepository) Update(ctx context.Context, data tenure.Tenure) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE employment_tenures
SET manager_teammate_id = $2, title = $3, started_at = $4, ended_at = $5, updated_at = now()
WHERE id = $1
`,
		pgUUID(data.ID()),
		pgNullableUUID(data.ManagerTeammateID()),
		data.Title(),
		data.StartedAt(),
		pgNullableTime(data.EndedAt()),
	)
	if err != nil {
		return gerrors.Wrap(err, "update tenure")
	}
	if tag.RowsAffected() == 0 {
		return ErrTenureNotFound
	}
	return nil
}
