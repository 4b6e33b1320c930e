package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/organization"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

var ErrOrganizationNotFound = gerrors.New("organization not found")

type OrganizationRepository struct{}

func NewOrganizationRepository() organization.Repository {
	return &OrganizationRepository{}
}

func scanOrganization(row pgx.Row) (organization.Organization, error) {
	var (
		id        pgtype.UUID
		kind      string
		name      string
		parentID  pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &kind, &name, &parentID, &createdAt, &updatedAt); err != nil {
		return organization.Organization{}, err
	}
	return organization.Hydrate(
		asUUID(id),
		organization.Kind(kind),
		name,
		nullableUUID(parentID),
		asTime(createdAt),
		asTime(updatedAt),
	), nil
}

func scanOrganizations(rows pgx.Rows) ([]organization.Organization, error) {
	defer rows.Close()
	var out []organization.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return organization.Organization{}, err
	}
	o, err := scanOrganization(tx.QueryRow(ctx, `
SELECT id, kind, name, parent_id, created_at, updated_at
FROM organizations
WHERE id = $1
`, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, ErrOrganizationNotFound
		}
		return organization.Organization{}, gerrors.Wrap(err, "query organization")
	}
	return o, nil
}

func (r *OrganizationRepository) GetAll(ctx context.Context) ([]organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT id, kind, name, parent_id, created_at, updated_at
FROM organizations
ORDER BY name, id
`)
	if err != nil {
		return nil, gerrors.Wrap(err, "query organizations")
	}
	return scanOrganizations(rows)
}

func (r *OrganizationRepository) AncestorsOf(ctx context.Context, id uuid.UUID) ([]organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
WITH RECURSIVE chain AS (
	SELECT o.id, o.kind, o.name, o.parent_id, o.created_at, o.updated_at, 0 AS depth
	FROM organizations o
	WHERE o.id = (SELECT parent_id FROM organizations WHERE id = $1)
	UNION ALL
	SELECT o.id, o.kind, o.name, o.parent_id, o.created_at, o.updated_at, chain.depth + 1
	FROM organizations o
	JOIN chain ON o.id = chain.parent_id
	WHERE chain.depth < 128
)
SELECT id, kind, name, parent_id, created_at, updated_at
FROM chain
ORDER BY depth
`, pgUUID(id))
	if err != nil {
		return nil, gerrors.Wrap(err, "query ancestors")
	}
	return scanOrganizations(rows)
}

func (r *OrganizationRepository) SelfAndDescendantsOf(ctx context.Context, id uuid.UUID) ([]organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
WITH RECURSIVE subtree AS (
	SELECT o.id, o.kind, o.name, o.parent_id, o.created_at, o.updated_at, 0 AS depth
	FROM organizations o
	WHERE o.id = $1
	UNION ALL
	SELECT o.id, o.kind, o.name, o.parent_id, o.created_at, o.updated_at, subtree.depth + 1
	FROM organizations o
	JOIN subtree ON o.parent_id = subtree.id
	WHERE subtree.depth < 128
)
SELECT id, kind, name, parent_id, created_at, updated_at
FROM subtree
ORDER BY depth, name
`, pgUUID(id))
	if err != nil {
		return nil, gerrors.Wrap(err, "query subtree")
	}
	return scanOrganizations(rows)
}

func (r *OrganizationRepository) Create(ctx context.Context, data organization.Organization) (organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return organization.Organization{}, err
	}
	o, err := scanOrganization(tx.QueryRow(ctx, `
INSERT INTO organizations (id, kind, name, parent_id)
VALUES ($1, $2, $3, $4)
RETURNING id, kind, name, parent_id, created_at, updated_at
`, pgUUID(data.ID()), string(data.Kind()), data.Name(), pgNullableUUID(data.ParentID())))
	if err != nil {
		return organization.Organization{}, gerrors.Wrap(err, "insert organization")
	}
	return o, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, data organization.Organization) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE organizations
SET kind = $2, name = $3, parent_id = $4, updated_at = now()
WHERE id = $1
`, pgUUID(data.ID()), string(data.Kind()), data.Name(), pgNullableUUID(data.ParentID()))
	if err != nil {
		return gerrors.Wrap(err, "update organization")
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, pgUUID(id))
	if err != nil {
		return gerrors.Wrap(err, "delete organization")
	}
	if tag.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}
