package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

var ErrPersonNotFound = gerrors.New("person not found")

type PersonRepository struct{}

func NewPersonRepository() person.Repository {
	return &PersonRepository{}
}

const selectPeople = `
SELECT id, first_name, last_name, email, og_admin, created_at, updated_at
FROM people
`

func scanPerson(row pgx.Row) (person.Person, error) {
	var (
		id        pgtype.UUID
		firstName string
		lastName  string
		email     string
		ogAdmin   bool
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &firstName, &lastName, &email, &ogAdmin, &createdAt, &updatedAt); err != nil {
		return person.Person{}, err
	}
	return person.Hydrate(asUUID(id), firstName, lastName, email, ogAdmin, asTime(createdAt), asTime(updatedAt)), nil
}

func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	p, err := scanPerson(tx.QueryRow(ctx, selectPeople+`WHERE id = $1`, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, ErrPersonNotFound
		}
		return person.Person{}, gerrors.Wrap(err, "query person")
	}
	return p, nil
}

func (r *PersonRepository) GetAll(ctx context.Context) ([]person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectPeople+`ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, gerrors.Wrap(err, "query people")
	}
	defer rows.Close()

	var out []person.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PersonRepository) Create(ctx context.Context, data person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	p, err := scanPerson(tx.QueryRow(ctx, `
INSERT INTO people (id, first_name, last_name, email, og_admin)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, first_name, last_name, email, og_admin, created_at, updated_at
`, pgUUID(data.ID()), data.FirstName(), data.LastName(), data.Email(), data.OgAdmin()))
	if err != nil {
		return person.Person{}, gerrors.Wrap(err, "insert person")
	}
	return p, nil
}

func (r *PersonRepository) Update(ctx context.Context, data person.Person) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE people
SET first_name = $2, last_name = $3, email = $4, og_admin = $5, updated_at = now()
WHERE id = $1
`, pgUUID(data.ID()), data.FirstName(), data.LastName(), data.Email(), data.OgAdmin())
	if err != nil {
		return gerrors.Wrap(err, "update person")
	}
	if tag.RowsAffected() == 0 {
		return ErrPersonNotFound
	}
	return nil
}

func (r *PersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM people WHERE id = $1`, pgUUID(id))
	if err != nil {
		return gerrors.Wrap(err, "delete person")
	}
	if tag.RowsAffected() == 0 {
		return ErrPersonNotFound
	}
	return nil
}
