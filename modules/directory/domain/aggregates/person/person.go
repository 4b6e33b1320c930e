package person

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Person struct {
	id        uuid.UUID
	firstName string
	lastName  string
	email     string
	ogAdmin   bool
	createdAt time.Time
	updatedAt time.Time
}

func New(firstName, lastName, email string) Person {
	return Person{
		id:        uuid.New(),
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     strings.ToLower(strings.TrimSpace(email)),
	}
}

func Hydrate(
	id uuid.UUID,
	firstName string,
	lastName string,
	email string,
	ogAdmin bool,
	createdAt time.Time,
	updatedAt time.Time,
) Person {
	return Person{
		id:        id,
		firstName: strings.TrimSpace(firstName),
		lastName:  strings.TrimSpace(lastName),
		email:     strings.ToLower(strings.TrimSpace(email)),
		ogAdmin:   ogAdmin,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p Person) ID() uuid.UUID        { return p.id }
func (p Person) FirstName() string    { return p.firstName }
func (p Person) LastName() string     { return p.lastName }
func (p Person) Email() string        { return p.email }
func (p Person) CreatedAt() time.Time { return p.createdAt }
func (p Person) UpdatedAt() time.Time { return p.updatedAt }
func (p Person) IsZero() bool         { return p.id == uuid.Nil }

// OgAdmin reports the organization-wide administrator flag. It bypasses every
// action policy check unconditionally; content visibility ignores it.
func (p Person) OgAdmin() bool { return p.ogAdmin }

func (p Person) FullName() string {
	return strings.TrimSpace(p.firstName + " " + p.lastName)
}

// WithOgAdmin returns a copy with the administrator flag set.
func (p Person) WithOgAdmin(v bool) Person {
	p.ogAdmin = v
	return p
}
