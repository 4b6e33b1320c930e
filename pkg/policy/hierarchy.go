package policy

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/person"
	"github.com/iota-uz/people-sdk/pkg/composables"
)

// DefaultMaxTraversalDepth bounds hierarchy walks. The manager graph is
// acyclic by invariant; hitting the cap means the invariant was violated.
const DefaultMaxTraversalDepth = 64

// Entry is one member of a managerial chain. Level 0 is the direct
// manager/report; level N is N hops away.
type Entry struct {
	Person person.Person
	Level  int
	// Title is the tenure-derived label of the manager's active tenure.
	// Empty for report entries.
	Title string
}

// Resolver walks the manager reference graph over active tenures only.
type Resolver struct {
	maxDepth int
}

func NewResolver(maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxTraversalDepth
	}
	return &Resolver{maxDepth: maxDepth}
}

// ManagersOf returns the transitive chain of managers of the person within
// the organization subtree, deduplicated by person at the shortest level,
// sorted by level then name. Absent person or organization yields an empty
// list, never an error.
func (r *Resolver) ManagersOf(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID) ([]Entry, error) {
	scope, ok, err := r.scopeTeammateIDs(ctx, reader, personID, orgID)
	if err != nil || !ok {
		return nil, err
	}

	frontier := make([]uuid.UUID, 0, len(scope))
	visited := make(map[uuid.UUID]bool, len(scope))
	for _, teammateID := range scope {
		visited[teammateID] = true
		next, err := r.managerRefs(ctx, reader, teammateID)
		if err != nil {
			return nil, err
		}
		frontier = append(frontier, next...)
	}

	seen := map[uuid.UUID]bool{personID: true}
	var out []Entry
	for level := 0; len(frontier) > 0; level++ {
		if level >= r.maxDepth {
			r.logDepthCapHit(ctx, personID, orgID, "managers")
			break
		}
		var next []uuid.UUID
		for _, teammateID := range frontier {
			if visited[teammateID] {
				continue
			}
			visited[teammateID] = true

			tm, err := reader.TeammateByID(ctx, teammateID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return nil, err
			}

			if !seen[tm.PersonID()] {
				p, err := reader.Person(ctx, tm.PersonID())
				if err != nil {
					if errors.Is(err, ErrNotFound) {
						continue
					}
					return nil, err
				}
				title, err := r.activeTitle(ctx, reader, teammateID)
				if err != nil {
					return nil, err
				}
				seen[tm.PersonID()] = true
				out = append(out, Entry{Person: p, Level: level, Title: title})
			}

			refs, err := r.managerRefs(ctx, reader, teammateID)
			if err != nil {
				return nil, err
			}
			next = append(next, refs...)
		}
		frontier = next
	}

	sortEntries(out)
	return out, nil
}

// ReportsOf returns the transitive reports of the person within the
// organization subtree: whoever names the person's teammates as manager,
// recursively, over active tenures only.
func (r *Resolver) ReportsOf(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID) ([]Entry, error) {
	scope, ok, err := r.scopeTeammateIDs(ctx, reader, personID, orgID)
	if err != nil || !ok {
		return nil, err
	}

	frontier := scope
	visited := make(map[uuid.UUID]bool, len(scope))
	for _, teammateID := range scope {
		visited[teammateID] = true
	}

	seen := map[uuid.UUID]bool{personID: true}
	var out []Entry
	for level := 0; len(frontier) > 0; level++ {
		if level >= r.maxDepth {
			r.logDepthCapHit(ctx, personID, orgID, "reports")
			break
		}
		var next []uuid.UUID
		for _, teammateID := range frontier {
			tenures, err := reader.ActiveTenuresManagedBy(ctx, teammateID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return nil, err
			}
			for _, t := range tenures {
				reportTeammateID := t.TeammateID()
				if visited[reportTeammateID] {
					continue
				}
				visited[reportTeammateID] = true

				tm, err := reader.TeammateByID(ctx, reportTeammateID)
				if err != nil {
					if errors.Is(err, ErrNotFound) {
						continue
					}
					return nil, err
				}
				if !seen[tm.PersonID()] {
					p, err := reader.Person(ctx, tm.PersonID())
					if err != nil {
						if errors.Is(err, ErrNotFound) {
							continue
						}
						return nil, err
					}
					seen[tm.PersonID()] = true
					out = append(out, Entry{Person: p, Level: level})
				}
				next = append(next, reportTeammateID)
			}
		}
		frontier = next
	}

	sortEntries(out)
	return out, nil
}

// scopeTeammateIDs resolves the person's teammate records within the
// organization subtree. ok is false when person/org is absent.
func (r *Resolver) scopeTeammateIDs(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID) ([]uuid.UUID, bool, error) {
	if personID == uuid.Nil || orgID == uuid.Nil {
		return nil, false, nil
	}
	if _, err := reader.Organization(ctx, orgID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if _, err := reader.Person(ctx, personID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	subtree, err := reader.SelfAndDescendantsOf(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	inScope := make(map[uuid.UUID]bool, len(subtree))
	for _, org := range subtree {
		inScope[org.ID()] = true
	}

	memberships, err := reader.TeammatesOf(ctx, personID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	scope := make([]uuid.UUID, 0, len(memberships))
	for _, tm := range memberships {
		if inScope[tm.OrganizationID()] {
			scope = append(scope, tm.ID())
		}
	}
	return scope, true, nil
}

// managerRefs returns the manager teammate ids named by the teammate's
// active tenures.
func (r *Resolver) managerRefs(ctx context.Context, reader DirectoryReader, teammateID uuid.UUID) ([]uuid.UUID, error) {
	tenures, err := reader.ActiveTenuresOf(ctx, teammateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	refs := make([]uuid.UUID, 0, len(tenures))
	for _, t := range tenures {
		if mgr := t.ManagerTeammateID(); mgr != nil && *mgr != uuid.Nil {
			refs = append(refs, *mgr)
		}
	}
	return refs, nil
}

func (r *Resolver) activeTitle(ctx context.Context, reader DirectoryReader, teammateID uuid.UUID) (string, error) {
	tenures, err := reader.ActiveTenuresOf(ctx, teammateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if len(tenures) == 0 {
		return "", nil
	}
	return tenures[0].Title(), nil
}

func (r *Resolver) logDepthCapHit(ctx context.Context, personID, orgID uuid.UUID, direction string) {
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"person_id":       personID,
		"organization_id": orgID,
		"direction":       direction,
		"max_depth":       r.maxDepth,
	}).Warn("hierarchy traversal depth cap reached, result truncated; manager graph likely cyclic")
	recordDepthCapHit(direction)
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level < entries[j].Level
		}
		if entries[i].Person.FullName() != entries[j].Person.FullName() {
			return entries[i].Person.FullName() < entries[j].Person.FullName()
		}
		return entries[i].Person.ID().String() < entries[j].Person.ID().String()
	})
}
