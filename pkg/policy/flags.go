package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
)

// The three flag scopes below are deliberately distinct named operations.
// Different actions need different scopes (one org, any org, org hierarchy)
// and conflating them is a primary source of authorization bugs.

// HasFlag resolves a capability flag on a single teammate record. A zero
// teammate resolves to false.
func HasFlag(tm teammate.Teammate, flag teammate.Flag) bool {
	if tm.IsZero() {
		return false
	}
	return tm.HasFlag(flag)
}

// HasFlagAnywhere reports whether any teammate record of the person, across
// every organization they belong to, carries the flag.
func HasFlagAnywhere(ctx context.Context, reader DirectoryReader, personID uuid.UUID, flag teammate.Flag) (bool, error) {
	if personID == uuid.Nil {
		return false, nil
	}
	memberships, err := reader.TeammatesOf(ctx, personID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, tm := range memberships {
		if HasFlag(tm, flag) {
			return true, nil
		}
	}
	return false, nil
}

// HasFlagInHierarchy reports whether the person carries the flag in the
// organization or in any ancestor organization they are also a teammate of.
func HasFlagInHierarchy(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID, flag teammate.Flag) (bool, error) {
	if personID == uuid.Nil || orgID == uuid.Nil {
		return false, nil
	}
	ancestors, err := reader.AncestorsOf(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	scope := make(map[uuid.UUID]bool, len(ancestors)+1)
	scope[orgID] = true
	for _, org := range ancestors {
		scope[org.ID()] = true
	}

	memberships, err := reader.TeammatesOf(ctx, personID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, tm := range memberships {
		if scope[tm.OrganizationID()] && HasFlag(tm, flag) {
			return true, nil
		}
	}
	return false, nil
}
