package policy

import (
	"errors"

	"github.com/iota-uz/people-sdk/pkg/serrors"
)

const errorCodeMissingScope = "POLICY_MISSING_SCOPE"

// MissingScopeError builds the caller-contract violation returned when an
// organization-scoped action is evaluated without an organization. It is
// distinct from a deny: the request was malformed, not forbidden.
func MissingScopeError(action Action) *serrors.BaseError {
	return serrors.NewError(
		errorCodeMissingScope,
		"organization is required for this action",
		"Policy.MissingScope",
	).WithTemplateData(map[string]string{
		"action": string(action),
	})
}

// IsMissingScope reports whether err is a missing-scope caller error.
func IsMissingScope(err error) bool {
	var base *serrors.BaseError
	if errors.As(err, &base) {
		return base.Code == errorCodeMissingScope
	}
	return false
}
