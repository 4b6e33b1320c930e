package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/directory/domain/aggregates/teammate"
)

// Action enumerates the fixed set of policy decisions. Every decision is
// adminBypass OR an action-specific combinator; dispatch is a single switch,
// never name-based lookup.
type Action string

const (
	ActionShow                  Action = "show"
	ActionTeammate              Action = "teammate"
	ActionManager               Action = "manager"
	ActionManageAssignments     Action = "manage_assignments"
	ActionViewManageMode        Action = "view_manage_mode"
	ActionViewEmploymentHistory Action = "view_employment_history"
	ActionChangeEmployment      Action = "change_employment"
	ActionAudit                 Action = "audit"
	ActionViewCheckIns          Action = "view_check_ins"
)

// Actions returns every known action, for iteration in tests and tooling.
func Actions() []Action {
	return []Action{
		ActionShow,
		ActionTeammate,
		ActionManager,
		ActionManageAssignments,
		ActionViewManageMode,
		ActionViewEmploymentHistory,
		ActionChangeEmployment,
		ActionAudit,
		ActionViewCheckIns,
	}
}

func (a Action) Valid() bool {
	switch a {
	case ActionShow, ActionTeammate, ActionManager, ActionManageAssignments,
		ActionViewManageMode, ActionViewEmploymentHistory, ActionChangeEmployment,
		ActionAudit, ActionViewCheckIns:
		return true
	}
	return false
}

// RequiresOrganization reports whether the action is scoped to one specific
// organization. Evaluating such an action without one is a caller error.
func (a Action) RequiresOrganization() bool {
	switch a {
	case ActionTeammate, ActionAudit, ActionViewCheckIns:
		return true
	}
	return false
}

// Evaluator combines the hierarchy resolver with the flag scopes into
// per-action decisions.
type Evaluator struct {
	resolver *Resolver
}

func NewEvaluator(resolver *Resolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// Allows evaluates one action. Absent viewer or subject is a deny, never an
// error; a missing organization on an org-scoped action is a MissingScope
// caller error.
func (e *Evaluator) Allows(ctx context.Context, reader DirectoryReader, viewerID, subjectID uuid.UUID, orgID *uuid.UUID, action Action) (bool, error) {
	if !action.Valid() {
		return false, nil
	}
	if action.RequiresOrganization() && (orgID == nil || *orgID == uuid.Nil) {
		return false, MissingScopeError(action)
	}

	viewer, err := reader.Person(ctx, viewerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if viewerID == uuid.Nil || viewer.IsZero() {
		return false, nil
	}
	if _, err := reader.Person(ctx, subjectID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if subjectID == uuid.Nil {
		return false, nil
	}

	if viewer.OgAdmin() {
		return true, nil
	}

	switch action {
	case ActionShow:
		return e.allowsShow(ctx, reader, viewerID, subjectID)
	case ActionTeammate:
		return e.allowsTeammate(ctx, reader, viewerID, subjectID, *orgID)
	case ActionManager:
		return e.allowsManager(ctx, reader, viewerID, subjectID)
	case ActionManageAssignments:
		return e.allowsManageAssignments(ctx, reader, viewerID, subjectID)
	case ActionViewManageMode, ActionViewEmploymentHistory:
		return e.allowsEmploymentView(ctx, reader, viewerID, subjectID)
	case ActionChangeEmployment:
		// Self-viewing is explicitly not sufficient here: a viewer on their
		// own profile still needs the employment flag or hierarchy position.
		return e.allowsEmploymentView(ctx, reader, viewerID, subjectID)
	case ActionAudit, ActionViewCheckIns:
		return e.allowsAudit(ctx, reader, viewerID, subjectID, *orgID)
	}
	return false, nil
}

func (e *Evaluator) allowsShow(ctx context.Context, reader DirectoryReader, viewerID, subjectID uuid.UUID) (bool, error) {
	if viewerID == subjectID {
		return true, nil
	}
	employed, err := e.employmentTeammates(ctx, reader, viewerID)
	if err != nil {
		return false, err
	}
	for _, tm := range employed {
		if HasFlag(tm, teammate.FlagManageEmployment) || HasFlag(tm, teammate.FlagManageMAAP) {
			return true, nil
		}
	}
	return false, nil
}

// allowsTeammate requires both sides: the viewer actively tenured in the
// organization and the subject holding any tenure there. No self bypass.
func (e *Evaluator) allowsTeammate(ctx context.Context, reader DirectoryReader, viewerID, subjectID, orgID uuid.UUID) (bool, error) {
	viewerActive, err := e.hasActiveTenureIn(ctx, reader, viewerID, orgID)
	if err != nil || !viewerActive {
		return false, err
	}
	return e.hasAnyTenureIn(ctx, reader, subjectID, orgID)
}

func (e *Evaluator) allowsManager(ctx context.Context, reader DirectoryReader, viewerID, subjectID uuid.UUID) (bool, error) {
	if ok, err := HasFlagAnywhere(ctx, reader, viewerID, teammate.FlagManageEmployment); err != nil || ok {
		return ok, err
	}
	return e.managesAnywhere(ctx, reader, viewerID, subjectID)
}

func (e *Evaluator) allowsManageAssignments(ctx context.Context, reader DirectoryReader, viewerID, subjectID uuid.UUID) (bool, error) {
	if ok, err := e.managesAnywhere(ctx, reader, viewerID, subjectID); err != nil || ok {
		return ok, err
	}
	// Fallback needs both flags on the same teammate record, in an org the
	// viewer is actively employed in.
	employed, err := e.employmentTeammates(ctx, reader, viewerID)
	if err != nil {
		return false, err
	}
	for _, tm := range employed {
		if HasFlag(tm, teammate.FlagManageEmployment) && HasFlag(tm, teammate.FlagManageMAAP) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) allowsEmploymentView(ctx context.Context, reader DirectoryReader, viewerID, subjectID uuid.UUID) (bool, error) {
	if ok, err := e.managesAnywhere(ctx, reader, viewerID, subjectID); err != nil || ok {
		return ok, err
	}
	employed, err := e.employmentTeammates(ctx, reader, viewerID)
	if err != nil {
		return false, err
	}
	for _, tm := range employed {
		if HasFlag(tm, teammate.FlagManageEmployment) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) allowsAudit(ctx context.Context, reader DirectoryReader, viewerID, subjectID, orgID uuid.UUID) (bool, error) {
	if ok, err := e.manages(ctx, reader, viewerID, subjectID, orgID); err != nil || ok {
		return ok, err
	}
	return e.hasFlagInOrg(ctx, reader, viewerID, orgID, teammate.FlagManageMAAP)
}

// manages reports whether the viewer appears in the subject's transitive
// manager chain within the organization subtree.
func (e *Evaluator) manages(ctx context.Context, reader DirectoryReader, viewerID, subjectID, orgID uuid.UUID) (bool, error) {
	entries, err := e.resolver.ManagersOf(ctx, reader, subjectID, orgID)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Person.ID() == viewerID {
			return true, nil
		}
	}
	return false, nil
}

// managesAnywhere checks the hierarchy position in every organization the
// viewer is actively employed in.
func (e *Evaluator) managesAnywhere(ctx context.Context, reader DirectoryReader, viewerID, subjectID uuid.UUID) (bool, error) {
	orgIDs, err := e.employmentOrgIDs(ctx, reader, viewerID)
	if err != nil {
		return false, err
	}
	for _, orgID := range orgIDs {
		ok, err := e.manages(ctx, reader, viewerID, subjectID, orgID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// employmentTeammates returns the person's teammate records that carry at
// least one active tenure. The flag fallbacks of show, manage_assignments and
// the employment-view actions are scoped to these, not to every membership.
func (e *Evaluator) employmentTeammates(ctx context.Context, reader DirectoryReader, personID uuid.UUID) ([]teammate.Teammate, error) {
	memberships, err := reader.TeammatesOf(ctx, personID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]teammate.Teammate, 0, len(memberships))
	for _, tm := range memberships {
		tenures, err := reader.ActiveTenuresOf(ctx, tm.ID())
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if len(tenures) > 0 {
			out = append(out, tm)
		}
	}
	return out, nil
}

func (e *Evaluator) employmentOrgIDs(ctx context.Context, reader DirectoryReader, personID uuid.UUID) ([]uuid.UUID, error) {
	employed, err := e.employmentTeammates(ctx, reader, personID)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(employed))
	for _, tm := range employed {
		out = append(out, tm.OrganizationID())
	}
	return out, nil
}

func (e *Evaluator) hasActiveTenureIn(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID) (bool, error) {
	tm, ok, err := e.teammateIn(ctx, reader, personID, orgID)
	if err != nil || !ok {
		return false, err
	}
	tenures, err := reader.ActiveTenuresOf(ctx, tm.ID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(tenures) > 0, nil
}

func (e *Evaluator) hasAnyTenureIn(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID) (bool, error) {
	tm, ok, err := e.teammateIn(ctx, reader, personID, orgID)
	if err != nil || !ok {
		return false, err
	}
	tenures, err := reader.TenuresOf(ctx, tm.ID())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(tenures) > 0, nil
}

func (e *Evaluator) hasFlagInOrg(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID, flag teammate.Flag) (bool, error) {
	tm, ok, err := e.teammateIn(ctx, reader, personID, orgID)
	if err != nil || !ok {
		return false, err
	}
	return HasFlag(tm, flag), nil
}

func (e *Evaluator) teammateIn(ctx context.Context, reader DirectoryReader, personID, orgID uuid.UUID) (teammate.Teammate, bool, error) {
	memberships, err := reader.TeammatesOf(ctx, personID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return teammate.Teammate{}, false, nil
		}
		return teammate.Teammate{}, false, err
	}
	for _, tm := range memberships {
		if tm.OrganizationID() == orgID {
			return tm, true, nil
		}
	}
	return teammate.Teammate{}, false, nil
}
