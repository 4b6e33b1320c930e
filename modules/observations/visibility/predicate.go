package visibility

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/people-sdk/modules/observations/domain/aggregates/observation"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

// The visibility rules are written once, as a predicate tree over named
// sub-predicates, and rendered two ways: Eval against a loaded record and
// SQL as a WHERE fragment for bulk listings. Both renderers walk the same
// tree, so a record-level check and a listing can never classify a record
// differently.

// node is one predicate in the tree. sql renders against the observations
// table alias of the builder; eval renders against a loaded aggregate.
type node interface {
	eval(rel policy.ViewerRelationships, o observation.Observation) bool
	sql(b *sqlBuilder) string
}

type andNode struct{ children []node }

func (n andNode) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	for _, c := range n.children {
		if !c.eval(rel, o) {
			return false
		}
	}
	return true
}

func (n andNode) sql(b *sqlBuilder) string {
	parts := make([]string, 0, len(n.children))
	for _, c := range n.children {
		parts = append(parts, c.sql(b))
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

type orNode struct{ children []node }

func (n orNode) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	for _, c := range n.children {
		if c.eval(rel, o) {
			return true
		}
	}
	return false
}

func (n orNode) sql(b *sqlBuilder) string {
	parts := make([]string, 0, len(n.children))
	for _, c := range n.children {
		parts = append(parts, c.sql(b))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

type notNode struct{ child node }

func (n notNode) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	return !n.child.eval(rel, o)
}

func (n notNode) sql(b *sqlBuilder) string {
	return "NOT " + n.child.sql(b)
}

func and(children ...node) node { return andNode{children: children} }
func or(children ...node) node  { return orNode{children: children} }
func not(child node) node       { return notNode{child: child} }

// isDraftOrDeleted is the lifecycle gate: such records are visible to the
// observer only, regardless of tier.
type isDraftOrDeleted struct{}

func (isDraftOrDeleted) eval(_ policy.ViewerRelationships, o observation.Observation) bool {
	return o.Draft() || o.Deleted()
}

func (isDraftOrDeleted) sql(b *sqlBuilder) string {
	return fmt.Sprintf("(%s.published_at IS NULL OR %s.deleted_at IS NOT NULL)", b.alias, b.alias)
}

type isObserver struct{}

func (isObserver) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	return rel.ViewerID != uuid.Nil && o.ObserverID() == rel.ViewerID
}

func (isObserver) sql(b *sqlBuilder) string {
	return fmt.Sprintf("%s.observer_id = %s", b.alias, b.bind(b.rel.ViewerID))
}

type tierIs struct{ levels []observation.PrivacyLevel }

func (n tierIs) eval(_ policy.ViewerRelationships, o observation.Observation) bool {
	for _, l := range n.levels {
		if o.Privacy() == l {
			return true
		}
	}
	return false
}

func (n tierIs) sql(b *sqlBuilder) string {
	levels := make([]string, 0, len(n.levels))
	for _, l := range n.levels {
		levels = append(levels, string(l))
	}
	return fmt.Sprintf("%s.privacy = ANY(%s)", b.alias, b.bind(levels))
}

// isCompanyTeammate grants the public_to_company tier: the viewer holds a
// teammate record in the record's company.
type isCompanyTeammate struct{}

func (isCompanyTeammate) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	return rel.IsTeammateOfOrg(o.CompanyID())
}

func (isCompanyTeammate) sql(b *sqlBuilder) string {
	if len(b.rel.TeammateOrgIDs) == 0 {
		return "FALSE"
	}
	return fmt.Sprintf("%s.company_id = ANY(%s)", b.alias, b.bind(b.rel.TeammateOrgIDs))
}

type isObservee struct{}

func (isObservee) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	for _, teammateID := range o.ObserveeIDs() {
		if rel.IsTeammate(teammateID) {
			return true
		}
	}
	return false
}

func (isObservee) sql(b *sqlBuilder) string {
	if len(b.rel.TeammateIDs) == 0 {
		return "FALSE"
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM observation_observees oo WHERE oo.observation_id = %s.id AND oo.teammate_id = ANY(%s))",
		b.alias, b.bind(b.rel.TeammateIDs),
	)
}

// isDirectManagerOfAnyObservee grants level-0 managers only; transitive
// managers are deliberately excluded. The manager relation is scoped to the
// record's company: managing someone's tenure elsewhere grants nothing here.
type isDirectManagerOfAnyObservee struct{}

func (isDirectManagerOfAnyObservee) eval(rel policy.ViewerRelationships, o observation.Observation) bool {
	for _, teammateID := range o.ObserveeIDs() {
		if rel.IsDirectReportIn(o.CompanyID(), teammateID) {
			return true
		}
	}
	return false
}

func (isDirectManagerOfAnyObservee) sql(b *sqlBuilder) string {
	if len(b.rel.DirectReports) == 0 {
		return "FALSE"
	}
	parts := make([]string, 0, len(b.rel.DirectReports))
	for _, group := range b.rel.DirectReports {
		parts = append(parts, fmt.Sprintf(
			"(%s.company_id = %s AND EXISTS (SELECT 1 FROM observation_observees oo WHERE oo.observation_id = %s.id AND oo.teammate_id = ANY(%s)))",
			b.alias, b.bind(group.CompanyID), b.alias, b.bind(group.TeammateIDs),
		))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// visiblePredicate is the whole rule set. The lifecycle gate comes first:
// drafts and deleted records fall through to the observer clause only. There
// is no administrative override here; content privacy is not action
// authorization.
func visiblePredicate() node {
	return or(
		isObserver{},
		and(
			not(isDraftOrDeleted{}),
			or(
				tierIs{levels: []observation.PrivacyLevel{observation.PrivacyPublicToWorld}},
				and(
					tierIs{levels: []observation.PrivacyLevel{observation.PrivacyPublicToCompany}},
					isCompanyTeammate{},
				),
				and(
					tierIs{levels: []observation.PrivacyLevel{
						observation.PrivacyObservedOnly,
						observation.PrivacyObservedAndManagers,
					}},
					isObservee{},
				),
				and(
					tierIs{levels: []observation.PrivacyLevel{
						observation.PrivacyManagersOnly,
						observation.PrivacyObservedAndManagers,
					}},
					isDirectManagerOfAnyObservee{},
				),
			),
		),
	)
}

// closeRelationship is the stricter gate shared by negative ratings:
// observer, observee, or direct manager of an observee. Public-tier
// visibility alone does not pass it.
func closeRelationship() node {
	return or(isObserver{}, isObservee{}, isDirectManagerOfAnyObservee{})
}

// Visible evaluates the predicate against one loaded record.
func Visible(rel policy.ViewerRelationships, o observation.Observation) bool {
	return visiblePredicate().eval(rel, o)
}

// CanViewNegativeRatings gates disagree/strongly_disagree ratings behind a
// close relationship on top of plain visibility.
func CanViewNegativeRatings(rel policy.ViewerRelationships, o observation.Observation) bool {
	return Visible(rel, o) && closeRelationship().eval(rel, o)
}

// sqlBuilder accumulates bind arguments while rendering. startIndex lets the
// fragment compose with arguments already bound by the enclosing query.
type sqlBuilder struct {
	alias string
	rel   policy.ViewerRelationships
	args  []any
	next  int
}

func (b *sqlBuilder) bind(v any) string {
	placeholder := fmt.Sprintf("$%d", b.next)
	b.args = append(b.args, v)
	b.next++
	return placeholder
}

// VisibleSQL compiles the predicate to a WHERE fragment over the
// observations table aliased as alias. Placeholders start at startIndex.
func VisibleSQL(rel policy.ViewerRelationships, alias string, startIndex int) (string, []any) {
	b := &sqlBuilder{alias: alias, rel: rel, next: startIndex}
	clause := visiblePredicate().sql(b)
	return clause, b.args
}

// NegativeRatingsSQL compiles the negative-rating gate the same way.
func NegativeRatingsSQL(rel policy.ViewerRelationships, alias string, startIndex int) (string, []any) {
	b := &sqlBuilder{alias: alias, rel: rel, next: startIndex}
	clause := and(visiblePredicate(), closeRelationship()).sql(b)
	return clause, b.args
}
