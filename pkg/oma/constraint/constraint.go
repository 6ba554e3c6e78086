// Package constraint provides the Constraint implementations the resolver
// attaches to package-unit variables: mandatory/prohibited anchors,
// dependency and conflict clauses, and the cardinality constraint used by
// the at-most-one-per-name encoding.
package constraint

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/z"

	"github.com/operator-framework/deppy/pkg/oma"
)

type UserFriendlyConstraintMessageFormatter func(constraint oma.Constraint, subject oma.Identifier) string

type UserFriendlyConstraint struct {
	oma.Constraint
	messageFormatter UserFriendlyConstraintMessageFormatter
}

func (constraint *UserFriendlyConstraint) String(subject oma.Identifier) string {
	return constraint.messageFormatter(constraint, subject)
}

func NewUserFriendlyConstraint(constraint oma.Constraint, messageFormatter UserFriendlyConstraintMessageFormatter) *UserFriendlyConstraint {
	return &UserFriendlyConstraint{
		Constraint:       constraint,
		messageFormatter: messageFormatter,
	}
}

type MandatoryConstraint struct{}

func (constraint *MandatoryConstraint) String(subject oma.Identifier) string {
	return fmt.Sprintf("%s is mandatory", subject)
}

func (constraint *MandatoryConstraint) Apply(lm oma.LitMapping, subject oma.Identifier) z.Lit {
	return lm.LitOf(subject)
}

func (constraint *MandatoryConstraint) Order() []oma.Identifier {
	return nil
}

func (constraint *MandatoryConstraint) Anchor() bool {
	return true
}

// Mandatory returns a Constraint that will permit only solutions that
// contain a particular Variable. Direct blueprint requests and the
// essential-package guard are expressed this way, on synthetic anchor
// variables; an "added_by" request is a Dependency on its parent instead.
func Mandatory() oma.Constraint {
	return &MandatoryConstraint{}
}

type ProhibitedConstraint struct{}

func (constraint *ProhibitedConstraint) String(subject oma.Identifier) string {
	return fmt.Sprintf("%s is prohibited", subject)
}

func (constraint *ProhibitedConstraint) Apply(lm oma.LitMapping, subject oma.Identifier) z.Lit {
	return lm.LitOf(subject).Not()
}

func (constraint *ProhibitedConstraint) Order() []oma.Identifier {
	return nil
}

func (constraint *ProhibitedConstraint) Anchor() bool {
	return false
}

// Prohibited returns a Constraint that rejects any solution containing a
// particular Variable. internal/resolver does not use it: a local-only
// request's non-local candidates are left out of its Dependency instead.
func Prohibited() oma.Constraint {
	return &ProhibitedConstraint{}
}

type DependencyConstraint struct {
	dependencyIDs []oma.Identifier
}

func (constraint *DependencyConstraint) String(subject oma.Identifier) string {
	if len(constraint.dependencyIDs) == 0 {
		return fmt.Sprintf("%s has a dependency with no candidates to satisfy it", subject)
	}
	s := make([]string, len(constraint.dependencyIDs))
	for i, each := range constraint.dependencyIDs {
		s[i] = string(each)
	}
	return fmt.Sprintf("%s requires at least one of %s", subject, strings.Join(s, ", "))
}

func (constraint *DependencyConstraint) Apply(lm oma.LitMapping, subject oma.Identifier) z.Lit {
	m := lm.LitOf(subject).Not()
	for _, each := range constraint.dependencyIDs {
		m = lm.LogicCircuit().Or(m, lm.LitOf(each))
	}
	return m
}

func (constraint *DependencyConstraint) DependencyIDs() []oma.Identifier {
	return constraint.dependencyIDs
}

func (constraint *DependencyConstraint) Order() []oma.Identifier {
	return constraint.dependencyIDs
}

func (constraint *DependencyConstraint) Anchor() bool {
	return false
}

// Dependency returns a Constraint that only permits solutions containing
// subject on condition that at least one candidate identified by ids is
// also selected. Candidates earlier in the list are preferred by the
// latest-preferred search, matching Depends/Pre-Depends relation
// resolution order (providers interleaved with same-name candidates in the
// order the pool presents them).
func Dependency(ids ...oma.Identifier) oma.Constraint {
	return &DependencyConstraint{
		dependencyIDs: ids,
	}
}

type ConflictConstraint struct {
	conflictingID oma.Identifier
}

func (constraint *ConflictConstraint) String(subject oma.Identifier) string {
	return fmt.Sprintf("%s conflicts with %s", subject, constraint.conflictingID)
}

func (constraint *ConflictConstraint) Apply(lm oma.LitMapping, subject oma.Identifier) z.Lit {
	return lm.LogicCircuit().Or(lm.LitOf(subject).Not(), lm.LitOf(constraint.conflictingID).Not())
}

func (constraint *ConflictConstraint) Order() []oma.Identifier {
	return nil
}

func (constraint *ConflictConstraint) Anchor() bool {
	return false
}

// Conflict returns a Constraint that forbids a solution containing both
// subject and the candidate identified by id. Used for both Breaks and
// Conflicts relations; the planner does not tell them apart and schedules
// every removal ahead of every unpack.
func Conflict(id oma.Identifier) oma.Constraint {
	return &ConflictConstraint{
		conflictingID: id,
	}
}

type AtMostConstraint struct {
	ids []oma.Identifier
	n   int
}

func (constraint *AtMostConstraint) String(subject oma.Identifier) string {
	s := make([]string, len(constraint.ids))
	for i, each := range constraint.ids {
		s[i] = string(each)
	}
	return fmt.Sprintf("%s permits at most %d of %s", subject, constraint.n, strings.Join(s, ", "))
}

func (constraint *AtMostConstraint) N() int {
	return constraint.n
}

func (constraint *AtMostConstraint) Ids() []oma.Identifier {
	return constraint.ids
}

func (constraint *AtMostConstraint) Apply(lm oma.LitMapping, _ oma.Identifier) z.Lit {
	ms := make([]z.Lit, len(constraint.ids))
	for i, each := range constraint.ids {
		ms[i] = lm.LitOf(each)
	}
	return lm.LogicCircuit().CardSort(ms).Leq(constraint.n)
}

func (constraint *AtMostConstraint) Order() []oma.Identifier {
	return nil
}

func (constraint *AtMostConstraint) Anchor() bool {
	return false
}

// AtMost returns a Constraint forbidding solutions that contain more than n
// of the candidates identified by ids. Used for the at-most-one-per-name
// encoding when a name's candidate count exceeds the pairwise threshold
// (see AtMostOneConstraints).
func AtMost(n int, ids ...oma.Identifier) oma.Constraint {
	return &AtMostConstraint{
		ids: ids,
		n:   n,
	}
}

// pairwiseThreshold is the candidate count above which the at-most-one
// encoding for a package name switches from quadratic pairwise clauses to
// a single AtMost(1, ...) constraint (a CardSort sorting network), per spec.md's
// design note on SAT variable explosion.
const pairwiseThreshold = 12

// AtMostOneConstraints returns the constraints needed to enforce that at
// most one of ids holds, keyed by the identifier each constraint must be
// attached to. It chooses pairwise negative clauses for small candidate
// counts and a single cardinality constraint (attached to the first id)
// otherwise.
func AtMostOneConstraints(ids []oma.Identifier) map[oma.Identifier][]oma.Constraint {
	out := map[oma.Identifier][]oma.Constraint{}
	if len(ids) <= 1 {
		return out
	}
	if len(ids) <= pairwiseThreshold {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				out[ids[i]] = append(out[ids[i]], pairwiseNot(ids[j]))
			}
		}
		return out
	}
	out[ids[0]] = append(out[ids[0]], AtMost(1, ids...))
	return out
}

type pairwiseNotConstraint struct {
	other oma.Identifier
}

func (constraint *pairwiseNotConstraint) String(subject oma.Identifier) string {
	return fmt.Sprintf("%s and %s are mutually exclusive", subject, constraint.other)
}

func (constraint *pairwiseNotConstraint) Apply(lm oma.LitMapping, subject oma.Identifier) z.Lit {
	return lm.LogicCircuit().Or(lm.LitOf(subject).Not(), lm.LitOf(constraint.other).Not())
}

func (constraint *pairwiseNotConstraint) Order() []oma.Identifier {
	return nil
}

func (constraint *pairwiseNotConstraint) Anchor() bool {
	return false
}

func pairwiseNot(other oma.Identifier) oma.Constraint {
	return &pairwiseNotConstraint{other: other}
}
