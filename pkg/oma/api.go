// Package oma defines the generic constraint-satisfaction vocabulary shared
// between the resolver's CNF encoder (internal/sat) and the higher-level
// package-resolution logic (internal/resolver): identifiers, variables,
// constraints and the not-satisfiable result spec.md §4.D/§7 describe as a
// first-class outcome rather than a retried error.
package oma

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// NotSatisfiable is an error composed of a minimal set of applied
// constraints sufficient to make a solution impossible. The resolver
// narrows this down to the suspect blueprint requests described in
// spec.md §4.D before surfacing it to its own caller.
type NotSatisfiable []AppliedConstraint

func (e NotSatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, a := range e {
		s[i] = a.String()
	}
	return fmt.Sprintf("%s:\n%s", msg, strings.Join(s, "\n"))
}

// Identifier uniquely identifies a Variable within a single Solve call. In
// this module it is always a package unit id ("name=version/arch") or a
// synthetic anchor id for a direct request or a guarded essential package
// (see internal/resolver).
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// IdentifierFromString returns an Identifier based on a provided string.
func IdentifierFromString(s string) Identifier {
	return Identifier(s)
}

// Variable is the basic unit the SAT encoder understands: one candidate
// package version, or one synthetic anchor.
type Variable interface {
	Identifier() Identifier
	Constraints() []Constraint
}

// LitMapping performs translation between Constraints/Variables and the
// literals of the underlying SAT formula.
type LitMapping interface {
	LitOf(subject Identifier) z.Lit
	LogicCircuit() *logic.C
}

// Constraint limits the circumstances under which a particular Variable can
// appear in a solution.
type Constraint interface {
	String(subject Identifier) string
	Apply(lm LitMapping, subject Identifier) z.Lit
	Order() []Identifier
	Anchor() bool
}

// AppliedConstraint composes a single Constraint with the Variable it
// applies to.
type AppliedConstraint struct {
	Variable   Variable
	Constraint Constraint
}

// String implements fmt.Stringer.
func (a AppliedConstraint) String() string {
	return a.Constraint.String(a.Variable.Identifier())
}
