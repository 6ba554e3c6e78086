// Package sat is the CNF/CDCL layer of the resolver (spec.md §4.D): it
// translates oma.Variable/oma.Constraint graphs into gini literals and
// clauses, drives the solve, and runs the cardinality-minimization sweep
// that backs the resolver's minimality optimization pass.
package sat

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/deppy/pkg/oma"
)

// DuplicateIdentifier is returned when two variables in the input share an
// Identifier.
type DuplicateIdentifier oma.Identifier

func (e DuplicateIdentifier) Error() string {
	return fmt.Sprintf("duplicate identifier %q in input", oma.Identifier(e))
}

type inconsistentLitMapping []error

func (inconsistentLitMapping) Error() string {
	return "internal solver failure"
}

// zeroVariable is returned by VariableOf in error cases.
type zeroVariable struct{}

var _ oma.Variable = zeroVariable{}

func (zeroVariable) Identifier() oma.Identifier    { return "" }
func (zeroVariable) Constraints() []oma.Constraint { return nil }

// litMapping performs translation between the input and output types of
// Solve (Constraints, Variables, etc.) and the literals of the underlying
// SAT formula.
type litMapping struct {
	inorder     []oma.Variable
	variables   map[z.Lit]oma.Variable
	lits        map[oma.Identifier]z.Lit
	constraints map[z.Lit]oma.AppliedConstraint
	c           *logic.C
	errs        inconsistentLitMapping
}

// newLitMapping builds the translation tables between Variables/Constraints
// and gini's literal space. Variables are assigned literals in a first
// pass so that forward references (a dependency naming a candidate that
// appears later in the input) resolve correctly in the second pass, which
// applies every constraint to obtain its clause literal.
func newLitMapping(variables []oma.Variable) (*litMapping, error) {
	d := litMapping{
		inorder:     variables,
		variables:   make(map[z.Lit]oma.Variable, len(variables)),
		lits:        make(map[oma.Identifier]z.Lit, len(variables)),
		constraints: make(map[z.Lit]oma.AppliedConstraint),
		c:           logic.NewCCap(len(variables)),
	}

	// First pass to assign lits:
	for _, variable := range variables {
		im := d.c.Lit()
		if _, ok := d.lits[variable.Identifier()]; ok {
			return nil, DuplicateIdentifier(variable.Identifier())
		}
		d.lits[variable.Identifier()] = im
		d.variables[im] = variable
	}

	for _, variable := range variables {
		for _, c := range variable.Constraints() {
			m := c.Apply(&d, variable.Identifier())
			if m == z.LitNull {
				// This constraint doesn't have a useful representation
				// in the SAT inputs.
				continue
			}
			d.constraints[m] = oma.AppliedConstraint{Variable: variable, Constraint: c}
		}
	}

	return &d, nil
}

// LitOf returns the positive literal corresponding to the Variable
// with the given Identifier.
func (d *litMapping) LitOf(id oma.Identifier) z.Lit {
	m, ok := d.lits[id]
	if ok {
		return m
	}
	d.errs = append(d.errs, fmt.Errorf("variable %q referenced but not provided", id))
	return z.LitNull
}

// LogicCircuit exposes the shared logic.C so Constraint implementations can
// build compound clauses (Or, CardSort, ...).
func (d *litMapping) LogicCircuit() *logic.C {
	return d.c
}

// VariableOf returns the Variable corresponding to the provided
// literal, or a zeroVariable if no such Variable exists.
func (d *litMapping) VariableOf(m z.Lit) oma.Variable {
	i, ok := d.variables[m]
	if ok {
		return i
	}
	d.errs = append(d.errs, fmt.Errorf("no variable corresponding to %s", m))
	return zeroVariable{}
}

// ConstraintOf returns the constraint application corresponding to
// the provided literal, or the zero value if no such constraint exists.
func (d *litMapping) ConstraintOf(m z.Lit) oma.AppliedConstraint {
	if a, ok := d.constraints[m]; ok {
		return a
	}
	d.errs = append(d.errs, fmt.Errorf("no constraint corresponding to %s", m))
	return oma.AppliedConstraint{Variable: zeroVariable{}}
}

// Error returns a single error value that is an aggregation of all
// errors encountered during a litMapping's lifetime, or nil if there have
// been no errors. A non-nil return value likely indicates a problem
// with the solver or constraint implementations.
func (d *litMapping) Error() error {
	if len(d.errs) == 0 {
		return nil
	}
	s := make([]string, len(d.errs))
	for i, err := range d.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

// AddConstraints adds the current constraints encoded in the embedded circuit to the
// solver g
func (d *litMapping) AddConstraints(g inter.S) {
	d.c.ToCnf(g)
}

func (d *litMapping) AssumeConstraints(s inter.S) {
	for m := range d.constraints {
		s.Assume(m)
	}
}

// CardinalityConstrainer constructs a sorting network to provide
// cardinality constraints over the provided slice of literals. Any
// new clauses and variables are translated to CNF and taught to the
// given inter.Adder, so this function will panic if it is in a test
// context.
func (d *litMapping) CardinalityConstrainer(g inter.Adder, ms []z.Lit) *logic.CardSort {
	clen := d.c.Len()
	cs := d.c.CardSort(ms)
	marks := make([]int8, clen, d.c.Len())
	for i := range marks {
		marks[i] = 1
	}
	for w := 0; w <= cs.N(); w++ {
		marks, _ = d.c.CnfSince(g, marks, cs.Leq(w))
	}
	return cs
}

// AnchorIdentifiers returns a slice containing the Identifiers of
// every Variable with at least one anchor constraint, in the
// order they appear in the input.
func (d *litMapping) AnchorIdentifiers() []oma.Identifier {
	var ids []oma.Identifier
	for _, variable := range d.inorder {
		for _, c := range variable.Constraints() {
			if c.Anchor() {
				ids = append(ids, variable.Identifier())
				break
			}
		}
	}
	return ids
}

// Variables returns every Variable whose literal is true under g's current
// assignment, in input order.
func (d *litMapping) Variables(g inter.S) []oma.Variable {
	var result []oma.Variable
	for _, i := range d.inorder {
		if g.Value(d.LitOf(i.Identifier())) {
			result = append(result, i)
		}
	}
	return result
}

// Lits returns the literal of every input Variable, in input order.
func (d *litMapping) Lits(dst []z.Lit) []z.Lit {
	if cap(dst) < len(d.inorder) {
		dst = make([]z.Lit, 0, len(d.inorder))
	}
	dst = dst[:0]
	for _, i := range d.inorder {
		m := d.LitOf(i.Identifier())
		dst = append(dst, m)
	}
	return dst
}

// Conflicts returns the applied constraints participating in the solver's
// current unsat core.
func (d *litMapping) Conflicts(g inter.Assumable) []oma.AppliedConstraint {
	whys := g.Why(nil)
	as := make([]oma.AppliedConstraint, 0, len(whys))
	for _, why := range whys {
		if a, ok := d.constraints[why]; ok {
			as = append(as, a)
		}
	}
	return as
}
