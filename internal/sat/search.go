package sat

import (
	"context"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/deppy/pkg/oma"
)

const (
	satisfiableOutcome   = 1
	unsatisfiableOutcome = -1
)

// Search refines an arbitrary satisfying assignment produced by the
// underlying SAT solve into the most-preferred one. Every Dependency
// constraint names its candidates from most to least preferred (spec.md's
// "first matching candidate wins" relation-resolution order); the search
// repeatedly looks for a selected Variable whose dependency is currently
// satisfied by a less-preferred candidate than one that is still
// available, and upgrades to it using gini's incremental Test/Untest
// scopes so a failed upgrade can be rolled back without disturbing the
// rest of the assignment.
type Search struct {
	S      inter.S
	Slits  *litMapping
	Tracer oma.Tracer
}

// Do assumes the given literals (normally the anchor set: every mandatory
// Variable), confirms satisfiability, then greedily upgrades dependency
// selections to their most preferred feasible candidate until a full pass
// finds nothing left to upgrade. It returns the final solve outcome, the
// literals assumed along the way, and the set of literals the search pins:
// those committed literals plus, followed transitively through each pinned
// Variable's Dependency constraints, the most preferred candidate currently
// selected. Every other true literal is left for the caller's minimality
// sweep to drop.
func (c *Search) Do(ctx context.Context, assumptions []z.Lit) (int, []z.Lit, map[z.Lit]struct{}) {
	c.S.Assume(assumptions...)
	outcome, _ := c.S.Test(nil)
	if outcome == 0 {
		outcome = c.S.Solve()
	}
	if outcome != satisfiableOutcome {
		c.S.Untest()
		return unsatisfiableOutcome, nil, nil
	}

	committed := append([]z.Lit(nil), assumptions...)

	for ctx.Err() == nil {
		lit, ok := c.firstUpgrade()
		if !ok {
			break
		}
		c.S.Assume(lit)
		res, _ := c.S.Test(nil)
		if res == 0 {
			res = c.S.Solve()
		}
		if res != satisfiableOutcome {
			c.S.Untest()
			continue
		}
		committed = append(committed, lit)
		c.Tracer.Trace(c.position(nil))
	}

	aset := map[z.Lit]struct{}{}
	for queue := append([]z.Lit(nil), committed...); len(queue) > 0; queue = queue[1:] {
		m := queue[0]
		if _, ok := aset[m]; ok {
			continue
		}
		aset[m] = struct{}{}
		for _, con := range c.Slits.VariableOf(m).Constraints() {
			for _, id := range con.Order() {
				if lit := c.Slits.LitOf(id); c.S.Value(lit) {
					queue = append(queue, lit)
					break
				}
			}
		}
	}
	return satisfiableOutcome, committed, aset
}

// firstUpgrade scans every currently selected Variable's Dependency
// constraints (in input order, so results stay deterministic) for the
// first preferred candidate that is not already selected and is not
// already ruled out by the current assignment.
func (c *Search) firstUpgrade() (z.Lit, bool) {
	for _, variable := range c.Slits.Variables(c.S) {
		for _, con := range variable.Constraints() {
			order := con.Order()
			if len(order) == 0 {
				continue
			}
			for _, id := range order {
				lit := c.Slits.LitOf(id)
				if c.S.Value(lit) {
					// The most preferred candidate reached so far in
					// this scan is already selected: nothing to
					// upgrade for this constraint.
					break
				}
				// variable is selected (subject of a satisfied
				// Dependency clause), so some candidate is true; lit
				// being false this early in preference order means a
				// less preferred candidate was chosen instead.
				return lit, true
			}
		}
	}
	return z.LitNull, false
}

func (c *Search) position(conflicts []oma.AppliedConstraint) oma.SearchPosition {
	return searchPosition{variables: c.Slits.Variables(c.S), conflicts: conflicts}
}
