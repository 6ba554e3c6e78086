package planner

import (
	"fmt"

	"github.com/operator-framework/deppy/internal/pool"
)

// ErrPreDependsCycle is returned when Pre-Depends relations among the
// units being installed form a cycle; unlike an ordinary Depends cycle
// this cannot be resolved by deferring configuration, since a Pre-Depends
// target must already be configured before its dependent can even be
// unpacked.
type ErrPreDependsCycle struct {
	Members []string
}

func (e *ErrPreDependsCycle) Error() string {
	return fmt.Sprintf("pre-depends cycle among %v cannot be planned", e.Members)
}

// configureOrder returns the names being installed in the order their
// Configure action should run: dependencies (Depends and Pre-Depends)
// before dependents, with members of an ordinary Depends cycle grouped
// together in one scc (see tarjanSCCs) since no single order among them is
// correct.
func configureOrder(install map[string]*pool.Unit) []scc {
	g := buildRelationGraph(namesOf(install), install, pool.Depends, pool.PreDepends)
	return tarjanSCCs(g)
}

// checkPreDependsAcyclic validates that Pre-Depends relations alone form
// a DAG: every Pre-Depends target must be fully configured before its
// dependent unpacks, which is only possible when no cycle exists.
func checkPreDependsAcyclic(install map[string]*pool.Unit) error {
	g := buildRelationGraph(namesOf(install), install, pool.PreDepends)
	for _, component := range tarjanSCCs(g) {
		if len(component.members) > 1 {
			return &ErrPreDependsCycle{Members: component.members}
		}
	}
	return nil
}

// removalOrder returns names being removed (removeUnits is a sparse map:
// only names whose relations are known to the pool need an entry) in the
// order their Remove action should run: a name is removed only after
// every other to-be-removed name that depends on it, the reverse of
// configureOrder's direction over the relations among the removal set
// itself.
func removalOrder(names []string, removeUnits map[string]*pool.Unit) []string {
	g := buildRelationGraph(names, removeUnits, pool.Depends, pool.PreDepends)
	components := tarjanSCCs(g)
	// configureOrder places a dependency before its dependent; removal is
	// the opposite: a dependent must go before what it depends on.
	var order []string
	for i := len(components) - 1; i >= 0; i-- {
		order = append(order, components[i].members...)
	}
	return order
}

func namesOf(units map[string]*pool.Unit) []string {
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	return names
}
