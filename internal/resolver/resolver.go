// Package resolver is the component spec.md §4.D describes: it turns a
// Pool, a merged set of blueprint Requests and the current InstalledSet
// into the CNF input internal/sat solves, then reads the result back into
// a ResolverModel (here, Model) of installs and removals.
//
// The SAT encoding leans entirely on internal/sat's generic preference
// search and minimality sweep: every "prefer this" and "fewer changes is
// better" decision spec.md's three optimization passes describe is
// expressed as an ordinary oma/constraint.Dependency clause, so a single
// Solve call already performs latest-preferred search (Dependency.Order
// lists candidates newest-first) and minimum-install-count selection
// (the solver's own cardinality sweep) without a separate resolver-side
// pass. What does live here is the one thing internal/sat cannot know on
// its own: which names and relations exist, and what a blueprint request,
// an added_by request and the essential-package guard mean in terms of
// Mandatory/Dependency/Conflict clauses.
package resolver

import (
	"context"
	"fmt"

	"github.com/operator-framework/deppy/internal/blueprint"
	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/sat"
	"github.com/operator-framework/deppy/internal/state"
	"github.com/operator-framework/deppy/pkg/oma"
)

// Flags are the per-run switches spec.md §6 lists alongside a resolution
// request.
type Flags struct {
	NoRecommends         bool // do not treat Recommends as install-time requirements
	RemoveRecommends      bool // accepted but not read by Resolve; it has no effect on the Model
	AllowRemoveEssential bool // permit an essential package's removal
}

// Model is the ResolverModel spec.md §3 describes: the set of units to
// install (keyed by name) and the set of currently installed names to
// remove.
type Model struct {
	Install map[string]*pool.Unit
	Remove  []string
}

// Unsolvable is returned when no satisfying assignment exists. Names is
// the set of blueprint request names that were dropped, one at a time in
// map iteration order and cumulatively, until the remaining requests became
// satisfiable (spec.md §4.D's suspect-set extraction); it is not reduced to
// a minimal set.
type Unsolvable struct {
	Names  []string
	Reason oma.NotSatisfiable
}

func (e *Unsolvable) Error() string {
	return fmt.Sprintf("no satisfying set of packages (suspect requests: %v): %s", e.Names, e.Reason.Error())
}

func (e *Unsolvable) Unwrap() error { return e.Reason }

// Resolve computes a Model satisfying requests against p, given the
// current Snapshot and Flags. On failure it returns an *Unsolvable naming
// the requests responsible.
func Resolve(ctx context.Context, p *pool.Pool, requests map[string]blueprint.Request, snap state.Snapshot, flags Flags) (*Model, error) {
	variables, err := buildVariables(p, requests, snap, flags)
	if err != nil {
		return nil, err
	}

	solver, err := sat.NewSolver(sat.WithInput(variables))
	if err != nil {
		return nil, err
	}

	selected, err := solver.Solve(ctx)
	if err == nil {
		return toModel(p, selected, snap), nil
	}

	ns, ok := err.(oma.NotSatisfiable)
	if !ok {
		return nil, err
	}
	names, suspectErr := findSuspects(ctx, p, requests, snap, flags, ns)
	if suspectErr != nil {
		return nil, suspectErr
	}
	return nil, &Unsolvable{Names: names, Reason: ns}
}

// toModel reads the solver's selected variables back into package units,
// and diffs the result against snap.Installed to find removals.
func toModel(p *pool.Pool, selected []oma.Variable, snap state.Snapshot) *Model {
	install := make(map[string]*pool.Unit)
	for _, v := range selected {
		u := p.UnitByID(string(v.Identifier()))
		if u == nil {
			continue // a synthetic anchor variable, not a package unit
		}
		install[u.Name] = u
	}

	var remove []string
	for name := range snap.Installed {
		if _, ok := install[name]; !ok {
			remove = append(remove, name)
		}
	}

	return &Model{Install: install, Remove: remove}
}

// findSuspects drops blueprint requests one at a time, re-solving after
// each, until the remaining set is satisfiable or every request has been
// tried. The dropped names are returned as the suspect set.
func findSuspects(ctx context.Context, p *pool.Pool, requests map[string]blueprint.Request, snap state.Snapshot, flags Flags, fallback oma.NotSatisfiable) ([]string, error) {
	trial := make(map[string]blueprint.Request, len(requests))
	for k, v := range requests {
		trial[k] = v
	}

	var suspects []string
	for name := range requests {
		if _, ok := trial[name]; !ok {
			continue
		}
		delete(trial, name)

		variables, err := buildVariables(p, trial, snap, flags)
		if err != nil {
			return nil, err
		}
		solver, err := sat.NewSolver(sat.WithInput(variables))
		if err != nil {
			return nil, err
		}
		if _, err := solver.Solve(ctx); err == nil {
			suspects = append(suspects, name)
			return suspects, nil
		}
		suspects = append(suspects, name)
	}
	return suspects, nil
}
