package planner

import (
	"fmt"

	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/resolver"
	"github.com/operator-framework/deppy/internal/state"
	"github.com/operator-framework/deppy/internal/version"
)

// ActionKind is one step of an ActionPlan.
type ActionKind int

const (
	Fetch ActionKind = iota
	Unpack
	Configure
	Remove
	Purge
)

func (k ActionKind) String() string {
	switch k {
	case Fetch:
		return "fetch"
	case Unpack:
		return "unpack"
	case Configure:
		return "configure"
	case Remove:
		return "remove"
	case Purge:
		return "purge"
	default:
		return "unknown"
	}
}

// Action is one step of an ActionPlan: fetch or unpack or configure a
// Unit being installed, or remove or purge a name no longer wanted.
type Action struct {
	Kind ActionKind
	Name string
	Unit *pool.Unit // nil for Remove/Purge
}

// Plan is the ActionPlan spec.md §3 describes: an ordered sequence of
// actions that, executed in order, brings the system from its current
// InstalledSet to the resolver Model's selection.
type Plan struct {
	Diffs   []Diff
	Actions []Action
}

// Flags are the per-run planner switches.
type Flags struct {
	Purge bool // remove a package's configuration files too, not just its payload
}

// Compute computes the ActionPlan that realizes model against the system
// described by snap, using p to look up the relations of units being
// removed (which are no longer part of model.Install).
func Compute(p *pool.Pool, model *resolver.Model, snap state.Snapshot, flags Flags) (*Plan, error) {
	if err := checkPreDependsAcyclic(model.Install); err != nil {
		return nil, err
	}

	removeUnits := make(map[string]*pool.Unit, len(model.Remove))
	for _, name := range model.Remove {
		if u := lookupInstalledUnit(p, name, snap); u != nil {
			removeUnits[name] = u
		}
	}

	plan := &Plan{Diffs: ComputeDiff(model.Install, snap)}

	// Removals happen before any unpack that needs the space or name a
	// Conflicts/Breaks relation frees up.
	for _, name := range removalOrder(model.Remove, removeUnits) {
		kind := Remove
		if flags.Purge {
			kind = Purge
		}
		plan.Actions = append(plan.Actions, Action{Kind: kind, Name: name})
	}

	// Fetch, Unpack and Configure, component by component in dependency
	// order, honoring Pre-Depends: a unit with a Pre-Depends relation
	// cannot unpack until its target is fully configured, so a component
	// must be entirely configured (every member unpacked, then every
	// member configured) before the next component's units unpack.
	// Configure only follows unpack within the same component, minimizing
	// the window where some of a cycle's packages are unpacked but not
	// yet configured.
	for _, component := range configureOrder(model.Install) {
		for _, name := range component.members {
			u := model.Install[name]
			plan.Actions = append(plan.Actions,
				Action{Kind: Fetch, Name: name, Unit: u},
				Action{Kind: Unpack, Name: name, Unit: u},
			)
		}
		for _, name := range component.members {
			plan.Actions = append(plan.Actions, Action{Kind: Configure, Name: name, Unit: model.Install[name]})
		}
	}

	if err := validate(plan, model, snap); err != nil {
		return nil, err
	}
	return plan, nil
}

// lookupInstalledUnit finds the pool.Unit matching a currently installed
// name and version, for relation lookups when planning its removal. A nil
// result (the exact version is no longer present in the pool) degrades
// removalOrder to treating the name as unrelated to the rest of the
// removal set.
func lookupInstalledUnit(p *pool.Pool, name string, snap state.Snapshot) *pool.Unit {
	installedVersion, ok := snap.Installed[name]
	if !ok {
		return nil
	}
	for _, u := range p.Lookup(name) {
		if version.Compare(u.Version, installedVersion) == version.Equal {
			return u
		}
	}
	return nil
}

// validate rejects a plan that would unpack a unit before a Pre-Depends
// target of its is configured — the one ordering invariant spec.md treats
// as a hard planning error rather than a preference.
func validate(plan *Plan, model *resolver.Model, snap state.Snapshot) error {
	configured := make(map[string]bool, len(snap.Installed))
	for name := range snap.Installed {
		configured[name] = true
	}
	for _, name := range model.Remove {
		delete(configured, name)
	}

	for _, action := range plan.Actions {
		switch action.Kind {
		case Unpack:
			for _, rel := range action.Unit.Relations {
				if rel.Kind != pool.PreDepends {
					continue
				}
				if !preDependsSatisfied(rel, configured, model.Install) {
					return fmt.Errorf("plan would unpack %s before its pre-depends relation is configured", action.Name)
				}
			}
		case Configure:
			configured[action.Name] = true
		case Remove, Purge:
			delete(configured, action.Name)
		}
	}
	return nil
}

func preDependsSatisfied(rel pool.Relation, configured map[string]bool, install map[string]*pool.Unit) bool {
	for _, atom := range rel.Atoms {
		if name, ok := resolveInstalledName(install, atom.Name); ok && configured[name] {
			return true
		}
		if configured[atom.Name] {
			return true
		}
	}
	return false
}
