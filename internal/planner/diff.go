// Package planner is the component spec.md §4.E describes: it turns a
// ResolverModel (here, resolver.Model) and the current InstalledSet into
// an ordered ActionPlan a package manager's unpack/configure machinery can
// execute directly, respecting Pre-Depends ordering and breaking the
// ordinary dependency cycles Depends relations can legitimately form.
package planner

import (
	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/state"
	"github.com/operator-framework/deppy/internal/version"
)

// Diff is one name's before/after state: From is nil for a new install, To
// is nil for a removal, and both are set (with differing versions) for an
// upgrade or downgrade.
type Diff struct {
	Name string
	From *version.Version
	To   *version.Version
}

// ComputeDiff compares a resolver Model against the installed snapshot it
// was computed against, producing one Diff per name that changes.
func ComputeDiff(install map[string]*pool.Unit, snap state.Snapshot) []Diff {
	var diffs []Diff

	for name, u := range install {
		to := u.Version
		if from, ok := snap.Installed[name]; ok {
			if version.Compare(from, to) == version.Equal {
				continue
			}
			diffs = append(diffs, Diff{Name: name, From: &from, To: &to})
			continue
		}
		diffs = append(diffs, Diff{Name: name, To: &to})
	}

	for name, from := range snap.Installed {
		if _, ok := install[name]; !ok {
			from := from
			diffs = append(diffs, Diff{Name: name, From: &from})
		}
	}

	return diffs
}
