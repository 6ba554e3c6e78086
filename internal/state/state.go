// Package state models the on-disk reality the resolver diffs its model
// against: the InstalledSet spec.md §3 defines, and the Oracle interface
// an external package-status reader implements to produce one.
package state

import (
	"context"

	"github.com/operator-framework/deppy/internal/version"
)

// Installed maps an installed package's name to its installed version.
type Installed map[string]version.Version

// Essential is the subset of Installed names flagged critical to system
// integrity; removing one requires allow_remove_essential.
type Essential map[string]bool

// Snapshot is the InstalledSet spec.md §3 describes: current versions plus
// the essential-package flag set, both sourced from the system's package
// status file at the moment the Oracle is queried.
type Snapshot struct {
	Installed Installed
	Essential Essential
}

// Oracle is implemented by the external package-status reader (out of
// core scope per spec.md §1); the resolver and planner take the Snapshot
// it produces, not the Oracle itself.
type Oracle interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// StaticOracle is an Oracle backed by a fixed Snapshot, used by tests and
// by any caller that has already read package status itself.
type StaticOracle struct {
	Snap Snapshot
}

func (o StaticOracle) Snapshot(_ context.Context) (Snapshot, error) {
	return o.Snap, nil
}
