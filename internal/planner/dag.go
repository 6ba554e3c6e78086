package planner

import "github.com/operator-framework/deppy/internal/pool"

// graph is an adjacency list over the names being installed: edges[name]
// lists the names that must be handled before name, per whichever
// relation kind built the graph.
type graph struct {
	names []string // the names as the caller passed them; tarjanSCCs sorts them before visiting
	edges map[string][]string
}

func newGraph(names []string) *graph {
	return &graph{
		names: append([]string(nil), names...),
		edges: make(map[string][]string, len(names)),
	}
}

func (g *graph) addEdge(from, to string) {
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// resolveInstalledName finds which installed unit, if any, satisfies the
// relation atom named atomName: either an exact name match or a unit that
// provides it.
func resolveInstalledName(install map[string]*pool.Unit, atomName string) (string, bool) {
	if u, ok := install[atomName]; ok {
		return u.Name, true
	}
	for name, u := range install {
		for _, provided := range u.ProvidedBy {
			if provided == atomName {
				return name, true
			}
		}
	}
	return "", false
}

// buildRelationGraph adds one edge per relation of the given kinds from
// each named unit to whichever other named unit satisfies each of its
// relation atoms. units may be a sparse subset of names (a removal whose
// exact version is no longer in the pool contributes no relations, but
// still gets a node so it is still ordered, just without edges). Atoms
// satisfied by nothing in the set (already present on the system and
// untouched by this plan) are skipped: the planner only orders actions
// this plan itself performs.
func buildRelationGraph(names []string, units map[string]*pool.Unit, kinds ...pool.RelationKind) *graph {
	g := newGraph(names)
	want := make(map[pool.RelationKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	for name, u := range units {
		for _, rel := range u.Relations {
			if !want[rel.Kind] {
				continue
			}
			for _, atom := range rel.Atoms {
				if dep, ok := resolveInstalledName(units, atom.Name); ok && dep != name {
					g.addEdge(name, dep)
				}
			}
		}
	}
	return g
}
