package resolver

import (
	"github.com/operator-framework/deppy/internal/blueprint"
	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/state"
	"github.com/operator-framework/deppy/pkg/oma"
	"github.com/operator-framework/deppy/pkg/oma/constraint"
)

// anchorID is the synthetic identifier for a name's "something here must
// be installed" control variable: a blueprint request or the
// essential-package guard, neither of which is itself a package unit.
func anchorID(kind, name string) oma.Identifier {
	return oma.Identifier(kind + "\x00" + name)
}

// buildVar is the mutable oma.Variable implementation used while the
// input is under construction; its Constraints slice grows as relations
// across the whole problem are discovered and encoded.
type buildVar struct {
	id oma.Identifier
	cs []oma.Constraint
}

func (v *buildVar) Identifier() oma.Identifier    { return v.id }
func (v *buildVar) Constraints() []oma.Constraint { return v.cs }
func (v *buildVar) add(cs ...oma.Constraint)       { v.cs = append(v.cs, cs...) }

// builder accumulates buildVars while walking the transitive relation
// graph starting from every name a blueprint request, an installed unit,
// or the essential set names.
type builder struct {
	p         *pool.Pool
	vars      map[oma.Identifier]*buildVar
	order     []oma.Identifier
	names     map[string]bool
	queue     []string
	atMostOne map[string]bool
}

func newBuilder(p *pool.Pool) *builder {
	return &builder{
		p:         p,
		vars:      make(map[oma.Identifier]*buildVar),
		names:     make(map[string]bool),
		atMostOne: make(map[string]bool),
	}
}

func (b *builder) variable(id oma.Identifier) *buildVar {
	v, ok := b.vars[id]
	if !ok {
		v = &buildVar{id: id}
		b.vars[id] = v
		b.order = append(b.order, id)
	}
	return v
}

// visit marks name as part of the problem, queuing it for relation
// expansion the first time it is seen.
func (b *builder) visit(name string) {
	if b.names[name] {
		return
	}
	b.names[name] = true
	b.queue = append(b.queue, name)
}

// buildVariables assembles every oma.Variable for one Resolve call: one
// per candidate unit reachable from the blueprint requests, the installed
// set or the relations between them, plus the synthetic anchors that
// encode blueprint requests and the essential-package guard.
func buildVariables(p *pool.Pool, requests map[string]blueprint.Request, snap state.Snapshot, flags Flags) ([]oma.Variable, error) {
	b := newBuilder(p)

	for name := range requests {
		b.visit(name)
	}
	for name := range snap.Installed {
		b.visit(name)
	}
	for name := range snap.Essential {
		b.visit(name)
	}

	// Encoding a request or the essential guard can discover new names
	// (a virtual name's providers, an added_by parent) before the BFS
	// below has a chance to queue them, so it runs first and feeds the
	// same queue.
	for name, req := range requests {
		if req.AddedBy != "" {
			b.visit(req.AddedBy)
		}
		b.encodeRequest(name, req)
	}
	for name := range snap.Essential {
		if flags.AllowRemoveEssential {
			continue
		}
		b.encodeEssential(name)
	}

	for len(b.queue) > 0 {
		name := b.queue[0]
		b.queue = b.queue[1:]

		for _, u := range p.Lookup(name) {
			b.variable(oma.Identifier(u.ID))
			b.expandRelations(u, flags)
		}
	}

	for name := range b.names {
		b.atMostOnePerName(name)
	}

	out := make([]oma.Variable, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.vars[id])
	}
	return out, nil
}

// expandRelations resolves u's Depends/Pre-Depends/(optionally)
// Recommends/Breaks/Conflicts relations, attaching the corresponding
// Dependency or Conflict constraint to u's own variable and queuing every
// newly discovered name for further expansion.
func (b *builder) expandRelations(u *pool.Unit, flags Flags) {
	subject := b.variable(oma.Identifier(u.ID))

	for _, rel := range u.Relations {
		switch rel.Kind {
		case pool.Depends, pool.PreDepends:
			ids := b.resolveRelation(rel)
			subject.add(constraint.Dependency(ids...))
		case pool.Recommends:
			if flags.NoRecommends {
				continue
			}
			ids := b.resolveRelation(rel)
			subject.add(constraint.Dependency(ids...))
		case pool.Breaks, pool.Conflicts:
			for _, atom := range rel.Atoms {
				for _, other := range b.p.ResolveAtom(atom) {
					if other.ID == u.ID {
						continue
					}
					subject.add(constraint.Conflict(oma.Identifier(other.ID)))
					b.visit(other.Name)
				}
			}
		case pool.Replaces, pool.Provides:
			// Carry no SAT semantics: Provides is already folded into
			// pool.ResolveAtom's candidate resolution, and Replaces only
			// affects the planner's unpack/remove ordering.
		}
	}
}

// resolveRelation unions every atom's candidates across one relation
// (Debian's "|" alternatives), queuing each candidate's name and
// returning their identifiers in the pool's preference order.
func (b *builder) resolveRelation(rel pool.Relation) []oma.Identifier {
	var ids []oma.Identifier
	seen := make(map[string]bool)
	for _, atom := range rel.Atoms {
		for _, u := range b.p.ResolveAtom(atom) {
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			b.variable(oma.Identifier(u.ID))
			b.visit(u.Name)
			ids = append(ids, oma.Identifier(u.ID))
		}
	}
	return ids
}

// encodeRequest attaches the blueprint Request's semantics: a direct
// request is a Mandatory anchor carrying a Dependency on every in-range
// (and, if req.Local, local-only) candidate; an added_by request instead
// attaches that same Dependency to every candidate of the parent name, so
// it only binds when the parent is actually selected.
func (b *builder) encodeRequest(name string, req blueprint.Request) {
	ids := b.candidatesFor(name, req)

	if req.AddedBy == "" {
		anchor := b.variable(anchorID("req", name))
		anchor.add(constraint.Mandatory(), constraint.Dependency(ids...))
		return
	}

	for _, u := range b.p.Lookup(req.AddedBy) {
		parent := b.variable(oma.Identifier(u.ID))
		parent.add(constraint.Dependency(ids...))
	}
}

// encodeEssential guards an installed essential package: at least one of
// its candidates must remain selected unless the caller allows removing
// essential packages.
func (b *builder) encodeEssential(name string) {
	var ids []oma.Identifier
	for _, u := range b.p.Lookup(name) {
		ids = append(ids, oma.Identifier(u.ID))
	}
	anchor := b.variable(anchorID("essential", name))
	anchor.add(constraint.Mandatory(), constraint.Dependency(ids...))
}

// candidatesFor resolves a request's name (which may be virtual) against
// its VersionRange and local attribute.
func (b *builder) candidatesFor(name string, req blueprint.Request) []oma.Identifier {
	var ids []oma.Identifier
	for _, u := range b.p.ResolveAtom(pool.Atom{Name: name, Range: req.Range}) {
		if req.Local && !u.Origin.Local {
			continue
		}
		b.variable(oma.Identifier(u.ID))
		b.visit(u.Name)
		ids = append(ids, oma.Identifier(u.ID))
	}
	return ids
}

// atMostOnePerName forbids the solver from selecting two versions of the
// same package simultaneously.
func (b *builder) atMostOnePerName(name string) {
	if b.atMostOne[name] {
		return
	}
	b.atMostOne[name] = true

	units := b.p.Lookup(name)
	if len(units) < 2 {
		return
	}
	ids := make([]oma.Identifier, len(units))
	for i, u := range units {
		ids[i] = oma.Identifier(u.ID)
	}
	for subject, cs := range constraint.AtMostOneConstraints(ids) {
		b.variable(subject).add(cs...)
	}
}
