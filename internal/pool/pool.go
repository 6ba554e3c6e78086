// Package pool is the in-memory package pool (spec.md §4.C): a thin,
// read-only-after-build layer over parsed units that the resolver queries
// by name, by provided name, and by atom, and that backs `oma provide` via
// a file index. Grounded on the teacher's pkg/deppy/input EntitySource
// abstraction (Get/Filter/GroupBy/Iterate over a generic Entity), here
// specialized to Unit and widened with the indices spec.md's resolver
// needs (provides, atom memoization, file paths).
package pool

import (
	"sort"
	"sync"

	"github.com/operator-framework/deppy/internal/version"
)

// Arch is a Debian architecture tag ("amd64", "arm64", "all", ...).
type Arch string

// Origin records where a Unit came from: a remote repository component, or
// a local file outside any repository.
type Origin struct {
	Repo      string
	Component string
	Local     bool
}

// RelationKind distinguishes the seven relation fields a control stanza
// may carry.
type RelationKind int

const (
	Depends RelationKind = iota
	PreDepends
	Recommends
	Breaks
	Conflicts
	Replaces
	Provides
)

// Atom is one alternative in a Relation: a name, optionally qualified by a
// VersionRange and an architecture.
type Atom struct {
	Name  string
	Range version.Range
	Arch  Arch
}

// Relation is a disjunction of Atoms (Debian's "|" alternatives).
type Relation struct {
	Kind  RelationKind
	Atoms []Atom
}

// Unit is a specific (name, version, architecture) candidate.
type Unit struct {
	ID           string
	Name         string
	Version      version.Version
	Arch         Arch
	Size         int64
	SHA256       string
	Filename     string
	Relations    []Relation
	Essential    bool
	Priority     string
	ProvidedBy   []string // virtual names this unit satisfies, own convenience copy of the Provides relation's atom names
	Files        []string // paths provided, for `oma provide`
	Origin       Origin
}

// Key returns the (name, version, architecture) tuple Pool uniqueness is
// defined over.
func (u *Unit) Key() string {
	return u.Name + "=" + u.Version.String() + "/" + string(u.Arch)
}

// relationsOf returns every Relation of the given Kind.
func (u *Unit) relationsOf(kind RelationKind) []Relation {
	var out []Relation
	for _, r := range u.Relations {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Pool is the in-memory store of every candidate unit known for a
// resolution run. It is built once by the metadata pipeline and is
// immutable (and therefore safe for concurrent, lock-free reads) for the
// duration of resolution, per spec.md §5.
type Pool struct {
	byName     map[string][]*Unit // descending by version
	provides   map[string][]*Unit
	byID       map[string]*Unit
	files      map[string]*Unit
	mu         sync.Mutex // guards atomMemo only; byName/provides/byID/files are write-once
	atomMemo   map[string][]*Unit
}

// New builds a Pool from a flat list of units, indexing by name, by
// provided name, by stable id, and by file path. Units within a name are
// sorted descending by version so Lookup's "ordered list... by descending
// version" invariant holds without resorting on every call.
func New(units []*Unit) *Pool {
	p := &Pool{
		byName:   make(map[string][]*Unit),
		provides: make(map[string][]*Unit),
		byID:     make(map[string]*Unit),
		files:    make(map[string]*Unit),
		atomMemo: make(map[string][]*Unit),
	}
	for _, u := range units {
		p.byName[u.Name] = append(p.byName[u.Name], u)
		p.byID[u.ID] = u
		for _, path := range u.Files {
			p.files[path] = u
		}
		for _, r := range u.relationsOf(Provides) {
			for _, a := range r.Atoms {
				p.provides[a.Name] = append(p.provides[a.Name], u)
			}
		}
	}
	for name, units := range p.byName {
		units := units
		sort.SliceStable(units, func(i, j int) bool {
			return version.Compare(units[i].Version, units[j].Version) == version.Greater
		})
		p.byName[name] = units
	}
	return p
}

// Lookup returns every candidate for name, ordered descending by version.
func (p *Pool) Lookup(name string) []*Unit {
	return p.byName[name]
}

// LookupProvides returns every unit that provides the virtual name.
func (p *Pool) LookupProvides(name string) []*Unit {
	return p.provides[name]
}

// UnitByID returns the unit with the given stable id, or nil.
func (p *Pool) UnitByID(id string) *Unit {
	return p.byID[id]
}

// UnitByFile returns the unit that owns path, or nil, backing `oma provide`.
func (p *Pool) UnitByFile(path string) *Unit {
	return p.files[path]
}

// ResolveAtom returns every unit satisfying atom: direct candidates of
// atom.Name within atom.Range, plus every provider of atom.Name whose
// provided version (if any) satisfies atom.Range. A name with no direct
// candidates and no providers resolves to the empty set; per spec.md
// §4.C, that is not itself an error — the SAT layer decides whether an
// empty disjunction is fatal. Results are memoized per atom key since
// relation atoms are re-resolved many times across the encoding.
func (p *Pool) ResolveAtom(a Atom) []*Unit {
	key := a.Name + "\x00" + rangeKey(a.Range) + "\x00" + string(a.Arch)

	p.mu.Lock()
	if cached, ok := p.atomMemo[key]; ok {
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	var out []*Unit
	seen := make(map[string]bool)
	for _, u := range p.byName[a.Name] {
		if a.Arch != "" && u.Arch != a.Arch && u.Arch != "all" {
			continue
		}
		if !a.Range.IsUnconstrained() && !a.Range.Contains(u.Version) {
			continue
		}
		if !seen[u.ID] {
			seen[u.ID] = true
			out = append(out, u)
		}
	}
	for _, u := range p.provides[a.Name] {
		if a.Arch != "" && u.Arch != a.Arch && u.Arch != "all" {
			continue
		}
		if !providesSatisfies(u, a) {
			continue
		}
		if !seen[u.ID] {
			seen[u.ID] = true
			out = append(out, u)
		}
	}

	p.mu.Lock()
	p.atomMemo[key] = out
	p.mu.Unlock()
	return out
}

// providesSatisfies reports whether u's Provides relation for a.Name
// carries a version satisfying a.Range. Any provides satisfies an atom with
// no range; a bare (unversioned) Provides entry never satisfies an atom
// that carries a range, following Debian policy.
func providesSatisfies(u *Unit, a Atom) bool {
	if a.Range.IsUnconstrained() {
		return true
	}
	for _, r := range u.relationsOf(Provides) {
		for _, atom := range r.Atoms {
			if atom.Name != a.Name {
				continue
			}
			if atom.Range.IsUnconstrained() {
				// Bare provides: version-qualified dependents cannot be
				// satisfied by it.
				continue
			}
			if a.Range.Contains(atom.Range.Atoms()[0].Version) {
				return true
			}
		}
	}
	return false
}

func rangeKey(r version.Range) string {
	if r.IsUnconstrained() {
		return ""
	}
	s := ""
	for _, a := range r.Atoms() {
		s += string(a.Op) + a.Version.String() + ","
	}
	return s
}
