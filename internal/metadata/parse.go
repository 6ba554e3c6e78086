// Package metadata is the signed-index fetch pipeline spec.md §4.B
// describes: fetch an InRelease file, verify its signature, fetch and
// decompress the Packages file(s) it names, and parse them into
// internal/pool.Unit values. Grounded on the teacher's entity-source
// acquisition split (a Source fetches, a parser turns bytes into
// entities) and on other_examples/thepwagner-debcache__repo.go for the
// repository layout and compression handling.
package metadata

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/operator-framework/deppy/internal/errs"
	"github.com/operator-framework/deppy/internal/pool"
	"github.com/operator-framework/deppy/internal/version"
)

// stanza is one RFC-822-like paragraph: a map from field name to value
// (field order is not kept), folded continuation lines already joined,
// keyed case-sensitively as Debian control files require.
type stanza map[string][]string

// readStanzas splits r into stanzas separated by one or more blank lines,
// folding continuation lines (leading whitespace) into the previous
// field's value.
func readStanzas(r io.Reader) ([]stanza, error) {
	var stanzas []stanza
	cur := stanza{}
	var lastKey string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				stanzas = append(stanzas, cur)
				cur = stanza{}
				lastKey = ""
			}
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			folded := strings.TrimSpace(line)
			if folded == "." {
				folded = ""
			}
			cur[lastKey] = append(cur[lastKey], folded)
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed control line %q", errs.ErrParse, line)
		}
		key := line[:idx]
		value := strings.TrimSpace(line[idx+1:])
		cur[key] = []string{value}
		lastKey = key
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrParse, err)
	}
	if len(cur) > 0 {
		stanzas = append(stanzas, cur)
	}
	return stanzas, nil
}

func (s stanza) get(key string) string {
	v := s[key]
	if len(v) == 0 {
		return ""
	}
	return strings.Join(v, "\n")
}

// relationFields maps a control stanza's field name to the pool.RelationKind
// it encodes, in the fixed order spec.md's CNF encoding subsection walks
// them.
var relationFields = []struct {
	field string
	kind  pool.RelationKind
}{
	{"Pre-Depends", pool.PreDepends},
	{"Depends", pool.Depends},
	{"Recommends", pool.Recommends},
	{"Breaks", pool.Breaks},
	{"Conflicts", pool.Conflicts},
	{"Replaces", pool.Replaces},
	{"Provides", pool.Provides},
}

// ParsePackages parses a decompressed Packages file into pool.Unit values,
// tagging each with origin.
func ParsePackages(r io.Reader, origin pool.Origin) ([]*pool.Unit, error) {
	stanzas, err := readStanzas(r)
	if err != nil {
		return nil, err
	}
	units := make([]*pool.Unit, 0, len(stanzas))
	for _, s := range stanzas {
		u, err := unitFromStanza(s, origin)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func unitFromStanza(s stanza, origin pool.Origin) (*pool.Unit, error) {
	name := s.get("Package")
	if name == "" {
		return nil, fmt.Errorf("%w: stanza missing Package field", errs.ErrParse)
	}
	verStr := s.get("Version")
	v, err := version.Parse(verStr)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", name, err)
	}
	arch := pool.Arch(s.get("Architecture"))

	u := &pool.Unit{
		ID:        name + "=" + v.String() + "/" + string(arch),
		Name:      name,
		Version:   v,
		Arch:      arch,
		Filename:  s.get("Filename"),
		SHA256:    s.get("SHA256"),
		Priority:  s.get("Priority"),
		Essential: strings.EqualFold(s.get("Essential"), "yes"),
		Origin:    origin,
	}

	if sizeStr := s.get("Size"); sizeStr != "" {
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w: bad Size %q", name, errs.ErrParse, sizeStr)
		}
		u.Size = size
	}

	for _, rf := range relationFields {
		raw := s.get(rf.field)
		if raw == "" {
			continue
		}
		rels, err := parseRelationField(raw, rf.kind)
		if err != nil {
			return nil, fmt.Errorf("package %s field %s: %w", name, rf.field, err)
		}
		u.Relations = append(u.Relations, rels...)
		if rf.kind == pool.Provides {
			for _, rel := range rels {
				for _, atom := range rel.Atoms {
					u.ProvidedBy = append(u.ProvidedBy, atom.Name)
				}
			}
		}
	}

	return u, nil
}

// parseRelationField parses a comma-separated list of Relations, each a
// "|"-separated disjunction of "name (op version) [arch]" atoms, per
// Debian Policy §7.1.
func parseRelationField(raw string, kind pool.RelationKind) ([]pool.Relation, error) {
	var rels []pool.Relation
	for _, clause := range strings.Split(raw, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		var atoms []pool.Atom
		for _, alt := range strings.Split(clause, "|") {
			atom, err := parseAtom(strings.TrimSpace(alt))
			if err != nil {
				return nil, err
			}
			atoms = append(atoms, atom)
		}
		rels = append(rels, pool.Relation{Kind: kind, Atoms: atoms})
	}
	return rels, nil
}

var relOps = []version.Op{version.OpLL, version.OpLE, version.OpGE, version.OpGG, version.OpEQ}

// parseAtom parses one relation alternative: "name", "name (>= 1.0)", or
// "name (>= 1.0) [amd64]".
func parseAtom(s string) (pool.Atom, error) {
	name := s
	var constraintPart, archPart string

	if idx := strings.IndexByte(s, '['); idx >= 0 {
		end := strings.IndexByte(s[idx:], ']')
		if end < 0 {
			return pool.Atom{}, fmt.Errorf("%w: unterminated architecture qualifier in %q", errs.ErrParse, s)
		}
		archPart = strings.TrimSpace(s[idx+1 : idx+end])
		name = strings.TrimSpace(s[:idx])
	}
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		end := strings.IndexByte(name[idx:], ')')
		if end < 0 {
			return pool.Atom{}, fmt.Errorf("%w: unterminated version qualifier in %q", errs.ErrParse, s)
		}
		constraintPart = strings.TrimSpace(name[idx+1 : idx+end])
		name = strings.TrimSpace(name[:idx])
	}
	if name == "" {
		return pool.Atom{}, fmt.Errorf("%w: empty relation name in %q", errs.ErrParse, s)
	}

	atom := pool.Atom{Name: name, Arch: pool.Arch(archPart)}
	if constraintPart == "" {
		return atom, nil
	}

	for _, op := range relOps {
		if strings.HasPrefix(constraintPart, string(op)) {
			vs := strings.TrimSpace(strings.TrimPrefix(constraintPart, string(op)))
			v, err := version.Parse(vs)
			if err != nil {
				return pool.Atom{}, fmt.Errorf("%q: %w", s, err)
			}
			r, err := version.ParseRange([]version.Atom{{Op: op, Version: v}})
			if err != nil {
				return pool.Atom{}, fmt.Errorf("%q: %w", s, err)
			}
			atom.Range = r
			return atom, nil
		}
	}
	return pool.Atom{}, fmt.Errorf("%w: unrecognized version operator in %q", errs.ErrParse, constraintPart)
}

// ReleaseFile is the subset of an InRelease/Release stanza the metadata
// pipeline consults: the suite's identity and the per-path SHA256 digests
// used to fetch and validate each component/architecture's Packages file.
type ReleaseFile struct {
	Suite   string
	Codename string
	SHA256  map[string]string // path -> hex digest
}

// ParseRelease parses a verified InRelease body into a ReleaseFile.
func ParseRelease(r io.Reader) (ReleaseFile, error) {
	stanzas, err := readStanzas(r)
	if err != nil {
		return ReleaseFile{}, err
	}
	if len(stanzas) == 0 {
		return ReleaseFile{}, fmt.Errorf("%w: empty Release file", errs.ErrParse)
	}
	s := stanzas[0]
	rf := ReleaseFile{
		Suite:    s.get("Suite"),
		Codename: s.get("Codename"),
		SHA256:   map[string]string{},
	}
	for _, line := range s["SHA256"] {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		digest, path := fields[0], fields[2]
		rf.SHA256[path] = digest
	}
	return rf, nil
}
