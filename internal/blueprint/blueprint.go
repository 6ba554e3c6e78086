// Package blueprint parses the user-declared package requests spec.md §6
// describes: plain text, one request per line, grammar
// `NAME[-{VAR}]* (ATTR, ATTR, ...)?`. Grounded on the teacher's
// pkg/deppy/input.SimpleVariable construction style (build up a named,
// constrained unit from a flat parse), generalized here to a line-oriented
// text grammar instead of a programmatic API.
package blueprint

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/operator-framework/deppy/internal/errs"
	"github.com/operator-framework/deppy/internal/version"
)

// Request is one parsed blueprint line: a package name (after variable
// expansion), an optional version range, and the attributes spec.md §3
// names.
type Request struct {
	Name    string
	Range   version.Range
	Local   bool
	AddedBy string // "" unless the request carries added_by=NAME

	line   int
	source string
}

// Line and Source report where a Request was parsed from, for error
// messages and for `oma` diagnostics; they carry no resolution semantics.
func (r Request) Line() int      { return r.line }
func (r Request) Source() string { return r.source }

var lineRe = regexp.MustCompile(`^([^\s(]+)\s*(?:\(([^)]*)\))?\s*$`)
var varRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ParseLine parses a single non-comment, non-blank blueprint line, after
// variable expansion has already occurred — see Parse for the expansion
// step, which must happen exactly once and before attribute parsing per
// spec.md's design note on `{VAR}` substitution.
func ParseLine(line string) (Request, error) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Request{}, fmt.Errorf("%w: malformed blueprint line %q", errs.ErrParse, line)
	}

	req := Request{Name: m[1]}

	if m[2] == "" {
		return req, nil
	}

	var atoms []version.Atom
	for _, raw := range strings.Split(m[2], ",") {
		attr := strings.TrimSpace(raw)
		if attr == "" {
			continue
		}
		switch {
		case attr == "local":
			req.Local = true
		case strings.HasPrefix(attr, "added_by"):
			parts := strings.SplitN(attr, "=", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
				return Request{}, fmt.Errorf("%w: malformed added_by attribute %q", errs.ErrParse, attr)
			}
			req.AddedBy = strings.TrimSpace(parts[1])
		default:
			atom, err := parseVersionAttribute(attr)
			if err != nil {
				return Request{}, err
			}
			atoms = append(atoms, atom)
		}
	}

	r, err := version.ParseRange(atoms)
	if err != nil {
		return Request{}, fmt.Errorf("request %q: %w", req.Name, err)
	}
	req.Range = r
	return req, nil
}

var opPrefixes = []version.Op{version.OpLL, version.OpLE, version.OpGE, version.OpGG, version.OpEQ}

func parseVersionAttribute(attr string) (version.Atom, error) {
	for _, op := range opPrefixes {
		if strings.HasPrefix(attr, string(op)) {
			vs := strings.TrimSpace(strings.TrimPrefix(attr, string(op)))
			v, err := version.Parse(vs)
			if err != nil {
				return version.Atom{}, fmt.Errorf("attribute %q: %w", attr, err)
			}
			return version.Atom{Op: op, Version: v}, nil
		}
	}
	return version.Atom{}, fmt.Errorf("%w: unrecognized attribute %q", errs.ErrParse, attr)
}

// expandVariables substitutes every `{VAR}` occurrence in name using vars,
// failing hard on an unknown variable rather than substituting an empty
// string, per spec.md's design note.
func expandVariables(name string, vars map[string]string) (string, error) {
	var outerErr error
	expanded := varRe.ReplaceAllStringFunc(name, func(tok string) string {
		key := tok[1 : len(tok)-1]
		v, ok := vars[key]
		if !ok {
			outerErr = fmt.Errorf("%w: unknown blueprint variable %q", errs.ErrParse, key)
			return tok
		}
		return v
	})
	if outerErr != nil {
		return "", outerErr
	}
	return expanded, nil
}

// Parse reads a blueprint file's lines, expanding `{VAR}` references in
// each name exactly once before attribute parsing, skipping blank lines
// and `#`-prefixed comments.
func Parse(r io.Reader, source string, vars map[string]string) ([]Request, error) {
	var out []Request
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// Expand variables within the name portion only; attributes never
		// carry `{VAR}` tokens in this grammar.
		nameEnd := strings.IndexAny(trimmed, " (")
		namePart, rest := trimmed, ""
		if nameEnd >= 0 {
			namePart, rest = trimmed[:nameEnd], trimmed[nameEnd:]
		}
		expandedName, err := expandVariables(namePart, vars)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}

		req, err := ParseLine(expandedName + rest)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		req.line = lineNo
		req.source = source
		out = append(out, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return out, nil
}

// Merge combines requests parsed from multiple blueprint files into one
// set, keyed by name. A name requested by more than one file must carry
// an identical range (spec.md's Open Question on cross-file contradiction
// is resolved as a hard error, not a silent intersection).
func Merge(sets ...[]Request) (map[string]Request, error) {
	merged := make(map[string]Request)
	for _, set := range sets {
		for _, req := range set {
			existing, ok := merged[req.Name]
			if !ok {
				merged[req.Name] = req
				continue
			}
			if !sameRange(existing.Range, req.Range) {
				return nil, fmt.Errorf("%w: %q requested with contradictory ranges in %s:%d and %s:%d",
					errs.ErrContradictoryRange, req.Name, existing.source, existing.line, req.source, req.line)
			}
		}
	}
	return merged, nil
}

func sameRange(a, b version.Range) bool {
	aAtoms, bAtoms := a.Atoms(), b.Atoms()
	if len(aAtoms) != len(bAtoms) {
		return false
	}
	for i := range aAtoms {
		if aAtoms[i].Op != bAtoms[i].Op || version.Compare(aAtoms[i].Version, bAtoms[i].Version) != version.Equal {
			return false
		}
	}
	return true
}
