package sat

import (
	"context"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/deppy/pkg/oma"
)

// Solver finds a satisfying, most-preferred, minimal subset of a set of
// Variables and their Constraints (spec.md §4.D's CDCL + optimization
// passes).
type Solver struct {
	g      inter.S
	litMap *litMapping
	tracer oma.Tracer
	buffer []z.Lit
}

// Option configures a Solver built by NewSolver.
type Option func(s *Solver) error

// WithInput supplies the Variables the Solver should consider.
func WithInput(variables []oma.Variable) Option {
	return func(s *Solver) error {
		var err error
		s.litMap, err = newLitMapping(variables)
		return err
	}
}

// WithTracer installs a Tracer invoked at every preference upgrade during
// the search. Defaults to DefaultTracer (a no-op) if omitted.
func WithTracer(t oma.Tracer) Option {
	return func(s *Solver) error {
		s.tracer = t
		return nil
	}
}

// NewSolver builds a Solver from the given Options.
func NewSolver(options ...Option) (*Solver, error) {
	s := Solver{
		g:      gini.New(),
		tracer: DefaultTracer{},
	}
	for _, option := range options {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	if s.litMap == nil {
		var err error
		s.litMap, err = newLitMapping(nil)
		if err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Solve returns the most preferred, minimal satisfying subset of the
// Solver's Variables, or an oma.NotSatisfiable error naming the
// constraints that make a solution impossible.
func (s *Solver) Solve(ctx context.Context) ([]oma.Variable, error) {
	variables, err := s.solve(ctx)
	if err != nil {
		return nil, err
	}
	if lmErr := s.litMap.Error(); lmErr != nil {
		return nil, lmErr
	}
	return variables, nil
}

func (s *Solver) solve(ctx context.Context) ([]oma.Variable, error) {
	s.litMap.AddConstraints(s.g)

	anchors := s.litMap.AnchorIdentifiers()
	assumptions := make([]z.Lit, 0, len(anchors))
	for _, id := range anchors {
		assumptions = append(assumptions, s.litMap.LitOf(id))
	}

	s.litMap.AssumeConstraints(s.g)
	s.g.Test(nil)

	h := Search{S: s.g, Slits: s.litMap, Tracer: s.tracer}
	outcome, committed, aset := h.Do(ctx, assumptions)
	if outcome != satisfiableOutcome {
		s.g.Untest()
		return nil, oma.NotSatisfiable(s.litMap.Conflicts(s.g))
	}

	// Minimality pass: partition every literal into the search's own
	// pinned assignment (aset), the extras still free to drop (currently
	// true, not pinned), and the excluded (currently false, not pinned).
	// excluded is re-asserted as a hard constraint in a fresh Test scope
	// before sweeping cardinality over extras only, so the sweep below
	// cannot satisfy the formula by reviving a less preferred candidate
	// the search already rejected in favor of the one it committed to.
	s.buffer = s.litMap.Lits(s.buffer)
	var extras, excluded []z.Lit
	for _, m := range s.buffer {
		if _, ok := aset[m]; ok {
			continue
		}
		if !s.g.Value(m) {
			excluded = append(excluded, m.Not())
			continue
		}
		extras = append(extras, m)
	}
	s.g.Untest()

	cs := s.litMap.CardinalityConstrainer(s.g, extras)
	s.g.Assume(committed...)
	s.g.Assume(excluded...)
	s.litMap.AssumeConstraints(s.g)
	_, s.buffer = s.g.Test(s.buffer)
	defer s.g.Untest()

	for w := 0; w <= cs.N(); w++ {
		s.g.Assume(cs.Leq(w))
		if s.g.Solve() == satisfiableOutcome {
			return s.litMap.Variables(s.g), nil
		}
	}
	return nil, fmt.Errorf("unexpected internal error: cardinality sweep found no model")
}
