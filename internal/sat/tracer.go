package sat

import (
	"fmt"
	"io"

	"github.com/operator-framework/deppy/pkg/oma"
)

// DefaultTracer discards every search position; it is the Solver's default
// Tracer when none is supplied via WithTracer.
type DefaultTracer struct{}

func (DefaultTracer) Trace(_ oma.SearchPosition) {}

// LoggingTracer writes a line per selected Variable at every search
// position, followed by any active conflicts. It is for interactive
// debugging, not production logging; nothing in cmd/oma installs it.
type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p oma.SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nAssumptions:\n")
	for _, i := range p.Variables() {
		fmt.Fprintf(t.Writer, "- %s\n", i.Identifier())
	}
	fmt.Fprintf(t.Writer, "Conflicts:\n")
	for _, a := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", a)
	}
}

type searchPosition struct {
	variables []oma.Variable
	conflicts []oma.AppliedConstraint
}

func (p searchPosition) Variables() []oma.Variable          { return p.variables }
func (p searchPosition) Conflicts() []oma.AppliedConstraint { return p.conflicts }
