package sat

import (
	"fmt"
	"io"

	pkgsat "github.com/akihikokuroda/typematch/pkg/sat"
)

// SearchPosition describes the state of the preference search at the
// moment a hint had to be given up.
type SearchPosition interface {
	// Accepted returns the hints honoured so far.
	Accepted() []pkgsat.Assignment
	// Rejected returns the hint that could not be honoured.
	Rejected() pkgsat.Assignment
	// Conflicts returns the hard constraints that contradicted it.
	Conflicts() []pkgsat.AppliedConstraint
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nAccepted:\n")
	for _, a := range p.Accepted() {
		fmt.Fprintf(t.Writer, "- %s = %s\n", pkgsat.Describe(a.Variable), a.Value)
	}
	r := p.Rejected()
	fmt.Fprintf(t.Writer, "Rejected: %s = %s\n", pkgsat.Describe(r.Variable), r.Value)
	fmt.Fprintf(t.Writer, "Conflicts:\n")
	for _, a := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", a)
	}
}
