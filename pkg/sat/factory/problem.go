package factory

import (
	"io"

	internalsat "github.com/akihikokuroda/typematch/internal/sat"
	pkgsat "github.com/akihikokuroda/typematch/pkg/sat"
)

// NewProblem returns an empty Problem backed by the gini SAT solver.
func NewProblem() (pkgsat.Problem, error) {
	return internalsat.NewSolver()
}

// NewTracingProblem is like NewProblem, but writes a trace of every hint
// the solver had to give up to w.
func NewTracingProblem(w io.Writer) (pkgsat.Problem, error) {
	return internalsat.NewSolver(internalsat.WithTracer(internalsat.LoggingTracer{Writer: w}))
}
