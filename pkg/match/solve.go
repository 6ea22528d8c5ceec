package match

import (
	"context"
	"slices"

	"github.com/akihikokuroda/typematch/pkg/pytd"
	"github.com/akihikokuroda/typematch/pkg/sat"
)

// Substitution maps the name of an incomplete class to the type it was
// matched with.
type Substitution map[string]pytd.TypeRef

type solvedEquality struct {
	v     Equality
	value sat.Value
}

// Solve solves the constraints built by Generate and returns the
// substitution for every incomplete class the solver assigned.
func (e *Encoder) Solve(ctx context.Context) (Substitution, error) {
	switch e.state {
	case created, failed:
		return nil, ErrNotGenerated
	case solved:
		return nil, ErrAlreadySolved
	}
	e.state = solved

	if err := e.problem.Solve(ctx); err != nil {
		return nil, err
	}

	var results []solvedEquality
	for _, a := range e.problem.Assignments() {
		if v, ok := a.Variable.(Equality); ok {
			results = append(results, solvedEquality{v: v, value: a.Value})
		}
	}
	slices.SortFunc(results, func(a, b solvedEquality) int {
		return CompareEqualities(a.v, b.v)
	})

	substitution := Substitution{}
	assigned := make(map[string]Type)
	for _, r := range results {
		if r.value != sat.False {
			e.tracer.Trace(Event{Kind: EventAssignment, Equality: r.v, Value: r.value})
		}
		if r.value != sat.True || r.v.Left.Complete() == r.v.Right.Complete() {
			continue
		}
		incomplete, complete := r.v.Left, r.v.Right
		if incomplete.Complete() {
			incomplete, complete = complete, incomplete
		}
		ct, ok := incomplete.(*ClassType)
		if !ok {
			e.tracer.Trace(Event{Kind: EventSkipped, Equality: r.v, Value: r.value})
			continue
		}
		name := ct.cls.Name
		if previous, ok := assigned[name]; ok {
			e.tracer.Trace(Event{Kind: EventConflict, Equality: r.v, Class: ct, Previous: previous, Current: complete})
		}
		assigned[name] = complete
		substitution[name] = complete.ToPyTD()
	}
	return substitution, nil
}
