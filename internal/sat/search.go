package sat

import (
	"context"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	pkgsat "github.com/akihikokuroda/typematch/pkg/sat"
)

type searchPosition struct {
	accepted  []pkgsat.Assignment
	rejected  pkgsat.Assignment
	conflicts []pkgsat.AppliedConstraint
}

func (p searchPosition) Accepted() []pkgsat.Assignment {
	return p.accepted
}

func (p searchPosition) Rejected() pkgsat.Assignment {
	return p.rejected
}

func (p searchPosition) Conflicts() []pkgsat.AppliedConstraint {
	return p.conflicts
}

// search honours hints greedily in registration order. It expects the
// solver to hold a model of the baseline assumptions on entry.
type search struct {
	S      inter.S
	Slits  *LitMapping
	Tracer Tracer

	accepted []pkgsat.Assignment
}

func assignment(h hint) pkgsat.Assignment {
	a := pkgsat.Assignment{Variable: h.variable, Value: pkgsat.False}
	if h.preferred {
		a.Value = pkgsat.True
	}
	return a
}

// Do returns the literals of the hints that could be honoured together
// with the baseline.
func (h *search) Do(ctx context.Context, baseline []z.Lit) ([]z.Lit, error) {
	var lits []z.Lit
	// modelValid is true while the solver's current model satisfies the
	// baseline plus every accepted hint.
	modelValid := true
	for _, each := range h.Slits.hints {
		if !h.Slits.Referenced(each.lit) {
			// Free variable, nothing can contradict it.
			h.accepted = append(h.accepted, assignment(each))
			continue
		}
		if modelValid && h.S.Value(each.lit) {
			lits = append(lits, each.lit)
			h.accepted = append(h.accepted, assignment(each))
			continue
		}
		if ctx.Err() != nil {
			return nil, pkgsat.ErrIncomplete
		}
		h.S.Assume(baseline...)
		h.S.Assume(lits...)
		h.S.Assume(each.lit)
		switch h.S.Solve() {
		case satisfiable:
			modelValid = true
			lits = append(lits, each.lit)
			h.accepted = append(h.accepted, assignment(each))
		case unsatisfiable:
			modelValid = false
			h.Tracer.Trace(searchPosition{
				accepted:  append([]pkgsat.Assignment(nil), h.accepted...),
				rejected:  assignment(each),
				conflicts: h.Slits.Conflicts(h.S),
			})
		default:
			return nil, pkgsat.ErrIncomplete
		}
	}
	return lits, nil
}
