package sat

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	pkgsat "github.com/akihikokuroda/typematch/pkg/sat"
)

var ErrAlreadySolved = errors.New("problem already solved")

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Solver is a pkgsat.Problem backed by gini.
type Solver struct {
	g      inter.S
	litMap *LitMapping
	tracer Tracer
	solved bool
	values map[z.Lit]bool
}

var _ pkgsat.Problem = &Solver{}

func NewSolver(options ...Option) (*Solver, error) {
	s := Solver{g: gini.New()}
	for _, option := range append(options, defaults...) {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

type Option func(s *Solver) error

// WithInput registers variables up front so that Assignments reports
// them first and in this order.
func WithInput(input []pkgsat.Variable) Option {
	return func(s *Solver) error {
		var err error
		s.litMap, err = NewLitMapping(input)
		return err
	}
}

func WithTracer(t Tracer) Option {
	return func(s *Solver) error {
		s.tracer = t
		return nil
	}
}

var defaults = []Option{
	func(s *Solver) error {
		if s.litMap == nil {
			var err error
			s.litMap, err = NewLitMapping(nil)
			return err
		}
		return nil
	},
	func(s *Solver) error {
		if s.tracer == nil {
			s.tracer = DefaultTracer{}
		}
		return nil
	},
}

func (s *Solver) Hint(v pkgsat.Variable, preferred bool) {
	s.litMap.Hint(v, preferred)
}

func (s *Solver) Equals(v pkgsat.Variable, f pkgsat.Formula) {
	s.litMap.Equals(v, f)
}

func (s *Solver) Implies(antecedent, consequent pkgsat.Formula) {
	s.litMap.Implies(antecedent, consequent)
}

func (s *Solver) BetweenNM(vs []pkgsat.Variable, min, max int, tag string) {
	s.litMap.BetweenNM(vs, min, max, tag)
}

func (s *Solver) Solve(ctx context.Context) (err error) {
	if s.solved {
		return ErrAlreadySolved
	}
	s.solved = true
	defer func() {
		// This likely indicates a bug, so discard whatever
		// was produced.
		if derr := s.litMap.Error(); derr != nil {
			s.values = nil
			err = derr
		}
	}()

	// teach all constraints to the solver
	s.litMap.AddConstraints(s.g)

	// assume that all constraints hold
	baseline := s.litMap.ConstraintLits()
	if ctx.Err() != nil {
		return pkgsat.ErrIncomplete
	}
	s.g.Assume(baseline...)
	switch s.g.Solve() {
	case satisfiable:
	case unsatisfiable:
		return pkgsat.NotSatisfiable(s.litMap.Conflicts(s.g))
	default:
		return pkgsat.ErrIncomplete
	}

	// prefer hinted values in registration order
	preferred, err := (&search{S: s.g, Slits: s.litMap, Tracer: s.tracer}).Do(ctx, baseline)
	if err != nil {
		return err
	}

	s.g.Assume(baseline...)
	s.g.Assume(preferred...)
	if s.g.Solve() != satisfiable {
		// Something is wrong if we can't find a model anymore
		// after honouring compatible hints.
		return fmt.Errorf("unexpected internal error")
	}

	s.values = make(map[z.Lit]bool)
	for _, v := range s.litMap.Variables() {
		m := s.litMap.LitOf(v)
		if s.litMap.Referenced(m) {
			s.values[m] = s.g.Value(m)
		}
	}
	for _, h := range s.litMap.hints {
		m := s.litMap.LitOf(h.variable)
		if _, ok := s.values[m]; !ok {
			s.values[m] = h.preferred
		}
	}
	return nil
}

// Assignments returns every Variable registered with the problem, in
// registration order. Variables are Undetermined before a successful
// Solve, and when no constraint or hint mentions them.
func (s *Solver) Assignments() []pkgsat.Assignment {
	vs := s.litMap.Variables()
	as := make([]pkgsat.Assignment, len(vs))
	for i, v := range vs {
		as[i] = pkgsat.Assignment{Variable: v, Value: pkgsat.Undetermined}
		if value, ok := s.values[s.litMap.LitOf(v)]; ok {
			as[i].Value = pkgsat.False
			if value {
				as[i].Value = pkgsat.True
			}
		}
	}
	return as
}
