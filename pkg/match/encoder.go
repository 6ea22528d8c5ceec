package match

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/akihikokuroda/typematch/pkg/pytd"
	"github.com/akihikokuroda/typematch/pkg/sat"
	"github.com/akihikokuroda/typematch/pkg/sat/factory"
)

type state int

const (
	created state = iota
	generated
	failed
	solved
)

// Encoder generates and solves a SAT problem matching incomplete classes
// against complete ones. An Encoder serves a single session: Generate
// once, then Solve once.
type Encoder struct {
	problem      sat.Problem
	tracer       Tracer
	transitivity bool

	state     state
	universe  *universe
	variables map[Equality]struct{}
	// order holds the keys of variables; sorted once Generate is done.
	order []Equality
}

type Option func(e *Encoder) error

// WithProblem sets the backend the constraints are registered with.
func WithProblem(p sat.Problem) Option {
	return func(e *Encoder) error {
		e.problem = p
		return nil
	}
}

func WithTracer(t Tracer) Option {
	return func(e *Encoder) error {
		e.tracer = t
		return nil
	}
}

// WithTransitivity controls whether transitivity constraints are
// generated. They are by default.
func WithTransitivity(enabled bool) Option {
	return func(e *Encoder) error {
		e.transitivity = enabled
		return nil
	}
}

var defaults = []Option{
	func(e *Encoder) error {
		if e.problem == nil {
			var err error
			e.problem, err = factory.NewProblem()
			return err
		}
		return nil
	},
	func(e *Encoder) error {
		if e.tracer == nil {
			e.tracer = DefaultTracer{}
		}
		return nil
	},
}

func NewEncoder(options ...Option) (*Encoder, error) {
	e := Encoder{
		transitivity: true,
		universe:     newUniverse(),
		variables:    make(map[Equality]struct{}),
	}
	for _, option := range append(options, defaults...) {
		if err := option(&e); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// Generate builds the constraints for matching incompleteClasses against
// completeClasses. Wherever sets or maps are iterated, iteration is in
// sorted order, so the same input always yields the same problem.
func (e *Encoder) Generate(completeClasses, incompleteClasses []*pytd.Class) error {
	if e.state != created {
		return ErrAlreadyGenerated
	}
	e.state = failed

	var initial []Type
	for _, cls := range completeClasses {
		if err := validate(cls); err != nil {
			return err
		}
		initial = append(initial, NewClassType(cls, true))
	}
	for _, cls := range incompleteClasses {
		if err := validate(cls); err != nil {
			return err
		}
		initial = append(initial, NewClassType(cls, false))
	}
	slices.SortFunc(initial, Compare)
	for i := 1; i < len(initial); i++ {
		if Compare(initial[i-1], initial[i]) == 0 {
			return &DuplicateClassError{Name: initial[i].(*ClassType).cls.Name, Complete: initial[i].Complete()}
		}
	}
	for _, t := range initial {
		e.universe.intern(t)
	}
	e.universe.drain()

	var batch []Equality
	for i, a := range initial {
		for _, b := range initial[i+1:] {
			batch = append(batch, e.addVariable(a, b))
		}
	}

	for round := 0; len(batch) > 0; round++ {
		e.tracer.Trace(Event{Kind: EventRound, Round: round, Variables: len(batch)})
		for _, v := range batch {
			if err := e.generateConstraints(v); err != nil {
				return err
			}
		}
		batch = e.expand()
	}
	slices.SortFunc(e.order, CompareEqualities)
	e.tracer.Trace(Event{Kind: EventUniverse, Types: e.universe.size(), Variables: len(e.order)})

	if e.transitivity {
		e.transitivityConstraints()
	}
	e.cardinalityConstraints()

	e.state = generated
	return nil
}

func (e *Encoder) addVariable(a, b Type) Equality {
	v := NewEquality(a, b)
	e.variables[v] = struct{}{}
	e.order = append(e.order, v)
	return v
}

func (e *Encoder) hasVariable(v Equality) bool {
	_, ok := e.variables[v]
	return ok
}

// expand returns, in sorted order, the variables pairing a Type interned
// during the last round with any other Type of the universe.
func (e *Encoder) expand() []Equality {
	var batch []Equality
	fresh := e.universe.drain()
	if len(fresh) == 0 {
		return nil
	}
	all := e.universe.sorted()
	for _, n := range fresh {
		for _, t := range all {
			if t == n || e.hasVariable(NewEquality(n, t)) {
				continue
			}
			v := e.addVariable(n, t)
			e.tracer.Trace(Event{Kind: EventVariable, Equality: v})
			batch = append(batch, v)
		}
	}
	slices.SortFunc(batch, CompareEqualities)
	return batch
}

// resolve converts ref into an interned Type. References to a class
// already in the universe resolve to that class.
func (e *Encoder) resolve(ref pytd.TypeRef, path Type) (Type, error) {
	t, err := e.lookup(ref, path)
	if err != nil {
		return nil, err
	}
	return e.universe.intern(t), nil
}

func (e *Encoder) lookup(ref pytd.TypeRef, path Type) (Type, error) {
	switch r := ref.(type) {
	case *pytd.GenericRef:
		// Parameters are ignored and an unresolved base gets no path.
		return e.lookup(r.Base, nil)
	case *pytd.ClassRef:
		switch matches := e.universe.classes(r.Name); len(matches) {
		case 0:
		case 1:
			return matches[0], nil
		default:
			candidates := make([]Type, len(matches))
			for i, m := range matches {
				candidates[i] = m
			}
			return nil, &AmbiguousReferenceError{Name: r.Name, Candidates: candidates}
		}
	case *pytd.UnionRef:
		var members []*ClassType
		for _, each := range r.Types {
			t, err := e.lookup(each, path)
			if err != nil {
				return nil, err
			}
			members = appendMembers(members, t)
		}
		return newUnion(members)
	}
	return FromPyTD(ref, true, path)
}

// typesEqual returns the formula for "a and b are the same type".
func (e *Encoder) typesEqual(a, b pytd.TypeRef, aPath, bPath Type) (sat.Formula, error) {
	ta, err := e.resolve(a, aPath)
	if err != nil {
		return nil, err
	}
	tb, err := e.resolve(b, bPath)
	if err != nil {
		return nil, err
	}
	if ta == tb {
		return sat.Bool(true), nil
	}
	return sat.Lit(NewEquality(ta, tb)), nil
}

func (e *Encoder) signaturesEqual(a, b *pytd.Signature, aPath, bPath Type) (sat.Formula, error) {
	if len(a.Params) != len(b.Params) {
		return sat.Bool(false), nil
	}
	var equalities []sat.Formula
	for i := range a.Params {
		if pytd.Equal(a.Params[i].Type, b.Params[i].Type) {
			continue
		}
		f, err := e.typesEqual(a.Params[i].Type, b.Params[i].Type, aPath, bPath)
		if err != nil {
			return nil, err
		}
		equalities = append(equalities, f)
	}
	if !pytd.Equal(a.Return, b.Return) {
		f, err := e.typesEqual(a.Return, b.Return, aPath, bPath)
		if err != nil {
			return nil, err
		}
		equalities = append(equalities, f)
	}
	return sat.Conjunction(equalities...), nil
}

// functionsEqualOneWay requires every overload of left to be matched by
// some overload of right.
func (e *Encoder) functionsEqualOneWay(left, right *pytd.Function, leftPath, rightPath Type) (sat.Formula, error) {
	conj := make([]sat.Formula, 0, len(left.Signatures))
	for _, ls := range left.Signatures {
		disj := make([]sat.Formula, 0, len(right.Signatures))
		for _, rs := range right.Signatures {
			f, err := e.signaturesEqual(ls, rs, leftPath, rightPath)
			if err != nil {
				return nil, err
			}
			disj = append(disj, f)
		}
		conj = append(conj, sat.Disjunction(disj...))
	}
	return sat.Conjunction(conj...), nil
}

func (e *Encoder) generateConstraints(v Equality) error {
	left, right := v.Left, v.Right
	if !left.IsNominallyCompatibleWith(right) {
		e.problem.Equals(v, sat.Bool(false))
		return nil
	}

	ls, rs := left.Structure(), right.Structure()
	names := set.New[string](len(ls) + len(rs))
	for name := range ls {
		names.Insert(name)
	}
	for name := range rs {
		names.Insert(name)
	}
	sorted := names.Slice()
	slices.Sort(sorted)

	var conj []sat.Formula
	for _, name := range sorted {
		lf, inLeft := ls[name]
		rf, inRight := rs[name]
		if inLeft && inRight {
			// The path of each side is the other side: a type
			// variable is named after where it is bound to.
			if right.Complete() {
				f, err := e.functionsEqualOneWay(lf, rf, right, left)
				if err != nil {
					return err
				}
				conj = append(conj, f)
			}
			if left.Complete() {
				f, err := e.functionsEqualOneWay(rf, lf, left, right)
				if err != nil {
					return err
				}
				conj = append(conj, f)
			}
		} else if (!inLeft && left.Complete()) || (!inRight && right.Complete()) {
			conj = append(conj, sat.Bool(false))
			break
		}
	}

	requirement := sat.Conjunction(conj...)
	if left.Complete() && right.Complete() {
		e.problem.Equals(v, requirement)
	} else {
		e.problem.Implies(sat.Lit(v), requirement)
		e.problem.Hint(v, true)
	}
	return nil
}

// transitivityConstraints requires (a=b & b=c) => a=c for every b that is
// incomplete.
func (e *Encoder) transitivityConstraints() {
	types := e.universe.sorted()
	var incomplete []Type
	for _, t := range types {
		if !t.Complete() {
			incomplete = append(incomplete, t)
		}
	}
	for _, a := range types {
		for _, b := range incomplete {
			if a == b {
				continue
			}
			for _, c := range types {
				if a == c || b == c {
					continue
				}
				ab, bc, ac := NewEquality(a, b), NewEquality(b, c), NewEquality(a, c)
				if !e.hasVariable(ab) || !e.hasVariable(bc) || !e.hasVariable(ac) {
					continue
				}
				e.problem.Implies(sat.Conjunction(sat.Lit(ab), sat.Lit(bc)), sat.Lit(ac))
			}
		}
	}
}

// cardinalityConstraints requires every incomplete class to equal at
// least one complete type.
func (e *Encoder) cardinalityConstraints() {
	for _, t := range e.universe.sorted() {
		ct, ok := t.(*ClassType)
		if !ok || ct.Complete() {
			continue
		}
		var vs []sat.Variable
		for _, v := range e.order {
			if v.Contains(ct) && v.Other(ct).Complete() {
				vs = append(vs, v)
			}
		}
		e.problem.BetweenNM(vs, 1, sat.Unbounded, ct.String())
	}
}
