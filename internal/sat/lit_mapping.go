package sat

import (
	"fmt"
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	pkgsat "github.com/akihikokuroda/typematch/pkg/sat"
)

type DuplicateIdentifier pkgsat.Identifier

func (e DuplicateIdentifier) Error() string {
	return fmt.Sprintf("duplicate identifier %q in input", pkgsat.Identifier(e))
}

type inconsistentLitMapping []error

func (inconsistentLitMapping) Error() string {
	return "internal solver failure"
}

type hint struct {
	variable  pkgsat.Variable
	lit       z.Lit
	preferred bool
}

// LitMapping performs translation between the Variables and Formulas
// registered with a Problem and the literals that appear in the SAT
// formula.
type LitMapping struct {
	inorder     []pkgsat.Variable
	variables   map[z.Lit]pkgsat.Variable
	lits        map[pkgsat.Identifier]z.Lit
	constraints map[z.Lit]pkgsat.AppliedConstraint
	corder      []z.Lit
	hints       []hint
	// referenced holds the literals of Variables that occur in at
	// least one hard constraint. Only those are known to the solver.
	referenced map[z.Lit]struct{}
	truth      z.Lit
	c          *logic.C
	errs       inconsistentLitMapping
}

// NewLitMapping returns a new LitMapping. The given Variables are
// registered up front, fixing their position in the output order.
func NewLitMapping(variables []pkgsat.Variable) (*LitMapping, error) {
	d := LitMapping{
		variables:   make(map[z.Lit]pkgsat.Variable, len(variables)),
		lits:        make(map[pkgsat.Identifier]z.Lit, len(variables)),
		constraints: make(map[z.Lit]pkgsat.AppliedConstraint),
		referenced:  make(map[z.Lit]struct{}),
		c:           logic.NewCCap(len(variables) + 1),
	}
	d.truth = d.c.Lit()

	for _, variable := range variables {
		if _, ok := d.lits[variable.Identifier()]; ok {
			return nil, DuplicateIdentifier(variable.Identifier())
		}
		d.LitOf(variable)
	}
	return &d, nil
}

// LitOf returns the positive literal corresponding to the Variable,
// allocating one on first use.
func (d *LitMapping) LitOf(v pkgsat.Variable) z.Lit {
	if m, ok := d.lits[v.Identifier()]; ok {
		return m
	}
	m := d.c.Lit()
	d.lits[v.Identifier()] = m
	d.variables[m] = v
	d.inorder = append(d.inorder, v)
	return m
}

// FormulaLit returns a literal that is true iff f is true, adding gates
// to the circuit as needed.
func (d *LitMapping) FormulaLit(f pkgsat.Formula) z.Lit {
	switch f := f.(type) {
	case pkgsat.Bool:
		if f {
			return d.truth
		}
		return d.truth.Not()
	case pkgsat.Literal:
		m := d.LitOf(f.Variable)
		d.referenced[m] = struct{}{}
		return m
	case pkgsat.Negation:
		return d.FormulaLit(f.Formula).Not()
	case pkgsat.And:
		m := d.truth
		for i, each := range f {
			if i == 0 {
				m = d.FormulaLit(each)
				continue
			}
			m = d.c.And(m, d.FormulaLit(each))
		}
		return m
	case pkgsat.Or:
		m := d.truth.Not()
		for i, each := range f {
			if i == 0 {
				m = d.FormulaLit(each)
				continue
			}
			m = d.c.Or(m, d.FormulaLit(each))
		}
		return m
	}
	d.errs = append(d.errs, fmt.Errorf("unsupported formula %T", f))
	return z.LitNull
}

func (d *LitMapping) equiv(a, b z.Lit) z.Lit {
	return d.c.And(d.c.Or(a.Not(), b), d.c.Or(a, b.Not()))
}

func (d *LitMapping) constrain(m z.Lit, kind, formula string) {
	if m == z.LitNull {
		return
	}
	if _, ok := d.constraints[m]; ok {
		return
	}
	d.constraints[m] = pkgsat.AppliedConstraint{Kind: kind, Formula: formula}
	d.corder = append(d.corder, m)
}

// Equals records the constraint v <=> f.
func (d *LitMapping) Equals(v pkgsat.Variable, f pkgsat.Formula) {
	m := d.FormulaLit(pkgsat.Lit(v))
	d.constrain(d.equiv(m, d.FormulaLit(f)), "equals", fmt.Sprintf("%s == %s", pkgsat.Describe(v), f))
}

// Implies records the constraint antecedent => consequent.
func (d *LitMapping) Implies(antecedent, consequent pkgsat.Formula) {
	m := d.c.Or(d.FormulaLit(antecedent).Not(), d.FormulaLit(consequent))
	d.constrain(m, "implies", fmt.Sprintf("%s => %s", antecedent, consequent))
}

// BetweenNM records a cardinality constraint over vs.
func (d *LitMapping) BetweenNM(vs []pkgsat.Variable, min, max int, tag string) {
	ms := make([]z.Lit, len(vs))
	ids := make([]string, len(vs))
	for i, v := range vs {
		ms[i] = d.FormulaLit(pkgsat.Lit(v))
		ids[i] = pkgsat.Describe(v)
	}
	desc := fmt.Sprintf("%d <= #(%s)", min, strings.Join(ids, ", "))
	if max != pkgsat.Unbounded {
		desc = fmt.Sprintf("%s <= %d", desc, max)
	}
	desc = fmt.Sprintf("%s for %s", desc, tag)

	if max != pkgsat.Unbounded && (max < 0 || max < min) {
		d.constrain(d.truth.Not(), "between", desc)
		return
	}
	if min > len(ms) {
		d.constrain(d.truth.Not(), "between", desc)
		return
	}
	m := d.truth
	if min > 0 || (max != pkgsat.Unbounded && max < len(ms)) {
		cs := d.c.CardSort(ms)
		if min > 0 {
			m = cs.Geq(min)
		}
		if max != pkgsat.Unbounded && max < len(ms) {
			m = d.c.And(m, cs.Leq(max))
		}
	}
	d.constrain(m, "between", desc)
}

// Hint records a preferred value for v.
func (d *LitMapping) Hint(v pkgsat.Variable, preferred bool) {
	m := d.LitOf(v)
	if !preferred {
		m = m.Not()
	}
	d.hints = append(d.hints, hint{variable: v, lit: m, preferred: preferred})
}

// Error returns a single error value that is an aggregation of all
// errors encountered during a LitMapping's lifetime, or nil if there have
// been no errors. A non-nil return value likely indicates a problem
// with the solver or constraint implementations.
func (d *LitMapping) Error() error {
	if len(d.errs) == 0 {
		return nil
	}
	s := make([]string, len(d.errs))
	for i, err := range d.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

// AddConstraints adds the current constraints encoded in the embedded circuit to the
// solver g
func (d *LitMapping) AddConstraints(g inter.S) {
	d.c.ToCnf(g)
	g.Add(d.truth)
	g.Add(z.LitNull)
}

// ConstraintLits returns the literal of every hard constraint, in
// registration order.
func (d *LitMapping) ConstraintLits() []z.Lit {
	return d.corder
}

// Referenced reports whether the Variable behind m occurs in a hard
// constraint.
func (d *LitMapping) Referenced(m z.Lit) bool {
	_, ok := d.referenced[m.Var().Pos()]
	return ok
}

func (d *LitMapping) Variables() []pkgsat.Variable {
	return d.inorder
}

func (d *LitMapping) Conflicts(g inter.Assumable) []pkgsat.AppliedConstraint {
	whys := g.Why(nil)
	as := make([]pkgsat.AppliedConstraint, 0, len(whys))
	for _, why := range whys {
		if a, ok := d.constraints[why]; ok {
			as = append(as, a)
		}
	}
	return as
}
