package sat

import (
	"fmt"
	"strings"
)

// Formula is a Boolean expression over Variables.
type Formula interface {
	String() string
	// key is built from Identifiers and tells formulas apart even when
	// their Strings coincide.
	key() string
}

// Bool is a constant Formula.
type Bool bool

// Literal is the Formula that is true iff its Variable is true.
type Literal struct {
	Variable Variable
}

// Negation inverts a Formula.
type Negation struct {
	Formula Formula
}

// And is true iff every operand is true. Use Conjunction to build one.
type And []Formula

// Or is true iff at least one operand is true. Use Disjunction to build
// one.
type Or []Formula

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (l Literal) String() string {
	return Describe(l.Variable)
}

func (n Negation) String() string {
	return "!" + n.Formula.String()
}

func (a And) String() string {
	return join(a, " & ")
}

func (o Or) String() string {
	return join(o, " | ")
}

func (b Bool) key() string     { return b.String() }
func (l Literal) key() string  { return fmt.Sprintf("v%q", l.Variable.Identifier()) }
func (n Negation) key() string { return "!" + n.Formula.key() }
func (a And) key() string      { return joinKeys(a, "&") }
func (o Or) key() string       { return joinKeys(o, "|") }

func joinKeys(fs []Formula, sep string) string {
	s := make([]string, len(fs))
	for i, f := range fs {
		s[i] = f.key()
	}
	return "(" + strings.Join(s, sep) + ")"
}

func join(fs []Formula, sep string) string {
	s := make([]string, len(fs))
	for i, f := range fs {
		s[i] = f.String()
	}
	return "(" + strings.Join(s, sep) + ")"
}

// Lit returns the Formula that is true iff v is true.
func Lit(v Variable) Formula {
	return Literal{Variable: v}
}

// Not returns the negation of f. Constants and double negations are
// folded.
func Not(f Formula) Formula {
	switch f := f.(type) {
	case Bool:
		return !f
	case Negation:
		return f.Formula
	}
	return Negation{Formula: f}
}

// Conjunction returns the AND of fs. The empty conjunction is true.
// Nested conjunctions are flattened, true operands dropped and duplicate
// operands removed; any false operand makes the result false.
func Conjunction(fs ...Formula) Formula {
	var out And
	seen := make(map[string]struct{}, len(fs))
	var add func(f Formula) bool
	add = func(f Formula) bool {
		switch f := f.(type) {
		case Bool:
			return bool(f)
		case And:
			for _, each := range f {
				if !add(each) {
					return false
				}
			}
			return true
		}
		key := f.key()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, f)
		}
		return true
	}
	for _, f := range fs {
		if !add(f) {
			return Bool(false)
		}
	}
	switch len(out) {
	case 0:
		return Bool(true)
	case 1:
		return out[0]
	}
	return out
}

// Disjunction returns the OR of fs. The empty disjunction is false.
// Nested disjunctions are flattened, false operands dropped and duplicate
// operands removed; any true operand makes the result true.
func Disjunction(fs ...Formula) Formula {
	var out Or
	seen := make(map[string]struct{}, len(fs))
	var add func(f Formula) bool
	add = func(f Formula) bool {
		switch f := f.(type) {
		case Bool:
			return !bool(f)
		case Or:
			for _, each := range f {
				if !add(each) {
					return false
				}
			}
			return true
		}
		key := f.key()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, f)
		}
		return true
	}
	for _, f := range fs {
		if !add(f) {
			return Bool(true)
		}
	}
	switch len(out) {
	case 0:
		return Bool(false)
	case 1:
		return out[0]
	}
	return out
}
