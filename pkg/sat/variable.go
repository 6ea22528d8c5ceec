package sat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Identifier values uniquely identify particular Variables within
// a single Problem.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Variable values are the Boolean decision variables of a Problem.
type Variable interface {
	// Identifier returns the Identifier that uniquely identifies
	// this Variable among all other Variables in a given
	// problem.
	Identifier() Identifier
}

// Describe returns the String of v if it has one and its Identifier
// otherwise.
func Describe(v Variable) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v.Identifier().String()
}

// Value is the outcome of solving for a single Variable.
type Value int8

const (
	Undetermined Value = iota
	False
	True
)

func (v Value) String() string {
	switch v {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "undetermined"
}

// Assignment pairs a Variable with its solved Value.
type Assignment struct {
	Variable Variable
	Value    Value
}

// Unbounded may be passed as the upper bound of BetweenNM.
const Unbounded = -1

// Problem collects hard constraints and soft preferences over Variables
// and searches for an assignment satisfying every hard constraint.
type Problem interface {
	// Hint registers a preferred value for v. Hints never affect
	// satisfiability; they are honoured in registration order as long
	// as the hard constraints allow.
	Hint(v Variable, preferred bool)
	// Equals requires v to be equivalent to f.
	Equals(v Variable, f Formula)
	// Implies requires antecedent => consequent.
	Implies(antecedent, consequent Formula)
	// BetweenNM requires at least min and, unless max is Unbounded, at
	// most max of vs to be true. tag names the constraint in
	// diagnostics.
	BetweenNM(vs []Variable, min, max int, tag string)
	// Solve searches for an assignment.
	Solve(ctx context.Context) error
	// Assignments returns every Variable referenced by the problem, in
	// the order it was first registered.
	Assignments() []Assignment
}

var ErrIncomplete = errors.New("cancelled before a solution could be found")

// AppliedConstraint describes one hard constraint registered with a
// Problem.
type AppliedConstraint struct {
	Kind    string
	Formula string
}

// String implements fmt.Stringer and returns a human-readable message
// representing the receiver.
func (a AppliedConstraint) String() string {
	return fmt.Sprintf("%s %s", a.Kind, a.Formula)
}

// NotSatisfiable is returned by Solve when no assignment satisfies the
// hard constraints. It lists the constraints involved in the conflict.
type NotSatisfiable []AppliedConstraint

func (e NotSatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, a := range e {
		s[i] = a.String()
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(s, ", "))
}
