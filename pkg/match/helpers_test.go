package match_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/akihikokuroda/typematch/pkg/pytd"
	"github.com/akihikokuroda/typematch/pkg/sat"
)

func class(name string, methods ...*pytd.Function) *pytd.Class {
	return &pytd.Class{Name: name, Methods: methods}
}

func method(name string, sigs ...*pytd.Signature) *pytd.Function {
	return &pytd.Function{Name: name, Signatures: sigs}
}

func sig(ret pytd.TypeRef, params ...pytd.TypeRef) *pytd.Signature {
	s := &pytd.Signature{Return: ret}
	for i, p := range params {
		s.Params = append(s.Params, pytd.Parameter{Name: fmt.Sprintf("x%d", i), Type: p})
	}
	return s
}

func ref(c *pytd.Class) pytd.TypeRef {
	return &pytd.ClassRef{Name: c.Name, Class: c}
}

func unresolved(name string) pytd.TypeRef {
	return &pytd.ClassRef{Name: name}
}

func union(refs ...pytd.TypeRef) pytd.TypeRef {
	return &pytd.UnionRef{Types: refs}
}

// recorder is a sat.Problem that only records what it is given.
type recorder struct {
	calls []string
}

var _ sat.Problem = &recorder{}

func (r *recorder) Hint(v sat.Variable, preferred bool) {
	r.calls = append(r.calls, fmt.Sprintf("hint %s %t", sat.Describe(v), preferred))
}

func (r *recorder) Equals(v sat.Variable, f sat.Formula) {
	r.calls = append(r.calls, fmt.Sprintf("equals %s %s", sat.Describe(v), f))
}

func (r *recorder) Implies(antecedent, consequent sat.Formula) {
	r.calls = append(r.calls, fmt.Sprintf("implies %s => %s", antecedent, consequent))
}

func (r *recorder) BetweenNM(vs []sat.Variable, min, max int, tag string) {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = sat.Describe(v)
	}
	r.calls = append(r.calls, fmt.Sprintf("between %d %d %s {%s}", min, max, tag, strings.Join(ids, " ")))
}

func (r *recorder) Solve(context.Context) error {
	return nil
}

func (r *recorder) Assignments() []sat.Assignment {
	return nil
}

func (r *recorder) has(call string) bool {
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (r *recorder) prefixed(prefix string) []string {
	var out []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
