package match_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akihikokuroda/typematch/pkg/match"
	"github.com/akihikokuroda/typematch/pkg/pytd"
	"github.com/akihikokuroda/typematch/pkg/sat"
	"github.com/akihikokuroda/typematch/pkg/sat/factory"
)

type fixture struct {
	intCls, strCls *pytd.Class
}

func newFixture() fixture {
	return fixture{intCls: class("int"), strCls: class("str")}
}

func (f fixture) builtins() []*pytd.Class {
	return []*pytd.Class{f.intCls, f.strCls}
}

// run generates and solves with the gini backend and returns the
// substitution, the backend and the traced events.
func run(t *testing.T, complete, incomplete []*pytd.Class, options ...match.Option) (match.Substitution, sat.Problem, *match.Collector) {
	t.Helper()
	p, err := factory.NewProblem()
	require.NoError(t, err)
	c := &match.Collector{}
	e, err := match.NewEncoder(append([]match.Option{match.WithProblem(p), match.WithTracer(c)}, options...)...)
	require.NoError(t, err)
	require.NoError(t, e.Generate(complete, incomplete))
	s, err := e.Solve(context.TODO())
	require.NoError(t, err)
	return s, p, c
}

func values(p sat.Problem) map[string]sat.Value {
	out := map[string]sat.Value{}
	for _, a := range p.Assignments() {
		out[sat.Describe(a.Variable)] = a.Value
	}
	return out
}

func names(s match.Substitution) map[string]string {
	out := map[string]string{}
	for k, v := range s {
		out[k] = v.String()
	}
	return out
}

func TestDistinctCompleteClassesAreNeverEqual(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	b := class("B", method("f", sig(ref(f.intCls), ref(f.intCls))))

	s, p, _ := run(t, append(f.builtins(), a, b), nil)
	assert.Empty(t, s)
	assert.Equal(t, sat.False, values(p)["[A=B]"])
}

func TestIncompleteClassMatchesOnlyCompatibleSignature(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	c := class("C", method("f", sig(ref(f.intCls), ref(f.strCls))))
	i := class("I", method("f", sig(ref(f.intCls), ref(f.intCls))))

	s, p, _ := run(t, append(f.builtins(), a, c), []*pytd.Class{i})
	assert.Equal(t, map[string]string{"I": "A"}, names(s))
	assert.Equal(t, sat.True, values(p)["[A=I#]"])
	assert.Equal(t, sat.False, values(p)["[C=I#]"])
}

func TestIncompleteClassWithoutMethodsMatches(t *testing.T) {
	a := class("A", method("f", sig(unresolved("int"))))
	i := class("I")

	s, _, _ := run(t, []*pytd.Class{a}, []*pytd.Class{i})
	assert.Equal(t, map[string]string{"I": "A"}, names(s))
	assert.Same(t, a, s["I"].(*pytd.ClassRef).Class)
}

func TestClassNamesThatPrintAlike(t *testing.T) {
	// The complete class "I#" prints like the incomplete class "I".
	a := class("A")
	hash := class("I#")
	i := class("I")

	s, p, _ := run(t, []*pytd.Class{a, hash}, []*pytd.Class{i})
	assert.Equal(t, map[string]string{"I": "A"}, names(s))

	ids := map[sat.Identifier]sat.Value{}
	for _, as := range p.Assignments() {
		ids[as.Variable.Identifier()] = as.Value
	}
	require.Len(t, ids, 3)

	at, it, ht := match.NewClassType(a, true), match.NewClassType(i, false), match.NewClassType(hash, true)
	assert.Equal(t, sat.True, ids[match.NewEquality(at, it).Identifier()])
	assert.Equal(t, sat.False, ids[match.NewEquality(at, ht).Identifier()])
	assert.Equal(t, sat.False, ids[match.NewEquality(it, ht).Identifier()])
}

func TestMatchDirection(t *testing.T) {
	f := newFixture()
	fInt := sig(ref(f.intCls), ref(f.intCls))
	fStr := sig(ref(f.intCls), ref(f.strCls))

	type tc struct {
		Name       string
		Complete   *pytd.Function
		Incomplete *pytd.Function
		Matches    bool
	}
	for _, tt := range []tc{
		{Name: "same overloads", Complete: method("f", fInt), Incomplete: method("f", fInt), Matches: true},
		{Name: "incomplete uses a subset of the overloads", Complete: method("f", fInt, fStr), Incomplete: method("f", fInt), Matches: true},
		{Name: "incomplete uses an overload the complete class lacks", Complete: method("f", fInt), Incomplete: method("f", fInt, fStr), Matches: false},
		{Name: "arity differs", Complete: method("f", fInt), Incomplete: method("f", sig(ref(f.intCls), ref(f.intCls), ref(f.intCls))), Matches: false},
	} {
		// Z sorts after I and A before it, so the complete class is
		// on either side of the Equality.
		for _, name := range []string{"Z", "A"} {
			t.Run(tt.Name+"/"+name, func(t *testing.T) {
				complete := class(name, tt.Complete)
				incomplete := class("I", tt.Incomplete)

				r := &recorder{}
				e, err := match.NewEncoder(match.WithProblem(r))
				require.NoError(t, err)
				require.NoError(t, e.Generate(append(f.builtins(), complete), []*pytd.Class{incomplete}))

				v := match.NewEquality(match.NewClassType(complete, true), match.NewClassType(incomplete, false))
				assert.Equal(t, tt.Matches, r.has(fmt.Sprintf("implies %s => true", v)), "%v", r.calls)
			})
		}
	}
}

func TestMissingMethod(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls))))

	t.Run("on the complete side is disqualifying", func(t *testing.T) {
		r := &recorder{}
		e, err := match.NewEncoder(match.WithProblem(r))
		require.NoError(t, err)
		i := class("I", method("f", sig(ref(f.intCls))), method("g", sig(ref(f.intCls))))
		require.NoError(t, e.Generate([]*pytd.Class{a}, []*pytd.Class{i}))
		assert.True(t, r.has("implies [A=I#] => false"), "%v", r.calls)
		assert.True(t, r.has("hint [A=I#] true"), "%v", r.calls)
	})

	t.Run("on the incomplete side is not", func(t *testing.T) {
		r := &recorder{}
		e, err := match.NewEncoder(match.WithProblem(r))
		require.NoError(t, err)
		b := class("B", method("f", sig(ref(f.intCls))), method("g", sig(ref(f.intCls))))
		i := class("I", method("f", sig(ref(f.intCls))))
		require.NoError(t, e.Generate([]*pytd.Class{b}, []*pytd.Class{i}))
		assert.True(t, r.has("implies [B=I#] => true"), "%v", r.calls)
	})

	t.Run("between complete classes", func(t *testing.T) {
		r := &recorder{}
		e, err := match.NewEncoder(match.WithProblem(r))
		require.NoError(t, err)
		require.NoError(t, e.Generate([]*pytd.Class{a, f.intCls}, nil))
		assert.True(t, r.has("equals [A=int] false"), "%v", r.calls)
	})
}

func TestBothCompleteIsAnEquivalence(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	b := class("B", method("f", sig(ref(f.intCls), ref(f.intCls))))
	c := class("C", method("m", sig(ref(f.intCls), union(ref(a), ref(b)))))
	i := class("I", method("m", sig(ref(f.intCls), ref(a))))

	r := &recorder{}
	e, err := match.NewEncoder(match.WithProblem(r))
	require.NoError(t, err)
	require.NoError(t, e.Generate([]*pytd.Class{f.intCls, a, b, c}, []*pytd.Class{i}))

	assert.True(t, r.has("implies [C=I#] => [A=U(A, B)]"), "%v", r.calls)
	assert.True(t, r.has("equals [A=U(A, B)] true"), "%v", r.calls)
	assert.True(t, r.has("equals [B=U(A, B)] true"), "%v", r.calls)
	assert.True(t, r.has("equals [C=U(A, B)] false"), "%v", r.calls)
	assert.True(t, r.has("equals [int=U(A, B)] false"), "%v", r.calls)
	assert.False(t, r.has("hint [A=U(A, B)] true"))

	s, _, _ := run(t, []*pytd.Class{f.intCls, a, b, c}, []*pytd.Class{i})
	assert.Equal(t, map[string]string{"I": "C"}, names(s))
}

func TestFixpointDiscoversPlaceholders(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	i := class("I", method("f", sig(ref(f.intCls), unresolved("T"))))

	s, p, c := run(t, []*pytd.Class{a, f.intCls}, []*pytd.Class{i})
	assert.Equal(t, map[string]string{"I": "A", "A.T": "int"}, names(s))
	assert.Equal(t, sat.False, values(p)["[A=A.T#]"])

	var discovered []string
	for _, ev := range c.Of(match.EventVariable) {
		discovered = append(discovered, ev.Equality.String())
	}
	assert.Equal(t, []string{"[A=A.T#]", "[A.T#=I#]", "[A.T#=int]"}, discovered)

	universe := c.Of(match.EventUniverse)
	require.Len(t, universe, 1)
	assert.Equal(t, 4, universe[0].Types)
	assert.Equal(t, 6, universe[0].Variables)
	assert.Len(t, c.Of(match.EventRound), 2)
	assert.Empty(t, c.Of(match.EventConflict))
}

func TestGenericBaseIsResolvedWithoutPath(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	i := class("I", method("f", sig(&pytd.GenericRef{Base: unresolved("T"), Params: []pytd.TypeRef{ref(f.intCls)}}, ref(f.intCls))))

	r := &recorder{}
	e, err := match.NewEncoder(match.WithProblem(r))
	require.NoError(t, err)
	require.NoError(t, e.Generate([]*pytd.Class{a, f.intCls}, []*pytd.Class{i}))
	assert.True(t, r.has("implies [A=I#] => [.T#=int]"), "%v", r.calls)
	assert.Empty(t, r.prefixed("implies [A=I#] => [A.T#"))

	s, _, _ := run(t, []*pytd.Class{a, f.intCls}, []*pytd.Class{i})
	assert.Equal(t, map[string]string{"I": "A", ".T": "int"}, names(s))
}

func TestConflictingAssignmentsLaterWins(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	i := class("I", method("f", sig(ref(f.intCls), unresolved("T"))))

	s, _, c := run(t, []*pytd.Class{a, f.intCls}, []*pytd.Class{i}, match.WithTransitivity(false))
	assert.Equal(t, map[string]string{"I": "A", "A.T": "int"}, names(s))

	conflicts := c.Of(match.EventConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "A.T#", conflicts[0].Class.String())
	assert.Equal(t, "A", conflicts[0].Previous.String())
	assert.Equal(t, "int", conflicts[0].Current.String())
}

func TestTransitivityResolvesTies(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))))
	b := class("B", method("f", sig(ref(f.intCls), ref(f.intCls))))
	i := class("I", method("f", sig(ref(f.intCls), ref(f.intCls))))
	j := class("J")

	s, p, c := run(t, []*pytd.Class{a, b, f.intCls}, []*pytd.Class{i, j})
	assert.Empty(t, c.Of(match.EventConflict))
	assert.Equal(t, "A", s["I"].String())

	vs := values(p)
	truth := func(x, y match.Type) bool {
		return vs[match.NewEquality(x, y).String()] == sat.True
	}
	var types []match.Type
	for _, cls := range []*pytd.Class{a, b, f.intCls} {
		types = append(types, match.NewClassType(cls, true))
	}
	for _, cls := range []*pytd.Class{i, j} {
		types = append(types, match.NewClassType(cls, false))
	}
	for _, x := range types {
		for _, y := range types {
			if y.Complete() || match.Compare(x, y) == 0 {
				continue
			}
			for _, z := range types {
				if match.Compare(x, z) == 0 || match.Compare(y, z) == 0 {
					continue
				}
				if truth(x, y) && truth(y, z) {
					assert.True(t, truth(x, z), "%s=%s=%s", x, y, z)
				}
			}
		}
	}
}

func TestEveryIncompleteClassGetsACandidate(t *testing.T) {
	f := newFixture()
	a := class("A", method("f", sig(ref(f.intCls), ref(f.intCls))), method("g", sig(ref(f.strCls))))
	b := class("B", method("g", sig(ref(f.strCls))))
	incomplete := []*pytd.Class{
		class("I", method("f", sig(ref(f.intCls), ref(f.intCls)))),
		class("J", method("g", sig(ref(f.strCls)))),
		class("K"),
	}

	s, p, _ := run(t, append(f.builtins(), a, b), incomplete)
	vs := values(p)
	for _, cls := range incomplete {
		require.Contains(t, s, cls.Name)
		it := match.NewClassType(cls, false)
		found := false
		for _, complete := range append(f.builtins(), a, b) {
			if vs[match.NewEquality(it, match.NewClassType(complete, true)).String()] == sat.True {
				found = true
			}
		}
		assert.True(t, found, "%s has a candidate", cls.Name)
	}
	assert.Equal(t, "A", s["I"].String())
}

func TestCardinalityConstraints(t *testing.T) {
	f := newFixture()
	r := &recorder{}
	e, err := match.NewEncoder(match.WithProblem(r))
	require.NoError(t, err)
	require.NoError(t, e.Generate(f.builtins(), []*pytd.Class{class("I"), class("J")}))

	assert.Equal(t, []string{
		"between 1 -1 I# {[I#=int] [I#=str]}",
		"between 1 -1 J# {[J#=int] [J#=str]}",
	}, r.prefixed("between"))
}

func TestTransitivityConstraints(t *testing.T) {
	f := newFixture()
	for _, enabled := range []bool{true, false} {
		r := &recorder{}
		e, err := match.NewEncoder(match.WithProblem(r), match.WithTransitivity(enabled))
		require.NoError(t, err)
		require.NoError(t, e.Generate([]*pytd.Class{f.intCls}, []*pytd.Class{class("I"), class("J")}))

		implications := r.prefixed("implies ([")
		if !enabled {
			assert.Empty(t, implications)
			continue
		}
		// The middle element is always incomplete, so [I#=J#] is
		// never implied.
		assert.ElementsMatch(t, []string{
			"implies ([I#=J#] & [I#=int]) => [J#=int]",
			"implies ([I#=int] & [I#=J#]) => [J#=int]",
			"implies ([I#=J#] & [J#=int]) => [I#=int]",
			"implies ([J#=int] & [I#=J#]) => [I#=int]",
		}, implications)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	build := func() []string {
		f := newFixture()
		a := class("A", method("f", sig(ref(f.intCls), unresolved("T"))), method("g", sig(ref(f.strCls), ref(f.intCls))))
		b := class("B", method("f", sig(ref(f.intCls), union(ref(f.intCls), ref(f.strCls)))))
		i := class("I", method("f", sig(unresolved("R"), unresolved("S"))))
		j := class("J", method("g", sig(ref(f.strCls), unresolved("U"))))

		r := &recorder{}
		e, err := match.NewEncoder(match.WithProblem(r))
		require.NoError(t, err)
		require.NoError(t, e.Generate(append(f.builtins(), b, a), []*pytd.Class{j, i}))
		return r.calls
	}
	first := build()
	assert.NotEmpty(t, first)
	for n := 0; n < 5; n++ {
		assert.Equal(t, first, build())
	}
}

func TestRecursiveClassesTerminate(t *testing.T) {
	a, b := class("A"), class("B")
	a.Methods = []*pytd.Function{method("next", sig(ref(b), ref(a)))}
	b.Methods = []*pytd.Function{method("next", sig(ref(a), ref(b)))}
	i := class("I")
	i.Methods = []*pytd.Function{method("next", sig(unresolved("N"), ref(i)))}

	s, _, c := run(t, []*pytd.Class{a, b}, []*pytd.Class{i})
	assert.Contains(t, s, "I")
	assert.Len(t, c.Of(match.EventUniverse), 1)
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture()
	type tc struct {
		Name       string
		Complete   []*pytd.Class
		Incomplete []*pytd.Class
		Check      func(t *testing.T, err error)
	}
	for _, tt := range []tc{
		{
			Name:     "duplicate class",
			Complete: []*pytd.Class{class("A"), class("A")},
			Check: func(t *testing.T, err error) {
				var dup *match.DuplicateClassError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, "A", dup.Name)
			},
		},
		{
			Name:       "method without signatures",
			Incomplete: []*pytd.Class{class("I", method("f"))},
			Check: func(t *testing.T, err error) {
				var malformed *match.MalformedInputError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, "I", malformed.Class)
			},
		},
		{
			Name:     "nil class",
			Complete: []*pytd.Class{nil},
			Check: func(t *testing.T, err error) {
				var malformed *match.MalformedInputError
				assert.ErrorAs(t, err, &malformed)
			},
		},
		{
			Name: "ambiguous reference",
			Complete: []*pytd.Class{
				class("A"), f.intCls,
				class("X", method("f", sig(ref(f.intCls), unresolved("A")))),
			},
			Incomplete: []*pytd.Class{
				class("A"),
				class("I", method("f", sig(ref(f.intCls), ref(f.intCls)))),
			},
			Check: func(t *testing.T, err error) {
				var ambiguous *match.AmbiguousReferenceError
				require.ErrorAs(t, err, &ambiguous)
				assert.Equal(t, "A", ambiguous.Name)
				assert.Len(t, ambiguous.Candidates, 2)
			},
		},
		{
			Name:     "unsupported reference",
			Complete: []*pytd.Class{f.intCls, class("X", method("f", sig(ref(f.intCls), ref(f.intCls))))},
			Incomplete: []*pytd.Class{
				class("I", method("f", sig(ref(f.intCls), &pytd.NamedRef{Name: "T"}))),
			},
			Check: func(t *testing.T, err error) {
				var unsupported *match.UnsupportedTypeError
				assert.ErrorAs(t, err, &unsupported)
			},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			e, err := match.NewEncoder(match.WithProblem(&recorder{}))
			require.NoError(t, err)
			err = e.Generate(tt.Complete, tt.Incomplete)
			tt.Check(t, err)

			_, err = e.Solve(context.TODO())
			assert.Equal(t, match.ErrNotGenerated, err)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	e, err := match.NewEncoder(match.WithTracer(match.LoggingTracer{Logger: testr.New(t)}))
	require.NoError(t, err)

	_, err = e.Solve(context.TODO())
	assert.Equal(t, match.ErrNotGenerated, err)

	require.NoError(t, e.Generate([]*pytd.Class{class("A")}, []*pytd.Class{class("I")}))
	assert.Equal(t, match.ErrAlreadyGenerated, e.Generate(nil, nil))

	s, err := e.Solve(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"I": "A"}, names(s))

	_, err = e.Solve(context.TODO())
	assert.Equal(t, match.ErrAlreadySolved, err)
}

func TestUnsatisfiable(t *testing.T) {
	f := newFixture()
	e, err := match.NewEncoder()
	require.NoError(t, err)
	i := class("I", method("g", sig(ref(f.intCls))))
	require.NoError(t, e.Generate([]*pytd.Class{f.intCls, class("A", method("f", sig(ref(f.intCls))))}, []*pytd.Class{i}))

	_, err = e.Solve(context.TODO())
	var ns sat.NotSatisfiable
	require.ErrorAs(t, err, &ns)
	assert.NotEmpty(t, ns)
}
