// Package pytd holds the type-declaration entities consumed by the matcher:
// classes, their methods and call signatures, and the type references that
// appear inside those signatures.
package pytd

import (
	"fmt"
	"strings"
)

// Class is a named collection of methods.
type Class struct {
	Name    string
	Methods []*Function
}

func (c *Class) String() string {
	return c.Name
}

// Function is a named, unordered set of overloads.
type Function struct {
	Name       string
	Signatures []*Signature
}

// Signature is a single overload of a Function.
type Signature struct {
	Params []Parameter
	Return TypeRef
}

// Parameter is a named, typed positional parameter.
type Parameter struct {
	Name string
	Type TypeRef
}

// Key returns a canonical form of the signature. Two signatures are
// structurally equal iff their keys are equal.
func (s *Signature) Key() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(refString(p.Type))
	}
	b.WriteString(") -> ")
	b.WriteString(refString(s.Return))
	return b.String()
}

func (s *Signature) String() string {
	return s.Key()
}

// TypeRef is a reference to a type from inside a signature.
type TypeRef interface {
	fmt.Stringer
	typeRef()
}

// ClassRef names a class. Class is nil when the reference has not been
// resolved to a class body.
type ClassRef struct {
	Name  string
	Class *Class
}

// GenericRef is a parametrized type such as List[int].
type GenericRef struct {
	Base   TypeRef
	Params []TypeRef
}

// UnionRef is one of several alternatives.
type UnionRef struct {
	Types []TypeRef
}

// NamedRef is a bare name that was never looked up. The matcher cannot
// use it.
type NamedRef struct {
	Name string
}

func (*ClassRef) typeRef()   {}
func (*GenericRef) typeRef() {}
func (*UnionRef) typeRef()   {}
func (*NamedRef) typeRef()   {}

func (r *ClassRef) String() string {
	return r.Name
}

func (r *GenericRef) String() string {
	ps := make([]string, len(r.Params))
	for i, p := range r.Params {
		ps[i] = refString(p)
	}
	return fmt.Sprintf("%s[%s]", refString(r.Base), strings.Join(ps, ", "))
}

func (r *UnionRef) String() string {
	ts := make([]string, len(r.Types))
	for i, t := range r.Types {
		ts[i] = refString(t)
	}
	return fmt.Sprintf("Union[%s]", strings.Join(ts, ", "))
}

func (r *NamedRef) String() string {
	return fmt.Sprintf("NamedType(%s)", r.Name)
}

func refString(r TypeRef) string {
	if r == nil {
		return "<nil>"
	}
	return r.String()
}

// Equal reports whether two type references are structurally equal. Class
// references compare by name only, the resolved body is not part of a
// reference's identity.
func Equal(a, b TypeRef) bool {
	switch a := a.(type) {
	case *ClassRef:
		b, ok := b.(*ClassRef)
		return ok && a.Name == b.Name
	case *GenericRef:
		b, ok := b.(*GenericRef)
		return ok && Equal(a.Base, b.Base) && equalAll(a.Params, b.Params)
	case *UnionRef:
		b, ok := b.(*UnionRef)
		return ok && equalAll(a.Types, b.Types)
	case *NamedRef:
		b, ok := b.(*NamedRef)
		return ok && a.Name == b.Name
	case nil:
		return b == nil
	}
	return false
}

func equalAll(as, bs []TypeRef) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}
