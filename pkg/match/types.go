package match

import (
	"cmp"
	"slices"
	"strings"

	"github.com/akihikokuroda/typematch/pkg/pytd"
)

// Structure maps a method name to its set of overloads.
type Structure map[string]*pytd.Function

// Names returns the method names of s in sorted order.
func (s Structure) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Type is a class or union whose structure takes part in matching.
// Types are immutable once constructed.
type Type interface {
	// Structure returns the methods every value of the type is known
	// to have.
	Structure() Structure
	// Complete reports whether Structure is the full, authoritative
	// method set of the type.
	Complete() bool
	// IsNominallyCompatibleWith reports whether the names of the two
	// types allow them to be equal at all.
	IsNominallyCompatibleWith(other Type) bool
	// ToPyTD converts the type back into a type reference.
	ToPyTD() pytd.TypeRef
	String() string
}

// ClassType is a Type wrapping a single class.
type ClassType struct {
	cls       *pytd.Class
	complete  bool
	structure Structure
}

// NewClassType returns a ClassType for cls.
func NewClassType(cls *pytd.Class, complete bool) *ClassType {
	structure := make(Structure, len(cls.Methods))
	for _, f := range cls.Methods {
		structure[f.Name] = f
	}
	return &ClassType{cls: cls, complete: complete, structure: structure}
}

func (t *ClassType) Class() *pytd.Class {
	return t.cls
}

func (t *ClassType) Structure() Structure {
	return t.structure
}

func (t *ClassType) Complete() bool {
	return t.complete
}

func (t *ClassType) IsNominallyCompatibleWith(other Type) bool {
	o, ok := other.(*ClassType)
	if !ok {
		return true
	}
	if t.complete && o.complete {
		return t.cls == o.cls
	}
	return true
}

func (t *ClassType) ToPyTD() pytd.TypeRef {
	return &pytd.ClassRef{Name: t.cls.Name, Class: t.cls}
}

func (t *ClassType) String() string {
	if t.complete {
		return t.cls.Name
	}
	return t.cls.Name + "#"
}

// UnionType is a Type standing for one of several classes. Its structure
// is what all members have in common.
type UnionType struct {
	subtypes  []*ClassType
	complete  bool
	structure Structure
}

// NewUnionType returns a union of subtypes, which must not be empty.
// Members are sorted and duplicates removed.
func NewUnionType(subtypes ...*ClassType) (*UnionType, error) {
	if len(subtypes) == 0 {
		return nil, &MalformedInputError{Reason: "union without members"}
	}
	members := slices.Clone(subtypes)
	slices.SortFunc(members, compareClasses)
	members = slices.CompactFunc(members, func(a, b *ClassType) bool {
		return compareClasses(a, b) == 0
	})

	complete := true
	structures := make([]Structure, len(members))
	for i, m := range members {
		complete = complete && m.complete
		structures[i] = m.structure
	}
	return &UnionType{
		subtypes:  members,
		complete:  complete,
		structure: IntersectStructures(structures...),
	}, nil
}

func (t *UnionType) Subtypes() []*ClassType {
	return t.subtypes
}

func (t *UnionType) Structure() Structure {
	return t.structure
}

func (t *UnionType) Complete() bool {
	return t.complete
}

// IsNominallyCompatibleWith is always true: unions are not named.
func (t *UnionType) IsNominallyCompatibleWith(Type) bool {
	return true
}

func (t *UnionType) ToPyTD() pytd.TypeRef {
	refs := make([]pytd.TypeRef, len(t.subtypes))
	for i, m := range t.subtypes {
		refs[i] = m.ToPyTD()
	}
	return &pytd.UnionRef{Types: refs}
}

func (t *UnionType) String() string {
	names := make([]string, len(t.subtypes))
	for i, m := range t.subtypes {
		names[i] = m.String()
	}
	return "U(" + strings.Join(names, ", ") + ")"
}

// Compare defines the total order over Types: classes before unions,
// classes by name with the complete variant first, unions by their
// sorted members.
func Compare(a, b Type) int {
	if c := cmp.Compare(rank(a), rank(b)); c != 0 {
		return c
	}
	switch a := a.(type) {
	case *ClassType:
		return compareClasses(a, b.(*ClassType))
	case *UnionType:
		return slices.CompareFunc(a.subtypes, b.(*UnionType).subtypes, compareClasses)
	}
	return 0
}

func rank(t Type) int {
	switch t.(type) {
	case *ClassType:
		return 0
	case *UnionType:
		return 1
	}
	return 2
}

func compareClasses(a, b *ClassType) int {
	if c := strings.Compare(a.cls.Name, b.cls.Name); c != 0 {
		return c
	}
	switch {
	case a.complete == b.complete:
		return 0
	case a.complete:
		return -1
	}
	return 1
}

// FromPyTD converts a type reference into a Type. Unresolved class
// references become incomplete placeholder classes named after path, the
// type the reference was found in.
func FromPyTD(ref pytd.TypeRef, complete bool, path Type) (Type, error) {
	switch r := ref.(type) {
	case *pytd.ClassRef:
		if r.Class != nil {
			return NewClassType(r.Class, complete), nil
		}
		prefix := ""
		if path != nil {
			prefix = path.String()
		}
		return NewClassType(&pytd.Class{Name: prefix + "." + r.Name}, false), nil
	case *pytd.GenericRef:
		return FromPyTD(r.Base, true, nil)
	case *pytd.UnionRef:
		var members []*ClassType
		for _, each := range r.Types {
			t, err := FromPyTD(each, true, nil)
			if err != nil {
				return nil, err
			}
			members = appendMembers(members, t)
		}
		return newUnion(members)
	}
	return nil, &UnsupportedTypeError{Ref: ref}
}

func appendMembers(members []*ClassType, t Type) []*ClassType {
	switch t := t.(type) {
	case *ClassType:
		return append(members, t)
	case *UnionType:
		return append(members, t.subtypes...)
	}
	return members
}

// newUnion is NewUnionType, except that a union of a single class is that
// class.
func newUnion(members []*ClassType) (Type, error) {
	u, err := NewUnionType(members...)
	if err != nil {
		return nil, err
	}
	if len(u.subtypes) == 1 {
		return u.subtypes[0], nil
	}
	return u, nil
}
