package match

import (
	"slices"
	"strconv"
	"strings"
)

// universe interns the Types of one session. Interning returns the
// existing Type for a canonical key, so two interned Types are equal iff
// they are the same pointer.
type universe struct {
	types  []Type
	byKey  map[string]Type
	byName map[string][]*ClassType
	// fresh holds the Types interned since the last drain.
	fresh []Type
}

func newUniverse() *universe {
	return &universe{
		byKey:  make(map[string]Type),
		byName: make(map[string][]*ClassType),
	}
}

func key(t Type) string {
	switch t := t.(type) {
	case *ClassType:
		if t.complete {
			return "c:" + t.cls.Name
		}
		return "i:" + t.cls.Name
	case *UnionType:
		ks := make([]string, len(t.subtypes))
		for i, m := range t.subtypes {
			ks[i] = strconv.Quote(key(m))
		}
		return "u:" + strings.Join(ks, ",")
	}
	return ""
}

func (u *universe) intern(t Type) Type {
	k := key(t)
	if existing, ok := u.byKey[k]; ok {
		return existing
	}
	u.byKey[k] = t
	u.types = append(u.types, t)
	u.fresh = append(u.fresh, t)
	if ct, ok := t.(*ClassType); ok {
		u.byName[ct.cls.Name] = append(u.byName[ct.cls.Name], ct)
	}
	return t
}

// classes returns the interned ClassTypes named name.
func (u *universe) classes(name string) []*ClassType {
	return u.byName[name]
}

// drain returns, in sorted order, the Types interned since the previous
// call.
func (u *universe) drain() []Type {
	fresh := u.fresh
	u.fresh = nil
	slices.SortFunc(fresh, Compare)
	return fresh
}

func (u *universe) sorted() []Type {
	types := slices.Clone(u.types)
	slices.SortFunc(types, Compare)
	return types
}

func (u *universe) size() int {
	return len(u.types)
}
