package match

import (
	"strconv"

	"github.com/akihikokuroda/typematch/pkg/sat"
)

// Equality is the Boolean variable "Left and Right denote the same
// type". Left never sorts after Right, so NewEquality(a, b) and
// NewEquality(b, a) are the same value.
type Equality struct {
	Left, Right Type
}

var _ sat.Variable = Equality{}

func NewEquality(a, b Type) Equality {
	if Compare(a, b) > 0 {
		a, b = b, a
	}
	return Equality{Left: a, Right: b}
}

// Other returns the element of e that is not t.
func (e Equality) Other(t Type) Type {
	if Compare(e.Right, t) == 0 {
		return e.Left
	}
	return e.Right
}

// Contains reports whether t is one of the elements of e.
func (e Equality) Contains(t Type) bool {
	return Compare(e.Left, t) == 0 || Compare(e.Right, t) == 0
}

// Identifier is built from the interning keys of both elements. Unlike
// String it tells a complete class named "I#" from an incomplete "I".
func (e Equality) Identifier() sat.Identifier {
	return sat.Identifier("[" + strconv.Quote(key(e.Left)) + "=" + strconv.Quote(key(e.Right)) + "]")
}

func (e Equality) String() string {
	return "[" + e.Left.String() + "=" + e.Right.String() + "]"
}

// CompareEqualities orders Equalities by their left, then right element.
func CompareEqualities(a, b Equality) int {
	if c := Compare(a.Left, b.Left); c != 0 {
		return c
	}
	return Compare(a.Right, b.Right)
}
