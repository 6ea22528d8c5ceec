package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akihikokuroda/typematch/pkg/pytd"
)

var (
	ErrAlreadyGenerated = errors.New("constraints already generated")
	ErrNotGenerated     = errors.New("constraints have not been generated")
	ErrAlreadySolved    = errors.New("constraints already solved")
)

// DuplicateClassError is returned by Generate when two input classes
// share a name and completeness.
type DuplicateClassError struct {
	Name     string
	Complete bool
}

func (e *DuplicateClassError) Error() string {
	kind := "incomplete"
	if e.Complete {
		kind = "complete"
	}
	return fmt.Sprintf("duplicate %s class %q in input", kind, e.Name)
}

// AmbiguousReferenceError is returned when a type reference names more
// than one known class.
type AmbiguousReferenceError struct {
	Name       string
	Candidates []Type
}

func (e *AmbiguousReferenceError) Error() string {
	s := make([]string, len(e.Candidates))
	for i, t := range e.Candidates {
		s[i] = t.String()
	}
	return fmt.Sprintf("reference to %q is ambiguous: %s", e.Name, strings.Join(s, ", "))
}

// UnsupportedTypeError is returned for type references that cannot be
// converted to a Type.
type UnsupportedTypeError struct {
	Ref pytd.TypeRef
}

func (e *UnsupportedTypeError) Error() string {
	if e.Ref == nil {
		return "cannot convert: missing type reference"
	}
	return fmt.Sprintf("cannot convert: %T (%s)", e.Ref, e.Ref)
}

// MalformedInputError is returned for input classes that violate the
// shape the encoder relies on.
type MalformedInputError struct {
	Class  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
	return fmt.Sprintf("malformed class %q: %s", e.Class, e.Reason)
}

func validate(cls *pytd.Class) error {
	if cls == nil {
		return &MalformedInputError{Reason: "nil class"}
	}
	if cls.Name == "" {
		return &MalformedInputError{Reason: "class without a name"}
	}
	seen := make(map[string]struct{}, len(cls.Methods))
	for _, f := range cls.Methods {
		if f == nil || f.Name == "" {
			return &MalformedInputError{Class: cls.Name, Reason: "method without a name"}
		}
		if _, ok := seen[f.Name]; ok {
			return &MalformedInputError{Class: cls.Name, Reason: fmt.Sprintf("method %q declared twice", f.Name)}
		}
		seen[f.Name] = struct{}{}
		if len(f.Signatures) == 0 {
			return &MalformedInputError{Class: cls.Name, Reason: fmt.Sprintf("method %q has no signatures", f.Name)}
		}
		for _, sig := range f.Signatures {
			if sig == nil {
				return &MalformedInputError{Class: cls.Name, Reason: fmt.Sprintf("method %q has a nil signature", f.Name)}
			}
			for _, p := range sig.Params {
				if p.Type == nil {
					return &MalformedInputError{Class: cls.Name, Reason: fmt.Sprintf("parameter %q of %q has no type", p.Name, f.Name)}
				}
			}
			if sig.Return == nil {
				return &MalformedInputError{Class: cls.Name, Reason: fmt.Sprintf("method %q has no return type", f.Name)}
			}
		}
	}
	return nil
}
