package input

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Document is the YAML description of one matching session.
type Document struct {
	Complete   []ClassSpec `yaml:"complete"`
	Incomplete []ClassSpec `yaml:"incomplete"`
}

type ClassSpec struct {
	Name    string       `yaml:"name"`
	Methods []MethodSpec `yaml:"methods"`
}

type MethodSpec struct {
	Name       string          `yaml:"name"`
	Signatures []SignatureSpec `yaml:"signatures"`
}

type SignatureSpec struct {
	Params []ParamSpec `yaml:"params"`
	Return *TypeSpec   `yaml:"return"`
}

type ParamSpec struct {
	Name string    `yaml:"name"`
	Type *TypeSpec `yaml:"type"`
}

const (
	KindClass   = "class"
	KindUnion   = "union"
	KindGeneric = "generic"
	KindNamed   = "named"
)

// TypeSpec is a type reference as written in a Document. A plain scalar
// names a class:
//
//	int
//	{union: [int, str]}
//	{generic: list, params: [int]}
//	{named: T}
type TypeSpec struct {
	Kind string
	Name string
	// Base is the generic base type.
	Base *TypeSpec
	// Params holds union members or generic parameters.
	Params []*TypeSpec
}

func (t *TypeSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return errors.Errorf("line %d: empty type name", node.Line)
		}
		*t = TypeSpec{Kind: KindClass, Name: node.Value}
		return nil
	case yaml.MappingNode:
	default:
		return errors.Errorf("line %d: type must be a name or a mapping", node.Line)
	}

	var (
		kind   string
		value  *yaml.Node
		params []*TypeSpec
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, v := node.Content[i].Value, node.Content[i+1]
		switch key {
		case KindUnion, KindGeneric, KindNamed:
			if kind != "" {
				return errors.Errorf("line %d: both %s and %s given", node.Line, kind, key)
			}
			kind, value = key, v
		case "params":
			if err := v.Decode(&params); err != nil {
				return err
			}
		default:
			return errors.Errorf("line %d: unknown type key %q", v.Line, key)
		}
	}

	switch kind {
	case KindUnion:
		var members []*TypeSpec
		if err := value.Decode(&members); err != nil {
			return err
		}
		*t = TypeSpec{Kind: KindUnion, Params: members}
	case KindGeneric:
		base := &TypeSpec{}
		if err := value.Decode(base); err != nil {
			return err
		}
		*t = TypeSpec{Kind: KindGeneric, Base: base, Params: params}
	case KindNamed:
		*t = TypeSpec{Kind: KindNamed, Name: value.Value}
	default:
		return errors.Errorf("line %d: expected one of union, generic or named", node.Line)
	}
	return nil
}
