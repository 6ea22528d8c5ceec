package input

import (
	"context"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/akihikokuroda/typematch/pkg/pytd"
)

// Classes is a loaded Document: class graphs with every type reference
// resolved against the declared classes where possible.
type Classes struct {
	Complete   []*pytd.Class
	Incomplete []*pytd.Class
}

// RefBuilder turns a TypeSpec of one kind into a pytd.TypeRef. build
// converts nested specs.
type RefBuilder interface {
	Build(spec *TypeSpec, build func(*TypeSpec) (pytd.TypeRef, error)) (pytd.TypeRef, error)
}

// Loader reads Documents. Builders maps a TypeSpec kind to the builder for
// it; class references are handled by the Loader itself.
type Loader struct {
	Builders map[string]RefBuilder
}

func NewLoader() *Loader {
	return &Loader{Builders: InitRefBuilders()}
}

func InitRefBuilders() map[string]RefBuilder {
	return map[string]RefBuilder{
		KindUnion:   unionBuilder{},
		KindGeneric: genericBuilder{},
		KindNamed:   namedBuilder{},
	}
}

// LoadFile loads the Document at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Classes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open input %v", path)
	}
	defer f.Close()

	classes, err := l.Load(ctx, f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load input %v", path)
	}
	return classes, nil
}

func (l *Loader) Load(ctx context.Context, r io.Reader) (*Classes, error) {
	log := logr.FromContextOrDiscard(ctx)

	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode document")
	}

	classes, err := l.Build(&doc)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("loaded input", "complete", len(classes.Complete), "incomplete", len(classes.Incomplete))
	return classes, nil
}

// Build converts doc into class graphs. A name declared as a complete
// class resolves to it before an incomplete class of the same name; names
// declared nowhere stay unresolved.
func (l *Loader) Build(doc *Document) (*Classes, error) {
	declared := make(map[string]*pytd.Class)
	declare := func(specs []ClassSpec) []*pytd.Class {
		out := make([]*pytd.Class, len(specs))
		for i, spec := range specs {
			out[i] = &pytd.Class{Name: spec.Name}
			if _, ok := declared[spec.Name]; !ok {
				declared[spec.Name] = out[i]
			}
		}
		return out
	}
	classes := &Classes{
		Complete:   declare(doc.Complete),
		Incomplete: declare(doc.Incomplete),
	}

	var build func(*TypeSpec) (pytd.TypeRef, error)
	build = func(spec *TypeSpec) (pytd.TypeRef, error) {
		if spec == nil {
			return nil, errors.New("missing type")
		}
		if spec.Kind == KindClass {
			return &pytd.ClassRef{Name: spec.Name, Class: declared[spec.Name]}, nil
		}
		b, ok := l.Builders[spec.Kind]
		if !ok {
			return nil, errors.Errorf("unknown type kind %q", spec.Kind)
		}
		return b.Build(spec, build)
	}

	fill := func(specs []ClassSpec, out []*pytd.Class) error {
		for i, spec := range specs {
			for _, m := range spec.Methods {
				f := &pytd.Function{Name: m.Name}
				for j, s := range m.Signatures {
					sig, err := buildSignature(s, build)
					if err != nil {
						return errors.Wrapf(err, "class %v, method %v, signature %d", spec.Name, m.Name, j)
					}
					f.Signatures = append(f.Signatures, sig)
				}
				out[i].Methods = append(out[i].Methods, f)
			}
		}
		return nil
	}
	if err := fill(doc.Complete, classes.Complete); err != nil {
		return nil, err
	}
	if err := fill(doc.Incomplete, classes.Incomplete); err != nil {
		return nil, err
	}
	return classes, nil
}

func buildSignature(s SignatureSpec, build func(*TypeSpec) (pytd.TypeRef, error)) (*pytd.Signature, error) {
	sig := &pytd.Signature{}
	for _, p := range s.Params {
		t, err := build(p.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %v", p.Name)
		}
		sig.Params = append(sig.Params, pytd.Parameter{Name: p.Name, Type: t})
	}
	ret, err := build(s.Return)
	if err != nil {
		return nil, errors.Wrap(err, "return")
	}
	sig.Return = ret
	return sig, nil
}

type unionBuilder struct{}

func (unionBuilder) Build(spec *TypeSpec, build func(*TypeSpec) (pytd.TypeRef, error)) (pytd.TypeRef, error) {
	if len(spec.Params) == 0 {
		return nil, errors.New("union without members")
	}
	u := &pytd.UnionRef{}
	for _, p := range spec.Params {
		t, err := build(p)
		if err != nil {
			return nil, err
		}
		u.Types = append(u.Types, t)
	}
	return u, nil
}

type genericBuilder struct{}

func (genericBuilder) Build(spec *TypeSpec, build func(*TypeSpec) (pytd.TypeRef, error)) (pytd.TypeRef, error) {
	base, err := build(spec.Base)
	if err != nil {
		return nil, errors.Wrap(err, "generic base")
	}
	g := &pytd.GenericRef{Base: base}
	for _, p := range spec.Params {
		t, err := build(p)
		if err != nil {
			return nil, err
		}
		g.Params = append(g.Params, t)
	}
	return g, nil
}

type namedBuilder struct{}

func (namedBuilder) Build(spec *TypeSpec, _ func(*TypeSpec) (pytd.TypeRef, error)) (pytd.TypeRef, error) {
	return &pytd.NamedRef{Name: spec.Name}, nil
}
