package match

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/akihikokuroda/typematch/pkg/pytd"
)

// IntersectStructures returns the structure common to all of structs. A
// name is kept only if every structure has it, and then only with the
// signatures every structure has for it. Names left without signatures
// are dropped. Signature order follows the first structure.
func IntersectStructures(structs ...Structure) Structure {
	structure := Structure{}
	if len(structs) == 0 {
		return structure
	}
	for _, name := range structs[0].Names() {
		first := structs[0][name]
		sigs := first.Signatures
		for _, st := range structs[1:] {
			f, ok := st[name]
			if !ok {
				sigs = nil
				break
			}
			sigs = intersectSignatures(sigs, f.Signatures)
		}
		if len(sigs) > 0 {
			structure[name] = &pytd.Function{Name: name, Signatures: sigs}
		}
	}
	return structure
}

func intersectSignatures(sigs, others []*pytd.Signature) []*pytd.Signature {
	keys := set.New[string](len(others))
	for _, s := range others {
		keys.Insert(s.Key())
	}
	var out []*pytd.Signature
	for _, s := range sigs {
		if keys.Contains(s.Key()) {
			out = append(out, s)
		}
	}
	return out
}
