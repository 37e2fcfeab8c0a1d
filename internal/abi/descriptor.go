// Package abi models the machine-readable interface of a compiled
// unit: exported functions with fully concrete parameter and return
// types, and configurable constants with their data-section offsets.
// The descriptor is emitted as JSON and never read back by the
// compiler.
package abi

import (
	"encoding/json"
	"fmt"
	"sort"

	"ember/internal/mir"
	"ember/internal/sema"
	"ember/internal/symbols"
	"ember/internal/types"
)

// TypeDesc describes one concrete type recursively. Generic types
// appear only after substitution, so no descriptor mentions a type
// parameter.
type TypeDesc struct {
	Kind     string      `json:"kind"`
	Width    uint16      `json:"width,omitempty"`    // uint
	Name     string      `json:"name,omitempty"`     // struct, enum
	Elem     *TypeDesc   `json:"elem,omitempty"`     // array
	Len      uint64      `json:"len,omitempty"`      // array
	Elems    []TypeDesc  `json:"elems,omitempty"`    // tuple
	Fields   []FieldDesc `json:"fields,omitempty"`   // struct
	Variants []Variant   `json:"variants,omitempty"` // enum
}

// FieldDesc is one named struct field.
type FieldDesc struct {
	Name string   `json:"name"`
	Type TypeDesc `json:"type"`
}

// Variant is one enum variant with its payload types.
type Variant struct {
	Name    string     `json:"name"`
	Payload []TypeDesc `json:"payload,omitempty"`
}

// Param is one function parameter.
type Param struct {
	Name string   `json:"name"`
	Type TypeDesc `json:"type"`
}

// Function is one exported callable.
type Function struct {
	Name    string   `json:"name"`
	Abi     string   `json:"abi,omitempty"`
	Kind    string   `json:"kind"` // main, abi, test
	Inputs  []Param  `json:"inputs"`
	Output  TypeDesc `json:"output"`
	Purity  string   `json:"purity"`
	Payable bool     `json:"payable,omitempty"`
}

// Configurable is one deploy-time constant. Offset is its byte
// position in the data section, patched in by the code generator.
type Configurable struct {
	Name   string   `json:"name"`
	Type   TypeDesc `json:"type"`
	Offset uint64   `json:"offset"`
}

// Descriptor is the complete public interface of one compiled unit.
type Descriptor struct {
	Functions     []Function     `json:"functions"`
	Configurables []Configurable `json:"configurables,omitempty"`
}

// JSON renders the descriptor as stable, indented JSON.
func (d *Descriptor) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Build derives the descriptor from a lowered module. Output is sorted
// by export name so it never depends on lowering order.
func Build(in *types.Interner, info *sema.Info, mod *mir.Module) (*Descriptor, error) {
	d := &Descriptor{Functions: []Function{}}
	for _, ex := range mod.Exports {
		f := mod.Func(ex.Fn)
		if f == nil {
			continue
		}
		fn := Function{
			Name:    ex.Name,
			Abi:     ex.Abi,
			Kind:    ex.Kind.String(),
			Inputs:  []Param{},
			Purity:  f.Purity.String(),
			Payable: f.Payable,
		}
		for i := 0; i < f.Params && i < len(f.Locals); i++ {
			td, err := describe(in, info, f.Locals[i].Type)
			if err != nil {
				return nil, fmt.Errorf("function %s, parameter %d: %w", ex.Name, i, err)
			}
			fn.Inputs = append(fn.Inputs, Param{Name: f.Locals[i].Name, Type: td})
		}
		out, err := describe(in, info, f.Result)
		if err != nil {
			return nil, fmt.Errorf("function %s return: %w", ex.Name, err)
		}
		fn.Output = out
		d.Functions = append(d.Functions, fn)
	}
	sort.Slice(d.Functions, func(i, j int) bool {
		if d.Functions[i].Name != d.Functions[j].Name {
			return d.Functions[i].Name < d.Functions[j].Name
		}
		return d.Functions[i].Abi < d.Functions[j].Abi
	})
	for _, cfg := range mod.Config {
		td, err := describe(in, info, cfg.Type)
		if err != nil {
			return nil, fmt.Errorf("configurable %s: %w", cfg.Name, err)
		}
		d.Configurables = append(d.Configurables, Configurable{Name: cfg.Name, Type: td})
	}
	return d, nil
}

// describe converts a concrete interned type into its descriptor.
func describe(in *types.Interner, info *sema.Info, id types.TypeID) (TypeDesc, error) {
	t, ok := in.Lookup(id)
	if !ok {
		return TypeDesc{}, fmt.Errorf("unknown type id %d", id)
	}
	switch t.Kind {
	case types.KindUnit:
		return TypeDesc{Kind: "unit"}, nil
	case types.KindBool:
		return TypeDesc{Kind: "bool"}, nil
	case types.KindUint:
		return TypeDesc{Kind: "uint", Width: uint16(t.Width)}, nil
	case types.KindB256:
		return TypeDesc{Kind: "b256"}, nil
	case types.KindString:
		return TypeDesc{Kind: "string"}, nil
	case types.KindNever:
		return TypeDesc{Kind: "never"}, nil
	case types.KindTuple:
		td := TypeDesc{Kind: "tuple", Elems: []TypeDesc{}}
		for _, arg := range t.Args {
			et, err := describe(in, info, arg)
			if err != nil {
				return TypeDesc{}, err
			}
			td.Elems = append(td.Elems, et)
		}
		return td, nil
	case types.KindArray:
		et, err := describe(in, info, t.Elem)
		if err != nil {
			return TypeDesc{}, err
		}
		return TypeDesc{Kind: "array", Elem: &et, Len: t.Count}, nil
	case types.KindNamed:
		return describeNamed(in, info, id, t)
	default:
		return TypeDesc{}, fmt.Errorf("type %q cannot appear in an exported signature", in.String(id))
	}
}

func describeNamed(in *types.Interner, info *sema.Info, id types.TypeID, t types.Type) (TypeDesc, error) {
	sym := symbols.SymbolID(t.Sym)
	if st, ok := info.Structs[sym]; ok {
		sub := declSubst(in, st.Generics, t)
		td := TypeDesc{Kind: "struct", Name: in.String(id)}
		for i, name := range st.FieldNames {
			ft, err := describe(in, info, in.Substitute(st.FieldTypes[i], sub))
			if err != nil {
				return TypeDesc{}, err
			}
			td.Fields = append(td.Fields, FieldDesc{Name: name, Type: ft})
		}
		return td, nil
	}
	if en, ok := info.Enums[sym]; ok {
		sub := declSubst(in, en.Generics, t)
		td := TypeDesc{Kind: "enum", Name: in.String(id)}
		for _, v := range en.Variants {
			vd := Variant{Name: v.Name}
			for _, p := range v.Payload {
				pt, err := describe(in, info, in.Substitute(p, sub))
				if err != nil {
					return TypeDesc{}, err
				}
				vd.Payload = append(vd.Payload, pt)
			}
			td.Variants = append(td.Variants, vd)
		}
		return td, nil
	}
	return TypeDesc{}, fmt.Errorf("named type %q is neither struct nor enum", t.Name)
}

// declSubst rebuilds the declaration-frame substitution from a
// concrete named type's arguments, unwrapping const arguments from
// their array-descriptor encoding.
func declSubst(in *types.Interner, generics []sema.GenericParam, t types.Type) types.Subst {
	n := len(generics)
	sub := types.Subst{Types: make([]types.TypeID, n), Consts: make([]uint64, n)}
	for i := range generics {
		if i >= len(t.Args) {
			continue
		}
		idx := int(generics[i].Index)
		if idx >= n {
			continue
		}
		if generics[i].IsConst {
			if at, ok := in.Lookup(t.Args[i]); ok {
				sub.Consts[idx] = at.Count
			}
			continue
		}
		sub.Types[idx] = t.Args[i]
	}
	return sub
}
