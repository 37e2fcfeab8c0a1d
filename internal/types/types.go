package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether the ID refers to an interned type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindError is the poison type: it unifies with anything so one
	// defect produces one diagnostic, not a cascade.
	KindError
	KindUnit
	KindBool
	KindUint
	KindB256
	KindString
	KindTuple
	KindArray
	KindNamed
	// KindParam is an in-scope generic type parameter.
	KindParam
	// KindSelf is the 'Self' type inside traits and impls.
	KindSelf
	// KindNever is the type of 'revert' and diverging expressions.
	KindNever
	// KindVar is an unresolved unification variable.
	KindVar
	// KindFn is a function signature (params..., then return).
	KindFn
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindUint:
		return "uint"
	case KindB256:
		return "b256"
	case KindString:
		return "str"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindNamed:
		return "named"
	case KindParam:
		return "param"
	case KindSelf:
		return "Self"
	case KindNever:
		return "never"
	case KindVar:
		return "var"
	case KindFn:
		return "fn"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width is the bit width of an unsigned integer type.
type Width uint16

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width256 Width = 256
)

// NoConstParam marks an array length that is a concrete count.
const NoConstParam = ^uint32(0)

// Type is the structural descriptor of one type. Descriptors are
// immutable once interned; unification state lives in the Unifier.
type Type struct {
	Kind  Kind
	Width Width // KindUint

	// Sym is the declaring symbol for KindNamed, the parameter index
	// for KindParam, and the variable ordinal for KindVar.
	Sym uint32

	// Name is the display name for KindNamed and KindParam. It is
	// determined by Sym and participates in interning harmlessly.
	Name string

	// Elem and the count fields describe KindArray. CountParam is the
	// const-generic parameter index when the length is not yet
	// concrete, or NoConstParam.
	Elem       TypeID
	Count      uint64
	CountParam uint32

	// Args holds tuple elements, named-type arguments, or the
	// parameter types of KindFn followed by its return type.
	Args []TypeID
}

// Descriptor helpers.

// MakeUint describes an unsigned integer of the given width.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeTuple describes a tuple; no elements is the unit type's sibling
// but unit is interned separately.
func MakeTuple(elems []TypeID) Type {
	return Type{Kind: KindTuple, Args: elems}
}

// MakeArray describes an array with a concrete length.
func MakeArray(elem TypeID, count uint64) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count, CountParam: NoConstParam}
}

// MakeArrayParam describes an array whose length is a const-generic
// parameter awaiting substitution.
func MakeArrayParam(elem TypeID, param uint32) Type {
	return Type{Kind: KindArray, Elem: elem, CountParam: param}
}

// MakeNamed describes a struct/enum reference with type arguments.
func MakeNamed(sym uint32, name string, args []TypeID) Type {
	return Type{Kind: KindNamed, Sym: sym, Name: name, Args: args}
}

// MakeParam describes a generic type parameter by declaration index.
func MakeParam(index uint32, name string) Type {
	return Type{Kind: KindParam, Sym: index, Name: name}
}

// MakeVar describes a unification variable by ordinal.
func MakeVar(ordinal uint32) Type {
	return Type{Kind: KindVar, Sym: ordinal}
}

// MakeFn describes a function signature; the last arg is the return.
func MakeFn(params []TypeID, ret TypeID) Type {
	args := make([]TypeID, 0, len(params)+1)
	args = append(args, params...)
	args = append(args, ret)
	return Type{Kind: KindFn, Args: args}
}

// FnParams returns the parameter types of a KindFn descriptor.
func (t Type) FnParams() []TypeID {
	if t.Kind != KindFn || len(t.Args) == 0 {
		return nil
	}
	return t.Args[:len(t.Args)-1]
}

// FnReturn returns the return type of a KindFn descriptor.
func (t Type) FnReturn() TypeID {
	if t.Kind != KindFn || len(t.Args) == 0 {
		return NoTypeID
	}
	return t.Args[len(t.Args)-1]
}

// IsUint reports whether the descriptor is an unsigned integer.
func (t Type) IsUint() bool { return t.Kind == KindUint }
