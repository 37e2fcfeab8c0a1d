package ast

import (
	"ember/internal/source"
)

// TypeExprKind enumerates syntactic type forms.
type TypeExprKind uint8

const (
	// TypeNamed represents 'Path<Args>' including primitives.
	TypeNamed TypeExprKind = iota
	// TypeTuple represents '(T0, T1, ...)'; '()' is unit.
	TypeTuple
	// TypeArray represents '[T; N]' with a const-generic length.
	TypeArray
	// TypeSelf represents 'Self'.
	TypeSelf
	// TypeNever represents '!'.
	TypeNever
	// TypeAssoc represents 'Self::Assoc' or '<T as Trait>::Assoc'.
	TypeAssoc
	// TypeError is the placeholder for a type that failed to parse.
	TypeError
)

func (k TypeExprKind) String() string {
	switch k {
	case TypeNamed:
		return "Named"
	case TypeTuple:
		return "Tuple"
	case TypeArray:
		return "Array"
	case TypeSelf:
		return "Self"
	case TypeNever:
		return "Never"
	case TypeAssoc:
		return "Assoc"
	case TypeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// TypeExpr is one syntactic type node.
type TypeExpr struct {
	Kind TypeExprKind
	Span source.Span
	Data TypeExprData
}

// TypeExprData is the kind-specific payload of a TypeExpr.
type TypeExprData interface {
	typeExprData()
}

// TypeArg is one generic argument: a type, or a const value for
// const-generic parameters (a literal or a named const parameter).
type TypeArg struct {
	Type  *TypeExpr // nil when the argument is a const expression
	Const *Expr
}

// NamedType holds data for TypeNamed.
type NamedType struct {
	Path Path
	Args []TypeArg
}

func (*NamedType) typeExprData() {}

// TupleType holds data for TypeTuple.
type TupleType struct {
	Elems []*TypeExpr
}

func (*TupleType) typeExprData() {}

// ArrayType holds data for TypeArray. Len is a const expression: a
// literal or a const-generic parameter name.
type ArrayType struct {
	Elem *TypeExpr
	Len  *Expr
}

func (*ArrayType) typeExprData() {}

// AssocType holds data for TypeAssoc. Base == nil means 'Self::Name';
// otherwise the qualified '<Base as Trait>::Name' form.
type AssocType struct {
	Base  *TypeExpr
	Trait *TraitRef // nil for the Self::Name form
	Name  Ident
}

func (*AssocType) typeExprData() {}

// EmptyType is shared by TypeSelf, TypeNever, and TypeError.
type EmptyType struct{}

func (*EmptyType) typeExprData() {}
