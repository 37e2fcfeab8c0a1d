package ast

import (
	"ember/internal/source"
)

// PatternKind enumerates pattern kinds in match arms.
type PatternKind uint8

const (
	// PatWildcard represents '_'.
	PatWildcard PatternKind = iota
	// PatBinding represents a name binding the scrutinee value.
	PatBinding
	// PatLiteral represents an int/bool/string literal pattern.
	PatLiteral
	// PatTuple represents '(p0, p1, ...)'.
	PatTuple
	// PatStruct represents 'Path { field: p, .. }'.
	PatStruct
	// PatVariant represents 'Path::Variant(p0, ...)'.
	PatVariant
	// PatError is the placeholder for a pattern that failed to parse.
	PatError
)

func (k PatternKind) String() string {
	switch k {
	case PatWildcard:
		return "Wildcard"
	case PatBinding:
		return "Binding"
	case PatLiteral:
		return "Literal"
	case PatTuple:
		return "Tuple"
	case PatStruct:
		return "Struct"
	case PatVariant:
		return "Variant"
	case PatError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Pattern is one pattern node.
type Pattern struct {
	Kind PatternKind
	Span source.Span
	Data PatternData
}

// PatternData is the kind-specific payload of a Pattern.
type PatternData interface {
	patternData()
}

// BindingPat holds data for PatBinding.
type BindingPat struct {
	Name Ident
}

func (*BindingPat) patternData() {}

// LiteralPat holds data for PatLiteral, reusing the literal payload.
type LiteralPat struct {
	Literal LiteralData
}

func (*LiteralPat) patternData() {}

// TuplePat holds data for PatTuple.
type TuplePat struct {
	Elems []*Pattern
}

func (*TuplePat) patternData() {}

// FieldPat is one 'name: pattern' entry inside a struct pattern.
type FieldPat struct {
	Name    Ident
	Pattern *Pattern
}

// StructPat holds data for PatStruct. Rest marks a trailing '..'.
type StructPat struct {
	Path   Path
	Fields []FieldPat
	Rest   bool
}

func (*StructPat) patternData() {}

// VariantPat holds data for PatVariant.
type VariantPat struct {
	Path    Path
	Payload []*Pattern
}

func (*VariantPat) patternData() {}

// EmptyPat is shared by PatWildcard and PatError.
type EmptyPat struct{}

func (*EmptyPat) patternData() {}
