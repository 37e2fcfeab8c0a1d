package symbols

import (
	"ember/internal/ast"
	"ember/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolModule
	SymbolFn
	SymbolStruct
	SymbolEnum
	SymbolVariant
	SymbolTrait
	SymbolConst
	SymbolAbi
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolModule:
		return "module"
	case SymbolFn:
		return "function"
	case SymbolStruct:
		return "struct"
	case SymbolEnum:
		return "enum"
	case SymbolVariant:
		return "variant"
	case SymbolTrait:
		return "trait"
	case SymbolConst:
		return "constant"
	case SymbolAbi:
		return "abi"
	default:
		return "invalid"
	}
}

// IsType reports whether the symbol names a type.
func (k SymbolKind) IsType() bool {
	return k == SymbolStruct || k == SymbolEnum
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	// SymbolFlagPublic marks 'pub' items.
	SymbolFlagPublic SymbolFlags = 1 << iota
	// SymbolFlagImported marks symbols brought in by 'use'.
	SymbolFlagImported
)

// Symbol describes a named entity declared in or imported into a module.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Owner ModuleID // module the symbol is declared in
	Span  source.Span
	Flags SymbolFlags

	// Item is the declaring item; nil for modules and enum variants.
	Item *ast.Item

	// Target is the child module for SymbolModule.
	Target ModuleID

	// Enum and VariantIndex locate a SymbolVariant inside its enum.
	Enum         SymbolID
	VariantIndex int
}

// IsPublic reports whether the symbol is visible outside its module.
func (s *Symbol) IsPublic() bool { return s.Flags&SymbolFlagPublic != 0 }
