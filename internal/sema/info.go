package sema

import (
	"ember/internal/ast"
	"ember/internal/symbols"
	"ember/internal/types"
)

// GenericParam is one declared generic parameter of an item.
type GenericParam struct {
	Name      string
	Index     uint32 // position in the item's combined generic list
	IsConst   bool
	ConstType types.TypeID
	Bounds    []TraitBound
}

// TraitBound is one resolved 'T: Trait<Args>' requirement.
type TraitBound struct {
	Trait    symbols.SymbolID
	Args     []types.TypeID
	Bindings map[string]types.TypeID // associated-type equality bindings
}

// FnSig is the resolved signature of a function or method. Parameter
// and return types mention KindParam for the item's own generics and
// KindSelf inside traits/impls.
type FnSig struct {
	Sym      symbols.SymbolID // NoSymbolID for methods
	Decl     *ast.FnItem
	Module   symbols.ModuleID
	Generics []GenericParam
	Params   []types.TypeID
	Result   types.TypeID
	HasSelf  bool
	Purity   ast.Purity
	Payable  bool
	IsTest   bool

	// scope re-enters the signature's generics when checking the body.
	scope *genericScope
}

// StructInfo is a resolved struct declaration.
type StructInfo struct {
	Sym        symbols.SymbolID
	Decl       *ast.StructItem
	Module     symbols.ModuleID
	Generics   []GenericParam
	FieldNames []string
	FieldTypes []types.TypeID
	FieldVis   []ast.Visibility
}

// FieldIndex returns the position of a field by name, or -1.
func (s *StructInfo) FieldIndex(name string) int {
	for i, n := range s.FieldNames {
		if n == name {
			return i
		}
	}
	return -1
}

// VariantInfo is one enum variant with resolved payload types.
type VariantInfo struct {
	Name    string
	Payload []types.TypeID
}

// EnumInfo is a resolved enum declaration.
type EnumInfo struct {
	Sym      symbols.SymbolID
	Decl     *ast.EnumItem
	Module   symbols.ModuleID
	Generics []GenericParam
	Variants []VariantInfo
}

// VariantIndex returns the position of a variant by name, or -1.
func (e *EnumInfo) VariantIndex(name string) int {
	for i, v := range e.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// AssocTypeInfo is one associated type declared by a trait.
type AssocTypeInfo struct {
	Name   string
	Bounds []TraitBound
}

// AssocConstInfo is one associated constant declared by a trait or
// bound by an impl.
type AssocConstInfo struct {
	Name    string
	Type    types.TypeID
	Default *ast.Expr // trait-side default, nil if none
	Value   *ast.Expr // impl-side value
}

// TraitInfo is a resolved trait declaration.
type TraitInfo struct {
	Sym         symbols.SymbolID
	Decl        *ast.TraitItem
	Module      symbols.ModuleID
	Generics    []GenericParam
	Supers      []TraitBound
	AssocTypes  []AssocTypeInfo
	AssocConsts []AssocConstInfo
	Methods     map[string]*FnSig
	Defaults    map[string]*ast.FnItem // methods with default bodies
}

// ImplInfo is a resolved impl block. Trait is nil for inherent impls.
type ImplInfo struct {
	Decl        *ast.ImplItem
	Module      symbols.ModuleID
	Generics    []GenericParam
	Trait       *TraitBound
	SelfType    types.TypeID
	Methods     map[string]*FnSig
	AssocTypes  map[string]types.TypeID
	AssocConsts map[string]*AssocConstInfo
}

// ConstInfo is a resolved module-level constant.
type ConstInfo struct {
	Sym    symbols.SymbolID
	Decl   *ast.ConstItem
	Module symbols.ModuleID
	Type   types.TypeID
	Value  uint64 // evaluated for uint-typed constants
	HasVal bool
}

// StorageFieldInfo is one declared storage field with its canonical
// access path, the input to slot-key hashing.
type StorageFieldInfo struct {
	Name      string
	Namespace string
	Path      string // "storage.name" or "storage::ns.name"
	Module    symbols.ModuleID
	Type      types.TypeID
	Init      *ast.Expr
}

// ConfigEntryInfo is one configurable constant.
type ConfigEntryInfo struct {
	Name    string
	Type    types.TypeID
	Default *ast.Expr
}

// AbiMethodInfo is one method of a declared ABI surface.
type AbiMethodInfo struct {
	Sig *FnSig
}

// AbiInfo is a resolved abi declaration.
type AbiInfo struct {
	Sym     symbols.SymbolID
	Decl    *ast.AbiItem
	Methods []AbiMethodInfo
}

// AssocConstRef records an expression that reads an associated
// constant, so lowering can locate the providing impl once the self
// type is concrete. Trait is NoSymbolID for 'Self::NAME' references,
// which search the enclosing impl first.
type AssocConstRef struct {
	SelfTy types.TypeID
	Trait  symbols.SymbolID
	Name   string
}

// MethodTarget records where a method call resolved to.
type MethodTarget struct {
	Sig     *FnSig
	Impl    *ImplInfo         // impl that provides the body, nil for trait defaults
	Trait   symbols.SymbolID  // trait that declared the method, if any
	Default bool              // body comes from the trait default
	Subst   types.Subst       // impl+method generic substitution at this call
	RecvTy  types.TypeID
}

// Instantiation is one recorded (declaration, concrete args) pair.
type Instantiation struct {
	Sym      symbols.SymbolID // generic function symbol
	TypeArgs []types.TypeID
	Consts   []uint64
}

// Info is everything later stages need from type checking.
type Info struct {
	Table *symbols.Table
	In    *types.Interner

	ExprTypes map[*ast.Expr]types.TypeID
	PathSyms  map[*ast.Expr]symbols.SymbolID
	Methods   map[*ast.Expr]*MethodTarget
	CallSubst map[*ast.Expr]types.Subst // generic call-site substitutions
	AssocRefs map[*ast.Expr]*AssocConstRef

	FnSigs  map[symbols.SymbolID]*FnSig
	Structs map[symbols.SymbolID]*StructInfo
	Enums   map[symbols.SymbolID]*EnumInfo
	Traits  map[symbols.SymbolID]*TraitInfo
	Consts  map[symbols.SymbolID]*ConstInfo
	Abis    map[symbols.SymbolID]*AbiInfo
	Impls   []*ImplInfo

	Storage []StorageFieldInfo
	Config  []ConfigEntryInfo
}

// ExprType returns the inferred type of e, or the error type.
func (i *Info) ExprType(e *ast.Expr) types.TypeID {
	if t, ok := i.ExprTypes[e]; ok {
		return t
	}
	return i.In.Builtins().Error
}

// StructOf finds the struct info backing a named type, if any.
func (i *Info) StructOf(id types.TypeID) (*StructInfo, bool) {
	t, ok := i.In.Lookup(id)
	if !ok || t.Kind != types.KindNamed {
		return nil, false
	}
	s, ok := i.Structs[symbols.SymbolID(t.Sym)]
	return s, ok
}

// StorageCandidates collects the storage fields a bare name could
// refer to from module m: the module's own declarations when it has
// any, otherwise every declaration of that name.
func (i *Info) StorageCandidates(m symbols.ModuleID, name string) []*StorageFieldInfo {
	var hits []*StorageFieldInfo
	for j := range i.Storage {
		f := &i.Storage[j]
		if f.Name == name && f.Module == m {
			hits = append(hits, f)
		}
	}
	if len(hits) == 0 {
		for j := range i.Storage {
			if f := &i.Storage[j]; f.Name == name {
				hits = append(hits, f)
			}
		}
	}
	return hits
}

// StorageFieldFor resolves a storage field reference from module m;
// ok is false when the name is missing or ambiguous.
func (i *Info) StorageFieldFor(m symbols.ModuleID, name string) (*StorageFieldInfo, bool) {
	hits := i.StorageCandidates(m, name)
	if len(hits) != 1 {
		return nil, false
	}
	return hits[0], true
}

// EnumOf finds the enum info backing a named type, if any.
func (i *Info) EnumOf(id types.TypeID) (*EnumInfo, bool) {
	t, ok := i.In.Lookup(id)
	if !ok || t.Kind != types.KindNamed {
		return nil, false
	}
	e, ok := i.Enums[symbols.SymbolID(t.Sym)]
	return e, ok
}
