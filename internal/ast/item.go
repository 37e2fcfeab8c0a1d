package ast

import (
	"ember/internal/source"
)

// ItemKind enumerates top-level declaration kinds.
type ItemKind uint8

const (
	// ItemMod represents an inline module declaration.
	ItemMod ItemKind = iota
	// ItemUse represents a use import.
	ItemUse
	// ItemFn represents a free function.
	ItemFn
	// ItemStruct represents a struct declaration.
	ItemStruct
	// ItemEnum represents an enum declaration.
	ItemEnum
	// ItemTrait represents a trait declaration.
	ItemTrait
	// ItemImpl represents an impl block (inherent or trait).
	ItemImpl
	// ItemConst represents a module-level constant.
	ItemConst
	// ItemStorage represents a storage block.
	ItemStorage
	// ItemConfigurable represents a configurable block.
	ItemConfigurable
	// ItemAbi represents an abi declaration.
	ItemAbi
	// ItemError is the placeholder for an item that failed to parse.
	ItemError
)

func (k ItemKind) String() string {
	switch k {
	case ItemMod:
		return "mod"
	case ItemUse:
		return "use"
	case ItemFn:
		return "fn"
	case ItemStruct:
		return "struct"
	case ItemEnum:
		return "enum"
	case ItemTrait:
		return "trait"
	case ItemImpl:
		return "impl"
	case ItemConst:
		return "const"
	case ItemStorage:
		return "storage"
	case ItemConfigurable:
		return "configurable"
	case ItemAbi:
		return "abi"
	case ItemError:
		return "error"
	default:
		return "unknown"
	}
}

// Item is one top-level declaration.
type Item struct {
	Kind  ItemKind
	Span  source.Span
	Vis   Visibility
	Attrs []Attribute
	Data  ItemData
}

// ItemData is the kind-specific payload of an Item.
type ItemData interface {
	itemData()
}

// ModItem holds data for ItemMod.
type ModItem struct {
	Name  Ident
	Items []*Item
}

func (*ModItem) itemData() {}

// UseItem holds data for ItemUse. Group imports are expanded by the
// parser, so one UseItem always names one target (or one glob).
type UseItem struct {
	Path  Path
	Alias *Ident // nil without 'as'
	Glob  bool   // use path::*
}

func (*UseItem) itemData() {}

// TypeParam is one generic parameter: a type parameter with optional
// bounds, or a const parameter with its value type.
type TypeParam struct {
	Name      Ident
	Bounds    []TraitRef
	IsConst   bool
	ConstType *TypeExpr // only for const parameters
}

// TraitRef references a trait, optionally with type arguments and
// associated-type bindings (Trait<A, Item = B>).
type TraitRef struct {
	Path     Path
	Args     []*TypeExpr
	Bindings []AssocBinding
	Span     source.Span
}

// AssocBinding is one 'Name = Type' entry inside a TraitRef.
type AssocBinding struct {
	Name Ident
	Type *TypeExpr
}

// WherePred constrains a type with trait bounds in a where clause.
type WherePred struct {
	Target *TypeExpr
	Bounds []TraitRef
}

// Param is one function parameter.
type Param struct {
	Name   Ident
	Type   *TypeExpr // nil for 'self'
	IsSelf bool
	Span   source.Span
}

// FnItem holds data for ItemFn, trait methods, impl methods, and abi
// method declarations (Body == nil for bodiless declarations).
type FnItem struct {
	Name     Ident
	Generics []TypeParam
	Params   []Param
	Return   *TypeExpr // nil means unit
	Where    []WherePred
	Body     *Block
	Purity   Purity
	Payable  bool
	IsTest   bool
}

func (*FnItem) itemData() {}

// FieldDef is a struct field.
type FieldDef struct {
	Name Ident
	Type *TypeExpr
	Vis  Visibility
	Span source.Span
}

// StructItem holds data for ItemStruct.
type StructItem struct {
	Name     Ident
	Generics []TypeParam
	Fields   []FieldDef
}

func (*StructItem) itemData() {}

// VariantDef is one enum variant with an optional tuple payload.
type VariantDef struct {
	Name    Ident
	Payload []*TypeExpr
	Span    source.Span
}

// EnumItem holds data for ItemEnum.
type EnumItem struct {
	Name     Ident
	Generics []TypeParam
	Variants []VariantDef
}

func (*EnumItem) itemData() {}

// AssocTypeDecl declares an associated type inside a trait.
type AssocTypeDecl struct {
	Name   Ident
	Bounds []TraitRef
	Span   source.Span
}

// AssocConstDecl declares an associated constant inside a trait, with
// an optional default value.
type AssocConstDecl struct {
	Name    Ident
	Type    *TypeExpr
	Default *Expr // nil without default
	Span    source.Span
}

// TraitItem holds data for ItemTrait.
type TraitItem struct {
	Name        Ident
	Generics    []TypeParam
	Supers      []TraitRef
	AssocTypes  []AssocTypeDecl
	AssocConsts []AssocConstDecl
	Methods     []*FnItem // default bodies allowed
}

func (*TraitItem) itemData() {}

// AssocTypeBind defines an associated type inside an impl.
type AssocTypeBind struct {
	Name Ident
	Type *TypeExpr
	Span source.Span
}

// AssocConstDef defines an associated constant inside an impl.
type AssocConstDef struct {
	Name  Ident
	Type  *TypeExpr
	Value *Expr
	Span  source.Span
}

// ImplItem holds data for ItemImpl. Trait == nil for inherent impls.
type ImplItem struct {
	Generics    []TypeParam
	Trait       *TraitRef
	SelfType    *TypeExpr
	Where       []WherePred
	AssocTypes  []AssocTypeBind
	AssocConsts []AssocConstDef
	Methods     []*FnItem
}

func (*ImplItem) itemData() {}

// ConstItem holds data for ItemConst.
type ConstItem struct {
	Name  Ident
	Type  *TypeExpr
	Value *Expr
}

func (*ConstItem) itemData() {}

// StorageField is one persistent field with its initializer.
type StorageField struct {
	Name Ident
	Type *TypeExpr
	Init *Expr
	Span source.Span
}

// StorageItem holds data for ItemStorage. Namespace comes from a
// '#[namespace(name)]' attribute and widens the slot-key prefix.
type StorageItem struct {
	Namespace string
	Fields    []StorageField
}

func (*StorageItem) itemData() {}

// ConfigEntry is one configurable constant with its default.
type ConfigEntry struct {
	Name    Ident
	Type    *TypeExpr
	Default *Expr
	Span    source.Span
}

// ConfigurableItem holds data for ItemConfigurable.
type ConfigurableItem struct {
	Entries []ConfigEntry
}

func (*ConfigurableItem) itemData() {}

// AbiItem holds data for ItemAbi: a named set of bodiless method
// declarations a contract promises to implement.
type AbiItem struct {
	Name    Ident
	Methods []*FnItem
}

func (*AbiItem) itemData() {}

// ErrorItem holds data for ItemError.
type ErrorItem struct{}

func (*ErrorItem) itemData() {}
