package mir

import (
	"ember/internal/ast"
	"ember/internal/source"
	"ember/internal/types"
)

// ConstKind enumerates constant operand categories.
type ConstKind uint8

const (
	// ConstUnit is the unit value.
	ConstUnit ConstKind = iota
	// ConstUint is an unsigned integer value.
	ConstUint
	// ConstBool is a boolean value.
	ConstBool
	// ConstString is a string value, placed in the data section.
	ConstString
)

// Const is one compile-time constant value.
type Const struct {
	Kind ConstKind
	Type types.TypeID
	Uint uint64
	Bool bool
	Str  string
}

// OpKind enumerates operand categories.
type OpKind uint8

const (
	// OpConst reads a constant.
	OpConst OpKind = iota
	// OpLocal reads a local slot.
	OpLocal
)

// Operand is a value an instruction consumes.
type Operand struct {
	Kind  OpKind
	Local LocalID
	Const Const
}

// UseLocal builds a local operand.
func UseLocal(id LocalID) Operand {
	return Operand{Kind: OpLocal, Local: id}
}

// UintOp builds an unsigned integer constant operand.
func UintOp(v uint64, ty types.TypeID) Operand {
	return Operand{Kind: OpConst, Const: Const{Kind: ConstUint, Type: ty, Uint: v}}
}

// BoolOp builds a boolean constant operand.
func BoolOp(v bool, ty types.TypeID) Operand {
	return Operand{Kind: OpConst, Const: Const{Kind: ConstBool, Type: ty, Bool: v}}
}

// StringOp builds a string constant operand.
func StringOp(s string, ty types.TypeID) Operand {
	return Operand{Kind: OpConst, Const: Const{Kind: ConstString, Type: ty, Str: s}}
}

// UnitOp builds the unit constant operand.
func UnitOp(ty types.TypeID) Operand {
	return Operand{Kind: OpConst, Const: Const{Kind: ConstUnit, Type: ty}}
}

// ProjKind enumerates place projections.
type ProjKind uint8

const (
	// ProjField selects a struct field or tuple element by index.
	ProjField ProjKind = iota
	// ProjIndex selects an array element by a runtime index.
	ProjIndex
)

// Proj is one step of a place projection chain.
type Proj struct {
	Kind  ProjKind
	Field int32
	Index Operand
}

// Place is an assignable location: a local, optionally narrowed by
// field and index projections.
type Place struct {
	Local LocalID
	Proj  []Proj
}

// RVKind enumerates rvalue forms.
type RVKind uint8

const (
	// RVUse copies an operand.
	RVUse RVKind = iota
	// RVUnary applies a unary operator to X.
	RVUnary
	// RVBinary applies a binary operator to X and Y.
	RVBinary
	// RVCall invokes a function with Args.
	RVCall
	// RVAggregate builds a tuple, array, struct, or enum value from
	// Elems; Tag is the variant index for enums, -1 otherwise.
	RVAggregate
	// RVField reads element Field of X.
	RVField
	// RVIndex reads element Y of X.
	RVIndex
	// RVCast converts X to Type.
	RVCast
	// RVStorageRead loads the slot named by Slot.
	RVStorageRead
	// RVTag reads the variant tag of the enum value X.
	RVTag
	// RVPayload reads element Field of variant Tag's payload of X.
	RVPayload
)

// RValue is the right-hand side of an assignment.
type RValue struct {
	Kind RVKind
	Type types.TypeID // result type

	X Operand
	Y Operand

	UnOp  ast.UnaryOp
	BinOp ast.BinaryOp

	Callee FuncID
	Args   []Operand

	Elems []Operand
	Tag   int32
	Field int32

	Slot string
}

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrNop does nothing; passes leave it behind when deleting.
	InstrNop InstrKind = iota
	// InstrAssign stores an rvalue into a place.
	InstrAssign
	// InstrStorageWrite stores Val into the slot named by Slot.
	InstrStorageWrite
)

// Instr is one non-terminator instruction.
type Instr struct {
	Kind InstrKind
	Span source.Span

	Dst Place
	Src RValue

	Slot string
	Val  Operand
}
