package ast

import (
	"ember/internal/source"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents int, bool, and string literals.
	ExprLiteral ExprKind = iota
	// ExprPath represents a (possibly qualified) name reference,
	// including enum variant constructors and turbofish generics.
	ExprPath
	// ExprQualified represents '<Type as Trait>::member'.
	ExprQualified
	// ExprStorage represents a 'storage.a.b' access path.
	ExprStorage
	// ExprUnary represents '-x' and '!x'.
	ExprUnary
	// ExprBinary represents binary operators.
	ExprBinary
	// ExprCall represents 'callee(args)'.
	ExprCall
	// ExprMethodCall represents 'recv.name(args)'.
	ExprMethodCall
	// ExprField represents 'expr.field' (struct field or tuple index).
	ExprField
	// ExprIndex represents 'expr[index]'.
	ExprIndex
	// ExprStructLit represents 'Type { field: value, ... }'.
	ExprStructLit
	// ExprArrayLit represents '[a, b, c]' and '[v; N]'.
	ExprArrayLit
	// ExprTupleLit represents '(a, b)' ('()' is the unit literal).
	ExprTupleLit
	// ExprIf represents 'if cond { } else { }' used as a value.
	ExprIf
	// ExprMatch represents 'match scrutinee { arms }'.
	ExprMatch
	// ExprBlock represents a block used as a value.
	ExprBlock
	// ExprCast represents 'expr as Type'.
	ExprCast
	// ExprError is the placeholder for an expression that failed to
	// parse; it types as the error type and unifies with anything.
	ExprError
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprPath:
		return "Path"
	case ExprQualified:
		return "Qualified"
	case ExprStorage:
		return "Storage"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprMethodCall:
		return "MethodCall"
	case ExprField:
		return "Field"
	case ExprIndex:
		return "Index"
	case ExprStructLit:
		return "StructLit"
	case ExprArrayLit:
		return "ArrayLit"
	case ExprTupleLit:
		return "TupleLit"
	case ExprIf:
		return "If"
	case ExprMatch:
		return "Match"
	case ExprBlock:
		return "Block"
	case ExprCast:
		return "Cast"
	case ExprError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Expr is one expression node.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is the kind-specific payload of an Expr.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal categories.
type LiteralKind uint8

const (
	// LiteralInt is an integer literal; Text keeps the exact source
	// spelling including any width suffix.
	LiteralInt LiteralKind = iota
	// LiteralBool is 'true' or 'false'.
	LiteralBool
	// LiteralString is a string literal with escapes decoded.
	LiteralString
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind  LiteralKind
	Text  string
	Bool  bool
	Value string // decoded string value for LiteralString
}

func (*LiteralData) exprData() {}

// PathData holds data for ExprPath. Generics carries turbofish
// arguments ('identity::<u64>').
type PathData struct {
	Path     Path
	Generics []*TypeExpr
}

func (*PathData) exprData() {}

// QualifiedData holds data for ExprQualified:
// '<Type as Trait>::member' disambiguation syntax.
type QualifiedData struct {
	SelfType *TypeExpr
	Trait    TraitRef
	Member   Ident
}

func (*QualifiedData) exprData() {}

// StorageData holds data for ExprStorage: the field path after the
// 'storage' keyword. Whether it reads or writes is decided by position
// (assignment target vs. operand) during lowering.
type StorageData struct {
	Fields []Ident
}

// AccessPath renders the canonical textual path used for slot hashing,
// e.g. "storage.counter" or "storage::ns.counter".
func (d *StorageData) AccessPath(namespace string) string {
	out := "storage"
	if namespace != "" {
		out += "::" + namespace
	}
	for _, f := range d.Fields {
		out += "." + f.Name
	}
	return out
}

func (*StorageData) exprData() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	// UnaryNeg is arithmetic negation.
	UnaryNeg UnaryOp = iota
	// UnaryNot is logical/bitwise not.
	UnaryNot
)

func (op UnaryOp) String() string {
	if op == UnaryNeg {
		return "-"
	}
	return "!"
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (*UnaryData) exprData() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	// BinAdd is '+'.
	BinAdd BinaryOp = iota
	// BinSub is '-'.
	BinSub
	// BinMul is '*'.
	BinMul
	// BinDiv is '/'.
	BinDiv
	// BinRem is '%'.
	BinRem
	// BinAnd is '&&'.
	BinAnd
	// BinOr is '||'.
	BinOr
	// BinBitAnd is '&'.
	BinBitAnd
	// BinBitOr is '|'.
	BinBitOr
	// BinBitXor is '^'.
	BinBitXor
	// BinShl is '<<'.
	BinShl
	// BinShr is '>>'.
	BinShr
	// BinEq is '=='.
	BinEq
	// BinNe is '!='.
	BinNe
	// BinLt is '<'.
	BinLt
	// BinLe is '<='.
	BinLe
	// BinGt is '>'.
	BinGt
	// BinGe is '>='.
	BinGe
)

var binOpNames = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinAnd: "&&", BinOr: "||", BinBitAnd: "&", BinBitOr: "|",
	BinBitXor: "^", BinShl: "<<", BinShr: ">>",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// IsComparison reports whether the operator yields bool from two
// same-typed operands.
func (op BinaryOp) IsComparison() bool {
	return op >= BinEq
}

// IsLogical reports whether the operator is '&&' or '||'.
func (op BinaryOp) IsLogical() bool {
	return op == BinAnd || op == BinOr
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (*BinaryData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (*CallData) exprData() {}

// MethodCallData holds data for ExprMethodCall.
type MethodCallData struct {
	Recv     *Expr
	Name     Ident
	Generics []*TypeExpr
	Args     []*Expr
}

func (*MethodCallData) exprData() {}

// FieldData holds data for ExprField. For tuple indexing Name is the
// decimal index spelling.
type FieldData struct {
	Object *Expr
	Name   Ident
}

func (*FieldData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (*IndexData) exprData() {}

// FieldInit is one initializer inside a struct literal.
type FieldInit struct {
	Name  Ident
	Value *Expr
}

// StructLitData holds data for ExprStructLit.
type StructLitData struct {
	Path     Path
	Generics []*TypeExpr
	Fields   []FieldInit
}

func (*StructLitData) exprData() {}

// ArrayLitData holds data for ExprArrayLit. Repeat != nil means the
// '[value; length]' form, with Elems holding the single value.
type ArrayLitData struct {
	Elems  []*Expr
	Repeat *Expr // length expression of the repeat form
}

func (*ArrayLitData) exprData() {}

// TupleLitData holds data for ExprTupleLit.
type TupleLitData struct {
	Elems []*Expr
}

func (*TupleLitData) exprData() {}

// IfData holds data for ExprIf. Else may be nil, another If (else-if
// chain), or a Block.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Expr // nil, ExprIf, or ExprBlock
}

func (*IfData) exprData() {}

// MatchArm is one arm of a match expression.
type MatchArm struct {
	Pattern *Pattern
	Guard   *Expr // nil without 'if' guard
	Body    *Expr
	Span    source.Span
}

// MatchData holds data for ExprMatch.
type MatchData struct {
	Scrutinee *Expr
	Arms      []MatchArm
}

func (*MatchData) exprData() {}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Block *Block
}

func (*BlockData) exprData() {}

// CastData holds data for ExprCast.
type CastData struct {
	Value *Expr
	Type  *TypeExpr
}

func (*CastData) exprData() {}

// ErrorData holds data for ExprError.
type ErrorData struct{}

func (*ErrorData) exprData() {}
