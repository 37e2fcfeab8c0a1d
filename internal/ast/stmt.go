package ast

import (
	"ember/internal/source"
)

// Block is a brace-delimited statement list with an optional tail
// expression that becomes the block's value.
type Block struct {
	Stmts []*Stmt
	Tail  *Expr // nil when the block ends with a statement
	Span  source.Span
}

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtLet represents 'let [mut] name [: T] = value;'.
	StmtLet StmtKind = iota
	// StmtExpr represents an expression statement.
	StmtExpr
	// StmtAssign represents 'place = value;'.
	StmtAssign
	// StmtReturn represents 'return [value];'.
	StmtReturn
	// StmtWhile represents 'while cond { }'.
	StmtWhile
	// StmtBreak represents 'break;'.
	StmtBreak
	// StmtContinue represents 'continue;'.
	StmtContinue
	// StmtRevert represents 'revert [code];'.
	StmtRevert
	// StmtError is the placeholder for a statement that failed to parse.
	StmtError
)

func (k StmtKind) String() string {
	switch k {
	case StmtLet:
		return "Let"
	case StmtExpr:
		return "Expr"
	case StmtAssign:
		return "Assign"
	case StmtReturn:
		return "Return"
	case StmtWhile:
		return "While"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtRevert:
		return "Revert"
	case StmtError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Stmt is one statement node.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the kind-specific payload of a Stmt.
type StmtData interface {
	stmtData()
}

// LetData holds data for StmtLet.
type LetData struct {
	Name  Ident
	Mut   bool
	Type  *TypeExpr // nil without annotation
	Value *Expr
}

func (*LetData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (*ExprStmtData) stmtData() {}

// AssignData holds data for StmtAssign. Place is restricted by sema to
// assignable expressions (path, field, index, storage access).
type AssignData struct {
	Place *Expr
	Value *Expr
}

func (*AssignData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (*ReturnData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (*WhileData) stmtData() {}

// RevertData holds data for StmtRevert.
type RevertData struct {
	Code *Expr // nil reverts with code 0
}

func (*RevertData) stmtData() {}

// EmptyData is shared by StmtBreak, StmtContinue, and StmtError.
type EmptyData struct{}

func (*EmptyData) stmtData() {}
