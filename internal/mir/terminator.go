package mir

// TermKind enumerates block terminators. TermNone marks a block still
// under construction; the validator rejects it.
type TermKind uint8

const (
	TermNone TermKind = iota
	// TermGoto jumps to To.
	TermGoto
	// TermIf branches on Cond to Then or Else.
	TermIf
	// TermReturn leaves the function with Value.
	TermReturn
	// TermRevert aborts the transaction with Code.
	TermRevert
)

func (k TermKind) String() string {
	switch k {
	case TermGoto:
		return "goto"
	case TermIf:
		return "if"
	case TermReturn:
		return "return"
	case TermRevert:
		return "revert"
	default:
		return "none"
	}
}

// Terminator ends a basic block.
type Terminator struct {
	Kind TermKind

	To BlockID // goto

	Cond Operand // if
	Then BlockID
	Else BlockID

	Value Operand // return

	Code Operand // revert
}

// Goto builds an unconditional jump.
func Goto(to BlockID) Terminator {
	return Terminator{Kind: TermGoto, To: to}
}

// If builds a conditional branch.
func If(cond Operand, then, els BlockID) Terminator {
	return Terminator{Kind: TermIf, Cond: cond, Then: then, Else: els}
}

// Return builds a function return.
func Return(v Operand) Terminator {
	return Terminator{Kind: TermReturn, Value: v}
}

// Revert builds a transaction abort.
func Revert(code Operand) Terminator {
	return Terminator{Kind: TermRevert, Code: code}
}

// Succs appends the terminator's successor blocks to dst.
func (t Terminator) Succs(dst []BlockID) []BlockID {
	switch t.Kind {
	case TermGoto:
		return append(dst, t.To)
	case TermIf:
		return append(dst, t.Then, t.Else)
	default:
		return dst
	}
}
