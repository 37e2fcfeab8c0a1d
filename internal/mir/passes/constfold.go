package passes

import (
	"ember/internal/ast"
	"ember/internal/mir"
	"ember/internal/sema"
)

// ConstFold propagates constants within each block and folds operators
// with fully constant operands. Branches on a constant condition become
// gotos, which SimplifyCFG then prunes.
func ConstFold(f *mir.Func) bool {
	changed := false
	for _, blk := range f.Blocks {
		known := make(map[mir.LocalID]mir.Const)
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			switch in.Kind {
			case mir.InstrAssign:
				if substRValue(&in.Src, known) {
					changed = true
				}
				if foldRValue(&in.Src) {
					changed = true
				}
				if len(in.Dst.Proj) == 0 {
					if in.Src.Kind == mir.RVUse && in.Src.X.Kind == mir.OpConst {
						known[in.Dst.Local] = in.Src.X.Const
					} else {
						delete(known, in.Dst.Local)
					}
				} else {
					delete(known, in.Dst.Local)
					for j := range in.Dst.Proj {
						if substOperand(&in.Dst.Proj[j].Index, known) {
							changed = true
						}
					}
				}
			case mir.InstrStorageWrite:
				if substOperand(&in.Val, known) {
					changed = true
				}
			}
		}
		if substTerm(&blk.Term, known) {
			changed = true
		}
		if blk.Term.Kind == mir.TermIf && blk.Term.Cond.Kind == mir.OpConst {
			to := blk.Term.Else
			if blk.Term.Cond.Const.Bool {
				to = blk.Term.Then
			}
			blk.Term = mir.Goto(to)
			changed = true
		}
	}
	return changed
}

func substOperand(o *mir.Operand, known map[mir.LocalID]mir.Const) bool {
	if o.Kind != mir.OpLocal {
		return false
	}
	c, ok := known[o.Local]
	if !ok {
		return false
	}
	*o = mir.Operand{Kind: mir.OpConst, Const: c}
	return true
}

func substRValue(rv *mir.RValue, known map[mir.LocalID]mir.Const) bool {
	changed := false
	switch rv.Kind {
	case mir.RVUse, mir.RVUnary, mir.RVCast:
		changed = substOperand(&rv.X, known)
	case mir.RVBinary, mir.RVIndex:
		if substOperand(&rv.X, known) {
			changed = true
		}
		if substOperand(&rv.Y, known) {
			changed = true
		}
	case mir.RVCall:
		for i := range rv.Args {
			if substOperand(&rv.Args[i], known) {
				changed = true
			}
		}
	case mir.RVAggregate:
		for i := range rv.Elems {
			if substOperand(&rv.Elems[i], known) {
				changed = true
			}
		}
	}
	// Field, tag, and payload extraction see aggregate locals, never
	// scalar constants, so there is nothing to substitute there.
	return changed
}

func substTerm(t *mir.Terminator, known map[mir.LocalID]mir.Const) bool {
	switch t.Kind {
	case mir.TermIf:
		return substOperand(&t.Cond, known)
	case mir.TermReturn:
		return substOperand(&t.Value, known)
	case mir.TermRevert:
		return substOperand(&t.Code, known)
	}
	return false
}

// foldRValue rewrites an operator over constant operands into a plain
// constant use.
func foldRValue(rv *mir.RValue) bool {
	switch rv.Kind {
	case mir.RVUnary:
		if rv.X.Kind != mir.OpConst {
			return false
		}
		if rv.UnOp == ast.UnaryNot && rv.X.Const.Kind == mir.ConstBool {
			*rv = mir.RValue{Kind: mir.RVUse, Type: rv.Type, X: mir.BoolOp(!rv.X.Const.Bool, rv.Type)}
			return true
		}
	case mir.RVBinary:
		if rv.X.Kind != mir.OpConst || rv.Y.Kind != mir.OpConst {
			return false
		}
		x, y := rv.X.Const, rv.Y.Const
		if x.Kind == mir.ConstUint && y.Kind == mir.ConstUint {
			if rv.BinOp.IsComparison() {
				*rv = mir.RValue{Kind: mir.RVUse, Type: rv.Type,
					X: mir.BoolOp(compareUint(rv.BinOp, x.Uint, y.Uint), rv.Type)}
				return true
			}
			if v, ok := sema.ConstBinOp(rv.BinOp, x.Uint, y.Uint); ok {
				*rv = mir.RValue{Kind: mir.RVUse, Type: rv.Type, X: mir.UintOp(v, rv.Type)}
				return true
			}
			return false
		}
		if x.Kind == mir.ConstBool && y.Kind == mir.ConstBool {
			var v bool
			switch rv.BinOp {
			case ast.BinEq:
				v = x.Bool == y.Bool
			case ast.BinNe:
				v = x.Bool != y.Bool
			default:
				return false
			}
			*rv = mir.RValue{Kind: mir.RVUse, Type: rv.Type, X: mir.BoolOp(v, rv.Type)}
			return true
		}
	}
	return false
}

func compareUint(op ast.BinaryOp, l, r uint64) bool {
	switch op {
	case ast.BinEq:
		return l == r
	case ast.BinNe:
		return l != r
	case ast.BinLt:
		return l < r
	case ast.BinLe:
		return l <= r
	case ast.BinGt:
		return l > r
	default:
		return l >= r
	}
}
