package vmgen

import (
	"strings"

	"ember/internal/ast"
	"ember/internal/bytecode"
	"ember/internal/mir"
	"ember/internal/source"
	"ember/internal/types"
)

func (fr *frame) genInstr(ins *mir.Instr) {
	switch ins.Kind {
	case mir.InstrNop:
	case mir.InstrAssign:
		fr.genAssign(ins)
	case mir.InstrStorageWrite:
		fr.genStorageWrite(ins)
	}
}

func (fr *frame) genAssign(ins *mir.Instr) {
	if len(ins.Dst.Proj) > 0 {
		val := fr.rvalueInto(&ins.Src, scratchC, ins.Span)
		fr.storeProjected(ins.Dst, val, ins.Span)
		return
	}
	if int(ins.Dst.Local) < fr.spillBase {
		fr.rvalue(&ins.Src, uint8(ins.Dst.Local), ins.Span)
		fr.touch(int(ins.Dst.Local))
		return
	}
	val := fr.rvalueInto(&ins.Src, scratchC, ins.Span)
	slot := uint32(int(ins.Dst.Local) - fr.spillBase)
	fr.emit(bytecode.Make(bytecode.OpSpill, val, 0, 0, slot))
}

// rvalueInto computes an rvalue into the given scratch register,
// skipping the copy when the value already sits in a register.
func (fr *frame) rvalueInto(rv *mir.RValue, scratch uint8, sp source.Span) uint8 {
	if rv.Kind == mir.RVUse && rv.X.Kind == mir.OpLocal && int(rv.X.Local) < fr.spillBase {
		fr.touch(int(rv.X.Local))
		return uint8(rv.X.Local)
	}
	fr.rvalue(rv, scratch, sp)
	return scratch
}

// storeProjected walks the projection chain and updates the selected
// element in place. Field and index loads along the chain yield views
// into the root aggregate, so no write-back is needed.
func (fr *frame) storeProjected(dst mir.Place, val uint8, sp source.Span) {
	cur := fr.localReg(dst.Local, scratchA)
	for i := 0; i < len(dst.Proj)-1; i++ {
		cur = fr.loadElem(cur, dst.Proj[i], scratchA, sp)
	}
	last := dst.Proj[len(dst.Proj)-1]
	switch last.Kind {
	case mir.ProjField:
		if last.Field <= 255 {
			fr.emit(bytecode.Make(bytecode.OpSetField, cur, uint8(last.Field), val, 0))
			return
		}
		idx := fr.fieldIndex(last.Field, scratchB, sp)
		fr.emit(bytecode.Make(bytecode.OpSetIndex, cur, idx, val, 0))
	case mir.ProjIndex:
		idx := fr.operand(last.Index, scratchB, sp)
		fr.emit(bytecode.Make(bytecode.OpSetIndex, cur, idx, val, 0))
	}
}

// loadElem loads one projection step into scratch as a shared view.
func (fr *frame) loadElem(src uint8, p mir.Proj, scratch uint8, sp source.Span) uint8 {
	fr.touch(int(scratch))
	switch p.Kind {
	case mir.ProjField:
		if p.Field <= 255 {
			fr.emit(bytecode.Make(bytecode.OpField, scratch, src, uint8(p.Field), 0))
			return scratch
		}
		idx := fr.fieldIndex(p.Field, scratchB, sp)
		fr.emit(bytecode.Make(bytecode.OpIndex, scratch, src, idx, 0))
	case mir.ProjIndex:
		idx := fr.operand(p.Index, scratchB, sp)
		fr.emit(bytecode.Make(bytecode.OpIndex, scratch, src, idx, 0))
	}
	return scratch
}

func (fr *frame) fieldIndex(field int32, scratch uint8, sp source.Span) uint8 {
	fr.touch(int(scratch))
	fr.emit(bytecode.Make(bytecode.OpLoadImm, scratch, 0, 0, uint32(field)))
	return scratch
}

// rvalue computes an rvalue into dst.
func (fr *frame) rvalue(rv *mir.RValue, dst uint8, sp source.Span) {
	fr.touch(int(dst))
	switch rv.Kind {
	case mir.RVUse:
		if rv.X.Kind == mir.OpConst {
			fr.loadConst(rv.X.Const, dst, sp)
			return
		}
		src := fr.localReg(rv.X.Local, scratchA)
		if src != dst {
			fr.emit(bytecode.Make(bytecode.OpMov, dst, src, 0, 0))
		}

	case mir.RVUnary:
		x := fr.operand(rv.X, scratchA, sp)
		switch rv.UnOp {
		case ast.UnaryNot:
			fr.emit(bytecode.Make(bytecode.OpNot, dst, x, 0, 0))
		case ast.UnaryNeg:
			fr.touch(scratchB)
			fr.emit(bytecode.Make(bytecode.OpLoadImm, scratchB, 0, 0, 0))
			fr.emit(bytecode.Make(bytecode.OpSub, dst, scratchB, x, 0))
			fr.wrap(dst, rv.Type)
		}

	case mir.RVBinary:
		x := fr.operand(rv.X, scratchA, sp)
		y := fr.operand(rv.Y, scratchB, sp)
		fr.emit(bytecode.Make(binOpcode(rv.BinOp), dst, x, y, 0))
		if !rv.BinOp.IsComparison() {
			fr.wrap(dst, rv.Type)
		}

	case mir.RVCall:
		for _, arg := range rv.Args {
			r := fr.operand(arg, scratchA, sp)
			fr.emit(bytecode.Make(bytecode.OpArg, r, 0, 0, 0))
		}
		fr.emit(bytecode.Make(bytecode.OpCall, dst, 0, 0, uint32(rv.Callee)))

	case mir.RVAggregate:
		tag := bytecode.TagNone
		if rv.Tag >= 0 {
			tag = uint16(rv.Tag)
		}
		fr.emit(bytecode.Make(bytecode.OpAggNew, dst, uint8(tag>>8), uint8(tag), uint32(len(rv.Elems))))
		for i, elem := range rv.Elems {
			r := fr.operand(elem, scratchA, sp)
			if i <= 255 {
				fr.emit(bytecode.Make(bytecode.OpAggSet, dst, uint8(i), r, 0))
				continue
			}
			idx := fr.fieldIndex(int32(i), scratchB, sp)
			fr.emit(bytecode.Make(bytecode.OpSetIndex, dst, idx, r, 0))
		}

	case mir.RVField:
		x := fr.operand(rv.X, scratchA, sp)
		v := fr.loadElem(x, mir.Proj{Kind: mir.ProjField, Field: rv.Field}, scratchC, sp)
		fr.emit(bytecode.Make(bytecode.OpMov, dst, v, 0, 0))

	case mir.RVIndex:
		x := fr.operand(rv.X, scratchA, sp)
		y := fr.operand(rv.Y, scratchB, sp)
		fr.touch(scratchC)
		fr.emit(bytecode.Make(bytecode.OpIndex, scratchC, x, y, 0))
		fr.emit(bytecode.Make(bytecode.OpMov, dst, scratchC, 0, 0))

	case mir.RVCast:
		x := fr.operand(rv.X, scratchA, sp)
		t, ok := fr.g.in.Lookup(rv.Type)
		if ok && t.Kind == types.KindUint && t.Width < types.Width64 {
			fr.emit(bytecode.Make(bytecode.OpCast, dst, x, 0, uint32(t.Width)))
			return
		}
		if x != dst {
			fr.emit(bytecode.Make(bytecode.OpMov, dst, x, 0, 0))
		}

	case mir.RVStorageRead:
		off := fr.g.keyOffset(rv.Slot, sp)
		fr.emit(bytecode.Make(bytecode.OpSRead, dst, 0, 0, off))

	case mir.RVTag:
		x := fr.operand(rv.X, scratchA, sp)
		fr.emit(bytecode.Make(bytecode.OpTag, dst, x, 0, 0))

	case mir.RVPayload:
		x := fr.operand(rv.X, scratchA, sp)
		v := fr.loadElem(x, mir.Proj{Kind: mir.ProjField, Field: rv.Field}, scratchC, sp)
		fr.emit(bytecode.Make(bytecode.OpMov, dst, v, 0, 0))
	}
}

// wrap truncates an arithmetic result to its declared width. Results
// at the full word width need no mask.
func (fr *frame) wrap(reg uint8, ty types.TypeID) {
	w := fr.widthOf(ty)
	if w < types.Width64 {
		fr.emit(bytecode.Make(bytecode.OpCast, reg, reg, 0, uint32(w)))
	}
}

func binOpcode(op ast.BinaryOp) bytecode.Op {
	switch op {
	case ast.BinAdd:
		return bytecode.OpAdd
	case ast.BinSub:
		return bytecode.OpSub
	case ast.BinMul:
		return bytecode.OpMul
	case ast.BinDiv:
		return bytecode.OpDiv
	case ast.BinRem:
		return bytecode.OpRem
	case ast.BinAnd, ast.BinBitAnd:
		return bytecode.OpBitAnd
	case ast.BinOr, ast.BinBitOr:
		return bytecode.OpBitOr
	case ast.BinBitXor:
		return bytecode.OpBitXor
	case ast.BinShl:
		return bytecode.OpShl
	case ast.BinShr:
		return bytecode.OpShr
	case ast.BinEq:
		return bytecode.OpEq
	case ast.BinNe:
		return bytecode.OpNe
	case ast.BinLt:
		return bytecode.OpLt
	case ast.BinLe:
		return bytecode.OpLe
	case ast.BinGt:
		return bytecode.OpGt
	case ast.BinGe:
		return bytecode.OpGe
	default:
		return bytecode.OpNop
	}
}

// genStorageWrite compiles a slot write. Writes to configurable slots
// in the initializer route the default through a patchable data word,
// so deployment tooling can override it without recompiling.
func (fr *frame) genStorageWrite(ins *mir.Instr) {
	if name, ok := strings.CutPrefix(ins.Slot, "configurable."); ok {
		fr.genConfigWrite(ins, name)
		return
	}
	val := fr.operand(ins.Val, scratchA, ins.Span)
	off := fr.g.keyOffset(ins.Slot, ins.Span)
	fr.emit(bytecode.Make(bytecode.OpSWrite, val, 0, 0, off))
}

func (fr *frame) genConfigWrite(ins *mir.Instr, name string) {
	keyOff := fr.g.keyOffset(ins.Slot, ins.Span)
	fr.touch(scratchA)
	if ins.Val.Kind == mir.OpConst {
		c := ins.Val.Const
		switch c.Kind {
		case mir.ConstUint, mir.ConstBool:
			v := c.Uint
			if c.Kind == mir.ConstBool && c.Bool {
				v = 1
			}
			off, ok := fr.g.data.MutableWord(v)
			if !ok {
				fr.g.reportDataFull(ins.Span)
			}
			fr.g.configOff[name] = off
			fr.emit(bytecode.Make(bytecode.OpLoadWord, scratchA, 0, 0, off))
			fr.emit(bytecode.Make(bytecode.OpSWrite, scratchA, 0, 0, keyOff))
			return
		case mir.ConstString:
			off := fr.g.str(c.Str, ins.Span)
			fr.g.configOff[name] = off
			fr.emit(bytecode.Make(bytecode.OpLoadStr, scratchA, 0, 0, off))
			fr.emit(bytecode.Make(bytecode.OpSWrite, scratchA, 0, 0, keyOff))
			return
		}
	}
	// Non-constant default: computed at deploy time, not patchable.
	val := fr.operand(ins.Val, scratchA, ins.Span)
	fr.emit(bytecode.Make(bytecode.OpSWrite, val, 0, 0, keyOff))
}

func (fr *frame) genTerm(t mir.Terminator, next mir.BlockID) {
	switch t.Kind {
	case mir.TermGoto:
		if t.To != next {
			at := fr.emit(bytecode.Make(bytecode.OpJump, 0, 0, 0, 0))
			fr.patches = append(fr.patches, jumpPatch{at: at, to: t.To})
		}
	case mir.TermIf:
		cond := fr.operand(t.Cond, scratchA, fr.fn.Span)
		at := fr.emit(bytecode.Make(bytecode.OpJumpIfZero, cond, 0, 0, 0))
		fr.patches = append(fr.patches, jumpPatch{at: at, to: t.Else})
		if t.Then != next {
			at = fr.emit(bytecode.Make(bytecode.OpJump, 0, 0, 0, 0))
			fr.patches = append(fr.patches, jumpPatch{at: at, to: t.Then})
		}
	case mir.TermReturn:
		r := fr.operand(t.Value, scratchA, fr.fn.Span)
		fr.emit(bytecode.Make(bytecode.OpRet, r, 0, 0, 0))
	case mir.TermRevert:
		r := fr.operand(t.Code, scratchA, fr.fn.Span)
		fr.emit(bytecode.Make(bytecode.OpRevert, r, 0, 0, 0))
	}
}
