package vmgen

import (
	"math"

	"ember/internal/bytecode"
	"ember/internal/diag"
	"ember/internal/mir"
	"ember/internal/source"
	"ember/internal/types"
)

// The frame maps the first locals directly onto registers and spills
// the rest to stack slots. The top three registers are scratch, used
// to stage spilled locals, constants, and intermediate values.
const (
	maxLocalRegs = 253
	scratchA     = 253
	scratchB     = 254
	scratchC     = 255

	maxSpillSlots = math.MaxUint16
)

type jumpPatch struct {
	at int
	to mir.BlockID
}

type frame struct {
	g  *generator
	fn *mir.Func

	// spillBase is the first local index without a register of its own.
	spillBase int
	maxReg    int

	blockPos map[mir.BlockID]uint32
	patches  []jumpPatch
}

func (g *generator) genFunc(f *mir.Func) bytecode.FuncInfo {
	fr := &frame{
		g:         g,
		fn:        f,
		spillBase: min(len(f.Locals), maxLocalRegs),
		blockPos:  make(map[mir.BlockID]uint32),
	}
	slots := len(f.Locals) - fr.spillBase
	if f.Params > maxLocalRegs || slots > maxSpillSlots {
		g.errorf(diag.GenRegisterPressure, f.Span,
			"function %s needs %d locals, more than a frame can hold", f.Name, len(f.Locals))
		return bytecode.FuncInfo{Name: f.Name, Entry: uint32(len(g.code))}
	}
	if f.Params > 0 {
		fr.touch(f.Params - 1)
	}

	entry := len(g.code)
	order := layout(f)
	for i, id := range order {
		fr.blockPos[id] = uint32(len(g.code))
		next := mir.NoBlockID
		if i+1 < len(order) {
			next = order[i+1]
		}
		blk := f.Blocks[id]
		for j := range blk.Instrs {
			fr.genInstr(&blk.Instrs[j])
		}
		fr.genTerm(blk.Term, next)
	}
	for _, p := range fr.patches {
		g.patchImm(p.at, fr.blockPos[p.to])
	}

	return bytecode.FuncInfo{
		Name:   f.Name,
		Entry:  uint32(entry),
		Params: uint8(f.Params),
		Regs:   uint16(fr.maxReg + 1),
		Slots:  uint16(slots),
	}
}

// layout orders blocks by preorder walk preferring the then branch, so
// the hot fall-through edge usually needs no jump.
func layout(f *mir.Func) []mir.BlockID {
	seen := make([]bool, len(f.Blocks))
	order := make([]mir.BlockID, 0, len(f.Blocks))
	var visit func(id mir.BlockID)
	visit = func(id mir.BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || seen[id] {
			return
		}
		seen[id] = true
		order = append(order, id)
		t := f.Blocks[id].Term
		switch t.Kind {
		case mir.TermGoto:
			visit(t.To)
		case mir.TermIf:
			visit(t.Then)
			visit(t.Else)
		}
	}
	visit(f.Entry)
	return order
}

func (fr *frame) touch(reg int) {
	if reg > fr.maxReg {
		fr.maxReg = reg
	}
}

func (fr *frame) emit(in bytecode.Instr) int {
	return fr.g.emit(in)
}

// localReg returns the register holding a local, unspilling into
// scratch when the local lives on the stack.
func (fr *frame) localReg(id mir.LocalID, scratch uint8) uint8 {
	if int(id) < fr.spillBase {
		fr.touch(int(id))
		return uint8(id)
	}
	fr.touch(int(scratch))
	slot := uint32(int(id) - fr.spillBase)
	fr.emit(bytecode.Make(bytecode.OpUnspill, scratch, 0, 0, slot))
	return scratch
}

// operand materializes an operand into a register, using scratch for
// constants and spilled locals.
func (fr *frame) operand(op mir.Operand, scratch uint8, sp source.Span) uint8 {
	if op.Kind == mir.OpLocal {
		return fr.localReg(op.Local, scratch)
	}
	fr.loadConst(op.Const, scratch, sp)
	return scratch
}

func (fr *frame) loadConst(c mir.Const, dst uint8, sp source.Span) {
	fr.touch(int(dst))
	switch c.Kind {
	case mir.ConstUnit:
		fr.emit(bytecode.Make(bytecode.OpLoadImm, dst, 0, 0, 0))
	case mir.ConstBool:
		v := uint32(0)
		if c.Bool {
			v = 1
		}
		fr.emit(bytecode.Make(bytecode.OpLoadImm, dst, 0, 0, v))
	case mir.ConstUint:
		if c.Uint <= math.MaxUint32 {
			fr.emit(bytecode.Make(bytecode.OpLoadImm, dst, 0, 0, uint32(c.Uint)))
			return
		}
		off := fr.g.word(c.Uint, sp)
		fr.emit(bytecode.Make(bytecode.OpLoadWord, dst, 0, 0, off))
	case mir.ConstString:
		off := fr.g.str(c.Str, sp)
		fr.emit(bytecode.Make(bytecode.OpLoadStr, dst, 0, 0, off))
	}
}

// widthOf returns the wrap width for arithmetic on a type, 64 for
// everything that is not a narrow unsigned integer.
func (fr *frame) widthOf(id types.TypeID) types.Width {
	t, ok := fr.g.in.Lookup(id)
	if !ok || t.Kind != types.KindUint {
		return types.Width64
	}
	return t.Width
}
