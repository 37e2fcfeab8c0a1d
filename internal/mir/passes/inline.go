package passes

import (
	"ember/internal/mir"
)

const (
	// inlineMaxInstrs bounds the callee body size.
	inlineMaxInstrs = 16
	// inlineMaxDepth bounds how many times inlining may expand one
	// caller across all rounds.
	inlineMaxDepth = 4
)

// inliner replaces small non-recursive calls with the callee's body.
// Depth accounting persists across rounds so chains of tiny functions
// cannot expand a caller without bound.
type inliner struct {
	mod       *mir.Module
	depth     map[mir.FuncID]int
	recursive map[mir.FuncID]bool
}

func newInliner(mod *mir.Module) *inliner {
	return &inliner{
		mod:   mod,
		depth: make(map[mir.FuncID]int),
	}
}

// refresh recomputes the recursion set from the current bodies. Run
// once per round; inlining only ever removes call edges.
func (il *inliner) refresh() {
	callees := make([][]mir.FuncID, len(il.mod.Funcs))
	for i, f := range il.mod.Funcs {
		for _, blk := range f.Blocks {
			for j := range blk.Instrs {
				in := &blk.Instrs[j]
				if in.Kind == mir.InstrAssign && in.Src.Kind == mir.RVCall {
					callees[i] = append(callees[i], in.Src.Callee)
				}
			}
		}
	}
	il.recursive = make(map[mir.FuncID]bool)
	for i := range il.mod.Funcs {
		if reaches(callees, mir.FuncID(i), mir.FuncID(i), make(map[mir.FuncID]bool)) {
			il.recursive[mir.FuncID(i)] = true
		}
	}
}

func reaches(callees [][]mir.FuncID, from, target mir.FuncID, seen map[mir.FuncID]bool) bool {
	for _, c := range callees[from] {
		if c == target {
			return true
		}
		if c < 0 || int(c) >= len(callees) || seen[c] {
			continue
		}
		seen[c] = true
		if reaches(callees, c, target, seen) {
			return true
		}
	}
	return false
}

func (il *inliner) run(f *mir.Func) bool {
	changed := false
	for il.depth[f.ID] < inlineMaxDepth {
		site, ok := il.findSite(f)
		if !ok {
			break
		}
		il.splice(f, site)
		il.depth[f.ID]++
		changed = true
	}
	return changed
}

type callSite struct {
	block  int
	instr  int
	callee *mir.Func
}

func (il *inliner) findSite(f *mir.Func) (callSite, bool) {
	for bi, blk := range f.Blocks {
		for ii := range blk.Instrs {
			in := &blk.Instrs[ii]
			if in.Kind != mir.InstrAssign || in.Src.Kind != mir.RVCall {
				continue
			}
			callee := il.mod.Func(in.Src.Callee)
			if callee == nil || callee.ID == f.ID || il.recursive[callee.ID] {
				continue
			}
			if instrCount(callee) > inlineMaxInstrs {
				continue
			}
			return callSite{block: bi, instr: ii, callee: callee}, true
		}
	}
	return callSite{}, false
}

func instrCount(f *mir.Func) int {
	n := 0
	for _, blk := range f.Blocks {
		n += len(blk.Instrs)
	}
	return n
}

// splice replaces one call with a copy of the callee's CFG. The call
// block is split at the call: its prefix assigns the arguments to the
// copied parameter locals and jumps to the copied entry; every copied
// return assigns the call destination and jumps to a join block that
// carries the call block's suffix and original terminator.
func (il *inliner) splice(f *mir.Func, site callSite) {
	blk := f.Blocks[site.block]
	call := blk.Instrs[site.instr]
	callee := site.callee

	localBase := mir.LocalID(len(f.Locals))
	for _, loc := range callee.Locals {
		f.NewLocal(loc.Type, loc.Name)
	}
	blockMap := make(map[mir.BlockID]mir.BlockID, len(callee.Blocks))
	for _, cb := range callee.Blocks {
		blockMap[cb.ID] = f.NewBlock().ID
	}
	join := f.NewBlock()

	suffix := append([]mir.Instr(nil), blk.Instrs[site.instr+1:]...)
	join.Instrs = suffix
	join.Term = blk.Term

	blk.Instrs = blk.Instrs[:site.instr:site.instr]
	for i, arg := range call.Src.Args {
		if i >= callee.Params {
			break
		}
		param := localBase + mir.LocalID(i)
		blk.Instrs = append(blk.Instrs, mir.Instr{
			Kind: mir.InstrAssign,
			Span: call.Span,
			Dst:  mir.Place{Local: param},
			Src:  mir.RValue{Kind: mir.RVUse, Type: f.Locals[param].Type, X: arg},
		})
	}
	blk.Term = mir.Goto(blockMap[callee.Entry])

	for _, cb := range callee.Blocks {
		dst := f.Blocks[blockMap[cb.ID]]
		dst.Instrs = make([]mir.Instr, len(cb.Instrs))
		for i := range cb.Instrs {
			dst.Instrs[i] = remapInstr(cb.Instrs[i], localBase)
		}
		switch cb.Term.Kind {
		case mir.TermGoto:
			dst.Term = mir.Goto(blockMap[cb.Term.To])
		case mir.TermIf:
			t := cb.Term
			remapOperand(&t.Cond, localBase)
			dst.Term = mir.If(t.Cond, blockMap[t.Then], blockMap[t.Else])
		case mir.TermReturn:
			v := cb.Term.Value
			remapOperand(&v, localBase)
			ret := mir.Place{Local: call.Dst.Local, Proj: append([]mir.Proj(nil), call.Dst.Proj...)}
			dst.Instrs = append(dst.Instrs, mir.Instr{
				Kind: mir.InstrAssign,
				Span: call.Span,
				Dst:  ret,
				Src:  mir.RValue{Kind: mir.RVUse, Type: call.Src.Type, X: v},
			})
			dst.Term = mir.Goto(join.ID)
		case mir.TermRevert:
			c := cb.Term.Code
			remapOperand(&c, localBase)
			dst.Term = mir.Revert(c)
		}
	}
}

func remapInstr(in mir.Instr, base mir.LocalID) mir.Instr {
	out := in
	switch in.Kind {
	case mir.InstrAssign:
		out.Dst.Local += base
		out.Dst.Proj = append([]mir.Proj(nil), in.Dst.Proj...)
		for i := range out.Dst.Proj {
			remapOperand(&out.Dst.Proj[i].Index, base)
		}
		out.Src = remapRValue(in.Src, base)
	case mir.InstrStorageWrite:
		remapOperand(&out.Val, base)
	}
	return out
}

func remapRValue(rv mir.RValue, base mir.LocalID) mir.RValue {
	out := rv
	remapOperand(&out.X, base)
	remapOperand(&out.Y, base)
	out.Args = append([]mir.Operand(nil), rv.Args...)
	for i := range out.Args {
		remapOperand(&out.Args[i], base)
	}
	out.Elems = append([]mir.Operand(nil), rv.Elems...)
	for i := range out.Elems {
		remapOperand(&out.Elems[i], base)
	}
	return out
}

func remapOperand(o *mir.Operand, base mir.LocalID) {
	if o.Kind == mir.OpLocal {
		o.Local += base
	}
}
