package passes

import (
	"ember/internal/mir"
)

// DeadStores removes assignments whose result no instruction or
// terminator ever reads, plus leftover nops. Calls stay even when
// their result is dead; they may write storage or revert.
func DeadStores(f *mir.Func) bool {
	changed := false
	for {
		uses := countUses(f)
		removed := false
		for _, blk := range f.Blocks {
			kept := blk.Instrs[:0]
			for i := range blk.Instrs {
				in := blk.Instrs[i]
				if in.Kind == mir.InstrNop {
					removed = true
					continue
				}
				if in.Kind == mir.InstrAssign && len(in.Dst.Proj) == 0 &&
					uses[in.Dst.Local] == 0 && in.Src.Kind != mir.RVCall {
					removed = true
					continue
				}
				kept = append(kept, in)
			}
			blk.Instrs = kept
		}
		if !removed {
			return changed
		}
		changed = true
	}
}

// countUses counts reads of every local across the whole function.
// Projected destinations count as reads of their root.
func countUses(f *mir.Func) []int {
	uses := make([]int, len(f.Locals))
	visit := func(id mir.LocalID) {
		if id.IsValid() && int(id) < len(uses) {
			uses[id]++
		}
	}
	visitOp := func(o *mir.Operand) {
		if o.Kind == mir.OpLocal {
			visit(o.Local)
		}
	}
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			switch in.Kind {
			case mir.InstrAssign:
				visitRValueOps(&in.Src, visitOp)
				if len(in.Dst.Proj) > 0 {
					visit(in.Dst.Local)
				}
				for j := range in.Dst.Proj {
					if in.Dst.Proj[j].Kind == mir.ProjIndex {
						visitOp(&in.Dst.Proj[j].Index)
					}
				}
			case mir.InstrStorageWrite:
				visitOp(&in.Val)
			}
		}
		switch blk.Term.Kind {
		case mir.TermIf:
			visitOp(&blk.Term.Cond)
		case mir.TermReturn:
			visitOp(&blk.Term.Value)
		case mir.TermRevert:
			visitOp(&blk.Term.Code)
		}
	}
	return uses
}

func visitRValueOps(rv *mir.RValue, visitOp func(*mir.Operand)) {
	switch rv.Kind {
	case mir.RVUse, mir.RVUnary, mir.RVCast, mir.RVField, mir.RVTag, mir.RVPayload:
		visitOp(&rv.X)
	case mir.RVBinary, mir.RVIndex:
		visitOp(&rv.X)
		visitOp(&rv.Y)
	case mir.RVCall:
		for i := range rv.Args {
			visitOp(&rv.Args[i])
		}
	case mir.RVAggregate:
		for i := range rv.Elems {
			visitOp(&rv.Elems[i])
		}
	}
}
