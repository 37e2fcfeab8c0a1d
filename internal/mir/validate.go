package mir

import (
	"fmt"
)

// Validate checks the structural invariants lowering and every pass
// must preserve: each block carries exactly one terminator, every edge
// targets an existing block, operands reference declared locals, and
// every local read is preceded by a definition on all paths from the
// entry. Unreachable blocks are tolerated; DCE removes them.
func Validate(f *Func) error {
	if f.Block(f.Entry) == nil {
		return fmt.Errorf("%s: entry block b%d does not exist", f.Name, f.Entry)
	}
	for _, blk := range f.Blocks {
		if blk.Term.Kind == TermNone {
			return fmt.Errorf("%s: b%d has no terminator", f.Name, blk.ID)
		}
		for _, succ := range blk.Term.Succs(nil) {
			if f.Block(succ) == nil {
				return fmt.Errorf("%s: b%d jumps to missing block b%d", f.Name, blk.ID, succ)
			}
		}
	}
	if err := checkLocalRefs(f); err != nil {
		return err
	}
	return checkDefBeforeUse(f)
}

func checkLocalRefs(f *Func) error {
	check := func(blk *Block, id LocalID) error {
		if id < 0 || int(id) >= len(f.Locals) {
			return fmt.Errorf("%s: b%d references undeclared local l%d", f.Name, blk.ID, id)
		}
		return nil
	}
	for _, blk := range f.Blocks {
		var err error
		visit := func(id LocalID) {
			if err == nil {
				err = check(blk, id)
			}
		}
		for i := range blk.Instrs {
			eachInstrUse(&blk.Instrs[i], visit)
			if blk.Instrs[i].Kind == InstrAssign {
				visit(blk.Instrs[i].Dst.Local)
			}
		}
		eachTermUse(&blk.Term, visit)
		if err != nil {
			return err
		}
	}
	return nil
}

// checkDefBeforeUse runs a forward must-defined dataflow: a block's
// entry set is the intersection of its predecessors' exit sets, seeded
// with the parameters at the function entry.
func checkDefBeforeUse(f *Func) error {
	n := len(f.Blocks)
	preds := make([][]BlockID, n)
	for _, blk := range f.Blocks {
		for _, succ := range blk.Term.Succs(nil) {
			preds[succ] = append(preds[succ], blk.ID)
		}
	}
	in := make([][]bool, n)
	out := make([][]bool, n)
	for i := range f.Blocks {
		in[i] = newSet(len(f.Locals), BlockID(i) != f.Entry)
		out[i] = newSet(len(f.Locals), BlockID(i) != f.Entry)
	}
	for i := 0; i < f.Params; i++ {
		in[f.Entry][i] = true
	}
	changed := true
	for changed {
		changed = false
		for _, blk := range f.Blocks {
			id := blk.ID
			if id != f.Entry {
				for _, p := range preds[id] {
					intersect(in[id], out[p])
				}
			}
			next := append([]bool(nil), in[id]...)
			for i := range blk.Instrs {
				if d := fullDef(&blk.Instrs[i]); d.IsValid() {
					next[d] = true
				}
			}
			if !equalSet(out[id], next) {
				out[id] = next
				changed = true
			}
		}
	}
	for _, blk := range f.Blocks {
		defined := append([]bool(nil), in[blk.ID]...)
		var bad LocalID = NoLocalID
		visit := func(id LocalID) {
			if bad == NoLocalID && int(id) < len(defined) && !defined[id] {
				bad = id
			}
		}
		for i := range blk.Instrs {
			eachInstrUse(&blk.Instrs[i], visit)
			if bad != NoLocalID {
				return fmt.Errorf("%s: b%d reads l%d before any definition", f.Name, blk.ID, bad)
			}
			if d := fullDef(&blk.Instrs[i]); d.IsValid() {
				defined[d] = true
			}
		}
		eachTermUse(&blk.Term, visit)
		if bad != NoLocalID {
			return fmt.Errorf("%s: b%d reads l%d before any definition", f.Name, blk.ID, bad)
		}
	}
	return nil
}

// fullDef returns the local an instruction defines completely. A
// projected write updates part of an existing value and defines
// nothing new.
func fullDef(in *Instr) LocalID {
	if in.Kind == InstrAssign && len(in.Dst.Proj) == 0 {
		return in.Dst.Local
	}
	return NoLocalID
}

func eachOperandUse(o *Operand, visit func(LocalID)) {
	if o.Kind == OpLocal {
		visit(o.Local)
	}
}

func eachRValueUse(rv *RValue, visit func(LocalID)) {
	switch rv.Kind {
	case RVUse, RVUnary, RVCast, RVField, RVTag, RVPayload:
		eachOperandUse(&rv.X, visit)
	case RVBinary, RVIndex:
		eachOperandUse(&rv.X, visit)
		eachOperandUse(&rv.Y, visit)
	case RVCall:
		for i := range rv.Args {
			eachOperandUse(&rv.Args[i], visit)
		}
	case RVAggregate:
		for i := range rv.Elems {
			eachOperandUse(&rv.Elems[i], visit)
		}
	case RVStorageRead:
	}
}

func eachInstrUse(in *Instr, visit func(LocalID)) {
	switch in.Kind {
	case InstrAssign:
		eachRValueUse(&in.Src, visit)
		// A projected destination reads its root and index operands.
		if len(in.Dst.Proj) > 0 {
			visit(in.Dst.Local)
		}
		for i := range in.Dst.Proj {
			if in.Dst.Proj[i].Kind == ProjIndex {
				eachOperandUse(&in.Dst.Proj[i].Index, visit)
			}
		}
	case InstrStorageWrite:
		eachOperandUse(&in.Val, visit)
	}
}

func eachTermUse(t *Terminator, visit func(LocalID)) {
	switch t.Kind {
	case TermIf:
		eachOperandUse(&t.Cond, visit)
	case TermReturn:
		eachOperandUse(&t.Value, visit)
	case TermRevert:
		eachOperandUse(&t.Code, visit)
	}
}

func newSet(n int, full bool) []bool {
	s := make([]bool, n)
	if full {
		for i := range s {
			s[i] = true
		}
	}
	return s
}

func intersect(dst, src []bool) {
	for i := range dst {
		dst[i] = dst[i] && src[i]
	}
}

func equalSet(a, b []bool) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
