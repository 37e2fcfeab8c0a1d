package passes

import (
	"fmt"
	"strings"

	"ember/internal/mir"
)

// CSE eliminates repeated pure computations within a block: a second
// assignment computing an rvalue already held by a live local becomes
// a use of that local. Calls are never merged, and any storage write
// or call drops cached storage reads.
func CSE(f *mir.Func) bool {
	changed := false
	for _, blk := range f.Blocks {
		avail := make(map[string]cseEntry)
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			switch in.Kind {
			case mir.InstrAssign:
				if in.Src.Kind == mir.RVCall {
					dropStorageReads(avail)
				}
				if len(in.Dst.Proj) > 0 {
					dropUsing(avail, in.Dst.Local)
					continue
				}
				dst := in.Dst.Local
				key, uses, cacheable := cseKey(&in.Src)
				if cacheable {
					if prev, hit := avail[key]; hit {
						in.Src = mir.RValue{Kind: mir.RVUse, Type: in.Src.Type, X: mir.UseLocal(prev.dst)}
						changed = true
						dropUsing(avail, dst)
						continue
					}
				}
				dropUsing(avail, dst)
				if cacheable && !readsLocal(uses, dst) {
					avail[key] = cseEntry{dst: dst, uses: uses}
				}
			case mir.InstrStorageWrite:
				dropStorageReads(avail)
			}
		}
	}
	return changed
}

type cseEntry struct {
	dst  mir.LocalID
	uses []mir.LocalID
}

// dropUsing removes every cached expression that reads or is held by
// the redefined local.
func dropUsing(avail map[string]cseEntry, id mir.LocalID) {
	for key, e := range avail {
		if e.dst == id {
			delete(avail, key)
			continue
		}
		for _, u := range e.uses {
			if u == id {
				delete(avail, key)
				break
			}
		}
	}
}

func readsLocal(uses []mir.LocalID, id mir.LocalID) bool {
	for _, u := range uses {
		if u == id {
			return true
		}
	}
	return false
}

func dropStorageReads(avail map[string]cseEntry) {
	for key := range avail {
		if strings.HasPrefix(key, "sread|") {
			delete(avail, key)
		}
	}
}

// cseKey renders a pure rvalue into a structural key and collects the
// locals it reads. Calls and trivial uses are not worth caching.
func cseKey(rv *mir.RValue) (string, []mir.LocalID, bool) {
	var uses []mir.LocalID
	op := func(o *mir.Operand) string {
		if o.Kind == mir.OpLocal {
			uses = append(uses, o.Local)
			return fmt.Sprintf("l%d", o.Local)
		}
		switch o.Const.Kind {
		case mir.ConstUint:
			return fmt.Sprintf("u%d/%d", o.Const.Uint, o.Const.Type)
		case mir.ConstBool:
			return fmt.Sprintf("b%t", o.Const.Bool)
		case mir.ConstString:
			return "s" + o.Const.Str
		default:
			return "unit"
		}
	}
	switch rv.Kind {
	case mir.RVUnary:
		return fmt.Sprintf("un|%d|%s", rv.UnOp, op(&rv.X)), uses, true
	case mir.RVBinary:
		return fmt.Sprintf("bin|%d|%s|%s", rv.BinOp, op(&rv.X), op(&rv.Y)), uses, true
	case mir.RVField:
		return fmt.Sprintf("field|%d|%s", rv.Field, op(&rv.X)), uses, true
	case mir.RVIndex:
		return fmt.Sprintf("index|%s|%s", op(&rv.X), op(&rv.Y)), uses, true
	case mir.RVCast:
		return fmt.Sprintf("cast|%d|%s", rv.Type, op(&rv.X)), uses, true
	case mir.RVTag:
		return fmt.Sprintf("tag|%s", op(&rv.X)), uses, true
	case mir.RVPayload:
		return fmt.Sprintf("payload|%d|%d|%s", rv.Tag, rv.Field, op(&rv.X)), uses, true
	case mir.RVStorageRead:
		return "sread|" + rv.Slot, nil, true
	default:
		return "", nil, false
	}
}
