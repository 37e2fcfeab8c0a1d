package mir

import (
	"fmt"
	"strings"

	"ember/internal/types"
)

// FormatFunc renders one function in a stable textual form, used by
// tests and the driver's debug dump.
func FormatFunc(in *types.Interner, f *Func) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s -> %s {\n", f.Name, in.String(f.Result))
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "b%d:\n", blk.ID)
		for i := range blk.Instrs {
			b.WriteString("  ")
			b.WriteString(formatInstr(in, &blk.Instrs[i]))
			b.WriteByte('\n')
		}
		b.WriteString("  ")
		b.WriteString(formatTerm(&blk.Term))
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

func formatInstr(in *types.Interner, instr *Instr) string {
	switch instr.Kind {
	case InstrAssign:
		return formatPlace(instr.Dst) + " = " + formatRValue(in, &instr.Src)
	case InstrStorageWrite:
		return "storage[" + instr.Slot + "] = " + formatOperand(&instr.Val)
	default:
		return "nop"
	}
}

func formatRValue(in *types.Interner, rv *RValue) string {
	switch rv.Kind {
	case RVUse:
		return formatOperand(&rv.X)
	case RVUnary:
		return rv.UnOp.String() + formatOperand(&rv.X)
	case RVBinary:
		return formatOperand(&rv.X) + " " + rv.BinOp.String() + " " + formatOperand(&rv.Y)
	case RVCall:
		parts := make([]string, len(rv.Args))
		for i := range rv.Args {
			parts[i] = formatOperand(&rv.Args[i])
		}
		return fmt.Sprintf("call f%d(%s)", rv.Callee, strings.Join(parts, ", "))
	case RVAggregate:
		parts := make([]string, len(rv.Elems))
		for i := range rv.Elems {
			parts[i] = formatOperand(&rv.Elems[i])
		}
		head := in.String(rv.Type)
		if rv.Tag >= 0 {
			head += fmt.Sprintf("#%d", rv.Tag)
		}
		return head + "{" + strings.Join(parts, ", ") + "}"
	case RVField:
		return fmt.Sprintf("%s.%d", formatOperand(&rv.X), rv.Field)
	case RVIndex:
		return formatOperand(&rv.X) + "[" + formatOperand(&rv.Y) + "]"
	case RVCast:
		return formatOperand(&rv.X) + " as " + in.String(rv.Type)
	case RVStorageRead:
		return "storage[" + rv.Slot + "]"
	case RVTag:
		return "tag " + formatOperand(&rv.X)
	case RVPayload:
		return fmt.Sprintf("payload %s#%d.%d", formatOperand(&rv.X), rv.Tag, rv.Field)
	default:
		return "?"
	}
}

func formatPlace(p Place) string {
	out := fmt.Sprintf("l%d", p.Local)
	for _, pr := range p.Proj {
		if pr.Kind == ProjField {
			out += fmt.Sprintf(".%d", pr.Field)
		} else {
			out += "[" + formatOperand(&pr.Index) + "]"
		}
	}
	return out
}

func formatOperand(o *Operand) string {
	if o.Kind == OpLocal {
		return fmt.Sprintf("l%d", o.Local)
	}
	switch o.Const.Kind {
	case ConstUint:
		return fmt.Sprintf("%d", o.Const.Uint)
	case ConstBool:
		return fmt.Sprintf("%t", o.Const.Bool)
	case ConstString:
		return fmt.Sprintf("%q", o.Const.Str)
	default:
		return "()"
	}
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermGoto:
		return fmt.Sprintf("goto b%d", t.To)
	case TermIf:
		return fmt.Sprintf("if %s then b%d else b%d", formatOperand(&t.Cond), t.Then, t.Else)
	case TermReturn:
		return "return " + formatOperand(&t.Value)
	case TermRevert:
		return "revert " + formatOperand(&t.Code)
	default:
		return "<unterminated>"
	}
}
