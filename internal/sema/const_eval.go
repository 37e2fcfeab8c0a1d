package sema

import (
	"strconv"
	"strings"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

// evalArrayLen evaluates an array-length expression. The result is
// either a concrete count or the index of a const generic parameter
// (returned via the second value with types.NoConstParam meaning
// "concrete").
func (c *checker) evalArrayLen(sc *genericScope, e *ast.Expr) (uint64, uint32, bool) {
	if e == nil {
		return 0, types.NoConstParam, false
	}
	switch e.Kind {
	case ast.ExprLiteral:
		lit := e.Data.(*ast.LiteralData)
		if lit.Kind != ast.LiteralInt {
			c.errorAt(diag.TypeConstMismatch, e.Span, "array length must be an integer").Emit()
			return 0, types.NoConstParam, false
		}
		v, ok := parseIntLiteral(lit.Text)
		if !ok {
			c.errorAt(diag.TypeConstMismatch, e.Span, "array length does not fit in u64").Emit()
			return 0, types.NoConstParam, false
		}
		return v, types.NoConstParam, true
	case ast.ExprPath:
		pd := e.Data.(*ast.PathData)
		if len(pd.Path.Segments) == 1 {
			if p, ok := sc.lookup(pd.Path.Segments[0].Name); ok && p.IsConst {
				return 0, p.Index, true
			}
		}
		// A module-level constant used as a length.
		sym, ok := c.table.LookupPath(sc.module, pd.Path, c.reporter)
		if !ok {
			return 0, types.NoConstParam, false
		}
		if ci, exists := c.info.Consts[sym]; exists && ci.HasVal {
			return ci.Value, types.NoConstParam, true
		}
		if v, ok := c.evalConstSymbol(sym, nil); ok {
			return v, types.NoConstParam, true
		}
		c.errorAt(diag.TypeConstMismatch, e.Span,
			"'"+pd.Path.String()+"' is not a compile-time integer constant").Emit()
		return 0, types.NoConstParam, false
	case ast.ExprBinary:
		bd := e.Data.(*ast.BinaryData)
		l, lp, lok := c.evalArrayLen(sc, bd.Left)
		r, rp, rok := c.evalArrayLen(sc, bd.Right)
		if !lok || !rok {
			return 0, types.NoConstParam, false
		}
		if lp != types.NoConstParam || rp != types.NoConstParam {
			c.errorAt(diag.TypeConstMismatch, e.Span,
				"arithmetic over const parameters is not supported in array lengths").Emit()
			return 0, types.NoConstParam, false
		}
		v, ok := applyConstBinOp(bd.Op, l, r)
		if !ok {
			c.errorAt(diag.TypeConstMismatch, e.Span, "constant expression overflows or divides by zero").Emit()
			return 0, types.NoConstParam, false
		}
		return v, types.NoConstParam, true
	default:
		c.errorAt(diag.TypeConstMismatch, e.Span, "array length must be a constant expression").Emit()
		return 0, types.NoConstParam, false
	}
}

// evalConstSymbol evaluates a module-level constant on demand, with
// the visiting set guarding against self-referential chains.
func (c *checker) evalConstSymbol(sym symbols.SymbolID, visiting map[symbols.SymbolID]bool) (uint64, bool) {
	s := c.table.Symbol(sym)
	if s.Kind != symbols.SymbolConst || s.Item == nil {
		return 0, false
	}
	if visiting[sym] {
		c.errorAt(diag.TypeAssocCycle, s.Span,
			"constant '"+s.Name+"' depends on itself").Emit()
		return 0, false
	}
	if visiting == nil {
		visiting = make(map[symbols.SymbolID]bool)
	}
	visiting[sym] = true
	defer delete(visiting, sym)

	decl := s.Item.Data.(*ast.ConstItem)
	return c.evalConstValue(s.Owner, decl.Value, visiting)
}

// evalConstValue evaluates a constant initializer to a u64 where
// possible. Non-integer constants simply report not-evaluable; they
// are still type-checked as ordinary expressions.
func (c *checker) evalConstValue(module symbols.ModuleID, e *ast.Expr, visiting map[symbols.SymbolID]bool) (uint64, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprLiteral:
		lit := e.Data.(*ast.LiteralData)
		if lit.Kind != ast.LiteralInt {
			return 0, false
		}
		return parseIntLiteral(lit.Text)
	case ast.ExprPath:
		pd := e.Data.(*ast.PathData)
		sym, ok := c.table.LookupPath(module, pd.Path, diag.NopReporter{})
		if !ok {
			return 0, false
		}
		return c.evalConstSymbol(sym, visiting)
	case ast.ExprBinary:
		bd := e.Data.(*ast.BinaryData)
		l, lok := c.evalConstValue(module, bd.Left, visiting)
		r, rok := c.evalConstValue(module, bd.Right, visiting)
		if !lok || !rok {
			return 0, false
		}
		return applyConstBinOp(bd.Op, l, r)
	case ast.ExprUnary:
		ud := e.Data.(*ast.UnaryData)
		if ud.Op == ast.UnaryNot {
			v, ok := c.evalConstValue(module, ud.Operand, visiting)
			if !ok {
				return 0, false
			}
			return ^v, true
		}
		return 0, false
	case ast.ExprCast:
		cd := e.Data.(*ast.CastData)
		return c.evalConstValue(module, cd.Value, visiting)
	default:
		return 0, false
	}
}

// ConstBinOp applies a binary operator over u64 constants with
// overflow and division-by-zero detection. Lowering folds constants
// with the same rules the checker uses.
func ConstBinOp(op ast.BinaryOp, l, r uint64) (uint64, bool) {
	return applyConstBinOp(op, l, r)
}

// ParseIntLiteral decodes an integer literal spelling as the lexer
// produced it; lowering reuses it to materialize literal operands.
func ParseIntLiteral(text string) (uint64, bool) {
	return parseIntLiteral(text)
}

func applyConstBinOp(op ast.BinaryOp, l, r uint64) (uint64, bool) {
	switch op {
	case ast.BinAdd:
		s := l + r
		return s, s >= l
	case ast.BinSub:
		return l - r, l >= r
	case ast.BinMul:
		if l == 0 || r == 0 {
			return 0, true
		}
		p := l * r
		return p, p/l == r
	case ast.BinDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case ast.BinRem:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case ast.BinBitAnd:
		return l & r, true
	case ast.BinBitOr:
		return l | r, true
	case ast.BinBitXor:
		return l ^ r, true
	case ast.BinShl:
		if r >= 64 {
			return 0, false
		}
		return l << r, true
	case ast.BinShr:
		if r >= 64 {
			return 0, false
		}
		return l >> r, true
	default:
		return 0, false
	}
}

// parseIntLiteral decodes a literal spelling (with optional width
// suffix and '_' separators) into a u64 value.
func parseIntLiteral(text string) (uint64, bool) {
	text = strings.TrimSuffix(text, suffixOf(text))
	text = strings.ReplaceAll(text, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base, text = 16, text[2:]
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		base, text = 2, text[2:]
	}
	v, err := strconv.ParseUint(text, base, 64)
	return v, err == nil
}

// suffixOf returns the width suffix of an integer literal spelling,
// or "".
func suffixOf(text string) string {
	for _, s := range [...]string{"u256", "u64", "u32", "u16", "u8"} {
		if strings.HasSuffix(text, s) && len(text) > len(s) {
			return s
		}
	}
	return ""
}
