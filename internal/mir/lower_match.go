package mir

import (
	"ember/internal/ast"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/types"
)

// lowerMatch lowers a match expression into a chain of per-arm test
// blocks: each arm tests the scrutinee's tags, then its fields, then
// the guard, falling through to the next arm on any failure. A match
// that exhausts every arm reverts with code 1; an exhaustive match
// never reaches that block.
func (l *fnLower) lowerMatch(e *ast.Expr) Operand {
	d := e.Data.(*ast.MatchData)
	scrut := l.lowerExpr(d.Scrutinee)
	sty := l.typeOf(d.Scrutinee)
	ty := l.typeOf(e)
	res := l.fn.NewLocal(ty, "")
	done := l.fn.NewBlock()

	for i := range d.Arms {
		arm := &d.Arms[i]
		fail := l.fn.NewBlock()
		l.pushScope()
		l.lowerPatternTest(arm.Pattern, scrut, sty, fail.ID)
		if arm.Guard != nil {
			g := l.lowerExpr(arm.Guard)
			l.branchTrue(g, fail.ID)
		}
		v := l.lowerExpr(arm.Body)
		l.assign(Place{Local: res}, RValue{Kind: RVUse, Type: ty, X: v}, arm.Span)
		l.seal(Goto(done.ID))
		l.popScope()
		l.startBlock(fail)
	}
	l.seal(Revert(UintOp(1, l.b.in.Builtins().U64)))
	l.startBlock(done)
	return UseLocal(res)
}

// branchTrue continues in a fresh block when cond holds, jumping to
// fail otherwise.
func (l *fnLower) branchTrue(cond Operand, fail BlockID) {
	next := l.fn.NewBlock()
	l.seal(If(cond, next.ID, fail))
	l.startBlock(next)
}

// lowerPatternTest emits the tests and bindings for matching val
// (of concrete type ty) against pat, branching to fail on mismatch.
func (l *fnLower) lowerPatternTest(pat *ast.Pattern, val Operand, ty types.TypeID, fail BlockID) {
	if pat == nil {
		return
	}
	switch pat.Kind {
	case ast.PatWildcard, ast.PatError:
		return
	case ast.PatBinding:
		d := pat.Data.(*ast.BindingPat)
		// A bare name spelling a payloadless variant of the scrutinee's
		// enum tests the tag instead of binding.
		if enum, ok := l.b.info.EnumOf(ty); ok {
			if idx := enum.VariantIndex(d.Name.Name); idx >= 0 &&
				len(enum.Variants[idx].Payload) == 0 {
				l.testTag(val, idx, fail, pat.Span)
				return
			}
		}
		id := l.fn.NewLocal(ty, d.Name.Name)
		l.assign(Place{Local: id}, RValue{Kind: RVUse, Type: ty, X: val}, pat.Span)
		l.bind(d.Name.Name, id)
	case ast.PatLiteral:
		d := pat.Data.(*ast.LiteralPat)
		want, ok := l.literalOperand(&d.Literal, ty)
		if !ok {
			return
		}
		cmp := l.storeTemp(RValue{
			Kind:  RVBinary,
			Type:  l.b.in.Builtins().Bool,
			BinOp: ast.BinEq,
			X:     val,
			Y:     want,
		}, pat.Span)
		l.branchTrue(cmp, fail)
	case ast.PatTuple:
		d := pat.Data.(*ast.TuplePat)
		t, ok := l.b.in.Lookup(ty)
		if !ok || t.Kind != types.KindTuple || len(t.Args) != len(d.Elems) {
			return
		}
		for i, el := range d.Elems {
			elem := l.storeTemp(RValue{
				Kind: RVField, Type: t.Args[i], X: val, Field: int32(i),
			}, pat.Span)
			l.lowerPatternTest(el, elem, t.Args[i], fail)
		}
	case ast.PatStruct:
		l.lowerStructPattern(pat, val, ty, fail)
	case ast.PatVariant:
		l.lowerVariantPattern(pat, val, ty, fail)
	}
}

func (l *fnLower) testTag(val Operand, variant int, fail BlockID, sp source.Span) {
	u64 := l.b.in.Builtins().U64
	tag := l.storeTemp(RValue{Kind: RVTag, Type: u64, X: val}, sp)
	cmp := l.storeTemp(RValue{
		Kind:  RVBinary,
		Type:  l.b.in.Builtins().Bool,
		BinOp: ast.BinEq,
		X:     tag,
		Y:     UintOp(uint64(variant), u64),
	}, sp)
	l.branchTrue(cmp, fail)
}

func (l *fnLower) lowerStructPattern(pat *ast.Pattern, val Operand, ty types.TypeID, fail BlockID) {
	d := pat.Data.(*ast.StructPat)
	st, ok := l.b.info.StructOf(ty)
	if !ok {
		return
	}
	t, _ := l.b.in.Lookup(ty)
	sub := l.namedSubst(st.Generics, t)
	for i := range d.Fields {
		f := &d.Fields[i]
		idx := st.FieldIndex(f.Name.Name)
		if idx < 0 {
			continue
		}
		fty := l.b.in.Substitute(st.FieldTypes[idx], sub)
		elem := l.storeTemp(RValue{
			Kind: RVField, Type: fty, X: val, Field: int32(idx),
		}, pat.Span)
		l.lowerPatternTest(f.Pattern, elem, fty, fail)
	}
}

func (l *fnLower) lowerVariantPattern(pat *ast.Pattern, val Operand, ty types.TypeID, fail BlockID) {
	d := pat.Data.(*ast.VariantPat)
	enum, ok := l.b.info.EnumOf(ty)
	if !ok || len(d.Path.Segments) == 0 {
		return
	}
	name := d.Path.Segments[len(d.Path.Segments)-1].Name
	idx := enum.VariantIndex(name)
	if idx < 0 {
		return
	}
	l.testTag(val, idx, fail, pat.Span)
	variant := &enum.Variants[idx]
	if len(d.Payload) != len(variant.Payload) {
		return
	}
	t, _ := l.b.in.Lookup(ty)
	sub := l.namedSubst(enum.Generics, t)
	for j, p := range d.Payload {
		pty := l.b.in.Substitute(variant.Payload[j], sub)
		elem := l.storeTemp(RValue{
			Kind:  RVPayload,
			Type:  pty,
			X:     val,
			Tag:   int32(idx),
			Field: int32(j),
		}, pat.Span)
		l.lowerPatternTest(p, elem, pty, fail)
	}
}

func (l *fnLower) literalOperand(d *ast.LiteralData, ty types.TypeID) (Operand, bool) {
	switch d.Kind {
	case ast.LiteralBool:
		return BoolOp(d.Bool, l.b.in.Builtins().Bool), true
	case ast.LiteralString:
		return StringOp(d.Value, l.b.in.Builtins().String), true
	default:
		v, ok := sema.ParseIntLiteral(d.Text)
		if !ok {
			return Operand{}, false
		}
		return UintOp(v, ty), true
	}
}
