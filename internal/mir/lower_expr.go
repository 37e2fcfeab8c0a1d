package mir

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/sema"
	"ember/internal/symbols"
	"ember/internal/types"
)

// lowerExpr lowers one expression into instructions appended to the
// current block, yielding the operand that holds its value.
func (l *fnLower) lowerExpr(e *ast.Expr) Operand {
	if e == nil {
		return l.unitOp()
	}
	switch e.Kind {
	case ast.ExprLiteral:
		return l.lowerLiteral(e, e.Data.(*ast.LiteralData))
	case ast.ExprPath:
		return l.lowerPath(e)
	case ast.ExprQualified:
		if ref, ok := l.b.info.AssocRefs[e]; ok {
			return l.lowerAssocConst(e, ref)
		}
		l.errorAt(diag.TypeNotCallable, e.Span,
			"a qualified method reference has no value outside a call")
		return l.errOp()
	case ast.ExprStorage:
		return l.lowerStorageRead(e)
	case ast.ExprUnary:
		d := e.Data.(*ast.UnaryData)
		v := l.lowerExpr(d.Operand)
		return l.storeTemp(RValue{
			Kind: RVUnary, Type: l.typeOf(e), UnOp: d.Op, X: v,
		}, e.Span)
	case ast.ExprBinary:
		d := e.Data.(*ast.BinaryData)
		if d.Op.IsLogical() {
			return l.lowerShortCircuit(e, d)
		}
		x := l.lowerExpr(d.Left)
		y := l.lowerExpr(d.Right)
		return l.storeTemp(RValue{
			Kind: RVBinary, Type: l.typeOf(e), BinOp: d.Op, X: x, Y: y,
		}, e.Span)
	case ast.ExprCall:
		return l.lowerCall(e)
	case ast.ExprMethodCall:
		d := e.Data.(*ast.MethodCallData)
		recv := l.lowerExpr(d.Recv)
		return l.lowerDirectCall(e, e, d.Args, &recv)
	case ast.ExprField:
		d := e.Data.(*ast.FieldData)
		obj := l.lowerExpr(d.Object)
		idx, _, found := l.fieldOf(l.typeOf(d.Object), d.Name.Name)
		if !found {
			return l.errOp()
		}
		return l.storeTemp(RValue{
			Kind: RVField, Type: l.typeOf(e), X: obj, Field: idx,
		}, e.Span)
	case ast.ExprIndex:
		d := e.Data.(*ast.IndexData)
		obj := l.lowerExpr(d.Object)
		idx := l.lowerExpr(d.Index)
		return l.storeTemp(RValue{
			Kind: RVIndex, Type: l.typeOf(e), X: obj, Y: idx,
		}, e.Span)
	case ast.ExprStructLit:
		return l.lowerStructLit(e)
	case ast.ExprArrayLit:
		return l.lowerArrayLit(e)
	case ast.ExprTupleLit:
		d := e.Data.(*ast.TupleLitData)
		if len(d.Elems) == 0 {
			return l.unitOp()
		}
		elems := make([]Operand, len(d.Elems))
		for i, el := range d.Elems {
			elems[i] = l.lowerExpr(el)
		}
		return l.storeTemp(RValue{
			Kind: RVAggregate, Type: l.typeOf(e), Tag: -1, Elems: elems,
		}, e.Span)
	case ast.ExprIf:
		return l.lowerIf(e)
	case ast.ExprMatch:
		return l.lowerMatch(e)
	case ast.ExprBlock:
		return l.lowerBlockValue(e.Data.(*ast.BlockData).Block)
	case ast.ExprCast:
		d := e.Data.(*ast.CastData)
		v := l.lowerExpr(d.Value)
		return l.storeTemp(RValue{Kind: RVCast, Type: l.typeOf(e), X: v}, e.Span)
	default:
		return l.errOp()
	}
}

func (l *fnLower) lowerLiteral(e *ast.Expr, d *ast.LiteralData) Operand {
	switch d.Kind {
	case ast.LiteralBool:
		return BoolOp(d.Bool, l.b.in.Builtins().Bool)
	case ast.LiteralString:
		return StringOp(d.Value, l.b.in.Builtins().String)
	default:
		v, ok := sema.ParseIntLiteral(d.Text)
		if !ok {
			return l.errOp()
		}
		ty := l.typeOf(e)
		if t, found := l.b.in.Lookup(ty); !found || !t.IsUint() {
			ty = l.b.in.Builtins().U64
		}
		return UintOp(v, ty)
	}
}

func (l *fnLower) lowerPath(e *ast.Expr) Operand {
	d := e.Data.(*ast.PathData)
	segs := d.Path.Segments
	if len(segs) == 1 {
		if id, ok := l.lookupLocal(segs[0].Name); ok {
			return UseLocal(id)
		}
		if l.inst != nil {
			if v, ok := l.inst.ConstParam(segs[0].Name); ok {
				return UintOp(v, l.typeOf(e))
			}
		}
	}
	if ref, ok := l.b.info.AssocRefs[e]; ok {
		return l.lowerAssocConst(e, ref)
	}
	sym, ok := l.b.info.PathSyms[e]
	if !ok {
		return l.errOp()
	}
	s := l.b.table.Symbol(sym)
	switch s.Kind {
	case symbols.SymbolConst:
		return l.lowerConstRef(e, sym)
	case symbols.SymbolVariant:
		// A payloadless variant used as a value.
		return l.storeTemp(RValue{
			Kind: RVAggregate, Type: l.typeOf(e), Tag: int32(s.VariantIndex),
		}, e.Span)
	default:
		l.errorAt(diag.TypeNotCallable, e.Span,
			"'"+s.Name+"' has no runtime value outside a call")
		return l.errOp()
	}
}

// lowerConstRef inlines a module-level constant at its use site.
func (l *fnLower) lowerConstRef(e *ast.Expr, sym symbols.SymbolID) Operand {
	ci := l.b.info.Consts[sym]
	if ci == nil {
		return l.errOp()
	}
	ty := l.typeOf(e)
	if ci.HasVal {
		return UintOp(ci.Value, ty)
	}
	if op, ok := l.constLiteral(ci.Decl.Value, ty); ok {
		return op
	}
	return l.lowerDeclExpr(ci.Module, ci.Decl.Value)
}

// lowerAssocConst resolves an associated-constant read against the
// impl the concrete self type selects.
func (l *fnLower) lowerAssocConst(e *ast.Expr, ref *sema.AssocConstRef) Operand {
	self := ref.SelfTy
	if l.inst != nil {
		self = l.b.prog.Concrete(l.inst, self)
	}
	ty := l.typeOf(e)
	value, m, ok := l.findAssocConst(self, ref)
	if !ok {
		l.errorAt(diag.TypeUnknownAssoc, e.Span,
			"no value for the associated constant '"+ref.Name+"' is reachable here")
		return l.errOp()
	}
	if v, evald := l.b.evalUint(m, value); evald {
		return UintOp(v, ty)
	}
	if op, lit := l.constLiteral(value, ty); lit {
		return op
	}
	return l.lowerDeclExpr(m, value)
}

// findAssocConst locates the defining expression of an associated
// constant: the enclosing impl for Self:: references, then the impl
// matching the concrete self type, then the trait's default.
func (l *fnLower) findAssocConst(self types.TypeID, ref *sema.AssocConstRef) (*ast.Expr, symbols.ModuleID, bool) {
	if l.inst != nil && l.inst.Impl != nil {
		if ac, ok := l.inst.Impl.AssocConsts[ref.Name]; ok && ac.Value != nil {
			return ac.Value, l.inst.Impl.Module, true
		}
	}
	if ref.Trait != symbols.NoSymbolID {
		if impl, _, ok := l.b.info.FindTraitImpl(self, ref.Trait); ok {
			if ac, has := impl.AssocConsts[ref.Name]; has && ac.Value != nil {
				return ac.Value, impl.Module, true
			}
		}
		if trait := l.b.info.Traits[ref.Trait]; trait != nil {
			for i := range trait.AssocConsts {
				if ac := &trait.AssocConsts[i]; ac.Name == ref.Name && ac.Default != nil {
					return ac.Default, trait.Module, true
				}
			}
		}
		return nil, 0, false
	}
	for _, impl := range l.b.info.Impls {
		ac, has := impl.AssocConsts[ref.Name]
		if !has || ac.Value == nil {
			continue
		}
		if _, ok := l.b.info.MatchImpl(impl, self); ok {
			return ac.Value, impl.Module, true
		}
	}
	return nil, 0, false
}

// constLiteral lowers a literal initializer directly, bypassing the
// expression-type table for declaration-level expressions.
func (l *fnLower) constLiteral(e *ast.Expr, ty types.TypeID) (Operand, bool) {
	if e == nil || e.Kind != ast.ExprLiteral {
		return Operand{}, false
	}
	d := e.Data.(*ast.LiteralData)
	switch d.Kind {
	case ast.LiteralBool:
		return BoolOp(d.Bool, ty), true
	case ast.LiteralString:
		return StringOp(d.Value, ty), true
	default:
		v, ok := sema.ParseIntLiteral(d.Text)
		if !ok {
			return Operand{}, false
		}
		return UintOp(v, ty), true
	}
}

// lowerDeclExpr lowers a declaration-level expression inside the
// current function, with the local scope hidden so names resolve in
// the declaring module only.
func (l *fnLower) lowerDeclExpr(m symbols.ModuleID, e *ast.Expr) Operand {
	savedInst, savedModule, savedScopes := l.inst, l.module, l.scopes
	l.inst, l.module, l.scopes = nil, m, nil
	l.pushScope()
	op := l.lowerExpr(e)
	l.inst, l.module, l.scopes = savedInst, savedModule, savedScopes
	return op
}

func (l *fnLower) lowerStorageRead(e *ast.Expr) Operand {
	sd := e.Data.(*ast.StorageData)
	field, ok := l.storageField(sd, e.Span)
	if !ok {
		return l.errOp()
	}
	if !l.fn.Purity.CanRead() {
		l.errorAt(diag.PurityStorageRead, e.Span,
			"reading storage requires the 'reads' or 'writes' annotation")
	}
	v := l.storeTemp(RValue{
		Kind: RVStorageRead, Type: field.Type, Slot: field.Path,
	}, e.Span)
	ty := field.Type
	for _, f := range sd.Fields[1:] {
		idx, fty, found := l.fieldOf(ty, f.Name)
		if !found {
			return l.errOp()
		}
		v = l.storeTemp(RValue{Kind: RVField, Type: fty, X: v, Field: idx}, e.Span)
		ty = fty
	}
	return v
}

func (l *fnLower) lowerShortCircuit(e *ast.Expr, d *ast.BinaryData) Operand {
	boolTy := l.b.in.Builtins().Bool
	res := l.fn.NewLocal(boolTy, "")
	lhs := l.lowerExpr(d.Left)
	rhs := l.fn.NewBlock()
	short := l.fn.NewBlock()
	done := l.fn.NewBlock()
	shortVal := d.Op == ast.BinOr
	if d.Op == ast.BinAnd {
		l.seal(If(lhs, rhs.ID, short.ID))
	} else {
		l.seal(If(lhs, short.ID, rhs.ID))
	}
	l.startBlock(rhs)
	v := l.lowerExpr(d.Right)
	l.assign(Place{Local: res}, RValue{Kind: RVUse, Type: boolTy, X: v}, e.Span)
	l.seal(Goto(done.ID))
	l.startBlock(short)
	l.assign(Place{Local: res},
		RValue{Kind: RVUse, Type: boolTy, X: BoolOp(shortVal, boolTy)}, e.Span)
	l.seal(Goto(done.ID))
	l.startBlock(done)
	return UseLocal(res)
}

func (l *fnLower) lowerCall(e *ast.Expr) Operand {
	d := e.Data.(*ast.CallData)
	if d.Callee.Kind == ast.ExprPath {
		if sym, ok := l.b.info.PathSyms[d.Callee]; ok {
			s := l.b.table.Symbol(sym)
			switch s.Kind {
			case symbols.SymbolVariant:
				elems := make([]Operand, len(d.Args))
				for i, a := range d.Args {
					elems[i] = l.lowerExpr(a)
				}
				return l.storeTemp(RValue{
					Kind:  RVAggregate,
					Type:  l.typeOf(e),
					Tag:   int32(s.VariantIndex),
					Elems: elems,
				}, e.Span)
			case symbols.SymbolFn:
				return l.lowerDirectCall(e, e, d.Args, nil)
			}
		}
	}
	if d.Callee.Kind == ast.ExprQualified {
		if _, ok := l.b.info.Methods[d.Callee]; ok {
			return l.lowerDirectCall(e, d.Callee, d.Args, nil)
		}
	}
	l.errorAt(diag.TypeNotCallable, e.Span, "only named functions can be called")
	return l.errOp()
}

// lowerDirectCall emits a call to the instance the monomorphizer
// resolved for this site. keyExpr is the expression the edge was
// recorded under; recv, when present, becomes the leading argument.
func (l *fnLower) lowerDirectCall(call, keyExpr *ast.Expr, args []*ast.Expr, recv *Operand) Operand {
	inst, ok := l.b.prog.Callee(l.inst, keyExpr)
	if !ok {
		for _, a := range args {
			l.lowerExpr(a)
		}
		return l.errOp()
	}
	ops := make([]Operand, 0, len(args)+1)
	if recv != nil {
		ops = append(ops, *recv)
	}
	for _, a := range args {
		ops = append(ops, l.lowerExpr(a))
	}
	return l.storeTemp(RValue{
		Kind:   RVCall,
		Type:   l.typeOf(call),
		Callee: l.b.fnOf[inst],
		Args:   ops,
	}, call.Span)
}

func (l *fnLower) lowerStructLit(e *ast.Expr) Operand {
	d := e.Data.(*ast.StructLitData)
	ty := l.typeOf(e)
	st, ok := l.b.info.StructOf(ty)
	if !ok {
		for i := range d.Fields {
			l.lowerExpr(d.Fields[i].Value)
		}
		return l.errOp()
	}
	// Evaluate in source order, aggregate in declared order.
	byIndex := make([]Operand, len(st.FieldNames))
	for i := range d.Fields {
		init := &d.Fields[i]
		v := l.lowerExpr(init.Value)
		if idx := st.FieldIndex(init.Name.Name); idx >= 0 {
			byIndex[idx] = v
		}
	}
	return l.storeTemp(RValue{
		Kind: RVAggregate, Type: ty, Tag: -1, Elems: byIndex,
	}, e.Span)
}

func (l *fnLower) lowerArrayLit(e *ast.Expr) Operand {
	d := e.Data.(*ast.ArrayLitData)
	ty := l.typeOf(e)
	if d.Repeat != nil {
		v := l.lowerExpr(d.Elems[0])
		count := uint64(0)
		if t, ok := l.b.in.Lookup(ty); ok && t.Kind == types.KindArray &&
			t.CountParam == types.NoConstParam {
			count = t.Count
		}
		elems := make([]Operand, count)
		for i := range elems {
			elems[i] = v
		}
		return l.storeTemp(RValue{
			Kind: RVAggregate, Type: ty, Tag: -1, Elems: elems,
		}, e.Span)
	}
	elems := make([]Operand, len(d.Elems))
	for i, el := range d.Elems {
		elems[i] = l.lowerExpr(el)
	}
	return l.storeTemp(RValue{
		Kind: RVAggregate, Type: ty, Tag: -1, Elems: elems,
	}, e.Span)
}

func (l *fnLower) lowerIf(e *ast.Expr) Operand {
	d := e.Data.(*ast.IfData)
	ty := l.typeOf(e)
	res := l.fn.NewLocal(ty, "")
	cond := l.lowerExpr(d.Cond)
	thenB := l.fn.NewBlock()
	elseB := l.fn.NewBlock()
	done := l.fn.NewBlock()
	l.seal(If(cond, thenB.ID, elseB.ID))

	l.startBlock(thenB)
	v := l.lowerBlockValue(d.Then)
	l.assign(Place{Local: res}, RValue{Kind: RVUse, Type: ty, X: v}, e.Span)
	l.seal(Goto(done.ID))

	l.startBlock(elseB)
	ev := l.unitOp()
	if d.Else != nil {
		ev = l.lowerExpr(d.Else)
	}
	l.assign(Place{Local: res}, RValue{Kind: RVUse, Type: ty, X: ev}, e.Span)
	l.seal(Goto(done.ID))

	l.startBlock(done)
	return UseLocal(res)
}

// evalUint evaluates a declaration-level expression to a u64 where
// the checker's constant rules allow, without reporting.
func (b *builder) evalUint(m symbols.ModuleID, e *ast.Expr) (uint64, bool) {
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprLiteral:
		d := e.Data.(*ast.LiteralData)
		if d.Kind != ast.LiteralInt {
			return 0, false
		}
		return sema.ParseIntLiteral(d.Text)
	case ast.ExprPath:
		d := e.Data.(*ast.PathData)
		sym, ok := b.table.LookupPath(m, d.Path, diag.NopReporter{})
		if !ok {
			return 0, false
		}
		if ci := b.info.Consts[sym]; ci != nil && ci.HasVal {
			return ci.Value, true
		}
		return 0, false
	case ast.ExprBinary:
		d := e.Data.(*ast.BinaryData)
		x, xok := b.evalUint(m, d.Left)
		y, yok := b.evalUint(m, d.Right)
		if !xok || !yok {
			return 0, false
		}
		return sema.ConstBinOp(d.Op, x, y)
	case ast.ExprUnary:
		d := e.Data.(*ast.UnaryData)
		if d.Op != ast.UnaryNot {
			return 0, false
		}
		v, ok := b.evalUint(m, d.Operand)
		if !ok {
			return 0, false
		}
		return ^v, true
	case ast.ExprCast:
		return b.evalUint(m, e.Data.(*ast.CastData).Value)
	default:
		return 0, false
	}
}
