package sema

import (
	"sort"
	"strconv"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// checkExpr infers the type of e. The expected type is a hint for
// literal defaulting and generic inference; the caller unifies the
// result where agreement is required.
func (c *checker) checkExpr(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	if e == nil {
		return c.builtins().Error
	}
	return c.record(fx, e, c.checkExprInner(fx, e, expected))
}

func (c *checker) checkExprInner(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	switch e.Kind {
	case ast.ExprLiteral:
		return c.checkLiteral(fx, e, expected)
	case ast.ExprPath:
		return c.checkPathExpr(fx, e, expected)
	case ast.ExprQualified:
		return c.checkQualifiedExpr(fx, e)
	case ast.ExprStorage:
		return c.checkStorageExpr(fx, e)
	case ast.ExprUnary:
		return c.checkUnary(fx, e, expected)
	case ast.ExprBinary:
		return c.checkBinary(fx, e, expected)
	case ast.ExprCall:
		return c.checkCall(fx, e, expected)
	case ast.ExprMethodCall:
		return c.checkMethodCall(fx, e, expected)
	case ast.ExprField:
		return c.checkField(fx, e)
	case ast.ExprIndex:
		return c.checkIndex(fx, e)
	case ast.ExprStructLit:
		return c.checkStructLit(fx, e, expected)
	case ast.ExprArrayLit:
		return c.checkArrayLit(fx, e, expected)
	case ast.ExprTupleLit:
		return c.checkTupleLit(fx, e, expected)
	case ast.ExprIf:
		return c.checkIf(fx, e, expected)
	case ast.ExprMatch:
		return c.checkMatch(fx, e, expected)
	case ast.ExprBlock:
		d := e.Data.(*ast.BlockData)
		return c.checkBlock(fx, d.Block, expected)
	case ast.ExprCast:
		return c.checkCast(fx, e)
	default:
		return c.builtins().Error
	}
}

func (c *checker) checkLiteral(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.LiteralData)
	switch d.Kind {
	case ast.LiteralBool:
		return c.builtins().Bool
	case ast.LiteralString:
		return c.builtins().String
	default:
		if suffix := suffixOf(d.Text); suffix != "" {
			ty, _ := c.in.Primitive(suffix)
			return ty
		}
		if expected.IsValid() {
			et, _ := c.in.Lookup(c.uni.ResolveDeep(expected))
			if et.IsUint() || et.Kind == types.KindB256 {
				return c.uni.ResolveDeep(expected)
			}
		}
		v := c.uni.Fresh()
		fx.pendingInts = append(fx.pendingInts, pendingInt{v: v, sp: e.Span})
		return v
	}
}

// checkPathExpr resolves names: locals, constants, enum variant
// constructors, and function references.
func (c *checker) checkPathExpr(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.PathData)
	segs := d.Path.Segments

	if len(segs) == 1 && len(d.Generics) == 0 {
		if l, ok := fx.locals.lookup(segs[0].Name); ok {
			return l.ty
		}
		if p, ok := fx.scope().lookup(segs[0].Name); ok && p.IsConst {
			if p.ConstType.IsValid() {
				return p.ConstType
			}
			return c.builtins().U64
		}
	}

	// Self::NAME picks an associated constant in impl or trait scope.
	if len(segs) == 2 && segs[0].Name == "Self" {
		if ty, ok := c.assocConstType(fx, segs[1].Name); ok {
			c.info.AssocRefs[e] = &AssocConstRef{
				SelfTy: c.builtins().SelfTy,
				Trait:  symbols.NoSymbolID,
				Name:   segs[1].Name,
			}
			return ty
		}
	}

	sym, ok := c.table.LookupPath(fx.module, d.Path, c.reporter)
	if !ok {
		return c.builtins().Error
	}
	c.info.PathSyms[e] = sym
	s := c.table.Symbol(sym)
	switch s.Kind {
	case symbols.SymbolConst:
		if ci := c.info.Consts[sym]; ci != nil {
			return ci.Type
		}
		return c.builtins().Error
	case symbols.SymbolFn:
		sig := c.info.FnSigs[sym]
		if sig == nil {
			return c.builtins().Error
		}
		return c.fnRefType(fx, e, sig, d.Generics)
	case symbols.SymbolVariant:
		return c.variantRefType(fx, e, s, d.Generics, expected, nil)
	default:
		c.errorAt(diag.TypeUnknown, e.Span,
			"'"+d.Path.String()+"' is a "+s.Kind.String()+" and cannot be used as a value").Emit()
		return c.builtins().Error
	}
}

// assocConstType finds Self::NAME in the enclosing impl or trait.
func (c *checker) assocConstType(fx *fnCtx, name string) (types.TypeID, bool) {
	if fx.impl != nil {
		if ac, ok := fx.impl.AssocConsts[name]; ok {
			return ac.Type, true
		}
		if fx.impl.Trait != nil {
			if trait := c.info.Traits[fx.impl.Trait.Trait]; trait != nil {
				for _, ac := range trait.AssocConsts {
					if ac.Name == name {
						return ac.Type, true
					}
				}
			}
		}
	}
	if fx.trait != nil {
		for _, ac := range fx.trait.AssocConsts {
			if ac.Name == name {
				return ac.Type, true
			}
		}
	}
	return types.NoTypeID, false
}

// fnRefType instantiates a bare function reference and records the
// substitution for monomorphization.
func (c *checker) fnRefType(fx *fnCtx, e *ast.Expr, sig *FnSig, explicit []*ast.TypeExpr) types.TypeID {
	ia, ok := c.instantiate(fx, sig.Generics, explicit, e.Span)
	if !ok {
		return c.builtins().Error
	}
	params := make([]types.TypeID, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = c.apply(p, ia)
	}
	ret := c.apply(sig.Result, ia)
	if len(sig.Generics) > 0 {
		fx.pendingCalls = append(fx.pendingCalls,
			pendingCall{expr: e, arity: len(sig.Generics), sub: ia.sub, sp: e.Span})
	}
	return c.in.Intern(types.MakeFn(params, ret))
}

// variantRefType types an enum variant reference: payloadless
// variants are values, payload variants are constructor functions.
func (c *checker) variantRefType(fx *fnCtx, e *ast.Expr, s *symbols.Symbol, explicit []*ast.TypeExpr, expected types.TypeID, payloadOut *[]types.TypeID) types.TypeID {
	enum := c.info.Enums[s.Enum]
	if enum == nil {
		return c.builtins().Error
	}
	sub, ok := c.instantiateNamed(fx, e, enum.Generics, explicit, expected, s.Enum)
	if !ok {
		return c.builtins().Error
	}
	enumTy := c.in.Intern(types.MakeNamed(uint32(s.Enum), c.table.Symbol(s.Enum).Name,
		c.namedArgs(enum.Generics, sub)))
	variant := enum.Variants[s.VariantIndex]
	if payloadOut != nil {
		payload := make([]types.TypeID, len(variant.Payload))
		for i, p := range variant.Payload {
			payload[i] = c.in.Substitute(p, sub)
		}
		*payloadOut = payload
		return enumTy
	}
	if len(variant.Payload) == 0 {
		return enumTy
	}
	params := make([]types.TypeID, len(variant.Payload))
	for i, p := range variant.Payload {
		params[i] = c.in.Substitute(p, sub)
	}
	return c.in.Intern(types.MakeFn(params, enumTy))
}

func (c *checker) checkQualifiedExpr(fx *fnCtx, e *ast.Expr) types.TypeID {
	d := e.Data.(*ast.QualifiedData)
	selfTy := c.resolveTypeExpr(fx.scope(), d.SelfType)
	bound, ok := c.resolveTraitRef(fx.scope(), &d.Trait)
	if !ok {
		return c.builtins().Error
	}
	trait := c.info.Traits[bound.Trait]
	if trait == nil {
		return c.builtins().Error
	}

	if want, isMethod := trait.Methods[d.Member.Name]; isMethod {
		target, ok := c.selectTraitMethod(fx, e, selfTy, bound, trait, d.Member.Name)
		if !ok {
			return c.builtins().Error
		}
		c.info.Methods[e] = target
		params := make([]types.TypeID, len(want.Params))
		for i, p := range want.Params {
			params[i] = c.replaceSelf(c.in.Substitute(p, target.Subst), selfTy)
		}
		ret := c.replaceSelf(c.in.Substitute(want.Result, target.Subst), selfTy)
		return c.in.Intern(types.MakeFn(params, ret))
	}
	for _, ac := range trait.AssocConsts {
		if ac.Name == d.Member.Name {
			c.info.AssocRefs[e] = &AssocConstRef{
				SelfTy: selfTy,
				Trait:  bound.Trait,
				Name:   ac.Name,
			}
			return c.replaceSelf(ac.Type, selfTy)
		}
	}
	c.errorAt(diag.TypeNoSuchMethod, e.Span,
		"trait '"+c.table.Symbol(bound.Trait).Name+"' has no member '"+d.Member.Name+"'").Emit()
	return c.builtins().Error
}

// checkStorageExpr types a storage access chain and enforces read
// purity at the use site.
func (c *checker) checkStorageExpr(fx *fnCtx, e *ast.Expr) types.TypeID {
	d := e.Data.(*ast.StorageData)
	if len(d.Fields) == 0 {
		c.errorAt(diag.ResUnknownName, e.Span, "storage access names no field").Emit()
		return c.builtins().Error
	}
	if !fx.sig.Purity.CanRead() {
		c.errorAt(diag.PurityStorageRead, e.Span,
			"accessing storage requires the 'reads' or 'writes' annotation").Emit()
	}
	field, ok := c.storageField(fx.module, d.Fields[0].Name, e)
	if !ok {
		return c.builtins().Error
	}
	ty := field.Type
	for _, f := range d.Fields[1:] {
		ty = c.fieldTypeOf(ty, f.Name, e)
		t, _ := c.in.Lookup(ty)
		if t.Kind == types.KindError {
			break
		}
	}
	return ty
}

// storageField finds a declared storage field by name, preferring the
// accessing module's own declarations.
func (c *checker) storageField(m symbols.ModuleID, name string, e *ast.Expr) (*StorageFieldInfo, bool) {
	hits := c.info.StorageCandidates(m, name)
	switch len(hits) {
	case 0:
		c.errorAt(diag.ResUnknownName, e.Span, "no storage field named '"+name+"'").Emit()
		return nil, false
	case 1:
		return hits[0], true
	default:
		b := c.errorAt(diag.ResAmbiguousName, e.Span,
			"storage field '"+name+"' is declared in more than one namespace")
		for _, h := range hits {
			if h.Init != nil {
				b = b.WithNote(h.Init.Span, "declared as '"+h.Path+"'")
			}
		}
		b.Emit()
		return nil, false
	}
}

func (c *checker) checkUnary(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.UnaryData)
	got := c.checkExpr(fx, d.Operand, expected)
	rt, _ := c.in.Lookup(c.uni.ResolveDeep(got))
	switch d.Op {
	case ast.UnaryNeg:
		if rt.Kind != types.KindError && rt.Kind != types.KindVar && !rt.IsUint() {
			c.errorAt(diag.TypeMismatch, e.Span,
				"operator '-' requires an unsigned integer, found '"+c.in.String(c.uni.ResolveDeep(got))+"'").Emit()
			return c.builtins().Error
		}
		return got
	default:
		if rt.Kind == types.KindBool || rt.IsUint() || rt.Kind == types.KindError || rt.Kind == types.KindVar {
			return got
		}
		c.errorAt(diag.TypeMismatch, e.Span,
			"operator '!' requires bool or an unsigned integer, found '"+c.in.String(c.uni.ResolveDeep(got))+"'").Emit()
		return c.builtins().Error
	}
}

func (c *checker) checkBinary(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.BinaryData)
	switch {
	case d.Op.IsLogical():
		l := c.checkExpr(fx, d.Left, c.builtins().Bool)
		c.unifyAt(fx, d.Left.Span, c.builtins().Bool, l, "operand of '"+d.Op.String()+"' has type")
		r := c.checkExpr(fx, d.Right, c.builtins().Bool)
		c.unifyAt(fx, d.Right.Span, c.builtins().Bool, r, "operand of '"+d.Op.String()+"' has type")
		return c.builtins().Bool
	case d.Op.IsComparison():
		l := c.checkExpr(fx, d.Left, types.NoTypeID)
		r := c.checkExpr(fx, d.Right, l)
		c.unifyAt(fx, e.Span, l, r, "right operand of '"+d.Op.String()+"' has type")
		return c.builtins().Bool
	default:
		l := c.checkExpr(fx, d.Left, expected)
		r := c.checkExpr(fx, d.Right, l)
		c.unifyAt(fx, e.Span, l, r, "right operand of '"+d.Op.String()+"' has type")
		return l
	}
}

func (c *checker) checkField(fx *fnCtx, e *ast.Expr) types.TypeID {
	d := e.Data.(*ast.FieldData)
	obj := c.uni.ResolveDeep(c.checkExpr(fx, d.Object, types.NoTypeID))
	return c.fieldTypeOf(obj, d.Name.Name, e)
}

// fieldTypeOf projects a struct field or tuple element out of a type.
func (c *checker) fieldTypeOf(obj types.TypeID, name string, e *ast.Expr) types.TypeID {
	t, _ := c.in.Lookup(obj)
	switch t.Kind {
	case types.KindError:
		return obj
	case types.KindTuple:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= len(t.Args) {
			c.errorAt(diag.TypeNoSuchField, e.Span,
				"'"+c.in.String(obj)+"' has no element '"+name+"'").Emit()
			return c.builtins().Error
		}
		return t.Args[idx]
	case types.KindNamed:
		st, ok := c.info.Structs[symbols.SymbolID(t.Sym)]
		if !ok {
			break
		}
		idx := st.FieldIndex(name)
		if idx < 0 {
			c.errorAt(diag.TypeNoSuchField, e.Span,
				"'"+c.in.String(obj)+"' has no field '"+name+"'").Emit()
			return c.builtins().Error
		}
		return c.in.Substitute(st.FieldTypes[idx], c.substForNamed(st.Generics, t.Args))
	}
	c.errorAt(diag.TypeNoSuchField, e.Span,
		"'"+c.in.String(obj)+"' has no fields").Emit()
	return c.builtins().Error
}

func (c *checker) checkIndex(fx *fnCtx, e *ast.Expr) types.TypeID {
	d := e.Data.(*ast.IndexData)
	obj := c.uni.ResolveDeep(c.checkExpr(fx, d.Object, types.NoTypeID))
	idx := c.checkExpr(fx, d.Index, c.builtins().U64)
	c.unifyAt(fx, d.Index.Span, c.builtins().U64, idx, "index has type")
	t, _ := c.in.Lookup(obj)
	switch t.Kind {
	case types.KindError:
		return obj
	case types.KindArray:
		return t.Elem
	default:
		c.errorAt(diag.TypeMismatch, e.Span,
			"'"+c.in.String(obj)+"' cannot be indexed").Emit()
		return c.builtins().Error
	}
}

func (c *checker) checkStructLit(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.StructLitData)
	sym, ok := c.table.LookupPath(fx.module, d.Path, c.reporter)
	if !ok {
		return c.builtins().Error
	}
	st, isStruct := c.info.Structs[sym]
	if !isStruct {
		c.errorAt(diag.TypeUnknown, e.Span,
			"'"+d.Path.String()+"' is not a struct").Emit()
		return c.builtins().Error
	}
	c.info.PathSyms[e] = sym
	sub, ok := c.instantiateNamed(fx, e, st.Generics, d.Generics, expected, sym)
	if !ok {
		return c.builtins().Error
	}

	seen := make(map[string]bool, len(d.Fields))
	for _, init := range d.Fields {
		idx := st.FieldIndex(init.Name.Name)
		if idx < 0 {
			c.errorAt(diag.TypeNoSuchField, init.Name.Span,
				"'"+d.Path.String()+"' has no field '"+init.Name.Name+"'").Emit()
			c.checkExpr(fx, init.Value, types.NoTypeID)
			continue
		}
		if seen[init.Name.Name] {
			c.errorAt(diag.TypeNoSuchField, init.Name.Span,
				"field '"+init.Name.Name+"' is initialized twice").Emit()
			continue
		}
		seen[init.Name.Name] = true
		want := c.in.Substitute(st.FieldTypes[idx], sub)
		got := c.checkExpr(fx, init.Value, want)
		c.unifyAt(fx, init.Value.Span, want, got, "field '"+init.Name.Name+"' has type")
	}
	for _, name := range st.FieldNames {
		if !seen[name] {
			c.errorAt(diag.TypeNoSuchField, e.Span,
				"missing field '"+name+"' in literal of '"+d.Path.String()+"'").Emit()
		}
	}
	return c.in.Intern(types.MakeNamed(uint32(sym), c.table.Symbol(sym).Name,
		c.namedArgs(st.Generics, sub)))
}

// namedArgs encodes a substitution back into a named type's argument
// list, with const values as unit-element array descriptors.
func (c *checker) namedArgs(generics []GenericParam, sub types.Subst) []types.TypeID {
	args := make([]types.TypeID, len(generics))
	for i := range generics {
		idx := generics[i].Index
		if generics[i].IsConst {
			v := uint64(0)
			if int(idx) < len(sub.Consts) {
				v = sub.Consts[idx]
			}
			args[i] = c.in.Intern(types.MakeArray(c.builtins().Unit, v))
			continue
		}
		if int(idx) < len(sub.Types) {
			args[i] = sub.Types[idx]
		} else {
			args[i] = c.builtins().Error
		}
	}
	return args
}

func (c *checker) checkArrayLit(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.ArrayLitData)
	elemExpected := types.NoTypeID
	if expected.IsValid() {
		if et, _ := c.in.Lookup(c.uni.ResolveDeep(expected)); et.Kind == types.KindArray {
			elemExpected = et.Elem
		}
	}
	if d.Repeat != nil {
		elem := c.checkExpr(fx, d.Elems[0], elemExpected)
		count, param, ok := c.evalArrayLen(fx.scope(), d.Repeat)
		if !ok {
			return c.builtins().Error
		}
		if param != types.NoConstParam {
			return c.in.Intern(types.MakeArrayParam(elem, param))
		}
		return c.in.Intern(types.MakeArray(elem, count))
	}
	if len(d.Elems) == 0 {
		if elemExpected.IsValid() {
			return c.in.Intern(types.MakeArray(elemExpected, 0))
		}
		c.errorAt(diag.TypeAmbiguousLiteral, e.Span,
			"cannot infer the element type of an empty array").Emit()
		return c.builtins().Error
	}
	elem := c.checkExpr(fx, d.Elems[0], elemExpected)
	for _, el := range d.Elems[1:] {
		got := c.checkExpr(fx, el, elem)
		c.unifyAt(fx, el.Span, elem, got, "array element has type")
	}
	return c.in.Intern(types.MakeArray(elem, uint64(len(d.Elems))))
}

func (c *checker) checkTupleLit(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.TupleLitData)
	if len(d.Elems) == 0 {
		return c.builtins().Unit
	}
	var elemExpected []types.TypeID
	if expected.IsValid() {
		if et, _ := c.in.Lookup(c.uni.ResolveDeep(expected)); et.Kind == types.KindTuple && len(et.Args) == len(d.Elems) {
			elemExpected = et.Args
		}
	}
	elems := make([]types.TypeID, len(d.Elems))
	for i, el := range d.Elems {
		hint := types.NoTypeID
		if elemExpected != nil {
			hint = elemExpected[i]
		}
		elems[i] = c.checkExpr(fx, el, hint)
	}
	return c.in.Intern(types.MakeTuple(elems))
}

func (c *checker) checkIf(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.IfData)
	cond := c.checkExpr(fx, d.Cond, c.builtins().Bool)
	c.unifyAt(fx, d.Cond.Span, c.builtins().Bool, cond, "if condition has type")
	thenTy := c.checkBlock(fx, d.Then, expected)
	if d.Else == nil {
		c.unifyAt(fx, d.Then.Span, c.builtins().Unit, thenTy,
			"if without else evaluates to")
		return c.builtins().Unit
	}
	elseTy := c.checkExpr(fx, d.Else, thenTy)
	return c.meet(fx, e, thenTy, elseTy)
}

// meet joins two branch types; never yields to the other branch.
func (c *checker) meet(fx *fnCtx, e *ast.Expr, a, b types.TypeID) types.TypeID {
	at, _ := c.in.Lookup(c.uni.ResolveDeep(a))
	bt, _ := c.in.Lookup(c.uni.ResolveDeep(b))
	if at.Kind == types.KindNever {
		return b
	}
	if bt.Kind == types.KindNever {
		return a
	}
	c.unifyAt(fx, e.Span, a, b, "branches disagree; this branch has type")
	return a
}

func (c *checker) checkMatch(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.MatchData)
	scrut := c.checkExpr(fx, d.Scrutinee, types.NoTypeID)

	result := types.NoTypeID
	for i := range d.Arms {
		arm := &d.Arms[i]
		saved := fx.locals
		fx.locals = newLocalScope(saved)
		c.checkPattern(fx, arm.Pattern, scrut)
		if arm.Guard != nil {
			got := c.checkExpr(fx, arm.Guard, c.builtins().Bool)
			c.unifyAt(fx, arm.Guard.Span, c.builtins().Bool, got, "match guard has type")
		}
		hint := expected
		if result.IsValid() {
			hint = result
		}
		bodyTy := c.checkExpr(fx, arm.Body, hint)
		fx.locals = saved

		if !result.IsValid() {
			result = bodyTy
			continue
		}
		result = c.meet(fx, arm.Body, result, bodyTy)
	}
	if !result.IsValid() {
		return c.builtins().Never
	}
	return result
}

func (c *checker) checkCast(fx *fnCtx, e *ast.Expr) types.TypeID {
	d := e.Data.(*ast.CastData)
	target := c.resolveTypeExpr(fx.scope(), d.Type)
	got := c.uni.ResolveDeep(c.checkExpr(fx, d.Value, target))
	gt, _ := c.in.Lookup(got)
	tt, _ := c.in.Lookup(target)
	if gt.Kind == types.KindError || tt.Kind == types.KindError {
		return target
	}
	castable := func(t types.Type) bool {
		return t.IsUint() || t.Kind == types.KindB256 || t.Kind == types.KindBool || t.Kind == types.KindVar
	}
	if !castable(gt) || !castable(tt) {
		c.errorAt(diag.TypeBadCast, e.Span,
			"cannot cast '"+c.in.String(got)+"' to '"+c.in.String(target)+"'").Emit()
		return c.builtins().Error
	}
	return target
}
