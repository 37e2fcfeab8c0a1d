package sema

import (
	"strconv"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// instArgs is a substitution under construction: consts become usable
// only once inference or explicit arguments pin them.
type instArgs struct {
	sub      types.Subst
	constSet []bool
}

// instantiate opens an item's generics for one use site: explicit
// arguments where given, fresh inference variables otherwise.
func (c *checker) instantiate(fx *fnCtx, generics []GenericParam, explicit []*ast.TypeExpr, sp source.Span) (instArgs, bool) {
	size := 0
	for i := range generics {
		if int(generics[i].Index)+1 > size {
			size = int(generics[i].Index) + 1
		}
	}
	ia := instArgs{
		sub: types.Subst{
			Types:  make([]types.TypeID, size),
			Consts: make([]uint64, size),
		},
		constSet: make([]bool, size),
	}
	if len(explicit) != 0 && len(explicit) != len(generics) {
		c.errorAt(diag.TypeArityMismatch, sp,
			"expected "+strconv.Itoa(len(generics))+" generic argument(s), found "+
				strconv.Itoa(len(explicit))).Emit()
		return ia, false
	}
	for i := range generics {
		idx := generics[i].Index
		if generics[i].IsConst {
			if len(explicit) != 0 {
				v, ok := c.explicitConstArg(fx, explicit[i])
				if !ok {
					return ia, false
				}
				ia.sub.Consts[idx] = v
				ia.constSet[idx] = true
			}
			continue
		}
		if len(explicit) != 0 {
			ia.sub.Types[idx] = c.resolveTypeExpr(fx.scope(), explicit[i])
		} else {
			ia.sub.Types[idx] = c.uni.Fresh()
		}
	}
	return ia, true
}

// explicitConstArg evaluates a turbofish argument for a const
// parameter; the parser delivers it as a type spelling the value.
func (c *checker) explicitConstArg(fx *fnCtx, te *ast.TypeExpr) (uint64, bool) {
	if nt, ok := te.Data.(*ast.NamedType); ok && len(nt.Path.Segments) == 1 {
		name := nt.Path.Segments[0].Name
		if v, ok := parseIntLiteral(name); ok {
			return v, true
		}
		if sym, ok := c.table.LookupPath(fx.module, nt.Path, diag.NopReporter{}); ok {
			if v, ok := c.evalConstSymbol(sym, nil); ok {
				return v, true
			}
		}
	}
	c.errorAt(diag.TypeConstMismatch, te.Span,
		"expected a compile-time constant for this parameter").Emit()
	return 0, false
}

// apply substitutes a declared type through the open arguments,
// leaving symbolic array lengths alone until their consts are pinned.
func (c *checker) apply(id types.TypeID, ia instArgs) types.TypeID {
	t, ok := c.in.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case types.KindParam:
		if int(t.Sym) < len(ia.sub.Types) && ia.sub.Types[t.Sym].IsValid() {
			return ia.sub.Types[t.Sym]
		}
		return id
	case types.KindArray:
		nt := t
		nt.Elem = c.apply(t.Elem, ia)
		if t.CountParam != types.NoConstParam &&
			int(t.CountParam) < len(ia.constSet) && ia.constSet[t.CountParam] {
			nt.Count = ia.sub.Consts[t.CountParam]
			nt.CountParam = types.NoConstParam
		}
		if nt.Elem == t.Elem && nt.CountParam == t.CountParam {
			return id
		}
		return c.in.Intern(nt)
	case types.KindTuple, types.KindNamed, types.KindFn:
		if len(t.Args) == 0 {
			return id
		}
		args := make([]types.TypeID, len(t.Args))
		changed := false
		for i, a := range t.Args {
			args[i] = c.apply(a, ia)
			changed = changed || args[i] != a
		}
		if !changed {
			return id
		}
		nt := t
		nt.Args = args
		return c.in.Intern(nt)
	default:
		return id
	}
}

// hasOpenConst reports whether id mentions a const parameter the
// arguments have not pinned yet.
func (c *checker) hasOpenConst(id types.TypeID, ia instArgs) bool {
	t, ok := c.in.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case types.KindArray:
		if t.CountParam != types.NoConstParam {
			if int(t.CountParam) >= len(ia.constSet) || !ia.constSet[t.CountParam] {
				return true
			}
		}
		return c.hasOpenConst(t.Elem, ia)
	case types.KindTuple, types.KindNamed, types.KindFn:
		for _, a := range t.Args {
			if c.hasOpenConst(a, ia) {
				return true
			}
		}
	}
	return false
}

// pinConsts extracts const arguments by matching a declared parameter
// type against the inferred argument type.
func (c *checker) pinConsts(declared, got types.TypeID, ia *instArgs) {
	pt, _ := c.in.Lookup(declared)
	gt, _ := c.in.Lookup(c.uni.ResolveDeep(got))
	switch pt.Kind {
	case types.KindArray:
		if pt.CountParam != types.NoConstParam && gt.Kind == types.KindArray &&
			gt.CountParam == types.NoConstParam {
			idx := int(pt.CountParam)
			if idx < len(ia.constSet) && !ia.constSet[idx] {
				ia.sub.Consts[idx] = gt.Count
				ia.constSet[idx] = true
			}
		}
		if gt.Kind == types.KindArray {
			c.pinConsts(pt.Elem, gt.Elem, ia)
		}
	case types.KindTuple, types.KindNamed, types.KindFn:
		if gt.Kind == pt.Kind && len(gt.Args) == len(pt.Args) {
			for i := range pt.Args {
				c.pinConsts(pt.Args[i], gt.Args[i], ia)
			}
		}
	}
}

// instantiateNamed opens a struct or enum's generics, preferring an
// expected type of the same head to guide inference.
func (c *checker) instantiateNamed(fx *fnCtx, e *ast.Expr, generics []GenericParam, explicit []*ast.TypeExpr, expected types.TypeID, sym symbols.SymbolID) (types.Subst, bool) {
	ia, ok := c.instantiate(fx, generics, explicit, e.Span)
	if !ok {
		return types.Subst{}, false
	}
	if len(explicit) == 0 && expected.IsValid() {
		et, _ := c.in.Lookup(c.uni.ResolveDeep(expected))
		if et.Kind == types.KindNamed && et.Sym == uint32(sym) && len(et.Args) == len(generics) {
			return c.substForNamed(generics, et.Args), true
		}
	}
	for i := range generics {
		if generics[i].IsConst && !ia.constSet[generics[i].Index] {
			c.errorAt(diag.TypeConstMismatch, e.Span,
				"cannot infer const parameter '"+generics[i].Name+"'; spell it explicitly").Emit()
			return types.Subst{}, false
		}
	}
	return ia.sub, true
}

// substForNamed decodes the argument list of an instantiated named
// type back into a substitution over the declaration's generics.
func (c *checker) substForNamed(generics []GenericParam, args []types.TypeID) types.Subst {
	sub := types.Subst{
		Types:  make([]types.TypeID, len(args)),
		Consts: make([]uint64, len(args)),
	}
	copy(sub.Types, args)
	for i := range generics {
		if !generics[i].IsConst {
			continue
		}
		idx := generics[i].Index
		if int(idx) >= len(args) {
			continue
		}
		if at, ok := c.in.Lookup(args[idx]); ok && at.Kind == types.KindArray {
			sub.Consts[idx] = at.Count
		}
		sub.Types[idx] = types.NoTypeID
	}
	return sub
}

// checkCall types a call expression. Path and qualified callees get
// dedicated handling so generic arguments infer from the arguments;
// anything else must already have a function type.
func (c *checker) checkCall(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.CallData)
	if d.Callee.Kind == ast.ExprPath {
		pd := d.Callee.Data.(*ast.PathData)
		if ty, handled := c.checkPathCall(fx, e, d, pd, expected); handled {
			return ty
		}
	}
	callee := c.uni.ResolveDeep(c.checkExpr(fx, d.Callee, types.NoTypeID))
	ct, _ := c.in.Lookup(callee)
	switch ct.Kind {
	case types.KindError:
		for _, a := range d.Args {
			c.checkExpr(fx, a, types.NoTypeID)
		}
		return callee
	case types.KindFn:
		params := ct.FnParams()
		if len(d.Args) != len(params) {
			c.errorAt(diag.TypeArityMismatch, e.Span,
				"expected "+strconv.Itoa(len(params))+" argument(s), found "+
					strconv.Itoa(len(d.Args))).Emit()
			return ct.FnReturn()
		}
		for i, a := range d.Args {
			got := c.checkExpr(fx, a, params[i])
			c.unifyAt(fx, a.Span, params[i], got, "argument has type")
		}
		return ct.FnReturn()
	default:
		c.errorAt(diag.TypeNotCallable, e.Span,
			"'"+c.in.String(callee)+"' is not callable").Emit()
		for _, a := range d.Args {
			c.checkExpr(fx, a, types.NoTypeID)
		}
		return c.builtins().Error
	}
}

// checkPathCall handles 'path(args)' when the path names a function
// or an enum variant constructor. Returns handled=false when the
// path is something else (a local holding a function value).
func (c *checker) checkPathCall(fx *fnCtx, e *ast.Expr, d *ast.CallData, pd *ast.PathData, expected types.TypeID) (types.TypeID, bool) {
	segs := pd.Path.Segments
	if len(segs) == 1 && len(pd.Generics) == 0 {
		if _, isLocal := fx.locals.lookup(segs[0].Name); isLocal {
			return types.NoTypeID, false
		}
	}
	sym, ok := c.table.LookupPath(fx.module, pd.Path, c.reporter)
	if !ok {
		c.record(fx, d.Callee, c.builtins().Error)
		for _, a := range d.Args {
			c.checkExpr(fx, a, types.NoTypeID)
		}
		return c.builtins().Error, true
	}
	s := c.table.Symbol(sym)
	switch s.Kind {
	case symbols.SymbolFn:
		c.info.PathSyms[d.Callee] = sym
		sig := c.info.FnSigs[sym]
		if sig == nil {
			return c.builtins().Error, true
		}
		ret := c.checkSigCall(fx, e, d.Callee, sig, pd.Generics, d.Args, types.NoTypeID)
		c.checkCallPurity(fx, e.Span, sig)
		return ret, true
	case symbols.SymbolVariant:
		c.info.PathSyms[d.Callee] = sym
		var payload []types.TypeID
		enumTy := c.variantRefType(fx, d.Callee, s, pd.Generics, expected, &payload)
		c.record(fx, d.Callee, enumTy)
		if len(d.Args) != len(payload) {
			c.errorAt(diag.TypeArityMismatch, e.Span,
				"variant '"+s.Name+"' takes "+strconv.Itoa(len(payload))+
					" value(s), found "+strconv.Itoa(len(d.Args))).Emit()
			return enumTy, true
		}
		for i, a := range d.Args {
			got := c.checkExpr(fx, a, payload[i])
			c.unifyAt(fx, a.Span, payload[i], got, "variant payload has type")
		}
		return enumTy, true
	default:
		return types.NoTypeID, false
	}
}

// checkSigCall applies one signature to arguments: type parameters
// infer through unification, const parameters pin by matching the
// argument shapes.
func (c *checker) checkSigCall(fx *fnCtx, call *ast.Expr, callee *ast.Expr, sig *FnSig, explicit []*ast.TypeExpr, args []*ast.Expr, recvTy types.TypeID) types.TypeID {
	ia, ok := c.instantiate(fx, sig.Generics, explicit, call.Span)
	if !ok {
		return c.builtins().Error
	}
	return c.applySigCall(fx, call, callee, sig, ia, args, recvTy)
}

func (c *checker) applySigCall(fx *fnCtx, call *ast.Expr, callee *ast.Expr, sig *FnSig, ia instArgs, args []*ast.Expr, recvTy types.TypeID) types.TypeID {
	declared := sig.Params
	if sig.HasSelf {
		declared = declared[1:]
	}
	if len(args) != len(declared) {
		c.errorAt(diag.TypeArityMismatch, call.Span,
			"expected "+strconv.Itoa(len(declared))+" argument(s), found "+
				strconv.Itoa(len(args))).Emit()
		return c.builtins().Error
	}
	if sig.HasSelf && recvTy.IsValid() {
		selfParam := c.replaceSelf(c.apply(sig.Params[0], ia), recvTy)
		c.unifyAt(fx, call.Span, selfParam, recvTy, "receiver has type")
	}
	for i, a := range args {
		want := c.apply(declared[i], ia)
		if recvTy.IsValid() {
			want = c.replaceSelf(want, recvTy)
		}
		if c.hasOpenConst(want, ia) {
			got := c.checkExpr(fx, a, types.NoTypeID)
			c.pinConsts(want, got, &ia)
			want = c.apply(declared[i], ia)
			if recvTy.IsValid() {
				want = c.replaceSelf(want, recvTy)
			}
			if c.hasOpenConst(want, ia) {
				c.errorAt(diag.TypeConstMismatch, a.Span,
					"cannot infer a const parameter from this argument").Emit()
				continue
			}
			c.unifyAt(fx, a.Span, want, got, "argument has type")
			continue
		}
		got := c.checkExpr(fx, a, want)
		c.unifyAt(fx, a.Span, want, got, "argument has type")
	}
	result := c.apply(sig.Result, ia)
	if recvTy.IsValid() {
		result = c.replaceSelf(result, recvTy)
	}
	if c.hasOpenConst(result, ia) {
		c.errorAt(diag.TypeConstMismatch, call.Span,
			"cannot infer this call's const parameters; spell them with '::<>'").Emit()
		return c.builtins().Error
	}
	if callee != nil {
		paramTys := make([]types.TypeID, len(sig.Params))
		for i, p := range sig.Params {
			paramTys[i] = c.apply(p, ia)
		}
		c.record(fx, callee, c.in.Intern(types.MakeFn(paramTys, result)))
	}
	if len(sig.Generics) > 0 {
		fx.pendingCalls = append(fx.pendingCalls,
			pendingCall{expr: call, arity: len(ia.sub.Types), sub: ia.sub, sp: call.Span})
	}
	c.checkBoundsAt(fx, call.Span, sig.Generics, ia)
	return result
}

// checkBoundsAt verifies inferred arguments against declared bounds
// where they are already concrete; still-open variables are checked
// again after monomorphization.
func (c *checker) checkBoundsAt(fx *fnCtx, sp source.Span, generics []GenericParam, ia instArgs) {
	for i := range generics {
		if generics[i].IsConst {
			continue
		}
		arg := c.uni.ResolveDeep(ia.sub.Types[generics[i].Index])
		if c.uni.IsUnresolvedVar(c.uni.Resolve(arg)) || c.in.ContainsParam(arg) {
			continue
		}
		env := c.boundEnv(fx)
		for _, b := range generics[i].Bounds {
			if !c.satisfiesBound(arg, b, env) {
				c.errorAt(diag.TypeUnsatisfiedBound, sp,
					"'"+c.in.String(arg)+"' does not implement '"+
						c.table.Symbol(b.Trait).Name+"' required by '"+generics[i].Name+"'").Emit()
			}
		}
	}
}

// boundEnv is the generic environment visible inside the current body.
func (c *checker) boundEnv(fx *fnCtx) []GenericParam {
	env := fx.sig.Generics
	if fx.impl != nil {
		env = append(append([]GenericParam{}, fx.impl.Generics...), env...)
	}
	return env
}

// checkCallPurity rejects calls that escalate effects.
func (c *checker) checkCallPurity(fx *fnCtx, sp source.Span, callee *FnSig) {
	if callee.Purity <= fx.sig.Purity {
		return
	}
	if callee.Purity == ast.PurityWrites {
		c.errorAt(diag.PurityStorageWrite, sp,
			"calling a 'writes' function requires the 'writes' annotation").Emit()
		return
	}
	c.errorAt(diag.PurityStorageRead, sp,
		"calling a 'reads' function requires the 'reads' or 'writes' annotation").Emit()
}

// checkMethodCall resolves 'recv.name(args)' and types the call.
func (c *checker) checkMethodCall(fx *fnCtx, e *ast.Expr, expected types.TypeID) types.TypeID {
	d := e.Data.(*ast.MethodCallData)
	recv := c.uni.ResolveDeep(c.checkExpr(fx, d.Recv, types.NoTypeID))
	rt, _ := c.in.Lookup(recv)
	if rt.Kind == types.KindError {
		for _, a := range d.Args {
			c.checkExpr(fx, a, types.NoTypeID)
		}
		return recv
	}
	if rt.Kind == types.KindVar {
		c.errorAt(diag.TypeAmbiguousLiteral, d.Recv.Span,
			"the receiver's type is not known yet; annotate it").Emit()
		return c.builtins().Error
	}

	target, ia, ok := c.resolveMethod(fx, recv, d.Name.Name, d.Generics, e.Span)
	if !ok {
		for _, a := range d.Args {
			c.checkExpr(fx, a, types.NoTypeID)
		}
		return c.builtins().Error
	}
	target.RecvTy = recv
	c.info.Methods[e] = target
	fx.pendingTargets = append(fx.pendingTargets, target)
	c.checkCallPurity(fx, e.Span, target.Sig)
	if !target.Sig.HasSelf {
		c.errorAt(diag.TypeNoSuchMethod, e.Span,
			"'"+d.Name.Name+"' is an associated function, not a method; call it through its type").Emit()
	}
	result := c.applySigCall(fx, e, nil, target.Sig, ia, d.Args, recv)
	target.Subst = ia.sub
	return result
}

// resolveMethod finds the unique method named name on recv: inherent
// impls first, trait impls second, trait bounds for generic receivers.
func (c *checker) resolveMethod(fx *fnCtx, recv types.TypeID, name string, explicit []*ast.TypeExpr, sp source.Span) (*MethodTarget, instArgs, bool) {
	rt, _ := c.in.Lookup(recv)

	if rt.Kind == types.KindParam {
		return c.resolveBoundMethod(fx, recv, rt.Sym, name, explicit, sp)
	}
	if rt.Kind == types.KindSelf {
		return c.resolveSelfMethod(fx, recv, name, explicit, sp)
	}

	type candidate struct {
		impl *ImplInfo
		sub  types.Subst
		sig  *FnSig
		def  bool
	}
	var inherent, viaTrait []candidate
	for _, impl := range c.info.Impls {
		sub, ok := c.matchImpl(impl, recv)
		if !ok {
			continue
		}
		if sig, has := impl.Methods[name]; has {
			cand := candidate{impl: impl, sub: sub, sig: sig}
			if impl.Trait == nil {
				inherent = append(inherent, cand)
			} else {
				viaTrait = append(viaTrait, cand)
			}
			continue
		}
		if impl.Trait != nil {
			if trait := c.info.Traits[impl.Trait.Trait]; trait != nil {
				if _, hasDefault := trait.Defaults[name]; hasDefault {
					viaTrait = append(viaTrait,
						candidate{impl: impl, sub: sub, sig: trait.Methods[name], def: true})
				}
			}
		}
	}

	pool := inherent
	if len(pool) == 0 {
		pool = viaTrait
	}
	switch len(pool) {
	case 0:
		c.errorAt(diag.TypeNoSuchMethod, sp,
			"no method '"+name+"' on '"+c.in.String(recv)+"'").Emit()
		return nil, instArgs{}, false
	case 1:
	default:
		b := c.errorAt(diag.TypeAmbiguousMethod, sp,
			"method '"+name+"' on '"+c.in.String(recv)+"' is provided by more than one implementation")
		for _, cand := range pool {
			b = b.WithNote(cand.impl.Decl.SelfType.Span, "candidate defined here")
		}
		b.Emit()
		return nil, instArgs{}, false
	}

	cand := pool[0]
	ia, ok := c.methodInstance(fx, cand.impl, cand.sub, cand.sig, cand.def, explicit, sp)
	if !ok {
		return nil, instArgs{}, false
	}
	target := &MethodTarget{Sig: cand.sig, Impl: cand.impl, Default: cand.def}
	if cand.impl.Trait != nil {
		target.Trait = cand.impl.Trait.Trait
	}
	return target, ia, true
}

// methodInstance merges the impl's matched substitution with fresh
// openings for the method's own generics.
func (c *checker) methodInstance(fx *fnCtx, impl *ImplInfo, implSub types.Subst, sig *FnSig, viaDefault bool, explicit []*ast.TypeExpr, sp source.Span) (instArgs, bool) {
	ia, ok := c.instantiate(fx, sig.Generics, explicit, sp)
	if !ok {
		return instArgs{}, false
	}
	need := len(impl.Generics) + len(sig.Generics)
	if viaDefault {
		// The default body's generics are the trait's; map the trait
		// arguments recovered from the impl instead.
		if impl.Trait != nil {
			for i, a := range impl.Trait.Args {
				instantiated := c.in.Substitute(a, implSub)
				ia = growInst(ia, i+1)
				ia.sub.Types[i] = instantiated
			}
		}
		return ia, true
	}
	ia = growInst(ia, need)
	for i := range impl.Generics {
		idx := impl.Generics[i].Index
		if impl.Generics[i].IsConst {
			if int(idx) < len(implSub.Consts) {
				ia.sub.Consts[idx] = implSub.Consts[idx]
				ia.constSet[idx] = true
			}
			continue
		}
		if int(idx) < len(implSub.Types) && implSub.Types[idx].IsValid() {
			ia.sub.Types[idx] = implSub.Types[idx]
		}
	}
	return ia, true
}

func growInst(ia instArgs, size int) instArgs {
	for len(ia.sub.Types) < size {
		ia.sub.Types = append(ia.sub.Types, types.NoTypeID)
		ia.sub.Consts = append(ia.sub.Consts, 0)
		ia.constSet = append(ia.constSet, false)
	}
	return ia
}

// resolveBoundMethod finds a method on a generic receiver through its
// declared trait bounds.
func (c *checker) resolveBoundMethod(fx *fnCtx, recv types.TypeID, paramIdx uint32, name string, explicit []*ast.TypeExpr, sp source.Span) (*MethodTarget, instArgs, bool) {
	env := c.boundEnv(fx)
	var found []TraitBound
	for i := range env {
		if env[i].Index != paramIdx {
			continue
		}
		for _, b := range env[i].Bounds {
			c.collectTraitMethods(b, name, &found, make(map[symbols.SymbolID]bool))
		}
	}
	switch len(found) {
	case 0:
		c.errorAt(diag.TypeNoSuchMethod, sp,
			"no bound on '"+c.in.String(recv)+"' provides a method '"+name+"'").Emit()
		return nil, instArgs{}, false
	case 1:
	default:
		c.errorAt(diag.TypeAmbiguousMethod, sp,
			"method '"+name+"' is provided by more than one bound on '"+c.in.String(recv)+"'").Emit()
		return nil, instArgs{}, false
	}
	bound := found[0]
	trait := c.info.Traits[bound.Trait]
	sig := trait.Methods[name]
	ia, ok := c.instantiate(fx, sig.Generics, explicit, sp)
	if !ok {
		return nil, instArgs{}, false
	}
	ia = growInst(ia, len(trait.Generics)+len(sig.Generics))
	for i, a := range bound.Args {
		if i < len(trait.Generics) {
			ia.sub.Types[i] = a
		}
	}
	_, hasDefault := trait.Defaults[name]
	return &MethodTarget{Sig: sig, Trait: bound.Trait, Default: hasDefault}, ia, true
}

// collectTraitMethods walks a bound's supertrait closure for methods
// named name.
func (c *checker) collectTraitMethods(b TraitBound, name string, out *[]TraitBound, seen map[symbols.SymbolID]bool) {
	if seen[b.Trait] {
		return
	}
	seen[b.Trait] = true
	trait, ok := c.info.Traits[b.Trait]
	if !ok {
		return
	}
	if _, has := trait.Methods[name]; has {
		*out = append(*out, b)
		return
	}
	for _, super := range trait.Supers {
		c.collectTraitMethods(super, name, out, seen)
	}
}

// resolveSelfMethod serves method calls on Self inside trait default
// bodies.
func (c *checker) resolveSelfMethod(fx *fnCtx, recv types.TypeID, name string, explicit []*ast.TypeExpr, sp source.Span) (*MethodTarget, instArgs, bool) {
	if fx.trait == nil {
		c.errorAt(diag.TypeNoSuchMethod, sp,
			"no method '"+name+"' on '"+c.in.String(recv)+"'").Emit()
		return nil, instArgs{}, false
	}
	var found []TraitBound
	self := TraitBound{Trait: fx.trait.Sym}
	c.collectTraitMethods(self, name, &found, make(map[symbols.SymbolID]bool))
	if len(found) == 0 {
		c.errorAt(diag.TypeNoSuchMethod, sp,
			"trait '"+c.table.Symbol(fx.trait.Sym).Name+"' and its supertraits have no method '"+name+"'").Emit()
		return nil, instArgs{}, false
	}
	bound := found[0]
	trait := c.info.Traits[bound.Trait]
	sig := trait.Methods[name]
	ia, ok := c.instantiate(fx, sig.Generics, explicit, sp)
	if !ok {
		return nil, instArgs{}, false
	}
	ia = growInst(ia, len(trait.Generics)+len(sig.Generics))
	_, hasDefault := trait.Defaults[name]
	return &MethodTarget{Sig: sig, Trait: bound.Trait, Default: hasDefault}, ia, true
}

// selectTraitMethod serves '<Type as Trait>::method' references.
func (c *checker) selectTraitMethod(fx *fnCtx, e *ast.Expr, selfTy types.TypeID, bound TraitBound, trait *TraitInfo, name string) (*MethodTarget, bool) {
	st, _ := c.in.Lookup(selfTy)
	if st.Kind == types.KindParam || st.Kind == types.KindSelf {
		sig := trait.Methods[name]
		ia, ok := c.instantiate(fx, sig.Generics, nil, e.Span)
		if !ok {
			return nil, false
		}
		ia = growInst(ia, len(trait.Generics)+len(sig.Generics))
		for i, a := range bound.Args {
			if i < len(trait.Generics) {
				ia.sub.Types[i] = a
			}
		}
		_, hasDefault := trait.Defaults[name]
		t := &MethodTarget{Sig: sig, Trait: bound.Trait, Default: hasDefault, Subst: ia.sub, RecvTy: selfTy}
		fx.pendingTargets = append(fx.pendingTargets, t)
		return t, true
	}
	impl, implSub, ok := c.findTraitImpl(selfTy, bound.Trait)
	if !ok {
		c.errorAt(diag.TypeUnsatisfiedBound, e.Span,
			"'"+c.in.String(selfTy)+"' does not implement '"+c.table.Symbol(bound.Trait).Name+"'").Emit()
		return nil, false
	}
	sig, has := impl.Methods[name]
	def := false
	if !has {
		sig = trait.Methods[name]
		def = true
	}
	ia, ok2 := c.methodInstance(fx, impl, implSub, sig, def, nil, e.Span)
	if !ok2 {
		return nil, false
	}
	t := &MethodTarget{Sig: sig, Impl: impl, Trait: bound.Trait, Default: def, Subst: ia.sub, RecvTy: selfTy}
	fx.pendingTargets = append(fx.pendingTargets, t)
	return t, true
}
