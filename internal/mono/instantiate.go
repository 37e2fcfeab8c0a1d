package mono

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// concSubst rewrites a recorded call-site substitution through the
// calling instance's frame, so the callee's arguments become concrete.
func (m *mono) concSubst(owner *Instance, es types.Subst) types.Subst {
	out := types.Subst{
		Types:  make([]types.TypeID, len(es.Types)),
		Consts: make([]uint64, len(es.Consts)),
	}
	copy(out.Consts, es.Consts)
	for i, t := range es.Types {
		if t.IsValid() {
			out.Types[i] = m.prog.concrete(owner, t)
		}
	}
	return out
}

// subError reports whether the substitution carries the poison type,
// meaning sema already rejected the call site.
func (m *mono) subError(sub types.Subst) bool {
	errTy := m.in.Builtins().Error
	for _, t := range sub.Types {
		if t == errTy {
			return true
		}
	}
	return false
}

// subOpen finds a type slot of the frame that is missing or still
// mentions a generic parameter.
func (m *mono) subOpen(env []sema.GenericParam, sub types.Subst) bool {
	for i := range env {
		g := &env[i]
		if g.IsConst {
			continue
		}
		idx := int(g.Index)
		if idx >= len(sub.Types) || !sub.Types[idx].IsValid() {
			return true
		}
		if m.in.ContainsParam(sub.Types[idx]) {
			return true
		}
	}
	return false
}

// instantiateFn specializes a free function for one call site. An
// empty es serves non-generic functions.
func (m *mono) instantiateFn(owner *Instance, depth int, at *ast.Expr, sym symbols.SymbolID, es types.Subst) *Instance {
	sig := m.info.FnSigs[sym]
	if sig == nil || sig.Decl == nil {
		return nil
	}
	sub := m.concSubst(owner, es)
	if m.subError(sub) {
		return nil
	}
	base := m.qualifiedName(sym)
	if m.subOpen(sig.Generics, sub) {
		m.errorAt(diag.MonoUnresolvedGeneric, m.spanFor(at, sig),
			"the generic arguments of '"+base+"' do not resolve here").Emit()
		return nil
	}
	cand := &Instance{
		Sym:     sym,
		Sig:     sig,
		Decl:    sig.Decl,
		Trait:   symbols.NoSymbolID,
		Module:  sig.Module,
		Sub:     sub,
		env:     sig.Generics,
		ownBase: 0,
	}
	cand.Name = base + m.genericSuffix(cand.env, 0, sub)
	cand.Key = m.instanceKey(base, symbols.NoSymbolID, sub)
	return m.intern(owner, depth, at, cand)
}

// instantiateMethod specializes a resolved method call. Targets that
// sema left on a trait (generic or Self receivers) are re-resolved to
// a providing impl now that the receiver is concrete.
func (m *mono) instantiateMethod(owner *Instance, depth int, at *ast.Expr, target *sema.MethodTarget) *Instance {
	recv := m.prog.concrete(owner, target.RecvTy)
	rt, _ := m.in.Lookup(recv)
	if rt.Kind == types.KindError {
		return nil
	}
	if m.in.ContainsParam(recv) {
		m.errorAt(diag.MonoUnresolvedGeneric, at.Span,
			"the receiver type is still generic after specialization").Emit()
		return nil
	}

	if target.Impl != nil {
		sub := m.concSubst(owner, target.Subst)
		return m.internMethod(owner, depth, at, recv, target.Impl, target.Trait,
			target.Sig, target.Default, sub)
	}

	// Trait-side target: pick the impl the concrete receiver selects.
	impl, implSub, ok := m.info.FindTraitImpl(recv, target.Trait)
	if !ok {
		m.errorAt(diag.MonoUnresolvedGeneric, at.Span,
			"no implementation of '"+m.table.Symbol(target.Trait).Name+
				"' for '"+m.in.String(recv)+"' is reachable here").Emit()
		return nil
	}
	trait := m.info.Traits[target.Trait]
	if trait == nil {
		return nil
	}
	name := target.Sig.Decl.Name.Name
	traitLen := len(trait.Generics)

	if msig, has := impl.Methods[name]; has {
		// The impl overrides; remap the method's own arguments from the
		// trait frame into the impl frame.
		frame := len(impl.Generics) + len(msig.Generics)
		sub := types.Subst{
			Types:  make([]types.TypeID, frame),
			Consts: make([]uint64, frame),
		}
		for i := range impl.Generics {
			idx := impl.Generics[i].Index
			if impl.Generics[i].IsConst {
				if int(idx) < len(implSub.Consts) {
					sub.Consts[idx] = implSub.Consts[idx]
				}
				continue
			}
			if int(idx) < len(implSub.Types) {
				sub.Types[idx] = implSub.Types[idx]
			}
		}
		for j := range msig.Generics {
			src := traitLen + j
			dst := int(msig.Generics[j].Index)
			if src < len(target.Subst.Types) && target.Subst.Types[src].IsValid() {
				sub.Types[dst] = m.prog.concrete(owner, target.Subst.Types[src])
			}
			if src < len(target.Subst.Consts) && dst < len(sub.Consts) {
				sub.Consts[dst] = target.Subst.Consts[src]
			}
		}
		return m.internMethod(owner, depth, at, recv, impl, target.Trait, msig, false, sub)
	}

	// Default body; the frame is the trait's. Slots sema could not fill
	// (Self receivers inside default bodies) come from the impl header.
	sub := m.concSubst(owner, target.Subst)
	for i := 0; i < traitLen && i < len(sub.Types); i++ {
		if !sub.Types[i].IsValid() && impl.Trait != nil && i < len(impl.Trait.Args) {
			sub.Types[i] = m.in.Substitute(impl.Trait.Args[i], implSub)
		}
	}
	return m.internMethod(owner, depth, at, recv, impl, target.Trait, target.Sig, true, sub)
}

// internMethod finishes a method instance for either frame layout:
// impl generics + method generics, or trait generics + method generics
// for default bodies.
func (m *mono) internMethod(owner *Instance, depth int, at *ast.Expr, recv types.TypeID, impl *sema.ImplInfo, traitSym symbols.SymbolID, sig *sema.FnSig, def bool, sub types.Subst) *Instance {
	var env []sema.GenericParam
	var ownBase int
	if def {
		trait := m.info.Traits[traitSym]
		if trait == nil {
			return nil
		}
		env = append(append([]sema.GenericParam{}, trait.Generics...), sig.Generics...)
		ownBase = len(trait.Generics)
	} else {
		env = append(append([]sema.GenericParam{}, impl.Generics...), sig.Generics...)
		ownBase = len(impl.Generics)
	}
	if m.subError(sub) {
		return nil
	}
	base := m.in.String(recv) + "::" + sig.Decl.Name.Name
	if m.subOpen(env, sub) {
		m.errorAt(diag.MonoUnresolvedGeneric, m.spanFor(at, sig),
			"the generic arguments of '"+base+"' do not resolve here").Emit()
		return nil
	}
	cand := &Instance{
		Sym:     symbols.NoSymbolID,
		Sig:     sig,
		Decl:    sig.Decl,
		Impl:    impl,
		Trait:   traitSym,
		Module:  sig.Module,
		Self:    recv,
		Sub:     sub,
		env:     env,
		ownBase: ownBase,
	}
	cand.Name = base + m.genericSuffix(env, ownBase, sub)
	cand.Key = m.instanceKey(base, traitSym, sub)
	return m.intern(owner, depth, at, cand)
}

// intern deduplicates by key, completes the concrete signature, and
// queues the new instance's body for walking.
func (m *mono) intern(owner *Instance, depth int, at *ast.Expr, cand *Instance) *Instance {
	if got, ok := m.prog.byKey[cand.Key]; ok {
		m.recordCallee(owner, at, got)
		return got
	}
	if depth > m.maxDepth {
		if !m.depthHit {
			m.depthHit = true
			m.errorAt(diag.MonoDepthExceeded, m.spanFor(at, cand.Sig),
				"instantiating '"+cand.Name+"' exceeds the specialization depth limit; "+
					"a generic function likely recurses at a growing type").Emit()
		}
		return nil
	}
	cand.Params = make([]types.TypeID, len(cand.Sig.Params))
	for i, p := range cand.Sig.Params {
		cand.Params[i] = m.prog.concrete(cand, p)
	}
	cand.Result = m.prog.concrete(cand, cand.Sig.Result)
	m.prog.byKey[cand.Key] = cand
	m.prog.Instances = append(m.prog.Instances, cand)
	m.queue = append(m.queue, workItem{inst: cand, depth: depth})
	m.checkBounds(cand, at)
	m.recordCallee(owner, at, cand)
	return cand
}

func (m *mono) recordCallee(owner *Instance, at *ast.Expr, inst *Instance) {
	if at != nil {
		m.prog.callees[calleeKey{owner: owner, expr: at}] = inst
	}
}

func (m *mono) spanFor(at *ast.Expr, sig *sema.FnSig) source.Span {
	if at != nil {
		return at.Span
	}
	return sig.Decl.Name.Span
}

// checkBounds re-verifies declared trait bounds against the now
// concrete arguments. Call sites inside generic bodies could only be
// checked shallowly before specialization.
func (m *mono) checkBounds(inst *Instance, at *ast.Expr) {
	sp := m.spanFor(at, inst.Sig)
	for i := range inst.env {
		g := &inst.env[i]
		if g.IsConst || len(g.Bounds) == 0 {
			continue
		}
		idx := int(g.Index)
		if idx >= len(inst.Sub.Types) {
			continue
		}
		arg := inst.Sub.Types[idx]
		if !arg.IsValid() {
			continue
		}
		for _, b := range g.Bounds {
			if !m.satisfies(arg, b.Trait) {
				m.errorAt(diag.TypeUnsatisfiedBound, sp,
					"'"+m.in.String(arg)+"' does not implement '"+
						m.table.Symbol(b.Trait).Name+"' required by '"+g.Name+
						"' of '"+inst.Name+"'").Emit()
			}
		}
	}
}

func (m *mono) satisfies(ty types.TypeID, trait symbols.SymbolID) bool {
	t, _ := m.in.Lookup(ty)
	if t.Kind == types.KindError || t.Kind == types.KindNever {
		return true
	}
	if _, _, ok := m.info.FindTraitImpl(ty, trait); ok {
		return true
	}
	for _, impl := range m.info.Impls {
		if impl.Trait == nil {
			continue
		}
		if _, ok := m.info.MatchImpl(impl, ty); ok &&
			m.info.TraitImplies(impl.Trait.Trait, trait) {
			return true
		}
	}
	return false
}
