package sema

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// local is one let-bound or parameter binding.
type local struct {
	ty  types.TypeID
	mut bool
}

// localScope chains lexical binding frames inside one body.
type localScope struct {
	parent *localScope
	byName map[string]local
}

func (s *localScope) lookup(name string) (local, bool) {
	for f := s; f != nil; f = f.parent {
		if l, ok := f.byName[name]; ok {
			return l, true
		}
	}
	return local{}, false
}

func (s *localScope) define(name string, l local) {
	s.byName[name] = l
}

func newLocalScope(parent *localScope) *localScope {
	return &localScope{parent: parent, byName: make(map[string]local)}
}

// fnCtx is the state of checking one function body.
type fnCtx struct {
	sig    *FnSig
	module symbols.ModuleID
	impl   *ImplInfo  // enclosing impl, nil otherwise
	trait  *TraitInfo // enclosing trait for default bodies, nil otherwise
	locals *localScope
	loops  int

	// typed collects every expression seen in this body so finalize
	// can resolve inference variables in one pass.
	typed []*ast.Expr

	// pendingInts are inference variables created for unsuffixed
	// integer literals; unconstrained ones default to u64.
	pendingInts []pendingInt

	// pendingCalls are generic call sites whose substitutions finish
	// resolving once the body's unification is complete.
	pendingCalls []pendingCall

	// pendingTargets are method resolutions whose substitutions are
	// finalized the same way.
	pendingTargets []*MethodTarget
}

type pendingInt struct {
	v  types.TypeID
	sp source.Span
}

type pendingCall struct {
	expr  *ast.Expr
	arity int
	sub   types.Subst
	sp    source.Span
}

// checkBodies type-checks every function, method, and default body.
func (c *checker) checkBodies() {
	c.eachModule(func(m symbols.ModuleID) {
		c.eachDeclared(m, symbols.SymbolFn, func(sym symbols.SymbolID, s *symbols.Symbol) {
			sig := c.info.FnSigs[sym]
			if sig != nil && sig.Decl.Body != nil {
				c.checkFnBody(sig, m, nil, nil)
			}
		})
		c.eachDeclared(m, symbols.SymbolTrait, func(sym symbols.SymbolID, s *symbols.Symbol) {
			trait := c.info.Traits[sym]
			if trait == nil {
				return
			}
			for _, name := range sortedKeys(trait.Defaults) {
				c.checkFnBody(trait.Methods[name], m, nil, trait)
			}
		})
	})
	for _, impl := range c.info.Impls {
		for _, name := range sortedKeys(impl.Methods) {
			sig := impl.Methods[name]
			if sig.Decl.Body != nil {
				c.checkFnBody(sig, impl.Module, impl, nil)
			}
		}
	}
}

// checkFnBody runs bidirectional inference over one body against its
// declared signature.
func (c *checker) checkFnBody(sig *FnSig, m symbols.ModuleID, impl *ImplInfo, trait *TraitInfo) {
	c.uni = types.NewUnifier(c.in)
	fx := &fnCtx{
		sig:    sig,
		module: m,
		impl:   impl,
		trait:  trait,
		locals: newLocalScope(nil),
	}
	for i, p := range sig.Decl.Params {
		name := p.Name.Name
		if p.IsSelf {
			name = "self"
		}
		fx.locals.define(name, local{ty: sig.Params[i]})
	}
	got := c.checkBlock(fx, sig.Decl.Body, sig.Result)
	c.unifyAt(fx, sig.Decl.Body.Span, sig.Result, got,
		"function body evaluates to")
	c.finalize(fx)
}

// checkBlock checks statements in order, then the tail expression
// against the expected type. A block without a tail is unit unless it
// provably diverges.
func (c *checker) checkBlock(fx *fnCtx, b *ast.Block, expected types.TypeID) types.TypeID {
	saved := fx.locals
	fx.locals = newLocalScope(saved)
	defer func() { fx.locals = saved }()

	for _, st := range b.Stmts {
		c.checkStmt(fx, st)
	}
	if b.Tail != nil {
		return c.checkExpr(fx, b.Tail, expected)
	}
	if blockDiverges(b) {
		return c.builtins().Never
	}
	return c.builtins().Unit
}

// blockDiverges reports whether control cannot fall off the end.
func blockDiverges(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	switch b.Stmts[len(b.Stmts)-1].Kind {
	case ast.StmtReturn, ast.StmtRevert, ast.StmtBreak, ast.StmtContinue:
		return true
	default:
		return false
	}
}

func (c *checker) checkStmt(fx *fnCtx, st *ast.Stmt) {
	switch st.Kind {
	case ast.StmtLet:
		d := st.Data.(*ast.LetData)
		var declared types.TypeID
		if d.Type != nil {
			declared = c.resolveTypeExpr(fx.scope(), d.Type)
		}
		got := c.checkExpr(fx, d.Value, declared)
		ty := got
		if declared.IsValid() {
			c.unifyAt(fx, d.Value.Span, declared, got, "let initializer has type")
			ty = declared
		}
		fx.locals.define(d.Name.Name, local{ty: ty, mut: d.Mut})
	case ast.StmtExpr:
		d := st.Data.(*ast.ExprStmtData)
		c.checkExpr(fx, d.Expr, types.NoTypeID)
	case ast.StmtAssign:
		c.checkAssign(fx, st.Data.(*ast.AssignData))
	case ast.StmtReturn:
		d := st.Data.(*ast.ReturnData)
		if d.Value == nil {
			c.unifyAt(fx, st.Span, fx.sig.Result, c.builtins().Unit,
				"bare return in a function returning")
			return
		}
		got := c.checkExpr(fx, d.Value, fx.sig.Result)
		c.unifyAt(fx, d.Value.Span, fx.sig.Result, got, "returned value has type")
	case ast.StmtWhile:
		d := st.Data.(*ast.WhileData)
		cond := c.checkExpr(fx, d.Cond, c.builtins().Bool)
		c.unifyAt(fx, d.Cond.Span, c.builtins().Bool, cond, "while condition has type")
		fx.loops++
		c.checkBlock(fx, d.Body, c.builtins().Unit)
		fx.loops--
	case ast.StmtBreak:
		if fx.loops == 0 {
			c.errorAt(diag.TypeOutsideLoop, st.Span, "break outside of a loop").Emit()
		}
	case ast.StmtContinue:
		if fx.loops == 0 {
			c.errorAt(diag.TypeOutsideLoop, st.Span, "continue outside of a loop").Emit()
		}
	case ast.StmtRevert:
		d := st.Data.(*ast.RevertData)
		if d.Code != nil {
			got := c.checkExpr(fx, d.Code, c.builtins().U64)
			c.unifyAt(fx, d.Code.Span, c.builtins().U64, got, "revert code has type")
		}
	case ast.StmtError:
		// Parser already reported.
	}
}

// checkAssign validates the place expression and matches the value.
func (c *checker) checkAssign(fx *fnCtx, d *ast.AssignData) {
	placeTy := c.checkExpr(fx, d.Place, types.NoTypeID)
	switch d.Place.Kind {
	case ast.ExprPath:
		pd := d.Place.Data.(*ast.PathData)
		if len(pd.Path.Segments) == 1 {
			if l, ok := fx.locals.lookup(pd.Path.Segments[0].Name); ok && !l.mut {
				c.errorAt(diag.TypeNotAssignable, d.Place.Span,
					"cannot assign to immutable binding '"+pd.Path.Segments[0].Name+"'").Emit()
			}
		} else {
			c.errorAt(diag.TypeNotAssignable, d.Place.Span,
				"cannot assign to this expression").Emit()
		}
	case ast.ExprField, ast.ExprIndex:
		// Assignable through the base place.
	case ast.ExprStorage:
		if !fx.sig.Purity.CanWrite() {
			c.errorAt(diag.PurityStorageWrite, d.Place.Span,
				"writing storage requires the 'writes' annotation").Emit()
		}
	default:
		c.errorAt(diag.TypeNotAssignable, d.Place.Span,
			"cannot assign to this expression").Emit()
	}
	got := c.checkExpr(fx, d.Value, placeTy)
	c.unifyAt(fx, d.Value.Span, placeTy, got, "assigned value has type")
}

// scope returns the generic scope the body's types resolve in.
func (fx *fnCtx) scope() *genericScope { return fx.sig.scope }

// unifyAt unifies and reports a mismatch with both sides rendered.
func (c *checker) unifyAt(fx *fnCtx, sp source.Span, want, got types.TypeID, what string) {
	if c.uni.Unify(want, got) {
		return
	}
	c.errorAt(diag.TypeMismatch, sp,
		what+" '"+c.in.String(c.uni.ResolveDeep(got))+
			"', expected '"+c.in.String(c.uni.ResolveDeep(want))+"'").Emit()
}

// record stores an expression's provisional type; finalize resolves it.
func (c *checker) record(fx *fnCtx, e *ast.Expr, ty types.TypeID) types.TypeID {
	c.info.ExprTypes[e] = ty
	fx.typed = append(fx.typed, e)
	return ty
}

// finalize resolves every recorded type, defaults unconstrained
// integer literals to u64, and freezes call substitutions.
func (c *checker) finalize(fx *fnCtx) {
	for _, p := range fx.pendingInts {
		r := c.uni.Resolve(p.v)
		if c.uni.IsUnresolvedVar(r) {
			c.uni.Unify(r, c.builtins().U64)
			continue
		}
		rt, _ := c.in.Lookup(c.uni.ResolveDeep(r))
		if !rt.IsUint() && rt.Kind != types.KindError && rt.Kind != types.KindVar {
			c.errorAt(diag.TypeMismatch, p.sp,
				"integer literal used as '"+c.in.String(c.uni.ResolveDeep(r))+"'").Emit()
		}
	}
	reported := make(map[types.TypeID]bool)
	for _, e := range fx.typed {
		final := c.resolveProjections(c.uni.ResolveDeep(c.info.ExprTypes[e]))
		if v, bad := c.firstUnresolved(final); bad && !reported[v] {
			reported[v] = true
			c.errorAt(diag.TypeAmbiguousLiteral, e.Span,
				"cannot infer the type of this expression").Emit()
			final = c.builtins().Error
		}
		c.info.ExprTypes[e] = final
	}
	for _, pc := range fx.pendingCalls {
		sub := pc.sub
		resolved := types.Subst{
			Types:  make([]types.TypeID, len(sub.Types)),
			Consts: sub.Consts,
		}
		for i, t := range sub.Types {
			if !t.IsValid() {
				continue
			}
			rt := c.uni.ResolveDeep(t)
			if c.uni.IsUnresolvedVar(c.uni.Resolve(rt)) {
				c.errorAt(diag.TypeAmbiguousLiteral, pc.sp,
					"cannot infer a generic argument of this call").Emit()
				rt = c.builtins().Error
			}
			resolved.Types[i] = c.resolveProjections(rt)
		}
		c.info.CallSubst[pc.expr] = resolved
	}
	for _, t := range fx.pendingTargets {
		for i, ty := range t.Subst.Types {
			if ty.IsValid() {
				t.Subst.Types[i] = c.resolveProjections(c.uni.ResolveDeep(ty))
			}
		}
		t.RecvTy = c.resolveProjections(c.uni.ResolveDeep(t.RecvTy))
	}
}

// firstUnresolved finds a leftover inference variable inside a type.
func (c *checker) firstUnresolved(id types.TypeID) (types.TypeID, bool) {
	t, ok := c.in.Lookup(id)
	if !ok {
		return types.NoTypeID, false
	}
	switch t.Kind {
	case types.KindVar:
		return id, true
	case types.KindTuple, types.KindNamed, types.KindFn:
		for _, a := range t.Args {
			if v, bad := c.firstUnresolved(a); bad {
				return v, true
			}
		}
	case types.KindArray:
		return c.firstUnresolved(t.Elem)
	}
	return types.NoTypeID, false
}

// ResolveProjections replaces '<Base as Trait>::Name' placeholders
// whose base is now concrete with the impl's bound type.
func (i *Info) ResolveProjections(id types.TypeID) types.TypeID {
	t, ok := i.In.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case types.KindNamed:
		if len(t.Name) > 2 && t.Name[0] == ':' && t.Name[1] == ':' && len(t.Args) == 1 {
			base := i.ResolveProjections(t.Args[0])
			if !i.In.ContainsParam(base) {
				name := t.Name[2:]
				if t.Sym != uint32(symbols.NoSymbolID) {
					if proj, ok := i.ProjectAssoc(base, symbols.SymbolID(t.Sym), name); ok {
						return i.ResolveProjections(proj)
					}
				} else if proj, ok := i.ProjectAssocAnyTrait(base, name); ok {
					return i.ResolveProjections(proj)
				}
			}
		}
		fallthrough
	case types.KindTuple, types.KindFn:
		args := make([]types.TypeID, len(t.Args))
		changed := false
		for j, a := range t.Args {
			args[j] = i.ResolveProjections(a)
			changed = changed || args[j] != a
		}
		if !changed {
			return id
		}
		nt := t
		nt.Args = args
		return i.In.Intern(nt)
	case types.KindArray:
		elem := i.ResolveProjections(t.Elem)
		if elem == t.Elem {
			return id
		}
		nt := t
		nt.Elem = elem
		return i.In.Intern(nt)
	default:
		return id
	}
}

func (c *checker) resolveProjections(id types.TypeID) types.TypeID {
	return c.info.ResolveProjections(id)
}
