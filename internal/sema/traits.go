package sema

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

// MatchImpl tries to instantiate an impl's generics so its self type
// covers ty. The returned substitution is indexed by the impl's
// combined generic list.
func (i *Info) MatchImpl(impl *ImplInfo, ty types.TypeID) (types.Subst, bool) {
	sub := types.Subst{
		Types:  make([]types.TypeID, len(impl.Generics)),
		Consts: make([]uint64, len(impl.Generics)),
	}
	set := make([]bool, len(impl.Generics))
	if !i.matchType(impl.SelfType, ty, &sub, set) {
		return types.Subst{}, false
	}
	return sub, true
}

func (c *checker) matchImpl(impl *ImplInfo, ty types.TypeID) (types.Subst, bool) {
	return c.info.MatchImpl(impl, ty)
}

// matchType unifies a declaration-side pattern (which may mention
// KindParam) against a concrete target, binding pattern parameters.
func (i *Info) matchType(pattern, target types.TypeID, sub *types.Subst, set []bool) bool {
	pt, _ := i.In.Lookup(pattern)
	tt, _ := i.In.Lookup(target)
	if pt.Kind == types.KindError || tt.Kind == types.KindError {
		return true
	}
	if pt.Kind == types.KindVar || tt.Kind == types.KindVar {
		return true
	}
	if pt.Kind == types.KindParam {
		idx := int(pt.Sym)
		if idx >= len(set) {
			return pattern == target
		}
		if set[idx] {
			return sub.Types[idx] == target
		}
		set[idx] = true
		sub.Types[idx] = target
		return true
	}
	if pt.Kind != tt.Kind {
		return false
	}
	switch pt.Kind {
	case types.KindUint:
		return pt.Width == tt.Width
	case types.KindNamed:
		if pt.Sym != tt.Sym || len(pt.Args) != len(tt.Args) {
			return false
		}
		for j := range pt.Args {
			if !i.matchType(pt.Args[j], tt.Args[j], sub, set) {
				return false
			}
		}
		return true
	case types.KindTuple, types.KindFn:
		if len(pt.Args) != len(tt.Args) {
			return false
		}
		for j := range pt.Args {
			if !i.matchType(pt.Args[j], tt.Args[j], sub, set) {
				return false
			}
		}
		return true
	case types.KindArray:
		if !i.matchType(pt.Elem, tt.Elem, sub, set) {
			return false
		}
		if pt.CountParam != types.NoConstParam {
			idx := int(pt.CountParam)
			if tt.CountParam != types.NoConstParam || idx >= len(set) {
				return false
			}
			if set[idx] {
				return sub.Consts[idx] == tt.Count
			}
			set[idx] = true
			sub.Consts[idx] = tt.Count
			return true
		}
		return tt.CountParam == types.NoConstParam && pt.Count == tt.Count
	default:
		return pattern == target
	}
}

// FindTraitImpl locates the impl providing trait for ty, along with
// the substitution instantiating the impl at ty.
func (i *Info) FindTraitImpl(ty types.TypeID, trait symbols.SymbolID) (*ImplInfo, types.Subst, bool) {
	for _, impl := range i.Impls {
		if impl.Trait == nil || impl.Trait.Trait != trait {
			continue
		}
		if sub, ok := i.MatchImpl(impl, ty); ok {
			return impl, sub, true
		}
	}
	return nil, types.Subst{}, false
}

func (c *checker) findTraitImpl(ty types.TypeID, trait symbols.SymbolID) (*ImplInfo, types.Subst, bool) {
	return c.info.FindTraitImpl(ty, trait)
}

// ProjectAssoc resolves '<ty as trait>::name' against the impls.
func (i *Info) ProjectAssoc(ty types.TypeID, trait symbols.SymbolID, name string) (types.TypeID, bool) {
	impl, sub, ok := i.FindTraitImpl(ty, trait)
	if !ok {
		return types.NoTypeID, false
	}
	bound, ok := impl.AssocTypes[name]
	if !ok {
		return types.NoTypeID, false
	}
	return i.In.Substitute(bound, sub), true
}

func (c *checker) projectAssocType(ty types.TypeID, trait symbols.SymbolID, name string) (types.TypeID, bool) {
	return c.info.ProjectAssoc(ty, trait, name)
}

// ProjectAssocAnyTrait resolves 'ty::name' without a named trait,
// scanning impls of ty in declaration order.
func (i *Info) ProjectAssocAnyTrait(ty types.TypeID, name string) (types.TypeID, bool) {
	for _, impl := range i.Impls {
		bound, has := impl.AssocTypes[name]
		if !has {
			continue
		}
		if sub, ok := i.MatchImpl(impl, ty); ok {
			return i.In.Substitute(bound, sub), true
		}
	}
	return types.NoTypeID, false
}

func (c *checker) projectAssocTypeAnyTrait(ty types.TypeID, name string) (types.TypeID, bool) {
	return c.info.ProjectAssocAnyTrait(ty, name)
}

// satisfiesBound reports whether ty meets one trait bound. Generic
// parameters satisfy a bound when their declared bounds (in env)
// imply it, directly or through supertraits.
func (c *checker) satisfiesBound(ty types.TypeID, bound TraitBound, env []GenericParam) bool {
	tt, _ := c.in.Lookup(ty)
	switch tt.Kind {
	case types.KindError, types.KindNever, types.KindVar:
		return true
	case types.KindParam:
		for i := range env {
			if env[i].Index != tt.Sym {
				continue
			}
			for _, have := range env[i].Bounds {
				if c.boundImplies(have, bound.Trait) {
					return true
				}
			}
		}
		return false
	case types.KindSelf:
		return true
	default:
		_, _, ok := c.findTraitImpl(ty, bound.Trait)
		return ok
	}
}

// boundImplies walks the supertrait closure of have.
func (c *checker) boundImplies(have TraitBound, want symbols.SymbolID) bool {
	return c.info.TraitImplies(have.Trait, want)
}

// TraitImplies reports whether implementing have also promises want,
// through the supertrait closure.
func (i *Info) TraitImplies(have, want symbols.SymbolID) bool {
	return i.traitImplies(have, want, make(map[symbols.SymbolID]bool))
}

func (i *Info) traitImplies(have, want symbols.SymbolID, seen map[symbols.SymbolID]bool) bool {
	if have == want {
		return true
	}
	if seen[have] {
		return false
	}
	seen[have] = true
	ti, ok := i.Traits[have]
	if !ok {
		return false
	}
	for _, super := range ti.Supers {
		if i.traitImplies(super.Trait, want, seen) {
			return true
		}
	}
	return false
}

// ReplaceSelf rebuilds a type with KindSelf replaced by with.
func (i *Info) ReplaceSelf(id types.TypeID, with types.TypeID) types.TypeID {
	t, ok := i.In.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case types.KindSelf:
		return with
	case types.KindTuple, types.KindFn, types.KindNamed:
		args := make([]types.TypeID, len(t.Args))
		changed := false
		for j, a := range t.Args {
			args[j] = i.ReplaceSelf(a, with)
			changed = changed || args[j] != a
		}
		if !changed {
			return id
		}
		nt := t
		nt.Args = args
		return i.In.Intern(nt)
	case types.KindArray:
		elem := i.ReplaceSelf(t.Elem, with)
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

func (c *checker) replaceSelf(id types.TypeID, with types.TypeID) types.TypeID {
	return c.info.ReplaceSelf(id, with)
}

// checkImplConformance verifies every trait impl provides the full
// trait surface with compatible member signatures.
func (c *checker) checkImplConformance() {
	for _, impl := range c.info.Impls {
		if impl.Trait == nil {
			continue
		}
		trait, ok := c.info.Traits[impl.Trait.Trait]
		if !ok {
			continue
		}
		c.checkOneImpl(impl, trait)
	}
}

func (c *checker) checkOneImpl(impl *ImplInfo, trait *TraitInfo) {
	span := impl.Decl.SelfType.Span
	traitName := c.table.Symbol(trait.Sym).Name

	// Supertraits must already hold for the self type.
	for _, super := range trait.Supers {
		if !c.satisfiesBound(impl.SelfType, super, impl.Generics) {
			c.errorAt(diag.TypeUnsatisfiedBound, span,
				"'"+c.in.String(impl.SelfType)+"' implements '"+traitName+
					"' but not its supertrait '"+c.table.Symbol(super.Trait).Name+"'").Emit()
		}
	}

	for _, at := range trait.AssocTypes {
		if _, bound := impl.AssocTypes[at.Name]; !bound {
			c.errorAt(diag.TypeMissingImplMember, span,
				"missing associated type '"+at.Name+"' required by '"+traitName+"'").Emit()
		}
	}
	for name := range impl.AssocTypes {
		if !trait.hasAssocType(name) {
			c.errorAt(diag.TypeUnknownAssoc, span,
				"'"+name+"' is not an associated type of '"+traitName+"'").Emit()
		}
	}

	for _, ac := range trait.AssocConsts {
		if _, bound := impl.AssocConsts[ac.Name]; !bound && ac.Default == nil {
			c.errorAt(diag.TypeMissingImplMember, span,
				"missing associated constant '"+ac.Name+"' required by '"+traitName+"'").Emit()
		}
	}

	for name, want := range trait.Methods {
		got, has := impl.Methods[name]
		if !has {
			if _, hasDefault := trait.Defaults[name]; !hasDefault {
				c.errorAt(diag.TypeMissingImplMember, span,
					"missing method '"+name+"' required by '"+traitName+"'").Emit()
			}
			continue
		}
		c.checkMethodCompat(impl, trait, name, want, got)
	}
	for name, got := range impl.Methods {
		if _, declared := trait.Methods[name]; !declared {
			c.errorAt(diag.TypeMissingImplMember, got.Decl.Name.Span,
				"'"+name+"' is not a method of trait '"+traitName+"'").Emit()
		}
	}
}

func (t *TraitInfo) hasAssocType(name string) bool {
	for _, at := range t.AssocTypes {
		if at.Name == name {
			return true
		}
	}
	return false
}

// checkMethodCompat compares an impl method against the trait's
// declaration with Self and trait generics instantiated for this impl.
func (c *checker) checkMethodCompat(impl *ImplInfo, trait *TraitInfo, name string, want, got *FnSig) {
	span := got.Decl.Name.Span
	if want.HasSelf != got.HasSelf || len(want.Params) != len(got.Params) {
		c.errorAt(diag.TypeMismatch, span,
			"method '"+name+"' does not match its trait declaration").Emit()
		return
	}
	if len(want.Generics) != len(got.Generics)-len(impl.Generics) {
		c.errorAt(diag.TypeArityMismatch, span,
			"method '"+name+"' declares a different number of generic parameters than the trait").Emit()
		return
	}
	for i := range want.Params {
		w := c.instantiateTraitSide(impl, trait, want.Params[i], len(want.Generics), len(impl.Generics))
		if !c.sameSig(w, got.Params[i]) {
			c.errorAt(diag.TypeMismatch, span,
				"parameter "+c.in.String(got.Params[i])+" of '"+name+
					"' does not match the trait's "+c.in.String(w)).Emit()
			return
		}
	}
	w := c.instantiateTraitSide(impl, trait, want.Result, len(want.Generics), len(impl.Generics))
	if !c.sameSig(w, got.Result) {
		c.errorAt(diag.TypeMismatch, span,
			"return type of '"+name+"' does not match the trait declaration").Emit()
	}
}

// instantiateTraitSide maps a trait-declared type into the impl's
// frame: Self becomes the impl self type, trait generics become the
// impl's trait arguments, and trait-method generics are renumbered to
// follow the impl's own parameters.
func (c *checker) instantiateTraitSide(impl *ImplInfo, trait *TraitInfo, id types.TypeID, methodGenerics, implGenerics int) types.TypeID {
	// Consts stays nil so symbolic array lengths pass through untouched.
	total := len(trait.Generics) + methodGenerics
	sub := types.Subst{Types: make([]types.TypeID, total)}
	for i := range trait.Generics {
		if i < len(impl.Trait.Args) {
			sub.Types[i] = impl.Trait.Args[i]
		}
	}
	for i := 0; i < methodGenerics; i++ {
		p := trait.methodParamAt(len(trait.Generics) + i)
		sub.Types[len(trait.Generics)+i] = c.in.Intern(
			types.MakeParam(uint32(implGenerics+i), p))
	}
	out := c.in.Substitute(id, sub)
	return c.replaceSelf(out, impl.SelfType)
}

func (t *TraitInfo) methodParamAt(index int) string {
	for _, sig := range t.Methods {
		for i := range sig.Generics {
			if int(sig.Generics[i].Index) == index {
				return sig.Generics[i].Name
			}
		}
	}
	return "_"
}

// sameSig compares two signature types, tolerating poison.
func (c *checker) sameSig(a, b types.TypeID) bool {
	if a == b {
		return true
	}
	at, _ := c.in.Lookup(a)
	bt, _ := c.in.Lookup(b)
	return at.Kind == types.KindError || bt.Kind == types.KindError
}

// checkAssocConstCycles rejects associated constants whose values
// refer back to themselves through Self::NAME chains.
func (c *checker) checkAssocConstCycles() {
	for _, impl := range c.info.Impls {
		for name, ac := range impl.AssocConsts {
			if c.assocConstReaches(impl, ac.Value, name, map[string]bool{name: true}) {
				sp := impl.Decl.SelfType.Span
				for _, d := range impl.Decl.AssocConsts {
					if d.Name.Name == name {
						sp = d.Span
					}
				}
				c.errorAt(diag.TypeAssocCycle, sp,
					"associated constant '"+name+"' depends on itself").Emit()
			}
		}
	}
}

// assocConstReaches walks a value expression for Self::X references
// that lead back to target.
func (c *checker) assocConstReaches(impl *ImplInfo, e *ast.Expr, target string, visiting map[string]bool) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprPath:
		pd := e.Data.(*ast.PathData)
		segs := pd.Path.Segments
		if len(segs) != 2 || segs[0].Name != "Self" {
			return false
		}
		name := segs[1].Name
		next, ok := impl.AssocConsts[name]
		if !ok {
			return false
		}
		if name == target {
			return true
		}
		if visiting[name] {
			return false
		}
		visiting[name] = true
		defer delete(visiting, name)
		return c.assocConstReaches(impl, next.Value, target, visiting)
	case ast.ExprBinary:
		bd := e.Data.(*ast.BinaryData)
		return c.assocConstReaches(impl, bd.Left, target, visiting) ||
			c.assocConstReaches(impl, bd.Right, target, visiting)
	case ast.ExprUnary:
		return c.assocConstReaches(impl, e.Data.(*ast.UnaryData).Operand, target, visiting)
	case ast.ExprCast:
		return c.assocConstReaches(impl, e.Data.(*ast.CastData).Value, target, visiting)
	case ast.ExprCall:
		cd := e.Data.(*ast.CallData)
		for _, a := range cd.Args {
			if c.assocConstReaches(impl, a, target, visiting) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
