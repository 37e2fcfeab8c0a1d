package sema

import (
	"strconv"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

// genericScope maps generic parameter names to their combined-list
// indices while resolving type expressions. Scopes chain so a method's
// generics extend its impl's.
type genericScope struct {
	parent *genericScope
	byName map[string]*GenericParam

	// module anchors path lookups for names in this scope.
	module symbols.ModuleID

	// selfType is the meaning of 'Self'; NoTypeID keeps the symbolic
	// KindSelf (inside trait declarations).
	selfType types.TypeID
}

func (sc *genericScope) lookup(name string) (*GenericParam, bool) {
	for s := sc; s != nil; s = s.parent {
		if p, ok := s.byName[name]; ok {
			return p, true
		}
	}
	return nil, false
}

func (sc *genericScope) resolveSelf() types.TypeID {
	for s := sc; s != nil; s = s.parent {
		if s.selfType.IsValid() {
			return s.selfType
		}
	}
	return types.NoTypeID
}

func newGenericScope(parent *genericScope, module symbols.ModuleID, params []GenericParam) *genericScope {
	sc := &genericScope{
		parent: parent,
		byName: make(map[string]*GenericParam, len(params)),
		module: module,
	}
	for i := range params {
		sc.byName[params[i].Name] = &params[i]
	}
	return sc
}

// resolveTypeExpr converts a syntactic type into an interned TypeID.
// Failures report once and return the error type, which unifies with
// anything downstream.
func (c *checker) resolveTypeExpr(sc *genericScope, te *ast.TypeExpr) types.TypeID {
	if te == nil {
		return c.builtins().Unit
	}
	switch te.Kind {
	case ast.TypeNamed:
		return c.resolveNamedType(sc, te)
	case ast.TypeTuple:
		data := te.Data.(*ast.TupleType)
		if len(data.Elems) == 0 {
			return c.builtins().Unit
		}
		elems := make([]types.TypeID, len(data.Elems))
		for i, e := range data.Elems {
			elems[i] = c.resolveTypeExpr(sc, e)
		}
		return c.in.Intern(types.MakeTuple(elems))
	case ast.TypeArray:
		data := te.Data.(*ast.ArrayType)
		elem := c.resolveTypeExpr(sc, data.Elem)
		count, param, ok := c.evalArrayLen(sc, data.Len)
		if !ok {
			return c.builtins().Error
		}
		if param != types.NoConstParam {
			return c.in.Intern(types.MakeArrayParam(elem, param))
		}
		return c.in.Intern(types.MakeArray(elem, count))
	case ast.TypeSelf:
		if bound := sc.resolveSelf(); bound.IsValid() {
			return bound
		}
		return c.builtins().SelfTy
	case ast.TypeNever:
		return c.builtins().Never
	case ast.TypeAssoc:
		return c.resolveAssocType(sc, te)
	case ast.TypeError:
		return c.builtins().Error
	default:
		return c.builtins().Error
	}
}

func (c *checker) resolveNamedType(sc *genericScope, te *ast.TypeExpr) types.TypeID {
	data := te.Data.(*ast.NamedType)
	if len(data.Path.Segments) == 1 {
		name := data.Path.Segments[0].Name
		if p, ok := sc.lookup(name); ok {
			if len(data.Args) != 0 {
				c.errorAt(diag.TypeArityMismatch, te.Span,
					"generic parameter '"+name+"' takes no type arguments").Emit()
			}
			if p.IsConst {
				c.errorAt(diag.TypeUnknown, te.Span,
					"'"+name+"' is a const parameter, not a type").Emit()
				return c.builtins().Error
			}
			return c.in.Intern(types.MakeParam(p.Index, p.Name))
		}
		if prim, ok := c.in.Primitive(name); ok {
			if len(data.Args) != 0 {
				c.errorAt(diag.TypeArityMismatch, te.Span,
					"'"+name+"' takes no type arguments").Emit()
			}
			return prim
		}
	}
	sym, ok := c.table.LookupPath(sc.module, data.Path, c.reporter)
	if !ok {
		return c.builtins().Error
	}
	s := c.table.Symbol(sym)
	if !s.Kind.IsType() {
		c.errorAt(diag.TypeUnknown, te.Span,
			"'"+data.Path.String()+"' is a "+s.Kind.String()+", not a type").Emit()
		return c.builtins().Error
	}

	declared := c.declaredGenerics(sym)
	args, ok := c.resolveTypeArgs(sc, te, declared, data.Args)
	if !ok {
		return c.builtins().Error
	}
	return c.in.Intern(types.MakeNamed(uint32(sym), s.Name, args))
}

// resolveTypeArgs checks arity and resolves each argument against the
// declared parameter (type vs const).
func (c *checker) resolveTypeArgs(sc *genericScope, te *ast.TypeExpr, declared []ast.TypeParam, args []ast.TypeArg) ([]types.TypeID, bool) {
	if len(args) != len(declared) {
		c.errorAt(diag.TypeArityMismatch, te.Span,
			"expected "+strconv.Itoa(len(declared))+" type argument(s), found "+strconv.Itoa(len(args))).Emit()
		return nil, false
	}
	if len(args) == 0 {
		return nil, true
	}
	out := make([]types.TypeID, len(args))
	for i, a := range args {
		if declared[i].IsConst {
			out[i] = c.resolveConstArg(sc, te, a)
		} else if a.Type != nil {
			out[i] = c.resolveTypeExpr(sc, a.Type)
		} else {
			c.errorAt(diag.TypeConstMismatch, te.Span,
				"expected a type argument, found a const expression").Emit()
			out[i] = c.builtins().Error
		}
	}
	return out, true
}

// resolveConstArg resolves a const generic argument. A const argument
// is a literal, a const item, or a reference to an in-scope const
// parameter; it is encoded as a unit-element array descriptor so it
// travels through the ordinary type-argument slot and participates in
// structural interning.
func (c *checker) resolveConstArg(sc *genericScope, te *ast.TypeExpr, a ast.TypeArg) types.TypeID {
	var expr *ast.Expr
	if a.Const != nil {
		expr = a.Const
	} else if a.Type != nil {
		// 'N' parsed as a named type referring to a const parameter.
		if nt, ok := a.Type.Data.(*ast.NamedType); ok && len(nt.Path.Segments) == 1 {
			if p, pok := sc.lookup(nt.Path.Segments[0].Name); pok && p.IsConst {
				return c.in.Intern(types.MakeArrayParam(c.builtins().Unit, p.Index))
			}
		}
		c.errorAt(diag.TypeConstMismatch, a.Type.Span,
			"expected a const expression for this parameter").Emit()
		return c.builtins().Error
	}
	if expr != nil {
		if v, param, ok := c.evalArrayLen(sc, expr); ok {
			if param != types.NoConstParam {
				return c.in.Intern(types.MakeArrayParam(c.builtins().Unit, param))
			}
			return c.in.Intern(types.MakeArray(c.builtins().Unit, v))
		}
	}
	c.errorAt(diag.TypeConstMismatch, te.Span, "invalid const argument").Emit()
	return c.builtins().Error
}

// resolveAssocType projects an associated type. '<T as Trait>::Name'
// projects through a trait; 'Self::Name' projects through the
// enclosing impl's bindings when Self is bound.
func (c *checker) resolveAssocType(sc *genericScope, te *ast.TypeExpr) types.TypeID {
	data := te.Data.(*ast.AssocType)
	var base types.TypeID
	if data.Base == nil {
		base = c.selfTypeIn(sc)
	} else {
		base = c.resolveTypeExpr(sc, data.Base)
	}
	bt, _ := c.in.Lookup(base)
	if bt.Kind == types.KindError {
		return base
	}

	if data.Trait != nil {
		bound, ok := c.resolveTraitRef(sc, data.Trait)
		if !ok {
			return c.builtins().Error
		}
		if proj, ok := c.projectAssocType(base, bound.Trait, data.Name.Name); ok {
			return proj
		}
		// Projection through a generic parameter stays symbolic until
		// monomorphization; encode as a fresh error-free marker.
		if bt.Kind == types.KindParam || bt.Kind == types.KindSelf {
			return c.projectionPlaceholder(base, bound.Trait, data.Name.Name)
		}
		c.errorAt(diag.TypeUnknownAssoc, te.Span,
			"no implementation provides associated type '"+data.Name.Name+"'").Emit()
		return c.builtins().Error
	}

	// Self::Name without an explicit trait: search impls of the bound
	// self type, then trait declarations in scope.
	if proj, ok := c.projectAssocTypeAnyTrait(base, data.Name.Name); ok {
		return proj
	}
	if bt.Kind == types.KindParam || bt.Kind == types.KindSelf {
		return c.projectionPlaceholder(base, symbols.NoSymbolID, data.Name.Name)
	}
	c.errorAt(diag.TypeUnknownAssoc, te.Span,
		"cannot resolve associated type '"+data.Name.Name+"'").Emit()
	return c.builtins().Error
}

// projectionPlaceholder represents 'Base::Name' while Base is still a
// generic parameter. It is a named type keyed off the assoc name so
// structurally equal projections compare equal; monomorphization
// replaces it after substitution.
func (c *checker) projectionPlaceholder(base types.TypeID, trait symbols.SymbolID, name string) types.TypeID {
	return c.in.Intern(types.MakeNamed(uint32(trait), "::"+name, []types.TypeID{base}))
}

// declaredGenerics returns the generic parameter declarations of a
// type symbol straight from the AST, avoiding collection-order
// dependencies between declarations.
func (c *checker) declaredGenerics(sym symbols.SymbolID) []ast.TypeParam {
	s := c.table.Symbol(sym)
	if s.Item == nil {
		return nil
	}
	switch d := s.Item.Data.(type) {
	case *ast.StructItem:
		return d.Generics
	case *ast.EnumItem:
		return d.Generics
	case *ast.TraitItem:
		return d.Generics
	case *ast.FnItem:
		return d.Generics
	default:
		return nil
	}
}

// resolveTraitRef resolves 'Path<Args, Name = T>' into a TraitBound.
func (c *checker) resolveTraitRef(sc *genericScope, ref *ast.TraitRef) (TraitBound, bool) {
	sym, ok := c.table.LookupPath(sc.module, ref.Path, c.reporter)
	if !ok {
		return TraitBound{}, false
	}
	s := c.table.Symbol(sym)
	if s.Kind != symbols.SymbolTrait {
		c.errorAt(diag.ResUnknownTrait, ref.Span,
			"'"+ref.Path.String()+"' is a "+s.Kind.String()+", not a trait").Emit()
		return TraitBound{}, false
	}
	bound := TraitBound{Trait: sym}
	for _, a := range ref.Args {
		bound.Args = append(bound.Args, c.resolveTypeExpr(sc, a))
	}
	if len(ref.Bindings) > 0 {
		bound.Bindings = make(map[string]types.TypeID, len(ref.Bindings))
		for _, b := range ref.Bindings {
			bound.Bindings[b.Name.Name] = c.resolveTypeExpr(sc, b.Type)
		}
	}
	return bound, true
}

// resolveBounds maps a syntactic bound list.
func (c *checker) resolveBounds(sc *genericScope, refs []ast.TraitRef) []TraitBound {
	var out []TraitBound
	for i := range refs {
		if b, ok := c.resolveTraitRef(sc, &refs[i]); ok {
			out = append(out, b)
		}
	}
	return out
}
