package sema

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

// collectDecls resolves every declaration signature in the unit:
// struct fields, enum payloads, trait surfaces, function signatures,
// impl blocks, constants, and abi declarations. Bodies are not
// touched here.
func (c *checker) collectDecls() {
	c.eachModule(func(m symbols.ModuleID) { c.collectTypes(m) })
	c.eachModule(func(m symbols.ModuleID) { c.collectTraits(m) })
	c.eachModule(func(m symbols.ModuleID) { c.collectFns(m) })
	c.eachModule(func(m symbols.ModuleID) { c.collectImpls(m) })
	c.eachModule(func(m symbols.ModuleID) { c.collectConsts(m) })
	c.eachModule(func(m symbols.ModuleID) { c.collectAbis(m) })
}

func (c *checker) eachModule(fn func(symbols.ModuleID)) {
	for m := symbols.ModuleID(1); int(m) <= c.table.Modules(); m++ {
		fn(m)
	}
}

// eachDeclared visits the symbols declared directly in module m (not
// imported), in name order for determinism.
func (c *checker) eachDeclared(m symbols.ModuleID, kind symbols.SymbolKind, fn func(symbols.SymbolID, *symbols.Symbol)) {
	mod := c.table.Module(m)
	for _, name := range mod.BindingNames() {
		b := mod.Bindings[name]
		s := c.table.Symbol(b.Sym)
		if s.Kind != kind || s.Flags&symbols.SymbolFlagImported != 0 || s.Owner != m {
			continue
		}
		fn(b.Sym, s)
	}
}

// buildGenerics resolves a generic parameter list plus where clause
// into GenericParams and the scope containing them. base offsets the
// indices so method generics extend their impl's list.
func (c *checker) buildGenerics(parent *genericScope, m symbols.ModuleID, decls []ast.TypeParam, where []ast.WherePred, base uint32) ([]GenericParam, *genericScope) {
	params := make([]GenericParam, len(decls))
	for i, d := range decls {
		params[i] = GenericParam{
			Name:    d.Name.Name,
			Index:   base + uint32(i),
			IsConst: d.IsConst,
		}
	}
	sc := newGenericScope(parent, m, params)
	for i, d := range decls {
		if d.IsConst {
			params[i].ConstType = c.resolveTypeExpr(sc, d.ConstType)
		} else {
			params[i].Bounds = c.resolveBounds(sc, d.Bounds)
		}
	}
	for _, pred := range where {
		target := c.resolveTypeExpr(sc, pred.Target)
		tt, _ := c.in.Lookup(target)
		if tt.Kind != types.KindParam {
			c.errorAt(diag.TypeUnsatisfiedBound, pred.Target.Span,
				"where clauses may only constrain generic parameters").Emit()
			continue
		}
		bounds := c.resolveBounds(sc, pred.Bounds)
		for i := range params {
			if params[i].Index == tt.Sym {
				params[i].Bounds = append(params[i].Bounds, bounds...)
			}
		}
	}
	return params, sc
}

func (c *checker) collectTypes(m symbols.ModuleID) {
	c.eachDeclared(m, symbols.SymbolStruct, func(sym symbols.SymbolID, s *symbols.Symbol) {
		decl := s.Item.Data.(*ast.StructItem)
		generics, sc := c.buildGenerics(nil, m, decl.Generics, nil, 0)
		info := &StructInfo{Sym: sym, Decl: decl, Module: m, Generics: generics}
		for _, f := range decl.Fields {
			info.FieldNames = append(info.FieldNames, f.Name.Name)
			info.FieldTypes = append(info.FieldTypes, c.resolveTypeExpr(sc, f.Type))
			info.FieldVis = append(info.FieldVis, f.Vis)
		}
		c.info.Structs[sym] = info
	})
	c.eachDeclared(m, symbols.SymbolEnum, func(sym symbols.SymbolID, s *symbols.Symbol) {
		decl := s.Item.Data.(*ast.EnumItem)
		generics, sc := c.buildGenerics(nil, m, decl.Generics, nil, 0)
		info := &EnumInfo{Sym: sym, Decl: decl, Module: m, Generics: generics}
		for _, v := range decl.Variants {
			vi := VariantInfo{Name: v.Name.Name}
			for _, p := range v.Payload {
				vi.Payload = append(vi.Payload, c.resolveTypeExpr(sc, p))
			}
			info.Variants = append(info.Variants, vi)
		}
		c.info.Enums[sym] = info
	})
}

func (c *checker) collectTraits(m symbols.ModuleID) {
	c.eachDeclared(m, symbols.SymbolTrait, func(sym symbols.SymbolID, s *symbols.Symbol) {
		decl := s.Item.Data.(*ast.TraitItem)
		generics, sc := c.buildGenerics(nil, m, decl.Generics, nil, 0)
		info := &TraitInfo{
			Sym: sym, Decl: decl, Module: m, Generics: generics,
			Methods:  make(map[string]*FnSig),
			Defaults: make(map[string]*ast.FnItem),
		}
		info.Supers = c.resolveBounds(sc, decl.Supers)
		for _, at := range decl.AssocTypes {
			info.AssocTypes = append(info.AssocTypes, AssocTypeInfo{
				Name:   at.Name.Name,
				Bounds: c.resolveBounds(sc, at.Bounds),
			})
		}
		for _, ac := range decl.AssocConsts {
			info.AssocConsts = append(info.AssocConsts, AssocConstInfo{
				Name:    ac.Name.Name,
				Type:    c.resolveTypeExpr(sc, ac.Type),
				Default: ac.Default,
			})
		}
		for _, method := range decl.Methods {
			sig := c.buildFnSig(sc, m, symbols.NoSymbolID, method, uint32(len(generics)))
			if _, dup := info.Methods[method.Name.Name]; dup {
				c.errorAt(diag.ResDuplicateName, method.Name.Span,
					"method '"+method.Name.Name+"' is declared more than once in this trait").Emit()
				continue
			}
			info.Methods[method.Name.Name] = sig
			if method.Body != nil {
				info.Defaults[method.Name.Name] = method
			}
		}
		c.info.Traits[sym] = info
	})
}

func (c *checker) collectFns(m symbols.ModuleID) {
	c.eachDeclared(m, symbols.SymbolFn, func(sym symbols.SymbolID, s *symbols.Symbol) {
		decl := s.Item.Data.(*ast.FnItem)
		sig := c.buildFnSig(nil, m, sym, decl, 0)
		c.info.FnSigs[sym] = sig
	})
}

// buildFnSig resolves one function signature in the enclosing scope.
func (c *checker) buildFnSig(parent *genericScope, m symbols.ModuleID, sym symbols.SymbolID, decl *ast.FnItem, base uint32) *FnSig {
	generics, sc := c.buildGenerics(parent, m, decl.Generics, decl.Where, base)
	sig := &FnSig{
		Sym: sym, Decl: decl, Module: m, Generics: generics,
		Purity: decl.Purity, Payable: decl.Payable, IsTest: decl.IsTest,
	}
	for _, p := range decl.Params {
		if p.IsSelf {
			sig.HasSelf = true
			sig.Params = append(sig.Params, c.selfTypeIn(sc))
			continue
		}
		sig.Params = append(sig.Params, c.resolveTypeExpr(sc, p.Type))
	}
	sig.Result = c.resolveTypeExpr(sc, decl.Return)
	sig.scope = sc
	return sig
}

func (c *checker) selfTypeIn(sc *genericScope) types.TypeID {
	if bound := sc.resolveSelf(); bound.IsValid() {
		return bound
	}
	return c.builtins().SelfTy
}

func (c *checker) collectImpls(m symbols.ModuleID) {
	for _, decl := range c.table.Module(m).Impls {
		generics, sc := c.buildGenerics(nil, m, decl.Generics, decl.Where, 0)
		selfType := c.resolveTypeExpr(sc, decl.SelfType)
		sc.selfType = selfType

		info := &ImplInfo{
			Decl: decl, Module: m, Generics: generics,
			SelfType:    selfType,
			Methods:     make(map[string]*FnSig),
			AssocTypes:  make(map[string]types.TypeID),
			AssocConsts: make(map[string]*AssocConstInfo),
		}
		if decl.Trait != nil {
			if bound, ok := c.resolveTraitRef(sc, decl.Trait); ok {
				info.Trait = &bound
			}
		}
		for _, at := range decl.AssocTypes {
			info.AssocTypes[at.Name.Name] = c.resolveTypeExpr(sc, at.Type)
		}
		for _, ac := range decl.AssocConsts {
			info.AssocConsts[ac.Name.Name] = &AssocConstInfo{
				Name:  ac.Name.Name,
				Type:  c.resolveTypeExpr(sc, ac.Type),
				Value: ac.Value,
			}
		}
		for _, method := range decl.Methods {
			sig := c.buildFnSig(sc, m, symbols.NoSymbolID, method, uint32(len(generics)))
			if _, dup := info.Methods[method.Name.Name]; dup {
				c.errorAt(diag.ResDuplicateName, method.Name.Span,
					"method '"+method.Name.Name+"' is defined more than once in this impl").Emit()
				continue
			}
			info.Methods[method.Name.Name] = sig
		}
		c.info.Impls = append(c.info.Impls, info)
	}
	c.checkDuplicateImpls(m)
}

// checkDuplicateImpls rejects two impls of one trait for one self type
// in the same module.
func (c *checker) checkDuplicateImpls(m symbols.ModuleID) {
	seen := make(map[string]*ImplInfo)
	for _, impl := range c.info.Impls {
		if impl.Module != m || impl.Trait == nil {
			continue
		}
		key := c.in.String(impl.SelfType) + " as " + c.table.Symbol(impl.Trait.Trait).Name
		if prev, dup := seen[key]; dup {
			c.errorAt(diag.ResDuplicateImpl, impl.Decl.SelfType.Span,
				"duplicate implementation of '"+c.table.Symbol(impl.Trait.Trait).Name+
					"' for '"+c.in.String(impl.SelfType)+"'").
				WithNote(prev.Decl.SelfType.Span, "first implementation here").Emit()
			continue
		}
		seen[key] = impl
	}
}

func (c *checker) collectConsts(m symbols.ModuleID) {
	c.eachDeclared(m, symbols.SymbolConst, func(sym symbols.SymbolID, s *symbols.Symbol) {
		decl := s.Item.Data.(*ast.ConstItem)
		sc := newGenericScope(nil, m, nil)
		info := &ConstInfo{
			Sym: sym, Decl: decl, Module: m,
			Type: c.resolveTypeExpr(sc, decl.Type),
		}
		if v, ok := c.evalConstValue(m, decl.Value, map[symbols.SymbolID]bool{sym: true}); ok {
			info.Value, info.HasVal = v, true
		}
		c.info.Consts[sym] = info
	})
}

func (c *checker) collectAbis(m symbols.ModuleID) {
	c.eachDeclared(m, symbols.SymbolAbi, func(sym symbols.SymbolID, s *symbols.Symbol) {
		decl := s.Item.Data.(*ast.AbiItem)
		info := &AbiInfo{Sym: sym, Decl: decl}
		sc := newGenericScope(nil, m, nil)
		for _, method := range decl.Methods {
			if len(method.Generics) != 0 {
				c.errorAt(diag.TypeUnsatisfiedBound, method.Name.Span,
					"abi methods cannot be generic").Emit()
			}
			sig := c.buildFnSig(sc, m, symbols.NoSymbolID, method, 0)
			info.Methods = append(info.Methods, AbiMethodInfo{Sig: sig})
		}
		c.info.Abis[sym] = info
	})
}
