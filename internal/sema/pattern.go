package sema

import (
	"strconv"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

// checkPattern matches a pattern against the scrutinee type, defining
// bindings in the current arm's scope.
func (c *checker) checkPattern(fx *fnCtx, pat *ast.Pattern, scrut types.TypeID) {
	if pat == nil {
		return
	}
	resolved := c.uni.ResolveDeep(scrut)
	switch pat.Kind {
	case ast.PatWildcard, ast.PatError:
		return
	case ast.PatBinding:
		d := pat.Data.(*ast.BindingPat)
		// A bare name that spells a payloadless variant of the
		// scrutinee's enum matches that variant instead of binding.
		if enum, ok := c.info.EnumOf(resolved); ok {
			if idx := enum.VariantIndex(d.Name.Name); idx >= 0 {
				if len(enum.Variants[idx].Payload) != 0 {
					c.errorAt(diag.TypeArityMismatch, pat.Span,
						"variant '"+d.Name.Name+"' carries a payload; match it with '(..)'").Emit()
				}
				return
			}
		}
		fx.locals.define(d.Name.Name, local{ty: scrut})
	case ast.PatLiteral:
		d := pat.Data.(*ast.LiteralPat)
		litTy := c.literalPatternType(fx, pat, &d.Literal, resolved)
		c.unifyAt(fx, pat.Span, scrut, litTy, "pattern has type")
	case ast.PatTuple:
		d := pat.Data.(*ast.TuplePat)
		rt, _ := c.in.Lookup(resolved)
		if rt.Kind == types.KindError {
			return
		}
		if rt.Kind != types.KindTuple || len(rt.Args) != len(d.Elems) {
			c.errorAt(diag.TypeMismatch, pat.Span,
				"tuple pattern does not match '"+c.in.String(resolved)+"'").Emit()
			return
		}
		for i, el := range d.Elems {
			c.checkPattern(fx, el, rt.Args[i])
		}
	case ast.PatStruct:
		c.checkStructPattern(fx, pat, resolved)
	case ast.PatVariant:
		c.checkVariantPattern(fx, pat, resolved)
	}
}

func (c *checker) literalPatternType(fx *fnCtx, pat *ast.Pattern, lit *ast.LiteralData, scrut types.TypeID) types.TypeID {
	switch lit.Kind {
	case ast.LiteralBool:
		return c.builtins().Bool
	case ast.LiteralString:
		return c.builtins().String
	default:
		if suffix := suffixOf(lit.Text); suffix != "" {
			ty, _ := c.in.Primitive(suffix)
			return ty
		}
		if st, _ := c.in.Lookup(scrut); st.IsUint() {
			return scrut
		}
		v := c.uni.Fresh()
		fx.pendingInts = append(fx.pendingInts, pendingInt{v: v, sp: pat.Span})
		return v
	}
}

func (c *checker) checkStructPattern(fx *fnCtx, pat *ast.Pattern, scrut types.TypeID) {
	d := pat.Data.(*ast.StructPat)
	sym, ok := c.table.LookupPath(fx.module, d.Path, c.reporter)
	if !ok {
		return
	}
	st, isStruct := c.info.Structs[sym]
	if !isStruct {
		c.errorAt(diag.TypeUnknown, pat.Span,
			"'"+d.Path.String()+"' is not a struct").Emit()
		return
	}
	sub, ok := c.patternSubst(fx, pat, scrut, sym, st.Generics,
		c.table.Symbol(sym).Name)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		idx := st.FieldIndex(f.Name.Name)
		if idx < 0 {
			c.errorAt(diag.TypeNoSuchField, f.Name.Span,
				"'"+d.Path.String()+"' has no field '"+f.Name.Name+"'").Emit()
			continue
		}
		seen[f.Name.Name] = true
		c.checkPattern(fx, f.Pattern, c.in.Substitute(st.FieldTypes[idx], sub))
	}
	if !d.Rest {
		for _, name := range st.FieldNames {
			if !seen[name] {
				c.errorAt(diag.TypeNoSuchField, pat.Span,
					"pattern does not cover field '"+name+"'; add it or '..'").Emit()
			}
		}
	}
}

func (c *checker) checkVariantPattern(fx *fnCtx, pat *ast.Pattern, scrut types.TypeID) {
	d := pat.Data.(*ast.VariantPat)
	sym, ok := c.table.LookupPath(fx.module, d.Path, c.reporter)
	if !ok {
		return
	}
	s := c.table.Symbol(sym)
	if s.Kind != symbols.SymbolVariant {
		c.errorAt(diag.TypeUnknown, pat.Span,
			"'"+d.Path.String()+"' is not an enum variant").Emit()
		return
	}
	enum := c.info.Enums[s.Enum]
	if enum == nil {
		return
	}
	sub, ok := c.patternSubst(fx, pat, scrut, s.Enum, enum.Generics,
		c.table.Symbol(s.Enum).Name)
	if !ok {
		return
	}
	variant := enum.Variants[s.VariantIndex]
	if len(d.Payload) != len(variant.Payload) {
		c.errorAt(diag.TypeArityMismatch, pat.Span,
			"variant '"+variant.Name+"' carries "+strconv.Itoa(len(variant.Payload))+
				" value(s), pattern names "+strconv.Itoa(len(d.Payload))).Emit()
		return
	}
	for i, p := range d.Payload {
		c.checkPattern(fx, p, c.in.Substitute(variant.Payload[i], sub))
	}
}

// patternSubst recovers the scrutinee's generic arguments so payload
// and field types can be instantiated for sub-patterns.
func (c *checker) patternSubst(fx *fnCtx, pat *ast.Pattern, scrut types.TypeID, head symbols.SymbolID, generics []GenericParam, name string) (types.Subst, bool) {
	st, _ := c.in.Lookup(scrut)
	if st.Kind == types.KindError {
		return types.Subst{}, false
	}
	if st.Kind == types.KindNamed && st.Sym == uint32(head) {
		return c.substForNamed(generics, st.Args), true
	}
	// The scrutinee may still be an inference variable; instantiate
	// fresh and unify so the variable learns the enum or struct head.
	args := make([]types.TypeID, len(generics))
	anyConst := false
	for i := range generics {
		if generics[i].IsConst {
			anyConst = true
			continue
		}
		args[i] = c.uni.Fresh()
	}
	if anyConst {
		c.errorAt(diag.TypeConstMismatch, pat.Span,
			"cannot infer const parameters of '"+name+"' in this pattern").Emit()
		return types.Subst{}, false
	}
	fresh := c.in.Intern(types.MakeNamed(uint32(head), name, args))
	c.unifyAt(fx, pat.Span, scrut, fresh, "pattern matches")
	return types.Subst{Types: args}, true
}
