package sema

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// checkStorageAndConfig resolves storage blocks and configurable
// entries, then checks their initializers as constant-context bodies.
func (c *checker) checkStorageAndConfig() {
	c.eachModule(func(m symbols.ModuleID) {
		mod := c.table.Module(m)
		sc := newGenericScope(nil, m, nil)
		for _, block := range mod.Storage {
			for i := range block.Fields {
				f := &block.Fields[i]
				data := &ast.StorageData{Fields: []ast.Ident{f.Name}}
				c.info.Storage = append(c.info.Storage, StorageFieldInfo{
					Name:      f.Name.Name,
					Namespace: block.Namespace,
					Path:      data.AccessPath(block.Namespace),
					Module:    m,
					Type:      c.resolveTypeExpr(sc, f.Type),
					Init:      f.Init,
				})
			}
		}
		for _, block := range mod.Configurable {
			for i := range block.Entries {
				entry := &block.Entries[i]
				c.info.Config = append(c.info.Config, ConfigEntryInfo{
					Name:    entry.Name.Name,
					Type:    c.resolveTypeExpr(sc, entry.Type),
					Default: entry.Default,
				})
			}
		}
	})
	c.checkInitializers()
}

// checkInitializers types every storage initializer and configurable
// default against its declared type inside a synthetic pure context.
func (c *checker) checkInitializers() {
	for i := range c.info.Storage {
		f := &c.info.Storage[i]
		if f.Init == nil {
			c.errorAt(diag.SynExpectExpression, spanOfField(c, f),
				"storage field '"+f.Name+"' needs an initializer").Emit()
			continue
		}
		c.checkConstExpr(f.Module, f.Init, f.Type, "storage field '"+f.Name+"'")
	}
	for i := range c.info.Config {
		entry := &c.info.Config[i]
		if entry.Default == nil {
			continue
		}
		// Configurables live at the root contract scope.
		c.checkConstExpr(c.table.Root(), entry.Default, entry.Type,
			"configurable '"+entry.Name+"'")
	}
	c.eachModule(func(m symbols.ModuleID) {
		c.eachDeclared(m, symbols.SymbolConst, func(sym symbols.SymbolID, s *symbols.Symbol) {
			ci := c.info.Consts[sym]
			if ci == nil || ci.Decl.Value == nil {
				return
			}
			c.checkConstExpr(m, ci.Decl.Value, ci.Type, "constant '"+s.Name+"'")
		})
	})
}

func spanOfField(c *checker, f *StorageFieldInfo) (sp source.Span) {
	for _, block := range c.table.Module(f.Module).Storage {
		for _, fd := range block.Fields {
			if fd.Name.Name == f.Name && block.Namespace == f.Namespace {
				return fd.Span
			}
		}
	}
	return sp
}

// checkConstExpr checks a declaration-level expression in a fresh
// body context with pure purity and no locals.
func (c *checker) checkConstExpr(m symbols.ModuleID, e *ast.Expr, want types.TypeID, what string) {
	c.uni = types.NewUnifier(c.in)
	sig := &FnSig{
		Module: m,
		Result: want,
		Purity: ast.PurityPure,
		scope:  newGenericScope(nil, m, nil),
	}
	fx := &fnCtx{sig: sig, module: m, locals: newLocalScope(nil)}
	got := c.checkExpr(fx, e, want)
	c.unifyAt(fx, e.Span, want, got, what+" initializes with")
	c.finalize(fx)
}
