// Package sema type-checks the resolved module tree.
//
// Inference is bidirectional: expected types flow down from let
// annotations, return types, and call argument positions; inferred
// types flow up from literals and sub-expressions, meeting in a
// union-find unifier. Trait resolution is overload resolution
// restricted by declared bounds. Every checked expression is annotated
// in Info for the lowering stages.
package sema

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// Options configures one Check call.
type Options struct {
	Reporter diag.Reporter
}

// Check runs semantic analysis over one compilation unit.
func Check(files []*ast.File, table *symbols.Table, opts Options) *Info {
	in := types.NewInterner()
	info := &Info{
		Table:     table,
		In:        in,
		ExprTypes: make(map[*ast.Expr]types.TypeID),
		PathSyms:  make(map[*ast.Expr]symbols.SymbolID),
		Methods:   make(map[*ast.Expr]*MethodTarget),
		CallSubst: make(map[*ast.Expr]types.Subst),
		AssocRefs: make(map[*ast.Expr]*AssocConstRef),
		FnSigs:    make(map[symbols.SymbolID]*FnSig),
		Structs:   make(map[symbols.SymbolID]*StructInfo),
		Enums:     make(map[symbols.SymbolID]*EnumInfo),
		Traits:    make(map[symbols.SymbolID]*TraitInfo),
		Consts:    make(map[symbols.SymbolID]*ConstInfo),
		Abis:      make(map[symbols.SymbolID]*AbiInfo),
	}
	c := &checker{
		info:     info,
		table:    table,
		in:       in,
		reporter: opts.Reporter,
	}
	c.collectDecls()
	c.checkImplConformance()
	c.checkAssocConstCycles()
	c.checkStorageAndConfig()
	c.checkBodies()
	return info
}

// checker carries the unit-wide state of one Check call.
type checker struct {
	info     *Info
	table    *symbols.Table
	in       *types.Interner
	reporter diag.Reporter

	// uni is rebuilt per function body; sharing one across bodies
	// would let bindings leak between unrelated scopes.
	uni *types.Unifier
}

func (c *checker) errorAt(code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(c.reporter, code, sp, msg)
}

// builtins is a shorthand accessor.
func (c *checker) builtins() types.Builtins { return c.in.Builtins() }
