// Package symbols builds the module tree and resolves names.
//
// Resolution runs in three phases over the parsed files of one unit:
// declarations first (building the module tree and every module's
// namespace), then explicit 'use' imports in declaration order, then
// glob imports. A glob never overwrites an existing binding; two globs
// contesting one name are recorded and reported only when the name is
// referenced ambiguously. Visibility is checked at reference time.
package symbols

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
)

type resolver struct {
	table    *Table
	reporter diag.Reporter

	explicitUses []pendingUse
	globUses     []pendingUse
}

type pendingUse struct {
	module ModuleID
	item   *ast.Item
	use    *ast.UseItem
}

// Resolve builds the symbol table for one compilation unit.
func Resolve(files []*ast.File, reporter diag.Reporter) *Table {
	r := &resolver{
		table:    NewTable(),
		reporter: reporter,
	}
	for _, f := range files {
		r.declareItems(r.table.Root(), f.Items)
	}
	for _, pu := range r.explicitUses {
		r.resolveExplicitUse(pu)
	}
	for _, pu := range r.globUses {
		r.resolveGlobUse(pu)
	}
	return r.table
}

func (r *resolver) errorAt(code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(r.reporter, code, sp, msg)
}
