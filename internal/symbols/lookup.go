package symbols

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
)

// LookupPath resolves a reference path from module 'from' at type
// checking time. Contested glob names and privacy violations are
// reported here, at the reference, not at import time.
func (t *Table) LookupPath(from ModuleID, path ast.Path, reporter diag.Reporter) (SymbolID, bool) {
	if len(path.Segments) == 0 {
		return NoSymbolID, false
	}
	first := path.Segments[0]
	sym, ok := t.lookupName(from, first.Name, first.Span, reporter)
	if !ok {
		return NoSymbolID, false
	}
	for _, seg := range path.Segments[1:] {
		s := t.Symbol(sym)
		switch s.Kind {
		case SymbolModule:
			target := t.Module(s.Target)
			b, exists := target.Bindings[seg.Name]
			if !exists {
				diag.ReportError(reporter, diag.ResUnknownName, seg.Span,
					"cannot find '"+seg.Name+"' in module '"+target.Path+"'").Emit()
				return NoSymbolID, false
			}
			next, bOK := t.disambiguate(b, seg.Name, seg.Span, reporter)
			if !bOK {
				return NoSymbolID, false
			}
			if !t.VisibleFrom(next, from) {
				diag.ReportError(reporter, diag.ResPrivateItem, seg.Span,
					"'"+seg.Name+"' is private").
					WithNote(t.SpanOf(next), "declared here without 'pub'").Emit()
				return NoSymbolID, false
			}
			sym = next
		case SymbolEnum:
			v, exists := t.Variant(sym, seg.Name)
			if !exists {
				diag.ReportError(reporter, diag.ResUnknownName, seg.Span,
					"enum '"+s.Name+"' has no variant '"+seg.Name+"'").Emit()
				return NoSymbolID, false
			}
			sym = v
		default:
			diag.ReportError(reporter, diag.ResUnknownName, seg.Span,
				"'"+s.Name+"' is a "+s.Kind.String()+" and has no member '"+seg.Name+"'").Emit()
			return NoSymbolID, false
		}
	}
	return sym, true
}

// lookupName resolves a single name through the scope chain.
func (t *Table) lookupName(from ModuleID, name string, sp source.Span, reporter diag.Reporter) (SymbolID, bool) {
	for m := from; m.IsValid(); m = t.Module(m).Parent {
		b, ok := t.Module(m).Bindings[name]
		if !ok {
			continue
		}
		return t.disambiguate(b, name, sp, reporter)
	}
	diag.ReportError(reporter, diag.ResUnknownName, sp,
		"cannot find '"+name+"' in this scope").Emit()
	return NoSymbolID, false
}

// disambiguate rejects references to names contested between globs.
func (t *Table) disambiguate(b *Binding, name string, sp source.Span, reporter diag.Reporter) (SymbolID, bool) {
	if len(b.Contested) == 0 {
		return b.Sym, true
	}
	rb := diag.ReportError(reporter, diag.ResGlobCollision, sp,
		"'"+name+"' is ambiguous: multiple glob imports introduce this name").
		WithNote(t.SpanOf(b.Sym), "candidate here")
	for _, c := range b.Contested {
		rb = rb.WithNote(t.SpanOf(c), "candidate here")
	}
	rb.Emit()
	return NoSymbolID, false
}
