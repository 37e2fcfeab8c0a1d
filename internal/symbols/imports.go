package symbols

import (
	"sort"

	"ember/internal/ast"
	"ember/internal/diag"
)

// resolveExplicitUse binds the final path segment (or its alias) in
// the importing module. Explicit imports run before any glob, so they
// always take precedence over glob-introduced names.
func (r *resolver) resolveExplicitUse(pu pendingUse) {
	sym, ok := r.resolvePathFrom(pu.module, pu.use.Path)
	if !ok {
		return
	}
	name := pu.use.Path.Segments[len(pu.use.Path.Segments)-1].Name
	if pu.use.Alias != nil {
		name = pu.use.Alias.Name
	}

	mod := r.table.Module(pu.module)
	if prev, exists := mod.Bindings[name]; exists {
		if prev.Sym == sym {
			return // re-importing the same symbol is harmless
		}
		r.errorAt(diag.ResDuplicateName, pu.use.Path.Span,
			"the name '"+name+"' is already bound in this module").
			WithNote(r.table.SpanOf(prev.Sym), "previous binding here").Emit()
		return
	}

	imported := *r.table.Symbol(sym)
	imported.Name = name
	imported.Flags |= SymbolFlagImported
	imported.Span = pu.use.Path.Span
	id := r.table.newSymbol(imported)
	// An imported module or enum keeps resolving through the original.
	r.aliasPayload(id, sym)
	mod.Bindings[name] = &Binding{Sym: id, Explicit: true}
}

// resolveGlobUse merges the public names of the target module (or the
// variants of a target enum) into the importing module. Existing
// bindings are never overwritten; a second glob binding the same name
// to a different symbol marks the name contested.
func (r *resolver) resolveGlobUse(pu pendingUse) {
	sym, ok := r.resolvePathFrom(pu.module, pu.use.Path)
	if !ok {
		return
	}
	target := r.table.Symbol(sym)
	mod := r.table.Module(pu.module)

	switch target.Kind {
	case SymbolModule:
		src := r.table.Module(target.Target)
		for _, name := range src.BindingNames() {
			b := src.Bindings[name]
			if !b.Explicit {
				continue // glob imports do not re-export glob imports
			}
			if !r.table.Symbol(b.Sym).IsPublic() {
				continue
			}
			r.globBind(mod, name, b.Sym)
		}
	case SymbolEnum:
		byName := r.table.variants[sym]
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r.globBind(mod, name, byName[name])
		}
	default:
		r.errorAt(diag.ResUnknownModule, pu.use.Path.Span,
			"'"+pu.use.Path.String()+"' is a "+target.Kind.String()+", not a module or enum").Emit()
	}
}

func (r *resolver) globBind(mod *Module, name string, sym SymbolID) {
	if prev, exists := mod.Bindings[name]; exists {
		if prev.Explicit || prev.Sym == sym {
			return
		}
		for _, c := range prev.Contested {
			if c == sym {
				return
			}
		}
		prev.Contested = append(prev.Contested, sym)
		return
	}
	mod.Bindings[name] = &Binding{Sym: sym}
}

// aliasPayload copies the resolution payload of src onto the alias
// symbol so that module and enum imports stay traversable.
func (r *resolver) aliasPayload(alias, src SymbolID) {
	s := r.table.Symbol(src)
	a := r.table.Symbol(alias)
	a.Target = s.Target
	if s.Kind == SymbolEnum {
		r.table.variants[alias] = r.table.variants[src]
	}
}

// resolvePathFrom resolves a use path: the first segment through the
// importing module's scope chain, the rest as module members. Errors
// (unknown name, private item from a non-ancestor module) are reported
// at the use site.
func (r *resolver) resolvePathFrom(from ModuleID, path ast.Path) (SymbolID, bool) {
	if len(path.Segments) == 0 {
		return NoSymbolID, false
	}
	first := path.Segments[0]
	sym, ok := r.lookupScopeChain(from, first.Name)
	if !ok {
		r.errorAt(diag.ResUnknownName, first.Span,
			"cannot find '"+first.Name+"' in this scope").Emit()
		return NoSymbolID, false
	}
	for _, seg := range path.Segments[1:] {
		s := r.table.Symbol(sym)
		switch s.Kind {
		case SymbolModule:
			b, exists := r.table.Module(s.Target).Bindings[seg.Name]
			if !exists {
				r.errorAt(diag.ResUnknownName, seg.Span,
					"cannot find '"+seg.Name+"' in module '"+r.table.Module(s.Target).Path+"'").Emit()
				return NoSymbolID, false
			}
			if !r.table.VisibleFrom(b.Sym, from) {
				r.errorAt(diag.ResPrivateItem, seg.Span,
					"'"+seg.Name+"' is private").
					WithNote(r.table.SpanOf(b.Sym), "declared here without 'pub'").Emit()
				return NoSymbolID, false
			}
			sym = b.Sym
		case SymbolEnum:
			v, exists := r.table.Variant(sym, seg.Name)
			if !exists {
				r.errorAt(diag.ResUnknownName, seg.Span,
					"enum '"+s.Name+"' has no variant '"+seg.Name+"'").Emit()
				return NoSymbolID, false
			}
			sym = v
		default:
			r.errorAt(diag.ResUnknownModule, seg.Span,
				"'"+s.Name+"' is a "+s.Kind.String()+" and has no members to import").Emit()
			return NoSymbolID, false
		}
	}
	return sym, true
}

// lookupScopeChain finds name in module m or any ancestor.
func (r *resolver) lookupScopeChain(m ModuleID, name string) (SymbolID, bool) {
	for m.IsValid() {
		if b, ok := r.table.Module(m).Bindings[name]; ok {
			return b.Sym, true
		}
		m = r.table.Module(m).Parent
	}
	return NoSymbolID, false
}
