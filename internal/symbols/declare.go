package symbols

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/source"
)

// declareItems walks one item list, populating module m's namespace
// and collecting 'use' declarations for the import phases.
func (r *resolver) declareItems(m ModuleID, items []*ast.Item) {
	for _, item := range items {
		switch item.Kind {
		case ast.ItemMod:
			r.declareMod(m, item)
		case ast.ItemUse:
			use := item.Data.(*ast.UseItem)
			pu := pendingUse{module: m, item: item, use: use}
			if use.Glob {
				r.globUses = append(r.globUses, pu)
			} else {
				r.explicitUses = append(r.explicitUses, pu)
			}
		case ast.ItemFn:
			fn := item.Data.(*ast.FnItem)
			r.declare(m, Symbol{
				Name: fn.Name.Name, Kind: SymbolFn, Owner: m,
				Span: fn.Name.Span, Flags: visFlags(item.Vis), Item: item,
			})
		case ast.ItemStruct:
			st := item.Data.(*ast.StructItem)
			r.declare(m, Symbol{
				Name: st.Name.Name, Kind: SymbolStruct, Owner: m,
				Span: st.Name.Span, Flags: visFlags(item.Vis), Item: item,
			})
		case ast.ItemEnum:
			r.declareEnum(m, item)
		case ast.ItemTrait:
			tr := item.Data.(*ast.TraitItem)
			r.declare(m, Symbol{
				Name: tr.Name.Name, Kind: SymbolTrait, Owner: m,
				Span: tr.Name.Span, Flags: visFlags(item.Vis), Item: item,
			})
		case ast.ItemConst:
			c := item.Data.(*ast.ConstItem)
			r.declare(m, Symbol{
				Name: c.Name.Name, Kind: SymbolConst, Owner: m,
				Span: c.Name.Span, Flags: visFlags(item.Vis), Item: item,
			})
		case ast.ItemAbi:
			a := item.Data.(*ast.AbiItem)
			r.declare(m, Symbol{
				Name: a.Name.Name, Kind: SymbolAbi, Owner: m,
				Span: a.Name.Span, Flags: visFlags(item.Vis) | SymbolFlagPublic, Item: item,
			})
		case ast.ItemImpl:
			r.table.Module(m).Impls = append(r.table.Module(m).Impls, item.Data.(*ast.ImplItem))
		case ast.ItemStorage:
			r.declareStorage(m, item.Data.(*ast.StorageItem))
		case ast.ItemConfigurable:
			r.declareConfigurable(m, item.Data.(*ast.ConfigurableItem))
		case ast.ItemError:
			// Parser placeholder, already reported.
		}
	}
}

func (r *resolver) declareMod(parent ModuleID, item *ast.Item) {
	mod := item.Data.(*ast.ModItem)
	name := mod.Name.Name
	if prev, exists := r.table.Module(parent).Bindings[name]; exists {
		r.errorAt(diag.ResDuplicateName, mod.Name.Span,
			"the name '"+name+"' is declared more than once in this module").
			WithNote(r.table.SpanOf(prev.Sym), "previous declaration here").Emit()
		return
	}
	child := r.table.newModule(name, parent)
	sym := r.table.newSymbol(Symbol{
		Name: name, Kind: SymbolModule, Owner: parent,
		Span: mod.Name.Span, Flags: visFlags(item.Vis), Target: child,
	})
	r.table.Module(parent).Bindings[name] = &Binding{Sym: sym, Explicit: true}
	r.declareItems(child, mod.Items)
}

func (r *resolver) declareEnum(m ModuleID, item *ast.Item) {
	en := item.Data.(*ast.EnumItem)
	enumSym, ok := r.declare(m, Symbol{
		Name: en.Name.Name, Kind: SymbolEnum, Owner: m,
		Span: en.Name.Span, Flags: visFlags(item.Vis), Item: item,
	})
	if !ok {
		return
	}
	seen := make(map[string]source.Span, len(en.Variants))
	for i, v := range en.Variants {
		if prev, dup := seen[v.Name.Name]; dup {
			r.errorAt(diag.ResDuplicateName, v.Name.Span,
				"variant '"+v.Name.Name+"' is declared more than once in enum '"+en.Name.Name+"'").
				WithNote(prev, "previous declaration here").Emit()
			continue
		}
		seen[v.Name.Name] = v.Name.Span
		variantSym := r.table.newSymbol(Symbol{
			Name: v.Name.Name, Kind: SymbolVariant, Owner: m,
			Span: v.Name.Span, Flags: visFlags(item.Vis), Item: item,
			Enum: enumSym, VariantIndex: i,
		})
		r.table.addVariant(enumSym, v.Name.Name, variantSym)
	}
}

func (r *resolver) declareStorage(m ModuleID, st *ast.StorageItem) {
	mod := r.table.Module(m)
	// Field names must be unique per namespace across all storage
	// blocks of the module; a colliding name would collide as a slot
	// path before it ever collides as a hash.
	for _, prev := range mod.Storage {
		if prev.Namespace != st.Namespace {
			continue
		}
		for _, pf := range prev.Fields {
			for _, f := range st.Fields {
				if pf.Name.Name == f.Name.Name {
					r.errorAt(diag.ResDuplicateStorage, f.Name.Span,
						"storage field '"+f.Name.Name+"' is declared more than once").
						WithNote(pf.Name.Span, "previous declaration here").Emit()
				}
			}
		}
	}
	seen := make(map[string]source.Span, len(st.Fields))
	for _, f := range st.Fields {
		if prev, dup := seen[f.Name.Name]; dup {
			r.errorAt(diag.ResDuplicateStorage, f.Name.Span,
				"storage field '"+f.Name.Name+"' is declared more than once").
				WithNote(prev, "previous declaration here").Emit()
			continue
		}
		seen[f.Name.Name] = f.Name.Span
	}
	mod.Storage = append(mod.Storage, st)
}

func (r *resolver) declareConfigurable(m ModuleID, cfg *ast.ConfigurableItem) {
	mod := r.table.Module(m)
	for _, prev := range mod.Configurable {
		for _, pe := range prev.Entries {
			for _, e := range cfg.Entries {
				if pe.Name.Name == e.Name.Name {
					r.errorAt(diag.ResDuplicateName, e.Name.Span,
						"configurable constant '"+e.Name.Name+"' is declared more than once").
						WithNote(pe.Name.Span, "previous declaration here").Emit()
				}
			}
		}
	}
	mod.Configurable = append(mod.Configurable, cfg)
}

// declare binds a fresh symbol in module m, reporting duplicates.
func (r *resolver) declare(m ModuleID, s Symbol) (SymbolID, bool) {
	mod := r.table.Module(m)
	if prev, exists := mod.Bindings[s.Name]; exists {
		r.errorAt(diag.ResDuplicateName, s.Span,
			"the name '"+s.Name+"' is declared more than once in this module").
			WithNote(r.table.SpanOf(prev.Sym), "previous declaration here").Emit()
		return NoSymbolID, false
	}
	id := r.table.newSymbol(s)
	mod.Bindings[s.Name] = &Binding{Sym: id, Explicit: true}
	return id, true
}

func visFlags(v ast.Visibility) SymbolFlags {
	if v == ast.VisPublic {
		return SymbolFlagPublic
	}
	return 0
}
