package symbols

import (
	"ember/internal/source"

	"fortio.org/safecast"
)

// Table is the arena holding the module tree and all symbols. IDs are
// 1-based; index 0 is the invalid sentinel.
type Table struct {
	modules  []Module
	symbols  []Symbol
	variants map[SymbolID]map[string]SymbolID
	root     ModuleID
}

// NewTable allocates an empty table with the root module in place.
func NewTable() *Table {
	t := &Table{
		modules:  make([]Module, 1),
		symbols:  make([]Symbol, 1),
		variants: make(map[SymbolID]map[string]SymbolID),
	}
	t.root = t.newModule("root", NoModuleID)
	return t
}

// Root returns the root module ID.
func (t *Table) Root() ModuleID { return t.root }

// Module returns the module for id; id must be valid.
func (t *Table) Module(id ModuleID) *Module {
	return &t.modules[id]
}

// Symbol returns the symbol for id; id must be valid.
func (t *Table) Symbol(id SymbolID) *Symbol {
	return &t.symbols[id]
}

// Modules returns the number of allocated modules including the root.
func (t *Table) Modules() int { return len(t.modules) - 1 }

// Symbols returns the number of allocated symbols.
func (t *Table) Symbols() int { return len(t.symbols) - 1 }

func (t *Table) newModule(name string, parent ModuleID) ModuleID {
	path := name
	if parent.IsValid() {
		path = t.modules[parent].Path + "::" + name
	}
	t.modules = append(t.modules, Module{
		Name:     name,
		Parent:   parent,
		Path:     path,
		Bindings: make(map[string]*Binding),
	})
	id := safecast.MustConvert[uint32](len(t.modules) - 1)
	return ModuleID(id)
}

func (t *Table) newSymbol(s Symbol) SymbolID {
	t.symbols = append(t.symbols, s)
	id := safecast.MustConvert[uint32](len(t.symbols) - 1)
	return SymbolID(id)
}

func (t *Table) addVariant(enumSym SymbolID, name string, variantSym SymbolID) {
	byName := t.variants[enumSym]
	if byName == nil {
		byName = make(map[string]SymbolID)
		t.variants[enumSym] = byName
	}
	byName[name] = variantSym
}

// Variant looks up a variant of an enum symbol by name.
func (t *Table) Variant(enumSym SymbolID, name string) (SymbolID, bool) {
	id, ok := t.variants[enumSym][name]
	return id, ok
}

// isSelfOrDescendant reports whether from is m or nested inside m.
func (t *Table) isSelfOrDescendant(from, m ModuleID) bool {
	for from.IsValid() {
		if from == m {
			return true
		}
		from = t.modules[from].Parent
	}
	return false
}

// VisibleFrom reports whether sym may be referenced from module from:
// public symbols always, private symbols only from the declaring
// module or its descendants.
func (t *Table) VisibleFrom(sym SymbolID, from ModuleID) bool {
	s := t.Symbol(sym)
	if s.IsPublic() {
		return true
	}
	return t.isSelfOrDescendant(from, s.Owner)
}

// SpanOf returns the declaration span of sym.
func (t *Table) SpanOf(sym SymbolID) source.Span {
	return t.Symbol(sym).Span
}
