package symbols

import (
	"sort"

	"ember/internal/ast"
)

// Binding is one name visible in a module's namespace.
type Binding struct {
	Sym SymbolID

	// Explicit is true for declarations and explicit 'use' imports.
	// A glob-introduced binding never overwrites an explicit one.
	Explicit bool

	// Contested holds additional symbols that glob imports tried to
	// bind under the same name. A contested name is an error only at
	// an ambiguous reference, never at import time.
	Contested []SymbolID
}

// Module is one node of the module tree. Each module owns one
// namespace plus the impl/storage/configurable blocks declared in it,
// which are anonymous and therefore not bindings.
type Module struct {
	Name   string
	Parent ModuleID
	Path   string // "root", "root::math", ...

	Bindings map[string]*Binding

	Impls        []*ast.ImplItem
	Storage      []*ast.StorageItem
	Configurable []*ast.ConfigurableItem
}

// BindingNames returns the bound names in sorted order, for
// deterministic iteration.
func (m *Module) BindingNames() []string {
	names := make([]string, 0, len(m.Bindings))
	for name := range m.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
