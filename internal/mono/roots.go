package mono

import (
	"sort"

	"ember/internal/diag"
	"ember/internal/symbols"
	"ember/internal/types"
)

// seedRoots builds the fixed-order root set: the entrypoint, then abi
// methods, then tests.
func (m *mono) seedRoots(includeTests bool) {
	m.seedMain()
	m.seedAbis()
	if includeTests {
		m.seedTests()
	}
}

// seedMain roots a 'main' function in the root module when present.
// Whether the program kind requires one is the driver's call.
func (m *mono) seedMain() {
	b, ok := m.table.Module(m.table.Root()).Bindings["main"]
	if !ok {
		return
	}
	if m.table.Symbol(b.Sym).Kind != symbols.SymbolFn {
		return
	}
	if inst := m.rootInstance(b.Sym, "the entrypoint 'main'"); inst != nil {
		m.prog.Roots = append(m.prog.Roots, Root{Kind: RootMain, Inst: inst})
	}
}

// seedAbis binds each declared abi method to the function of the same
// name in the abi's module and roots it.
func (m *mono) seedAbis() {
	syms := make([]symbols.SymbolID, 0, len(m.info.Abis))
	for sym := range m.info.Abis {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	for _, abiSym := range syms {
		ai := m.info.Abis[abiSym]
		mod := m.table.Module(m.table.Symbol(abiSym).Owner)
		for _, am := range ai.Methods {
			name := am.Sig.Decl.Name.Name
			b, ok := mod.Bindings[name]
			if !ok || m.table.Symbol(b.Sym).Kind != symbols.SymbolFn {
				m.errorAt(diag.ResMissingEntrypoint, am.Sig.Decl.Name.Span,
					"abi method '"+name+"' has no backing function named '"+
						name+"' in module '"+mod.Path+"'").Emit()
				continue
			}
			if inst := m.rootInstance(b.Sym, "the abi method '"+name+"'"); inst != nil {
				m.prog.Roots = append(m.prog.Roots,
					Root{Kind: RootAbi, Inst: inst, Abi: abiSym, Method: name})
			}
		}
	}
}

// seedTests roots every #[test] function declared anywhere in the unit.
func (m *mono) seedTests() {
	for id := symbols.ModuleID(1); int(id) <= m.table.Modules(); id++ {
		mod := m.table.Module(id)
		for _, name := range mod.BindingNames() {
			b := mod.Bindings[name]
			s := m.table.Symbol(b.Sym)
			if s.Kind != symbols.SymbolFn || s.Owner != id ||
				s.Flags&symbols.SymbolFlagImported != 0 {
				continue
			}
			sig := m.info.FnSigs[b.Sym]
			if sig == nil || !sig.IsTest {
				continue
			}
			if inst := m.rootInstance(b.Sym, "the test '"+name+"'"); inst != nil {
				m.prog.Roots = append(m.prog.Roots, Root{Kind: RootTest, Inst: inst})
			}
		}
	}
}

// rootInstance specializes a root with the empty substitution; roots
// have no call site to infer arguments from, so they must not be
// generic.
func (m *mono) rootInstance(sym symbols.SymbolID, what string) *Instance {
	sig := m.info.FnSigs[sym]
	if sig == nil || sig.Decl == nil {
		return nil
	}
	if len(sig.Generics) > 0 {
		m.errorAt(diag.MonoUnresolvedGeneric, sig.Decl.Name.Span,
			what+" cannot be generic").Emit()
		return nil
	}
	return m.instantiateFn(nil, 0, nil, sym, types.Subst{})
}
