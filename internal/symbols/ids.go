package symbols

// ModuleID identifies a module in the table arena.
type ModuleID uint32

const (
	// NoModuleID marks the absence of a module reference.
	NoModuleID ModuleID = 0
)

// IsValid reports whether the module ID refers to an allocated module.
func (id ModuleID) IsValid() bool { return id != NoModuleID }

// SymbolID identifies a symbol in the table arena.
type SymbolID uint32

const (
	// NoSymbolID marks the absence of a symbol reference.
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the symbol ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
