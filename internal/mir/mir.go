// Package mir is the mid-level control-flow IR the optimizer and the
// code generator work on. Lowering turns each monomorphized function
// into a Func: a list of typed locals and basic blocks where every
// block ends in exactly one terminator.
package mir

import (
	"ember/internal/ast"
	"ember/internal/source"
	"ember/internal/types"
)

// FuncID indexes a function inside its Module.
type FuncID int32

// NoFuncID marks the absence of a function.
const NoFuncID FuncID = -1

// IsValid reports whether the ID refers to a function.
func (id FuncID) IsValid() bool { return id >= 0 }

// BlockID indexes a basic block inside its Func.
type BlockID int32

// NoBlockID marks the absence of a block.
const NoBlockID BlockID = -1

// LocalID indexes a local slot inside its Func.
type LocalID int32

// NoLocalID marks the absence of a local.
const NoLocalID LocalID = -1

// IsValid reports whether the ID refers to a local.
func (id LocalID) IsValid() bool { return id >= 0 }

// Local is one virtual slot: a parameter, a named binding, or a
// lowering temporary.
type Local struct {
	Type types.TypeID
	Name string // source name for params and lets, "" for temporaries
}

// Block is one basic block.
type Block struct {
	ID     BlockID
	Instrs []Instr
	Term   Terminator
}

// Func is one lowered function. The first Params locals are the
// parameters in declaration order.
type Func struct {
	ID      FuncID
	Name    string
	Key     string // structural instance key, "" for synthesized funcs
	Span    source.Span
	Params  int
	Result  types.TypeID
	Purity  ast.Purity
	Payable bool
	Locals  []Local
	Blocks  []*Block
	Entry   BlockID
}

// NewLocal appends a local slot and returns its ID.
func (f *Func) NewLocal(ty types.TypeID, name string) LocalID {
	f.Locals = append(f.Locals, Local{Type: ty, Name: name})
	return LocalID(len(f.Locals) - 1)
}

// NewBlock appends an empty, unterminated block.
func (f *Func) NewBlock() *Block {
	b := &Block{ID: BlockID(len(f.Blocks))}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Block returns the block with the given ID, or nil.
func (f *Func) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}

// StorageSlot is one persistent field with its canonical textual path,
// the input to slot-key hashing in the code generator.
type StorageSlot struct {
	Path string
	Type types.TypeID
}

// ConfigSlot is one configurable constant. Its deploy-time default is
// written by the init function under the "configurable.<name>" path.
type ConfigSlot struct {
	Name string
	Type types.TypeID
}

// ExportKind classifies an externally callable function.
type ExportKind uint8

const (
	// ExportMain is the script entrypoint.
	ExportMain ExportKind = iota
	// ExportAbi is a function backing a declared abi method.
	ExportAbi
	// ExportTest is a #[test] function.
	ExportTest
)

func (k ExportKind) String() string {
	switch k {
	case ExportMain:
		return "main"
	case ExportAbi:
		return "abi"
	case ExportTest:
		return "test"
	default:
		return "unknown"
	}
}

// Export is one callable surface of the compiled unit.
type Export struct {
	Kind ExportKind
	Name string // function or abi method name
	Abi  string // declaring abi name, "" otherwise
	Fn   FuncID
}

// Module is the lowered compilation unit.
type Module struct {
	In *types.Interner

	Funcs   []*Func
	Storage []StorageSlot
	Config  []ConfigSlot
	Exports []Export

	// Init runs at deploy time: it evaluates storage initializers and
	// configurable defaults and writes them to their slots. NoFuncID
	// when the unit declares neither.
	Init FuncID

	byKey map[string]FuncID
}

// Func returns the function with the given ID, or nil.
func (m *Module) Func(id FuncID) *Func {
	if id < 0 || int(id) >= len(m.Funcs) {
		return nil
	}
	return m.Funcs[id]
}

// FuncByKey finds a function by its monomorphization key.
func (m *Module) FuncByKey(key string) (*Func, bool) {
	id, ok := m.byKey[key]
	if !ok {
		return nil, false
	}
	return m.Funcs[id], true
}
