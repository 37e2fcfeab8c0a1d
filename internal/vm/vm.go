package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"ember/internal/bytecode"
)

// Revert codes the compiler and runtime use for implicit aborts.
// User-written revert statements use their own codes.
const (
	// RevertUnmatched is an enum value no match arm covered.
	RevertUnmatched = 1
	// RevertDivByZero is division or remainder by zero.
	RevertDivByZero = 2
	// RevertOutOfBounds is an index past the end of an array.
	RevertOutOfBounds = 3
)

// RevertError reports an aborted call chain. Storage writes made
// before the abort are discarded by the caller of Call.
type RevertError struct {
	Code uint64
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("reverted with code %d", e.Code)
}

// VM executes one compiled unit against an in-memory storage map.
type VM struct {
	prog    *bytecode.Program
	data    []byte
	storage map[[32]byte]Value
}

// New loads a program. The data section is copied so configurable
// patching never mutates the caller's artifact.
func New(p *bytecode.Program) *VM {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return &VM{prog: p, data: data, storage: make(map[[32]byte]Value)}
}

// PatchConfig overrides a configurable default in the data section.
// It must run before Deploy. False means the name is unknown or the
// slot is not patchable.
func (vm *VM) PatchConfig(name string, word uint64) bool {
	for _, c := range vm.prog.Config {
		if c.Name != name {
			continue
		}
		if c.Offset == 0 || int(c.Offset)+8 > len(vm.data) {
			return false
		}
		binary.BigEndian.PutUint64(vm.data[c.Offset:], word)
		return true
	}
	return false
}

// Deploy runs the unit's initializer, populating storage and
// configurable slots. A unit without an initializer deploys as a
// no-op.
func (vm *VM) Deploy() error {
	if vm.prog.Init < 0 {
		return nil
	}
	_, err := vm.call(uint32(vm.prog.Init), nil)
	return err
}

// Call invokes a function by table index. On revert the storage
// mutations of the whole call are rolled back.
func (vm *VM) Call(fn uint32, args ...Value) (Value, error) {
	if int(fn) >= len(vm.prog.Funcs) {
		return Value{}, fmt.Errorf("no function %d", fn)
	}
	saved := vm.snapshot()
	v, err := vm.call(fn, args)
	if err != nil {
		vm.storage = saved
	}
	return v, err
}

// CallExport invokes an externally visible function by name.
func (vm *VM) CallExport(name string, args ...Value) (Value, error) {
	e, ok := vm.prog.ExportNamed(name)
	if !ok {
		return Value{}, fmt.Errorf("no export %q", name)
	}
	return vm.Call(e.Func, args...)
}

// ReadStorage reads the slot a textual path hashes to.
func (vm *VM) ReadStorage(path string) (Value, bool) {
	v, ok := vm.storage[sha256.Sum256([]byte(path))]
	return v, ok
}

func (vm *VM) snapshot() map[[32]byte]Value {
	out := make(map[[32]byte]Value, len(vm.storage))
	for k, v := range vm.storage {
		out[k] = v.Clone()
	}
	return out
}

func (vm *VM) call(fn uint32, args []Value) (Value, error) {
	f := &vm.prog.Funcs[fn]
	if len(args) != int(f.Params) {
		return Value{}, fmt.Errorf("%s takes %d arguments, got %d", f.Name, f.Params, len(args))
	}
	regs := make([]Value, 256)
	for i := range args {
		regs[i] = args[i].Clone()
	}
	slots := make([]Value, f.Slots)
	var staged []Value

	pc := f.Entry
	code := vm.prog.Code
	for {
		if int(pc) >= len(code) {
			return Value{}, fmt.Errorf("%s: pc %d out of range", f.Name, pc)
		}
		in := code[pc]
		pc++
		a, b, c, imm := in.A(), in.B(), in.C(), in.Imm()

		switch in.Op() {
		case bytecode.OpNop:

		case bytecode.OpLoadImm:
			regs[a] = Word(uint64(imm))
		case bytecode.OpLoadWord:
			w, ok := bytecode.WordAt(vm.data, imm)
			if !ok {
				return Value{}, fmt.Errorf("%s: bad data offset %d", f.Name, imm)
			}
			regs[a] = Word(w)
		case bytecode.OpLoadStr:
			s, ok := bytecode.StrAt(vm.data, imm)
			if !ok {
				return Value{}, fmt.Errorf("%s: bad data offset %d", f.Name, imm)
			}
			regs[a] = Str(s)
		case bytecode.OpMov:
			regs[a] = regs[b].Clone()

		case bytecode.OpAdd:
			regs[a] = Word(regs[b].Word + regs[c].Word)
		case bytecode.OpSub:
			regs[a] = Word(regs[b].Word - regs[c].Word)
		case bytecode.OpMul:
			regs[a] = Word(regs[b].Word * regs[c].Word)
		case bytecode.OpDiv:
			if regs[c].Word == 0 {
				return Value{}, &RevertError{Code: RevertDivByZero}
			}
			regs[a] = Word(regs[b].Word / regs[c].Word)
		case bytecode.OpRem:
			if regs[c].Word == 0 {
				return Value{}, &RevertError{Code: RevertDivByZero}
			}
			regs[a] = Word(regs[b].Word % regs[c].Word)
		case bytecode.OpBitAnd:
			regs[a] = Word(regs[b].Word & regs[c].Word)
		case bytecode.OpBitOr:
			regs[a] = Word(regs[b].Word | regs[c].Word)
		case bytecode.OpBitXor:
			regs[a] = Word(regs[b].Word ^ regs[c].Word)
		case bytecode.OpShl:
			regs[a] = Word(shl(regs[b].Word, regs[c].Word))
		case bytecode.OpShr:
			regs[a] = Word(shr(regs[b].Word, regs[c].Word))

		case bytecode.OpEq:
			regs[a] = boolWord(regs[b].Equal(regs[c]))
		case bytecode.OpNe:
			regs[a] = boolWord(!regs[b].Equal(regs[c]))
		case bytecode.OpLt:
			regs[a] = boolWord(regs[b].Word < regs[c].Word)
		case bytecode.OpLe:
			regs[a] = boolWord(regs[b].Word <= regs[c].Word)
		case bytecode.OpGt:
			regs[a] = boolWord(regs[b].Word > regs[c].Word)
		case bytecode.OpGe:
			regs[a] = boolWord(regs[b].Word >= regs[c].Word)

		case bytecode.OpNot:
			regs[a] = boolWord(regs[b].Word == 0)
		case bytecode.OpCast:
			regs[a] = Word(regs[b].Word & widthMask(imm))

		case bytecode.OpJump:
			pc = imm
		case bytecode.OpJumpIfZero:
			if regs[a].Word == 0 {
				pc = imm
			}

		case bytecode.OpArg:
			staged = append(staged, regs[a].Clone())
		case bytecode.OpCall:
			if int(imm) >= len(vm.prog.Funcs) {
				return Value{}, fmt.Errorf("%s: call to missing function %d", f.Name, imm)
			}
			v, err := vm.call(imm, staged)
			if err != nil {
				return Value{}, err
			}
			staged = nil
			regs[a] = v
		case bytecode.OpRet:
			return regs[a].Clone(), nil
		case bytecode.OpRevert:
			return Value{}, &RevertError{Code: regs[a].Word}

		case bytecode.OpAggNew:
			regs[a] = Value{
				Kind:  KindComposite,
				Elems: make([]Value, imm),
				Tag:   uint16(b)<<8 | uint16(c),
			}
		case bytecode.OpAggSet:
			if int(b) >= len(regs[a].Elems) {
				return Value{}, fmt.Errorf("%s: aggregate element %d out of range", f.Name, b)
			}
			regs[a].Elems[b] = regs[c].Clone()
		case bytecode.OpField:
			if int(c) >= len(regs[b].Elems) {
				return Value{}, fmt.Errorf("%s: aggregate element %d out of range", f.Name, c)
			}
			regs[a] = regs[b].Elems[c]
		case bytecode.OpIndex:
			idx := regs[c].Word
			if idx >= uint64(len(regs[b].Elems)) {
				return Value{}, &RevertError{Code: RevertOutOfBounds}
			}
			regs[a] = regs[b].Elems[idx]
		case bytecode.OpSetField:
			if int(b) >= len(regs[a].Elems) {
				return Value{}, fmt.Errorf("%s: aggregate element %d out of range", f.Name, b)
			}
			regs[a].Elems[b] = regs[c].Clone()
		case bytecode.OpSetIndex:
			idx := regs[b].Word
			if idx >= uint64(len(regs[a].Elems)) {
				return Value{}, &RevertError{Code: RevertOutOfBounds}
			}
			regs[a].Elems[idx] = regs[c].Clone()
		case bytecode.OpTag:
			regs[a] = Word(uint64(regs[b].Tag))
		case bytecode.OpPayload:
			if int(c) >= len(regs[b].Elems) {
				return Value{}, fmt.Errorf("%s: payload element %d out of range", f.Name, c)
			}
			regs[a] = regs[b].Elems[c]

		case bytecode.OpSpill:
			if int(imm) >= len(slots) {
				return Value{}, fmt.Errorf("%s: spill slot %d out of range", f.Name, imm)
			}
			slots[imm] = regs[a]
		case bytecode.OpUnspill:
			if int(imm) >= len(slots) {
				return Value{}, fmt.Errorf("%s: spill slot %d out of range", f.Name, imm)
			}
			regs[a] = slots[imm]

		case bytecode.OpSRead:
			key, ok := bytecode.KeyAt(vm.data, imm)
			if !ok {
				return Value{}, fmt.Errorf("%s: bad key offset %d", f.Name, imm)
			}
			if v, found := vm.storage[key]; found {
				regs[a] = v.Clone()
			} else {
				regs[a] = Word(0)
			}
		case bytecode.OpSWrite:
			key, ok := bytecode.KeyAt(vm.data, imm)
			if !ok {
				return Value{}, fmt.Errorf("%s: bad key offset %d", f.Name, imm)
			}
			vm.storage[key] = regs[a].Clone()

		default:
			return Value{}, fmt.Errorf("%s: bad opcode %d", f.Name, in.Op())
		}
	}
}

func boolWord(b bool) Value {
	if b {
		return Word(1)
	}
	return Word(0)
}

func shl(v, by uint64) uint64 {
	if by >= 64 {
		return 0
	}
	return v << by
}

func shr(v, by uint64) uint64 {
	if by >= 64 {
		return 0
	}
	return v >> by
}

func widthMask(bits uint32) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}
