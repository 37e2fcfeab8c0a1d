// Package vmgen lowers an optimized mir module into executable
// bytecode: it linearizes blocks with fall-through layout, maps locals
// onto the frame's registers with spilling past the register file,
// places literals, storage keys, and configurable defaults in the data
// section, and assembles the loadable program.
package vmgen

import (
	"crypto/sha256"
	"fmt"

	"ember/internal/bytecode"
	"ember/internal/diag"
	"ember/internal/mir"
	"ember/internal/source"
	"ember/internal/types"
)

// Options configures code generation.
type Options struct {
	// Reporter receives codegen diagnostics. Nil discards them.
	Reporter diag.Reporter
}

// Generate compiles the module. The second result is false when an
// error diagnostic was reported; the returned program is then partial
// and must not be used.
func Generate(mod *mir.Module, opts Options) (*bytecode.Program, bool) {
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	g := &generator{
		mod:       mod,
		in:        mod.In,
		rep:       rep,
		data:      bytecode.NewDataBuilder(),
		slotKeys:  make(map[[32]byte]string),
		configOff: make(map[string]uint32),
	}
	// Offset zero holds a shared zero word, so a zero configurable
	// offset always means "no patchable slot".
	g.data.Word(0)

	p := &bytecode.Program{Init: int32(mod.Init)}
	for _, f := range mod.Funcs {
		p.Funcs = append(p.Funcs, g.genFunc(f))
	}
	p.Code = g.code
	p.Data = g.data.Bytes()
	for _, e := range mod.Exports {
		p.Exports = append(p.Exports, bytecode.ExportInfo{
			Name: e.Name,
			Abi:  e.Abi,
			Kind: uint8(e.Kind),
			Func: uint32(e.Fn),
		})
	}
	for _, c := range mod.Config {
		p.Config = append(p.Config, bytecode.ConfigInfo{
			Name:   c.Name,
			Offset: g.configOff[c.Name],
		})
	}
	return p, !g.failed
}

type generator struct {
	mod *mir.Module
	in  *types.Interner
	rep diag.Reporter

	data *bytecode.DataBuilder
	code []bytecode.Instr

	// slotKeys maps each hashed storage key back to the path that
	// produced it, to detect key collisions between distinct paths.
	slotKeys  map[[32]byte]string
	configOff map[string]uint32

	failed   bool
	dataFull bool
}

func (g *generator) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	g.failed = true
	diag.ReportError(g.rep, code, sp, fmt.Sprintf(format, args...)).Emit()
}

func (g *generator) reportDataFull(sp source.Span) {
	if g.dataFull {
		return
	}
	g.dataFull = true
	g.errorf(diag.GenDataTooLarge, sp, "data section exceeds %d bytes", bytecode.MaxDataSize)
}

func (g *generator) word(v uint64, sp source.Span) uint32 {
	off, ok := g.data.Word(v)
	if !ok {
		g.reportDataFull(sp)
	}
	return off
}

func (g *generator) str(s string, sp source.Span) uint32 {
	off, ok := g.data.Str(s)
	if !ok {
		g.reportDataFull(sp)
	}
	return off
}

// keyOffset places the hashed key for a storage path and returns its
// data offset. Two distinct paths hashing to the same key is a
// compile error; deployed state could not tell the slots apart.
func (g *generator) keyOffset(path string, sp source.Span) uint32 {
	key := sha256.Sum256([]byte(path))
	if prev, ok := g.slotKeys[key]; ok {
		if prev != path {
			g.errorf(diag.GenSlotCollision, sp,
				"storage paths %q and %q hash to the same slot key", prev, path)
		}
	} else {
		g.slotKeys[key] = path
	}
	off, ok := g.data.Key(key)
	if !ok {
		g.reportDataFull(sp)
	}
	return off
}

func (g *generator) emit(in bytecode.Instr) int {
	g.code = append(g.code, in)
	return len(g.code) - 1
}

// patchImm rewrites the immediate of an already emitted instruction.
func (g *generator) patchImm(at int, imm uint32) {
	in := g.code[at]
	g.code[at] = bytecode.Make(in.Op(), in.A(), in.B(), in.C(), imm)
}
