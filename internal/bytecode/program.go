package bytecode

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// FuncInfo describes one compiled function.
type FuncInfo struct {
	Name   string
	Entry  uint32 // code index of the first instruction
	Params uint8
	Regs   uint16 // registers the frame needs
	Slots  uint16 // spill slots the frame needs
}

// ExportInfo is one externally callable function.
type ExportInfo struct {
	Name string
	Abi  string
	Kind uint8 // mirrors mir.ExportKind
	Func uint32
}

// ConfigInfo records where a configurable default lives in the data
// section, for deploy-time patching and the ABI descriptor.
type ConfigInfo struct {
	Name   string
	Offset uint32
}

// Program is one compiled unit.
type Program struct {
	Funcs   []FuncInfo
	Code    []Instr
	Data    []byte
	Exports []ExportInfo
	Config  []ConfigInfo

	// Init is the deploy-time initializer's function index, or -1.
	Init int32
}

// FuncByName finds a function index by display name.
func (p *Program) FuncByName(name string) (uint32, bool) {
	for i := range p.Funcs {
		if p.Funcs[i].Name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// ExportNamed finds an export by its external name.
func (p *Program) ExportNamed(name string) (*ExportInfo, bool) {
	for i := range p.Exports {
		if p.Exports[i].Name == name {
			return &p.Exports[i], true
		}
	}
	return nil, false
}

const (
	magic   = uint32(0x454d4243) // "EMBC"
	version = uint32(1)
)

// Encode serializes the program into the loadable artifact form.
func (p *Program) Encode() ([]byte, error) {
	var out []byte
	out = binary.BigEndian.AppendUint32(out, magic)
	out = binary.BigEndian.AppendUint32(out, version)

	nf, err := safecast.Conv[uint32](len(p.Funcs))
	if err != nil {
		return nil, fmt.Errorf("too many functions: %d", len(p.Funcs))
	}
	out = binary.BigEndian.AppendUint32(out, nf)
	for i := range p.Funcs {
		f := &p.Funcs[i]
		out = appendString(out, f.Name)
		out = binary.BigEndian.AppendUint32(out, f.Entry)
		out = append(out, f.Params)
		out = binary.BigEndian.AppendUint16(out, f.Regs)
		out = binary.BigEndian.AppendUint16(out, f.Slots)
	}

	nc, err := safecast.Conv[uint32](len(p.Code))
	if err != nil {
		return nil, fmt.Errorf("code section too large: %d instructions", len(p.Code))
	}
	out = binary.BigEndian.AppendUint32(out, nc)
	for _, in := range p.Code {
		out = binary.BigEndian.AppendUint64(out, uint64(in))
	}

	nd, err := safecast.Conv[uint32](len(p.Data))
	if err != nil {
		return nil, fmt.Errorf("data section too large: %d bytes", len(p.Data))
	}
	out = binary.BigEndian.AppendUint32(out, nd)
	out = append(out, p.Data...)

	ne, err := safecast.Conv[uint32](len(p.Exports))
	if err != nil {
		return nil, fmt.Errorf("too many exports: %d", len(p.Exports))
	}
	out = binary.BigEndian.AppendUint32(out, ne)
	for i := range p.Exports {
		e := &p.Exports[i]
		out = appendString(out, e.Name)
		out = appendString(out, e.Abi)
		out = append(out, e.Kind)
		out = binary.BigEndian.AppendUint32(out, e.Func)
	}

	ncfg, err := safecast.Conv[uint32](len(p.Config))
	if err != nil {
		return nil, fmt.Errorf("too many configurables: %d", len(p.Config))
	}
	out = binary.BigEndian.AppendUint32(out, ncfg)
	for i := range p.Config {
		out = appendString(out, p.Config[i].Name)
		out = binary.BigEndian.AppendUint32(out, p.Config[i].Offset)
	}

	out = binary.BigEndian.AppendUint32(out, uint32(p.Init))
	return out, nil
}

// Decode parses a serialized program.
func Decode(data []byte) (*Program, error) {
	r := &reader{buf: data}
	if r.u32() != magic {
		return nil, fmt.Errorf("not an ember bytecode artifact")
	}
	if v := r.u32(); v != version {
		return nil, fmt.Errorf("unsupported bytecode version %d", v)
	}
	p := &Program{}
	for i, n := uint32(0), r.u32(); i < n && r.err == nil; i++ {
		f := FuncInfo{Name: r.str(), Entry: r.u32()}
		f.Params = r.u8()
		f.Regs = r.u16()
		f.Slots = r.u16()
		p.Funcs = append(p.Funcs, f)
	}
	for i, n := uint32(0), r.u32(); i < n && r.err == nil; i++ {
		p.Code = append(p.Code, Instr(r.u64()))
	}
	p.Data = r.bytes(int(r.u32()))
	for i, n := uint32(0), r.u32(); i < n && r.err == nil; i++ {
		e := ExportInfo{Name: r.str(), Abi: r.str()}
		e.Kind = r.u8()
		e.Func = r.u32()
		p.Exports = append(p.Exports, e)
	}
	for i, n := uint32(0), r.u32(); i < n && r.err == nil; i++ {
		p.Config = append(p.Config, ConfigInfo{Name: r.str(), Offset: r.u32()})
	}
	p.Init = int32(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func appendString(out []byte, s string) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}

type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("truncated bytecode artifact at offset %d", r.pos)
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *reader) str() string {
	n := r.u32()
	return string(r.bytes(int(n)))
}
