package bytecode

import "fmt"

// Instr is one fixed-width instruction: an 8-bit opcode, three 8-bit
// register fields, and a 32-bit immediate.
type Instr uint64

// Make packs an instruction word.
func Make(op Op, a, b, c uint8, imm uint32) Instr {
	return Instr(uint64(op)<<56 | uint64(a)<<48 | uint64(b)<<40 | uint64(c)<<32 | uint64(imm))
}

// Op returns the opcode field.
func (i Instr) Op() Op { return Op(i >> 56) }

// A returns the first register field.
func (i Instr) A() uint8 { return uint8(i >> 48) }

// B returns the second register field.
func (i Instr) B() uint8 { return uint8(i >> 40) }

// C returns the third register field.
func (i Instr) C() uint8 { return uint8(i >> 32) }

// Imm returns the immediate field.
func (i Instr) Imm() uint32 { return uint32(i) }

func (i Instr) String() string {
	return fmt.Sprintf("%s r%d, r%d, r%d, %d", i.Op(), i.A(), i.B(), i.C(), i.Imm())
}
