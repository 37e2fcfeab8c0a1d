// Package bytecode defines the Ember VM's instruction set and the
// serialized program container: fixed-width 64-bit instructions, a
// data section for literals, storage keys, and configurable defaults,
// and a function table.
package bytecode

// Op is an instruction opcode.
type Op uint8

const (
	// OpNop does nothing.
	OpNop Op = iota
	// OpLoadImm loads the zero-extended 32-bit immediate into register A.
	OpLoadImm
	// OpLoadWord loads the 8-byte word at data offset Imm into register A.
	OpLoadWord
	// OpLoadStr loads the length-prefixed string at data offset Imm into
	// register A.
	OpLoadStr
	// OpMov copies register B into register A.
	OpMov

	// OpAdd..OpShr compute A = B op C over 64-bit words. Division and
	// remainder by zero revert with code 2; add/sub/mul overflow wraps
	// at the operand width applied by a following OpCast.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr

	// OpEq..OpGe compute A = (B op C) as 0 or 1.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// OpNot computes A = !B over a 0/1 word.
	OpNot
	// OpCast truncates register B to the bit width in Imm, into A.
	OpCast

	// OpJump jumps to absolute code index Imm.
	OpJump
	// OpJumpIfZero jumps to Imm when register A holds zero.
	OpJumpIfZero

	// OpArg stages register A as the next call argument.
	OpArg
	// OpCall invokes function Imm with the staged arguments, storing the
	// result in register A.
	OpCall
	// OpRet returns register A to the caller.
	OpRet
	// OpRevert aborts the call chain with the code in register A.
	OpRevert

	// OpAggNew creates an aggregate in register A with Imm elements. The
	// variant tag is packed as B<<8|C, TagNone for tuples, structs, and
	// arrays.
	OpAggNew
	// OpAggSet stores register C into element B of the aggregate in A.
	OpAggSet
	// OpField loads element C of the aggregate in B into register A.
	OpField
	// OpIndex loads the element of B selected by the word in C into A,
	// reverting with code 3 when out of bounds.
	OpIndex
	// OpSetField stores register C into element B of the aggregate in A,
	// used for projected place updates.
	OpSetField
	// OpSetIndex stores register C into the element of A selected by the
	// word in B, reverting with code 3 when out of bounds.
	OpSetIndex
	// OpTag loads the variant tag of the aggregate in B into A.
	OpTag
	// OpPayload loads payload element C of the variant in B into A.
	OpPayload

	// OpSpill stores register A into stack slot Imm.
	OpSpill
	// OpUnspill loads stack slot Imm into register A.
	OpUnspill

	// OpSRead loads the storage value under the 32-byte key at data
	// offset Imm into register A; a missing slot reads as zero.
	OpSRead
	// OpSWrite stores register A under the 32-byte key at data offset
	// Imm.
	OpSWrite
)

// TagNone marks an aggregate without a variant tag.
const TagNone uint16 = 0xffff

var opNames = [...]string{
	OpNop: "nop", OpLoadImm: "loadi", OpLoadWord: "loadw", OpLoadStr: "loads",
	OpMov: "mov",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem",
	OpBitAnd: "and", OpBitOr: "or", OpBitXor: "xor", OpShl: "shl", OpShr: "shr",
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpNot: "not", OpCast: "cast",
	OpJump: "jmp", OpJumpIfZero: "jz",
	OpArg: "arg", OpCall: "call", OpRet: "ret", OpRevert: "revert",
	OpAggNew: "aggnew", OpAggSet: "aggset", OpField: "field", OpIndex: "index",
	OpSetField: "setfield", OpSetIndex: "setindex", OpTag: "tag", OpPayload: "payload",
	OpSpill: "spill", OpUnspill: "unspill",
	OpSRead: "sread", OpSWrite: "swrite",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "op?"
}
