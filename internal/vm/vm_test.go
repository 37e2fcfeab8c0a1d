package vm

import (
	"crypto/sha256"
	"errors"
	"testing"

	"ember/internal/bytecode"
)

func singleFunc(params uint8, slots uint16, code ...bytecode.Instr) *bytecode.Program {
	return &bytecode.Program{
		Funcs: []bytecode.FuncInfo{{Name: "f", Entry: 0, Params: params, Regs: 256, Slots: slots}},
		Code:  code,
		Init:  -1,
	}
}

func TestArithmeticAndCast(t *testing.T) {
	p := singleFunc(2, 0,
		bytecode.Make(bytecode.OpAdd, 2, 0, 1, 0),
		bytecode.Make(bytecode.OpCast, 2, 2, 0, 8),
		bytecode.Make(bytecode.OpRet, 2, 0, 0, 0),
	)
	v, err := New(p).Call(0, Word(250), Word(10))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.Word != 4 {
		t.Errorf("250+10 wrapped to u8 = %d, want 4", v.Word)
	}
}

func TestDivisionByZeroReverts(t *testing.T) {
	p := singleFunc(2, 0,
		bytecode.Make(bytecode.OpDiv, 2, 0, 1, 0),
		bytecode.Make(bytecode.OpRet, 2, 0, 0, 0),
	)
	_, err := New(p).Call(0, Word(1), Word(0))
	var rev *RevertError
	if !errors.As(err, &rev) || rev.Code != RevertDivByZero {
		t.Fatalf("got %v, want revert code %d", err, RevertDivByZero)
	}
}

func TestLoop(t *testing.T) {
	// sum 0..n-1 into r1
	p := singleFunc(1, 0,
		bytecode.Make(bytecode.OpLoadImm, 1, 0, 0, 0), // acc
		bytecode.Make(bytecode.OpLoadImm, 2, 0, 0, 0), // i
		bytecode.Make(bytecode.OpLt, 3, 2, 0, 0),      // header at pc 2
		bytecode.Make(bytecode.OpJumpIfZero, 3, 0, 0, 8),
		bytecode.Make(bytecode.OpAdd, 1, 1, 2, 0),
		bytecode.Make(bytecode.OpLoadImm, 4, 0, 0, 1),
		bytecode.Make(bytecode.OpAdd, 2, 2, 4, 0),
		bytecode.Make(bytecode.OpJump, 0, 0, 0, 2),
		bytecode.Make(bytecode.OpRet, 1, 0, 0, 0),
	)
	v, err := New(p).Call(0, Word(5))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.Word != 10 {
		t.Errorf("sum = %d, want 10", v.Word)
	}
}

func TestAggregateValueSemantics(t *testing.T) {
	// build {7}, copy it, mutate the copy, return the original's field
	p := singleFunc(0, 0,
		bytecode.Make(bytecode.OpAggNew, 0, 0xff, 0xff, 1),
		bytecode.Make(bytecode.OpLoadImm, 1, 0, 0, 7),
		bytecode.Make(bytecode.OpAggSet, 0, 0, 1, 0),
		bytecode.Make(bytecode.OpMov, 2, 0, 0, 0),
		bytecode.Make(bytecode.OpLoadImm, 3, 0, 0, 99),
		bytecode.Make(bytecode.OpSetField, 2, 0, 3, 0),
		bytecode.Make(bytecode.OpField, 4, 0, 0, 0),
		bytecode.Make(bytecode.OpRet, 4, 0, 0, 0),
	)
	v, err := New(p).Call(0)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.Word != 7 {
		t.Errorf("original field = %d after mutating a copy, want 7", v.Word)
	}
}

func TestIndexOutOfBoundsReverts(t *testing.T) {
	p := singleFunc(1, 0,
		bytecode.Make(bytecode.OpAggNew, 1, 0xff, 0xff, 2),
		bytecode.Make(bytecode.OpIndex, 2, 1, 0, 0),
		bytecode.Make(bytecode.OpRet, 2, 0, 0, 0),
	)
	_, err := New(p).Call(0, Word(2))
	var rev *RevertError
	if !errors.As(err, &rev) || rev.Code != RevertOutOfBounds {
		t.Fatalf("got %v, want revert code %d", err, RevertOutOfBounds)
	}
}

func TestCallPassesArguments(t *testing.T) {
	p := &bytecode.Program{
		Funcs: []bytecode.FuncInfo{
			{Name: "main", Entry: 0, Regs: 256},
			{Name: "sub", Entry: 5, Params: 2, Regs: 256},
		},
		Code: []bytecode.Instr{
			bytecode.Make(bytecode.OpLoadImm, 0, 0, 0, 9),
			bytecode.Make(bytecode.OpArg, 0, 0, 0, 0),
			bytecode.Make(bytecode.OpArg, 0, 0, 0, 0),
			bytecode.Make(bytecode.OpCall, 1, 0, 0, 1),
			bytecode.Make(bytecode.OpRet, 1, 0, 0, 0),
			bytecode.Make(bytecode.OpMul, 2, 0, 1, 0),
			bytecode.Make(bytecode.OpRet, 2, 0, 0, 0),
		},
		Init: -1,
	}
	v, err := New(p).Call(0)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.Word != 81 {
		t.Errorf("9*9 = %d", v.Word)
	}
}

func TestStorageRollbackOnRevert(t *testing.T) {
	d := bytecode.NewDataBuilder()
	key := sha256.Sum256([]byte("storage.x"))
	off, _ := d.Key(key)
	p := &bytecode.Program{
		Funcs: []bytecode.FuncInfo{
			{Name: "set", Entry: 0, Params: 1, Regs: 256},
			{Name: "fail", Entry: 2, Regs: 256},
		},
		Code: []bytecode.Instr{
			bytecode.Make(bytecode.OpSWrite, 0, 0, 0, off),
			bytecode.Make(bytecode.OpRet, 0, 0, 0, 0),
			bytecode.Make(bytecode.OpLoadImm, 0, 0, 0, 5),
			bytecode.Make(bytecode.OpSWrite, 0, 0, 0, off),
			bytecode.Make(bytecode.OpLoadImm, 0, 0, 0, 40),
			bytecode.Make(bytecode.OpRevert, 0, 0, 0, 0),
		},
		Data: d.Bytes(),
		Init: -1,
	}
	m := New(p)
	if _, err := m.Call(0, Word(11)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, err := m.Call(1)
	var rev *RevertError
	if !errors.As(err, &rev) || rev.Code != 40 {
		t.Fatalf("got %v, want revert code 40", err)
	}
	v, ok := m.ReadStorage("storage.x")
	if !ok || v.Word != 11 {
		t.Errorf("storage.x = %v after rollback, want 11", v)
	}
}

func TestPatchConfigBeforeDeploy(t *testing.T) {
	d := bytecode.NewDataBuilder()
	d.Word(0) // reserve offset zero
	defOff, _ := d.MutableWord(100)
	key := sha256.Sum256([]byte("configurable.LIMIT"))
	keyOff, _ := d.Key(key)
	p := &bytecode.Program{
		Funcs: []bytecode.FuncInfo{{Name: "init", Entry: 0, Regs: 256}},
		Code: []bytecode.Instr{
			bytecode.Make(bytecode.OpLoadWord, 0, 0, 0, defOff),
			bytecode.Make(bytecode.OpSWrite, 0, 0, 0, keyOff),
			bytecode.Make(bytecode.OpLoadImm, 0, 0, 0, 0),
			bytecode.Make(bytecode.OpRet, 0, 0, 0, 0),
		},
		Data:   d.Bytes(),
		Config: []bytecode.ConfigInfo{{Name: "LIMIT", Offset: defOff}},
		Init:   0,
	}
	m := New(p)
	if !m.PatchConfig("LIMIT", 250) {
		t.Fatal("patch rejected")
	}
	if err := m.Deploy(); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	v, ok := m.ReadStorage("configurable.LIMIT")
	if !ok || v.Word != 250 {
		t.Errorf("LIMIT = %v, want 250", v)
	}
	if m.PatchConfig("UNKNOWN", 1) {
		t.Error("unknown configurable patched")
	}
}
