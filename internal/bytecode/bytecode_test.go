package bytecode

import (
	"reflect"
	"testing"
)

func TestInstrPacking(t *testing.T) {
	in := Make(OpAdd, 3, 7, 250, 0xdeadbeef)
	if in.Op() != OpAdd || in.A() != 3 || in.B() != 7 || in.C() != 250 || in.Imm() != 0xdeadbeef {
		t.Fatalf("fields: %s", in)
	}
	max := Make(OpSWrite, 255, 255, 255, ^uint32(0))
	if max.Op() != OpSWrite || max.A() != 255 || max.Imm() != ^uint32(0) {
		t.Fatalf("fields at max: %s", max)
	}
}

func TestDataBuilderDedup(t *testing.T) {
	d := NewDataBuilder()
	o1, ok := d.Word(42)
	if !ok {
		t.Fatal("word placement failed")
	}
	o2, _ := d.Word(42)
	if o1 != o2 {
		t.Errorf("duplicate word placed twice: %d vs %d", o1, o2)
	}
	o3, _ := d.Word(43)
	if o3 == o1 {
		t.Errorf("distinct words share offset %d", o3)
	}
	if v, ok := WordAt(d.Bytes(), o1); !ok || v != 42 {
		t.Errorf("word read back %d, %t", v, ok)
	}

	m1, _ := d.MutableWord(100)
	m2, _ := d.MutableWord(100)
	if m1 == m2 {
		t.Errorf("mutable words deduplicated")
	}

	s1, _ := d.Str("storage.counter")
	if s, ok := StrAt(d.Bytes(), s1); !ok || s != "storage.counter" {
		t.Errorf("string read back %q, %t", s, ok)
	}

	var k [32]byte
	k[0] = 0xab
	k1, _ := d.Key(k)
	if got, ok := KeyAt(d.Bytes(), k1); !ok || got != k {
		t.Errorf("key read back mismatch")
	}
}

func TestProgramRoundTrip(t *testing.T) {
	d := NewDataBuilder()
	off, _ := d.Word(7)
	p := &Program{
		Funcs: []FuncInfo{
			{Name: "main", Entry: 0, Params: 0, Regs: 4, Slots: 0},
			{Name: "helper", Entry: 3, Params: 2, Regs: 8, Slots: 1},
		},
		Code: []Instr{
			Make(OpLoadWord, 0, 0, 0, off),
			Make(OpRet, 0, 0, 0, 0),
			Make(OpNop, 0, 0, 0, 0),
			Make(OpRevert, 1, 0, 0, 0),
		},
		Data: d.Bytes(),
		Exports: []ExportInfo{
			{Name: "main", Kind: 0, Func: 0},
			{Name: "count", Abi: "Counter", Kind: 1, Func: 1},
		},
		Config: []ConfigInfo{{Name: "LIMIT", Offset: off}},
		Init:   -1,
	}
	enc, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(p, got) {
		t.Fatalf("round trip mismatch:\n%+v\nvs\n%+v", p, got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not bytecode")); err == nil {
		t.Error("garbage accepted")
	}
	p := &Program{Init: -1}
	enc, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(enc[:len(enc)-2]); err == nil {
		t.Error("truncated artifact accepted")
	}
}
