package types

import "testing"

func TestInternStability(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	a1 := in.Intern(MakeArray(b.U64, 4))
	a2 := in.Intern(MakeArray(b.U64, 4))
	if a1 != a2 {
		t.Errorf("identical arrays interned to %v and %v", a1, a2)
	}
	a3 := in.Intern(MakeArray(b.U64, 5))
	if a3 == a1 {
		t.Error("different lengths share an ID")
	}
	a4 := in.Intern(MakeArray(b.U32, 4))
	if a4 == a1 {
		t.Error("different element types share an ID")
	}

	t1 := in.Intern(MakeTuple([]TypeID{b.U64, b.Bool}))
	t2 := in.Intern(MakeTuple([]TypeID{b.U64, b.Bool}))
	t3 := in.Intern(MakeTuple([]TypeID{b.Bool, b.U64}))
	if t1 != t2 {
		t.Error("identical tuples differ")
	}
	if t1 == t3 {
		t.Error("order-swapped tuples share an ID")
	}

	n1 := in.Intern(MakeNamed(7, "Option", []TypeID{b.U64}))
	n2 := in.Intern(MakeNamed(7, "Option", []TypeID{b.U64}))
	n3 := in.Intern(MakeNamed(7, "Option", []TypeID{b.Bool}))
	if n1 != n2 || n1 == n3 {
		t.Errorf("named interning: %v %v %v", n1, n2, n3)
	}
}

func TestPrimitiveNames(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	cases := map[string]TypeID{
		"bool": b.Bool, "u8": b.U8, "u16": b.U16, "u32": b.U32,
		"u64": b.U64, "u256": b.U256, "b256": b.B256, "str": b.String,
	}
	for name, want := range cases {
		got, ok := in.Primitive(name)
		if !ok || got != want {
			t.Errorf("Primitive(%q) = %v, %v; want %v", name, got, ok, want)
		}
	}
	if _, ok := in.Primitive("i64"); ok {
		t.Error("i64 must not be a primitive")
	}
}

func TestStringRendering(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr := in.Intern(MakeArray(b.U8, 32))
	opt := in.Intern(MakeNamed(3, "Option", []TypeID{b.U64}))
	tup := in.Intern(MakeTuple([]TypeID{b.Bool, arr}))
	cases := map[TypeID]string{
		b.U64:    "u64",
		b.Unit:   "()",
		b.Never:  "!",
		b.String: "str",
		arr:      "[u8; 32]",
		opt:      "Option<u64>",
		tup:      "(bool, [u8; 32])",
	}
	for id, want := range cases {
		if got := in.String(id); got != want {
			t.Errorf("String(%v) = %q, want %q", id, got, want)
		}
	}
}

func TestSubstitute(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	p0 := in.Intern(MakeParam(0, "T"))
	arr := in.Intern(MakeArrayParam(p0, 1)) // [T; N] with N = param 1
	opt := in.Intern(MakeNamed(9, "Wrapper", []TypeID{arr}))

	sub := Subst{Types: []TypeID{b.U64, NoTypeID}, Consts: []uint64{0, 8}}
	got := in.Substitute(opt, sub)
	want := in.Intern(MakeNamed(9, "Wrapper", []TypeID{in.Intern(MakeArray(b.U64, 8))}))
	if got != want {
		t.Errorf("substitute: got %s, want %s", in.String(got), in.String(want))
	}
	if in.ContainsParam(got) {
		t.Error("substituted type still mentions a parameter")
	}
	if !in.ContainsParam(opt) {
		t.Error("original type should mention a parameter")
	}
}
