package abi

import (
	"bytes"
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/mir"
	"ember/internal/mono"
	"ember/internal/parser"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
)

func buildDescriptor(t *testing.T, input string) *Descriptor {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(100)
	reporter := &diag.BagReporter{Bag: bag}
	id := fs.AddVirtual("test.em", []byte(input))
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter})
	files := []*ast.File{parser.ParseFile(lx, parser.Options{Reporter: reporter})}
	table := symbols.Resolve(files, reporter)
	info := sema.Check(files, table, sema.Options{Reporter: reporter})
	if bag.HasErrors() {
		t.Fatalf("errors before abi build: %+v", bag.Items())
	}
	prog := mono.Monomorphize(info, mono.Options{Reporter: reporter})
	mod := mir.Build(prog, mir.Options{Reporter: reporter})
	if bag.HasErrors() {
		t.Fatalf("errors before abi build: %+v", bag.Items())
	}
	d, err := Build(info.In, info, mod)
	if err != nil {
		t.Fatalf("abi build: %v", err)
	}
	return d
}

const counterSrc = `
configurable {
    LIMIT: u64 = 100
}

storage {
    counter: u64 = 0
}

abi Counter {
    #[reads]
    fn count() -> u64;
    #[writes]
    fn increment(amount: u64) -> u64;
}

#[reads]
fn count() -> u64 { storage.counter }

#[writes]
fn increment(amount: u64) -> u64 {
    storage.counter = storage.counter + amount;
    storage.counter
}
`

func TestDescriptorShape(t *testing.T) {
	d := buildDescriptor(t, counterSrc)
	if len(d.Functions) != 2 {
		t.Fatalf("functions = %+v", d.Functions)
	}
	count, inc := d.Functions[0], d.Functions[1]
	if count.Name != "count" || count.Abi != "Counter" || count.Purity != "reads" {
		t.Errorf("count = %+v", count)
	}
	if count.Output.Kind != "uint" || count.Output.Width != 64 {
		t.Errorf("count output = %+v", count.Output)
	}
	if inc.Name != "increment" || inc.Purity != "writes" || len(inc.Inputs) != 1 {
		t.Errorf("increment = %+v", inc)
	}
	if inc.Inputs[0].Name != "amount" || inc.Inputs[0].Type.Kind != "uint" {
		t.Errorf("increment input = %+v", inc.Inputs[0])
	}
	if len(d.Configurables) != 1 || d.Configurables[0].Name != "LIMIT" {
		t.Errorf("configurables = %+v", d.Configurables)
	}
}

func TestDescriptorJSONDeterministic(t *testing.T) {
	d1 := buildDescriptor(t, counterSrc)
	d2 := buildDescriptor(t, counterSrc)
	j1, err := d1.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	j2, err := d2.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !bytes.Equal(j1, j2) {
		t.Fatalf("descriptors differ:\n%s\nvs\n%s", j1, j2)
	}
}

func TestGenericParamSubstituted(t *testing.T) {
	d := buildDescriptor(t, `
struct Box<T> { v: T }

abi Store {
    #[reads]
    fn peek(b: Box<u64>) -> u64;
}

#[reads]
fn peek(b: Box<u64>) -> u64 { b.v }

storage {
    last: u64 = 0
}
`)
	var peek *Function
	for i := range d.Functions {
		if d.Functions[i].Name == "peek" {
			peek = &d.Functions[i]
		}
	}
	if peek == nil {
		t.Fatalf("missing peek in %+v", d.Functions)
	}
	in := peek.Inputs[0].Type
	if in.Kind != "struct" || in.Name != "Box<u64>" {
		t.Fatalf("input = %+v", in)
	}
	if len(in.Fields) != 1 || in.Fields[0].Type.Kind != "uint" || in.Fields[0].Type.Width != 64 {
		t.Errorf("field not substituted: %+v", in.Fields)
	}
}

func equalValue(a, b Value) bool {
	if a.Kind != b.Kind || a.Uint != b.Uint || a.Bool != b.Bool ||
		a.Str != b.Str || a.Tag != b.Tag || len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !equalValue(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	return true
}

func roundTrip(t *testing.T, td *TypeDesc, v Value) {
	t.Helper()
	data, err := Encode(td, v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(td, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !equalValue(got, v) {
		t.Fatalf("round trip: got %+v, want %+v", got, v)
	}
}

func TestRoundTripPrimitives(t *testing.T) {
	roundTrip(t, &TypeDesc{Kind: "uint", Width: 8}, Uint64(200))
	roundTrip(t, &TypeDesc{Kind: "uint", Width: 16}, Uint64(40_000))
	roundTrip(t, &TypeDesc{Kind: "uint", Width: 32}, Uint64(3_000_000_000))
	roundTrip(t, &TypeDesc{Kind: "uint", Width: 64}, Uint64(1<<63+5))
	roundTrip(t, &TypeDesc{Kind: "b256"}, Uint64(77))
	roundTrip(t, &TypeDesc{Kind: "bool"}, Bool(true))
	roundTrip(t, &TypeDesc{Kind: "string"}, Str("hello storage"))
	roundTrip(t, &TypeDesc{Kind: "unit"}, Value{Kind: ValueUnit})
}

func TestRoundTripTuple(t *testing.T) {
	td := &TypeDesc{Kind: "tuple", Elems: []TypeDesc{
		{Kind: "uint", Width: 64},
		{Kind: "bool"},
	}}
	roundTrip(t, td, Composite(Uint64(9), Bool(false)))
}

func TestRoundTripArray(t *testing.T) {
	td := &TypeDesc{Kind: "array", Elem: &TypeDesc{Kind: "uint", Width: 32}, Len: 3}
	roundTrip(t, td, Composite(Uint64(1), Uint64(2), Uint64(3)))
}

func TestRoundTripStruct(t *testing.T) {
	td := &TypeDesc{Kind: "struct", Name: "Player", Fields: []FieldDesc{
		{Name: "score", Type: TypeDesc{Kind: "uint", Width: 64}},
		{Name: "alive", Type: TypeDesc{Kind: "bool"}},
	}}
	roundTrip(t, td, Composite(Uint64(12), Bool(true)))
}

func TestRoundTripEnum(t *testing.T) {
	td := &TypeDesc{Kind: "enum", Name: "Option<u64>", Variants: []Variant{
		{Name: "Some", Payload: []TypeDesc{{Kind: "uint", Width: 64}}},
		{Name: "None"},
	}}
	roundTrip(t, td, VariantVal(0, Uint64(41)))
	roundTrip(t, td, VariantVal(1))
}

func TestEncodeRejectsWrongShape(t *testing.T) {
	td := &TypeDesc{Kind: "uint", Width: 8}
	if _, err := Encode(td, Uint64(300)); err == nil {
		t.Error("value overflowing u8 encoded")
	}
	enum := &TypeDesc{Kind: "enum", Name: "E", Variants: []Variant{{Name: "A"}}}
	if _, err := Encode(enum, VariantVal(2)); err == nil {
		t.Error("out-of-range tag encoded")
	}
}
