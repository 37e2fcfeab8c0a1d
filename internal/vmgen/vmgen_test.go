package vmgen

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"ember/internal/ast"
	"ember/internal/bytecode"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/mir"
	"ember/internal/mir/passes"
	"ember/internal/mono"
	"ember/internal/parser"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
	"ember/internal/vm"
)

func compileSource(t *testing.T, input string) *bytecode.Program {
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
		t.Fatalf("errors before codegen: %+v", bag.Items())
	}
	prog := mono.Monomorphize(info, mono.Options{Reporter: reporter})
	mod := mir.Build(prog, mir.Options{Reporter: reporter})
	if bag.HasErrors() {
		t.Fatalf("errors before codegen: %+v", bag.Items())
	}
	passes.Optimize(mod)
	p, ok := Generate(mod, Options{Reporter: reporter})
	if !ok {
		t.Fatalf("codegen failed: %+v", bag.Items())
	}
	return p
}

func deploy(t *testing.T, p *bytecode.Program) *vm.VM {
	t.Helper()
	m := vm.New(p)
	if err := m.Deploy(); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	return m
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
    fn increment() -> u64;
}

#[reads]
fn count() -> u64 { storage.counter }

#[writes]
fn increment() -> u64 {
    storage.counter = storage.counter + 1;
    storage.counter
}
`

func TestCounterScenario(t *testing.T) {
	m := deploy(t, compileSource(t, counterSrc))
	for i := 0; i < 2; i++ {
		if _, err := m.CallExport("increment"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	v, err := m.CallExport("count")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if v.Word != 2 {
		t.Errorf("count after two increments = %d, want 2", v.Word)
	}
	if s, ok := m.ReadStorage("storage.counter"); !ok || s.Word != 2 {
		t.Errorf("storage.counter = %v, want 2", s)
	}
}

func TestConfigurableDefaultAndPatch(t *testing.T) {
	p := compileSource(t, counterSrc)
	if len(p.Config) != 1 || p.Config[0].Name != "LIMIT" || p.Config[0].Offset == 0 {
		t.Fatalf("config table = %+v", p.Config)
	}

	m := deploy(t, p)
	if v, ok := m.ReadStorage("configurable.LIMIT"); !ok || v.Word != 100 {
		t.Errorf("default LIMIT = %v, want 100", v)
	}

	m2 := vm.New(p)
	if !m2.PatchConfig("LIMIT", 7) {
		t.Fatal("patch rejected")
	}
	if err := m2.Deploy(); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if v, ok := m2.ReadStorage("configurable.LIMIT"); !ok || v.Word != 7 {
		t.Errorf("patched LIMIT = %v, want 7", v)
	}
}

func TestGenericFunctionExecutes(t *testing.T) {
	p := compileSource(t, `
fn pick<T>(c: bool, a: T, b: T) -> T {
    if c { a } else { b }
}

fn main() -> u64 {
    let x = pick(false, 1, 2);
    let y = pick(true, 10, 20);
    x + y
}
`)
	m := deploy(t, p)
	v, err := m.CallExport("main")
	if err != nil {
		t.Fatalf("main: %v", err)
	}
	if v.Word != 12 {
		t.Errorf("main = %d, want 12", v.Word)
	}
}

func TestMatchExecutes(t *testing.T) {
	p := compileSource(t, `
enum Shape {
    Dot,
    Line(u64),
    Rect(u64, u64),
}

fn area(s: Shape) -> u64 {
    match s {
        Shape::Dot => 0,
        Shape::Line(_) => 1,
        Shape::Rect(w, h) => w * h,
    }
}

fn main() -> u64 {
    area(Shape::Rect(6, 7)) + area(Shape::Line(9)) + area(Shape::Dot)
}
`)
	m := deploy(t, p)
	v, err := m.CallExport("main")
	if err != nil {
		t.Fatalf("main: %v", err)
	}
	if v.Word != 43 {
		t.Errorf("main = %d, want 43", v.Word)
	}
}

func TestNestedFieldWriteExecutes(t *testing.T) {
	p := compileSource(t, `
struct Inner { x: u64 }
struct Outer { a: Inner, b: u64 }

fn main() -> u64 {
    let mut o = Outer { a: Inner { x: 1 }, b: 2 };
    o.a.x = 40;
    o.a.x + o.b
}
`)
	m := deploy(t, p)
	v, err := m.CallExport("main")
	if err != nil {
		t.Fatalf("main: %v", err)
	}
	if v.Word != 42 {
		t.Errorf("main = %d, want 42", v.Word)
	}
}

func TestWhileLoopExecutes(t *testing.T) {
	p := compileSource(t, `
fn main() -> u64 {
    let mut acc = 0;
    let mut i = 0;
    while i < 10 {
        acc = acc + i;
        i = i + 1;
    }
    acc
}
`)
	m := deploy(t, p)
	v, err := m.CallExport("main")
	if err != nil {
		t.Fatalf("main: %v", err)
	}
	if v.Word != 45 {
		t.Errorf("main = %d, want 45", v.Word)
	}
}

func TestNarrowArithmeticWraps(t *testing.T) {
	p := compileSource(t, `
fn bump(x: u8) -> u8 { x + 10 }

fn main() -> u64 {
    bump(250) as u64
}
`)
	m := deploy(t, p)
	v, err := m.CallExport("main")
	if err != nil {
		t.Fatalf("main: %v", err)
	}
	if v.Word != 4 {
		t.Errorf("250+10 at u8 = %d, want 4", v.Word)
	}
}

func TestExplicitRevertPropagates(t *testing.T) {
	p := compileSource(t, `
storage {
    x: u64 = 0
}

abi Vault {
    #[writes]
    fn poke() -> u64;
}

#[writes]
fn poke() -> u64 {
    storage.x = 5;
    revert 77;
}
`)
	m := deploy(t, p)
	_, err := m.CallExport("poke")
	var rev *vm.RevertError
	if !errors.As(err, &rev) || rev.Code != 77 {
		t.Fatalf("got %v, want revert code 77", err)
	}
	if v, _ := m.ReadStorage("storage.x"); v.Word != 0 {
		t.Errorf("storage.x = %d after revert, want 0", v.Word)
	}
}

func TestDeterministicBytecode(t *testing.T) {
	p1 := compileSource(t, counterSrc)
	p2 := compileSource(t, counterSrc)
	e1, err := p1.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	e2, err := p2.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(e1, e2) {
		t.Fatal("same input produced different bytecode")
	}
}

func TestStorageKeysCollisionFree(t *testing.T) {
	g := &generator{
		rep:       diag.NopReporter{},
		data:      bytecode.NewDataBuilder(),
		slotKeys:  make(map[[32]byte]string),
		configOff: make(map[string]uint32),
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		path := fmt.Sprintf("storage::ns%d.field_%d_%d", rng.Intn(50), i, rng.Uint64())
		g.keyOffset(path, source.Span{})
	}
	if g.failed {
		t.Fatal("collision reported for distinct paths")
	}
	if len(g.slotKeys) != 10000 {
		t.Fatalf("placed %d keys, want 10000", len(g.slotKeys))
	}
}

func TestSpilledLocalsExecute(t *testing.T) {
	in := types.NewInterner()
	u64 := in.Builtins().U64

	f := &mir.Func{Name: "wide", Result: u64, Params: 1}
	f.NewLocal(u64, "x")
	for i := 0; i < 300; i++ {
		f.NewLocal(u64, "")
	}
	blk := f.NewBlock()
	f.Entry = blk.ID

	// chain increments through every local so the spilled tail is
	// genuinely exercised
	prev := mir.LocalID(0)
	for i := 1; i <= 300; i++ {
		blk.Instrs = append(blk.Instrs, mir.Instr{
			Kind: mir.InstrAssign,
			Dst:  mir.Place{Local: mir.LocalID(i)},
			Src: mir.RValue{
				Kind:  mir.RVBinary,
				Type:  u64,
				BinOp: ast.BinAdd,
				X:     mir.UseLocal(prev),
				Y:     mir.UintOp(1, u64),
			},
		})
		prev = mir.LocalID(i)
	}
	blk.Term = mir.Return(mir.UseLocal(prev))
	if err := mir.Validate(f); err != nil {
		t.Fatalf("validate: %v", err)
	}

	mod := &mir.Module{In: in, Funcs: []*mir.Func{f}, Init: mir.NoFuncID}
	p, ok := Generate(mod, Options{})
	if !ok {
		t.Fatal("codegen failed")
	}
	if p.Funcs[0].Slots == 0 {
		t.Fatal("expected spill slots for 301 locals")
	}
	v, err := vm.New(p).Call(0, vm.Word(5))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if v.Word != 305 {
		t.Errorf("result = %d, want 305", v.Word)
	}
}
