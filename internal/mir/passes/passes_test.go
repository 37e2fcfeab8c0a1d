package passes

import (
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

func optimizeSource(t *testing.T, input string) *mir.Module {
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
		t.Fatalf("errors before optimization: %+v", bag.Items())
	}
	prog := mono.Monomorphize(info, mono.Options{Reporter: reporter})
	mod := mir.Build(prog, mir.Options{Reporter: reporter})
	if bag.HasErrors() {
		t.Fatalf("errors before optimization: %+v", bag.Items())
	}
	Optimize(mod)
	for _, f := range mod.Funcs {
		if err := mir.Validate(f); err != nil {
			t.Fatalf("optimization broke %s:\n%s%v", f.Name, mir.FormatFunc(mod.In, f), err)
		}
	}
	return mod
}

func funcNamed(t *testing.T, mod *mir.Module, name string) *mir.Func {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no function %q", name)
	return nil
}

func countCalls(f *mir.Func) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == mir.InstrAssign && blk.Instrs[i].Src.Kind == mir.RVCall {
				n++
			}
		}
	}
	return n
}

func countStorageReads(f *mir.Func) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == mir.InstrAssign && in.Src.Kind == mir.RVStorageRead {
				n++
			}
		}
	}
	return n
}

func countStorageWrites(f *mir.Func) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == mir.InstrStorageWrite {
				n++
			}
		}
	}
	return n
}

func TestConstantBranchCollapses(t *testing.T) {
	mod := optimizeSource(t, `
fn main() -> u64 {
    if true { 1 } else { 2 }
}
`)
	f := funcNamed(t, mod, "main")
	if len(f.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1:\n%s", len(f.Blocks), mir.FormatFunc(mod.In, f))
	}
	term := f.Blocks[0].Term
	if term.Kind != mir.TermReturn || term.Value.Kind != mir.OpConst || term.Value.Const.Uint != 1 {
		t.Errorf("did not fold to return 1:\n%s", mir.FormatFunc(mod.In, f))
	}
}

func TestDeadStoreRemoved(t *testing.T) {
	mod := optimizeSource(t, `
fn main() -> u64 {
    let unused = 3;
    7
}
`)
	f := funcNamed(t, mod, "main")
	for _, blk := range f.Blocks {
		if len(blk.Instrs) != 0 {
			t.Fatalf("dead store survived:\n%s", mir.FormatFunc(mod.In, f))
		}
	}
}

func TestConstArithmeticFolds(t *testing.T) {
	mod := optimizeSource(t, `
fn main() -> u64 {
    let a = 6 * 7;
    a + 0
}
`)
	f := funcNamed(t, mod, "main")
	term := f.Blocks[0].Term
	if term.Kind != mir.TermReturn || term.Value.Kind != mir.OpConst || term.Value.Const.Uint != 42 {
		t.Errorf("did not fold to return 42:\n%s", mir.FormatFunc(mod.In, f))
	}
}

func TestDivisionByZeroNotFolded(t *testing.T) {
	mod := optimizeSource(t, `
fn main() -> u64 {
    let z = 0;
    10 / z
}
`)
	f := funcNamed(t, mod, "main")
	found := false
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == mir.InstrAssign && in.Src.Kind == mir.RVBinary && in.Src.BinOp == ast.BinDiv {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("division by zero folded away:\n%s", mir.FormatFunc(mod.In, f))
	}
}

func TestRepeatedStorageReadMerged(t *testing.T) {
	mod := optimizeSource(t, `
storage {
    counter: u64 = 0
}

abi Counter {
    #[reads]
    fn doubled() -> u64;
}

#[reads]
fn doubled() -> u64 {
    storage.counter + storage.counter
}
`)
	f := funcNamed(t, mod, "doubled")
	if got := countStorageReads(f); got != 1 {
		t.Errorf("storage reads = %d, want 1:\n%s", got, mir.FormatFunc(mod.In, f))
	}
}

func TestStorageEffectsSurviveOptimization(t *testing.T) {
	mod := optimizeSource(t, `
storage {
    counter: u64 = 0
}

abi Counter {
    #[writes]
    fn increment(amount: u64) -> u64;
}

#[writes]
fn increment(amount: u64) -> u64 {
    storage.counter = storage.counter + amount;
    storage.counter
}
`)
	f := funcNamed(t, mod, "increment")
	if got := countStorageWrites(f); got != 1 {
		t.Errorf("storage writes = %d, want 1:\n%s", got, mir.FormatFunc(mod.In, f))
	}
	if countStorageReads(f) == 0 {
		t.Errorf("all storage reads removed:\n%s", mir.FormatFunc(mod.In, f))
	}
}

func TestSmallCalleeInlined(t *testing.T) {
	mod := optimizeSource(t, `
fn add_one(x: u64) -> u64 { x + 1 }

fn main() -> u64 {
    add_one(41)
}
`)
	f := funcNamed(t, mod, "main")
	if got := countCalls(f); got != 0 {
		t.Fatalf("calls = %d, want 0:\n%s", got, mir.FormatFunc(mod.In, f))
	}
	term := f.Blocks[0].Term
	if term.Kind != mir.TermReturn || term.Value.Kind != mir.OpConst || term.Value.Const.Uint != 42 {
		t.Errorf("inlined call did not fold to 42:\n%s", mir.FormatFunc(mod.In, f))
	}
}

func TestRecursiveCalleeNotInlined(t *testing.T) {
	mod := optimizeSource(t, `
fn fact(n: u64) -> u64 {
    if n == 0 { 1 } else { n * fact(n - 1) }
}

fn main() -> u64 {
    fact(5)
}
`)
	if got := countCalls(funcNamed(t, mod, "main")); got != 1 {
		t.Errorf("calls in main = %d, want 1", got)
	}
	if got := countCalls(funcNamed(t, mod, "fact")); got != 1 {
		t.Errorf("calls in fact = %d, want 1", got)
	}
}

func TestLoopSurvivesOptimization(t *testing.T) {
	mod := optimizeSource(t, `
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
	f := funcNamed(t, mod, "main")
	backEdge := false
	for _, blk := range f.Blocks {
		for _, succ := range blk.Term.Succs(nil) {
			if succ <= blk.ID {
				backEdge = true
			}
		}
	}
	if !backEdge {
		t.Errorf("loop removed:\n%s", mir.FormatFunc(mod.In, f))
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	mod := optimizeSource(t, `
enum Option<T> { Some(T), None }

fn unwrap_or(opt: Option<u64>, fallback: u64) -> u64 {
    match opt {
        Option::Some(v) => v,
        Option::None => fallback,
    }
}

fn main() -> u64 {
    unwrap_or(Option::Some(4), 0) + unwrap_or(Option::None, 9)
}
`)
	before := make([]string, len(mod.Funcs))
	for i, f := range mod.Funcs {
		before[i] = mir.FormatFunc(mod.In, f)
	}
	Optimize(mod)
	for i, f := range mod.Funcs {
		if got := mir.FormatFunc(mod.In, f); got != before[i] {
			t.Errorf("second optimize changed %s:\n%s\nvs\n%s", f.Name, before[i], got)
		}
	}
}
