package mir

import (
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/mono"
	"ember/internal/parser"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
)

func buildSource(t *testing.T, inputs ...string) (*Module, *mono.Program, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(100)
	reporter := &diag.BagReporter{Bag: bag}
	var files []*ast.File
	for i, input := range inputs {
		id := fs.AddVirtual("test"+string(rune('a'+i))+".em", []byte(input))
		lx := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter})
		files = append(files, parser.ParseFile(lx, parser.Options{Reporter: reporter}))
	}
	table := symbols.Resolve(files, reporter)
	info := sema.Check(files, table, sema.Options{Reporter: reporter})
	if bag.HasErrors() {
		t.Fatalf("errors before lowering: %+v", bag.Items())
	}
	prog := mono.Monomorphize(info, mono.Options{Reporter: reporter})
	if bag.HasErrors() {
		t.Fatalf("errors before lowering: %+v", bag.Items())
	}
	mod := Build(prog, Options{Reporter: reporter})
	return mod, prog, bag
}

func wantClean(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func validateAll(t *testing.T, mod *Module) {
	t.Helper()
	for _, f := range mod.Funcs {
		if err := Validate(f); err != nil {
			t.Errorf("invalid function:\n%s%v", FormatFunc(mod.In, f), err)
		}
	}
}

func findFunc(t *testing.T, mod *Module, name string) *Func {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	names := make([]string, len(mod.Funcs))
	for i, f := range mod.Funcs {
		names[i] = f.Name
	}
	t.Fatalf("no function %q in %v", name, names)
	return nil
}

func storageWrites(f *Func, slot string) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == InstrStorageWrite && blk.Instrs[i].Slot == slot {
				n++
			}
		}
	}
	return n
}

func storageReads(f *Func, slot string) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == InstrAssign && in.Src.Kind == RVStorageRead && in.Src.Slot == slot {
				n++
			}
		}
	}
	return n
}

func countRValue(f *Func, kind RVKind) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == InstrAssign && blk.Instrs[i].Src.Kind == kind {
				n++
			}
		}
	}
	return n
}

func TestSimpleFunctionLowers(t *testing.T) {
	mod, _, bag := buildSource(t, `
fn main() -> u64 { 1 + 2 }
`)
	wantClean(t, bag)
	validateAll(t, mod)
	f := findFunc(t, mod, "main")
	if got := countRValue(f, RVBinary); got != 1 {
		t.Errorf("binary rvalues = %d, want 1", got)
	}
	entry := f.Block(f.Entry)
	if entry == nil {
		t.Fatal("missing entry block")
	}
	last := f.Blocks[len(f.Blocks)-1]
	if last.Term.Kind != TermReturn && entry.Term.Kind != TermReturn {
		t.Errorf("no return terminator:\n%s", FormatFunc(mod.In, f))
	}
}

func TestCallEdgesResolveToFuncIDs(t *testing.T) {
	mod, prog, bag := buildSource(t, `
fn identity<T>(x: T) -> T { x }

fn main() -> u64 {
    identity(5)
}
`)
	wantClean(t, bag)
	validateAll(t, mod)
	main := findFunc(t, mod, "main")
	var callee FuncID = NoFuncID
	for _, blk := range main.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == InstrAssign && blk.Instrs[i].Src.Kind == RVCall {
				callee = blk.Instrs[i].Src.Callee
			}
		}
	}
	if !callee.IsValid() {
		t.Fatalf("no call lowered:\n%s", FormatFunc(mod.In, main))
	}
	if got := mod.Func(callee).Name; got != "identity<u64>" {
		t.Errorf("callee = %q, want identity<u64>", got)
	}
	for _, inst := range prog.Instances {
		if _, ok := mod.FuncByKey(inst.Key); !ok {
			t.Errorf("instance %q not reachable by key", inst.Name)
		}
	}
}

func TestStorageCounter(t *testing.T) {
	mod, _, bag := buildSource(t, `
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
`)
	wantClean(t, bag)
	validateAll(t, mod)

	count := findFunc(t, mod, "count")
	if storageReads(count, "storage.counter") != 1 {
		t.Errorf("count reads:\n%s", FormatFunc(mod.In, count))
	}
	inc := findFunc(t, mod, "increment")
	if storageWrites(inc, "storage.counter") != 1 {
		t.Errorf("increment writes:\n%s", FormatFunc(mod.In, inc))
	}
	if storageReads(inc, "storage.counter") != 2 {
		t.Errorf("increment reads:\n%s", FormatFunc(mod.In, inc))
	}
	if len(mod.Storage) != 1 || mod.Storage[0].Path != "storage.counter" {
		t.Errorf("storage slots = %+v", mod.Storage)
	}
}

func TestNamespacedStorageSlot(t *testing.T) {
	mod, _, bag := buildSource(t, `
#[namespace(vault)]
storage {
    total: u64 = 0
}

abi Vault {
    #[reads]
    fn total() -> u64;
}

#[reads]
fn total() -> u64 { storage.total }
`)
	wantClean(t, bag)
	validateAll(t, mod)
	if len(mod.Storage) != 1 || mod.Storage[0].Path != "storage::vault.total" {
		t.Fatalf("storage slots = %+v", mod.Storage)
	}
	f := findFunc(t, mod, "total")
	if storageReads(f, "storage::vault.total") != 1 {
		t.Errorf("read lowered against wrong slot:\n%s", FormatFunc(mod.In, f))
	}
}

func TestNestedStorageWriteIsReadModifyWrite(t *testing.T) {
	mod, _, bag := buildSource(t, `
struct Player { score: u64, lives: u64 }

storage {
    player: Player = Player { score: 0, lives: 3 }
}

abi Game {
    #[writes]
    fn score(points: u64) -> u64;
}

#[writes]
fn score(points: u64) -> u64 {
    storage.player.score = points;
    storage.player.score
}
`)
	wantClean(t, bag)
	validateAll(t, mod)
	f := findFunc(t, mod, "score")
	// One read feeds the write-back, one serves the trailing expression.
	if storageReads(f, "storage.player") != 2 {
		t.Errorf("reads:\n%s", FormatFunc(mod.In, f))
	}
	if storageWrites(f, "storage.player") != 1 {
		t.Errorf("writes:\n%s", FormatFunc(mod.In, f))
	}
	projected := false
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == InstrAssign && len(in.Dst.Proj) == 1 &&
				in.Dst.Proj[0].Kind == ProjField && in.Dst.Proj[0].Field == 0 {
				projected = true
			}
		}
	}
	if !projected {
		t.Errorf("no projected field update:\n%s", FormatFunc(mod.In, f))
	}
}

func TestMatchLowersToTagTests(t *testing.T) {
	mod, _, bag := buildSource(t, `
enum Option<T> { Some(T), None }

fn unwrap_or(opt: Option<u64>, fallback: u64) -> u64 {
    match opt {
        Option::Some(v) => v,
        Option::None => fallback,
    }
}

fn main() -> u64 {
    unwrap_or(Option::Some(4), 0)
}
`)
	wantClean(t, bag)
	validateAll(t, mod)
	f := findFunc(t, mod, "unwrap_or")
	if got := countRValue(f, RVTag); got != 2 {
		t.Errorf("tag tests = %d, want 2:\n%s", got, FormatFunc(mod.In, f))
	}
	if got := countRValue(f, RVPayload); got != 1 {
		t.Errorf("payload extractions = %d, want 1", got)
	}
	reverted := false
	for _, blk := range f.Blocks {
		term := blk.Term
		if term.Kind == TermRevert && term.Code.Kind == OpConst && term.Code.Const.Uint == 1 {
			reverted = true
		}
	}
	if !reverted {
		t.Errorf("missing exhaustion revert block:\n%s", FormatFunc(mod.In, f))
	}
}

func TestWhileLoopShape(t *testing.T) {
	mod, _, bag := buildSource(t, `
fn main() -> u64 {
    sum(10)
}

fn sum(n: u64) -> u64 {
    let mut acc = 0;
    let mut i = 0;
    while i < n {
        acc = acc + i;
        i = i + 1;
    }
    acc
}
`)
	wantClean(t, bag)
	validateAll(t, mod)
	f := findFunc(t, mod, "sum")
	backEdge := false
	for _, blk := range f.Blocks {
		if blk.Term.Kind == TermGoto && blk.Term.To < blk.ID {
			backEdge = true
		}
	}
	if !backEdge {
		t.Errorf("loop lowered without a back edge:\n%s", FormatFunc(mod.In, f))
	}
}

func TestShortCircuitBranches(t *testing.T) {
	mod, _, bag := buildSource(t, `
fn both(a: bool, b: bool) -> bool { a && b }

fn main() -> bool { both(true, false) }
`)
	wantClean(t, bag)
	validateAll(t, mod)
	f := findFunc(t, mod, "both")
	ifs := 0
	for _, blk := range f.Blocks {
		if blk.Term.Kind == TermIf {
			ifs++
		}
	}
	if ifs == 0 {
		t.Errorf("&& lowered without branching:\n%s", FormatFunc(mod.In, f))
	}
	if got := countRValue(f, RVBinary); got != 0 {
		t.Errorf("&& lowered as a strict binary op:\n%s", FormatFunc(mod.In, f))
	}
}

func TestInitWritesStorageAndConfig(t *testing.T) {
	mod, _, bag := buildSource(t, `
configurable {
    LIMIT: u64 = 100
}

storage {
    counter: u64 = 7
}

abi Counter {
    #[reads]
    fn count() -> u64;
}

#[reads]
fn count() -> u64 { storage.counter }
`)
	wantClean(t, bag)
	validateAll(t, mod)
	if !mod.Init.IsValid() {
		t.Fatal("no init function synthesized")
	}
	init := mod.Func(mod.Init)
	if storageWrites(init, "storage.counter") != 1 {
		t.Errorf("storage initializer not written:\n%s", FormatFunc(mod.In, init))
	}
	if storageWrites(init, "configurable.LIMIT") != 1 {
		t.Errorf("configurable default not written:\n%s", FormatFunc(mod.In, init))
	}
	if len(mod.Config) != 1 || mod.Config[0].Name != "LIMIT" {
		t.Errorf("config slots = %+v", mod.Config)
	}
}

func TestNoInitWithoutSlots(t *testing.T) {
	mod, _, bag := buildSource(t, `
fn main() -> u64 { 1 }
`)
	wantClean(t, bag)
	if mod.Init.IsValid() {
		t.Fatalf("init synthesized for a unit without storage or config")
	}
}

func TestExports(t *testing.T) {
	mod, _, bag := buildSource(t, `
storage {
    counter: u64 = 0
}

abi Counter {
    #[reads]
    fn count() -> u64;
}

#[reads]
fn count() -> u64 { storage.counter }
`)
	wantClean(t, bag)
	if len(mod.Exports) != 1 {
		t.Fatalf("exports = %+v", mod.Exports)
	}
	ex := mod.Exports[0]
	if ex.Kind != ExportAbi || ex.Name != "count" || ex.Abi != "Counter" {
		t.Errorf("export = %+v", ex)
	}
	if mod.Func(ex.Fn) == nil {
		t.Errorf("export points at a missing function")
	}
}

func TestConstInlinedAtUse(t *testing.T) {
	mod, _, bag := buildSource(t, `
const BASE: u64 = 40;

fn main() -> u64 { BASE + 2 }
`)
	wantClean(t, bag)
	validateAll(t, mod)
	f := findFunc(t, mod, "main")
	text := FormatFunc(mod.In, f)
	if !strings.Contains(text, "40") {
		t.Errorf("constant not inlined:\n%s", text)
	}
}

func TestMethodReceiverPrepended(t *testing.T) {
	mod, _, bag := buildSource(t, `
struct Box<T> { v: T }

impl<T> Box<T> {
    fn get(self) -> T { self.v }
}

fn main() -> u64 {
    let b = Box { v: 7 };
    b.get()
}
`)
	wantClean(t, bag)
	validateAll(t, mod)
	get := findFunc(t, mod, "Box<u64>::get")
	if get.Params != 1 {
		t.Errorf("params = %d, want 1 (self)", get.Params)
	}
	main := findFunc(t, mod, "main")
	found := false
	for _, blk := range main.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == InstrAssign && in.Src.Kind == RVCall {
				if in.Src.Callee == get.ID && len(in.Src.Args) == 1 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Errorf("method call missing receiver argument:\n%s", FormatFunc(mod.In, main))
	}
}

func TestValidateRejectsBrokenFunc(t *testing.T) {
	mod, _, bag := buildSource(t, `
fn main() -> u64 { 3 }
`)
	wantClean(t, bag)
	u64 := mod.In.Builtins().U64

	broken := &Func{Name: "broken", Result: u64}
	blk := broken.NewBlock()
	broken.Entry = blk.ID
	if err := Validate(broken); err == nil {
		t.Error("unterminated block accepted")
	}

	blk.Term = Goto(BlockID(9))
	if err := Validate(broken); err == nil {
		t.Error("edge to a missing block accepted")
	}

	undef := &Func{Name: "undef", Result: u64}
	b2 := undef.NewBlock()
	undef.Entry = b2.ID
	local := undef.NewLocal(u64, "x")
	b2.Term = Return(UseLocal(local))
	if err := Validate(undef); err == nil {
		t.Error("use before definition accepted")
	}
}

func TestDeterministicLowering(t *testing.T) {
	src := `
fn helper<T>(x: T) -> T { x }

fn main() -> u64 {
    let a = helper(1);
    let b = helper(true);
    a
}
`
	m1, _, bag1 := buildSource(t, src)
	wantClean(t, bag1)
	m2, _, bag2 := buildSource(t, src)
	wantClean(t, bag2)
	if len(m1.Funcs) != len(m2.Funcs) {
		t.Fatalf("func counts differ: %d vs %d", len(m1.Funcs), len(m2.Funcs))
	}
	for i := range m1.Funcs {
		a := FormatFunc(m1.In, m1.Funcs[i])
		b := FormatFunc(m2.In, m2.Funcs[i])
		if a != b {
			t.Errorf("function %d differs between runs:\n%s\nvs\n%s", i, a, b)
		}
	}
}
