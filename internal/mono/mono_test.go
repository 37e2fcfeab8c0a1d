package mono

import (
	"reflect"
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/parser"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
)

func monoSource(t *testing.T, opts Options, inputs ...string) (*Program, *diag.Bag) {
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
		t.Fatalf("errors before monomorphization: %+v", bag.Items())
	}
	opts.Reporter = reporter
	return Monomorphize(info, opts), bag
}

func instanceNames(p *Program) []string {
	names := make([]string, len(p.Instances))
	for i, inst := range p.Instances {
		names[i] = inst.Name
	}
	return names
}

func wantNoErrors(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
}

func wantCode(t *testing.T, bag *diag.Bag, code diag.Code) {
	t.Helper()
	for _, d := range bag.Items() {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("missing %v in %+v", code, bag.Items())
}

func TestExactSpecializationSet(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
fn identity<T>(x: T) -> T { x }

fn main() -> u64 {
    let a = identity(1);
    let b = identity(2);
    let c = identity(true);
    a + b
}
`)
	wantNoErrors(t, bag)
	want := []string{"identity<bool>", "identity<u64>", "main"}
	if got := instanceNames(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("instances = %v, want %v", got, want)
	}
}

func TestDeterministicOrdering(t *testing.T) {
	src := `
fn pick<A, B>(a: A, b: B) -> A { a }

fn main() -> u64 {
    let x = pick(1, true);
    let y = pick(false, 2);
    x
}
`
	p1, bag1 := monoSource(t, Options{}, src)
	wantNoErrors(t, bag1)
	p2, bag2 := monoSource(t, Options{}, src)
	wantNoErrors(t, bag2)
	if !reflect.DeepEqual(instanceNames(p1), instanceNames(p2)) {
		t.Fatalf("ordering differs between runs: %v vs %v",
			instanceNames(p1), instanceNames(p2))
	}
}

func TestTransitiveInstantiation(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
fn inner<T>(x: T) -> T { x }
fn outer<T>(x: T) -> T { inner(x) }

fn main() -> bool {
    outer(true)
}
`)
	wantNoErrors(t, bag)
	want := []string{"inner<bool>", "main", "outer<bool>"}
	if got := instanceNames(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("instances = %v, want %v", got, want)
	}
}

func TestMethodInstance(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
struct Box<T> { v: T }

impl<T> Box<T> {
    fn get(self) -> T { self.v }
}

fn main() -> u64 {
    let b = Box { v: 7 };
    b.get()
}
`)
	wantNoErrors(t, bag)
	found := false
	for _, inst := range p.Instances {
		if inst.Name == "Box<u64>::get" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing Box<u64>::get in %v", instanceNames(p))
	}
}

func TestTraitDefaultSpecializedPerImpl(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
trait Greet {
    fn id(self) -> u64;
    fn doubled(self) -> u64 { self.id() + self.id() }
}

struct One {}
struct Two {}

impl Greet for One { fn id(self) -> u64 { 1 } }
impl Greet for Two { fn id(self) -> u64 { 2 } }

fn main() -> u64 {
    let a = One {};
    let b = Two {};
    a.doubled() + b.doubled()
}
`)
	wantNoErrors(t, bag)
	want := map[string]bool{
		"One::doubled": false, "One::id": false,
		"Two::doubled": false, "Two::id": false,
	}
	for _, inst := range p.Instances {
		if _, tracked := want[inst.Name]; tracked {
			want[inst.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing instance %q in %v", name, instanceNames(p))
		}
	}
}

func TestBoundMethodResolvedToImpl(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
trait Show { fn show(self) -> u64; }

struct Tag { v: u64 }

impl Show for Tag {
    fn show(self) -> u64 { self.v }
}

fn display<T: Show>(x: T) -> u64 { x.show() }

fn main() -> u64 {
    display(Tag { v: 9 })
}
`)
	wantNoErrors(t, bag)
	var show *Instance
	for _, inst := range p.Instances {
		if inst.Name == "Tag::show" {
			show = inst
		}
	}
	if show == nil {
		t.Fatalf("missing Tag::show in %v", instanceNames(p))
	}
	if show.Impl == nil || show.Trait == symbols.NoSymbolID {
		t.Fatalf("Tag::show not attributed to its impl and trait")
	}
}

func TestQualifiedCallInstantiates(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
trait Make {
    fn make(self) -> u64;
}

struct M { v: u64 }

impl Make for M {
    fn make(self) -> u64 { self.v }
}

fn main() -> u64 {
    let m = M { v: 41 };
    <M as Make>::make(m)
}
`)
	wantNoErrors(t, bag)
	found := false
	for _, inst := range p.Instances {
		if inst.Name == "M::make" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing M::make in %v", instanceNames(p))
	}
}

func TestAbiMethodsAreRoots(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
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
	wantNoErrors(t, bag)
	var abiRoots []string
	for _, r := range p.Roots {
		if r.Kind == RootAbi {
			abiRoots = append(abiRoots, r.Method)
		}
	}
	want := []string{"count", "increment"}
	if !reflect.DeepEqual(abiRoots, want) {
		t.Fatalf("abi roots = %v, want %v", abiRoots, want)
	}
}

func TestAbiMethodWithoutBackingFn(t *testing.T) {
	_, bag := monoSource(t, Options{}, `
abi Counter {
    fn missing() -> u64;
}
`)
	wantCode(t, bag, diag.ResMissingEntrypoint)
}

func TestTestFunctionsRootedOnRequest(t *testing.T) {
	src := `
fn helper() -> u64 { 3 }

#[test]
fn checks_helper() {
    let v = helper();
}
`
	p, bag := monoSource(t, Options{IncludeTests: true}, src)
	wantNoErrors(t, bag)
	hasTest := false
	for _, r := range p.Roots {
		if r.Kind == RootTest {
			hasTest = true
		}
	}
	if !hasTest {
		t.Fatalf("test function not rooted: %v", instanceNames(p))
	}

	p2, bag2 := monoSource(t, Options{}, src)
	wantNoErrors(t, bag2)
	if len(p2.Instances) != 0 {
		t.Fatalf("instances reached without roots: %v", instanceNames(p2))
	}
}

func TestGenericEntrypointRejected(t *testing.T) {
	_, bag := monoSource(t, Options{}, `
fn main<T>(x: T) -> T { x }
`)
	wantCode(t, bag, diag.MonoUnresolvedGeneric)
}

func TestPolymorphicRecursionHitsDepthLimit(t *testing.T) {
	_, bag := monoSource(t, Options{MaxDepth: 8}, `
fn nest<T>(x: T) -> u64 { nest((x, x)) }

fn main() -> u64 {
    nest(1)
}
`)
	wantCode(t, bag, diag.MonoDepthExceeded)
}

func TestStorageInitializerReached(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
fn seed() -> u64 { 7 }

storage {
    counter: u64 = seed()
}
`)
	wantNoErrors(t, bag)
	found := false
	for _, inst := range p.Instances {
		if inst.Name == "seed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("storage initializer callee not reached: %v", instanceNames(p))
	}
}

func TestCalleeMapping(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
fn identity<T>(x: T) -> T { x }

fn main() -> u64 {
    identity(5)
}
`)
	wantNoErrors(t, bag)
	if len(p.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(p.Roots))
	}
	main := p.Roots[0].Inst
	var call *ast.Expr
	for e := range p.Info.CallSubst {
		call = e
	}
	if call == nil {
		t.Fatalf("no recorded call substitution")
	}
	callee, ok := p.Callee(main, call)
	if !ok {
		t.Fatalf("call edge not recorded")
	}
	if callee.Name != "identity<u64>" {
		t.Fatalf("callee = %q, want identity<u64>", callee.Name)
	}
}

func TestConcreteSignatureTypes(t *testing.T) {
	p, bag := monoSource(t, Options{}, `
fn swap<A, B>(pair: (A, B)) -> (B, A) {
    let p = pair;
    (p.1, p.0)
}

fn main() -> (bool, u64) {
    swap((1, true))
}
`)
	wantNoErrors(t, bag)
	var swapped *Instance
	for _, inst := range p.Instances {
		if inst.Name == "swap<u64, bool>" {
			swapped = inst
		}
	}
	if swapped == nil {
		t.Fatalf("missing swap<u64, bool> in %v", instanceNames(p))
	}
	if got := p.Info.In.String(swapped.Result); got != "(bool, u64)" {
		t.Fatalf("result = %q, want (bool, u64)", got)
	}
	if len(swapped.Params) != 1 ||
		p.Info.In.String(swapped.Params[0]) != "(u64, bool)" {
		t.Fatalf("params rendered wrong: %v", swapped.Params)
	}
}
