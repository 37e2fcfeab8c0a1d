package sema

import (
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/parser"
	"ember/internal/source"
	"ember/internal/symbols"
)

func checkSource(t *testing.T, inputs ...string) (*Info, *diag.Bag) {
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
	info := Check(files, table, Options{Reporter: reporter})
	return info, bag
}

func wantClean(t *testing.T, bag *diag.Bag) {
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

func TestLiteralDefaultsToU64(t *testing.T) {
	info, bag := checkSource(t, `
fn answer() -> u64 {
    let x = 41;
    x + 1
}
`)
	wantClean(t, bag)
	b := info.In.Builtins()
	for e, ty := range info.ExprTypes {
		if e.Kind == ast.ExprBinary && ty != b.U64 {
			t.Errorf("x + 1: got %s, want u64", info.In.String(ty))
		}
	}
}

func TestSuffixedLiteralWidth(t *testing.T) {
	_, bag := checkSource(t, `
fn widths() {
    let a: u8 = 255u8;
    let b: u256 = 1u256;
    let c = a;
    let d: u8 = c;
}
`)
	wantClean(t, bag)
}

func TestBodyReturnMismatch(t *testing.T) {
	_, bag := checkSource(t, `
fn bad() -> u64 { true }
`)
	if !bag.HasErrors() {
		t.Fatal("expected a type error")
	}
	if n := len(bag.Items()); n != 1 {
		t.Fatalf("want exactly one diagnostic, got %d: %+v", n, bag.Items())
	}
	if bag.Items()[0].Code != diag.TypeMismatch {
		t.Errorf("code: %v, want TypeMismatch", bag.Items()[0].Code)
	}
}

func TestGenericCallInference(t *testing.T) {
	info, bag := checkSource(t, `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a: u64 = identity(5);
    let b = identity(true);
    let c: bool = b;
}
`)
	wantClean(t, bag)
	b := info.In.Builtins()
	seen := map[string]bool{}
	for _, sub := range info.CallSubst {
		if len(sub.Types) != 1 {
			continue
		}
		switch sub.Types[0] {
		case b.U64:
			seen["u64"] = true
		case b.Bool:
			seen["bool"] = true
		}
	}
	if !seen["u64"] || !seen["bool"] {
		t.Errorf("call substitutions missing: %v", seen)
	}
}

func TestTurbofishOverridesInference(t *testing.T) {
	_, bag := checkSource(t, `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a: u64 = identity::<u64>(7);
}
`)
	wantClean(t, bag)
}

func TestConstGenericArrayInference(t *testing.T) {
	_, bag := checkSource(t, `
fn first<const N: u64>(xs: [u64; N]) -> u64 {
    xs[0]
}

fn main() -> u64 {
    first([1, 2, 3])
}
`)
	wantClean(t, bag)
}

func TestStructLiteralAndFieldAccess(t *testing.T) {
	_, bag := checkSource(t, `
struct Pair<A, B> { left: A, right: B }

fn main() -> u64 {
    let p = Pair { left: 1, right: true };
    if p.right { p.left } else { 0 }
}
`)
	wantClean(t, bag)
}

func TestStructLiteralMissingField(t *testing.T) {
	_, bag := checkSource(t, `
struct Point { x: u64, y: u64 }

fn main() -> u64 {
    let p = Point { x: 1 };
    p.x
}
`)
	wantCode(t, bag, diag.TypeNoSuchField)
}

func TestTraitMethodResolution(t *testing.T) {
	info, bag := checkSource(t, `
trait Area {
    fn area(self) -> u64;
}

struct Square { side: u64 }

impl Area for Square {
    fn area(self) -> u64 { self.side * self.side }
}

fn main() -> u64 {
    let s = Square { side: 4 };
    s.area()
}
`)
	wantClean(t, bag)
	if len(info.Methods) == 0 {
		t.Fatal("no method resolution recorded")
	}
	for _, target := range info.Methods {
		if target.Impl == nil || target.Default {
			t.Errorf("expected an impl-provided method, got %+v", target)
		}
	}
}

func TestInherentBeatsTraitMethod(t *testing.T) {
	info, bag := checkSource(t, `
trait Render {
    fn draw(self) -> u64;
}

struct Box { v: u64 }

impl Box {
    fn draw(self) -> u64 { 1 }
}

impl Render for Box {
    fn draw(self) -> u64 { 2 }
}

fn main() -> u64 {
    let b = Box { v: 0 };
    b.draw()
}
`)
	wantClean(t, bag)
	for _, target := range info.Methods {
		if target.Trait.IsValid() {
			t.Errorf("inherent method should win, resolved via trait %v", target.Trait)
		}
	}
}

func TestTraitDefaultMethod(t *testing.T) {
	info, bag := checkSource(t, `
trait Greet {
    fn id(self) -> u64;
    fn doubled(self) -> u64 { self.id() + self.id() }
}

struct One {}

impl Greet for One {
    fn id(self) -> u64 { 1 }
}

fn main() -> u64 {
    let o = One {};
    o.doubled()
}
`)
	wantClean(t, bag)
	found := false
	for _, target := range info.Methods {
		if target.Default {
			found = true
		}
	}
	if !found {
		t.Error("no default-method resolution recorded")
	}
}

func TestAmbiguousTraitMethod(t *testing.T) {
	_, bag := checkSource(t, `
trait Left { fn go(self) -> u64; }
trait Right { fn go(self) -> u64; }

struct Both {}

impl Left for Both { fn go(self) -> u64 { 1 } }
impl Right for Both { fn go(self) -> u64 { 2 } }

fn main() -> u64 {
    let b = Both {};
    b.go()
}
`)
	wantCode(t, bag, diag.TypeAmbiguousMethod)
}

func TestMissingImplMember(t *testing.T) {
	_, bag := checkSource(t, `
trait Pair {
    fn first(self) -> u64;
    fn second(self) -> u64;
}

struct Partial {}

impl Pair for Partial {
    fn first(self) -> u64 { 1 }
}
`)
	wantCode(t, bag, diag.TypeMissingImplMember)
}

func TestUnsatisfiedBound(t *testing.T) {
	_, bag := checkSource(t, `
trait Show { fn show(self) -> u64; }

fn display<T: Show>(x: T) -> u64 { x.show() }

fn main() -> u64 {
    display(5u64)
}
`)
	wantCode(t, bag, diag.TypeUnsatisfiedBound)
}

func TestBoundMethodOnGenericReceiver(t *testing.T) {
	_, bag := checkSource(t, `
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
	wantClean(t, bag)
}

func TestEnumMatchInference(t *testing.T) {
	_, bag := checkSource(t, `
enum Option<T> { Some(T), None }

fn unwrap_or(opt: Option<u64>, fallback: u64) -> u64 {
    match opt {
        Option::Some(v) => v,
        Option::None => fallback,
    }
}
`)
	wantClean(t, bag)
}

func TestMatchArmTypeDisagreement(t *testing.T) {
	_, bag := checkSource(t, `
fn pick(b: bool) -> u64 {
    match b {
        true => 1,
        false => false,
    }
}
`)
	wantCode(t, bag, diag.TypeMismatch)
}

func TestMatchGuardMustBeBool(t *testing.T) {
	_, bag := checkSource(t, `
fn f(x: u64) -> u64 {
    match x {
        n if n => 1,
        _ => 0,
    }
}
`)
	wantCode(t, bag, diag.TypeMismatch)
}

func TestStoragePurity(t *testing.T) {
	_, bag := checkSource(t, `
storage {
    counter: u64 = 0
}

fn sneaky() -> u64 {
    storage.counter
}
`)
	wantCode(t, bag, diag.PurityStorageRead)
}

func TestStorageWriteNeedsWrites(t *testing.T) {
	_, bag := checkSource(t, `
storage {
    counter: u64 = 0
}

#[reads]
fn bump() {
    storage.counter = storage.counter + 1;
}
`)
	wantCode(t, bag, diag.PurityStorageWrite)
}

func TestStorageReadAllowedWithReads(t *testing.T) {
	_, bag := checkSource(t, `
storage {
    counter: u64 = 0
}

#[reads]
fn current() -> u64 {
    storage.counter
}

#[writes]
fn bump() {
    storage.counter = storage.counter + 1;
}
`)
	wantClean(t, bag)
}

func TestPurityPropagatesThroughCalls(t *testing.T) {
	_, bag := checkSource(t, `
storage {
    counter: u64 = 0
}

#[reads]
fn current() -> u64 { storage.counter }

fn outer() -> u64 { current() }
`)
	wantCode(t, bag, diag.PurityStorageRead)
}

func TestStorageInitializerTypeChecked(t *testing.T) {
	_, bag := checkSource(t, `
storage {
    flag: bool = 1
}
`)
	wantCode(t, bag, diag.TypeMismatch)
}

func TestConfigurableDefaultChecked(t *testing.T) {
	_, bag := checkSource(t, `
configurable {
    LIMIT: u64 = 100
}
`)
	wantClean(t, bag)
}

func TestAssocConstCycle(t *testing.T) {
	_, bag := checkSource(t, `
trait Tuned {
    const A: u64;
    const B: u64;
}

struct S {}

impl Tuned for S {
    const A: u64 = Self::B;
    const B: u64 = Self::A;
}
`)
	wantCode(t, bag, diag.TypeAssocCycle)
}

func TestImmutableAssignment(t *testing.T) {
	_, bag := checkSource(t, `
fn f() {
    let x = 1;
    x = 2;
}
`)
	wantCode(t, bag, diag.TypeNotAssignable)
}

func TestMutableAssignment(t *testing.T) {
	_, bag := checkSource(t, `
fn f() -> u64 {
    let mut x = 1;
    x = 2;
    x
}
`)
	wantClean(t, bag)
}

func TestBreakOutsideLoop(t *testing.T) {
	_, bag := checkSource(t, `
fn f() {
    break;
}
`)
	wantCode(t, bag, diag.TypeOutsideLoop)
}

func TestWhileLoopChecks(t *testing.T) {
	_, bag := checkSource(t, `
fn countdown(start: u64) -> u64 {
    let mut n = start;
    while n > 0 {
        n = n - 1;
    }
    n
}
`)
	wantClean(t, bag)
}

func TestCastRules(t *testing.T) {
	_, bag := checkSource(t, `
fn casts(x: u64) -> u8 {
    x as u8
}
`)
	wantClean(t, bag)
}

func TestBadCast(t *testing.T) {
	_, bag := checkSource(t, `
struct S {}

fn bad(s: S) -> u64 {
    s as u64
}
`)
	wantCode(t, bag, diag.TypeBadCast)
}

func TestNeverTypePropagates(t *testing.T) {
	_, bag := checkSource(t, `
fn pick(b: bool) -> u64 {
    if b {
        7
    } else {
        revert 3;
    }
}
`)
	wantClean(t, bag)
}

func TestConstEvaluation(t *testing.T) {
	info, bag := checkSource(t, `
const BASE: u64 = 16;
const DOUBLE: u64 = BASE * 2;

fn f() -> [u8; DOUBLE] {
    [0; DOUBLE]
}
`)
	wantClean(t, bag)
	for _, ci := range info.Consts {
		if ci.Decl.Name.Name == "DOUBLE" {
			if !ci.HasVal || ci.Value != 32 {
				t.Errorf("DOUBLE: got %d (eval=%v), want 32", ci.Value, ci.HasVal)
			}
		}
	}
}

func TestStorageNamespacePaths(t *testing.T) {
	info, bag := checkSource(t, `
#[namespace(vault)]
storage {
    balance: u64 = 0
}

storage {
    counter: u64 = 0
}
`)
	wantClean(t, bag)
	want := map[string]bool{"storage::vault.balance": false, "storage.counter": false}
	for _, f := range info.Storage {
		if _, ok := want[f.Path]; ok {
			want[f.Path] = true
		}
	}
	for path, seen := range want {
		if !seen {
			t.Errorf("missing storage path %q in %+v", path, info.Storage)
		}
	}
}

func TestAbiMethodsCollected(t *testing.T) {
	info, bag := checkSource(t, `
abi Counter {
    #[reads]
    fn count() -> u64;
    #[writes]
    fn increment(amount: u64) -> u64;
}
`)
	wantClean(t, bag)
	var abi *AbiInfo
	for _, a := range info.Abis {
		abi = a
	}
	if abi == nil || len(abi.Methods) != 2 {
		t.Fatalf("abi methods not collected: %+v", abi)
	}
	if abi.Methods[0].Sig.Purity != ast.PurityReads {
		t.Errorf("count purity: %v, want reads", abi.Methods[0].Sig.Purity)
	}
}

func TestQualifiedCall(t *testing.T) {
	_, bag := checkSource(t, `
trait Make {
    fn make(v: u64) -> u64;
}

struct M {}

impl Make for M {
    fn make(v: u64) -> u64 { v + 1 }
}

fn main() -> u64 {
    <M as Make>::make(41)
}
`)
	wantClean(t, bag)
}
