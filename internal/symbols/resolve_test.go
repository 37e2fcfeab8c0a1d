package symbols

import (
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/parser"
	"ember/internal/source"
)

func resolveSource(t *testing.T, inputs ...string) (*Table, *diag.Bag) {
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
	table := Resolve(files, reporter)
	return table, bag
}

func lookupIn(t *testing.T, table *Table, from ModuleID, names ...string) (SymbolID, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	segs := make([]ast.Ident, len(names))
	for i, n := range names {
		segs[i] = ast.Ident{Name: n}
	}
	sym, _ := table.LookupPath(from, ast.Path{Segments: segs}, &diag.BagReporter{Bag: bag})
	return sym, bag
}

func TestDeclareAndLookup(t *testing.T) {
	table, bag := resolveSource(t, `
fn main() {}
struct Point { x: u64 }
enum Color { Red, Green }
trait Show { fn show(self) -> u64; }
const MAX: u64 = 10;
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	wantKinds := map[string]SymbolKind{
		"main": SymbolFn, "Point": SymbolStruct, "Color": SymbolEnum,
		"Show": SymbolTrait, "MAX": SymbolConst,
	}
	for name, kind := range wantKinds {
		sym, lbag := lookupIn(t, table, table.Root(), name)
		if lbag.HasErrors() {
			t.Fatalf("%s: %+v", name, lbag.Items())
		}
		if got := table.Symbol(sym).Kind; got != kind {
			t.Errorf("%s: kind %v, want %v", name, got, kind)
		}
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	_, bag := resolveSource(t, `
fn twice() {}
struct twice { x: u64 }
`)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.ResDuplicateName {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ResDuplicateName, got %+v", bag.Items())
	}
}

func TestModulePathLookup(t *testing.T) {
	table, bag := resolveSource(t, `
mod math {
    pub fn add(a: u64, b: u64) -> u64 { a + b }
    fn hidden() {}
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	sym, lbag := lookupIn(t, table, table.Root(), "math", "add")
	if lbag.HasErrors() {
		t.Fatalf("math::add: %+v", lbag.Items())
	}
	if table.Symbol(sym).Kind != SymbolFn {
		t.Errorf("math::add kind: %v", table.Symbol(sym).Kind)
	}

	_, lbag = lookupIn(t, table, table.Root(), "math", "hidden")
	if !lbag.HasErrors() {
		t.Fatal("expected privacy error for math::hidden")
	}
	if lbag.Items()[0].Code != diag.ResPrivateItem {
		t.Errorf("code: %v, want ResPrivateItem", lbag.Items()[0].Code)
	}
}

func TestExplicitUseAndAlias(t *testing.T) {
	table, bag := resolveSource(t, `
mod math {
    pub fn add(a: u64, b: u64) -> u64 { a + b }
}
use math::add;
use math::add as plus;
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	for _, name := range []string{"add", "plus"} {
		sym, lbag := lookupIn(t, table, table.Root(), name)
		if lbag.HasErrors() {
			t.Fatalf("%s: %+v", name, lbag.Items())
		}
		if table.Symbol(sym).Kind != SymbolFn {
			t.Errorf("%s kind: %v", name, table.Symbol(sym).Kind)
		}
	}
}

func TestGlobNeverOverwritesExplicit(t *testing.T) {
	table, bag := resolveSource(t, `
mod a {
    pub fn f() {}
}
mod b {
    pub fn f() {}
    pub fn g() {}
}
use a::f;
use b::*;
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	// 'f' must still be a::f; referencing it is not ambiguous.
	sym, lbag := lookupIn(t, table, table.Root(), "f")
	if lbag.HasErrors() {
		t.Fatalf("f: %+v", lbag.Items())
	}
	aMod := table.Symbol(mustLookup(t, table, "a")).Target
	if table.Symbol(sym).Owner != aMod {
		t.Errorf("f resolved to owner %v, want module a (%v)", table.Symbol(sym).Owner, aMod)
	}
	// 'g' arrives through the glob.
	if _, lbag := lookupIn(t, table, table.Root(), "g"); lbag.HasErrors() {
		t.Errorf("g: %+v", lbag.Items())
	}
}

func TestGlobCollisionErrorsOnlyOnReference(t *testing.T) {
	table, bag := resolveSource(t, `
mod a {
    pub fn f() {}
}
mod b {
    pub fn f() {}
}
use a::*;
use b::*;
`)
	// Importing the contested name is fine.
	if bag.HasErrors() {
		t.Fatalf("import-time errors: %+v", bag.Items())
	}
	// Referencing it is not.
	_, lbag := lookupIn(t, table, table.Root(), "f")
	if !lbag.HasErrors() {
		t.Fatal("expected ambiguity error on reference")
	}
	if lbag.Items()[0].Code != diag.ResGlobCollision {
		t.Errorf("code: %v, want ResGlobCollision", lbag.Items()[0].Code)
	}
}

func TestEnumVariantLookupAndGlob(t *testing.T) {
	table, bag := resolveSource(t, `
enum Color { Red, Green, Blue }
use Color::*;
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	sym, lbag := lookupIn(t, table, table.Root(), "Color", "Green")
	if lbag.HasErrors() {
		t.Fatalf("Color::Green: %+v", lbag.Items())
	}
	s := table.Symbol(sym)
	if s.Kind != SymbolVariant || s.VariantIndex != 1 {
		t.Errorf("variant: kind=%v index=%d", s.Kind, s.VariantIndex)
	}
	// Glob of an enum brings variants into scope directly.
	sym, lbag = lookupIn(t, table, table.Root(), "Blue")
	if lbag.HasErrors() {
		t.Fatalf("Blue: %+v", lbag.Items())
	}
	if table.Symbol(sym).VariantIndex != 2 {
		t.Errorf("Blue index: %d", table.Symbol(sym).VariantIndex)
	}
}

func TestStorageDuplicateField(t *testing.T) {
	_, bag := resolveSource(t, `
storage {
    counter: u64 = 0,
    counter: u64 = 1,
}
`)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.ResDuplicateStorage {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ResDuplicateStorage, got %+v", bag.Items())
	}
}

func TestNamespacedStorageDoesNotCollide(t *testing.T) {
	_, bag := resolveSource(t, `
storage {
    counter: u64 = 0,
}
#[namespace(vault)]
storage {
    counter: u64 = 0,
}
`)
	if bag.HasErrors() {
		t.Fatalf("distinct namespaces must not collide: %+v", bag.Items())
	}
}

func TestCrossFileDeclarations(t *testing.T) {
	table, bag := resolveSource(t,
		"pub fn from_a() {}\n",
		"fn from_b() {}\nfn calls() {}\n",
	)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	for _, name := range []string{"from_a", "from_b", "calls"} {
		if _, lbag := lookupIn(t, table, table.Root(), name); lbag.HasErrors() {
			t.Errorf("%s: %+v", name, lbag.Items())
		}
	}
}

func mustLookup(t *testing.T, table *Table, names ...string) SymbolID {
	t.Helper()
	sym, bag := lookupIn(t, table, table.Root(), names...)
	if bag.HasErrors() {
		t.Fatalf("lookup %v: %+v", names, bag.Items())
	}
	return sym
}
