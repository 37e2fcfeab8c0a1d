package parser

import (
	"testing"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/source"
)

func parseSource(t *testing.T, input string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.em", []byte(input))
	file := fs.Get(id)
	bag := diag.NewBag(100)
	reporter := &diag.BagReporter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	f := ParseFile(lx, Options{Reporter: reporter})
	return f, bag
}

func mustParse(t *testing.T, input string) *ast.File {
	t.Helper()
	f, bag := parseSource(t, input)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	return f
}

func onlyFn(t *testing.T, f *ast.File) *ast.FnItem {
	t.Helper()
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	fn, ok := f.Items[0].Data.(*ast.FnItem)
	if !ok {
		t.Fatalf("expected fn item, got %v", f.Items[0].Kind)
	}
	return fn
}

func TestParseFnDeclarations(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantName   string
		wantParams int
		wantBody   bool
		wantReturn bool
	}{
		{"empty body", "fn foo() {}", "foo", 0, true, false},
		{"one param", "fn foo(x: u64) {}", "foo", 1, true, false},
		{"two params with return", "fn add(a: u64, b: u64) -> u64 { a + b }", "add", 2, true, true},
		{"self receiver", "fn get(self) -> u64 { self.value }", "get", 1, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := onlyFn(t, mustParse(t, tt.input))
			if fn.Name.Name != tt.wantName {
				t.Errorf("name: got %q, want %q", fn.Name.Name, tt.wantName)
			}
			if len(fn.Params) != tt.wantParams {
				t.Errorf("params: got %d, want %d", len(fn.Params), tt.wantParams)
			}
			if (fn.Body != nil) != tt.wantBody {
				t.Errorf("body: got %v, want %v", fn.Body != nil, tt.wantBody)
			}
			if (fn.Return != nil) != tt.wantReturn {
				t.Errorf("return: got %v, want %v", fn.Return != nil, tt.wantReturn)
			}
		})
	}
}

func TestParseFnAttributes(t *testing.T) {
	f := mustParse(t, `
#[writes, payable]
fn deposit(amount: u64) {}
`)
	fn := onlyFn(t, f)
	if fn.Purity != ast.PurityWrites {
		t.Errorf("purity: got %v, want writes", fn.Purity)
	}
	if !fn.Payable {
		t.Error("expected payable")
	}
}

func TestParseGenericFn(t *testing.T) {
	f := mustParse(t, "fn max<T: Ord>(a: T, b: T) -> T where T: Eq { a }")
	fn := onlyFn(t, f)
	if len(fn.Generics) != 1 || fn.Generics[0].Name.Name != "T" {
		t.Fatalf("generics: got %+v", fn.Generics)
	}
	if len(fn.Generics[0].Bounds) != 1 || fn.Generics[0].Bounds[0].Path.String() != "Ord" {
		t.Errorf("bounds: got %+v", fn.Generics[0].Bounds)
	}
	if len(fn.Where) != 1 {
		t.Errorf("where: got %d predicates", len(fn.Where))
	}
}

func TestParseConstGenericArray(t *testing.T) {
	f := mustParse(t, "fn zeros<const N: u64>() -> [u64; N] { [0; N] }")
	fn := onlyFn(t, f)
	if len(fn.Generics) != 1 || !fn.Generics[0].IsConst {
		t.Fatalf("expected one const generic, got %+v", fn.Generics)
	}
	if fn.Return == nil || fn.Return.Kind != ast.TypeArray {
		t.Fatalf("expected array return type, got %+v", fn.Return)
	}
}

func TestParseUseForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int // number of UseItems produced
		glob  bool
	}{
		{"plain", "use a::b::c;", 1, false},
		{"alias", "use a::b as c;", 1, false},
		{"glob", "use a::b::*;", 1, true},
		{"group", "use a::{b, c as d, e::f};", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.input)
			if len(f.Items) != tt.want {
				t.Fatalf("items: got %d, want %d", len(f.Items), tt.want)
			}
			u, ok := f.Items[0].Data.(*ast.UseItem)
			if !ok {
				t.Fatalf("expected use item, got %v", f.Items[0].Kind)
			}
			if u.Glob != tt.glob {
				t.Errorf("glob: got %v, want %v", u.Glob, tt.glob)
			}
		})
	}
}

func TestParseStructAndEnum(t *testing.T) {
	f := mustParse(t, `
struct Point<T> { x: T, y: T }
enum Option<T> { None, Some(T) }
`)
	if len(f.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(f.Items))
	}
	st := f.Items[0].Data.(*ast.StructItem)
	if st.Name.Name != "Point" || len(st.Fields) != 2 || len(st.Generics) != 1 {
		t.Errorf("struct: got %+v", st)
	}
	en := f.Items[1].Data.(*ast.EnumItem)
	if en.Name.Name != "Option" || len(en.Variants) != 2 {
		t.Fatalf("enum: got %+v", en)
	}
	if len(en.Variants[0].Payload) != 0 || len(en.Variants[1].Payload) != 1 {
		t.Errorf("variant payloads: got %+v", en.Variants)
	}
}

func TestParseTraitAndImpl(t *testing.T) {
	f := mustParse(t, `
trait Shape: Sized {
    type Unit;
    const SIDES: u64;
    fn area(self) -> u64;
    fn describe(self) -> u64 { self.area() }
}
impl Shape for Square {
    type Unit = u64;
    const SIDES: u64 = 4;
    fn area(self) -> u64 { self.side * self.side }
}
`)
	if len(f.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(f.Items))
	}
	tr := f.Items[0].Data.(*ast.TraitItem)
	if len(tr.Supers) != 1 || len(tr.AssocTypes) != 1 || len(tr.AssocConsts) != 1 || len(tr.Methods) != 2 {
		t.Errorf("trait: supers=%d assocTypes=%d assocConsts=%d methods=%d",
			len(tr.Supers), len(tr.AssocTypes), len(tr.AssocConsts), len(tr.Methods))
	}
	if tr.Methods[0].Body != nil {
		t.Error("area should have no default body")
	}
	if tr.Methods[1].Body == nil {
		t.Error("describe should have a default body")
	}
	im := f.Items[1].Data.(*ast.ImplItem)
	if im.Trait == nil || im.Trait.Path.String() != "Shape" {
		t.Errorf("impl trait: got %+v", im.Trait)
	}
	if len(im.AssocTypes) != 1 || len(im.AssocConsts) != 1 || len(im.Methods) != 1 {
		t.Errorf("impl members: %+v", im)
	}
}

func TestParseInherentImpl(t *testing.T) {
	f := mustParse(t, "impl Counter { fn bump(self) -> u64 { self.n + 1 } }")
	im := f.Items[0].Data.(*ast.ImplItem)
	if im.Trait != nil {
		t.Errorf("expected inherent impl, got trait %+v", im.Trait)
	}
	if im.SelfType == nil || im.SelfType.Kind != ast.TypeNamed {
		t.Errorf("self type: got %+v", im.SelfType)
	}
}

func TestParseStorageBlock(t *testing.T) {
	f := mustParse(t, `
#[namespace(vault)]
storage {
    counter: u64 = 0,
    owner: b256 = 0x00,
}
`)
	st := f.Items[0].Data.(*ast.StorageItem)
	if st.Namespace != "vault" {
		t.Errorf("namespace: got %q, want %q", st.Namespace, "vault")
	}
	if len(st.Fields) != 2 {
		t.Fatalf("fields: got %d, want 2", len(st.Fields))
	}
	if st.Fields[0].Name.Name != "counter" || st.Fields[0].Init == nil {
		t.Errorf("field 0: %+v", st.Fields[0])
	}
}

func TestParseConfigurableAndAbi(t *testing.T) {
	f := mustParse(t, `
configurable {
    MAX_SUPPLY: u64 = 1000,
}
abi Token {
    #[reads]
    fn balance(owner: b256) -> u64;
    #[writes]
    fn transfer(to: b256, amount: u64);
}
`)
	cfg := f.Items[0].Data.(*ast.ConfigurableItem)
	if len(cfg.Entries) != 1 || cfg.Entries[0].Name.Name != "MAX_SUPPLY" {
		t.Errorf("configurable: %+v", cfg)
	}
	a := f.Items[1].Data.(*ast.AbiItem)
	if a.Name.Name != "Token" || len(a.Methods) != 2 {
		t.Fatalf("abi: %+v", a)
	}
	if a.Methods[0].Purity != ast.PurityReads {
		t.Errorf("balance purity: got %v", a.Methods[0].Purity)
	}
	if a.Methods[1].Purity != ast.PurityWrites {
		t.Errorf("transfer purity: got %v", a.Methods[1].Purity)
	}
	if a.Methods[0].Body != nil {
		t.Error("abi methods must not have bodies")
	}
}

func TestExprPrecedence(t *testing.T) {
	f := mustParse(t, "fn f() -> u64 { 1 + 2 * 3 }")
	fn := onlyFn(t, f)
	tail := fn.Body.Tail
	if tail == nil || tail.Kind != ast.ExprBinary {
		t.Fatalf("tail: %+v", tail)
	}
	bin := tail.Data.(*ast.BinaryData)
	if bin.Op != ast.BinAdd {
		t.Fatalf("top op: got %v, want +", bin.Op)
	}
	right := bin.Right.Data.(*ast.BinaryData)
	if right.Op != ast.BinMul {
		t.Errorf("right op: got %v, want *", right.Op)
	}
}

func TestGenericCallVsComparison(t *testing.T) {
	// 'identity<u64>(x)' is a generic call when the angle brackets
	// close over type arguments followed by '('.
	f := mustParse(t, "fn f(x: u64) -> u64 { identity<u64>(x) }")
	tail := onlyFn(t, f).Body.Tail
	if tail.Kind != ast.ExprCall {
		t.Fatalf("expected call, got %v", tail.Kind)
	}
	callee := tail.Data.(*ast.CallData).Callee
	pd := callee.Data.(*ast.PathData)
	if len(pd.Generics) != 1 {
		t.Errorf("generics: got %d, want 1", len(pd.Generics))
	}

	// 'a < b' followed by something that is not '(' stays a comparison.
	f = mustParse(t, "fn g(a: u64, b: u64) -> bool { a < b }")
	tail = onlyFn(t, f).Body.Tail
	if tail.Kind != ast.ExprBinary || tail.Data.(*ast.BinaryData).Op != ast.BinLt {
		t.Errorf("expected comparison, got %v", tail.Kind)
	}

	// Turbofish always means generics.
	f = mustParse(t, "fn h(x: u64) -> u64 { identity::<u64>(x) }")
	tail = onlyFn(t, f).Body.Tail
	if tail.Kind != ast.ExprCall {
		t.Errorf("expected call, got %v", tail.Kind)
	}
}

func TestStructLitSuppressedInHeaders(t *testing.T) {
	// 'p' then '{' must open the if body, not a struct literal.
	f := mustParse(t, "fn f(p: bool) -> u64 { if p { 1 } else { 2 } }")
	tail := onlyFn(t, f).Body.Tail
	if tail.Kind != ast.ExprIf {
		t.Fatalf("expected if, got %v", tail.Kind)
	}
	cond := tail.Data.(*ast.IfData).Cond
	if cond.Kind != ast.ExprPath {
		t.Errorf("cond: got %v, want path", cond.Kind)
	}

	// Parenthesized headers re-enable struct literals.
	f = mustParse(t, "fn g() -> u64 { if (Point { x: 1, y: 2 }).x == 1 { 1 } else { 2 } }")
	if onlyFn(t, f).Body.Tail.Kind != ast.ExprIf {
		t.Error("expected if expression")
	}
}

func TestParseMatchExpr(t *testing.T) {
	f := mustParse(t, `
fn classify(o: Option) -> u64 {
    match o {
        Option::None => 0,
        Option::Some(v) if v > 10 => v,
        Option::Some(_) => 1,
        _ => 2,
    }
}
`)
	tail := onlyFn(t, f).Body.Tail
	if tail.Kind != ast.ExprMatch {
		t.Fatalf("expected match, got %v", tail.Kind)
	}
	m := tail.Data.(*ast.MatchData)
	if len(m.Arms) != 4 {
		t.Fatalf("arms: got %d, want 4", len(m.Arms))
	}
	if m.Arms[0].Pattern.Kind != ast.PatVariant {
		t.Errorf("arm 0 pattern: %v", m.Arms[0].Pattern.Kind)
	}
	if m.Arms[1].Guard == nil {
		t.Error("arm 1 should have a guard")
	}
	if m.Arms[3].Pattern.Kind != ast.PatWildcard {
		t.Errorf("arm 3 pattern: %v", m.Arms[3].Pattern.Kind)
	}
}

func TestParseStorageExpr(t *testing.T) {
	f := mustParse(t, `
#[writes]
fn bump() {
    storage.counter = storage.counter + 1;
}
`)
	fn := onlyFn(t, f)
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("stmts: got %d", len(fn.Body.Stmts))
	}
	assign := fn.Body.Stmts[0].Data.(*ast.AssignData)
	if assign.Place.Kind != ast.ExprStorage {
		t.Fatalf("place: got %v", assign.Place.Kind)
	}
	sd := assign.Place.Data.(*ast.StorageData)
	if got := sd.AccessPath(""); got != "storage.counter" {
		t.Errorf("access path: got %q", got)
	}
	if got := sd.AccessPath("vault"); got != "storage::vault.counter" {
		t.Errorf("namespaced path: got %q", got)
	}
}

func TestParseStatements(t *testing.T) {
	f := mustParse(t, `
fn f() -> u64 {
    let mut total: u64 = 0;
    let limit = 10;
    while total < limit {
        total = total + 1;
        if total == 5 {
            continue;
        }
        if total == 9 {
            break;
        }
    }
    if total == 0 {
        revert 7;
    }
    return total;
}
`)
	fn := onlyFn(t, f)
	kinds := make([]ast.StmtKind, 0, len(fn.Body.Stmts))
	for _, s := range fn.Body.Stmts {
		kinds = append(kinds, s.Kind)
	}
	want := []ast.StmtKind{ast.StmtLet, ast.StmtLet, ast.StmtWhile, ast.StmtExpr, ast.StmtReturn}
	if len(kinds) != len(want) {
		t.Fatalf("stmt kinds: got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("stmt %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
	let := fn.Body.Stmts[0].Data.(*ast.LetData)
	if !let.Mut || let.Type == nil {
		t.Errorf("let mut with annotation: %+v", let)
	}
	let2 := fn.Body.Stmts[1].Data.(*ast.LetData)
	if let2.Mut || let2.Type != nil {
		t.Errorf("plain let: %+v", let2)
	}
}

func TestParseLiteralsAndCasts(t *testing.T) {
	f := mustParse(t, `fn f() -> u64 { (255u8 as u64) + [1, 2, 3][0] + (1, true).0 }`)
	if onlyFn(t, f).Body.Tail == nil {
		t.Fatal("expected tail expression")
	}
}

func TestParseQualifiedCall(t *testing.T) {
	f := mustParse(t, "fn f(x: u64) -> u64 { <u64 as Hash>::hash(x) }")
	tail := onlyFn(t, f).Body.Tail
	if tail.Kind != ast.ExprCall {
		t.Fatalf("expected call, got %v", tail.Kind)
	}
	q := tail.Data.(*ast.CallData).Callee
	if q.Kind != ast.ExprQualified {
		t.Fatalf("callee: got %v", q.Kind)
	}
	qd := q.Data.(*ast.QualifiedData)
	if qd.Trait.Path.String() != "Hash" || qd.Member.Name != "hash" {
		t.Errorf("qualified: %+v", qd)
	}
}

func TestErrorRecoveryReachesNextItem(t *testing.T) {
	f, bag := parseSource(t, `
fn broken(x y) {}
fn ok() {}
`)
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
	// The parser resynchronizes and still sees the following item.
	found := false
	for _, item := range f.Items {
		if fn, ok := item.Data.(*ast.FnItem); ok && fn.Name.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Error("expected recovery to reach fn ok")
	}
}

func TestDanglingAttributeReported(t *testing.T) {
	_, bag := parseSource(t, "#[reads]\n")
	if !bag.HasErrors() {
		t.Fatal("expected dangling attribute error")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SynDanglingAttribute {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SynDanglingAttribute, got %+v", bag.Items())
	}
}

func TestModNesting(t *testing.T) {
	f := mustParse(t, `
mod math {
    pub fn add(a: u64, b: u64) -> u64 { a + b }
    mod inner {
        fn secret() -> u64 { 42 }
    }
}
`)
	mod := f.Items[0].Data.(*ast.ModItem)
	if mod.Name.Name != "math" || len(mod.Items) != 2 {
		t.Fatalf("mod: %+v", mod)
	}
	if mod.Items[0].Vis != ast.VisPublic {
		t.Error("add should be pub")
	}
	inner := mod.Items[1].Data.(*ast.ModItem)
	if inner.Name.Name != "inner" || len(inner.Items) != 1 {
		t.Errorf("inner mod: %+v", inner)
	}
}
