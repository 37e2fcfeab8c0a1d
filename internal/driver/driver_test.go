package driver

import (
	"bytes"
	"context"
	"testing"
)

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

func compile(t *testing.T, opts Options, files ...SourceInput) *Artifacts {
	t.Helper()
	art, err := Compile(context.Background(), CompileInput{Files: files}, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return art
}

func TestCompileCounter(t *testing.T) {
	art := compile(t, Options{}, SourceInput{Path: "main.em", Content: []byte(counterSrc)})
	if art.Diags.HasErrors() {
		t.Fatalf("errors: %+v", art.Diags.Items())
	}
	if art.Bytecode == nil || art.ABI == nil {
		t.Fatal("missing artifacts on clean compile")
	}
	if len(art.ABI.Functions) != 2 {
		t.Errorf("abi functions = %+v", art.ABI.Functions)
	}
	if len(art.ABI.Configurables) != 1 || art.ABI.Configurables[0].Offset == 0 {
		t.Errorf("configurables = %+v", art.ABI.Configurables)
	}
}

func TestErrorNilsArtifacts(t *testing.T) {
	art := compile(t, Options{}, SourceInput{
		Path:    "bad.em",
		Content: []byte("fn bad() -> u64 { true }\n"),
	})
	if art.Bytecode != nil || art.ABI != nil {
		t.Error("artifacts emitted despite errors")
	}
	if n := art.Diags.ErrorCount(); n != 1 {
		t.Fatalf("error count = %d, want 1: %+v", n, art.Diags.Items())
	}
	if stage := art.Diags.Items()[0].Code.Stage(); stage != "type" {
		t.Errorf("stage = %s, want type", stage)
	}
}

func TestErrorBatching(t *testing.T) {
	art := compile(t, Options{}, SourceInput{
		Path: "multi.em",
		Content: []byte(`
fn first() -> u64 { true }
fn second() -> bool { 1 }
fn third() -> u64 { missing() }
`),
	})
	if n := art.Diags.ErrorCount(); n < 3 {
		t.Fatalf("error count = %d, want one per independent mistake: %+v", n, art.Diags.Items())
	}
	if art.Bytecode != nil {
		t.Error("artifacts emitted despite errors")
	}
}

func TestCompileDeterministic(t *testing.T) {
	a := compile(t, Options{}, SourceInput{Path: "main.em", Content: []byte(counterSrc)})
	b := compile(t, Options{}, SourceInput{Path: "main.em", Content: []byte(counterSrc)})
	if !bytes.Equal(a.Bytecode, b.Bytecode) {
		t.Error("bytecode differs between identical compiles")
	}
	ja, err := a.ABI.JSON()
	if err != nil {
		t.Fatal(err)
	}
	jb, err := b.ABI.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ja, jb) {
		t.Error("abi differs between identical compiles")
	}
}

func TestTimingsCollected(t *testing.T) {
	art := compile(t, Options{Timings: true}, SourceInput{Path: "main.em", Content: []byte(counterSrc)})
	if len(art.Timings) == 0 {
		t.Fatal("no timings collected")
	}
	want := map[string]bool{"parse": false, "typecheck": false, "codegen": false}
	for _, s := range art.Timings {
		if _, tracked := want[s.Stage]; tracked {
			want[s.Stage] = true
		}
	}
	for stage, seen := range want {
		if !seen {
			t.Errorf("stage %s missing from %+v", stage, art.Timings)
		}
	}
}

func TestArtifactCache(t *testing.T) {
	cache, err := OpenArtifactCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	opts := Options{Cache: cache, Timings: true}
	in := SourceInput{Path: "main.em", Content: []byte(counterSrc)}

	first := compile(t, opts, in)
	if len(first.Timings) == 0 {
		t.Fatal("first compile should run the pipeline")
	}
	second := compile(t, opts, in)
	if len(second.Timings) != 0 {
		t.Fatal("second compile should hit the cache")
	}
	if !bytes.Equal(first.Bytecode, second.Bytecode) {
		t.Error("cached bytecode differs")
	}
	if second.ABI == nil || len(second.ABI.Functions) != 2 {
		t.Errorf("cached abi = %+v", second.ABI)
	}
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, CompileInput{
		Files: []SourceInput{{Path: "main.em", Content: []byte(counterSrc)}},
	}, Options{})
	if err == nil {
		t.Fatal("cancelled context accepted")
	}
}

func TestWorkspaceWaves(t *testing.T) {
	lib := WorkspaceUnit{
		Name:  "lib",
		Input: CompileInput{Files: []SourceInput{{Path: "lib.em", Content: []byte("fn main() -> u64 { 1 }\n")}}},
	}
	app := WorkspaceUnit{
		Name:  "app",
		Deps:  []string{"lib"},
		Input: CompileInput{Files: []SourceInput{{Path: "app.em", Content: []byte(counterSrc)}}},
	}
	results, err := CompileWorkspace(context.Background(), []WorkspaceUnit{app, lib}, Options{})
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	if len(results) != 2 || results["lib"] == nil || results["app"] == nil {
		t.Fatalf("results = %+v", results)
	}
	if results["app"].Bytecode == nil {
		t.Error("app artifacts missing")
	}
}

func TestWorkspaceRejectsCycle(t *testing.T) {
	units := []WorkspaceUnit{
		{Name: "a", Deps: []string{"b"}},
		{Name: "b", Deps: []string{"a"}},
	}
	if _, err := CompileWorkspace(context.Background(), units, Options{}); err == nil {
		t.Fatal("cycle accepted")
	}
}

func TestWorkspaceRejectsUnknownDep(t *testing.T) {
	units := []WorkspaceUnit{{Name: "a", Deps: []string{"ghost"}}}
	if _, err := CompileWorkspace(context.Background(), units, Options{}); err == nil {
		t.Fatal("unknown dependency accepted")
	}
}

func TestMaxDiagnosticsBounds(t *testing.T) {
	var src bytes.Buffer
	for i := 0; i < 20; i++ {
		src.WriteString("fn f")
		src.WriteByte(byte('a' + i))
		src.WriteString("() -> u64 { true }\n")
	}
	art := compile(t, Options{MaxDiagnostics: 5}, SourceInput{Path: "many.em", Content: src.Bytes()})
	if art.Diags.Len() > 5 {
		t.Errorf("bag holds %d diagnostics, bound was 5", art.Diags.Len())
	}
}
