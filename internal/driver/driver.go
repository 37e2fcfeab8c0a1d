// Package driver ties the compilation stages together behind one
// call. Recoverable problems surface as diagnostics in the returned
// bag; Go errors are reserved for I/O and internal failures.
package driver

import (
	"context"
	"fmt"
	"time"

	"ember/internal/abi"
	"ember/internal/ast"
	"ember/internal/bytecode"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/mir"
	"ember/internal/mir/passes"
	"ember/internal/mono"
	"ember/internal/parser"
	"ember/internal/project"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/vmgen"
)

// SourceInput is one file handed to the compiler. Content nil means
// read Path from disk.
type SourceInput struct {
	Path    string
	Content []byte
}

// CompileInput describes one compilation unit.
type CompileInput struct {
	Files    []SourceInput
	Manifest *project.Manifest
}

// Options tunes a Compile call.
type Options struct {
	// MaxDiagnostics bounds the bag. Zero means the default of 256.
	MaxDiagnostics int
	// SkipOptimize disables the mir pass pipeline, for debugging.
	SkipOptimize bool
	// Cache, when set, is consulted before compiling and updated after.
	Cache *ArtifactCache
	// Timings enables per-stage duration collection.
	Timings bool
}

// StageTiming is one measured pipeline stage.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// Artifacts is the result of one compilation. Bytecode and ABI are
// nil whenever the bag holds an error diagnostic; warnings never
// block emission.
type Artifacts struct {
	Bytecode []byte
	ABI      *abi.Descriptor
	Diags    *diag.Bag

	// FileSet resolves diagnostic spans for rendering.
	FileSet *source.FileSet

	// Files and Sema expose the parsed and typed trees to tooling.
	// They are populated even when errors block emission, so a
	// language server can still inspect what was understood.
	Files []*ast.File
	Sema  *sema.Info

	Timings []StageTiming
}

const defaultMaxDiagnostics = 256

// Compile runs the full pipeline over one unit.
func Compile(ctx context.Context, in CompileInput, opts Options) (*Artifacts, error) {
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = defaultMaxDiagnostics
	}
	fs := source.NewFileSet()
	bag := diag.NewBag(maxDiags)
	reporter := &diag.BagReporter{Bag: bag}
	art := &Artifacts{Diags: bag, FileSet: fs}

	var timer stageTimer
	if opts.Timings {
		timer.enabled = true
	}

	key, hit, err := checkCache(opts.Cache, in)
	if err != nil {
		return nil, err
	}
	if hit != nil {
		art.Bytecode = hit.Bytecode
		art.ABI = hit.Descriptor()
		return art, nil
	}

	timer.start()
	var files []*ast.File
	for _, src := range in.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var id source.FileID
		if src.Content != nil {
			id = fs.AddVirtual(src.Path, src.Content)
		} else {
			id, err = fs.Load(src.Path)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", src.Path, err)
			}
		}
		lx := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter})
		files = append(files, parser.ParseFile(lx, parser.Options{Reporter: reporter}))
	}
	timer.mark("parse")
	art.Files = files

	table := symbols.Resolve(files, reporter)
	timer.mark("resolve")
	info := sema.Check(files, table, sema.Options{Reporter: reporter})
	timer.mark("typecheck")
	art.Sema = info
	if bag.HasErrors() {
		return finish(art, &timer), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prog := mono.Monomorphize(info, mono.Options{Reporter: reporter})
	timer.mark("mono")
	mod := mir.Build(prog, mir.Options{Reporter: reporter})
	timer.mark("lower")
	if bag.HasErrors() {
		return finish(art, &timer), nil
	}
	if !opts.SkipOptimize {
		passes.Optimize(mod)
		timer.mark("optimize")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, ok := vmgen.Generate(mod, vmgen.Options{Reporter: reporter})
	timer.mark("codegen")
	if !ok || bag.HasErrors() {
		return finish(art, &timer), nil
	}

	desc, err := abi.Build(info.In, info, mod)
	if err != nil {
		return nil, fmt.Errorf("abi build: %w", err)
	}
	patchConfigOffsets(desc, p.Config)
	bc, err := p.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode bytecode: %w", err)
	}
	timer.mark("emit")

	art.Bytecode = bc
	art.ABI = desc
	finish(art, &timer)

	if err := storeCache(opts.Cache, key, art); err != nil {
		return nil, err
	}
	return art, nil
}

func finish(art *Artifacts, timer *stageTimer) *Artifacts {
	art.Diags.Sort()
	art.Diags.Dedup()
	art.Timings = timer.stages
	return art
}

// patchConfigOffsets copies the final data offsets of configurable
// defaults into the descriptor, so deployment tooling patches the
// right bytes.
func patchConfigOffsets(desc *abi.Descriptor, cfg []bytecode.ConfigInfo) {
	for i := range desc.Configurables {
		for _, c := range cfg {
			if c.Name == desc.Configurables[i].Name {
				desc.Configurables[i].Offset = uint64(c.Offset)
				break
			}
		}
	}
}

type stageTimer struct {
	enabled bool
	last    time.Time
	stages  []StageTiming
}

func (t *stageTimer) start() {
	if t.enabled {
		t.last = time.Now()
	}
}

func (t *stageTimer) mark(stage string) {
	if !t.enabled {
		return
	}
	now := time.Now()
	t.stages = append(t.stages, StageTiming{Stage: stage, Elapsed: now.Sub(t.last)})
	t.last = now
}
