// Package mono specializes generic functions for the concrete type and
// const arguments reachable from the program's entry points.
//
// Reachability starts at the roots (the entrypoint, functions backing
// declared abi methods, and optionally test functions) and at the
// declaration-level expressions that lowering executes: storage
// initializers, configurable defaults, and constant values. Each
// reached (declaration, arguments) pair becomes one Instance, keyed
// structurally so repeated uses share a specialization. Output order
// is sorted by name, never by discovery order.
package mono

import (
	"sort"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// Options configures one Monomorphize call.
type Options struct {
	Reporter diag.Reporter

	// IncludeTests adds #[test] functions to the root set.
	IncludeTests bool

	// MaxDepth bounds the instantiation chain so polymorphic recursion
	// terminates with a diagnostic. Zero means the default of 64.
	MaxDepth int
}

// Instance is one specialized function: a declaration plus the
// concrete substitution for its full generic frame.
type Instance struct {
	// Name is the display name, e.g. "identity<u64>" or "Box<bool>::get".
	Name string

	// Key is the structural deduplication key; two uses with equal
	// keys share one Instance.
	Key string

	Sym    symbols.SymbolID // declaring symbol, NoSymbolID for methods
	Sig    *sema.FnSig
	Decl   *ast.FnItem
	Impl   *sema.ImplInfo   // providing impl, nil for free fns and trait frames
	Trait  symbols.SymbolID // declaring trait for method instances
	Module symbols.ModuleID

	// Self is the concrete receiver type; NoTypeID for free functions.
	Self types.TypeID

	// Sub maps the instance's combined generic frame (impl or trait
	// generics followed by the function's own) to concrete arguments.
	Sub types.Subst

	// Params and Result are the fully concrete signature types.
	Params []types.TypeID
	Result types.TypeID

	env     []sema.GenericParam
	ownBase int
}

// IsGeneric reports whether the instance carries any substitution.
func (i *Instance) IsGeneric() bool { return len(i.env) > 0 }

// ConstParam returns the concrete value of a named const generic
// parameter of this instance's frame.
func (i *Instance) ConstParam(name string) (uint64, bool) {
	for j := range i.env {
		g := &i.env[j]
		if !g.IsConst || g.Name != name {
			continue
		}
		if int(g.Index) < len(i.Sub.Consts) {
			return i.Sub.Consts[g.Index], true
		}
	}
	return 0, false
}

// RootKind classifies why an instance is in the root set.
type RootKind uint8

const (
	// RootMain is the program entrypoint.
	RootMain RootKind = iota
	// RootAbi is a function backing a declared abi method.
	RootAbi
	// RootTest is a #[test] function.
	RootTest
)

func (k RootKind) String() string {
	switch k {
	case RootMain:
		return "main"
	case RootAbi:
		return "abi"
	case RootTest:
		return "test"
	default:
		return "unknown"
	}
}

// Root is one entry point into the reachable set.
type Root struct {
	Kind RootKind
	Inst *Instance

	// Abi and Method identify the declaration a RootAbi serves.
	Abi    symbols.SymbolID
	Method string
}

type calleeKey struct {
	owner *Instance
	expr  *ast.Expr
}

// Program is the monomorphized view of one compilation unit.
type Program struct {
	Info *sema.Info

	// Instances is every reachable specialization, sorted by name.
	Instances []*Instance

	// Roots lists the entry instances in a fixed order: main, then abi
	// methods, then tests.
	Roots []Root

	byKey   map[string]*Instance
	callees map[calleeKey]*Instance
}

// Callee returns the instance a call-like expression inside owner
// resolved to. The expression is the call for 'f(x)', the path for a
// bare reference, the method call for 'r.m(x)', and the qualified
// expression for '<T as Trait>::m'. A nil owner addresses the
// declaration-level expressions.
func (p *Program) Callee(owner *Instance, e *ast.Expr) (*Instance, bool) {
	inst, ok := p.callees[calleeKey{owner: owner, expr: e}]
	return inst, ok
}

// TypeAt returns the concrete type of an expression inside owner.
func (p *Program) TypeAt(owner *Instance, e *ast.Expr) types.TypeID {
	return p.concrete(owner, p.Info.ExprType(e))
}

// Concrete rewrites a signature-level type through owner's frame. A
// nil owner only resolves projections.
func (p *Program) Concrete(owner *Instance, id types.TypeID) types.TypeID {
	return p.concrete(owner, id)
}

// Lookup finds an instance by its structural key.
func (p *Program) Lookup(key string) (*Instance, bool) {
	inst, ok := p.byKey[key]
	return inst, ok
}

func (p *Program) concrete(owner *Instance, id types.TypeID) types.TypeID {
	if owner != nil {
		if owner.Self.IsValid() {
			id = p.Info.ReplaceSelf(id, owner.Self)
		}
		id = p.Info.In.Substitute(id, owner.Sub)
	}
	return p.Info.ResolveProjections(id)
}

type workItem struct {
	inst  *Instance
	depth int
}

type mono struct {
	info     *sema.Info
	in       *types.Interner
	table    *symbols.Table
	reporter diag.Reporter
	prog     *Program

	queue    []workItem
	maxDepth int
	depthHit bool
}

// Monomorphize computes the reachable specialization set of a checked
// unit. It assumes sema reported no errors; with errors present it
// still terminates but the set is incomplete.
func Monomorphize(info *sema.Info, opts Options) *Program {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 64
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	m := &mono{
		info:     info,
		in:       info.In,
		table:    info.Table,
		reporter: opts.Reporter,
		maxDepth: opts.MaxDepth,
		prog: &Program{
			Info:    info,
			byKey:   make(map[string]*Instance),
			callees: make(map[calleeKey]*Instance),
		},
	}
	m.seedRoots(opts.IncludeTests)
	m.walkDeclExprs()
	m.drain()
	m.sortInstances()
	return m.prog
}

func (m *mono) drain() {
	for len(m.queue) > 0 {
		item := m.queue[0]
		m.queue = m.queue[1:]
		if item.inst.Decl.Body == nil {
			continue
		}
		m.walkBlock(item.inst, item.depth, item.inst.Decl.Body)
	}
}

// walkDeclExprs visits the expressions lowering executes outside any
// function: storage initializers, configurable defaults, and constant
// values.
func (m *mono) walkDeclExprs() {
	for i := range m.info.Storage {
		if init := m.info.Storage[i].Init; init != nil {
			m.walkExpr(nil, 0, init)
		}
	}
	for i := range m.info.Config {
		if def := m.info.Config[i].Default; def != nil {
			m.walkExpr(nil, 0, def)
		}
	}
	m.eachConst(func(ci *sema.ConstInfo) {
		if ci.Decl.Value != nil {
			m.walkExpr(nil, 0, ci.Decl.Value)
		}
	})
}

func (m *mono) eachConst(f func(*sema.ConstInfo)) {
	syms := make([]symbols.SymbolID, 0, len(m.info.Consts))
	for sym := range m.info.Consts {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	for _, sym := range syms {
		f(m.info.Consts[sym])
	}
}

func (m *mono) sortInstances() {
	sort.Slice(m.prog.Instances, func(i, j int) bool {
		a, b := m.prog.Instances[i], m.prog.Instances[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key < b.Key
	})
}

func (m *mono) errorAt(code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(m.reporter, code, sp, msg)
}
