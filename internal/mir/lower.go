package mir

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/mono"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/types"
)

// Options configures one Build call.
type Options struct {
	Reporter diag.Reporter
}

// Build lowers a monomorphized program into a Module. Purity over
// storage operations is re-verified on the specialized bodies, so a
// violation that only sema's call-edge view could miss still surfaces
// here.
func Build(prog *mono.Program, opts Options) *Module {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	b := &builder{
		prog:     prog,
		info:     prog.Info,
		in:       prog.Info.In,
		table:    prog.Info.Table,
		reporter: opts.Reporter,
		fnOf:     make(map[*mono.Instance]FuncID),
		mod: &Module{
			In:    prog.Info.In,
			Init:  NoFuncID,
			byKey: make(map[string]FuncID),
		},
	}
	b.declareFuncs()
	b.declareSlots()
	b.declareExports()
	for i, inst := range prog.Instances {
		b.lowerInstance(inst, b.mod.Funcs[i])
	}
	b.lowerInit()
	return b.mod
}

type builder struct {
	prog     *mono.Program
	info     *sema.Info
	in       *types.Interner
	table    *symbols.Table
	reporter diag.Reporter
	mod      *Module
	fnOf     map[*mono.Instance]FuncID
}

// declareFuncs creates one skeleton per instance so calls can refer to
// FuncIDs before any body is lowered.
func (b *builder) declareFuncs() {
	for _, inst := range b.prog.Instances {
		id := FuncID(len(b.mod.Funcs))
		fn := &Func{
			ID:      id,
			Name:    inst.Name,
			Key:     inst.Key,
			Span:    inst.Decl.Name.Span,
			Result:  inst.Result,
			Purity:  inst.Sig.Purity,
			Payable: inst.Sig.Payable,
			Entry:   NoBlockID,
		}
		b.mod.Funcs = append(b.mod.Funcs, fn)
		b.fnOf[inst] = id
		b.mod.byKey[inst.Key] = id
	}
}

func (b *builder) declareSlots() {
	for i := range b.info.Storage {
		f := &b.info.Storage[i]
		b.mod.Storage = append(b.mod.Storage, StorageSlot{Path: f.Path, Type: f.Type})
	}
	for i := range b.info.Config {
		entry := &b.info.Config[i]
		b.mod.Config = append(b.mod.Config, ConfigSlot{Name: entry.Name, Type: entry.Type})
	}
}

func (b *builder) declareExports() {
	for _, r := range b.prog.Roots {
		id, ok := b.fnOf[r.Inst]
		if !ok {
			continue
		}
		ex := Export{Fn: id, Name: r.Inst.Name}
		switch r.Kind {
		case mono.RootMain:
			ex.Kind = ExportMain
		case mono.RootAbi:
			ex.Kind = ExportAbi
			ex.Name = r.Method
			ex.Abi = b.table.Symbol(r.Abi).Name
		case mono.RootTest:
			ex.Kind = ExportTest
		}
		b.mod.Exports = append(b.mod.Exports, ex)
	}
}

// lowerInstance fills one function skeleton from its specialized body.
func (b *builder) lowerInstance(inst *mono.Instance, fn *Func) {
	l := &fnLower{b: b, fn: fn, inst: inst, module: inst.Module}
	entry := fn.NewBlock()
	fn.Entry = entry.ID
	l.cur = entry
	l.pushScope()
	for i, p := range inst.Decl.Params {
		name := p.Name.Name
		if p.IsSelf {
			name = "self"
		}
		ty := b.in.Builtins().Error
		if i < len(inst.Params) {
			ty = inst.Params[i]
		}
		l.bind(name, fn.NewLocal(ty, name))
	}
	fn.Params = len(inst.Decl.Params)
	if inst.Decl.Body == nil {
		l.seal(Revert(UintOp(0, b.in.Builtins().U64)))
		return
	}
	v := l.lowerBlockValue(inst.Decl.Body)
	l.seal(Return(v))
	l.popScope()
}

// lowerInit synthesizes the deploy-time initializer: every storage
// field's initializer and every configurable default is evaluated and
// written to its slot, in declaration order.
func (b *builder) lowerInit() {
	if len(b.info.Storage) == 0 && len(b.info.Config) == 0 {
		return
	}
	id := FuncID(len(b.mod.Funcs))
	fn := &Func{
		ID:     id,
		Name:   "init",
		Result: b.in.Builtins().Unit,
		Purity: ast.PurityWrites,
		Entry:  NoBlockID,
	}
	b.mod.Funcs = append(b.mod.Funcs, fn)
	b.mod.Init = id

	l := &fnLower{b: b, fn: fn}
	entry := fn.NewBlock()
	fn.Entry = entry.ID
	l.cur = entry
	l.pushScope()
	for i := range b.info.Storage {
		f := &b.info.Storage[i]
		if f.Init == nil {
			continue
		}
		l.module = f.Module
		v := l.lowerExpr(f.Init)
		l.emit(Instr{Kind: InstrStorageWrite, Span: f.Init.Span, Slot: f.Path, Val: v})
	}
	for i := range b.info.Config {
		cfg := &b.info.Config[i]
		if cfg.Default == nil {
			continue
		}
		l.module = b.table.Root()
		v := l.lowerExpr(cfg.Default)
		l.emit(Instr{
			Kind: InstrStorageWrite,
			Span: cfg.Default.Span,
			Slot: "configurable." + cfg.Name,
			Val:  v,
		})
	}
	l.seal(Return(UnitOp(b.in.Builtins().Unit)))
	l.popScope()
}

type loopFrame struct {
	header BlockID
	exit   BlockID
}

// fnLower carries the per-function lowering state. inst is nil for the
// synthesized init function and while lowering declaration-level
// constant expressions.
type fnLower struct {
	b      *builder
	fn     *Func
	inst   *mono.Instance
	module symbols.ModuleID
	cur    *Block
	scopes []map[string]LocalID
	loops  []loopFrame
}

func (l *fnLower) pushScope() {
	l.scopes = append(l.scopes, make(map[string]LocalID))
}

func (l *fnLower) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

func (l *fnLower) bind(name string, id LocalID) {
	l.scopes[len(l.scopes)-1][name] = id
}

func (l *fnLower) lookupLocal(name string) (LocalID, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if id, ok := l.scopes[i][name]; ok {
			return id, true
		}
	}
	return NoLocalID, false
}

func (l *fnLower) emit(in Instr) {
	if l.cur.Term.Kind != TermNone {
		return
	}
	l.cur.Instrs = append(l.cur.Instrs, in)
}

// seal terminates the current block unless a statement already did.
func (l *fnLower) seal(t Terminator) {
	if l.cur.Term.Kind == TermNone {
		l.cur.Term = t
	}
}

func (l *fnLower) startBlock(blk *Block) {
	l.cur = blk
}

// diverge terminates the current block and continues lowering into a
// fresh unreachable one, so code after return/revert/break still
// lowers without touching the sealed block.
func (l *fnLower) diverge(t Terminator) {
	l.seal(t)
	l.startBlock(l.fn.NewBlock())
}

func (l *fnLower) assign(dst Place, src RValue, sp source.Span) {
	l.emit(Instr{Kind: InstrAssign, Span: sp, Dst: dst, Src: src})
}

// storeTemp materializes an rvalue into a fresh temporary.
func (l *fnLower) storeTemp(rv RValue, sp source.Span) Operand {
	id := l.fn.NewLocal(rv.Type, "")
	l.assign(Place{Local: id}, rv, sp)
	return UseLocal(id)
}

// typeOf returns the fully concrete type of an expression in this
// lowering context.
func (l *fnLower) typeOf(e *ast.Expr) types.TypeID {
	if l.inst != nil {
		return l.b.prog.TypeAt(l.inst, e)
	}
	return l.b.info.ResolveProjections(l.b.info.ExprType(e))
}

func (l *fnLower) errOp() Operand {
	return UintOp(0, l.b.in.Builtins().Error)
}

func (l *fnLower) unitOp() Operand {
	return UnitOp(l.b.in.Builtins().Unit)
}

func (l *fnLower) errorAt(code diag.Code, sp source.Span, msg string) {
	diag.ReportError(l.b.reporter, code, sp, msg).Emit()
}

// lowerBlockValue lowers a block in its own scope and yields its value.
func (l *fnLower) lowerBlockValue(blk *ast.Block) Operand {
	l.pushScope()
	for _, st := range blk.Stmts {
		l.lowerStmt(st)
	}
	v := l.unitOp()
	if blk.Tail != nil {
		v = l.lowerExpr(blk.Tail)
	}
	l.popScope()
	return v
}

func (l *fnLower) lowerStmt(st *ast.Stmt) {
	switch st.Kind {
	case ast.StmtLet:
		d := st.Data.(*ast.LetData)
		v := l.lowerExpr(d.Value)
		ty := l.typeOf(d.Value)
		id := l.fn.NewLocal(ty, d.Name.Name)
		l.assign(Place{Local: id}, RValue{Kind: RVUse, Type: ty, X: v}, st.Span)
		l.bind(d.Name.Name, id)
	case ast.StmtExpr:
		l.lowerExpr(st.Data.(*ast.ExprStmtData).Expr)
	case ast.StmtAssign:
		l.lowerAssign(st)
	case ast.StmtReturn:
		d := st.Data.(*ast.ReturnData)
		v := l.unitOp()
		if d.Value != nil {
			v = l.lowerExpr(d.Value)
		}
		l.diverge(Return(v))
	case ast.StmtWhile:
		l.lowerWhile(st)
	case ast.StmtBreak:
		if n := len(l.loops); n > 0 {
			l.diverge(Goto(l.loops[n-1].exit))
		}
	case ast.StmtContinue:
		if n := len(l.loops); n > 0 {
			l.diverge(Goto(l.loops[n-1].header))
		}
	case ast.StmtRevert:
		d := st.Data.(*ast.RevertData)
		code := UintOp(0, l.b.in.Builtins().U64)
		if d.Code != nil {
			code = l.lowerExpr(d.Code)
		}
		l.diverge(Revert(code))
	}
}

func (l *fnLower) lowerWhile(st *ast.Stmt) {
	d := st.Data.(*ast.WhileData)
	header := l.fn.NewBlock()
	body := l.fn.NewBlock()
	exit := l.fn.NewBlock()
	l.seal(Goto(header.ID))
	l.startBlock(header)
	cond := l.lowerExpr(d.Cond)
	l.seal(If(cond, body.ID, exit.ID))
	l.startBlock(body)
	l.loops = append(l.loops, loopFrame{header: header.ID, exit: exit.ID})
	l.pushScope()
	for _, s := range d.Body.Stmts {
		l.lowerStmt(s)
	}
	if d.Body.Tail != nil {
		l.lowerExpr(d.Body.Tail)
	}
	l.popScope()
	l.loops = l.loops[:len(l.loops)-1]
	l.seal(Goto(header.ID))
	l.startBlock(exit)
}

func (l *fnLower) lowerAssign(st *ast.Stmt) {
	d := st.Data.(*ast.AssignData)
	if d.Place.Kind == ast.ExprStorage {
		l.lowerStorageAssign(st, d)
		return
	}
	place, ok := l.lowerPlace(d.Place)
	v := l.lowerExpr(d.Value)
	if !ok {
		return
	}
	l.assign(place, RValue{Kind: RVUse, Type: l.typeOf(d.Value), X: v}, st.Span)
}

// lowerPlace turns an assignable expression into a local rooted place
// with field/index projections.
func (l *fnLower) lowerPlace(e *ast.Expr) (Place, bool) {
	switch e.Kind {
	case ast.ExprPath:
		d := e.Data.(*ast.PathData)
		if len(d.Path.Segments) == 1 {
			if id, ok := l.lookupLocal(d.Path.Segments[0].Name); ok {
				return Place{Local: id}, true
			}
		}
	case ast.ExprField:
		d := e.Data.(*ast.FieldData)
		place, ok := l.lowerPlace(d.Object)
		if !ok {
			return Place{}, false
		}
		idx, _, found := l.fieldOf(l.typeOf(d.Object), d.Name.Name)
		if !found {
			return Place{}, false
		}
		place.Proj = append(place.Proj, Proj{Kind: ProjField, Field: idx})
		return place, true
	case ast.ExprIndex:
		d := e.Data.(*ast.IndexData)
		place, ok := l.lowerPlace(d.Object)
		if !ok {
			return Place{}, false
		}
		idx := l.lowerExpr(d.Index)
		place.Proj = append(place.Proj, Proj{Kind: ProjIndex, Index: idx})
		return place, true
	}
	l.errorAt(diag.TypeNotAssignable, e.Span, "this expression is not assignable")
	return Place{}, false
}

func (l *fnLower) lowerStorageAssign(st *ast.Stmt, d *ast.AssignData) {
	sd := d.Place.Data.(*ast.StorageData)
	field, ok := l.storageField(sd, d.Place.Span)
	if !ok {
		l.lowerExpr(d.Value)
		return
	}
	if !l.fn.Purity.CanWrite() {
		l.errorAt(diag.PurityStorageWrite, d.Place.Span,
			"writing storage requires the 'writes' annotation")
	}
	if len(sd.Fields) == 1 {
		v := l.lowerExpr(d.Value)
		l.emit(Instr{Kind: InstrStorageWrite, Span: st.Span, Slot: field.Path, Val: v})
		return
	}
	// Nested write: read the whole slot, update the projected place,
	// write the slot back.
	tmp := l.fn.NewLocal(field.Type, "")
	l.assign(Place{Local: tmp},
		RValue{Kind: RVStorageRead, Type: field.Type, Slot: field.Path}, st.Span)
	place := Place{Local: tmp}
	ty := field.Type
	for _, f := range sd.Fields[1:] {
		idx, fty, found := l.fieldOf(ty, f.Name)
		if !found {
			l.lowerExpr(d.Value)
			return
		}
		place.Proj = append(place.Proj, Proj{Kind: ProjField, Field: idx})
		ty = fty
	}
	v := l.lowerExpr(d.Value)
	l.assign(place, RValue{Kind: RVUse, Type: ty, X: v}, st.Span)
	l.emit(Instr{Kind: InstrStorageWrite, Span: st.Span, Slot: field.Path, Val: UseLocal(tmp)})
}

func (l *fnLower) storageField(sd *ast.StorageData, sp source.Span) (*sema.StorageFieldInfo, bool) {
	if len(sd.Fields) == 0 {
		return nil, false
	}
	field, ok := l.b.info.StorageFieldFor(l.module, sd.Fields[0].Name)
	if !ok {
		l.errorAt(diag.ResUnknownName, sp,
			"no unambiguous storage field named '"+sd.Fields[0].Name+"'")
		return nil, false
	}
	return field, true
}

// fieldOf resolves a struct field name or decimal tuple index against
// a concrete type, yielding the element position and type.
func (l *fnLower) fieldOf(ty types.TypeID, name string) (int32, types.TypeID, bool) {
	t, ok := l.b.in.Lookup(ty)
	if !ok {
		return -1, types.NoTypeID, false
	}
	switch t.Kind {
	case types.KindTuple:
		idx := 0
		for _, c := range name {
			if c < '0' || c > '9' {
				return -1, types.NoTypeID, false
			}
			idx = idx*10 + int(c-'0')
		}
		if idx >= len(t.Args) {
			return -1, types.NoTypeID, false
		}
		return int32(idx), t.Args[idx], true
	case types.KindNamed:
		st, isStruct := l.b.info.Structs[symbols.SymbolID(t.Sym)]
		if !isStruct {
			return -1, types.NoTypeID, false
		}
		idx := st.FieldIndex(name)
		if idx < 0 {
			return -1, types.NoTypeID, false
		}
		sub := l.namedSubst(st.Generics, t)
		return int32(idx), l.b.in.Substitute(st.FieldTypes[idx], sub), true
	default:
		return -1, types.NoTypeID, false
	}
}

// namedSubst decodes a concrete named type's argument list back into a
// substitution over the declaration's generic frame, unwrapping const
// arguments from their array-descriptor encoding.
func (l *fnLower) namedSubst(generics []sema.GenericParam, t types.Type) types.Subst {
	n := len(generics)
	sub := types.Subst{
		Types:  make([]types.TypeID, n),
		Consts: make([]uint64, n),
	}
	for i := range generics {
		if i >= len(t.Args) {
			continue
		}
		idx := int(generics[i].Index)
		if idx >= n {
			continue
		}
		if generics[i].IsConst {
			if at, ok := l.b.in.Lookup(t.Args[i]); ok {
				sub.Consts[idx] = at.Count
			}
			continue
		}
		sub.Types[idx] = t.Args[i]
	}
	return sub
}
