package mono

import (
	"ember/internal/ast"
	"ember/internal/symbols"
)

// walkBlock discovers the call edges of one specialized body.
func (m *mono) walkBlock(owner *Instance, depth int, b *ast.Block) {
	for _, st := range b.Stmts {
		m.walkStmt(owner, depth, st)
	}
	m.walkExpr(owner, depth, b.Tail)
}

func (m *mono) walkStmt(owner *Instance, depth int, st *ast.Stmt) {
	switch st.Kind {
	case ast.StmtLet:
		m.walkExpr(owner, depth, st.Data.(*ast.LetData).Value)
	case ast.StmtExpr:
		m.walkExpr(owner, depth, st.Data.(*ast.ExprStmtData).Expr)
	case ast.StmtAssign:
		d := st.Data.(*ast.AssignData)
		m.walkExpr(owner, depth, d.Place)
		m.walkExpr(owner, depth, d.Value)
	case ast.StmtReturn:
		m.walkExpr(owner, depth, st.Data.(*ast.ReturnData).Value)
	case ast.StmtWhile:
		d := st.Data.(*ast.WhileData)
		m.walkExpr(owner, depth, d.Cond)
		m.walkBlock(owner, depth, d.Body)
	case ast.StmtRevert:
		m.walkExpr(owner, depth, st.Data.(*ast.RevertData).Code)
	}
}

func (m *mono) walkExpr(owner *Instance, depth int, e *ast.Expr) {
	if e == nil {
		return
	}
	if target, ok := m.info.Methods[e]; ok {
		m.instantiateMethod(owner, depth+1, e, target)
	}
	switch e.Kind {
	case ast.ExprPath:
		if sym, ok := m.info.PathSyms[e]; ok &&
			m.table.Symbol(sym).Kind == symbols.SymbolFn {
			m.instantiateFn(owner, depth+1, e, sym, m.info.CallSubst[e])
		}
	case ast.ExprCall:
		d := e.Data.(*ast.CallData)
		if d.Callee.Kind == ast.ExprPath {
			if sym, ok := m.info.PathSyms[d.Callee]; ok &&
				m.table.Symbol(sym).Kind == symbols.SymbolFn {
				// The substitution lives on the call, not the callee
				// path; skip the callee so it is not re-instantiated
				// with an empty one.
				m.instantiateFn(owner, depth+1, e, sym, m.info.CallSubst[e])
				for _, a := range d.Args {
					m.walkExpr(owner, depth, a)
				}
				return
			}
		}
		m.walkExpr(owner, depth, d.Callee)
		for _, a := range d.Args {
			m.walkExpr(owner, depth, a)
		}
	case ast.ExprMethodCall:
		d := e.Data.(*ast.MethodCallData)
		m.walkExpr(owner, depth, d.Recv)
		for _, a := range d.Args {
			m.walkExpr(owner, depth, a)
		}
	case ast.ExprUnary:
		m.walkExpr(owner, depth, e.Data.(*ast.UnaryData).Operand)
	case ast.ExprBinary:
		d := e.Data.(*ast.BinaryData)
		m.walkExpr(owner, depth, d.Left)
		m.walkExpr(owner, depth, d.Right)
	case ast.ExprField:
		m.walkExpr(owner, depth, e.Data.(*ast.FieldData).Object)
	case ast.ExprIndex:
		d := e.Data.(*ast.IndexData)
		m.walkExpr(owner, depth, d.Object)
		m.walkExpr(owner, depth, d.Index)
	case ast.ExprStructLit:
		d := e.Data.(*ast.StructLitData)
		for i := range d.Fields {
			m.walkExpr(owner, depth, d.Fields[i].Value)
		}
	case ast.ExprArrayLit:
		d := e.Data.(*ast.ArrayLitData)
		for _, el := range d.Elems {
			m.walkExpr(owner, depth, el)
		}
		m.walkExpr(owner, depth, d.Repeat)
	case ast.ExprTupleLit:
		for _, el := range e.Data.(*ast.TupleLitData).Elems {
			m.walkExpr(owner, depth, el)
		}
	case ast.ExprIf:
		d := e.Data.(*ast.IfData)
		m.walkExpr(owner, depth, d.Cond)
		m.walkBlock(owner, depth, d.Then)
		m.walkExpr(owner, depth, d.Else)
	case ast.ExprMatch:
		d := e.Data.(*ast.MatchData)
		m.walkExpr(owner, depth, d.Scrutinee)
		for i := range d.Arms {
			m.walkExpr(owner, depth, d.Arms[i].Guard)
			m.walkExpr(owner, depth, d.Arms[i].Body)
		}
	case ast.ExprBlock:
		m.walkBlock(owner, depth, e.Data.(*ast.BlockData).Block)
	case ast.ExprCast:
		m.walkExpr(owner, depth, e.Data.(*ast.CastData).Value)
	}
}
