package parser

import (
	"ember/internal/ast"
	"ember/internal/token"
)

// parseBlock parses '{ stmts [tail] }'. The last expression without a
// trailing ';' becomes the block's value.
func (p *Parser) parseBlock() (*ast.Block, bool) {
	start, ok := p.expect(token.LBrace, "'{' starting block")
	if !ok {
		return nil, false
	}

	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	block := &ast.Block{}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if !p.parseStmtInto(block) {
			p.resyncStmt()
		}
	}
	p.expect(token.RBrace, "'}' closing block")
	block.Span = p.spanFrom(start.Span)
	return block, true
}

// parseStmtInto parses one statement, or the block's tail expression
// when an expression is not followed by ';'. Returns false when the
// caller must resynchronize.
func (p *Parser) parseStmtInto(block *ast.Block) bool {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.KwLet:
		return p.parseLetStmt(block)

	case token.KwReturn:
		p.advance()
		data := &ast.ReturnData{}
		if !p.at(token.Semicolon) && !p.at(token.RBrace) {
			value, ok := p.parseExpr()
			if !ok {
				return false
			}
			data.Value = value
		}
		p.expect(token.Semicolon, "';' after return")
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtReturn,
			Span: p.spanFrom(start),
			Data: data,
		})
		return true

	case token.KwWhile:
		p.advance()
		cond, ok := p.parseHeaderExpr()
		if !ok {
			return false
		}
		body, ok := p.parseBlock()
		if !ok {
			return false
		}
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtWhile,
			Span: p.spanFrom(start),
			Data: &ast.WhileData{Cond: cond, Body: body},
		})
		return true

	case token.KwBreak:
		p.advance()
		p.expect(token.Semicolon, "';' after break")
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtBreak,
			Span: p.spanFrom(start),
			Data: &ast.EmptyData{},
		})
		return true

	case token.KwContinue:
		p.advance()
		p.expect(token.Semicolon, "';' after continue")
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtContinue,
			Span: p.spanFrom(start),
			Data: &ast.EmptyData{},
		})
		return true

	case token.KwRevert:
		p.advance()
		data := &ast.RevertData{}
		if !p.at(token.Semicolon) && !p.at(token.RBrace) {
			code, ok := p.parseExpr()
			if !ok {
				return false
			}
			data.Code = code
		}
		p.expect(token.Semicolon, "';' after revert")
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtRevert,
			Span: p.spanFrom(start),
			Data: data,
		})
		return true

	case token.Semicolon:
		// Stray ';' is tolerated.
		p.advance()
		return true

	default:
		return p.parseExprStmt(block)
	}
}

// parseLetStmt parses 'let [mut] name [: T] = value;'.
func (p *Parser) parseLetStmt(block *ast.Block) bool {
	start := p.advance().Span // let
	data := &ast.LetData{}
	if _, ok := p.eat(token.KwMut); ok {
		data.Mut = true
	}
	nameTok, ok := p.expect(token.Ident, "binding name")
	if !ok {
		return false
	}
	data.Name = ast.Ident{Name: nameTok.Text, Span: nameTok.Span}
	if _, ok := p.eat(token.Colon); ok {
		data.Type, ok = p.parseTypeExpr()
		if !ok {
			return false
		}
	}
	if _, ok := p.expect(token.Assign, "'=' in let binding"); !ok {
		return false
	}
	data.Value, ok = p.parseExpr()
	if !ok {
		return false
	}
	p.expect(token.Semicolon, "';' after let binding")
	block.Stmts = append(block.Stmts, &ast.Stmt{
		Kind: ast.StmtLet,
		Span: p.spanFrom(start),
		Data: data,
	})
	return true
}

// parseExprStmt parses an expression and decides what it is from the
// next token: '=' makes it an assignment, ';' a statement, '}' the
// block's tail expression. Block-shaped expressions (if, match, while
// bodies, bare blocks) also stand alone without ';'.
func (p *Parser) parseExprStmt(block *ast.Block) bool {
	start := p.peek().Span
	e, ok := p.parseExpr()
	if !ok {
		return false
	}

	if _, ok := p.eat(token.Assign); ok {
		value, valueOK := p.parseExpr()
		if !valueOK {
			return false
		}
		p.expect(token.Semicolon, "';' after assignment")
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtAssign,
			Span: p.spanFrom(start),
			Data: &ast.AssignData{Place: e, Value: value},
		})
		return true
	}

	if _, ok := p.eat(token.Semicolon); ok {
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtExpr,
			Span: p.spanFrom(start),
			Data: &ast.ExprStmtData{Expr: e},
		})
		return true
	}

	if p.at(token.RBrace) {
		block.Tail = e
		return true
	}

	if blockShaped(e) {
		block.Stmts = append(block.Stmts, &ast.Stmt{
			Kind: ast.StmtExpr,
			Span: p.spanFrom(start),
			Data: &ast.ExprStmtData{Expr: e},
		})
		return true
	}

	p.errorExpected("';' after expression")
	return false
}

func blockShaped(e *ast.Expr) bool {
	switch e.Kind {
	case ast.ExprIf, ast.ExprMatch, ast.ExprBlock:
		return true
	default:
		return false
	}
}
