package parser

import (
	"ember/internal/ast"
	"ember/internal/token"
)

// parseFnItem parses a function. allowBody distinguishes ordinary
// functions from bodiless declarations inside abi blocks and traits;
// both forms accept either a body or ';' and sema enforces which one
// is legal where.
func (p *Parser) parseFnItem(attrs []ast.Attribute, allowBody bool) (*ast.FnItem, bool) {
	p.advance() // fn
	nameTok, ok := p.expect(token.Ident, "function name")
	if !ok {
		return nil, false
	}

	fn := &ast.FnItem{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
	p.fnAttributes(attrs, fn)

	fn.Generics, ok = p.parseGenericParams()
	if !ok {
		return nil, false
	}
	fn.Params, ok = p.parseFnParams()
	if !ok {
		return nil, false
	}

	if _, ok := p.eat(token.Arrow); ok {
		fn.Return, ok = p.parseTypeExpr()
		if !ok {
			return nil, false
		}
	}

	fn.Where, ok = p.parseWhereClause()
	if !ok {
		return nil, false
	}

	switch {
	case p.at(token.LBrace):
		body, bodyOK := p.parseBlock()
		if !bodyOK {
			return nil, false
		}
		fn.Body = body
	case p.at(token.Semicolon):
		p.advance()
	default:
		if allowBody {
			p.errorExpected("function body or ';'")
		} else {
			p.errorExpected("';' after declaration")
		}
		return nil, false
	}
	return fn, true
}

// parseGenericParams parses an optional '<T: Bound, const N: u64>'.
func (p *Parser) parseGenericParams() ([]ast.TypeParam, bool) {
	if !p.at(token.Lt) {
		return nil, true
	}
	p.advance()
	var params []ast.TypeParam
	for !p.at(token.Gt) && !p.at(token.EOF) {
		var tp ast.TypeParam
		if _, ok := p.eat(token.KwConst); ok {
			nameTok, ok := p.expect(token.Ident, "const parameter name")
			if !ok {
				return nil, false
			}
			tp.Name = ast.Ident{Name: nameTok.Text, Span: nameTok.Span}
			tp.IsConst = true
			if _, ok := p.expect(token.Colon, "':' before const parameter type"); !ok {
				return nil, false
			}
			tp.ConstType, ok = p.parseTypeExpr()
			if !ok {
				return nil, false
			}
		} else {
			nameTok, ok := p.expect(token.Ident, "type parameter name")
			if !ok {
				return nil, false
			}
			tp.Name = ast.Ident{Name: nameTok.Text, Span: nameTok.Span}
			if _, ok := p.eat(token.Colon); ok {
				tp.Bounds, ok = p.parseBounds()
				if !ok {
					return nil, false
				}
			}
		}
		params = append(params, tp)
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.Gt, "'>' closing generic parameters"); !ok {
		return nil, false
	}
	return params, true
}

// parseFnParams parses '(self, name: T, ...)'.
func (p *Parser) parseFnParams() ([]ast.Param, bool) {
	if _, ok := p.expect(token.LParen, "'(' starting parameter list"); !ok {
		return nil, false
	}
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.EOF) {
		start := p.peek().Span
		if tok, ok := p.eat(token.KwSelf); ok {
			params = append(params, ast.Param{
				Name:   ast.Ident{Name: "self", Span: tok.Span},
				IsSelf: true,
				Span:   tok.Span,
			})
		} else {
			nameTok, ok := p.expect(token.Ident, "parameter name")
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Colon, "':' before parameter type"); !ok {
				return nil, false
			}
			ty, ok := p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			params = append(params, ast.Param{
				Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span},
				Type: ty,
				Span: p.spanFrom(start),
			})
		}
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RParen, "')' closing parameter list"); !ok {
		return nil, false
	}
	return params, true
}

// parseWhereClause parses an optional 'where T: Bound, U: Bound'.
func (p *Parser) parseWhereClause() ([]ast.WherePred, bool) {
	if !p.at(token.KwWhere) {
		return nil, true
	}
	p.advance()
	var preds []ast.WherePred
	for {
		target, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Colon, "':' in where predicate"); !ok {
			return nil, false
		}
		bounds, ok := p.parseBounds()
		if !ok {
			return nil, false
		}
		preds = append(preds, ast.WherePred{Target: target, Bounds: bounds})
		if _, ok := p.eat(token.Comma); !ok {
			return preds, true
		}
		// A '{' or ';' after a trailing comma ends the clause.
		if p.at(token.LBrace) || p.at(token.Semicolon) {
			return preds, true
		}
	}
}
