package parser

import (
	"ember/internal/ast"
	"ember/internal/source"
	"ember/internal/token"
)

// parseTypeExpr parses one syntactic type.
func (p *Parser) parseTypeExpr() (*ast.TypeExpr, bool) {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Ident:
		path, ok := p.parsePath()
		if !ok {
			return p.errType(start), false
		}
		args, ok := p.parseTypeArgs()
		if !ok {
			return p.errType(start), false
		}
		return &ast.TypeExpr{
			Kind: ast.TypeNamed,
			Span: p.spanFrom(start),
			Data: &ast.NamedType{Path: path, Args: args},
		}, true

	case token.KwSelfType:
		p.advance()
		base := &ast.TypeExpr{Kind: ast.TypeSelf, Span: p.spanFrom(start), Data: &ast.EmptyType{}}
		// Self::Assoc projection.
		if p.at(token.ColonColon) && p.peekAt(1).Kind == token.Ident {
			p.advance()
			nameTok := p.advance()
			return &ast.TypeExpr{
				Kind: ast.TypeAssoc,
				Span: p.spanFrom(start),
				Data: &ast.AssocType{Base: base, Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}},
			}, true
		}
		return base, true

	case token.Bang:
		p.advance()
		return &ast.TypeExpr{Kind: ast.TypeNever, Span: p.spanFrom(start), Data: &ast.EmptyType{}}, true

	case token.LParen:
		p.advance()
		var elems []*ast.TypeExpr
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elem, ok := p.parseTypeExpr()
			if !ok {
				return p.errType(start), false
			}
			elems = append(elems, elem)
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		if _, ok := p.expect(token.RParen, "')' closing tuple type"); !ok {
			return p.errType(start), false
		}
		if len(elems) == 1 {
			// Parenthesized type, not a 1-tuple.
			return elems[0], true
		}
		return &ast.TypeExpr{
			Kind: ast.TypeTuple,
			Span: p.spanFrom(start),
			Data: &ast.TupleType{Elems: elems},
		}, true

	case token.LBracket:
		p.advance()
		elem, ok := p.parseTypeExpr()
		if !ok {
			return p.errType(start), false
		}
		if _, ok := p.expect(token.Semicolon, "';' before array length"); !ok {
			return p.errType(start), false
		}
		length, ok := p.parseExpr()
		if !ok {
			return p.errType(start), false
		}
		if _, ok := p.expect(token.RBracket, "']' closing array type"); !ok {
			return p.errType(start), false
		}
		return &ast.TypeExpr{
			Kind: ast.TypeArray,
			Span: p.spanFrom(start),
			Data: &ast.ArrayType{Elem: elem, Len: length},
		}, true

	case token.Lt:
		// '<Base as Trait>::Assoc'
		p.advance()
		base, ok := p.parseTypeExpr()
		if !ok {
			return p.errType(start), false
		}
		if _, ok := p.expect(token.KwAs, "'as' in qualified type"); !ok {
			return p.errType(start), false
		}
		traitRef, ok := p.parseTraitRef()
		if !ok {
			return p.errType(start), false
		}
		if _, ok := p.expect(token.Gt, "'>' closing qualified type"); !ok {
			return p.errType(start), false
		}
		if _, ok := p.expect(token.ColonColon, "'::' after qualified type"); !ok {
			return p.errType(start), false
		}
		nameTok, ok := p.expect(token.Ident, "associated type name")
		if !ok {
			return p.errType(start), false
		}
		return &ast.TypeExpr{
			Kind: ast.TypeAssoc,
			Span: p.spanFrom(start),
			Data: &ast.AssocType{
				Base:  base,
				Trait: &traitRef,
				Name:  ast.Ident{Name: nameTok.Text, Span: nameTok.Span},
			},
		}, true

	default:
		p.errorExpected("a type")
		return p.errType(start), false
	}
}

func (p *Parser) errType(start source.Span) *ast.TypeExpr {
	return &ast.TypeExpr{Kind: ast.TypeError, Span: p.spanFrom(start), Data: &ast.EmptyType{}}
}

// parseTypeArgs parses an optional '<...>' generic argument list where
// each argument is a type or a const expression (integer literal or
// const parameter name used as a length).
func (p *Parser) parseTypeArgs() ([]ast.TypeArg, bool) {
	if !p.at(token.Lt) {
		return nil, true
	}
	p.advance()
	var args []ast.TypeArg
	for !p.at(token.Gt) && !p.at(token.EOF) {
		if p.at(token.IntLit) {
			lit := p.advance()
			args = append(args, ast.TypeArg{Const: &ast.Expr{
				Kind: ast.ExprLiteral,
				Span: lit.Span,
				Data: &ast.LiteralData{Kind: ast.LiteralInt, Text: lit.Text},
			}})
		} else {
			ty, ok := p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			args = append(args, ast.TypeArg{Type: ty})
		}
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.Gt, "'>' closing generic arguments"); !ok {
		return nil, false
	}
	return args, true
}

// parseTraitRef parses 'Path<Args>' where Args may include associated
// bindings 'Name = Type'.
func (p *Parser) parseTraitRef() (ast.TraitRef, bool) {
	start := p.peek().Span
	path, ok := p.parsePath()
	if !ok {
		return ast.TraitRef{}, false
	}
	ref := ast.TraitRef{Path: path}
	if p.at(token.Lt) {
		p.advance()
		for !p.at(token.Gt) && !p.at(token.EOF) {
			if p.at(token.Ident) && p.peekAt(1).Kind == token.Assign {
				nameTok := p.advance()
				p.advance() // =
				ty, tyOK := p.parseTypeExpr()
				if !tyOK {
					return ast.TraitRef{}, false
				}
				ref.Bindings = append(ref.Bindings, ast.AssocBinding{
					Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span},
					Type: ty,
				})
			} else {
				ty, tyOK := p.parseTypeExpr()
				if !tyOK {
					return ast.TraitRef{}, false
				}
				ref.Args = append(ref.Args, ty)
			}
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		if _, ok := p.expect(token.Gt, "'>' closing trait arguments"); !ok {
			return ast.TraitRef{}, false
		}
	}
	ref.Span = p.spanFrom(start)
	return ref, true
}

// parseBounds parses 'Trait + Trait + ...'.
func (p *Parser) parseBounds() ([]ast.TraitRef, bool) {
	var bounds []ast.TraitRef
	for {
		ref, ok := p.parseTraitRef()
		if !ok {
			return nil, false
		}
		bounds = append(bounds, ref)
		if _, ok := p.eat(token.Plus); !ok {
			return bounds, true
		}
	}
}
