package parser

import (
	"ember/internal/ast"
	"ember/internal/source"
	"ember/internal/token"
)

// parsePattern parses one match pattern.
func (p *Parser) parsePattern() (*ast.Pattern, bool) {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Underscore:
		p.advance()
		return &ast.Pattern{Kind: ast.PatWildcard, Span: p.spanFrom(start), Data: &ast.EmptyPat{}}, true

	case token.IntLit:
		t := p.advance()
		return &ast.Pattern{
			Kind: ast.PatLiteral,
			Span: t.Span,
			Data: &ast.LiteralPat{Literal: ast.LiteralData{Kind: ast.LiteralInt, Text: t.Text}},
		}, true

	case token.StringLit:
		t := p.advance()
		return &ast.Pattern{
			Kind: ast.PatLiteral,
			Span: t.Span,
			Data: &ast.LiteralPat{Literal: ast.LiteralData{Kind: ast.LiteralString, Value: t.Text}},
		}, true

	case token.KwTrue, token.KwFalse:
		t := p.advance()
		return &ast.Pattern{
			Kind: ast.PatLiteral,
			Span: t.Span,
			Data: &ast.LiteralPat{Literal: ast.LiteralData{Kind: ast.LiteralBool, Bool: t.Kind == token.KwTrue}},
		}, true

	case token.Minus:
		// Negative literal pattern: keep the '-' in the spelling.
		p.advance()
		litTok, ok := p.expect(token.IntLit, "integer literal after '-'")
		if !ok {
			return p.errPat(start), false
		}
		return &ast.Pattern{
			Kind: ast.PatLiteral,
			Span: p.spanFrom(start),
			Data: &ast.LiteralPat{Literal: ast.LiteralData{Kind: ast.LiteralInt, Text: "-" + litTok.Text}},
		}, true

	case token.LParen:
		p.advance()
		pat := &ast.TuplePat{}
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elem, ok := p.parsePattern()
			if !ok {
				return p.errPat(start), false
			}
			pat.Elems = append(pat.Elems, elem)
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		if _, ok := p.expect(token.RParen, "')' closing tuple pattern"); !ok {
			return p.errPat(start), false
		}
		return &ast.Pattern{Kind: ast.PatTuple, Span: p.spanFrom(start), Data: pat}, true

	case token.Ident:
		path, ok := p.parsePath()
		if !ok {
			return p.errPat(start), false
		}
		switch p.peek().Kind {
		case token.LParen:
			p.advance()
			pat := &ast.VariantPat{Path: path}
			for !p.at(token.RParen) && !p.at(token.EOF) {
				elem, elemOK := p.parsePattern()
				if !elemOK {
					return p.errPat(start), false
				}
				pat.Payload = append(pat.Payload, elem)
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, ok := p.expect(token.RParen, "')' closing variant pattern"); !ok {
				return p.errPat(start), false
			}
			return &ast.Pattern{Kind: ast.PatVariant, Span: p.spanFrom(start), Data: pat}, true

		case token.LBrace:
			p.advance()
			pat := &ast.StructPat{Path: path}
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				if _, ok := p.eat(token.DotDot); ok {
					pat.Rest = true
					break
				}
				nameTok, nameOK := p.expect(token.Ident, "field name in struct pattern")
				if !nameOK {
					return p.errPat(start), false
				}
				name := ast.Ident{Name: nameTok.Text, Span: nameTok.Span}
				var fieldPat *ast.Pattern
				if _, ok := p.eat(token.Colon); ok {
					var fieldOK bool
					fieldPat, fieldOK = p.parsePattern()
					if !fieldOK {
						return p.errPat(start), false
					}
				} else {
					// Shorthand binds the field under its own name.
					fieldPat = &ast.Pattern{Kind: ast.PatBinding, Span: nameTok.Span, Data: &ast.BindingPat{Name: name}}
				}
				pat.Fields = append(pat.Fields, ast.FieldPat{Name: name, Pattern: fieldPat})
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, ok := p.expect(token.RBrace, "'}' closing struct pattern"); !ok {
				return p.errPat(start), false
			}
			return &ast.Pattern{Kind: ast.PatStruct, Span: p.spanFrom(start), Data: pat}, true

		default:
			if len(path.Segments) > 1 {
				// A multi-segment path without payload is still a
				// variant reference, e.g. 'Option::None'.
				return &ast.Pattern{
					Kind: ast.PatVariant,
					Span: p.spanFrom(start),
					Data: &ast.VariantPat{Path: path},
				}, true
			}
			return &ast.Pattern{
				Kind: ast.PatBinding,
				Span: p.spanFrom(start),
				Data: &ast.BindingPat{Name: path.Segments[0]},
			}, true
		}

	default:
		p.errorExpected("a pattern")
		return p.errPat(start), false
	}
}

func (p *Parser) errPat(start source.Span) *ast.Pattern {
	return &ast.Pattern{Kind: ast.PatError, Span: p.spanFrom(start), Data: &ast.EmptyPat{}}
}
