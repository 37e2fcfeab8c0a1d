package parser

import (
	"ember/internal/ast"
	"ember/internal/token"
)

// parseUseTargets parses one 'use' declaration and returns one UseItem
// per imported name. Supported forms:
//
//	use a::b::c;
//	use a::b as alias;
//	use a::b::*;
//	use a::{b, c as d, e::f};
func (p *Parser) parseUseTargets() ([]*ast.UseItem, bool) {
	p.advance() // use

	prefix := ast.Path{}
	uses, ok := p.parseUsePath(prefix)
	if !ok {
		return nil, false
	}
	p.expect(token.Semicolon, "';' after use declaration")
	return uses, true
}

// parseUsePath continues a use path after prefix, handling globs,
// aliases, and brace groups recursively.
func (p *Parser) parseUsePath(prefix ast.Path) ([]*ast.UseItem, bool) {
	for {
		switch p.peek().Kind {
		case token.Ident, token.KwSelf:
			segTok := p.advance()
			prefix.Segments = append(prefix.Segments, ast.Ident{Name: segTok.Text, Span: segTok.Span})
			prefix.Span = prefix.Span.Cover(segTok.Span)
			if len(prefix.Segments) == 1 {
				prefix.Span = segTok.Span
			}

			if p.at(token.KwAs) {
				p.advance()
				aliasTok, ok := p.expect(token.Ident, "alias name after 'as'")
				if !ok {
					return nil, false
				}
				alias := ast.Ident{Name: aliasTok.Text, Span: aliasTok.Span}
				return []*ast.UseItem{{Path: prefix, Alias: &alias}}, true
			}
			if !p.at(token.ColonColon) {
				return []*ast.UseItem{{Path: prefix}}, true
			}
			p.advance() // ::
		case token.Star:
			p.advance()
			if len(prefix.Segments) == 0 {
				p.errorExpected("module path before '*'")
				return nil, false
			}
			return []*ast.UseItem{{Path: prefix, Glob: true}}, true
		case token.LBrace:
			p.advance()
			var all []*ast.UseItem
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				// Each group element extends its own copy of the prefix.
				branch := prefix
				branch.Segments = append([]ast.Ident(nil), prefix.Segments...)
				sub, ok := p.parseUsePath(branch)
				if !ok {
					return nil, false
				}
				all = append(all, sub...)
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, ok := p.expect(token.RBrace, "'}' closing import group"); !ok {
				return nil, false
			}
			if len(all) == 0 {
				p.errorExpected("at least one import inside '{}'")
				return nil, false
			}
			return all, true
		default:
			p.errorExpected("import path segment")
			return nil, false
		}
	}
}

// parsePath parses 'seg::seg::...'. Stops before '::<' so callers can
// take turbofish generics.
func (p *Parser) parsePath() (ast.Path, bool) {
	segTok, ok := p.expect(token.Ident, "identifier")
	if !ok {
		return ast.Path{}, false
	}
	path := ast.Path{
		Segments: []ast.Ident{{Name: segTok.Text, Span: segTok.Span}},
		Span:     segTok.Span,
	}
	for p.at(token.ColonColon) {
		if p.peekAt(1).Kind == token.Lt {
			break // turbofish: callers consume '::<'
		}
		if p.peekAt(1).Kind != token.Ident {
			break
		}
		p.advance() // ::
		seg := p.advance()
		path.Segments = append(path.Segments, ast.Ident{Name: seg.Text, Span: seg.Span})
		path.Span = path.Span.Cover(seg.Span)
	}
	return path, true
}
