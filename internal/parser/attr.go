package parser

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/token"
)

// parseAttributes parses zero or more '#[name]' / '#[name(args)]'
// lists. Attribute names and arguments are plain identifiers; sema
// validates which names are known and where they may appear.
func (p *Parser) parseAttributes() ([]ast.Attribute, bool) {
	var attrs []ast.Attribute
	for p.at(token.Pound) {
		start := p.advance().Span // #
		if _, ok := p.expect(token.LBracket, "'[' after '#'"); !ok {
			return attrs, false
		}
		for {
			nameTok, ok := p.expect(token.Ident, "attribute name")
			if !ok {
				return attrs, false
			}
			attr := ast.Attribute{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
			if _, ok := p.eat(token.LParen); ok {
				for !p.at(token.RParen) && !p.at(token.EOF) {
					argTok := p.peek()
					if argTok.Kind != token.Ident && argTok.Kind != token.IntLit && argTok.Kind != token.StringLit {
						p.errorExpected("attribute argument")
						return attrs, false
					}
					p.advance()
					attr.Args = append(attr.Args, ast.Ident{Name: argTok.Text, Span: argTok.Span})
					if _, ok := p.eat(token.Comma); !ok {
						break
					}
				}
				if _, ok := p.expect(token.RParen, "')' closing attribute arguments"); !ok {
					return attrs, false
				}
			}
			attr.Span = p.spanFrom(start)
			attrs = append(attrs, attr)
			if _, ok := p.eat(token.Comma); !ok {
				break
			}
		}
		if _, ok := p.expect(token.RBracket, "']' closing attribute list"); !ok {
			return attrs, false
		}
	}
	return attrs, true
}

// fnAttributes folds parsed attributes into function modifiers and
// reports unknown names bound to functions.
func (p *Parser) fnAttributes(attrs []ast.Attribute, fn *ast.FnItem) {
	for _, a := range attrs {
		switch a.Name.Name {
		case "reads":
			if fn.Purity < ast.PurityReads {
				fn.Purity = ast.PurityReads
			}
		case "writes":
			fn.Purity = ast.PurityWrites
		case "payable":
			fn.Payable = true
		case "test":
			fn.IsTest = true
		case "namespace":
			p.report(diag.SynBadAttribute, a.Span, "'namespace' applies to storage blocks, not functions")
		default:
			// Unknown names are validated by resolution so that
			// tooling attributes pass through the parser.
		}
	}
}
