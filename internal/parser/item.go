package parser

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/token"
)

// parseItemInto dispatches on the first token of a top-level construct
// and appends the parsed item(s) to items. A group import is the one
// construct that yields more than one item. The bool result is false
// when the caller must resynchronize.
func (p *Parser) parseItemInto(items *[]*ast.Item) bool {
	start := p.peek().Span

	attrs, attrsOK := p.parseAttributes()
	if !attrsOK {
		return false
	}
	if len(attrs) > 0 && (p.at(token.EOF) || p.at(token.RBrace)) {
		p.report(diag.SynDanglingAttribute, p.spanFrom(start), "attribute list is not attached to any item")
		return false
	}

	vis := ast.VisPrivate
	if _, ok := p.eat(token.KwPub); ok {
		vis = ast.VisPublic
	}

	var (
		kind ast.ItemKind
		data ast.ItemData
		ok   bool
	)
	switch p.peek().Kind {
	case token.KwMod:
		kind, data, ok = p.parseModItem()
	case token.KwUse:
		uses, useOK := p.parseUseTargets()
		if !useOK {
			return false
		}
		for _, u := range uses {
			*items = append(*items, &ast.Item{
				Kind:  ast.ItemUse,
				Span:  p.spanFrom(start),
				Vis:   vis,
				Attrs: attrs,
				Data:  u,
			})
		}
		return true
	case token.KwFn:
		kind = ast.ItemFn
		var fn *ast.FnItem
		fn, ok = p.parseFnItem(attrs, true)
		data = fn
	case token.KwStruct:
		kind = ast.ItemStruct
		data, ok = p.parseStructItem()
	case token.KwEnum:
		kind = ast.ItemEnum
		data, ok = p.parseEnumItem()
	case token.KwTrait:
		kind = ast.ItemTrait
		data, ok = p.parseTraitItem()
	case token.KwImpl:
		kind = ast.ItemImpl
		data, ok = p.parseImplItem()
	case token.KwConst:
		kind = ast.ItemConst
		data, ok = p.parseConstItem()
	case token.KwStorage:
		kind = ast.ItemStorage
		data, ok = p.parseStorageItem(attrs)
	case token.KwConfigurable:
		kind = ast.ItemConfigurable
		data, ok = p.parseConfigurableItem()
	case token.KwAbi:
		kind = ast.ItemAbi
		data, ok = p.parseAbiItem()
	default:
		p.report(diag.SynUnexpectedTopLevel, p.peek().Span,
			"expected an item, found '"+describeToken(p.peek())+"'")
		return false
	}
	if !ok {
		return false
	}

	*items = append(*items, &ast.Item{
		Kind:  kind,
		Span:  p.spanFrom(start),
		Vis:   vis,
		Attrs: attrs,
		Data:  data,
	})
	return true
}

// parseModItem parses 'mod name { items }'.
func (p *Parser) parseModItem() (ast.ItemKind, ast.ItemData, bool) {
	p.advance() // mod
	nameTok, ok := p.expect(token.Ident, "module name")
	if !ok {
		return ast.ItemError, nil, false
	}
	if _, ok := p.expect(token.LBrace, "'{' after module name"); !ok {
		return ast.ItemError, nil, false
	}

	mod := &ast.ModItem{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if !p.parseItemInto(&mod.Items) {
			p.resyncTop()
		}
	}
	p.expect(token.RBrace, "'}' closing module body")
	return ast.ItemMod, mod, true
}

// parseConstItem parses 'const NAME: T = value;'.
func (p *Parser) parseConstItem() (ast.ItemData, bool) {
	p.advance() // const
	nameTok, ok := p.expect(token.Ident, "constant name")
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Colon, "':' before constant type"); !ok {
		return nil, false
	}
	ty, ok := p.parseTypeExpr()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.Assign, "'=' before constant value"); !ok {
		return nil, false
	}
	value, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	p.expect(token.Semicolon, "';' after constant")
	return &ast.ConstItem{
		Name:  ast.Ident{Name: nameTok.Text, Span: nameTok.Span},
		Type:  ty,
		Value: value,
	}, true
}
