package parser

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/token"
)

// parseStructItem parses 'struct Name<...> { fields }'.
func (p *Parser) parseStructItem() (ast.ItemData, bool) {
	p.advance() // struct
	nameTok, ok := p.expect(token.Ident, "struct name")
	if !ok {
		return nil, false
	}
	item := &ast.StructItem{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
	item.Generics, ok = p.parseGenericParams()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, "'{' starting struct body"); !ok {
		return nil, false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		start := p.peek().Span
		vis := ast.VisPrivate
		if _, ok := p.eat(token.KwPub); ok {
			vis = ast.VisPublic
		}
		fieldTok, ok := p.expect(token.Ident, "field name")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Colon, "':' before field type"); !ok {
			return nil, false
		}
		ty, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		item.Fields = append(item.Fields, ast.FieldDef{
			Name: ast.Ident{Name: fieldTok.Text, Span: fieldTok.Span},
			Type: ty,
			Vis:  vis,
			Span: p.spanFrom(start),
		})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing struct body"); !ok {
		return nil, false
	}
	return item, true
}

// parseEnumItem parses 'enum Name<...> { Variant, Variant(T, U) }'.
func (p *Parser) parseEnumItem() (ast.ItemData, bool) {
	p.advance() // enum
	nameTok, ok := p.expect(token.Ident, "enum name")
	if !ok {
		return nil, false
	}
	item := &ast.EnumItem{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
	item.Generics, ok = p.parseGenericParams()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, "'{' starting enum body"); !ok {
		return nil, false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		varTok, ok := p.expect(token.Ident, "variant name")
		if !ok {
			return nil, false
		}
		variant := ast.VariantDef{Name: ast.Ident{Name: varTok.Text, Span: varTok.Span}, Span: varTok.Span}
		if _, ok := p.eat(token.LParen); ok {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				ty, tyOK := p.parseTypeExpr()
				if !tyOK {
					return nil, false
				}
				variant.Payload = append(variant.Payload, ty)
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
			}
			if _, ok := p.expect(token.RParen, "')' closing variant payload"); !ok {
				return nil, false
			}
			variant.Span = p.spanFrom(varTok.Span)
		}
		item.Variants = append(item.Variants, variant)
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing enum body"); !ok {
		return nil, false
	}
	return item, true
}

// parseTraitItem parses a trait with supertraits, associated items,
// and methods (optionally with default bodies).
func (p *Parser) parseTraitItem() (ast.ItemData, bool) {
	p.advance() // trait
	nameTok, ok := p.expect(token.Ident, "trait name")
	if !ok {
		return nil, false
	}
	item := &ast.TraitItem{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
	item.Generics, ok = p.parseGenericParams()
	if !ok {
		return nil, false
	}
	if _, ok := p.eat(token.Colon); ok {
		item.Supers, ok = p.parseBounds()
		if !ok {
			return nil, false
		}
	}
	if _, ok := p.expect(token.LBrace, "'{' starting trait body"); !ok {
		return nil, false
	}

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		attrs, attrsOK := p.parseAttributes()
		if !attrsOK {
			return nil, false
		}
		switch p.peek().Kind {
		case token.KwType:
			start := p.advance().Span
			assocTok, ok := p.expect(token.Ident, "associated type name")
			if !ok {
				return nil, false
			}
			decl := ast.AssocTypeDecl{Name: ast.Ident{Name: assocTok.Text, Span: assocTok.Span}}
			if _, ok := p.eat(token.Colon); ok {
				decl.Bounds, ok = p.parseBounds()
				if !ok {
					return nil, false
				}
			}
			p.expect(token.Semicolon, "';' after associated type")
			decl.Span = p.spanFrom(start)
			item.AssocTypes = append(item.AssocTypes, decl)
		case token.KwConst:
			start := p.advance().Span
			constTok, ok := p.expect(token.Ident, "associated constant name")
			if !ok {
				return nil, false
			}
			decl := ast.AssocConstDecl{Name: ast.Ident{Name: constTok.Text, Span: constTok.Span}}
			if _, ok := p.expect(token.Colon, "':' before associated constant type"); !ok {
				return nil, false
			}
			decl.Type, ok = p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			if _, ok := p.eat(token.Assign); ok {
				decl.Default, ok = p.parseExpr()
				if !ok {
					return nil, false
				}
			}
			p.expect(token.Semicolon, "';' after associated constant")
			decl.Span = p.spanFrom(start)
			item.AssocConsts = append(item.AssocConsts, decl)
		case token.KwFn:
			fn, fnOK := p.parseFnItem(attrs, true)
			if !fnOK {
				return nil, false
			}
			item.Methods = append(item.Methods, fn)
		default:
			p.errorExpected("'type', 'const', or 'fn' inside trait body")
			return nil, false
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing trait body"); !ok {
		return nil, false
	}
	return item, true
}

// parseImplItem parses 'impl<...> Type { }' and
// 'impl<...> Trait for Type where ... { }'.
func (p *Parser) parseImplItem() (ast.ItemData, bool) {
	p.advance() // impl
	item := &ast.ImplItem{}
	var ok bool
	item.Generics, ok = p.parseGenericParams()
	if !ok {
		return nil, false
	}

	// Parse a trait ref first; if 'for' follows this really was the
	// trait, otherwise reinterpret it as the self type.
	m := p.mark()
	traitRef, refOK := p.parseTraitRef()
	if refOK && p.at(token.KwFor) {
		p.advance() // for
		item.Trait = &traitRef
		item.SelfType, ok = p.parseTypeExpr()
		if !ok {
			return nil, false
		}
	} else {
		p.reset(m)
		item.SelfType, ok = p.parseTypeExpr()
		if !ok {
			return nil, false
		}
	}

	item.Where, ok = p.parseWhereClause()
	if !ok {
		return nil, false
	}
	if _, ok := p.expect(token.LBrace, "'{' starting impl body"); !ok {
		return nil, false
	}

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		attrs, attrsOK := p.parseAttributes()
		if !attrsOK {
			return nil, false
		}
		switch p.peek().Kind {
		case token.KwType:
			start := p.advance().Span
			assocTok, ok := p.expect(token.Ident, "associated type name")
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Assign, "'=' binding associated type"); !ok {
				return nil, false
			}
			ty, ok := p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			p.expect(token.Semicolon, "';' after associated type")
			item.AssocTypes = append(item.AssocTypes, ast.AssocTypeBind{
				Name: ast.Ident{Name: assocTok.Text, Span: assocTok.Span},
				Type: ty,
				Span: p.spanFrom(start),
			})
		case token.KwConst:
			start := p.advance().Span
			constTok, ok := p.expect(token.Ident, "associated constant name")
			if !ok {
				return nil, false
			}
			def := ast.AssocConstDef{Name: ast.Ident{Name: constTok.Text, Span: constTok.Span}}
			if _, ok := p.expect(token.Colon, "':' before associated constant type"); !ok {
				return nil, false
			}
			def.Type, ok = p.parseTypeExpr()
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Assign, "'=' before associated constant value"); !ok {
				return nil, false
			}
			def.Value, ok = p.parseExpr()
			if !ok {
				return nil, false
			}
			p.expect(token.Semicolon, "';' after associated constant")
			def.Span = p.spanFrom(start)
			item.AssocConsts = append(item.AssocConsts, def)
		case token.KwFn, token.KwPub:
			// Method visibility follows the impl'd type; 'pub' is
			// tolerated here and checked by resolution.
			p.eat(token.KwPub)
			if !p.at(token.KwFn) {
				p.errorExpected("'fn' after 'pub'")
				return nil, false
			}
			fn, fnOK := p.parseFnItem(attrs, true)
			if !fnOK {
				return nil, false
			}
			item.Methods = append(item.Methods, fn)
		default:
			p.errorExpected("'type', 'const', or 'fn' inside impl body")
			return nil, false
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing impl body"); !ok {
		return nil, false
	}
	return item, true
}

// parseStorageItem parses 'storage { name: T = init, ... }'. The
// namespace comes from a '#[namespace(ns)]' attribute on the block.
func (p *Parser) parseStorageItem(attrs []ast.Attribute) (ast.ItemData, bool) {
	p.advance() // storage
	item := &ast.StorageItem{}
	for _, a := range attrs {
		if a.Name.Name == "namespace" {
			if len(a.Args) != 1 {
				p.report(diag.SynBadAttribute, a.Span, "'namespace' takes exactly one argument")
				continue
			}
			item.Namespace = a.Args[0].Name
		}
	}
	if _, ok := p.expect(token.LBrace, "'{' starting storage block"); !ok {
		return nil, false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		start := p.peek().Span
		nameTok, ok := p.expect(token.Ident, "storage field name")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Colon, "':' before storage field type"); !ok {
			return nil, false
		}
		ty, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Assign, "'=' before storage field initializer"); !ok {
			return nil, false
		}
		initExpr, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		item.Fields = append(item.Fields, ast.StorageField{
			Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span},
			Type: ty,
			Init: initExpr,
			Span: p.spanFrom(start),
		})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing storage block"); !ok {
		return nil, false
	}
	return item, true
}

// parseConfigurableItem parses 'configurable { NAME: T = default, ... }'.
func (p *Parser) parseConfigurableItem() (ast.ItemData, bool) {
	p.advance() // configurable
	item := &ast.ConfigurableItem{}
	if _, ok := p.expect(token.LBrace, "'{' starting configurable block"); !ok {
		return nil, false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		start := p.peek().Span
		nameTok, ok := p.expect(token.Ident, "configurable constant name")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Colon, "':' before configurable type"); !ok {
			return nil, false
		}
		ty, ok := p.parseTypeExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Assign, "'=' before configurable default"); !ok {
			return nil, false
		}
		def, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		item.Entries = append(item.Entries, ast.ConfigEntry{
			Name:    ast.Ident{Name: nameTok.Text, Span: nameTok.Span},
			Type:    ty,
			Default: def,
			Span:    p.spanFrom(start),
		})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing configurable block"); !ok {
		return nil, false
	}
	return item, true
}

// parseAbiItem parses 'abi Name { fn decls }'.
func (p *Parser) parseAbiItem() (ast.ItemData, bool) {
	p.advance() // abi
	nameTok, ok := p.expect(token.Ident, "abi name")
	if !ok {
		return nil, false
	}
	item := &ast.AbiItem{Name: ast.Ident{Name: nameTok.Text, Span: nameTok.Span}}
	if _, ok := p.expect(token.LBrace, "'{' starting abi body"); !ok {
		return nil, false
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		attrs, attrsOK := p.parseAttributes()
		if !attrsOK {
			return nil, false
		}
		if !p.at(token.KwFn) {
			p.errorExpected("'fn' declaration inside abi body")
			return nil, false
		}
		fn, fnOK := p.parseFnItem(attrs, false)
		if !fnOK {
			return nil, false
		}
		item.Methods = append(item.Methods, fn)
	}
	if _, ok := p.expect(token.RBrace, "'}' closing abi body"); !ok {
		return nil, false
	}
	return item, true
}
