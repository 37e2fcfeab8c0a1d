package parser

import (
	"ember/internal/ast"
	"ember/internal/source"
	"ember/internal/token"
)

// Binding powers, loosest first. Comparisons do not chain: 'a < b < c'
// parses but sema rejects the bool < u64 operand.
const (
	precOr     = 1 // ||
	precAnd    = 2 // &&
	precCmp    = 3 // == != < <= > >=
	precBitOr  = 4 // |
	precBitXor = 5 // ^
	precBitAnd = 6 // &
	precShift  = 7 // << >>
	precAdd    = 8 // + -
	precMul    = 9 // * / %
)

func binOpFor(k token.Kind) (ast.BinaryOp, int, bool) {
	switch k {
	case token.OrOr:
		return ast.BinOr, precOr, true
	case token.AndAnd:
		return ast.BinAnd, precAnd, true
	case token.EqEq:
		return ast.BinEq, precCmp, true
	case token.BangEq:
		return ast.BinNe, precCmp, true
	case token.Lt:
		return ast.BinLt, precCmp, true
	case token.LtEq:
		return ast.BinLe, precCmp, true
	case token.Gt:
		return ast.BinGt, precCmp, true
	case token.GtEq:
		return ast.BinGe, precCmp, true
	case token.Pipe:
		return ast.BinBitOr, precBitOr, true
	case token.Caret:
		return ast.BinBitXor, precBitXor, true
	case token.Amp:
		return ast.BinBitAnd, precBitAnd, true
	case token.Shl:
		return ast.BinShl, precShift, true
	case token.Shr:
		return ast.BinShr, precShift, true
	case token.Plus:
		return ast.BinAdd, precAdd, true
	case token.Minus:
		return ast.BinSub, precAdd, true
	case token.Star:
		return ast.BinMul, precMul, true
	case token.Slash:
		return ast.BinDiv, precMul, true
	case token.Percent:
		return ast.BinRem, precMul, true
	default:
		return 0, 0, false
	}
}

// parseExpr parses one expression.
func (p *Parser) parseExpr() (*ast.Expr, bool) {
	return p.parseBinary(0)
}

// parseHeaderExpr parses the condition/scrutinee of if, while, and
// match, where a '{' after a path opens the body rather than a struct
// literal.
func (p *Parser) parseHeaderExpr() (*ast.Expr, bool) {
	saved := p.noStructLit
	p.noStructLit = true
	e, ok := p.parseExpr()
	p.noStructLit = saved
	return e, ok
}

func (p *Parser) parseBinary(minPrec int) (*ast.Expr, bool) {
	start := p.peek().Span
	left, ok := p.parseUnary()
	if !ok {
		return left, false
	}
	for {
		op, prec, isOp := binOpFor(p.peek().Kind)
		if !isOp || prec < minPrec {
			return left, true
		}
		p.advance()
		right, rightOK := p.parseBinary(prec + 1)
		if !rightOK {
			return p.errExpr(start), false
		}
		left = &ast.Expr{
			Kind: ast.ExprBinary,
			Span: left.Span.Cover(right.Span),
			Data: &ast.BinaryData{Op: op, Left: left, Right: right},
		}
	}
}

func (p *Parser) parseUnary() (*ast.Expr, bool) {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Minus:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return p.errExpr(start), false
		}
		return &ast.Expr{
			Kind: ast.ExprUnary,
			Span: p.spanFrom(start),
			Data: &ast.UnaryData{Op: ast.UnaryNeg, Operand: operand},
		}, true
	case token.Bang:
		p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return p.errExpr(start), false
		}
		return &ast.Expr{
			Kind: ast.ExprUnary,
			Span: p.spanFrom(start),
			Data: &ast.UnaryData{Op: ast.UnaryNot, Operand: operand},
		}, true
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary followed by any chain of calls, field
// accesses, method calls, indexing, and 'as' casts.
func (p *Parser) parsePostfix() (*ast.Expr, bool) {
	start := p.peek().Span
	e, ok := p.parsePrimary()
	if !ok {
		return e, false
	}
	for {
		switch p.peek().Kind {
		case token.LParen:
			args, argsOK := p.parseCallArgs()
			if !argsOK {
				return p.errExpr(start), false
			}
			e = &ast.Expr{
				Kind: ast.ExprCall,
				Span: p.spanFrom(start),
				Data: &ast.CallData{Callee: e, Args: args},
			}
		case token.Dot:
			p.advance()
			nameTok := p.peek()
			if nameTok.Kind != token.Ident && nameTok.Kind != token.IntLit {
				p.errorExpected("field name or tuple index after '.'")
				return p.errExpr(start), false
			}
			p.advance()
			name := ast.Ident{Name: nameTok.Text, Span: nameTok.Span}

			var generics []*ast.TypeExpr
			if p.at(token.ColonColon) && p.peekAt(1).Kind == token.Lt {
				p.advance() // ::
				targs, targsOK := p.parseTypeArgs()
				if !targsOK {
					return p.errExpr(start), false
				}
				generics = typeArgsToTypes(targs)
			}

			if p.at(token.LParen) {
				args, argsOK := p.parseCallArgs()
				if !argsOK {
					return p.errExpr(start), false
				}
				e = &ast.Expr{
					Kind: ast.ExprMethodCall,
					Span: p.spanFrom(start),
					Data: &ast.MethodCallData{Recv: e, Name: name, Generics: generics, Args: args},
				}
			} else {
				if generics != nil {
					p.errorExpected("'(' after method generic arguments")
					return p.errExpr(start), false
				}
				e = &ast.Expr{
					Kind: ast.ExprField,
					Span: p.spanFrom(start),
					Data: &ast.FieldData{Object: e, Name: name},
				}
			}
		case token.LBracket:
			p.advance()
			idx, idxOK := p.parseWithStructLit()
			if !idxOK {
				return p.errExpr(start), false
			}
			if _, ok := p.expect(token.RBracket, "']' closing index"); !ok {
				return p.errExpr(start), false
			}
			e = &ast.Expr{
				Kind: ast.ExprIndex,
				Span: p.spanFrom(start),
				Data: &ast.IndexData{Object: e, Index: idx},
			}
		case token.KwAs:
			p.advance()
			ty, tyOK := p.parseTypeExpr()
			if !tyOK {
				return p.errExpr(start), false
			}
			e = &ast.Expr{
				Kind: ast.ExprCast,
				Span: p.spanFrom(start),
				Data: &ast.CastData{Value: e, Type: ty},
			}
		default:
			return e, true
		}
	}
}

func (p *Parser) parsePrimary() (*ast.Expr, bool) {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.IntLit:
		t := p.advance()
		return &ast.Expr{
			Kind: ast.ExprLiteral,
			Span: t.Span,
			Data: &ast.LiteralData{Kind: ast.LiteralInt, Text: t.Text},
		}, true

	case token.StringLit:
		t := p.advance()
		return &ast.Expr{
			Kind: ast.ExprLiteral,
			Span: t.Span,
			Data: &ast.LiteralData{Kind: ast.LiteralString, Value: t.Text},
		}, true

	case token.KwTrue, token.KwFalse:
		t := p.advance()
		return &ast.Expr{
			Kind: ast.ExprLiteral,
			Span: t.Span,
			Data: &ast.LiteralData{Kind: ast.LiteralBool, Bool: t.Kind == token.KwTrue},
		}, true

	case token.Ident, token.KwSelf:
		return p.parsePathExpr()

	case token.KwStorage:
		return p.parseStorageExpr()

	case token.LParen:
		return p.parseParenExpr()

	case token.LBracket:
		return p.parseArrayExpr()

	case token.KwIf:
		return p.parseIfExpr()

	case token.KwMatch:
		return p.parseMatchExpr()

	case token.LBrace:
		block, ok := p.parseBlock()
		if !ok {
			return p.errExpr(start), false
		}
		return &ast.Expr{
			Kind: ast.ExprBlock,
			Span: block.Span,
			Data: &ast.BlockData{Block: block},
		}, true

	case token.Lt:
		return p.parseQualifiedExpr()

	default:
		p.errorExpected("an expression")
		return p.errExpr(start), false
	}
}

// parsePathExpr parses a name reference, possibly with turbofish or
// bare generic arguments, possibly continued as a struct literal.
func (p *Parser) parsePathExpr() (*ast.Expr, bool) {
	start := p.peek().Span
	var path ast.Path
	if tok, ok := p.eat(token.KwSelf); ok {
		path = ast.Path{Segments: []ast.Ident{{Name: "self", Span: tok.Span}}, Span: tok.Span}
	} else {
		var ok bool
		path, ok = p.parsePath()
		if !ok {
			return p.errExpr(start), false
		}
	}

	var generics []*ast.TypeExpr
	switch {
	case p.at(token.ColonColon) && p.peekAt(1).Kind == token.Lt:
		// Turbofish: 'identity::<u64>(x)'.
		p.advance() // ::
		targs, ok := p.parseTypeArgs()
		if !ok {
			return p.errExpr(start), false
		}
		generics = typeArgsToTypes(targs)
	case p.at(token.Lt):
		// 'f<T>(x)' is a generic call only if the angle brackets close
		// over well-formed type arguments and a '(' follows; otherwise
		// '<' is a comparison and the trial is rolled back.
		m := p.mark()
		p.quiet = true
		targs, ok := p.parseTypeArgs()
		p.quiet = false
		if ok && p.at(token.LParen) {
			generics = typeArgsToTypes(targs)
		} else {
			p.reset(m)
		}
	}

	if !p.noStructLit && p.at(token.LBrace) {
		return p.parseStructLitBody(start, path, generics)
	}
	return &ast.Expr{
		Kind: ast.ExprPath,
		Span: p.spanFrom(start),
		Data: &ast.PathData{Path: path, Generics: generics},
	}, true
}

func (p *Parser) parseStructLitBody(start source.Span, path ast.Path, generics []*ast.TypeExpr) (*ast.Expr, bool) {
	p.advance() // {
	lit := &ast.StructLitData{Path: path, Generics: generics}
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		nameTok, ok := p.expect(token.Ident, "field name")
		if !ok {
			return p.errExpr(start), false
		}
		name := ast.Ident{Name: nameTok.Text, Span: nameTok.Span}
		var value *ast.Expr
		if _, ok := p.eat(token.Colon); ok {
			value, ok = p.parseExpr()
			if !ok {
				return p.errExpr(start), false
			}
		} else {
			// Shorthand 'Point { x, y }'.
			value = &ast.Expr{
				Kind: ast.ExprPath,
				Span: nameTok.Span,
				Data: &ast.PathData{Path: ast.Path{Segments: []ast.Ident{name}, Span: nameTok.Span}},
			}
		}
		lit.Fields = append(lit.Fields, ast.FieldInit{Name: name, Value: value})
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing struct literal"); !ok {
		return p.errExpr(start), false
	}
	return &ast.Expr{
		Kind: ast.ExprStructLit,
		Span: p.spanFrom(start),
		Data: lit,
	}, true
}

// parseStorageExpr parses 'storage.a.b'. The chain stops before a
// segment that opens a call, which the postfix loop then parses as a
// method on the storage access.
func (p *Parser) parseStorageExpr() (*ast.Expr, bool) {
	start := p.advance().Span // storage
	data := &ast.StorageData{}
	for p.at(token.Dot) && p.peekAt(1).Kind == token.Ident && p.peekAt(2).Kind != token.LParen {
		p.advance() // .
		seg := p.advance()
		data.Fields = append(data.Fields, ast.Ident{Name: seg.Text, Span: seg.Span})
	}
	if len(data.Fields) == 0 {
		p.errorExpected("'.' and a field name after 'storage'")
		return p.errExpr(start), false
	}
	return &ast.Expr{
		Kind: ast.ExprStorage,
		Span: p.spanFrom(start),
		Data: data,
	}, true
}

// parseParenExpr parses '()', '(e)', and '(a, b, ...)'.
func (p *Parser) parseParenExpr() (*ast.Expr, bool) {
	start := p.advance().Span // (
	if p.at(token.RParen) {
		p.advance()
		return &ast.Expr{
			Kind: ast.ExprTupleLit,
			Span: p.spanFrom(start),
			Data: &ast.TupleLitData{},
		}, true
	}

	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	var elems []*ast.Expr
	trailingComma := false
	for {
		e, ok := p.parseExpr()
		if !ok {
			return p.errExpr(start), false
		}
		elems = append(elems, e)
		if _, ok := p.eat(token.Comma); !ok {
			trailingComma = false
			break
		}
		trailingComma = true
		if p.at(token.RParen) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, "')'"); !ok {
		return p.errExpr(start), false
	}
	if len(elems) == 1 && !trailingComma {
		return elems[0], true
	}
	return &ast.Expr{
		Kind: ast.ExprTupleLit,
		Span: p.spanFrom(start),
		Data: &ast.TupleLitData{Elems: elems},
	}, true
}

// parseArrayExpr parses '[a, b, c]' and '[value; length]'.
func (p *Parser) parseArrayExpr() (*ast.Expr, bool) {
	start := p.advance().Span // [

	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	data := &ast.ArrayLitData{}
	if !p.at(token.RBracket) {
		first, ok := p.parseExpr()
		if !ok {
			return p.errExpr(start), false
		}
		data.Elems = append(data.Elems, first)
		if _, ok := p.eat(token.Semicolon); ok {
			data.Repeat, ok = p.parseExpr()
			if !ok {
				return p.errExpr(start), false
			}
		} else {
			for {
				if _, ok := p.eat(token.Comma); !ok {
					break
				}
				if p.at(token.RBracket) {
					break
				}
				e, elemOK := p.parseExpr()
				if !elemOK {
					return p.errExpr(start), false
				}
				data.Elems = append(data.Elems, e)
			}
		}
	}
	if _, ok := p.expect(token.RBracket, "']' closing array literal"); !ok {
		return p.errExpr(start), false
	}
	return &ast.Expr{
		Kind: ast.ExprArrayLit,
		Span: p.spanFrom(start),
		Data: data,
	}, true
}

// parseIfExpr parses 'if cond { } [else if ... | else { }]'.
func (p *Parser) parseIfExpr() (*ast.Expr, bool) {
	start := p.advance().Span // if
	cond, ok := p.parseHeaderExpr()
	if !ok {
		return p.errExpr(start), false
	}
	then, ok := p.parseBlock()
	if !ok {
		return p.errExpr(start), false
	}
	data := &ast.IfData{Cond: cond, Then: then}
	if _, ok := p.eat(token.KwElse); ok {
		switch p.peek().Kind {
		case token.KwIf:
			elseExpr, elseOK := p.parseIfExpr()
			if !elseOK {
				return p.errExpr(start), false
			}
			data.Else = elseExpr
		case token.LBrace:
			block, blockOK := p.parseBlock()
			if !blockOK {
				return p.errExpr(start), false
			}
			data.Else = &ast.Expr{Kind: ast.ExprBlock, Span: block.Span, Data: &ast.BlockData{Block: block}}
		default:
			p.errorExpected("'if' or '{' after 'else'")
			return p.errExpr(start), false
		}
	}
	return &ast.Expr{
		Kind: ast.ExprIf,
		Span: p.spanFrom(start),
		Data: data,
	}, true
}

// parseMatchExpr parses 'match scrutinee { pat [if guard] => body, ... }'.
func (p *Parser) parseMatchExpr() (*ast.Expr, bool) {
	start := p.advance().Span // match
	scrutinee, ok := p.parseHeaderExpr()
	if !ok {
		return p.errExpr(start), false
	}
	if _, ok := p.expect(token.LBrace, "'{' starting match arms"); !ok {
		return p.errExpr(start), false
	}
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()
	data := &ast.MatchData{Scrutinee: scrutinee}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		armStart := p.peek().Span
		pat, patOK := p.parsePattern()
		if !patOK {
			return p.errExpr(start), false
		}
		arm := ast.MatchArm{Pattern: pat}
		if _, ok := p.eat(token.KwIf); ok {
			arm.Guard, ok = p.parseExpr()
			if !ok {
				return p.errExpr(start), false
			}
		}
		if _, ok := p.expect(token.FatArrow, "'=>' after match pattern"); !ok {
			return p.errExpr(start), false
		}
		arm.Body, ok = p.parseExpr()
		if !ok {
			return p.errExpr(start), false
		}
		arm.Span = p.spanFrom(armStart)
		data.Arms = append(data.Arms, arm)
		if _, ok := p.eat(token.Comma); !ok {
			// A block-bodied arm may omit the trailing comma.
			if arm.Body.Kind != ast.ExprBlock && arm.Body.Kind != ast.ExprIf && arm.Body.Kind != ast.ExprMatch {
				break
			}
		}
	}
	if _, ok := p.expect(token.RBrace, "'}' closing match arms"); !ok {
		return p.errExpr(start), false
	}
	return &ast.Expr{
		Kind: ast.ExprMatch,
		Span: p.spanFrom(start),
		Data: data,
	}, true
}

// parseQualifiedExpr parses '<Type as Trait>::member'.
func (p *Parser) parseQualifiedExpr() (*ast.Expr, bool) {
	start := p.advance().Span // <
	selfType, ok := p.parseTypeExpr()
	if !ok {
		return p.errExpr(start), false
	}
	if _, ok := p.expect(token.KwAs, "'as' in qualified path"); !ok {
		return p.errExpr(start), false
	}
	traitRef, ok := p.parseTraitRef()
	if !ok {
		return p.errExpr(start), false
	}
	if _, ok := p.expect(token.Gt, "'>' closing qualified path"); !ok {
		return p.errExpr(start), false
	}
	if _, ok := p.expect(token.ColonColon, "'::' after qualified path"); !ok {
		return p.errExpr(start), false
	}
	memberTok, ok := p.expect(token.Ident, "member name")
	if !ok {
		return p.errExpr(start), false
	}
	return &ast.Expr{
		Kind: ast.ExprQualified,
		Span: p.spanFrom(start),
		Data: &ast.QualifiedData{
			SelfType: selfType,
			Trait:    traitRef,
			Member:   ast.Ident{Name: memberTok.Text, Span: memberTok.Span},
		},
	}, true
}

// parseCallArgs parses '(a, b, ...)'.
func (p *Parser) parseCallArgs() ([]*ast.Expr, bool) {
	p.advance() // (
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	var args []*ast.Expr
	for !p.at(token.RParen) && !p.at(token.EOF) {
		a, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, a)
		if _, ok := p.eat(token.Comma); !ok {
			break
		}
	}
	if _, ok := p.expect(token.RParen, "')' closing arguments"); !ok {
		return nil, false
	}
	return args, true
}

// parseWithStructLit parses one expression with struct literals
// re-enabled, for bracketed positions inside header expressions.
func (p *Parser) parseWithStructLit() (*ast.Expr, bool) {
	saved := p.noStructLit
	p.noStructLit = false
	e, ok := p.parseExpr()
	p.noStructLit = saved
	return e, ok
}

func (p *Parser) errExpr(start source.Span) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprError, Span: p.spanFrom(start), Data: &ast.ErrorData{}}
}

func typeArgsToTypes(args []ast.TypeArg) []*ast.TypeExpr {
	out := make([]*ast.TypeExpr, 0, len(args))
	for _, a := range args {
		if a.Type != nil {
			out = append(out, a.Type)
		} else if a.Const != nil {
			// A const argument in expression position is carried as a
			// single-segment named type spelling the literal; sema
			// reads it back when the parameter is const.
			out = append(out, &ast.TypeExpr{
				Kind: ast.TypeNamed,
				Span: a.Const.Span,
				Data: &ast.NamedType{Path: ast.Path{Segments: []ast.Ident{{
					Name: a.Const.Data.(*ast.LiteralData).Text,
					Span: a.Const.Span,
				}}, Span: a.Const.Span}},
			})
		}
	}
	return out
}
