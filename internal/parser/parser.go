// Package parser turns a token stream into the AST.
//
// It is a recursive-descent parser with one token of lookahead.
// Backtracking exists for exactly one ambiguity: a bare generic call
// 'f<T>(x)' versus a chain of comparisons; everything else commits on
// the first token. On an unexpected token the parser records one
// diagnostic and resynchronizes to the next item or statement boundary
// at bracket depth zero, so one genuine defect produces one diagnostic.
package parser

import (
	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/source"
	"ember/internal/token"
)

// Options configures one ParseFile call.
type Options struct {
	// MaxErrors stops detailed reporting after this many syntax errors
	// (0 means unbounded). Parsing itself always continues to EOF.
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser holds the state for parsing a single file. Tokens are pulled
// eagerly so the generic-call backtrack is a position reset.
type Parser struct {
	file     *source.File
	tokens   []token.Token
	pos      int
	opts     Options
	errors   uint
	lastSpan source.Span

	// noStructLit suppresses 'Path { ... }' literals while parsing
	// if/while/match header expressions, where '{' begins the body.
	noStructLit bool

	// quiet suppresses reporting during the speculative parse of a
	// bare generic call; a failed trial resets and reparses loudly.
	quiet bool
}

// ParseFile is the entry point for one file. It never fails: malformed
// input yields diagnostics plus error placeholder nodes.
func ParseFile(lx *lexer.Lexer, opts Options) *ast.File {
	p := &Parser{
		file: lx.File(),
		opts: opts,
	}
	for {
		t := lx.Next()
		p.tokens = append(p.tokens, t)
		if t.Kind == token.EOF {
			break
		}
	}

	f := &ast.File{Path: p.file.Path}
	start := p.peek().Span
	for !p.at(token.EOF) {
		if !p.parseItemInto(&f.Items) {
			p.resyncTop()
		}
	}
	f.Span = start.Cover(p.lastSpan)
	return f
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.lastSpan = t.Span
	return t
}

// eat consumes the next token when it matches k.
func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes k or reports what was expected instead.
func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorExpected(what)
	return token.Token{}, false
}

// mark/reset implement the single backtrack point.
func (p *Parser) mark() int { return p.pos }

func (p *Parser) reset(m int) { p.pos = m }

func (p *Parser) report(code diag.Code, sp source.Span, msg string) {
	if p.quiet {
		return
	}
	p.errors++
	if p.opts.MaxErrors != 0 && p.errors > p.opts.MaxErrors {
		return
	}
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, sp, msg, nil, nil)
	}
}

func (p *Parser) errorExpected(what string) {
	t := p.peek()
	msg := "expected " + what + ", found '" + describeToken(t) + "'"
	p.report(diag.SynUnexpectedToken, t.Span, msg)
}

func describeToken(t token.Token) string {
	switch t.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit:
		return t.Text
	case token.StringLit:
		return "string literal"
	default:
		return t.Kind.String()
	}
}

// resyncTop skips to the next top-level item starter or past a ';' at
// bracket depth zero.
func (p *Parser) resyncTop() {
	depth := 0
	for !p.at(token.EOF) {
		t := p.peek()
		switch t.Kind {
		case token.LBrace, token.LParen, token.LBracket:
			depth++
		case token.RBrace, token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		default:
			if depth == 0 && t.StartsItem() {
				return
			}
		}
		p.advance()
	}
}

// resyncStmt skips to the next statement boundary inside a block:
// past a ';', or to a token that can begin a statement, or to the
// closing '}' of the enclosing block.
func (p *Parser) resyncStmt() {
	depth := 0
	for !p.at(token.EOF) {
		t := p.peek()
		switch t.Kind {
		case token.LBrace, token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		case token.KwLet, token.KwReturn, token.KwWhile, token.KwIf,
			token.KwMatch, token.KwBreak, token.KwContinue, token.KwRevert:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

// spanFrom covers from a recorded start span to the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}
