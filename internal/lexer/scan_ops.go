package lexer

import (
	"ember/internal/diag"
	"ember/internal/token"
)

// scanOperatorOrPunct scans operators and punctuation with maximal
// munch. Unknown bytes produce one diagnostic and an Invalid token.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()

	kind := token.Invalid
	switch b {
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
		if lx.cursor.Peek() == '>' {
			lx.cursor.Bump()
			kind = token.Arrow
		}
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case '=':
		kind = token.Assign
		switch lx.cursor.Peek() {
		case '=':
			lx.cursor.Bump()
			kind = token.EqEq
		case '>':
			lx.cursor.Bump()
			kind = token.FatArrow
		}
	case '!':
		kind = token.Bang
		if lx.cursor.Peek() == '=' {
			lx.cursor.Bump()
			kind = token.BangEq
		}
	case '<':
		kind = token.Lt
		switch lx.cursor.Peek() {
		case '=':
			lx.cursor.Bump()
			kind = token.LtEq
		case '<':
			lx.cursor.Bump()
			kind = token.Shl
		}
	case '>':
		kind = token.Gt
		switch lx.cursor.Peek() {
		case '=':
			lx.cursor.Bump()
			kind = token.GtEq
		case '>':
			lx.cursor.Bump()
			kind = token.Shr
		}
	case '&':
		kind = token.Amp
		if lx.cursor.Peek() == '&' {
			lx.cursor.Bump()
			kind = token.AndAnd
		}
	case '|':
		kind = token.Pipe
		if lx.cursor.Peek() == '|' {
			lx.cursor.Bump()
			kind = token.OrOr
		}
	case '^':
		kind = token.Caret
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semicolon
	case ':':
		kind = token.Colon
		if lx.cursor.Peek() == ':' {
			lx.cursor.Bump()
			kind = token.ColonColon
		}
	case '.':
		kind = token.Dot
		if lx.cursor.Peek() == '.' {
			lx.cursor.Bump()
			kind = token.DotDot
		}
	case '#':
		kind = token.Pound
	case '_':
		kind = token.Underscore
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if kind == token.Invalid {
		lx.report(diag.LexUnknownChar, sp, "unexpected character '"+text+"'")
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}
