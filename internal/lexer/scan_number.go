package lexer

import (
	"ember/internal/diag"
	"ember/internal/token"
)

// scanNumber scans decimal, 0b and 0x integer literals with optional
// '_' separators and an optional width suffix (u8..u64, u256). The
// suffix stays inside Token.Text; type-directed inference reads it back
// out later.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	sawDigit := false
	if lx.cursor.Peek() == '0' {
		lx.cursor.Bump()
		sawDigit = true
		switch lx.cursor.Peek() {
		case 'b', 'B':
			lx.cursor.Bump()
			ok := false
			for {
				b := lx.cursor.Peek()
				if b == '0' || b == '1' {
					ok = true
					lx.cursor.Bump()
				} else if b == '_' {
					lx.cursor.Bump()
				} else {
					break
				}
			}
			if !ok {
				sp := lx.cursor.SpanFrom(start)
				lx.report(diag.LexBadNumber, sp, "binary literal needs at least one digit")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
			}
			return lx.finishNumber(start)
		case 'x', 'X':
			lx.cursor.Bump()
			ok := false
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				if lx.cursor.Peek() != '_' {
					ok = true
				}
				lx.cursor.Bump()
			}
			if !ok {
				sp := lx.cursor.SpanFrom(start)
				lx.report(diag.LexBadNumber, sp, "hex literal needs at least one digit")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
			}
			return lx.finishNumber(start)
		}
	}

	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		if lx.cursor.Peek() != '_' {
			sawDigit = true
		}
		lx.cursor.Bump()
	}
	if !sawDigit {
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexBadNumber, sp, "malformed number literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return lx.finishNumber(start)
}

// finishNumber consumes a trailing width suffix when present and emits
// the token. An unknown alphabetic suffix is an error; the token is
// still emitted so parsing continues.
func (lx *Lexer) finishNumber(start uint32) token.Token {
	suffixStart := lx.cursor.Mark()
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	if suffixStart != lx.cursor.Off {
		suffix := string(lx.file.Content[suffixStart:lx.cursor.Off])
		switch suffix {
		case "u8", "u16", "u32", "u64", "u256":
		default:
			lx.report(diag.LexBadNumber, sp, "unknown numeric suffix '"+suffix+"'")
		}
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: text}
}
