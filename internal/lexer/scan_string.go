package lexer

import (
	"ember/internal/diag"
	"ember/internal/token"
)

// scanString scans a double-quoted string literal with the escapes
// \\ \" \n \t \r \0 and \x<hh>. Token.Text is the decoded value, not
// the source spelling. Unterminated strings recover at end of line.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote

	var out []byte
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(out)}
		}
		b := lx.cursor.Bump()
		if b == '"' {
			break
		}
		if b != '\\' {
			out = append(out, b)
			continue
		}
		esc := lx.cursor.Bump()
		switch esc {
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case 'x':
			h0 := lx.cursor.Bump()
			h1 := lx.cursor.Bump()
			if !isHex(h0) || !isHex(h1) {
				lx.report(diag.LexBadEscape, lx.cursor.SpanFrom(start), "\\x escape needs two hex digits")
				continue
			}
			out = append(out, hexVal(h0)<<4|hexVal(h1))
		default:
			lx.report(diag.LexBadEscape, lx.cursor.SpanFrom(start), "unknown escape sequence")
		}
	}

	return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(start), Text: string(out)}
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
