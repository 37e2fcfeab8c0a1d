package lexer

import (
	"golang.org/x/text/unicode/norm"

	"ember/internal/diag"
	"ember/internal/token"
)

// scanIdentOrKeyword scans an identifier and classifies keywords.
// Keywords are case-sensitive. Token.Text is the exact source slice for
// ASCII identifiers and the NFC normalization for Unicode ones, so two
// visually identical identifiers compare equal during resolution.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.cursor.PeekRune()
	if sz == 0 {
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start)}
	}

	unicodeSeen := false
	if r < utf8RuneSelf {
		if !isIdentStartByte(byte(r)) {
			return lx.scanOperatorOrPunct()
		}
		lx.cursor.Bump()
	} else {
		if !isIdentStartRune(r) {
			lx.cursor.BumpRune()
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnknownChar, sp, "unexpected character")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		unicodeSeen = true
		lx.cursor.BumpRune()
	}

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r2, sz2 := lx.cursor.PeekRune()
		if sz2 == 0 || !isIdentContinueRune(r2) {
			break
		}
		unicodeSeen = true
		lx.cursor.BumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if unicodeSeen {
		text = norm.NFC.String(text)
	}

	if len(text) == 1 && text[0] == '_' {
		return token.Token{Kind: token.Underscore, Span: sp, Text: text}
	}
	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
