package lexer_test

import (
	"testing"

	"ember/internal/diag"
	"ember/internal/lexer"
	"ember/internal/source"
	"ember/internal/token"
)

// testReporter collects everything a lexer reports.
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev, Code: code, Message: msg,
		Primary: primary, Notes: notes, Fixes: fixes,
	})
}

func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.em", []byte(input))
	reporter := &testReporter{}
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: reporter})
	return lx, reporter
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Kind)
	}
	return out
}

func TestLexSimpleFunction(t *testing.T) {
	lx, rep := makeTestLexer("pub fn add(a: u64, b: u64) -> u64 { a + b }")
	toks := collectAllTokens(lx)
	want := []token.Kind{
		token.KwPub, token.KwFn, token.Ident, token.LParen,
		token.Ident, token.Colon, token.Ident, token.Comma,
		token.Ident, token.Colon, token.Ident, token.RParen,
		token.Arrow, token.Ident, token.LBrace,
		token.Ident, token.Plus, token.Ident,
		token.RBrace, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rep.diagnostics)
	}
}

func TestLexNumberSuffix(t *testing.T) {
	lx, rep := makeTestLexer("42u8 1_000 0xff_u8 0b1010 7u256")
	toks := collectAllTokens(lx)

	wantTexts := []string{"42u8", "1_000", "0xff_u8", "0b1010", "7u256"}
	for i, want := range wantTexts {
		if toks[i].Kind != token.IntLit {
			t.Errorf("token[%d].Kind = %v, want IntLit", i, toks[i].Kind)
		}
		if toks[i].Text != want {
			t.Errorf("token[%d].Text = %q, want %q", i, toks[i].Text, want)
		}
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rep.diagnostics)
	}
}

func TestLexBadSuffix(t *testing.T) {
	lx, rep := makeTestLexer("5u9")
	toks := collectAllTokens(lx)
	if toks[0].Kind != token.IntLit {
		t.Errorf("bad-suffix literal should still tokenize, got %v", toks[0].Kind)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexBadNumber {
		t.Errorf("want one LexBadNumber, got %v", rep.diagnostics)
	}
}

func TestLexStringEscapes(t *testing.T) {
	lx, rep := makeTestLexer(`"a\n\x41\"z"`)
	toks := collectAllTokens(lx)
	if toks[0].Kind != token.StringLit {
		t.Fatalf("kind = %v", toks[0].Kind)
	}
	if toks[0].Text != "a\nA\"z" {
		t.Errorf("decoded = %q", toks[0].Text)
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rep.diagnostics)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	lx, rep := makeTestLexer("\"abc\nlet x")
	toks := collectAllTokens(lx)
	if toks[0].Kind != token.Invalid {
		t.Errorf("kind = %v, want Invalid", toks[0].Kind)
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnterminatedString {
		t.Fatalf("want one LexUnterminatedString, got %v", rep.diagnostics)
	}
	// Scanning continues on the next line.
	if toks[1].Kind != token.KwLet {
		t.Errorf("recovery token = %v, want let", toks[1].Kind)
	}
}

func TestLexUnknownByteRecovers(t *testing.T) {
	lx, rep := makeTestLexer("let $ x")
	toks := collectAllTokens(lx)
	got := kinds(toks)
	want := []token.Kind{token.KwLet, token.Invalid, token.Ident, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnknownChar {
		t.Errorf("want one LexUnknownChar, got %v", rep.diagnostics)
	}
}

func TestLexOperators(t *testing.T) {
	lx, _ := makeTestLexer(":: -> => == != <= >= << >> && || .. # _")
	got := kinds(collectAllTokens(lx))
	want := []token.Kind{
		token.ColonColon, token.Arrow, token.FatArrow, token.EqEq, token.BangEq,
		token.LtEq, token.GtEq, token.Shl, token.Shr, token.AndAnd, token.OrOr,
		token.DotDot, token.Pound, token.Underscore, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexComments(t *testing.T) {
	lx, rep := makeTestLexer("fn /* nested /* deep */ ok */ main // trailing\n()")
	got := kinds(collectAllTokens(lx))
	want := []token.Kind{token.KwFn, token.Ident, token.LParen, token.RParen, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v", got)
	}
	if len(rep.diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", rep.diagnostics)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	lx, rep := makeTestLexer("fn /* never ends")
	collectAllTokens(lx)
	if len(rep.diagnostics) != 1 || rep.diagnostics[0].Code != diag.LexUnterminatedBlock {
		t.Errorf("want one LexUnterminatedBlock, got %v", rep.diagnostics)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("storage counter")
	if lx.Peek().Kind != token.KwStorage {
		t.Fatal("Peek kind mismatch")
	}
	if lx.Next().Kind != token.KwStorage {
		t.Fatal("Next after Peek must return the same token")
	}
	if lx.Next().Kind != token.Ident {
		t.Fatal("stream advanced incorrectly")
	}
}
