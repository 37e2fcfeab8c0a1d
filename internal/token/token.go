package token

import (
	"ember/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric, boolean, or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	k, ok := keywords[t.Text]
	return ok && t.Kind == k
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// StartsItem reports whether the token kind can begin a top-level item.
// The parser resynchronizes on these after an error.
func (t Token) StartsItem() bool {
	switch t.Kind {
	case KwFn, KwStruct, KwEnum, KwTrait, KwImpl, KwConst, KwMod, KwUse,
		KwPub, KwStorage, KwConfigurable, KwAbi, KwType, Pound:
		return true
	default:
		return false
	}
}
