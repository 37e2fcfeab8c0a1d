package token

var keywords = map[string]Kind{
	"fn":           KwFn,
	"let":          KwLet,
	"const":        KwConst,
	"mut":          KwMut,
	"struct":       KwStruct,
	"enum":         KwEnum,
	"trait":        KwTrait,
	"impl":         KwImpl,
	"for":          KwFor,
	"where":        KwWhere,
	"mod":          KwMod,
	"use":          KwUse,
	"pub":          KwPub,
	"as":           KwAs,
	"return":       KwReturn,
	"if":           KwIf,
	"else":         KwElse,
	"match":        KwMatch,
	"while":        KwWhile,
	"break":        KwBreak,
	"continue":     KwContinue,
	"storage":      KwStorage,
	"configurable": KwConfigurable,
	"abi":          KwAbi,
	"revert":       KwRevert,
	"self":         KwSelf,
	"Self":         KwSelfType,
	"type":         KwType,
	"true":         KwTrue,
	"false":        KwFalse,
}

// LookupKeyword maps an identifier spelling to its keyword kind.
// The second result is false for ordinary identifiers.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
