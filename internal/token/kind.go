package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident

	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwLet represents the 'let' keyword.
	KwLet // let
	// KwConst represents the 'const' keyword.
	KwConst // const
	// KwMut represents the 'mut' keyword.
	KwMut // mut
	// KwStruct represents the 'struct' keyword.
	KwStruct // struct
	// KwEnum represents the 'enum' keyword.
	KwEnum // enum
	// KwTrait represents the 'trait' keyword.
	KwTrait // trait
	// KwImpl represents the 'impl' keyword.
	KwImpl // impl
	// KwFor represents the 'for' keyword.
	KwFor // for
	// KwWhere represents the 'where' keyword.
	KwWhere // where
	// KwMod represents the 'mod' keyword.
	KwMod // mod
	// KwUse represents the 'use' keyword.
	KwUse // use
	// KwPub represents the 'pub' keyword.
	KwPub // pub
	// KwAs represents the 'as' keyword.
	KwAs // as
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwIf represents the 'if' keyword.
	KwIf // if
	// KwElse represents the 'else' keyword.
	KwElse // else
	// KwMatch represents the 'match' keyword.
	KwMatch // match
	// KwWhile represents the 'while' keyword.
	KwWhile // while
	// KwBreak represents the 'break' keyword.
	KwBreak // break
	// KwContinue represents the 'continue' keyword.
	KwContinue // continue
	// KwStorage represents the 'storage' keyword.
	KwStorage // storage
	// KwConfigurable represents the 'configurable' keyword.
	KwConfigurable // configurable
	// KwAbi represents the 'abi' keyword.
	KwAbi // abi
	// KwRevert represents the 'revert' keyword.
	KwRevert // revert
	// KwSelf represents the 'self' receiver keyword.
	KwSelf // self
	// KwSelfType represents the 'Self' type keyword.
	KwSelfType // Self
	// KwType represents the 'type' keyword (associated types).
	KwType // type
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false

	// IntLit represents an integer literal token (suffix kept in Text).
	IntLit
	// StringLit represents a string literal token.
	StringLit

	// Plus represents the '+' operator token.
	Plus // +
	// Minus represents the '-' operator token.
	Minus // -
	// Star represents the '*' operator token.
	Star // *
	// Slash represents the '/' operator token.
	Slash // /
	// Percent represents the '%' operator token.
	Percent // %
	// Assign represents the '=' operator token.
	Assign // =
	// EqEq represents the '==' operator token.
	EqEq // ==
	// Bang represents the '!' operator token.
	Bang // !
	// BangEq represents the '!=' operator token.
	BangEq // !=
	// Lt represents the '<' operator token.
	Lt // <
	// LtEq represents the '<=' operator token.
	LtEq // <=
	// Gt represents the '>' operator token.
	Gt // >
	// GtEq represents the '>=' operator token.
	GtEq // >=
	// Shl represents the '<<' operator token.
	Shl // <<
	// Shr represents the '>>' operator token.
	Shr // >>
	// Amp represents the '&' operator token.
	Amp // &
	// AndAnd represents the '&&' operator token.
	AndAnd // &&
	// Pipe represents the '|' operator token.
	Pipe // |
	// OrOr represents the '||' operator token.
	OrOr // ||
	// Caret represents the '^' operator token.
	Caret // ^
	// LParen represents the '(' token.
	LParen // (
	// RParen represents the ')' token.
	RParen // )
	// LBrace represents the '{' token.
	LBrace // {
	// RBrace represents the '}' token.
	RBrace // }
	// LBracket represents the '[' token.
	LBracket // [
	// RBracket represents the ']' token.
	RBracket // ]
	// Comma represents the ',' token.
	Comma // ,
	// Semicolon represents the ';' token.
	Semicolon // ;
	// Colon represents the ':' token.
	Colon // :
	// ColonColon represents the '::' token.
	ColonColon // ::
	// Dot represents the '.' token.
	Dot // .
	// DotDot represents the '..' token.
	DotDot // ..
	// Arrow represents the '->' token.
	Arrow // ->
	// FatArrow represents the '=>' token.
	FatArrow // =>
	// Pound represents the '#' token (attribute lists).
	Pound // #
	// Underscore represents the '_' wildcard token.
	Underscore // _
)

var kindNames = map[Kind]string{
	Invalid:        "invalid",
	EOF:            "eof",
	Ident:          "identifier",
	KwFn:           "fn",
	KwLet:          "let",
	KwConst:        "const",
	KwMut:          "mut",
	KwStruct:       "struct",
	KwEnum:         "enum",
	KwTrait:        "trait",
	KwImpl:         "impl",
	KwFor:          "for",
	KwWhere:        "where",
	KwMod:          "mod",
	KwUse:          "use",
	KwPub:          "pub",
	KwAs:           "as",
	KwReturn:       "return",
	KwIf:           "if",
	KwElse:         "else",
	KwMatch:        "match",
	KwWhile:        "while",
	KwBreak:        "break",
	KwContinue:     "continue",
	KwStorage:      "storage",
	KwConfigurable: "configurable",
	KwAbi:          "abi",
	KwRevert:       "revert",
	KwSelf:         "self",
	KwSelfType:     "Self",
	KwType:         "type",
	KwTrue:         "true",
	KwFalse:        "false",
	IntLit:         "integer literal",
	StringLit:      "string literal",
	Plus:           "+",
	Minus:          "-",
	Star:           "*",
	Slash:          "/",
	Percent:        "%",
	Assign:         "=",
	EqEq:           "==",
	Bang:           "!",
	BangEq:         "!=",
	Lt:             "<",
	LtEq:           "<=",
	Gt:             ">",
	GtEq:           ">=",
	Shl:            "<<",
	Shr:            ">>",
	Amp:            "&",
	AndAnd:         "&&",
	Pipe:           "|",
	OrOr:           "||",
	Caret:          "^",
	LParen:         "(",
	RParen:         ")",
	LBrace:         "{",
	RBrace:         "}",
	LBracket:       "[",
	RBracket:       "]",
	Comma:          ",",
	Semicolon:      ";",
	Colon:          ":",
	ColonColon:     "::",
	Dot:            ".",
	DotDot:         "..",
	Arrow:          "->",
	FatArrow:       "=>",
	Pound:          "#",
	Underscore:     "_",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}
