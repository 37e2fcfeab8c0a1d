package diag

import (
	"fmt"
)

// Code identifies a diagnostic kind. Numbering groups codes by the
// pipeline stage that emits them:
//
//	1xxx lexical, 2xxx syntactic, 3xxx resolution, 4xxx type,
//	5xxx purity/effect, 6xxx monomorphization, 7xxx codegen, 9xxx fatal.
type Code uint16

const (
	// UnknownCode is the zero value; real diagnostics never use it.
	UnknownCode Code = 0

	// Lexical
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexUnterminatedBlock  Code = 1003
	LexBadNumber          Code = 1004
	LexBadEscape          Code = 1005

	// Syntactic
	SynUnexpectedToken    Code = 2001
	SynUnexpectedTopLevel Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectType         Code = 2004
	SynExpectExpression   Code = 2005
	SynUnclosedDelimiter  Code = 2006
	SynDanglingAttribute  Code = 2007
	SynBadAttribute       Code = 2008
	SynExpectPattern      Code = 2009
	SynDuplicateDefault   Code = 2010

	// Resolution
	ResUnknownName       Code = 3001
	ResAmbiguousName     Code = 3002
	ResDuplicateName     Code = 3003
	ResPrivateItem       Code = 3004
	ResUnknownModule     Code = 3005
	ResSelfImport        Code = 3006
	ResDuplicateImpl     Code = 3007
	ResUnknownTrait      Code = 3008
	ResUnusedImport      Code = 3009
	ResGlobCollision     Code = 3010
	ResUnknownAttr       Code = 3011
	ResDuplicateStorage  Code = 3012
	ResMissingEntrypoint Code = 3013

	// Type
	TypeMismatch          Code = 4001
	TypeUnknown           Code = 4002
	TypeArityMismatch     Code = 4003
	TypeUnsatisfiedBound  Code = 4004
	TypeAmbiguousMethod   Code = 4005
	TypeNoSuchMethod      Code = 4006
	TypeNoSuchField       Code = 4007
	TypeRecursive         Code = 4008
	TypeAssocCycle        Code = 4009
	TypeAmbiguousLiteral  Code = 4010
	TypeNotCallable       Code = 4011
	TypeBadCast           Code = 4012
	TypeConstMismatch     Code = 4013
	TypeMissingImplMember Code = 4014
	TypeUnknownAssoc      Code = 4015
	TypeOutsideLoop       Code = 4016
	TypeNotAssignable     Code = 4017

	// Purity / effects
	PurityStorageRead  Code = 5001
	PurityStorageWrite Code = 5002
	PurityNotPayable   Code = 5003

	// Monomorphization
	MonoUnresolvedGeneric Code = 6001
	MonoDepthExceeded     Code = 6002

	// Codegen
	GenRegisterPressure Code = 7001
	GenDataTooLarge     Code = 7002
	GenSlotCollision    Code = 7003

	// Fatal
	FatalMissingFile Code = 9001
)

// Stage returns the human name of the stage a code belongs to.
func (c Code) Stage() string {
	switch {
	case c >= 1000 && c < 2000:
		return "lex"
	case c >= 2000 && c < 3000:
		return "syntax"
	case c >= 3000 && c < 4000:
		return "resolve"
	case c >= 4000 && c < 5000:
		return "type"
	case c >= 5000 && c < 6000:
		return "purity"
	case c >= 6000 && c < 7000:
		return "mono"
	case c >= 7000 && c < 8000:
		return "codegen"
	case c >= 9000:
		return "fatal"
	default:
		return "unknown"
	}
}

// ID renders the stable external identifier, e.g. "EMB4001".
func (c Code) ID() string {
	return fmt.Sprintf("EMB%04d", uint16(c))
}

func (c Code) String() string {
	return c.ID()
}
