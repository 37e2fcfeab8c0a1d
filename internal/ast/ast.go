// Package ast defines the syntax tree produced by the parser.
//
// Nodes form a tree, never a graph: every node is owned by exactly one
// parent. Each node family (item, expression, statement, pattern, type
// expression) is a closed set of kinds dispatched through a Kind tag
// plus a kind-specific payload, so passes switch in one place instead
// of spreading behavior across node types.
package ast

import (
	"ember/internal/source"
)

// Ident is a named occurrence in the source.
type Ident struct {
	Name string
	Span source.Span
}

// Path is a '::'-separated sequence of identifiers.
type Path struct {
	Segments []Ident
	Span     source.Span
}

// String renders the path in source syntax.
func (p Path) String() string {
	out := ""
	for i, seg := range p.Segments {
		if i > 0 {
			out += "::"
		}
		out += seg.Name
	}
	return out
}

// Visibility of an item.
type Visibility uint8

const (
	// VisPrivate restricts an item to its module and descendants.
	VisPrivate Visibility = iota
	// VisPublic exports an item from its module.
	VisPublic
)

// Purity declares what a function may do to persistent storage.
// Writes implies reads.
type Purity uint8

const (
	// PurityPure forbids any storage access.
	PurityPure Purity = iota
	// PurityReads permits storage reads only.
	PurityReads
	// PurityWrites permits storage reads and writes.
	PurityWrites
)

func (p Purity) String() string {
	switch p {
	case PurityReads:
		return "reads"
	case PurityWrites:
		return "writes"
	default:
		return "pure"
	}
}

// CanRead reports whether storage reads are permitted.
func (p Purity) CanRead() bool { return p >= PurityReads }

// CanWrite reports whether storage writes are permitted.
func (p Purity) CanWrite() bool { return p == PurityWrites }

// Attribute is a '#[name]' or '#[name(args)]' marker bound to the item
// that follows it.
type Attribute struct {
	Name Ident
	Args []Ident
	Span source.Span
}

// File is the parse result of one source file.
type File struct {
	Path  string
	Span  source.Span
	Items []*Item
}
