// Package vm is the reference interpreter for compiled bytecode. It
// exists to pin down execution semantics and to run compiled units in
// tests; it does not meter gas and does not sandbox anything.
package vm

import (
	"fmt"
	"strings"

	"ember/internal/bytecode"
)

// ValueKind enumerates runtime value shapes.
type ValueKind uint8

const (
	// KindWord is a 64-bit machine word: integers, bools, and unit.
	KindWord ValueKind = iota
	// KindString is an immutable string.
	KindString
	// KindComposite is a tuple, array, struct, or enum value. Enum
	// values carry a variant tag; everything else uses TagNone.
	KindComposite
)

// Value is one runtime value.
type Value struct {
	Kind  ValueKind
	Word  uint64
	Str   string
	Elems []Value
	Tag   uint16
}

// Word builds a word value.
func Word(v uint64) Value { return Value{Kind: KindWord, Word: v} }

// Str builds a string value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// Composite builds an untagged aggregate.
func Composite(elems ...Value) Value {
	return Value{Kind: KindComposite, Elems: elems, Tag: bytecode.TagNone}
}

// Variant builds a tagged enum value.
func Variant(tag uint16, elems ...Value) Value {
	return Value{Kind: KindComposite, Elems: elems, Tag: tag}
}

// Clone returns a deep copy. Moving a value between registers, into a
// call, or into storage always clones, so aggregates behave as values
// rather than references.
func (v Value) Clone() Value {
	if v.Kind != KindComposite {
		return v
	}
	elems := make([]Value, len(v.Elems))
	for i := range v.Elems {
		elems[i] = v.Elems[i].Clone()
	}
	v.Elems = elems
	return v
}

// Equal reports deep structural equality.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindWord:
		return v.Word == o.Word
	case KindString:
		return v.Str == o.Str
	default:
		if v.Tag != o.Tag || len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindWord:
		return fmt.Sprintf("%d", v.Word)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	default:
		parts := make([]string, len(v.Elems))
		for i := range v.Elems {
			parts[i] = v.Elems[i].String()
		}
		if v.Tag != bytecode.TagNone {
			return fmt.Sprintf("#%d{%s}", v.Tag, strings.Join(parts, ", "))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}
