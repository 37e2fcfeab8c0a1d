package lexer

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"ember/internal/source"
)

// Cursor is a byte position inside one source file.
type Cursor struct {
	File *source.File
	Off  uint32
}

// NewCursor creates a cursor at the start of f.
func NewCursor(f *source.File) Cursor {
	if _, err := safecast.Conv[uint32](len(f.Content)); err != nil {
		panic(fmt.Errorf("source file too large: %w", err))
	}
	return Cursor{File: f, Off: 0}
}

// EOF reports whether the cursor has consumed the whole file.
func (c *Cursor) EOF() bool {
	return int(c.Off) >= len(c.File.Content)
}

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// Peek2 returns the current and next byte; ok is false near EOF.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if int(c.Off)+1 >= len(c.File.Content) {
		return 0, 0, false
	}
	return c.File.Content[c.Off], c.File.Content[c.Off+1], true
}

// PeekRune decodes the rune at the cursor without consuming it.
func (c *Cursor) PeekRune() (rune, int) {
	if c.EOF() {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(c.File.Content[c.Off:])
}

// Bump consumes and returns the current byte.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// BumpRune consumes the rune at the cursor.
func (c *Cursor) BumpRune() rune {
	r, sz := c.PeekRune()
	c.Off += uint32(sz) //nolint:gosec // sz in [0,4]
	return r
}

// Mark records the current offset for later SpanFrom.
func (c *Cursor) Mark() uint32 {
	return c.Off
}

// SpanFrom builds a span from a previous Mark to the current offset.
func (c *Cursor) SpanFrom(start uint32) source.Span {
	return source.Span{File: c.File.ID, Start: start, End: c.Off}
}
