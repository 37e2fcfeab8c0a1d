package bytecode

import (
	"encoding/binary"

	"fortio.org/safecast"
)

// MaxDataSize bounds the data section so every offset fits the 32-bit
// immediate field.
const MaxDataSize = 1 << 31

// DataBuilder assembles the data section: 8-byte words, 32-byte
// storage keys, and length-prefixed strings, deduplicated by content.
type DataBuilder struct {
	buf   []byte
	words map[uint64]uint32
	keys  map[[32]byte]uint32
	strs  map[string]uint32
}

// NewDataBuilder returns an empty builder.
func NewDataBuilder() *DataBuilder {
	return &DataBuilder{
		words: make(map[uint64]uint32),
		keys:  make(map[[32]byte]uint32),
		strs:  make(map[string]uint32),
	}
}

// Word places an 8-byte big-endian word and returns its offset.
func (d *DataBuilder) Word(v uint64) (uint32, bool) {
	if off, ok := d.words[v]; ok {
		return off, true
	}
	off, ok := d.offset()
	if !ok {
		return 0, false
	}
	d.buf = binary.BigEndian.AppendUint64(d.buf, v)
	d.words[v] = off
	return off, true
}

// MutableWord places an 8-byte word without deduplication, for slots
// that deployment tooling patches in place.
func (d *DataBuilder) MutableWord(v uint64) (uint32, bool) {
	off, ok := d.offset()
	if !ok {
		return 0, false
	}
	d.buf = binary.BigEndian.AppendUint64(d.buf, v)
	return off, true
}

// Key places a 32-byte storage key and returns its offset.
func (d *DataBuilder) Key(k [32]byte) (uint32, bool) {
	if off, ok := d.keys[k]; ok {
		return off, true
	}
	off, ok := d.offset()
	if !ok {
		return 0, false
	}
	d.buf = append(d.buf, k[:]...)
	d.keys[k] = off
	return off, true
}

// Str places a length-prefixed string and returns its offset.
func (d *DataBuilder) Str(s string) (uint32, bool) {
	if off, ok := d.strs[s]; ok {
		return off, true
	}
	off, ok := d.offset()
	if !ok {
		return 0, false
	}
	d.buf = binary.BigEndian.AppendUint64(d.buf, uint64(len(s)))
	d.buf = append(d.buf, s...)
	d.strs[s] = off
	return off, true
}

// Bytes returns the assembled section.
func (d *DataBuilder) Bytes() []byte { return d.buf }

func (d *DataBuilder) offset() (uint32, bool) {
	if len(d.buf) >= MaxDataSize {
		return 0, false
	}
	off, err := safecast.Conv[uint32](len(d.buf))
	if err != nil {
		return 0, false
	}
	return off, true
}

// WordAt reads the 8-byte word at a data offset.
func WordAt(data []byte, off uint32) (uint64, bool) {
	if int(off)+8 > len(data) {
		return 0, false
	}
	return binary.BigEndian.Uint64(data[off:]), true
}

// KeyAt reads the 32-byte key at a data offset.
func KeyAt(data []byte, off uint32) ([32]byte, bool) {
	var k [32]byte
	if int(off)+32 > len(data) {
		return k, false
	}
	copy(k[:], data[off:])
	return k, true
}

// StrAt reads the length-prefixed string at a data offset.
func StrAt(data []byte, off uint32) (string, bool) {
	n, ok := WordAt(data, off)
	if !ok {
		return "", false
	}
	start := uint64(off) + 8
	if start+n > uint64(len(data)) {
		return "", false
	}
	return string(data[start : start+n]), true
}
