package abi

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
)

// ValueKind discriminates the dynamic values the codec moves through
// descriptor types.
type ValueKind uint8

const (
	// ValueUnit is the empty value.
	ValueUnit ValueKind = iota
	// ValueUint is any unsigned integer width, including b256 values
	// that fit in 64 bits.
	ValueUint
	// ValueBool is a boolean.
	ValueBool
	// ValueString is a length-prefixed byte string.
	ValueString
	// ValueComposite is a tuple, array, or struct: ordered elements.
	ValueComposite
	// ValueVariant is an enum value: a tag plus that variant's payload.
	ValueVariant
)

// Value is one dynamically typed value for encoding against a
// descriptor type.
type Value struct {
	Kind  ValueKind
	Uint  uint64
	Bool  bool
	Str   string
	Elems []Value
	Tag   uint64
}

// Uint64 wraps an unsigned integer.
func Uint64(v uint64) Value { return Value{Kind: ValueUint, Uint: v} }

// Bool wraps a boolean.
func Bool(v bool) Value { return Value{Kind: ValueBool, Bool: v} }

// Str wraps a string.
func Str(v string) Value { return Value{Kind: ValueString, Str: v} }

// Composite wraps tuple, array, and struct contents.
func Composite(elems ...Value) Value { return Value{Kind: ValueComposite, Elems: elems} }

// VariantVal wraps an enum value.
func VariantVal(tag uint64, payload ...Value) Value {
	return Value{Kind: ValueVariant, Tag: tag, Elems: payload}
}

// Encode serializes a value against its descriptor type. Integers are
// big-endian at their declared width; strings carry a u64 byte-length
// prefix; enums carry a u64 tag before the selected variant's payload.
func Encode(t *TypeDesc, v Value) ([]byte, error) {
	var out []byte
	return appendValue(out, t, v)
}

func appendValue(out []byte, t *TypeDesc, v Value) ([]byte, error) {
	switch t.Kind {
	case "unit":
		return out, nil
	case "bool":
		if v.Kind != ValueBool {
			return nil, fmt.Errorf("bool type given %v", v.Kind)
		}
		if v.Bool {
			return append(out, 1), nil
		}
		return append(out, 0), nil
	case "uint":
		if v.Kind != ValueUint {
			return nil, fmt.Errorf("uint type given %v", v.Kind)
		}
		return appendUint(out, t.Width, v.Uint)
	case "b256":
		if v.Kind != ValueUint {
			return nil, fmt.Errorf("b256 type given %v", v.Kind)
		}
		return appendUint(out, 256, v.Uint)
	case "string":
		if v.Kind != ValueString {
			return nil, fmt.Errorf("string type given %v", v.Kind)
		}
		out = binary.BigEndian.AppendUint64(out, uint64(len(v.Str)))
		return append(out, v.Str...), nil
	case "tuple":
		return appendElems(out, t.Elems, v, "tuple")
	case "struct":
		fields := make([]TypeDesc, len(t.Fields))
		for i := range t.Fields {
			fields[i] = t.Fields[i].Type
		}
		return appendElems(out, fields, v, t.Name)
	case "array":
		if v.Kind != ValueComposite || uint64(len(v.Elems)) != t.Len {
			return nil, fmt.Errorf("array of %d given %d elements", t.Len, len(v.Elems))
		}
		var err error
		for i := range v.Elems {
			if out, err = appendValue(out, t.Elem, v.Elems[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	case "enum":
		if v.Kind != ValueVariant {
			return nil, fmt.Errorf("enum %s given %v", t.Name, v.Kind)
		}
		if v.Tag >= uint64(len(t.Variants)) {
			return nil, fmt.Errorf("enum %s has no variant %d", t.Name, v.Tag)
		}
		out = binary.BigEndian.AppendUint64(out, v.Tag)
		variant := &t.Variants[v.Tag]
		if len(v.Elems) != len(variant.Payload) {
			return nil, fmt.Errorf("variant %s takes %d values, given %d",
				variant.Name, len(variant.Payload), len(v.Elems))
		}
		var err error
		for i := range variant.Payload {
			if out, err = appendValue(out, &variant.Payload[i], v.Elems[i]); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("type kind %q is not encodable", t.Kind)
	}
}

func appendElems(out []byte, elems []TypeDesc, v Value, what string) ([]byte, error) {
	if v.Kind != ValueComposite || len(v.Elems) != len(elems) {
		return nil, fmt.Errorf("%s takes %d values, given value kind %v with %d",
			what, len(elems), v.Kind, len(v.Elems))
	}
	var err error
	for i := range elems {
		if out, err = appendValue(out, &elems[i], v.Elems[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendUint(out []byte, width uint16, v uint64) ([]byte, error) {
	switch width {
	case 8:
		b, err := safecast.Conv[uint8](v)
		if err != nil {
			return nil, fmt.Errorf("value %d does not fit u8", v)
		}
		return append(out, b), nil
	case 16:
		b, err := safecast.Conv[uint16](v)
		if err != nil {
			return nil, fmt.Errorf("value %d does not fit u16", v)
		}
		return binary.BigEndian.AppendUint16(out, b), nil
	case 32:
		b, err := safecast.Conv[uint32](v)
		if err != nil {
			return nil, fmt.Errorf("value %d does not fit u32", v)
		}
		return binary.BigEndian.AppendUint32(out, b), nil
	case 64:
		return binary.BigEndian.AppendUint64(out, v), nil
	case 256:
		out = append(out, make([]byte, 24)...)
		return binary.BigEndian.AppendUint64(out, v), nil
	default:
		return nil, fmt.Errorf("unsupported integer width %d", width)
	}
}

// Decode deserializes a value of the descriptor type, consuming the
// whole input.
func Decode(t *TypeDesc, data []byte) (Value, error) {
	v, rest, err := readValue(t, data)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, fmt.Errorf("%d trailing bytes after value", len(rest))
	}
	return v, nil
}

func readValue(t *TypeDesc, data []byte) (Value, []byte, error) {
	switch t.Kind {
	case "unit":
		return Value{Kind: ValueUnit}, data, nil
	case "bool":
		if len(data) < 1 {
			return Value{}, nil, fmt.Errorf("truncated bool")
		}
		return Bool(data[0] != 0), data[1:], nil
	case "uint":
		return readUint(t.Width, data)
	case "b256":
		return readUint(256, data)
	case "string":
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("truncated string length")
		}
		n := binary.BigEndian.Uint64(data)
		data = data[8:]
		if uint64(len(data)) < n {
			return Value{}, nil, fmt.Errorf("truncated string body")
		}
		return Str(string(data[:n])), data[n:], nil
	case "tuple":
		return readElems(t.Elems, data)
	case "struct":
		fields := make([]TypeDesc, len(t.Fields))
		for i := range t.Fields {
			fields[i] = t.Fields[i].Type
		}
		return readElems(fields, data)
	case "array":
		v := Value{Kind: ValueComposite, Elems: []Value{}}
		for i := uint64(0); i < t.Len; i++ {
			elem, rest, err := readValue(t.Elem, data)
			if err != nil {
				return Value{}, nil, err
			}
			v.Elems = append(v.Elems, elem)
			data = rest
		}
		return v, data, nil
	case "enum":
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("truncated enum tag")
		}
		tag := binary.BigEndian.Uint64(data)
		data = data[8:]
		if tag >= uint64(len(t.Variants)) {
			return Value{}, nil, fmt.Errorf("enum %s has no variant %d", t.Name, tag)
		}
		v := Value{Kind: ValueVariant, Tag: tag, Elems: []Value{}}
		variant := &t.Variants[tag]
		for i := range variant.Payload {
			elem, rest, err := readValue(&variant.Payload[i], data)
			if err != nil {
				return Value{}, nil, err
			}
			v.Elems = append(v.Elems, elem)
			data = rest
		}
		return v, data, nil
	default:
		return Value{}, nil, fmt.Errorf("type kind %q is not decodable", t.Kind)
	}
}

func readElems(elems []TypeDesc, data []byte) (Value, []byte, error) {
	v := Value{Kind: ValueComposite, Elems: []Value{}}
	for i := range elems {
		elem, rest, err := readValue(&elems[i], data)
		if err != nil {
			return Value{}, nil, err
		}
		v.Elems = append(v.Elems, elem)
		data = rest
	}
	return v, data, nil
}

func readUint(width uint16, data []byte) (Value, []byte, error) {
	switch width {
	case 8:
		if len(data) < 1 {
			return Value{}, nil, fmt.Errorf("truncated u8")
		}
		return Uint64(uint64(data[0])), data[1:], nil
	case 16:
		if len(data) < 2 {
			return Value{}, nil, fmt.Errorf("truncated u16")
		}
		return Uint64(uint64(binary.BigEndian.Uint16(data))), data[2:], nil
	case 32:
		if len(data) < 4 {
			return Value{}, nil, fmt.Errorf("truncated u32")
		}
		return Uint64(uint64(binary.BigEndian.Uint32(data))), data[4:], nil
	case 64:
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("truncated u64")
		}
		return Uint64(binary.BigEndian.Uint64(data)), data[8:], nil
	case 256:
		if len(data) < 32 {
			return Value{}, nil, fmt.Errorf("truncated b256")
		}
		return Uint64(binary.BigEndian.Uint64(data[24:32])), data[32:], nil
	default:
		return Value{}, nil, fmt.Errorf("unsupported integer width %d", width)
	}
}
