package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for types every stage needs by name.
type Builtins struct {
	Invalid TypeID
	Error   TypeID
	Unit    TypeID
	Bool    TypeID
	U8      TypeID
	U16     TypeID
	U32     TypeID
	U64     TypeID
	U256    TypeID
	B256    TypeID
	String  TypeID
	Never   TypeID
	SelfTy  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Identical structure always yields the same ID, which is what makes
// monomorphization keys and ABI output order-independent.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	builtins Builtins
}

// NewInterner constructs an interner seeded with the builtins.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[string]TypeID, 64),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Error = in.Intern(Type{Kind: KindError})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.U8 = in.Intern(MakeUint(Width8))
	in.builtins.U16 = in.Intern(MakeUint(Width16))
	in.builtins.U32 = in.Intern(MakeUint(Width32))
	in.builtins.U64 = in.Intern(MakeUint(Width64))
	in.builtins.U256 = in.Intern(MakeUint(Width256))
	in.builtins.B256 = in.Intern(Type{Kind: KindB256})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.SelfTy = in.Intern(Type{Kind: KindSelf})
	return in
}

// Builtins returns TypeIDs for the built-in types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Primitive maps a primitive type name to its builtin ID.
func (in *Interner) Primitive(name string) (TypeID, bool) {
	switch name {
	case "bool":
		return in.builtins.Bool, true
	case "u8":
		return in.builtins.U8, true
	case "u16":
		return in.builtins.U16, true
	case "u32":
		return in.builtins.U32, true
	case "u64":
		return in.builtins.U64, true
	case "u256":
		return in.builtins.U256, true
	case "b256":
		return in.builtins.B256, true
	case "str":
		return in.builtins.String, true
	default:
		return NoTypeID, false
	}
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := structuralKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[structuralKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

// Len returns the number of interned types.
func (in *Interner) Len() int { return len(in.types) }

// structuralKey renders a descriptor into a canonical string so
// structurally equal descriptors share one ID.
func structuralKey(t Type) string {
	var b strings.Builder
	b.WriteByte(byte('0' + t.Kind/10))
	b.WriteByte(byte('0' + t.Kind%10))
	switch t.Kind {
	case KindUint:
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(t.Width), 10))
	case KindNamed:
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(t.Sym), 10))
	case KindParam, KindVar:
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(t.Sym), 10))
	case KindArray:
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(t.Elem), 10))
		b.WriteByte(';')
		if t.CountParam != NoConstParam {
			b.WriteByte('p')
			b.WriteString(strconv.FormatUint(uint64(t.CountParam), 10))
		} else {
			b.WriteString(strconv.FormatUint(t.Count, 10))
		}
	}
	for _, a := range t.Args {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return b.String()
}

// String renders a type for diagnostics.
func (in *Interner) String(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindError:
		return "{error}"
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindUint:
		return "u" + strconv.FormatUint(uint64(t.Width), 10)
	case KindB256:
		return "b256"
	case KindString:
		return "str"
	case KindNever:
		return "!"
	case KindSelf:
		return "Self"
	case KindParam:
		return t.Name
	case KindVar:
		return "_"
	case KindTuple:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = in.String(a)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindArray:
		if t.CountParam != NoConstParam {
			return "[" + in.String(t.Elem) + "; _]"
		}
		return "[" + in.String(t.Elem) + "; " + strconv.FormatUint(t.Count, 10) + "]"
	case KindNamed:
		if len(t.Args) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = in.String(a)
		}
		return t.Name + "<" + strings.Join(parts, ", ") + ">"
	case KindFn:
		params := t.FnParams()
		parts := make([]string, len(params))
		for i, a := range params {
			parts[i] = in.String(a)
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + in.String(t.FnReturn())
	default:
		return t.Kind.String()
	}
}
