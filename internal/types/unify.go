package types

import (
	"fortio.org/safecast"
)

// Unifier is the union-find layer over the interner. Variables are
// allocated per compilation unit and discarded with it; once a
// variable is bound it is never re-bound to a conflicting type.
type Unifier struct {
	in *Interner

	// binding[v] is the type variable v resolved to, or NoTypeID.
	binding []TypeID
	// parent implements union by rank over unbound variables.
	parent []uint32
	rank   []uint8
}

// NewUnifier constructs an empty unifier over in.
func NewUnifier(in *Interner) *Unifier {
	return &Unifier{in: in}
}

// Interner returns the underlying interner.
func (u *Unifier) Interner() *Interner { return u.in }

// Fresh allocates a new unification variable and returns its TypeID.
func (u *Unifier) Fresh() TypeID {
	ord := safecast.MustConvert[uint32](len(u.binding))
	u.binding = append(u.binding, NoTypeID)
	u.parent = append(u.parent, ord)
	u.rank = append(u.rank, 0)
	return u.in.Intern(MakeVar(ord))
}

// Vars returns the number of allocated variables.
func (u *Unifier) Vars() int { return len(u.binding) }

func (u *Unifier) find(v uint32) uint32 {
	for u.parent[v] != v {
		u.parent[v] = u.parent[u.parent[v]] // path halving
		v = u.parent[v]
	}
	return v
}

// Resolve follows variable bindings until a non-variable descriptor or
// an unbound variable is reached. The result is the canonical view of
// id at the current state of inference.
func (u *Unifier) Resolve(id TypeID) TypeID {
	for {
		t, ok := u.in.Lookup(id)
		if !ok || t.Kind != KindVar {
			return id
		}
		root := u.find(t.Sym)
		bound := u.binding[root]
		if !bound.IsValid() {
			return u.in.Intern(MakeVar(root))
		}
		id = bound
	}
}

// ResolveDeep resolves id and rebuilds composite types with their
// components resolved, producing a fully concrete descriptor when
// inference is complete.
func (u *Unifier) ResolveDeep(id TypeID) TypeID {
	id = u.Resolve(id)
	t := u.in.MustLookup(id)
	switch t.Kind {
	case KindTuple, KindNamed, KindFn:
		if len(t.Args) == 0 {
			return id
		}
		args := make([]TypeID, len(t.Args))
		changed := false
		for i, a := range t.Args {
			args[i] = u.ResolveDeep(a)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return id
		}
		nt := t
		nt.Args = args
		return u.in.Intern(nt)
	case KindArray:
		elem := u.ResolveDeep(t.Elem)
		if elem == t.Elem {
			return id
		}
		nt := t
		nt.Elem = elem
		return u.in.Intern(nt)
	default:
		return id
	}
}

// Unify makes a and b equal, binding variables as needed. It reports
// whether unification succeeded; on failure no observable binding is
// left behind beyond already-compatible prefixes, and the caller
// reports the mismatch. The error type unifies with anything.
func (u *Unifier) Unify(a, b TypeID) bool {
	a = u.Resolve(a)
	b = u.Resolve(b)
	if a == b {
		return true
	}
	ta := u.in.MustLookup(a)
	tb := u.in.MustLookup(b)

	// Poison propagates silently.
	if ta.Kind == KindError || tb.Kind == KindError {
		return true
	}

	if ta.Kind == KindVar && tb.Kind == KindVar {
		u.union(ta.Sym, tb.Sym)
		return true
	}
	if ta.Kind == KindVar {
		return u.bind(ta.Sym, b)
	}
	if tb.Kind == KindVar {
		return u.bind(tb.Sym, a)
	}

	// Never coerces into any type: a diverging branch imposes no
	// constraint on the join.
	if ta.Kind == KindNever || tb.Kind == KindNever {
		return true
	}

	if ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case KindUnit, KindBool, KindB256, KindString, KindSelf:
		return true
	case KindUint:
		return ta.Width == tb.Width
	case KindParam:
		return ta.Sym == tb.Sym
	case KindNamed:
		if ta.Sym != tb.Sym || len(ta.Args) != len(tb.Args) {
			return false
		}
		for i := range ta.Args {
			if !u.Unify(ta.Args[i], tb.Args[i]) {
				return false
			}
		}
		return true
	case KindTuple, KindFn:
		if len(ta.Args) != len(tb.Args) {
			return false
		}
		for i := range ta.Args {
			if !u.Unify(ta.Args[i], tb.Args[i]) {
				return false
			}
		}
		return true
	case KindArray:
		if !u.Unify(ta.Elem, tb.Elem) {
			return false
		}
		if ta.CountParam != NoConstParam || tb.CountParam != NoConstParam {
			// Lengths still symbolic; equality is checked after
			// const substitution.
			return ta.CountParam == tb.CountParam
		}
		return ta.Count == tb.Count
	default:
		return false
	}
}

// bind attaches variable v to type id, refusing infinite types.
func (u *Unifier) bind(v uint32, id TypeID) bool {
	root := u.find(v)
	if u.occurs(root, id) {
		return false
	}
	u.binding[root] = id
	return true
}

func (u *Unifier) union(a, b uint32) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// occurs reports whether variable root appears inside id.
func (u *Unifier) occurs(root uint32, id TypeID) bool {
	id = u.Resolve(id)
	t := u.in.MustLookup(id)
	switch t.Kind {
	case KindVar:
		return u.find(t.Sym) == root
	case KindArray:
		return u.occurs(root, t.Elem)
	case KindTuple, KindNamed, KindFn:
		for _, a := range t.Args {
			if u.occurs(root, a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// IsUnresolvedVar reports whether id still resolves to an unbound
// variable, used when defaulting literals at scope end.
func (u *Unifier) IsUnresolvedVar(id TypeID) bool {
	t := u.in.MustLookup(u.Resolve(id))
	return t.Kind == KindVar
}
