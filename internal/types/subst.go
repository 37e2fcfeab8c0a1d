package types

// Subst maps generic parameters of one declaration to concrete
// arguments. Both slices are indexed by the parameter's position in
// the declaration's generic list; Types entries for const parameters
// and Consts entries for type parameters are simply unused.
type Subst struct {
	Types  []TypeID
	Consts []uint64
}

// IsEmpty reports whether the substitution has no mappings.
func (s Subst) IsEmpty() bool { return len(s.Types) == 0 && len(s.Consts) == 0 }

// Substitute rewrites id with parameters replaced per sub. Types the
// substitution does not mention pass through unchanged, so partial
// substitution during bound checking composes.
func (in *Interner) Substitute(id TypeID, sub Subst) TypeID {
	if sub.IsEmpty() {
		return id
	}
	t, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case KindParam:
		if int(t.Sym) < len(sub.Types) && sub.Types[t.Sym].IsValid() {
			return sub.Types[t.Sym]
		}
		return id
	case KindArray:
		nt := t
		nt.Elem = in.Substitute(t.Elem, sub)
		if t.CountParam != NoConstParam && int(t.CountParam) < len(sub.Consts) {
			nt.Count = sub.Consts[t.CountParam]
			nt.CountParam = NoConstParam
		}
		if nt.Elem == t.Elem && nt.CountParam == t.CountParam {
			return id
		}
		return in.Intern(nt)
	case KindTuple, KindNamed, KindFn:
		if len(t.Args) == 0 {
			return id
		}
		args := make([]TypeID, len(t.Args))
		changed := false
		for i, a := range t.Args {
			args[i] = in.Substitute(a, sub)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return id
		}
		nt := t
		nt.Args = args
		return in.Intern(nt)
	default:
		return id
	}
}

// ContainsParam reports whether id still mentions any generic
// parameter or symbolic array length, meaning it is not yet concrete.
func (in *Interner) ContainsParam(id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindParam, KindSelf:
		return true
	case KindArray:
		if t.CountParam != NoConstParam {
			return true
		}
		return in.ContainsParam(t.Elem)
	case KindTuple, KindNamed, KindFn:
		for _, a := range t.Args {
			if in.ContainsParam(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
