package types

import "testing"

func TestUnifyVarBinding(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()

	v := u.Fresh()
	if !u.Unify(v, b.U64) {
		t.Fatal("var against u64 must unify")
	}
	if got := u.Resolve(v); got != b.U64 {
		t.Errorf("resolved to %s", in.String(got))
	}
	// Re-unifying with the same type is fine; with a conflicting one is not.
	if !u.Unify(v, b.U64) {
		t.Error("re-unify with same type failed")
	}
	if u.Unify(v, b.Bool) {
		t.Error("bound var must not re-bind to a conflicting type")
	}
}

func TestUnifyVarVar(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()

	v1 := u.Fresh()
	v2 := u.Fresh()
	if !u.Unify(v1, v2) {
		t.Fatal("var-var must unify")
	}
	if !u.Unify(v2, b.Bool) {
		t.Fatal("binding the union must work")
	}
	if got := u.Resolve(v1); got != b.Bool {
		t.Errorf("v1 resolved to %s, want bool", in.String(got))
	}
}

func TestUnifyComposite(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()

	v := u.Fresh()
	tup1 := in.Intern(MakeTuple([]TypeID{v, b.Bool}))
	tup2 := in.Intern(MakeTuple([]TypeID{b.U64, b.Bool}))
	if !u.Unify(tup1, tup2) {
		t.Fatal("tuples must unify through the variable")
	}
	if got := u.Resolve(v); got != b.U64 {
		t.Errorf("v resolved to %s", in.String(got))
	}
	if got := u.ResolveDeep(tup1); got != tup2 {
		t.Errorf("deep resolve: %s", in.String(got))
	}
}

func TestUnifyMismatches(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()

	if u.Unify(b.U64, b.U32) {
		t.Error("u64 and u32 must not unify")
	}
	if u.Unify(b.Bool, b.U64) {
		t.Error("bool and u64 must not unify")
	}
	a4 := in.Intern(MakeArray(b.U64, 4))
	a5 := in.Intern(MakeArray(b.U64, 5))
	if u.Unify(a4, a5) {
		t.Error("arrays of different lengths must not unify")
	}
	t2 := in.Intern(MakeTuple([]TypeID{b.U64}))
	t3 := in.Intern(MakeTuple([]TypeID{b.U64, b.U64}))
	if u.Unify(t2, t3) {
		t.Error("tuples of different arity must not unify")
	}
}

func TestOccursCheck(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)

	v := u.Fresh()
	tup := in.Intern(MakeTuple([]TypeID{v}))
	if u.Unify(v, tup) {
		t.Error("occurs check must reject v = (v)")
	}
}

func TestErrorTypePoison(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()

	if !u.Unify(b.Error, b.U64) {
		t.Error("error must unify with u64")
	}
	if !u.Unify(b.Bool, b.Error) {
		t.Error("error must unify with bool")
	}
	v := u.Fresh()
	if !u.Unify(v, b.Error) || !u.Unify(v, b.U64) {
		t.Error("error-bound var must keep unifying")
	}
}

func TestNeverCoerces(t *testing.T) {
	in := NewInterner()
	u := NewUnifier(in)
	b := in.Builtins()

	if !u.Unify(b.Never, b.U64) {
		t.Error("never must coerce into u64")
	}
	if !u.Unify(b.Bool, b.Never) {
		t.Error("never must coerce into bool")
	}
}
