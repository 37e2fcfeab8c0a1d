package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		ident string
		kind  Kind
		ok    bool
	}{
		{"fn", KwFn, true},
		{"storage", KwStorage, true},
		{"configurable", KwConfigurable, true},
		{"Self", KwSelfType, true},
		{"self", KwSelf, true},
		{"counter", Invalid, false},
		{"FN", Invalid, false},
	}
	for _, tc := range cases {
		k, ok := LookupKeyword(tc.ident)
		if ok != tc.ok {
			t.Errorf("LookupKeyword(%q) ok = %v, want %v", tc.ident, ok, tc.ok)
			continue
		}
		if ok && k != tc.kind {
			t.Errorf("LookupKeyword(%q) = %v, want %v", tc.ident, k, tc.kind)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := ColonColon.String(); got != "::" {
		t.Errorf("ColonColon.String() = %q", got)
	}
	if got := KwStorage.String(); got != "storage" {
		t.Errorf("KwStorage.String() = %q", got)
	}
}

func TestStartsItem(t *testing.T) {
	if !(Token{Kind: KwStorage}).StartsItem() {
		t.Error("storage must start an item")
	}
	if (Token{Kind: KwLet}).StartsItem() {
		t.Error("let is statement-level, not an item starter")
	}
}
