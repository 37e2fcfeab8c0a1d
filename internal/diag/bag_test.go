package diag

import (
	"testing"

	"ember/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(Diagnostic{Code: LexUnknownChar, Severity: SevError}) {
		t.Fatal("first Add rejected")
	}
	if !b.Add(Diagnostic{Code: LexUnknownChar, Severity: SevError}) {
		t.Fatal("second Add rejected")
	}
	if b.Add(Diagnostic{Code: LexUnknownChar, Severity: SevError}) {
		t.Fatal("Add beyond the bound must be rejected")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(Diagnostic{Code: TypeMismatch, Severity: SevError, Primary: source.Span{File: 0, Start: 40, End: 44}})
	b.Add(Diagnostic{Code: SynUnexpectedToken, Severity: SevError, Primary: source.Span{File: 0, Start: 10, End: 12}})
	b.Add(Diagnostic{Code: ResUnknownName, Severity: SevWarning, Primary: source.Span{File: 0, Start: 10, End: 12}})
	b.Sort()

	items := b.Items()
	if items[0].Code != SynUnexpectedToken {
		t.Errorf("items[0] = %v, want the error at offset 10", items[0].Code)
	}
	if items[1].Code != ResUnknownName {
		t.Errorf("items[1] = %v, want warning after error at same span", items[1].Code)
	}
	if items[2].Code != TypeMismatch {
		t.Errorf("items[2] = %v", items[2].Code)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{File: 1, Start: 5, End: 6}
	b.Add(Diagnostic{Code: ResUnknownName, Severity: SevError, Primary: sp})
	b.Add(Diagnostic{Code: ResUnknownName, Severity: SevError, Primary: sp})
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("Dedup left %d items, want 1", b.Len())
	}
}

func TestHasErrors(t *testing.T) {
	b := NewBag(4)
	b.Add(Diagnostic{Severity: SevWarning, Code: ResUnusedImport})
	if b.HasErrors() {
		t.Fatal("warnings alone must not count as errors")
	}
	b.Add(Diagnostic{Severity: SevError, Code: TypeMismatch})
	if !b.HasErrors() {
		t.Fatal("error not detected")
	}
	if b.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", b.ErrorCount())
	}
}

func TestCodeID(t *testing.T) {
	if got := TypeMismatch.ID(); got != "EMB4001" {
		t.Errorf("TypeMismatch.ID() = %q", got)
	}
	if got := TypeMismatch.Stage(); got != "type" {
		t.Errorf("TypeMismatch.Stage() = %q", got)
	}
	if got := PurityStorageWrite.Stage(); got != "purity" {
		t.Errorf("PurityStorageWrite.Stage() = %q", got)
	}
}
