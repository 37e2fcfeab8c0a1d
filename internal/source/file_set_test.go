package source

import "testing"

func TestFileSetAddVirtual(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.em", []byte("\xEF\xBB\xBFfn main() {}\r\n"))

	f := fs.Get(id)
	if f == nil {
		t.Fatal("Get returned nil for a fresh file")
	}
	if f.Flags&FileHadBOM == 0 {
		t.Error("BOM flag not recorded")
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("CRLF flag not recorded")
	}
	if string(f.Content) != "fn main() {}\n" {
		t.Errorf("content not normalized: %q", f.Content)
	}
}

func TestFileSetByPath(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("a/../lib.em", []byte("const A: u64 = 1;"))
	second := fs.AddVirtual("lib.em", []byte("const A: u64 = 2;"))

	f, ok := fs.ByPath("lib.em")
	if !ok {
		t.Fatal("ByPath missed normalized path")
	}
	if f.ID != second {
		t.Errorf("ByPath returned %d, want latest %d (first was %d)", f.ID, second, first)
	}
}

func TestSnippet(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t.em", []byte("fn a() {}\nfn b() {}\n"))
	got := fs.Snippet(Span{File: id, Start: 13, End: 14})
	if got != "fn b() {}" {
		t.Errorf("Snippet = %q, want second line", got)
	}
}
