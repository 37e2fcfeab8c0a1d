package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 15}
	got := a.Cover(b)
	if got.Start != 5 || got.End != 20 {
		t.Fatalf("Cover = %v, want 1:5-20", got)
	}

	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("Cover across files must be a no-op, got %v", got)
	}
}

func TestToLineCol(t *testing.T) {
	content := []byte("let a = 1;\nlet b = 2;\n")
	idx := buildLineIndex(content)

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{4, 1, 5},
		{10, 1, 11}, // the newline byte belongs to line 1
		{11, 2, 1},
		{15, 2, 5},
	}
	for _, tc := range cases {
		got := toLineCol(idx, tc.off)
		if got.Line != tc.line || got.Col != tc.col {
			t.Errorf("toLineCol(%d) = %d:%d, want %d:%d", tc.off, got.Line, got.Col, tc.line, tc.col)
		}
	}
}

func TestToLineColSingleLine(t *testing.T) {
	got := toLineCol(nil, 7)
	if got.Line != 1 || got.Col != 8 {
		t.Fatalf("toLineCol without newlines = %d:%d, want 1:8", got.Line, got.Col)
	}
}
