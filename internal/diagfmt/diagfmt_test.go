package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ember/internal/diag"
	"ember/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.em", []byte("fn bad() -> u64 {\n    true\n}\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.TypeMismatch,
		Message:  "expected u64, found bool",
		Primary:  source.Span{File: id, Start: 22, End: 26},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 12, End: 15}, Msg: "return type declared here"},
		},
	})
	return bag, fs, id
}

func TestPrettyOutput(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true})
	out := buf.String()

	for _, want := range []string{
		"main.em:2:5: ERROR EMB4001: expected u64, found bool",
		"    true",
		"^~~~",
		"note: return type declared here",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("escape codes present without Color")
	}
}

func TestPrettyTruncation(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.em", []byte("a\n"))
	bag := diag.NewBag(10)
	for i := 0; i < 5; i++ {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.SynUnexpectedToken,
			Message:  "bad",
			Primary:  source.Span{File: id, Start: 0, End: 1},
		})
	}
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Max: 2})
	if !strings.Contains(buf.String(), "... and 3 more") {
		t.Errorf("missing truncation marker:\n%s", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs, _ := sampleBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true})
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "EMB4001" || d.Severity != "ERROR" {
		t.Errorf("diag = %+v", d)
	}
	if d.Location.File != "main.em" || d.Location.Line != 2 || d.Location.Col != 5 {
		t.Errorf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "return type declared here" {
		t.Errorf("notes = %+v", d.Notes)
	}
}
