package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`
[package]
name = "counter"
kind = "contract"
entry = "src/main.em"

[dependencies]
std_math = "../std_math"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Package.Name != "counter" || m.UnitKind() != KindContract {
		t.Errorf("package = %+v", m.Package)
	}
	if m.Dependencies["std_math"] != "../std_math" {
		t.Errorf("dependencies = %+v", m.Dependencies)
	}
}

func TestParseManifestDefaultsKind(t *testing.T) {
	m, err := ParseManifest([]byte("[package]\nname = \"x\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.UnitKind() != KindContract {
		t.Errorf("kind = %s, want contract", m.UnitKind())
	}
}

func TestParseManifestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"no package", "[dependencies]\n"},
		{"no name", "[package]\nkind = \"script\"\n"},
		{"bad kind", "[package]\nname = \"x\"\nkind = \"daemon\"\n"},
		{"bad toml", "[package\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tc.input)); err == nil {
				t.Error("accepted")
			}
		})
	}
}

func TestFindEmberToml(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(root, "ember.toml")
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := FindEmberToml(sub)
	if err != nil || !ok {
		t.Fatalf("find: %v, %t", err, ok)
	}
	if got != manifest {
		t.Errorf("found %q, want %q", got, manifest)
	}
}

func TestSourceFilesSortedAndFiltered(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"b.em", "a.em",
		filepath.Join("src", "lib.em"),
		filepath.Join("out", "ignored.em"),
		filepath.Join(".git", "ignored.em"),
		"notes.txt",
	} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("fn main() {}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := SourceFiles(root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.em"),
		filepath.Join(root, "b.em"),
		filepath.Join(root, "src", "lib.em"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestCombineOrderSensitive(t *testing.T) {
	a, b := HashBytes([]byte("a")), HashBytes([]byte("b"))
	if Combine(a, b) == Combine(b, a) {
		t.Error("combine ignores order")
	}
	if Combine(a) == a {
		t.Error("combine of one digest must still rehash")
	}
}
