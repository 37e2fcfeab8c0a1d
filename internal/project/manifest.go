// Package project handles ember.toml manifests and workspace file
// discovery. Dependency fetching is the package manager's job; the
// manifest only names what this unit is and which files feed the
// compiler.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Kind classifies what a compiled unit deploys as.
type Kind uint8

const (
	KindContract Kind = iota
	KindScript
	KindPredicate
	KindLibrary
)

func (k Kind) String() string {
	switch k {
	case KindContract:
		return "contract"
	case KindScript:
		return "script"
	case KindPredicate:
		return "predicate"
	case KindLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// ParseKind maps the manifest's kind string.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "contract":
		return KindContract, true
	case "script":
		return KindScript, true
	case "predicate":
		return KindPredicate, true
	case "library":
		return KindLibrary, true
	default:
		return 0, false
	}
}

// Manifest is a parsed ember.toml.
type Manifest struct {
	Path string // manifest file location, "" for in-memory manifests
	Root string // directory containing the manifest

	Package      PackageSection    `toml:"package"`
	Dependencies map[string]string `toml:"dependencies"`
}

// PackageSection is the [package] table.
type PackageSection struct {
	Name  string `toml:"name"`
	Kind  string `toml:"kind"`
	Entry string `toml:"entry"`
}

// UnitKind returns the parsed package kind.
func (m *Manifest) UnitKind() Kind {
	k, _ := ParseKind(m.Package.Kind)
	return k
}

// EntryPath resolves the entry file relative to the manifest root.
func (m *Manifest) EntryPath() string {
	entry := m.Package.Entry
	if entry == "" {
		entry = "src/main.em"
	}
	return filepath.Join(m.Root, filepath.FromSlash(entry))
}

// FindEmberToml walks up from startDir to locate ember.toml.
func FindEmberToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "ember.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest reads and validates an ember.toml.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is provided by the caller
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	m.Root = filepath.Dir(path)
	return m, nil
}

// ParseManifest validates manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if !meta.IsDefined("package") {
		return nil, errors.New("missing [package]")
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return nil, errors.New("missing [package].name")
	}
	if m.Package.Kind == "" {
		m.Package.Kind = "contract"
	}
	if _, ok := ParseKind(m.Package.Kind); !ok {
		return nil, fmt.Errorf("unknown [package].kind %q", m.Package.Kind)
	}
	return &m, nil
}
