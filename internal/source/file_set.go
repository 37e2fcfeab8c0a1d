package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages the source files of one compilation and resolves
// byte offsets into line/column positions.
type FileSet struct {
	files []File
	index map[string]FileID // path -> id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and
// returns a new FileID. A later Add of the same path shadows the earlier
// entry in the path index but never invalidates issued FileIDs.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// AddVirtual registers in-memory content (tests, stdin, LSP snapshots).
func (fileSet *FileSet) AddVirtual(path string, content []byte) FileID {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileVirtual
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags)
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load source file: %w", err)
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// Get returns the file for id, or nil when id is out of range.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// ByPath returns the latest file registered under path.
func (fileSet *FileSet) ByPath(path string) (*File, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	if !ok {
		return nil, false
	}
	return &fileSet.files[id], true
}

// Len returns the number of registered files.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Files returns the registered files in registration order. Read-only.
func (fileSet *FileSet) Files() []File {
	return fileSet.files
}

// Position resolves a span start into a human-readable position.
func (fileSet *FileSet) Position(sp Span) (string, LineCol) {
	f := fileSet.Get(sp.File)
	if f == nil {
		return "<unknown>", LineCol{Line: 1, Col: 1}
	}
	return f.Path, toLineCol(f.LineIdx, sp.Start)
}

// Snippet returns the full source line containing off, without the
// trailing newline.
func (fileSet *FileSet) Snippet(sp Span) string {
	f := fileSet.Get(sp.File)
	if f == nil {
		return ""
	}
	start := sp.Start
	for start > 0 && f.Content[start-1] != '\n' {
		start--
	}
	end := sp.Start
	for int(end) < len(f.Content) && f.Content[end] != '\n' {
		end++
	}
	return string(f.Content[start:end])
}
