// Package diagfmt renders collected diagnostics for humans and for
// machine consumers. Pretty output prints one block per diagnostic
// with the offending source line and a caret underline; JSON output
// mirrors the same data for editors and CI.
package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	ShowFixes bool
	// Max truncates the output, not the bag. Zero prints everything.
	Max int
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	// IncludePositions adds line/col to every location.
	IncludePositions bool
	IncludeNotes     bool
	IncludeFixes     bool
	Max              int
}
