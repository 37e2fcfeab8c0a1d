package diag

import (
	"ember/internal/source"
)

// Note attaches a secondary span with an explanatory message.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is a single text replacement of a suggested fix.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested source edit the CLI or an editor may apply.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is one reported finding with its primary location.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// WithFix returns a copy of d with an additional suggested fix.
func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}
