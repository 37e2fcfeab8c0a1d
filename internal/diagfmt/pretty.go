package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ember/internal/diag"
	"ember/internal/source"
)

// Pretty writes diagnostics in human-readable form. It walks
// bag.Items() in order, so callers sort the bag first. Each
// diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <source line>
//	    ^~~~~
//
// followed by notes and suggested fixes when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	for i := 0; i < maxItems; i++ {
		d := &items[i]
		printHeader(w, d, fs, opts.Color)
		printSnippet(w, d.Primary, fs)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				path, pos := fs.Position(n.Span)
				fmt.Fprintf(w, "    note: %s (%s:%d:%d)\n", n.Msg, path, pos.Line, pos.Col)
			}
		}
		if opts.ShowFixes {
			for _, f := range d.Fixes {
				fmt.Fprintf(w, "    help: %s\n", f.Title)
			}
		}
	}
	if maxItems < len(items) {
		fmt.Fprintf(w, "... and %d more\n", len(items)-maxItems)
	}
}

func printHeader(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, colored bool) {
	path, pos := fs.Position(d.Primary)
	sev := severityColor(d.Severity, colored)
	code := color.New(color.Bold)
	if !colored {
		code.DisableColor()
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		path, pos.Line, pos.Col,
		sev.Sprint(d.Severity.String()),
		code.Sprint(d.Code.ID()),
		d.Message)
}

// printSnippet shows the source line of the primary span with a caret
// underline. The pad is measured in display cells so the caret lines
// up under wide runes as well.
func printSnippet(w io.Writer, sp source.Span, fs *source.FileSet) {
	line := fs.Snippet(sp)
	if line == "" {
		return
	}
	_, pos := fs.Position(sp)
	col := int(pos.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := runewidth.StringWidth(line[:col])

	span := int(sp.Len())
	if span < 1 {
		span = 1
	}
	if col+span > len(line) {
		span = len(line) - col
	}
	underline := 1
	if span > 1 {
		underline = runewidth.StringWidth(line[col : col+span])
	}
	if underline < 1 {
		underline = 1
	}

	fmt.Fprintf(w, "    %s\n", line)
	fmt.Fprintf(w, "    %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", underline-1))
}

func severityColor(s diag.Severity, colored bool) *color.Color {
	var c *color.Color
	switch s {
	case diag.SevError:
		c = color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		c = color.New(color.FgYellow, color.Bold)
	default:
		c = color.New(color.FgCyan)
	}
	if !colored {
		c.DisableColor()
	}
	return c
}
