package lexer

import (
	"ember/internal/diag"
	"ember/internal/source"
)

// Options configures a Lexer instance.
type Options struct {
	// Reporter receives lexical diagnostics. May be nil; scanning
	// continues either way.
	Reporter diag.Reporter
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil, nil)
	}
}
