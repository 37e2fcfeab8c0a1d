package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ember/internal/diag"
	"ember/internal/diagfmt"
	"ember/internal/lexer"
	"ember/internal/source"
	"ember/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Lex a source file and print its token stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := source.NewFileSet()
		id, err := fs.Load(args[0])
		if err != nil {
			return err
		}
		bag := diag.NewBag(flagMaxDiagnostics)
		lx := lexer.New(fs.Get(id), lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})

		out := cmd.OutOrStdout()
		for {
			tok := lx.Next()
			_, pos := fs.Position(tok.Span)
			fmt.Fprintf(out, "%4d:%-3d %-14s %q\n", pos.Line, pos.Col, tok.Kind, tok.Text)
			if tok.Kind == token.EOF {
				break
			}
		}

		bag.Sort()
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: colorEnabled()})
		if bag.HasErrors() {
			return fmt.Errorf("%d error(s)", bag.ErrorCount())
		}
		return nil
	},
}
