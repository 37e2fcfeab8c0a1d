package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/diagfmt"
	"ember/internal/lexer"
	"ember/internal/parser"
	"ember/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a source file and print its item outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := source.NewFileSet()
		id, err := fs.Load(args[0])
		if err != nil {
			return err
		}
		bag := diag.NewBag(flagMaxDiagnostics)
		reporter := &diag.BagReporter{Bag: bag}
		lx := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter})
		file := parser.ParseFile(lx, parser.Options{Reporter: reporter})

		printOutline(cmd.OutOrStdout(), file.Items, "")

		bag.Sort()
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{
			Color: colorEnabled(), ShowNotes: true,
		})
		if bag.HasErrors() {
			return fmt.Errorf("%d error(s)", bag.ErrorCount())
		}
		return nil
	},
}

func printOutline(w io.Writer, items []*ast.Item, indent string) {
	for _, it := range items {
		name := itemName(it)
		if name != "" {
			fmt.Fprintf(w, "%s%s %s\n", indent, it.Kind, name)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, it.Kind)
		}
		if mod, ok := it.Data.(*ast.ModItem); ok {
			printOutline(w, mod.Items, indent+"  ")
		}
	}
}

func itemName(it *ast.Item) string {
	switch d := it.Data.(type) {
	case *ast.ModItem:
		return d.Name.Name
	case *ast.UseItem:
		return d.Path.String()
	case *ast.FnItem:
		return d.Name.Name
	case *ast.StructItem:
		return d.Name.Name
	case *ast.EnumItem:
		return d.Name.Name
	case *ast.TraitItem:
		return d.Name.Name
	case *ast.ConstItem:
		return d.Name.Name
	case *ast.AbiItem:
		return d.Name.Name
	case *ast.StorageItem:
		if d.Namespace != "" {
			return "#[namespace(" + d.Namespace + ")]"
		}
		return ""
	default:
		return ""
	}
}
