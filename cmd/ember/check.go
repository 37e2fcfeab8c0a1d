package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Compile a unit without writing artifacts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := resolveInput(args)
		if err != nil {
			return err
		}
		opts, err := driverOptions(false)
		if err != nil {
			return err
		}
		art, err := compileAndReport(cmd, in, opts)
		if err != nil {
			return err
		}
		if n := art.Diags.Len(); n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "ok with %d warning(s)\n", n)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}
