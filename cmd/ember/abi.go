package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var abiCmd = &cobra.Command{
	Use:   "abi [path]",
	Short: "Compile a unit and print its ABI descriptor as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := resolveInput(args)
		if err != nil {
			return err
		}
		opts, err := driverOptions(true)
		if err != nil {
			return err
		}
		art, err := compileAndReport(cmd, in, opts)
		if err != nil {
			return err
		}
		out, err := art.ABI.JSON()
		if err != nil {
			return fmt.Errorf("render abi: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
		return nil
	},
}
