package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var buildOutDir string

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "out", "output directory")
}

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Compile a unit and write bytecode plus ABI",
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

		if err := os.MkdirAll(buildOutDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		name := unitName(in)
		bcPath := filepath.Join(buildOutDir, name+".embc")
		if err := os.WriteFile(bcPath, art.Bytecode, 0o644); err != nil {
			return fmt.Errorf("write bytecode: %w", err)
		}
		abiJSON, err := art.ABI.JSON()
		if err != nil {
			return fmt.Errorf("render abi: %w", err)
		}
		abiPath := filepath.Join(buildOutDir, name+"-abi.json")
		if err := os.WriteFile(abiPath, abiJSON, 0o644); err != nil {
			return fmt.Errorf("write abi: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "built %s (%d bytes) and %s\n",
			bcPath, len(art.Bytecode), abiPath)
		return nil
	},
}
