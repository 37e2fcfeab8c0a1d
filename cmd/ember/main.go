package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ember/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Ember language compiler and toolchain",
	Long:  "Ember compiles contract-oriented programs to register bytecode",

	SilenceUsage:      true,
	PersistentPreRunE: applyColorMode,
}

var (
	flagColor          string
	flagMaxDiagnostics int
	flagTimings        bool
	flagNoCache        bool
)

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(abiCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().IntVar(&flagMaxDiagnostics, "max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().BoolVar(&flagTimings, "timings", false, "show per-stage timing information")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "bypass the artifact cache")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func applyColorMode(cmd *cobra.Command, args []string) error {
	switch flagColor {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color %q (must be auto, on, or off)", flagColor)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func colorEnabled() bool {
	return !color.NoColor
}
