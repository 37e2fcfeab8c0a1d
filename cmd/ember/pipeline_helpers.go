package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ember/internal/diagfmt"
	"ember/internal/driver"
	"ember/internal/project"
)

// resolveInput turns command arguments into a compilation unit. A .em
// file argument compiles alone; a directory argument (or no argument)
// resolves through ember.toml and pulls in every source file under
// the project root.
func resolveInput(args []string) (driver.CompileInput, error) {
	var in driver.CompileInput

	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	info, err := os.Stat(target)
	if err == nil && !info.IsDir() {
		if filepath.Ext(target) != ".em" {
			return in, fmt.Errorf("%s: not an .em source file", target)
		}
		in.Files = []driver.SourceInput{{Path: target}}
		return in, nil
	}
	if err != nil && len(args) > 0 {
		return in, fmt.Errorf("stat %s: %w", target, err)
	}

	manifestPath, ok, err := project.FindEmberToml(target)
	if err != nil {
		return in, err
	}
	if !ok {
		return in, fmt.Errorf("no ember.toml found from %s; pass a source file explicitly", target)
	}
	manifest, err := project.LoadManifest(manifestPath)
	if err != nil {
		return in, err
	}
	files, err := project.SourceFiles(manifest.Root)
	if err != nil {
		return in, err
	}
	if len(files) == 0 {
		return in, fmt.Errorf("%s: no .em files under project root", manifest.Root)
	}
	in.Manifest = manifest
	for _, f := range files {
		in.Files = append(in.Files, driver.SourceInput{Path: f})
	}
	return in, nil
}

func driverOptions(withCache bool) (driver.Options, error) {
	opts := driver.Options{
		MaxDiagnostics: flagMaxDiagnostics,
		Timings:        flagTimings,
	}
	if withCache && !flagNoCache {
		cache, err := driver.OpenArtifactCache("ember")
		if err != nil {
			return opts, fmt.Errorf("open artifact cache: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}

// compileAndReport runs the driver and renders diagnostics to stderr.
// The returned error is non-nil when error diagnostics block the
// artifacts, so cobra exits non-zero.
func compileAndReport(cmd *cobra.Command, in driver.CompileInput, opts driver.Options) (*driver.Artifacts, error) {
	art, err := driver.Compile(cmd.Context(), in, opts)
	if err != nil {
		return nil, err
	}
	diagfmt.Pretty(cmd.ErrOrStderr(), art.Diags, art.FileSet, diagfmt.PrettyOpts{
		Color:     colorEnabled(),
		ShowNotes: true,
		ShowFixes: true,
		Max:       flagMaxDiagnostics,
	})
	if flagTimings {
		printTimings(cmd, art.Timings)
	}
	if art.Diags.HasErrors() {
		return art, fmt.Errorf("%d error(s)", art.Diags.ErrorCount())
	}
	return art, nil
}

func printTimings(cmd *cobra.Command, timings []driver.StageTiming) {
	if len(timings) == 0 {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, "timings:")
	for _, s := range timings {
		fmt.Fprintf(w, "  %-10s %s\n", s.Stage, s.Elapsed)
	}
}

// unitName picks the output base name: the manifest package name, or
// the first source file's stem.
func unitName(in driver.CompileInput) string {
	if in.Manifest != nil && in.Manifest.Package.Name != "" {
		return in.Manifest.Package.Name
	}
	if len(in.Files) > 0 {
		base := filepath.Base(in.Files[0].Path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "out"
}
