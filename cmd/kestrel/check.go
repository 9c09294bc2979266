package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kestrel/internal/ast"
	"kestrel/internal/astio"
	"kestrel/internal/diag"
	"kestrel/internal/diagfmt"
	"kestrel/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] program...",
	Short: "Lower and verify programs without writing IR",
	Args:  cobra.MinimumNArgs(1),
	RunE:  checkExecution,
}

func init() {
	checkCmd.Flags().IntP("jobs", "j", 1, "programs checked in parallel")
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
	checkCmd.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = all)")
}

func checkExecution(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	maxDiags, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	colorOn, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}

	alloc := ast.NewAllocator()
	bag := diag.NewBag(len(args))
	reqs := make([]driver.Request, 0, len(args))
	for _, path := range args {
		prog, name, err := astio.ReadFile(path, alloc)
		if err != nil {
			bag.Add(diag.FromError(astio.ProgramName(path), diag.Wrap(diag.IOError, ast.NoNodeID, err, "load %s", path)))
			continue
		}
		reqs = append(reqs, driver.Request{Name: name, Program: prog})
	}

	results, lowerBag, err := driver.LowerAll(cmd.Context(), jobs, reqs)
	if err != nil {
		return err
	}
	bag.Merge(lowerBag)
	bag.Sort()
	switch strings.ToLower(format) {
	case "json":
		if err := diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{Max: maxDiags, IncludeNotes: true}); err != nil {
			return err
		}
	case "pretty":
		shown := bag
		if maxDiags > 0 && bag.Len() > maxDiags {
			shown = diag.NewBag(maxDiags)
			for _, d := range bag.Items() {
				shown.Add(d)
			}
		}
		if err := diag.RenderBag(cmd.ErrOrStderr(), shown, diag.RenderOpts{Color: colorOn}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid --format value %q (expected pretty|json)", format)
	}
	if !quiet(cmd) && strings.ToLower(format) == "pretty" {
		for _, r := range results {
			if r.Err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "ok %s (%d funcs)\n", r.Name, len(r.Artifact.Module.Funcs))
			}
		}
	}
	if bag.HasErrors() {
		dumpTraceRing(cmd, cmd.ErrOrStderr())
		return fmt.Errorf("check failed: %d diagnostics", bag.Len())
	}
	return nil
}
