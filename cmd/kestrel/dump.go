package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kestrel/internal/ast"
	"kestrel/internal/astio"
	"kestrel/internal/backend/llvm"
	"kestrel/internal/mir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] program",
	Short: "Print a program as AST, backend module or IR",
	Args:  cobra.ExactArgs(1),
	RunE:  dumpExecution,
}

func init() {
	dumpCmd.Flags().String("what", "mir", "what to print (ast|mir|ir)")
	dumpCmd.Flags().String("to", "", "write the AST document to this path (.kast or .kast.yaml) instead of stdout")
}

func dumpExecution(cmd *cobra.Command, args []string) error {
	what, err := cmd.Flags().GetString("what")
	if err != nil {
		return err
	}
	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}

	prog, name, err := astio.ReadFile(args[0], ast.NewAllocator())
	if err != nil {
		return err
	}

	what = strings.ToLower(what)
	switch what {
	case "ast":
		if to != "" {
			return astio.WriteFile(to, name, prog)
		}
		doc, err := astio.Encode(name, prog)
		if err != nil {
			return err
		}
		return astio.Marshal(cmd.OutOrStdout(), doc, astio.FormatYAML)
	case "mir", "ir":
		if to != "" {
			return fmt.Errorf("--to only applies to --what=ast")
		}
		m, err := mir.LowerProgram(prog, mir.LowerOptions{ModuleName: name})
		if err != nil {
			return err
		}
		if err := mir.Validate(m); err != nil {
			return err
		}
		if what == "mir" {
			return mir.DumpModule(cmd.OutOrStdout(), m)
		}
		text, err := llvm.EmitModule(m, llvm.EmitOptions{})
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	default:
		return fmt.Errorf("invalid --what value %q (expected ast|mir|ir)", what)
	}
}
