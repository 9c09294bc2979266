package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kestrel/internal/buildpipeline"
	"kestrel/internal/diag"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [program...]",
	Short: "Lower AST documents to LLVM IR files",
	Long: `Lower each AST document to an .ll file. Without arguments the programs
listed in kestrel.toml are built.`,
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().StringP("out", "o", "", "output IR path (single program only)")
	buildCmd.Flags().String("out-dir", "", "directory for <name>.ll files")
	buildCmd.Flags().Bool("remove-ir", false, "delete the IR file after emission")
	buildCmd.Flags().Bool("print-ir", false, "echo the IR to stdout")
	buildCmd.Flags().Bool("emit-mir", false, "dump the verified backend module to stdout")
	buildCmd.Flags().IntP("jobs", "j", 0, "programs lowered in parallel (0 = manifest or 1)")
	buildCmd.Flags().String("target", "", "target triple written into the module")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	req, err := buildRequestFromFlags(cmd, args)
	if err != nil {
		return err
	}
	mode, err := toggleFlag(cmd, "ui")
	if err != nil {
		return err
	}
	colorOn, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	req.Color = colorOn
	req.Err = cmd.ErrOrStderr()
	req.Log = cmd.OutOrStdout()

	var res buildpipeline.BuildResult
	// TUI рисует прогресс, поэтому диагностики печатаем после него
	if mode.enabledFor(os.Stdout) && !quiet(cmd) && !req.PrintIR && !req.EmitMIR {
		req.Err = nil
		res, err = runBuildWithUI(cmd.Context(), "kestrel build", req)
		if res.Diagnostics != nil {
			if rerr := diag.RenderBag(cmd.ErrOrStderr(), res.Diagnostics, diag.RenderOpts{Color: colorOn}); rerr != nil {
				return rerr
			}
		}
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}

	if showTimings(cmd) {
		printStageTimings(cmd.ErrOrStderr(), res.Timings)
	}
	if err != nil {
		dumpTraceRing(cmd, cmd.ErrOrStderr())
		return err
	}
	if !quiet(cmd) {
		for _, r := range res.Results {
			if r.Artifact == nil {
				continue
			}
			switch {
			case r.Artifact.Removed:
				fmt.Fprintf(cmd.ErrOrStderr(), "built %s (IR removed)\n", r.Name)
			case r.Artifact.Path != "":
				fmt.Fprintf(cmd.ErrOrStderr(), "built %s -> %s\n", r.Name, r.Artifact.Path)
			}
		}
	}
	return nil
}

// buildRequestFromFlags merges command-line flags over kestrel.toml. Explicit
// program arguments bypass the manifest's program list but keep its [build]
// defaults.
func buildRequestFromFlags(cmd *cobra.Command, args []string) (*buildpipeline.BuildRequest, error) {
	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		return nil, err
	}
	req := &buildpipeline.BuildRequest{Jobs: 1}
	if found {
		req.Inputs = manifest.inputs()
		req.OutDir = manifest.outDir()
		req.RemoveIRFile = manifest.Config.Build.RemoveIRFile
		req.TargetTriple = manifest.Config.Build.TargetTriple
		if manifest.Config.Build.Jobs > 0 {
			req.Jobs = manifest.Config.Build.Jobs
		}
	}
	if len(args) > 0 {
		req.Inputs = nil
		for _, a := range args {
			req.Inputs = append(req.Inputs, buildpipeline.Input{Path: a})
		}
	}
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("%s", noManifestMessage)
	}

	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		if req.OutDir, err = flags.GetString("out-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("remove-ir") {
		if req.RemoveIRFile, err = flags.GetBool("remove-ir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("target") {
		if req.TargetTriple, err = flags.GetString("target"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("jobs") {
		if req.Jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, err
		}
		if req.Jobs < 1 {
			return nil, fmt.Errorf("--jobs must be at least 1")
		}
	}
	if req.PrintIR, err = flags.GetBool("print-ir"); err != nil {
		return nil, err
	}
	if req.EmitMIR, err = flags.GetBool("emit-mir"); err != nil {
		return nil, err
	}
	out, err := flags.GetString("out")
	if err != nil {
		return nil, err
	}
	if out != "" {
		if len(req.Inputs) != 1 {
			return nil, fmt.Errorf("--out needs exactly one program, got %d", len(req.Inputs))
		}
		req.Inputs[0].Output = out
	}
	return req, nil
}
