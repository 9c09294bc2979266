package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kestrel/internal/prof"
)

var profSession *prof.Session

func startProfiling(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return err
	}
	if cfg.Mem, err = flags.GetString("mem-profile"); err != nil {
		return err
	}
	if cfg.Trace, err = flags.GetString("go-trace"); err != nil {
		return err
	}
	if !cfg.Enabled() {
		return nil
	}
	profSession, err = prof.Start(cfg)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	return nil
}

// stopProfiling runs after Execute so failed commands still flush profiles.
func stopProfiling() {
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
	}
	profSession = nil
}
