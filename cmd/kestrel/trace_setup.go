package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kestrel/internal/trace"
)

type traceFlags struct {
	output   string
	level    string
	mode     string
	format   string
	ringSize int
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	fs := cmd.Root().PersistentFlags()
	var (
		tf   traceFlags
		errs []error
	)
	for name, dst := range map[string]*string{
		"trace":        &tf.output,
		"trace-level":  &tf.level,
		"trace-mode":   &tf.mode,
		"trace-format": &tf.format,
	} {
		v, err := fs.GetString(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", name, err))
		}
		*dst = v
	}
	n, err := fs.GetInt("trace-ring-size")
	if err != nil {
		errs = append(errs, fmt.Errorf("--trace-ring-size: %w", err))
	}
	tf.ringSize = n
	return tf, errors.Join(errs...)
}

// config turns the flags into a tracer configuration. A bare --trace means
// phase tracing; with neither flag set the level stays off.
func (tf traceFlags) config() (trace.Config, error) {
	level, err := trace.ParseLevel(tf.level)
	if err != nil {
		return trace.Config{}, err
	}
	if level == trace.LevelOff && tf.output != "" {
		level = trace.LevelPhase
	}
	cfg := trace.Config{Level: level, OutputPath: tf.output, RingSize: tf.ringSize}
	if level == trace.LevelOff {
		return cfg, nil
	}
	if cfg.Mode, err = trace.ParseMode(tf.mode); err != nil {
		return cfg, err
	}
	if cfg.Format, err = trace.ParseFormat(tf.format); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupTracing installs the tracer selected by the trace flags into the
// command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	tf, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := tf.config()
	if err != nil {
		return nil, err
	}
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	session, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("trace session id: %w", err)
	}
	cfg.Session = session.String()

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	return func() {
		if err := errors.Join(tracer.Flush(), tracer.Close()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
	}, nil
}

// dumpTraceRing writes the ring buffer, if tracing keeps one, after a failed
// command.
func dumpTraceRing(cmd *cobra.Command, w io.Writer) {
	ring, ok := trace.RingOf(trace.FromContext(cmd.Context()))
	if !ok {
		return
	}
	fmt.Fprintln(w, "trace: last events")
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
