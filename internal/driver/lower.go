package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kestrel/internal/ast"
	"kestrel/internal/backend/llvm"
	"kestrel/internal/diag"
	"kestrel/internal/mir"
	"kestrel/internal/observ"
	"kestrel/internal/trace"
)

// Lower runs lower, verify, emit and write for prog. On failure a diagnostic
// is rendered to opts.Err, no output file exists and the error is returned.
func Lower(ctx context.Context, prog *ast.Program, opts Options) (*Artifact, error) {
	name := moduleName(opts)
	ctx, span := trace.StartSpan(ctx, trace.ScopeDriver, "lower "+name)

	art, err := lower(ctx, prog, name, opts)
	if err != nil {
		span.WithExtra("code", diag.CodeOf(err).ID()).End("failed")
		reportError(opts, name, err)
		return nil, err
	}
	span.WithExtra("bytes", strconv.Itoa(len(art.Text))).End("")
	return art, nil
}

func lower(ctx context.Context, prog *ast.Program, name string, opts Options) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := observ.NewTimer()
	var (
		module *mir.Module
		text   string
	)

	err := runPhase(ctx, timer, opts.Observer, observ.PhaseLower, func(ctx context.Context) error {
		var err error
		module, err = mir.LowerProgram(prog, mir.LowerOptions{ModuleName: name})
		if err == nil {
			traceFuncs(ctx, module)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = runPhase(ctx, timer, opts.Observer, observ.PhaseVerify, func(context.Context) error {
		return mir.Validate(module)
	})
	if err != nil {
		return nil, err
	}
	if opts.DumpMIR && opts.Log != nil {
		// дамп уходит в лог одним Write
		var dump bytes.Buffer
		err := mir.DumpModule(&dump, module)
		if err == nil {
			_, err = opts.Log.Write(dump.Bytes())
		}
		if err != nil {
			return nil, diag.Wrap(diag.IOError, ast.NoNodeID, err, "dump backend module")
		}
	}

	err = runPhase(ctx, timer, opts.Observer, observ.PhaseEmit, func(context.Context) error {
		var err error
		text, err = llvm.EmitModule(module, llvm.EmitOptions{TargetTriple: opts.TargetTriple})
		if err != nil {
			return diag.Wrap(diag.VerificationError, ast.NoNodeID, err, "emit module %s", name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// no file may exist when the echo fails
	if (opts.OutputFilePath == "" || opts.PrintIR) && opts.Log != nil {
		if _, err := io.WriteString(opts.Log, text); err != nil {
			return nil, diag.Wrap(diag.IOError, ast.NoNodeID, err, "echo IR")
		}
	}

	art := &Artifact{Name: name, Text: text, Module: module}
	if opts.OutputFilePath != "" {
		err = runPhase(ctx, timer, opts.Observer, observ.PhaseWrite, func(context.Context) error {
			if err := writeFileAtomic(opts.OutputFilePath, []byte(text)); err != nil {
				return diag.Wrap(diag.IOError, ast.NoNodeID, err, "write %s", opts.OutputFilePath)
			}
			art.Path = opts.OutputFilePath
			if opts.RemoveIRFile {
				if err := os.Remove(opts.OutputFilePath); err != nil {
					return diag.Wrap(diag.IOError, ast.NoNodeID, err, "remove %s", opts.OutputFilePath)
				}
				art.Path = ""
				art.Removed = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	art.Timing = timer.Report()
	return art, nil
}

func runPhase(ctx context.Context, timer *observ.Timer, obs PhaseObserver, name string, fn func(context.Context) error) error {
	ctx, span := trace.StartSpan(ctx, trace.ScopePass, name)
	if obs != nil {
		obs(PhaseEvent{Name: name, Status: PhaseStart})
	}
	start := time.Now()
	err := timer.Track(name, func() error { return fn(ctx) })
	if obs != nil {
		obs(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start), Err: err})
	}
	if err != nil {
		span.End(err.Error())
		return err
	}
	span.End("")
	return nil
}

func traceFuncs(ctx context.Context, m *mir.Module) {
	t := trace.FromContext(ctx)
	if !t.Level().ShouldEmit(trace.ScopeFunc) {
		return
	}
	for _, f := range m.Funcs {
		trace.Point(ctx, trace.ScopeFunc, f.Name, fmt.Sprintf("blocks=%d locals=%d", len(f.Blocks), len(f.Locals)))
	}
}

func moduleName(opts Options) string {
	if opts.ModuleName != "" {
		return opts.ModuleName
	}
	if opts.OutputFilePath != "" {
		base := filepath.Base(opts.OutputFilePath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "main"
}

func reportError(opts Options, name string, err error) {
	if opts.Err == nil || errors.Is(err, context.Canceled) {
		return
	}
	d := diag.FromError(name, err)
	var buf bytes.Buffer
	if diag.Render(&buf, &d, diag.RenderOpts{Color: opts.Color}) != nil {
		return
	}
	// rendering failures have nowhere else to go
	_, _ = opts.Err.Write(buf.Bytes()) //nolint:errcheck
}
