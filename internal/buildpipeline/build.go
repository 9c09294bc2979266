// Package buildpipeline lowers a set of AST documents to LLVM IR files and
// reports progress while doing so.
package buildpipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kestrel/internal/ast"
	"kestrel/internal/astio"
	"kestrel/internal/diag"
	"kestrel/internal/driver"
	"kestrel/internal/trace"
)

// Input is one AST document to build.
type Input struct {
	Path string
	// Output overrides the IR path derived from OutDir.
	Output string
}

// BuildRequest configures a multi-program build.
type BuildRequest struct {
	Inputs []Input
	// OutDir receives <name>.ll files. Empty writes next to each input.
	OutDir       string
	RemoveIRFile bool
	PrintIR      bool
	EmitMIR      bool
	TargetTriple string
	Jobs         int
	Progress     ProgressSink
	Err          io.Writer
	Log          io.Writer
	Color        bool
}

// BuildResult captures per-program outcomes and timings.
type BuildResult struct {
	Results     []driver.Result
	Diagnostics *diag.Bag
	Timings     Timings
}

// Failed counts programs that did not produce IR.
func (r BuildResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

type loaded struct {
	name    string
	program *ast.Program
	err     error
	elapsed time.Duration
}

// Build loads every input, lowers the programs in parallel and writes one IR
// file per program. A failing program does not stop the others; the returned
// error summarises the failures.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	ctx, span := trace.StartSpan(ctx, trace.ScopeDriver, "build")
	defer span.End("")

	files := make([]string, len(req.Inputs))
	for i, in := range req.Inputs {
		files[i] = in.Path
	}
	emitQueued(req.Progress, files)

	progs, err := loadAll(ctx, req)
	if err != nil {
		return result, err
	}

	var (
		mu      sync.Mutex
		timings Timings
	)
	for _, p := range progs {
		timings.Add(StageLoad, p.elapsed)
	}

	// индексы requests не совпадают с inputs, если загрузка упала
	var (
		reqs  []driver.Request
		owner []int
	)
	result.Results = make([]driver.Result, len(req.Inputs))
	loadBag := diag.NewBag(len(req.Inputs))
	reject := func(i int, name string, stage Stage, err error, elapsed time.Duration) {
		result.Results[i] = driver.Result{Name: name, Err: err}
		d := diag.FromError(name, err)
		loadBag.Add(d)
		if req.Err != nil {
			_ = diag.Render(req.Err, &d, diag.RenderOpts{Color: req.Color}) //nolint:errcheck
		}
		emitFile(req.Progress, req.Inputs[i].Path, stage, StatusError, err, elapsed)
	}
	claimed := make(map[string]string, len(req.Inputs))
	for i, p := range progs {
		file := req.Inputs[i].Path
		if p.err != nil {
			reject(i, p.name, StageLoad, diag.Wrap(diag.IOError, ast.NoNodeID, p.err, "load %s", file), p.elapsed)
			continue
		}
		out := outputPath(req, req.Inputs[i], p.name)
		key := outputKey(out)
		if first, dup := claimed[key]; dup {
			reject(i, p.name, StageWrite, diag.Errorf(diag.IOError, ast.NoNodeID, "output %s is already produced by %s", out, first), 0)
			continue
		}
		claimed[key] = file
		obs := &phaseObserver{sink: req.Progress, file: file, record: func(stage Stage, d time.Duration) {
			mu.Lock()
			timings.Add(stage, d)
			mu.Unlock()
		}}
		reqs = append(reqs, driver.Request{
			Name:    p.name,
			Program: p.program,
			Options: driver.Options{
				OutputFilePath: out,
				RemoveIRFile:   req.RemoveIRFile,
				Err:            req.Err,
				Log:            req.Log,
				ModuleName:     p.name,
				TargetTriple:   req.TargetTriple,
				PrintIR:        req.PrintIR,
				DumpMIR:        req.EmitMIR,
				Color:          req.Color,
				Observer:       obs.OnPhase,
			},
		})
		owner = append(owner, i)
	}

	lowered, bag, err := driver.LowerAll(ctx, req.Jobs, reqs)
	if err != nil {
		return result, err
	}
	for j, res := range lowered {
		i := owner[j]
		result.Results[i] = res
		status := StatusDone
		if res.Err != nil {
			status = StatusError
		}
		emitFile(req.Progress, req.Inputs[i].Path, StageWrite, status, res.Err, 0)
	}

	loadBag.Merge(bag)
	loadBag.Sort()
	result.Diagnostics = loadBag
	result.Timings = timings

	if failed := result.Failed(); failed > 0 {
		err := fmt.Errorf("build failed: %d of %d programs had errors", failed, len(req.Inputs))
		emitStage(req.Progress, StageWrite, StatusError, err)
		return result, err
	}
	emitStage(req.Progress, StageWrite, StatusDone, nil)
	return result, nil
}

func loadAll(ctx context.Context, req *BuildRequest) ([]loaded, error) {
	out := make([]loaded, len(req.Inputs))
	if len(req.Inputs) == 0 {
		return out, nil
	}
	emitStage(req.Progress, StageLoad, StatusWorking, nil)
	alloc := ast.NewAllocator()

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Inputs)))
	for i, in := range req.Inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emitFile(req.Progress, in.Path, StageLoad, StatusWorking, nil, 0)
			start := time.Now()
			prog, name, err := astio.ReadFile(in.Path, alloc)
			if name == "" {
				name = astio.ProgramName(in.Path)
			}
			out[i] = loaded{name: name, program: prog, err: err, elapsed: time.Since(start)}
			trace.Point(gctx, trace.ScopeProgram, name, "loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func outputPath(req *BuildRequest, in Input, name string) string {
	if in.Output != "" {
		return in.Output
	}
	if req.OutDir != "" {
		return filepath.Join(req.OutDir, name+".ll")
	}
	return filepath.Join(filepath.Dir(in.Path), name+".ll")
}

// outputKey identifies an output file independent of how its path is spelled.
func outputKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
