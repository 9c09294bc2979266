package driver

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
)

// Request is one program to lower in LowerAll.
type Request struct {
	Name    string
	Program *ast.Program
	Options Options
}

// Result pairs a request with its outcome. Exactly one of Artifact and Err
// is set.
type Result struct {
	Name     string
	Artifact *Artifact
	Err      error
}

// LowerAll lowers independent programs on at most jobs goroutines. Failures
// are recorded per result and collected into the returned bag; the error is
// non-nil only when ctx is cancelled.
func LowerAll(ctx context.Context, jobs int, reqs []Request) ([]Result, *diag.Bag, error) {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results, diag.NewBag(0), nil
	}
	if jobs <= 0 {
		jobs = 1
	}

	locks := make(map[io.Writer]*lockedWriter)
	guard := func(w io.Writer) io.Writer {
		if w == nil {
			return nil
		}
		if lw, ok := locks[w]; ok {
			return lw
		}
		lw := &lockedWriter{w: w}
		locks[w] = lw
		return lw
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))

	for i, req := range reqs {
		opts := req.Options
		opts.Err = guard(opts.Err)
		opts.Log = guard(opts.Log)
		if opts.ModuleName == "" {
			opts.ModuleName = req.Name
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			art, err := Lower(gctx, req.Program, opts)
			// ошибки программы не отменяют соседей
			results[i] = Result{Name: req.Name, Artifact: art, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, nil, err
	}
	if err := ctx.Err(); err != nil {
		return results, nil, err
	}

	bag := diag.NewBag(len(reqs))
	for _, r := range results {
		if r.Err != nil {
			bag.Add(diag.FromError(r.Name, r.Err))
		}
	}
	return results, bag, nil
}

// lockedWriter serialises writes to a shared stream. Callers hand it whole
// records (a rendered diagnostic, a module dump, the IR text) in one Write.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
