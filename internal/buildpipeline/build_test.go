package buildpipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/internal/ast"
	"kestrel/internal/astio"
	"kestrel/internal/diag"
	"kestrel/internal/testkit"
	"kestrel/internal/types"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) last(file string) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].File == file {
			return s.events[i], true
		}
	}
	return Event{}, false
}

func writeProgram(t *testing.T, dir, file string, prog *ast.Program) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, astio.WriteFile(path, "", prog))
	return path
}

func mismatched() *ast.Program {
	b := ast.NewBuilder(nil, ast.Hints{})
	sum := b.NewBinOp(types.Int32, "+", b.NewConstant(types.IntValue(1)), b.NewConstant(types.BoolValue(true)))
	b.AddDecl(b.NewFunc("f", types.Int32, nil, false, []ast.NodeID{b.NewReturn(sum)}))
	return b.Program()
}

func TestBuildAll(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "ir")
	printPath := writeProgram(t, src, "print.kast.yaml", testkit.PrintScenario(nil))
	countPath := writeProgram(t, src, "countdown.kast", testkit.CountdownScenario(nil))

	sink := &recordingSink{}
	res, err := Build(context.Background(), &BuildRequest{
		Inputs:   []Input{{Path: printPath}, {Path: countPath}},
		OutDir:   out,
		Jobs:     2,
		Progress: sink,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 0, res.Failed())
	assert.Equal(t, 0, res.Diagnostics.Len())

	for _, name := range []string{"print", "countdown"} {
		data, err := os.ReadFile(filepath.Join(out, name+".ll"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "; ModuleID = '"+name+"'")
	}
	assert.Equal(t, "countdown", res.Results[1].Artifact.Name)

	for _, stage := range Stages {
		assert.True(t, res.Timings.Has(stage), stage)
	}
	for _, file := range []string{printPath, countPath} {
		ev, ok := sink.last(file)
		require.True(t, ok)
		assert.Equal(t, StatusDone, ev.Status)
	}
}

func TestBuildKeepsGoingPastFailures(t *testing.T) {
	src := t.TempDir()
	good := writeProgram(t, src, "good.kast.yaml", testkit.PrintScenario(nil))
	bad := writeProgram(t, src, "bad.kast.yaml", mismatched())
	missing := filepath.Join(src, "missing.kast")

	var errOut bytes.Buffer
	sink := &recordingSink{}
	res, err := Build(context.Background(), &BuildRequest{
		Inputs:   []Input{{Path: bad}, {Path: missing}, {Path: good}},
		Jobs:     3,
		Progress: sink,
		Err:      &errOut,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3")
	assert.Equal(t, 2, res.Failed())

	require.Equal(t, 2, res.Diagnostics.Len())
	items := res.Diagnostics.Items()
	assert.Equal(t, "bad", items[0].Program)
	assert.Equal(t, diag.TypeError, items[0].Code)
	assert.Equal(t, "missing", items[1].Program)
	assert.Equal(t, diag.IOError, items[1].Code)
	assert.Contains(t, errOut.String(), "bad: error[KT1001]")
	assert.Contains(t, errOut.String(), "missing: error[KT3001]")

	_, statErr := os.Stat(filepath.Join(src, "good.ll"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(src, "bad.ll"))
	assert.True(t, os.IsNotExist(statErr))

	ev, ok := sink.last(bad)
	require.True(t, ok)
	assert.Equal(t, StatusError, ev.Status)
	ev, ok = sink.last(missing)
	require.True(t, ok)
	assert.Equal(t, StageLoad, ev.Stage)
	assert.Equal(t, StatusError, ev.Status)
}

func TestBuildOutputOverride(t *testing.T) {
	src := t.TempDir()
	in := writeProgram(t, src, "p.kast", testkit.PrintScenario(nil))
	target := filepath.Join(t.TempDir(), "custom.ll")

	res, err := Build(context.Background(), &BuildRequest{
		Inputs: []Input{{Path: in, Output: target}},
	})
	require.NoError(t, err)
	assert.Equal(t, target, res.Results[0].Artifact.Path)
	_, err = os.Stat(target)
	assert.NoError(t, err)
}

func TestBuildRejectsDuplicateOutputs(t *testing.T) {
	first := writeProgram(t, t.TempDir(), "p.kast", testkit.PrintScenario(nil))
	second := writeProgram(t, t.TempDir(), "p.kast", testkit.CountdownScenario(nil))
	out := t.TempDir()
	var errOut bytes.Buffer

	res, err := Build(context.Background(), &BuildRequest{
		Inputs: []Input{{Path: first}, {Path: second}},
		OutDir: out,
		Jobs:   2,
		Err:    &errOut,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	require.NoError(t, res.Results[0].Err)
	require.Error(t, res.Results[1].Err)
	assert.Nil(t, res.Results[1].Artifact)
	assert.Equal(t, diag.IOError, diag.CodeOf(res.Results[1].Err))
	assert.Contains(t, errOut.String(), "already produced by "+first)

	data, err := os.ReadFile(filepath.Join(out, "p.ll"))
	require.NoError(t, err)
	assert.Equal(t, res.Results[0].Artifact.Text, string(data))
}

func TestBuildRemoveIR(t *testing.T) {
	src := t.TempDir()
	in := writeProgram(t, src, "p.kast", testkit.PrintScenario(nil))
	var log bytes.Buffer

	res, err := Build(context.Background(), &BuildRequest{
		Inputs:       []Input{{Path: in}},
		RemoveIRFile: true,
		PrintIR:      true,
		Log:          &log,
	})
	require.NoError(t, err)
	assert.True(t, res.Results[0].Artifact.Removed)
	assert.Contains(t, log.String(), "define i32 @main()")
	_, err = os.Stat(filepath.Join(src, "p.ll"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildNilRequest(t *testing.T) {
	_, err := Build(context.Background(), nil)
	assert.Error(t, err)
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{File: "a", Stage: StageLoad, Status: StatusQueued})
	ev := <-ch
	assert.Equal(t, "a", ev.File)

	ChannelSink{}.OnEvent(Event{})

	var got []Stage
	SinkFunc(func(ev Event) { got = append(got, ev.Stage) }).OnEvent(Event{Stage: StageEmit})
	assert.Equal(t, []Stage{StageEmit}, got)
	SinkFunc(nil).OnEvent(Event{})
}

func TestTimings(t *testing.T) {
	var tm Timings
	assert.False(t, tm.Has(StageLower))
	tm.Add(StageLower, 2)
	tm.Add(StageLower, 3)
	tm.Set(StageEmit, 4)
	assert.Equal(t, int64(5), int64(tm.Duration(StageLower)))
	assert.Equal(t, int64(9), int64(tm.Sum(StageLower, StageEmit)))
	assert.Equal(t, int64(9), int64(tm.Sum()))

	tm.Add("link", 100)
	assert.False(t, tm.Has("link"))
	assert.Equal(t, int64(9), int64(tm.Sum()))
}
