package buildpipeline

import (
	"slices"
	"time"
)

// Stage names one step a program goes through during a build.
type Stage string

const (
	StageLoad   Stage = "load"   // read and decode the AST document
	StageLower  Stage = "lower"  // build the backend module
	StageVerify Stage = "verify" // structural checks on the module
	StageEmit   Stage = "emit"   // render LLVM IR text
	StageWrite  Stage = "write"  // store the .ll file
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageLoad, StageLower, StageVerify, StageEmit, StageWrite}

// Status is the state of a program within its current stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress of one input. Events with an empty File describe
// the build as a whole.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations summed over all programs of a build. Stages
// outside Stages are ignored.
type Timings struct {
	dur  [5]time.Duration
	seen uint8
}

func slot(stage Stage) int {
	return slices.Index(Stages, stage)
}

// Set replaces the duration recorded for stage.
func (t *Timings) Set(stage Stage, d time.Duration) {
	if i := slot(stage); t != nil && i >= 0 {
		t.dur[i] = d
		t.seen |= 1 << i
	}
}

// Add accumulates d into stage.
func (t *Timings) Add(stage Stage, d time.Duration) {
	if i := slot(stage); t != nil && i >= 0 {
		t.dur[i] += d
		t.seen |= 1 << i
	}
}

// Has reports whether anything was recorded for stage.
func (t Timings) Has(stage Stage) bool {
	i := slot(stage)
	return i >= 0 && t.seen&(1<<i) != 0
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if i := slot(stage); i >= 0 {
		return t.dur[i]
	}
	return 0
}

// Sum adds up the given stages; with no arguments it covers all of them.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if len(stages) == 0 {
		stages = Stages
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.Duration(stage)
	}
	return total
}
