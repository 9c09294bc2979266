package driver

import (
	"io"
	"time"

	"kestrel/internal/mir"
	"kestrel/internal/observ"
)

// Options configures one lowering of a program.
type Options struct {
	// OutputFilePath is where the IR is written. Empty keeps the IR in memory
	// and echoes it to Log.
	OutputFilePath string
	// RemoveIRFile deletes the written file once emission succeeded.
	RemoveIRFile bool
	// Err receives a rendered diagnostic on failure.
	Err io.Writer
	// Log receives informational output: echoed IR and MIR dumps.
	Log io.Writer

	ModuleName   string
	TargetTriple string
	// PrintIR echoes the IR to Log even when it is written to a file.
	PrintIR bool
	// DumpMIR writes the verified backend module to Log before emission.
	DumpMIR bool
	// Color enables coloured diagnostics on Err.
	Color bool
	// Observer is told about phase boundaries.
	Observer PhaseObserver
}

// Artifact is the result of a successful lowering.
type Artifact struct {
	Name string
	// Path is empty when the IR was not written or was removed again.
	Path    string
	Text    string
	Module  *mir.Module
	Removed bool
	Timing  observ.Report
}

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events emitted during Lower.
type PhaseObserver func(PhaseEvent)
