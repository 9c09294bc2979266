package buildpipeline

import (
	"time"

	"kestrel/internal/driver"
	"kestrel/internal/observ"
)

// phaseObserver maps driver phases of one program onto progress events.
type phaseObserver struct {
	sink   ProgressSink
	file   string
	record func(Stage, time.Duration)
}

// OnPhase updates the progress UI based on driver phase events.
func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	stage, ok := stageOf(ev.Name)
	if !ok {
		return
	}
	switch ev.Status {
	case driver.PhaseStart:
		emitFile(p.sink, p.file, stage, StatusWorking, nil, 0)
	case driver.PhaseEnd:
		if p.record != nil {
			p.record(stage, ev.Elapsed)
		}
		if ev.Err != nil {
			emitFile(p.sink, p.file, stage, StatusError, ev.Err, ev.Elapsed)
		}
	}
}

func stageOf(phase string) (Stage, bool) {
	switch phase {
	case observ.PhaseLower:
		return StageLower, true
	case observ.PhaseVerify:
		return StageVerify, true
	case observ.PhaseEmit:
		return StageEmit, true
	case observ.PhaseWrite:
		return StageWrite, true
	default:
		return "", false
	}
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, stage Stage, status Status, err error) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err})
}

func emitFile(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
