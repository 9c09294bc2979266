package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/internal/buildpipeline"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan buildpipeline.Event)
	model := NewProgressModel("build", []string{"a.kast", "b.kast"}, events)
	m, ok := model.(*progressModel)
	require.True(t, ok)
	assert.Equal(t, 0.0, m.percent())

	m.Update(eventMsg(buildpipeline.Event{File: "a.kast", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusWorking}))
	assert.Equal(t, "lowering", m.items[0].label())
	assert.InDelta(t, 0.15, m.percent(), 1e-9)

	m.Update(eventMsg(buildpipeline.Event{File: "b.kast", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone, Elapsed: 3 * time.Millisecond}))
	m.Update(eventMsg(buildpipeline.Event{File: "unknown", Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusError}))
	assert.Equal(t, "done", m.items[1].label())
	assert.InDelta(t, 0.65, m.percent(), 1e-9)

	m.Update(eventMsg(buildpipeline.Event{Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusWorking}))
	assert.Equal(t, "emitting", m.stageLabel)

	view := m.View()
	assert.Contains(t, view, "build (emitting)")
	assert.Contains(t, view, "a.kast")
	assert.Contains(t, view, "lowering")
	assert.Contains(t, view, "3ms")
	assert.Contains(t, view, "1/2 built")

	_, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "done: build")
}

func TestProgressModelKeepsFirstError(t *testing.T) {
	m := NewProgressModel("build", []string{"bad.kast"}, nil).(*progressModel)
	m.Update(eventMsg(buildpipeline.Event{File: "bad.kast", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusError, Err: errors.New("type error\nsecond line")}))
	m.Update(eventMsg(buildpipeline.Event{File: "bad.kast", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusError, Err: errors.New("later")}))

	it := m.items[0]
	assert.Equal(t, "error", it.label())
	assert.Equal(t, buildpipeline.StageLower, it.stage)
	assert.Equal(t, "type error", it.errMsg)
	assert.Equal(t, 1.0, m.percent())

	view := m.View()
	assert.Contains(t, view, "type error")
	assert.NotContains(t, view, "second line")
	assert.Contains(t, view, "0/1 built, 1 failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "anything", truncate("anything", 0))
}

func TestStageWeights(t *testing.T) {
	prev := 0.0
	for _, stage := range buildpipeline.Stages {
		assert.NotEmpty(t, stageLabel(stage), stage)
		w := stageWeight(stage)
		assert.Greater(t, w, prev, stage)
		assert.Less(t, w, 1.0, stage)
		prev = w
	}
	assert.Equal(t, 0.0, stageWeight("link"))
}
