package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"kestrel/internal/buildpipeline"
	"kestrel/internal/ui"
)

// runBuildWithUI runs the build in the background and renders its progress
// events until the build closes the stream. Diagnostics are left to the
// caller since the model owns the terminal while it runs.
func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	paths := make([]string, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		paths = append(paths, in.Path)
	}

	events := make(chan buildpipeline.Event, 4*len(paths)*len(buildpipeline.Stages)+1)
	local := *req
	local.Progress = buildpipeline.ChannelSink{Ch: events}

	var (
		res      buildpipeline.BuildResult
		buildErr error
		finished = make(chan struct{})
	)
	go func() {
		defer close(finished)
		defer close(events)
		res, buildErr = buildpipeline.Build(ctx, &local)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, paths, events),
		tea.WithOutput(os.Stdout),
		tea.WithContext(ctx),
	)
	_, uiErr := program.Run()
	<-finished
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return res, uiErr
	}
	return res, buildErr
}
