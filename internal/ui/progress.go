package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kestrel/internal/buildpipeline"
)

type itemState uint8

const (
	stateQueued itemState = iota
	stateWorking
	stateDone
	stateFailed
)

func (s itemState) finished() bool { return s == stateDone || s == stateFailed }

type fileItem struct {
	path    string
	state   itemState
	stage   buildpipeline.Stage
	elapsed time.Duration
	errMsg  string
}

// label is the text shown in the status column.
func (it *fileItem) label() string {
	switch it.state {
	case stateDone:
		return "done"
	case stateFailed:
		return "error"
	case stateWorking:
		if l := stageLabel(it.stage); l != "" {
			return l
		}
		return "working"
	}
	return "queued"
}

type progressModel struct {
	title      string
	events     <-chan buildpipeline.Event
	spinner    spinner.Model
	bar        progress.Model
	items      []fileItem
	byPath     map[string]int
	stageLabel string
	width      int
	done       bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

const statusWidth = 10

// NewProgressModel returns a Bubble Tea model that renders build progress,
// one line per input program. The model quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		items:   make([]fileItem, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.items[i] = fileItem{path: file}
		m.byPath[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := m.title
	if m.stageLabel != "" && !m.done {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-16, 20)
	for i := range m.items {
		it := &m.items[i]
		status := fmt.Sprintf("%*s", statusWidth, it.label())
		fmt.Fprintf(&b, "  %s %s", styleFor(it.state).Render(status), truncate(it.path, nameWidth))
		if it.state.finished() && it.elapsed > 0 {
			b.WriteString(faintStyle.Render(" " + it.elapsed.Round(time.Microsecond).String()))
		}
		b.WriteString("\n")
		if it.errMsg != "" {
			msg := truncate(it.errMsg, max(m.width-statusWidth-6, 20))
			fmt.Fprintf(&b, "  %*s %s\n", statusWidth, "", failedStyle.Render(msg))
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(m.footer()))
	b.WriteString("\n")
	return b.String()
}

// footer summarises finished programs, e.g. "2/3 built, 1 failed".
func (m *progressModel) footer() string {
	var built, failed int
	for i := range m.items {
		switch m.items[i].state {
		case stateDone:
			built++
		case stateFailed:
			failed++
		}
	}
	s := fmt.Sprintf("%d/%d built", built, len(m.items))
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	return s
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == buildpipeline.StatusWorking {
			m.stageLabel = stageLabel(ev.Stage)
		}
		return nil
	}
	idx, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	if it.state == stateFailed {
		// первая ошибка остаётся видимой
		return nil
	}
	it.elapsed += ev.Elapsed
	switch ev.Status {
	case buildpipeline.StatusQueued:
		it.state = stateQueued
	case buildpipeline.StatusWorking:
		it.state, it.stage = stateWorking, ev.Stage
	case buildpipeline.StatusDone:
		it.state, it.stage = stateDone, ev.Stage
	case buildpipeline.StatusError:
		it.state, it.stage = stateFailed, ev.Stage
		if ev.Err != nil {
			it.errMsg = firstLine(ev.Err.Error())
		}
	default:
		return nil
	}
	return m.bar.SetPercent(m.percent())
}

// percent averages per-item progress; finished items count as whole.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for i := range m.items {
		switch it := &m.items[i]; {
		case it.state.finished():
			total++
		case it.state == stateWorking:
			total += stageWeight(it.stage)
		}
	}
	return total / float64(len(m.items))
}

// stageWeight places a working stage at the middle of its slot in the
// pipeline, so lower (second of five) counts as 0.3.
func stageWeight(stage buildpipeline.Stage) float64 {
	i := slices.Index(buildpipeline.Stages, stage)
	if i < 0 {
		return 0
	}
	return (float64(i) + 0.5) / float64(len(buildpipeline.Stages))
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageLoad:
		return "loading"
	case buildpipeline.StageLower:
		return "lowering"
	case buildpipeline.StageVerify:
		return "verifying"
	case buildpipeline.StageEmit:
		return "emitting"
	case buildpipeline.StageWrite:
		return "writing"
	}
	return ""
}

func styleFor(s itemState) lipgloss.Style {
	switch s {
	case stateDone:
		return doneStyle
	case stateFailed:
		return failedStyle
	case stateWorking:
		return workingStyle
	}
	return queuedStyle
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
