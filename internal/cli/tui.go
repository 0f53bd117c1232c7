package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/xbpar/pkg/par"
	"github.com/matzehuels/xbpar/pkg/pipeline"
)

const barWidth = 40

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	tuiLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// PlaceModel - live view of a running placement
// =============================================================================

// progressMsg carries an engine snapshot into the program.
type progressMsg par.Progress

// doneMsg ends the program with the pipeline outcome.
type doneMsg struct {
	result *pipeline.Result
	err    error
}

// PlaceModel is the bubbletea model shown by "place --tui".
type PlaceModel struct {
	Title  string
	Budget int // iteration budget, 0 when unbounded

	Latest  par.Progress
	Updates int
	Result  *pipeline.Result
	Err     error

	cancel     context.CancelFunc
	cancelling bool
}

// NewPlaceModel creates the model. cancel is called when the user quits.
func NewPlaceModel(title string, budget int, cancel context.CancelFunc) PlaceModel {
	return PlaceModel{Title: title, Budget: budget, cancel: cancel}
}

func (m PlaceModel) Init() tea.Cmd {
	return nil
}

func (m PlaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// The search is interrupted; its doneMsg still ends the program.
			if m.cancel != nil && !m.cancelling {
				m.cancel()
			}
			m.cancelling = true
		}
	case progressMsg:
		p := par.Progress(msg)
		// Parallel seeds report interleaved; keep the one furthest ahead.
		if m.Updates == 0 || p.Iteration >= m.Latest.Iteration || p.BestCost < m.Latest.BestCost {
			m.Latest = p
		}
		m.Updates++
	case doneMsg:
		m.Result, m.Err = msg.result, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m PlaceModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	if m.cancelling {
		b.WriteString(StyleWarning.Render("stopping..."))
	} else {
		b.WriteString(StyleDim.Render("q quit"))
	}
	b.WriteString("\n\n")

	if m.Result != nil {
		b.WriteString(placementTable(m.Result.Report))
		b.WriteString("\n")
		return b.String()
	}

	p := m.Latest
	b.WriteString(progressBar(p.Iteration, m.Budget))
	b.WriteString("\n\n")
	row := func(k, v string) {
		b.WriteString(tuiLabelStyle.Render(k) + " " + StyleValue.Render(v) + "\n")
	}
	row("Iteration", fmt.Sprintf("%d", p.Iteration))
	row("Cost", fmt.Sprintf("%d (best %d)", p.Cost, p.BestCost))
	row("Temperature", fmt.Sprintf("%.4g", p.Temperature))
	row("Accepted", fmt.Sprintf("%d / %d", p.Accepted, p.Accepted+p.Rejected))
	row("Elapsed", p.Elapsed.Truncate(time.Millisecond).String())
	return b.String()
}

// progressBar draws done out of total. An unbounded budget draws an empty
// bar with the raw count.
func progressBar(done, total int) string {
	if total <= 0 {
		return barEmptyStyle.Render(strings.Repeat("░", barWidth)) + " " + StyleDim.Render(fmt.Sprintf("%d", done))
	}
	filled := min(done*barWidth/total, barWidth)
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled)) +
		" " + StyleDim.Render(fmt.Sprintf("%3d%%", done*100/total))
}

// runPlaceTUI runs a placement behind the live view.
func runPlaceTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, title string) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	budget := opts.MaxIterations
	if budget == 0 {
		budget = par.DefaultMaxIterations
	}
	prog := tea.NewProgram(NewPlaceModel(title, budget, cancel), tea.WithOutput(os.Stderr))

	// Log lines would tear the view.
	opts.Logger = newLogger(io.Discard, LogInfo)
	opts.Progress = func(p par.Progress) { prog.Send(progressMsg(p)) }
	go func() {
		res, err := runner.Execute(ctx, opts)
		prog.Send(doneMsg{result: res, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	m := final.(PlaceModel)
	return m.Result, m.Err
}
