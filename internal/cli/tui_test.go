package cli

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	xbio "github.com/matzehuels/xbpar/pkg/io"
	"github.com/matzehuels/xbpar/pkg/par"
	"github.com/matzehuels/xbpar/pkg/pipeline"
)

func TestPlaceModelProgress(t *testing.T) {
	m := NewPlaceModel("Placing blinky", 1000, nil)

	steps := []par.Progress{
		{Iteration: 100, Cost: 8, BestCost: 8, Temperature: 2},
		{Iteration: 300, Cost: 5, BestCost: 3, Temperature: 1.5},
		// A lagging seed with a worse best cost is ignored.
		{Iteration: 200, Cost: 9, BestCost: 6},
	}
	var model tea.Model = m
	for _, p := range steps {
		var cmd tea.Cmd
		model, cmd = model.Update(progressMsg(p))
		if cmd != nil {
			t.Fatalf("progress returned a command")
		}
	}

	got := model.(PlaceModel)
	if got.Updates != 3 {
		t.Errorf("Updates = %d, want 3", got.Updates)
	}
	if got.Latest.Iteration != 300 || got.Latest.BestCost != 3 {
		t.Errorf("Latest = %+v, want iteration 300 best 3", got.Latest)
	}

	view := got.View()
	for _, want := range []string{"Placing blinky", "300", "best 3", "30%"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() lacks %q:\n%s", want, view)
		}
	}
}

func TestPlaceModelQuit(t *testing.T) {
	calls := 0
	m := NewPlaceModel("x", 0, func() { calls++ })

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if calls != 1 {
		t.Errorf("cancel called %d times, want 1", calls)
	}
	if !strings.Contains(model.View(), "stopping") {
		t.Error("View() does not show that the search is stopping")
	}
}

func TestPlaceModelDone(t *testing.T) {
	res := &pipeline.Result{Report: &xbio.Report{
		State:      "converged",
		Placements: []xbio.Placement{{Logical: "cnt", Label: "COUNT", Physical: "count_0", Site: "COUNT"}},
	}}
	model, cmd := NewPlaceModel("x", 10, nil).Update(doneMsg{result: res})
	if cmd == nil {
		t.Fatal("doneMsg did not quit the program")
	}
	if msg, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("command = %T, want tea.QuitMsg", msg)
	}
	if view := model.View(); !strings.Contains(view, "count_0") {
		t.Errorf("View() lacks the placement table:\n%s", view)
	}

	failed := errors.New("boom")
	model, _ = NewPlaceModel("x", 10, nil).Update(doneMsg{err: failed})
	if model.(PlaceModel).Err != failed {
		t.Error("Err not kept")
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		want        string
	}{
		{0, 100, "  0%"},
		{50, 100, " 50%"},
		{100, 100, "100%"},
		{7, 0, "7"},
	}
	for _, tt := range tests {
		got := progressBar(tt.done, tt.total)
		if !strings.HasSuffix(got, tt.want) {
			t.Errorf("progressBar(%d, %d) = %q, want suffix %q", tt.done, tt.total, got, tt.want)
		}
	}

	// Overshoot is clamped to a full bar.
	if n := strings.Count(progressBar(150, 100), "█"); n != barWidth {
		t.Errorf("overshoot drew %d cells, want %d", n, barWidth)
	}
}
