package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bacli/bacli/internal/bitaxe"
)

func newTestWatchModel(fetch FetchFunc) WatchModel {
	return NewWatchModel(context.Background(), "10.0.0.5", time.Second, fetch)
}

func TestWatchModel_InfoUpdatesHistory(t *testing.T) {
	m := newTestWatchModel(nil)

	var model tea.Model = m
	for _, rate := range []float64{400, 500, 600} {
		var cmd tea.Cmd
		model, cmd = model.Update(watchInfoMsg{info: &bitaxe.SystemInfo{HashRate: rate, Version: "v2.4.0"}, at: time.Now()})
		if cmd == nil {
			t.Fatal("info should schedule the next poll")
		}
	}

	got := model.(WatchModel)
	if len(got.History) != 3 || got.History[2] != 600 {
		t.Errorf("History = %v, want [400 500 600]", got.History)
	}
	if got.Info.HashRate != 600 {
		t.Errorf("Info.HashRate = %v, want 600", got.Info.HashRate)
	}

	view := got.View()
	if !strings.Contains(view, "v2.4.0") || !strings.Contains(view, "10.0.0.5") {
		t.Errorf("View() missing device fields:\n%s", view)
	}
}

func TestWatchModel_ErrorKeepsLastInfo(t *testing.T) {
	m := newTestWatchModel(nil)

	model, _ := m.Update(watchInfoMsg{info: &bitaxe.SystemInfo{HashRate: 500}, at: time.Now()})
	model, _ = model.Update(watchInfoMsg{err: errors.New("timeout"), at: time.Now()})

	got := model.(WatchModel)
	if got.Info == nil || got.Info.HashRate != 500 {
		t.Error("last good snapshot should be kept")
	}
	if got.Err == nil {
		t.Error("Err should be set")
	}
	if len(got.History) != 1 {
		t.Errorf("History = %v, failed polls add no samples", got.History)
	}
}

func TestWatchModel_HistoryBounded(t *testing.T) {
	var model tea.Model = newTestWatchModel(nil)
	for i := 0; i < historySize+10; i++ {
		model, _ = model.Update(watchInfoMsg{info: &bitaxe.SystemInfo{HashRate: float64(i)}, at: time.Now()})
	}

	got := model.(WatchModel)
	if len(got.History) != historySize {
		t.Errorf("len(History) = %d, want %d", len(got.History), historySize)
	}
	if got.History[historySize-1] != float64(historySize+9) {
		t.Error("newest sample should be last")
	}
}

func TestWatchModel_QuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		_, cmd := newTestWatchModel(nil).Update(k)
		if cmd == nil {
			t.Fatalf("%s should quit", k.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should produce QuitMsg", k.String())
		}
	}
}

func TestWatchModel_RefreshPolls(t *testing.T) {
	calls := 0
	m := newTestWatchModel(func(ctx context.Context) (*bitaxe.SystemInfo, error) {
		calls++
		return &bitaxe.SystemInfo{HashRate: 1}, nil
	})

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("refresh should poll")
	}
	if !model.(WatchModel).Polling {
		t.Error("Polling should be set")
	}

	msg := cmd()
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	// A second refresh while polling is ignored
	if _, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); cmd != nil {
		t.Error("refresh while polling should be ignored")
	}

	model, cmd = model.Update(msg)
	if cmd != nil {
		t.Error("manual refresh result should not schedule another tick")
	}
	if model.(WatchModel).Polling {
		t.Error("Polling should be cleared")
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    string
	}{
		{"empty", nil, ""},
		{"flat", []float64{5, 5, 5}, "▁▁▁"},
		{"ramp", []float64{0, 7}, "▁█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.samples); got != tt.want {
				t.Errorf("Sparkline(%v) = %q, want %q", tt.samples, got, tt.want)
			}
		})
	}
}
