package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bacli/bacli/internal/bitaxe"
)

// historySize is how many hash rate samples the sparkline keeps.
const historySize = 30

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// FetchFunc returns a fresh device snapshot.
type FetchFunc func(ctx context.Context) (*bitaxe.SystemInfo, error)

// Messages for async polling
type watchInfoMsg struct {
	info *bitaxe.SystemInfo
	err  error
	at   time.Time
}
type watchTickMsg struct{}

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

// WatchModel is a live dashboard for one device. It polls the device every
// interval and keeps the last good snapshot on screen when a poll fails.
type WatchModel struct {
	ctx      context.Context
	address  string
	interval time.Duration
	fetch    FetchFunc

	Info      *bitaxe.SystemInfo
	Err       error
	UpdatedAt time.Time
	Polling   bool
	History   []float64
	Width     int

	spinner spinner.Model
	help    help.Model
	keys    watchKeyMap
}

// NewWatchModel creates a dashboard model for the device at address.
func NewWatchModel(ctx context.Context, address string, interval time.Duration, fetch FetchFunc) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return WatchModel{
		ctx:      ctx,
		address:  address,
		interval: interval,
		fetch:    fetch,
		Width:    GetTerminalWidth(),
		spinner:  s,
		help:     help.New(),
		keys: watchKeyMap{
			Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

// Init starts the first poll
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.spinner.Tick)
}

func (m WatchModel) poll() tea.Cmd {
	return func() tea.Msg {
		info, err := m.fetch(m.ctx)
		return watchInfoMsg{info: info, err: err, at: time.Now()}
	}
}

func (m WatchModel) scheduleNext() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return watchTickMsg{} })
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if !m.Polling {
				m.Polling = true
				return m, m.poll()
			}
		}

	case tea.WindowSizeMsg:
		m.Width = clampWidth(msg.Width)

	case watchInfoMsg:
		wasPolling := m.Polling
		m.Polling = false
		m.Err = msg.err
		m.UpdatedAt = msg.at
		if msg.err == nil && msg.info != nil {
			m.Info = msg.info
			m.History = append(m.History, msg.info.HashRate)
			if len(m.History) > historySize {
				m.History = m.History[len(m.History)-historySize:]
			}
		}
		// A manual refresh does not start a second timer chain
		if wasPolling {
			return m, nil
		}
		return m, m.scheduleNext()

	case watchTickMsg:
		return m, m.poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderTitleStyle.Render("BITAXE " + m.address))
	b.WriteString("\n\n")

	if m.Info == nil && m.Err == nil {
		b.WriteString("  " + m.spinner.View() + " Connecting...\n")
		return b.String()
	}

	if m.Info != nil {
		b.WriteString(m.renderInfo())
	}

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorMessageStyle.Render("  " + FailureMarker + " " + bitaxe.ShortErrorMessage(m.Err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	status := "Updated " + m.UpdatedAt.Format("15:04:05")
	if m.Polling {
		status = m.spinner.View() + " Refreshing"
	}
	b.WriteString(StepNoteStyle.Render("  " + status))
	b.WriteString("\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

func (m WatchModel) renderInfo() string {
	si := m.Info
	rows := []Param{
		{"Board", fmt.Sprintf("%s (%s)", si.BoardVersion, si.ASICModel)},
		{"Firmware", si.Version},
		{"Uptime", si.Uptime().String()},
		{"Hash Rate", fmt.Sprintf("%.0f GH/s  %s", si.HashRate, Sparkline(m.History))},
		{"Shares", fmt.Sprintf("%d accepted, %d rejected", si.SharesAccepted, si.SharesRejected)},
		{"Best Diff", fmt.Sprintf("%s (session %s)", si.BestDiff.Difficulty(), si.BestSessionDiff.Difficulty())},
		{"ASIC Temp", fmt.Sprintf("%.1f °C", si.Temp)},
		{"VR Temp", fmt.Sprintf("%d °C", si.VRTemp)},
		{"Power", fmt.Sprintf("%.1f W", si.Power)},
		{"Fan", fmt.Sprintf("%d%% (%d RPM)", si.FanSpeed, si.FanRPM)},
		{"Pool", fmt.Sprintf("%s:%d", si.StratumURL, si.StratumPort)},
	}
	if si.UsingFallback != 0 {
		rows[len(rows)-1].Value = fmt.Sprintf("%s:%d (fallback)", si.FallbackStratumURL, si.FallbackStratumPort)
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(ResultKeyStyle.Render("  "+row.Key+":") + " " + ResultValueStyle.Render(row.Value) + "\n")
	}
	if si.OverheatMode {
		b.WriteString(WarningTitleStyle.Render("  " + WarningMarker + " Overheat mode active"))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Width(m.Width).Render(b.String())
}

// Sparkline renders samples as a row of block characters scaled between
// their minimum and maximum.
func Sparkline(samples []float64) string {
	if len(samples) == 0 {
		return ""
	}

	lo, hi := samples[0], samples[0]
	for _, s := range samples {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	var b strings.Builder
	for _, s := range samples {
		idx := 0
		if hi > lo {
			idx = int((s - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// RunWatch runs the dashboard until the user quits or ctx is cancelled.
func RunWatch(ctx context.Context, address string, interval time.Duration, fetch FetchFunc) error {
	model := NewWatchModel(ctx, address, interval, fetch)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil) {
		return nil
	}
	return err
}
