package tui

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"platter/internal/optimize"
)

// Model renders optimizer progress until the updates channel is closed or
// the user interrupts with ctrl+c.
type Model struct {
	updates <-chan optimize.ProgressUpdate
	cancel  context.CancelFunc
	title   string
	started time.Time
	width   int

	// totals accumulates every delta received so far.
	totals      optimize.ProgressUpdate
	last        string
	done        bool
	interrupted bool
}

type doneMsg struct{}

type updateMsg optimize.ProgressUpdate

// NewModel returns a progress model fed by updates. cancel is called when
// the user presses ctrl+c and may be nil.
func NewModel(title string, updates <-chan optimize.ProgressUpdate, cancel context.CancelFunc) Model {
	return Model{updates: updates, cancel: cancel, title: title, started: time.Now()}
}

// Interrupted reports whether the user stopped the run.
func (m Model) Interrupted() bool { return m.interrupted }

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.add(optimize.ProgressUpdate(msg))
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type != tea.KeyCtrlC {
			return m, nil
		}
		m.interrupted = true
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m *Model) add(u optimize.ProgressUpdate) {
	m.totals.TotalDelta += u.TotalDelta
	m.totals.ProcessedDelta += u.ProcessedDelta
	m.totals.ErrorDelta += u.ErrorDelta
	m.totals.OptimizedDelta += u.OptimizedDelta
	m.totals.BytesSavedDelta += u.BytesSavedDelta
	if u.Path != "" {
		m.last = filepath.Base(u.Path)
	}
}

// ratio is the processed fraction clamped to [0, 1].
func (m Model) ratio() float64 {
	if m.totals.TotalDelta <= 0 {
		return 0
	}
	return math.Min(1, float64(m.totals.ProcessedDelta)/float64(m.totals.TotalDelta))
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	if m.interrupted {
		return warnStyle.Render(fmt.Sprintf("Interrupted after %d/%d file(s); stopping.", m.totals.ProcessedDelta, m.totals.TotalDelta)) + "\n"
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = max(20, min(60, m.width-10))
	}

	t := m.totals
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteByte('\n')
	b.WriteString(labelStyle.Render(fmt.Sprintf("Files: %d/%d", t.ProcessedDelta, t.TotalDelta)))
	if t.ErrorDelta > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  failed:%d", t.ErrorDelta)))
	}
	b.WriteByte('\n')
	b.WriteString(labelStyle.Render(fmt.Sprintf("Optimized: %d  Saved: %s", t.OptimizedDelta, FormatBytes(t.BytesSavedDelta))))
	b.WriteByte('\n')
	if m.last != "" {
		b.WriteString(dimStyle.Render("Last: " + m.last))
		b.WriteByte('\n')
	}
	b.WriteString(barStyle.Render(renderBar(barWidth, m.ratio())))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" %3.0f%%  %s", m.ratio()*100, time.Since(m.started).Round(time.Second))))
	b.WriteString(dimStyle.Render("\nctrl+c to stop"))
	return b.String()
}

func listenForUpdates(updates <-chan optimize.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := max(0, min(width, int(math.Round(ratio*float64(width)))))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorFailure)
)
