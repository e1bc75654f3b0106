package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"platter/internal/optimize"
)

func TestModelAccumulatesUpdates(t *testing.T) {
	updates := make(chan optimize.ProgressUpdate)
	var m tea.Model = NewModel("platter optimize", updates, nil)

	m, _ = m.Update(updateMsg{TotalDelta: 3})
	m, _ = m.Update(updateMsg{Path: "/site/assets/images/tacos.jpg", ProcessedDelta: 1, OptimizedDelta: 1, BytesSavedDelta: 2048})
	m, _ = m.Update(updateMsg{ProcessedDelta: 1, ErrorDelta: 1})

	view := m.View()
	for _, want := range []string{"platter optimize", "Files: 2/3", "failed:1", "Optimized: 1", "Saved: 2.0 KiB", "Last: tacos.jpg"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.View() != "" {
		t.Fatal("view should be empty after quitting")
	}
}

func TestCtrlCCancelsRun(t *testing.T) {
	cancelled := false
	var m tea.Model = NewModel("platter optimize", make(chan optimize.ProgressUpdate), func() { cancelled = true })
	m, _ = m.Update(updateMsg{TotalDelta: 5})
	m, _ = m.Update(updateMsg{ProcessedDelta: 2})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil || cancelled {
		t.Fatal("other keys must not stop the run")
	}

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled {
		t.Fatal("ctrl+c should cancel the run")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.(Model).Interrupted() {
		t.Fatal("model should report the interruption")
	}
	if view := m.View(); !strings.Contains(view, "Interrupted after 2/5") {
		t.Fatalf("unexpected view %q", view)
	}
}

func TestCtrlCWithoutCancelFunc(t *testing.T) {
	m := NewModel("platter optimize", nil, nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestRenderBarClamps(t *testing.T) {
	if got := renderBar(4, 2); got != "[====]" {
		t.Fatalf("renderBar(4, 2) = %q", got)
	}
	if got := renderBar(4, -1); got != "[    ]" {
		t.Fatalf("renderBar(4, -1) = %q", got)
	}
}

func TestListenForUpdatesSignalsDone(t *testing.T) {
	updates := make(chan optimize.ProgressUpdate, 1)
	updates <- optimize.ProgressUpdate{TotalDelta: 1}
	close(updates)

	cmd := listenForUpdates(updates)
	if msg, ok := cmd().(updateMsg); !ok || msg.TotalDelta != 1 {
		t.Fatalf("expected update, got %#v", msg)
	}
	if _, ok := cmd().(doneMsg); !ok {
		t.Fatal("expected doneMsg after close")
	}
}

func TestRenderSummaryAlignsRows(t *testing.T) {
	out := RenderSummary([]SummaryRow{
		{Label: "Found", Value: "3"},
		{Label: "References updated", Value: "12"},
	})
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "Found") || !strings.Contains(lines[2], "References updated") {
		t.Fatalf("unexpected rows:\n%s", out)
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(1536); got != "1.5 KiB" {
		t.Fatalf("FormatBytes(1536) = %q", got)
	}
	if got := FormatBytes(-1024); got != "-1.0 KiB" {
		t.Fatalf("FormatBytes(-1024) = %q", got)
	}
	if got := FormatBytes(0); got != "0 B" {
		t.Fatalf("FormatBytes(0) = %q", got)
	}
}
