package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// SummaryRow is one label/value line of an end-of-run summary. Alert
// highlights the value, e.g. a non-zero failure count.
type SummaryRow struct {
	Label string
	Value string
	Alert bool
}

// RenderSummary draws rows as a two-column box with aligned values.
func RenderSummary(rows []SummaryRow) string {
	labelWidth, valueWidth := 0, 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		style := valueStyle
		if row.Alert {
			style = alertStyle
		}
		label := labelStyle.Render(padRight(row.Label, labelWidth))
		lines = append(lines, label+dimStyle.Render(" | ")+style.Render(padRight(row.Value, valueWidth)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// FormatBytes renders a byte delta in IEC units. Negative values mean the
// file grew.
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	alertStyle = lipgloss.NewStyle().Foreground(ColorFailure).Bold(true)
)
