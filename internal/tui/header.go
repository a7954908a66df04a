package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nightrate/internal/valuation"
)

// HeaderModel renders the top bar: title, version and current phase.
type HeaderModel struct {
	version string
	width   int
}

// NewHeaderModel creates a new header.
func NewHeaderModel(version string) HeaderModel {
	return HeaderModel{version: version}
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

// View renders the header for phase.
func (h HeaderModel) View(phase valuation.Phase) string {
	title := "Nightly Rate Estimator"
	left := titleStyle.Render(title)
	if h.version != "" && h.version != "dev" {
		left += versionStyle.Render(" " + h.version)
	}
	right := phaseStyle.Render(phaseLabel(phase))

	gap := h.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Render(left + spaces(gap) + right)
}

func phaseLabel(p valuation.Phase) string {
	switch p {
	case valuation.Collecting:
		return "Describe your listing"
	case valuation.Requesting:
		return "Estimating"
	case valuation.Revealed:
		return "Estimate ready"
	case valuation.Failed:
		return "Estimate failed"
	}
	return ""
}

// spaces returns a string of n space characters.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
