package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nightrate/internal/ui"
)

// Styles for the interactive front end, rebuilt from the ui palette by
// initStyles.
var (
	headerStyle    lipgloss.Style
	titleStyle     lipgloss.Style
	versionStyle   lipgloss.Style
	phaseStyle     lipgloss.Style
	panelStyle     lipgloss.Style
	labelStyle     lipgloss.Style
	focusedLabel   lipgloss.Style
	noticeStyle    lipgloss.Style
	errorStyle     lipgloss.Style
	errorPanel     lipgloss.Style
	spinnerStyle   lipgloss.Style
	dimStyle       lipgloss.Style
	failureHeading lipgloss.Style
)

func init() {
	initStyles()
}

// initStyles rebuilds all styles from the current ui theme. Run calls it
// again after the theme has been chosen.
func initStyles() {
	p := ui.CurrentPalette()

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Accent)
	versionStyle = lipgloss.NewStyle().Foreground(p.Dim)
	phaseStyle = lipgloss.NewStyle().Foreground(p.Badge).Bold(true)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Foreground(p.Text).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(p.Dim)
	focusedLabel = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(p.Warning)
	errorStyle = lipgloss.NewStyle().Foreground(p.Error)
	errorPanel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Error).
		Foreground(p.Text).
		Padding(1, 2)
	failureHeading = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(p.Accent)
	dimStyle = lipgloss.NewStyle().Foreground(p.Dim)
}
