package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/nightrate/internal/listing"
)

// FormModel is the listing form: one text input per listing field.
type FormModel struct {
	inputs  []textinput.Model
	focus   int
	width   int
	visible int
}

// NewFormModel creates a form pre-filled from initial.
func NewFormModel(initial listing.Listing) FormModel {
	inputs := make([]textinput.Model, len(listing.Fields))
	for i, f := range listing.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Default
		ti.CharLimit = 64
		ti.Width = 28
		ti.SetValue(initial.Value(f.Name))
		inputs[i] = ti
	}
	inputs[0].Focus()
	return FormModel{inputs: inputs, visible: len(inputs)}
}

// Focused returns the index of the focused field.
func (f FormModel) Focused() int { return f.focus }

// FocusNext moves focus forward, wrapping around.
func (f *FormModel) FocusNext() { f.setFocus((f.focus + 1) % len(f.inputs)) }

// FocusPrev moves focus backward, wrapping around.
func (f *FormModel) FocusPrev() { f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs)) }

func (f *FormModel) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

// SetSize fits the form into width columns and height rows.
func (f *FormModel) SetSize(width, height int) {
	f.width = width
	f.visible = max(3, min(len(f.inputs), height))
}

// Values returns the raw form values keyed by field name.
func (f FormModel) Values() map[string]string {
	out := make(map[string]string, len(f.inputs))
	for i, spec := range listing.Fields {
		out[spec.Name] = f.inputs[i].Value()
	}
	return out
}

// Listing parses the form leniently and validates the result.
func (f FormModel) Listing() (listing.Listing, error) {
	l, err := listing.FromForm(f.Values())
	if err != nil {
		return listing.Listing{}, err
	}
	if err := l.Validate(); err != nil {
		return listing.Listing{}, err
	}
	return l, nil
}

// Update forwards msg to the focused input.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// View renders the visible window of fields around the focused one.
func (f FormModel) View() string {
	labelWidth := 0
	for _, spec := range listing.Fields {
		labelWidth = max(labelWidth, lipgloss.Width(spec.Label))
	}

	start := 0
	if f.focus >= f.visible {
		start = f.focus - f.visible + 1
	}
	end := min(len(f.inputs), start+f.visible)

	var rows []string
	for i := start; i < end; i++ {
		label := listing.Fields[i].Label
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(label))
		style, marker := labelStyle, "  "
		if i == f.focus {
			style, marker = focusedLabel, "> "
		}
		rows = append(rows, style.Render(marker+label+pad)+"  "+f.inputs[i].View())
	}
	return strings.Join(rows, "\n")
}
