package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/agbru/nightrate/internal/valuation"
)

// KeyMap holds the key bindings.
type KeyMap struct {
	Submit key.Binding
	Next   key.Binding
	Prev   key.Binding
	Cancel key.Binding
	Retry  key.Binding
	Reset  key.Binding
	Recalc key.Binding
	Help   key.Binding
	Quit   key.Binding
	ForceQ key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "estimate")),
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Retry:  key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "retry")),
		Reset:  key.NewBinding(key.WithKeys("x", "esc"), key.WithHelp("x", "edit listing")),
		Recalc: key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter", "recalculate")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQ: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// forPhase returns a copy of k with only the bindings that apply in phase
// enabled. While the form is shown, printable keys belong to the inputs.
func (k KeyMap) forPhase(phase valuation.Phase) KeyMap {
	collecting := phase == valuation.Collecting
	k.Submit.SetEnabled(collecting)
	k.Next.SetEnabled(collecting)
	k.Prev.SetEnabled(collecting)
	k.Cancel.SetEnabled(phase == valuation.Requesting)
	k.Retry.SetEnabled(phase == valuation.Failed)
	k.Reset.SetEnabled(phase == valuation.Failed)
	k.Recalc.SetEnabled(phase == valuation.Revealed)
	k.Help.SetEnabled(!collecting)
	k.Quit.SetEnabled(!collecting)
	k.ForceQ.SetEnabled(true)
	return k
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Recalc, k.Retry, k.Reset, k.Cancel, k.Quit, k.ForceQ}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Next, k.Prev},
		{k.Recalc, k.Retry, k.Reset, k.Cancel},
		{k.Help, k.Quit, k.ForceQ},
	}
}
