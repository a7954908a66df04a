package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a colour scheme for plain terminal output, expressed as ANSI
// escape sequences.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary highlights the revealed price.
	Primary string
	// Secondary is used for supporting text.
	Secondary string
	Success   string
	Warning   string
	Error     string
	Bold      string
	Reset     string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;99m",  // Indigo
		Secondary: "\033[38;5;245m", // Grey
		Success:   "\033[38;5;42m",  // Green
		Warning:   "\033[38;5;214m", // Amber
		Error:     "\033[38;5;196m", // Red
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;55m",  // Deep purple
		Secondary: "\033[38;5;240m", // Dark grey
		Success:   "\033[38;5;28m",  // Dark green
		Warning:   "\033[38;5;130m", // Orange
		Error:     "\033[38;5;124m", // Dark red
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// NoColorTheme disables colour output.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// Red implements apperrors.ColorProvider.
func (t Theme) Red() string { return t.Error }

// Yellow implements apperrors.ColorProvider.
func (t Theme) Yellow() string { return t.Warning }

// Green returns the success colour.
func (t Theme) Green() string { return t.Success }

// ResetCode returns the sequence that clears formatting.
func (t Theme) ResetCode() string { return t.Reset }

// Colorize wraps s in code and a reset. It returns s unchanged for the
// no-colour theme.
func (t Theme) Colorize(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + t.Reset
}

// Palette is the lipgloss rendition of a theme, used by the reveal card and
// the interactive front end.
type Palette struct {
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Badge   lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
}

var (
	// DarkPalette is the default indigo palette.
	DarkPalette = Palette{
		Text:    lipgloss.Color("#E5E7EB"),
		Border:  lipgloss.Color("#6366F1"),
		Accent:  lipgloss.Color("#818CF8"),
		Badge:   lipgloss.Color("#34D399"),
		Success: lipgloss.Color("#34D399"),
		Warning: lipgloss.Color("#FBBF24"),
		Error:   lipgloss.Color("#F87171"),
		Dim:     lipgloss.Color("#9CA3AF"),
	}

	// LightPalette pairs with LightTheme.
	LightPalette = Palette{
		Text:    lipgloss.Color("#111827"),
		Border:  lipgloss.Color("#4F46E5"),
		Accent:  lipgloss.Color("#4338CA"),
		Badge:   lipgloss.Color("#047857"),
		Success: lipgloss.Color("#047857"),
		Warning: lipgloss.Color("#B45309"),
		Error:   lipgloss.Color("#B91C1C"),
		Dim:     lipgloss.Color("#6B7280"),
	}

	// NoColorPalette renders with the terminal's default colours.
	NoColorPalette = Palette{
		Text:    lipgloss.NoColor{},
		Border:  lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Badge:   lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
	}
)

// CurrentPalette returns the palette matching the active theme.
func CurrentPalette() Palette {
	themeMutex.RLock()
	defer themeMutex.RUnlock()

	switch currentTheme.Name {
	case "none":
		return NoColorPalette
	case "light":
		return LightPalette
	}
	return DarkPalette
}

// CurrentTheme returns the active theme.
func CurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme selects a theme by name: "dark", "light" or "none".
// Unknown names select the dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	switch name {
	case "light":
		currentTheme = LightTheme
	case "none":
		currentTheme = NoColorTheme
	default:
		currentTheme = DarkTheme
	}
}

// InitTheme picks the startup theme. Colour is disabled when noColor is set,
// when NO_COLOR is present in the environment (https://no-color.org) or when
// the output is not a terminal.
func InitTheme(noColor, isTerminal bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if noColor || !isTerminal {
		currentTheme = NoColorTheme
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = DarkTheme
}
