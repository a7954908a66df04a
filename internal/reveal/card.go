// Package reveal renders a completed valuation and carries the action that
// starts the next one.
package reveal

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/agbru/nightrate/internal/ui"
	"github.com/agbru/nightrate/internal/valuation"
)

// Card text.
const (
	Badge       = "High Confidence"
	Heading     = "Optimal Nightly Rate"
	Explanation = "Based on your location, amenities, and current market demand."
	ActionLabel = "Recalculate"
)

const (
	// DefaultLocale formats amounts with Indian digit grouping.
	DefaultLocale = "en-IN"
	// DefaultCurrency is the rupee sign.
	DefaultCurrency = "₹"
)

// Card presents one revealed price. The price is taken as given: callers
// only build a card for a price the controller accepted.
type Card struct {
	price    valuation.Price
	onReset  func() error
	locale   language.Tag
	currency string
	palette  ui.Palette
	width    int
}

// Option configures a Card.
type Option func(*Card)

// WithLocale sets the BCP 47 tag used for digit grouping. An unparsable tag
// keeps the default.
func WithLocale(tag string) Option {
	return func(c *Card) {
		if t, err := language.Parse(tag); err == nil {
			c.locale = t
		}
	}
}

// WithCurrency sets the symbol printed before the amount.
func WithCurrency(symbol string) Option {
	return func(c *Card) { c.currency = symbol }
}

// WithPalette sets the colours used by Render.
func WithPalette(p ui.Palette) Option {
	return func(c *Card) { c.palette = p }
}

// WithWidth sets the card width used by Render.
func WithWidth(w int) Option {
	return func(c *Card) { c.width = w }
}

// New builds a card for price. onReset is called by Recalculate.
func New(price valuation.Price, onReset func() error, opts ...Option) *Card {
	c := &Card{
		price:    price,
		onReset:  onReset,
		locale:   language.MustParse(DefaultLocale),
		currency: DefaultCurrency,
		palette:  ui.CurrentPalette(),
		width:    48,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Price returns the price shown on the card.
func (c *Card) Price() valuation.Price { return c.price }

// Amount formats the price with locale grouping and at most two fraction
// digits, without the currency symbol.
func (c *Card) Amount() string {
	p := message.NewPrinter(c.locale)
	return p.Sprint(number.Decimal(c.price.Float64(), number.MaxFractionDigits(2)))
}

// Display returns the currency symbol followed by the amount.
func (c *Card) Display() string {
	return c.currency + c.Amount()
}

// Recalculate invokes the reset callback once and returns its error.
func (c *Card) Recalculate() error {
	if c.onReset == nil {
		return nil
	}
	return c.onReset()
}

// PlainText renders the card without styling.
func (c *Card) PlainText() string {
	var b strings.Builder
	b.WriteString("[" + Badge + "]\n")
	b.WriteString(strings.ToUpper(Heading) + "\n")
	b.WriteString(c.Display() + " / night\n")
	b.WriteString(Explanation + "\n")
	b.WriteString("> " + ActionLabel + "\n")
	return b.String()
}

// Render draws the card with lipgloss. actionHint is appended to the action
// label, for example the key that triggers it; it may be empty.
func (c *Card) Render(actionHint string) string {
	p := c.palette
	inner := c.width - 4
	if inner < 20 {
		inner = 20
	}

	badge := lipgloss.NewStyle().
		Foreground(p.Badge).
		Bold(true).
		Render("● " + Badge)
	heading := lipgloss.NewStyle().
		Foreground(p.Dim).
		Render(strings.ToUpper(Heading))
	amount := lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true).
		Render(c.Display())
	perNight := lipgloss.NewStyle().Foreground(p.Dim).Render(" / night")
	explanation := lipgloss.NewStyle().
		Foreground(p.Text).
		Width(inner).
		Render(Explanation)

	label := ActionLabel
	if actionHint != "" {
		label += " (" + actionHint + ")"
	}
	action := lipgloss.NewStyle().
		Foreground(p.Text).
		Border(lipgloss.NormalBorder()).
		BorderForeground(p.Accent).
		Padding(0, 2).
		Render(label)

	body := lipgloss.JoinVertical(lipgloss.Left,
		badge,
		"",
		heading,
		amount+perNight,
		"",
		explanation,
		"",
		action,
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(1, 2).
		Width(inner).
		Render(body)
}
