package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agbru/nightrate/internal/reveal"
	"github.com/agbru/nightrate/internal/ui"
	"github.com/agbru/nightrate/internal/valuation"
)

// PrintRequestSummary lists the attributes about to be sent.
func PrintRequestSummary(req valuation.Request, endpoint string, timeout time.Duration, out io.Writer) {
	theme := ui.CurrentTheme()
	fmt.Fprintf(out, "--- Valuation Request ---\n")
	fmt.Fprintf(out, "Endpoint: %s (timeout %s)\n",
		theme.Colorize(theme.Primary, endpoint), theme.Colorize(theme.Warning, timeout.String()))

	keys := req.Keys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		v, _ := req.Get(k)
		fmt.Fprintf(out, "  %s%s  %v\n", k, strings.Repeat(" ", width-len(k)), v)
	}
	fmt.Fprintln(out)
}

// PresentCard writes a revealed price. Quiet output is the bare amount for
// scripts; otherwise the card is styled when styled is true and plain when not.
func PresentCard(card *reveal.Card, elapsed time.Duration, quiet, verbose, styled bool, out io.Writer) {
	if quiet {
		fmt.Fprintln(out, card.Price().Float64())
		return
	}
	if styled {
		fmt.Fprintln(out, card.Render(""))
	} else {
		fmt.Fprint(out, card.PlainText())
	}
	if verbose {
		theme := ui.CurrentTheme()
		fmt.Fprintf(out, "Prediction time: %s\n", theme.Colorize(theme.Secondary, FormatExecutionDuration(elapsed)))
	}
}
