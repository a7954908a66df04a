package cli

import (
	"context"
	"io"
	"time"

	"github.com/briandowns/spinner"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/reveal"
	"github.com/agbru/nightrate/internal/ui"
	"github.com/agbru/nightrate/internal/valuation"
)

// EstimateOptions controls one-shot output.
type EstimateOptions struct {
	Endpoint string
	Timeout  time.Duration
	Locale   string
	Currency string
	Quiet    bool
	Verbose  bool
	// Interactive enables the spinner and the styled card.
	Interactive bool
}

// RunEstimate submits req to ctrl, waits for the attempt to finish and
// prints the outcome. It returns the process exit code. Canceling ctx
// cancels the attempt.
func RunEstimate(ctx context.Context, ctrl *valuation.Controller, req valuation.Request, opts EstimateOptions, out io.Writer) int {
	done := make(chan valuation.Snapshot, 1)
	unsubscribe := ctrl.Subscribe(valuation.ObserverFunc(func(prev, next valuation.Snapshot) {
		finished := next.Phase.Terminal() ||
			(prev.Phase == valuation.Requesting && next.Phase == valuation.Collecting)
		if finished {
			select {
			case done <- next:
			default:
			}
		}
	}))
	defer unsubscribe()

	theme := ui.CurrentTheme()
	if opts.Verbose {
		PrintRequestSummary(req, opts.Endpoint, opts.Timeout, out)
	}

	var sp Spinner = nullSpinner{}
	if opts.Interactive && !opts.Quiet {
		sp = newSpinner(spinner.WithWriter(out))
		sp.UpdateSuffix(" Estimating optimal nightly rate...")
		sp.Start()
	}

	// The attempt is canceled through ctrl.Cancel so that a signal is not
	// mistaken for a service failure.
	if err := ctrl.Submit(context.WithoutCancel(ctx), req); err != nil {
		sp.Stop()
		return apperrors.HandleValuationError(err, 0, out, theme)
	}

	var snap valuation.Snapshot
	select {
	case snap = <-done:
		sp.Stop()
	case <-ctx.Done():
		_ = ctrl.Cancel()
		sp.Stop()
		snap = ctrl.Snapshot()
		if snap.Phase != valuation.Revealed {
			return apperrors.HandleValuationError(ctx.Err(), 0, out, theme)
		}
	}

	switch snap.Phase {
	case valuation.Revealed:
		card := reveal.New(snap.Price, ctrl.Reset,
			reveal.WithLocale(opts.Locale),
			reveal.WithCurrency(opts.Currency))
		PresentCard(card, snap.Elapsed(), opts.Quiet, opts.Verbose, opts.Interactive, out)
		return apperrors.ExitSuccess
	case valuation.Failed:
		return apperrors.HandleValuationError(snap.Err, snap.Elapsed(), out, theme)
	}
	return apperrors.HandleValuationError(context.Canceled, 0, out, theme)
}
