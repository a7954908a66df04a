package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/nightrate/internal/cli"
	"github.com/agbru/nightrate/internal/config"
	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/listing"
	"github.com/agbru/nightrate/internal/logging"
	"github.com/agbru/nightrate/internal/metrics"
	"github.com/agbru/nightrate/internal/predict"
	"github.com/agbru/nightrate/internal/server"
	"github.com/agbru/nightrate/internal/tui"
	"github.com/agbru/nightrate/internal/ui"
	"github.com/agbru/nightrate/internal/valuation"
)

// Application represents the nightrate application instance.
type Application struct {
	Config config.AppConfig
	// Predictor overrides the HTTP prediction client.
	Predictor valuation.Predictor
	ErrWriter io.Writer
	Stdin     io.Reader

	logger *logging.ZerologAdapter
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithPredictor sets the prediction collaborator used instead of the HTTP client.
func WithPredictor(p valuation.Predictor) AppOption {
	return func(a *Application) { a.Predictor = p }
}

// WithStdin sets the reader used for "--input -".
func WithStdin(r io.Reader) AppOption {
	return func(a *Application) { a.Stdin = r }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, Stdin: os.Stdin}
	for _, opt := range opts {
		opt(app)
	}

	programName := "nightrate"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	logging.SetLevel(a.Config.LogLevel)
	a.logger = logging.NewLogger(a.ErrWriter, "nightrate")
	ui.InitTheme(a.Config.NoColor, cli.IsTerminal(out))

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	switch {
	case a.Config.Gateway:
		return a.runGateway(ctx)
	case a.Config.TUI:
		return a.runTUI(ctx)
	}
	return a.runEstimate(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runEstimate performs one valuation and prints the card.
func (a *Application) runEstimate(ctx context.Context, out io.Writer) int {
	l, err := a.loadListing()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	collector := metrics.NewCollector()
	defer a.writeMetrics(collector)
	ctrl := a.newController(collector)

	opts := cli.EstimateOptions{
		Endpoint:    a.Config.Endpoint,
		Timeout:     a.Config.Timeout,
		Locale:      a.Config.Locale,
		Currency:    a.Config.Currency,
		Quiet:       a.Config.Quiet,
		Verbose:     a.Config.Verbose,
		Interactive: cli.IsTerminal(out),
	}
	return cli.RunEstimate(ctx, ctrl, l.Request(), opts, out)
}

// runTUI launches the interactive form, pre-filled from --input and --attr.
func (a *Application) runTUI(ctx context.Context) int {
	l, err := a.loadListing()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	collector := metrics.NewCollector()
	defer a.writeMetrics(collector)
	ctrl := a.newController(collector)

	return tui.Run(ctx, ctrl, tui.Options{
		Initial:  l,
		Locale:   a.Config.Locale,
		Currency: a.Config.Currency,
		Version:  Version,
	})
}

// runGateway serves the HTTP gateway until a signal arrives.
func (a *Application) runGateway(ctx context.Context) int {
	logger := a.logger.With("gateway")
	srv, err := server.New(server.Config{
		Listen:   a.Config.Listen,
		Upstream: a.Config.Upstream,
		Version:  Version,
		Security: server.DefaultSecurityConfig(),
	},
		server.WithLogger(logger),
		server.WithHealthChecker(predict.New(a.Config.Upstream,
			predict.WithRetries(0),
			predict.WithLogger(logger))),
	)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("gateway stopped", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// predictor returns the configured prediction collaborator.
func (a *Application) predictor() valuation.Predictor {
	if a.Predictor != nil {
		return a.Predictor
	}
	// Config.Validate has already rejected unknown encodings.
	encoding, _ := predict.ParseEncoding(a.Config.Encoding)
	return predict.New(a.Config.Endpoint,
		predict.WithEncoding(encoding),
		predict.WithRetries(a.Config.Retries),
		predict.WithBackoff(a.Config.Backoff),
		predict.WithLogger(a.logger.With("predict")))
}

func (a *Application) newController(collector *metrics.Collector) *valuation.Controller {
	return valuation.NewController(a.predictor(),
		valuation.WithTimeout(a.Config.Timeout),
		valuation.WithLogger(a.logger.With("controller")),
		valuation.WithObserver(collector),
		valuation.WithDiscardHook(collector.StaleDiscarded),
	)
}

// loadListing builds the listing from the defaults, --input and --attr,
// in that order.
func (a *Application) loadListing() (listing.Listing, error) {
	l := listing.Default()
	if a.Config.InputFile != "" {
		decoded, err := a.decodeInput()
		if err != nil {
			return listing.Listing{}, err
		}
		l = decoded
	}

	form, err := listing.ParsePairs(a.Config.Attributes)
	if err != nil {
		return listing.Listing{}, err
	}
	names := make([]string, 0, len(form))
	for name := range form {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := l.Set(name, form[name]); err != nil {
			return listing.Listing{}, err
		}
	}
	return l, l.Validate()
}

func (a *Application) decodeInput() (listing.Listing, error) {
	if a.Config.InputFile == "-" {
		return listing.Decode(a.Stdin)
	}
	f, err := os.Open(a.Config.InputFile)
	if err != nil {
		return listing.Listing{}, apperrors.NewConfigError("open input: %v", err)
	}
	defer f.Close()
	return listing.Decode(f)
}

// writeMetrics writes the collector to --metrics-file, if set.
func (a *Application) writeMetrics(collector *metrics.Collector) {
	if a.Config.MetricsFile == "" {
		return
	}
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		a.logger.Error("register metrics", err)
		return
	}
	if err := prometheus.WriteToTextfile(a.Config.MetricsFile, reg); err != nil {
		a.logger.Error("write metrics file", err, logging.String("path", a.Config.MetricsFile))
	}
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
