// Package config builds the application configuration from command-line
// flags, NIGHTRATE_* environment variables and an optional .env file.
// Flags win over the environment, which wins over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/agbru/nightrate/internal/errors"
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "NIGHTRATE_"

// Defaults.
const (
	DefaultEndpoint = "http://127.0.0.1:8080/"
	DefaultUpstream = "http://127.0.0.1:8080/"
	DefaultListen   = ":3000"
	DefaultTimeout  = 30 * time.Second
	DefaultRetries  = 2
	DefaultBackoff  = 200 * time.Millisecond
	DefaultEncoding = "json"
	DefaultLocale   = "en-IN"
	DefaultCurrency = "₹"
	DefaultLogLevel = "info"
	DefaultEnvFile  = ".env"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Endpoint is the prediction service URL.
	Endpoint string
	// Timeout bounds one prediction attempt, retries included.
	Timeout time.Duration
	// Retries is how many times a network or server failure is retried.
	Retries int
	// Backoff is the delay before the first retry.
	Backoff time.Duration
	// Encoding is the wire format spoken to the prediction service: "json",
	// or "form" for a server that only accepts the HTML form post.
	Encoding string

	// InputFile is a JSON listing document; "-" reads standard input.
	InputFile string
	// Attributes are "name=value" listing overrides applied after InputFile.
	Attributes []string

	TUI     bool
	Gateway bool
	// Listen is the gateway's listen address.
	Listen string
	// Upstream is where the gateway forwards /api/index.
	Upstream string

	Locale   string
	Currency string

	Quiet    bool
	Verbose  bool
	NoColor  bool
	LogLevel string
	EnvFile  string
	// MetricsFile receives the valuation metrics in the Prometheus text
	// format when the run ends, for a node exporter textfile collector.
	MetricsFile string

	// Completion names a shell whose completion script is printed instead of
	// running a valuation.
	Completion string
}

// attrList collects repeated --attr flags.
type attrList []string

func (a *attrList) String() string { return strings.Join(*a, ",") }

func (a *attrList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// ParseConfig parses args into an AppConfig. It returns flag.ErrHelp when
// help was requested.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	config := AppConfig{}
	var attrs attrList

	fs.StringVar(&config.Endpoint, "endpoint", DefaultEndpoint, "Prediction service URL.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum time for one valuation attempt.")
	fs.IntVar(&config.Retries, "retries", DefaultRetries, "Retries after a network or server failure.")
	fs.DurationVar(&config.Backoff, "backoff", DefaultBackoff, "Delay before the first retry (doubles each retry).")
	fs.StringVar(&config.Encoding, "encoding", DefaultEncoding, "Prediction wire format (json, form).")
	fs.StringVar(&config.InputFile, "input", "", "JSON listing file (\"-\" for stdin).")
	fs.StringVar(&config.InputFile, "i", "", "Shorthand for --input.")
	fs.Var(&attrs, "attr", "Listing attribute as name=value (repeatable).")
	fs.BoolVar(&config.TUI, "tui", false, "Run the interactive terminal interface.")
	fs.BoolVar(&config.Gateway, "gateway", false, "Run the HTTP gateway in front of the prediction service.")
	fs.StringVar(&config.Listen, "listen", DefaultListen, "Gateway listen address.")
	fs.StringVar(&config.Upstream, "upstream", DefaultUpstream, "Prediction server the gateway forwards to.")
	fs.StringVar(&config.Locale, "locale", DefaultLocale, "Locale used to format the price.")
	fs.StringVar(&config.Currency, "currency", DefaultCurrency, "Currency symbol shown before the price.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only the price.")
	fs.BoolVar(&config.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Print request details and timings.")
	fs.BoolVar(&config.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable coloured output.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level (debug, info, warn, error).")
	fs.StringVar(&config.Completion, "completion", "", "Print a shell completion script (bash, zsh, fish).")
	fs.StringVar(&config.MetricsFile, "metrics-file", "", "Write valuation metrics to this file on exit (Prometheus text format).")
	fs.StringVar(&config.EnvFile, "env-file", DefaultEnvFile, "Environment file loaded before applying NIGHTRATE_* overrides.")

	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [flags]\n\n", programName)
		fmt.Fprintln(errWriter, "Estimates the optimal nightly rate of a listing.")
		fmt.Fprintln(errWriter, "\nFlags:")
		fs.PrintDefaults()
		fmt.Fprintf(errWriter, "\nEvery flag can also be set with %s<NAME>, e.g. %sENDPOINT.\n", EnvPrefix, EnvPrefix)
	}

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	config.Attributes = attrs

	if err := finish(&config, fs); err != nil {
		fmt.Fprintln(errWriter, "Error:", err)
		return AppConfig{}, err
	}
	return config, nil
}

// finish applies the environment to a parsed flag set and validates the
// result.
func finish(config *AppConfig, fs *flag.FlagSet) error {
	if fs.NArg() > 0 {
		return apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if err := loadEnvFile(config.EnvFile, isFlagSet(fs, "env-file")); err != nil {
		return err
	}
	applyEnvOverrides(config, fs)
	return config.Validate()
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return apperrors.NewConfigError("env file %q: %v", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.NewConfigError("env file %q: %v", path, err)
	}
	return nil
}

// Validate checks the semantic validity of the configuration.
func (c AppConfig) Validate() error {
	if err := checkURL("endpoint", c.Endpoint); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return apperrors.NewConfigError("retries must not be negative, got %d", c.Retries)
	}
	if c.Backoff < 0 {
		return apperrors.NewConfigError("backoff must not be negative, got %s", c.Backoff)
	}
	switch c.Encoding {
	case "json", "form":
	default:
		return apperrors.NewConfigError("unknown encoding %q (want json or form)", c.Encoding)
	}
	if c.TUI && c.Gateway {
		return apperrors.NewConfigError("--tui and --gateway are mutually exclusive")
	}
	if c.Quiet && c.Verbose {
		return apperrors.NewConfigError("--quiet and --verbose are mutually exclusive")
	}
	if c.Gateway {
		if err := checkURL("upstream", c.Upstream); err != nil {
			return err
		}
		if c.Listen == "" {
			return apperrors.NewConfigError("listen address must not be empty")
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.NewConfigError("unknown log level %q", c.LogLevel)
	}
	switch c.Completion {
	case "", "bash", "zsh", "fish":
	default:
		return apperrors.NewConfigError("unsupported completion shell %q", c.Completion)
	}
	for _, a := range c.Attributes {
		if !strings.Contains(a, "=") {
			return apperrors.NewConfigError("attribute %q is not name=value", a)
		}
	}
	return nil
}

func checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.NewConfigError("invalid %s %q: %v", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.NewConfigError("%s must be an http or https URL, got %q", name, raw)
	}
	if u.Host == "" {
		return apperrors.NewConfigError("%s %q has no host", name, raw)
	}
	return nil
}
