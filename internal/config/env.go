package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the named flags was explicitly set, so that
// a shorthand and its long form are treated alike.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride maps one environment key (without EnvPrefix) to the flag(s)
// it stands in for.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

// envOverrides lists every supported NIGHTRATE_* variable. Unparsable values
// are ignored and the flag default is kept.
var envOverrides = []envOverride{
	{"ENDPOINT", []string{"endpoint"}, func(c *AppConfig, v string) { c.Endpoint = v }},
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}},
	{"RETRIES", []string{"retries"}, func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Retries = n
		}
	}},
	{"BACKOFF", []string{"backoff"}, func(c *AppConfig, v string) {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backoff = d
		}
	}},
	{"ENCODING", []string{"encoding"}, func(c *AppConfig, v string) { c.Encoding = strings.ToLower(v) }},
	{"INPUT", []string{"input", "i"}, func(c *AppConfig, v string) { c.InputFile = v }},
	{"ATTRS", []string{"attr"}, func(c *AppConfig, v string) {
		for _, pair := range strings.Split(v, ",") {
			if pair = strings.TrimSpace(pair); pair != "" {
				c.Attributes = append(c.Attributes, pair)
			}
		}
	}},
	{"LISTEN", []string{"listen"}, func(c *AppConfig, v string) { c.Listen = v }},
	{"UPSTREAM", []string{"upstream"}, func(c *AppConfig, v string) { c.Upstream = v }},
	{"LOCALE", []string{"locale"}, func(c *AppConfig, v string) { c.Locale = v }},
	{"CURRENCY", []string{"currency"}, func(c *AppConfig, v string) { c.Currency = v }},
	{"LOG_LEVEL", []string{"log-level"}, func(c *AppConfig, v string) { c.LogLevel = v }},
	{"METRICS_FILE", []string{"metrics-file"}, func(c *AppConfig, v string) { c.MetricsFile = v }},

	{"TUI", []string{"tui"}, func(c *AppConfig, v string) { c.TUI = parseBoolEnv(v, c.TUI) }},
	{"GATEWAY", []string{"gateway"}, func(c *AppConfig, v string) { c.Gateway = parseBoolEnv(v, c.Gateway) }},
	{"QUIET", []string{"quiet", "q"}, func(c *AppConfig, v string) { c.Quiet = parseBoolEnv(v, c.Quiet) }},
	{"VERBOSE", []string{"verbose", "v"}, func(c *AppConfig, v string) { c.Verbose = parseBoolEnv(v, c.Verbose) }},
	{"NO_COLOR", []string{"no-color"}, func(c *AppConfig, v string) { c.NoColor = parseBoolEnv(v, c.NoColor) }},
}

// parseBoolEnv accepts "true", "1", "yes" and "false", "0", "no" in any case.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment values for flags that were not set
// on the command line.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
