package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/nightrate/internal/errors"
)

func TestParseConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig("nightrate", []string{"--env-file", ""}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Timeout != DefaultTimeout || cfg.Retries != DefaultRetries || cfg.Backoff != DefaultBackoff {
		t.Errorf("timeout/retries/backoff = %s/%d/%s", cfg.Timeout, cfg.Retries, cfg.Backoff)
	}
	if cfg.Locale != DefaultLocale || cfg.Currency != DefaultCurrency {
		t.Errorf("locale/currency = %q/%q", cfg.Locale, cfg.Currency)
	}
	if cfg.Listen != DefaultListen || cfg.Upstream != DefaultUpstream {
		t.Errorf("listen/upstream = %q/%q", cfg.Listen, cfg.Upstream)
	}
	if cfg.Encoding != DefaultEncoding {
		t.Errorf("Encoding = %q", cfg.Encoding)
	}
	if cfg.TUI || cfg.Gateway || cfg.Quiet || cfg.Verbose {
		t.Errorf("mode flags should default to false: %+v", cfg)
	}
}

func TestParseConfig_Flags(t *testing.T) {
	t.Parallel()

	args := []string{
		"--env-file", "",
		"--endpoint", "https://predict.example.com/v1",
		"--timeout", "5s",
		"--retries", "0",
		"--backoff", "1s",
		"-i", "listing.json",
		"--attr", "bedrooms=2",
		"--attr", "city=Boston",
		"-q",
		"--log-level", "debug",
		"--encoding", "form",
	}
	cfg, err := ParseConfig("nightrate", args, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Endpoint != "https://predict.example.com/v1" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Timeout != 5*time.Second || cfg.Retries != 0 || cfg.Backoff != time.Second {
		t.Errorf("timeout/retries/backoff = %s/%d/%s", cfg.Timeout, cfg.Retries, cfg.Backoff)
	}
	if cfg.InputFile != "listing.json" {
		t.Errorf("InputFile = %q", cfg.InputFile)
	}
	if strings.Join(cfg.Attributes, ";") != "bedrooms=2;city=Boston" {
		t.Errorf("Attributes = %v", cfg.Attributes)
	}
	if !cfg.Quiet || cfg.LogLevel != "debug" {
		t.Errorf("quiet/log-level = %v/%q", cfg.Quiet, cfg.LogLevel)
	}
	if cfg.Encoding != "form" {
		t.Errorf("Encoding = %q", cfg.Encoding)
	}
}

func TestParseConfig_Help(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := ParseConfig("nightrate", []string{"--help"}, &buf)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(buf.String(), "NIGHTRATE_ENDPOINT") {
		t.Errorf("usage should mention env overrides:\n%s", buf.String())
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"relative endpoint", []string{"--endpoint", "/api/index"}},
		{"ftp endpoint", []string{"--endpoint", "ftp://host/"}},
		{"zero timeout", []string{"--timeout", "0s"}},
		{"negative retries", []string{"--retries", "-1"}},
		{"negative backoff", []string{"--backoff", "-1s"}},
		{"tui and gateway", []string{"--tui", "--gateway"}},
		{"quiet and verbose", []string{"-q", "-v"}},
		{"bad upstream", []string{"--gateway", "--upstream", "nope"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"unknown encoding", []string{"--encoding", "xml"}},
		{"attr without value", []string{"--attr", "bedrooms"}},
		{"positional args", []string{"extra"}},
		{"unknown completion shell", []string{"--completion", "tcsh"}},
		{"missing env file", []string{"--env-file", "does-not-exist.env"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args := tt.args
			if tt.name != "missing env file" {
				args = append([]string{"--env-file", ""}, args...)
			}
			var buf bytes.Buffer
			_, err := ParseConfig("nightrate", args, &buf)
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
			if !strings.Contains(buf.String(), "Error:") {
				t.Errorf("error not reported to errWriter: %q", buf.String())
			}
		})
	}
}

func TestParseConfig_UnknownFlag(t *testing.T) {
	t.Parallel()

	if _, err := ParseConfig("nightrate", []string{"--nope"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParseConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "NIGHTRATE_CURRENCY=$\nNIGHTRATE_LOCALE=en-US\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("NIGHTRATE_CURRENCY")
		os.Unsetenv("NIGHTRATE_LOCALE")
	})

	cfg, err := ParseConfig("nightrate", []string{"--env-file", path, "--locale", "fr-FR"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Currency != "$" {
		t.Errorf("Currency = %q, want $", cfg.Currency)
	}
	if cfg.Locale != "fr-FR" {
		t.Errorf("Locale = %q, flag should win over env file", cfg.Locale)
	}
}
