package config

import (
	"bytes"
	"testing"
	"time"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NIGHTRATE_ENDPOINT", "http://10.0.0.5:8080/")
	t.Setenv("NIGHTRATE_TIMEOUT", "3s")
	t.Setenv("NIGHTRATE_RETRIES", "5")
	t.Setenv("NIGHTRATE_ATTRS", "bedrooms=3, city=SF ,")
	t.Setenv("NIGHTRATE_VERBOSE", "yes")
	t.Setenv("NIGHTRATE_LOG_LEVEL", "warn")
	t.Setenv("NIGHTRATE_METRICS_FILE", "/tmp/nightrate.prom")
	t.Setenv("NIGHTRATE_ENCODING", "FORM")

	cfg, err := ParseConfig("nightrate", []string{"--env-file", "", "--retries", "1"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Endpoint != "http://10.0.0.5:8080/" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Retries != 1 {
		t.Errorf("Retries = %d, flag should win", cfg.Retries)
	}
	if len(cfg.Attributes) != 2 || cfg.Attributes[0] != "bedrooms=3" || cfg.Attributes[1] != "city=SF" {
		t.Errorf("Attributes = %v", cfg.Attributes)
	}
	if !cfg.Verbose || cfg.LogLevel != "warn" {
		t.Errorf("verbose/log-level = %v/%q", cfg.Verbose, cfg.LogLevel)
	}
	if cfg.MetricsFile != "/tmp/nightrate.prom" {
		t.Errorf("MetricsFile = %q", cfg.MetricsFile)
	}
	if cfg.Encoding != "form" {
		t.Errorf("Encoding = %q", cfg.Encoding)
	}
}

func TestApplyEnvOverrides_ShorthandCountsAsSet(t *testing.T) {
	t.Setenv("NIGHTRATE_QUIET", "false")

	cfg, err := ParseConfig("nightrate", []string{"--env-file", "", "-q"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if !cfg.Quiet {
		t.Error("-q should not be overridden by NIGHTRATE_QUIET")
	}
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("NIGHTRATE_TIMEOUT", "soon")
	t.Setenv("NIGHTRATE_RETRIES", "many")
	t.Setenv("NIGHTRATE_TUI", "maybe")

	cfg, err := ParseConfig("nightrate", []string{"--env-file", ""}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Timeout != DefaultTimeout || cfg.Retries != DefaultRetries || cfg.TUI {
		t.Errorf("invalid env values should keep defaults: %+v", cfg)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"TRUE", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"No", true, false},
		{"0", true, false},
		{"perhaps", true, true},
	}
	for _, tt := range tests {
		if got := parseBoolEnv(tt.in, tt.def); got != tt.want {
			t.Errorf("parseBoolEnv(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}
