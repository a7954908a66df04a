package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("city", "NYC"), "city", "NYC"},
		{"Int", Int("beds", 2), "beds", 2},
		{"Uint64", Uint64("attempt", 7), "attempt", uint64(7)},
		{"Float64", Float64("price", 4500.5), "price", 4500.5},
		{"Bool", Bool("stale", true), "stale", true},
		{"Duration", Duration("elapsed", time.Second), "elapsed", time.Second},
		{"Err nil", Err(nil), "error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}

	testErr := errors.New("boom")
	if f := Err(testErr); f.Key != "error" || f.Value != testErr {
		t.Errorf("Err() = %+v", f)
	}
}

func TestNewLogger_IncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "valuation")
	logger.Info("attempt started", Uint64("attempt", 1))

	output := buf.String()
	for _, want := range []string{"valuation", "attempt started", `"attempt":1`} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf)).With("predict")
	logger.Info("sent")
	if !strings.Contains(buf.String(), `"component":"predict"`) {
		t.Errorf("With should add component, got: %s", buf.String())
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	tests := []struct {
		name     string
		log      func(Logger)
		contains []string
	}{
		{"debug", func(l Logger) { l.Debug("stale outcome dropped", Uint64("attempt", 3)) }, []string{"debug", "stale outcome dropped"}},
		{"info", func(l Logger) { l.Info("revealed", Float64("price", 4500)) }, []string{"info", "revealed", "4500"}},
		{"warn", func(l Logger) { l.Warn("retrying", Int("try", 2)) }, []string{"warn", "retrying", "2"}},
		{"error", func(l Logger) { l.Error("predict failed", errors.New("connection refused")) }, []string{"error", "predict failed", "connection refused"}},
		{"error nil", func(l Logger) { l.Error("warning", nil) }, []string{"error", "warning"}},
		{"printf", func(l Logger) { l.Printf("listening on %s", ":8090") }, []string{"listening on :8090"}},
		{"println", func(l Logger) { l.Println("hello", "world") }, []string{"hello world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(logger)
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

func TestZerologAdapter_applyFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		contains string
	}{
		{"string field", Field{Key: "str", Value: "hello"}, "hello"},
		{"int field", Field{Key: "num", Value: 42}, "42"},
		{"int64 field", Field{Key: "big", Value: int64(9223372036854775807)}, "9223372036854775807"},
		{"uint64 field", Field{Key: "huge", Value: uint64(18446744073709551615)}, "18446744073709551615"},
		{"float64 field", Field{Key: "pi", Value: 3.14}, "3.14"},
		{"error field", Field{Key: "err", Value: errors.New("oops")}, "oops"},
		{"bool field", Field{Key: "flag", Value: true}, "true"},
		{"interface field", Field{Key: "data", Value: struct{ X int }{X: 1}}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, "test")
			logger.Info("test", tt.field)
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("applyFields should handle %s, output: %s", tt.name, buf.String())
			}
		})
	}
}

func TestStdLoggerAdapter(t *testing.T) {
	tests := []struct {
		name     string
		log      func(Logger)
		contains []string
	}{
		{"debug", func(l Logger) { l.Debug("trace", Int("line", 42)) }, []string{"[DEBUG]", "trace", "line=42"}},
		{"info", func(l Logger) { l.Info("user action", String("user", "bob")) }, []string{"[INFO]", "user action", "user=bob"}},
		{"warn", func(l Logger) { l.Warn("slow") }, []string{"[WARN]", "slow"}},
		{"error", func(l Logger) { l.Error("db failed", errors.New("timeout"), String("db", "x")) }, []string{"[ERROR]", "db failed", "timeout", "db=x"}},
		{"printf", func(l Logger) { l.Printf("value is %d", 123) }, []string{"value is 123"}},
		{"println", func(l Logger) { l.Println("a", "b", "c") }, []string{"a b c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStdLoggerAdapter(log.New(&buf, "", 0)))
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

func TestNopAndDefault(t *testing.T) {
	Nop().Info("discarded")
	if NewDefaultLogger() == nil {
		t.Fatal("NewDefaultLogger returned nil")
	}
}
