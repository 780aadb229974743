package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupLogger_JSONDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "")

	WithTaskID(logger, "t1").Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["task_id"] != "t1" {
		t.Errorf("expected task_id=t1, got %v", entry["task_id"])
	}
}

func TestSetupLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "text")

	WithSource(WithWallet(logger, "0xABC"), "mgnify").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "wallet=0xABC") || !strings.Contains(out, "source=mgnify") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	if LogLevel().String() != "WARN" {
		t.Errorf("expected WARN, got %s", LogLevel())
	}

	t.Setenv("LOG_LEVEL", "")
	if LogLevel().String() != "INFO" {
		t.Errorf("expected INFO default, got %s", LogLevel())
	}
}
