package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLevelFromString(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	SetLevelFromString("DEBUG")
	if Level() != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", Level())
	}
	SetLevelFromString("warning")
	if Level() != slog.LevelWarn {
		t.Fatalf("expected warn, got %v", Level())
	}
	SetLevelFromString("bogus")
	if Level() != slog.LevelWarn {
		t.Fatalf("unknown level should be ignored, got %v", Level())
	}
}

func TestInitStructuredTo_JSON(t *testing.T) {
	prev := Op()
	defer SetLogger(prev)
	defer SetLevel(slog.LevelInfo)

	var buf bytes.Buffer
	InitStructuredTo(&buf, "json", "info")
	Op().Info("sweep complete", "removed", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "sweep complete" {
		t.Fatalf("unexpected msg: %v", rec["msg"])
	}
	if rec["removed"] != float64(3) {
		t.Fatalf("unexpected removed: %v", rec["removed"])
	}
}

func TestOpWithTrace(t *testing.T) {
	prev := Op()
	defer SetLogger(prev)

	var buf bytes.Buffer
	InitStructuredTo(&buf, "text", "info")

	OpWithTrace("abc", "def").Info("hello")
	out := buf.String()
	if !strings.Contains(out, "trace_id=abc") || !strings.Contains(out, "span_id=def") {
		t.Fatalf("expected trace fields, got %q", out)
	}

	if OpWithTrace("", "x") != Op() {
		t.Fatal("empty trace id should return the base logger")
	}
}
