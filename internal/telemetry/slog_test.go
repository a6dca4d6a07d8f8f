package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// SetupLogger tests
// ---------------------------------------------------------------------------

func TestSetupLogger_DoesNotPanicForAllCombinations(t *testing.T) {
	formats := []string{"json", "text", "JSON", "TEXT", "", "unknown"}
	levels := []string{"debug", "info", "warn", "warning", "error", "ERROR", "", "unknown"}

	for _, format := range formats {
		for _, level := range levels {
			t.Run(format+"/"+level, func(t *testing.T) {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("SetupLogger(%q, %q) panicked: %v", format, level, r)
					}
				}()
				SetupLogger(format, level)
			})
		}
	}
	// Restore a sensible default so other tests in this binary are unaffected.
	SetupLogger("text", "error")
}

func TestSetupLogger_JSONFormat_ProducesValidJSON(t *testing.T) {
	var buf bytes.Buffer

	// SetupLogger writes to os.Stdout, so exercise the same handler
	// construction over a local buffer and validate its output directly.
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)
	logger.Info("report approved", "organization_id", "org-1")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("JSON handler produced no output")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		t.Fatalf("JSON handler output is not valid JSON: %v\noutput: %s", err, line)
	}

	if obj["msg"] != "report approved" {
		t.Errorf("expected msg=report approved, got %v", obj["msg"])
	}
	if obj["organization_id"] != "org-1" {
		t.Errorf("expected organization_id=org-1, got %v", obj["organization_id"])
	}
}

func TestSetupLogger_TextFormat_ProducesKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)
	logger.Info("text test", "env", "development")

	line := buf.String()
	if !strings.Contains(line, "text test") {
		t.Errorf("text handler output does not contain message: %q", line)
	}
	if !strings.Contains(line, "env=development") {
		t.Errorf("text handler output does not contain env=development: %q", line)
	}
}

func TestSetupLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	// At warn level, Info records should be suppressed.
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(handler)
	logger.Info("should be suppressed")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should be suppressed") {
		t.Error("Info record appeared despite LevelWarn filter")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("Warn record was unexpectedly suppressed")
	}
}

func TestSetupLogger_DebugLevelAddsSource(t *testing.T) {
	// When level=debug, AddSource=true. Verified indirectly: the call must not
	// panic while exercising the AddSource code path.
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("SetupLogger with debug+json panicked: %v", r)
		}
		SetupLogger("text", "error") // reset
	}()
	SetupLogger("json", "debug")
}
