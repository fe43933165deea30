package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log output: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("session created", slog.String("user_id", "u-1"), slog.Int("count", 2))

	entry := decodeEntry(t, &buf)
	if entry["msg"] != "session created" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["user_id"] != "u-1" {
		t.Errorf("user_id = %v", entry["user_id"])
	}
	if entry["count"] != float64(2) {
		t.Errorf("count = %v", entry["count"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestSetup_SkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("renewal skipped")

	if buf.Len() != 0 {
		t.Errorf("debug entry written at Info level: %s", buf.String())
	}
}

func TestSetupLevel_Debug(t *testing.T) {
	var buf bytes.Buffer
	l := SetupLevel(&buf, slog.LevelDebug)

	l.Debug("renewal skipped")

	if entry := decodeEntry(t, &buf); entry["level"] != "DEBUG" {
		t.Errorf("level = %v, want DEBUG", entry["level"])
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Warn("purge failed", slog.String("kind", "session"))

	entry := decodeEntry(t, &buf)
	if entry["level"] != "WARN" || entry["kind"] != "session" {
		t.Errorf("entry = %v", entry)
	}
}
