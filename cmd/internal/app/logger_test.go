package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewHandler_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "info", "json", false))
	log.Info("server.start", "addr", ":8080")
	log.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "server.start" || rec["addr"] != ":8080" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewHandler_Pretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "debug", "pretty", false))
	log.Debug("session.rotated", "session_id", "01ABC")

	out := buf.String()
	if !strings.Contains(out, "[DEBUG]") || !strings.Contains(out, "msg=session.rotated") {
		t.Fatalf("unexpected pretty output: %q", out)
	}
	if !strings.Contains(out, "session_id=01ABC") {
		t.Fatalf("missing attr in %q", out)
	}
}
