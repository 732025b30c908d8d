package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogger_IncludesCheckFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithCheck(CheckMeta{
		Kind:        "warehouse",
		Description: "Daily loads",
		Index:       4,
		Trigger:     "sweep",
	})

	logger.Info(context.Background(), "check execution completed")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	want := map[string]string{
		"check.id":          "warehouse#4",
		"check.kind":        "warehouse",
		"check.description": "Daily loads",
		"check.trigger":     "sweep",
		"msg":               "check execution completed",
		"level":             "info",
	}
	for k, v := range want {
		if e[k] != v {
			t.Errorf("%s = %v, want %q", k, e[k], v)
		}
	}
	if _, ok := e["check.target"]; ok {
		t.Error("check.target should be omitted when empty")
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	ctx := context.Background()
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("levels = %v, %v; want warn, error", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "connecting",
		Field{Key: "password", Value: "hunter2"},
		Field{Key: "Token", Value: "abc"},
		Field{Key: "params", Value: map[string]string{"user": "svc"}},
		Field{Key: "server", Value: "db01"},
	)

	out := buf.String()
	for _, secret := range []string{"hunter2", "abc", "svc"} {
		if strings.Contains(out, secret) {
			t.Errorf("log output leaked %q: %s", secret, out)
		}
	}

	e := decodeLines(t, &buf)[0]
	if e["password"] != "[REDACTED]" {
		t.Errorf("password = %v, want [REDACTED]", e["password"])
	}
	if e["server"] != "db01" {
		t.Errorf("server = %v, want db01", e["server"])
	}
}

func TestLogger_ErrorValuesRendered(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "check execution failed", Field{Key: "error", Value: errors.New("boom")})

	e := decodeLines(t, &buf)[0]
	if e["error"] != "boom" {
		t.Errorf("error = %v, want boom", e["error"])
	}
}

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithWriter("info", &buf)
	child := parent.With(Field{Key: "component", Value: "scheduler"})

	ctx := context.Background()
	child.Info(ctx, "child")
	parent.Info(ctx, "parent")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0]["component"] != "scheduler" {
		t.Errorf("child component = %v, want scheduler", entries[0]["component"])
	}
	if _, ok := entries[1]["component"]; ok {
		t.Error("parent logger should not carry child fields")
	}
}

func TestLogger_ConcurrentWritesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.WithCheck(CheckMeta{Kind: "relational", Index: i}).Info(context.Background(), "tick")
		}(i)
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != n {
		t.Errorf("lines = %d, want %d", got, n)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"loud", LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLogLevel(tc.in); got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
