package logging

import (
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{SessionID: "abc123", Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	l.Debug("hello", zap.Int("n", 1))
	path := l.FilePath()
	if err := l.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if !strings.HasSuffix(path, "_abc123.log") {
		t.Errorf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{`"msg":"hello"`, `"n":1`, `"session":"abc123"`, `"msg":"session completed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log file missing %s:\n%s", want, out)
		}
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{SessionID: "s", Dir: dir, Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("quiet")
	path := l.FilePath()
	l.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "quiet") {
		t.Error("info line written at warn level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("dropped")
	if l.FilePath() != "" {
		t.Error("Nop logger has no file")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}

func TestToolCallTruncates(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ToolCall(zap.New(core), "calculator", strings.Repeat("i", 150), strings.Repeat("o", 250))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tool"] != "calculator" {
		t.Errorf("tool = %v", fields["tool"])
	}
	if in := fields["input"].(string); len(in) != 103 {
		t.Errorf("input length = %d, want 103", len(in))
	}
	if out := fields["output"].(string); len(out) != 203 {
		t.Errorf("output length = %d, want 203", len(out))
	}
}
