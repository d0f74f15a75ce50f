package logx

import (
	"testing"
	"time"
)

func TestLoggerBuffersEntries(t *testing.T) {
	logger := NewLogger("test-component")
	logger.Info("hello %s", "world")

	entries := GetRecentLogEntries("test-component", time.Time{})
	if len(entries) == 0 {
		t.Fatal("Expected at least one buffered entry")
	}

	last := entries[len(entries)-1]
	if last.Message != "hello world" {
		t.Errorf("Expected message 'hello world', got %q", last.Message)
	}
	if last.Level != string(LevelInfo) {
		t.Errorf("Expected level INFO, got %s", last.Level)
	}
	if last.Component != "test-component" {
		t.Errorf("Expected component 'test-component', got %s", last.Component)
	}
}

func TestBufferEviction(t *testing.T) {
	buf := &InMemoryLogBuffer{maxSize: 3}
	for i := 0; i < 5; i++ {
		buf.AddLogEntry(&LogEntry{Message: string(rune('a' + i))})
	}

	entries := buf.GetLogEntries("", time.Time{})
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries after eviction, got %d", len(entries))
	}
	if entries[0].Message != "c" {
		t.Errorf("Expected oldest surviving entry 'c', got %q", entries[0].Message)
	}
}

func TestDebugSuppressedByDefault(t *testing.T) {
	SetDebug(false)
	defer SetDebug(false)

	logger := NewLogger("debug-test")
	logger.Debug("should not appear")

	entries := GetRecentLogEntries("debug-test", time.Time{})
	for _, e := range entries {
		if e.Level == string(LevelDebug) {
			t.Error("Debug entry buffered while debug disabled")
		}
	}

	SetDebug(true)
	logger.Debug("now visible")
	entries = GetRecentLogEntries("debug-test", time.Time{})
	found := false
	for _, e := range entries {
		if e.Level == string(LevelDebug) && e.Message == "now visible" {
			found = true
		}
	}
	if !found {
		t.Error("Expected debug entry after enabling debug")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "context"); err != nil {
		t.Errorf("Wrap(nil) should return nil, got %v", err)
	}
}
