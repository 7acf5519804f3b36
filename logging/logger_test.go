package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	f.ColorOutput = false
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	str := string(out)
	if !strings.Contains(str, "INFO") {
		t.Error("Expected level INFO")
	}
	if !strings.Contains(str, "[Test]") {
		t.Error("Expected category [Test]")
	}
	if !strings.Contains(str, "Hello") {
		t.Error("Expected message Hello")
	}
	if !strings.Contains(str, "key=val") {
		t.Error("Expected field key=val")
	}
}

func TestTextFormatterQuotesValues(t *testing.T) {
	f := &TextFormatter{}
	out, _ := f.Format(&LogEntry{
		Level:   LogLevelDebug,
		Message: "Resolution failed",
		Fields: []Field{
			{Key: "error", Value: errors.New("type not registered")},
			{Key: "elapsed", Value: 1500 * time.Millisecond},
			{Key: "ref", Value: ""},
		},
	})

	want := `DEBUG Resolution failed {error="type not registered", elapsed=1.5s, ref=""}` + "\n"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestJsonFormatter(t *testing.T) {
	f := NewJsonFormatter()
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelWarn,
		Category: "Test",
		Message:  "Hello",
		Fields: []Field{
			{Key: "key", Value: "val"},
			{Key: "error", Value: errors.New("boom")},
		},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if data["level"] != "WARN" {
		t.Error("Expected level WARN")
	}
	if data["category"] != "Test" {
		t.Error("Expected category Test")
	}
	fields, ok := data["fields"].(map[string]any)
	if !ok {
		t.Fatal("Expected fields map")
	}
	if fields["key"] != "val" {
		t.Error("Expected key=val")
	}
	if fields["error"] != "boom" {
		t.Errorf("Expected error text, got %v", fields["error"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: LogLevelWarn, Output: &buf})

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if l.Enabled(LogLevelInfo) {
		t.Error("Info should be disabled at WARN")
	}
}

func TestLoggerWithFieldsAndCategory(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Level: LogLevelTrace, Output: &buf})

	child := base.WithCategory("di").WithFields(Field{Key: "component", Value: "mailer"})
	child.Trace("built", Field{Key: "singleton", Value: true})

	out := buf.String()
	if !strings.Contains(out, "[di]") {
		t.Errorf("Expected category in %q", out)
	}
	if !strings.Contains(out, "component=mailer, singleton=true") {
		t.Errorf("Expected inherited and call fields in %q", out)
	}

	// 派生 logger 不应影响父 logger 的字段
	buf.Reset()
	base.Info("plain")
	if strings.Contains(buf.String(), "component=") {
		t.Errorf("Parent logger leaked child fields: %q", buf.String())
	}
}

func TestLoggerConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: LogLevelInfo, Output: &buf, Formatter: NewJsonFormatter()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Info("line", Field{Key: "n", Value: n})
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("Expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		var data map[string]any
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			t.Fatalf("Interleaved output %q: %v", line, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LogLevelDebug, true},
		{" WARNING ", LogLevelWarn, true},
		{"", LogLevelInfo, true},
		{"off", LogLevelOff, true},
		{"loud", LogLevelInfo, false},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("ignored")
	if l.Enabled(LogLevelError) {
		t.Error("Nop logger should report every level disabled")
	}
	if l.WithCategory("x") == nil {
		t.Error("WithCategory should return a logger")
	}
}

func BenchmarkTextLogging(b *testing.B) {
	l := New(Options{Level: LogLevelInfo, Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("Benchmark", Field{Key: "i", Value: i})
	}
}
