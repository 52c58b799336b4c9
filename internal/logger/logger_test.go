package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, INFO, false)

	l.Info("login", "username", "budi", "password", "secret123", "session_id", "abcdef0123456789", "id_number", "0051234567", "email", "budi@example.com")

	out := buf.String()
	for _, leaked := range []string{"secret123", "abcdef0123456789", "0051234567", "budi@example.com"} {
		if strings.Contains(out, leaked) {
			t.Errorf("Expected %q to be redacted, got %s", leaked, out)
		}
	}
	for _, want := range []string{"username=budi", "password=[REDACTED]", "session_id=abcd****", "id_number=******4567", "email=b****i@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %s", want, out)
		}
	}
}

func TestDevDebugSkipsRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG, true)

	l.Debug("raw", "password", "secret123")

	if !strings.Contains(buf.String(), "password=secret123") {
		t.Errorf("Expected raw value in dev debug mode, got %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN, false)

	l.Info("hidden")
	l.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected info message to be filtered")
	}
	if !strings.Contains(buf.String(), "[WARN] shown") {
		t.Errorf("Expected warn message, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"Error":   ERROR,
		"":        INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
