package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCustomHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandlerWithWriter("Leetboard", slog.LevelInfo, &buf))

	l.Info("Snapshot tick finished", slog.String("type", "job"), slog.Int("count", 2), slog.String("status", "ok"))
	line := buf.String()

	for _, want := range []string{"[Leetboard]", "INFO", "[JOB]", "Snapshot tick finished [Status: ok]", "count=2"} {
		if !strings.Contains(line, want) {
			t.Errorf("CustomHandler.Handle() got = %q, want it to contain %q", line, want)
		}
	}
	if strings.Contains(line, "type=") {
		t.Errorf("CustomHandler.Handle() should not print the type attribute: %q", line)
	}
}

func TestCustomHandler_LevelAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandlerWithWriter("Leetboard", slog.LevelWarn, &buf))

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("CustomHandler below level wrote %q", buf.String())
	}

	l.With(slog.String("type", "cmd")).WithGroup("http").With(slog.String("method", "GET")).Warn("slow")
	line := buf.String()
	if !strings.Contains(line, "[CMD]") || !strings.Contains(line, "http.method=GET") {
		t.Errorf("CustomHandler.Handle() got = %q", line)
	}
}
