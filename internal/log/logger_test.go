package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerWritesComponentAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil), Component: ComponentWorker})
	logger.WithUser("u1").Failure(context.Background(), "sync failed", errors.New("boom"), FieldEntryID, "e1")

	out := buf.String()
	for _, want := range []string{"component=worker", "user_id=u1", "error=boom", "entry_id=e1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q missing %q", out, want)
		}
	}
	if logger.Component() != ComponentWorker {
		t.Fatalf("Component() = %q", logger.Component())
	}
}

func TestContextCarriesLogger(t *testing.T) {
	logger := New(Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil), Component: ComponentHTTP})
	ctx := NewContext(context.Background(), logger.With(FieldRequestID, "req_1"))

	if got := FromContext(ctx); got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(previous)
		defaultLogger.Store(nil)
	})

	var buf bytes.Buffer
	SetDefault(New(Config{Handler: slog.NewTextHandler(&buf, nil)}))
	FromContext(context.Background()).Info("no logger in context")

	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("log line %q carries component %d times", out, n)
	}
	if !strings.Contains(out, "component="+ComponentApp) {
		t.Fatalf("log line %q missing default component", out)
	}
}
