package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInitWithWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	Get().Info(context.Background(), "fixture analysed", String("match_id", "m-1"), Int("picks", 9))

	out := buf.String()
	if !strings.Contains(out, "fixture analysed") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "match_id=m-1") {
		t.Errorf("expected match_id field, got %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("expected caller source, got %q", out)
	}
}

func TestLoggerNilWriter(t *testing.T) {
	if err := InitWithWriter(nil); err == nil {
		t.Fatal("expected error for nil writer")
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	l := Named("dna").With(String("team", "Arsenal"), Bool("cached", false))
	l.Warn(context.Background(), "inconsistent slot", Error(errors.New("negative shots")), Duration("took", time.Millisecond))

	out := buf.String()
	for _, want := range []string{"component=dna", "team=Arsenal", "cached=false", "negative shots"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Debug(context.Background(), "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Debug(context.Background(), "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug record should be written at debug level")
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "dropped")
	if l.Named("x") == nil || l.With(String("k", "v")) == nil {
		t.Fatal("nop children must not be nil")
	}
}
