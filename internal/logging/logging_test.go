package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColorHandlerWritesAttrs(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, slog.LevelInfo)).With("play", "p1")

	log.Debug("hidden")
	log.Info("play opened", "locked", true)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %q", out)
	}
	for _, want := range []string{"INFO:", "play opened", "play=p1", "locked=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", "warn").Warn("shared quiz did not decode")
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Fatalf("expected json output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG") != slog.LevelDebug || ParseLevel("") != slog.LevelInfo || ParseLevel("error") != slog.LevelError {
		t.Fatalf("unexpected level mapping")
	}
}
