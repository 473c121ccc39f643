package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	off := false
	logger, err := New(Options{Level: "debug", Format: "console", Writer: &buf, Color: &off})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.With(Component("sequencer")).Info("stage complete", Stage("extract"), Path("/tmp/clip.mp4"), Attempt(2))

	out := buf.String()
	if !strings.Contains(out, "INFO  [sequencer] extract – stage complete") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "    - path: /tmp/clip.mp4") {
		t.Fatalf("expected path field, got %q", out)
	}
	if !strings.Contains(out, "    - attempt: 2") {
		t.Fatalf("expected attempt field, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no colour codes, got %q", out)
	}
}

func TestConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", Error(errors.New("boom")))
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "error: boom") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConsoleGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Writer: &buf})
	logger.WithGroup("report").Info("done", "ssim", 0.91)
	if !strings.Contains(buf.String(), "report.ssim: 0.910") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hello", RunID("abc"))
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldRunID] != "abc" || rec["msg"] != "hello" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"", "debug", "INFO", "warn", "error"} {
		if !ValidLevel(l) {
			t.Fatalf("expected %q to be valid", l)
		}
	}
	if ValidLevel("loud") {
		t.Fatalf("expected loud to be invalid")
	}
}
