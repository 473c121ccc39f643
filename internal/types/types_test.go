package types

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewClipSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		start   time.Duration
		end     time.Duration
		wantErr bool
	}{
		{name: "valid", source: "in.mp4", start: 2 * time.Second, end: 14500 * time.Millisecond},
		{name: "empty source", source: " ", start: 0, end: time.Second, wantErr: true},
		{name: "negative start", source: "in.mp4", start: -time.Second, end: time.Second, wantErr: true},
		{name: "zero duration", source: "in.mp4", start: time.Second, end: time.Second, wantErr: true},
		{name: "end before start", source: "in.mp4", start: 3 * time.Second, end: time.Second, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClipSpec(tt.source, tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Duration() != 12500*time.Millisecond {
				t.Fatalf("unexpected duration %s", c.Duration())
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := map[string]time.Duration{
		"12.5":         12500 * time.Millisecond,
		"0":            0,
		"01:30":        90 * time.Second,
		"1:02:03.25":   time.Hour + 2*time.Minute + 3250*time.Millisecond,
		" 00:00:07.5 ": 7500 * time.Millisecond,
		"2562047:00:00": 2562047 * time.Hour,
	}
	for in, want := range tests {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTimestamp(%q) = %s, want %s", in, got, want)
		}
	}

	for _, bad := range []string{"", "abc", "1:2:3:4", "00:75", "-3", "1.5:00",
		"nan", "NaN", "inf", "+Inf", "00:nan", "1e12", "2562048:00:00"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Fatalf("ParseTimestamp(%q): expected error", bad)
		}
	}
}

func TestStageOrder(t *testing.T) {
	t.Parallel()

	if StageExtract.Requires() != StatePending {
		t.Fatalf("extract must start from pending")
	}
	prev := StatePending
	for _, s := range Stages {
		if s.Requires() != prev {
			t.Fatalf("stage %s requires %s, want %s", s, s.Requires(), prev)
		}
		prev = s.Produces()
	}
	if prev != StateEncoded || !prev.Terminal() {
		t.Fatalf("last stage must produce terminal encoded state, got %s", prev)
	}
}

func TestArtifactsWriteOnce(t *testing.T) {
	t.Parallel()

	layout := Layout{Dir: "out"}
	arts := NewArtifacts()
	raw := layout.Artifact(KindRawSpeech)
	if raw.Path != filepath.Join("out", "tts_raw.wav") {
		t.Fatalf("unexpected path %s", raw.Path)
	}
	if err := arts.Record(StageSynthesize, raw); err != nil {
		t.Fatalf("record: %v", err)
	}
	// retry attempt of the same stage may overwrite
	if err := arts.Record(StageSynthesize, raw); err != nil {
		t.Fatalf("re-record by owner: %v", err)
	}
	if err := arts.Record(StageMaster, raw); err == nil {
		t.Fatalf("expected error when another stage overwrites")
	}
	if _, ok := arts.Get(KindRawSpeech); !ok {
		t.Fatalf("expected artifact to be recorded")
	}
	if len(arts.List()) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(arts.List()))
	}
}

func TestTranslatedTranscriptTargetText(t *testing.T) {
	t.Parallel()

	tr := TranslatedTranscript{Segments: []TranslatedSegment{
		{TargetText: " नमस्ते "},
		{TargetText: ""},
		{TargetText: "दुनिया"},
	}}
	if got := tr.TargetText(); got != "नमस्ते दुनिया" {
		t.Fatalf("unexpected target text %q", got)
	}
}
