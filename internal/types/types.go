package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// TranslatedSegment pairs a recognized span with its target-language rendering.
type TranslatedSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	SourceText string  `json:"source_text"`
	TargetText string  `json:"target_text"`
}

type TranslatedTranscript struct {
	SourceLanguage string              `json:"source_language"`
	TargetLanguage string              `json:"target_language"`
	Segments       []TranslatedSegment `json:"segments"`
}

// TargetText joins all segment translations into the text handed to the synthesizer.
func (t TranslatedTranscript) TargetText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if v := strings.TrimSpace(s.TargetText); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// ClipSpec is the time range of the source video being dubbed.
type ClipSpec struct {
	source string
	start  time.Duration
	end    time.Duration
}

func NewClipSpec(source string, start, end time.Duration) (ClipSpec, error) {
	if strings.TrimSpace(source) == "" {
		return ClipSpec{}, errors.New("clip source is empty")
	}
	if start < 0 {
		return ClipSpec{}, fmt.Errorf("clip start %s is negative", start)
	}
	if end <= start {
		return ClipSpec{}, fmt.Errorf("clip end %s must be after start %s", end, start)
	}
	return ClipSpec{source: source, start: start, end: end}, nil
}

func (c ClipSpec) Source() string          { return c.source }
func (c ClipSpec) Start() time.Duration    { return c.start }
func (c ClipSpec) End() time.Duration      { return c.end }
func (c ClipSpec) Duration() time.Duration { return c.end - c.start }
func (c ClipSpec) IsZero() bool            { return c.source == "" }

// ValidationReport is informational; it never gates delivery.
type ValidationReport struct {
	DurationOK        bool    `json:"duration_ok"`
	DurationActual    float64 `json:"duration_actual"`
	DurationTarget    float64 `json:"duration_target"`
	DurationTolerance float64 `json:"duration_tolerance"`
	SSIMOK            bool    `json:"ssim_ok"`
	SSIMScore         float64 `json:"ssim_score"`
	SSIMThreshold     float64 `json:"ssim_threshold"`
	SSIMSamples       int     `json:"ssim_samples"`
	OverallPass       bool    `json:"overall_pass"`
}

// MasteredAudio describes the mastered artifact chosen by the duration retry loop.
type MasteredAudio struct {
	Path            string  `json:"path"`
	Target          float64 `json:"target_sec"`
	Achieved        float64 `json:"achieved_sec"`
	Attempt         int     `json:"attempt"`
	StretchRate     float64 `json:"stretch_rate"`
	WithinTolerance bool    `json:"within_tolerance"`
}

type Manifest struct {
	RunID      string            `json:"run_id"`
	Input      string            `json:"input"`
	StartSec   float64           `json:"start_sec"`
	EndSec     float64           `json:"end_sec"`
	State      State             `json:"state"`
	Strategy   string            `json:"strategy"`
	Artifacts  []ManifestFile    `json:"artifacts"`
	Mastered   *MasteredAudio    `json:"mastered,omitempty"`
	Validation *ValidationReport `json:"validation,omitempty"`
	Published  string            `json:"published,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

type ManifestFile struct {
	Kind ArtifactKind `json:"kind"`
	File string       `json:"file"`
}
