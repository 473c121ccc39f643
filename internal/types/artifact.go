package types

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ArtifactKind declares what a file-backed stage output contains.
type ArtifactKind string

const (
	KindClipVideo       ArtifactKind = "clip_video"
	KindClipAudio       ArtifactKind = "clip_audio"
	KindTranscript      ArtifactKind = "transcript"
	KindTranslation     ArtifactKind = "translation"
	KindSubtitles       ArtifactKind = "subtitles"
	KindReferenceAudio  ArtifactKind = "reference_audio"
	KindRawSpeech       ArtifactKind = "raw_speech"
	KindSpeech          ArtifactKind = "speech"
	KindMasteredAudio   ArtifactKind = "mastered_audio"
	KindLipSyncInput    ArtifactKind = "lipsync_input"
	KindLipSyncRaw      ArtifactKind = "lipsync_raw"
	KindLipSyncedVideo  ArtifactKind = "lipsynced_video"
	KindRestoredVideo   ArtifactKind = "restored_video"
	KindValidation      ArtifactKind = "validation_report"
	KindFinalVideo      ArtifactKind = "final_video"
	KindFrames          ArtifactKind = "frames"
	KindRestoredFrames  ArtifactKind = "restored_frames"
	KindSynthesisOutput ArtifactKind = "synthesis_output"
)

var artifactNames = map[ArtifactKind]string{
	KindClipVideo:       "clip.mp4",
	KindClipAudio:       "clip.wav",
	KindTranscript:      "segments.json",
	KindTranslation:     "translated.json",
	KindSubtitles:       "translated.ass",
	KindReferenceAudio:  "ref_speaker.wav",
	KindSynthesisOutput: "tts_synth",
	KindRawSpeech:       "tts_raw.wav",
	KindSpeech:          "tts.wav",
	KindMasteredAudio:   "mastered.wav",
	KindLipSyncInput:    "lipsync_input.mp4",
	KindLipSyncRaw:      "lipsync_raw.mp4",
	KindLipSyncedVideo:  "lipsynced.mp4",
	KindRestoredVideo:   "restored.mp4",
	KindValidation:      "validation.json",
	KindFinalVideo:      "final_dubbed.mp4",
	KindFrames:          "frames",
	KindRestoredFrames:  "frames_restored",
}

const ManifestName = "manifest.json"

// FileName returns the fixed on-disk name for the kind.
func (k ArtifactKind) FileName() string {
	if n, ok := artifactNames[k]; ok {
		return n
	}
	return string(k)
}

// Artifact is a typed handle to a file produced by a stage.
type Artifact struct {
	Kind ArtifactKind
	Path string
}

func (a Artifact) String() string {
	return fmt.Sprintf("%s(%s)", a.Kind, a.Path)
}

func (a Artifact) IsZero() bool { return a.Path == "" }

// Layout resolves artifact kinds to paths inside one run directory.
type Layout struct {
	Dir string
}

func (l Layout) Artifact(k ArtifactKind) Artifact {
	return Artifact{Kind: k, Path: filepath.Join(l.Dir, k.FileName())}
}

func (l Layout) Manifest() string {
	return filepath.Join(l.Dir, ManifestName)
}

// Artifacts is the write-once set of outputs recorded during a run.
type Artifacts struct {
	byKind map[ArtifactKind]Artifact
	owner  map[ArtifactKind]Stage
}

func NewArtifacts() *Artifacts {
	return &Artifacts{
		byKind: make(map[ArtifactKind]Artifact),
		owner:  make(map[ArtifactKind]Stage),
	}
}

// Record stores a first-time artifact for the stage. Recording the same kind
// again is only allowed for the stage that produced it (a retry attempt).
func (a *Artifacts) Record(stage Stage, art Artifact) error {
	if art.Path == "" {
		return fmt.Errorf("artifact %s: empty path", art.Kind)
	}
	if owner, ok := a.owner[art.Kind]; ok && owner != stage {
		return fmt.Errorf("artifact %s already written by stage %s", art.Kind, owner)
	}
	a.byKind[art.Kind] = art
	a.owner[art.Kind] = stage
	return nil
}

// Get returns the recorded artifact of kind k.
func (a *Artifacts) Get(k ArtifactKind) (Artifact, bool) {
	art, ok := a.byKind[k]
	return art, ok
}

// List returns recorded artifacts ordered by kind.
func (a *Artifacts) List() []Artifact {
	out := make([]Artifact, 0, len(a.byKind))
	for _, art := range a.byKind {
		out = append(out, art)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
