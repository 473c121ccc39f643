package ports

import (
	"context"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type VideoTool interface {
	ExtractClip(ctx context.Context, clip types.ClipSpec, outMP4 string) error
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	ExtractReference(ctx context.Context, inWav string, length time.Duration, sampleRate int, outWav string) error
	NormalizeWAV(ctx context.Context, in, outWav string) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	ProbeFrameRate(ctx context.Context, video string) (types.FrameRate, error)
	CountFrames(ctx context.Context, video string) (int, error)
	ReencodeAtRate(ctx context.Context, inVideo string, fps types.FrameRate, outVideo string) error
	ExtractFrames(ctx context.Context, video, pattern string) error
	AssembleFrames(ctx context.Context, pattern string, fps types.FrameRate, audioFrom, outVideo string) error
	ExtractFrame(ctx context.Context, video string, index int, outPNG string) error
	FinalEncode(ctx context.Context, video, outMP4 string) error
}

// ModelScope brackets the residency of a heavy model. Load also checks that the
// binaries and weights the model needs are present.
type ModelScope interface {
	Load(ctx context.Context) error
	Release()
}

type Recognizer interface {
	Transcribe(ctx context.Context, wavPath string) (types.Transcript, error)
}

type SegmentTranslator interface {
	Translate(ctx context.Context, tr types.Transcript, sourceLang, targetLang string) ([]types.TranslatedSegment, error)
}

// AudioTranslator transcribes and translates a clip in one call, producing a
// single segment over [0, span].
type AudioTranslator interface {
	TranslateAudio(ctx context.Context, wavPath string, span time.Duration, sourceLang, targetLang string) (types.TranslatedSegment, error)
}

// Shortener condenses a translation to at most maxRunes characters.
type Shortener interface {
	Shorten(ctx context.Context, source, target string, maxRunes int) (string, error)
}

type SynthesisRequest struct {
	Text      string
	Language  string
	Reference string // voice-cloning sample, empty when unused
	Voice     string
	Target    time.Duration
	OutPath   string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) error
}

type LipSyncer interface {
	LipSync(ctx context.Context, video, audio, outVideo string) error
}

type FrameRestorer interface {
	RestoreFrame(ctx context.Context, inPNG, outPNG string) error
}

// Publisher uploads the final artifact and returns its remote location.
type Publisher interface {
	Publish(ctx context.Context, runID, path string) (string, error)
}
