package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type scope struct {
	name string
	ev   *events
}

func (s scope) Load(context.Context) error {
	s.ev.add("load " + s.name)
	return nil
}

func (s scope) Release() { s.ev.add("release " + s.name) }

func tone(d time.Duration, sr int, freq float64) audio.Buffer {
	n := audio.SamplesFor(d, sr)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return audio.Buffer{Samples: out, SampleRate: sr}
}

func touch(path string) error {
	return os.WriteFile(path, []byte(filepath.Base(path)), 0o644)
}

func writeFrame(path string) error {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x*12 + y*3)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}

type fakeVideo struct {
	frames  int
	native  types.FrameRate
	encoded []string
}

var _ ports.VideoTool = (*fakeVideo)(nil)

func (v *fakeVideo) ExtractClip(_ context.Context, _ types.ClipSpec, out string) error {
	return touch(out)
}

func (v *fakeVideo) ExtractAudioMono16k(_ context.Context, _ string, out string) error {
	return audio.WriteWAV(out, tone(2*time.Second, 16000, 150))
}

func (v *fakeVideo) ExtractReference(_ context.Context, _ string, length time.Duration, sr int, out string) error {
	return audio.WriteWAV(out, tone(length, sr, 150))
}

func (v *fakeVideo) NormalizeWAV(_ context.Context, in, out string) error {
	return copyFile(in, out)
}

func (v *fakeVideo) ProbeDuration(context.Context, string) (time.Duration, error) {
	return 2 * time.Second, nil
}

func (v *fakeVideo) ProbeFrameRate(context.Context, string) (types.FrameRate, error) {
	return v.native, nil
}

func (v *fakeVideo) CountFrames(context.Context, string) (int, error) { return v.frames, nil }

func (v *fakeVideo) ReencodeAtRate(_ context.Context, _ string, fps types.FrameRate, out string) error {
	v.encoded = append(v.encoded, fps.String())
	return touch(out)
}

func (v *fakeVideo) ExtractFrames(_ context.Context, _ string, pattern string) error {
	for i := 1; i <= v.frames; i++ {
		if err := writeFrame(fmt.Sprintf(pattern, i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *fakeVideo) AssembleFrames(_ context.Context, _ string, _ types.FrameRate, _ string, out string) error {
	return touch(out)
}

func (v *fakeVideo) ExtractFrame(_ context.Context, _ string, _ int, out string) error {
	return writeFrame(out)
}

func (v *fakeVideo) FinalEncode(_ context.Context, _ string, out string) error {
	return touch(out)
}

type fakeRecognizer struct {
	scope
	tr types.Transcript
}

func (f fakeRecognizer) Transcribe(context.Context, string) (types.Transcript, error) {
	return f.tr, nil
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, tr types.Transcript, _, _ string) ([]types.TranslatedSegment, error) {
	out := make([]types.TranslatedSegment, len(tr.Segments))
	for i, s := range tr.Segments {
		out[i] = types.TranslatedSegment{Start: s.Start, End: s.End, SourceText: s.Text, TargetText: "hi:" + s.Text}
	}
	return out, nil
}

type fakeAudioTranslator struct {
	span time.Duration
}

func (f *fakeAudioTranslator) TranslateAudio(_ context.Context, _ string, span time.Duration, _, _ string) (types.TranslatedSegment, error) {
	f.span = span
	return types.TranslatedSegment{Start: 0, End: span.Seconds(), SourceText: "ನಮಸ್ಕಾರ", TargetText: "नमस्ते"}, nil
}

// fakeSynth returns speech of durations[i] on call i, repeating the last.
type fakeSynth struct {
	scope
	mu        sync.Mutex
	durations []time.Duration
	requests  []ports.SynthesisRequest
	err       error
}

func (f *fakeSynth) Synthesize(_ context.Context, req ports.SynthesisRequest) error {
	f.mu.Lock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	d := f.durations[min(i, len(f.durations)-1)]
	return audio.WriteWAV(req.OutPath, tone(d, 16000, 220))
}

func (f *fakeSynth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeLipSync struct {
	scope
	err   error
	calls int
}

func (f *fakeLipSync) LipSync(_ context.Context, _, _, out string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return touch(out)
}

type fakeRestorer struct {
	scope
	mu    sync.Mutex
	calls int
}

func (f *fakeRestorer) RestoreFrame(_ context.Context, in, out string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return copyFile(in, out)
}

type fakeShortener struct {
	out   string
	err   error
	calls int
	limit int
}

func (f *fakeShortener) Shorten(_ context.Context, _, _ string, maxRunes int) (string, error) {
	f.calls++
	f.limit = maxRunes
	return f.out, f.err
}

var errBoom = errors.New("boom")
