package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

// Profile is the delivery encode.
type Profile struct {
	VideoCodec   string
	CRF          int
	MaxRate      string
	BufSize      string
	Preset       string
	AudioCodec   string
	AudioBitrate string
}

func DefaultProfile() Profile {
	return Profile{
		VideoCodec:   "libx264",
		CRF:          23,
		MaxRate:      "4M",
		BufSize:      "8M",
		Preset:       "medium",
		AudioCodec:   "aac",
		AudioBitrate: "192k",
	}
}

type Options struct {
	FFmpeg  string
	FFprobe string
	Runner  process.Runner
	Final   Profile
	// IntermediateCRF is used for clip cuts and frame-rate conversions.
	IntermediateCRF int
	AssembleCRF     int
	AssemblePreset  string
}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	run     process.Runner
	opts    Options
}

func New(opts Options) *Adapter {
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.FFprobe == "" {
		opts.FFprobe = "ffprobe"
	}
	if opts.Final == (Profile{}) {
		opts.Final = DefaultProfile()
	}
	if opts.IntermediateCRF <= 0 {
		opts.IntermediateCRF = 16
	}
	if opts.AssembleCRF <= 0 {
		opts.AssembleCRF = 16
	}
	if opts.AssemblePreset == "" {
		opts.AssemblePreset = "slow"
	}
	return &Adapter{ffmpeg: opts.FFmpeg, ffprobe: opts.FFprobe, run: process.Default(opts.Runner), opts: opts}
}

func (a *Adapter) exec(ctx context.Context, verb string, args ...string) error {
	_, err := a.run.Run(ctx, process.Cmd{Name: a.ffmpeg, Args: append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)})
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w", verb, err)
	}
	return nil
}

// ExtractClip re-encodes [start, end) so the cut is frame accurate.
func (a *Adapter) ExtractClip(ctx context.Context, clip types.ClipSpec, outMP4 string) error {
	return a.exec(ctx, "extract clip",
		"-ss", fmtSeconds(clip.Start()),
		"-i", clip.Source(),
		"-t", fmtSeconds(clip.Duration()),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", strconv.Itoa(a.opts.IntermediateCRF),
		"-c:a", "aac",
		"-b:a", "192k",
		outMP4,
	)
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	return a.exec(ctx, "extract audio",
		"-i", inVideo,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	)
}

// ExtractReference takes the first length of inWav as a mono voice sample.
func (a *Adapter) ExtractReference(ctx context.Context, inWav string, length time.Duration, sampleRate int, outWav string) error {
	return a.exec(ctx, "extract reference",
		"-i", inWav,
		"-t", fmtSeconds(length),
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		outWav,
	)
}

// NormalizeWAV converts any audio file to 16-bit mono PCM at its own rate.
func (a *Adapter) NormalizeWAV(ctx context.Context, in, outWav string) error {
	return a.exec(ctx, "normalize wav",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	)
}

// ReencodeAtRate materializes frames at fps; the audio track is carried along.
func (a *Adapter) ReencodeAtRate(ctx context.Context, inVideo string, fps types.FrameRate, outVideo string) error {
	return a.exec(ctx, "reencode at "+fps.String()+" fps",
		"-i", inVideo,
		"-vf", "fps="+fps.String(),
		"-c:v", "libx264",
		"-crf", strconv.Itoa(a.opts.IntermediateCRF),
		"-c:a", "aac",
		outVideo,
	)
}

func (a *Adapter) ExtractFrames(ctx context.Context, video, pattern string) error {
	return a.exec(ctx, "extract frames",
		"-i", video,
		"-vsync", "0",
		pattern,
	)
}

// AssembleFrames encodes an image sequence at fps and muxes the audio of audioFrom.
func (a *Adapter) AssembleFrames(ctx context.Context, pattern string, fps types.FrameRate, audioFrom, outVideo string) error {
	return a.exec(ctx, "assemble frames",
		"-framerate", fps.String(),
		"-i", pattern,
		"-i", audioFrom,
		"-map", "0:v",
		"-map", "1:a?",
		"-c:v", "libx264",
		"-crf", strconv.Itoa(a.opts.AssembleCRF),
		"-preset", a.opts.AssemblePreset,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outVideo,
	)
}

// ExtractFrame writes the frame with the given zero-based index as PNG.
func (a *Adapter) ExtractFrame(ctx context.Context, video string, index int, outPNG string) error {
	return a.exec(ctx, "extract frame "+strconv.Itoa(index),
		"-i", video,
		"-vf", `select=eq(n\,`+strconv.Itoa(index)+`)`,
		"-vsync", "0",
		"-frames:v", "1",
		outPNG,
	)
}

func (a *Adapter) FinalEncode(ctx context.Context, video, outMP4 string) error {
	p := a.opts.Final
	return a.exec(ctx, "final encode",
		"-i", video,
		"-map", "0:v",
		"-map", "0:a?",
		"-c:v", p.VideoCodec,
		"-crf", strconv.Itoa(p.CRF),
		"-maxrate", p.MaxRate,
		"-bufsize", p.BufSize,
		"-preset", p.Preset,
		"-pix_fmt", "yuv420p",
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		"-movflags", "+faststart",
		outMP4,
	)
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func trimOutput(b []byte) string {
	return strings.TrimSpace(string(b))
}
