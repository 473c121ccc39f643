package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

// Probe is the parsed ffprobe JSON document.
type Probe struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	NBReadFrames string `json:"nb_read_frames"`
	Duration     string `json:"duration"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Video returns the first video stream.
func (p Probe) Video() (Stream, bool) {
	for _, s := range p.Streams {
		if strings.EqualFold(s.CodecType, "video") {
			return s, true
		}
	}
	return Stream{}, false
}

func (p Probe) DurationSeconds() float64 {
	return parseFloat(p.Format.Duration)
}

// Inspect runs ffprobe over path. Extra args such as -count_frames are passed through.
func (a *Adapter) Inspect(ctx context.Context, path string, extra ...string) (Probe, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Probe{}, errors.New("ffprobe inspect: empty path")
	}
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json"}
	args = append(args, extra...)
	args = append(args, "--", path)
	res, err := a.run.Run(ctx, process.Cmd{Name: a.ffprobe, Args: args})
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	var p Probe
	if err := json.Unmarshal(res.Output, &p); err != nil {
		return Probe{}, fmt.Errorf("ffprobe parse: %w: %s", err, trimOutput(res.Output))
	}
	return p, nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	p, err := a.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	sec := p.DurationSeconds()
	if math.IsNaN(sec) || sec <= 0 {
		return 0, fmt.Errorf("ffprobe duration %s: invalid %q", path, p.Format.Duration)
	}
	return time.Duration(math.Round(sec * float64(time.Second))), nil
}

func (a *Adapter) ProbeFrameRate(ctx context.Context, video string) (types.FrameRate, error) {
	p, err := a.Inspect(ctx, video)
	if err != nil {
		return types.FrameRate{}, err
	}
	s, ok := p.Video()
	if !ok {
		return types.FrameRate{}, fmt.Errorf("ffprobe frame rate %s: no video stream", video)
	}
	fps, err := types.ParseFrameRate(s.RFrameRate)
	if err != nil {
		return types.FrameRate{}, fmt.Errorf("ffprobe frame rate %s: %w", video, err)
	}
	return fps, nil
}

// CountFrames uses the container frame count, decoding the stream when the
// container does not record one.
func (a *Adapter) CountFrames(ctx context.Context, video string) (int, error) {
	p, err := a.Inspect(ctx, video)
	if err != nil {
		return 0, err
	}
	s, ok := p.Video()
	if !ok {
		return 0, fmt.Errorf("ffprobe frame count %s: no video stream", video)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s.NBFrames)); err == nil && n > 0 {
		return n, nil
	}

	p, err = a.Inspect(ctx, video, "-count_frames", "-select_streams", "v:0")
	if err != nil {
		return 0, err
	}
	s, ok = p.Video()
	if !ok {
		return 0, fmt.Errorf("ffprobe frame count %s: no video stream", video)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s.NBReadFrames))
	if err != nil {
		return 0, fmt.Errorf("ffprobe frame count %s: %w", video, err)
	}
	return n, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
