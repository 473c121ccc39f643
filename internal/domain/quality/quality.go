// Package quality scores the finished artifact: the mastered audio length
// against the clip and the structural similarity of restored to original
// frames. Its verdict is advisory.
package quality

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/duration"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type FrameSource interface {
	CountFrames(ctx context.Context, video string) (int, error)
	ExtractFrame(ctx context.Context, video string, index int, outPNG string) error
}

type Options struct {
	Samples   int
	Threshold float64
	Size      int
	Tolerance time.Duration
	Workers   int
}

func DefaultOptions() Options {
	return Options{
		Samples:   10,
		Threshold: 0.80,
		Size:      256,
		Tolerance: duration.DefaultTolerance,
		Workers:   4,
	}
}

type Inputs struct {
	MasteredAudio string
	Original      string
	Restored      string
	Target        time.Duration
	// WorkDir holds the sampled frames while they are scored.
	WorkDir string
}

type Validator struct {
	Frames  FrameSource
	Options Options
	Logger  *slog.Logger
}

// Validate never fails on a bad measurement; it only returns an error when ctx
// is done.
func (v Validator) Validate(ctx context.Context, in Inputs) (types.ValidationReport, error) {
	log := logging.Or(v.Logger).With(logging.Component("quality"))
	opts := v.Options

	rep := types.ValidationReport{
		DurationTarget:    in.Target.Seconds(),
		DurationTolerance: opts.Tolerance.Seconds(),
		SSIMThreshold:     opts.Threshold,
	}

	actual, err := audio.WAVDuration(in.MasteredAudio)
	if err != nil {
		log.Warn("duration check skipped", logging.Error(err))
	} else {
		ok, _ := duration.Check(actual, in.Target, opts.Tolerance)
		rep.DurationOK = ok
		rep.DurationActual = actual.Seconds()
	}

	score, scored, err := v.structural(ctx, in, log)
	if err != nil {
		return rep, err
	}
	rep.SSIMScore = score
	rep.SSIMSamples = scored
	rep.SSIMOK = score >= opts.Threshold
	rep.OverallPass = rep.DurationOK && rep.SSIMOK
	return rep, nil
}

func (v Validator) structural(ctx context.Context, in Inputs, log *slog.Logger) (float64, int, error) {
	opts := v.Options
	total, err := v.Frames.CountFrames(ctx, in.Original)
	if err != nil {
		log.Warn("frame count failed; ssim scored as 0", logging.Error(err))
		return 0, 0, ctx.Err()
	}
	indices := SampleIndices(total, opts.Samples)
	if len(indices) == 0 {
		return 0, 0, ctx.Err()
	}

	tmp, err := os.MkdirTemp(in.WorkDir, "ssim-")
	if err != nil {
		log.Warn("ssim workdir failed", logging.Error(err))
		return 0, 0, ctx.Err()
	}
	defer os.RemoveAll(tmp)

	scores := make([]float64, len(indices))
	valid := make([]bool, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, idx := range indices {
		g.Go(func() error {
			s, err := v.scoreFrame(gctx, in, idx, tmp, i)
			if err != nil {
				log.Debug("ssim sample skipped", slog.Int("frame", idx), logging.Error(err))
				return nil
			}
			scores[i], valid[i] = s, true
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	var sum float64
	var n int
	for i, ok := range valid {
		if ok {
			sum += scores[i]
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return sum / float64(n), n, nil
}

func (v Validator) scoreFrame(ctx context.Context, in Inputs, idx int, dir string, slot int) (float64, error) {
	origPath := filepath.Join(dir, fmt.Sprintf("orig_%03d.png", slot))
	restPath := filepath.Join(dir, fmt.Sprintf("rest_%03d.png", slot))
	if err := v.Frames.ExtractFrame(ctx, in.Original, idx, origPath); err != nil {
		return 0, err
	}
	if err := v.Frames.ExtractFrame(ctx, in.Restored, idx, restPath); err != nil {
		return 0, err
	}
	a, err := loadGray(origPath, v.Options.Size)
	if err != nil {
		return 0, err
	}
	b, err := loadGray(restPath, v.Options.Size)
	if err != nil {
		return 0, err
	}
	return SSIM(a, b), nil
}

func loadGray(path string, size int) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return ToGray(img, size), nil
}

// SampleIndices returns n evenly spaced frame indices over [0, total-1],
// truncated to integers.
func SampleIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{0}
	}
	out := make([]int, n)
	step := float64(total-1) / float64(n-1)
	for i := range out {
		out[i] = int(float64(i) * step)
	}
	out[n-1] = total - 1
	return out
}
