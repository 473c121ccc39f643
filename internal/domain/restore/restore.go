// Package restore runs a per-frame restoration model over a video and
// reassembles the result at the source frame rate and resolution.
package restore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

// FramePattern is the ffmpeg image sequence name used for both frame directories.
const FramePattern = "%05d.png"

type VideoTool interface {
	ProbeFrameRate(ctx context.Context, video string) (types.FrameRate, error)
	ExtractFrames(ctx context.Context, video, pattern string) error
	AssembleFrames(ctx context.Context, pattern string, fps types.FrameRate, audioFrom, outVideo string) error
}

type FrameRestorer interface {
	RestoreFrame(ctx context.Context, inPNG, outPNG string) error
}

type Paths struct {
	Video       string
	FramesDir   string
	RestoredDir string
	Output      string
}

type Result struct {
	Frames  int
	Resized int
	Width   int
	Height  int
	FPS     types.FrameRate
}

type Restorer struct {
	Video   VideoTool
	Model   FrameRestorer
	Workers int
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
	Logger   *slog.Logger
}

// Run restores every frame of p.Video into p.Output. Both frame directories are
// removed before Run returns, on success or failure.
func (r Restorer) Run(ctx context.Context, p Paths) (res Result, err error) {
	log := logging.Or(r.Logger).With(logging.Component("restore"))

	fps, err := r.Video.ProbeFrameRate(ctx, p.Video)
	if err != nil {
		return Result{}, fmt.Errorf("probe frame rate: %w", err)
	}

	for _, dir := range []string{p.FramesDir, p.RestoredDir} {
		if err := os.RemoveAll(dir); err != nil {
			return Result{}, fmt.Errorf("reset %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	defer func() {
		cleanupErr := errors.Join(os.RemoveAll(p.FramesDir), os.RemoveAll(p.RestoredDir))
		if cleanupErr != nil {
			log.Warn("frame cleanup failed", logging.Error(cleanupErr))
		}
	}()

	if err := r.Video.ExtractFrames(ctx, p.Video, filepath.Join(p.FramesDir, FramePattern)); err != nil {
		return Result{}, fmt.Errorf("extract frames: %w", err)
	}
	frames, err := listFrames(p.FramesDir)
	if err != nil {
		return Result{}, err
	}
	if len(frames) == 0 {
		return Result{}, fmt.Errorf("extract frames: no frames in %s", p.FramesDir)
	}
	width, height, err := frameSize(filepath.Join(p.FramesDir, frames[0]))
	if err != nil {
		return Result{}, err
	}
	log.Info("restoring frames",
		slog.Int("frames", len(frames)),
		slog.Int("width", width),
		slog.Int("height", height),
		slog.String("fps", fps.String()),
	)

	bar := progressbar.NewOptions(len(frames),
		progressbar.OptionSetWriter(writerOrDiscard(r.Progress)),
		progressbar.OptionSetVisibility(r.Progress != nil),
		progressbar.OptionSetDescription("restoring frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	resized := make([]bool, len(frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, name := range frames {
		g.Go(func() error {
			in := filepath.Join(p.FramesDir, name)
			out := filepath.Join(p.RestoredDir, name)
			if err := r.Model.RestoreFrame(gctx, in, out); err != nil {
				return fmt.Errorf("restore frame %s: %w", name, err)
			}
			changed, err := fitFrame(out, width, height)
			if err != nil {
				return fmt.Errorf("resize frame %s: %w", name, err)
			}
			resized[i] = changed
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	_ = bar.Finish()

	restored, err := listFrames(p.RestoredDir)
	if err != nil {
		return Result{}, err
	}
	if len(restored) != len(frames) {
		return Result{}, fmt.Errorf("restore frames: %d of %d frames produced", len(restored), len(frames))
	}

	if err := r.Video.AssembleFrames(ctx, filepath.Join(p.RestoredDir, FramePattern), fps, p.Video, p.Output); err != nil {
		return Result{}, fmt.Errorf("assemble frames: %w", err)
	}

	res = Result{Frames: len(frames), Width: width, Height: height, FPS: fps}
	for _, c := range resized {
		if c {
			res.Resized++
		}
	}
	return res, nil
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
