// Package framerate reduces video to the frame rate a lip-sync model accepts,
// runs the model and restores the native rate afterwards.
package framerate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type Mode string

const (
	// ModeReconcile re-encodes to min(native, ceiling) around inference.
	ModeReconcile Mode = "reconcile"
	// ModeNative feeds the clip to the model at its own rate.
	ModeNative Mode = "native"
)

var DefaultCeiling = types.FrameRate{Num: 25, Den: 1}

// Target returns min(native, ceiling).
func Target(native, ceiling types.FrameRate) types.FrameRate {
	if !ceiling.Valid() || native.Less(ceiling) || native.Equal(ceiling) {
		return native
	}
	return ceiling
}

// VideoTool is the subset of the transcoder the reconciler drives.
type VideoTool interface {
	ProbeFrameRate(ctx context.Context, video string) (types.FrameRate, error)
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	ReencodeAtRate(ctx context.Context, inVideo string, fps types.FrameRate, outVideo string) error
}

type LipSyncer interface {
	LipSync(ctx context.Context, video, audio, outVideo string) error
}

// Paths names the files one reconciliation reads and writes.
type Paths struct {
	Video  string
	Audio  string
	Input  string // reduced-rate model input
	Raw    string // model output at the reduced rate
	Output string
}

type Result struct {
	Mode      Mode
	Native    types.FrameRate
	Inference types.FrameRate
	Output    types.FrameRate
	// SourceDuration and OutputDuration bracket the round trip; WithinFrame
	// reports |OutputDuration-SourceDuration| < one native frame period.
	SourceDuration time.Duration
	OutputDuration time.Duration
	WithinFrame    bool
}

// FramePeriod is the duration of one frame at rate.
func FramePeriod(rate types.FrameRate) time.Duration {
	if !rate.Valid() {
		return 0
	}
	return time.Duration(int64(time.Second) * int64(rate.Den) / int64(rate.Num))
}

type Reconciler struct {
	Mode    Mode
	Ceiling types.FrameRate
	Video   VideoTool
	Model   LipSyncer
	Logger  *slog.Logger
}

func (r Reconciler) Run(ctx context.Context, p Paths) (Result, error) {
	log := logging.Or(r.Logger).With(logging.Component("framerate"))

	native, err := r.Video.ProbeFrameRate(ctx, p.Video)
	if err != nil {
		return Result{}, fmt.Errorf("probe frame rate: %w", err)
	}
	if !native.Valid() {
		return Result{}, fmt.Errorf("probe frame rate: invalid rate %s", native)
	}

	switch r.Mode {
	case ModeNative:
		log.Info("lip-sync at native rate", slog.String("fps", native.String()))
		if err := r.lipSync(ctx, p.Video, p.Audio, p.Output); err != nil {
			return Result{}, err
		}
		res := Result{Mode: ModeNative, Native: native, Inference: native, Output: native}
		return r.checkDuration(ctx, log, p, res)
	case ModeReconcile, "":
	default:
		return Result{}, failure.Wrap(failure.ErrConfiguration, types.StageLipSync, "reconcile", fmt.Sprintf("unknown mode %q", r.Mode), nil)
	}

	ceiling := r.Ceiling
	if !ceiling.Valid() {
		ceiling = DefaultCeiling
	}
	target := Target(native, ceiling)
	log.Info("reducing frame rate for lip-sync",
		slog.String("native", native.String()),
		slog.String("target", target.String()),
	)

	if err := r.Video.ReencodeAtRate(ctx, p.Video, target, p.Input); err != nil {
		return Result{}, fmt.Errorf("reduce frame rate: %w", err)
	}
	if err := r.lipSync(ctx, p.Input, p.Audio, p.Raw); err != nil {
		return Result{}, err
	}
	if err := r.Video.ReencodeAtRate(ctx, p.Raw, native, p.Output); err != nil {
		return Result{}, fmt.Errorf("restore frame rate: %w", err)
	}

	out, err := r.Video.ProbeFrameRate(ctx, p.Output)
	if err != nil {
		return Result{}, fmt.Errorf("probe restored frame rate: %w", err)
	}
	if !out.Equal(native) {
		log.Warn("restored frame rate differs from source",
			slog.String("native", native.String()),
			slog.String("restored", out.String()),
		)
	}
	res := Result{Mode: ModeReconcile, Native: native, Inference: target, Output: out}
	return r.checkDuration(ctx, log, p, res)
}

// checkDuration compares the source and output lengths. A drift of a frame or
// more is logged, not fatal.
func (r Reconciler) checkDuration(ctx context.Context, log *slog.Logger, p Paths, res Result) (Result, error) {
	src, err := r.Video.ProbeDuration(ctx, p.Video)
	if err != nil {
		return Result{}, fmt.Errorf("measure source duration: %w", err)
	}
	out, err := r.Video.ProbeDuration(ctx, p.Output)
	if err != nil {
		return Result{}, fmt.Errorf("measure lip-synced duration: %w", err)
	}
	res.SourceDuration, res.OutputDuration = src, out

	drift := out - src
	if drift < 0 {
		drift = -drift
	}
	period := FramePeriod(res.Native)
	res.WithinFrame = drift < period
	if !res.WithinFrame {
		log.Warn("lip-synced duration drifted by a frame or more",
			logging.Seconds("source_sec", src),
			logging.Seconds("output_sec", out),
			logging.Seconds("frame_sec", period),
			slog.Float64("native_fps", res.Native.Float()),
		)
	}
	return res, nil
}

func (r Reconciler) lipSync(ctx context.Context, video, audio, out string) error {
	if err := r.Model.LipSync(ctx, video, audio, out); err != nil {
		return failure.Wrap(failure.ErrLipSync, types.StageLipSync, "inference", "model failed", err)
	}
	return nil
}
