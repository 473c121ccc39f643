// Package usecase sequences the dubbing stages of a single clip and tracks the
// run through its linear state machine.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/framerate"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/mastering"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/quality"
	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type Strategy string

const (
	// StrategySegments recognizes timed segments and translates them in one batch.
	StrategySegments Strategy = "segments"
	// StrategySingleShot sends the clip audio to a multimodal model once.
	StrategySingleShot Strategy = "single-shot"
)

// Deps are the stage collaborators. Any of them may also implement
// ports.ModelScope, in which case it is loaded just before its stage and
// released right after.
type Deps struct {
	Video ports.VideoTool
	// Recognizer and Translator serve StrategySegments.
	Recognizer ports.Recognizer
	Translator ports.SegmentTranslator
	// AudioTranslator serves StrategySingleShot.
	AudioTranslator ports.AudioTranslator
	// Shortener is optional.
	Shortener   ports.Shortener
	Synthesizer ports.Synthesizer
	LipSyncer   ports.LipSyncer
	Restorer    ports.FrameRestorer
	Logger      *slog.Logger
	// Progress receives per-frame restoration progress when non-nil.
	Progress io.Writer
}

type Options struct {
	Strategy       Strategy
	SourceLanguage string
	TargetLanguage string
	// NominalSpan is the single-shot segment length; zero means the clip duration.
	NominalSpan time.Duration

	// CloneVoice extracts a reference sample for the synthesizer.
	CloneVoice          bool
	ReferenceLength     time.Duration
	ReferenceSampleRate int
	Voice               string

	Shorten        ShortenPolicy
	Stretch        bool
	StretchOptions audio.StretchOptions
	Mastering      mastering.Options
	Tolerance      time.Duration
	MaxAttempts    int

	LipSyncMode    framerate.Mode
	Ceiling        types.FrameRate
	RestoreWorkers int
	Quality        quality.Options
}

type Input struct {
	Clip   types.ClipSpec
	OutDir string
}

type Result struct {
	FinalVideo  string
	State       types.State
	Artifacts   []types.Artifact
	Translation types.TranslatedTranscript
	Mastered    types.MasteredAudio
	LipSync     framerate.Result
	Restore     RestoreSummary
	Report      types.ValidationReport
}

type RestoreSummary struct {
	Frames  int `json:"frames"`
	Resized int `json:"resized"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

type Usecase struct {
	d    Deps
	opts Options
}

func New(d Deps, opts Options) Usecase { return Usecase{d: d, opts: opts} }

func (u Usecase) checkDeps() error {
	var missing []string
	need := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}
	need(u.d.Video != nil, "video tool")
	switch u.opts.Strategy {
	case StrategySegments, "":
		need(u.d.Recognizer != nil, "recognizer")
		need(u.d.Translator != nil, "segment translator")
	case StrategySingleShot:
		need(u.d.AudioTranslator != nil, "audio translator")
	default:
		return failure.Wrap(failure.ErrConfiguration, "", "usecase", fmt.Sprintf("unknown strategy %q", u.opts.Strategy), nil)
	}
	need(u.d.Synthesizer != nil, "synthesizer")
	need(u.d.LipSyncer != nil, "lip-syncer")
	need(u.d.Restorer != nil, "frame restorer")
	if len(missing) > 0 {
		return failure.Wrap(failure.ErrConfiguration, "", "usecase", fmt.Sprintf("missing collaborators: %v", missing), nil)
	}
	return nil
}

// Run drives the clip through every stage in order. A failing stage aborts the
// run with a *failure.StageFailure.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if err := u.checkDeps(); err != nil {
		return Result{}, err
	}
	if in.Clip.IsZero() || in.Clip.Duration() <= 0 {
		return Result{}, failure.Wrap(failure.ErrValidation, "", "usecase", "clip is empty", nil)
	}
	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	r := &run{
		u:      u,
		in:     in,
		layout: types.Layout{Dir: in.OutDir},
		arts:   types.NewArtifacts(),
		state:  types.StatePending,
		log:    logging.Or(u.d.Logger).With(logging.Component("sequencer")),
	}

	steps := []struct {
		stage types.Stage
		fn    func(context.Context) error
	}{
		{types.StageExtract, r.extract},
		{types.StageTranscribe, r.transcribe},
		{types.StageTranslate, r.translate},
	}
	for _, s := range steps {
		if err := r.stage(ctx, s.stage, s.fn); err != nil {
			return r.result(), err
		}
	}
	// Synthesize and master repeat together under the duration retry.
	if err := r.synthesizeAndMaster(ctx); err != nil {
		return r.result(), err
	}
	for _, s := range []struct {
		stage types.Stage
		fn    func(context.Context) error
	}{
		{types.StageLipSync, r.lipSync},
		{types.StageRestore, r.restore},
		{types.StageValidate, r.validate},
		{types.StageEncode, r.encode},
	} {
		if err := r.stage(ctx, s.stage, s.fn); err != nil {
			return r.result(), err
		}
	}

	res := r.result()
	res.FinalVideo = r.path(types.KindFinalVideo)
	return res, nil
}

type run struct {
	u      Usecase
	in     Input
	layout types.Layout
	arts   *types.Artifacts
	state  types.State
	log    *slog.Logger

	transcript  types.Transcript
	audioSeg    types.TranslatedSegment
	translation types.TranslatedTranscript
	mastered    types.MasteredAudio
	synced      framerate.Result
	restored    RestoreSummary
	report      types.ValidationReport
}

// path prefers the recorded artifact over the layout default.
func (r *run) path(k types.ArtifactKind) string {
	if a, ok := r.arts.Get(k); ok {
		return a.Path
	}
	return r.layout.Artifact(k).Path
}

// record registers a produced artifact under the stage that wrote it.
func (r *run) record(stage types.Stage, kinds ...types.ArtifactKind) error {
	for _, k := range kinds {
		if err := r.arts.Record(stage, r.layout.Artifact(k)); err != nil {
			return err
		}
	}
	return nil
}

// existing lists recorded artifacts still present on disk.
func (r *run) existing() []types.Artifact {
	var out []types.Artifact
	for _, a := range r.arts.List() {
		if _, err := os.Stat(a.Path); err == nil {
			out = append(out, a)
		}
	}
	return out
}

func (r *run) result() Result {
	return Result{
		State:       r.state,
		Artifacts:   r.existing(),
		Translation: r.translation,
		Mastered:    r.mastered,
		LipSync:     r.synced,
		Restore:     r.restored,
		Report:      r.report,
	}
}

func (r *run) fail(stage types.Stage, err error) error {
	sf := &failure.StageFailure{Stage: stage, Reached: r.state, Artifacts: r.existing(), Cause: err}
	r.state = types.StateAborted
	return sf
}

// advance moves the run through stage, refusing anything out of order.
func (r *run) advance(stage types.Stage) error {
	if r.state != stage.Requires() {
		return fmt.Errorf("stage %s requires state %s, run is %s", stage, stage.Requires(), r.state)
	}
	r.state = stage.Produces()
	return nil
}

func (r *run) stage(ctx context.Context, stage types.Stage, fn func(context.Context) error) error {
	if r.state.Terminal() {
		return fmt.Errorf("stage %s: run already %s", stage, r.state)
	}
	if r.state != stage.Requires() {
		return r.fail(stage, fmt.Errorf("stage %s requires state %s, run is %s", stage, stage.Requires(), r.state))
	}
	if err := ctx.Err(); err != nil {
		return r.fail(stage, err)
	}
	log := r.log.With(logging.Stage(string(stage)))
	log.Info("stage started")
	start := time.Now()
	if err := fn(ctx); err != nil {
		log.Error("stage failed", logging.Error(err))
		return r.fail(stage, err)
	}
	if err := r.advance(stage); err != nil {
		return r.fail(stage, err)
	}
	log.Info("stage finished",
		slog.String("state", string(r.state)),
		logging.Seconds("elapsed_sec", time.Since(start)),
	)
	return nil
}

// scoped loads model around fn when it manages its own residency.
func scoped(ctx context.Context, model any, fn func() error) error {
	s, ok := model.(ports.ModelScope)
	if !ok {
		return fn()
	}
	if err := s.Load(ctx); err != nil {
		return err
	}
	defer s.Release()
	return fn()
}

// stageError attributes an error inside the synthesis retry to one of its stages.
type stageError struct {
	stage types.Stage
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func stageOf(err error, fallback types.Stage) types.Stage {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return fallback
}
