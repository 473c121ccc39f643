package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/duration"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/mastering"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

// synthesizeAndMaster runs the synthesize+master pair until the achieved speech
// duration lands within tolerance of the clip, or the attempts run out. The
// last attempt's output is kept either way.
func (r *run) synthesizeAndMaster(ctx context.Context) error {
	if want := types.StageSynthesize.Requires(); r.state != want {
		return r.fail(types.StageSynthesize, fmt.Errorf("stage %s requires state %s, run is %s", types.StageSynthesize, want, r.state))
	}

	r.log.Info("stage started",
		logging.Stage(string(types.StageSynthesize)),
		slog.Int("max_attempts", r.u.opts.MaxAttempts),
	)

	original, err := audio.ReadWAV(r.path(types.KindClipAudio))
	if err != nil {
		return r.fail(types.StageMaster, err)
	}

	target := r.in.Clip.Duration()
	tol := r.u.opts.Tolerance
	if tol <= 0 {
		tol = duration.DefaultTolerance
	}
	attempts := r.u.opts.MaxAttempts
	if attempts <= 0 {
		attempts = duration.DefaultMaxAttempts
	}

	var out duration.Outcome[types.MasteredAudio]
	err = scoped(ctx, r.u.d.Synthesizer, func() error {
		var err error
		out, err = duration.Fold(attempts, target, tol, func(i int) (types.MasteredAudio, time.Duration, error) {
			return r.attempt(ctx, i, original)
		})
		return err
	})
	if err != nil {
		return r.fail(stageOf(err, types.StageSynthesize), err)
	}

	log := r.log.With(logging.Attempt(out.Attempt))
	if !out.Passed {
		log.Warn("speech duration still outside tolerance; using last attempt",
			logging.Seconds("achieved_sec", out.Actual),
			logging.Seconds("target_sec", target),
			logging.Seconds("tolerance_sec", tol),
		)
	}
	r.mastered = out.Value
	r.mastered.WithinTolerance = out.Passed

	if err := r.advance(types.StageSynthesize); err != nil {
		return r.fail(types.StageSynthesize, err)
	}
	if err := r.advance(types.StageMaster); err != nil {
		return r.fail(types.StageMaster, err)
	}
	log.Info("mastered audio ready",
		logging.Path(r.mastered.Path),
		slog.Float64("achieved_sec", r.mastered.Achieved),
		slog.Float64("stretch_rate", r.mastered.StretchRate),
		slog.String("state", string(r.state)),
	)
	return nil
}

// attempt synthesizes the full translation, stretches it towards the clip
// length and masters it. The returned duration is the speech length before it
// was fitted into the timeline.
func (r *run) attempt(ctx context.Context, i int, original audio.Buffer) (types.MasteredAudio, time.Duration, error) {
	log := r.log.With(logging.Attempt(i))
	target := r.in.Clip.Duration()

	speech, stretch, err := r.synthesize(ctx, target)
	if err != nil {
		return types.MasteredAudio{}, 0, &stageError{stage: types.StageSynthesize, err: err}
	}
	log.Info("speech synthesized",
		logging.Stage(string(types.StageSynthesize)),
		slog.Float64("rate", stretch.Rate),
		slog.Float64("applied", stretch.Applied),
		slog.Bool("skipped", stretch.Skipped),
		logging.Seconds("achieved_sec", stretch.Achieved),
	)

	mopts := r.u.opts.Mastering
	if mopts == (mastering.Options{}) {
		mopts = mastering.DefaultOptions()
	}
	mix := mastering.Master(speech, original, target, mopts)
	if !mix.Normalized() {
		log.Warn("mix loudness undefined; left unnormalized", logging.Stage(string(types.StageMaster)))
	}
	path := r.path(types.KindMasteredAudio)
	if err := audio.WriteWAV(path, mix.Audio); err != nil {
		return types.MasteredAudio{}, 0, &stageError{stage: types.StageMaster, err: err}
	}
	if err := r.record(types.StageMaster, types.KindMasteredAudio); err != nil {
		return types.MasteredAudio{}, 0, &stageError{stage: types.StageMaster, err: err}
	}

	return types.MasteredAudio{
		Path:        path,
		Target:      target.Seconds(),
		Achieved:    stretch.Achieved.Seconds(),
		Attempt:     i,
		StretchRate: stretch.Applied,
	}, stretch.Achieved, nil
}

func (r *run) synthesize(ctx context.Context, target time.Duration) (audio.Buffer, audio.Stretch, error) {
	req := ports.SynthesisRequest{
		Text:     r.translation.TargetText(),
		Language: r.u.opts.TargetLanguage,
		Voice:    r.u.opts.Voice,
		Target:   target,
		OutPath:  r.path(types.KindSynthesisOutput),
	}
	if r.u.opts.CloneVoice {
		req.Reference = r.path(types.KindReferenceAudio)
	}
	if err := r.u.d.Synthesizer.Synthesize(ctx, req); err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}
	if err := r.record(types.StageSynthesize, types.KindSynthesisOutput); err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}

	raw := r.path(types.KindRawSpeech)
	if err := r.u.d.Video.NormalizeWAV(ctx, req.OutPath, raw); err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}
	if err := r.record(types.StageSynthesize, types.KindRawSpeech); err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}
	buf, err := audio.ReadWAV(raw)
	if err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}
	if buf.Len() == 0 {
		return audio.Buffer{}, audio.Stretch{}, fmt.Errorf("synthesized speech is empty")
	}

	var fitted audio.Buffer
	var st audio.Stretch
	if r.u.opts.Stretch {
		fitted, st = audio.StretchToDuration(buf, target, r.stretchOptions())
	} else {
		fitted = audio.FitLength(buf, audio.SamplesFor(target, buf.SampleRate))
		st = audio.Stretch{Rate: buf.Seconds() / target.Seconds(), Applied: 1, Skipped: true, Achieved: buf.Duration()}
	}

	if err := audio.WriteWAV(r.path(types.KindSpeech), fitted); err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}
	if err := r.record(types.StageSynthesize, types.KindSpeech); err != nil {
		return audio.Buffer{}, audio.Stretch{}, err
	}
	return fitted, st, nil
}

func (r *run) stretchOptions() audio.StretchOptions {
	o := r.u.opts.StretchOptions
	def := audio.DefaultStretchOptions()
	if o.MinRate <= 0 {
		o.MinRate = def.MinRate
	}
	if o.MaxRate <= 0 {
		o.MaxRate = def.MaxRate
	}
	if o.SkipBelow <= 0 {
		o.SkipBelow = def.SkipBelow
	}
	return o
}
