package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/framerate"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/quality"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/restore"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/subtitles"
	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/report"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

func (r *run) extract(ctx context.Context) error {
	video := r.u.d.Video
	clip := r.path(types.KindClipVideo)
	if err := video.ExtractClip(ctx, r.in.Clip, clip); err != nil {
		return err
	}
	if err := r.record(types.StageExtract, types.KindClipVideo); err != nil {
		return err
	}
	wav := r.path(types.KindClipAudio)
	if err := video.ExtractAudioMono16k(ctx, clip, wav); err != nil {
		return err
	}
	if err := r.record(types.StageExtract, types.KindClipAudio); err != nil {
		return err
	}
	if !r.u.opts.CloneVoice {
		return nil
	}
	length := r.u.opts.ReferenceLength
	if length <= 0 {
		length = 6 * time.Second
	}
	if d := r.in.Clip.Duration(); d < length {
		length = d
	}
	rate := r.u.opts.ReferenceSampleRate
	if rate <= 0 {
		rate = 22050
	}
	if err := video.ExtractReference(ctx, wav, length, rate, r.path(types.KindReferenceAudio)); err != nil {
		return err
	}
	return r.record(types.StageExtract, types.KindReferenceAudio)
}

func (r *run) transcribe(ctx context.Context) error {
	wav := r.path(types.KindClipAudio)
	switch r.u.opts.Strategy {
	case StrategySingleShot:
		span := r.u.opts.NominalSpan
		if span <= 0 {
			span = r.in.Clip.Duration()
		}
		var seg types.TranslatedSegment
		err := scoped(ctx, r.u.d.AudioTranslator, func() error {
			var err error
			seg, err = r.u.d.AudioTranslator.TranslateAudio(ctx, wav, span, r.u.opts.SourceLanguage, r.u.opts.TargetLanguage)
			return err
		})
		if err != nil {
			return err
		}
		r.audioSeg = seg
		r.transcript = types.Transcript{
			Language: r.u.opts.SourceLanguage,
			Segments: []types.Segment{{Start: seg.Start, End: seg.End, Text: seg.SourceText}},
		}
	default:
		var tr types.Transcript
		err := scoped(ctx, r.u.d.Recognizer, func() error {
			var err error
			tr, err = r.u.d.Recognizer.Transcribe(ctx, wav)
			return err
		})
		if err != nil {
			return err
		}
		if !hasText(tr) {
			return failure.Wrap(failure.ErrValidation, types.StageTranscribe, "recognize", "no speech recognized", nil)
		}
		r.transcript = tr
	}

	if err := report.WriteJSON(r.path(types.KindTranscript), r.transcript); err != nil {
		return err
	}
	r.log.Info("transcript ready", slog.Int("segments", len(r.transcript.Segments)))
	return r.record(types.StageTranscribe, types.KindTranscript)
}

func hasText(tr types.Transcript) bool {
	for _, s := range tr.Segments {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

func (r *run) translate(ctx context.Context) error {
	var segs []types.TranslatedSegment
	switch r.u.opts.Strategy {
	case StrategySingleShot:
		segs = []types.TranslatedSegment{r.audioSeg}
	default:
		var err error
		segs, err = r.u.d.Translator.Translate(ctx, r.transcript, r.u.opts.SourceLanguage, r.u.opts.TargetLanguage)
		if err != nil {
			return err
		}
		if len(segs) != len(r.transcript.Segments) {
			return failure.Wrap(failure.ErrValidation, types.StageTranslate, "translate",
				fmt.Sprintf("got %d translations for %d segments", len(segs), len(r.transcript.Segments)), nil)
		}
	}

	for i := range segs {
		segs[i].TargetText = r.shorten(ctx, segs[i])
	}
	r.translation = types.TranslatedTranscript{
		SourceLanguage: r.u.opts.SourceLanguage,
		TargetLanguage: r.u.opts.TargetLanguage,
		Segments:       segs,
	}
	if strings.TrimSpace(r.translation.TargetText()) == "" {
		return failure.Wrap(failure.ErrValidation, types.StageTranslate, "translate", "translation is empty", nil)
	}
	if err := report.WriteJSON(r.path(types.KindTranslation), r.translation); err != nil {
		return err
	}
	if err := r.record(types.StageTranslate, types.KindTranslation); err != nil {
		return err
	}
	cues := subtitles.Cues(r.translation.Segments, r.in.Clip.Duration())
	if err := os.WriteFile(r.path(types.KindSubtitles), []byte(subtitles.RenderASS(cues)), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return r.record(types.StageTranslate, types.KindSubtitles)
}

func (r *run) lipSync(ctx context.Context) error {
	rec := framerate.Reconciler{
		Mode:    r.u.opts.LipSyncMode,
		Ceiling: r.u.opts.Ceiling,
		Video:   r.u.d.Video,
		Model:   r.u.d.LipSyncer,
		Logger:  r.log,
	}
	paths := framerate.Paths{
		Video:  r.path(types.KindClipVideo),
		Audio:  r.path(types.KindMasteredAudio),
		Input:  r.path(types.KindLipSyncInput),
		Raw:    r.path(types.KindLipSyncRaw),
		Output: r.path(types.KindLipSyncedVideo),
	}
	err := scoped(ctx, r.u.d.LipSyncer, func() error {
		res, err := rec.Run(ctx, paths)
		r.synced = res
		return err
	})
	if err != nil {
		return err
	}
	kinds := []types.ArtifactKind{types.KindLipSyncedVideo}
	if r.synced.Mode == framerate.ModeReconcile {
		kinds = append(kinds, types.KindLipSyncInput, types.KindLipSyncRaw)
	}
	return r.record(types.StageLipSync, kinds...)
}

func (r *run) restore(ctx context.Context) error {
	rs := restore.Restorer{
		Video:    r.u.d.Video,
		Model:    r.u.d.Restorer,
		Workers:  r.u.opts.RestoreWorkers,
		Progress: r.u.d.Progress,
		Logger:   r.log,
	}
	paths := restore.Paths{
		Video:       r.path(types.KindLipSyncedVideo),
		FramesDir:   r.path(types.KindFrames),
		RestoredDir: r.path(types.KindRestoredFrames),
		Output:      r.path(types.KindRestoredVideo),
	}
	err := scoped(ctx, r.u.d.Restorer, func() error {
		res, err := rs.Run(ctx, paths)
		r.restored = RestoreSummary{Frames: res.Frames, Resized: res.Resized, Width: res.Width, Height: res.Height}
		return err
	})
	if err != nil {
		return err
	}
	return r.record(types.StageRestore, types.KindRestoredVideo)
}

func (r *run) validate(ctx context.Context) error {
	opts := r.u.opts.Quality
	if opts.Samples <= 0 {
		opts = quality.DefaultOptions()
	}
	v := quality.Validator{Frames: r.u.d.Video, Options: opts, Logger: r.log}
	rep, err := v.Validate(ctx, quality.Inputs{
		MasteredAudio: r.path(types.KindMasteredAudio),
		Original:      r.path(types.KindClipVideo),
		Restored:      r.path(types.KindRestoredVideo),
		Target:        r.in.Clip.Duration(),
		WorkDir:       r.in.OutDir,
	})
	if err != nil {
		return err
	}
	r.report = rep
	if err := report.WriteJSON(r.path(types.KindValidation), rep); err != nil {
		return err
	}
	r.log.Info("validation report\n" + report.Validation(rep))
	if !rep.OverallPass {
		r.log.Warn("quality validation did not pass; continuing",
			slog.Bool("duration_ok", rep.DurationOK),
			slog.Bool("ssim_ok", rep.SSIMOK),
			slog.Float64("ssim", rep.SSIMScore),
		)
	}
	return r.record(types.StageValidate, types.KindValidation)
}

func (r *run) encode(ctx context.Context) error {
	final := r.path(types.KindFinalVideo)
	if err := r.u.d.Video.FinalEncode(ctx, r.path(types.KindRestoredVideo), final); err != nil {
		return err
	}
	r.log.Info("final artifact written", logging.Path(final))
	return r.record(types.StageEncode, types.KindFinalVideo)
}
