// Package mastering composites synthesized speech over a quiet bed of the
// original clip audio and normalizes the mix to a loudness target.
package mastering

import (
	"math"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
)

const (
	DefaultBedGain    = 0.08
	DefaultTargetLUFS = -14.0
)

type Options struct {
	// BedGain scales the original audio mixed under the speech.
	BedGain float64
	// TargetLUFS is the integrated loudness of the output.
	TargetLUFS float64
}

func DefaultOptions() Options {
	return Options{BedGain: DefaultBedGain, TargetLUFS: DefaultTargetLUFS}
}

// Mix is the mastered timeline and the loudness measured before normalization.
type Mix struct {
	Audio audio.Buffer
	// MeasuredLUFS is -Inf when the mix was silent and left unnormalized.
	MeasuredLUFS float64
}

func (m Mix) Normalized() bool { return !math.IsInf(m.MeasuredLUFS, 0) }

// Master lays speech and the attenuated original onto a timeline of exactly
// clipDur at the speech sample rate, normalizes it and clips to full scale.
func Master(speech, original audio.Buffer, clipDur time.Duration, opts Options) Mix {
	sr := speech.SampleRate
	if sr <= 0 {
		sr = original.SampleRate
	}
	speech = audio.Resample(speech, sr)
	original = audio.Resample(original, sr)

	timeline := audio.Silence(audio.SamplesFor(clipDur, sr), sr)
	timeline = audio.AddInto(timeline, speech, 1)
	timeline = audio.AddInto(timeline, original, opts.BedGain)

	normalized, measured := audio.NormalizeLoudness(timeline, opts.TargetLUFS)
	return Mix{Audio: audio.Clip(normalized), MeasuredLUFS: measured}
}
