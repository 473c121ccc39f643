package audio

import (
	"math"
	"time"
)

// StretchOptions bounds the time-stretch applied to speech.
type StretchOptions struct {
	MinRate   float64
	MaxRate   float64
	SkipBelow time.Duration
}

// DefaultStretchOptions matches the rate window that keeps speech natural.
func DefaultStretchOptions() StretchOptions {
	return StretchOptions{MinRate: 0.7, MaxRate: 1.5, SkipBelow: 50 * time.Millisecond}
}

// Stretch reports what StretchToDuration did.
type Stretch struct {
	// Rate is current/target before clamping.
	Rate float64
	// Applied is the clamped rate actually used; 1 when skipped.
	Applied float64
	Skipped bool
	// Achieved is the speech length after stretching and before the result is
	// padded or truncated to the target.
	Achieved time.Duration
}

// StretchToDuration time-stretches b towards target without changing pitch and
// returns exactly round(target*SampleRate) samples.
func StretchToDuration(b Buffer, target time.Duration, opts StretchOptions) (Buffer, Stretch) {
	n := SamplesFor(target, b.SampleRate)
	cur := b.Seconds()
	tgt := target.Seconds()
	if n <= 0 || tgt <= 0 {
		return Silence(0, b.SampleRate), Stretch{Rate: 0, Applied: 1, Skipped: true}
	}
	if len(b.Samples) == 0 {
		return Silence(n, b.SampleRate), Stretch{Rate: 0, Applied: 1, Skipped: true}
	}

	rate := cur / tgt
	if math.Abs(cur-tgt) < opts.SkipBelow.Seconds() {
		return FitLength(b, n), Stretch{Rate: rate, Applied: 1, Skipped: true, Achieved: b.Duration()}
	}

	applied := clampRate(rate, opts)
	if applied == 1 {
		return FitLength(b, n), Stretch{Rate: rate, Applied: 1, Achieved: b.Duration()}
	}

	stretched := Buffer{Samples: wsola(b.Samples, applied, b.SampleRate), SampleRate: b.SampleRate}
	return FitLength(stretched, n), Stretch{Rate: rate, Applied: applied, Achieved: stretched.Duration()}
}

func clampRate(rate float64, opts StretchOptions) float64 {
	lo, hi := opts.MinRate, opts.MaxRate
	if lo <= 0 {
		lo = DefaultStretchOptions().MinRate
	}
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(rate, lo), hi)
}

// wsola implements waveform-similarity overlap-add. Frames of 40ms are laid
// down every half frame in the output; each is taken from around its nominal
// input position, shifted within a quarter frame to best continue the
// previous frame's waveform.
func wsola(x []float64, rate float64, sr int) []float64 {
	outLen := int(math.Round(float64(len(x)) / rate))
	if outLen <= 0 {
		return nil
	}

	frame := int(math.Round(0.040 * float64(sr)))
	if frame < 16 {
		frame = 16
	}
	if frame%2 == 1 {
		frame++
	}
	hop := frame / 2
	tol := hop / 2

	win := make([]float64, frame)
	for i := range win {
		win[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(frame))
	}
	at := func(i int) float64 {
		if i < 0 || i >= len(x) {
			return 0
		}
		return x[i]
	}

	out := make([]float64, outLen+frame)
	norm := make([]float64, outLen+frame)
	prev := 0
	for k := 0; k*hop < outLen; k++ {
		outPos := k * hop
		start := int(math.Round(float64(outPos) * rate))
		if k > 0 {
			natural := prev + hop
			best := math.Inf(-1)
			bestStart := start
			for d := -tol; d <= tol; d++ {
				cand := start + d
				var c float64
				for i := 0; i < frame-hop; i++ {
					c += at(cand+i) * at(natural+i)
				}
				if c > best {
					best = c
					bestStart = cand
				}
			}
			start = bestStart
		}
		for i := 0; i < frame; i++ {
			out[outPos+i] += at(start+i) * win[i]
			norm[outPos+i] += win[i]
		}
		prev = start
	}

	out = out[:outLen]
	for i := range out {
		if norm[i] > 1e-6 {
			out[i] /= norm[i]
		}
	}
	return out
}
