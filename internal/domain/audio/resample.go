package audio

import "math"

// Resample converts b to rate using linear interpolation. The output length is
// round(len * rate / b.SampleRate).
func Resample(b Buffer, rate int) Buffer {
	if rate <= 0 || b.SampleRate <= 0 || rate == b.SampleRate || len(b.Samples) == 0 {
		out := make([]float64, len(b.Samples))
		copy(out, b.Samples)
		sr := b.SampleRate
		if rate > 0 && len(b.Samples) == 0 {
			sr = rate
		}
		return Buffer{Samples: out, SampleRate: sr}
	}

	ratio := float64(b.SampleRate) / float64(rate)
	n := int(math.Round(float64(len(b.Samples)) / ratio))
	out := make([]float64, n)
	last := len(b.Samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = b.Samples[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = b.Samples[j]*(1-frac) + b.Samples[j+1]*frac
	}
	return Buffer{Samples: out, SampleRate: rate}
}
