// Package audio holds the in-memory audio representation used by mastering and
// time alignment, plus WAV I/O, resampling, loudness measurement and stretching.
package audio

import (
	"math"
	"time"
)

// Buffer is mono PCM audio as float samples in [-1, 1]. Buffers are treated as
// immutable: every transformation returns a new Buffer.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

func (b Buffer) Len() int { return len(b.Samples) }

func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Seconds returns the duration as float seconds without Duration rounding.
func (b Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Peak returns the largest absolute sample value.
func (b Buffer) Peak() float64 {
	var p float64
	for _, s := range b.Samples {
		if a := math.Abs(s); a > p {
			p = a
		}
	}
	return p
}

// SamplesFor returns the sample count covering d at rate sr, rounded to nearest.
func SamplesFor(d time.Duration, sr int) int {
	return int(math.Round(d.Seconds() * float64(sr)))
}

// Silence returns n zero samples at rate sr.
func Silence(n, sr int) Buffer {
	if n < 0 {
		n = 0
	}
	return Buffer{Samples: make([]float64, n), SampleRate: sr}
}

// FitLength truncates or right-pads b with silence to exactly n samples.
func FitLength(b Buffer, n int) Buffer {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	copy(out, b.Samples)
	return Buffer{Samples: out, SampleRate: b.SampleRate}
}

// Scale multiplies every sample by gain.
func Scale(b Buffer, gain float64) Buffer {
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s * gain
	}
	return Buffer{Samples: out, SampleRate: b.SampleRate}
}

// Clip hard-limits samples to [-1, 1].
func Clip(b Buffer) Buffer {
	out := make([]float64, len(b.Samples))
	for i, s := range b.Samples {
		switch {
		case s > 1:
			out[i] = 1
		case s < -1:
			out[i] = -1
		case math.IsNaN(s):
			out[i] = 0
		default:
			out[i] = s
		}
	}
	return Buffer{Samples: out, SampleRate: b.SampleRate}
}

// AddInto returns dst with src scaled by gain summed in from sample 0.
// src samples past the end of dst are dropped.
func AddInto(dst, src Buffer, gain float64) Buffer {
	out := make([]float64, len(dst.Samples))
	copy(out, dst.Samples)
	n := min(len(src.Samples), len(out))
	for i := 0; i < n; i++ {
		out[i] += src.Samples[i] * gain
	}
	return Buffer{Samples: out, SampleRate: dst.SampleRate}
}
