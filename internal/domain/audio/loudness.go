package audio

import "math"

const (
	blockSeconds   = 0.400
	overlap        = 0.75
	absoluteGate   = -70.0
	relativeGateDB = -10.0
)

type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func (f biquad) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, v := range x {
		out := f.b0*v + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, out
		y[i] = out
	}
	return y
}

// highShelf is the BS.1770 stage-one pre-filter modelling the acoustic effect of the head.
func highShelf(sr float64) biquad {
	const (
		gainDB = 4.0
		q      = 1 / math.Sqrt2
		fc     = 1500.0
	)
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / sr
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) + (a-1)*cosw + 2*sqrtA*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw)
	b2 := a * ((a + 1) + (a-1)*cosw - 2*sqrtA*alpha)
	a0 := (a + 1) - (a-1)*cosw + 2*sqrtA*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosw)
	a2 := (a + 1) - (a-1)*cosw - 2*sqrtA*alpha
	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// highPass is the BS.1770 RLB weighting curve.
func highPass(sr float64) biquad {
	const (
		q  = 0.5
		fc = 38.0
	)
	w0 := 2 * math.Pi * fc / sr
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	b0 := (1 + cosw) / 2
	b1 := -(1 + cosw)
	b2 := (1 + cosw) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha
	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// IntegratedLoudness measures gated integrated loudness (ITU-R BS.1770-4) in
// LUFS. It returns -Inf when the buffer is shorter than one gating block or when
// every block falls below the absolute gate.
func IntegratedLoudness(b Buffer) float64 {
	sr := float64(b.SampleRate)
	blockLen := int(math.Round(blockSeconds * sr))
	if sr <= 0 || blockLen <= 0 || len(b.Samples) < blockLen {
		return math.Inf(-1)
	}
	step := int(math.Round(blockSeconds * (1 - overlap) * sr))
	if step <= 0 {
		step = 1
	}

	weighted := highPass(sr).apply(highShelf(sr).apply(b.Samples))

	blocks := make([]float64, 0, (len(weighted)-blockLen)/step+1)
	for start := 0; start+blockLen <= len(weighted); start += step {
		var sum float64
		for _, v := range weighted[start : start+blockLen] {
			sum += v * v
		}
		blocks = append(blocks, sum/float64(blockLen))
	}

	gated := meanAbove(blocks, absoluteGate)
	if gated <= 0 {
		return math.Inf(-1)
	}
	relative := blockLoudness(gated) + relativeGateDB
	threshold := math.Max(relative, absoluteGate)
	z := meanAbove(blocks, threshold)
	if z <= 0 {
		return math.Inf(-1)
	}
	return blockLoudness(z)
}

// NormalizeLoudness applies the gain that moves b to target LUFS. Buffers whose
// loudness is undefined are returned unchanged.
func NormalizeLoudness(b Buffer, target float64) (Buffer, float64) {
	measured := IntegratedLoudness(b)
	if math.IsInf(measured, 0) || math.IsNaN(measured) {
		return Scale(b, 1), measured
	}
	gain := math.Pow(10, (target-measured)/20)
	return Scale(b, gain), measured
}

func blockLoudness(meanSquare float64) float64 {
	return -0.691 + 10*math.Log10(meanSquare)
}

func meanAbove(blocks []float64, gateLUFS float64) float64 {
	var sum float64
	var n int
	for _, z := range blocks {
		if z <= 0 {
			continue
		}
		if blockLoudness(z) > gateLUFS {
			sum += z
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
