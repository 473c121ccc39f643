package mastering

import (
	"math"
	"testing"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
)

func tone(freq, amp float64, d time.Duration, sr int) audio.Buffer {
	out := make([]float64, audio.SamplesFor(d, sr))
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return audio.Buffer{Samples: out, SampleRate: sr}
}

func rms(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s / float64(len(x)))
}

func TestMasterClipShorterSpeech(t *testing.T) {
	t.Parallel()

	const sr = 24000
	speech := tone(300, 0.5, 10*time.Second, sr)
	original := tone(120, 0.5, 12500*time.Millisecond, 16000)

	mix := Master(speech, original, 12500*time.Millisecond, DefaultOptions())

	if mix.Audio.SampleRate != sr {
		t.Fatalf("expected speech sample rate, got %d", mix.Audio.SampleRate)
	}
	if mix.Audio.Len() != 300000 {
		t.Fatalf("expected 12.5s at %d Hz, got %d samples", sr, mix.Audio.Len())
	}
	if !mix.Normalized() {
		t.Fatalf("expected normalization to run")
	}
	if got := audio.IntegratedLoudness(mix.Audio); math.Abs(got-DefaultTargetLUFS) > 0.2 {
		t.Fatalf("expected about -14 LUFS, got %.3f", got)
	}

	// speech dominates 0-10s, only the bed remains after it
	head := rms(mix.Audio.Samples[sr : 9*sr])
	tail := rms(mix.Audio.Samples[10*sr+sr/10:])
	if tail == 0 {
		t.Fatalf("expected background bleed after speech ends")
	}
	ratio := tail / head
	// 0.08*0.5 bed against sqrt(0.5^2 + (0.08*0.5)^2) speech+bed
	want := 0.04 / math.Sqrt(0.25+0.0016)
	if math.Abs(ratio-want) > 0.01 {
		t.Fatalf("unexpected bed level: ratio %.4f want %.4f", ratio, want)
	}
}

func TestMasterExactDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		speech   time.Duration
		original time.Duration
		clip     time.Duration
	}{
		{name: "longer inputs", speech: 9 * time.Second, original: 9 * time.Second, clip: 5 * time.Second},
		{name: "shorter inputs", speech: 2 * time.Second, original: 3 * time.Second, clip: 7250 * time.Millisecond},
		{name: "mixed", speech: 8 * time.Second, original: 1 * time.Second, clip: 4 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mix := Master(tone(200, 0.3, tc.speech, 22050), tone(90, 0.9, tc.original, 16000), tc.clip, DefaultOptions())
			if want := audio.SamplesFor(tc.clip, 22050); mix.Audio.Len() != want {
				t.Fatalf("got %d samples want %d", mix.Audio.Len(), want)
			}
		})
	}
}

func TestMasterNeverExceedsFullScale(t *testing.T) {
	t.Parallel()

	// square-ish loud inputs pushed towards a hot target
	loud := tone(50, 1, 3*time.Second, 16000)
	for i := range loud.Samples {
		loud.Samples[i] = math.Copysign(1, loud.Samples[i])
	}
	mix := Master(loud, loud, 3*time.Second, Options{BedGain: 1, TargetLUFS: 0})
	if p := mix.Audio.Peak(); p > 1 {
		t.Fatalf("peak %f exceeds full scale", p)
	}
}

func TestMasterSilenceLeftUnnormalized(t *testing.T) {
	t.Parallel()

	mix := Master(audio.Silence(16000, 16000), audio.Silence(8000, 8000), 2*time.Second, DefaultOptions())
	if mix.Normalized() {
		t.Fatalf("silent mix must not be normalized")
	}
	if mix.Audio.Len() != 32000 || mix.Audio.Peak() != 0 {
		t.Fatalf("unexpected silent mix: len=%d peak=%f", mix.Audio.Len(), mix.Audio.Peak())
	}
}
