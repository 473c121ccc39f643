package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmFormat = 1

// ReadWAV decodes an integer PCM WAV file and downmixes it to mono.
func ReadWAV(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Buffer{}, fmt.Errorf("read wav %s: not a valid wav file", path)
	}
	if dec.WavAudioFormat != pcmFormat {
		return Buffer{}, fmt.Errorf("read wav %s: unsupported audio format %d (integer PCM required)", path, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("read wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return Buffer{}, fmt.Errorf("read wav %s: missing format", path)
	}
	return fromIntBuffer(buf), nil
}

// WAVDuration returns the length of the PCM data in a WAV file.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("wav duration %s: not a valid wav file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("wav duration %s: %w", path, err)
	}
	frameBytes := int64(dec.NumChans) * int64((dec.BitDepth-1)/8+1)
	if frameBytes <= 0 || dec.SampleRate == 0 {
		return 0, fmt.Errorf("wav duration %s: missing format", path)
	}
	frames := dec.PCMLen() / frameBytes
	return time.Duration(math.Round(float64(frames) / float64(dec.SampleRate) * float64(time.Second))), nil
}

// WriteWAV encodes b as 16-bit mono PCM.
func WriteWAV(path string, b Buffer) error {
	if b.SampleRate <= 0 {
		return errors.New("write wav: sample rate must be > 0")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, b.SampleRate, 16, 1, pcmFormat)
	if err := enc.Write(toIntBuffer(b, 16)); err != nil {
		f.Close()
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close wav encoder %s: %w", path, err)
	}
	return f.Close()
}

func fromIntBuffer(buf *goaudio.IntBuffer) Buffer {
	chans := buf.Format.NumChannels
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := math.Pow(2, float64(depth-1))
	offset := 0.0
	if depth == 8 {
		// 8-bit PCM is unsigned.
		offset = 128
	}

	frames := len(buf.Data) / chans
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < chans; c++ {
			sum += (float64(buf.Data[i*chans+c]) - offset) / scale
		}
		out[i] = sum / float64(chans)
	}
	return Buffer{Samples: out, SampleRate: buf.Format.SampleRate}
}

func toIntBuffer(b Buffer, depth int) *goaudio.IntBuffer {
	maxVal := math.Pow(2, float64(depth-1)) - 1
	data := make([]int, len(b.Samples))
	for i, s := range b.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(math.Round(s * maxVal))
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: depth,
	}
}
