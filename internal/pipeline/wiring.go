package pipeline

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/config"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/audio"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/framerate"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/mastering"
	"github.com/Bitshifter-9/kannada-hindi/internal/domain/quality"
	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/ffmpeg"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/openaiapi"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/openrouter"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/realesrgan"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/wav2lip"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/whispercpp"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/xtts"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
	"github.com/Bitshifter-9/kannada-hindi/internal/usecase"
)

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// buildDeps constructs every adapter the configured strategy and backend need.
func buildDeps(cfg Config, log *slog.Logger) (usecase.Deps, error) {
	s := cfg.Settings
	device := s.Device

	deps := usecase.Deps{
		Video: ffmpeg.New(ffmpeg.Options{
			FFmpeg:  s.Tools.FFmpeg,
			FFprobe: s.Tools.FFprobe,
			Runner:  cfg.Runner,
			Final: ffmpeg.Profile{
				VideoCodec:   s.Encode.VideoCodec,
				CRF:          s.Encode.CRF,
				MaxRate:      s.Encode.MaxRate,
				BufSize:      s.Encode.BufSize,
				Preset:       s.Encode.Preset,
				AudioCodec:   s.Encode.AudioCodec,
				AudioBitrate: s.Encode.AudioBitrate,
			},
			IntermediateCRF: s.LipSync.CRF,
			AssembleCRF:     s.Restore.CRF,
			AssemblePreset:  s.Restore.Preset,
		}),
		LipSyncer: wav2lip.New(wav2lip.Options{
			Python:       s.LipSync.Python,
			Repo:         s.LipSync.Repo,
			Checkpoint:   s.LipSync.Checkpoint,
			Pads:         s.LipSync.Pads,
			ResizeFactor: s.LipSync.ResizeFactor,
			NoSmooth:     s.LipSync.NoSmooth,
			Device:       device,
			Runner:       cfg.Runner,
		}),
		Restorer: realesrgan.New(realesrgan.Options{
			Bin:    s.Restore.Binary,
			Model:  s.Restore.Model,
			Scale:  s.Restore.Scale,
			Tile:   s.Restore.Tile,
			GPU:    s.Restore.GPU,
			Device: device,
			Runner: cfg.Runner,
		}),
		Logger:   log,
		Progress: cfg.Progress,
	}

	router := openrouter.New(openrouter.Options{
		APIKey:     s.Translator.APIKey,
		Model:      s.Translator.Model,
		AudioModel: s.Translator.AudioModel,
		BaseURL:    s.Translator.BaseURL,
		Timeout:    time.Duration(s.Translator.TimeoutSeconds) * time.Second,
	})
	switch s.Translator.Strategy {
	case config.StrategySingleShot:
		deps.AudioTranslator = router
	default:
		deps.Recognizer = whispercpp.New(whispercpp.Options{
			Bin:      s.Recognizer.Binary,
			Model:    s.Recognizer.Model,
			Language: firstNonEmpty(s.Recognizer.Language, s.Translator.SourceLanguage),
			Threads:  s.Recognizer.Threads,
			Device:   device,
			Runner:   cfg.Runner,
		})
		deps.Translator = router
	}

	if s.Shortener.Enabled {
		deps.Shortener = openaiapi.NewShortener(openaiapi.ShortenerOptions{
			APIKey:  s.Shortener.APIKey,
			BaseURL: s.Shortener.BaseURL,
			Model:   s.Shortener.Model,
			Timeout: time.Duration(s.Shortener.TimeoutSeconds) * time.Second,
		})
	}

	switch s.Synthesizer.Backend {
	case config.BackendOpenAI:
		deps.Synthesizer = openaiapi.NewSpeech(openaiapi.SpeechOptions{
			APIKey:       s.Synthesizer.OpenAIAPIKey,
			BaseURL:      s.Synthesizer.OpenAIBaseURL,
			Model:        s.Synthesizer.OpenAIModel,
			Voice:        s.Synthesizer.Voice,
			Instructions: s.Synthesizer.Instructions,
			Speed:        s.Synthesizer.Speed,
		})
	case config.BackendXTTS:
		deps.Synthesizer = xtts.New(xtts.Options{
			Python:  s.Synthesizer.Python,
			Model:   s.Synthesizer.XTTSModel,
			Speaker: s.Synthesizer.Speaker,
			Device:  device,
			Runner:  cfg.Runner,
		})
	default:
		return usecase.Deps{}, failure.Wrap(failure.ErrConfiguration, "", "synthesizer", "unknown backend "+s.Synthesizer.Backend, nil)
	}
	return deps, nil
}

func usecaseOptions(cfg Config) usecase.Options {
	s := cfg.Settings
	ceiling, err := types.ParseFrameRate(strconv.FormatFloat(s.LipSync.CeilingFPS, 'f', -1, 64))
	if err != nil {
		ceiling = framerate.DefaultCeiling
	}

	voice := s.Synthesizer.Voice
	if s.Synthesizer.Backend == config.BackendXTTS {
		voice = s.Synthesizer.Speaker
	}
	if v := strings.TrimSpace(cfg.Voice); v != "" {
		voice = v
	}
	// XTTS clones the clip's speaker unless a named voice was requested.
	clone := s.Synthesizer.Backend == config.BackendXTTS && strings.TrimSpace(cfg.Voice) == "" && s.Synthesizer.Speaker == ""

	return usecase.Options{
		Strategy:            usecase.Strategy(s.Translator.Strategy),
		SourceLanguage:      s.Translator.SourceLanguage,
		TargetLanguage:      s.Translator.TargetLanguage,
		NominalSpan:         seconds(s.Translator.NominalSpanSeconds),
		CloneVoice:          clone,
		ReferenceLength:     seconds(s.Synthesizer.ReferenceSeconds),
		ReferenceSampleRate: s.Synthesizer.ReferenceSampleRate,
		Voice:               voice,
		Shorten: usecase.ShortenPolicy{
			TriggerRatio: s.Shortener.TriggerRatio,
			TargetRatio:  s.Shortener.TargetRatio,
		},
		Stretch: s.Synthesizer.Stretch,
		StretchOptions: audio.StretchOptions{
			MinRate:   s.Synthesizer.MinRate,
			MaxRate:   s.Synthesizer.MaxRate,
			SkipBelow: seconds(s.Synthesizer.SkipBelowSeconds),
		},
		Mastering: mastering.Options{
			BedGain:    s.Mastering.BedGain,
			TargetLUFS: s.Mastering.TargetLUFS,
		},
		Tolerance:      seconds(s.Duration.ToleranceSeconds),
		MaxAttempts:    s.Duration.MaxAttempts,
		LipSyncMode:    framerate.Mode(s.LipSync.Mode),
		Ceiling:        ceiling,
		RestoreWorkers: s.Restore.Workers,
		Quality: quality.Options{
			Samples:   s.Validation.Samples,
			Threshold: s.Validation.SSIMThreshold,
			Size:      s.Validation.CompareSize,
			Tolerance: seconds(s.Validation.ToleranceSeconds),
			Workers:   s.Validation.Workers,
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
