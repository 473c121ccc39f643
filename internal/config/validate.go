package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
)

// Validate ensures the configuration is usable for a run.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Device {
	case DeviceAuto, DeviceCPU, DeviceCUDA:
	default:
		add("device must be one of auto, cpu, cuda (got %q)", c.Device)
	}
	if c.Tools.FFmpeg == "" || c.Tools.FFprobe == "" {
		add("tools.ffmpeg and tools.ffprobe are required")
	}

	switch c.Translator.Strategy {
	case StrategySegments:
		if c.Recognizer.Model == "" {
			add("recognizer.model is required for the %s strategy", StrategySegments)
		}
	case StrategySingleShot:
		if c.Translator.NominalSpanSeconds < 0 {
			add("translator.nominal_span_seconds must be >= 0")
		}
	default:
		add("translator.strategy must be %q or %q (got %q)", StrategySegments, StrategySingleShot, c.Translator.Strategy)
	}
	if c.Translator.APIKey == "" {
		add("translator.api_key is required (set OPENROUTER_API_KEY)")
	}
	if c.Translator.SourceLanguage == "" || c.Translator.TargetLanguage == "" {
		add("translator source and target languages are required")
	}
	if c.Translator.TimeoutSeconds <= 0 {
		add("translator.timeout_seconds must be > 0")
	}

	if c.Shortener.Enabled {
		if c.Shortener.Model == "" || c.Shortener.BaseURL == "" {
			add("shortener.model and shortener.base_url are required when enabled")
		}
		if c.Shortener.TimeoutSeconds <= 0 {
			add("shortener.timeout_seconds must be > 0")
		}
		if c.Shortener.TriggerRatio <= 0 || c.Shortener.TargetRatio <= 0 {
			add("shortener ratios must be > 0")
		}
	}

	switch c.Synthesizer.Backend {
	case BackendXTTS:
		if c.Synthesizer.Python == "" || c.Synthesizer.XTTSModel == "" {
			add("synthesizer.python and synthesizer.xtts_model are required for xtts")
		}
	case BackendOpenAI:
		if c.Synthesizer.OpenAIAPIKey == "" {
			add("synthesizer.openai_api_key is required for openai (set OPENAI_API_KEY)")
		}
	default:
		add("synthesizer.backend must be %q or %q (got %q)", BackendXTTS, BackendOpenAI, c.Synthesizer.Backend)
	}
	if c.Synthesizer.ReferenceSeconds < 0 {
		add("synthesizer.reference_seconds must be >= 0")
	}
	if c.Synthesizer.MinRate <= 0 || c.Synthesizer.MaxRate < c.Synthesizer.MinRate {
		add("synthesizer rate bounds must satisfy 0 < min_rate <= max_rate")
	}

	if c.Mastering.BedGain < 0 {
		add("mastering.bed_gain must be >= 0")
	}
	if c.Mastering.TargetLUFS >= 0 {
		add("mastering.target_lufs must be negative")
	}
	if c.Duration.MaxAttempts <= 0 {
		add("duration.max_attempts must be > 0")
	}
	if c.Duration.ToleranceSeconds <= 0 {
		add("duration.tolerance_seconds must be > 0")
	}

	switch c.LipSync.Mode {
	case LipSyncReconcile, LipSyncNative:
	default:
		add("lipsync.mode must be %q or %q (got %q)", LipSyncReconcile, LipSyncNative, c.LipSync.Mode)
	}
	if c.LipSync.CeilingFPS <= 0 {
		add("lipsync.ceiling_fps must be > 0")
	}
	if len(c.LipSync.Pads) != 4 {
		add("lipsync.pads must have 4 values")
	}
	if c.LipSync.Checkpoint == "" {
		add("lipsync.checkpoint is required")
	}

	if c.Restore.Binary == "" || c.Restore.Scale <= 0 {
		add("restore.binary and restore.scale are required")
	}
	if c.Restore.Workers <= 0 {
		add("restore.workers must be > 0")
	}

	if c.Validation.Samples <= 0 {
		add("validation.samples must be > 0")
	}
	if c.Validation.SSIMThreshold < 0 || c.Validation.SSIMThreshold > 1 {
		add("validation.ssim_threshold must be within [0,1]")
	}
	if c.Validation.CompareSize < 8 {
		add("validation.compare_size must be >= 8")
	}
	if c.Validation.Workers <= 0 {
		add("validation.workers must be > 0")
	}

	if c.Encode.VideoCodec == "" || c.Encode.AudioCodec == "" {
		add("encode codecs are required")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level %q is not recognised", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		add("logging.format must be console or json (got %q)", c.Logging.Format)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", failure.ErrConfiguration, errors.Join(errs...))
}
