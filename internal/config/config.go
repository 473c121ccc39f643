package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns the commented sample configuration file.
func SampleConfig() string { return sampleConfig }

// Tools locates the media transcoding binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Recognizer configures whisper.cpp.
type Recognizer struct {
	Binary   string `toml:"binary"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
	Threads  int    `toml:"threads"`
}

// Translator configures the OpenRouter translation backend and the
// recognition/translation granularity.
type Translator struct {
	Strategy           string   `toml:"strategy"`
	SourceLanguage     string   `toml:"source_language"`
	TargetLanguage     string   `toml:"target_language"`
	APIKey             string   `toml:"api_key"`
	BaseURL            string   `toml:"base_url"`
	AllowedHosts       []string `toml:"allowed_hosts"`
	Model              string   `toml:"model"`
	AudioModel         string   `toml:"audio_model"`
	NominalSpanSeconds float64  `toml:"nominal_span_seconds"`
	TimeoutSeconds     int      `toml:"timeout_seconds"`
}

// Shortener configures the best-effort shortening assist. Any OpenAI-compatible
// chat endpoint works (Ollama by default).
type Shortener struct {
	Enabled        bool    `toml:"enabled"`
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	TriggerRatio   float64 `toml:"trigger_ratio"`
	TargetRatio    float64 `toml:"target_ratio"`
}

// Synthesizer configures text-to-speech and the time-stretch applied to its output.
type Synthesizer struct {
	Backend             string  `toml:"backend"`
	Python              string  `toml:"python"`
	XTTSModel           string  `toml:"xtts_model"`
	Speaker             string  `toml:"speaker"`
	ReferenceSeconds    float64 `toml:"reference_seconds"`
	ReferenceSampleRate int     `toml:"reference_sample_rate"`
	OpenAIAPIKey        string  `toml:"openai_api_key"`
	OpenAIBaseURL       string  `toml:"openai_base_url"`
	OpenAIModel         string  `toml:"openai_model"`
	Voice               string  `toml:"voice"`
	Instructions        string  `toml:"instructions"`
	Speed               float64 `toml:"speed"`
	Stretch             bool    `toml:"stretch"`
	MinRate             float64 `toml:"min_rate"`
	MaxRate             float64 `toml:"max_rate"`
	SkipBelowSeconds    float64 `toml:"skip_below_seconds"`
}

type Mastering struct {
	BedGain    float64 `toml:"bed_gain"`
	TargetLUFS float64 `toml:"target_lufs"`
}

// Duration configures the synthesis retry loop.
type Duration struct {
	ToleranceSeconds float64 `toml:"tolerance_seconds"`
	MaxAttempts      int     `toml:"max_attempts"`
}

type LipSync struct {
	Mode         string  `toml:"mode"`
	CeilingFPS   float64 `toml:"ceiling_fps"`
	Python       string  `toml:"python"`
	Repo         string  `toml:"repo"`
	Checkpoint   string  `toml:"checkpoint"`
	Pads         []int   `toml:"pads"`
	ResizeFactor int     `toml:"resize_factor"`
	NoSmooth     bool    `toml:"nosmooth"`
	CRF          int     `toml:"crf"`
}

type Restore struct {
	Binary  string `toml:"binary"`
	Model   string `toml:"model"`
	Scale   int    `toml:"scale"`
	Tile    int    `toml:"tile"`
	GPU     int    `toml:"gpu"`
	Workers int    `toml:"workers"`
	CRF     int    `toml:"crf"`
	Preset  string `toml:"preset"`
}

type Validation struct {
	Samples          int     `toml:"samples"`
	SSIMThreshold    float64 `toml:"ssim_threshold"`
	CompareSize      int     `toml:"compare_size"`
	ToleranceSeconds float64 `toml:"tolerance_seconds"`
	Workers          int     `toml:"workers"`
}

// Encode is the delivery profile for the final artifact.
type Encode struct {
	VideoCodec   string `toml:"video_codec"`
	CRF          int    `toml:"crf"`
	MaxRate      string `toml:"maxrate"`
	BufSize      string `toml:"bufsize"`
	Preset       string `toml:"preset"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
}

// Publish uploads the final artifact to S3 when Bucket is set.
type Publish struct {
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	Endpoint     string `toml:"endpoint"`
	UsePathStyle bool   `toml:"use_path_style"`
}

func (p Publish) Enabled() bool { return strings.TrimSpace(p.Bucket) != "" }

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates every tunable of a dubbing run.
//
// Sections by subsystem:
//   - Tools: ffmpeg/ffprobe binaries
//   - Recognizer: whisper.cpp speech recognition
//   - Translator: OpenRouter translation, strategy and languages
//   - Shortener: optional shortening assist
//   - Synthesizer: XTTS or OpenAI speech, plus time-stretch bounds
//   - Mastering, Duration: loudness, bed gain and retry policy
//   - LipSync: Wav2Lip and frame-rate reconciliation
//   - Restore: Real-ESRGAN per-frame restoration
//   - Validation: SSIM and duration checks
//   - Encode: final delivery profile
//   - Publish: optional S3 upload
//   - Logging: log level and format
type Config struct {
	Device      string      `toml:"device"`
	Tools       Tools       `toml:"tools"`
	Recognizer  Recognizer  `toml:"recognizer"`
	Translator  Translator  `toml:"translator"`
	Shortener   Shortener   `toml:"shortener"`
	Synthesizer Synthesizer `toml:"synthesizer"`
	Mastering   Mastering   `toml:"mastering"`
	Duration    Duration    `toml:"duration"`
	LipSync     LipSync     `toml:"lipsync"`
	Restore     Restore     `toml:"restore"`
	Validation  Validation  `toml:"validation"`
	Encode      Encode      `toml:"encode"`
	Publish     Publish     `toml:"publish"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dubcut/config.toml")
}

// Load locates and parses a configuration file on top of the defaults. A missing
// file is not an error; the defaults are returned with exists=false. Validation
// is left to the caller because environment and flag overrides still apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := Decode(file, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// Decode parses TOML from r into cfg, rejecting unknown keys.
func Decode(r io.Reader, cfg *Config) error {
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config: %s", strict.String())
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Encode writes cfg as TOML with secrets masked.
func (c Config) Encode(w io.Writer) error {
	masked := c
	masked.Translator.APIKey = mask(c.Translator.APIKey)
	masked.Shortener.APIKey = mask(c.Shortener.APIKey)
	masked.Synthesizer.OpenAIAPIKey = mask(c.Synthesizer.OpenAIAPIKey)
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(masked)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv("DUBCUT_CONFIG")
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("dubcut.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
