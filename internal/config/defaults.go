package config

const (
	StrategySegments   = "segments"
	StrategySingleShot = "single-shot"

	BackendXTTS   = "xtts"
	BackendOpenAI = "openai"

	LipSyncReconcile = "reconcile"
	LipSyncNative    = "native"

	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device: DeviceAuto,
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Recognizer: Recognizer{
			Binary:   ".cache/bin/whisper.cpp",
			Model:    ".cache/models/ggml-medium.bin",
			Language: "kn",
		},
		Translator: Translator{
			Strategy:       StrategySegments,
			SourceLanguage: "kn",
			TargetLanguage: "hi",
			BaseURL:        "https://openrouter.ai",
			Model:          "google/gemini-2.0-flash-001",
			AudioModel:     "google/gemini-2.0-flash-001",
			TimeoutSeconds: 90,
		},
		Shortener: Shortener{
			Enabled:        true,
			BaseURL:        "http://localhost:11434/v1",
			Model:          "llama3.2:3b",
			TimeoutSeconds: 30,
			TriggerRatio:   1.15,
			TargetRatio:    1.1,
		},
		Synthesizer: Synthesizer{
			Backend:             BackendXTTS,
			Python:              "python3",
			XTTSModel:           "tts_models/multilingual/multi-dataset/xtts_v2",
			ReferenceSeconds:    6,
			ReferenceSampleRate: 22050,
			OpenAIModel:         "tts-1",
			Voice:               "nova",
			Speed:               1.0,
			Stretch:             true,
			MinRate:             0.7,
			MaxRate:             1.5,
			SkipBelowSeconds:    0.05,
		},
		Mastering: Mastering{
			BedGain:    0.08,
			TargetLUFS: -14,
		},
		Duration: Duration{
			ToleranceSeconds: 0.1,
			MaxAttempts:      3,
		},
		LipSync: LipSync{
			Mode:         LipSyncReconcile,
			CeilingFPS:   25,
			Python:       "python3",
			Repo:         "Wav2Lip",
			Checkpoint:   "Wav2Lip/checkpoints/wav2lip_gan.pth",
			Pads:         []int{0, 10, 0, 0},
			ResizeFactor: 1,
			NoSmooth:     true,
			CRF:          16,
		},
		Restore: Restore{
			Binary:  "realesrgan-ncnn-vulkan",
			Model:   "realesr-animevideov3",
			Scale:   2,
			Tile:    256,
			Workers: 2,
			CRF:     16,
			Preset:  "slow",
		},
		Validation: Validation{
			Samples:          10,
			SSIMThreshold:    0.80,
			CompareSize:      256,
			ToleranceSeconds: 0.1,
			Workers:          4,
		},
		Encode: Encode{
			VideoCodec:   "libx264",
			CRF:          23,
			MaxRate:      "4M",
			BufSize:      "8M",
			Preset:       "medium",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
