// Package openaiapi talks to OpenAI-compatible endpoints: hosted speech
// synthesis and a local chat model used to shorten translations.
package openaiapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

type SpeechOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	Voice        string
	Instructions string
	Speed        float64
}

// Speech synthesizes WAV audio with the OpenAI speech endpoint.
type Speech struct {
	opts   SpeechOptions
	client *openai.Client
}

func NewSpeech(opts SpeechOptions) *Speech {
	if opts.Model == "" {
		opts.Model = string(openai.TTSModel1)
	}
	if opts.Voice == "" {
		opts.Voice = string(openai.VoiceNova)
	}
	return &Speech{opts: opts, client: newClient(opts.APIKey, opts.BaseURL)}
}

// Load only checks credentials; the model is remote.
func (s *Speech) Load(context.Context) error {
	if strings.TrimSpace(s.opts.APIKey) == "" {
		return failure.Wrap(failure.ErrConfiguration, types.StageSynthesize, "openai", "api key is empty", nil)
	}
	return nil
}

func (s *Speech) Release() {}

func (s *Speech) Synthesize(ctx context.Context, req ports.SynthesisRequest) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return failure.Wrap(failure.ErrValidation, types.StageSynthesize, "openai", "nothing to synthesize", nil)
	}
	voice := s.opts.Voice
	if v := strings.TrimSpace(req.Voice); v != "" {
		voice = v
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.opts.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		Instructions:   s.opts.Instructions,
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          s.opts.Speed,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	out, err := os.Create(req.OutPath)
	if err != nil {
		return fmt.Errorf("create speech output: %w", err)
	}
	if _, err := io.Copy(out, resp); err != nil {
		out.Close()
		return fmt.Errorf("write speech output: %w", err)
	}
	return out.Close()
}

type ShortenerOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Shortener asks a chat model for a condensed rendering of a translation.
type Shortener struct {
	opts   ShortenerOptions
	client *openai.Client
}

func NewShortener(opts ShortenerOptions) *Shortener {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	// Ollama ignores the key but go-openai always sends one.
	key := opts.APIKey
	if key == "" {
		key = "ollama"
	}
	return &Shortener{opts: opts, client: newClient(key, opts.BaseURL)}
}

const shortenPrompt = `You condense dubbing scripts. Rewrite the translation so it keeps the meaning of the source but is at most %d characters long. Keep the same language as the translation. Reply with the rewritten text only.`

func (s *Shortener) Shorten(ctx context.Context, source, target string, maxRunes int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(shortenPrompt, maxRunes)},
			{Role: openai.ChatMessageRoleUser, Content: "Source:\n" + source + "\n\nTranslation:\n" + target},
		},
		Temperature: 0.2,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", failure.Wrap(failure.ErrTimeout, types.StageTranslate, "shorten", "chat request timed out", err)
		}
		return "", fmt.Errorf("shorten chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("shorten chat: no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	out = strings.Trim(out, "\"“”")
	return strings.TrimSpace(out), nil
}
