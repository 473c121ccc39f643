package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

const (
	defaultModel   = "google/gemini-2.0-flash-001"
	requestTimeout = 90 * time.Second
)

type Options struct {
	APIKey string
	Model  string
	// AudioModel handles the single-shot request; it must accept input_audio.
	AudioModel string
	BaseURL    string
	Timeout    time.Duration
	Client     *http.Client
}

type Adapter struct {
	key        string
	model      string
	audioModel string
	baseURL    string
	timeout    time.Duration
	client     *http.Client
}

func New(opts Options) *Adapter {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.AudioModel == "" {
		opts.AudioModel = opts.Model
	}
	if opts.Timeout <= 0 {
		opts.Timeout = requestTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Adapter{
		key:        opts.APIKey,
		model:      opts.Model,
		audioModel: opts.AudioModel,
		baseURL:    normalizeBaseURL(opts.BaseURL),
		timeout:    opts.Timeout,
		client:     opts.Client,
	}
}

// Translate renders every transcript segment in targetLang with one batched request.
func (a *Adapter) Translate(ctx context.Context, tr types.Transcript, sourceLang, targetLang string) ([]types.TranslatedSegment, error) {
	if len(tr.Segments) == 0 {
		return nil, nil
	}

	type seg struct {
		Idx  int    `json:"idx"`
		Text string `json:"text"`
	}
	arr := make([]seg, 0, len(tr.Segments))
	for i, s := range tr.Segments {
		arr = append(arr, seg{Idx: i, Text: s.Text})
	}
	pb, err := json.Marshal(map[string]any{
		"source_language": sourceLang,
		"target_language": targetLang,
		"segments":        arr,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": buildSegmentPrompt(pb)},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "dubcut_translate",
				"strict": true,
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"translations": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"idx":    map[string]any{"type": "integer"},
									"target": map[string]any{"type": "string"},
								},
								"required":             []string{"idx", "target"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"translations"},
					"additionalProperties": false,
				},
			},
		},
	}

	clean, err := a.complete(ctx, a.model, payload)
	if err != nil {
		return nil, err
	}
	var out struct {
		Translations []struct {
			Idx    int    `json:"idx"`
			Target string `json:"target"`
		} `json:"translations"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("openrouter: decode translations: %w", err)
	}

	byIdx := make(map[int]string, len(out.Translations))
	for _, t := range out.Translations {
		if v := strings.TrimSpace(t.Target); v != "" {
			byIdx[t.Idx] = v
		}
	}
	res := make([]types.TranslatedSegment, 0, len(tr.Segments))
	var missing []int
	for i, s := range tr.Segments {
		target, ok := byIdx[i]
		if !ok {
			missing = append(missing, i)
			continue
		}
		res = append(res, types.TranslatedSegment{Start: s.Start, End: s.End, SourceText: s.Text, TargetText: target})
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return nil, fmt.Errorf("%w: openrouter: no translation for segments %v", failure.ErrValidation, missing)
	}
	return res, nil
}

// TranslateAudio sends the clip audio itself and gets back the source
// transcript and its translation as one segment over [0, span].
func (a *Adapter) TranslateAudio(ctx context.Context, wavPath string, span time.Duration, sourceLang, targetLang string) (types.TranslatedSegment, error) {
	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return types.TranslatedSegment{}, fmt.Errorf("read audio: %w", err)
	}

	payload := map[string]any{
		"model":  a.audioModel,
		"stream": false,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": buildAudioPrompt(sourceLang, targetLang)},
					{
						"type": "input_audio",
						"input_audio": map[string]any{
							"data":   base64.StdEncoding.EncodeToString(wav),
							"format": "wav",
						},
					},
				},
			},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "dubcut_transcribe_translate",
				"strict": true,
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"source": map[string]any{"type": "string"},
						"target": map[string]any{"type": "string"},
					},
					"required":             []string{"source", "target"},
					"additionalProperties": false,
				},
			},
		},
	}

	clean, err := a.complete(ctx, a.audioModel, payload)
	if err != nil {
		return types.TranslatedSegment{}, err
	}
	var out struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return types.TranslatedSegment{}, fmt.Errorf("openrouter: decode translation: %w", err)
	}
	target := strings.TrimSpace(out.Target)
	if target == "" {
		return types.TranslatedSegment{}, fmt.Errorf("%w: openrouter: empty translation", failure.ErrValidation)
	}
	return types.TranslatedSegment{
		Start:      0,
		End:        span.Seconds(),
		SourceText: strings.TrimSpace(out.Source),
		TargetText: target,
	}, nil
}

// complete posts a chat completion and returns the JSON object in the reply.
func (a *Adapter) complete(ctx context.Context, model string, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: openrouter timeout after %s (model=%s)", failure.ErrTimeout, a.timeout, model)
		}
		return "", fmt.Errorf("openrouter request: %s", redactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openrouter: no choices in response")
	}
	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return "", err
	}
	return extractJSONObject(content)
}

func buildSegmentPrompt(segmentsJSON []byte) string {
	return "Translate each segment of a spoken transcript for dubbing. " +
		"Return strictly valid JSON (no markdown, no code fences) matching the provided schema, " +
		"with exactly one translation per idx. " +
		"Keep each translation natural and spoken, and no longer than the source when read aloud. " +
		"Write the target language in its native script." +
		"\n\nSegments JSON:\n" + string(segmentsJSON)
}

func buildAudioPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"Transcribe the %s speech in this audio, then translate it to %s for dubbing. "+
			"Return strictly valid JSON (no markdown, no code fences) of the form "+
			`{"source": "<transcript in %s script>", "target": "<translation in %s script>"}. `+
			"Keep the translation natural and close to the original spoken length.",
		sourceLang, targetLang, sourceLang, targetLang,
	)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		// Remove opening fence line.
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		// Remove trailing fence.
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
