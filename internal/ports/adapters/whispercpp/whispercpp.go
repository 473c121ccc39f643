package whispercpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type Options struct {
	Bin      string
	Model    string
	Language string
	Threads  int
	// Device "cpu" disables GPU offload.
	Device string
	Runner process.Runner
}

type Adapter struct {
	opts Options
	run  process.Runner
}

func New(opts Options) *Adapter {
	return &Adapter{opts: opts, run: process.Default(opts.Runner)}
}

// Load checks the binary and model; whisper.cpp only holds the model while its
// process runs.
func (a *Adapter) Load(context.Context) error {
	if err := process.LookPath(a.opts.Bin); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageTranscribe, "whisper.cpp", "binary missing", err)
	}
	if err := process.RequireFile("whisper model", a.opts.Model); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageTranscribe, "whisper.cpp", "model missing", err)
	}
	return nil
}

func (a *Adapter) Release() {}

func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (types.Transcript, error) {
	outPrefix := filepath.Join(filepath.Dir(wavPath), "whisper")
	args := []string{
		"-m", a.opts.Model,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
	}
	if lang := strings.TrimSpace(a.opts.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	if a.opts.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.opts.Threads))
	}
	if a.opts.Device == "cpu" {
		args = append(args, "-ng")
	}
	if _, err := a.run.Run(ctx, process.Cmd{Name: a.opts.Bin, Args: args}); err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w", err)
	}

	jsonPath := outPrefix + ".json"
	defer os.Remove(jsonPath)
	jb, err := os.ReadFile(jsonPath)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp output: %w", err)
	}
	tr, err := parseFull(jb)
	if err != nil {
		return types.Transcript{}, err
	}
	if tr.Language == "" {
		tr.Language = a.opts.Language
	}
	return tr, nil
}

type fullOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			// Text stays raw: a token may end inside a multi-byte character.
			Text    json.RawMessage `json:"text"`
			Offsets offsets         `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// offsets are milliseconds.
type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func ms(v int64) float64 { return float64(v) / 1000 }

// parseFull converts whisper.cpp -ojf output. Words are rebuilt from token
// bytes: a token starting with a space opens a new word; special tokens are
// dropped. A segment whose rebuilt words are not valid UTF-8 keeps its text
// but loses its word timings.
func parseFull(b []byte) (types.Transcript, error) {
	var out fullOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper.cpp json: %w", err)
	}
	tr := types.Transcript{Language: out.Result.Language}
	for _, seg := range out.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		s := types.Segment{Start: ms(seg.Offsets.From), End: ms(seg.Offsets.To), Text: text}

		type rawWord struct {
			start, end float64
			text       []byte
		}
		var words []rawWord
		for _, tok := range seg.Tokens {
			raw, err := unquoteBytes(tok.Text)
			if err != nil {
				return types.Transcript{}, fmt.Errorf("parse whisper.cpp token: %w", err)
			}
			if bytes.HasPrefix(raw, []byte("[_")) || bytes.HasPrefix(raw, []byte("<|")) {
				continue
			}
			startsWord := bytes.HasPrefix(raw, []byte(" ")) || len(words) == 0
			piece := bytes.TrimSpace(raw)
			if len(piece) == 0 {
				continue
			}
			if startsWord {
				words = append(words, rawWord{start: ms(tok.Offsets.From), end: ms(tok.Offsets.To), text: append([]byte(nil), piece...)})
				continue
			}
			w := &words[len(words)-1]
			w.text = append(w.text, piece...)
			w.end = ms(tok.Offsets.To)
		}

		valid := true
		for _, w := range words {
			if !utf8.Valid(w.text) {
				valid = false
				break
			}
		}
		if valid {
			for _, w := range words {
				s.Words = append(s.Words, types.Word{Start: w.start, End: w.end, Word: string(w.text)})
			}
		}
		tr.Segments = append(tr.Segments, s)
	}
	return tr, nil
}

// unquoteBytes decodes a JSON string literal without replacing invalid UTF-8,
// which encoding/json would turn into U+FFFD.
func unquoteBytes(lit []byte) ([]byte, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return nil, fmt.Errorf("not a string: %s", lit)
	}
	lit = lit[1 : len(lit)-1]
	out := make([]byte, 0, len(lit))
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(lit) {
			return nil, fmt.Errorf("dangling escape")
		}
		switch lit[i] {
		case '"', '\\', '/':
			out = append(out, lit[i])
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			r, n, err := hexRune(lit[i+1:])
			if err != nil {
				return nil, err
			}
			i += n
			if utf16.IsSurrogate(r) {
				if lo, m, err := hexRune(trimEscapeU(lit[i+1:])); err == nil {
					if dec := utf16.DecodeRune(r, lo); dec != utf8.RuneError {
						r = dec
						i += 2 + m
					}
				}
			}
			out = utf8.AppendRune(out, r)
		default:
			return nil, fmt.Errorf("invalid escape \\%c", lit[i])
		}
	}
	return out, nil
}

func hexRune(b []byte) (rune, int, error) {
	if len(b) < 4 {
		return 0, 0, fmt.Errorf("short unicode escape")
	}
	v, err := strconv.ParseUint(string(b[:4]), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("unicode escape: %w", err)
	}
	return rune(v), 4, nil
}

// trimEscapeU returns the hex digits after a following \u, or nil.
func trimEscapeU(b []byte) []byte {
	if len(b) >= 2 && b[0] == '\\' && b[1] == 'u' {
		return b[2:]
	}
	return nil
}
