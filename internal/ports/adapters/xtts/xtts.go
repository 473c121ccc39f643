// Package xtts runs Coqui XTTS v2 through a small Python helper.
package xtts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type Options struct {
	Python string
	Model  string
	// Speaker is a built-in XTTS voice used when no reference sample is given.
	Speaker string
	Device  string
	Runner  process.Runner
}

type Adapter struct {
	opts Options
	run  process.Runner
	dir  string
}

func New(opts Options) *Adapter {
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if opts.Device == "" {
		opts.Device = "auto"
	}
	return &Adapter{opts: opts, run: process.Default(opts.Runner)}
}

// Load checks the interpreter and writes the helper script to a private
// directory that Release removes.
func (a *Adapter) Load(context.Context) error {
	if err := process.LookPath(a.opts.Python); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageSynthesize, "xtts", "python missing", err)
	}
	dir, err := os.MkdirTemp("", "dubcut-xtts-*")
	if err != nil {
		return fmt.Errorf("xtts workdir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, scriptName), []byte(synthScript), 0o644); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("write %s: %w", scriptName, err)
	}
	a.dir = dir
	return nil
}

func (a *Adapter) Release() {
	if a.dir != "" {
		os.RemoveAll(a.dir)
		a.dir = ""
	}
}

func (a *Adapter) Synthesize(ctx context.Context, req ports.SynthesisRequest) error {
	if a.dir == "" {
		return failure.Wrap(failure.ErrConfiguration, types.StageSynthesize, "xtts", "synthesize called before load", nil)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return failure.Wrap(failure.ErrValidation, types.StageSynthesize, "xtts", "nothing to synthesize", nil)
	}
	textFile := filepath.Join(a.dir, "text.txt")
	if err := os.WriteFile(textFile, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write xtts text: %w", err)
	}

	args := []string{
		filepath.Join(a.dir, scriptName),
		"--model", a.opts.Model,
		"--text_file", textFile,
		"--language", req.Language,
		"--out", req.OutPath,
		"--device", a.opts.Device,
	}
	switch {
	case req.Reference != "":
		args = append(args, "--speaker_wav", req.Reference)
	case strings.TrimSpace(req.Voice) != "":
		args = append(args, "--speaker", req.Voice)
	case a.opts.Speaker != "":
		args = append(args, "--speaker", a.opts.Speaker)
	default:
		return failure.Wrap(failure.ErrConfiguration, types.StageSynthesize, "xtts", "no reference sample or speaker", nil)
	}

	if _, err := a.run.Run(ctx, process.Cmd{Name: a.opts.Python, Args: args}); err != nil {
		return fmt.Errorf("xtts synthesize: %w", err)
	}
	return nil
}
