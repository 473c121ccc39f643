// Package wav2lip drives the Wav2Lip inference script.
package wav2lip

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type Options struct {
	Python string
	// Repo is the Wav2Lip checkout; inference.py runs from there.
	Repo         string
	Checkpoint   string
	Pads         []int
	ResizeFactor int
	NoSmooth     bool
	Device       string
	Runner       process.Runner
}

type Adapter struct {
	opts Options
	run  process.Runner
}

func New(opts Options) *Adapter {
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if len(opts.Pads) != 4 {
		opts.Pads = []int{0, 10, 0, 0}
	}
	if opts.ResizeFactor <= 0 {
		opts.ResizeFactor = 1
	}
	return &Adapter{opts: opts, run: process.Default(opts.Runner)}
}

func (a *Adapter) script() string { return filepath.Join(a.opts.Repo, "inference.py") }

func (a *Adapter) Load(context.Context) error {
	if err := process.LookPath(a.opts.Python); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageLipSync, "wav2lip", "python missing", err)
	}
	if err := process.RequireFile("wav2lip inference script", a.script()); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageLipSync, "wav2lip", "repository missing", err)
	}
	if err := process.RequireFile("wav2lip checkpoint", a.opts.Checkpoint); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageLipSync, "wav2lip", "checkpoint missing", err)
	}
	return nil
}

func (a *Adapter) Release() {}

// LipSync runs inference from inside the repository, so every path handed to
// the script is made absolute first.
func (a *Adapter) LipSync(ctx context.Context, video, audio, outVideo string) error {
	abs := make([]string, 0, 5)
	for _, p := range []string{a.script(), a.opts.Checkpoint, video, audio, outVideo} {
		ap, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("wav2lip path %s: %w", p, err)
		}
		abs = append(abs, ap)
	}
	args := []string{
		abs[0],
		"--checkpoint_path", abs[1],
		"--face", abs[2],
		"--audio", abs[3],
		"--outfile", abs[4],
		"--pads",
	}
	for _, p := range a.opts.Pads {
		args = append(args, strconv.Itoa(p))
	}
	args = append(args, "--resize_factor", strconv.Itoa(a.opts.ResizeFactor))
	if a.opts.NoSmooth {
		args = append(args, "--nosmooth")
	}

	cmd := process.Cmd{Name: a.opts.Python, Args: args, Dir: a.opts.Repo}
	if a.opts.Device == "cpu" {
		cmd.Env = []string{"CUDA_VISIBLE_DEVICES="}
	}
	if _, err := a.run.Run(ctx, cmd); err != nil {
		return fmt.Errorf("wav2lip inference: %w", err)
	}
	return nil
}
