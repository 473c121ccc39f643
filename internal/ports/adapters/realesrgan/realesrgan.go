// Package realesrgan restores single frames with realesrgan-ncnn-vulkan.
package realesrgan

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type Options struct {
	Bin   string
	Model string
	Scale int
	Tile  int
	GPU   int
	// Device "cpu" forces -g -1 regardless of GPU.
	Device string
	Runner process.Runner
}

type Adapter struct {
	opts Options
	run  process.Runner
}

func New(opts Options) *Adapter {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	return &Adapter{opts: opts, run: process.Default(opts.Runner)}
}

func (a *Adapter) Load(context.Context) error {
	if err := process.LookPath(a.opts.Bin); err != nil {
		return failure.Wrap(failure.ErrNotFound, types.StageRestore, "realesrgan", "binary missing", err)
	}
	return nil
}

func (a *Adapter) Release() {}

func (a *Adapter) gpu() int {
	if a.opts.Device == "cpu" {
		return -1
	}
	return a.opts.GPU
}

func (a *Adapter) RestoreFrame(ctx context.Context, inPNG, outPNG string) error {
	args := []string{
		"-i", inPNG,
		"-o", outPNG,
		"-s", strconv.Itoa(a.opts.Scale),
		"-f", "png",
	}
	if a.opts.Tile > 0 {
		args = append(args, "-t", strconv.Itoa(a.opts.Tile))
	}
	if a.opts.Model != "" {
		args = append(args, "-n", a.opts.Model)
	}
	args = append(args, "-g", strconv.Itoa(a.gpu()))
	if _, err := a.run.Run(ctx, process.Cmd{Name: a.opts.Bin, Args: args}); err != nil {
		return fmt.Errorf("realesrgan restore: %w", err)
	}
	return nil
}
