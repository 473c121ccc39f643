package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bitshifter-9/kannada-hindi/internal/config"
	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/pipeline"
	"github.com/Bitshifter-9/kannada-hindi/internal/report"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

const runTimeout = 3 * time.Hour

type runFlags struct {
	input       string
	out         string
	start       string
	end         string
	voice       string
	configPath  string
	strategy    string
	lipSyncMode string
	device      string
	logLevel    string
	logFormat   string
}

func (a app) runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dub one clip of the input video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.input, "input", "", "Source video")
	fl.StringVar(&f.out, "out", "", "Output directory (default out/<input name>)")
	fl.StringVar(&f.start, "start", "", "Clip start, seconds or HH:MM:SS(.ms)")
	fl.StringVar(&f.end, "end", "", "Clip end, seconds or HH:MM:SS(.ms)")
	fl.StringVar(&f.voice, "voice", "", "Synthesizer voice or speaker name")
	fl.StringVar(&f.configPath, "config", "", "Config file (default $DUBCUT_CONFIG or ~/.config/dubcut/config.toml)")
	fl.StringVar(&f.strategy, "strategy", "", "Recognition strategy: segments or single-shot")
	fl.StringVar(&f.lipSyncMode, "lipsync-mode", "", "Frame-rate handling: reconcile or native")
	fl.StringVar(&f.device, "device", "", "Inference device: auto, cpu or cuda")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")
	return cmd
}

func (a app) run(ctx context.Context, f runFlags) error {
	if strings.TrimSpace(f.input) == "" {
		return usageError("--input is required")
	}
	start, end, err := clipRange(f.start, f.end)
	if err != nil {
		return err
	}
	settings, err := a.loadSettings(f.configPath, f)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Writer: a.stderr,
	})
	if err != nil {
		return usageError("%v", err)
	}

	absIn, err := filepath.Abs(f.input)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	var progress io.Writer
	if logging.IsTerminal(a.stderr) {
		progress = a.stderr
	}

	out, err := pipeline.Run(ctx, pipeline.Config{
		Input:    absIn,
		OutDir:   f.out,
		Start:    start,
		End:      end,
		Voice:    f.voice,
		Settings: *settings,
		Logger:   log,
		Progress: progress,
	})
	if out.FinalVideo != "" && out.State == types.StateEncoded {
		fmt.Fprintln(a.stdout, out.FinalVideo)
		fmt.Fprintln(a.stderr, report.Artifacts(out.Artifacts))
		if out.Published != "" {
			fmt.Fprintf(a.stderr, "published: %s\n", out.Published)
		}
	}
	return err
}

func clipRange(start, end string) (time.Duration, time.Duration, error) {
	if strings.TrimSpace(end) == "" {
		return 0, 0, usageError("--end is required")
	}
	var s time.Duration
	if strings.TrimSpace(start) != "" {
		v, err := types.ParseTimestamp(start)
		if err != nil {
			return 0, 0, usageError("--start: %v", err)
		}
		s = v
	}
	e, err := types.ParseTimestamp(end)
	if err != nil {
		return 0, 0, usageError("--end: %v", err)
	}
	if e <= s {
		return 0, 0, usageError("--end (%s) must be after --start (%s)", end, firstSet(start, "0"))
	}
	return s, e, nil
}

// loadSettings layers the config file, the environment and the run flags.
func (a app) loadSettings(path string, f runFlags) (*config.Config, error) {
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", failure.ErrConfiguration, err)
	}
	cfg.ApplyEnv(a.getenv)

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.Translator.Strategy, f.strategy)
	set(&cfg.LipSync.Mode, f.lipSyncMode)
	set(&cfg.Device, strings.ToLower(f.device))
	set(&cfg.Logging.Level, f.logLevel)
	set(&cfg.Logging.Format, f.logFormat)
	return cfg, nil
}

func firstSet(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
