// Package pipeline turns the effective configuration into wired adapters and
// runs one dubbing job inside a locked output directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Bitshifter-9/kannada-hindi/internal/config"
	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/ffmpeg"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/openaiapi"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/openrouter"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/realesrgan"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/s3publish"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/wav2lip"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/whispercpp"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/xtts"
	"github.com/Bitshifter-9/kannada-hindi/internal/report"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
	"github.com/Bitshifter-9/kannada-hindi/internal/usecase"
)

const lockName = ".dubcut.lock"

// Config is one run request on top of the loaded settings.
type Config struct {
	Input  string
	OutDir string
	Start  time.Duration
	End    time.Duration
	// Voice overrides the configured synthesizer voice.
	Voice    string
	Settings config.Config
	Logger   *slog.Logger
	Progress io.Writer

	// Runner replaces subprocess execution; nil runs the real tools.
	Runner process.Runner
	// Publisher replaces the S3 uploader when set.
	Publisher ports.Publisher
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return failure.Wrap(failure.ErrValidation, "", "input", "path is empty", nil)
	}
	info, err := os.Stat(c.Input)
	if err != nil {
		return failure.Wrap(failure.ErrNotFound, "", "input", "stat", err)
	}
	if info.IsDir() {
		return failure.Wrap(failure.ErrValidation, "", "input", c.Input+" is a directory", nil)
	}
	if _, err := types.NewClipSpec(c.Input, c.Start, c.End); err != nil {
		return failure.Wrap(failure.ErrValidation, "", "clip", "invalid range", err)
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	return openrouter.ValidateBaseURL(c.Settings.Translator.BaseURL, c.Settings.Translator.AllowedHosts)
}

// Outcome summarizes a finished or aborted run.
type Outcome struct {
	RunID      string
	OutDir     string
	FinalVideo string
	State      types.State
	Artifacts  []types.Artifact
	Report     types.ValidationReport
	Published  string
	Manifest   string
}

func Run(ctx context.Context, cfg Config) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}
	outDir := cfg.OutDir
	if outDir == "" {
		outDir = defaultOutDir(cfg.Input)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(outDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return Outcome{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Outcome{}, failure.Wrap(failure.ErrConfiguration, "", "lock", "another run is using "+outDir, nil)
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	log := logging.Or(cfg.Logger).With(logging.RunID(runID))
	clip, _ := types.NewClipSpec(cfg.Input, cfg.Start, cfg.End)
	log.Info("run started",
		logging.Path(cfg.Input),
		slog.String("out", outDir),
		logging.Seconds("start_sec", cfg.Start),
		logging.Seconds("end_sec", cfg.End),
		slog.String("strategy", cfg.Settings.Translator.Strategy),
		slog.String("device", cfg.Settings.Device),
	)

	deps, err := buildDeps(cfg, log)
	if err != nil {
		return Outcome{}, err
	}
	uc := usecase.New(deps, usecaseOptions(cfg))

	started := time.Now().UTC()
	res, runErr := uc.Run(ctx, usecase.Input{Clip: clip, OutDir: outDir})

	out := Outcome{
		RunID:      runID,
		OutDir:     outDir,
		FinalVideo: res.FinalVideo,
		State:      res.State,
		Artifacts:  res.Artifacts,
		Report:     res.Report,
		Manifest:   types.Layout{Dir: outDir}.Manifest(),
	}
	if sf, ok := failure.AsStageFailure(runErr); ok {
		out.State = types.StateAborted
		out.Artifacts = sf.Artifacts
	}

	var pubErr error
	if runErr == nil {
		out.Published, pubErr = publish(ctx, cfg, runID, res.FinalVideo, log)
	}

	m := manifest(runID, cfg, out, res, started)
	if err := errors.Join(runErr, pubErr); err != nil {
		m.Error = err.Error()
	}
	if err := report.WriteJSON(out.Manifest, m); err != nil {
		log.Warn("manifest not written", logging.Error(err))
	}

	if runErr != nil {
		return out, runErr
	}
	log.Info("run finished", logging.Path(out.FinalVideo), slog.Bool("quality_pass", out.Report.OverallPass))
	return out, pubErr
}

func publish(ctx context.Context, cfg Config, runID, file string, log *slog.Logger) (string, error) {
	pub := cfg.Publisher
	if pub == nil {
		p := cfg.Settings.Publish
		if !p.Enabled() {
			return "", nil
		}
		s3p, err := s3publish.New(ctx, s3publish.Options{
			Bucket:       p.Bucket,
			Prefix:       p.Prefix,
			Region:       p.Region,
			Profile:      p.Profile,
			Endpoint:     p.Endpoint,
			UsePathStyle: p.UsePathStyle,
		})
		if err != nil {
			return "", err
		}
		pub = s3p
	}
	url, err := pub.Publish(ctx, runID, file)
	if err != nil {
		log.Error("publish failed", logging.Error(err))
		return "", err
	}
	log.Info("final artifact published", slog.String("url", url))
	return url, nil
}

func manifest(runID string, cfg Config, out Outcome, res usecase.Result, started time.Time) types.Manifest {
	m := types.Manifest{
		RunID:      runID,
		Input:      cfg.Input,
		StartSec:   cfg.Start.Seconds(),
		EndSec:     cfg.End.Seconds(),
		State:      out.State,
		Strategy:   cfg.Settings.Translator.Strategy,
		Published:  out.Published,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	for _, a := range out.Artifacts {
		rel, err := filepath.Rel(out.OutDir, a.Path)
		if err != nil {
			rel = a.Path
		}
		m.Artifacts = append(m.Artifacts, types.ManifestFile{Kind: a.Kind, File: filepath.ToSlash(rel)})
	}
	if res.Mastered.Path != "" {
		mastered := res.Mastered
		m.Mastered = &mastered
	}
	if out.State == types.StateEncoded {
		rep := res.Report
		m.Validation = &rep
	}
	return m
}

// defaultOutDir names the run directory after the input file.
func defaultOutDir(input string) string {
	name := normalizePathSegment(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
	if name == "" {
		name = "input"
	}
	return filepath.Join("out", name)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ensure adapters implement ports
var (
	_ ports.VideoTool         = (*ffmpeg.Adapter)(nil)
	_ ports.Recognizer        = (*whispercpp.Adapter)(nil)
	_ ports.ModelScope        = (*whispercpp.Adapter)(nil)
	_ ports.SegmentTranslator = (*openrouter.Adapter)(nil)
	_ ports.AudioTranslator   = (*openrouter.Adapter)(nil)
	_ ports.Shortener         = (*openaiapi.Shortener)(nil)
	_ ports.Synthesizer       = (*openaiapi.Speech)(nil)
	_ ports.ModelScope        = (*openaiapi.Speech)(nil)
	_ ports.Synthesizer       = (*xtts.Adapter)(nil)
	_ ports.ModelScope        = (*xtts.Adapter)(nil)
	_ ports.LipSyncer         = (*wav2lip.Adapter)(nil)
	_ ports.ModelScope        = (*wav2lip.Adapter)(nil)
	_ ports.FrameRestorer     = (*realesrgan.Adapter)(nil)
	_ ports.ModelScope        = (*realesrgan.Adapter)(nil)
	_ ports.Publisher         = (*s3publish.Publisher)(nil)
)
