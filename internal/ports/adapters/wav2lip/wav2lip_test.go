package wav2lip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/ports/adapters/process"
)

func TestLipSyncArguments(t *testing.T) {
	t.Parallel()

	rec := &process.Recorder{}
	a := New(Options{Python: "python3", Repo: "/opt/Wav2Lip", Checkpoint: "/opt/Wav2Lip/checkpoints/wav2lip_gan.pth", NoSmooth: true, Device: "cpu", Runner: rec})
	if err := a.LipSync(context.Background(), "/run/lipsync_input.mp4", "/run/mastered.wav", "/run/lipsync_raw.mp4"); err != nil {
		t.Fatalf("lipsync: %v", err)
	}
	calls := rec.Snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	c := calls[0]
	if c.Dir != "/opt/Wav2Lip" {
		t.Fatalf("expected repo working dir, got %q", c.Dir)
	}
	want := "/opt/Wav2Lip/inference.py --checkpoint_path /opt/Wav2Lip/checkpoints/wav2lip_gan.pth --face /run/lipsync_input.mp4 --audio /run/mastered.wav --outfile /run/lipsync_raw.mp4 --pads 0 10 0 0 --resize_factor 1 --nosmooth"
	if got := strings.Join(c.Args, " "); got != want {
		t.Fatalf("unexpected args\n got: %s\nwant: %s", got, want)
	}
	if !slices.Contains(c.Env, "CUDA_VISIBLE_DEVICES=") {
		t.Fatalf("cpu mode must hide GPUs, env=%v", c.Env)
	}
}

func TestLipSyncRelativePathsBecomeAbsolute(t *testing.T) {
	t.Parallel()

	rec := &process.Recorder{}
	a := New(Options{Repo: "Wav2Lip", Checkpoint: "ckpt.pth", Device: "cuda", Runner: rec})
	if err := a.LipSync(context.Background(), "in.mp4", "a.wav", "out.mp4"); err != nil {
		t.Fatalf("lipsync: %v", err)
	}
	c := rec.Snapshot()[0]
	for _, arg := range []string{c.Args[0], c.Args[2], c.Args[4], c.Args[6], c.Args[8]} {
		if !filepath.IsAbs(arg) {
			t.Fatalf("expected absolute path, got %q", arg)
		}
	}
	if len(c.Env) != 0 {
		t.Fatalf("gpu mode must not touch env, got %v", c.Env)
	}
	if slices.Contains(c.Args, "--nosmooth") {
		t.Fatalf("nosmooth not requested")
	}
}

func TestLipSyncFailure(t *testing.T) {
	t.Parallel()

	rec := &process.Recorder{Handle: func(process.Cmd) (process.Result, error) {
		return process.Result{}, &process.ExitError{ExitCode: 1, Err: errors.New("exit status 1")}
	}}
	a := New(Options{Repo: "/r", Checkpoint: "/c", Runner: rec})
	err := a.LipSync(context.Background(), "/v", "/a", "/o")
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode != 1 {
		t.Fatalf("expected exit error, got %v", err)
	}
}

func TestLoadChecksCheckpoint(t *testing.T) {
	t.Parallel()

	repo := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, "inference.py"), []byte("pass\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a := New(Options{Python: "sh", Repo: repo, Checkpoint: filepath.Join(repo, "missing.pth")})
	if err := a.Load(context.Background()); !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	ckpt := filepath.Join(repo, "wav2lip_gan.pth")
	if err := os.WriteFile(ckpt, []byte("w"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b := New(Options{Python: "sh", Repo: repo, Checkpoint: ckpt})
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}
