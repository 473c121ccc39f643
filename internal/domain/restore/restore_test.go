package restore

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

func savePNG(path string, w, h int, shade uint8) error {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type fakeVideo struct {
	frames int
	w, h   int

	assembled []string
	sizes     []image.Point
	shades    []uint8
	fps       types.FrameRate
	audioFrom string
}

func (f *fakeVideo) ProbeFrameRate(context.Context, string) (types.FrameRate, error) {
	return types.FrameRate{Num: 30, Den: 1}, nil
}

func (f *fakeVideo) ExtractFrames(_ context.Context, _ string, pattern string) error {
	for i := 1; i <= f.frames; i++ {
		if err := savePNG(fmt.Sprintf(pattern, i), f.w, f.h, uint8(i*10)); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVideo) AssembleFrames(_ context.Context, pattern string, fps types.FrameRate, audioFrom, out string) error {
	entries, err := os.ReadDir(filepath.Dir(pattern))
	if err != nil {
		return err
	}
	for _, e := range entries {
		f.assembled = append(f.assembled, e.Name())
		file, err := os.Open(filepath.Join(filepath.Dir(pattern), e.Name()))
		if err != nil {
			return err
		}
		img, err := png.Decode(file)
		file.Close()
		if err != nil {
			return err
		}
		f.sizes = append(f.sizes, img.Bounds().Size())
		f.shades = append(f.shades, color.GrayModel.Convert(img.At(1, 1)).(color.Gray).Y)
	}
	f.fps = fps
	f.audioFrom = audioFrom
	return os.WriteFile(out, []byte("mp4"), 0o644)
}

// upscaler doubles each frame, keeping its shade.
type upscaler struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (u *upscaler) RestoreFrame(_ context.Context, in, out string) error {
	u.mu.Lock()
	u.calls = append(u.calls, filepath.Base(in))
	u.mu.Unlock()
	if filepath.Base(in) == u.failOn {
		return errors.New("vulkan device lost")
	}
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return err
	}
	shade := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y
	b := img.Bounds()
	return savePNG(out, b.Dx()*2, b.Dy()*2, shade)
}

func testPaths(dir string) Paths {
	return Paths{
		Video:       filepath.Join(dir, "lipsynced.mp4"),
		FramesDir:   filepath.Join(dir, "frames"),
		RestoredDir: filepath.Join(dir, "frames_restored"),
		Output:      filepath.Join(dir, "restored.mp4"),
	}
}

func TestRestorePreservesOrderAndSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	video := &fakeVideo{frames: 12, w: 32, h: 18}
	model := &upscaler{}
	r := Restorer{Video: video, Model: model, Workers: 4}

	res, err := r.Run(context.Background(), testPaths(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Frames != 12 || res.Resized != 12 || res.Width != 32 || res.Height != 18 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(model.calls) != 12 {
		t.Fatalf("expected every frame restored, got %d calls", len(model.calls))
	}
	if !sort.StringsAreSorted(video.assembled) || len(video.assembled) != 12 {
		t.Fatalf("unexpected assembled frames: %v", video.assembled)
	}
	for i, name := range video.assembled {
		if want := fmt.Sprintf("%05d.png", i+1); name != want {
			t.Fatalf("frame %d named %s want %s", i, name, want)
		}
		if video.sizes[i] != image.Pt(32, 18) {
			t.Fatalf("frame %s not resized back: %v", name, video.sizes[i])
		}
		// uniform frames survive Catmull-Rom with their shade intact
		if d := int(video.shades[i]) - (i+1)*10; d < -1 || d > 1 {
			t.Fatalf("frame %s has shade %d, order broken", name, video.shades[i])
		}
	}
	if video.fps != (types.FrameRate{Num: 30, Den: 1}) || !strings.HasSuffix(video.audioFrom, "lipsynced.mp4") {
		t.Fatalf("unexpected assemble args: fps=%s audio=%s", video.fps, video.audioFrom)
	}
	assertGone(t, filepath.Join(dir, "frames"), filepath.Join(dir, "frames_restored"))
}

func TestRestoreFrameFailureIsFatal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	video := &fakeVideo{frames: 6, w: 8, h: 8}
	model := &upscaler{failOn: "00004.png"}
	r := Restorer{Video: video, Model: model, Workers: 2}

	_, err := r.Run(context.Background(), testPaths(dir))
	if err == nil || !strings.Contains(err.Error(), "00004.png") {
		t.Fatalf("expected failure naming the frame, got %v", err)
	}
	if len(video.assembled) != 0 {
		t.Fatalf("must not assemble after a frame failure")
	}
	if _, err := os.Stat(filepath.Join(dir, "restored.mp4")); !os.IsNotExist(err) {
		t.Fatalf("unexpected output after failure")
	}
	assertGone(t, filepath.Join(dir, "frames"), filepath.Join(dir, "frames_restored"))
}

func TestRestoreNoFrames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := Restorer{Video: &fakeVideo{}, Model: &upscaler{}}
	if _, err := r.Run(context.Background(), testPaths(dir)); err == nil {
		t.Fatalf("expected error for empty frame set")
	}
	assertGone(t, filepath.Join(dir, "frames"), filepath.Join(dir, "frames_restored"))
}

func assertGone(t *testing.T, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", d, err)
		}
	}
}
