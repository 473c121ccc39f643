package restore

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

func frameSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// fitFrame rescales the PNG at path to w×h in place. It reports whether the
// frame needed resizing.
func fitFrame(path string, w, h int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	src, err := png.Decode(f)
	f.Close()
	if err != nil {
		return false, err
	}
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return false, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	if err := png.Encode(out, dst); err != nil {
		out.Close()
		os.Remove(tmp)
		return false, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, os.Rename(tmp, path)
}
