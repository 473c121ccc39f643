package quality

import (
	"image"

	"golang.org/x/image/draw"
)

const (
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimRange  = 255.0
)

// ToGray rescales img to size×size and converts it to 8-bit intensity.
func ToGray(img image.Image, size int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// SSIM computes the mean structural similarity of two equally sized grayscale
// images using a 7×7 uniform window with sample covariance, averaged over
// every window that fits inside the image. The result is clamped to [0, 1].
func SSIM(a, b *image.Gray) float64 {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	if w != b.Bounds().Dx() || h != b.Bounds().Dy() || w < ssimWindow || h < ssimWindow {
		return 0
	}

	ident := func(v float64) float64 { return v }
	square := func(v float64) float64 { return v * v }
	ia := newIntegral(a, ident)
	ib := newIntegral(b, ident)
	iaa := newIntegral(a, square)
	ibb := newIntegral(b, square)
	iab := newPairIntegral(a, b)

	const (
		np      = ssimWindow * ssimWindow
		covNorm = float64(np) / float64(np-1)
	)
	c1 := (ssimK1 * ssimRange) * (ssimK1 * ssimRange)
	c2 := (ssimK2 * ssimRange) * (ssimK2 * ssimRange)

	var sum float64
	var n int
	for y := 0; y+ssimWindow <= h; y++ {
		for x := 0; x+ssimWindow <= w; x++ {
			ux := ia.box(x, y) / np
			uy := ib.box(x, y) / np
			uxx := iaa.box(x, y) / np
			uyy := ibb.box(x, y) / np
			uxy := iab.box(x, y) / np

			vx := covNorm * (uxx - ux*ux)
			vy := covNorm * (uyy - uy*uy)
			vxy := covNorm * (uxy - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			sum += num / den
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n))
}

func clamp01(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// integral is a summed-area table over (w+1)×(h+1).
type integral struct {
	w   int
	sum []float64
}

func newIntegral(img *image.Gray, f func(v float64) float64) integral {
	return buildIntegral(img.Bounds().Dx(), img.Bounds().Dy(), func(x, y int) float64 {
		return f(float64(img.GrayAt(img.Bounds().Min.X+x, img.Bounds().Min.Y+y).Y))
	})
}

func newPairIntegral(a, b *image.Gray) integral {
	return buildIntegral(a.Bounds().Dx(), a.Bounds().Dy(), func(x, y int) float64 {
		va := float64(a.GrayAt(a.Bounds().Min.X+x, a.Bounds().Min.Y+y).Y)
		vb := float64(b.GrayAt(b.Bounds().Min.X+x, b.Bounds().Min.Y+y).Y)
		return va * vb
	})
}

func buildIntegral(w, h int, at func(x, y int) float64) integral {
	stride := w + 1
	sum := make([]float64, stride*(h+1))
	for y := 1; y <= h; y++ {
		var row float64
		for x := 1; x <= w; x++ {
			row += at(x-1, y-1)
			sum[y*stride+x] = sum[(y-1)*stride+x] + row
		}
	}
	return integral{w: w, sum: sum}
}

// box sums the ssimWindow square whose top-left corner is (x, y).
func (it integral) box(x, y int) float64 {
	s := it.w + 1
	x2, y2 := x+ssimWindow, y+ssimWindow
	return it.sum[y2*s+x2] - it.sum[y*s+x2] - it.sum[y2*s+x] + it.sum[y*s+x]
}
