package types

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameRate is an exact rational frame rate as reported by ffprobe r_frame_rate.
type FrameRate struct {
	Num int
	Den int
}

// ParseFrameRate accepts "30000/1001", "25/1" or a plain number such as "25" or "29.97".
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FrameRate{}, fmt.Errorf("frame rate: empty")
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return FrameRate{}, fmt.Errorf("frame rate %q: %w", s, err)
		}
		d, err := strconv.Atoi(strings.TrimSpace(den))
		if err != nil {
			return FrameRate{}, fmt.Errorf("frame rate %q: %w", s, err)
		}
		r := FrameRate{Num: n, Den: d}
		if !r.Valid() {
			return FrameRate{}, fmt.Errorf("frame rate %q: must be positive", s)
		}
		return r, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		r := FrameRate{Num: n, Den: 1}
		if !r.Valid() {
			return FrameRate{}, fmt.Errorf("frame rate %q: must be positive", s)
		}
		return r, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return FrameRate{}, fmt.Errorf("frame rate %q: %w", s, err)
	}
	if f <= 0 {
		return FrameRate{}, fmt.Errorf("frame rate %q: must be positive", s)
	}
	return FrameRate{Num: int(f*1000 + 0.5), Den: 1000}.Reduce(), nil
}

func (r FrameRate) Valid() bool { return r.Num > 0 && r.Den > 0 }

func (r FrameRate) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Reduce divides out the greatest common divisor.
func (r FrameRate) Reduce() FrameRate {
	a, b := r.Num, r.Den
	for b != 0 {
		a, b = b, a%b
	}
	if a <= 1 {
		return r
	}
	return FrameRate{Num: r.Num / a, Den: r.Den / a}
}

// Less compares exactly by cross multiplication.
func (r FrameRate) Less(o FrameRate) bool {
	return int64(r.Num)*int64(o.Den) < int64(o.Num)*int64(r.Den)
}

func (r FrameRate) Equal(o FrameRate) bool {
	return int64(r.Num)*int64(o.Den) == int64(o.Num)*int64(r.Den)
}

// String renders the ffmpeg rational form, e.g. "30000/1001" or "25".
func (r FrameRate) String() string {
	if r.Den == 1 {
		return strconv.Itoa(r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
