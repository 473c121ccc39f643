package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp accepts plain seconds ("12.5") or clock notation
// ("MM:SS", "HH:MM:SS", optionally with fractional seconds).
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("timestamp %q: too many fields", s)
	}

	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("timestamp %q: not a finite number", s)
		}
		if v < 0 {
			return 0, fmt.Errorf("timestamp %q: negative field", s)
		}
		last := i == len(parts)-1
		if !last && v != float64(int64(v)) {
			return 0, fmt.Errorf("timestamp %q: only seconds may be fractional", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("timestamp %q: field %q out of range", s, p)
		}
		total = total*60 + v
	}
	if total > maxSeconds {
		return 0, fmt.Errorf("timestamp %q: out of range", s)
	}
	return Seconds(total), nil
}

// maxSeconds is the longest span a Duration can hold.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// Seconds converts a float second count to a Duration.
func Seconds(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
