//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// probeDurationSeconds reads the container duration, or the duration of one
// stream when selector is "v:0" or "a:0".
func probeDurationSeconds(mp4Path string, selector ...string) (float64, error) {
	args := []string{"-v", "error"}
	entries := "format=duration"
	if len(selector) > 0 {
		args = append(args, "-select_streams", selector[0])
		entries = "stream=duration"
	}
	args = append(args,
		"-show_entries", entries,
		"-of", "default=noprint_wrappers=1:nokey=1",
		mp4Path,
	)
	b, err := exec.Command("ffprobe", args...).CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}
