package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

func TestCuesSplitLongSegments(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("नमस्ते दोस्तों ", 8)
	segs := []types.TranslatedSegment{
		{Start: 0, End: 4, TargetText: long},
		{Start: 4, End: 6, TargetText: "धन्यवाद"},
	}
	cues := Cues(segs, 10*time.Second)
	if len(cues) < 3 {
		t.Fatalf("expected the long segment to wrap, got %d cues", len(cues))
	}
	var prev time.Duration
	for i, c := range cues {
		if len([]rune(c.Text)) > charBudget {
			t.Fatalf("cue %d exceeds %d runes: %q", i, charBudget, c.Text)
		}
		if c.Start < prev || c.End <= c.Start {
			t.Fatalf("cue %d has bad timing %s..%s", i, c.Start, c.End)
		}
		prev = c.End
	}
	last := cues[len(cues)-1]
	if last.Text != "धन्यवाद" || last.Start != 4*time.Second || last.End != 6*time.Second {
		t.Fatalf("unexpected last cue %+v", last)
	}
	if cues[len(cues)-2].End != 4*time.Second {
		t.Fatalf("wrapped lines must fill the segment span exactly")
	}
}

func TestCuesClampAndSkip(t *testing.T) {
	t.Parallel()

	segs := []types.TranslatedSegment{
		{Start: -1, End: 2, TargetText: "पहला"},
		{Start: 3, End: 3, TargetText: "खाली"},
		{Start: 4, End: 5, TargetText: "   "},
		{Start: 7, End: 12, TargetText: "आखिरी"},
	}
	cues := Cues(segs, 8*time.Second)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %+v", cues)
	}
	if cues[0].Start != 0 || cues[1].End != 8*time.Second {
		t.Fatalf("cues must stay inside the clip: %+v", cues)
	}
}

func TestRenderASS(t *testing.T) {
	t.Parallel()

	ass := RenderASS([]Cue{{Start: 1500 * time.Millisecond, End: 3 * time.Second, Text: sanitizeASS("a {\\b1}b\nc")}})
	if !strings.Contains(ass, "Dialogue: 0,0:00:01.50,0:00:03.00,Dub,,0,0,0,,a (\\\\b1)b c\n") {
		t.Fatalf("unexpected dialogue line:\n%s", ass)
	}
	if !strings.HasPrefix(ass, "[Script Info]") || !strings.Contains(ass, "Style: Dub, Noto Sans Devanagari") {
		t.Fatalf("missing header:\n%s", ass)
	}
}

func TestAssTimeFormat(t *testing.T) {
	t.Parallel()

	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}
