// Package subtitles renders the translated transcript as an ASS caption track
// that sits next to the dubbed video.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

const (
	charBudget = 42
	wordBudget = 9
)

// Cue is one caption line with clip-local timing.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Cues breaks every translated segment into readable lines. Translations carry
// no word timing, so a segment's span is shared between its lines in
// proportion to their length. Times are clamped to [0, clip].
func Cues(segs []types.TranslatedSegment, clip time.Duration) []Cue {
	var out []Cue
	for _, s := range segs {
		start := clamp(seconds(s.Start), clip)
		end := clamp(seconds(s.End), clip)
		if end <= start {
			continue
		}
		lines := packWords(strings.Fields(sanitizeASS(s.TargetText)))
		if len(lines) == 0 {
			continue
		}
		total := 0
		for _, ln := range lines {
			total += runeLen(ln)
		}
		span := end - start
		at := start
		for i, ln := range lines {
			next := at + time.Duration(float64(span)*float64(runeLen(ln))/float64(total))
			if i == len(lines)-1 {
				next = end
			}
			out = append(out, Cue{Start: at, End: next, Text: ln})
			at = next
		}
	}
	return out
}

// RenderASS writes cues as a complete ASS script.
func RenderASS(cues []Cue) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range cues {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Dub,,0,0,0,,%s\n", assTime(c.Start), assTime(c.End), c.Text)
	}
	return b.String()
}

func packWords(words []string) []string {
	var (
		out   []string
		cur   []string
		curLn int
	)
	for _, w := range words {
		wl := runeLen(w)
		next := curLn + wl
		if curLn > 0 {
			next++
		}
		if len(cur) > 0 && (len(cur) >= wordBudget || next > charBudget) {
			out = append(out, strings.Join(cur, " "))
			cur, curLn = nil, 0
			next = wl
		}
		cur = append(cur, w)
		curLn = next
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Dub, Noto Sans Devanagari, 64, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,4,1,2, 80,80,60,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

// sanitizeASS keeps override blocks and line breaks out of caption text.
func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.NewReplacer("\r\n", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}

func clamp(d, limit time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > limit {
		return limit
	}
	return d
}

func runeLen(s string) int { return len([]rune(s)) }

func seconds(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
