package usecase

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Bitshifter-9/kannada-hindi/internal/logging"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

// ShortenPolicy decides when a translation is long enough to ask for a shorter
// rendering, and how short.
type ShortenPolicy struct {
	// TriggerRatio is target/source length above which shortening is attempted.
	TriggerRatio float64
	// TargetRatio bounds the requested length relative to the source.
	TargetRatio float64
}

func DefaultShortenPolicy() ShortenPolicy {
	return ShortenPolicy{TriggerRatio: 1.15, TargetRatio: 1.1}
}

// textLen counts characters after NFC composition so that precomposed and
// decomposed spellings measure the same.
func textLen(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(strings.TrimSpace(s)))
}

// Limit returns the character budget for target, or false when target is not
// over the trigger.
func (p ShortenPolicy) Limit(source, target string) (int, bool) {
	src, tgt := textLen(source), textLen(target)
	if src == 0 || tgt == 0 || p.TriggerRatio <= 0 {
		return 0, false
	}
	if float64(tgt) <= p.TriggerRatio*float64(src) {
		return 0, false
	}
	limit := int(math.Floor(p.TargetRatio * float64(src)))
	if limit < 1 {
		limit = 1
	}
	return limit, true
}

// Accept reports whether candidate may replace current.
func (p ShortenPolicy) Accept(current, candidate string) bool {
	n := textLen(candidate)
	return n > 0 && n < textLen(current)
}

// shorten returns the segment's target text, shortened when the policy asks for
// it and the shortener produces something acceptable. Every failure keeps the
// original text.
func (r *run) shorten(ctx context.Context, seg types.TranslatedSegment) string {
	if r.u.d.Shortener == nil {
		return seg.TargetText
	}
	policy := r.u.opts.Shorten
	if policy == (ShortenPolicy{}) {
		policy = DefaultShortenPolicy()
	}
	limit, ok := policy.Limit(seg.SourceText, seg.TargetText)
	if !ok {
		return seg.TargetText
	}
	log := r.log.With(logging.Component("shortener"), slog.Int("limit", limit), slog.Int("length", textLen(seg.TargetText)))

	short, err := r.u.d.Shortener.Shorten(ctx, seg.SourceText, seg.TargetText, limit)
	if err != nil {
		log.Warn("shortening failed; keeping translation", logging.Error(err))
		return seg.TargetText
	}
	short = strings.TrimSpace(short)
	if !policy.Accept(seg.TargetText, short) {
		log.Debug("shortened text rejected", slog.Int("candidate", textLen(short)))
		return seg.TargetText
	}
	log.Info("translation shortened", slog.Int("shortened", textLen(short)))
	return short
}
