package usecase

import "testing"

func TestShortenPolicyLimit(t *testing.T) {
	t.Parallel()

	p := DefaultShortenPolicy()
	tests := []struct {
		name           string
		source, target string
		limit          int
		ok             bool
	}{
		{name: "within trigger", source: "abcdefghij", target: "abcdefghijk", ok: false},
		{name: "over trigger", source: "abcdefghij", target: "abcdefghijklm", limit: 11, ok: true},
		{name: "empty source", source: "", target: "abc", ok: false},
		{name: "empty target", source: "abc", target: "  ", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			limit, ok := p.Limit(tt.source, tt.target)
			if ok != tt.ok || limit != tt.limit {
				t.Fatalf("got (%d, %v) want (%d, %v)", limit, ok, tt.limit, tt.ok)
			}
		})
	}
}

func TestTextLenUsesComposedForm(t *testing.T) {
	t.Parallel()

	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	if textLen(composed) != 4 || textLen(decomposed) != 4 {
		t.Fatalf("expected 4 characters for both spellings, got %d and %d", textLen(composed), textLen(decomposed))
	}
}

func TestShortenPolicyAccept(t *testing.T) {
	t.Parallel()

	p := DefaultShortenPolicy()
	if !p.Accept("abcdef", "abc") {
		t.Fatalf("shorter text must be accepted")
	}
	if p.Accept("abc", "abcd") || p.Accept("abc", "abc") || p.Accept("abc", "") {
		t.Fatalf("only non-empty strictly shorter text is accepted")
	}
}
