package types

import "testing"

func TestParseFrameRate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    FrameRate
		wantErr bool
	}{
		{in: "30000/1001", want: FrameRate{Num: 30000, Den: 1001}},
		{in: "25/1", want: FrameRate{Num: 25, Den: 1}},
		{in: "30", want: FrameRate{Num: 30, Den: 1}},
		{in: "29.97", want: FrameRate{Num: 2997, Den: 100}},
		{in: "0/0", wantErr: true},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-5", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFrameRate(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestFrameRateCompare(t *testing.T) {
	t.Parallel()

	ntsc := FrameRate{Num: 30000, Den: 1001}
	if !(FrameRate{Num: 25, Den: 1}).Less(ntsc) {
		t.Fatalf("25 should be less than 29.97")
	}
	if !(FrameRate{Num: 50, Den: 2}).Equal(FrameRate{Num: 25, Den: 1}) {
		t.Fatalf("50/2 should equal 25/1")
	}
	if s := ntsc.String(); s != "30000/1001" {
		t.Fatalf("unexpected string %q", s)
	}
	if s := (FrameRate{Num: 25, Den: 1}).String(); s != "25" {
		t.Fatalf("unexpected string %q", s)
	}
}
