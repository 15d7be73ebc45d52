package domain

import "testing"

func TestEncodeBase62_RoundTripLaws(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{61, "z"},
		{62, "10"},
		{3843, "zz"},
		{3844, "100"},
	}

	for _, tt := range tests {
		if got := EncodeBase62(tt.n); got != tt.want {
			t.Errorf("EncodeBase62(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestEncodeBase62_Monotone(t *testing.T) {
	prevLen := len(EncodeBase62(0))
	for n := uint64(1); n < 100000; n *= 3 {
		got := EncodeBase62(n)
		if len(got) < prevLen {
			t.Fatalf("EncodeBase62(%d) length %d shorter than previous %d", n, len(got), prevLen)
		}
		prevLen = len(got)
	}
}

func TestPadLeft(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"1", 5, "00001"},
		{"zz", 5, "000zz"},
		{"abcdef", 3, "abcdef"},
		{"", 2, "00"},
	}

	for _, tt := range tests {
		if got := PadLeft(tt.s, tt.width); got != tt.want {
			t.Errorf("PadLeft(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}
