package sluggen

import "testing"

func TestNewBase62(t *testing.T) {
	gen := NewBase62()
	if gen == nil {
		t.Fatal("NewBase62() returned nil")
	}
}

func TestBase62Generator_Derive(t *testing.T) {
	gen := NewBase62()

	tests := []struct {
		n        uint64
		minWidth int
		want     string
	}{
		{0, 5, "00000"},
		{1, 5, "00001"},
		{61, 5, "0000z"},
		{62, 5, "00010"},
		{3843, 5, "000zz"},
		{3844, 5, "00100"},
	}

	for _, tt := range tests {
		if got := gen.Derive(tt.n, tt.minWidth); got != tt.want {
			t.Errorf("Derive(%d, %d) = %q, want %q", tt.n, tt.minWidth, got, tt.want)
		}
	}
}

func TestBase62Generator_Derive_WidenByValue(t *testing.T) {
	gen := NewBase62()

	// Once the minimal base62 encoding of n exceeds minWidth, the padded
	// result grows with it rather than truncating.
	got := gen.Derive(238328, 5) // base62("238328") == "1000" (4 chars) < width
	if got != "01000" {
		t.Errorf("Derive(238328, 5) = %q, want %q", got, "01000")
	}

	got = gen.Derive(14776336, 5) // 5 base62 digits, already >= width
	if len(got) < 5 {
		t.Errorf("Derive(14776336, 5) = %q, want length >= 5", got)
	}
}

func TestBase62Generator_Deterministic(t *testing.T) {
	gen := NewBase62()
	first := gen.Derive(42, 5)
	second := gen.Derive(42, 5)
	if first != second {
		t.Errorf("Derive is not pure: got %q then %q for the same input", first, second)
	}
}

func TestBase62Generator_Monotone(t *testing.T) {
	gen := NewBase62()
	prevLen := len(gen.Derive(0, 1))
	for n := uint64(1); n < 1_000_000; n *= 7 {
		got := gen.Derive(n, 1)
		if len(got) < prevLen {
			t.Fatalf("Derive(%d) length %d shorter than previous %d", n, len(got), prevLen)
		}
		prevLen = len(got)
	}
}
