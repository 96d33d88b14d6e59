package hashring

import "testing"

func TestHashSaturatingAbs(t *testing.T) {
	// This input drives the accumulator to exactly math.MinInt32 after
	// reduction, exercising the saturating-abs special case.
	got := Hash([]byte{2, 87, 150, 223, 77})
	want := int32(1<<31 - 1)
	if got != want {
		t.Fatalf("Hash() = %d, want %d", got, want)
	}
}

func TestHashNonNegative(t *testing.T) {
	inputs := [][]byte{
		{},
		{0},
		[]byte("hello"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		{255, 254, 253, 0, 1, 2},
	}
	for _, in := range inputs {
		if h := Hash(in); h < 0 {
			t.Fatalf("Hash(%v) = %d, want non-negative", in, h)
		}
	}
}

func TestHashDeterministic(t *testing.T) {
	key := []byte("partition-key-42")
	a := Hash(key)
	b := Hash(key)
	if a != b {
		t.Fatalf("Hash not deterministic: %d != %d", a, b)
	}
}
