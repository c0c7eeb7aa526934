package engine

import "testing"

func TestBitmap_NewBitmap(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"empty", 0},
		{"small", 10},
		{"exactly 64", 64},
		{"over 64", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBitmap(tt.length)
			if b.Len() != tt.length {
				t.Errorf("expected length %d, got %d", tt.length, b.Len())
			}
			if b.PopCount() != 0 {
				t.Errorf("new bitmap should be clear, popcount %d", b.PopCount())
			}
		})
	}
}

func TestBitmap_SetAcrossWords(t *testing.T) {
	b := NewBitmap(100)

	b.Set(0)
	b.Set(63)
	b.Set(64)
	b.Set(99)

	for _, i := range []int{0, 63, 64, 99} {
		if !b.IsSet(i) {
			t.Errorf("bit %d should be set", i)
		}
	}
	if b.IsSet(1) || b.IsSet(65) {
		t.Error("unset bits report set")
	}
	if b.PopCount() != 4 {
		t.Errorf("popcount = %d, want 4", b.PopCount())
	}
}

func TestBitmap_OutOfRange(t *testing.T) {
	b := NewBitmap(10)
	b.Set(-1)
	b.Set(10)
	if b.PopCount() != 0 {
		t.Errorf("out-of-range sets changed the bitmap, popcount %d", b.PopCount())
	}
	if b.IsSet(-1) || b.IsSet(10) {
		t.Error("out-of-range reads should report clear")
	}
}

func TestBitmap_Indices(t *testing.T) {
	b := NewBitmap(70)
	for _, i := range []int{2, 5, 64, 69} {
		b.Set(i)
	}
	got := b.Indices()
	want := []int{2, 5, 64, 69}
	if len(got) != len(want) {
		t.Fatalf("indices = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices = %v, want %v", got, want)
		}
	}
}

func TestMaskFromBoolSeries(t *testing.T) {
	mask := newBoolSeries("m", []any{true, false, nil, true})
	b := maskFromBoolSeries(mask)
	if b.Len() != 4 {
		t.Fatalf("mask length = %d", b.Len())
	}
	// False and null both clear the bit.
	if !b.IsSet(0) || b.IsSet(1) || b.IsSet(2) || !b.IsSet(3) {
		t.Errorf("mask bits = %v", b.Indices())
	}
}
