package engine

import (
	"math/bits"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Bitmap is a bit vector used as a row filter mask. Bit = 1 keeps the row.
type Bitmap struct {
	bits   []uint64
	length int
}

// NewBitmap creates a bitmap with all bits clear.
func NewBitmap(length int) *Bitmap {
	numWords := (length + 63) / 64
	return &Bitmap{
		bits:   make([]uint64, numWords),
		length: length,
	}
}

// maskFromBoolSeries builds a keep-mask from a bool column. Nulls and false
// both clear the bit.
func maskFromBoolSeries(mask dataframe.Series) *Bitmap {
	n := seriesLength(mask)
	b := NewBitmap(n)
	for i := 0; i < n; i++ {
		if v, ok := boolAt(mask, i); ok && v {
			b.Set(i)
		}
	}
	return b
}

// Len returns the length of the bitmap.
func (b *Bitmap) Len() int {
	return b.length
}

// Set sets the bit at index i.
func (b *Bitmap) Set(i int) {
	if i < 0 || i >= b.length {
		return
	}
	b.bits[i/64] |= uint64(1) << (i % 64)
}

// IsSet reports whether the bit at index i is set.
func (b *Bitmap) IsSet(i int) bool {
	if i < 0 || i >= b.length {
		return false
	}
	return (b.bits[i/64] & (uint64(1) << (i % 64))) != 0
}

// PopCount returns the number of set bits.
func (b *Bitmap) PopCount() int {
	count := 0
	for i, word := range b.bits {
		if i == len(b.bits)-1 && b.length%64 != 0 {
			// Mask off bits beyond length in last word
			word &= (uint64(1) << (b.length % 64)) - 1
		}
		count += bits.OnesCount64(word)
	}
	return count
}

// Indices returns the positions of the set bits in ascending order.
func (b *Bitmap) Indices() []int {
	out := make([]int, 0, b.PopCount())
	for i := 0; i < b.length; i++ {
		if b.IsSet(i) {
			out = append(out, i)
		}
	}
	return out
}
