package pagedstore

import "testing"

func TestBitPackedArrayRoundTrip(t *testing.T) {
	const n, width = 40, 11
	const multiplier = ((1 << width) - 1) / n // 51

	a := NewBitPackedArray(n, width)
	for i := uint32(0); i < n; i++ {
		a.Put(i, i*multiplier)
	}
	for i := uint32(0); i < n; i++ {
		if got := a.Get(i); got != i*multiplier {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i*multiplier)
		}
	}
}

func TestBitPackedArrayWriteIsolation(t *testing.T) {
	a := NewBitPackedArray(16, 9)
	for i := uint32(0); i < 16; i++ {
		a.Put(i, i+1)
	}
	a.Put(7, 500)
	for i := uint32(0); i < 16; i++ {
		want := i + 1
		if i == 7 {
			want = 500
		}
		if got := a.Get(i); got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestBitPackedArrayWidthBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for width 0")
		}
	}()
	NewBitPackedArray(4, 0)
}

func TestBitPackedArrayIndexBounds(t *testing.T) {
	a := NewBitPackedArray(4, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range index")
		}
	}()
	a.Get(4)
}

func TestBitPackedArrayValueBounds(t *testing.T) {
	a := NewBitPackedArray(4, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for value exceeding width")
		}
	}()
	a.Put(0, 16)
}

func TestBitPackedArrayFullWidth32(t *testing.T) {
	a := NewBitPackedArray(8, 32)
	vals := []uint32{0, 1, 0xFFFFFFFF, 0x80000000, 12345, 1, 2, 0x7FFFFFFF}
	for i, v := range vals {
		a.Put(uint32(i), v)
	}
	for i, v := range vals {
		if got := a.Get(uint32(i)); got != v {
			t.Fatalf("Get(%d) = %#x, want %#x", i, got, v)
		}
	}
}
