package zekta

import (
	"bytes"
	"errors"
	"testing"
)

func TestBufferInitialState(t *testing.T) {
	b := NewBuffer()
	if b.Len() != 0 {
		t.Errorf("expected length 0, got %d", b.Len())
	}
	if b.Cap() != bufferInitialCapacity {
		t.Errorf("expected capacity %d, got %d", bufferInitialCapacity, b.Cap())
	}
}

func TestBufferGrowPreservesData(t *testing.T) {
	b := NewBuffer()
	if err := b.Resize(4); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	copy(b.Bytes(), []byte{1, 2, 3, 4})

	// Grow past the initial capacity and check the prefix survived.
	if err := b.Resize(10_000); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if b.Len() != 10_000 {
		t.Errorf("expected length 10000, got %d", b.Len())
	}
	if !bytes.Equal(b.Bytes()[:4], []byte{1, 2, 3, 4}) {
		t.Errorf("prefix not preserved: %v", b.Bytes()[:4])
	}
}

func TestBufferShrinkKeepsCapacity(t *testing.T) {
	b := NewBuffer()
	if err := b.Resize(10_000); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	grown := b.Cap()

	if err := b.Resize(8); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if b.Len() != 8 {
		t.Errorf("expected length 8, got %d", b.Len())
	}
	if b.Cap() != grown {
		t.Errorf("shrink changed capacity: %d -> %d", grown, b.Cap())
	}
}

func TestBufferCapacityExceeded(t *testing.T) {
	b := NewBuffer()
	err := b.Resize(int(bufferMaxBytes) + 1)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("failed resize changed length to %d", b.Len())
	}
}

func TestNextCapacity(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 256},
		{256, 256},
		{257, 512},
		{300, 512},
		{512, 1024}, // log2(512)+0.5 rounds up past the exact power
		{1000, 2048},
		{40_000, 65_536},
	}
	for _, tt := range tests {
		if got := nextCapacity(tt.n); got != tt.want {
			t.Errorf("nextCapacity(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
