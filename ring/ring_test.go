package ring_test

import (
	"testing"

	"github.com/easyvolts/pubsub-actors/ring"
)

func TestPushPeekPop(t *testing.T) {
	b := ring.New(64)
	if !b.PushBack([]byte("hello")) {
		t.Fatal("PushBack failed")
	}
	if b.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", b.Count())
	}
	dst := make([]byte, 16)
	n := b.PeekFront(dst)
	if n != 5 || string(dst[:n]) != "hello" {
		t.Fatalf("PeekFront() = %q (n=%d), want %q", dst[:n], n, "hello")
	}
	// Peek is non-destructive.
	if b.Count() != 1 {
		t.Fatalf("Count() after peek = %d, want 1", b.Count())
	}
	if !b.PopFront() {
		t.Fatal("PopFront failed")
	}
	if b.Count() != 0 {
		t.Fatalf("Count() after pop = %d, want 0", b.Count())
	}
}

func TestFreeSizeInvariant(t *testing.T) {
	b := ring.New(32)
	total := b.Cap()
	if b.FreeSize() != total {
		t.Fatalf("FreeSize() = %d, want %d", b.FreeSize(), total)
	}
	b.PushBack([]byte("abc"))
	used := total - b.FreeSize()
	if used <= 0 {
		t.Fatalf("used bytes should be > 0 after push, got %d", used)
	}
	b.PopFront()
	if b.FreeSize() != total {
		t.Fatalf("FreeSize() after drain = %d, want %d", b.FreeSize(), total)
	}
}

func TestEmptyPeekPop(t *testing.T) {
	b := ring.New(16)
	if n := b.PeekFront(make([]byte, 4)); n != 0 {
		t.Fatalf("PeekFront() on empty = %d, want 0", n)
	}
	if b.PopFront() {
		t.Fatal("PopFront() on empty should be false")
	}
}

func TestPushBackEmptyRejected(t *testing.T) {
	b := ring.New(16)
	if b.PushBack(nil) {
		t.Fatal("PushBack(nil) should fail")
	}
	if b.PushBack([]byte{}) {
		t.Fatal("PushBack(empty) should fail")
	}
}

func TestOutOfMemory(t *testing.T) {
	// header is 4 bytes; an 8-byte buffer has room for exactly one 4-byte body.
	b := ring.New(8)
	if !b.PushBack([]byte("abcd")) {
		t.Fatal("first PushBack should succeed")
	}
	if b.PushBack([]byte("x")) {
		t.Fatal("second PushBack should fail: out of space")
	}
	if !b.PopFront() {
		t.Fatal("PopFront should succeed")
	}
	if !b.PushBack([]byte("y")) {
		t.Fatal("PushBack after drain should succeed")
	}
}

func TestWrapAround(t *testing.T) {
	b := ring.New(16)
	// Push and pop repeatedly so rear/front cross the end of the array.
	for i := 0; i < 20; i++ {
		msg := []byte{byte(i), byte(i + 1)}
		if !b.PushBack(msg) {
			t.Fatalf("iteration %d: PushBack failed", i)
		}
		dst := make([]byte, 2)
		n := b.PeekFront(dst)
		if n != 2 || dst[0] != byte(i) || dst[1] != byte(i+1) {
			t.Fatalf("iteration %d: PeekFront() = %v, want %v", i, dst, msg)
		}
		if !b.PopFront() {
			t.Fatalf("iteration %d: PopFront failed", i)
		}
	}
	if b.FreeSize() != b.Cap() {
		t.Fatalf("FreeSize() = %d, want %d after full drain", b.FreeSize(), b.Cap())
	}
}

func TestPeekTruncatesToDst(t *testing.T) {
	b := ring.New(32)
	b.PushBack([]byte("0123456789"))
	dst := make([]byte, 4)
	n := b.PeekFront(dst)
	if n != 10 {
		t.Fatalf("PeekFront() returned length = %d, want true length 10", n)
	}
	if string(dst) != "0123" {
		t.Fatalf("PeekFront() copied %q, want %q", dst, "0123")
	}
}

func TestFlush(t *testing.T) {
	b := ring.New(32)
	b.PushBack([]byte("abc"))
	b.PushBack([]byte("def"))
	b.Flush()
	if b.Count() != 0 || b.FreeSize() != b.Cap() {
		t.Fatalf("Flush() left Count()=%d FreeSize()=%d, want 0 and %d", b.Count(), b.FreeSize(), b.Cap())
	}
}
