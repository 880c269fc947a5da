// Package ring implements the variable-size circular byte queue that
// decouples message publication from delivery (component C1 of the
// dispatcher). It stores opaque, variable-length frames in a single
// fixed-size byte array; each frame is prefixed with a small header
// recording its length, and frame bodies wrap at the end of the array.
//
// Buffer is not safe for concurrent use: callers must serialize access,
// exactly like the rest of this module.
package ring

import "encoding/binary"

// headerSize is the width of the per-element length prefix. The original
// C implementation used sizeof(size_t), which has no fixed width; this
// port pins it to a 4-byte little-endian uint32, which comfortably spans
// QUEUE_BYTES-sized buffers while keeping the on-wire layout fixed across
// platforms. See DESIGN.md for the rationale.
const headerSize = 4

// Buffer is a fixed-capacity FIFO of variable-size byte frames.
type Buffer struct {
	data     []byte
	rear     int // next write position
	front    int // next read position
	count    int // number of queued frames
	freeSize int // bytes available for header+body of new frames
}

// New allocates a Buffer with the given total byte capacity.
func New(size int) *Buffer {
	if size < 0 {
		size = 0
	}
	b := &Buffer{data: make([]byte, size)}
	b.Flush()
	return b
}

// Cap returns the total byte capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.data) }

// Count returns the number of queued frames.
func (b *Buffer) Count() int { return b.count }

// FreeSize returns the number of bytes available for header+body of the
// next pushed frame. FreeSize()+used bytes always equals Cap().
func (b *Buffer) FreeSize() int { return b.freeSize }

// HasSpace reports whether a frame with an n-byte body would fit.
func (b *Buffer) HasSpace(n int) bool {
	return n >= 0 && b.freeSize >= n+headerSize
}

// PushBack enqueues msg as a new frame. It fails (returns false) for an
// empty or oversized msg without mutating the buffer.
func (b *Buffer) PushBack(msg []byte) bool {
	n := len(msg)
	if n == 0 || !b.HasSpace(n) {
		return false
	}
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(n))
	b.rear = b.writeWrap(b.rear, hdr[:])
	b.rear = b.writeWrap(b.rear, msg)
	b.freeSize -= n + headerSize
	b.count++
	return true
}

// PeekFront copies the body of the oldest queued frame into dst, without
// removing it from the queue. It copies min(frame length, len(dst))
// bytes and returns the frame's true length (which may exceed len(dst)).
// PeekFront returns 0 if the buffer is empty.
func (b *Buffer) PeekFront(dst []byte) int {
	if b.count == 0 {
		return 0
	}
	var hdr [headerSize]byte
	b.readWrap(b.front, hdr[:])
	size := int(binary.LittleEndian.Uint32(hdr[:]))
	bodyPos := b.advance(b.front, headerSize)
	n := size
	if n > len(dst) {
		n = len(dst)
	}
	if n > 0 {
		b.readWrap(bodyPos, dst[:n])
	}
	return size
}

// PopFront discards the oldest queued frame. It returns false if the
// buffer is empty.
func (b *Buffer) PopFront() bool {
	if b.count == 0 {
		return false
	}
	var hdr [headerSize]byte
	b.readWrap(b.front, hdr[:])
	size := int(binary.LittleEndian.Uint32(hdr[:]))
	b.front = b.advance(b.front, headerSize+size)
	b.freeSize += headerSize + size
	b.count--
	return true
}

// Flush resets the buffer to empty, discarding all queued frames.
func (b *Buffer) Flush() {
	b.rear = 0
	b.front = 0
	b.count = 0
	b.freeSize = len(b.data)
}

// advance returns pos+n wrapped at len(b.data). n must be <= len(b.data).
func (b *Buffer) advance(pos, n int) int {
	total := len(b.data)
	if total == 0 {
		return 0
	}
	pos += n
	if pos >= total {
		pos -= total
	}
	return pos
}

// writeWrap copies src into b.data starting at pos, wrapping at the end
// of the array, and returns the position just past the written bytes.
func (b *Buffer) writeWrap(pos int, src []byte) int {
	for len(src) > 0 {
		n := copy(b.data[pos:], src)
		src = src[n:]
		pos += n
		if pos == len(b.data) {
			pos = 0
		}
	}
	return pos
}

// readWrap copies len(dst) bytes from b.data starting at pos into dst,
// wrapping at the end of the array, and returns the position just past
// the read bytes.
func (b *Buffer) readWrap(pos int, dst []byte) int {
	for len(dst) > 0 {
		n := copy(dst, b.data[pos:])
		dst = dst[n:]
		pos += n
		if pos == len(b.data) {
			pos = 0
		}
	}
	return pos
}
