// Package wire provides a position-aware byte reader/writer used by the
// name, rr and message packages. It generalizes the teacher's
// BytePacketBuffer (internal/dns/packet/buffer.go) with explicit
// bookmark/save/restore support so name decoding can follow compression
// pointers and resume at the right cursor afterward.
package wire

import (
	"fmt"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
)

// Buffer is a growable byte buffer with an explicit read/write cursor.
// It is not safe for concurrent use; each in-flight message owns one.
type Buffer struct {
	buf []byte
	pos int
}

// NewBuffer wraps an existing byte slice for reading (Pos starts at 0).
func NewBuffer(b []byte) *Buffer {
	return &Buffer{buf: b}
}

// NewWriter returns an empty Buffer with the given initial capacity,
// ready for writing.
func NewWriter(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the buffer contents written so far (or the full backing
// slice for a reader).
func (b *Buffer) Bytes() []byte { return b.buf }

// Pos returns the current cursor position.
func (b *Buffer) Pos() int { return b.pos }

// Len returns the number of bytes currently backing the buffer.
func (b *Buffer) Len() int { return len(b.buf) }

// Seek moves the cursor to an absolute position without bounds-checking
// against content already written; reads past Len() fail lazily.
func (b *Buffer) Seek(pos int) { b.pos = pos }

// Bookmark is an opaque saved cursor position, used to resume reading
// after following a compression pointer.
type Bookmark int

// Save captures the current cursor for later Restore.
func (b *Buffer) Save() Bookmark { return Bookmark(b.pos) }

// Restore resets the cursor to a previously saved Bookmark.
func (b *Buffer) Restore(m Bookmark) { b.pos = int(m) }

func (b *Buffer) need(n int) error {
	if b.pos+n > len(b.buf) {
		return fmt.Errorf("wire: read past end of buffer: %w", dnserr.ErrWireParse)
	}
	return nil
}

// ReadByte reads a single byte and advances the cursor.
func (b *Buffer) ReadByte() (byte, error) {
	if err := b.need(1); err != nil {
		return 0, err
	}
	v := b.buf[b.pos]
	b.pos++
	return v, nil
}

// PeekByte reads the byte at the given absolute offset without moving
// the cursor.
func (b *Buffer) PeekByte(at int) (byte, error) {
	if at < 0 || at >= len(b.buf) {
		return 0, fmt.Errorf("wire: peek out of bounds: %w", dnserr.ErrWireParse)
	}
	return b.buf[at], nil
}

// ReadBytes reads n bytes and advances the cursor. The returned slice is
// a copy; it does not alias the buffer.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if err := b.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.buf[b.pos:b.pos+n])
	b.pos += n
	return out, nil
}

// ReadRange reads a length-n slice starting at an absolute offset without
// moving the cursor.
func (b *Buffer) ReadRange(at, n int) ([]byte, error) {
	if at < 0 || n < 0 || at+n > len(b.buf) {
		return nil, fmt.Errorf("wire: range out of bounds: %w", dnserr.ErrWireParse)
	}
	out := make([]byte, n)
	copy(out, b.buf[at:at+n])
	return out, nil
}

// ReadUint16 reads a big-endian uint16 and advances the cursor.
func (b *Buffer) ReadUint16() (uint16, error) {
	if err := b.need(2); err != nil {
		return 0, err
	}
	v := uint16(b.buf[b.pos])<<8 | uint16(b.buf[b.pos+1])
	b.pos += 2
	return v, nil
}

// ReadUint32 reads a big-endian uint32 and advances the cursor.
func (b *Buffer) ReadUint32() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	v := uint32(b.buf[b.pos])<<24 | uint32(b.buf[b.pos+1])<<16 |
		uint32(b.buf[b.pos+2])<<8 | uint32(b.buf[b.pos+3])
	b.pos += 4
	return v, nil
}

// Remaining returns how many bytes are left to read.
func (b *Buffer) Remaining() int { return len(b.buf) - b.pos }

func (b *Buffer) grow(n int) {
	for len(b.buf) < b.pos+n {
		b.buf = append(b.buf, 0)
	}
}

// WriteByte writes a single byte, growing the buffer and advancing the
// cursor. Implements io.ByteWriter.
func (b *Buffer) WriteByte(v byte) error {
	b.grow(1)
	b.buf[b.pos] = v
	b.pos++
	return nil
}

// WriteBytes appends raw bytes at the cursor.
func (b *Buffer) WriteBytes(p []byte) error {
	b.grow(len(p))
	copy(b.buf[b.pos:], p)
	b.pos += len(p)
	return nil
}

// WriteUint16 writes a big-endian uint16 at the cursor.
func (b *Buffer) WriteUint16(v uint16) error {
	b.grow(2)
	b.buf[b.pos] = byte(v >> 8)
	b.buf[b.pos+1] = byte(v)
	b.pos += 2
	return nil
}

// WriteUint32 writes a big-endian uint32 at the cursor.
func (b *Buffer) WriteUint32(v uint32) error {
	b.grow(4)
	b.buf[b.pos] = byte(v >> 24)
	b.buf[b.pos+1] = byte(v >> 16)
	b.buf[b.pos+2] = byte(v >> 8)
	b.buf[b.pos+3] = byte(v)
	b.pos += 4
	return nil
}

// WriteUint16At overwrites a uint16 at an absolute offset without moving
// the cursor, used to backpatch RDLENGTH-style fields.
func (b *Buffer) WriteUint16At(at int, v uint16) error {
	if at < 0 || at+2 > len(b.buf) {
		return fmt.Errorf("wire: write out of bounds: %w", dnserr.ErrWireParse)
	}
	b.buf[at] = byte(v >> 8)
	b.buf[at+1] = byte(v)
	return nil
}

// Truncate discards everything from pos onward, used by the message
// encoder to roll back to the last RRset boundary on truncation.
func (b *Buffer) Truncate(pos int) {
	b.buf = b.buf[:pos]
	if b.pos > pos {
		b.pos = pos
	}
}
