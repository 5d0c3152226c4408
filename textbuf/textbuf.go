// Package textbuf provides a fixed-capacity text buffer with silent
// overflow truncation. It mirrors the bounded string semantics the rest
// of the gateway relies on: writes past capacity drop the excess bytes
// instead of growing the buffer or failing.
package textbuf

import "strings"

// Buffer is an append-only text buffer with a hard capacity.
// The zero value is unusable; create one with New.
type Buffer struct {
	limit int
	data  []byte
}

// New returns an empty Buffer that holds at most capacity bytes.
// A non-positive capacity yields a buffer that drops every write.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{limit: capacity, data: make([]byte, 0, capacity)}
}

// WriteString appends s, dropping any bytes that would exceed the
// capacity. It reports whether truncation occurred.
func (b *Buffer) WriteString(s string) (truncated bool) {
	free := b.limit - len(b.data)
	if free <= 0 {
		return len(s) > 0
	}
	if len(s) > free {
		b.data = append(b.data, s[:free]...)
		return true
	}
	b.data = append(b.data, s...)
	return false
}

// String returns the buffered text.
func (b *Buffer) String() string {
	return string(b.data)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.limit
}

// Contains reports whether the buffered text contains sub.
func (b *Buffer) Contains(sub string) bool {
	return b.Index(sub) >= 0
}

// Index returns the byte offset of the first occurrence of sub, or -1.
func (b *Buffer) Index(sub string) int {
	return strings.Index(string(b.data), sub)
}

// TruncateAt discards everything from byte offset n onward.
// Offsets at or beyond the current length leave the buffer unchanged.
func (b *Buffer) TruncateAt(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(b.data) {
		b.data = b.data[:n]
	}
}

// Reset empties the buffer without releasing its capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}
