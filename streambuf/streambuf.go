// SPDX-License-Identifier: MIT

// Package streambuf adapts an arbitrary sequence of byte chunks pushed by a
// producer (a file, a pipe, a websocket, ...) into the blocking pull-style
// reads that a single-pass binary decoder wants: wait for n octets, peek
// them, read them, or skip them. Nothing downstream of a Buffer ever needs to
// know how the bytes actually arrived or how many chunks they were split
// across.
package streambuf

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// TruncationError is raised by a blocking read when the producer has called
// End before enough octets arrived to satisfy the request. Requested carries
// the number of octets that were being waited for; callers use this to tell a
// clean end-of-stream (Requested == 4 at a block boundary) from a mid-block
// truncation.
type TruncationError struct {
	Requested int
}

func (e *TruncationError) Error() string {
	return fmt.Sprintf("stream truncated: wanted %d byte(s)", e.Requested)
}

// AbortError wraps whatever error caused a producer to abort a Buffer before
// calling End.
type AbortError struct {
	Cause error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("stream aborted: %s", e.Cause)
}

func (e *AbortError) Unwrap() error { return e.Cause }

// Buffer is a FIFO of octets fed by Write and consumed by Peek/Read/Skip. All
// methods are safe to call from different goroutines: one producer goroutine
// typically calls Write/End/Abort while one consumer goroutine calls the
// blocking reads.
type Buffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	data   []byte
	offset int // data[offset:] is unconsumed
	ended  bool
	abort  error
}

// New returns an empty Buffer ready for a producer to Write into.
func New() *Buffer {
	b := &Buffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Write appends a chunk of octets to the buffer. It never blocks.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.mu.Lock()
	b.data = append(b.data, p...)
	b.mu.Unlock()
	b.cond.Broadcast()
	return len(p), nil
}

// End declares that no more octets will ever be written. Any blocked or
// future read that cannot be satisfied from what has already been written
// fails with a TruncationError.
func (b *Buffer) End() {
	b.mu.Lock()
	b.ended = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Abort fails every blocked or future read with an AbortError wrapping cause,
// regardless of how many octets are actually buffered. It models a producer
// that was cancelled or hit a transport error partway through the stream.
func (b *Buffer) Abort(cause error) {
	b.mu.Lock()
	b.abort = cause
	b.mu.Unlock()
	b.cond.Broadcast()
}

// available reports how many unconsumed octets currently sit in the buffer.
// Caller must hold b.mu.
func (b *Buffer) available() int {
	return len(b.data) - b.offset
}

// waitFor blocks until at least n octets are available, the buffer was
// ended (at which point it fails with TruncationError unless n octets did
// arrive first), or the buffer was aborted. Caller must hold b.mu on entry
// and leaves holding it on return.
func (b *Buffer) waitFor(n int) error {
	for b.available() < n && b.abort == nil && !b.ended {
		b.cond.Wait()
	}
	if b.abort != nil {
		return &AbortError{Cause: b.abort}
	}
	if b.available() < n {
		return &TruncationError{Requested: n}
	}
	return nil
}

// WaitFor blocks until at least n octets are available in the buffer.
func (b *Buffer) WaitFor(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waitFor(n)
}

// compact drops already-consumed octets once they pile up, so a long-lived
// stream does not retain every chunk it has ever seen. Caller must hold b.mu.
func (b *Buffer) compact() {
	if b.offset < 4096 {
		return
	}
	b.data = append(b.data[:0], b.data[b.offset:]...)
	b.offset = 0
}

// Peek returns the next n octets without consuming them. The returned slice
// is a view into the buffer's internal storage and is only valid until the
// next Read, Skip, or Peek call.
func (b *Buffer) Peek(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.waitFor(n); err != nil {
		return nil, err
	}
	return b.data[b.offset : b.offset+n], nil
}

// Read consumes and returns the next n octets, copied out so the caller owns
// them independently of the buffer's internal storage.
func (b *Buffer) Read(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.waitFor(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.data[b.offset:b.offset+n])
	b.offset += n
	b.compact()
	return out, nil
}

// Skip consumes and discards the next n octets.
func (b *Buffer) Skip(n int) error {
	if n == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.waitFor(n); err != nil {
		return err
	}
	b.offset += n
	b.compact()
	return nil
}

// ReadUint8 reads a single octet.
func (b *Buffer) ReadUint8() (uint8, error) {
	p, err := b.Read(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadUint16 reads an unsigned 16 bit integer in the given byte order.
func (b *Buffer) ReadUint16(endian binary.ByteOrder) (uint16, error) {
	p, err := b.Read(2)
	if err != nil {
		return 0, err
	}
	return endian.Uint16(p), nil
}

// ReadUint32 reads an unsigned 32 bit integer in the given byte order.
func (b *Buffer) ReadUint32(endian binary.ByteOrder) (uint32, error) {
	p, err := b.Read(4)
	if err != nil {
		return 0, err
	}
	return endian.Uint32(p), nil
}

// ReadInt32 reads a signed 32 bit integer in the given byte order.
func (b *Buffer) ReadInt32(endian binary.ByteOrder) (int32, error) {
	v, err := b.ReadUint32(endian)
	return int32(v), err
}

// ReadUint64 reads an unsigned 64 bit integer in the given byte order.
func (b *Buffer) ReadUint64(endian binary.ByteOrder) (uint64, error) {
	p, err := b.Read(8)
	if err != nil {
		return 0, err
	}
	return endian.Uint64(p), nil
}

// ReadInt64 reads a signed 64 bit integer in the given byte order.
func (b *Buffer) ReadInt64(endian binary.ByteOrder) (int64, error) {
	v, err := b.ReadUint64(endian)
	return int64(v), err
}
