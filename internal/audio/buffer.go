// Package audio implements the streaming playback pipeline: encoded MP3
// chunks arrive from the session layer, get coalesced and decoded on a
// background worker, and a second worker feeds the decoded PCM to the
// output device once enough audio is queued to play without stutter.
package audio

import "sync"

// Buffer accumulates encoded byte chunks until enough has arrived to be
// worth decoding. All operations hold the same mutex; Extract is the only
// way to drain it.
type Buffer struct {
	mu      sync.Mutex
	data    []byte
	minSize int
}

func NewBuffer(minSize int) *Buffer {
	return &Buffer{minSize: minSize}
}

// Add appends data to the buffer.
func (b *Buffer) Add(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, data...)
}

// Size returns the current number of buffered bytes.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Extract atomically returns the buffered bytes and resets the buffer.
// The returned slice is owned by the caller.
func (b *Buffer) Extract() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.data
	b.data = nil
	return data
}

// Clear discards the buffered bytes.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
}

// Ready reports whether the buffer holds at least the minimum number of
// bytes to attempt a decode.
func (b *Buffer) Ready() bool {
	return b.Size() >= b.minSize
}
