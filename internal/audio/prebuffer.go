package audio

import (
	"sync"
	"time"
)

// PreBuffer tracks how much decoded PCM has been queued for the current
// message and gates playback until a threshold is reached, so playback
// does not start on too little data and stutter.
//
// The ready signal latches: once set it stays set until Reset.
type PreBuffer struct {
	mu        sync.Mutex
	total     int
	threshold int
	ready     chan struct{}
	isReady   bool
}

func NewPreBuffer(threshold int) *PreBuffer {
	return &PreBuffer{
		threshold: threshold,
		ready:     make(chan struct{}),
	}
}

// Add records size decoded bytes and sets the ready signal once the
// running total crosses the threshold. Setting an already-set signal is
// a no-op.
func (p *PreBuffer) Add(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += size
	if !p.isReady && p.total >= p.threshold {
		p.isReady = true
		close(p.ready)
	}
}

// Wait blocks up to timeout for the ready signal and reports whether it
// was set in time. A zero timeout polls without blocking.
func (p *PreBuffer) Wait(timeout time.Duration) bool {
	p.mu.Lock()
	ready := p.ready
	p.mu.Unlock()

	if timeout <= 0 {
		select {
		case <-ready:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return true
	case <-timer.C:
		return false
	}
}

// Reset zeroes the counter and clears the ready signal. Called when a new
// logical message begins.
func (p *PreBuffer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = 0
	if p.isReady {
		p.isReady = false
		p.ready = make(chan struct{})
	}
}

// ForceReady sets the ready signal regardless of the accumulated total.
// Used on flush or stop so the playback worker is never left blocked
// waiting for data that will not arrive.
func (p *PreBuffer) ForceReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isReady {
		p.isReady = true
		close(p.ready)
	}
}

// Total returns the decoded byte count since the last reset.
func (p *PreBuffer) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}
