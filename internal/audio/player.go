package audio

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/homunculy/chat-client/internal/config"
)

const (
	inboundQueueSize  = 256
	outboundQueueSize = 64
	joinTimeout       = 2 * time.Second
)

// Player owns the whole pipeline: both queues, the coalescing buffer,
// the pre-buffer gate and the two workers. It is the only type the rest
// of the application talks to.
//
// If the output device cannot be acquired the player stays inert:
// Enabled reports false and QueueAudio/Flush become no-ops, so a missing
// sound card degrades the session to text-only instead of failing it.
type Player struct {
	cfg      config.Audio
	in       chan inItem
	out      chan []byte
	buf      *Buffer
	pre      *PreBuffer
	decoder  *decodeWorker
	playback *playbackWorker
	enabled  bool
	stopped  atomic.Bool
}

func NewPlayer(cfg config.Audio) *Player {
	return newPlayer(cfg, NewDecoder(cfg), OpenDevice)
}

func newPlayer(cfg config.Audio, dec chunkDecoder, open DeviceOpener) *Player {
	p := &Player{
		cfg: cfg,
		in:  make(chan inItem, inboundQueueSize),
		out: make(chan []byte, outboundQueueSize),
		buf: NewBuffer(cfg.MinBufferSize),
		pre: NewPreBuffer(cfg.PreBufferSize),
	}
	p.decoder = newDecodeWorker(p.in, p.out, p.buf, p.pre, dec)
	p.playback = newPlaybackWorker(p.out, p.pre)

	p.decoder.start()
	if err := p.playback.start(cfg, open); err != nil {
		log.Warn().Err(err).Msg("Audio output unavailable, playback disabled")
		return p
	}
	p.enabled = true
	return p
}

// Enabled reports whether the output device was acquired at start time.
func (p *Player) Enabled() bool {
	return p.enabled
}

// QueueAudio hands an encoded chunk to the pipeline. It never blocks the
// caller: when the inbound queue is full the oldest queued chunk is
// dropped to make room.
func (p *Player) QueueAudio(data []byte) {
	if !p.enabled {
		return
	}
	p.send(inItem{kind: itemData, data: data})
}

// Flush signals end of the current message's audio: whatever is buffered
// gets decoded and the pre-buffer gate is released.
func (p *Player) Flush() {
	if !p.enabled {
		return
	}
	p.send(inItem{kind: itemFlush})
}

func (p *Player) send(item inItem) {
	select {
	case p.in <- item:
		return
	default:
	}

	select {
	case <-p.in:
		log.Warn().Msg("Inbound queue full, dropped oldest chunk")
	default:
	}

	select {
	case p.in <- item:
	default:
	}
}

// Reset discards everything in flight so no stale audio from an
// interrupted or abandoned message leaks into the next one.
func (p *Player) Reset() {
	for {
		select {
		case <-p.in:
		default:
			p.drainOutbound()
			p.buf.Clear()
			p.pre.Reset()
			return
		}
	}
}

func (p *Player) drainOutbound() {
	for {
		select {
		case <-p.out:
		default:
			return
		}
	}
}

// BufferHealth returns the outbound queue fill level as a percentage.
func (p *Player) BufferHealth() int {
	if cap(p.out) == 0 {
		return 0
	}
	return len(p.out) * 100 / cap(p.out)
}

// Stop signals both workers, joins them with a bounded timeout and
// releases the device. The join is best-effort: a worker stuck inside a
// native call past the timeout is abandoned rather than blocking
// shutdown indefinitely.
func (p *Player) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}

	p.playback.stop()
	p.decoder.stop()

	if !waitDone(p.decoder.done, joinTimeout) {
		log.Warn().Msg("Decode worker did not exit within join timeout")
	}
	if !waitDone(p.playback.done, joinTimeout) {
		log.Warn().Msg("Playback worker did not exit within join timeout")
	}

	p.playback.close()
	log.Debug().Msg("Audio player stopped")
}

func waitDone(done <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
