package audio

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/homunculy/chat-client/internal/config"
)

const (
	inboundPollInterval  = 100 * time.Millisecond
	preBufferWait        = 100 * time.Millisecond
	outboundPollInterval = 50 * time.Millisecond
)

type itemKind int

const (
	itemData itemKind = iota
	itemFlush
	itemStop
)

// inItem is what travels on the inbound queue: an encoded chunk, the
// end-of-message flush marker, or the shutdown sentinel.
type inItem struct {
	kind itemKind
	data []byte
}

// chunkDecoder lets tests substitute the MP3 codec.
type chunkDecoder interface {
	Decode(data []byte) []byte
}

// decodeWorker pulls encoded chunks off the inbound queue, coalesces
// them in the buffer and pushes decoded PCM to the outbound queue.
type decodeWorker struct {
	in      chan inItem
	out     chan []byte
	buf     *Buffer
	pre     *PreBuffer
	dec     chunkDecoder
	running atomic.Bool
	done    chan struct{}
}

func newDecodeWorker(in chan inItem, out chan []byte, buf *Buffer, pre *PreBuffer, dec chunkDecoder) *decodeWorker {
	return &decodeWorker{in: in, out: out, buf: buf, pre: pre, dec: dec, done: make(chan struct{})}
}

func (w *decodeWorker) start() {
	w.running.Store(true)
	go w.run()
}

func (w *decodeWorker) run() {
	defer close(w.done)
	log.Debug().Msg("Decode worker started")

	for w.running.Load() {
		select {
		case item := <-w.in:
			switch item.kind {
			case itemStop:
				w.running.Store(false)
			case itemFlush:
				w.flush()
			default:
				w.handleChunk(item.data)
			}
		case <-time.After(inboundPollInterval):
			// no data yet, stay responsive to stop
		}
	}

	log.Debug().Msg("Decode worker stopped")
}

func (w *decodeWorker) handleChunk(data []byte) {
	if len(data) == 0 {
		return
	}
	w.buf.Add(data)
	if w.buf.Ready() {
		w.decodeAndForward(w.buf.Extract())
	}
}

// flush drains whatever is buffered and unconditionally releases the
// pre-buffer gate, so the playback worker is never left waiting after
// the sender declared end of message.
func (w *decodeWorker) flush() {
	if data := w.buf.Extract(); len(data) > 0 {
		w.decodeAndForward(data)
	}
	w.pre.ForceReady()
}

func (w *decodeWorker) decodeAndForward(data []byte) {
	pcm := w.dec.Decode(data)
	if len(pcm) == 0 {
		// The extracted bytes are gone; a failed decode is never retried.
		return
	}
	w.forward(pcm)
	w.pre.Add(len(pcm))
}

// forward pushes pcm to the outbound queue, dropping the oldest queued
// chunk when playback has fallen too far behind.
func (w *decodeWorker) forward(pcm []byte) {
	select {
	case w.out <- pcm:
		return
	default:
	}

	select {
	case dropped := <-w.out:
		log.Warn().Int("bytes", len(dropped)).Msg("Outbound queue full, dropped oldest PCM chunk")
	default:
	}

	select {
	case w.out <- pcm:
	default:
	}
}

func (w *decodeWorker) stop() {
	w.running.Store(false)
	// Sentinel wakes the loop if it is parked on the queue.
	select {
	case w.in <- inItem{kind: itemStop}:
	default:
	}
}

// playbackWorker waits for the pre-buffer gate, then streams decoded PCM
// chunks to the output device.
type playbackWorker struct {
	out     chan []byte
	pre     *PreBuffer
	dev     Device
	running atomic.Bool
	done    chan struct{}
}

func newPlaybackWorker(out chan []byte, pre *PreBuffer) *playbackWorker {
	return &playbackWorker{out: out, pre: pre, done: make(chan struct{})}
}

// start acquires the output device and launches the loop. An acquisition
// error means audio is unavailable and the worker never starts.
func (w *playbackWorker) start(cfg config.Audio, open DeviceOpener) error {
	dev, err := open(cfg)
	if err != nil {
		close(w.done)
		return err
	}
	w.dev = dev
	w.running.Store(true)
	go w.run()
	return nil
}

func (w *playbackWorker) run() {
	// The device stream is closed on every exit path.
	defer func() {
		if err := w.dev.Close(); err != nil {
			log.Debug().Err(err).Msg("Audio device close failed")
		}
		close(w.done)
		log.Debug().Msg("Playback worker stopped")
	}()

	log.Debug().Msg("Playback worker started")

	for w.running.Load() {
		if !w.pre.Wait(preBufferWait) {
			continue
		}

		select {
		case pcm := <-w.out:
			if err := w.dev.Write(pcm); err != nil && w.running.Load() {
				log.Error().Err(err).Msg("Audio device write failed")
			}
		case <-time.After(outboundPollInterval):
		}
	}
}

func (w *playbackWorker) stop() {
	w.running.Store(false)
}

// close releases the device handle; safe to call whether or not the loop
// already closed it.
func (w *playbackWorker) close() {
	if w.dev != nil {
		_ = w.dev.Close()
	}
}
