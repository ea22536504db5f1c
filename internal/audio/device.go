package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/homunculy/chat-client/internal/config"
)

// Device is the audio output the playback worker writes raw PCM to.
type Device interface {
	Write(pcm []byte) error
	Close() error
}

// DeviceOpener acquires an output device for the given format. An error
// is the "audio unavailable" signal: the player degrades to a no-audio
// mode instead of failing the caller.
type DeviceOpener func(cfg config.Audio) (Device, error)

const deviceReadyTimeout = 5 * time.Second

// OpenDevice acquires the default output device through oto. oto's
// player pulls from an io.Reader, so writes go through a pipe to keep
// the worker's push model: Write blocks until the device consumes the
// data.
func OpenDevice(cfg config.Audio) (Device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(cfg.DeviceBufferFrames) * time.Second / time.Duration(cfg.SampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(deviceReadyTimeout):
		return nil, fmt.Errorf("audio device not ready after %v", deviceReadyTimeout)
	}

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	return &otoDevice{player: player, pw: pw}, nil
}

type otoDevice struct {
	player    *oto.Player
	pw        *io.PipeWriter
	closeOnce sync.Once
	closeErr  error
}

func (d *otoDevice) Write(pcm []byte) error {
	_, err := d.pw.Write(pcm)
	return err
}

func (d *otoDevice) Close() error {
	d.closeOnce.Do(func() {
		d.pw.Close()
		d.closeErr = d.player.Close()
	})
	return d.closeErr
}
