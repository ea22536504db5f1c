package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/rs/zerolog/log"

	"github.com/homunculy/chat-client/internal/config"
)

// MinDecodableSize is the smallest blob worth handing to the codec. A
// 128 kbps MP3 frame is ~417 bytes; anything shorter is a fragment that
// would only trip up the frame sync scan.
const MinDecodableSize = 512

const resampleQuality = 4

// Decoder converts one MP3 byte blob into raw PCM normalized to the
// configured sample rate, channel count and 16-bit LE sample width, with
// a fixed gain boost applied.
type Decoder struct {
	cfg config.Audio
	// linear gain factor for effects.Gain (output = input * (1 + gain))
	gain float64
}

func NewDecoder(cfg config.Audio) *Decoder {
	return &Decoder{
		cfg:  cfg,
		gain: math.Pow(10, cfg.GainDB/20) - 1,
	}
}

// Decode returns the normalized PCM for data, or nil if data is too small
// to contain a decodable frame or the codec rejects it. Codec failures
// never propagate: a corrupt or truncated chunk is dropped, not fatal.
func (d *Decoder) Decode(data []byte) (pcm []byte) {
	if len(data) < MinDecodableSize {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Int("bytes", len(data)).
				Msg("MP3 decode panicked, dropping chunk")
			pcm = nil
		}
	}()

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		log.Debug().Err(err).Int("bytes", len(data)).Msg("MP3 decode failed, dropping chunk")
		return nil
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != beep.SampleRate(d.cfg.SampleRate) {
		src = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(d.cfg.SampleRate), src)
	}
	if d.gain != 0 {
		src = &effects.Gain{Streamer: src, Gain: d.gain}
	}

	return d.render(src)
}

// render drains the streamer into interleaved 16-bit little-endian PCM.
// Stereo sources are downmixed by averaging when mono output is
// configured.
func (d *Decoder) render(src beep.Streamer) []byte {
	var out bytes.Buffer
	samples := make([][2]float64, 512)

	for {
		n, ok := src.Stream(samples)
		for i := 0; i < n; i++ {
			if d.cfg.Channels == 1 {
				writeSample(&out, (samples[i][0]+samples[i][1])/2)
			} else {
				writeSample(&out, samples[i][0])
				writeSample(&out, samples[i][1])
			}
		}
		if !ok {
			break
		}
	}

	if out.Len() == 0 {
		return nil
	}
	return out.Bytes()
}

func writeSample(out *bytes.Buffer, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(int16(v*math.MaxInt16)))
	out.Write(b[:])
}
