package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/homunculy/chat-client/internal/config"
)

func TestDecodeUndersizedInput(t *testing.T) {
	dec := NewDecoder(config.DefaultAudio())

	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"single byte", 1},
		{"just below minimum", MinDecodableSize - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dec.Decode(make([]byte, tt.size)); got != nil {
				t.Errorf("Decode(%d bytes) = %d bytes of PCM, want nil", tt.size, len(got))
			}
		})
	}
}

func TestDecodeGarbageInput(t *testing.T) {
	dec := NewDecoder(config.DefaultAudio())

	// Not valid MP3 and never matches the frame sync pattern. Must come
	// back as "no result" without panicking.
	garbage := bytes.Repeat([]byte{0x55, 0xAA, 0x00}, 2048)

	if got := dec.Decode(garbage); got != nil {
		t.Errorf("Decode(garbage) = %d bytes of PCM, want nil", len(got))
	}
}

func TestGainFactor(t *testing.T) {
	tests := []struct {
		gainDB float64
		want   float64
	}{
		{0, 0},
		{6, math.Pow(10, 0.3) - 1},
		{-6, math.Pow(10, -0.3) - 1},
	}

	for _, tt := range tests {
		cfg := config.DefaultAudio()
		cfg.GainDB = tt.gainDB
		dec := NewDecoder(cfg)

		if math.Abs(dec.gain-tt.want) > 1e-9 {
			t.Errorf("gain for %.1f dB = %v, want %v", tt.gainDB, dec.gain, tt.want)
		}
	}
}

func TestWriteSampleClamps(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"zero", 0, 0},
		{"full scale", 1, math.MaxInt16},
		{"over full scale", 2.5, math.MaxInt16},
		{"negative full scale", -1, -math.MaxInt16},
		{"under negative full scale", -2.5, -math.MaxInt16},
		{"half scale", 0.5, math.MaxInt16 / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			writeSample(&out, tt.in)

			if out.Len() != 2 {
				t.Fatalf("writeSample wrote %d bytes, want 2", out.Len())
			}
			got := int16(binary.LittleEndian.Uint16(out.Bytes()))
			if got != tt.want {
				t.Errorf("writeSample(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
