package ui

import (
	"strings"
	"testing"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name         string
		connected    bool
		speaking     bool
		audioEnabled bool
		bufferHealth int
		contains     []string
		excludes     []string
	}{
		{
			name:      "offline",
			connected: false,
			contains:  []string{"offline"},
			excludes:  []string{"connected"},
		},
		{
			name:         "connected audio disabled",
			connected:    true,
			audioEnabled: false,
			contains:     []string{"connected", "audio off"},
		},
		{
			name:         "connected idle",
			connected:    true,
			audioEnabled: true,
			contains:     []string{"connected", "audio ready"},
			excludes:     []string{"speaking"},
		},
		{
			name:         "speaking shows buffer health",
			connected:    true,
			speaking:     true,
			audioEnabled: true,
			bufferHealth: 42,
			contains:     []string{"speaking", "buf 42%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.connected, tt.speaking, tt.audioEnabled, tt.bufferHealth)

			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatStatus() = %q, missing %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("FormatStatus() = %q, should not contain %q", got, unwanted)
				}
			}
		})
	}
}
