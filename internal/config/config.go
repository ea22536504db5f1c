package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "Homunculy"
	AppTagline     = "Voice companion in your terminal"
	AppDescription = "A terminal chat client for the Homunculy voice-companion platform"

	ConfigDir      = ".config/homunculy"
	ConfigFileName = "config.yml"

	DefaultServerURL = "http://localhost:8000"
	DefaultVolume    = 70
	MinVolume        = 0
	MaxVolume        = 100
)

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/homunculy/chat-client/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

// ClampVolume ensures volume is within the valid range [0, 100].
func ClampVolume(volume int) int {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// Audio describes the playback format the pipeline normalizes to and the
// buffering thresholds it runs with. Sizes are in bytes unless noted.
type Audio struct {
	SampleRate  int     `yaml:"sample_rate"`
	Channels    int     `yaml:"channels"`
	SampleWidth int     `yaml:"sample_width"`
	GainDB      float64 `yaml:"gain_db"`

	// MinBufferSize is how many encoded bytes to accumulate before a
	// decode is attempted (enough to likely contain whole MP3 frames).
	MinBufferSize int `yaml:"min_buffer_size"`
	// PreBufferSize is how many decoded PCM bytes must be queued before
	// playback is allowed to start.
	PreBufferSize int `yaml:"pre_buffer_size"`
	// DeviceBufferFrames is the output device buffer length, in frames.
	DeviceBufferFrames int `yaml:"device_buffer_frames"`
}

// BytesPerSecond returns the decoded PCM data rate for this format.
func (a Audio) BytesPerSecond() int {
	return a.SampleRate * a.Channels * a.SampleWidth
}

func (a Audio) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("invalid sample_rate %d", a.SampleRate)
	}
	if a.Channels != 1 && a.Channels != 2 {
		return fmt.Errorf("invalid channels %d (must be 1 or 2)", a.Channels)
	}
	if a.SampleWidth != 2 {
		return fmt.Errorf("invalid sample_width %d (only 16-bit output is supported)", a.SampleWidth)
	}
	if a.MinBufferSize <= 0 {
		return fmt.Errorf("invalid min_buffer_size %d", a.MinBufferSize)
	}
	if a.PreBufferSize < 0 {
		return fmt.Errorf("invalid pre_buffer_size %d", a.PreBufferSize)
	}
	if a.DeviceBufferFrames <= 0 {
		return fmt.Errorf("invalid device_buffer_frames %d", a.DeviceBufferFrames)
	}
	return nil
}

func DefaultAudio() Audio {
	return Audio{
		SampleRate:  44100,
		Channels:    1,
		SampleWidth: 2,
		GainDB:      6.0,
		// ~0.4s of 128 kbps MP3
		MinBufferSize: 6144,
		// ~0.5s of decoded audio at the default format
		PreBufferSize:      44100,
		DeviceBufferFrames: 4410,
	}
}

type Theme struct {
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
	Borders    string `yaml:"borders"`
	Highlight  string `yaml:"highlight"`
	Companion  string `yaml:"companion"`
	StatusOK   string `yaml:"status_ok"`
	StatusBad  string `yaml:"status_bad"`
}

type Config struct {
	ServerURL   string `yaml:"server_url"`
	CompanionID string `yaml:"companion_id"`
	Volume      int    `yaml:"volume"`
	Audio       Audio  `yaml:"audio"`
	Theme       Theme  `yaml:"theme"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(home, ConfigDir, ConfigFileName)
	return configPath, nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Volume = ClampVolume(cfg.Volume)

	if err := cfg.Audio.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid audio config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		ServerURL:   DefaultServerURL,
		CompanionID: "",
		Volume:      DefaultVolume,
		Audio:       DefaultAudio(),
		Theme: Theme{
			Background: "#1a1b25",
			Foreground: "#a3aacb",
			Borders:    "#40445b",
			Highlight:  "#ff9d65",
			Companion:  "#c8d0e8",
			StatusOK:   "#7bd88f",
			StatusBad:  "#fe0702",
		},
	}
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
