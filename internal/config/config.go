// Package config provides configuration management for Luma.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Brain     BrainConfig     `mapstructure:"brain"`
	Narration NarrationConfig `mapstructure:"narration"`
	Timers    TimerConfig     `mapstructure:"timers"`
	Avatar    AvatarConfig    `mapstructure:"avatar"`
}

// BrainConfig configures the language-model client.
type BrainConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserID    string        `mapstructure:"user_id"`
	PersonaID string        `mapstructure:"persona_id"`
}

// NarrationConfig configures the narration pacer.
type NarrationConfig struct {
	VoiceID string  `mapstructure:"voice_id"`
	Speed   float64 `mapstructure:"speed"`
	// CharsPerSecond paces the synthetic narrator; ~15 chars/sec matches
	// natural speech.
	CharsPerSecond float64 `mapstructure:"chars_per_second"`
}

// TimerConfig configures the conversation timers.
type TimerConfig struct {
	// ProcessingTimeout forces a return to idle when no transcript arrives.
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
	// IdleRevertDelay restores the calm emotion/shape baseline after a reply.
	IdleRevertDelay time.Duration `mapstructure:"idle_revert_delay"`
	// ScreenRevertDelay restores the default display text after a reply.
	ScreenRevertDelay time.Duration `mapstructure:"screen_revert_delay"`
}

// AvatarConfig configures the avatar baseline and the renderer bridge.
type AvatarConfig struct {
	BaselineEmotion string `mapstructure:"baseline_emotion"`
	BaselineShape   string `mapstructure:"baseline_shape"`
	// RendererURL is the websocket endpoint of the external 3D renderer.
	// Empty disables the bridge.
	RendererURL string `mapstructure:"renderer_url"`
	DisplayText string `mapstructure:"display_text"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Brain: BrainConfig{
			ServerURL: "http://localhost:8080",
			Timeout:   30 * time.Second,
			UserID:    "default-user",
			PersonaID: "luma",
		},
		Narration: NarrationConfig{
			VoiceID:        "nova",
			Speed:          1.0,
			CharsPerSecond: 15,
		},
		Timers: TimerConfig{
			ProcessingTimeout: 8 * time.Second,
			IdleRevertDelay:   30 * time.Second,
			ScreenRevertDelay: 10 * time.Second,
		},
		Avatar: AvatarConfig{
			BaselineEmotion: "calm",
			BaselineShape:   "orb",
			RendererURL:     "",
			DisplayText:     "Luma",
		},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := Dir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("LUMA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// No config file yet: persist the defaults.
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Watch reloads the config on file change and invokes onChange with the
// fresh value. Invalid edits keep the previous config.
func Watch(onChange func(*Config)) {
	viper.OnConfigChange(func(_ fsnotify.Event) {
		fresh := DefaultConfig()
		if err := viper.Unmarshal(fresh); err != nil {
			return
		}
		onChange(fresh)
	})
	viper.WatchConfig()
}

// Save writes the configuration to file.
func Save(cfg *Config) error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("brain", cfg.Brain)
	viper.Set("narration", cfg.Narration)
	viper.Set("timers", cfg.Timers)
	viper.Set("avatar", cfg.Avatar)

	return viper.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".luma"), nil
}
