package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Queue    QueueConfig    `toml:"queue"`
	Overlay  OverlayConfig  `toml:"overlay"`
	Player   PlayerConfig   `toml:"player"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// QueueConfig contains queue service connection settings.
type QueueConfig struct {
	BaseURL        string        `toml:"base_url"`
	APIToken       string        `toml:"api_token"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	RateLimit      float64       `toml:"rate_limit"`
}

// OverlayConfig contains the synchronization policy of the overlay controller.
type OverlayConfig struct {
	Owner            string        `toml:"owner"`
	PollInterval     time.Duration `toml:"poll_interval"`
	ProgressInterval time.Duration `toml:"progress_interval"`
	EndThreshold     time.Duration `toml:"end_threshold"`
}

// PlayerConfig contains settings for the mpv playback backend.
type PlayerConfig struct {
	Binary    string   `toml:"binary"`
	RenderDir string   `toml:"render_dir"`
	NoVideo   bool     `toml:"no_video"`
	ExtraArgs []string `toml:"extra_args"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains status HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Addr returns the host:port pair the status server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the values the overlay cannot run without.
func (c *Config) Validate() error {
	if c.Queue.BaseURL == "" {
		return fmt.Errorf("%w: queue.base_url is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(c.Queue.BaseURL); err != nil {
		return fmt.Errorf("%w: queue.base_url: %v", ErrInvalidConfig, err)
	}
	if c.Overlay.PollInterval <= 0 {
		return fmt.Errorf("%w: overlay.poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Overlay.ProgressInterval <= 0 {
		return fmt.Errorf("%w: overlay.progress_interval must be positive", ErrInvalidConfig)
	}
	if c.Overlay.EndThreshold < 0 {
		return fmt.Errorf("%w: overlay.end_threshold must not be negative", ErrInvalidConfig)
	}
	if c.Queue.RateLimit < 0 {
		return fmt.Errorf("%w: queue.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
