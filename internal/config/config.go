// Package config loads the media-monitor service configuration from a YAML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultServerPort        = 8060
	defaultServerTimeout     = 30 * time.Second
	defaultPreviewsDir       = "./previews"
	defaultRequestTimeout    = 10 * time.Second
	defaultProbeTimeout      = 15 * time.Second
	defaultGenerateTimeout   = 30 * time.Second
	defaultMaxContentBytes   = 1 << 20 // 1 MiB cap on text/html preview fetches
	defaultPreviewWidth      = 320
	defaultPreviewHeight     = 240
	defaultTextPreviewLength = 200
	defaultMaxPreviewRetries = 3
	defaultCheckInterval     = 5 * time.Second
	defaultRedisAddress      = "localhost:6379"
)

type Config struct {
	Debug   bool          `env:"APP_DEBUG" yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Media   MediaConfig   `yaml:"media"`
	Monitor MonitorConfig `yaml:"monitor"`
	Redis   RedisConfig   `yaml:"redis"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

// MediaConfig configures the probe and preview pipeline.
type MediaConfig struct {
	PreviewsDir       string        `env:"PREVIEWS_DIR"        yaml:"previews_dir"`
	FFmpegPath        string        `env:"FFMPEG_PATH"         yaml:"ffmpeg_path"`
	FFprobePath       string        `env:"FFPROBE_PATH"        yaml:"ffprobe_path"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT"     yaml:"request_timeout"`
	ProbeTimeout      time.Duration `env:"PROBE_TIMEOUT"       yaml:"probe_timeout"`
	GenerateTimeout   time.Duration `env:"GENERATE_TIMEOUT"    yaml:"generate_timeout"`
	MaxContentBytes   int64         `env:"MAX_CONTENT_LENGTH"  yaml:"max_content_bytes"`
	PreviewWidth      int           `yaml:"preview_width"`
	PreviewHeight     int           `yaml:"preview_height"`
	TextPreviewLength int           `yaml:"text_preview_length"`
	MaxPreviewRetries int           `env:"MAX_PREVIEW_RETRIES" yaml:"max_preview_retries"`
}

// MonitorConfig configures the background watch-list poller.
type MonitorConfig struct {
	Enabled       bool          `env:"MONITOR_ENABLED" yaml:"enabled"`
	CheckInterval time.Duration `env:"CHECK_INTERVAL"  yaml:"check_interval"`
	SourcesFile   string        `env:"SOURCES_FILE"    yaml:"sources_file"`
}

// RedisConfig holds Redis connection configuration for event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Media.PreviewsDir == "" {
		return errors.New("media.previews_dir is required")
	}
	if c.Media.MaxPreviewRetries < 0 {
		return errors.New("media.max_preview_retries must not be negative")
	}
	if c.Monitor.Enabled && c.Monitor.CheckInterval <= 0 {
		return errors.New("monitor.check_interval must be positive when the monitor is enabled")
	}
	return nil
}

func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	setDefaults(&cfg)
	// Re-apply env overrides after defaults (env always wins).
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Media.PreviewsDir == "" {
		cfg.Media.PreviewsDir = defaultPreviewsDir
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	if cfg.Media.RequestTimeout == 0 {
		cfg.Media.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Media.ProbeTimeout == 0 {
		cfg.Media.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Media.GenerateTimeout == 0 {
		cfg.Media.GenerateTimeout = defaultGenerateTimeout
	}
	if cfg.Media.MaxContentBytes == 0 {
		cfg.Media.MaxContentBytes = defaultMaxContentBytes
	}
	if cfg.Media.PreviewWidth == 0 {
		cfg.Media.PreviewWidth = defaultPreviewWidth
	}
	if cfg.Media.PreviewHeight == 0 {
		cfg.Media.PreviewHeight = defaultPreviewHeight
	}
	if cfg.Media.TextPreviewLength == 0 {
		cfg.Media.TextPreviewLength = defaultTextPreviewLength
	}
	if cfg.Media.MaxPreviewRetries == 0 {
		cfg.Media.MaxPreviewRetries = defaultMaxPreviewRetries
	}
	if cfg.Monitor.CheckInterval == 0 {
		cfg.Monitor.CheckInterval = defaultCheckInterval
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
}
