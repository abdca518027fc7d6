package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig     `json:"app" yaml:"app"`
	Telegram GatewayConfig `json:"telegram" yaml:"telegram"`
	Redis    RedisConfig   `json:"redis" yaml:"redis"`
	Session  SessionConfig `json:"session" yaml:"session"`
	Relay    RelayConfig   `json:"relay" yaml:"relay"`
	Memory   MemoryConfig  `json:"memory" yaml:"memory"`
}

type AppConfig struct {
	Name string `json:"name" yaml:"name" env:"WHISPER_APP_NAME"`
}

type GatewayConfig struct {
	Token       string `json:"token" yaml:"token" env:"WHISPER_TELEGRAM_TOKEN"`
	Enabled     bool   `json:"enabled" yaml:"enabled" env:"WHISPER_TELEGRAM_ENABLED"`
	PollTimeout int    `json:"poll_timeout" yaml:"poll_timeout" env:"WHISPER_TELEGRAM_POLL_TIMEOUT"`
}

// RedisConfig points at the server backing sessions and the escrow. An empty
// URL keeps both in process memory.
type RedisConfig struct {
	URL string `json:"url" yaml:"url" env:"WHISPER_REDIS_URL"`
}

type SessionConfig struct {
	Driver string   `json:"driver" yaml:"driver" env:"WHISPER_SESSION_DRIVER"`
	TTL    Duration `json:"ttl" yaml:"ttl" env:"WHISPER_SESSION_TTL"`
}

type RelayConfig struct {
	Retention Duration `json:"retention" yaml:"retention" env:"WHISPER_ESCROW_RETENTION"`
	Delay     Duration `json:"delay" yaml:"delay" env:"WHISPER_RELAY_DELAY"`
}

// MemoryConfig locates the sqlite database holding group metadata.
type MemoryConfig struct {
	Path string `json:"path" yaml:"path" env:"WHISPER_DB_PATH"`
}

// Duration reads "90s" style values from JSON, YAML and the environment.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Default() *Config {
	return &Config{
		App:      AppConfig{Name: "whisper"},
		Telegram: GatewayConfig{Enabled: true, PollTimeout: 30},
		Session:  SessionConfig{Driver: "memory", TTL: Duration(24 * time.Hour)},
		Relay: RelayConfig{
			Retention: Duration(24 * time.Hour),
			Delay:     Duration(2 * time.Second),
		},
		Memory: MemoryConfig{Path: "./data/whisper.db"},
	}
}

// LoadConfig layers defaults, the config file at path (JSON, or YAML for
// .yaml/.yml), a .env file in the working directory, and WHISPER_*
// environment variables. A missing config file or .env is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the settings can start the bot.
func (c *Config) Validate() error {
	if _, ok := c.GetTelegramConfig(); !ok {
		return errors.New("telegram gateway is not enabled or token is missing")
	}
	if c.Telegram.PollTimeout < 0 {
		return errors.New("telegram poll_timeout must be >= 0")
	}
	switch c.Session.Driver {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("session driver redis needs redis.url")
		}
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be > 0")
	}
	if c.Relay.Retention <= 0 {
		return errors.New("relay retention must be > 0")
	}
	if c.Relay.Delay < 0 {
		return errors.New("relay delay must be >= 0")
	}
	if c.Memory.Path == "" {
		return errors.New("memory path cannot be empty")
	}
	return nil
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	if c.Telegram.Enabled && c.Telegram.Token != "" {
		return c.Telegram, true
	}
	return GatewayConfig{}, false
}
