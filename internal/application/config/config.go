// ABOUTME: YAML configuration parsing and validation
// ABOUTME: Defines listen, update gate, stream, source, and logging settings
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Update  UpdateConfig  `yaml:"update"`
	Stream  StreamConfig  `yaml:"stream"`
	Sources SourcesConfig `yaml:"sources"`
	Logging LoggingConfig `yaml:"logging"`
}

type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UpdateConfig gates POST /update. AllowedOrigin is compared against the
// Origin header, which any non-browser client can forge.
type UpdateConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes"`
}

type StreamConfig struct {
	SubscriberBuffer int `yaml:"subscriber_buffer"`
	KeepaliveMs      int `yaml:"keepalive_ms"`
}

type SourcesConfig struct {
	RetryMs  int            `yaml:"retry_ms"`
	MPD      MPDConfig      `yaml:"mpd"`
	Upstream UpstreamConfig `yaml:"upstream"`
}

type MPDConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Address     string `yaml:"address"`
	Password    string `yaml:"password"`
	KeepaliveMs int    `yaml:"keepalive_ms"`
}

type UpstreamConfig struct {
	Enabled   bool              `yaml:"enabled"`
	URL       string            `yaml:"url"`
	PollMs    int               `yaml:"poll_ms"`
	TimeoutMs int               `yaml:"timeout_ms"`
	Headers   map[string]string `yaml:"request_headers"`
	Fields    FieldsConfig      `yaml:"fields"`
}

// FieldsConfig lists dotted JSON key paths per field, tried in order.
type FieldsConfig struct {
	Title  []string `yaml:"title"`
	Artist []string `yaml:"artist"`
	Cover  []string `yaml:"cover"`
	URL    []string `yaml:"url"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func Defaults() Config {
	return Config{
		Listen: ListenConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Update: UpdateConfig{
			MaxBodyBytes: 64 * 1024,
		},
		Stream: StreamConfig{
			SubscriberBuffer: 32,
			KeepaliveMs:      30000,
		},
		Sources: SourcesConfig{
			RetryMs: 5000,
			MPD: MPDConfig{
				Address:     "localhost:6600",
				KeepaliveMs: 30000,
			},
			Upstream: UpstreamConfig{
				PollMs:    5000,
				TimeoutMs: 3000,
				Fields: FieldsConfig{
					Title:  []string{"title"},
					Artist: []string{"artist"},
					Cover:  []string{"cover"},
					URL:    []string{"url"},
				},
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		errs = append(errs, fmt.Errorf("listen.port %d out of range", c.Listen.Port))
	}
	if c.Update.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("update.max_body_bytes must be positive"))
	}
	if c.Stream.SubscriberBuffer <= 0 {
		errs = append(errs, errors.New("stream.subscriber_buffer must be positive"))
	}
	if c.Stream.KeepaliveMs <= 0 {
		errs = append(errs, errors.New("stream.keepalive_ms must be positive"))
	}
	if c.Sources.RetryMs <= 0 {
		errs = append(errs, errors.New("sources.retry_ms must be positive"))
	}
	if c.Sources.MPD.Enabled {
		if c.Sources.MPD.Address == "" {
			errs = append(errs, errors.New("sources.mpd.address is required"))
		}
		if c.Sources.MPD.KeepaliveMs <= 0 {
			errs = append(errs, errors.New("sources.mpd.keepalive_ms must be positive"))
		}
	}
	if c.Sources.Upstream.Enabled {
		if c.Sources.Upstream.URL == "" {
			errs = append(errs, errors.New("sources.upstream.url is required"))
		}
		if c.Sources.Upstream.PollMs <= 0 {
			errs = append(errs, errors.New("sources.upstream.poll_ms must be positive"))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Listen.Host, c.Listen.Port)
}

func (c StreamConfig) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveMs) * time.Millisecond
}

func (c SourcesConfig) Retry() time.Duration {
	return time.Duration(c.RetryMs) * time.Millisecond
}
