// Package config loads the shaderscene service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderscene/internal/gpudev"
	"github.com/gogpu/shaderscene/internal/logging"
)

// Config is the service configuration.
type Config struct {
	Backend   string    `yaml:"backend"`
	Viewport  Viewport  `yaml:"viewport"`
	FrameRate int       `yaml:"frame_rate"`
	LogLevel  string    `yaml:"log_level"`
	Generator Generator `yaml:"generator"`
	Redis     Redis     `yaml:"redis"`
	HTTP      HTTP      `yaml:"http"`
}

// Viewport is the size of the mount point in pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Generator configures the scene generator service.
type Generator struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Redis configures the optional response cache. An empty Addr disables it.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// HTTP configures the API server.
type HTTP struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:   gpudev.BackendNoop,
		Viewport:  Viewport{Width: 500, Height: 500},
		FrameRate: 60,
		LogLevel:  "info",
		Generator: Generator{
			Endpoint: "http://localhost:5000/api/shader",
			Timeout:  30 * time.Second,
		},
		Redis: Redis{TTL: 24 * time.Hour},
		HTTP:  HTTP{Listen: ":8080"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case gpudev.BackendNoop, gpudev.BackendVulkan:
	default:
		errs = append(errs, fmt.Errorf("backend: unknown backend %q", c.Backend))
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport: invalid size %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.FrameRate <= 0 || c.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("frame_rate: %d outside 1..240", c.FrameRate))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator.timeout: must be positive"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db: %d is negative", c.Redis.DB))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl: must not be negative"))
	}
	return errors.Join(errs...)
}
