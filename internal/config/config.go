package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server configuration, read from configs/config.yml and VALVES_* env vars.
type Config struct {
	Port      string           `mapstructure:"port"`
	StaticDir string           `mapstructure:"static_dir"`
	Log       LogConfig        `mapstructure:"log"`
	DB        DBConfig         `mapstructure:"db"`
	Executor  ExecutorConfig   `mapstructure:"executor"`
	Control   ControllerConfig `mapstructure:"controller"`
	Auth      AuthConfig       `mapstructure:"auth"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	WS        WSConfig         `mapstructure:"ws"`
	Valves    []SeedValve      `mapstructure:"valves"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File enables a rotating log file next to stdout output.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type ExecutorConfig struct {
	Tick time.Duration `mapstructure:"tick"`
}

type ControllerConfig struct {
	// Address of the hardware controller; empty disables pushes.
	Address    string        `mapstructure:"address"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type WSConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SeedValve is created at startup when no valve with that number exists.
type SeedValve struct {
	Number int    `mapstructure:"number"`
	Name   string `mapstructure:"name"`
}

const envPrefix = "VALVES"

var errNoSigningKey = errors.New("auth.signing_key must be set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3030")
	v.SetDefault("static_dir", "./static")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("db.path", "valves.db")
	v.SetDefault("executor.tick", time.Minute)
	v.SetDefault("controller.timeout", 5*time.Second)
	v.SetDefault("controller.max_retries", 3)
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("rate_limit.requests", 300)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("ws.interval", time.Second)
}

// New returns a viper instance with defaults, env binding and the config search path set.
func New(paths ...string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (if present) and decodes it.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.SigningKey == "" {
		return errNoSigningKey
	}
	if c.Executor.Tick <= 0 {
		return fmt.Errorf("executor.tick must be positive, got %s", c.Executor.Tick)
	}
	seen := make(map[int]bool, len(c.Valves))
	for _, sv := range c.Valves {
		if sv.Number < 0 || sv.Number > 255 {
			return fmt.Errorf("seed valve %q: number %d out of range 0..255", sv.Name, sv.Number)
		}
		if seen[sv.Number] {
			return fmt.Errorf("seed valve number %d listed twice", sv.Number)
		}
		seen[sv.Number] = true
	}
	return nil
}
