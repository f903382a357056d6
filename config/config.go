package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "reliefboard/pkg/config"
)

type LogConfig struct {
	Level string `yaml:"level"`
}

type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

type Config struct {
	Server     pkgconfig.ServerConfig     `yaml:"server"`
	DB         pkgconfig.DBConfig         `yaml:"db"`
	MQ         pkgconfig.MQConfig         `yaml:"mq"`
	Redis      pkgconfig.RedisConfig      `yaml:"redis"`
	JWT        pkgconfig.JWTConfig        `yaml:"jwt"`
	Classifier pkgconfig.ClassifierConfig `yaml:"classifier"`
	Outbox     OutboxConfig               `yaml:"outbox"`
	Log        LogConfig                  `yaml:"log"`
}

// Load reads config/<CONFIG_ENV>.yaml over config/base.yaml from dir,
// applies environment overrides and validates the result.
func Load(dir string) (*Config, error) {
	cfg, err := Read(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for tools that need only part of it.
func Read(dir string) (*Config, error) {
	raw, err := pkgconfig.LoadConfig(pkgconfig.GetConfigEnv(), dir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := pkgconfig.Decode(raw, cfg); err != nil {
		return nil, err
	}

	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideClassifierFromEnv(&cfg.Classifier)
	if level := pkgconfig.GetEnv("LOG_LEVEL", ""); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// Default returns the values used when a key is absent from every file.
func Default() *Config {
	return &Config{
		Server: pkgconfig.ServerConfig{Port: "8080"},
		DB: pkgconfig.DBConfig{
			Host:               "localhost",
			Port:               5432,
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		JWT: pkgconfig.JWTConfig{TTL: 24 * time.Hour},
		Classifier: pkgconfig.ClassifierConfig{
			Backend:  "rest",
			Endpoint: "https://generativelanguage.googleapis.com/v1",
			Model:    "gemini-pro",
			Timeout:  8 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Outbox: OutboxConfig{
			Interval:   2 * time.Second,
			BatchSize:  50,
			MaxRetries: 5,
		},
		Log: LogConfig{Level: "info"},
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Classifier.Backend) {
	case "", "rest", "genai":
	default:
		return fmt.Errorf("classifier.backend must be rest or genai, got %q", c.Classifier.Backend)
	}
	if c.Classifier.Timeout < 0 {
		return fmt.Errorf("classifier.timeout must not be negative")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}
