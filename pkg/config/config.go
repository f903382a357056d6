package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DBConfig describes the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// Queries slower than this are logged and counted.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// ClassifierConfig configures the urgency classifier.
type ClassifierConfig struct {
	Backend          string        `yaml:"backend"` // rest or genai
	Endpoint         string        `yaml:"endpoint"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	FallbackKeywords []string      `yaml:"fallback_keywords"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	Breaker          BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}

// OverrideClassifierFromEnv applies GEMINI_API_KEY and CLASSIFIER_* variables.
func OverrideClassifierFromEnv(cfg *ClassifierConfig) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if endpoint := os.Getenv("CLASSIFIER_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if model := os.Getenv("CLASSIFIER_MODEL"); model != "" {
		cfg.Model = model
	}
	if backend := os.Getenv("CLASSIFIER_BACKEND"); backend != "" {
		cfg.Backend = strings.ToLower(backend)
	}
	if timeout := os.Getenv("CLASSIFIER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = d
		}
	}
}
