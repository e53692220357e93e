// Package config loads socraticboard configuration.
//
// Configuration comes from three layers, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (optional)
//  3. environment variables
//
// Example file:
//
//	[server]
//	addr = ":8080"
//	request_timeout = "30s"
//
//	[tutor]
//	engine = "anthropic"
//	model = "claude-haiku-4-5"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[session]
//	ttl = "2h"
//
// API keys are best left to the environment (ANTHROPIC_API_KEY,
// GEMINI_API_KEY).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/socraticboard/pkg/cache"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/session"
	"github.com/matzehuels/socraticboard/pkg/tutor"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Duration is a time.Duration that decodes from strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Tutor   TutorConfig   `toml:"tutor"`
	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// TutorConfig configures the tutor engine.
type TutorConfig struct {
	Engine      string  `toml:"engine"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// CacheConfig configures the screenshot cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// SessionConfig configures session lifetime.
type SessionConfig struct {
	TTL             Duration `toml:"ttl"`
	CleanupInterval Duration `toml:"cleanup_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Tutor: TutorConfig{
			Engine:      tutor.EngineOffline,
			Temperature: tutor.DefaultTemperature,
			MaxTokens:   tutor.DefaultMaxTokens,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Prefix:  "socraticboard:",
		},
		Session: SessionConfig{
			TTL:             Duration{session.DefaultTTL},
			CleanupInterval: Duration{session.DefaultCleanupInterval},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads configuration from path (skipped when empty), then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "read config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, apperr.New(apperr.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.Server.Addr = ":" + port
	}
	set(&c.Server.Addr, "SOCRATICBOARD_ADDR")
	set(&c.Tutor.Engine, "SOCRATICBOARD_TUTOR_ENGINE")
	set(&c.Tutor.Model, "SOCRATICBOARD_TUTOR_MODEL")
	set(&c.Tutor.BaseURL, "SOCRATICBOARD_TUTOR_BASE_URL")
	set(&c.Cache.Backend, "SOCRATICBOARD_CACHE")
	set(&c.Cache.Dir, "SOCRATICBOARD_CACHE_DIR")
	set(&c.Cache.RedisAddr, "SOCRATICBOARD_REDIS_ADDR")
	set(&c.Cache.RedisPassword, "SOCRATICBOARD_REDIS_PASSWORD")
	set(&c.Log.Level, "SOCRATICBOARD_LOG_LEVEL")

	if c.Tutor.APIKey == "" {
		switch strings.ToLower(c.Tutor.Engine) {
		case tutor.EngineAnthropic:
			set(&c.Tutor.APIKey, "ANTHROPIC_API_KEY")
		case tutor.EngineGemini:
			set(&c.Tutor.APIKey, "GEMINI_API_KEY")
		}
	}

	if v := strings.TrimSpace(getenv("SOCRATICBOARD_SESSION_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "SOCRATICBOARD_SESSION_TTL")
		}
		c.Session.TTL = Duration{d}
	}
	if v := strings.TrimSpace(getenv("SOCRATICBOARD_REDIS_DB")); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "SOCRATICBOARD_REDIS_DB")
		}
		c.Cache.RedisDB = db
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var problems []string
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is empty")
	}
	switch strings.ToLower(c.Tutor.Engine) {
	case tutor.EngineOffline:
	case tutor.EngineAnthropic, tutor.EngineGemini:
		if c.Tutor.APIKey == "" {
			problems = append(problems, fmt.Sprintf("tutor engine %q needs an API key", c.Tutor.Engine))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown tutor.engine %q", c.Tutor.Engine))
	}
	if c.Tutor.Temperature < 0 || c.Tutor.Temperature > 2 {
		problems = append(problems, "tutor.temperature must be between 0 and 2")
	}
	if c.Tutor.MaxTokens < 0 {
		problems = append(problems, "tutor.max_tokens must not be negative")
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			problems = append(problems, "cache.redis_addr is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown cache.backend %q", c.Cache.Backend))
	}
	if c.Session.TTL.Duration <= 0 {
		problems = append(problems, "session.ttl must be positive")
	}
	if c.Session.CleanupInterval.Duration <= 0 {
		problems = append(problems, "session.cleanup_interval must be positive")
	}
	if len(problems) > 0 {
		return apperr.New(apperr.ErrCodeInvalidConfig, "invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TutorEngine returns the tutor engine configuration.
func (c Config) TutorEngine() tutor.Config {
	return tutor.Config{
		Engine:      c.Tutor.Engine,
		Model:       c.Tutor.Model,
		APIKey:      c.Tutor.APIKey,
		BaseURL:     c.Tutor.BaseURL,
		Temperature: c.Tutor.Temperature,
		MaxTokens:   c.Tutor.MaxTokens,
	}
}

// RedisConfig returns the Redis cache configuration.
func (c Config) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Cache.RedisAddr,
		Password: c.Cache.RedisPassword,
		DB:       c.Cache.RedisDB,
	}
}
