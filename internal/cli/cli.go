// Package cli implements the socraticboard command-line interface.
//
// # Commands
//
//   - serve: run the HTTP API
//   - place: place a scenario's annotations and print where they land
//   - review: approve or dismiss a scenario's annotations interactively
//   - chat: run one tutor turn from the terminal
//   - cache: manage the screenshot cache
//
// All commands accept --verbose (-v) for debug logging and --config for a
// TOML configuration file. Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/cache"
	"github.com/matzehuels/socraticboard/pkg/config"
	"github.com/matzehuels/socraticboard/pkg/tutor"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "socraticboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the --config file (if any) plus environment overrides
// and applies the configured log level unless --verbose is set.
// Without an explicit file, ./socraticboard.toml is used when present.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(appName + ".toml"); err == nil {
			path = appName + ".toml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := c.applyLogLevel(cfg.Log.Level); err != nil {
		return config.Config{}, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// =============================================================================
// Backends
// =============================================================================

// newScreenshotCache builds the cache backend named by cfg. A file backend
// without a directory uses the XDG cache directory.
func (c *CLI) newScreenshotCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	var backend cache.Cache
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisConfig())
		if err != nil {
			return nil, err
		}
		backend = rc
	case config.CacheFile:
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				c.Logger.Warn("no cache directory, caching disabled", "err", err)
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		backend = fc
	default:
		return cache.NewNullCache(), nil
	}
	c.Logger.Debug("screenshot cache", "backend", cfg.Cache.Backend)
	return cache.Instrumented(backend, "screenshot"), nil
}

// newKeyer scopes cache keys with the configured prefix.
func newKeyer(cfg config.CacheConfig) cache.Keyer {
	k := cache.NewDefaultKeyer()
	if cfg.Prefix == "" {
		return k
	}
	return cache.NewScopedKeyer(k, cfg.Prefix)
}

func (c *CLI) newEngine(cfg config.Config) (tutor.Engine, error) {
	return tutor.New(cfg.TutorEngine(), c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/socraticboard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
