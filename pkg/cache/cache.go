// Package cache provides a small key/value cache with pluggable backends.
//
// socraticboard caches derived artifacts (currently SVG screenshots of the
// canvas, keyed by a content fingerprint) so repeated tutor turns and canvas
// downloads do not re-render an unchanged page.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entries on disk, for the CLI
//   - [RedisCache]: shared cache for multi-instance servers
//
// [Instrumented] wraps any backend and reports hits, misses and writes to
// the observability cache hooks.
//
// # Keys
//
// Keys are produced by a [Keyer] so that every component agrees on the
// layout. [NewScopedKeyer] adds a namespace prefix, which is how a shared
// Redis instance is partitioned between deployments.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value stored under key. A missing or expired entry is
	// reported as (nil, false, nil), not as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs for cached artifacts.
const (
	// TTLScreenshot is how long a rendered canvas screenshot is kept. The
	// key already changes with the content, so this only bounds storage.
	TTLScreenshot = 30 * time.Minute
)

// =============================================================================
// Keys
// =============================================================================

// ScreenshotKeyOpts are the render options that affect a screenshot.
type ScreenshotKeyOpts struct {
	Format  string `json:"format"`
	MaxSide int    `json:"max_side,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ScreenshotKey returns the key for a screenshot of a canvas whose
	// content hashes to fingerprint.
	ScreenshotKey(fingerprint string, opts ScreenshotKeyOpts) string
}

// DefaultKeyer generates unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ScreenshotKey implements Keyer.
func (DefaultKeyer) ScreenshotKey(fingerprint string, opts ScreenshotKeyOpts) string {
	return screenshotKey(fingerprint, opts)
}
