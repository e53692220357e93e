// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in socraticboard never log metrics themselves. They call the
// registered hooks, which default to no-ops, and the application decides at
// startup what to do with the events (log them, count them, export them).
//
// # Architecture
//
//   - Hook interfaces per event category: placement, resolution, tutor, cache
//   - No-op default implementations
//   - Registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so there are no import
// cycles and the core packages stay free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPlacementHooks(&myPlacementHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Placement().OnPlaced(ctx, id, anchor, x, y)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Placement Hooks
// =============================================================================

// PlacementHooks receives events from placement passes.
type PlacementHooks interface {
	// OnPlaced records the first position assigned to an annotation.
	OnPlaced(ctx context.Context, id, hint string, x, y float64)

	// OnPass records a completed placement pass.
	OnPass(ctx context.Context, pending, placed int, duration time.Duration)
}

// =============================================================================
// Resolution Hooks
// =============================================================================

// ResolutionHooks receives events from approve and dismiss operations.
type ResolutionHooks interface {
	// OnApprove records an approval attempt. err is non-nil if the
	// annotation could not be committed to the canvas.
	OnApprove(ctx context.Context, id, kind string, err error)

	// OnDismiss records a dismissal; removed reports whether anything was pending.
	OnDismiss(ctx context.Context, id string, removed bool)
}

// =============================================================================
// Tutor Hooks
// =============================================================================

// TutorHooks receives events from tutor turns.
type TutorHooks interface {
	// OnTurnStart records the start of a streamed tutor turn.
	OnTurnStart(ctx context.Context, engine string, messages int)

	// OnTurnComplete records the end of a tutor turn.
	OnTurnComplete(ctx context.Context, engine string, proposals int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPlacementHooks is a no-op implementation of PlacementHooks.
type NoopPlacementHooks struct{}

func (NoopPlacementHooks) OnPlaced(context.Context, string, string, float64, float64) {}
func (NoopPlacementHooks) OnPass(context.Context, int, int, time.Duration)            {}

// NoopResolutionHooks is a no-op implementation of ResolutionHooks.
type NoopResolutionHooks struct{}

func (NoopResolutionHooks) OnApprove(context.Context, string, string, error) {}
func (NoopResolutionHooks) OnDismiss(context.Context, string, bool)          {}

// NoopTutorHooks is a no-op implementation of TutorHooks.
type NoopTutorHooks struct{}

func (NoopTutorHooks) OnTurnStart(context.Context, string, int)                           {}
func (NoopTutorHooks) OnTurnComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	placementHooks  PlacementHooks  = NoopPlacementHooks{}
	resolutionHooks ResolutionHooks = NoopResolutionHooks{}
	tutorHooks      TutorHooks      = NoopTutorHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetPlacementHooks registers custom placement hooks.
// This should be called once at application startup.
func SetPlacementHooks(h PlacementHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		placementHooks = h
	}
}

// SetResolutionHooks registers custom resolution hooks.
// This should be called once at application startup.
func SetResolutionHooks(h ResolutionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolutionHooks = h
	}
}

// SetTutorHooks registers custom tutor hooks.
// This should be called once at application startup.
func SetTutorHooks(h TutorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		tutorHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Placement returns the registered placement hooks.
func Placement() PlacementHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return placementHooks
}

// Resolution returns the registered resolution hooks.
func Resolution() ResolutionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolutionHooks
}

// Tutor returns the registered tutor hooks.
func Tutor() TutorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return tutorHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	placementHooks = NoopPlacementHooks{}
	resolutionHooks = NoopResolutionHooks{}
	tutorHooks = NoopTutorHooks{}
	cacheHooks = NoopCacheHooks{}
}
