// Package placement assigns screen positions to pending annotations.
//
// A [Coordinator] bridges the geometry engine and the annotation registry.
// Each pass walks the pending annotations in arrival order and places those
// without a position against every position known so far in the pass. A
// position, once assigned, is never recomputed: viewport changes and new
// arrivals only affect annotations that are still unplaced, so a card the
// student is reading never jumps.
//
// Passes are deterministic and idempotent. Running one twice in a row with
// no state change in between assigns nothing the second time.
package placement

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/geometry"
	"github.com/matzehuels/socraticboard/pkg/observability"
)

// Coordinator runs placement passes over a registry.
// It holds no state of its own; the registry's owner serializes calls.
type Coordinator struct {
	registry *annotation.Registry
	logger   *log.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Coordinator for r.
func New(r *annotation.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{registry: r, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes the outcome of one pass.
type Result struct {
	// Placed lists the ids positioned by this pass, in pending order.
	Placed []string `json:"placed"`

	// Pending is the number of pending annotations seen by the pass.
	Pending int `json:"pending"`
}

// Run executes one placement pass against the viewport vp, which may be nil
// if the canvas has not reported its bounds yet.
func (c *Coordinator) Run(ctx context.Context, vp *geometry.Viewport) Result {
	start := time.Now()
	pending := c.registry.Pending()
	res := Result{Pending: len(pending)}

	// Seed with every cached position so newcomers avoid cards placed in
	// earlier passes regardless of where they sit in the pending order.
	known := make([]geometry.Position, 0, len(pending))
	for _, a := range pending {
		if p, ok := c.registry.Position(a.ID); ok {
			known = append(known, p)
		}
	}

	for _, a := range pending {
		if _, ok := c.registry.Position(a.ID); ok {
			continue
		}
		p := geometry.Place(vp, a.Hint(), known)
		c.registry.SetPosition(a.ID, p)
		known = append(known, p)
		res.Placed = append(res.Placed, a.ID)

		c.logger.Debug("placed annotation", "id", a.ID, "hint", a.Hint(), "x", p.X, "y", p.Y, "viewport", vp != nil)
		observability.Placement().OnPlaced(ctx, a.ID, string(a.Hint()), p.X, p.Y)
	}

	observability.Placement().OnPass(ctx, res.Pending, len(res.Placed), time.Since(start))
	return res
}
