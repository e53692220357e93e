// Package resolution turns pending annotations into permanent canvas
// markers (approve) or discards them (dismiss).
//
// Each annotation goes pending -> resolved exactly once. Both operations are
// idempotent: resolving an id that is no longer pending is a no-op, which
// covers double clicks, races with session resets and retried requests.
package resolution

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/canvas"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
	"github.com/matzehuels/socraticboard/pkg/observability"
)

// Canvas is the part of the whiteboard the workflow needs: coordinate
// conversion and text marker creation. [*canvas.Canvas] implements it.
type Canvas interface {
	ScreenToPage(p geometry.Position) canvas.Point
	CreateText(at canvas.Point, text string, color canvas.Color) (canvas.Shape, error)
}

// Workflow resolves annotations held in a registry against a canvas.
type Workflow struct {
	registry *annotation.Registry
	canvas   Canvas
	logger   *log.Logger
}

// New creates a Workflow. A nil logger uses log.Default().
func New(r *annotation.Registry, c Canvas, logger *log.Logger) *Workflow {
	if logger == nil {
		logger = log.Default()
	}
	return &Workflow{registry: r, canvas: c, logger: logger}
}

// Outcome describes a successful Approve call.
type Outcome struct {
	// Resolved is false when the id was not pending and nothing happened.
	Resolved bool `json:"resolved"`

	// Shape is the created canvas marker when Resolved is true.
	Shape *canvas.Shape `json:"shape,omitempty"`
}

// Approve commits the pending annotation id to the canvas at its placed
// position and removes it from the registry.
//
// An id that is not pending yields a zero Outcome and no error. A pending
// annotation without a position yields a MISSING_POSITION error and leaves
// both the registry and the canvas untouched, as does a canvas failure.
func (w *Workflow) Approve(ctx context.Context, id string) (Outcome, error) {
	a, ok := w.registry.Get(id)
	if !ok {
		w.logger.Debug("approve ignored, not pending", "id", id)
		return Outcome{}, nil
	}

	pos, ok := w.registry.Position(id)
	if !ok {
		err := apperr.New(apperr.ErrCodeMissingPosition, "annotation %s has not been placed yet", id)
		observability.Resolution().OnApprove(ctx, id, string(a.Kind), err)
		return Outcome{}, err
	}

	at := w.canvas.ScreenToPage(pos)
	shape, err := w.canvas.CreateText(at, a.Text, canvas.Color(a.Kind.Color()))
	if err != nil {
		err = apperr.Wrap(apperr.ErrCodeInternal, err, "create marker for annotation %s", id)
		observability.Resolution().OnApprove(ctx, id, string(a.Kind), err)
		return Outcome{}, err
	}

	w.registry.RemovePending(id)
	w.logger.Debug("approved annotation", "id", id, "kind", a.Kind, "shape", shape.ID, "x", at.X, "y", at.Y)
	observability.Resolution().OnApprove(ctx, id, string(a.Kind), nil)
	return Outcome{Resolved: true, Shape: &shape}, nil
}

// Dismiss removes id from the registry without touching the canvas. It
// reports whether an annotation was pending.
func (w *Workflow) Dismiss(ctx context.Context, id string) bool {
	removed := w.registry.RemovePending(id)
	w.logger.Debug("dismissed annotation", "id", id, "removed", removed)
	observability.Resolution().OnDismiss(ctx, id, removed)
	return removed
}
