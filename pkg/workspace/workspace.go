// Package workspace composes one tutoring session: the problem, the canvas,
// the pending annotations and the chat with the tutor.
//
// A [Workspace] owns its annotation registry exclusively. Every mutation
// (proposal, viewport change, approval, dismissal, reset) runs under one
// mutex and triggers a placement pass where needed, so the single-threaded
// model of the registry holds even when an HTTP server calls in from many
// goroutines. Tutor streams run outside the lock; their proposals re-enter
// through the same serialized path.
package workspace

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/cache"
	"github.com/matzehuels/socraticboard/pkg/canvas"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
	"github.com/matzehuels/socraticboard/pkg/placement"
	"github.com/matzehuels/socraticboard/pkg/resolution"
	"github.com/matzehuels/socraticboard/pkg/tutor"
)

// Problem is what the student is working on.
type Problem struct {
	Text  string       `json:"text"`
	Image *tutor.Image `json:"image,omitempty"`
}

// Validate checks the problem statement.
func (p Problem) Validate() error {
	return apperr.ValidateProblemText(p.Text)
}

// PendingAnnotation is an annotation with its placed position, if any.
type PendingAnnotation struct {
	annotation.Annotation
	Position *geometry.Position `json:"position,omitempty"`
}

// State is a snapshot of a workspace.
type State struct {
	Problem  Problem             `json:"problem"`
	Pending  []PendingAnnotation `json:"pending"`
	Shapes   []canvas.Shape      `json:"shapes"`
	Viewport *geometry.Viewport  `json:"viewport,omitempty"`
	Camera   canvas.Camera       `json:"camera"`
	History  []tutor.Message     `json:"history"`
}

// Workspace is safe for concurrent use.
type Workspace struct {
	mu          sync.Mutex
	problem     Problem
	registry    *annotation.Registry
	coordinator *placement.Coordinator
	workflow    *resolution.Workflow
	canvas      *canvas.Canvas
	history     []tutor.Message
	calls       map[string]string // tool call id -> annotation id
	generation  int

	newID       annotation.IDFunc
	screenshots cache.Cache
	keyer       cache.Keyer
	logger      *log.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithIDFunc sets the annotation id generator.
func WithIDFunc(f annotation.IDFunc) Option {
	return func(w *Workspace) {
		if f != nil {
			w.newID = f
		}
	}
}

// WithScreenshotCache caches rendered canvas screenshots in c.
func WithScreenshotCache(c cache.Cache, k cache.Keyer) Option {
	return func(w *Workspace) {
		if c != nil {
			w.screenshots = c
		}
		if k != nil {
			w.keyer = k
		}
	}
}

// New creates a workspace for problem p.
func New(p Problem, opts ...Option) (*Workspace, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := &Workspace{
		problem:     p,
		registry:    annotation.NewRegistry(),
		canvas:      canvas.New(),
		calls:       make(map[string]string),
		newID:       annotation.NewID,
		screenshots: cache.NewNullCache(),
		keyer:       cache.NewDefaultKeyer(),
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.coordinator = placement.New(w.registry, placement.WithLogger(w.logger))
	w.workflow = resolution.New(w.registry, w.canvas, w.logger)
	return w, nil
}

// Canvas returns the workspace canvas.
func (w *Workspace) Canvas() *canvas.Canvas { return w.canvas }

// =============================================================================
// Annotations
// =============================================================================

// Propose registers a tutor proposal and places it. A callID seen before
// returns the annotation created for it the first time and false, so a
// replayed tool call never shows a duplicate card. An empty callID is
// never deduplicated.
func (w *Workspace) Propose(ctx context.Context, callID string, p annotation.Proposal) (PendingAnnotation, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.proposeLocked(ctx, w.generation, callID, p)
}

func (w *Workspace) proposeLocked(ctx context.Context, gen int, callID string, p annotation.Proposal) (PendingAnnotation, bool, error) {
	if gen != w.generation {
		return PendingAnnotation{}, false, apperr.New(apperr.ErrCodeInvalidInput, "workspace was reset, proposal discarded")
	}
	if callID != "" {
		if id, ok := w.calls[callID]; ok {
			pa, _ := w.pendingLocked(id)
			return pa, false, nil
		}
	}

	a, err := annotation.New(p, w.newID)
	if err != nil {
		return PendingAnnotation{}, false, err
	}
	w.registry.AddPending(a)
	if callID != "" {
		w.calls[callID] = a.ID
	}
	w.placeLocked(ctx)

	pa, _ := w.pendingLocked(a.ID)
	w.logger.Debug("annotation proposed", "id", a.ID, "kind", a.Kind, "call", callID)
	return pa, true, nil
}

// Approve commits a pending annotation to the canvas.
func (w *Workspace) Approve(ctx context.Context, id string) (resolution.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.workflow.Approve(ctx, id)
}

// Dismiss discards a pending annotation.
func (w *Workspace) Dismiss(ctx context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.workflow.Dismiss(ctx, id)
}

// Pending returns the pending annotations in arrival order.
func (w *Workspace) Pending() []PendingAnnotation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingListLocked()
}

func (w *Workspace) pendingListLocked() []PendingAnnotation {
	list := w.registry.Pending()
	out := make([]PendingAnnotation, len(list))
	for i, a := range list {
		out[i] = PendingAnnotation{Annotation: a}
		if p, ok := w.registry.Position(a.ID); ok {
			out[i].Position = &p
		}
	}
	return out
}

func (w *Workspace) pendingLocked(id string) (PendingAnnotation, bool) {
	a, ok := w.registry.Get(id)
	if !ok {
		return PendingAnnotation{}, false
	}
	pa := PendingAnnotation{Annotation: a}
	if p, ok := w.registry.Position(id); ok {
		pa.Position = &p
	}
	return pa, true
}

// placeLocked runs a placement pass against the current viewport.
func (w *Workspace) placeLocked(ctx context.Context) placement.Result {
	var vp *geometry.Viewport
	if v, ok := w.canvas.Viewport(); ok {
		vp = &v
	}
	return w.coordinator.Run(ctx, vp)
}

// =============================================================================
// Canvas
// =============================================================================

// SetViewport records the client's viewport bounds and places any
// annotation still waiting for a position. Placed annotations do not move.
func (w *Workspace) SetViewport(ctx context.Context, vp geometry.Viewport) (placement.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.canvas.SetViewport(vp); err != nil {
		return placement.Result{}, err
	}
	return w.placeLocked(ctx), nil
}

// SetCamera updates the canvas camera.
func (w *Workspace) SetCamera(cam canvas.Camera) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canvas.SetCamera(cam)
}

// AddStroke adds a freehand stroke to the canvas.
func (w *Workspace) AddStroke(points []canvas.Point, color canvas.Color) (canvas.Shape, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canvas.AddStroke(points, color)
}

// Screenshot returns the SVG rendering of the page, or false for an empty
// page. Renders are cached by content fingerprint; the key and the render
// come from the same page snapshot.
func (w *Workspace) Screenshot(ctx context.Context) ([]byte, bool) {
	page := w.canvas.Page()
	key := w.keyer.ScreenshotKey(page.Fingerprint(), cache.ScreenshotKeyOpts{Format: "svg", MaxSide: int(canvas.MaxScreenshotSide)})
	if data, ok, err := w.screenshots.Get(ctx, key); err != nil {
		w.logger.Warn("screenshot cache read failed", "err", err)
	} else if ok {
		return data, true
	}

	shot, ok := page.RenderSVG()
	if !ok {
		return nil, false
	}
	if err := w.screenshots.Set(ctx, key, shot.SVG, cache.TTLScreenshot); err != nil {
		w.logger.Warn("screenshot cache write failed", "err", err)
	}
	return shot.SVG, true
}

// =============================================================================
// Session lifecycle
// =============================================================================

// Reset starts a new problem: pending annotations, canvas shapes, chat
// history and seen tool calls are dropped. Streams still running for the
// old problem can no longer add annotations.
func (w *Workspace) Reset(ctx context.Context, p Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.problem = p
	w.registry.Clear()
	w.canvas.Clear()
	w.history = nil
	clear(w.calls)
	w.generation++
	w.placeLocked(ctx)
	w.logger.Debug("workspace reset", "generation", w.generation)
	return nil
}

// State returns a snapshot of the workspace.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := State{
		Problem: w.problem,
		Pending: w.pendingListLocked(),
		Shapes:  w.canvas.Shapes(),
		Camera:  w.canvas.Camera(),
		History: append([]tutor.Message(nil), w.history...),
	}
	if vp, ok := w.canvas.Viewport(); ok {
		s.Viewport = &vp
	}
	return s
}
