// Package canvas is the in-memory model of the student's whiteboard.
//
// The canvas holds page-space shapes (freehand strokes drawn by the student
// and text markers committed from approved annotations), the camera that
// maps the page onto the screen, and the screen bounds of the viewport once
// the client has reported them.
//
// Coordinates come in two flavors: screen space (pixels relative to the
// browser window, where annotation cards live) and page space (the canvas's
// own coordinates, where shapes live). [Canvas.ScreenToPage] and
// [Canvas.PageToScreen] convert between them.
package canvas

import (
	"math"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

// =============================================================================
// Shapes
// =============================================================================

// Color is one of the canvas palette colors.
type Color string

// Palette colors.
const (
	ColorBlack  Color = "black"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
)

// ShapeType identifies the kind of a shape.
type ShapeType string

// Shape types.
const (
	ShapeText ShapeType = "text"
	ShapeDraw ShapeType = "draw"
)

// Text marker defaults, matching the whiteboard's "m" size sans font.
const (
	TextWidth      = 250.0
	TextSize       = "m"
	TextFont       = "sans"
	textLineHeight = 32.0
	textCharWidth  = 12.0
)

// Point is a page-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is a persistent element on the page.
type Shape struct {
	ID    string    `json:"id"`
	Type  ShapeType `json:"type"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Color Color     `json:"color"`

	// Text markers.
	Text  string  `json:"text,omitempty"`
	Width float64 `json:"w,omitempty"`
	Size  string  `json:"size,omitempty"`
	Font  string  `json:"font,omitempty"`

	// Freehand strokes, relative to (X, Y).
	Points []Point `json:"points,omitempty"`
}

// Bounds returns the page-space bounding rectangle of s.
func (s Shape) Bounds() geometry.Rect {
	switch s.Type {
	case ShapeText:
		return geometry.Rect{X1: s.X, Y1: s.Y, X2: s.X + s.Width, Y2: s.Y + textHeight(s.Text, s.Width)}
	default:
		r := geometry.Rect{X1: s.X, Y1: s.Y, X2: s.X, Y2: s.Y}
		for _, p := range s.Points {
			r.X1 = math.Min(r.X1, s.X+p.X)
			r.Y1 = math.Min(r.Y1, s.Y+p.Y)
			r.X2 = math.Max(r.X2, s.X+p.X)
			r.Y2 = math.Max(r.Y2, s.Y+p.Y)
		}
		return r
	}
}

// textHeight estimates the rendered height of wrapped text.
func textHeight(text string, width float64) float64 {
	perLine := max(1, int(width/textCharWidth))
	lines := 0
	for _, line := range splitLines(text) {
		n := utf8.RuneCountInString(line)
		lines += max(1, (n+perLine-1)/perLine)
	}
	return float64(max(1, lines)) * textLineHeight
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// =============================================================================
// Camera
// =============================================================================

// Camera maps page space onto the viewport. Zoom must be positive.
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"z"`
}

// DefaultCamera is the identity camera.
var DefaultCamera = Camera{Zoom: 1}

// Validate checks that the camera can be used for conversions.
func (c Camera) Validate() error {
	for _, v := range []float64{c.X, c.Y, c.Zoom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperr.New(apperr.ErrCodeInvalidInput, "camera values must be finite")
		}
	}
	if c.Zoom <= 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "camera zoom must be positive (got %g)", c.Zoom)
	}
	return nil
}

// =============================================================================
// Canvas
// =============================================================================

// Canvas is safe for concurrent use.
type Canvas struct {
	mu       sync.RWMutex
	viewport *geometry.Viewport
	camera   Camera
	shapes   []Shape
	selected string
	newID    func() string
}

// New creates an empty canvas with the identity camera and no viewport.
func New() *Canvas {
	return &Canvas{
		camera: DefaultCamera,
		newID:  func() string { return "shape:" + uuid.NewString() },
	}
}

// SetViewport records the screen bounds of the visible canvas area.
func (c *Canvas) SetViewport(vp geometry.Viewport) error {
	if err := apperr.ValidateViewport(vp.X, vp.Y, vp.Width, vp.Height); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = &vp
	return nil
}

// Viewport returns the current screen bounds, or false if the client has not
// reported them yet.
func (c *Canvas) Viewport() (geometry.Viewport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.viewport == nil {
		return geometry.Viewport{}, false
	}
	return *c.viewport, true
}

// SetCamera replaces the camera.
func (c *Canvas) SetCamera(cam Camera) error {
	if err := cam.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera = cam
	return nil
}

// Camera returns the current camera.
func (c *Canvas) Camera() Camera {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.camera
}

// ScreenToPage converts a screen position into page space.
// Without a viewport the screen origin is taken as the viewport origin.
func (c *Canvas) ScreenToPage(p geometry.Position) Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ox, oy float64
	if c.viewport != nil {
		ox, oy = c.viewport.X, c.viewport.Y
	}
	return Point{
		X: (p.X-ox)/c.camera.Zoom - c.camera.X,
		Y: (p.Y-oy)/c.camera.Zoom - c.camera.Y,
	}
}

// PageToScreen is the inverse of ScreenToPage.
func (c *Canvas) PageToScreen(p Point) geometry.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ox, oy float64
	if c.viewport != nil {
		ox, oy = c.viewport.X, c.viewport.Y
	}
	return geometry.Position{
		X: (p.X+c.camera.X)*c.camera.Zoom + ox,
		Y: (p.Y+c.camera.Y)*c.camera.Zoom + oy,
	}
}

// CreateText adds a text marker at page position at and selects it.
func (c *Canvas) CreateText(at Point, text string, color Color) (Shape, error) {
	if err := apperr.ValidateAnnotationText(text); err != nil {
		return Shape{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Shape{
		ID:    c.newID(),
		Type:  ShapeText,
		X:     at.X,
		Y:     at.Y,
		Color: color,
		Text:  text,
		Width: TextWidth,
		Size:  TextSize,
		Font:  TextFont,
	}
	c.shapes = append(c.shapes, s)
	c.selected = s.ID
	return s, nil
}

// AddStroke adds a freehand stroke given as absolute page points.
func (c *Canvas) AddStroke(points []Point, color Color) (Shape, error) {
	if len(points) == 0 {
		return Shape{}, apperr.New(apperr.ErrCodeInvalidInput, "stroke has no points")
	}
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return Shape{}, apperr.New(apperr.ErrCodeInvalidInput, "stroke points must be finite")
		}
	}
	if color == "" {
		color = ColorBlack
	}
	origin := points[0]
	rel := make([]Point, len(points))
	for i, p := range points {
		rel[i] = Point{X: p.X - origin.X, Y: p.Y - origin.Y}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := Shape{ID: c.newID(), Type: ShapeDraw, X: origin.X, Y: origin.Y, Color: color, Points: rel}
	c.shapes = append(c.shapes, s)
	return s, nil
}

// Shapes returns a copy of the shapes in creation order.
func (c *Canvas) Shapes() []Shape {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.shapes)
}

// Selected returns the id of the selected shape, if any.
func (c *Canvas) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Bounds returns the page-space bounds of all shapes, or false if the page
// is empty.
func (c *Canvas) Bounds() (geometry.Rect, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return boundsOf(c.shapes)
}

func boundsOf(shapes []Shape) (geometry.Rect, bool) {
	if len(shapes) == 0 {
		return geometry.Rect{}, false
	}
	r := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		b := s.Bounds()
		r.X1 = math.Min(r.X1, b.X1)
		r.Y1 = math.Min(r.Y1, b.Y1)
		r.X2 = math.Max(r.X2, b.X2)
		r.Y2 = math.Max(r.Y2, b.Y2)
	}
	return r, true
}

// Clear removes every shape and resets the camera. The viewport is kept
// because it describes the client window, not the page.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shapes = nil
	c.selected = ""
	c.camera = DefaultCamera
}
