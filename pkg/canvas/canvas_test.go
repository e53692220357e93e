package canvas

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

func seqIDs(c *Canvas) {
	n := 0
	c.newID = func() string {
		n++
		return fmt.Sprintf("shape:%d", n)
	}
}

func TestViewportAbsentUntilSet(t *testing.T) {
	c := New()
	if _, ok := c.Viewport(); ok {
		t.Fatal("fresh canvas should have no viewport")
	}
	vp := geometry.Viewport{X: 10, Y: 60, Width: 1000, Height: 800}
	if err := c.SetViewport(vp); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Viewport(); !ok || got != vp {
		t.Errorf("Viewport() = %v, %v", got, ok)
	}
	if err := c.SetViewport(geometry.Viewport{Width: 0, Height: 10}); !apperr.Is(err, apperr.ErrCodeInvalidViewport) {
		t.Errorf("expected INVALID_VIEWPORT, got %v", err)
	}
}

func TestScreenToPage(t *testing.T) {
	tests := []struct {
		name string
		vp   *geometry.Viewport
		cam  Camera
		in   geometry.Position
		want Point
	}{
		{"identity", nil, DefaultCamera, geometry.Position{X: 700, Y: 20}, Point{X: 700, Y: 20}},
		{"viewport offset", &geometry.Viewport{X: 100, Y: 50, Width: 1000, Height: 800}, DefaultCamera,
			geometry.Position{X: 700, Y: 20}, Point{X: 600, Y: -30}},
		{"zoom and pan", &geometry.Viewport{X: 0, Y: 0, Width: 1000, Height: 800}, Camera{X: 10, Y: -20, Zoom: 2},
			geometry.Position{X: 700, Y: 20}, Point{X: 340, Y: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			if tt.vp != nil {
				if err := c.SetViewport(*tt.vp); err != nil {
					t.Fatal(err)
				}
			}
			if err := c.SetCamera(tt.cam); err != nil {
				t.Fatal(err)
			}
			got := c.ScreenToPage(tt.in)
			if got != tt.want {
				t.Errorf("ScreenToPage(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if back := c.PageToScreen(got); math.Abs(back.X-tt.in.X) > 1e-9 || math.Abs(back.Y-tt.in.Y) > 1e-9 {
				t.Errorf("PageToScreen round trip = %v, want %v", back, tt.in)
			}
		})
	}
}

func TestSetCameraValidation(t *testing.T) {
	c := New()
	for _, cam := range []Camera{{Zoom: 0}, {Zoom: -1}, {Zoom: math.NaN()}, {X: math.Inf(1), Zoom: 1}} {
		if err := c.SetCamera(cam); err == nil {
			t.Errorf("SetCamera(%v) should fail", cam)
		}
	}
	if c.Camera() != DefaultCamera {
		t.Error("invalid camera must not be applied")
	}
}

func TestCreateText(t *testing.T) {
	c := New()
	seqIDs(c)

	s, err := c.CreateText(Point{X: 5, Y: 6}, "What is 2x?", ColorBlue)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "shape:1" || s.Type != ShapeText || s.Width != TextWidth || s.Size != "m" || s.Font != "sans" || s.Color != ColorBlue {
		t.Errorf("unexpected shape %+v", s)
	}
	if c.Selected() != s.ID {
		t.Errorf("Selected() = %q, want %q", c.Selected(), s.ID)
	}
	if _, err := c.CreateText(Point{}, " ", ColorBlue); err == nil {
		t.Error("empty text should be rejected")
	}
	if len(c.Shapes()) != 1 {
		t.Errorf("Shapes() = %d, want 1", len(c.Shapes()))
	}
}

func TestAddStrokeAndBounds(t *testing.T) {
	c := New()
	if _, ok := c.Bounds(); ok {
		t.Fatal("empty canvas should have no bounds")
	}
	if _, err := c.AddStroke(nil, ""); err == nil {
		t.Error("empty stroke should be rejected")
	}

	s, err := c.AddStroke([]Point{{X: 10, Y: 10}, {X: 50, Y: -5}, {X: 30, Y: 40}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Color != ColorBlack || s.Points[0] != (Point{}) {
		t.Errorf("unexpected stroke %+v", s)
	}
	b, ok := c.Bounds()
	if !ok || b != (geometry.Rect{X1: 10, Y1: -5, X2: 50, Y2: 40}) {
		t.Errorf("Bounds() = %v", b)
	}

	c.CreateText(Point{X: 100, Y: 100}, "short", ColorYellow)
	b, _ = c.Bounds()
	if b.X2 != 100+TextWidth || b.Y2 != 100+textLineHeight {
		t.Errorf("Bounds() with text = %v", b)
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.SetViewport(geometry.Viewport{Width: 100, Height: 100})
	c.SetCamera(Camera{X: 3, Y: 4, Zoom: 2})
	c.CreateText(Point{}, "x", ColorBlue)
	c.Clear()

	if len(c.Shapes()) != 0 || c.Selected() != "" || c.Camera() != DefaultCamera {
		t.Error("Clear should drop shapes, selection and camera")
	}
	if _, ok := c.Viewport(); !ok {
		t.Error("Clear should keep the viewport")
	}
}

func TestTextHeight(t *testing.T) {
	width := TextWidth
	perLine := int(width / textCharWidth)
	if got := textHeight("hi", width); got != textLineHeight {
		t.Errorf("one line = %v", got)
	}
	if got := textHeight(strings.Repeat("a", perLine+1), width); got != 2*textLineHeight {
		t.Errorf("wrapped = %v", got)
	}
	if got := textHeight("a\nb\nc", width); got != 3*textLineHeight {
		t.Errorf("newlines = %v", got)
	}
}

func TestRenderSVG(t *testing.T) {
	c := New()
	if _, ok := c.RenderSVG(); ok {
		t.Fatal("empty page should not render")
	}

	c.AddStroke([]Point{{X: 0, Y: 0}, {X: 100, Y: 50}}, ColorBlack)
	c.CreateText(Point{X: 10, Y: 10}, "a < b & c", ColorYellow)
	shot, ok := c.RenderSVG()
	if !ok {
		t.Fatal("RenderSVG() = false")
	}
	if shot.Scale != 1 {
		t.Errorf("Scale = %v, want 1", shot.Scale)
	}
	for _, want := range []string{"<svg", "<polyline", "a &lt; b &amp; c", paletteHex[ColorYellow], "</svg>"} {
		if !bytes.Contains(shot.SVG, []byte(want)) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestRenderSVGScaleCap(t *testing.T) {
	c := New()
	c.AddStroke([]Point{{X: 0, Y: 0}, {X: 16000, Y: 100}}, ColorBlack)
	shot, _ := c.RenderSVG()
	if shot.Scale != 0.5 {
		t.Errorf("Scale = %v, want 0.5", shot.Scale)
	}
	if shot.Width != MaxScreenshotSide {
		t.Errorf("Width = %v, want %v", shot.Width, MaxScreenshotSide)
	}
}

func TestFingerprint(t *testing.T) {
	c := New()
	empty := c.Fingerprint()
	if empty != c.Fingerprint() {
		t.Error("Fingerprint not stable")
	}
	c.AddStroke([]Point{{X: 1, Y: 1}}, "")
	if c.Fingerprint() == empty {
		t.Error("Fingerprint should change after adding a shape")
	}
	c.Clear()
	if c.Fingerprint() != empty {
		t.Error("Fingerprint of cleared page should match empty page")
	}
}

func TestPageSnapshotIsConsistent(t *testing.T) {
	c := New()
	c.AddStroke([]Point{{X: 0, Y: 0}, {X: 40, Y: 40}}, ColorBlue)
	page := c.Page()
	before := page.Fingerprint()

	c.AddStroke([]Point{{X: 100, Y: 100}, {X: 200, Y: 120}}, ColorBlack)

	shot, ok := page.RenderSVG()
	if !ok {
		t.Fatal("RenderSVG() = false")
	}
	if shot.Fingerprint != before {
		t.Errorf("render fingerprint %s, want snapshot fingerprint %s", shot.Fingerprint, before)
	}
	if bytes.Count(shot.SVG, []byte("<polyline")) != 1 {
		t.Errorf("snapshot render includes later strokes:\n%s", shot.SVG)
	}
	if c.Fingerprint() == before {
		t.Error("canvas fingerprint should move on after the snapshot")
	}
	if live, _ := c.RenderSVG(); live.Fingerprint != c.Fingerprint() {
		t.Error("live render fingerprint does not match the canvas")
	}
}
