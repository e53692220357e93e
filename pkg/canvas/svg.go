package canvas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strings"
)

// MaxScreenshotSide caps the long side of a screenshot in pixels. Larger
// pages are scaled down uniformly.
const MaxScreenshotSide = 8000.0

// paletteHex maps palette colors to their SVG fill values.
var paletteHex = map[Color]string{
	ColorBlack:  "#1d1d1d",
	ColorBlue:   "#4465e9",
	ColorYellow: "#f1ac4b",
}

func colorHex(c Color) string {
	if h, ok := paletteHex[c]; ok {
		return h
	}
	return paletteHex[ColorBlack]
}

// Screenshot is a rendered image of the whole page.
type Screenshot struct {
	SVG    []byte  `json:"-"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`

	// Fingerprint identifies the page content that was rendered.
	Fingerprint string `json:"fingerprint"`
}

// Page is a point-in-time copy of the page content. Fingerprints and
// renders of one Page always describe the same shapes.
type Page struct {
	Shapes []Shape
}

// Page returns a copy of the current page content.
func (c *Canvas) Page() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Page{Shapes: slices.Clone(c.shapes)}
}

// RenderSVG renders the current page. See [Page.RenderSVG].
func (c *Canvas) RenderSVG() (Screenshot, bool) {
	return c.Page().RenderSVG()
}

// Fingerprint returns the fingerprint of the current page.
func (c *Canvas) Fingerprint() string {
	return c.Page().Fingerprint()
}

// Fingerprint returns a hash of the page content. It changes whenever a
// shape is added or the page is cleared, and is stable otherwise.
func (p Page) Fingerprint() string {
	data, _ := json.Marshal(p.Shapes)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RenderSVG renders every shape into a standalone SVG document framed by
// the page bounds. It reports false for an empty page, which has nothing
// worth showing to the tutor.
func (p Page) RenderSVG() (Screenshot, bool) {
	shapes := p.Shapes
	bounds, ok := boundsOf(shapes)
	if !ok {
		return Screenshot{}, false
	}
	w := max(bounds.X2-bounds.X1, 1)
	h := max(bounds.Y2-bounds.Y1, 1)
	scale := 1.0
	if long := max(w, h); long > MaxScreenshotSide {
		scale = MaxScreenshotSide / long
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		bounds.X1, bounds.Y1, w, h, w*scale, h*scale)
	fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#ffffff"/>`+"\n", bounds.X1, bounds.Y1, w, h)

	for _, s := range shapes {
		switch s.Type {
		case ShapeText:
			renderText(&buf, s)
		case ShapeDraw:
			renderStroke(&buf, s)
		}
	}

	buf.WriteString("</svg>\n")
	return Screenshot{SVG: buf.Bytes(), Width: w * scale, Height: h * scale, Scale: scale, Fingerprint: p.Fingerprint()}, true
}

func renderText(buf *bytes.Buffer, s Shape) {
	fmt.Fprintf(buf, `  <text id="%s" x="%.1f" y="%.1f" font-family="sans-serif" font-size="24" fill="%s">`,
		html.EscapeString(s.ID), s.X, s.Y+textLineHeight*0.75, colorHex(s.Color))
	for i, line := range splitLines(s.Text) {
		dy := 0.0
		if i > 0 {
			dy = textLineHeight
		}
		fmt.Fprintf(buf, `<tspan x="%.1f" dy="%.1f">%s</tspan>`, s.X, dy, html.EscapeString(line))
	}
	buf.WriteString("</text>\n")
}

func renderStroke(buf *bytes.Buffer, s Shape) {
	if len(s.Points) == 1 {
		fmt.Fprintf(buf, `  <circle id="%s" cx="%.1f" cy="%.1f" r="2" fill="%s"/>`+"\n",
			html.EscapeString(s.ID), s.X, s.Y, colorHex(s.Color))
		return
	}
	pts := make([]string, len(s.Points))
	for i, p := range s.Points {
		pts[i] = fmt.Sprintf("%.1f,%.1f", s.X+p.X, s.Y+p.Y)
	}
	fmt.Fprintf(buf, `  <polyline id="%s" points="%s" fill="none" stroke="%s" stroke-width="3.5" stroke-linecap="round" stroke-linejoin="round"/>`+"\n",
		html.EscapeString(s.ID), strings.Join(pts, " "), colorHex(s.Color))
}
