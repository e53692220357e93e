package geometry

import "strings"

// =============================================================================
// Card Dimensions
// =============================================================================

const (
	// CardWidth is the rendered width of an annotation card in pixels.
	CardWidth = 280.0

	// CardHeight is the estimated height of an annotation card in pixels.
	CardHeight = 120.0

	// Padding is the margin kept between a card and the viewport edges.
	Padding = 20.0

	// Gap is the vertical spacing used when cards are stacked.
	Gap = 10.0
)

// =============================================================================
// Position, Viewport, Rect
// =============================================================================

// Position is the top-left corner of a card in viewport screen pixels.
type Position struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Viewport is the visible screen-space rectangle of the canvas.
type Viewport struct {
	X      float64 `json:"x" toml:"x"`
	Y      float64 `json:"y" toml:"y"`
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	X1, Y1 float64
	X2, Y2 float64
}

// CardRect returns the rectangle covered by a card placed at p.
func CardRect(p Position) Rect {
	return Rect{X1: p.X, Y1: p.Y, X2: p.X + CardWidth, Y2: p.Y + CardHeight}
}

// Intersects reports whether r and o share a region of positive area.
// Rectangles whose edges touch do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X1 < o.X2 && o.X1 < r.X2 && r.Y1 < o.Y2 && o.Y1 < r.Y2
}

// Overlaps reports whether cards placed at a and b overlap.
func Overlaps(a, b Position) bool {
	return CardRect(a).Intersects(CardRect(b))
}

// overlapsAny reports whether a card at p overlaps any card in existing.
func overlapsAny(p Position, existing []Position) bool {
	for _, e := range existing {
		if Overlaps(p, e) {
			return true
		}
	}
	return false
}

// =============================================================================
// Anchors
// =============================================================================

// Anchor is a coarse placement hint for a card.
type Anchor string

// Supported anchors.
const (
	TopLeft     Anchor = "top-left"
	TopRight    Anchor = "top-right"
	BottomLeft  Anchor = "bottom-left"
	BottomRight Anchor = "bottom-right"
	Center      Anchor = "center"
)

// DefaultAnchor is used when no hint, or an unknown hint, is given.
const DefaultAnchor = TopRight

// Anchors lists every supported anchor.
var Anchors = []Anchor{TopLeft, TopRight, BottomLeft, BottomRight, Center}

// fallbackOrder is the corner search order once the hinted anchor is taken.
var fallbackOrder = [...]Anchor{TopRight, TopLeft, BottomRight, BottomLeft}

// Valid reports whether a is one of the supported anchors.
func (a Anchor) Valid() bool {
	switch a {
	case TopLeft, TopRight, BottomLeft, BottomRight, Center:
		return true
	}
	return false
}

// OrDefault returns a, or [DefaultAnchor] if a is not valid.
func (a Anchor) OrDefault() Anchor {
	if a.Valid() {
		return a
	}
	return DefaultAnchor
}

// ParseAnchor converts a hint string into an Anchor.
// Matching ignores case and surrounding whitespace, and accepts underscores
// or spaces in place of the dash ("top_right", "Top Right").
func ParseAnchor(s string) (Anchor, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	a := Anchor(s)
	return a, a.Valid()
}

// AnchorPosition returns the card position for anchor a within vp.
// Invalid anchors resolve to [DefaultAnchor].
func AnchorPosition(vp Viewport, a Anchor) Position {
	right := vp.Width - CardWidth - Padding
	bottom := vp.Height - CardHeight - Padding

	switch a.OrDefault() {
	case TopLeft:
		return Position{X: Padding, Y: Padding}
	case BottomLeft:
		return Position{X: Padding, Y: bottom}
	case BottomRight:
		return Position{X: right, Y: bottom}
	case Center:
		return Position{X: (vp.Width - CardWidth) / 2, Y: (vp.Height - CardHeight) / 2}
	default:
		return Position{X: right, Y: Padding}
	}
}
