// Package geometry places annotation cards over a canvas viewport.
//
// Every card has the same fixed size ([CardWidth] x [CardHeight]) and is kept
// [Padding] pixels away from the viewport edges. Coordinates are viewport
// screen pixels, not canvas (page) coordinates; converting to the canvas
// coordinate space is the job of the canvas collaborator.
//
// # Anchors
//
// A placement hint names one of five anchors:
//
//	top-left      (P, P)
//	top-right     (W - CW - P, P)
//	bottom-left   (P, H - CH - P)
//	bottom-right  (W - CW - P, H - CH - P)
//	center        ((W - CW) / 2, (H - CH) / 2)
//
// An empty or unknown hint means top-right.
//
// # Placement
//
// [Place] tries the hinted anchor first, then the four corners in the fixed
// order top-right, top-left, bottom-right, bottom-left. Center is only ever
// reached through an explicit hint. When every corner is taken the card is
// stacked [Gap] pixels below the most recently placed card. This is a
// best-effort search, not a constraint solver: stacked cards may run off the
// bottom of the viewport, and tiny viewports yield negative coordinates.
//
// Two cards overlap only if they share a region of positive area. Cards whose
// edges exactly touch are considered separate.
//
// # Usage
//
//	vp := &geometry.Viewport{Width: 1000, Height: 800}
//	var placed []geometry.Position
//	for _, hint := range hints {
//	    placed = append(placed, geometry.Place(vp, hint, placed))
//	}
//
// A nil viewport (canvas not mounted yet) always yields (Padding, Padding).
package geometry
