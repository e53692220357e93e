package geometry

// Unplaced returns the position used when no viewport is available.
func Unplaced() Position {
	return Position{X: Padding, Y: Padding}
}

// Place computes the position of a new card so that it avoids the cards at
// existing, on a best-effort basis.
//
// The hinted anchor wins if it is free. Otherwise the corners are tried in
// the order top-right, top-left, bottom-right, bottom-left. If all of them
// are taken the card is stacked below the last element of existing. With a
// nil viewport Place returns [Unplaced] regardless of the hint.
//
// Place does not modify existing.
func Place(vp *Viewport, hint Anchor, existing []Position) Position {
	if vp == nil {
		return Unplaced()
	}

	preferred := AnchorPosition(*vp, hint)
	if !overlapsAny(preferred, existing) {
		return preferred
	}

	for _, a := range fallbackOrder {
		if p := AnchorPosition(*vp, a); !overlapsAny(p, existing) {
			return p
		}
	}

	if n := len(existing); n > 0 {
		last := existing[n-1]
		return Position{X: last.X, Y: last.Y + CardHeight + Gap}
	}

	// Unreachable: with nothing placed the preferred anchor cannot overlap.
	return preferred
}
