package placement

import (
	"context"
	"testing"

	"github.com/matzehuels/socraticboard/pkg/annotation"
	"github.com/matzehuels/socraticboard/pkg/geometry"
)

func add(r *annotation.Registry, id string, hint geometry.Anchor) {
	r.AddPending(annotation.Annotation{ID: id, Kind: annotation.KindQuestion, Text: id, PositionHint: hint})
}

func pos(t *testing.T, r *annotation.Registry, id string) geometry.Position {
	t.Helper()
	p, ok := r.Position(id)
	if !ok {
		t.Fatalf("annotation %s has no position", id)
	}
	return p
}

func TestRunIncrementalArrivals(t *testing.T) {
	ctx := context.Background()
	vp := &geometry.Viewport{Width: 1000, Height: 800}
	r := annotation.NewRegistry()
	c := New(r)

	add(r, "A", "")
	c.Run(ctx, vp)
	add(r, "B", geometry.TopRight)
	c.Run(ctx, vp)
	add(r, "C", "")
	res := c.Run(ctx, vp)

	if len(res.Placed) != 1 || res.Placed[0] != "C" {
		t.Errorf("third pass placed %v, want [C]", res.Placed)
	}

	want := map[string]geometry.Position{
		"A": {X: 700, Y: 20},
		"B": {X: 20, Y: 20},
		"C": {X: 700, Y: 660},
	}
	for id, w := range want {
		if got := pos(t, r, id); got != w {
			t.Errorf("%s = %v, want %v", id, got, w)
		}
	}
}

func TestRunBatchMatchesIncremental(t *testing.T) {
	ctx := context.Background()
	vp := &geometry.Viewport{Width: 1000, Height: 800}
	r := annotation.NewRegistry()
	c := New(r)

	add(r, "A", "")
	add(r, "B", geometry.TopRight)
	add(r, "C", "")
	res := c.Run(ctx, vp)

	if len(res.Placed) != 3 || res.Pending != 3 {
		t.Fatalf("Run() = %+v", res)
	}
	if got := pos(t, r, "C"); got != (geometry.Position{X: 700, Y: 660}) {
		t.Errorf("C = %v", got)
	}
}

func TestRunIdempotent(t *testing.T) {
	ctx := context.Background()
	vp := &geometry.Viewport{Width: 1000, Height: 800}
	r := annotation.NewRegistry()
	c := New(r)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		add(r, id, "")
	}
	c.Run(ctx, vp)
	before := map[string]geometry.Position{}
	for _, a := range r.Pending() {
		before[a.ID] = pos(t, r, a.ID)
	}

	res := c.Run(ctx, vp)
	if len(res.Placed) != 0 {
		t.Errorf("second pass placed %v", res.Placed)
	}
	for id, p := range before {
		if got := pos(t, r, id); got != p {
			t.Errorf("%s moved from %v to %v", id, p, got)
		}
	}
}

func TestRunStableAcrossViewportChange(t *testing.T) {
	ctx := context.Background()
	r := annotation.NewRegistry()
	c := New(r)

	add(r, "a", "")
	c.Run(ctx, &geometry.Viewport{Width: 1000, Height: 800})
	c.Run(ctx, &geometry.Viewport{Width: 1600, Height: 900})

	if got := pos(t, r, "a"); got != (geometry.Position{X: 700, Y: 20}) {
		t.Errorf("a moved on resize: %v", got)
	}

	add(r, "b", "")
	c.Run(ctx, &geometry.Viewport{Width: 1600, Height: 900})
	if got := pos(t, r, "b"); got != (geometry.Position{X: 1300, Y: 20}) {
		t.Errorf("b = %v, want new viewport's top-right", got)
	}
}

func TestRunWithoutViewport(t *testing.T) {
	ctx := context.Background()
	r := annotation.NewRegistry()
	c := New(r)

	add(r, "early", geometry.BottomRight)
	c.Run(ctx, nil)
	if got := pos(t, r, "early"); got != geometry.Unplaced() {
		t.Errorf("early = %v, want %v", got, geometry.Unplaced())
	}

	// Once the viewport exists only newcomers use it; early stays frozen.
	add(r, "late", "")
	c.Run(ctx, &geometry.Viewport{Width: 1000, Height: 800})
	if got := pos(t, r, "early"); got != geometry.Unplaced() {
		t.Errorf("early moved to %v", got)
	}
	if got := pos(t, r, "late"); got != (geometry.Position{X: 700, Y: 20}) {
		t.Errorf("late = %v", got)
	}
}

func TestRunAfterRemoval(t *testing.T) {
	ctx := context.Background()
	vp := &geometry.Viewport{Width: 1000, Height: 800}
	r := annotation.NewRegistry()
	c := New(r)

	add(r, "a", "")
	add(r, "b", "")
	c.Run(ctx, vp)
	r.RemovePending("a")

	add(r, "c", "")
	c.Run(ctx, vp)
	if got := pos(t, r, "c"); got != (geometry.Position{X: 700, Y: 20}) {
		t.Errorf("c = %v, want freed top-right slot", got)
	}
}

func TestRunNoOverlapForCorners(t *testing.T) {
	ctx := context.Background()
	vp := &geometry.Viewport{Width: 1200, Height: 900}
	r := annotation.NewRegistry()
	c := New(r)

	for _, id := range []string{"1", "2", "3", "4"} {
		add(r, id, "")
	}
	c.Run(ctx, vp)

	pending := r.Pending()
	for i := range pending {
		for j := i + 1; j < len(pending); j++ {
			a, b := pos(t, r, pending[i].ID), pos(t, r, pending[j].ID)
			if geometry.Overlaps(a, b) {
				t.Errorf("%s %v overlaps %s %v", pending[i].ID, a, pending[j].ID, b)
			}
		}
	}
}
