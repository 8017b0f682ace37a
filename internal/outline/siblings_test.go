package outline

import (
	"testing"

	"folio/internal/engine"
)

func TestMoveHintsSiblingBuckets(t *testing.T) {
	hints := MoveHints([]engine.FileHeading{
		h(1, 1, "A"),
		h(2, 2, "B"),
		h(3, 2, "C"),
		h(4, 1, "D"),
	})

	b := hints[2]
	if b.HasPrevSibling {
		t.Errorf("B should have no previous sibling")
	}
	if !b.HasNextSibling || b.NextSibling != 3 {
		t.Errorf("B.down = %v/%d, want C (3)", b.HasNextSibling, b.NextSibling)
	}

	c := hints[3]
	if !c.HasPrevSibling || c.PrevSibling != 2 {
		t.Errorf("C.up = %v/%d, want B (2)", c.HasPrevSibling, c.PrevSibling)
	}
	if c.HasNextSibling {
		t.Errorf("C should have no next sibling")
	}

	// A and D share the root bucket.
	a, d := hints[1], hints[4]
	if a.HasPrevSibling {
		t.Errorf("A.up should be absent")
	}
	if !a.HasNextSibling || a.NextSibling != 4 {
		t.Errorf("A.down = %v/%d, want D (4)", a.HasNextSibling, a.NextSibling)
	}
	if !d.HasPrevSibling || d.PrevSibling != 1 {
		t.Errorf("D.up = %v/%d, want A (1)", d.HasPrevSibling, d.PrevSibling)
	}
	if d.HasNextSibling {
		t.Errorf("D.down should be absent")
	}
}

func TestMoveHintsSeparatesLevelsUnderSameParent(t *testing.T) {
	// The nested H3 lands in its own bucket; the two H2s around it remain
	// adjacent siblings.
	hints := MoveHints([]engine.FileHeading{
		h(1, 1, "parent"),
		h(2, 2, "x"),
		h(3, 3, "y"),
		h(4, 2, "z"),
	})

	x := hints[2]
	if !x.HasNextSibling || x.NextSibling != 4 {
		t.Errorf("x.down = %v/%d, want z (4)", x.HasNextSibling, x.NextSibling)
	}
	y := hints[3]
	if y.HasPrevSibling || y.HasNextSibling {
		t.Errorf("y is alone in its bucket, got %+v", y)
	}
}
