package viewport

import (
	"errors"
	"fmt"

	"github.com/inksign/inksign/internal/field"
)

// ErrDragActive is returned when a drag start arrives while another field
// is already being dragged.
var ErrDragActive = errors.New("another field drag is already in progress")

// DragController turns pointer-down/move/up sequences on a placed field
// into position updates on the field store, clamped so the field never
// leaves the page.
//
// It is a two-state machine, Idle and Dragging; Idle is both the initial
// and the terminal state and only one field may be dragged at a time.
type DragController struct {
	draggingIndex int
	dragOffset    Point
}

// NewDragController returns an idle controller.
func NewDragController() *DragController {
	return &DragController{draggingIndex: -1}
}

// Dragging reports whether a drag is in progress and for which index.
func (c *DragController) Dragging() (int, bool) {
	return c.draggingIndex, c.draggingIndex >= 0
}

// Start begins dragging the field at index. The pointer position and the
// field's on-screen box are both in viewer pixels; the offset of the
// pointer within the box is captured so the field does not jump under the
// cursor.
func (c *DragController) Start(index int, pointer Point, fieldBox Rect) error {
	if c.draggingIndex >= 0 {
		return ErrDragActive
	}
	if index < 0 {
		return fmt.Errorf("invalid drag index: %d", index)
	}
	c.draggingIndex = index
	c.dragOffset = Point{
		X: pointer.X - fieldBox.Left,
		Y: pointer.Y - fieldBox.Top,
	}
	return nil
}

// Move repositions the dragged field from the current pointer position,
// relative to the container, and applies a position-only update to the
// store. The new position is clamped so the field's right and bottom edges
// stay within the page. Returns false when no drag is active.
func (c *DragController) Move(pointer Point, container Rect, st *field.Store) (bool, error) {
	if c.draggingIndex < 0 {
		return false, nil
	}

	f, err := st.At(c.draggingIndex)
	if err != nil {
		// The dragged field disappeared under us; abandon the drag.
		c.draggingIndex = -1
		return false, err
	}

	x := (pointer.X - c.dragOffset.X - container.Left) / container.Width * 100
	y := (pointer.Y - c.dragOffset.Y - container.Top) / container.Height * 100

	// Width and height live in device pixels at the fixed reference page
	// size, so the percentage footprint is derived from that reference.
	widthPct := f.Width / ReferenceWidth * 100
	heightPct := f.Height / ReferenceHeight * 100

	x = clamp(x, 0, 100-widthPct)
	y = clamp(y, 0, 100-heightPct)

	if err := st.UpdateAt(c.draggingIndex, field.Update{XPosition: &x, YPosition: &y}); err != nil {
		return false, err
	}
	return true, nil
}

// End terminates the drag on pointer-up or when the pointer leaves the
// container. Safe to call while idle.
func (c *DragController) End() {
	c.draggingIndex = -1
	c.dragOffset = Point{}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
