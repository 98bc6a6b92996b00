package viewport

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ViewState holds the camera state of one 3D view region: the current
// view rotation (a unit quaternion mapping camera space to world space)
// and the world-space pivot point the camera orbits around. The state is
// mutated in place; rotation updates compose onto the existing quaternion
// rather than replacing it.
type ViewState struct {
	Rotation quat.Number // unit quaternion
	Location r3.Vec      // orbit pivot, world space
}

// Identity returns a view state at the origin, looking along the default
// axes.
func Identity() ViewState {
	return ViewState{Rotation: quat.Number{Real: 1}}
}

// View is one host-managed 3D view region.
type View interface {
	// State returns the view's camera state, mutable in place.
	State() *ViewState

	// TagRedraw marks the view as needing a redraw.
	TagRedraw()
}

// Host is the collaborator that locates the active 3D view. A real host
// (the viewport application) walks its window/region tree; MemoryHost is
// the in-process stand-in.
type Host interface {
	// FirstView3D returns the first visible 3D view region, or false if
	// none is visible right now.
	FirstView3D() (View, bool)
}

// MemoryHost is an in-process Host with a single view whose visibility
// can be toggled. It serves the demo binary and the scheduler tests; the
// redraw counter stands in for the host's actual repaint.
type MemoryHost struct {
	visible bool
	view    memoryView
}

type memoryView struct {
	state   ViewState
	redraws int
}

// NewMemoryHost returns a host with one visible view in the identity state.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		visible: true,
		view:    memoryView{state: Identity()},
	}
}

// FirstView3D returns the single view while it is visible.
func (h *MemoryHost) FirstView3D() (View, bool) {
	if !h.visible {
		return nil, false
	}
	return &h.view, true
}

// SetVisible shows or hides the view, simulating the host's 3D region
// appearing or going away mid-session.
func (h *MemoryHost) SetVisible(visible bool) {
	h.visible = visible
}

// Snapshot returns a copy of the view state and the redraw count.
func (h *MemoryHost) Snapshot() (ViewState, int) {
	return h.view.state, h.view.redraws
}

func (v *memoryView) State() *ViewState { return &v.state }

func (v *memoryView) TagRedraw() { v.redraws++ }
