package entity

// Rect is a plain geometry rectangle with no border, used for monitor
// base/viewport areas.
type Rect struct {
	X, Y int32
	W, H uint32
}

// Area reports the rectangle's area, used by the viewport-bound property.
func (r Rect) Area() int64 { return int64(r.W) * int64(r.H) }

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+int32(o.W) && o.X < r.X+int32(r.W) &&
		r.Y < o.Y+int32(o.H) && o.Y < r.Y+int32(r.H)
}

// Monitor is a rectangular output region, as reported by RandR.
type Monitor struct {
	ID      uint32
	Primary bool

	Base     Rect
	Viewport Rect

	WorkspaceIndex int // -1 == unassigned
}

// NewMonitor returns a monitor whose viewport starts equal to its base.
func NewMonitor(id uint32, primary bool, base Rect) *Monitor {
	return &Monitor{ID: id, Primary: primary, Base: base, Viewport: base, WorkspaceIndex: NoWorkspace}
}
