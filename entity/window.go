package entity

import "github.com/jezek/xgb/xproto"

// NoWorkspace is the sentinel workspace index meaning "not assigned".
const NoWorkspace = -1

// Strut describes the space a dock window reserves on a monitor edge,
// mirroring xcb_ewmh_wm_strut_partial_t's begin/end range semantics.
type Strut struct {
	Left, Right, Top, Bottom         uint32
	LeftStartY, LeftEndY             uint32
	RightStartY, RightEndY           uint32
	TopStartX, TopEndX               uint32
	BottomStartX, BottomEndX         uint32
}

// Empty reports whether the strut reserves no space at all.
func (s Strut) Empty() bool {
	return s.Left == 0 && s.Right == 0 && s.Top == 0 && s.Bottom == 0
}

// Geometry is a window or monitor rectangle plus border width.
type Geometry struct {
	X, Y          int32
	W, H          uint32
	Border        uint32
}

// TilingOverride lets a window opt out of values a layout would
// otherwise compute, mirroring the original's per-window "config" array.
type TilingOverride struct {
	X, Y, W, H, Border *int32
}

// Window is a managed X resource. Fields mirror original_source's
// WindowInfo; ids are always resolved through the Registry.
type Window struct {
	ID       xproto.Window
	Parent   xproto.Window

	Geometry Geometry
	Override TilingOverride

	Mask WindowMask

	TypeAtom  xproto.Atom
	TypeName  string
	Class     string
	Instance  string
	Title     string

	TransientFor xproto.Window
	GroupID      xproto.Window

	Dock       bool
	Strut      Strut
	OnlyOnPrimary bool

	WorkspaceIndex int

	RequestedEventMask uint32
	EffectiveEventMask uint32

	GeometryLock int

	// TransientConfigureFailure is set when a configure/map call was
	// rejected by X; the tiling driver retries such windows next cycle.
	TransientConfigureFailure bool

	FocusTimestamp uint32
}

// NewWindow returns a Window with its workspace unset, matching
// createWindowInfo's NO_WORKSPACE default.
func NewWindow(id xproto.Window) *Window {
	return &Window{ID: id, WorkspaceIndex: NoWorkspace, Mask: MaskMappable}
}

// Locked reports whether external geometry updates are currently forbidden.
func (w *Window) Locked() bool { return w.GeometryLock > 0 }
