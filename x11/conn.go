// Package x11 mediates every interaction with the X server. The rest of
// the module treats it as an opaque, serially-consistent RPC endpoint
// (§1, §6.1): callers issue requests through the Conn interface and
// never touch xgb directly, which is what makes the core testable
// against the x11test fake.
package x11

import (
	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/keysym"
	"github.com/patrislav/marwind/rules"
)

// ConfigureMask selects which fields of a ConfigureWindow call apply.
type ConfigureMask uint16

const (
	ConfigX ConfigureMask = 1 << iota
	ConfigY
	ConfigWidth
	ConfigHeight
	ConfigBorderWidth
	ConfigSibling
	ConfigStackMode
)

// ConfigureValues holds the subset of fields ConfigureMask selects.
type ConfigureValues struct {
	X, Y          int32
	W, H          uint32
	BorderWidth   uint32
	Sibling       xproto.Window
	StackMode     uint8
}

// Rect is a plain rectangle, used for monitor geometry.
type Rect struct {
	X, Y int32
	W, H uint32
}

// WindowAttributes is the subset of XGetWindowAttributes the core reads.
type WindowAttributes struct {
	OverrideRedirect bool
	MapState         uint8
}

// Event is the normalized union of everything the pump can receive: an
// X event code, an XGE sub-type (already offset into the generic band
// by the transport), or a RandR screen-change notification. Exactly one
// of Raw's concrete types is populated.
type Event struct {
	Kind      rules.Kind
	Window    xproto.Window
	Synthetic bool
	Raw       interface{}
}

// Conn is every X capability the core depends on (§6.1). A single
// implementation backs production use (xgbConn, driven by jezek/xgb);
// x11test.Fake backs tests.
type Conn interface {
	// Core window operations
	QueryTree(win xproto.Window) ([]xproto.Window, error)
	GetWindowAttributes(win xproto.Window) (WindowAttributes, error)
	ChangeWindowAttributesEventMask(win xproto.Window, mask uint32) error
	GetProperty(win xproto.Window, atom xproto.Atom, long uint32) ([]byte, xproto.Atom, error)
	ChangeProperty(win xproto.Window, atom, typ xproto.Atom, format uint8, data []byte) error
	DeleteProperty(win xproto.Window, atom xproto.Atom) error
	MapWindow(win xproto.Window) error
	UnmapWindow(win xproto.Window) error
	DestroyWindow(win xproto.Window) error
	ReparentWindow(win, parent xproto.Window, x, y int16) error
	AddToSaveSet(win xproto.Window) error
	ConfigureWindow(win xproto.Window, mask ConfigureMask, values ConfigureValues) error
	SetBorderColor(win xproto.Window, color uint32) error
	CreateWindow(parent xproto.Window, geom Rect, eventMask uint32) (xproto.Window, error)
	SendConfigureNotify(win xproto.Window, geom Rect, border uint16) error

	// Input extension
	SelectInputEvents(win xproto.Window, mask uint32) error
	GrabKey(root xproto.Window, mods uint16, keycode xproto.Keycode) error
	UngrabKey(root xproto.Window, mods uint16, keycode xproto.Keycode) error
	GrabButton(win xproto.Window, mods uint16, button xproto.Button) error
	UngrabButton(win xproto.Window, mods uint16, button xproto.Button) error
	GrabDevice(deviceID xproto.Window) error
	UngrabDevice(deviceID xproto.Window) error
	WarpPointer(x, y int16) error
	SetInputFocus(win xproto.Window, t xproto.Timestamp) error
	QueryPointer(win xproto.Window) (x, y int16, err error)
	QueryDeviceHierarchy() ([]DeviceInfo, error)

	// Selection / client messages
	GetSelectionOwner(atom xproto.Atom) (xproto.Window, error)
	SetSelectionOwner(win xproto.Window, atom xproto.Atom, t xproto.Timestamp) error
	SendClientMessage(win xproto.Window, msgType xproto.Atom, data [5]uint32) error

	// RandR
	SelectScreenChangeNotify(root xproto.Window) error
	QueryMonitors(root xproto.Window) ([]MonitorInfo, error)

	// Keyboard mapping
	KeyMapping() (keysym.Keymap, error)

	// Root/screen
	RootWindow() xproto.Window
	ScreenSize() (w, h uint32)
	Atom(name string) xproto.Atom
	AtomName(a xproto.Atom) string

	// Event loop plumbing
	WaitForEvent() (Event, error)
	PollForEvent() (Event, bool, error)
	Flush() error
	Close()
}

// DeviceInfo is a master or slave device as reported by the input
// extension's hierarchy query.
type DeviceInfo struct {
	ID         xproto.Window
	Name       string
	IsMaster   bool
	IsPointer  bool
	Attachment xproto.Window // master id for slaves, paired pointer/keyboard id for masters
	IsTest     bool
}

// MonitorInfo is a single RandR-reported output rectangle.
type MonitorInfo struct {
	ID      uint32
	Primary bool
	Rect    Rect
}
