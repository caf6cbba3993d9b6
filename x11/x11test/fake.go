// Package x11test is a call-recording double for x11.Conn. It keeps
// enough state (properties, selection ownership, queued events) to let
// package core's integration tests drive the event pump end-to-end
// without a real X server.
package x11test

import (
	"fmt"

	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/keysym"
	"github.com/patrislav/marwind/x11"
)

// Fake implements x11.Conn in memory.
type Fake struct {
	root xproto.Window
	w, h uint32

	nextID xproto.Window

	properties map[xproto.Window]map[xproto.Atom][]byte
	propTypes  map[xproto.Window]map[xproto.Atom]xproto.Atom
	attrs      map[xproto.Window]x11.WindowAttributes
	children   map[xproto.Window][]xproto.Window
	geometry   map[xproto.Window]x11.ConfigureValues

	selections map[xproto.Atom]xproto.Window
	atoms      map[string]xproto.Atom
	atomNames  map[xproto.Atom]string
	nextAtom   xproto.Atom

	monitors []x11.MonitorInfo
	devices  []x11.DeviceInfo
	keymap   keysym.Keymap

	queue []x11.Event

	// Calls records every mutating call, in order, for assertions —
	// e.g. "ConfigureWindow:5", "MapWindow:7".
	Calls []string
}

// New returns a fake X connection with a root window sized w×h.
func New(w, h uint32) *Fake {
	f := &Fake{
		root:       1,
		w:          w,
		h:          h,
		nextID:     100,
		properties: map[xproto.Window]map[xproto.Atom][]byte{},
		propTypes:  map[xproto.Window]map[xproto.Atom]xproto.Atom{},
		attrs:      map[xproto.Window]x11.WindowAttributes{},
		children:   map[xproto.Window][]xproto.Window{},
		geometry:   map[xproto.Window]x11.ConfigureValues{},
		selections: map[xproto.Atom]xproto.Window{},
		atoms:      map[string]xproto.Atom{},
		atomNames:  map[xproto.Atom]string{},
		nextAtom:   1,
	}
	return f
}

// QueueEvent appends an already-normalized event, consumed in FIFO
// order by WaitForEvent/PollForEvent.
func (f *Fake) QueueEvent(ev x11.Event) { f.queue = append(f.queue, ev) }

// SetMonitors configures what QueryMonitors returns.
func (f *Fake) SetMonitors(m []x11.MonitorInfo) { f.monitors = m }

// SetDevices configures what QueryDeviceHierarchy returns.
func (f *Fake) SetDevices(d []x11.DeviceInfo) { f.devices = d }

// SetKeyMapping configures what KeyMapping returns.
func (f *Fake) SetKeyMapping(km keysym.Keymap) { f.keymap = km }

// NewWindowID allocates a fresh window id the way xproto.NewWindowId
// would on a real connection.
func (f *Fake) NewWindowID() xproto.Window {
	f.nextID++
	return f.nextID
}

// Geometry returns the last ConfigureWindow values applied to win.
func (f *Fake) Geometry(win xproto.Window) x11.ConfigureValues { return f.geometry[win] }

// SetAttrs pre-seeds the attributes GetWindowAttributes returns for win.
func (f *Fake) SetAttrs(win xproto.Window, attrs x11.WindowAttributes) { f.attrs[win] = attrs }

func (f *Fake) record(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) QueryTree(win xproto.Window) ([]xproto.Window, error) {
	return f.children[win], nil
}

func (f *Fake) GetWindowAttributes(win xproto.Window) (x11.WindowAttributes, error) {
	return f.attrs[win], nil
}

func (f *Fake) ChangeWindowAttributesEventMask(win xproto.Window, mask uint32) error {
	f.record("SelectEvents:%d:%d", win, mask)
	return nil
}

func (f *Fake) GetProperty(win xproto.Window, atom xproto.Atom, long uint32) ([]byte, xproto.Atom, error) {
	if p, ok := f.properties[win]; ok {
		return p[atom], f.propTypes[win][atom], nil
	}
	return nil, 0, nil
}

func (f *Fake) ChangeProperty(win xproto.Window, atom, typ xproto.Atom, format uint8, data []byte) error {
	if f.properties[win] == nil {
		f.properties[win] = map[xproto.Atom][]byte{}
		f.propTypes[win] = map[xproto.Atom]xproto.Atom{}
	}
	f.properties[win][atom] = data
	f.propTypes[win][atom] = typ
	f.record("ChangeProperty:%d:%s", win, f.atomNames[atom])
	return nil
}

func (f *Fake) DeleteProperty(win xproto.Window, atom xproto.Atom) error {
	delete(f.properties[win], atom)
	return nil
}

func (f *Fake) MapWindow(win xproto.Window) error {
	a := f.attrs[win]
	a.MapState = 2 // xproto.MapStateViewable
	f.attrs[win] = a
	f.record("MapWindow:%d", win)
	return nil
}

func (f *Fake) UnmapWindow(win xproto.Window) error {
	a := f.attrs[win]
	a.MapState = 0
	f.attrs[win] = a
	f.record("UnmapWindow:%d", win)
	return nil
}

func (f *Fake) DestroyWindow(win xproto.Window) error {
	delete(f.attrs, win)
	delete(f.geometry, win)
	f.record("DestroyWindow:%d", win)
	return nil
}

func (f *Fake) ReparentWindow(win, parent xproto.Window, x, y int16) error {
	f.record("ReparentWindow:%d:%d", win, parent)
	return nil
}

func (f *Fake) AddToSaveSet(win xproto.Window) error { return nil }

func (f *Fake) ConfigureWindow(win xproto.Window, mask x11.ConfigureMask, values x11.ConfigureValues) error {
	cur := f.geometry[win]
	if mask&x11.ConfigX != 0 {
		cur.X = values.X
	}
	if mask&x11.ConfigY != 0 {
		cur.Y = values.Y
	}
	if mask&x11.ConfigWidth != 0 {
		cur.W = values.W
	}
	if mask&x11.ConfigHeight != 0 {
		cur.H = values.H
	}
	if mask&x11.ConfigBorderWidth != 0 {
		cur.BorderWidth = values.BorderWidth
	}
	f.geometry[win] = cur
	f.record("ConfigureWindow:%d", win)
	return nil
}

func (f *Fake) SetBorderColor(win xproto.Window, color uint32) error {
	f.record("SetBorderColor:%d:%x", win, color)
	return nil
}

func (f *Fake) CreateWindow(parent xproto.Window, geom x11.Rect, eventMask uint32) (xproto.Window, error) {
	id := f.NewWindowID()
	f.attrs[id] = x11.WindowAttributes{}
	f.geometry[id] = x11.ConfigureValues{X: geom.X, Y: geom.Y, W: geom.W, H: geom.H}
	f.record("CreateWindow:%d", id)
	return id, nil
}

func (f *Fake) SendConfigureNotify(win xproto.Window, geom x11.Rect, border uint16) error {
	f.record("SendConfigureNotify:%d", win)
	return nil
}

func (f *Fake) SelectInputEvents(win xproto.Window, mask uint32) error {
	f.record("SelectInputEvents:%d:%d", win, mask)
	return nil
}

func (f *Fake) GrabKey(root xproto.Window, mods uint16, keycode xproto.Keycode) error {
	f.record("GrabKey:%d:%d", mods, keycode)
	return nil
}

func (f *Fake) UngrabKey(root xproto.Window, mods uint16, keycode xproto.Keycode) error {
	f.record("UngrabKey:%d:%d", mods, keycode)
	return nil
}

func (f *Fake) GrabButton(win xproto.Window, mods uint16, button xproto.Button) error {
	f.record("GrabButton:%d:%d", mods, button)
	return nil
}

func (f *Fake) UngrabButton(win xproto.Window, mods uint16, button xproto.Button) error {
	f.record("UngrabButton:%d:%d", mods, button)
	return nil
}

func (f *Fake) GrabDevice(deviceID xproto.Window) error {
	f.record("GrabDevice:%d", deviceID)
	return nil
}

func (f *Fake) UngrabDevice(deviceID xproto.Window) error {
	f.record("UngrabDevice:%d", deviceID)
	return nil
}

func (f *Fake) WarpPointer(x, y int16) error {
	f.record("WarpPointer:%d:%d", x, y)
	return nil
}

func (f *Fake) SetInputFocus(win xproto.Window, t xproto.Timestamp) error {
	f.record("SetInputFocus:%d", win)
	return nil
}

func (f *Fake) QueryPointer(win xproto.Window) (int16, int16, error) { return 0, 0, nil }

func (f *Fake) QueryDeviceHierarchy() ([]x11.DeviceInfo, error) { return f.devices, nil }

func (f *Fake) GetSelectionOwner(atom xproto.Atom) (xproto.Window, error) {
	return f.selections[atom], nil
}

func (f *Fake) SetSelectionOwner(win xproto.Window, atom xproto.Atom, t xproto.Timestamp) error {
	f.selections[atom] = win
	f.record("SetSelectionOwner:%d:%d", atom, win)
	return nil
}

func (f *Fake) SendClientMessage(win xproto.Window, msgType xproto.Atom, data [5]uint32) error {
	f.record("SendClientMessage:%d:%s", win, f.atomNames[msgType])
	return nil
}

func (f *Fake) SelectScreenChangeNotify(root xproto.Window) error { return nil }

func (f *Fake) QueryMonitors(root xproto.Window) ([]x11.MonitorInfo, error) { return f.monitors, nil }

func (f *Fake) KeyMapping() (keysym.Keymap, error) { return f.keymap, nil }

func (f *Fake) RootWindow() xproto.Window { return f.root }

func (f *Fake) ScreenSize() (uint32, uint32) { return f.w, f.h }

func (f *Fake) Atom(name string) xproto.Atom {
	if a, ok := f.atoms[name]; ok {
		return a
	}
	f.nextAtom++
	f.atoms[name] = f.nextAtom
	f.atomNames[f.nextAtom] = name
	return f.nextAtom
}

func (f *Fake) AtomName(a xproto.Atom) string { return f.atomNames[a] }

func (f *Fake) WaitForEvent() (x11.Event, error) {
	if len(f.queue) == 0 {
		return x11.Event{}, fmt.Errorf("x11test: no queued events")
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, nil
}

func (f *Fake) PollForEvent() (x11.Event, bool, error) {
	if len(f.queue) == 0 {
		return x11.Event{}, false, nil
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, true, nil
}

func (f *Fake) Flush() error { return nil }

func (f *Fake) Close() {}

var _ x11.Conn = (*Fake)(nil)
