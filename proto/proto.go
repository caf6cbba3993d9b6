// Package proto is the EWMH/ICCCM external-protocol adapter: it owns
// the WM_Sn selection, maintains the root's _NET_* properties, persists
// per-window desktop/state properties, and answers client messages
// (§6.2, §7).
package proto

import (
	"encoding/binary"
	"fmt"

	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/x11"
)

// ErrSelectionOwned is returned by ClaimSelection when another WM
// already owns WM_Sn and StealSelection is false.
type ErrSelectionOwned struct{ Owner xproto.Window }

func (e ErrSelectionOwned) Error() string {
	return fmt.Sprintf("proto: WM_Sn already owned by window %d", e.Owner)
}

// SourceIndication is the high nibble of a client message's data[0],
// classifying who originated the request.
type SourceIndication uint8

const (
	SourceNone        SourceIndication = 0
	SourceApplication SourceIndication = 1
	SourcePager       SourceIndication = 2
)

// Mask builds the bit this source sets in an allowed-source mask.
func (s SourceIndication) Mask() uint8 { return 1 << s }

// Adapter wires entity.Registry state onto the wire-visible EWMH/ICCCM
// surface. It holds no protocol state of its own beyond the private
// check window and the selection atom — everything else is read
// straight from the registry on demand.
type Adapter struct {
	reg  *entity.Registry
	conn x11.Conn
	log  *logrus.Logger

	screenNum        int
	checkWindow      xproto.Window
	srcIndicationMask uint8
	masksToSync      entity.WindowMask
}

// New returns an adapter. srcIndicationMask allows every bit set in it;
// masksToSync is the WindowMask subset mirrored into _NET_WM_STATE.
func New(reg *entity.Registry, conn x11.Conn, screenNum int, srcIndicationMask uint8, masksToSync entity.WindowMask, log *logrus.Logger) *Adapter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{reg: reg, conn: conn, screenNum: screenNum, srcIndicationMask: srcIndicationMask, masksToSync: masksToSync, log: log}
}

// ClaimSelection owns WM_Sn for the adapter's screen, creates the
// _NET_SUPPORTING_WM_CHECK private window, and broadcasts the standard
// claim message to the root. If another window already owns the
// selection, it returns ErrSelectionOwned unless steal is true.
func (a *Adapter) ClaimSelection(steal bool) error {
	root := a.conn.RootWindow()
	selAtom := a.conn.Atom(fmt.Sprintf("WM_S%d", a.screenNum))

	if owner, err := a.conn.GetSelectionOwner(selAtom); err == nil && owner != 0 && !steal {
		return ErrSelectionOwned{Owner: owner}
	}

	check, err := a.conn.CreateWindow(root, x11.Rect{W: 1, H: 1}, 0)
	if err != nil {
		return fmt.Errorf("proto: creating check window: %w", err)
	}
	a.checkWindow = check

	checkAtom := a.conn.Atom("_NET_SUPPORTING_WM_CHECK")
	nameAtom := a.conn.Atom("_NET_WM_NAME")
	utf8Atom := a.conn.Atom("UTF8_STRING")

	if err := a.writeWindow(check, checkAtom, check); err != nil {
		return err
	}
	if err := a.writeWindow(root, checkAtom, check); err != nil {
		return err
	}
	if err := a.conn.ChangeProperty(check, nameAtom, utf8Atom, 8, []byte("marwind")); err != nil {
		return err
	}

	if err := a.conn.SetSelectionOwner(check, selAtom, 0); err != nil {
		return fmt.Errorf("proto: claiming selection: %w", err)
	}

	managerAtom := a.conn.Atom("MANAGER")
	data := [5]uint32{0, uint32(selAtom), uint32(check), 0, 0}
	return a.conn.SendClientMessage(root, managerAtom, data)
}

// AdvertiseSupported writes the root's _NET_SUPPORTED atom list.
func (a *Adapter) AdvertiseSupported() error {
	names := []string{
		"_NET_SUPPORTED", "_NET_SUPPORTING_WM_CHECK", "_NET_WM_NAME",
		"_NET_NUMBER_OF_DESKTOPS", "_NET_CURRENT_DESKTOP", "_NET_DESKTOP_NAMES",
		"_NET_ACTIVE_WINDOW", "_NET_CLIENT_LIST", "_NET_SHOWING_DESKTOP",
		"_NET_WM_DESKTOP", "_NET_WM_STATE", "_NET_WM_STATE_MODAL",
		"_NET_WM_STATE_STICKY", "_NET_WM_STATE_ABOVE", "_NET_WM_STATE_BELOW",
		"_NET_WM_STATE_FULLSCREEN", "_NET_WM_STATE_MAXIMIZED_HORZ",
		"_NET_WM_STATE_MAXIMIZED_VERT", "_NET_WM_STATE_HIDDEN",
		"_NET_WM_STATE_DEMANDS_ATTENTION", "_NET_CLOSE_WINDOW",
		"_NET_RESTACK_WINDOW", "_NET_REQUEST_FRAME_EXTENTS", "_NET_FRAME_EXTENTS",
		"_NET_MOVERESIZE_WINDOW", "_NET_WM_MOVERESIZE", "_NET_WM_STRUT",
		"_NET_WM_STRUT_PARTIAL",
	}
	var data []byte
	for _, n := range names {
		data = appendAtom(data, a.conn.Atom(n))
	}
	return a.conn.ChangeProperty(a.conn.RootWindow(), a.conn.Atom("_NET_SUPPORTED"), a.atomAtom(), 32, data)
}

// SyncDesktops writes _NET_NUMBER_OF_DESKTOPS, _NET_CURRENT_DESKTOP and
// _NET_DESKTOP_NAMES from the registry's current workspace set.
func (a *Adapter) SyncDesktops(activeIndex int) error {
	root := a.conn.RootWindow()
	if err := a.writeCardinal(root, "_NET_NUMBER_OF_DESKTOPS", uint32(a.reg.NumWorkspaces())); err != nil {
		return err
	}
	if err := a.writeCardinal(root, "_NET_CURRENT_DESKTOP", uint32(activeIndex)); err != nil {
		return err
	}
	var names []byte
	for _, ws := range a.reg.Workspaces() {
		names = append(names, []byte(ws.Name)...)
		names = append(names, 0)
	}
	return a.conn.ChangeProperty(root, a.conn.Atom("_NET_DESKTOP_NAMES"), a.conn.Atom("UTF8_STRING"), 8, names)
}

// SyncActiveWindow writes _NET_ACTIVE_WINDOW from the active master's
// focused window.
func (a *Adapter) SyncActiveWindow() error {
	master := a.reg.ActiveMaster()
	var win xproto.Window
	if master != nil {
		win = master.FocusedWindow
	}
	return a.writeWindow(a.conn.RootWindow(), a.conn.Atom("_NET_ACTIVE_WINDOW"), win)
}

// SyncClientList writes _NET_CLIENT_LIST from every registered window.
func (a *Adapter) SyncClientList() error {
	var data []byte
	for _, w := range a.reg.Windows() {
		data = appendWindow(data, w.ID)
	}
	return a.conn.ChangeProperty(a.conn.RootWindow(), a.conn.Atom("_NET_CLIENT_LIST"), a.windowAtom(), 32, data)
}

// SyncShowingDesktop writes _NET_SHOWING_DESKTOP from the active
// workspace's flag.
func (a *Adapter) SyncShowingDesktop(ws *entity.Workspace) error {
	v := uint32(0)
	if ws.ShowingDesktop {
		v = 1
	}
	return a.writeCardinal(a.conn.RootWindow(), "_NET_SHOWING_DESKTOP", v)
}

// SyncWindow persists w's _NET_WM_DESKTOP and _NET_WM_STATE (the
// MasksToSync subset) to its X properties.
func (a *Adapter) SyncWindow(w *entity.Window) error {
	desktop := w.WorkspaceIndex
	if desktop < 0 {
		desktop = 0xFFFFFFFF // EWMH: 0xFFFFFFFF means "on all desktops"
	}
	if err := a.writeCardinal(w.ID, "_NET_WM_DESKTOP", uint32(desktop)); err != nil {
		return err
	}
	return a.syncState(w)
}

func (a *Adapter) syncState(w *entity.Window) error {
	var atoms []xproto.Atom
	for bit, name := range stateAtomNames {
		if w.Mask.Has(bit) && a.masksToSync.Has(bit) {
			atoms = append(atoms, a.conn.Atom(name))
		}
	}
	var data []byte
	for _, atom := range atoms {
		data = appendAtom(data, atom)
	}
	return a.conn.ChangeProperty(w.ID, a.conn.Atom("_NET_WM_STATE"), a.atomAtom(), 32, data)
}

var stateAtomNames = map[entity.WindowMask]string{
	entity.MaskModal:      "_NET_WM_STATE_MODAL",
	entity.MaskSticky:     "_NET_WM_STATE_STICKY",
	entity.MaskAbove:      "_NET_WM_STATE_ABOVE",
	entity.MaskBelow:      "_NET_WM_STATE_BELOW",
	entity.MaskFullscreen: "_NET_WM_STATE_FULLSCREEN",
	entity.MaskXMaximized: "_NET_WM_STATE_MAXIMIZED_HORZ",
	entity.MaskYMaximized: "_NET_WM_STATE_MAXIMIZED_VERT",
	entity.MaskUrgent:     "_NET_WM_STATE_DEMANDS_ATTENTION",
}

// SendDeleteWindow sends the WM_DELETE_WINDOW client message per ICCCM,
// for windows that advertise it in WM_PROTOCOLS.
func (a *Adapter) SendDeleteWindow(win xproto.Window) error {
	protoAtom := a.conn.Atom("WM_PROTOCOLS")
	deleteAtom := a.conn.Atom("WM_DELETE_WINDOW")
	data := [5]uint32{uint32(deleteAtom), 0, 0, 0, 0}
	return a.conn.SendClientMessage(win, protoAtom, data)
}

// SendTakeFocus sends the WM_TAKE_FOCUS client message per ICCCM.
func (a *Adapter) SendTakeFocus(win xproto.Window, timestamp uint32) error {
	protoAtom := a.conn.Atom("WM_PROTOCOLS")
	takeFocusAtom := a.conn.Atom("WM_TAKE_FOCUS")
	data := [5]uint32{uint32(takeFocusAtom), timestamp, 0, 0, 0}
	return a.conn.SendClientMessage(win, protoAtom, data)
}

func (a *Adapter) writeWindow(target xproto.Window, atom xproto.Atom, win xproto.Window) error {
	return a.conn.ChangeProperty(target, atom, a.windowAtom(), 32, appendWindow(nil, win))
}

func (a *Adapter) writeCardinal(target xproto.Window, name string, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return a.conn.ChangeProperty(target, a.conn.Atom(name), a.conn.Atom("CARDINAL"), 32, buf[:])
}

func (a *Adapter) atomAtom() xproto.Atom   { return a.conn.Atom("ATOM") }
func (a *Adapter) windowAtom() xproto.Atom { return a.conn.Atom("WINDOW") }

func appendAtom(data []byte, atom xproto.Atom) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(atom))
	return append(data, buf[:]...)
}

func appendWindow(data []byte, win xproto.Window) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(win))
	return append(data, buf[:]...)
}

// AllowsSource reports whether a client message whose data[0] high
// nibble encodes src is honored under the configured mask.
func (a *Adapter) AllowsSource(src SourceIndication) bool {
	return a.srcIndicationMask&src.Mask() != 0
}

// MaskForStateAtom resolves a _NET_WM_STATE_* atom (as carried raw in a
// client message's data word) back to the entity.WindowMask bit it
// represents, or 0 if the atom isn't one this adapter syncs.
func (a *Adapter) MaskForStateAtom(atom xproto.Atom) entity.WindowMask {
	name := a.conn.AtomName(atom)
	for bit, n := range stateAtomNames {
		if n == name {
			return bit
		}
	}
	return 0
}
