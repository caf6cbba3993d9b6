package proto

import (
	"github.com/jezek/xgb/xproto"
)

// StateAction is the _NET_WM_STATE client-message action field.
type StateAction uint32

const (
	StateRemove StateAction = 0
	StateAdd    StateAction = 1
	StateToggle StateAction = 2
)

// Hooks lets the host wire client-message effects into the rest of the
// core (focus, tiling, monitor) without this package importing them
// directly, keeping the adapter a leaf in the dependency graph.
type Hooks struct {
	SetCurrentDesktop func(index int)
	SetActiveWindow   func(win xproto.Window, timestamp uint32)
	SetShowingDesktop func(show bool)
	CloseWindow       func(win xproto.Window)
	RestackWindow     func(win, sibling xproto.Window, detail uint8)
	RequestFrameExtents func(win xproto.Window)
	MoveResizeWindow  func(win xproto.Window, x, y int32, w, h uint32)
	WMMoveResize      func(win xproto.Window, x, y int32, direction uint32, button, source uint32)
	SetWMDesktop      func(win xproto.Window, index int)
	SetWMState        func(win xproto.Window, mask uint32, action StateAction)
	ChangeState       func(win xproto.Window, iconic bool)
	SetNumWorkspaces  func(n int)
}

// ClientMessage dispatches a normalized _NET_*/WM_CHANGE_STATE client
// message to the matching hook, after checking the source-indication
// mask. msgType is the message's atom name, as resolved by the caller
// via Conn.AtomName. Unrecognized message types are ignored.
func (a *Adapter) ClientMessage(h Hooks, msgType string, win xproto.Window, data [5]uint32) {
	if !a.AllowsSource(SourceIndication(data[0] >> 28)) {
		a.log.WithField("type", msgType).Debug("proto: client message rejected by source mask")
		return
	}

	switch msgType {
	case "_NET_CURRENT_DESKTOP":
		if h.SetCurrentDesktop != nil {
			h.SetCurrentDesktop(int(data[1]))
		}
	case "_NET_ACTIVE_WINDOW":
		if h.SetActiveWindow != nil {
			h.SetActiveWindow(win, data[2])
		}
	case "_NET_SHOWING_DESKTOP":
		if h.SetShowingDesktop != nil {
			h.SetShowingDesktop(data[1] != 0)
		}
	case "_NET_CLOSE_WINDOW":
		if h.CloseWindow != nil {
			h.CloseWindow(win)
		}
	case "_NET_RESTACK_WINDOW":
		if h.RestackWindow != nil {
			h.RestackWindow(win, xproto.Window(data[2]), uint8(data[3]))
		}
	case "_NET_REQUEST_FRAME_EXTENTS":
		if h.RequestFrameExtents != nil {
			h.RequestFrameExtents(win)
		}
	case "_NET_MOVERESIZE_WINDOW":
		if h.MoveResizeWindow != nil {
			h.MoveResizeWindow(win, int32(data[1]), int32(data[2]), data[3], data[4])
		}
	case "_NET_WM_MOVERESIZE":
		if h.WMMoveResize != nil {
			h.WMMoveResize(win, int32(data[1]), int32(data[2]), data[3], data[4], data[4]>>8)
		}
	case "_NET_WM_DESKTOP":
		if h.SetWMDesktop != nil {
			h.SetWMDesktop(win, int(data[1]))
		}
	case "_NET_WM_STATE":
		if h.SetWMState != nil {
			h.SetWMState(win, data[2], StateAction(data[1]))
			if data[3] != 0 {
				h.SetWMState(win, data[3], StateAction(data[1]))
			}
		}
	case "WM_CHANGE_STATE":
		if h.ChangeState != nil {
			h.ChangeState(win, data[1] == 3) // IconicState == 3
		}
	case "_NET_NUMBER_OF_DESKTOPS":
		if h.SetNumWorkspaces != nil {
			h.SetNumWorkspaces(int(data[1]))
		}
	default:
		a.log.WithField("type", msgType).Debug("proto: unrecognized client message")
	}
}
