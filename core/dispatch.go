package core

import (
	"github.com/jezek/xgb/xinput"
	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/proto"
	"github.com/patrislav/marwind/rules"
	"github.com/patrislav/marwind/x11"
)

// handleLifecycleEffects applies the built-in entity-model effects of
// an event kind before rules for that kind run — window
// register/unregister, focus bookkeeping, and screen-change detection.
// Called with the engine lock already held.
func (w *World) handleLifecycleEffects(ev x11.Event) {
	switch ev.Kind {
	case rules.Kind(xproto.CreateNotify), rules.Kind(xproto.MapRequest):
		w.registerWindow(ev.Window)
	case rules.Kind(xproto.DestroyNotify):
		w.unregisterWindow(ev.Window)
	case rules.Kind(xproto.UnmapNotify):
		// A client-initiated unmap only clears the mapped bit; the window
		// stays registered until DestroyNotify (or a reparent-away) per
		// the lifecycle contract in §3.
		if win, ok := w.reg.Window(ev.Window); ok {
			win.Mask = win.Mask.Clear(entity.MaskMapped)
		}
	case rules.Kind(xproto.FocusIn):
		if e, ok := ev.Raw.(xproto.FocusInEvent); ok {
			w.focusM.OnFocusChange(w.deviceForFocusEvent(e.Event), ev.Window, uint32(w.idleCounter))
		}
	case rules.Kind(xproto.FocusOut):
		w.focusM.OnFocusOut(ev.Window)
	case rules.Kind(xproto.ClientMessage):
		if e, ok := ev.Raw.(xproto.ClientMessageEvent); ok {
			w.dispatchClientMessage(e)
		}
	case rules.KindRandRScreenChange:
		if _, err := w.monitorM.Detect(); err != nil {
			w.log.WithError(err).Warn("core: monitor redetection failed")
		}
	case rules.KindXIKeyPress, rules.KindXIKeyRelease:
		w.dispatchDeviceEvent(ev, true)
	case rules.KindXIButtonPress, rules.KindXIButtonRelease:
		w.dispatchDeviceEvent(ev, false)
	}
}

// dispatchDeviceEvent routes an XI2 key/button event through a master's
// binding/chain machine, then fires the ProcessDeviceEvent lifecycle
// rule so extension-style rules can observe every device event
// regardless of whether a binding matched it.
func (w *World) dispatchDeviceEvent(ev x11.Event, isKeyboard bool) {
	var deviceID, detail uint32
	var mods uint16
	var repeat bool
	var eventMask uint32
	switch e := ev.Raw.(type) {
	case xinput.KeyPressEvent:
		deviceID, detail, mods = uint32(e.Deviceid), uint32(e.Detail), uint16(e.Mods.Effective)
		eventMask = xproto.EventMaskKeyPress
		repeat = e.Flags&xinput.KeyEventFlagsKeyRepeat != 0
	case xinput.KeyReleaseEvent:
		deviceID, detail, mods = uint32(e.Deviceid), uint32(e.Detail), uint16(e.Mods.Effective)
		eventMask = xproto.EventMaskKeyRelease
	case xinput.ButtonPressEvent:
		deviceID, detail, mods = uint32(e.Deviceid), uint32(e.Detail), uint16(e.Mods.Effective)
		eventMask = xproto.EventMaskButtonPress
	case xinput.ButtonReleaseEvent:
		deviceID, detail, mods = uint32(e.Deviceid), uint32(e.Detail), uint16(e.Mods.Effective)
		eventMask = xproto.EventMaskButtonRelease
	default:
		return
	}

	master, ok := w.reg.Master(xproto.Window(deviceID))
	if !ok {
		master = w.reg.ActiveMaster()
	}
	if master == nil {
		return
	}

	focused := master.FocusedWindow
	w.bindM.DispatchEvent(master, mods&^w.cfg.IgnoreModMask, detail, eventMask, isKeyboard, repeat, focused, ev.Window, master.KeyRepeatFilter)
	w.engine.Apply(rules.KindProcessDeviceEvent, ev.Window)
}

// deviceForFocusEvent resolves the master id a plain-core FocusIn event
// belongs to. Without XI2 device info attached to a core event, the
// active master is the best available signal. handleLifecycleEffects
// has no case for the XI2 focus kinds, so every focus change it records
// is attributed through this fallback.
func (w *World) deviceForFocusEvent(win xproto.Window) xproto.Window {
	if m := w.reg.ActiveMaster(); m != nil {
		return m.ID
	}
	return win
}

func (w *World) dispatchClientMessage(e xproto.ClientMessageEvent) {
	name := w.conn.AtomName(e.Type)
	data := clientMessageData(e)
	w.protoA.ClientMessage(proto.Hooks{
		SetCurrentDesktop: func(index int) {
			if m := w.reg.ActiveMaster(); m != nil {
				m.ActiveWorkspaceIndex = index
			}
		},
		SetActiveWindow: func(win xproto.Window, timestamp uint32) {
			if m := w.reg.ActiveMaster(); m != nil {
				w.focusM.OnFocusChange(m.ID, win, timestamp)
			}
		},
		SetShowingDesktop: func(show bool) {
			if m := w.reg.ActiveMaster(); m != nil {
				if ws := w.reg.Workspace(m.ActiveWorkspaceIndex); ws != nil {
					ws.ShowingDesktop = show
				}
			}
		},
		CloseWindow: func(win xproto.Window) {
			if err := w.protoA.SendDeleteWindow(win); err != nil {
				w.log.WithError(err).WithField("window", win).Warn("core: close-window request failed")
			}
		},
		SetWMDesktop: func(win xproto.Window, index int) {
			if winObj, ok := w.reg.Window(win); ok {
				if index < 0 {
					index = 0
				}
				if index >= w.reg.NumWorkspaces() {
					index = w.reg.NumWorkspaces() - 1
				}
				w.reg.MoveWindowToWorkspace(winObj, index)
			}
		},
		SetWMState: func(win xproto.Window, maskAtomRaw uint32, action proto.StateAction) {
			winObj, ok := w.reg.Window(win)
			if !ok {
				return
			}
			bit := w.protoA.MaskForStateAtom(xproto.Atom(maskAtomRaw))
			switch action {
			case proto.StateAdd:
				winObj.Mask = winObj.Mask.Set(bit)
			case proto.StateRemove:
				winObj.Mask = winObj.Mask.Clear(bit)
			case proto.StateToggle:
				if winObj.Mask.Has(bit) {
					winObj.Mask = winObj.Mask.Clear(bit)
				} else {
					winObj.Mask = winObj.Mask.Set(bit)
				}
			}
			w.protoA.SyncWindow(winObj)
		},
		SetNumWorkspaces: func(n int) {
			if m := w.reg.ActiveMaster(); m != nil {
				m.ActiveWorkspaceIndex = w.reg.SetWorkspaceCount(n, m.ActiveWorkspaceIndex)
			} else {
				w.reg.SetWorkspaceCount(n, 0)
			}
		},
	}, name, e.Window, data)
}

func clientMessageData(e xproto.ClientMessageEvent) [5]uint32 {
	var out [5]uint32
	d := e.Data.Data32
	for i := 0; i < len(out) && i < len(d); i++ {
		out[i] = d[i]
	}
	return out
}
