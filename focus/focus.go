// Package focus implements the per-master most-recently-focused stack,
// the per-workspace stacking order, and the interaction of both with
// MPX (§4.5).
package focus

import (
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/entity"
)

// Manager applies focus-change notifications to the registry and draws
// window borders to reflect the result.
type Manager struct {
	reg *entity.Registry
	log *logrus.Logger

	setBorderColor func(win xproto.Window, color uint32) error
	unfocusedColor uint32
}

// New returns a focus manager. setBorderColor is injected so this
// package stays decoupled from the x11 package's import surface.
func New(reg *entity.Registry, unfocusedColor uint32, setBorderColor func(xproto.Window, uint32) error, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{reg: reg, unfocusedColor: unfocusedColor, setBorderColor: setBorderColor, log: log}
}

// OnFocusChange handles an X focus-change notification for deviceID
// focusing win. It sets the active master, splices win to the stack
// head (unless the window opts out via NO_RECORD_FOCUS or the stack is
// frozen), records a focus timestamp, and redraws the border.
func (m *Manager) OnFocusChange(deviceID, win xproto.Window, timestamp uint32) {
	m.reg.SetActiveMaster(deviceID)
	master, ok := m.reg.Master(deviceID)
	if !ok {
		return
	}

	w, managed := m.reg.Window(win)
	if !managed {
		master.FocusedWindow = win
		return
	}

	if w.Mask.Has(entity.MaskNoRecordFocus) {
		master.FocusedWindow = win
		m.paintBorder(w, master)
		return
	}

	if master.FocusFrozen {
		if i := master.StackIndex(win); i >= 0 {
			master.FrozenCursor = i
		}
	} else {
		master.PushFocused(win)
	}
	master.FocusedWindow = win
	master.FocusTimestamp = timestamp
	w.FocusTimestamp = timestamp

	m.paintBorder(w, master)
}

// OnFocusOut restores win's border to another focusing master's color,
// or the unfocused color if no master currently focuses it.
func (m *Manager) OnFocusOut(win xproto.Window) {
	w, ok := m.reg.Window(win)
	if !ok {
		return
	}
	if other := m.lastMasterToFocus(win); other != nil {
		m.paintBorder(w, other)
		return
	}
	if m.setBorderColor != nil {
		if err := m.setBorderColor(win, m.unfocusedColor); err != nil {
			m.log.WithError(err).WithField("window", win).Warn("focus: failed to paint unfocused border")
		}
	}
}

func (m *Manager) lastMasterToFocus(win xproto.Window) *entity.Master {
	var best *entity.Master
	for _, master := range m.reg.Masters() {
		if master.FocusedWindow == win && (best == nil || master.FocusTimestamp > best.FocusTimestamp) {
			best = master
		}
	}
	return best
}

func (m *Manager) paintBorder(w *entity.Window, master *entity.Master) {
	if m.setBorderColor == nil {
		return
	}
	if err := m.setBorderColor(w.ID, master.FocusColor); err != nil {
		m.log.WithError(err).WithField("window", w.ID).Warn("focus: failed to paint focused border")
	}
}

// Freeze enables frozen-stack mode for master: subsequent focus events
// move a cursor without reordering the stack. Used to implement
// Alt-Tab style cycles.
func (m *Manager) Freeze(master *entity.Master) {
	if master.FocusFrozen {
		return
	}
	master.FocusFrozen = true
	master.FrozenCursor = master.StackIndex(master.FocusedWindow)
	if master.FrozenCursor < 0 {
		master.FrozenCursor = 0
	}
}

// Unfreeze disables frozen-stack mode and moves the window the cursor
// last pointed at during the cycle to the stack head.
func (m *Manager) Unfreeze(master *entity.Master) {
	if !master.FocusFrozen {
		return
	}
	if master.FrozenCursor >= 0 && master.FrozenCursor < len(master.Stack) {
		win := master.Stack[master.FrozenCursor]
		master.PushFocused(win)
	}
	master.FocusFrozen = false
}

// CycleNext advances the frozen cursor forward (dir>0) or backward
// (dir<0) and returns the window it now points at, or 0 if the stack is
// empty. Freeze must already be active.
func (m *Manager) CycleNext(master *entity.Master, dir int) xproto.Window {
	if len(master.Stack) == 0 {
		return 0
	}
	n := len(master.Stack)
	master.FrozenCursor = ((master.FrozenCursor+dir)%n + n) % n
	return master.Stack[master.FrozenCursor]
}
