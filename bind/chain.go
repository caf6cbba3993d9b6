package bind

import (
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/keysym"
	"github.com/patrislav/marwind/x11"
)

// WildcardModifiers is the public name for the "match any modifier"
// sentinel a Binding.Modifiers field may carry.
const WildcardModifiers = wildcardMods

// Machine drives one master's chain stack against a transport.
type Machine struct {
	conn x11.Conn
	log  *logrus.Logger

	keymap keysym.Keymap
}

// NewMachine returns a chain state machine bound to conn. It eagerly
// loads the server's keycode mapping so callers can resolve bindings
// authored by symbolic key name via Keycode; a failure to load is
// logged and leaves symbolic resolution unavailable rather than
// failing construction, since a caller that only binds by raw keycode
// or button never needs it.
func NewMachine(conn x11.Conn, log *logrus.Logger) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	mc := &Machine{conn: conn, log: log}
	km, err := conn.KeyMapping()
	if err != nil {
		log.WithError(err).Warn("bind: failed to load keyboard mapping, symbolic key bindings unavailable")
	} else {
		mc.keymap = km
	}
	return mc
}

// Keycode resolves a keysym (e.g. a name looked up via the host's own
// symbolic-name table) to the keycode a Binding.Detail should carry,
// using the mapping loaded at construction.
func (mc *Machine) Keycode(sym xproto.Keysym) (xproto.Keycode, bool) {
	return mc.keymap.Keycode(sym)
}

// DispatchEvent matches mods/detail/eventMask/mode against the
// currently consulted binding set (global, or the active chain's
// children) for master m, invoking every match's function in order and
// combining the results with pass-through (§4.1's combination rule,
// reused for bindings). keyIsRepeat is true only for a key-press tagged
// as an autorepeat; such events are dropped before matching when the
// master's key-repeat filter is enabled. If a chain was active on entry
// and none of its children matched this event, the chain is cancelled
// via EndChain.
func (mc *Machine) DispatchEvent(m *entity.Master, mods uint16, detail uint32, eventMask uint32,
	isKeyboardEvent, keyIsRepeat bool, focused, eventWindow xproto.Window, keyRepeatFilterEnabled bool) bool {

	if keyIsRepeat && keyRepeatFilterEnabled {
		return false
	}

	chainWasActive := m.TopChain() != nil
	matched := false

	result := false
	for _, b := range Candidates(m) {
		if !Matches(b, mods, detail, eventMask, m.Mode, 0) {
			continue
		}
		matched = true
		target := ResolveTarget(b, isKeyboardEvent, focused, eventWindow, m.FocusedWindow)
		m.LastBindingFired = b

		handled := b.Func(target)
		result = handled

		if b.Flags&entity.FlagPopsChain != 0 {
			mc.PopChain(m)
		}
		if b.Flags&entity.FlagEndChain != 0 {
			// An explicit abort binding always pops, regardless of
			// FlagNoEndOnPassThrough (that opt-out only covers the
			// implicit non-matching-key cancellation below).
			mc.PopChain(m)
		}
		if b.IsChain() {
			mc.PushChain(m, b)
		}

		switch b.PassThrough {
		case entity.PassNo:
			return result
		case entity.PassAlways:
			continue
		case entity.PassIfTrue:
			if !handled {
				return result
			}
		case entity.PassIfFalse:
			if handled {
				return result
			}
		}
	}
	if chainWasActive && !matched {
		mc.EndChain(m)
	}
	return result
}

// PushChain grabs a new modal scope for chain root b. It grabs the
// whole device if requested, else grabs every child's detail/modifier
// pair on the root window (skipping children with FlagNoGrab).
func (mc *Machine) PushChain(m *entity.Master, b *entity.Binding) {
	whole := b.Flags&entity.FlagGrabWholeDevice != 0
	root := mc.conn.RootWindow()

	if whole {
		if err := mc.conn.GrabDevice(m.ID); err != nil {
			mc.log.WithError(err).WithField("master", m.ID).Warn("bind: failed to grab device for chain")
		}
	} else {
		for _, child := range b.Children {
			if child.Flags&entity.FlagNoGrab != 0 {
				continue
			}
			mc.grabBinding(root, child)
		}
	}
	m.PushChain(entity.ChainScope{Root: b, WholeDeviceGrab: whole})
}

// PopChain releases the top chain scope's grabs and removes it from the
// stack. It is a no-op if the stack is empty.
func (mc *Machine) PopChain(m *entity.Master) {
	scope, ok := m.PopChain()
	if !ok {
		return
	}
	root := mc.conn.RootWindow()
	if scope.WholeDeviceGrab {
		if err := mc.conn.UngrabDevice(m.ID); err != nil {
			mc.log.WithError(err).WithField("master", m.ID).Warn("bind: failed to ungrab device")
		}
		return
	}
	for _, child := range scope.Root.Children {
		if child.Flags&entity.FlagNoGrab != 0 {
			continue
		}
		mc.ungrabBinding(root, child)
	}
}

// EndChain implements the implicit chain-cancellation rule: a
// non-matching key while a chain is active pops the scope, unless the
// chain opted into FlagNoEndOnPassThrough. DispatchEvent calls this
// when no candidate in the active chain matched the event.
func (mc *Machine) EndChain(m *entity.Master) {
	scope := m.TopChain()
	if scope == nil {
		return
	}
	if scope.Root.Flags&entity.FlagNoEndOnPassThrough != 0 {
		return
	}
	mc.PopChain(m)
}

// GrabBinding grabs the (device, detail, mod, mask) tuple for a
// non-chain binding on the root window, plus a second tuple with the
// ignore-mod bit OR'd in (so e.g. numlock doesn't defeat the grab).
func (mc *Machine) GrabBinding(b *entity.Binding, ignoreMod uint16) error {
	if b.Flags&entity.FlagNoGrab != 0 {
		return nil
	}
	root := mc.conn.RootWindow()
	if err := mc.grabBinding(root, b); err != nil {
		return err
	}
	withIgnore := &entity.Binding{Modifiers: b.Modifiers | ignoreMod, Detail: b.Detail, EventMask: b.EventMask}
	return mc.grabBinding(root, withIgnore)
}

func (mc *Machine) grabBinding(root xproto.Window, b *entity.Binding) error {
	if b.EventMask&(xproto.EventMaskKeyPress|xproto.EventMaskKeyRelease) != 0 {
		return mc.conn.GrabKey(root, b.Modifiers, xproto.Keycode(b.Detail))
	}
	return mc.conn.GrabButton(root, b.Modifiers, xproto.Button(b.Detail))
}

func (mc *Machine) ungrabBinding(root xproto.Window, b *entity.Binding) error {
	if b.EventMask&(xproto.EventMaskKeyPress|xproto.EventMaskKeyRelease) != 0 {
		return mc.conn.UngrabKey(root, b.Modifiers, xproto.Keycode(b.Detail))
	}
	return mc.conn.UngrabButton(root, b.Modifiers, xproto.Button(b.Detail))
}
