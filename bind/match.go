// Package bind implements the per-master binding/chain state machine:
// matching user events against the active chain scope or the global
// binding set, grab/ungrab bookkeeping, and modal chain push/pop (§4.4).
package bind

import (
	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/entity"
)

// Matches reports whether b matches a user event with the given
// modifiers, detail, event mask and mode, after clearing ignoreMod
// (typically numlock) from both sides.
func Matches(b *entity.Binding, mods uint16, detail uint32, eventMask uint32, mode int, ignoreMod uint16) bool {
	if b.EventMask&eventMask == 0 {
		return false
	}
	if b.ModePredicate != nil && !b.ModePredicate(mode) {
		return false
	}
	effectiveMods := mods &^ ignoreMod
	wantMods := b.Modifiers &^ ignoreMod
	if b.Modifiers != wildcardMods && effectiveMods != wantMods {
		return false
	}
	if b.Detail != 0 && b.Detail != detail {
		return false
	}
	return true
}

// wildcardMods is the sentinel value meaning "match any modifier state".
const wildcardMods uint16 = 1 << 15

// ResolveTarget resolves the window a binding's function should
// receive, per its TargetWindowPolicy. isKeyboardEvent distinguishes
// DEFAULT's keyboard-vs-pointer behavior; override is the master's
// per-master target override (TARGET policy), which may be zero.
func ResolveTarget(b *entity.Binding, isKeyboardEvent bool, focused, eventWindow, override xproto.Window) xproto.Window {
	switch b.TargetPolicy {
	case entity.TargetFocused:
		return focused
	case entity.TargetOverride:
		if override != 0 {
			return override
		}
		return eventWindow
	default: // TargetDefault
		if isKeyboardEvent {
			return focused
		}
		return eventWindow
	}
}

// Candidates returns the binding set currently consulted for master m:
// the active chain's children if a chain is on top of the stack, or the
// global binding list otherwise.
func Candidates(m *entity.Master) []*entity.Binding {
	if scope := m.TopChain(); scope != nil {
		return scope.Root.Children
	}
	return m.Bindings
}
