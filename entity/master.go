package entity

import "github.com/jezek/xgb/xproto"

// Master is an MPX keyboard/pointer pair, presented by X as an
// independent user.
type Master struct {
	ID        xproto.Window // keyboard device id
	PointerID xproto.Window

	Name string

	FocusColor   uint32
	UnfocusColor uint32

	// Stack is ordered most-recently-focused first. The head is the
	// focused window unless FocusFrozen is set.
	Stack []xproto.Window

	// FrozenCursor indexes into Stack while FocusFrozen is set; focus
	// events move the cursor without reordering Stack.
	FrozenCursor int
	FocusFrozen  bool

	// Chains is the active-chain stack, newest last (top = len-1).
	Chains []ChainScope

	Bindings []*Binding

	LastActiveSlave  xproto.Window
	LastBindingFired *Binding

	ActiveWorkspaceIndex int

	FocusedWindow  xproto.Window
	FocusTimestamp uint32

	LastPointerX, LastPointerY int16

	Mode int

	// KeyRepeatFilter, when set, drops key-press events X tagged as
	// autorepeats before binding match.
	KeyRepeatFilter bool

	// RecentlyVisited backs findAndRaise's "visited under rule R" cache.
	RecentlyVisited []xproto.Window
}

// NewMaster returns a Master with empty stacks, matching createMaster's
// all-zero/empty-list defaults.
func NewMaster(id, pointerID xproto.Window, name string, focusColor uint32) *Master {
	return &Master{
		ID:           id,
		PointerID:    pointerID,
		Name:         name,
		FocusColor:   focusColor,
		FrozenCursor: -1,
	}
}

// StackHead returns the window at the top of the stack, or 0 if empty.
func (m *Master) StackHead() xproto.Window {
	if len(m.Stack) == 0 {
		return 0
	}
	return m.Stack[0]
}

// StackIndex returns the index of win in Stack, or -1.
func (m *Master) StackIndex(win xproto.Window) int {
	for i, w := range m.Stack {
		if w == win {
			return i
		}
	}
	return -1
}

// RemoveFromStack deletes win from Stack if present, reporting whether
// a removal happened. It also fixes up a frozen cursor that pointed past
// the removed entry.
func (m *Master) RemoveFromStack(win xproto.Window) bool {
	i := m.StackIndex(win)
	if i < 0 {
		return false
	}
	m.Stack = append(m.Stack[:i], m.Stack[i+1:]...)
	if m.FocusFrozen && m.FrozenCursor >= i && m.FrozenCursor > 0 {
		m.FrozenCursor--
	}
	return true
}

// PushFocused splices win to the head of Stack, removing any prior
// occurrence first so a window never appears twice.
func (m *Master) PushFocused(win xproto.Window) {
	m.RemoveFromStack(win)
	m.Stack = append([]xproto.Window{win}, m.Stack...)
}

// TopChain returns the active chain scope, or nil if the stack is empty.
func (m *Master) TopChain() *ChainScope {
	if len(m.Chains) == 0 {
		return nil
	}
	return &m.Chains[len(m.Chains)-1]
}

// PushChain pushes a new scope onto the chain stack.
func (m *Master) PushChain(scope ChainScope) {
	m.Chains = append(m.Chains, scope)
}

// PopChain pops the top scope, returning it, or false if the stack was empty.
func (m *Master) PopChain() (ChainScope, bool) {
	if len(m.Chains) == 0 {
		return ChainScope{}, false
	}
	n := len(m.Chains) - 1
	scope := m.Chains[n]
	m.Chains = m.Chains[:n]
	return scope, true
}
