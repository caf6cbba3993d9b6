package entity

import "github.com/jezek/xgb/xproto"

// PassThrough decides whether a downstream rule or binding is consulted
// after this one has run.
type PassThrough uint8

const (
	PassNo PassThrough = iota
	PassAlways
	PassIfTrue
	PassIfFalse
)

// TargetWindowPolicy resolves which window a binding's function receives.
type TargetWindowPolicy uint8

const (
	TargetDefault TargetWindowPolicy = iota // focused window for keyboard events, event window for pointer events
	TargetFocused
	TargetOverride
)

// BindingFlags are the small set of independent toggles a binding may carry.
type BindingFlags uint8

const (
	FlagNoGrab BindingFlags = 1 << iota
	FlagKeyRepeatFilter
	FlagShortCircuit
	FlagPopsChain
	FlagEndChain
	FlagNoEndOnPassThrough
	// FlagGrabWholeDevice asks a chain binding to hold one whole-device
	// grab for the scope's lifetime instead of grabbing each child's
	// detail/modifier individually.
	FlagGrabWholeDevice
)

// BoundFunc is the callable a binding invokes. It receives the resolved
// target window (zero if the policy yielded none) and returns whether it
// handled the event.
type BoundFunc func(win xproto.Window) bool

// Binding is a single configured key/button binding, optionally a chain
// root with child bindings that shadow the global set while active.
type Binding struct {
	Name string

	Modifiers uint16
	Detail    uint32 // keycode or button; 0 means match-any
	EventMask uint32

	ModePredicate func(mode int) bool

	TargetPolicy TargetWindowPolicy
	PassThrough  PassThrough
	Flags        BindingFlags

	Func BoundFunc

	Children []*Binding

	grabbed bool
}

// IsChain reports whether the binding pushes a modal scope when triggered.
func (b *Binding) IsChain() bool { return len(b.Children) > 0 }

// ChainScope is a single entry on a master's active-chain stack.
type ChainScope struct {
	Root          *Binding
	WholeDeviceGrab bool
}
