// Package rules implements the event-driven dispatcher that maps event
// kinds to ordered rule lists, with per-event batching and pass-through
// semantics (§4.1).
package rules

// Kind identifies an event: an ordinary X event code, a generic-event
// sub-kind from the input extension offset past the last ordinary code,
// the RandR screen-change synthetic kind, or an internal lifecycle kind.
type Kind int

// lastOrdinaryXEvent is the highest-numbered core X11 event code
// (xproto.MotionNotify in practice tops out lower than this; the real
// ceiling also depends on the XKB/randr/xinput extensions present on a
// given server). A fixed, generous ceiling keeps the enumeration a
// plain contiguous range instead of depending on extension negotiation.
const lastOrdinaryXEvent = 127

// GenericEventOffset marks the start of the generic-event band, past
// every ordinary X event code. The XI2 kinds below are numbered in
// sequence from GenericEventOffset+2; a kind's value is not
// GenericEventOffset plus its XI2 event type.
const GenericEventOffset = lastOrdinaryXEvent

const (
	// KindError is always dispatched on an X error reply (kind 0).
	KindError Kind = 0

	// KindExtra catches every event the transport does not classify as
	// another kind.
	KindExtra Kind = 1
)

// Generic XI2 sub-kinds, offset into the generic-event band.
const (
	KindXIHierarchyChanged Kind = GenericEventOffset + iota + 2
	KindXIDeviceChanged
	KindXIKeyPress
	KindXIKeyRelease
	KindXIButtonPress
	KindXIButtonRelease
	KindXIMotion
	KindXIEnter
	KindXILeave
	KindXIFocusIn
	KindXIFocusOut

	kindGenericEventEnd
)

// KindRandRScreenChange is the synthetic kind for RandR screen-change
// notifications.
const KindRandRScreenChange = kindGenericEventEnd + 1

// Internal lifecycle kinds, one past the last real kind.
const (
	KindOnXConnection Kind = KindRandRScreenChange + 1 + iota
	KindPreRegisterWindow
	KindPostRegisterWindow
	KindClientMapAllow
	KindPropertyLoad
	KindTileWorkspace
	KindOnWindowMove
	KindOnScreenChange
	KindPeriodic
	KindIdle
	KindTrueIdle
	KindProcessDeviceEvent

	numKinds
)

// NumKinds is the number of distinct Kind values the engine must be able
// to hold rule lists for.
const NumKinds = int(numKinds)
