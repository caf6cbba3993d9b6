package entity

// WindowMask is the 32-bit per-window bitset described by the canonical
// mask layout: visibility, geometry policy, stacking, focus/interaction
// and ICCCM protocol bits all share one word.
type WindowMask uint32

const (
	// Visibility
	MaskMappable WindowMask = 1 << iota
	MaskMapped
	MaskFullyVisible
	MaskPartiallyVisible
	MaskHidden

	// Geometry policy
	MaskFloating
	MaskNoTile
	MaskFullscreen
	MaskRootFullscreen
	MaskXMaximized
	MaskYMaximized
	MaskXCentered
	MaskYCentered

	// Stacking
	MaskAbove
	MaskBelow
	MaskAlwaysOnTop
	MaskAlwaysOnBottom
	MaskSticky

	// Focus / interaction
	MaskInput
	MaskNoRecordFocus
	MaskUrgent
	MaskModal
	MaskPrimaryMonitor

	// ICCCM protocol
	MaskWMTakeFocus
	MaskWMDeleteWindow
	MaskWMPing
)

// Has reports whether all bits in want are set.
func (m WindowMask) Has(want WindowMask) bool { return m&want == want }

// Any reports whether any bit in want is set.
func (m WindowMask) Any(want WindowMask) bool { return m&want != 0 }

// Set returns m with bits added.
func (m WindowMask) Set(bits WindowMask) WindowMask { return m | bits }

// Clear returns m with bits removed.
func (m WindowMask) Clear(bits WindowMask) WindowMask { return m &^ bits }

// DefaultMasksToSync is the subset of mask bits mirrored into
// _NET_WM_STATE absent an explicit Config override; it covers the bits EWMH actually
// names atoms for.
const DefaultMasksToSync = MaskFullscreen | MaskModal | MaskSticky |
	MaskAbove | MaskBelow | MaskXMaximized | MaskYMaximized | MaskUrgent
