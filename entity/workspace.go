package entity

import "github.com/jezek/xgb/xproto"

// Layout is implemented by the external collaborator that turns a
// window stack into target geometries; concrete algorithms (column,
// grid, master-pane, ...) live outside this module.
type Layout interface {
	Name() string
}

// Workspace holds an ordered window stack (bottom-to-top X stacking
// order) and a cycle of layouts.
type Workspace struct {
	Index       int
	Name        string
	MonitorID   uint32 // 0 == unassigned
	HasMonitor  bool

	// Stack is the canonical X stacking order: index 0 is bottom-most.
	Stack []xproto.Window

	Layouts      []Layout
	ActiveLayout Layout
	LayoutArgs   map[string]float64

	ShowingDesktop bool
}

// NewWorkspace returns an empty workspace at the given index.
func NewWorkspace(index int, name string) *Workspace {
	return &Workspace{Index: index, Name: name, LayoutArgs: map[string]float64{}}
}

// Contains reports whether win is in the stack.
func (w *Workspace) Contains(win xproto.Window) bool {
	return w.indexOf(win) >= 0
}

func (w *Workspace) indexOf(win xproto.Window) int {
	for i, x := range w.Stack {
		if x == win {
			return i
		}
	}
	return -1
}

// Remove deletes win from the stack, reporting whether it was present.
func (w *Workspace) Remove(win xproto.Window) bool {
	i := w.indexOf(win)
	if i < 0 {
		return false
	}
	w.Stack = append(w.Stack[:i], w.Stack[i+1:]...)
	return true
}

// Raise moves win to the top (end) of the stack.
func (w *Workspace) Raise(win xproto.Window) {
	if !w.Remove(win) {
		return
	}
	w.Stack = append(w.Stack, win)
}

// Lower moves win to the bottom (start) of the stack.
func (w *Workspace) Lower(win xproto.Window) {
	if !w.Remove(win) {
		return
	}
	w.Stack = append([]xproto.Window{win}, w.Stack...)
}

// CycleLayout advances ActiveLayout to the next entry in Layouts.
func (w *Workspace) CycleLayout() {
	if len(w.Layouts) == 0 {
		return
	}
	cur := -1
	for i, l := range w.Layouts {
		if l == w.ActiveLayout {
			cur = i
			break
		}
	}
	w.ActiveLayout = w.Layouts[(cur+1)%len(w.Layouts)]
}
