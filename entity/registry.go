// Package entity holds the authoritative in-memory representation of
// windows, masters, slaves, workspaces and monitors. No kind owns
// another by pointer; every cross-reference is an id resolved through
// the Registry, so returned handles are only valid until the caller
// yields the engine lock that guards the Registry (see package core).
package entity

import (
	"fmt"

	"github.com/jezek/xgb/xproto"
)

// Registry is the single owning store for every entity kind.
type Registry struct {
	windows    map[xproto.Window]*Window
	masters    map[xproto.Window]*Master
	slaves     map[xproto.Window]*Slave
	workspaces []*Workspace
	monitors   map[uint32]*Monitor

	dockSet map[xproto.Window]struct{}

	activeMasterID xproto.Window
}

// NewRegistry builds an empty registry with n workspaces.
func NewRegistry(numWorkspaces int) *Registry {
	r := &Registry{
		windows: map[xproto.Window]*Window{},
		masters: map[xproto.Window]*Master{},
		slaves:  map[xproto.Window]*Slave{},
		monitors: map[uint32]*Monitor{},
		dockSet: map[xproto.Window]struct{}{},
	}
	for i := 0; i < numWorkspaces; i++ {
		r.workspaces = append(r.workspaces, NewWorkspace(i, fmt.Sprintf("%d", i+1)))
	}
	return r
}

// ---- Windows ----

// InsertWindow adds w, failing if its id is already present. If w is
// marked as a dock it joins the dock set (viewport recomputation is the
// caller's responsibility, done by package monitor after insert).
func (r *Registry) InsertWindow(w *Window) error {
	if _, ok := r.windows[w.ID]; ok {
		return fmt.Errorf("entity: window %d already registered", w.ID)
	}
	r.windows[w.ID] = w
	if w.Dock {
		r.dockSet[w.ID] = struct{}{}
	}
	return nil
}

// Window looks up a window by id.
func (r *Registry) Window(id xproto.Window) (*Window, bool) {
	w, ok := r.windows[id]
	return w, ok
}

// Windows returns every registered window; order is unspecified.
func (r *Registry) Windows() []*Window {
	out := make([]*Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, w)
	}
	return out
}

// FindWindow returns the first window matching pred, or nil.
func (r *Registry) FindWindow(pred func(*Window) bool) *Window {
	for _, w := range r.windows {
		if pred(w) {
			return w
		}
	}
	return nil
}

// Docks returns every window currently in the dock set.
func (r *Registry) Docks() []*Window {
	out := make([]*Window, 0, len(r.dockSet))
	for id := range r.dockSet {
		if w, ok := r.windows[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

// RemoveWindow removes a window, cascading into every master's stack,
// its owning workspace's stack, and the dock set. Idempotent.
func (r *Registry) RemoveWindow(id xproto.Window) bool {
	w, ok := r.windows[id]
	if !ok {
		return false
	}
	for _, m := range r.masters {
		m.RemoveFromStack(id)
		m.removeFromRecentlyVisited(id)
		if m.FocusedWindow == id {
			m.FocusedWindow = m.StackHead()
		}
	}
	if w.WorkspaceIndex != NoWorkspace {
		if ws := r.Workspace(w.WorkspaceIndex); ws != nil {
			ws.Remove(id)
		}
	}
	delete(r.dockSet, id)
	delete(r.windows, id)
	return true
}

func (m *Master) removeFromRecentlyVisited(win xproto.Window) {
	for i, w := range m.RecentlyVisited {
		if w == win {
			m.RecentlyVisited = append(m.RecentlyVisited[:i], m.RecentlyVisited[i+1:]...)
			return
		}
	}
}

// ---- Masters ----

const (
	// DefaultKeyboardID and DefaultPointerID are the reserved ids X
	// assigns to the core keyboard/pointer pair that exists before any
	// MPX split.
	DefaultKeyboardID = xproto.Window(2)
	DefaultPointerID  = xproto.Window(3)
)

// InsertMaster adds m, failing if its id is already present. The first
// master inserted becomes the active master, and a master whose ids
// match the reserved defaults becomes the active master whenever it is
// inserted.
func (r *Registry) InsertMaster(m *Master) error {
	if _, ok := r.masters[m.ID]; ok {
		return fmt.Errorf("entity: master %d already registered", m.ID)
	}
	r.masters[m.ID] = m
	if r.activeMasterID == 0 || (m.ID == DefaultKeyboardID && m.PointerID == DefaultPointerID) {
		r.activeMasterID = m.ID
	}
	return nil
}

// Master looks up a master by keyboard id.
func (r *Registry) Master(id xproto.Window) (*Master, bool) {
	m, ok := r.masters[id]
	return m, ok
}

// MasterByName looks up a master by name.
func (r *Registry) MasterByName(name string) (*Master, bool) {
	for _, m := range r.masters {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Masters returns every registered master; order is unspecified.
func (r *Registry) Masters() []*Master {
	out := make([]*Master, 0, len(r.masters))
	for _, m := range r.masters {
		out = append(out, m)
	}
	return out
}

// ActiveMaster returns the master the user most recently interacted with.
func (r *Registry) ActiveMaster() *Master {
	return r.masters[r.activeMasterID]
}

// SetActiveMaster records which master last interacted with the WM.
func (r *Registry) SetActiveMaster(id xproto.Window) {
	if _, ok := r.masters[id]; ok {
		r.activeMasterID = id
	}
}

// RemoveMaster removes a master, detaching its slaves (they become
// floating) and dropping its bindings/chain state. Idempotent.
func (r *Registry) RemoveMaster(id xproto.Window) bool {
	if _, ok := r.masters[id]; !ok {
		return false
	}
	for _, s := range r.slaves {
		if s.Master == id {
			s.Master = 0
		}
	}
	delete(r.masters, id)
	if r.activeMasterID == id {
		r.activeMasterID = 0
		for mid := range r.masters {
			r.activeMasterID = mid
			break
		}
	}
	return true
}

// ---- Slaves ----

// InsertSlave adds s, failing if its id is already present.
func (r *Registry) InsertSlave(s *Slave) error {
	if _, ok := r.slaves[s.ID]; ok {
		return fmt.Errorf("entity: slave %d already registered", s.ID)
	}
	r.slaves[s.ID] = s
	return nil
}

// Slave looks up a slave by id.
func (r *Registry) Slave(id xproto.Window) (*Slave, bool) {
	s, ok := r.slaves[id]
	return s, ok
}

// Slaves returns every registered slave, excluding XTEST virtual
// devices when userFacing is true.
func (r *Registry) Slaves(userFacing bool) []*Slave {
	out := make([]*Slave, 0, len(r.slaves))
	for _, s := range r.slaves {
		if userFacing && s.IsTest {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SlavesOf returns the slaves currently attached to master m.
func (r *Registry) SlavesOf(masterID xproto.Window) []*Slave {
	out := []*Slave{}
	for _, s := range r.slaves {
		if s.Master == masterID {
			out = append(out, s)
		}
	}
	return out
}

// RemoveSlave removes a slave. Idempotent.
func (r *Registry) RemoveSlave(id xproto.Window) bool {
	if _, ok := r.slaves[id]; !ok {
		return false
	}
	delete(r.slaves, id)
	return true
}

// ---- Workspaces ----

// Workspace returns the workspace at index, or nil if out of range.
func (r *Registry) Workspace(index int) *Workspace {
	if index < 0 || index >= len(r.workspaces) {
		return nil
	}
	return r.workspaces[index]
}

// WorkspaceByName looks up a workspace by display name.
func (r *Registry) WorkspaceByName(name string) (*Workspace, bool) {
	for _, ws := range r.workspaces {
		if ws.Name == name {
			return ws, true
		}
	}
	return nil, false
}

// Workspaces returns every workspace in index order.
func (r *Registry) Workspaces() []*Workspace {
	out := make([]*Workspace, len(r.workspaces))
	copy(out, r.workspaces)
	return out
}

// NumWorkspaces reports the current workspace count.
func (r *Registry) NumWorkspaces() int { return len(r.workspaces) }

// SetWorkspaceCount grows or shrinks the workspace list. Growing appends
// empty workspaces. Shrinking merges windows from removed workspaces
// into the new last workspace and clamps activeIndex if it would
// otherwise point past the end; it returns the (possibly unchanged)
// active index the caller should now use.
func (r *Registry) SetWorkspaceCount(n int, activeIndex int) int {
	if n <= 0 {
		return activeIndex
	}
	cur := len(r.workspaces)
	switch {
	case n > cur:
		for i := cur; i < n; i++ {
			r.workspaces = append(r.workspaces, NewWorkspace(i, fmt.Sprintf("%d", i+1)))
		}
	case n < cur:
		last := r.workspaces[n-1]
		for i := n; i < cur; i++ {
			removed := r.workspaces[i]
			for _, win := range removed.Stack {
				if w, ok := r.windows[win]; ok {
					w.WorkspaceIndex = last.Index
				}
			}
			last.Stack = append(last.Stack, removed.Stack...)
		}
		r.workspaces = r.workspaces[:n]
	}
	if activeIndex >= n {
		activeIndex = n - 1
	}
	return activeIndex
}

// MoveWindowToWorkspace removes w from its current workspace (if any)
// and adds it to index, updating w.WorkspaceIndex. It is a no-op if w
// is already on index.
func (r *Registry) MoveWindowToWorkspace(w *Window, index int) error {
	if w.WorkspaceIndex == index {
		return nil
	}
	if cur := r.Workspace(w.WorkspaceIndex); cur != nil {
		cur.Remove(w.ID)
	}
	next := r.Workspace(index)
	if next == nil {
		return fmt.Errorf("entity: no workspace at index %d", index)
	}
	next.Stack = append(next.Stack, w.ID)
	w.WorkspaceIndex = index
	return nil
}

// ---- Monitors ----

// InsertMonitor adds m, failing if its id is already present.
func (r *Registry) InsertMonitor(m *Monitor) error {
	if _, ok := r.monitors[m.ID]; ok {
		return fmt.Errorf("entity: monitor %d already registered", m.ID)
	}
	r.monitors[m.ID] = m
	return nil
}

// Monitor looks up a monitor by id.
func (r *Registry) Monitor(id uint32) (*Monitor, bool) {
	m, ok := r.monitors[id]
	return m, ok
}

// Monitors returns every registered monitor; order is unspecified.
func (r *Registry) Monitors() []*Monitor {
	out := make([]*Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		out = append(out, m)
	}
	return out
}

// RemoveMonitor removes a monitor, clearing the workspace assignment
// that referenced it, if any. Idempotent.
func (r *Registry) RemoveMonitor(id uint32) bool {
	m, ok := r.monitors[id]
	if !ok {
		return false
	}
	if m.WorkspaceIndex != NoWorkspace {
		if ws := r.Workspace(m.WorkspaceIndex); ws != nil {
			ws.HasMonitor = false
			ws.MonitorID = 0
		}
	}
	delete(r.monitors, id)
	return true
}

// AssignMonitor binds a workspace and a monitor to each other,
// maintaining the biconditional invariant m.workspace == w ⇔ w.monitor == m.
func (r *Registry) AssignMonitor(ws *Workspace, m *Monitor) {
	if ws.HasMonitor {
		if old, ok := r.monitors[ws.MonitorID]; ok && old != m {
			old.WorkspaceIndex = NoWorkspace
		}
	}
	if m.WorkspaceIndex != NoWorkspace && m.WorkspaceIndex != ws.Index {
		if oldWs := r.Workspace(m.WorkspaceIndex); oldWs != nil {
			oldWs.HasMonitor = false
			oldWs.MonitorID = 0
		}
	}
	ws.HasMonitor = true
	ws.MonitorID = m.ID
	m.WorkspaceIndex = ws.Index
}
