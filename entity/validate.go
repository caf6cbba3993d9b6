package entity

import "fmt"

// Validate walks the registry asserting the cross-reference invariants
// of §8: window↔workspace, master-stack, and monitor↔workspace. It
// never mutates state; the caller decides whether to abort (development
// mode) or repair based on Config.CrashOnErrors (see package core).
func (r *Registry) Validate() []error {
	var errs []error

	for _, w := range r.windows {
		if w.WorkspaceIndex == NoWorkspace {
			continue
		}
		ws := r.Workspace(w.WorkspaceIndex)
		if ws == nil {
			errs = append(errs, fmt.Errorf("window %d references missing workspace %d", w.ID, w.WorkspaceIndex))
			continue
		}
		if !ws.Contains(w.ID) {
			errs = append(errs, fmt.Errorf("window %d claims workspace %d but is absent from its stack", w.ID, w.WorkspaceIndex))
		}
		for _, other := range r.workspaces {
			if other.Index != w.WorkspaceIndex && other.Contains(w.ID) {
				errs = append(errs, fmt.Errorf("window %d is in workspace %d's stack but assigned to %d", w.ID, other.Index, w.WorkspaceIndex))
			}
		}
	}

	for _, m := range r.masters {
		seen := map[uint32]struct{}{}
		for _, win := range m.Stack {
			if _, ok := seen[uint32(win)]; ok {
				errs = append(errs, fmt.Errorf("master %d has duplicate window %d in stack", m.ID, win))
			}
			seen[uint32(win)] = struct{}{}
			if _, ok := r.windows[win]; !ok {
				errs = append(errs, fmt.Errorf("master %d stack references missing window %d", m.ID, win))
			}
		}
		if m.FocusedWindow != 0 && !m.FocusFrozen && m.FocusedWindow != m.StackHead() {
			errs = append(errs, fmt.Errorf("master %d focused window %d is not stack head %d", m.ID, m.FocusedWindow, m.StackHead()))
		}
	}

	for _, m := range r.monitors {
		if m.WorkspaceIndex == NoWorkspace {
			continue
		}
		ws := r.Workspace(m.WorkspaceIndex)
		if ws == nil || !ws.HasMonitor || ws.MonitorID != m.ID {
			errs = append(errs, fmt.Errorf("monitor %d claims workspace %d without reciprocal assignment", m.ID, m.WorkspaceIndex))
		}
	}
	for _, ws := range r.workspaces {
		if !ws.HasMonitor {
			continue
		}
		m, ok := r.monitors[ws.MonitorID]
		if !ok || m.WorkspaceIndex != ws.Index {
			errs = append(errs, fmt.Errorf("workspace %d claims monitor %d without reciprocal assignment", ws.Index, ws.MonitorID))
		}
	}

	for _, s := range r.slaves {
		if s.Master == 0 {
			continue
		}
		if _, ok := r.masters[s.Master]; !ok {
			errs = append(errs, fmt.Errorf("slave %d attached to missing master %d", s.ID, s.Master))
		}
	}

	return errs
}

// Repair clears some of the references Validate flags as broken rather
// than aborting. Used when Config.CrashOnErrors is false. It resets a
// window's or monitor's workspace index to NoWorkspace when that
// workspace does not exist, drops master stack entries for windows that
// are not registered, and detaches slaves from missing masters. The
// other violations Validate reports are left as they are: duplicate
// master stack entries, a window absent from its workspace's stack or
// present in another's, a monitor/workspace pair whose assignment is not
// reciprocal, and a focused window that is not the stack head.
func (r *Registry) Repair() {
	for _, w := range r.windows {
		if w.WorkspaceIndex != NoWorkspace && r.Workspace(w.WorkspaceIndex) == nil {
			w.WorkspaceIndex = NoWorkspace
		}
	}
	for _, m := range r.masters {
		kept := m.Stack[:0]
		for _, win := range m.Stack {
			if _, ok := r.windows[win]; ok {
				kept = append(kept, win)
			}
		}
		m.Stack = kept
	}
	for _, m := range r.monitors {
		if m.WorkspaceIndex != NoWorkspace && r.Workspace(m.WorkspaceIndex) == nil {
			m.WorkspaceIndex = NoWorkspace
		}
	}
	for _, s := range r.slaves {
		if s.Master != 0 {
			if _, ok := r.masters[s.Master]; !ok {
				s.Master = 0
			}
		}
	}
}
