// Package monitor detects RandR outputs, assigns workspaces to them
// under a configurable duplication policy, and recomputes monitor
// viewports from the dock struts registered against them (§4.6).
package monitor

import (
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/x11"
)

// DuplicationPolicy decides which monitor a workspace should fall back
// to when more than one candidate is free.
type DuplicationPolicy int

const (
	// PreferPrimary always hands a free workspace to the primary
	// monitor when it is among the candidates.
	PreferPrimary DuplicationPolicy = iota
	// PreferByID breaks ties deterministically by ascending monitor id.
	PreferByID
)

// Manager owns monitor detection/assignment and dock-strut viewport
// recomputation against an entity.Registry.
type Manager struct {
	reg    *entity.Registry
	conn   x11.Conn
	policy DuplicationPolicy
	log    *logrus.Logger
}

// New returns a monitor manager bound to reg.
func New(reg *entity.Registry, conn x11.Conn, policy DuplicationPolicy, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{reg: reg, conn: conn, policy: policy, log: log}
}

// Detect queries the transport for current monitor rectangles and
// reconciles the registry: new outputs are created, moved/resized ones
// updated, vanished ones removed. It returns true if anything changed.
func (m *Manager) Detect() (bool, error) {
	infos, err := m.conn.QueryMonitors(m.conn.RootWindow())
	if err != nil {
		return false, err
	}

	seen := make(map[uint32]bool, len(infos))
	changed := false
	for _, info := range infos {
		seen[info.ID] = true
		base := entity.Rect{X: info.Rect.X, Y: info.Rect.Y, W: info.Rect.W, H: info.Rect.H}
		if existing, ok := m.reg.Monitor(info.ID); ok {
			if existing.Base != base || existing.Primary != info.Primary {
				existing.Base = base
				existing.Primary = info.Primary
				changed = true
			}
			continue
		}
		mon := entity.NewMonitor(info.ID, info.Primary, base)
		if err := m.reg.InsertMonitor(mon); err != nil {
			m.log.WithError(err).WithField("monitor", info.ID).Warn("monitor: insert failed")
			continue
		}
		changed = true
	}

	for _, mon := range m.reg.Monitors() {
		if !seen[mon.ID] {
			m.reg.RemoveMonitor(mon.ID)
			changed = true
		}
	}

	if changed {
		m.AssignFreeWorkspaces()
		m.RecomputeViewports()
	}
	return changed, nil
}

// AssignFreeWorkspaces binds every workspace lacking a monitor to a free
// one, applying the duplication policy when more than one candidate is
// free.
func (m *Manager) AssignFreeWorkspaces() {
	for _, ws := range m.reg.Workspaces() {
		if ws.HasMonitor {
			continue
		}
		mon := m.pickFreeMonitor()
		if mon == nil {
			continue
		}
		m.reg.AssignMonitor(ws, mon)
	}
}

func (m *Manager) pickFreeMonitor() *entity.Monitor {
	var free []*entity.Monitor
	for _, mon := range m.reg.Monitors() {
		if mon.WorkspaceIndex == entity.NoWorkspace {
			free = append(free, mon)
		}
	}
	if len(free) == 0 {
		return nil
	}
	if m.policy == PreferPrimary {
		for _, mon := range free {
			if mon.Primary {
				return mon
			}
		}
	}
	best := free[0]
	for _, mon := range free[1:] {
		if mon.ID < best.ID {
			best = mon
		}
	}
	return best
}

// RecomputeViewports recomputes every monitor's viewport as its base
// rectangle minus the union of struts from docks whose strut edge
// intersects that monitor's base, and retiles workspaces whose viewport
// changed is the caller's responsibility (signalled to package tiling
// via the WORKSPACE_MONITOR_CHANGE bit).
func (m *Manager) RecomputeViewports() {
	docks := m.reg.Docks()
	monitors := m.reg.Monitors()
	// Struts are measured from the screen edges; the screen spans the
	// bounding box of every monitor's base rectangle.
	var screenW, screenH uint32
	for _, mon := range monitors {
		if r := uint32(mon.Base.X) + mon.Base.W; r > screenW {
			screenW = r
		}
		if b := uint32(mon.Base.Y) + mon.Base.H; b > screenH {
			screenH = b
		}
	}
	for _, mon := range monitors {
		mon.Viewport = applyStruts(mon.Base, mon.Primary, docks, screenW, screenH)
	}
}

// strutRect turns one edge of a Strut into the screen-relative
// rectangle it reserves, so intersection with a monitor's base can be
// tested the same way any other rectangle would be.
func strutRect(s entity.Strut, screenW, screenH uint32) (top, bottom, left, right entity.Rect) {
	if s.Top > 0 {
		top = entity.Rect{X: int32(s.TopStartX), Y: 0, W: s.TopEndX - s.TopStartX, H: s.Top}
	}
	if s.Bottom > 0 {
		bottom = entity.Rect{X: int32(s.BottomStartX), Y: int32(screenH - s.Bottom), W: s.BottomEndX - s.BottomStartX, H: s.Bottom}
	}
	if s.Left > 0 {
		left = entity.Rect{X: 0, Y: int32(s.LeftStartY), W: s.Left, H: s.LeftEndY - s.LeftStartY}
	}
	if s.Right > 0 {
		right = entity.Rect{X: int32(screenW - s.Right), Y: int32(s.RightStartY), W: s.Right, H: s.RightEndY - s.RightStartY}
	}
	return
}

func applyStruts(base entity.Rect, monIsPrimary bool, docks []*entity.Window, screenW, screenH uint32) entity.Rect {
	v := base
	for _, d := range docks {
		if d.OnlyOnPrimary && !monIsPrimary {
			continue
		}
		s := d.Strut
		if s.Empty() {
			continue
		}
		top, bottom, left, right := strutRect(s, screenW, screenH)
		if !base.Intersects(top) {
			s.Top = 0
		}
		if !base.Intersects(bottom) {
			s.Bottom = 0
		}
		if !base.Intersects(left) {
			s.Left = 0
		}
		if !base.Intersects(right) {
			s.Right = 0
		}
		if s.Empty() {
			continue
		}
		if s.Top > 0 {
			top := int32(s.Top)
			if top > int32(v.H) {
				top = int32(v.H)
			}
			v.Y += top
			v.H -= uint32(top)
		}
		if s.Bottom > 0 {
			bottom := int32(s.Bottom)
			if bottom > int32(v.H) {
				bottom = int32(v.H)
			}
			v.H -= uint32(bottom)
		}
		if s.Left > 0 {
			left := int32(s.Left)
			if left > int32(v.W) {
				left = int32(v.W)
			}
			v.X += left
			v.W -= uint32(left)
		}
		if s.Right > 0 {
			right := int32(s.Right)
			if right > int32(v.W) {
				right = int32(v.W)
			}
			v.W -= uint32(right)
		}
	}
	return v
}

// MoveWorkspaceToMonitor reassigns ws to mon, displacing whatever
// workspace mon previously held (it becomes unassigned).
func (m *Manager) MoveWorkspaceToMonitor(ws *entity.Workspace, mon *entity.Monitor) {
	m.reg.AssignMonitor(ws, mon)
	m.RecomputeViewports()
}

// MoveWindowToMonitor relocates win's workspace assignment to whichever
// workspace is currently mapped onto mon, if any.
func (m *Manager) MoveWindowToMonitor(win xproto.Window, mon *entity.Monitor) error {
	if mon.WorkspaceIndex == entity.NoWorkspace {
		return nil
	}
	w, ok := m.reg.Window(win)
	if !ok {
		return nil
	}
	return m.reg.MoveWindowToWorkspace(w, mon.WorkspaceIndex)
}
