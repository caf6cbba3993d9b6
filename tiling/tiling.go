// Package tiling detects per-workspace state changes and drives the
// layout/configure/map cycle that follows them (§4.7).
package tiling

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/x11"
)

// ChangeBits is the bitset updateState returns.
type ChangeBits uint8

const (
	WorkspaceWindowChange ChangeBits = 1 << iota
	WorkspaceMonitorChange
	WindowChange
)

// Any reports whether any bit in c is set.
func (c ChangeBits) Any() bool { return c != 0 }

// Layout turns a workspace's window stack into target geometries for a
// viewport. Concrete algorithms (column, grid, master-pane, ...) are an
// external collaborator; this package only dispatches through the
// interface.
type Layout interface {
	entity.Layout
	Arrange(viewport entity.Rect, windows []xproto.Window, args map[string]float64) map[xproto.Window]entity.Geometry
}

// TileFunc fires the TileWorkspace rule for ws after it has been
// rearranged; the bool return follows the rule-engine pass-through
// convention.
type TileFunc func(ws *entity.Workspace) bool

// Driver computes workspace signatures, detects change, and issues the
// resulting configure/map calls.
type Driver struct {
	reg      *entity.Registry
	conn     x11.Conn
	log      *logrus.Logger
	tileRule TileFunc

	signatures map[int]workspaceSignature
	changed    map[int]bool // workspace index -> needs a Retile pass, set by UpdateState
}

// New returns a tiling driver bound to reg. tileRule may be nil.
func New(reg *entity.Registry, conn x11.Conn, tileRule TileFunc, log *logrus.Logger) *Driver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{reg: reg, conn: conn, tileRule: tileRule, log: log, signatures: map[int]workspaceSignature{}}
}

// workspaceSignature is a workspace's tiling-relevant state split into
// the two halves updateState's bits distinguish: the window/layout half
// and the monitor/viewport half.
type workspaceSignature struct {
	windows [32]byte
	monitor [32]byte
}

func signature(reg *entity.Registry, ws *entity.Workspace) workspaceSignature {
	wh := sha256.New()
	var buf [8]byte
	for _, id := range ws.Stack {
		binary.BigEndian.PutUint32(buf[:4], uint32(id))
		if w, ok := reg.Window(id); ok {
			binary.BigEndian.PutUint32(buf[4:], uint32(w.Mask))
		}
		wh.Write(buf[:])
	}
	if ws.ActiveLayout != nil {
		wh.Write([]byte(ws.ActiveLayout.Name()))
	}
	for k, v := range ws.LayoutArgs {
		fmt.Fprintf(wh, "%s=%f;", k, v)
	}

	mh := sha256.New()
	binary.BigEndian.PutUint32(buf[:4], ws.MonitorID)
	mh.Write(buf[:4])
	if mon, ok := reg.Monitor(ws.MonitorID); ok {
		binary.BigEndian.PutUint32(buf[:4], uint32(mon.Viewport.X))
		mh.Write(buf[:4])
		binary.BigEndian.PutUint32(buf[:4], uint32(mon.Viewport.Y))
		mh.Write(buf[:4])
		binary.BigEndian.PutUint32(buf[:4], mon.Viewport.W)
		mh.Write(buf[:4])
		binary.BigEndian.PutUint32(buf[:4], mon.Viewport.H)
		mh.Write(buf[:4])
	}

	var sig workspaceSignature
	copy(sig.windows[:], wh.Sum(nil))
	copy(sig.monitor[:], mh.Sum(nil))
	return sig
}

// MarkState snapshots every workspace's current signature, establishing
// the baseline the next UpdateState compares against.
func (d *Driver) MarkState() {
	for _, ws := range d.reg.Workspaces() {
		d.signatures[ws.Index] = signature(d.reg, ws)
	}
}

// UpdateState compares current signatures against the last MarkState
// snapshot and returns the bitset of what changed, across every
// workspace. It also records which individual workspaces changed, so
// Retile can re-tile only those instead of every visible one. A window
// whose last configure call failed marks its workspace changed again,
// so the next Retile retries it. It does
// not itself update the snapshot — callers that act on the result
// should MarkState again afterward.
func (d *Driver) UpdateState() ChangeBits {
	var bits ChangeBits
	changed := make(map[int]bool, len(d.reg.Workspaces()))
	for _, ws := range d.reg.Workspaces() {
		prev, ok := d.signatures[ws.Index]
		cur := signature(d.reg, ws)
		if !ok || prev.windows != cur.windows {
			bits |= WorkspaceWindowChange
			changed[ws.Index] = true
		}
		if !ok || prev.monitor != cur.monitor {
			bits |= WorkspaceMonitorChange
			changed[ws.Index] = true
		}
	}
	for _, w := range d.reg.Windows() {
		wantVisible := w.WorkspaceIndex != entity.NoWorkspace && !w.Mask.Has(entity.MaskHidden)
		isMapped := w.Mask.Has(entity.MaskMapped)
		if wantVisible != isMapped {
			bits |= WindowChange
			changed[w.WorkspaceIndex] = true
		}
		if w.TransientConfigureFailure && w.WorkspaceIndex != entity.NoWorkspace {
			bits |= WorkspaceWindowChange
			changed[w.WorkspaceIndex] = true
		}
	}
	d.changed = changed
	return bits
}

// Retile applies every visible workspace UpdateState marked changed,
// issues configure/map calls for the resulting geometries, fires the
// TileWorkspace rule, and updates X map state for windows that crossed
// the visibility boundary. It should be called whenever UpdateState
// returns a non-zero bitset, with that same bitset.
func (d *Driver) Retile(bits ChangeBits, root x11.Rect) {
	if !bits.Any() {
		return
	}

	for _, ws := range d.reg.Workspaces() {
		if !ws.HasMonitor || ws.ShowingDesktop || !d.changed[ws.Index] {
			continue
		}
		mon, ok := d.reg.Monitor(ws.MonitorID)
		if !ok {
			continue
		}
		d.retileWorkspace(ws, mon, root)
	}

	for _, w := range d.reg.Windows() {
		d.syncVisibility(w)
	}
}

func (d *Driver) retileWorkspace(ws *entity.Workspace, mon *entity.Monitor, root x11.Rect) {
	var targets map[xproto.Window]entity.Geometry
	if l, ok := ws.ActiveLayout.(Layout); ok {
		tileable := make([]xproto.Window, 0, len(ws.Stack))
		for _, id := range ws.Stack {
			if w, ok := d.reg.Window(id); ok && !w.Mask.Any(entity.MaskNoTile|entity.MaskFloating) {
				tileable = append(tileable, id)
			}
		}
		targets = l.Arrange(mon.Viewport, tileable, ws.LayoutArgs)
	}

	for _, id := range ws.Stack {
		w, ok := d.reg.Window(id)
		if !ok {
			continue
		}
		geom, changed := d.resolveGeometry(w, mon, root, targets)
		if !changed {
			continue
		}
		d.configure(w, geom)
	}

	if d.tileRule != nil {
		d.tileRule(ws)
	}
}

// resolveGeometry computes w's target geometry and reports whether it
// differs from the window's current geometry (the caller skips issuing
// a configure call when it doesn't).
func (d *Driver) resolveGeometry(w *entity.Window, mon *entity.Monitor, root x11.Rect, targets map[xproto.Window]entity.Geometry) (entity.Geometry, bool) {
	var g entity.Geometry
	switch {
	case w.Mask.Has(entity.MaskRootFullscreen):
		g = entity.Geometry{X: root.X, Y: root.Y, W: root.W, H: root.H, Border: 0}
	case w.Mask.Has(entity.MaskFullscreen):
		g = entity.Geometry{X: mon.Viewport.X, Y: mon.Viewport.Y, W: mon.Viewport.W, H: mon.Viewport.H, Border: 0}
	case w.Mask.Has(entity.MaskNoTile):
		return entity.Geometry{}, false
	default:
		target, ok := targets[w.ID]
		if !ok {
			return entity.Geometry{}, false
		}
		applyOverride(&target, w.Override)
		g = target
	}
	return g, g != w.Geometry
}

func applyOverride(g *entity.Geometry, o entity.TilingOverride) {
	if o.X != nil {
		g.X = *o.X
	}
	if o.Y != nil {
		g.Y = *o.Y
	}
	if o.W != nil {
		g.W = uint32(*o.W)
	}
	if o.H != nil {
		g.H = uint32(*o.H)
	}
	if o.Border != nil {
		g.Border = uint32(*o.Border)
	}
}

func (d *Driver) configure(w *entity.Window, geom entity.Geometry) {
	if w.Locked() {
		return
	}
	mask := x11.ConfigX | x11.ConfigY | x11.ConfigWidth | x11.ConfigHeight | x11.ConfigBorderWidth
	values := x11.ConfigureValues{X: geom.X, Y: geom.Y, W: geom.W, H: geom.H, BorderWidth: geom.Border}
	if err := d.conn.ConfigureWindow(w.ID, mask, values); err != nil {
		d.log.WithError(err).WithField("window", w.ID).Warn("tiling: configure failed, scheduling retry")
		w.TransientConfigureFailure = true
		return
	}
	w.Geometry = geom
	w.TransientConfigureFailure = false
}

func (d *Driver) syncVisibility(w *entity.Window) {
	wantVisible := w.WorkspaceIndex != entity.NoWorkspace && !w.Mask.Has(entity.MaskHidden)
	isMapped := w.Mask.Has(entity.MaskMapped)
	if wantVisible == isMapped {
		return
	}
	if wantVisible {
		if err := d.conn.MapWindow(w.ID); err != nil {
			d.log.WithError(err).WithField("window", w.ID).Warn("tiling: map failed")
			return
		}
		w.Mask = w.Mask.Set(entity.MaskMapped)
	} else {
		if err := d.conn.UnmapWindow(w.ID); err != nil {
			d.log.WithError(err).WithField("window", w.ID).Warn("tiling: unmap failed")
			return
		}
		w.Mask = w.Mask.Clear(entity.MaskMapped)
	}
}
