package core

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/rules"
	"github.com/patrislav/marwind/x11"
	"github.com/patrislav/marwind/x11/x11test"
)

// fullLayout tiles every window to the whole viewport, enough to
// exercise Retile without pulling in a concrete layout algorithm
// (out of scope per §1).
type fullLayout struct{}

func (fullLayout) Name() string { return "full" }

func (fullLayout) Arrange(viewport entity.Rect, windows []xproto.Window, args map[string]float64) map[xproto.Window]entity.Geometry {
	out := map[xproto.Window]entity.Geometry{}
	for _, w := range windows {
		out[w] = entity.Geometry{X: viewport.X, Y: viewport.Y, W: viewport.W, H: viewport.H}
	}
	return out
}

func newWorld(t *testing.T, numWorkspaces int) (*World, *x11test.Fake) {
	fake := x11test.New(1920, 1080)
	fake.SetMonitors([]x11.MonitorInfo{{ID: 1, Primary: true, Rect: x11.Rect{W: 1920, H: 1080}}})
	fake.SetDevices([]x11.DeviceInfo{
		{ID: entity.DefaultKeyboardID, Name: "virtual core keyboard", IsMaster: true, IsPointer: false, Attachment: entity.DefaultPointerID},
		{ID: entity.DefaultPointerID, Name: "virtual core pointer", IsMaster: true, IsPointer: true, Attachment: entity.DefaultKeyboardID},
	})

	cfg := DefaultConfig()
	cfg.NumWorkspaces = numWorkspaces
	cfg.StatePersistPath = ""

	w := New(cfg, fake, nil)
	require.NoError(t, w.Init())
	return w, fake
}

// TestScenarioMapAndTileSingleWindow is spec scenario 1: one monitor,
// one workspace, layout FULL; a mapped window ends up tiled to the
// monitor's full viewport.
func TestScenarioMapAndTileSingleWindow(t *testing.T) {
	w, fake := newWorld(t, 1)

	ws := w.reg.Workspace(0)
	ws.ActiveLayout = fullLayout{}
	ws.Layouts = []entity.Layout{fullLayout{}}

	winID := fake.NewWindowID()
	fake.SetAttrs(winID, x11.WindowAttributes{OverrideRedirect: false})

	w.dispatch(x11.Event{Kind: rules.Kind(xproto.MapRequest), Window: winID})

	win, ok := w.reg.Window(winID)
	require.True(t, ok)
	assert.Equal(t, []xproto.Window{winID}, ws.Stack)
	assert.True(t, win.Mask.Has(entity.MaskMapped))

	mon, ok := w.reg.Monitor(1)
	require.True(t, ok)
	assert.Equal(t, entity.Geometry{X: mon.Viewport.X, Y: mon.Viewport.Y, W: mon.Viewport.W, H: mon.Viewport.H}, win.Geometry)

	geom := fake.Geometry(winID)
	assert.Equal(t, uint32(1920), geom.W)
	assert.Equal(t, uint32(1080), geom.H)
}

// TestScenarioDockStrutAppliedRetilesWorkspace is spec scenario 4: a
// dock registering a top strut shrinks the monitor's viewport, and the
// workspace mapped onto it retiles into the reduced viewport.
func TestScenarioDockStrutAppliedRetilesWorkspace(t *testing.T) {
	fake := x11test.New(1000, 1000)
	fake.SetMonitors([]x11.MonitorInfo{{ID: 1, Primary: true, Rect: x11.Rect{W: 1000, H: 1000}}})
	fake.SetDevices([]x11.DeviceInfo{
		{ID: entity.DefaultKeyboardID, Name: "virtual core keyboard", IsMaster: true, IsPointer: false, Attachment: entity.DefaultPointerID},
		{ID: entity.DefaultPointerID, Name: "virtual core pointer", IsMaster: true, IsPointer: true, Attachment: entity.DefaultKeyboardID},
	})

	cfg := DefaultConfig()
	cfg.NumWorkspaces = 1
	cfg.StatePersistPath = ""
	w := New(cfg, fake, nil)
	require.NoError(t, w.Init())

	ws := w.reg.Workspace(0)
	ws.ActiveLayout = fullLayout{}
	ws.Layouts = []entity.Layout{fullLayout{}}

	winID := fake.NewWindowID()
	fake.SetAttrs(winID, x11.WindowAttributes{OverrideRedirect: false})
	w.dispatch(x11.Event{Kind: rules.Kind(xproto.MapRequest), Window: winID})

	dockID := fake.NewWindowID()
	dock := entity.NewWindow(dockID)
	dock.Dock = true
	dock.Strut = entity.Strut{Top: 40, TopStartX: 0, TopEndX: 1000}
	require.NoError(t, w.reg.InsertWindow(dock))

	w.monitorM.RecomputeViewports()
	mon, ok := w.reg.Monitor(1)
	require.True(t, ok)
	assert.Equal(t, entity.Rect{X: 0, Y: 40, W: 1000, H: 960}, mon.Viewport)

	bits := w.tilingD.UpdateState()
	w.tilingD.Retile(bits, x11.Rect{W: 1000, H: 1000})

	win, _ := w.reg.Window(winID)
	assert.Equal(t, entity.Geometry{X: 0, Y: 40, W: 1000, H: 960}, win.Geometry)
}

// TestScenarioWorkspaceShrinkWithWindows is spec scenario 5: shrinking
// the workspace count folds windows from removed workspaces onto the
// last surviving one and clamps any master sitting past the new count.
func TestScenarioWorkspaceShrinkWithWindows(t *testing.T) {
	w, fake := newWorld(t, 4)

	winID := fake.NewWindowID()
	fake.SetAttrs(winID, x11.WindowAttributes{OverrideRedirect: false})
	if m := w.reg.ActiveMaster(); m != nil {
		m.ActiveWorkspaceIndex = 3
	}
	w.dispatch(x11.Event{Kind: rules.Kind(xproto.MapRequest), Window: winID})

	win, ok := w.reg.Window(winID)
	require.True(t, ok)
	require.Equal(t, 3, win.WorkspaceIndex)

	m := w.reg.ActiveMaster()
	require.NotNil(t, m)
	m.ActiveWorkspaceIndex = w.reg.SetWorkspaceCount(2, m.ActiveWorkspaceIndex)

	assert.Equal(t, 1, win.WorkspaceIndex)
	assert.LessOrEqual(t, m.ActiveWorkspaceIndex, 1)
	assert.Equal(t, 2, w.reg.NumWorkspaces())
}
