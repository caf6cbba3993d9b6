package tiling

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/x11"
	"github.com/patrislav/marwind/x11/x11test"
)

type fullLayout struct{}

func (fullLayout) Name() string { return "full" }

func (fullLayout) Arrange(viewport entity.Rect, windows []xproto.Window, args map[string]float64) map[xproto.Window]entity.Geometry {
	out := map[xproto.Window]entity.Geometry{}
	for _, w := range windows {
		out[w] = entity.Geometry{X: viewport.X, Y: viewport.Y, W: viewport.W, H: viewport.H}
	}
	return out
}

func setup(t *testing.T) (*entity.Registry, *x11test.Fake, *entity.Monitor, *entity.Workspace) {
	reg := entity.NewRegistry(1)
	mon := entity.NewMonitor(1, true, entity.Rect{W: 1920, H: 1080})
	require.NoError(t, reg.InsertMonitor(mon))
	ws := reg.Workspace(0)
	reg.AssignMonitor(ws, mon)
	ws.ActiveLayout = fullLayout{}
	ws.Layouts = []entity.Layout{fullLayout{}}
	fake := x11test.New(1920, 1080)
	return reg, fake, mon, ws
}

func TestMarkStateThenUpdateStateIsNoChangeWithoutMutation(t *testing.T) {
	reg, fake, _, _ := setup(t)
	d := New(reg, fake, nil, nil)
	d.MarkState()
	assert.Equal(t, ChangeBits(0), d.UpdateState())
}

func TestUpdateStateDetectsWindowChange(t *testing.T) {
	reg, fake, _, ws := setup(t)
	d := New(reg, fake, nil, nil)
	d.MarkState()

	w := entity.NewWindow(55)
	require.NoError(t, reg.InsertWindow(w))
	require.NoError(t, reg.MoveWindowToWorkspace(w, ws.Index))

	bits := d.UpdateState()
	assert.True(t, bits&WorkspaceWindowChange != 0)
}

func TestRetileMapsAndConfiguresWindow(t *testing.T) {
	reg, fake, _, ws := setup(t)
	w := entity.NewWindow(55)
	require.NoError(t, reg.InsertWindow(w))
	require.NoError(t, reg.MoveWindowToWorkspace(w, ws.Index))

	var tiledWS *entity.Workspace
	d := New(reg, fake, func(ws *entity.Workspace) bool { tiledWS = ws; return true }, nil)
	d.MarkState()
	bits := d.UpdateState()
	require.True(t, bits.Any())

	d.Retile(bits, x11.Rect{W: 1920, H: 1080})

	assert.Equal(t, entity.Geometry{X: 0, Y: 0, W: 1920, H: 1080}, w.Geometry)
	assert.True(t, w.Mask.Has(entity.MaskMapped))
	assert.Equal(t, ws, tiledWS)

	geom := fake.Geometry(55)
	assert.Equal(t, uint32(1920), geom.W)
}

func TestFullscreenOverridesToMonitorViewport(t *testing.T) {
	reg, fake, mon, ws := setup(t)
	mon.Viewport = entity.Rect{X: 10, Y: 20, W: 800, H: 600}
	w := entity.NewWindow(55)
	w.Mask = w.Mask.Set(entity.MaskFullscreen)
	require.NoError(t, reg.InsertWindow(w))
	require.NoError(t, reg.MoveWindowToWorkspace(w, ws.Index))

	d := New(reg, fake, nil, nil)
	bits := d.UpdateState()
	d.Retile(bits, x11.Rect{W: 1920, H: 1080})

	assert.Equal(t, entity.Geometry{X: 10, Y: 20, W: 800, H: 600}, w.Geometry)
}

func TestNoTileWindowIsLeftAlone(t *testing.T) {
	reg, fake, _, ws := setup(t)
	w := entity.NewWindow(55)
	w.Mask = w.Mask.Set(entity.MaskNoTile)
	w.Geometry = entity.Geometry{X: 5, Y: 5, W: 100, H: 100}
	require.NoError(t, reg.InsertWindow(w))
	require.NoError(t, reg.MoveWindowToWorkspace(w, ws.Index))

	d := New(reg, fake, nil, nil)
	bits := d.UpdateState()
	d.Retile(bits, x11.Rect{W: 1920, H: 1080})

	assert.Equal(t, entity.Geometry{X: 5, Y: 5, W: 100, H: 100}, w.Geometry)
}

func TestConfigureFailureSetsTransientRetryBit(t *testing.T) {
	reg, fake, _, ws := setup(t)
	w := entity.NewWindow(55)
	require.NoError(t, reg.InsertWindow(w))
	require.NoError(t, reg.MoveWindowToWorkspace(w, ws.Index))

	d := New(reg, failingConn{fake}, nil, nil)
	bits := d.UpdateState()
	d.Retile(bits, x11.Rect{W: 1920, H: 1080})

	assert.True(t, w.TransientConfigureFailure)
}

type failingConn struct{ *x11test.Fake }

func (failingConn) ConfigureWindow(xproto.Window, x11.ConfigureMask, x11.ConfigureValues) error {
	return assert.AnError
}
