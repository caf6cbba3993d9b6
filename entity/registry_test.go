package entity

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowWorkspaceInvariant(t *testing.T) {
	r := NewRegistry(4)
	w := NewWindow(xproto.Window(100))
	require.NoError(t, r.InsertWindow(w))

	require.NoError(t, r.MoveWindowToWorkspace(w, 2))
	ws2 := r.Workspace(2)
	assert.True(t, ws2.Contains(w.ID))
	for i, ws := range r.Workspaces() {
		if i != 2 {
			assert.False(t, ws.Contains(w.ID))
		}
	}
	assert.Empty(t, r.Validate())
}

func TestMasterStackNoDuplicatesAndFocusHead(t *testing.T) {
	r := NewRegistry(1)
	m := NewMaster(10, 11, "default", 0xff0000)
	require.NoError(t, r.InsertMaster(m))

	w1 := NewWindow(1)
	w2 := NewWindow(2)
	require.NoError(t, r.InsertWindow(w1))
	require.NoError(t, r.InsertWindow(w2))

	m.PushFocused(w1.ID)
	m.PushFocused(w2.ID)
	m.PushFocused(w1.ID) // re-focusing an existing entry must not duplicate it
	m.FocusedWindow = m.StackHead()

	assert.Equal(t, []xproto.Window{1, 2}, m.Stack)
	assert.Empty(t, r.Validate())
}

func TestRemoveWindowCascades(t *testing.T) {
	r := NewRegistry(2)
	m := NewMaster(10, 11, "default", 0)
	require.NoError(t, r.InsertMaster(m))
	w := NewWindow(5)
	require.NoError(t, r.InsertWindow(w))
	require.NoError(t, r.MoveWindowToWorkspace(w, 0))
	m.PushFocused(w.ID)
	m.FocusedWindow = w.ID

	assert.True(t, r.RemoveWindow(w.ID))
	assert.False(t, r.RemoveWindow(w.ID)) // idempotent

	assert.Empty(t, m.Stack)
	assert.Equal(t, xproto.Window(0), m.FocusedWindow)
	assert.False(t, r.Workspace(0).Contains(w.ID))
}

func TestMonitorWorkspaceBiconditional(t *testing.T) {
	r := NewRegistry(2)
	mon := NewMonitor(1, true, Rect{W: 1920, H: 1080})
	require.NoError(t, r.InsertMonitor(mon))
	ws := r.Workspace(0)

	r.AssignMonitor(ws, mon)
	assert.Equal(t, mon.ID, ws.MonitorID)
	assert.Equal(t, ws.Index, mon.WorkspaceIndex)
	assert.Empty(t, r.Validate())

	assert.True(t, r.RemoveMonitor(mon.ID))
	assert.False(t, ws.HasMonitor)
}

func TestWorkspaceShrinkMergesAndClampsActive(t *testing.T) {
	r := NewRegistry(4)
	w := NewWindow(9)
	require.NoError(t, r.InsertWindow(w))
	require.NoError(t, r.MoveWindowToWorkspace(w, 3))

	newActive := r.SetWorkspaceCount(2, 3)
	assert.Equal(t, 1, newActive)
	assert.Equal(t, 1, w.WorkspaceIndex)
	assert.True(t, r.Workspace(1).Contains(w.ID))
}

func TestRemoveMasterFloatsSlaves(t *testing.T) {
	r := NewRegistry(1)
	m := NewMaster(10, 11, "default", 0)
	require.NoError(t, r.InsertMaster(m))
	s := &Slave{ID: 20, Master: m.ID, Name: "kbd0"}
	require.NoError(t, r.InsertSlave(s))

	assert.True(t, r.RemoveMaster(m.ID))
	assert.True(t, s.Floating())
}

func TestValidateCatchesDuplicateStackEntry(t *testing.T) {
	r := NewRegistry(1)
	m := NewMaster(10, 11, "default", 0)
	require.NoError(t, r.InsertMaster(m))
	w := NewWindow(1)
	require.NoError(t, r.InsertWindow(w))
	m.Stack = []xproto.Window{w.ID, w.ID}

	errs := r.Validate()
	assert.NotEmpty(t, errs)
}

func TestSlaveUserFacingExcludesTestDevices(t *testing.T) {
	r := NewRegistry(1)
	require.NoError(t, r.InsertSlave(&Slave{ID: 1, Name: "real"}))
	require.NoError(t, r.InsertSlave(&Slave{ID: 2, Name: "xtest", IsTest: true}))

	assert.Len(t, r.Slaves(true), 1)
	assert.Len(t, r.Slaves(false), 2)
}
