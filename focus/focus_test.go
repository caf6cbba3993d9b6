package focus

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/entity"
)

func newRegistry() (*entity.Registry, *entity.Master) {
	reg := entity.NewRegistry(1)
	m := entity.NewMaster(entity.DefaultKeyboardID, entity.DefaultPointerID, "default", 0xff0000)
	_ = reg.InsertMaster(m)
	return reg, m
}

func newManagedWindow(reg *entity.Registry, id xproto.Window) *entity.Window {
	w := entity.NewWindow(id)
	_ = reg.InsertWindow(w)
	return w
}

func TestOnFocusChangePushesStackHead(t *testing.T) {
	reg, m := newRegistry()
	newManagedWindow(reg, 100)
	newManagedWindow(reg, 200)

	var painted []xproto.Window
	mgr := New(reg, 0x808080, func(win xproto.Window, color uint32) error {
		painted = append(painted, win)
		return nil
	}, nil)

	mgr.OnFocusChange(m.ID, 100, 1)
	mgr.OnFocusChange(m.ID, 200, 2)

	require.Equal(t, []xproto.Window{200, 100}, m.Stack)
	assert.Equal(t, xproto.Window(200), m.FocusedWindow)
	assert.Equal(t, []xproto.Window{100, 200}, painted)
}

func TestOnFocusChangeFrozenMovesCursorNotStack(t *testing.T) {
	reg, m := newRegistry()
	newManagedWindow(reg, 100)
	newManagedWindow(reg, 200)
	m.Stack = []xproto.Window{100, 200}

	mgr := New(reg, 0, func(xproto.Window, uint32) error { return nil }, nil)
	mgr.Freeze(m)

	mgr.OnFocusChange(m.ID, 200, 5)

	assert.Equal(t, []xproto.Window{100, 200}, m.Stack)
	assert.Equal(t, 1, m.FrozenCursor)
}

func TestOnFocusChangeSkipsStackForNoRecordFocus(t *testing.T) {
	reg, m := newRegistry()
	w := newManagedWindow(reg, 100)
	w.Mask = w.Mask.Set(entity.MaskNoRecordFocus)

	mgr := New(reg, 0, func(xproto.Window, uint32) error { return nil }, nil)
	mgr.OnFocusChange(m.ID, 100, 1)

	assert.Empty(t, m.Stack)
	assert.Equal(t, xproto.Window(100), m.FocusedWindow)
}

func TestOnFocusOutFallsBackToUnfocusedColor(t *testing.T) {
	reg, m := newRegistry()
	newManagedWindow(reg, 100)

	var lastColor uint32
	mgr := New(reg, 0xcccccc, func(win xproto.Window, color uint32) error {
		lastColor = color
		return nil
	}, nil)

	mgr.OnFocusChange(m.ID, 100, 1)
	m.FocusedWindow = 0 // simulate the window losing focus entirely
	mgr.OnFocusOut(100)

	assert.Equal(t, uint32(0xcccccc), lastColor)
}

func TestFreezeUnfreezeCycle(t *testing.T) {
	reg, m := newRegistry()
	newManagedWindow(reg, 100)
	newManagedWindow(reg, 200)
	newManagedWindow(reg, 300)
	m.Stack = []xproto.Window{100, 200, 300}
	m.FocusedWindow = 100

	mgr := New(reg, 0, func(xproto.Window, uint32) error { return nil }, nil)
	mgr.Freeze(m)

	assert.Equal(t, xproto.Window(200), mgr.CycleNext(m, 1))
	assert.Equal(t, xproto.Window(300), mgr.CycleNext(m, 1))
	assert.Equal(t, xproto.Window(100), mgr.CycleNext(m, 1))

	mgr.Unfreeze(m)
	assert.Equal(t, []xproto.Window{100, 200, 300}, m.Stack)
	assert.False(t, m.FocusFrozen)
}
