package proto

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/x11/x11test"
)

func TestClaimSelectionFailsWhenOwnedAndNotStealing(t *testing.T) {
	fake := x11test.New(1920, 1080)
	other := fake.NewWindowID()
	selAtom := fake.Atom("WM_S0")
	require.NoError(t, fake.SetSelectionOwner(other, selAtom, 0))

	a := New(entity.NewRegistry(1), fake, 0, 0xFF, entity.DefaultMasksToSync, nil)
	err := a.ClaimSelection(false)
	require.Error(t, err)
	var owned ErrSelectionOwned
	assert.ErrorAs(t, err, &owned)
	assert.Equal(t, other, owned.Owner)
}

func TestClaimSelectionSucceedsWhenFree(t *testing.T) {
	fake := x11test.New(1920, 1080)
	a := New(entity.NewRegistry(1), fake, 0, 0xFF, entity.DefaultMasksToSync, nil)
	require.NoError(t, a.ClaimSelection(false))

	owner, err := fake.GetSelectionOwner(fake.Atom("WM_S0"))
	require.NoError(t, err)
	assert.NotZero(t, owner)
}

func TestWMStateRoundTripIntersectsWithSyncSet(t *testing.T) {
	fake := x11test.New(1920, 1080)
	reg := entity.NewRegistry(1)
	// sync only Fullscreen, not Urgent, to exercise the intersection.
	a := New(reg, fake, 0, 0xFF, entity.MaskFullscreen, nil)

	w := entity.NewWindow(55)
	w.Mask = w.Mask.Set(entity.MaskFullscreen | entity.MaskUrgent)
	require.NoError(t, reg.InsertWindow(w))

	require.NoError(t, a.SyncWindow(w))

	data, typ, err := fake.GetProperty(w.ID, fake.Atom("_NET_WM_STATE"), 32)
	require.NoError(t, err)
	assert.Equal(t, fake.Atom("ATOM"), typ)
	assert.Len(t, data, 4) // one atom: fullscreen only
}

func TestWMDesktopClampsUnassignedToAllDesktops(t *testing.T) {
	fake := x11test.New(1920, 1080)
	reg := entity.NewRegistry(1)
	a := New(reg, fake, 0, 0xFF, entity.DefaultMasksToSync, nil)

	w := entity.NewWindow(55)
	require.NoError(t, reg.InsertWindow(w))
	require.NoError(t, a.SyncWindow(w))

	data, _, err := fake.GetProperty(w.ID, fake.Atom("_NET_WM_DESKTOP"), 32)
	require.NoError(t, err)
	require.Len(t, data, 4)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, data)
}

func TestClientMessageRejectsDisallowedSource(t *testing.T) {
	fake := x11test.New(1920, 1080)
	reg := entity.NewRegistry(1)
	a := New(reg, fake, 0, SourceApplication.Mask(), entity.DefaultMasksToSync, nil)

	var called bool
	h := Hooks{SetCurrentDesktop: func(int) { called = true }}

	data := [5]uint32{uint32(SourcePager) << 28, 1, 0, 0, 0}
	a.ClientMessage(h, "_NET_CURRENT_DESKTOP", 0, data)
	assert.False(t, called)
}

func TestClientMessageDispatchesAllowedSource(t *testing.T) {
	fake := x11test.New(1920, 1080)
	reg := entity.NewRegistry(1)
	a := New(reg, fake, 0, SourcePager.Mask(), entity.DefaultMasksToSync, nil)

	var gotIndex int
	h := Hooks{SetCurrentDesktop: func(i int) { gotIndex = i }}

	data := [5]uint32{uint32(SourcePager) << 28, 3, 0, 0, 0}
	a.ClientMessage(h, "_NET_CURRENT_DESKTOP", 0, data)
	assert.Equal(t, 3, gotIndex)
}

func TestClientMessageCloseWindowInvokesHook(t *testing.T) {
	fake := x11test.New(1920, 1080)
	reg := entity.NewRegistry(1)
	a := New(reg, fake, 0, 0xFF, entity.DefaultMasksToSync, nil)

	var closed xproto.Window
	h := Hooks{CloseWindow: func(w xproto.Window) { closed = w }}

	a.ClientMessage(h, "_NET_CLOSE_WINDOW", 77, [5]uint32{})
	assert.Equal(t, xproto.Window(77), closed)
}

func TestSendDeleteWindowSendsWMProtocols(t *testing.T) {
	fake := x11test.New(1920, 1080)
	reg := entity.NewRegistry(1)
	a := New(reg, fake, 0, 0xFF, entity.DefaultMasksToSync, nil)

	require.NoError(t, a.SendDeleteWindow(42))
	assert.Contains(t, fake.Calls, "SendClientMessage:42:WM_PROTOCOLS")
}
