package bind

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/x11/x11test"
)

func newMaster() *entity.Master {
	return entity.NewMaster(10, 11, "default", 0)
}

func TestMatchesModifiersDetailAndIgnoreMod(t *testing.T) {
	b := &entity.Binding{Modifiers: xproto.ModMask1, Detail: 38, EventMask: xproto.EventMaskKeyPress}
	numlock := uint16(xproto.ModMask2)

	assert.True(t, Matches(b, xproto.ModMask1, 38, xproto.EventMaskKeyPress, 0, numlock))
	assert.True(t, Matches(b, xproto.ModMask1|uint16(numlock), 38, xproto.EventMaskKeyPress, 0, numlock))
	assert.False(t, Matches(b, xproto.ModMask1, 39, xproto.EventMaskKeyPress, 0, numlock))
	assert.False(t, Matches(b, 0, 38, xproto.EventMaskKeyPress, 0, numlock))
}

func TestMatchesWildcardModifiers(t *testing.T) {
	b := &entity.Binding{Modifiers: WildcardModifiers, Detail: 38, EventMask: xproto.EventMaskKeyPress}
	assert.True(t, Matches(b, xproto.ModMask1, 38, xproto.EventMaskKeyPress, 0, 0))
	assert.True(t, Matches(b, 0, 38, xproto.EventMaskKeyPress, 0, 0))
}

func TestResolveTargetDefaultPolicy(t *testing.T) {
	b := &entity.Binding{TargetPolicy: entity.TargetDefault}
	assert.Equal(t, xproto.Window(1), ResolveTarget(b, true, 1, 2, 0))
	assert.Equal(t, xproto.Window(2), ResolveTarget(b, false, 1, 2, 0))
}

func TestResolveTargetOverridePolicy(t *testing.T) {
	b := &entity.Binding{TargetPolicy: entity.TargetOverride}
	assert.Equal(t, xproto.Window(5), ResolveTarget(b, true, 1, 2, 5))
	assert.Equal(t, xproto.Window(2), ResolveTarget(b, true, 1, 2, 0))
}

func TestChainPushPopBalancesGrabs(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()

	var entered bool
	child := &entity.Binding{Name: "child", Detail: 1, EventMask: xproto.EventMaskKeyPress}
	root := &entity.Binding{
		Name:      "chain-root",
		Detail:    64, // Alt
		EventMask: xproto.EventMaskKeyPress,
		Children:  []*entity.Binding{child},
		Func:      func(xproto.Window) bool { entered = true; return true },
	}
	m.Bindings = []*entity.Binding{root}

	mc.DispatchEvent(m, 0, 64, xproto.EventMaskKeyPress, true, false, 1, 1, false)
	assert.True(t, entered)
	require.NotNil(t, m.TopChain())
	assert.Equal(t, root, m.TopChain().Root)
	assert.Contains(t, fake.Calls, "GrabKey:0:1")

	mc.PopChain(m)
	assert.Nil(t, m.TopChain())
	assert.Contains(t, fake.Calls, "UngrabKey:0:1")
}

func TestPopsChainFlagEndsScope(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()

	m.PushChain(entity.ChainScope{Root: &entity.Binding{Name: "root"}})

	endBinding := &entity.Binding{
		Name:      "end",
		EventMask: xproto.EventMaskKeyPress,
		Flags:     entity.FlagPopsChain,
		Func:      func(xproto.Window) bool { return true },
	}
	m.Chains[0].Root.Children = []*entity.Binding{endBinding}

	mc.DispatchEvent(m, 0, 0, xproto.EventMaskKeyPress, true, false, 0, 0, false)
	assert.Nil(t, m.TopChain())
}

func TestEndChainFlagEndsScopeRegardlessOfNoEndOnPassThrough(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()

	m.PushChain(entity.ChainScope{Root: &entity.Binding{Name: "root", Flags: entity.FlagNoEndOnPassThrough}})

	abort := &entity.Binding{
		Name:      "abort",
		EventMask: xproto.EventMaskKeyPress,
		Flags:     entity.FlagEndChain,
		Func:      func(xproto.Window) bool { return true },
	}
	m.Chains[0].Root.Children = []*entity.Binding{abort}

	mc.DispatchEvent(m, 0, 0, xproto.EventMaskKeyPress, true, false, 0, 0, false)
	assert.Nil(t, m.TopChain())
}

func TestNonMatchingKeyCancelsActiveChain(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()

	m.PushChain(entity.ChainScope{Root: &entity.Binding{Name: "root"}})
	m.Chains[0].Root.Children = []*entity.Binding{
		{Name: "only-matches-38", Detail: 38, EventMask: xproto.EventMaskKeyPress, Func: func(xproto.Window) bool { return true }},
	}

	mc.DispatchEvent(m, 0, 39, xproto.EventMaskKeyPress, true, false, 0, 0, false)
	assert.Nil(t, m.TopChain())
}

func TestNoEndOnPassThroughKeepsChainOnNonMatch(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()

	m.PushChain(entity.ChainScope{Root: &entity.Binding{Name: "root", Flags: entity.FlagNoEndOnPassThrough}})
	m.Chains[0].Root.Children = []*entity.Binding{
		{Name: "only-matches-38", Detail: 38, EventMask: xproto.EventMaskKeyPress, Func: func(xproto.Window) bool { return true }},
	}

	mc.DispatchEvent(m, 0, 39, xproto.EventMaskKeyPress, true, false, 0, 0, false)
	require.NotNil(t, m.TopChain())
}

func TestKeyRepeatFilterDropsRepeatedEvents(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()
	var called bool
	m.Bindings = []*entity.Binding{{
		Name: "b", Detail: 38, EventMask: xproto.EventMaskKeyPress,
		Func: func(xproto.Window) bool { called = true; return true },
	}}

	result := mc.DispatchEvent(m, 0, 38, xproto.EventMaskKeyPress, true, true, 0, 0, true)
	assert.False(t, result)
	assert.False(t, called)
}

func TestPassThroughStopsBindingChain(t *testing.T) {
	fake := x11test.New(1920, 1080)
	mc := NewMachine(fake, nil)
	m := newMaster()
	var secondCalled bool
	m.Bindings = []*entity.Binding{
		{Name: "a", Detail: 38, EventMask: xproto.EventMaskKeyPress, PassThrough: entity.PassNo, Func: func(xproto.Window) bool { return true }},
		{Name: "b", Detail: 38, EventMask: xproto.EventMaskKeyPress, PassThrough: entity.PassAlways, Func: func(xproto.Window) bool { secondCalled = true; return true }},
	}
	mc.DispatchEvent(m, 0, 38, xproto.EventMaskKeyPress, true, false, 0, 0, false)
	assert.False(t, secondCalled)
}
