package rules

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
)

func TestPassThroughNoStopsChain(t *testing.T) {
	e := NewEngine(false, nil)
	var calledSecond bool
	e.Add(KindIdle, Rule{Name: "first", PassThrough: PassNo, Func: func(xproto.Window) bool { return true }}, InsertAppend)
	e.Add(KindIdle, Rule{Name: "second", PassThrough: PassAlways, Func: func(xproto.Window) bool { calledSecond = true; return true }}, InsertAppend)

	result := e.Apply(KindIdle, 0)
	assert.True(t, result)
	assert.False(t, calledSecond)
}

func TestPassThroughAlwaysContinues(t *testing.T) {
	e := NewEngine(false, nil)
	var order []string
	e.Add(KindIdle, Rule{Name: "a", PassThrough: PassAlways, Func: func(xproto.Window) bool { order = append(order, "a"); return false }}, InsertAppend)
	e.Add(KindIdle, Rule{Name: "b", PassThrough: PassNo, Func: func(xproto.Window) bool { order = append(order, "b"); return true }}, InsertAppend)

	e.Apply(KindIdle, 0)
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestPassIfTrueStopsWhenFalse(t *testing.T) {
	e := NewEngine(false, nil)
	var calledSecond bool
	e.Add(KindIdle, Rule{Name: "a", PassThrough: PassIfTrue, Func: func(xproto.Window) bool { return false }}, InsertAppend)
	e.Add(KindIdle, Rule{Name: "b", PassThrough: PassAlways, Func: func(xproto.Window) bool { calledSecond = true; return true }}, InsertAppend)

	result := e.Apply(KindIdle, 0)
	assert.False(t, result)
	assert.False(t, calledSecond)
}

func TestInsertUniqueRefusesDuplicateName(t *testing.T) {
	e := NewEngine(false, nil)
	var count int
	r := Rule{Name: "once", PassThrough: PassAlways, Func: func(xproto.Window) bool { count++; return true }}
	e.Add(KindPeriodic, r, InsertUnique)
	e.Add(KindPeriodic, r, InsertUnique)
	e.Apply(KindPeriodic, 0)
	assert.Equal(t, 1, count)
}

func TestPrependUniqueReplacesAndMovesToHead(t *testing.T) {
	e := NewEngine(false, nil)
	var order []string
	e.Add(KindPeriodic, Rule{Name: "x", PassThrough: PassAlways, Func: func(xproto.Window) bool { order = append(order, "x-old"); return true }}, InsertAppend)
	e.Add(KindPeriodic, Rule{Name: "y", PassThrough: PassAlways, Func: func(xproto.Window) bool { order = append(order, "y"); return true }}, InsertAppend)
	e.Add(KindPeriodic, Rule{Name: "x", PassThrough: PassAlways, Func: func(xproto.Window) bool { order = append(order, "x-new"); return true }}, InsertPrependUnique)

	e.Apply(KindPeriodic, 0)
	assert.Equal(t, []string{"x-new", "y"}, order)
}

func TestBatchCounterIncrementsAndResetsOnFire(t *testing.T) {
	e := NewEngine(false, nil)
	var fired int
	e.AddBatched(KindTileWorkspace, Rule{Name: "batch", Func: func(xproto.Window) bool { fired++; return true }}, InsertAppend)

	e.Apply(KindTileWorkspace, 0)
	e.Apply(KindTileWorkspace, 0)
	assert.Equal(t, 2, e.BatchCounter(KindTileWorkspace))

	e.ApplyBatched()
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, e.BatchCounter(KindTileWorkspace))

	e.ApplyBatched() // nothing pending, must not refire
	assert.Equal(t, 1, fired)
}

func TestBatchCounterIncrementsOnPassNoEarlyExit(t *testing.T) {
	e := NewEngine(false, nil)
	e.Add(KindTileWorkspace, Rule{Name: "stop", PassThrough: PassNo, Func: func(xproto.Window) bool { return true }}, InsertAppend)

	e.Apply(KindTileWorkspace, 0)
	assert.Equal(t, 1, e.BatchCounter(KindTileWorkspace))
}

func TestErrorRuleLogsWithoutAbortByDefault(t *testing.T) {
	e := NewEngine(false, nil)
	var called bool
	e.Add(KindError, Rule{Name: "err", Func: func(xproto.Window) bool { called = true; return false }}, InsertAppend)

	assert.NotPanics(t, func() { e.Apply(KindError, 0) })
	assert.True(t, called)
}
