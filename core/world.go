// Package core wires the entity registry, rule engine, and every
// subsystem package (bind, focus, monitor, tiling, proto, persist) onto
// a single X connection, and runs the cooperative event pump described
// by §4.3 and §5.
package core

import (
	"sync"
	"time"

	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/bind"
	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/focus"
	"github.com/patrislav/marwind/monitor"
	"github.com/patrislav/marwind/persist"
	"github.com/patrislav/marwind/proto"
	"github.com/patrislav/marwind/rules"
	"github.com/patrislav/marwind/tiling"
	"github.com/patrislav/marwind/x11"
)

// World is the event pump's fixed point: every managed structure lives
// here, guarded by the engine lock.
type World struct {
	cfg  Config
	conn x11.Conn
	log  *logrus.Logger

	// engineLock is the single non-reentrant mutex held across the
	// entirety of rule dispatch for one event (§5).
	engineLock sync.Mutex

	reg     *entity.Registry
	engine  *rules.Engine
	bindM   *bind.Machine
	focusM  *focus.Manager
	monitorM *monitor.Manager
	tilingD *tiling.Driver
	protoA  *proto.Adapter

	lastEvent x11.Event

	periodicCounter int
	idleCounter     int
	nextDeviceID    xproto.Window

	shuttingDown bool
	restarting   bool
	lastEventAt  time.Time

	helpers sync.WaitGroup
}

// New builds a World wired per SPEC_FULL.md §3's dependency table: conn
// backs every transport call, cfg supplies the tunables that would
// otherwise come from a config loader this module doesn't implement.
func New(cfg Config, conn x11.Conn, log *logrus.Logger) *World {
	if log == nil {
		log = logrus.StandardLogger()
	}
	reg := entity.NewRegistry(cfg.NumWorkspaces)
	w := &World{
		cfg:          cfg,
		conn:         conn,
		log:          log,
		reg:          reg,
		engine:       rules.NewEngine(cfg.CrashOnErrors, log),
		nextDeviceID: entity.DefaultPointerID + 1,
	}
	w.bindM = bind.NewMachine(conn, log)
	w.focusM = focus.New(reg, cfg.DefaultUnfocusColor, conn.SetBorderColor, log)
	w.monitorM = monitor.New(reg, conn, cfg.DuplicateMonitorPolicy, log)
	w.tilingD = tiling.New(reg, conn, w.fireTileWorkspace, log)
	w.protoA = proto.New(reg, conn, 0, cfg.SrcIndicationMask, cfg.MasksToSync, log)
	return w
}

// Registry exposes the entity store for callers that need read access
// outside the pump (e.g. a status-pipe collaborator); callers must hold
// the engine lock, acquired via Lock/Unlock, before mutating anything
// it returns.
func (w *World) Registry() *entity.Registry { return w.reg }

// Engine exposes the rule engine so a host binary or extension package
// can register additional rules before Run.
func (w *World) Engine() *rules.Engine { return w.engine }

// Lock acquires the engine lock. Helper goroutines (e.g. a mouse-control
// poller) must call this before touching the registry or issuing X
// calls.
func (w *World) Lock() { w.engineLock.Lock() }

// Unlock releases the engine lock.
func (w *World) Unlock() { w.engineLock.Unlock() }

func (w *World) allocDeviceID() xproto.Window {
	w.nextDeviceID++
	return w.nextDeviceID
}

func (w *World) fireTileWorkspace(ws *entity.Workspace) bool {
	return w.engine.Apply(rules.KindTileWorkspace, firstWindow(ws))
}

func firstWindow(ws *entity.Workspace) xproto.Window {
	if len(ws.Stack) == 0 {
		return 0
	}
	return ws.Stack[0]
}
