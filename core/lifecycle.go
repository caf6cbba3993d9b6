package core

import (
	"fmt"

	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/persist"
	"github.com/patrislav/marwind/rules"
)

// Init performs onStartup: claims the WM_Sn selection, enumerates
// devices and monitors, restores persisted MPX state, adopts any
// pre-existing top-level windows, and registers the default rule set.
// It must run before Run.
func (w *World) Init() error {
	w.Lock()
	defer w.Unlock()

	if err := w.protoA.ClaimSelection(w.cfg.StealWMSelection); err != nil {
		return fmt.Errorf("core: onStartup: %w", err)
	}
	if err := w.protoA.AdvertiseSupported(); err != nil {
		return fmt.Errorf("core: onStartup: %w", err)
	}

	if err := w.adoptDevices(); err != nil {
		return fmt.Errorf("core: onStartup: %w", err)
	}

	if err := persist.Load(w.reg, w.cfg.StatePersistPath, w.allocDeviceID); err != nil {
		w.log.WithError(err).Warn("core: failed to load persisted MPX state")
	}

	if _, err := w.monitorM.Detect(); err != nil {
		return fmt.Errorf("core: onStartup: %w", err)
	}

	if err := w.adoptExistingWindows(); err != nil {
		return fmt.Errorf("core: onStartup: %w", err)
	}

	w.registerDefaultRules()

	if err := w.protoA.SyncDesktops(0); err != nil {
		w.log.WithError(err).Warn("core: failed to sync desktop properties")
	}
	if err := w.protoA.SyncClientList(); err != nil {
		w.log.WithError(err).Warn("core: failed to sync client list")
	}

	w.tilingD.MarkState()
	w.engine.Apply(rules.KindOnXConnection, 0)
	return nil
}

func (w *World) adoptDevices() error {
	devices, err := w.conn.QueryDeviceHierarchy()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.IsMaster {
			if !d.IsPointer {
				if _, ok := w.reg.Master(d.ID); ok {
					continue
				}
				m := entity.NewMaster(d.ID, d.Attachment, d.Name, w.cfg.DefaultFocusColor)
				m.UnfocusColor = w.cfg.DefaultUnfocusColor
				if err := w.reg.InsertMaster(m); err != nil {
					w.log.WithError(err).WithField("master", d.ID).Warn("core: master insert failed")
				}
			}
			continue
		}
		if _, ok := w.reg.Slave(d.ID); ok {
			continue
		}
		devType := entity.DevicePointer
		if !d.IsPointer {
			devType = entity.DeviceKeyboard
		}
		s := &entity.Slave{ID: d.ID, Master: d.Attachment, Name: d.Name, Type: devType, IsTest: d.IsTest}
		if err := w.reg.InsertSlave(s); err != nil {
			w.log.WithError(err).WithField("slave", d.ID).Warn("core: slave insert failed")
		}
	}
	if w.reg.ActiveMaster() == nil {
		w.reg.SetActiveMaster(entity.DefaultKeyboardID)
	}
	return nil
}

// adoptExistingWindows walks the root's existing children (a WM started
// after clients are already mapped, or restarting in place) and runs
// each through the same registration path MapRequest/CreateNotify
// would.
func (w *World) adoptExistingWindows() error {
	root := w.conn.RootWindow()
	children, err := w.conn.QueryTree(root)
	if err != nil {
		return err
	}
	for _, id := range children {
		attrs, err := w.conn.GetWindowAttributes(id)
		if err != nil || attrs.OverrideRedirect {
			continue
		}
		w.registerWindow(id)
	}
	return nil
}

// registerWindow runs the PreRegisterWindow/PostRegisterWindow rule
// pair and, if not vetoed, inserts win into the registry at its default
// workspace (the active master's active workspace).
func (w *World) registerWindow(id xproto.Window) {
	if _, ok := w.reg.Window(id); ok {
		return
	}
	if !w.engine.Apply(rules.KindPreRegisterWindow, id) {
		return
	}
	win := entity.NewWindow(id)
	if master := w.reg.ActiveMaster(); master != nil {
		win.WorkspaceIndex = master.ActiveWorkspaceIndex
	}
	if err := w.reg.InsertWindow(win); err != nil {
		w.log.WithError(err).WithField("window", id).Warn("core: window insert failed")
		return
	}
	if win.WorkspaceIndex != entity.NoWorkspace {
		if ws := w.reg.Workspace(win.WorkspaceIndex); ws != nil {
			ws.Stack = append(ws.Stack, id)
		}
	}
	w.engine.Apply(rules.KindPostRegisterWindow, id)
}

// unregisterWindow cascades a window's removal through the registry and
// retiles whatever workspace it left behind.
func (w *World) unregisterWindow(id xproto.Window) {
	win, ok := w.reg.Window(id)
	if !ok {
		return
	}
	wasDock := win.Dock
	w.reg.RemoveWindow(id)
	if wasDock {
		w.monitorM.RecomputeViewports()
	}
}

// Quit requests an orderly shutdown: the flag is checked at the top of
// the next pump iteration and after every dispatched event.
func (w *World) Quit() {
	w.Lock()
	defer w.Unlock()
	w.shuttingDown = true
}

// Restart requests the same orderly shutdown as Quit, but leaves
// Restarting() true afterwards so a host binary knows to exec itself
// in place rather than exit. The core itself has no opinion on process
// replacement.
func (w *World) Restart() {
	w.Lock()
	defer w.Unlock()
	w.shuttingDown = true
	w.restarting = true
}

// Restarting reports whether the most recent shutdown was requested via
// Restart rather than Quit. Meaningful only after Run has returned.
func (w *World) Restarting() bool {
	w.Lock()
	defer w.Unlock()
	return w.restarting
}

// shutdown runs the teardown sequence described in §5: join helper
// threads, free registries in dependency order, persist MPX state, and
// close the X connection.
func (w *World) shutdown() {
	w.helpers.Wait()

	if err := persist.Save(w.reg, w.cfg.StatePersistPath); err != nil {
		w.log.WithError(err).Warn("core: failed to persist MPX state on shutdown")
	}

	for _, ws := range w.reg.Workspaces() {
		for _, id := range append([]xproto.Window(nil), ws.Stack...) {
			w.reg.RemoveWindow(id)
		}
	}
	for _, mon := range w.reg.Monitors() {
		w.reg.RemoveMonitor(mon.ID)
	}
	for _, s := range w.reg.Slaves(false) {
		w.reg.RemoveSlave(s.ID)
	}
	for _, m := range w.reg.Masters() {
		w.reg.RemoveMaster(m.ID)
	}

	w.conn.Close()
}
