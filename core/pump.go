package core

import (
	"time"

	"github.com/patrislav/marwind/rules"
	"github.com/patrislav/marwind/x11"
)

// Run is runEventLoop: the single-threaded cooperative loop that owns
// the X connection, per §4.3's five-step contract. It returns when
// Quit/Restart sets the shutting-down flag.
func (w *World) Run() error {
	defer w.shutdown()

	for {
		w.Lock()
		done := w.shuttingDown
		w.Unlock()
		if done {
			return nil
		}

		if w.periodicCounter >= w.cfg.PeriodicInterval {
			w.Lock()
			w.periodicCounter = 0
			w.engine.Apply(rules.KindPeriodic, 0)
			w.Unlock()
		}

		ev, ok, err := w.conn.PollForEvent()
		if err != nil {
			w.log.WithError(err).Warn("core: poll failed")
			return err
		}
		if ok {
			w.dispatch(ev)
			continue
		}

		if w.pollRetry() {
			continue
		}

		w.goIdle()

		ev, err = w.conn.WaitForEvent()
		if err != nil {
			w.log.WithError(err).Warn("core: blocking wait failed")
			return err
		}
		w.dispatch(ev)
	}
}

// pollRetry implements step 3: retry the non-blocking poll up to
// IdlePollRetries times with a short sleep between tries, dispatching
// and returning true the moment one turns up an event.
func (w *World) pollRetry() bool {
	for i := 0; i < w.cfg.IdlePollRetries; i++ {
		time.Sleep(w.cfg.IdlePollInterval)
		ev, ok, err := w.conn.PollForEvent()
		if err != nil {
			w.log.WithError(err).Warn("core: poll retry failed")
			return false
		}
		if ok {
			w.dispatch(ev)
			return true
		}
	}
	return false
}

// goIdle implements step 4: apply batched rules, fire Periodic then
// Idle, increment the idle counter, flush X, and evaluate whether this
// is a TrueIdle (validation passes and no event arrives within the
// grace period) before blocking on the next read.
func (w *World) goIdle() {
	w.Lock()
	w.engine.ApplyBatched()
	w.engine.Apply(rules.KindPeriodic, 0) // runs validate-registry; see registerDefaultRules
	w.engine.Apply(rules.KindIdle, 0)
	w.idleCounter++
	validated := len(w.reg.Validate()) == 0
	if err := w.conn.Flush(); err != nil {
		w.log.WithError(err).Warn("core: flush failed entering idle")
	}
	w.Unlock()

	if !validated || w.cfg.TrueIdleGrace <= 0 {
		return
	}
	time.Sleep(w.cfg.TrueIdleGrace)
	if _, ok, _ := w.conn.PollForEvent(); !ok {
		w.Lock()
		w.engine.Apply(rules.KindTrueIdle, 0)
		w.Unlock()
	}
}

// dispatch implements step 5: acquire the lock, store the event as
// "last event", apply rules for its kind, retile if the resulting
// registry mutation changed anything, release the lock.
func (w *World) dispatch(ev x11.Event) {
	w.Lock()
	defer w.Unlock()

	w.lastEvent = ev
	w.periodicCounter++

	w.handleLifecycleEffects(ev)

	w.engine.Apply(ev.Kind, ev.Window)

	if bits := w.tilingD.UpdateState(); bits.Any() {
		screenW, screenH := w.conn.ScreenSize()
		root := x11.Rect{W: screenW, H: screenH}
		w.tilingD.Retile(bits, root)
		w.tilingD.MarkState()
	}
}
