package core

import (
	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/rules"
)

// registerDefaultRules wires the core's own built-in rules: the
// integrity validator (§4.11, supplementing §7's integrity-violation
// handling) as a Periodic rule, and a PreRegisterWindow veto that keeps
// override-redirect windows (and windows whose attributes cannot be
// read) unmanaged. Window size is not checked: zero-size windows are
// managed like any other.
func (w *World) registerDefaultRules() {
	w.engine.Add(rules.KindPreRegisterWindow, rules.Rule{
		Name:        "skip-override-redirect",
		PassThrough: rules.PassIfTrue,
		Func: func(win xproto.Window) bool {
			attrs, err := w.conn.GetWindowAttributes(win)
			return err == nil && !attrs.OverrideRedirect
		},
	}, rules.InsertUnique)

	w.engine.Add(rules.KindPeriodic, rules.Rule{
		Name:        "validate-registry",
		PassThrough: rules.PassAlways,
		Func: func(xproto.Window) bool {
			violations := w.reg.Validate()
			if len(violations) == 0 {
				return true
			}
			for _, v := range violations {
				w.log.WithError(v).Warn("core: periodic integrity check found a violation")
			}
			if w.cfg.CrashOnErrors {
				w.log.Fatal("core: aborting on integrity violation (CrashOnErrors set)")
			}
			w.reg.Repair()
			return false
		},
	}, rules.InsertUnique)
}
