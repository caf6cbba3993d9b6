package core

import (
	"time"

	"github.com/patrislav/marwind/entity"
	"github.com/patrislav/marwind/monitor"
)

// Config is the plain data the host binary constructs and passes to
// New. The core implements no file-format loader — that is an external
// collaborator (§1 Non-goals) — but reads every field below except
// BorderWidth, which nothing in the core consumes.
type Config struct {
	NumWorkspaces int

	CrashOnErrors    bool
	StealWMSelection bool

	SrcIndicationMask uint8
	IgnoreModMask     uint16

	IdlePollInterval time.Duration
	IdlePollRetries  int
	PeriodicInterval int
	TrueIdleGrace    time.Duration

	BorderWidth         uint32
	DefaultFocusColor   uint32
	DefaultUnfocusColor uint32
	MasksToSync         entity.WindowMask

	StatePersistPath string

	DuplicateMonitorPolicy monitor.DuplicationPolicy
}

// DefaultConfig returns the values the original tunables default to,
// for a host binary that wants a reasonable starting point.
func DefaultConfig() Config {
	return Config{
		NumWorkspaces:       9,
		CrashOnErrors:       false,
		StealWMSelection:    false,
		SrcIndicationMask:   0xFF,
		IgnoreModMask:       0,
		IdlePollInterval:    10 * time.Millisecond,
		IdlePollRetries:     5,
		PeriodicInterval:    100,
		TrueIdleGrace:       50 * time.Millisecond,
		BorderWidth:         2,
		DefaultFocusColor:   0x4c7899,
		DefaultUnfocusColor: 0x333333,
		MasksToSync:         entity.DefaultMasksToSync,
		StatePersistPath:    "~/.cache/marwind/state",
	}
}
