package entity

import "github.com/jezek/xgb/xproto"

// DeviceType distinguishes a slave's kind.
type DeviceType uint8

const (
	DeviceKeyboard DeviceType = iota
	DevicePointer
)

// Slave is a physical (or XTEST virtual) input device.
type Slave struct {
	ID       xproto.Window
	Master   xproto.Window // 0 == floating, unattached
	Name     string
	Type     DeviceType
	IsTest   bool // XTEST virtual device; excluded from user-facing enumeration
}

// Floating reports whether the slave is currently unattached.
func (s *Slave) Floating() bool { return s.Master == 0 }
