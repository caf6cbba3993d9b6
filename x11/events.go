package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xinput"
	"github.com/jezek/xgb/xproto"

	"github.com/patrislav/marwind/rules"
)

// syntheticBit is set in an event's top byte when the server (or a
// client via SendEvent) marks it as synthetic rather than genuinely
// generated by a device/window change.
const syntheticBit = 0x80

// normalize classifies a raw xgb event into the fixed Kind enumeration
// by its Go type: core events keep their X event code, XI2 events map
// into the generic-event band, RandR screen-change notifications map to
// their own synthetic kind, and anything else becomes KindExtra. xgb
// has already masked the synthetic bit off the event code when it
// decoded the event, so synthetic and genuine events are classified
// alike and Event.Synthetic is left false.
func normalize(ev xgb.Event) Event {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return Event{Kind: rules.Kind(xproto.KeyPress), Window: e.Event, Raw: e}
	case xproto.KeyReleaseEvent:
		return Event{Kind: rules.Kind(xproto.KeyRelease), Window: e.Event, Raw: e}
	case xproto.ButtonPressEvent:
		return Event{Kind: rules.Kind(xproto.ButtonPress), Window: e.Event, Raw: e}
	case xproto.ButtonReleaseEvent:
		return Event{Kind: rules.Kind(xproto.ButtonRelease), Window: e.Event, Raw: e}
	case xproto.MotionNotifyEvent:
		return Event{Kind: rules.Kind(xproto.MotionNotify), Window: e.Event, Raw: e}
	case xproto.EnterNotifyEvent:
		return Event{Kind: rules.Kind(xproto.EnterNotify), Window: e.Event, Raw: e}
	case xproto.LeaveNotifyEvent:
		return Event{Kind: rules.Kind(xproto.LeaveNotify), Window: e.Event, Raw: e}
	case xproto.FocusInEvent:
		return Event{Kind: rules.Kind(xproto.FocusIn), Window: e.Event, Raw: e}
	case xproto.FocusOutEvent:
		return Event{Kind: rules.Kind(xproto.FocusOut), Window: e.Event, Raw: e}
	case xproto.CreateNotifyEvent:
		return Event{Kind: rules.Kind(xproto.CreateNotify), Window: e.Window, Raw: e}
	case xproto.DestroyNotifyEvent:
		return Event{Kind: rules.Kind(xproto.DestroyNotify), Window: e.Window, Raw: e}
	case xproto.UnmapNotifyEvent:
		return Event{Kind: rules.Kind(xproto.UnmapNotify), Window: e.Window, Raw: e}
	case xproto.MapNotifyEvent:
		return Event{Kind: rules.Kind(xproto.MapNotify), Window: e.Window, Raw: e}
	case xproto.MapRequestEvent:
		return Event{Kind: rules.Kind(xproto.MapRequest), Window: e.Window, Raw: e}
	case xproto.ConfigureNotifyEvent:
		return Event{Kind: rules.Kind(xproto.ConfigureNotify), Window: e.Window, Raw: e}
	case xproto.ConfigureRequestEvent:
		return Event{Kind: rules.Kind(xproto.ConfigureRequest), Window: e.Window, Raw: e}
	case xproto.PropertyNotifyEvent:
		return Event{Kind: rules.Kind(xproto.PropertyNotify), Window: e.Window, Raw: e}
	case xproto.ClientMessageEvent:
		return Event{Kind: rules.Kind(xproto.ClientMessage), Window: e.Window, Raw: e}
	case xproto.MappingNotifyEvent:
		return Event{Kind: rules.Kind(xproto.MappingNotify), Raw: e}
	case xinput.HierarchyEvent:
		return Event{Kind: rules.KindXIHierarchyChanged, Raw: e}
	case xinput.DeviceChangedEvent:
		return Event{Kind: rules.KindXIDeviceChanged, Raw: e}
	case xinput.KeyPressEvent:
		return Event{Kind: rules.KindXIKeyPress, Window: e.Event, Raw: e}
	case xinput.KeyReleaseEvent:
		return Event{Kind: rules.KindXIKeyRelease, Window: e.Event, Raw: e}
	case xinput.ButtonPressEvent:
		return Event{Kind: rules.KindXIButtonPress, Window: e.Event, Raw: e}
	case xinput.ButtonReleaseEvent:
		return Event{Kind: rules.KindXIButtonRelease, Window: e.Event, Raw: e}
	case xinput.MotionEvent:
		return Event{Kind: rules.KindXIMotion, Window: e.Event, Raw: e}
	case xinput.EnterEvent:
		return Event{Kind: rules.KindXIEnter, Window: e.Event, Raw: e}
	case xinput.LeaveEvent:
		return Event{Kind: rules.KindXILeave, Window: e.Event, Raw: e}
	case xinput.FocusInEvent:
		return Event{Kind: rules.KindXIFocusIn, Window: e.Event, Raw: e}
	case xinput.FocusOutEvent:
		return Event{Kind: rules.KindXIFocusOut, Window: e.Event, Raw: e}
	case randr.ScreenChangeNotifyEvent:
		return Event{Kind: rules.KindRandRScreenChange, Window: e.Root, Raw: e}
	case randr.NotifyEvent:
		return Event{Kind: rules.KindRandRScreenChange, Raw: e}
	default:
		return Event{Kind: rules.KindExtra, Raw: ev}
	}
}

func (c *xgbConn) WaitForEvent() (Event, error) {
	ev, err := c.x.WaitForEvent()
	if err != nil {
		return Event{}, err
	}
	return normalize(ev), nil
}

func (c *xgbConn) PollForEvent() (Event, bool, error) {
	ev, err := c.x.PollForEvent()
	if err != nil {
		return Event{}, false, err
	}
	if ev == nil {
		return Event{}, false, nil
	}
	return normalize(ev), true, nil
}
