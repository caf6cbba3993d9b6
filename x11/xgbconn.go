package x11

import (
	"fmt"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xinput"
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/keysym"
)

// xgbConn is the production Conn backed by a real X connection.
type xgbConn struct {
	x      *xgb.Conn
	screen *xproto.ScreenInfo
	root   xproto.Window

	atomCache     map[string]xproto.Atom
	atomNameCache map[xproto.Atom]string

	randrEventBase int
	xinputOpcode   int

	log *logrus.Logger
}

// Dial opens a new connection to the X server named by the DISPLAY
// environment variable and performs extension negotiation for RandR
// and the input extension (required for MPX).
func Dial(log *logrus.Logger) (*xgbConn, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11: failed to connect: %w", err)
	}
	setup := xproto.Setup(conn)
	if setup == nil || len(setup.Roots) == 0 {
		conn.Close()
		return nil, fmt.Errorf("x11: no screens advertised by server")
	}
	screen := setup.Roots[0]

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: randr not available: %w", err)
	}
	if err := xinput.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: input extension not available: %w", err)
	}
	if err := xfixes.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: xfixes not available: %w", err)
	}

	c := &xgbConn{
		x:             conn,
		screen:        &screen,
		root:          screen.Root,
		atomCache:     map[string]xproto.Atom{},
		atomNameCache: map[xproto.Atom]string{},
		log:           log,
	}
	return c, nil
}

func (c *xgbConn) RootWindow() xproto.Window { return c.root }

func (c *xgbConn) ScreenSize() (uint32, uint32) {
	return uint32(c.screen.WidthInPixels), uint32(c.screen.HeightInPixels)
}

func (c *xgbConn) Atom(name string) xproto.Atom {
	if a, ok := c.atomCache[name]; ok {
		return a
	}
	reply, err := xproto.InternAtom(c.x, false, uint16(len(name)), name).Reply()
	if err != nil || reply == nil {
		c.log.WithError(err).WithField("atom", name).Warn("x11: failed to intern atom")
		return 0
	}
	c.atomCache[name] = reply.Atom
	c.atomNameCache[reply.Atom] = name
	return reply.Atom
}

func (c *xgbConn) AtomName(a xproto.Atom) string {
	if name, ok := c.atomNameCache[a]; ok {
		return name
	}
	reply, err := xproto.GetAtomName(c.x, a).Reply()
	if err != nil || reply == nil {
		return ""
	}
	name := string(reply.Name)
	c.atomNameCache[a] = name
	return name
}

func (c *xgbConn) QueryTree(win xproto.Window) ([]xproto.Window, error) {
	reply, err := xproto.QueryTree(c.x, win).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Children, nil
}

func (c *xgbConn) GetWindowAttributes(win xproto.Window) (WindowAttributes, error) {
	reply, err := xproto.GetWindowAttributes(c.x, win).Reply()
	if err != nil {
		return WindowAttributes{}, err
	}
	return WindowAttributes{
		OverrideRedirect: reply.OverrideRedirect,
		MapState:         byte(reply.MapState),
	}, nil
}

func (c *xgbConn) ChangeWindowAttributesEventMask(win xproto.Window, mask uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.x, win, xproto.CwEventMask, []uint32{mask}).Check()
}

func (c *xgbConn) GetProperty(win xproto.Window, atom xproto.Atom, long uint32) ([]byte, xproto.Atom, error) {
	reply, err := xproto.GetProperty(c.x, false, win, atom, xproto.GetPropertyTypeAny, 0, long).Reply()
	if err != nil {
		return nil, 0, err
	}
	if reply == nil {
		return nil, 0, nil
	}
	return reply.Value, reply.Type, nil
}

func (c *xgbConn) ChangeProperty(win xproto.Window, atom, typ xproto.Atom, format uint8, data []byte) error {
	count := uint32(len(data)) * 8 / uint32(format)
	return xproto.ChangePropertyChecked(c.x, xproto.PropModeReplace, win, atom, typ, format, count, data).Check()
}

func (c *xgbConn) DeleteProperty(win xproto.Window, atom xproto.Atom) error {
	return xproto.DeletePropertyChecked(c.x, win, atom).Check()
}

func (c *xgbConn) MapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(c.x, win).Check()
}

func (c *xgbConn) UnmapWindow(win xproto.Window) error {
	return xproto.UnmapWindowChecked(c.x, win).Check()
}

func (c *xgbConn) DestroyWindow(win xproto.Window) error {
	return xproto.DestroyWindowChecked(c.x, win).Check()
}

func (c *xgbConn) ReparentWindow(win, parent xproto.Window, x, y int16) error {
	return xproto.ReparentWindowChecked(c.x, win, parent, x, y).Check()
}

func (c *xgbConn) AddToSaveSet(win xproto.Window) error {
	return xfixes.ChangeSaveSetChecked(c.x, xfixes.SaveSetModeInsert, xfixes.SaveSetTargetNearest, xfixes.SaveSetMappingMap, win).Check()
}

func (c *xgbConn) ConfigureWindow(win xproto.Window, mask ConfigureMask, values ConfigureValues) error {
	var m uint16
	var v []uint32
	if mask&ConfigX != 0 {
		m |= xproto.ConfigWindowX
		v = append(v, uint32(values.X))
	}
	if mask&ConfigY != 0 {
		m |= xproto.ConfigWindowY
		v = append(v, uint32(values.Y))
	}
	if mask&ConfigWidth != 0 {
		m |= xproto.ConfigWindowWidth
		v = append(v, values.W)
	}
	if mask&ConfigHeight != 0 {
		m |= xproto.ConfigWindowHeight
		v = append(v, values.H)
	}
	if mask&ConfigBorderWidth != 0 {
		m |= xproto.ConfigWindowBorderWidth
		v = append(v, values.BorderWidth)
	}
	if mask&ConfigSibling != 0 {
		m |= xproto.ConfigWindowSibling
		v = append(v, uint32(values.Sibling))
	}
	if mask&ConfigStackMode != 0 {
		m |= xproto.ConfigWindowStackMode
		v = append(v, uint32(values.StackMode))
	}
	return xproto.ConfigureWindowChecked(c.x, win, m, v).Check()
}

func (c *xgbConn) SetBorderColor(win xproto.Window, color uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.x, win, xproto.CwBorderPixel, []uint32{color}).Check()
}

func (c *xgbConn) CreateWindow(parent xproto.Window, geom Rect, eventMask uint32) (xproto.Window, error) {
	id, err := xproto.NewWindowId(c.x)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(c.x, c.screen.RootDepth, id, parent,
		int16(geom.X), int16(geom.Y), uint16(geom.W), uint16(geom.H), 0,
		xproto.WindowClassInputOutput, c.screen.RootVisual,
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{1, eventMask}).Check()
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (c *xgbConn) SendConfigureNotify(win xproto.Window, geom Rect, border uint16) error {
	ev := xproto.ConfigureNotifyEvent{
		Event:            win,
		Window:           win,
		X:                int16(geom.X),
		Y:                int16(geom.Y),
		Width:            uint16(geom.W),
		Height:           uint16(geom.H),
		BorderWidth:      border,
		OverrideRedirect: false,
	}
	return xproto.SendEventChecked(c.x, false, win, xproto.EventMaskStructureNotify, string(ev.Bytes())).Check()
}

func (c *xgbConn) SelectInputEvents(win xproto.Window, mask uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.x, win, xproto.CwEventMask, []uint32{mask}).Check()
}

func (c *xgbConn) GrabKey(root xproto.Window, mods uint16, keycode xproto.Keycode) error {
	return xproto.GrabKeyChecked(c.x, false, root, mods, keycode, xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
}

func (c *xgbConn) UngrabKey(root xproto.Window, mods uint16, keycode xproto.Keycode) error {
	return xproto.UngrabKeyChecked(c.x, keycode, root, mods).Check()
}

func (c *xgbConn) GrabButton(win xproto.Window, mods uint16, button xproto.Button) error {
	return xproto.GrabButtonChecked(c.x, false, win,
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
		xproto.GrabModeAsync, xproto.GrabModeAsync, 0, 0, button, mods).Check()
}

func (c *xgbConn) UngrabButton(win xproto.Window, mods uint16, button xproto.Button) error {
	return xproto.UngrabButtonChecked(c.x, button, win, mods).Check()
}

func (c *xgbConn) GrabDevice(deviceID xproto.Window) error {
	_, err := xinput.GrabDevice(c.x, xinput.DeviceId(deviceID), c.root, 0,
		xinput.GrabModeAsync, xinput.GrabModeAsync, 0, 0, nil).Reply()
	return err
}

func (c *xgbConn) UngrabDevice(deviceID xproto.Window) error {
	return xinput.UngrabDeviceChecked(c.x, 0, xinput.DeviceId(deviceID)).Check()
}

func (c *xgbConn) WarpPointer(x, y int16) error {
	return xproto.WarpPointerChecked(c.x, 0, c.root, 0, 0, 0, 0, x, y).Check()
}

func (c *xgbConn) SetInputFocus(win xproto.Window, t xproto.Timestamp) error {
	return xproto.SetInputFocusChecked(c.x, xproto.InputFocusPointerRoot, win, t).Check()
}

func (c *xgbConn) QueryPointer(win xproto.Window) (int16, int16, error) {
	reply, err := xproto.QueryPointer(c.x, win).Reply()
	if err != nil {
		return 0, 0, err
	}
	return reply.WinX, reply.WinY, nil
}

func (c *xgbConn) QueryDeviceHierarchy() ([]DeviceInfo, error) {
	reply, err := xinput.XIQueryDevice(c.x, xinput.DeviceAll).Reply()
	if err != nil {
		return nil, err
	}
	out := make([]DeviceInfo, 0, len(reply.Infos))
	for _, d := range reply.Infos {
		info := DeviceInfo{
			ID:         xproto.Window(d.Deviceid),
			Name:       string(d.Name),
			Attachment: xproto.Window(d.Attachment),
		}
		switch d.Type {
		case xinput.DeviceTypeMasterKeyboard:
			info.IsMaster = true
		case xinput.DeviceTypeMasterPointer:
			info.IsMaster = true
			info.IsPointer = true
		case xinput.DeviceTypeSlavePointer:
			info.IsPointer = true
		}
		// The XTEST extension's virtual devices are the server's only
		// slaves with "XTEST" in their advertised name; flagging them
		// IsTest here lets callers keep synthetic test input off the
		// user-facing slave list.
		info.IsTest = strings.Contains(info.Name, "XTEST")
		out = append(out, info)
	}
	return out, nil
}

func (c *xgbConn) GetSelectionOwner(atom xproto.Atom) (xproto.Window, error) {
	reply, err := xproto.GetSelectionOwner(c.x, atom).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Owner, nil
}

func (c *xgbConn) SetSelectionOwner(win xproto.Window, atom xproto.Atom, t xproto.Timestamp) error {
	return xproto.SetSelectionOwnerChecked(c.x, win, atom, t).Check()
}

func (c *xgbConn) SendClientMessage(win xproto.Window, msgType xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   msgType,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	return xproto.SendEventChecked(c.x, false, win, xproto.EventMaskStructureNotify, string(ev.Bytes())).Check()
}

func (c *xgbConn) SelectScreenChangeNotify(root xproto.Window) error {
	return randr.SelectInputChecked(c.x, root, randr.NotifyMaskScreenChange|randr.NotifyMaskOutputChange|randr.NotifyMaskCrtcChange).Check()
}

func (c *xgbConn) QueryMonitors(root xproto.Window) ([]MonitorInfo, error) {
	resources, err := randr.GetScreenResources(c.x, root).Reply()
	if err != nil {
		return nil, err
	}
	primaryReply, err := randr.GetOutputPrimary(c.x, root).Reply()
	var primary randr.Output
	if err == nil && primaryReply != nil {
		primary = primaryReply.Output
	}

	var out []MonitorInfo
	for _, output := range resources.Outputs {
		oinfo, err := randr.GetOutputInfo(c.x, output, 0).Reply()
		if err != nil || oinfo == nil || oinfo.Connection != randr.ConnectionConnected || oinfo.Crtc == 0 {
			continue
		}
		cinfo, err := randr.GetCrtcInfo(c.x, oinfo.Crtc, 0).Reply()
		if err != nil || cinfo == nil {
			continue
		}
		out = append(out, MonitorInfo{
			ID:      uint32(output),
			Primary: output == primary,
			Rect: Rect{
				X: int32(cinfo.X), Y: int32(cinfo.Y),
				W: uint32(cinfo.Width), H: uint32(cinfo.Height),
			},
		})
	}
	return out, nil
}

// KeyMapping loads the server's full keycode→keysym table, used to
// resolve bindings authored by symbolic key name (e.g. "Return") down
// to the keycode GrabKey needs.
func (c *xgbConn) KeyMapping() (keysym.Keymap, error) {
	km, err := keysym.LoadKeyMapping(c.x)
	if err != nil {
		return nil, err
	}
	return *km, nil
}

func (c *xgbConn) Flush() error {
	c.x.Sync()
	return nil
}

func (c *xgbConn) Close() {
	c.x.Close()
}
