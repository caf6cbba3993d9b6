// Package keysym loads the server's keycode→keysym table so bindings
// configured by symbolic name (e.g. "Return", "Tab") can be resolved to
// the keycodes GrabKey actually needs.
package keysym

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Keymap maps a keycode to the list of keysyms bound to it (one per
// shift level/group, matching XGetKeyboardMapping's layout).
type Keymap map[xproto.Keycode][]xproto.Keysym

// LoadKeyMapping queries the full keycode range from the connection's
// setup and returns the resulting table.
func LoadKeyMapping(conn *xgb.Conn) (*Keymap, error) {
	setup := xproto.Setup(conn)
	count := setup.MaxKeycode - setup.MinKeycode + 1
	reply, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, byte(count)).Reply()
	if err != nil {
		return nil, fmt.Errorf("keysym: failed to load keyboard mapping: %w", err)
	}
	km := Keymap{}
	perKeycode := int(reply.KeysymsPerKeycode)
	for i := 0; i < int(count); i++ {
		code := setup.MinKeycode + xproto.Keycode(i)
		start := i * perKeycode
		end := start + perKeycode
		if end > len(reply.Keysyms) {
			break
		}
		km[code] = append([]xproto.Keysym{}, reply.Keysyms[start:end]...)
	}
	return &km, nil
}

// Keycode returns the first keycode bound to sym, and whether one was found.
func (k Keymap) Keycode(sym xproto.Keysym) (xproto.Keycode, bool) {
	for code, syms := range k {
		for _, s := range syms {
			if s == sym {
				return code, true
			}
		}
	}
	return 0, false
}

// Keysym returns the base (first) keysym bound to code.
func (k Keymap) Keysym(code xproto.Keycode) xproto.Keysym {
	syms := k[code]
	if len(syms) == 0 {
		return 0
	}
	return syms[0]
}
