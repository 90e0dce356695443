// Package router implements the event router: it accepts
// primary-screen input events and forwards them to whichever screen
// is currently active, in the order the primary driver produced
// them.
package router

import (
	"github.com/screenlink/screenlink/internal/switcher"
)

// CommandKey is a user-defined hotkey binding recognized before an
// event is forwarded. If Action returns true, the event is consumed
// and not forwarded.
type CommandKey struct {
	KeyID   uint32
	ModMask uint32
	Action  func() (consumed bool)
}

// Router forwards events to the switcher engine's active screen. It
// holds no lock: the caller serializes every call through the
// server-wide mutex, same as switcher.Engine and clipboard.Manager.
type Router struct {
	engine   *switcher.Engine
	commands []CommandKey
}

// New creates a Router bound to engine.
func New(engine *switcher.Engine) *Router {
	return &Router{engine: engine}
}

// SetCommandKeys replaces the command-key bindings.
func (r *Router) SetCommandKeys(keys []CommandKey) {
	r.commands = keys
}

// OnCommandKey checks a key-down event against the configured
// command-key bindings. It returns true if the event was consumed and
// must not be forwarded.
func (r *Router) OnCommandKey(keyID, modMask uint32) bool {
	for _, c := range r.commands {
		if c.KeyID == keyID && c.ModMask == modMask {
			return c.Action()
		}
	}
	return false
}

// OnKeyDown forwards a key-down event to the active screen unless a
// command-key binding consumes it.
func (r *Router) OnKeyDown(keyID, modMask uint32) error {
	if r.OnCommandKey(keyID, modMask) {
		return nil
	}
	return r.engine.Active().Handle.KeyDown(keyID, modMask)
}

// OnKeyUp forwards a key-up event to the active screen.
func (r *Router) OnKeyUp(keyID, modMask uint32) error {
	return r.engine.Active().Handle.KeyUp(keyID, modMask)
}

// OnKeyRepeat forwards a key-repeat event, count included, to the
// active screen. The wire protocol carries a count field; whether a
// given transport coalesces repeats on its own is that transport's
// concern, not the router's.
func (r *Router) OnKeyRepeat(keyID, modMask uint32, count int32) error {
	return r.engine.Active().Handle.KeyRepeat(keyID, modMask, count)
}

// OnMouseDown forwards a mouse button press to the active screen.
func (r *Router) OnMouseDown(button uint8) error {
	return r.engine.Active().Handle.MouseDown(button)
}

// OnMouseUp forwards a mouse button release to the active screen.
func (r *Router) OnMouseUp(button uint8) error {
	return r.engine.Active().Handle.MouseUp(button)
}

// OnMouseWheel forwards a wheel delta to the active screen.
func (r *Router) OnMouseWheel(delta int32) error {
	return r.engine.Active().Handle.MouseWheel(delta)
}
