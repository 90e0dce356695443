// Package switcher implements the edge-crossing / active-screen
// switching state machine: it decides when a primary-side mouse move
// crosses a jump zone and executes the switch.
package switcher

import (
	"fmt"

	"github.com/screenlink/screenlink/internal/clipboard"
	"github.com/screenlink/screenlink/internal/screen"
	"github.com/screenlink/screenlink/internal/topology"
)

// Engine holds the active-screen pointer and cursor state. Like
// clipboard.Manager, it holds no lock of its own: the caller (the
// control-surface server) serializes every call through the single
// server-wide mutex.
type Engine struct {
	registry   *screen.Registry
	topo       *topology.Topology
	clipboards *clipboard.Manager

	active *screen.Screen
	mx, my int32
	seqNum uint32

	locked bool
}

// New creates an Engine. The primary screen must already be
// registered in reg.
func New(reg *screen.Registry, topo *topology.Topology, clips *clipboard.Manager) (*Engine, error) {
	primary := reg.Lookup(reg.PrimaryName())
	if primary == nil {
		return nil, fmt.Errorf("switcher: primary screen %q not registered", reg.PrimaryName())
	}
	return &Engine{
		registry:   reg,
		topo:       topo,
		clipboards: clips,
		active:     primary,
	}, nil
}

// Active returns the currently active screen.
func (e *Engine) Active() *screen.Screen {
	return e.active
}

// Cursor returns the current cursor position, local to the active screen.
func (e *Engine) Cursor() (x, y int32) {
	return e.mx, e.my
}

// SeqNum returns the current sequence number.
func (e *Engine) SeqNum() uint32 {
	return e.seqNum
}

// NextSeq advances and returns the server's single global sequence
// counter. It is shared between switchTo's Enter stamping and
// primary-originated clipboard grabs so a screen that has seen Enter
// with sequence S can trust any clipboard grab carrying S' >= S to
// supersede the prior owner (§4.3's ordering guarantee).
func (e *Engine) NextSeq() uint32 {
	e.seqNum++
	return e.seqNum
}

// SetTopology replaces the topology consulted by edge-crossing
// projection, used by setConfig to re-evaluate the active screen's
// neighbors without disturbing any other state.
func (e *Engine) SetTopology(topo *topology.Topology) {
	e.topo = topo
}

// SwitchToNamed performs a hotkey-triggered switch to the named
// screen, landing at the center of its geometry. It is a no-op if the
// target is unknown, not ready, or already active, or if the engine is
// locked to the current screen.
func (e *Engine) SwitchToNamed(name string) error {
	target := e.registry.Lookup(name)
	if target == nil || !target.Ready {
		return fmt.Errorf("switcher: cannot switch to %q: not ready", name)
	}
	if target.Name == e.active.Name || e.locked {
		return nil
	}
	cx := target.Geometry.W / 2
	cy := target.Geometry.H / 2
	return e.switchTo(target, cx, cy)
}

// ForceToPrimary switches the active pointer back to the primary
// screen without disconnecting whatever screen was active, for the
// emergency-release path: a stuck secondary should regain local
// control without losing its registry entry.
func (e *Engine) ForceToPrimary() {
	if e.active.Name == e.registry.PrimaryName() {
		return
	}
	primary := e.registry.Lookup(e.registry.PrimaryName())
	x, y := clampToExtent(e.mx, e.my, primary.Geometry)
	_ = e.switchTo(primary, x, y)
}

// SetLockedToScreen engages or disengages the locked-to-screen
// policy (e.g. a scroll-lock toggle); while engaged, switch attempts
// no-op.
func (e *Engine) SetLockedToScreen(locked bool) {
	e.locked = locked
}

// IsLockedToScreen reports the current locked-to-screen policy state.
func (e *Engine) IsLockedToScreen() bool {
	return e.locked
}

// RemoveScreen removes name from the registry. If it was the active
// screen, the active pointer reverts to the primary and a synthetic
// enter is dispatched locally (no network round-trip, since the
// screen being removed is gone) at the primary's last known cursor
// position.
func (e *Engine) RemoveScreen(name string) {
	wasActive := e.active.Name == name
	lastPrimaryX, lastPrimaryY := e.mx, e.my

	e.registry.Remove(name)

	if !wasActive {
		return
	}

	primary := e.registry.Lookup(e.registry.PrimaryName())
	e.active = primary
	e.mx, e.my = clampToExtent(lastPrimaryX, lastPrimaryY, primary.Geometry)
	seq := e.NextSeq()
	_ = primary.Handle.Enter(e.mx, e.my, seq, 0)
	e.clipboards.OnScreenActivated(primary)
}

// OnMouseMovePrimary handles a primary-driver mouse move while the
// primary screen is active. It reports whether the move triggered a
// switch.
func (e *Engine) OnMouseMovePrimary(x, y int32) (jumped bool) {
	if e.active.Name != e.registry.PrimaryName() {
		return false
	}
	if e.locked {
		e.mx, e.my = x, y
		return false
	}

	dir := e.active.Geometry.EdgeAt(x, y)
	if dir == topology.None {
		e.mx, e.my = x, y
		return false
	}

	target, tx, ty, ok := e.topo.Project(e.registry.Geometries(), e.active.Name, dir, x, y)
	if !ok {
		e.mx, e.my = clampToExtent(x, y, e.active.Geometry)
		return false
	}

	targetScreen := e.registry.Lookup(target)
	if targetScreen == nil || !targetScreen.Ready {
		e.mx, e.my = clampToExtent(x, y, e.active.Geometry)
		return false
	}

	if err := e.switchTo(targetScreen, tx, ty); err != nil {
		e.mx, e.my = clampToExtent(x, y, e.active.Geometry)
		return false
	}
	return true
}

// OnMouseMoveSecondary handles a relative mouse delta while a
// secondary screen is active.
func (e *Engine) OnMouseMoveSecondary(dx, dy int32) {
	if e.active.Name == e.registry.PrimaryName() {
		return
	}
	if e.locked {
		if err := e.active.Handle.MouseMoveRel(dx, dy); err != nil {
			_ = err
		}
		return
	}

	nx, ny := e.mx+dx, e.my+dy
	if e.active.Geometry.Contains(nx, ny) {
		e.mx, e.my = nx, ny
		_ = e.active.Handle.MouseMoveRel(dx, dy)
		return
	}

	dir := directionOfExit(nx, ny, e.active.Geometry)
	target, tx, ty, ok := e.topo.Project(e.registry.Geometries(), e.active.Name, dir, nx, ny)
	if !ok {
		e.mx, e.my = clampToExtent(nx, ny, e.active.Geometry)
		return
	}

	targetScreen := e.registry.Lookup(target)
	if targetScreen == nil || !targetScreen.Ready {
		e.mx, e.my = clampToExtent(nx, ny, e.active.Geometry)
		return
	}

	_ = e.switchTo(targetScreen, tx, ty)
}

// switchTo performs the atomic hand-off: leave the current active
// screen, update the pointer and cursor, bump the sequence number,
// enter the new screen, and fan out any ready clipboards.
func (e *Engine) switchTo(target *screen.Screen, x, y int32) error {
	if err := e.active.Handle.Leave(); err != nil {
		return fmt.Errorf("switcher: leave %s: %w", e.active.Name, err)
	}

	e.active = target
	e.mx, e.my = x, y
	e.NextSeq()

	modMask := uint32(0)
	if err := target.Handle.Enter(x, y, e.seqNum, modMask); err != nil {
		return fmt.Errorf("switcher: enter %s: %w", target.Name, err)
	}

	e.clipboards.OnScreenActivated(target)
	return nil
}

func directionOfExit(x, y int32, ext topology.Extent) topology.Direction {
	if x < 0 {
		return topology.Left
	}
	if x >= ext.W {
		return topology.Right
	}
	if y < 0 {
		return topology.Up
	}
	if y >= ext.H {
		return topology.Down
	}
	return topology.None
}

func clampToExtent(x, y int32, ext topology.Extent) (int32, int32) {
	if x < 0 {
		x = 0
	}
	if x >= ext.W {
		x = ext.W - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= ext.H {
		y = ext.H - 1
	}
	return x, y
}
