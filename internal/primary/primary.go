// Package primary defines the boundary to the primary screen's local
// input/clipboard driver. The driver itself — the OS-level keyboard
// hook, mouse hook, and clipboard watcher — is an external
// collaborator outside this repository's scope; this package only
// defines the interface the rest of the server programs against, plus
// a no-op Driver usable in tests and as a placeholder until a real
// backend is wired in.
package primary

import "errors"

// ErrAlreadyAcquired is returned by Acquire when another instance
// already holds the primary driver.
var ErrAlreadyAcquired = errors.New("primary: driver already acquired")

// Driver is the local primary-screen collaborator: it owns the OS
// keyboard/mouse hooks and clipboard watcher, and receives the
// injected events the server routes back to the primary screen
// whenever it is the active one.
type Driver interface {
	Name() string

	// Enter is called when the active screen reverts to primary,
	// carrying the cursor position to warp to and the sequence number
	// stamped on the transition.
	Enter(x, y int32, seqNum, modMask uint32) error
	Leave() error

	KeyDown(keyID, modMask uint32) error
	KeyUp(keyID, modMask uint32) error
	KeyRepeat(keyID, modMask uint32, count int32) error

	MouseDown(button uint8) error
	MouseUp(button uint8) error
	MouseMoveRel(dx, dy int32) error
	MouseWheel(delta int32) error

	// ClipboardGrab/ClipboardSet deliver a remote clipboard update to
	// the primary's OS clipboard.
	ClipboardGrab(clipboard uint8, seqNum uint32) error
	ClipboardSet(clipboard uint8, seqNum uint32, data []byte) error

	QueryInfo() error
	Close() error

	// Acquire takes exclusive ownership of the OS-level hooks. It
	// fails if another instance already holds them — the single-writer
	// resource the control surface's open() depends on.
	Acquire() error
	// Release gives up ownership, called from quit/shutdown.
	Release()
}

// NoopDriver is a Driver that does nothing, suitable for tests and
// for running the coordination engine without a real primary-screen
// backend wired in yet.
type NoopDriver struct {
	name     string
	acquired bool
}

// NewNoopDriver creates a NoopDriver reporting name as its screen name.
func NewNoopDriver(name string) *NoopDriver {
	return &NoopDriver{name: name}
}

func (d *NoopDriver) Name() string { return d.name }

func (d *NoopDriver) Enter(x, y int32, seqNum, modMask uint32) error { return nil }
func (d *NoopDriver) Leave() error                                   { return nil }
func (d *NoopDriver) KeyDown(keyID, modMask uint32) error            { return nil }
func (d *NoopDriver) KeyUp(keyID, modMask uint32) error              { return nil }
func (d *NoopDriver) KeyRepeat(keyID, modMask uint32, count int32) error {
	return nil
}
func (d *NoopDriver) MouseDown(button uint8) error    { return nil }
func (d *NoopDriver) MouseUp(button uint8) error      { return nil }
func (d *NoopDriver) MouseMoveRel(dx, dy int32) error { return nil }
func (d *NoopDriver) MouseWheel(delta int32) error    { return nil }
func (d *NoopDriver) ClipboardGrab(clipboard uint8, seqNum uint32) error {
	return nil
}
func (d *NoopDriver) ClipboardSet(clipboard uint8, seqNum uint32, data []byte) error {
	return nil
}
func (d *NoopDriver) QueryInfo() error { return nil }
func (d *NoopDriver) Close() error     { return nil }

func (d *NoopDriver) Acquire() error {
	if d.acquired {
		return ErrAlreadyAcquired
	}
	d.acquired = true
	return nil
}

func (d *NoopDriver) Release() {
	d.acquired = false
}
