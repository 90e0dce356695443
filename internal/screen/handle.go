// Package screen implements the screen registry: the mapping from
// screen name to its live connection record, plus the Handle
// interface each record uses to deliver events to that screen.
package screen

// Handle is the polymorphic protocol handle every screen record owns
// exactly one of. The primary screen's handle calls into the local
// primary driver; a secondary screen's handle frames and writes CBOR
// messages onto its network connection. Callers never need to know
// which.
type Handle interface {
	Name() string

	Enter(x, y int32, seqNum, modMask uint32) error
	Leave() error

	KeyDown(keyID, modMask uint32) error
	KeyUp(keyID, modMask uint32) error
	KeyRepeat(keyID, modMask uint32, count int32) error

	MouseDown(button uint8) error
	MouseUp(button uint8) error
	MouseMoveRel(dx, dy int32) error
	MouseWheel(delta int32) error

	ClipboardGrab(clipboard uint8, seqNum uint32) error
	ClipboardSet(clipboard uint8, seqNum uint32, data []byte) error

	QueryInfo() error
	Close() error
}
