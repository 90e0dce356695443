package transport

import (
	"io"
	"sync"
	"time"

	"github.com/screenlink/screenlink/internal/clipboard"
	"github.com/screenlink/screenlink/internal/wire"
)

// moveCoalesceDelay and moveCoalesceSize bound how long a mouse-move
// or wheel frame may sit buffered before being flushed to the wire;
// every other message kind flushes immediately.
const (
	moveCoalesceDelay = 4 * time.Millisecond
	moveCoalesceSize  = 1400 // below a typical path MTU
)

// RemoteHandle implements screen.Handle over a framed CBOR connection
// (an SSH session in this server). Writes are serialized by a mutex:
// the server's single coarse lock already serializes calls into a
// given screen's handle during normal dispatch; the handle's own write
// mutex is cheap insurance against interleaved frames on the wire
// should a caller reach it without holding that lock. High-frequency relative-motion frames are
// coalesced through a bufferedWriter; every other kind flushes
// straight through to preserve ordering with the low-frequency types.
type RemoteHandle struct {
	name               string
	bw                 *bufferedWriter
	compressAboveBytes int
	mu                 sync.Mutex
}

// NewRemoteHandle wraps conn (typically an ssh.Session) as a
// screen.Handle. compressAboveBytes controls the clipboard payload
// size above which ClipboardSet compresses with s2 before writing.
func NewRemoteHandle(name string, conn io.Writer, compressAboveBytes int) *RemoteHandle {
	return &RemoteHandle{
		name:               name,
		bw:                 newBufferedWriter(conn, moveCoalesceDelay, moveCoalesceSize),
		compressAboveBytes: compressAboveBytes,
	}
}

func (h *RemoteHandle) Name() string { return h.name }

func (h *RemoteHandle) write(kind wire.Kind, v any, flush bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := wire.WriteFrame(h.bw, kind, v); err != nil {
		return err
	}
	if flush {
		return h.bw.Flush()
	}
	return nil
}

func (h *RemoteHandle) Enter(x, y int32, seqNum, modMask uint32) error {
	return h.write(wire.KindEnter, wire.Enter{X: x, Y: y, SeqNum: seqNum, ModMask: modMask}, true)
}

func (h *RemoteHandle) Leave() error {
	return h.write(wire.KindLeave, wire.Leave{}, true)
}

func (h *RemoteHandle) KeyDown(keyID, modMask uint32) error {
	return h.write(wire.KindKeyDown, wire.KeyEvent{KeyID: keyID, ModMask: modMask}, true)
}

func (h *RemoteHandle) KeyUp(keyID, modMask uint32) error {
	return h.write(wire.KindKeyUp, wire.KeyEvent{KeyID: keyID, ModMask: modMask}, true)
}

func (h *RemoteHandle) KeyRepeat(keyID, modMask uint32, count int32) error {
	return h.write(wire.KindKeyRepeat, wire.KeyRepeatEvent{KeyID: keyID, ModMask: modMask, Count: count}, true)
}

func (h *RemoteHandle) MouseDown(button uint8) error {
	return h.write(wire.KindMouseDown, wire.MouseButtonEvent{Button: button}, true)
}

func (h *RemoteHandle) MouseUp(button uint8) error {
	return h.write(wire.KindMouseUp, wire.MouseButtonEvent{Button: button}, true)
}

func (h *RemoteHandle) MouseMoveRel(dx, dy int32) error {
	return h.write(wire.KindMouseMoveRel, wire.MouseMoveRel{DX: dx, DY: dy}, false)
}

func (h *RemoteHandle) MouseWheel(delta int32) error {
	return h.write(wire.KindMouseWheel, wire.MouseWheel{Delta: delta}, false)
}

func (h *RemoteHandle) ClipboardGrab(clip uint8, seqNum uint32) error {
	return h.write(wire.KindClipboardGrab, wire.ClipboardGrab{Clipboard: clip, SeqNum: seqNum}, true)
}

func (h *RemoteHandle) ClipboardSet(clip uint8, seqNum uint32, data []byte) error {
	payload, compressed := clipboard.EncodeForWire(data, h.compressAboveBytes)
	return h.write(wire.KindClipboardSet, wire.ClipboardSet{
		Clipboard:  clip,
		SeqNum:     seqNum,
		Data:       payload,
		Compressed: compressed,
	}, true)
}

func (h *RemoteHandle) QueryInfo() error {
	return h.write(wire.KindQueryInfo, wire.QueryInfo{}, true)
}

func (h *RemoteHandle) Close() error {
	err := h.write(wire.KindClose, wire.Close{}, true)
	h.mu.Lock()
	_ = h.bw.Close()
	h.mu.Unlock()
	return err
}
