package clipboard

import (
	"testing"

	"github.com/screenlink/screenlink/internal/screen"
)

type recordingHandle struct {
	name string
	sets []string
}

func (f *recordingHandle) Name() string                                  { return f.name }
func (f *recordingHandle) Enter(x, y int32, seqNum, modMask uint32) error { return nil }
func (f *recordingHandle) Leave() error                                  { return nil }
func (f *recordingHandle) KeyDown(keyID, modMask uint32) error            { return nil }
func (f *recordingHandle) KeyUp(keyID, modMask uint32) error              { return nil }
func (f *recordingHandle) KeyRepeat(keyID, modMask uint32, count int32) error {
	return nil
}
func (f *recordingHandle) MouseDown(button uint8) error    { return nil }
func (f *recordingHandle) MouseUp(button uint8) error      { return nil }
func (f *recordingHandle) MouseMoveRel(dx, dy int32) error { return nil }
func (f *recordingHandle) MouseWheel(delta int32) error    { return nil }
func (f *recordingHandle) ClipboardGrab(c uint8, seqNum uint32) error { return nil }
func (f *recordingHandle) ClipboardSet(c uint8, seqNum uint32, data []byte) error {
	f.sets = append(f.sets, string(data))
	return nil
}
func (f *recordingHandle) QueryInfo() error { return nil }
func (f *recordingHandle) Close() error     { return nil }

func TestGrabRejectsStaleSeq(t *testing.T) {
	reg := screen.New("primary")
	m := New(reg, []uint8{0})

	if !m.Grab(0, 5, "G") {
		t.Fatal("expected first grab to apply")
	}
	if m.Grab(0, 5, "H") {
		t.Fatal("expected equal seqNum grab to be dropped (race scenario 3)")
	}
	if m.Entry(0).Owner != "G" {
		t.Fatalf("owner = %s, want G", m.Entry(0).Owner)
	}
}

func TestSetDataDroppedOnStaleSeq(t *testing.T) {
	reg := screen.New("primary")
	m := New(reg, []uint8{0})

	m.Grab(0, 10, "G")
	m.Grab(0, 11, "primary") // primary reclaims before G's SetData arrives

	if m.SetData(0, 10, []byte("hello"), nil) {
		t.Fatal("expected stale SetData to be dropped")
	}
	if m.Entry(0).Ready {
		t.Fatal("entry should not be marked ready from a dropped SetData")
	}
}

func TestGrabClearsOtherScreensClipboardFlag(t *testing.T) {
	reg := screen.New("primary")
	h1 := &recordingHandle{name: "A"}
	h2 := &recordingHandle{name: "B"}
	a, _ := reg.Add("A", h1)
	b, _ := reg.Add("B", h2)
	a.SetHasClipboard(0, true)
	b.SetHasClipboard(0, true)

	m := New(reg, []uint8{0})
	m.Grab(0, 1, "A")

	if !a.HasClipboard(0) {
		t.Fatal("owner's own flag should be untouched by its own grab")
	}
	if b.HasClipboard(0) {
		t.Fatal("non-owner's flag should be cleared")
	}
}

func TestOnScreenActivatedPushesReadyClipboards(t *testing.T) {
	reg := screen.New("primary")
	m := New(reg, []uint8{0})
	m.Grab(0, 1, "primary")
	m.SetData(0, 1, []byte("payload"), nil)

	h := &recordingHandle{name: "office"}
	s, _ := reg.Add("office", h)

	m.OnScreenActivated(s)
	if len(h.sets) != 1 || h.sets[0] != "payload" {
		t.Fatalf("sets = %v, want one push of payload", h.sets)
	}
	if !s.HasClipboard(0) {
		t.Fatal("expected gotClipboard flag to be set after push")
	}

	m.OnScreenActivated(s) // already has it, no duplicate push
	if len(h.sets) != 1 {
		t.Fatalf("expected no duplicate push, got %d", len(h.sets))
	}
}

func TestEncodeDecodeForWireRoundTrip(t *testing.T) {
	small := []byte("hi")
	out, compressed := EncodeForWire(small, 10)
	if compressed {
		t.Fatal("small payload should not be compressed")
	}
	if string(out) != "hi" {
		t.Fatalf("got %q", out)
	}

	big := make([]byte, 100)
	for i := range big {
		big[i] = byte(i % 7)
	}
	enc, compressed := EncodeForWire(big, 10)
	if !compressed {
		t.Fatal("large payload should be compressed")
	}
	dec, err := DecodeFromWire(enc, compressed)
	if err != nil {
		t.Fatalf("DecodeFromWire: %v", err)
	}
	if string(dec) != string(big) {
		t.Fatal("round trip mismatch")
	}
}
