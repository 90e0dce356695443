package router

import (
	"testing"

	"github.com/screenlink/screenlink/internal/clipboard"
	"github.com/screenlink/screenlink/internal/screen"
	"github.com/screenlink/screenlink/internal/switcher"
	"github.com/screenlink/screenlink/internal/topology"
)

type fakeHandle struct {
	name   string
	events []string
}

func (f *fakeHandle) Name() string                                  { return f.name }
func (f *fakeHandle) Enter(x, y int32, seqNum, modMask uint32) error { return nil }
func (f *fakeHandle) Leave() error                                  { return nil }
func (f *fakeHandle) KeyDown(keyID, modMask uint32) error {
	f.events = append(f.events, "keydown")
	return nil
}
func (f *fakeHandle) KeyUp(keyID, modMask uint32) error {
	f.events = append(f.events, "keyup")
	return nil
}
func (f *fakeHandle) KeyRepeat(keyID, modMask uint32, count int32) error {
	f.events = append(f.events, "keyrepeat")
	return nil
}
func (f *fakeHandle) MouseDown(button uint8) error {
	f.events = append(f.events, "mousedown")
	return nil
}
func (f *fakeHandle) MouseUp(button uint8) error {
	f.events = append(f.events, "mouseup")
	return nil
}
func (f *fakeHandle) MouseMoveRel(dx, dy int32) error { return nil }
func (f *fakeHandle) MouseWheel(delta int32) error {
	f.events = append(f.events, "wheel")
	return nil
}
func (f *fakeHandle) ClipboardGrab(c uint8, seqNum uint32) error { return nil }
func (f *fakeHandle) ClipboardSet(c uint8, seqNum uint32, data []byte) error {
	return nil
}
func (f *fakeHandle) QueryInfo() error { return nil }
func (f *fakeHandle) Close() error     { return nil }

func newTestRouter(t *testing.T) (*Router, *fakeHandle) {
	t.Helper()
	reg := screen.New("primary")
	h := &fakeHandle{name: "primary"}
	p, err := reg.Add("primary", h)
	if err != nil {
		t.Fatal(err)
	}
	p.Geometry = topology.Extent{W: 100, H: 100, ZoneSize: 5}
	p.Ready = true

	topo, err := topology.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	clips := clipboard.New(reg, []uint8{0})
	eng, err := switcher.New(reg, topo, clips)
	if err != nil {
		t.Fatal(err)
	}
	return New(eng), h
}

func TestEventsForwardToActiveScreen(t *testing.T) {
	r, h := newTestRouter(t)

	if err := r.OnKeyDown(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.OnKeyUp(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.OnKeyRepeat(1, 0, 3); err != nil {
		t.Fatal(err)
	}
	if err := r.OnMouseDown(1); err != nil {
		t.Fatal(err)
	}
	if err := r.OnMouseUp(1); err != nil {
		t.Fatal(err)
	}
	if err := r.OnMouseWheel(-1); err != nil {
		t.Fatal(err)
	}

	want := []string{"keydown", "keyup", "keyrepeat", "mousedown", "mouseup", "wheel"}
	if len(h.events) != len(want) {
		t.Fatalf("events = %v, want %v", h.events, want)
	}
	for i := range want {
		if h.events[i] != want[i] {
			t.Fatalf("events[%d] = %s, want %s", i, h.events[i], want[i])
		}
	}
}

func TestCommandKeyConsumesEvent(t *testing.T) {
	r, h := newTestRouter(t)
	consumed := false
	r.SetCommandKeys([]CommandKey{
		{KeyID: 42, ModMask: 1, Action: func() bool { consumed = true; return true }},
	})

	if err := r.OnKeyDown(42, 1); err != nil {
		t.Fatal(err)
	}
	if !consumed {
		t.Fatal("expected command key action to run")
	}
	if len(h.events) != 0 {
		t.Fatalf("expected event to be consumed, not forwarded; got %v", h.events)
	}
}
