package transport

import (
	"bytes"
	"testing"

	"github.com/screenlink/screenlink/internal/wire"
)

func TestDispatchRoutesInfoToCallback(t *testing.T) {
	var got wire.Info
	var name string
	srv := NewServer(0, "", 8, 4096, Callbacks{
		OnInfo: func(n string, info wire.Info) {
			name = n
			got = info
		},
	})

	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, wire.KindInfo, wire.Info{W: 100, H: 200}); err != nil {
		t.Fatal(err)
	}
	frame, err := wire.ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}

	srv.dispatch("R", frame)

	if name != "R" || got.W != 100 || got.H != 200 {
		t.Fatalf("name=%s info=%+v", name, got)
	}
}

func TestDispatchRoutesClipboardGrabAndSet(t *testing.T) {
	var grabs []wire.ClipboardGrab
	var sets []wire.ClipboardSet
	srv := NewServer(0, "", 8, 4096, Callbacks{
		OnClipboardGrab: func(n string, msg wire.ClipboardGrab) { grabs = append(grabs, msg) },
		OnClipboardSet:  func(n string, msg wire.ClipboardSet) { sets = append(sets, msg) },
	})

	var buf bytes.Buffer
	_ = wire.WriteFrame(&buf, wire.KindClipboardGrab, wire.ClipboardGrab{Clipboard: 0, SeqNum: 1})
	_ = wire.WriteFrame(&buf, wire.KindClipboardSet, wire.ClipboardSet{Clipboard: 0, SeqNum: 1, Data: []byte("x")})

	for i := 0; i < 2; i++ {
		frame, err := wire.ReadFrame(&buf)
		if err != nil {
			t.Fatal(err)
		}
		srv.dispatch("R", frame)
	}

	if len(grabs) != 1 || len(sets) != 1 {
		t.Fatalf("grabs=%v sets=%v", grabs, sets)
	}
}

func TestDispatchIgnoresUnknownKindWithoutCallback(t *testing.T) {
	srv := NewServer(0, "", 8, 4096, Callbacks{})

	var buf bytes.Buffer
	_ = wire.WriteFrame(&buf, wire.KindNoop, wire.Noop{})
	frame, err := wire.ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}

	srv.dispatch("R", frame) // must not panic
}
