package wire

import (
	"bytes"
	"io"
	"testing"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	want := Enter{X: 2, Y: 50, SeqNum: 1, ModMask: 0}
	if err := WriteFrame(&buf, KindEnter, want); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if frame.Kind != KindEnter {
		t.Fatalf("Kind = %v, want %v", frame.Kind, KindEnter)
	}

	var got Enter
	if err := frame.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReadFrameEOFOnCleanClose(t *testing.T) {
	var buf bytes.Buffer
	_, err := ReadFrame(&buf)
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	big := ClipboardSet{Data: make([]byte, MaxFrameLength+1)}
	if err := WriteFrame(&buf, KindClipboardSet, big); err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestMultipleFramesSequential(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, KindLeave, Leave{}); err != nil {
		t.Fatal(err)
	}
	if err := WriteFrame(&buf, KindMouseWheel, MouseWheel{Delta: -3}); err != nil {
		t.Fatal(err)
	}

	f1, err := ReadFrame(&buf)
	if err != nil || f1.Kind != KindLeave {
		t.Fatalf("first frame: %+v, %v", f1, err)
	}
	f2, err := ReadFrame(&buf)
	if err != nil || f2.Kind != KindMouseWheel {
		t.Fatalf("second frame: %+v, %v", f2, err)
	}
	var wheel MouseWheel
	if err := f2.Decode(&wheel); err != nil || wheel.Delta != -3 {
		t.Fatalf("decode wheel: %+v, %v", wheel, err)
	}
}
