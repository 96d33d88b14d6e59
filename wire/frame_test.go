package wire

import (
	"bytes"
	"testing"
)

func TestAppendFrameRoundTrip(t *testing.T) {
	body := []byte("hello world")
	framed := AppendFrame(body)

	got, consumed, ok, err := TryReadFrame(framed)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if consumed != len(framed) {
		t.Fatalf("consumed = %d, want %d", consumed, len(framed))
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("got %v, want %v", got, body)
	}
}

func TestTryReadFrameIncomplete(t *testing.T) {
	framed := AppendFrame([]byte("hello world"))

	_, _, ok, err := TryReadFrame(framed[:2])
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected incomplete for a partial header")
	}

	_, _, ok, err = TryReadFrame(framed[:len(framed)-1])
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected incomplete for a partial body")
	}
}

func TestTryReadFrameLeavesTrailingBytes(t *testing.T) {
	framed := AppendFrame([]byte("a"))
	extra := append(append([]byte{}, framed...), []byte("more")...)

	got, consumed, ok, err := TryReadFrame(extra)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(got) != "a" {
		t.Fatalf("got %v %v", got, ok)
	}
	if consumed != len(framed) {
		t.Fatalf("consumed = %d, want %d", consumed, len(framed))
	}
	if !bytes.Equal(extra[consumed:], []byte("more")) {
		t.Fatalf("remaining bytes = %v", extra[consumed:])
	}
}
