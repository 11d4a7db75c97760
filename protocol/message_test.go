package protocol

import (
	"bytes"
	"testing"
)

func TestFrameMessageSinglePacket(t *testing.T) {
	payload := []byte("hello")
	packets, err := FrameMessage(0x0B, payload, 64)
	if err != nil {
		t.Fatalf("FrameMessage() error = %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	want := append([]byte{0x0B, 0x00, 0x05}, payload...)
	if !bytes.Equal(packets[0], want) {
		t.Errorf("packet = % x, want % x", packets[0], want)
	}
}

func TestFrameMessageMultiPacket(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 50)
	const maxPacket = 20
	packets, err := FrameMessage(0x42, payload, maxPacket)
	if err != nil {
		t.Fatalf("FrameMessage() error = %v", err)
	}
	if len(packets) < 3 {
		t.Fatalf("got %d packets, want at least 3", len(packets))
	}

	// First packet: code + 2-byte size, then data.
	first := packets[0]
	if len(first) > maxPacket {
		t.Errorf("first packet len %d exceeds max %d", len(first), maxPacket)
	}
	if first[0] != 0x42 || first[1] != 0x00 || first[2] != 50 {
		t.Errorf("first packet header = % x, want 42 00 32", first[:3])
	}

	// Reassemble the data bytes and compare.
	var got []byte
	got = append(got, first[3:]...)
	for i, pkt := range packets[1:] {
		if len(pkt) > maxPacket {
			t.Errorf("packet %d len %d exceeds max %d", i+1, len(pkt), maxPacket)
		}
		if pkt[0] != 0x42 {
			t.Errorf("packet %d code = 0x%02x, want 0x42", i+1, pkt[0])
		}
		got = append(got, pkt[1:]...)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("reassembled %d bytes, want %d", len(got), len(payload))
	}
}

func TestFrameMessageEmptyPayload(t *testing.T) {
	packets, err := FrameMessage(0x01, nil, 20)
	if err != nil {
		t.Fatalf("FrameMessage() error = %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1 header-only packet", len(packets))
	}
	want := []byte{0x01, 0x00, 0x00}
	if !bytes.Equal(packets[0], want) {
		t.Errorf("packet = % x, want % x", packets[0], want)
	}
}

func TestFrameMessageSizeFieldBigEndian(t *testing.T) {
	payload := make([]byte, 0x1234)
	packets, err := FrameMessage(0x07, payload, 256)
	if err != nil {
		t.Fatalf("FrameMessage() error = %v", err)
	}
	if packets[0][1] != 0x12 || packets[0][2] != 0x34 {
		t.Errorf("size field = %02x %02x, want 12 34", packets[0][1], packets[0][2])
	}
}

func TestFrameMessagePayloadTooLarge(t *testing.T) {
	payload := make([]byte, MaxMessageSize+1)
	if _, err := FrameMessage(0x01, payload, 64); err == nil {
		t.Error("expected error for oversize payload, got nil")
	}
}

func TestFrameMessagePacketTooSmall(t *testing.T) {
	for _, size := range []int{0, 1, 2, 3} {
		if _, err := FrameMessage(0x01, []byte("x"), size); err == nil {
			t.Errorf("FrameMessage(_, _, %d) expected error, got nil", size)
		}
	}
}
