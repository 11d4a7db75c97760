package protocol

import "fmt"

const (
	firstHeaderSize = 3 // msg code + 2 size bytes
	nextHeaderSize  = 1 // msg code only

	// MaxMessageSize is the largest payload expressible in the two-byte
	// size field of the first packet.
	MaxMessageSize = 0xFFFF
)

// FrameMessage splits a message payload into packets of at most maxPacket
// bytes for transmission as data writes.
//
//	first packet:      [msgCode, size>>8, size&0xFF, data...]
//	subsequent packets: [msgCode, data...]
//
// The receiving firmware reassembles by accumulating data bytes until the
// announced size is reached. An empty payload produces a single header-only
// packet.
func FrameMessage(msgCode byte, payload []byte, maxPacket int) ([][]byte, error) {
	if maxPacket <= firstHeaderSize {
		return nil, fmt.Errorf("protocol: packet size %d cannot carry a message header", maxPacket)
	}
	if len(payload) > MaxMessageSize {
		return nil, fmt.Errorf("protocol: payload of %d bytes exceeds maximum %d", len(payload), MaxMessageSize)
	}

	first := min(maxPacket-firstHeaderSize, len(payload))
	pkt := make([]byte, 0, firstHeaderSize+first)
	pkt = append(pkt, msgCode, byte(len(payload)>>8), byte(len(payload)&0xFF))
	pkt = append(pkt, payload[:first]...)
	packets := [][]byte{pkt}

	for sent := first; sent < len(payload); {
		n := min(maxPacket-nextHeaderSize, len(payload)-sent)
		pkt := make([]byte, 0, nextHeaderSize+n)
		pkt = append(pkt, msgCode)
		pkt = append(pkt, payload[sent:sent+n]...)
		packets = append(packets, pkt)
		sent += n
	}
	return packets, nil
}
