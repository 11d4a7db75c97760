package frameble

import "github.com/CitizenOneX/frame-ble-go/protocol"

// SendMessage sends a payload of up to 65535 bytes as a framed multi-packet
// message. The first packet carries the message code and the total size;
// subsequent packets repeat the code. Each packet goes out as a data write
// sized to the negotiated MTU.
func (c *Client) SendMessage(msgCode byte, payload []byte) error {
	c.mu.Lock()
	state, mtu := c.state, c.mtu
	c.mu.Unlock()
	if state != StateReady {
		return &InvalidStateError{Op: "send message", State: state}
	}

	packets, err := protocol.FrameMessage(msgCode, payload, mtu-dataOverhead)
	if err != nil {
		return err
	}
	for _, pkt := range packets {
		if err := c.SendData(pkt); err != nil {
			return err
		}
	}
	return nil
}
