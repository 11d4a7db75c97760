package frameble

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// mockCharacteristic records writes and allows subscribing.
type mockCharacteristic struct {
	mu       sync.Mutex
	writes   [][]byte
	callback func([]byte)
	mtu      int
	mtuSeq   []int // successive MTU readings; drained before mtu is used
	writeErr error
	onWrite  func(data []byte) // invoked after each successful write
}

func (c *mockCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	cp := make([]byte, len(data))
	copy(cp, data)
	err := c.writeErr
	if err == nil {
		c.writes = append(c.writes, cp)
	}
	hook := c.onWrite
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(cp)
	}
	return nil
}

func (c *mockCharacteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
	return nil
}

func (c *mockCharacteristic) MTU() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.mtuSeq) > 0 {
		m := c.mtuSeq[0]
		c.mtuSeq = c.mtuSeq[1:]
		return m, nil
	}
	return c.mtu, nil
}

// SimulateNotification sends a notification to the subscriber.
func (c *mockCharacteristic) SimulateNotification(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

// writeLog returns a snapshot of all recorded writes.
func (c *mockCharacteristic) writeLog() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// mockConnection simulates a BLE connection with Frame TX/RX characteristics.
type mockConnection struct {
	mu            sync.Mutex
	txChar        *mockCharacteristic
	rxChar        *mockCharacteristic
	disconnectCb  func()
	disconnected  bool
	disconnectErr error
}

func newMockConnection(mtu int) *mockConnection {
	return &mockConnection{
		txChar: &mockCharacteristic{mtu: mtu},
		rxChar: &mockCharacteristic{mtu: mtu},
	}
}

func (c *mockConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	switch charUUID {
	case TxCharUUID:
		return c.txChar, nil
	case RxCharUUID:
		return c.rxChar, nil
	default:
		return nil, fmt.Errorf("mock: unknown characteristic UUID %q", charUUID)
	}
}

func (c *mockConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return c.disconnectErr
}

func (c *mockConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// SimulateDisconnect triggers the disconnect callback.
func (c *mockConnection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// mockAdapter simulates the BLE transport.
type mockAdapter struct {
	mu         sync.Mutex
	devices    []Device
	connection *mockConnection
	enableErr  error
	findErr    error
	connectErr error
}

func newMockAdapter(mtu int, devices ...Device) *mockAdapter {
	if len(devices) == 0 {
		devices = []Device{{Name: "Frame 4F", Address: "AA:BB:CC:DD:EE:FF", RSSI: -40}}
	}
	return &mockAdapter{
		devices:    devices,
		connection: newMockConnection(mtu),
	}
}

func (a *mockAdapter) Enable() error { return a.enableErr }

func (a *mockAdapter) Scan(_ context.Context, _ string) ([]Device, error) {
	return a.devices, nil
}

func (a *mockAdapter) Find(_ context.Context, _ string, name string) (Device, error) {
	if a.findErr != nil {
		return Device{}, a.findErr
	}
	for _, d := range a.devices {
		if name == "" || d.Name == name {
			return d, nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

func (a *mockAdapter) Connect(_ context.Context, _ string) (Connection, error) {
	if a.connectErr != nil {
		return nil, a.connectErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connection, nil
}

// autoRespond makes the device answer every TX write with a print
// notification, the way the firmware answers `print(nil)` commands.
func autoRespond(conn *mockConnection) {
	conn.txChar.mu.Lock()
	defer conn.txChar.mu.Unlock()
	conn.txChar.onWrite = func(_ []byte) {
		conn.rxChar.SimulateNotification([]byte("nil"))
	}
}

func TestMockAdapterImplementsInterface(t *testing.T) {
	var _ Adapter = (*mockAdapter)(nil)
}

func TestMockConnectionImplementsInterface(t *testing.T) {
	var _ Connection = (*mockConnection)(nil)
}

func TestMockCharacteristicImplementsInterface(t *testing.T) {
	var _ Characteristic = (*mockCharacteristic)(nil)
}
