package frameble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the connection lifecycle state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Control signal bytes understood by the Frame firmware.
const (
	sigBreak byte = 0x03 // break the currently executing Lua script
	sigReset byte = 0x04 // reset the Lua virtual machine
)

// dataFlag prefixes raw data writes and marks data (as opposed to print)
// notifications from the device.
const dataFlag byte = 0x01

// Usable payload bytes below the negotiated MTU: 3 bytes of ATT write
// header for Lua strings, plus the data flag byte for raw data.
const (
	luaOverhead  = 3
	dataOverhead = 4
)

// mtuRefreshDelay is how long the link is given to settle before the MTU
// is re-read on backends with the RefreshMTU quirk.
const mtuRefreshDelay = 100 * time.Millisecond

// ClientOptions configures the client behavior.
type ClientOptions struct {
	Name            string        // advertised local name to match, e.g. "Frame 4F" (empty: any Frame)
	ConnectTimeout  time.Duration // scan + connect budget (default 10s)
	ResponseTimeout time.Duration // wait for an awaited print/data response (default 5s)
	SettleDelay     time.Duration // pause after a break/reset signal (default 200ms)

	OnPrintResponse func(text string) // called for every print notification
	OnDataResponse  func(data []byte) // called for every data notification
	OnDisconnect    func()            // called once per session teardown
}

// DefaultClientOptions returns sensible defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		ConnectTimeout:  10 * time.Second,
		ResponseTimeout: 5 * time.Second,
		SettleDelay:     200 * time.Millisecond,
	}
}

// Client manages a single BLE session with a Frame device. One session at a
// time: Connect again only after Disconnect. Operations block until the
// transport acknowledges or the relevant timeout elapses.
type Client struct {
	adapter Adapter
	profile Profile
	opts    ClientOptions

	mu     sync.Mutex
	state  State
	conn   Connection
	txChar Characteristic
	rxChar Characteristic
	mtu    int

	// One-slot response channels fed by the notification handler.
	printCh chan string
	dataCh  chan []byte
}

// NewClient creates a client for the given transport adapter and device
// profile. Zero option fields are filled with defaults.
func NewClient(adapter Adapter, profile Profile, opts ClientOptions) (*Client, error) {
	if adapter == nil {
		return nil, fmt.Errorf("frameble: adapter must not be nil")
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("frameble: profile: %w", err)
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = 5 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 200 * time.Millisecond
	}
	return &Client{
		adapter: adapter,
		profile: profile,
		opts:    opts,
		printCh: make(chan string, 1),
		dataCh:  make(chan []byte, 1),
	}, nil
}

// Connect finds the first Frame device advertising the profile's service
// (optionally matching the configured name), establishes the session and
// returns the device address. A second Connect without an intervening
// Disconnect fails with *InvalidStateError; transport failures fail with
// *ConnectionError and leave the client disconnected.
func (c *Client) Connect() (string, error) {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return "", &InvalidStateError{Op: "connect", State: state}
	}
	c.state = StateConnecting
	c.mu.Unlock()

	addr, err := c.establish()
	if err != nil {
		c.reset()
		return "", err
	}

	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()
	slog.Info("[frame] connected", "address", addr)
	return addr, nil
}

// establish performs the transport steps of Connect. On error the client
// holds no connection; the caller resets the state.
func (c *Client) establish() (string, error) {
	if err := c.adapter.Enable(); err != nil {
		return "", &ConnectionError{Device: c.opts.Name, Err: fmt.Errorf("enable adapter: %w", err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ConnectTimeout)
	defer cancel()

	dev, err := c.adapter.Find(ctx, c.profile.ServiceUUID, c.opts.Name)
	if err != nil {
		return "", &ConnectionError{Device: c.opts.Name, Err: err}
	}

	conn, err := c.adapter.Connect(ctx, dev.Address)
	if err != nil {
		return "", &ConnectionError{Device: dev.Address, Err: err}
	}

	txChar, rxChar, mtu, err := c.setup(conn)
	if err != nil {
		// Tear down the half-open transport connection; the session never
		// reached Ready so the caller only sees the setup failure.
		if derr := conn.Disconnect(); derr != nil {
			slog.Warn("[frame] disconnect after failed setup", "error", derr)
		}
		return "", &ConnectionError{Device: dev.Address, Err: err}
	}

	conn.OnDisconnect(func() {
		if c.reset() {
			slog.Warn("[frame] connection lost", "address", dev.Address)
			if c.opts.OnDisconnect != nil {
				c.opts.OnDisconnect()
			}
		}
	})

	c.mu.Lock()
	c.conn = conn
	c.txChar = txChar
	c.rxChar = rxChar
	c.mtu = mtu
	c.mu.Unlock()
	return dev.Address, nil
}

// setup discovers the TX/RX characteristics, subscribes for notifications
// and negotiates the MTU, applying the RefreshMTU quirk when the profile
// asks for it.
func (c *Client) setup(conn Connection) (tx, rx Characteristic, mtu int, err error) {
	tx, err = conn.DiscoverCharacteristic(c.profile.ServiceUUID, c.profile.TxCharUUID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("discover TX characteristic: %w", err)
	}
	rx, err = conn.DiscoverCharacteristic(c.profile.ServiceUUID, c.profile.RxCharUUID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("discover RX characteristic: %w", err)
	}
	if err = rx.Subscribe(c.handleNotification); err != nil {
		return nil, nil, 0, fmt.Errorf("subscribe for notifications: %w", err)
	}
	mtu, err = tx.MTU()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read MTU: %w", err)
	}
	if c.profile.Quirks.RefreshMTU {
		// The first read reports the pre-negotiation value on this backend.
		// Read again once the link has settled.
		time.Sleep(mtuRefreshDelay)
		mtu, err = tx.MTU()
		if err != nil {
			return nil, nil, 0, fmt.Errorf("refresh MTU: %w", err)
		}
	}
	return tx, rx, mtu, nil
}

// Disconnect tears down the session from any state. It is a no-op when
// already disconnected and never returns an error, so cleanup paths can
// call it unconditionally regardless of the Connect outcome; transport
// errors are logged and swallowed.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnecting
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Disconnect(); err != nil {
			slog.Warn("[frame] disconnect failed", "error", err)
		}
	}
	if c.reset() {
		slog.Info("[frame] disconnected")
		if c.opts.OnDisconnect != nil {
			c.opts.OnDisconnect()
		}
	}
}

// reset returns the client to the disconnected state and reports whether a
// transition happened, so the disconnect handler fires exactly once per
// session whether the teardown was local or remote.
func (c *Client) reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.state != StateDisconnected
	c.state = StateDisconnected
	c.conn = nil
	c.txChar = nil
	c.rxChar = nil
	c.mtu = 0
	return changed
}

// IsConnected reports whether the session is Ready.
func (c *Client) IsConnected() bool {
	return c.State() == StateReady
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MaxLuaPayload returns the maximum length of a Lua string which may be
// transmitted, or 0 when not connected.
func (c *Client) MaxLuaPayload() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return 0
	}
	return c.mtu - luaOverhead
}

// MaxDataPayload returns the maximum length of a raw data payload which may
// be transmitted, or 0 when not connected.
func (c *Client) MaxDataPayload() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return 0
	}
	return c.mtu - dataOverhead
}

// handleNotification demultiplexes RX notifications: a leading dataFlag
// byte marks a data response, anything else is print output.
func (c *Client) handleNotification(data []byte) {
	if len(data) == 0 {
		return
	}
	if data[0] == dataFlag {
		payload := make([]byte, len(data)-1)
		copy(payload, data[1:])
		select {
		case c.dataCh <- payload:
		default:
		}
		if c.opts.OnDataResponse != nil {
			c.opts.OnDataResponse(payload)
		}
		return
	}
	text := string(data)
	select {
	case c.printCh <- text:
	default:
	}
	if c.opts.OnPrintResponse != nil {
		c.opts.OnPrintResponse(text)
	}
}

// transmit writes a single packet to the TX characteristic. Ready-only.
func (c *Client) transmit(data []byte) error {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		return &InvalidStateError{Op: "write", State: state}
	}
	tx, mtu := c.txChar, c.mtu
	c.mu.Unlock()

	if len(data) > mtu-luaOverhead {
		return fmt.Errorf("frameble: payload of %d bytes exceeds the %d-byte write limit", len(data), mtu-luaOverhead)
	}
	if err := tx.Write(data); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// SendLua sends a Lua string to the device. The string length must be at
// most MaxLuaPayload.
func (c *Client) SendLua(s string) error {
	return c.transmit([]byte(s))
}

// SendLuaWithResponse sends a Lua string and blocks until the device prints
// a response or the response timeout elapses.
func (c *Client) SendLuaWithResponse(s string) (string, error) {
	drain(c.printCh)
	if err := c.SendLua(s); err != nil {
		return "", err
	}
	select {
	case resp := <-c.printCh:
		return resp, nil
	case <-time.After(c.opts.ResponseTimeout):
		return "", &TransportError{Op: "await print response", Err: ErrResponseTimeout}
	}
}

// SendData sends a raw data payload to the device. The payload length must
// be at most MaxDataPayload.
func (c *Client) SendData(p []byte) error {
	packet := make([]byte, 0, len(p)+1)
	packet = append(packet, dataFlag)
	packet = append(packet, p...)
	return c.transmit(packet)
}

// SendDataWithResponse sends a raw data payload and blocks until the device
// answers with a data response or the response timeout elapses.
func (c *Client) SendDataWithResponse(p []byte) ([]byte, error) {
	drain(c.dataCh)
	if err := c.SendData(p); err != nil {
		return nil, err
	}
	select {
	case resp := <-c.dataCh:
		return resp, nil
	case <-time.After(c.opts.ResponseTimeout):
		return nil, &TransportError{Op: "await data response", Err: ErrResponseTimeout}
	}
}

// SendBreakSignal breaks any currently executing Lua script, then waits for
// the settle delay so the firmware reaches a stable state before further
// commands are issued.
func (c *Client) SendBreakSignal() error {
	return c.sendControlSignal(sigBreak)
}

// SendResetSignal resets the Lua virtual machine, then waits for the settle
// delay.
func (c *Client) SendResetSignal() error {
	return c.sendControlSignal(sigReset)
}

func (c *Client) sendControlSignal(sig byte) error {
	if err := c.transmit([]byte{sig}); err != nil {
		return err
	}
	// Physical device timing: the firmware needs a moment to settle after
	// a break or reset before it accepts the next command.
	time.Sleep(c.opts.SettleDelay)
	return nil
}

// drain empties a one-slot response channel so an awaited send cannot pick
// up a stale response.
func drain[T any](ch chan T) {
	select {
	case <-ch:
	default:
	}
}
