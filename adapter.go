// Package frameble is a client library for the Brilliant Labs Frame
// wearable. It manages the BLE connection lifecycle and transfers Lua
// strings, raw data, framed messages and files to and from the device,
// built on top of a pluggable BLE transport.
package frameble

import "context"

// Frame BLE UUIDs
const (
	ServiceUUID = "7a230001-5475-a6a4-654c-8431f6ad49c4"
	TxCharUUID  = "7a230002-5475-a6a4-654c-8431f6ad49c4"
	RxCharUUID  = "7a230003-5475-a6a4-654c-8431f6ad49c4"
)

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
	// MTU returns the negotiated maximum transmission unit for writes.
	MTU() (int, error)
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE transport for testing and backend selection.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals advertising the given service UUID.
	// Returns discovered devices until ctx is cancelled or times out.
	Scan(ctx context.Context, serviceUUID string) ([]Device, error)
	// Find returns the first peripheral advertising the given service UUID,
	// optionally matching the advertised local name when name is non-empty.
	Find(ctx context.Context, serviceUUID, name string) (Device, error)
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, addr string) (Connection, error)
}
